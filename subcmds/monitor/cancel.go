// Copyright (c) 2025 BVK Chaitanya

package monitor

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"

	"github.com/bvk/indexmon/api"
	"github.com/bvk/indexmon/cli"
	"github.com/bvk/indexmon/subcmds/cmdutil"
)

type Cancel struct {
	cmdutil.ClientFlags
}

func (c *Cancel) Command() (*flag.FlagSet, cli.CmdFunc) {
	fset := flag.NewFlagSet("cancel", flag.ContinueOnError)
	c.ClientFlags.SetFlags(fset)
	return fset, cli.CmdFunc(c.run)
}

func (c *Cancel) run(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("this command takes one (uuid) argument")
	}
	req := &api.MonitorCancelRequest{
		UID: args[0],
	}
	resp, err := cmdutil.Post[api.MonitorCancelResponse](ctx, &c.ClientFlags, api.MonitorCancelPath, req)
	if err != nil {
		return err
	}
	jsdata, _ := json.MarshalIndent(resp, "", "  ")
	fmt.Printf("%s\n", jsdata)
	return nil
}

func (c *Cancel) Synopsis() string {
	return "Cancels a monitor permanently"
}
