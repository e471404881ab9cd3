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

type List struct {
	cmdutil.ClientFlags
}

func (c *List) Command() (*flag.FlagSet, cli.CmdFunc) {
	fset := flag.NewFlagSet("list", flag.ContinueOnError)
	c.ClientFlags.SetFlags(fset)
	return fset, cli.CmdFunc(c.run)
}

func (c *List) run(ctx context.Context, args []string) error {
	if len(args) != 0 {
		return fmt.Errorf("this command takes no arguments")
	}

	req := &api.MonitorListRequest{}
	resp, err := cmdutil.Post[api.MonitorListResponse](ctx, &c.ClientFlags, api.MonitorListPath, req)
	if err != nil {
		return err
	}
	jsdata, _ := json.MarshalIndent(resp, "", "  ")
	fmt.Printf("%s\n", jsdata)
	return nil
}

func (c *List) Synopsis() string {
	return "Prints monitor ids and their states"
}
