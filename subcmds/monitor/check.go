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

type Check struct {
	cmdutil.ClientFlags
}

func (c *Check) Command() (*flag.FlagSet, cli.CmdFunc) {
	fset := flag.NewFlagSet("check", flag.ContinueOnError)
	c.ClientFlags.SetFlags(fset)
	return fset, cli.CmdFunc(c.run)
}

func (c *Check) run(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("this command takes one (uuid) argument")
	}
	req := &api.MonitorCheckRequest{
		UID: args[0],
	}
	resp, err := cmdutil.Post[api.MonitorCheckResponse](ctx, &c.ClientFlags, api.MonitorCheckPath, req)
	if err != nil {
		return err
	}
	jsdata, _ := json.MarshalIndent(resp, "", "  ")
	fmt.Printf("%s\n", jsdata)
	return nil
}

func (c *Check) Synopsis() string {
	return "Runs an immediate out-of-schedule price check"
}
