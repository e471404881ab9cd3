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

type Add struct {
	cmdutil.ClientFlags

	fireHour   int
	fireMinute int
	threshold  float64
}

func (c *Add) Command() (*flag.FlagSet, cli.CmdFunc) {
	fset := flag.NewFlagSet("add", flag.ContinueOnError)
	c.ClientFlags.SetFlags(fset)
	fset.IntVar(&c.fireHour, "fire-hour", 0, "hour of day (UTC) for the scheduled check")
	fset.IntVar(&c.fireMinute, "fire-minute", 0, "minute of hour for the scheduled check")
	fset.Float64Var(&c.threshold, "threshold", 0, "percentage drop threshold for the warning")
	return fset, cli.CmdFunc(c.run)
}

func (c *Add) run(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("this command takes one (symbol) argument")
	}
	req := &api.MonitorAddRequest{
		Symbol:     args[0],
		FireHour:   c.fireHour,
		FireMinute: c.fireMinute,
		Threshold:  c.threshold,
	}
	resp, err := cmdutil.Post[api.MonitorAddResponse](ctx, &c.ClientFlags, api.MonitorAddPath, req)
	if err != nil {
		return err
	}
	jsdata, _ := json.MarshalIndent(resp, "", "  ")
	fmt.Printf("%s\n", jsdata)
	return nil
}

func (c *Add) Synopsis() string {
	return "Creates a new index price monitor"
}
