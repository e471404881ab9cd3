// Copyright (c) 2025 BVK Chaitanya

package subcmds

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"

	"github.com/bvk/indexmon/cli"
	"github.com/bvk/indexmon/monitor"
	"github.com/bvk/indexmon/runtime"
	"github.com/bvk/indexmon/subcmds/cmdutil"
	"github.com/bvk/indexmon/yahoo"
	"github.com/google/uuid"
)

// Check performs one immediate price check against the database directly,
// without the daemon.
type Check struct {
	cmdutil.DBFlags

	symbol    string
	threshold float64
}

func (c *Check) Synopsis() string {
	return "Fetches the index price and compares it with the saved observation"
}

func (c *Check) Command() (*flag.FlagSet, cli.CmdFunc) {
	fset := flag.NewFlagSet("check", flag.ContinueOnError)
	c.DBFlags.SetFlags(fset)
	fset.StringVar(&c.symbol, "symbol", "^GSPC", "index symbol to check")
	fset.Float64Var(&c.threshold, "threshold", 0, "percentage drop threshold for the warning")
	return fset, cli.CmdFunc(c.run)
}

func (c *Check) run(ctx context.Context, args []string) error {
	if len(args) != 0 {
		return fmt.Errorf("this command takes no arguments")
	}

	db, closer, err := c.DBFlags.GetDatabase(ctx)
	if err != nil {
		return err
	}
	defer closer()

	quotes, err := yahoo.New(nil /* opts */)
	if err != nil {
		return fmt.Errorf("could not create yahoo finance client: %w", err)
	}
	defer quotes.Close()

	opts := &monitor.Options{
		Threshold: c.threshold,
	}
	m, err := monitor.New(uuid.NewString(), c.symbol, opts)
	if err != nil {
		return err
	}

	rt := &runtime.Runtime{
		Database: db,
		Quotes:   quotes,
	}
	result, err := m.Check(ctx, rt)
	if err != nil {
		return err
	}

	jsdata, _ := json.MarshalIndent(result, "", "  ")
	fmt.Printf("%s\n", jsdata)
	return nil
}
