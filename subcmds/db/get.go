// Copyright (c) 2023 BVK Chaitanya

package db

import (
	"context"
	"flag"
	"fmt"
	"io"

	"github.com/bvk/indexmon/cli"
	"github.com/bvk/indexmon/subcmds/cmdutil"
	"github.com/bvkgo/kv"
)

type Get struct {
	cmdutil.DBFlags
}

func (c *Get) run(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("this command takes one (key) argument")
	}

	db, closer, err := c.DBFlags.GetDatabase(ctx)
	if err != nil {
		return fmt.Errorf("could not get database instance: %w", err)
	}
	defer closer()

	get := func(ctx context.Context, r kv.Reader) error {
		v, err := r.Get(ctx, args[0])
		if err != nil {
			return err
		}
		data, err := io.ReadAll(v)
		if err != nil {
			return err
		}
		fmt.Printf("%s\n", data)
		return nil
	}
	return kv.WithReader(ctx, db, get)
}

func (c *Get) Command() (*flag.FlagSet, cli.CmdFunc) {
	fset := flag.NewFlagSet("get", flag.ContinueOnError)
	c.DBFlags.SetFlags(fset)
	return fset, cli.CmdFunc(c.run)
}

func (c *Get) Synopsis() string {
	return "Prints the value of a key in the database"
}
