// Copyright (c) 2023 BVK Chaitanya

package db

import (
	"context"
	"flag"
	"fmt"

	"github.com/bvk/indexmon/cli"
	"github.com/bvk/indexmon/subcmds/cmdutil"
	"github.com/bvkgo/kv"
)

type Delete struct {
	cmdutil.DBFlags
}

func (c *Delete) run(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("this command takes one (key) argument")
	}

	db, closer, err := c.DBFlags.GetDatabase(ctx)
	if err != nil {
		return fmt.Errorf("could not get database instance: %w", err)
	}
	defer closer()

	del := func(ctx context.Context, rw kv.ReadWriter) error {
		return rw.Delete(ctx, args[0])
	}
	return kv.WithReadWriter(ctx, db, del)
}

func (c *Delete) Command() (*flag.FlagSet, cli.CmdFunc) {
	fset := flag.NewFlagSet("delete", flag.ContinueOnError)
	c.DBFlags.SetFlags(fset)
	return fset, cli.CmdFunc(c.run)
}

func (c *Delete) Synopsis() string {
	return "Removes a key from the database"
}
