// Copyright (c) 2023 BVK Chaitanya

package db

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/bvk/indexmon/cli"
	"github.com/bvk/indexmon/kvutil"
	"github.com/bvk/indexmon/subcmds/cmdutil"
	"github.com/bvkgo/kv"
)

type Restore struct {
	cmdutil.DBFlags
}

func (c *Restore) run(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("this command takes one (input backup file) argument")
	}

	fp, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("could not open file %q: %w", args[0], err)
	}
	defer fp.Close()

	br := bufio.NewReader(fp)

	db, closer, err := c.DBFlags.GetDatabase(ctx)
	if err != nil {
		return fmt.Errorf("could not get database instance: %w", err)
	}
	defer closer()

	restore := func(ctx context.Context, rw kv.ReadWriter) error {
		if err := kvutil.DeleteAll(ctx, rw); err != nil {
			return fmt.Errorf("could not clear the target db: %w", err)
		}
		if err := kvutil.Import(ctx, br, rw); err != nil {
			return fmt.Errorf("could not import items from the backup: %w", err)
		}
		return nil
	}
	if err := kv.WithReadWriter(ctx, db, restore); err != nil {
		return fmt.Errorf("could not restore the database: %w", err)
	}
	return nil
}

func (c *Restore) Command() (*flag.FlagSet, cli.CmdFunc) {
	fset := flag.NewFlagSet("restore", flag.ContinueOnError)
	c.DBFlags.SetFlags(fset)
	return fset, cli.CmdFunc(c.run)
}

func (c *Restore) Synopsis() string {
	return "Replaces the database content from a backup file"
}
