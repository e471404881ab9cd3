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

type Backup struct {
	cmdutil.DBFlags
}

func (c *Backup) run(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("this command takes one (output backup file) argument")
	}

	fp, err := os.OpenFile(args[0], os.O_CREATE|os.O_WRONLY, os.FileMode(0600))
	if err != nil {
		return fmt.Errorf("could not open file %q: %w", args[0], err)
	}
	defer fp.Close()

	bw := bufio.NewWriter(fp)

	db, closer, err := c.DBFlags.GetDatabase(ctx)
	if err != nil {
		return fmt.Errorf("could not get database instance: %w", err)
	}
	defer closer()

	backup := func(ctx context.Context, r kv.Reader) error {
		return kvutil.Export(ctx, r, bw)
	}
	if err := kv.WithReader(ctx, db, backup); err != nil {
		return fmt.Errorf("could not export the database: %w", err)
	}

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("could not flush the bufio writer: %w", err)
	}
	if err := fp.Sync(); err != nil {
		return fmt.Errorf("could not sync the output file: %w", err)
	}
	return nil
}

func (c *Backup) Command() (*flag.FlagSet, cli.CmdFunc) {
	fset := flag.NewFlagSet("backup", flag.ContinueOnError)
	c.DBFlags.SetFlags(fset)
	return fset, cli.CmdFunc(c.run)
}

func (c *Backup) Synopsis() string {
	return "Takes a backup of the database into a file"
}
