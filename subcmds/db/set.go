// Copyright (c) 2023 BVK Chaitanya

package db

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"strings"

	"github.com/bvk/indexmon/cli"
	"github.com/bvk/indexmon/subcmds/cmdutil"
	"github.com/bvkgo/kv"
)

type Set struct {
	cmdutil.DBFlags
}

func (c *Set) run(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("this command takes two (key, value) arguments")
	}
	key, value := args[0], args[1]
	if !json.Valid([]byte(value)) {
		return fmt.Errorf("value must be valid json")
	}

	db, closer, err := c.DBFlags.GetDatabase(ctx)
	if err != nil {
		return fmt.Errorf("could not get database instance: %w", err)
	}
	defer closer()

	set := func(ctx context.Context, rw kv.ReadWriter) error {
		return rw.Set(ctx, key, strings.NewReader(value))
	}
	return kv.WithReadWriter(ctx, db, set)
}

func (c *Set) Command() (*flag.FlagSet, cli.CmdFunc) {
	fset := flag.NewFlagSet("set", flag.ContinueOnError)
	c.DBFlags.SetFlags(fset)
	return fset, cli.CmdFunc(c.run)
}

func (c *Set) Synopsis() string {
	return "Updates the value of a key in the database"
}
