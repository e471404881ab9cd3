// Copyright (c) 2023 BVK Chaitanya

package db

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"regexp"

	"github.com/bvk/indexmon/cli"
	"github.com/bvk/indexmon/subcmds/cmdutil"
	"github.com/bvkgo/kv"
)

type List struct {
	cmdutil.DBFlags

	keyRe string

	printValues bool
}

func (c *List) run(ctx context.Context, args []string) error {
	if len(args) != 0 {
		return fmt.Errorf("this command takes no arguments")
	}

	var keyRe *regexp.Regexp
	if len(c.keyRe) != 0 {
		re, err := regexp.Compile(c.keyRe)
		if err != nil {
			return fmt.Errorf("could not compile key-regexp value: %w", err)
		}
		keyRe = re
	}

	db, closer, err := c.DBFlags.GetDatabase(ctx)
	if err != nil {
		return fmt.Errorf("could not get database instance: %w", err)
	}
	defer closer()

	list := func(ctx context.Context, r kv.Reader) error {
		it, err := r.Scan(ctx)
		if err != nil {
			return err
		}
		defer kv.Close(it)

		for k, v, err := it.Fetch(ctx, false); err == nil; k, v, err = it.Fetch(ctx, true) {
			if keyRe != nil && !keyRe.MatchString(k) {
				continue
			}
			if !c.printValues {
				fmt.Println(k)
				continue
			}
			data, err := io.ReadAll(v)
			if err != nil {
				return fmt.Errorf("could not read value at key %q: %w", k, err)
			}
			fmt.Printf("%s %s\n", k, data)
		}
		if _, _, err := it.Fetch(ctx, false); err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("iterator fetch has failed: %w", err)
		}
		return nil
	}
	return kv.WithReader(ctx, db, list)
}

func (c *List) Command() (*flag.FlagSet, cli.CmdFunc) {
	fset := flag.NewFlagSet("list", flag.ContinueOnError)
	c.DBFlags.SetFlags(fset)
	fset.StringVar(&c.keyRe, "key-regexp", "", "regular expression to select keys")
	fset.BoolVar(&c.printValues, "print-values", false, "when true values are printed with the keys")
	return fset, cli.CmdFunc(c.run)
}

func (c *List) Synopsis() string {
	return "Prints keys in the database"
}
