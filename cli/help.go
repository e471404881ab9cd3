// Copyright (c) 2025 BVK Chaitanya

package cli

import (
	"cmp"
	"context"
	"flag"
	"fmt"
	"io"
	"path/filepath"
	"slices"
	"strings"
)

func numFlags(fs *flag.FlagSet) int {
	n := 0
	fs.VisitAll(func(*flag.Flag) { n++ })
	return n
}

func getName(c Command) string {
	fs, _ := c.Command()
	_, file := filepath.Split(fs.Name())
	return file
}

func getUsage(cmdpath []Command) string {
	var words []string

	for i, c := range cmdpath {
		fs, _ := c.Command()
		name := fs.Name()
		if i == 0 {
			// The top-level name comes from os.Args[0], so drop the directory.
			_, name = filepath.Split(fs.Name())
		}
		words = append(words, name)
	}

	for _, c := range cmdpath {
		fs, _ := c.Command()
		if numFlags(fs) != 0 {
			words = append(words, "<flags>")
			break
		}
	}

	if _, ok := cmdpath[len(cmdpath)-1].(*cmdGroup); ok {
		words = append(words, "<subcommand>")
	}

	words = append(words, "<args>")
	return strings.Join(words, " ")
}

func getHelpDoc(c Command) string {
	if v, ok := c.(interface{ CommandHelp() string }); ok {
		return v.CommandHelp()
	}
	return getSynopsis(c)
}

func getSynopsis(c Command) string {
	if v, ok := c.(interface{ Synopsis() string }); ok {
		return v.Synopsis()
	}
	if v, ok := c.(*cmdGroup); ok {
		return v.synopsis
	}
	return ""
}

// getInheritedFlags collects flags defined by ancestor commands in the
// command path. When multiple ancestors define the same flag name, the one
// closest to the running command wins.
func getInheritedFlags(cmdpath []Command) (*flag.FlagSet, int) {
	flagMap := make(map[string]*flag.Flag)
	for i := 0; i < len(cmdpath)-1; i++ {
		fs, _ := cmdpath[i].Command()
		fs.VisitAll(func(f *flag.Flag) {
			flagMap[f.Name] = f
		})
	}
	fset := flag.NewFlagSet("inherited", flag.ContinueOnError)
	for _, f := range flagMap {
		fset.Var(f.Value, f.Name, f.Usage)
	}
	return fset, numFlags(fset)
}

type subcmdInfo struct {
	name     string
	synopsis string
}

// getSubcommands returns subcommand names with their synopses. The top-level
// command list also gets the built-in special commands.
func getSubcommands(cmdpath []Command) []subcmdInfo {
	var result []subcmdInfo
	if len(cmdpath) == 1 {
		result = []subcmdInfo{
			{name: "help", synopsis: "describe subcommands and flags"},
			{name: "flags", synopsis: "describe all known flags"},
			{name: "commands", synopsis: "list all command names"},
			{},
		}
	}

	var subcmds []subcmdInfo
	if cg, ok := cmdpath[len(cmdpath)-1].(*cmdGroup); ok {
		for _, c := range cg.subcmds {
			subcmds = append(subcmds, subcmdInfo{
				name:     getName(c),
				synopsis: getSynopsis(c),
			})
		}
	}

	// Commands without a synopsis are listed first, each group sorted by name.
	slices.SortFunc(subcmds, func(a, b subcmdInfo) int {
		if (a.synopsis == "") != (b.synopsis == "") {
			if a.synopsis == "" {
				return -1
			}
			return 1
		}
		return cmp.Compare(a.name, b.name)
	})

	return append(result, subcmds...)
}

func (cg *cmdGroup) printHelp(ctx context.Context, w io.Writer, cmdpath []Command) error {
	cmd := cmdpath[len(cmdpath)-1]

	fmt.Fprintf(w, "Usage: %s\n", getUsage(cmdpath))

	if help := getHelpDoc(cmd); len(help) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "%s\n", help)
	}

	if subcmds := getSubcommands(cmdpath); len(subcmds) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Subcommands:\n")
		for _, sub := range subcmds {
			switch {
			case len(sub.synopsis) > 0:
				fmt.Fprintf(w, "\t%-15s  %s\n", sub.name, sub.synopsis)
			case len(sub.name) > 0:
				fmt.Fprintf(w, "\t%-15s\n", sub.name)
			default:
				fmt.Fprintln(w)
			}
		}
	}

	fs, _ := cmd.Command()
	if numFlags(fs) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Flags:\n")
		fs.SetOutput(w)
		fs.PrintDefaults()
	}

	if iflags, n := getInheritedFlags(cmdpath); n > 0 {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Inherited Flags:\n")
		iflags.SetOutput(w)
		iflags.PrintDefaults()
	}
	return nil
}
