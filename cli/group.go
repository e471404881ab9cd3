// Copyright (c) 2023 BVK Chaitanya

package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
)

type cmdGroup struct {
	flags      *flag.FlagSet
	synopsis   string
	subcmds    []Command
	specialCmd string
}

var specialCmds = []string{"help", "flags", "commands"}

// Command implements Command interface.
func (cg *cmdGroup) Command() (*flag.FlagSet, CmdFunc) {
	return cg.flags, nil
}

func (cg *cmdGroup) printFlags(ctx context.Context, w io.Writer, cmdpath []Command) error {
	fs, _ := cmdpath[len(cmdpath)-1].Command()
	fs.SetOutput(w)
	fs.PrintDefaults()
	return nil
}

func (cg *cmdGroup) printCommands(ctx context.Context, w io.Writer, cmdpath []Command) error {
	subcmds := getSubcommands(cmdpath)
	for _, sub := range subcmds {
		if len(sub.synopsis) > 0 {
			fmt.Fprintf(w, "\t%-15s  %s\n", sub.name, sub.synopsis)
		} else {
			fmt.Fprintf(w, "\t%-15s\n", sub.name)
		}
	}
	return nil
}

func (cg *cmdGroup) resolve(ctx context.Context, args []string) ([]Command, []string, error) {
	type boolFlag interface {
		flag.Value
		IsBoolFlag() bool
	}

	cmdMap := make(map[string]Command)
	prepCmdMap := func(cmds []Command) {
		m := make(map[string]Command)
		for _, c := range cmds {
			fs, _ := c.Command()
			m[fs.Name()] = c
		}
		cmdMap = m
	}
	prepCmdMap(cg.subcmds)

	fspath := []*flag.FlagSet{flag.CommandLine}
	lookup := func(s string) (*flag.Flag, bool) {
		for i := len(fspath) - 1; i >= 0; i-- {
			fs := fspath[i]
			if f := fs.Lookup(s); f != nil {
				return f, true
			}
		}
		return nil, false
	}

	var i int
	cmdpath := []Command{cg}
	for i = 0; i < len(args); i++ {
		s := args[i]

		// A "--" ends subcommand and flag resolution.
		if s == "--" {
			i++
			break
		}

		if len(s) < 2 || s[0] != '-' {
			// Non-flag argument. When no deeper subcommands exist it is an
			// argument to the resolved command.
			if len(cmdMap) == 0 {
				break
			}

			subcmd, ok := cmdMap[s]
			if !ok {
				// Special commands help, flags and commands work at the top level.
				if len(cmdpath) == 1 && slices.Contains(specialCmds, s) {
					cg.specialCmd = s
					continue
				}
				return nil, nil, fmt.Errorf("command not defined: %s", s)
			}
			cmdpath = append(cmdpath, subcmd)

			// Descend into command groups.
			if sg, ok := subcmd.(*cmdGroup); ok {
				prepCmdMap(sg.subcmds)
				continue
			}

			// A leaf command ends subcommand resolution; its flags still apply.
			prepCmdMap(nil)
			fs, _ := subcmd.Command()
			fspath = append(fspath, fs)
			continue
		}

		// Strip the '-' or '--' prefix.
		name := s[1:]
		if s[1] == '-' {
			name = s[2:]
		}
		if len(name) == 0 || name[0] == '-' || name[0] == '=' {
			return nil, nil, fmt.Errorf("bad flag syntax: %s", s)
		}
		value := ""
		hasValue := false
		if before, after, ok := strings.Cut(name, "="); ok {
			name, value = before, after
			hasValue = true
		}

		// The flag can be defined by any command on the resolved path.
		flag, ok := lookup(name)
		if !ok {
			return nil, nil, fmt.Errorf("flag provided but not defined: -%s", name)
		}

		// Boolean flags don't need an argument.
		if fv, ok := flag.Value.(boolFlag); ok && fv.IsBoolFlag() {
			if hasValue {
				if err := fv.Set(value); err != nil {
					return nil, nil, fmt.Errorf("invalid boolean value %q for -%s: %w", value, name, err)
				}
			} else {
				if err := fv.Set("true"); err != nil {
					return nil, nil, fmt.Errorf("invalid boolean flag %s: %w", name, err)
				}
			}
			continue
		}

		// Other flags take a value, possibly from the next argument.
		if !hasValue && i+1 < len(args) {
			hasValue = true
			value = args[i+1]
			i++
		}
		if !hasValue {
			return nil, nil, fmt.Errorf("flag needs an argument: -%s", name)
		}
		if err := flag.Value.Set(value); err != nil {
			return nil, nil, fmt.Errorf("invalid value %q for flag -%s: %w", value, name, err)
		}
	}

	return cmdpath, args[i:], nil
}

func (cg *cmdGroup) run(ctx context.Context, args []string) error {
	cmdpath, args, err := cg.resolve(ctx, args)
	if err != nil {
		return err
	}

	switch cg.specialCmd {
	case "help":
		return cg.printHelp(ctx, os.Stderr, cmdpath)
	case "flags":
		return cg.printFlags(ctx, os.Stderr, cmdpath)
	case "commands":
		return cg.printCommands(ctx, os.Stderr, cmdpath)
	}

	_, fun := cmdpath[len(cmdpath)-1].Command()
	if fun == nil {
		return cg.printHelp(ctx, os.Stderr, cmdpath)
	}

	return fun(ctx, args)
}
