// Copyright (c) 2025 BVK Chaitanya

package cli

import (
	"context"
	"flag"
	"testing"
)

type fakeCmd struct {
	name  string
	flags *flag.FlagSet
	args  []string
	nrun  int
}

func newFakeCmd(name string) *fakeCmd {
	return &fakeCmd{
		name:  name,
		flags: flag.NewFlagSet(name, flag.ContinueOnError),
	}
}

func (f *fakeCmd) Command() (*flag.FlagSet, CmdFunc) {
	return f.flags, CmdFunc(func(_ context.Context, args []string) error {
		f.args = args
		f.nrun++
		return nil
	})
}

func TestRun(t *testing.T) {
	ctx := context.Background()

	run := newFakeCmd("run")
	background := run.flags.Bool("background", false, "set to run in background")

	monitorAdd := newFakeCmd("add")
	monitorAdd.flags.Float64("threshold", -2, "warning threshold percentage")
	monitorList := newFakeCmd("list")
	monitorPause := newFakeCmd("pause")
	monitorResume := newFakeCmd("resume")
	monitorCancel := newFakeCmd("cancel")
	monitor := CommandGroup("monitor", "Control price monitors", monitorAdd, monitorList, monitorPause, monitorResume, monitorCancel)

	dbGet := newFakeCmd("get")
	dbSet := newFakeCmd("set")
	dbList := newFakeCmd("list")
	dbBackup := newFakeCmd("backup")
	db := CommandGroup("db", "Access the database", dbGet, dbSet, dbList, dbBackup)

	cmds := []Command{run, monitor, db}

	{
		args := []string{"db", "get", "/observations/GSPC/last"}
		if err := Run(ctx, cmds, args); err != nil {
			t.Fatal(err)
		}
		if len(dbGet.args) != 1 || dbGet.args[0] != "/observations/GSPC/last" {
			t.Fatalf("want key argument, got %v", dbGet.args)
		}
	}

	{
		args := []string{"run", "-background", "run-argument"}
		if err := Run(ctx, cmds, args); err != nil {
			t.Fatal(err)
		}
		if len(run.args) != 1 || run.args[0] != "run-argument" {
			t.Fatalf("want `run-argument`, got %v", run.args)
		}
		if *background == false {
			t.Fatalf("want true, got false")
		}
	}

	// Subcommands with the same name under different groups must not collide.
	{
		if err := Run(ctx, cmds, []string{"monitor", "list"}); err != nil {
			t.Fatal(err)
		}
		if monitorList.nrun != 1 || dbList.nrun != 0 {
			t.Fatalf("monitor list ran %d times, db list ran %d times", monitorList.nrun, dbList.nrun)
		}
	}
}
