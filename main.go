// Copyright (c) 2023 BVK Chaitanya

package main

import (
	"context"
	"log"
	"os"

	"github.com/bvk/indexmon/cli"
	"github.com/bvk/indexmon/envfile"
	"github.com/bvk/indexmon/subcmds"
	"github.com/bvk/indexmon/subcmds/db"
	"github.com/bvk/indexmon/subcmds/monitor"
)

func main() {
	if err := envfile.UpdateEnv(".indexmon.env", envfile.VariableNamePrefix("INDEXMON_")); err != nil {
		log.Fatalf("could not load environment defaults: %v", err)
	}

	monitorCmds := []cli.Command{
		new(monitor.Add),
		new(monitor.List),
		new(monitor.Status),
		new(monitor.Check),
		new(monitor.Pause),
		new(monitor.Resume),
		new(monitor.Cancel),
	}

	dbCmds := []cli.Command{
		new(db.Get),
		new(db.Set),
		new(db.Delete),
		new(db.List),
		new(db.Backup),
		new(db.Restore),
	}

	cmds := []cli.Command{
		new(subcmds.Run),
		new(subcmds.Check),
		new(subcmds.Status),
		new(subcmds.Setup),
		cli.CommandGroup("monitor", "Control index price monitors", monitorCmds...),
		cli.CommandGroup("db", "View/update database directly", dbCmds...),
	}
	if err := cli.Run(context.Background(), cmds, os.Args[1:]); err != nil {
		log.Fatal(err)
	}
}
