// Copyright (c) 2023 BVK Chaitanya

package subcmds

import (
	"context"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/bvk/indexmon/api"
	"github.com/bvk/indexmon/cli"
	"github.com/bvk/indexmon/subcmds/cmdutil"
	"github.com/shirou/gopsutil/v4/process"
)

type Status struct {
	cmdutil.ClientFlags
}

func (c *Status) Synopsis() string {
	return "Status prints the daemon process info and a summary of all monitors"
}

func (c *Status) Command() (*flag.FlagSet, cli.CmdFunc) {
	fset := flag.NewFlagSet("status", flag.ContinueOnError)
	c.ClientFlags.SetFlags(fset)
	return fset, cli.CmdFunc(c.run)
}

func (c *Status) run(ctx context.Context, args []string) error {
	if len(args) != 0 {
		return fmt.Errorf("this command takes no arguments")
	}

	pid, err := c.fetchPid(ctx)
	if err != nil {
		return fmt.Errorf("could not fetch daemon pid (is the daemon running?): %w", err)
	}

	proc, err := process.NewProcessWithContext(ctx, int32(pid))
	if err != nil {
		return fmt.Errorf("could not find daemon process %d: %w", pid, err)
	}

	fmt.Printf("PID: %d\n", pid)
	if v, err := proc.CreateTimeWithContext(ctx); err == nil {
		start := time.UnixMilli(v)
		fmt.Printf("Uptime: %s\n", time.Since(start).Round(time.Second))
	}
	if v, err := proc.CPUPercentWithContext(ctx); err == nil {
		fmt.Printf("CPU: %.2f%%\n", v)
	}
	if v, err := proc.MemoryInfoWithContext(ctx); err == nil {
		fmt.Printf("RSS: %.2f MiB\n", float64(v.RSS)/(1024*1024))
	}

	resp, err := cmdutil.Post[api.MonitorListResponse](ctx, &c.ClientFlags, api.MonitorListPath, &api.MonitorListRequest{})
	if err != nil {
		return fmt.Errorf("could not list monitors: %w", err)
	}

	if len(resp.Monitors) > 0 {
		fmt.Println()
		tw := tabwriter.NewWriter(os.Stdout, 0, 0, 1, ' ', 0)
		fmt.Fprintf(tw, "UID\tSymbol\tState\tChecks\tErrors\tNextCheck\t\n")
		for _, item := range resp.Monitors {
			sreq := &api.MonitorStatusRequest{UID: item.UID}
			sresp, err := cmdutil.Post[api.MonitorStatusResponse](ctx, &c.ClientFlags, api.MonitorStatusPath, sreq)
			if err != nil {
				fmt.Fprintf(tw, "%s\t%s\t%s\t\t\t\t\n", item.UID, item.Symbol, item.State)
				continue
			}
			s := sresp.Status
			fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%s\t\n", item.UID, item.Symbol, item.State, s.NumChecks, s.NumErrors, s.NextCheckTime.Format(time.RFC3339))
		}
		tw.Flush()
	}
	return nil
}

func (c *Status) fetchPid(ctx context.Context) (int, error) {
	addrURL := c.ClientFlags.AddressURL()
	addrURL.Path = path.Join(addrURL.Path, "pid")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, addrURL.String(), nil)
	if err != nil {
		return 0, err
	}
	resp, err := c.ClientFlags.HttpClient().Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("http status code %d", resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, err
	}
	pid, err := strconv.Atoi(string(data))
	if err != nil {
		return 0, fmt.Errorf("invalid pid response %q: %w", data, err)
	}
	return pid, nil
}
