// Copyright (c) 2025 BVK Chaitanya

package server

import (
	"context"
	"fmt"

	"github.com/bvk/indexmon/cli"
	"github.com/bvk/indexmon/job"
	"github.com/bvk/indexmon/monitor"
	"github.com/bvk/indexmon/telegram"
	"github.com/bvkgo/kv"
)

func (s *Server) AddTelegramCommand(ctx context.Context, name, purpose string, handler telegram.CmdFunc) error {
	if s.telegramClient != nil {
		return s.telegramClient.AddCommand(ctx, name, purpose, handler)
	}
	return nil // Ignored
}

func (s *Server) registerTelegramCommands(ctx context.Context) error {
	if err := s.AddTelegramCommand(ctx, "monitors", "Lists all index price monitors", s.monitorsTelegramCmd); err != nil {
		return err
	}
	if err := s.AddTelegramCommand(ctx, "price", "Fetches index prices immediately", s.priceTelegramCmd); err != nil {
		return err
	}
	if err := s.AddTelegramCommand(ctx, "change", "Prints percentage changes from the last checks", s.changeTelegramCmd); err != nil {
		return err
	}
	return nil
}

func (s *Server) monitorsTelegramCmd(ctx context.Context, args []string) error {
	stdout := cli.Stdout(ctx)

	collect := func(ctx context.Context, r kv.Reader, jd *job.JobData) error {
		symbol := ""
		if m, err := s.getMonitor(ctx, jd.UID); err == nil {
			symbol = m.Symbol()
		}
		fmt.Fprintf(stdout, "%s %s %s\n", jd.UID, symbol, jd.State)
		return nil
	}
	scan := func(ctx context.Context, r kv.Reader) error {
		return s.runner.Scan(ctx, r, collect)
	}
	return kv.WithReader(ctx, s.db, scan)
}

// priceTelegramCmd performs an immediate price check on every monitor and
// replies with the fetched prices.
func (s *Server) priceTelegramCmd(ctx context.Context, args []string) error {
	stdout := cli.Stdout(ctx)

	var status error
	s.monitorMap.Range(func(uid string, m *monitor.Monitor) bool {
		result, err := m.Check(ctx, s.Runtime())
		if err != nil {
			fmt.Fprintf(stdout, "%s: could not check: %v\n", m.Symbol(), err)
			status = err
			return true
		}
		fmt.Fprintf(stdout, "%s: %.2f\n", m.Symbol(), result.CurrentPrice)
		return true
	})
	return status
}

// changeTelegramCmd replies with the percentage change computed by each
// monitor's most recent check. It does not fetch new prices.
func (s *Server) changeTelegramCmd(ctx context.Context, args []string) error {
	stdout := cli.Stdout(ctx)

	s.monitorMap.Range(func(uid string, m *monitor.Monitor) bool {
		last := m.Status().LastCheck
		switch {
		case last == nil:
			fmt.Fprintf(stdout, "%s: no checks yet\n", m.Symbol())
		case !last.HasChange:
			fmt.Fprintf(stdout, "%s: %.2f (no previous close to compare)\n", m.Symbol(), last.CurrentPrice)
		default:
			fmt.Fprintf(stdout, "%s: %+.2f%% (%.2f -> %.2f)\n", m.Symbol(), last.PercentageChange, last.PreviousPrice, last.CurrentPrice)
		}
		return true
	})
	return nil
}
