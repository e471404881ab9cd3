// Copyright (c) 2025 BVK Chaitanya

package server

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/bvk/indexmon/monitor"
)

func (s *Server) watchForWarnings(ctx context.Context, m *monitor.Monitor) {
	resultCh, unsubscribe := m.ResultsCh()
	defer unsubscribe()

	for {
		select {
		case <-ctx.Done():
			return

		case result := <-resultCh:
			if result == nil || !result.Warning {
				continue
			}
			if err := s.alertOnPriceDrop(ctx, result); err != nil {
				slog.Warn("could not send price drop alert", "symbol", result.Symbol, "change", result.PercentageChange, "err", err)
			}
		}
	}
}

func (s *Server) alertOnPriceDrop(ctx context.Context, result *monitor.Result) error {
	now := time.Now()
	symbol := strings.ToUpper(result.Symbol)
	key := fmt.Sprintf("alerts/price-drop-alert/%s", symbol)

	s.mu.Lock()
	if deadline, ok := s.alertFreezeDeadlineMap[key]; ok {
		if now.Before(deadline) {
			s.mu.Unlock()
			return nil
		}
		delete(s.alertFreezeDeadlineMap, key)
	}
	s.alertFreezeDeadlineMap[key] = now.Add(time.Hour)
	s.mu.Unlock()

	s.SendMessage(ctx, now,
		"Index %s has dropped %.2f%% from the previous close %.2f to %.2f.",
		symbol, result.PercentageChange, result.PreviousPrice, result.CurrentPrice)
	return nil
}
