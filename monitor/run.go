// Copyright (c) 2025 BVK Chaitanya

package monitor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/bvk/indexmon/ctxutil"
	"github.com/bvk/indexmon/observation"
	"github.com/bvk/indexmon/runtime"
	"github.com/bvkgo/kv"
)

// Scheduled checks firing later than this are logged as past due.
const maxCheckLateness = time.Minute

// Run performs the daily price check at the scheduled times until the
// context is canceled. Individual check failures are logged and retried at
// the next schedule; they never stop the monitor.
func (m *Monitor) Run(ctx context.Context, rt *runtime.Runtime) (status error) {
	slog.Info("started monitor", "monitor", m, "symbol", m.symbol)
	defer func() {
		slog.Info("stopping monitor", "monitor", m, "status", status)
	}()

	// Save the initial state so that the monitor is visible across daemon
	// restarts.
	if err := kv.WithReadWriter(ctx, rt.Database, m.Save); err != nil {
		return err
	}

	for ctx.Err() == nil {
		now := time.Now()
		at := m.NextCheckTime(now)
		slog.Info("next scheduled check", "monitor", m, "at", at)

		ctxutil.Sleep(ctx, at.Sub(now))
		if ctx.Err() != nil {
			break
		}
		if late := time.Since(at); late > maxCheckLateness {
			slog.Warn("scheduled check is past due", "monitor", m, "late", late)
		}

		if _, err := m.Check(ctx, rt); err != nil {
			if errors.Is(err, context.Cause(ctx)) {
				break
			}
			slog.Error("scheduled check has failed (will retry at next schedule)", "monitor", m, "err", err)
		}
		if err := kv.WithReadWriter(ctx, rt.Database, m.Save); err != nil {
			slog.Error("could not save monitor state (ignored)", "monitor", m, "err", err)
		}
	}
	return context.Cause(ctx)
}

// NextCheckTime returns the first instant strictly after now that falls on
// a weekday at the configured fire time. All schedule math is in UTC.
func (m *Monitor) NextCheckTime(now time.Time) time.Time {
	now = now.UTC()
	at := time.Date(now.Year(), now.Month(), now.Day(), m.opts.FireHour, m.opts.FireMinute, 0, 0, time.UTC)
	for !at.After(now) || isWeekend(at) {
		at = at.AddDate(0, 0, 1)
	}
	return at
}

func isWeekend(t time.Time) bool {
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// Check performs a single fetch-compare-record cycle. When the price fetch
// fails nothing is recorded and the saved observation is left untouched.
// Failures in the gauge upload or the observation save are logged and
// otherwise ignored.
func (m *Monitor) Check(ctx context.Context, rt *runtime.Runtime) (*Result, error) {
	checkTime := time.Now().UTC()

	price, quoteTime, err := rt.Quotes.GetDailyClose(ctx, m.symbol)
	if err != nil {
		m.mu.Lock()
		m.numChecks++
		m.numErrors++
		m.mu.Unlock()
		return nil, fmt.Errorf("could not fetch daily close for %q: %w", m.symbol, err)
	}
	current, _ := price.Float64()

	store, err := observation.New(rt.Database, m.symbol)
	if err != nil {
		return nil, err
	}

	// A missing or unreadable prior observation means there is no previous
	// price to compare against.
	var previous float64
	if old, err := store.Load(ctx); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			slog.Info("no prior observation", "symbol", m.symbol)
		} else {
			slog.Error("could not load prior observation (assuming none)", "symbol", m.symbol, "err", err)
		}
	} else {
		previous = old.LastPrice
	}

	result := &Result{
		UID:           m.uid,
		Symbol:        m.symbol,
		CheckTime:     checkTime,
		QuoteTime:     quoteTime,
		CurrentPrice:  current,
		PreviousPrice: previous,
	}
	if previous > 0 {
		result.HasChange = true
		result.PercentageChange = ((current - previous) / previous) * 100
	}

	if result.HasChange {
		slog.Info("checked index price", "symbol", m.symbol, "current", current, "previous", previous, "change", result.PercentageChange)
		if rt.Gauge != nil {
			if err := rt.Gauge.RecordGauge(ctx, m.opts.MetricName, m.opts.MetricUnit, result.PercentageChange, checkTime); err != nil {
				slog.Error("could not record gauge datapoint (ignored)", "metric", m.opts.MetricName, "err", err)
			}
		}
		if result.PercentageChange <= m.opts.Threshold {
			result.Warning = true
			slog.Warn(fmt.Sprintf("%s has changed %.2f%% since the last check (threshold %.2f%%)", m.symbol, result.PercentageChange, m.opts.Threshold))
		}
	} else {
		slog.Info("checked index price with no prior price to compare", "symbol", m.symbol, "current", current)
	}

	// The fetched price always replaces the saved observation, even when the
	// gauge upload above has failed.
	if err := store.Save(ctx, current); err != nil {
		slog.Error("could not save observation (ignored)", "symbol", m.symbol, "err", err)
	}

	m.mu.Lock()
	m.numChecks++
	m.lastCheck = result
	m.mu.Unlock()

	m.resultTopic.Send(result)
	return result, nil
}
