// Copyright (c) 2025 BVK Chaitanya

package monitor

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/bvk/indexmon/observation"
	"github.com/bvk/indexmon/runtime"
	"github.com/bvkgo/kv"
	"github.com/bvkgo/kv/kvmemdb"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type fakeQuotes struct {
	price decimal.Decimal
	err   error
}

func (f *fakeQuotes) GetDailyClose(ctx context.Context, symbol string) (decimal.Decimal, time.Time, error) {
	if f.err != nil {
		return decimal.Zero, time.Time{}, f.err
	}
	return f.price, time.Now().UTC(), nil
}

type gaugePoint struct {
	name  string
	unit  string
	value float64
}

type fakeGauge struct {
	err    error
	points []gaugePoint
}

func (g *fakeGauge) RecordGauge(ctx context.Context, name, unit string, value float64, at time.Time) error {
	if g.err != nil {
		return g.err
	}
	g.points = append(g.points, gaugePoint{name: name, unit: unit, value: value})
	return nil
}

func newTestMonitor(t *testing.T) (*Monitor, kv.Database) {
	db := kvmemdb.New()
	m, err := New(uuid.NewString(), "^GSPC", nil)
	if err != nil {
		t.Fatal(err)
	}
	return m, db
}

func savedPrice(t *testing.T, ctx context.Context, db kv.Database) (float64, bool) {
	store, err := observation.New(db, "^GSPC")
	if err != nil {
		t.Fatal(err)
	}
	old, err := store.Load(ctx)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, false
		}
		t.Fatal(err)
	}
	return old.LastPrice, true
}

func setSavedPrice(t *testing.T, ctx context.Context, db kv.Database, price float64) {
	store, err := observation.New(db, "^GSPC")
	if err != nil {
		t.Fatal(err)
	}
	if err := store.Save(ctx, price); err != nil {
		t.Fatal(err)
	}
}

func TestFirstCheck(t *testing.T) {
	ctx := context.Background()
	m, db := newTestMonitor(t)

	gauge := &fakeGauge{}
	rt := &runtime.Runtime{
		Database: db,
		Quotes:   &fakeQuotes{price: decimal.NewFromFloat(4567.89)},
		Gauge:    gauge,
	}

	result, err := m.Check(ctx, rt)
	if err != nil {
		t.Fatal(err)
	}
	if result.HasChange {
		t.Fatalf("first check must not compute a change")
	}
	if result.Warning {
		t.Fatalf("first check must not raise a warning")
	}
	if len(gauge.points) != 0 {
		t.Fatalf("first check must not record a gauge datapoint")
	}
	if price, ok := savedPrice(t, ctx, db); !ok || price != 4567.89 {
		t.Fatalf("saved price: got %v (present=%v), want 4567.89", price, ok)
	}
}

func TestSmallDrop(t *testing.T) {
	ctx := context.Background()
	m, db := newTestMonitor(t)
	setSavedPrice(t, ctx, db, 100)

	gauge := &fakeGauge{}
	rt := &runtime.Runtime{
		Database: db,
		Quotes:   &fakeQuotes{price: decimal.NewFromFloat(99)},
		Gauge:    gauge,
	}

	result, err := m.Check(ctx, rt)
	if err != nil {
		t.Fatal(err)
	}
	if !result.HasChange || result.PercentageChange != -1 {
		t.Fatalf("change: got %v (has=%v), want -1", result.PercentageChange, result.HasChange)
	}
	if result.Warning {
		t.Fatalf("-1%% change must not raise a warning")
	}
	if len(gauge.points) != 1 {
		t.Fatalf("gauge datapoints: got %d, want 1", len(gauge.points))
	}
	if p := gauge.points[0]; p.name != "sp500_percentage_change" || p.unit != "percentage" || p.value != -1 {
		t.Fatalf("gauge datapoint: got %+v", p)
	}
	if price, _ := savedPrice(t, ctx, db); price != 99 {
		t.Fatalf("saved price: got %v, want 99", price)
	}
}

func TestLargeDrop(t *testing.T) {
	ctx := context.Background()
	m, db := newTestMonitor(t)
	setSavedPrice(t, ctx, db, 100)

	gauge := &fakeGauge{}
	rt := &runtime.Runtime{
		Database: db,
		Quotes:   &fakeQuotes{price: decimal.NewFromFloat(97.5)},
		Gauge:    gauge,
	}

	result, err := m.Check(ctx, rt)
	if err != nil {
		t.Fatal(err)
	}
	if result.PercentageChange != -2.5 {
		t.Fatalf("change: got %v, want -2.5", result.PercentageChange)
	}
	if !result.Warning {
		t.Fatalf("-2.5%% change must raise a warning")
	}
	if len(gauge.points) != 1 || gauge.points[0].value != -2.5 {
		t.Fatalf("gauge datapoints: got %+v", gauge.points)
	}
	if price, _ := savedPrice(t, ctx, db); price != 97.5 {
		t.Fatalf("saved price: got %v, want 97.5", price)
	}
}

func TestThresholdBoundary(t *testing.T) {
	ctx := context.Background()

	// Exactly -2% must warn.
	m, db := newTestMonitor(t)
	setSavedPrice(t, ctx, db, 1000)
	rt := &runtime.Runtime{
		Database: db,
		Quotes:   &fakeQuotes{price: decimal.NewFromFloat(980)},
	}
	result, err := m.Check(ctx, rt)
	if err != nil {
		t.Fatal(err)
	}
	if result.PercentageChange != -2 {
		t.Fatalf("change: got %v, want -2", result.PercentageChange)
	}
	if !result.Warning {
		t.Fatalf("-2%% change must raise a warning")
	}

	// Slightly above -2% must not warn.
	m2, db2 := newTestMonitor(t)
	setSavedPrice(t, ctx, db2, 1000)
	rt2 := &runtime.Runtime{
		Database: db2,
		Quotes:   &fakeQuotes{price: decimal.NewFromFloat(980.5)},
	}
	result2, err := m2.Check(ctx, rt2)
	if err != nil {
		t.Fatal(err)
	}
	if result2.Warning {
		t.Fatalf("%.3f%% change must not raise a warning", result2.PercentageChange)
	}
}

func TestQuoteFailure(t *testing.T) {
	ctx := context.Background()
	m, db := newTestMonitor(t)
	setSavedPrice(t, ctx, db, 100)

	gauge := &fakeGauge{}
	rt := &runtime.Runtime{
		Database: db,
		Quotes:   &fakeQuotes{err: errors.New("quote source is down")},
		Gauge:    gauge,
	}

	if _, err := m.Check(ctx, rt); err == nil {
		t.Fatalf("check must fail when the quote source fails")
	}
	if len(gauge.points) != 0 {
		t.Fatalf("failed check must not record a gauge datapoint")
	}
	// The saved observation must stay untouched.
	if price, _ := savedPrice(t, ctx, db); price != 100 {
		t.Fatalf("saved price: got %v, want 100", price)
	}
	if s := m.Status(); s.NumErrors != 1 {
		t.Fatalf("error count: got %d, want 1", s.NumErrors)
	}
}

func TestGaugeFailureStillSaves(t *testing.T) {
	ctx := context.Background()
	m, db := newTestMonitor(t)
	setSavedPrice(t, ctx, db, 100)

	rt := &runtime.Runtime{
		Database: db,
		Quotes:   &fakeQuotes{price: decimal.NewFromFloat(99)},
		Gauge:    &fakeGauge{err: errors.New("metrics service is down")},
	}

	if _, err := m.Check(ctx, rt); err != nil {
		t.Fatal(err)
	}
	if price, _ := savedPrice(t, ctx, db); price != 99 {
		t.Fatalf("saved price: got %v, want 99", price)
	}
}

func TestZeroSavedPrice(t *testing.T) {
	ctx := context.Background()
	m, db := newTestMonitor(t)
	setSavedPrice(t, ctx, db, 0)

	gauge := &fakeGauge{}
	rt := &runtime.Runtime{
		Database: db,
		Quotes:   &fakeQuotes{price: decimal.NewFromFloat(100)},
		Gauge:    gauge,
	}

	result, err := m.Check(ctx, rt)
	if err != nil {
		t.Fatal(err)
	}
	if result.HasChange {
		t.Fatalf("zero saved price must not produce a change")
	}
	if len(gauge.points) != 0 {
		t.Fatalf("zero saved price must not record a gauge datapoint")
	}
}

func TestResultsCh(t *testing.T) {
	ctx := context.Background()
	m, db := newTestMonitor(t)
	setSavedPrice(t, ctx, db, 100)

	ch, unsubscribe := m.ResultsCh()
	defer unsubscribe()

	rt := &runtime.Runtime{
		Database: db,
		Quotes:   &fakeQuotes{price: decimal.NewFromFloat(97)},
	}
	if _, err := m.Check(ctx, rt); err != nil {
		t.Fatal(err)
	}

	select {
	case result := <-ch:
		if !result.Warning {
			t.Fatalf("published result must carry the warning")
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out waiting for the published result")
	}
}

func TestNextCheckTime(t *testing.T) {
	m, _ := newTestMonitor(t)

	// 2026-01-05 is a Monday.
	monday := time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC)
	if at := m.NextCheckTime(monday); !at.Equal(time.Date(2026, 1, 5, 18, 0, 0, 0, time.UTC)) {
		t.Fatalf("next check from monday morning: got %v", at)
	}

	// After the fire time, the next check is the next day.
	mondayEvening := time.Date(2026, 1, 5, 19, 0, 0, 0, time.UTC)
	if at := m.NextCheckTime(mondayEvening); !at.Equal(time.Date(2026, 1, 6, 18, 0, 0, 0, time.UTC)) {
		t.Fatalf("next check from monday evening: got %v", at)
	}

	// Friday evening skips over the weekend.
	fridayEvening := time.Date(2026, 1, 9, 19, 0, 0, 0, time.UTC)
	if at := m.NextCheckTime(fridayEvening); !at.Equal(time.Date(2026, 1, 12, 18, 0, 0, 0, time.UTC)) {
		t.Fatalf("next check from friday evening: got %v", at)
	}

	// Exactly at the fire time, the next check is the next weekday.
	fireTime := time.Date(2026, 1, 5, 18, 0, 0, 0, time.UTC)
	if at := m.NextCheckTime(fireTime); !at.Equal(time.Date(2026, 1, 6, 18, 0, 0, 0, time.UTC)) {
		t.Fatalf("next check from the fire time: got %v", at)
	}
}

func TestSaveLoad(t *testing.T) {
	ctx := context.Background()
	m, db := newTestMonitor(t)
	setSavedPrice(t, ctx, db, 100)

	rt := &runtime.Runtime{
		Database: db,
		Quotes:   &fakeQuotes{price: decimal.NewFromFloat(99)},
	}
	if _, err := m.Check(ctx, rt); err != nil {
		t.Fatal(err)
	}
	if err := kv.WithReadWriter(ctx, db, m.Save); err != nil {
		t.Fatal(err)
	}

	var loaded *Monitor
	load := func(ctx context.Context, r kv.Reader) (err error) {
		loaded, err = Load(ctx, m.UID(), r)
		return err
	}
	if err := kv.WithReader(ctx, db, load); err != nil {
		t.Fatal(err)
	}
	if loaded.Symbol() != "^GSPC" {
		t.Fatalf("loaded symbol: got %q", loaded.Symbol())
	}
	s := loaded.Status()
	if s.NumChecks != 1 {
		t.Fatalf("loaded check count: got %d, want 1", s.NumChecks)
	}
	if s.LastCheck == nil || s.LastCheck.PercentageChange != -1 {
		t.Fatalf("loaded last check: got %+v", s.LastCheck)
	}
}
