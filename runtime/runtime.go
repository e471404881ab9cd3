// Copyright (c) 2025 BVK Chaitanya

package runtime

import (
	"context"
	"time"

	"github.com/bvkgo/kv"
	"github.com/shopspring/decimal"
)

// QuoteSource fetches the most recent daily closing price for an index or
// ticker symbol.
type QuoteSource interface {
	GetDailyClose(ctx context.Context, symbol string) (decimal.Decimal, time.Time, error)
}

// Gauge records gauge datapoints with an external metrics service.
type Gauge interface {
	RecordGauge(ctx context.Context, name, unit string, value float64, at time.Time) error
}

// Runtime holds shared dependencies for monitor jobs. Gauge can be nil when
// no metrics service is configured, in which case datapoint uploads are
// skipped.
type Runtime struct {
	Database kv.Database

	Quotes QuoteSource

	Gauge Gauge
}
