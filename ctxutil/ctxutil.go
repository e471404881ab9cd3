// Copyright (c) 2025 BVK Chaitanya

// Package ctxutil implements small context-aware helpers for sleeping and
// retrying.
package ctxutil

import (
	"context"
	"time"
)

// Sleep blocks the caller for the given duration. Returns early if the
// context is canceled.
func Sleep(ctx context.Context, d time.Duration) {
	sctx, scancel := context.WithTimeout(ctx, d)
	defer scancel()
	<-sctx.Done()
}

// Retry runs the input function repeatedly with the given interval between
// attempts till it succeeds or the context is canceled. Returns nil on
// success or the last non-nil error from the function.
func Retry(ctx context.Context, interval time.Duration, f func() error) error {
	for {
		err := f()
		if err == nil {
			return nil
		}
		if context.Cause(ctx) != nil {
			return err
		}
		Sleep(ctx, interval)
	}
}

// RetryTimeout is Retry with an upper bound on the total time spent across
// all attempts.
func RetryTimeout(ctx context.Context, interval, timeout time.Duration, f func() error) error {
	sctx, scancel := context.WithTimeout(ctx, timeout)
	defer scancel()
	return Retry(sctx, interval, f)
}
