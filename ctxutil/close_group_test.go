// Copyright (c) 2025 BVK Chaitanya

package ctxutil

import (
	"context"
	"errors"
	"os"
	"sync/atomic"
	"testing"
)

func TestCloseGroup(t *testing.T) {
	var cg CloseGroup

	var nstopped atomic.Int64
	for i := 0; i < 100; i++ {
		cg.Go(func(ctx context.Context) {
			<-ctx.Done()
			if !errors.Is(context.Cause(ctx), os.ErrClosed) {
				t.Errorf("context cause: want os.ErrClosed, got %v", context.Cause(ctx))
			}
			nstopped.Add(1)
		})
	}

	cg.Close()
	if n := nstopped.Load(); n != 100 {
		t.Fatalf("Close returned with %d of 100 members still running", 100-n)
	}
}
