// Copyright (c) 2025 BVK Chaitanya

// Package job implements an api to manage long-running jobs. Jobs are
// activities that can be canceled, paused or resumed through their
// context.Context argument.
package job

import (
	"context"
	"errors"
	"sync"
)

type State string

const (
	PAUSED    State = "PAUSED"
	RUNNING   State = "RUNNING"
	COMPLETED State = "COMPLETED"
	CANCELED  State = "CANCELED"
	FAILED    State = "FAILED"
)

func IsStopped(s State) bool {
	return s != RUNNING
}

func IsDone(s State) bool {
	return s == COMPLETED || s == CANCELED || s == FAILED
}

type Func func(ctx context.Context) error

var (
	errPause  = errors.New("job is paused")
	errCancel = errors.New("job is canceled")
)

type Job struct {
	cancel context.CancelCauseFunc

	done chan struct{}

	mu sync.Mutex

	status State

	err error
}

// Run starts the job function in a background goroutine. Well-behaved job
// functions must watch their context and return context.Cause on
// cancellation, which lets Pause and Cancel resolve the final state.
func Run(f Func, ctx context.Context) *Job {
	jctx, jcancel := context.WithCancelCause(ctx)
	j := &Job{
		cancel: jcancel,
		done:   make(chan struct{}),
		status: RUNNING,
	}
	go j.goRun(jctx, f)
	return j
}

func (j *Job) goRun(ctx context.Context, f Func) {
	defer close(j.done)

	err := f(ctx)

	j.mu.Lock()
	defer j.mu.Unlock()

	j.err = err
	switch {
	case err == nil:
		j.status = COMPLETED
	case errors.Is(err, errPause):
		j.status = PAUSED
	case errors.Is(err, errCancel):
		j.status = CANCELED
	default:
		j.status = FAILED
	}
}

// Pause asks a running job to stop. The job can be resumed later through
// the Runner.
func (j *Job) Pause() {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.status == RUNNING {
		j.cancel(errPause)
	}
}

// Cancel stops the job permanently.
func (j *Job) Cancel() {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.status == RUNNING {
		j.cancel(errCancel)
	}
}

// Wait blocks till the job function returns or the given context expires.
func (j *Job) Wait(ctx context.Context) error {
	select {
	case <-j.done:
		return j.Err()
	case <-ctx.Done():
		return context.Cause(ctx)
	}
}

func (j *Job) State() State {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.status
}

// Err returns the job function's return value. It is nil while the job is
// still running.
func (j *Job) Err() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.err
}
