// Copyright (c) 2025 BVK Chaitanya

package job

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path"
	"strings"
	"sync"

	"github.com/bvk/indexmon/kvutil"
	"github.com/bvkgo/kv"
)

const Keyspace = "/jobs/"

type JobData struct {
	UID      string `json:"uid"`
	Typename string `json:"typename"`
	Flags    uint64 `json:"flags"`

	State State `json:"state"`
}

type Runner struct {
	db kv.Database

	mu sync.Mutex

	// jobMap holds all running jobs.
	jobMap map[string]*Job

	// dataMap holds metadata for running jobs and also for recently stopped
	// jobs. Metadata in this map is always newer than the metadata in the
	// database.
	dataMap map[string]*JobData
}

func NewRunner(db kv.Database) *Runner {
	return &Runner{
		db:      db,
		jobMap:  make(map[string]*Job),
		dataMap: make(map[string]*JobData),
	}
}

func (r *Runner) getLocked(ctx context.Context, reader kv.Reader, uid string) (*JobData, error) {
	if jd, ok := r.dataMap[uid]; ok {
		if job, ok := r.jobMap[uid]; ok {
			jd.State = job.State()
		}
		return jd, nil
	}

	key := path.Join(Keyspace, uid)
	var jd *JobData
	var err error
	if reader == nil {
		jd, err = kvutil.GetDB[JobData](ctx, r.db, key)
	} else {
		jd, err = kvutil.Get[JobData](ctx, reader, key)
	}
	if err != nil {
		return nil, fmt.Errorf("could not read job data from db: %w", err)
	}
	if jd.State == "" {
		jd.State = PAUSED
	}
	r.dataMap[uid] = jd
	return jd, nil
}

func (r *Runner) setLocked(ctx context.Context, rw kv.ReadWriter, uid string, jd *JobData) error {
	key := path.Join(Keyspace, uid)
	var err error
	if rw == nil {
		err = kvutil.SetDB(ctx, r.db, key, jd)
	} else {
		err = kvutil.Set(ctx, rw, key, jd)
	}
	if err != nil {
		return fmt.Errorf("could not update metadata for job %q: %w", uid, err)
	}
	// Database has the latest version, so in-memory data for non-running jobs
	// can be dropped.
	if _, ok := r.jobMap[uid]; !ok {
		delete(r.dataMap, uid)
	}
	return nil
}

func (r *Runner) syncLocked(ctx context.Context) error {
	for uid, jd := range r.dataMap {
		if err := r.setLocked(ctx, nil, uid, jd); err != nil {
			return fmt.Errorf("could not sync metadata for job %q: %w", uid, err)
		}
	}
	return nil
}

// wrapJobFunc persists the final job state when the job function returns.
func (r *Runner) wrapJobFunc(uid string, fn Func) Func {
	return func(ctx context.Context) error {
		status := fn(ctx)
		log.Printf("job %q has returned with status: %v", uid, status)

		r.mu.Lock()
		defer r.mu.Unlock()

		if _, ok := r.jobMap[uid]; ok {
			jd := r.dataMap[uid]
			switch {
			case status == nil:
				jd.State = COMPLETED
			case errors.Is(status, errPause):
				jd.State = PAUSED
			case errors.Is(status, errCancel):
				jd.State = CANCELED
			default:
				jd.State = FAILED
			}
			delete(r.jobMap, uid)

			if err := r.setLocked(context.WithoutCancel(ctx), nil, uid, jd); err != nil {
				log.Printf("could not persist final state for job %q (ignored): %v", uid, err)
			}
		}
		return status
	}
}

// Get returns a job's information. Reader can be nil, in which case a
// separate read-only transaction is used as necessary.
func (r *Runner) Get(ctx context.Context, reader kv.Reader, uid string) (*JobData, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	jd, err := r.getLocked(ctx, reader, uid)
	if err != nil {
		return nil, fmt.Errorf("could not load job data: %w", err)
	}
	return jd, nil
}

// Add creates a new job in the database. Jobs are created in PAUSED state
// and must be resumed to begin execution.
func (r *Runner) Add(ctx context.Context, rw kv.ReadWriter, uid, typename string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, err := r.getLocked(ctx, rw, uid); err == nil || !errors.Is(err, os.ErrNotExist) {
		if err == nil {
			return fmt.Errorf("job with uid already exists: %w", os.ErrExist)
		}
		return fmt.Errorf("could not check if uid already exists: %w", err)
	}

	jd := &JobData{
		UID:      uid,
		Typename: typename,
		State:    PAUSED,
	}
	if err := r.setLocked(ctx, rw, uid, jd); err != nil {
		return fmt.Errorf("could not save new job entry: %w", err)
	}
	return nil
}

// UpdateFlags replaces a job's user-defined flags value.
func (r *Runner) UpdateFlags(ctx context.Context, uid string, flags uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	jd, err := r.getLocked(ctx, nil, uid)
	if err != nil {
		return fmt.Errorf("could not load job data for %q: %w", uid, err)
	}
	jd.Flags = flags
	if err := r.setLocked(ctx, nil, uid, jd); err != nil {
		return fmt.Errorf("could not update flags for job %q: %w", uid, err)
	}
	return nil
}

// Remove deletes a job from the database. Running jobs cannot be removed.
func (r *Runner) Remove(ctx context.Context, rw kv.ReadWriter, uid string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.jobMap[uid]; ok {
		return fmt.Errorf("running job %q cannot be removed", uid)
	}

	key := path.Join(Keyspace, uid)
	if rw == nil {
		err := kv.WithReadWriter(ctx, r.db, func(ctx context.Context, rw kv.ReadWriter) error {
			return rw.Delete(ctx, key)
		})
		if err != nil {
			return fmt.Errorf("could not delete key %q: %w", key, err)
		}
	} else if err := rw.Delete(ctx, key); err != nil {
		return fmt.Errorf("could not delete key %q: %w", key, err)
	}
	delete(r.dataMap, uid)
	return nil
}

// Scan invokes the callback function with all jobs defined in the database.
func (r *Runner) Scan(ctx context.Context, reader kv.Reader, fn func(ctx context.Context, r kv.Reader, item *JobData) error) error {
	begin, end := kvutil.PathRange(Keyspace)
	cb := func(ctx context.Context, _ kv.Reader, key string, value *JobData) error {
		uid := strings.TrimPrefix(key, Keyspace)

		r.mu.Lock()
		jd, ok := r.dataMap[uid]
		if ok {
			if job, ok := r.jobMap[uid]; ok {
				jd.State = job.State()
			}
		}
		r.mu.Unlock()

		if jd == nil {
			jd = value
			if jd.State == "" {
				jd.State = PAUSED
			}
		}
		return fn(ctx, reader, jd)
	}
	return kvutil.Ascend(ctx, reader, begin, end, cb)
}

// Resume runs a job with the given job function. Job must not be in one of
// the final states. The fctx context covers the job function's execution,
// which typically outlives this call.
func (r *Runner) Resume(ctx context.Context, uid string, fn Func, fctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.jobMap[uid]; ok {
		return fmt.Errorf("job %q is already resumed: %w", uid, os.ErrExist)
	}

	jd, err := r.getLocked(ctx, nil, uid)
	if err != nil {
		return fmt.Errorf("could not load job data for %q: %w", uid, err)
	}
	if IsDone(jd.State) {
		return fmt.Errorf("job %q is already finished (%s)", uid, jd.State)
	}

	job := Run(r.wrapJobFunc(uid, fn), fctx)
	r.jobMap[uid] = job

	jd.State = RUNNING
	if err := r.setLocked(ctx, nil, uid, jd); err != nil {
		log.Printf("could not update job state in the db (ignored): %v", err)
	}
	return nil
}

// Pause stops a running job. Job can be resumed later.
func (r *Runner) Pause(ctx context.Context, uid string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if job, ok := r.jobMap[uid]; ok {
		job.Pause()
		r.mu.Unlock()
		job.Wait(ctx)
		r.mu.Lock()
	}

	jd, err := r.getLocked(ctx, nil, uid)
	if err != nil {
		return fmt.Errorf("could not load job state: %w", err)
	}
	if !IsDone(jd.State) {
		jd.State = PAUSED
	}
	if err := r.setLocked(ctx, nil, uid, jd); err != nil {
		return fmt.Errorf("could not mark job %q as paused: %w", uid, err)
	}
	return nil
}

// Cancel stops the job if it is running and marks it as canceled. Job
// cannot be resumed after it is canceled.
func (r *Runner) Cancel(ctx context.Context, uid string) (State, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if job, ok := r.jobMap[uid]; ok {
		job.Cancel()
		r.mu.Unlock()
		job.Wait(ctx)
		r.mu.Lock()
	}

	jd, err := r.getLocked(ctx, nil, uid)
	if err != nil {
		return "", fmt.Errorf("could not load job state: %w", err)
	}
	if !IsDone(jd.State) {
		jd.State = CANCELED
	}
	if err := r.setLocked(ctx, nil, uid, jd); err != nil {
		return "", fmt.Errorf("could not mark job %q as canceled: %w", uid, err)
	}
	return jd.State, nil
}

// PauseAll stops all running jobs and syncs their final states to the
// database. Used during the daemon shutdown.
func (r *Runner) PauseAll(ctx context.Context) error {
	r.mu.Lock()
	var jobs []*Job
	for _, job := range r.jobMap {
		job.Pause()
		jobs = append(jobs, job)
	}
	r.mu.Unlock()

	for _, job := range jobs {
		job.Wait(ctx)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	return r.syncLocked(ctx)
}
