// Copyright (c) 2025 BVK Chaitanya

// Package server implements the index monitor daemon. The server owns the
// database, the quote source and the alerting clients, runs the price
// monitors as background jobs and exposes http endpoints to control them.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/bvk/indexmon/job"
	"github.com/bvk/indexmon/metrics"
	"github.com/bvk/indexmon/monitor"
	"github.com/bvk/indexmon/pushover"
	"github.com/bvk/indexmon/runtime"
	"github.com/bvk/indexmon/syncmap"
	"github.com/bvk/indexmon/telegram"
	"github.com/bvk/indexmon/yahoo"
	"github.com/bvkgo/kv"
)

const (
	// ManualFlag marks jobs that are paused explicitly by the user. Jobs
	// with this flag are not resumed automatically on a daemon restart.
	ManualFlag uint64 = 0x1 << 0
)

type Server struct {
	closeCtx    context.Context
	closeCancel context.CancelCauseFunc
	wg          sync.WaitGroup

	db kv.Database

	opts    Options
	secrets Secrets

	runner *job.Runner

	quotes runtime.QuoteSource

	metricsClient  *metrics.Client
	pushoverClient *pushover.Client
	telegramClient *telegram.Client

	monitorMap syncmap.Map[string, *monitor.Monitor]

	mu sync.Mutex

	alertFreezeDeadlineMap map[string]time.Time
}

// New creates a monitor server with the given secrets and database. Saved
// monitors are not resumed till Start is called.
func New(secrets *Secrets, db kv.Database, opts *Options) (_ *Server, status error) {
	if opts == nil {
		opts = new(Options)
	}
	opts.setDefaults()
	if err := opts.Check(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	if secrets == nil {
		secrets = new(Secrets)
	}
	if err := secrets.Check(); err != nil {
		return nil, fmt.Errorf("invalid secrets: %w", err)
	}

	ctx, cancel := context.WithCancelCause(context.Background())
	s := &Server{
		closeCtx:    ctx,
		closeCancel: cancel,

		db:      db,
		opts:    *opts,
		secrets: *secrets,

		runner: job.NewRunner(db),

		alertFreezeDeadlineMap: make(map[string]time.Time),
	}
	defer func() {
		if status != nil {
			s.Close()
		}
	}()

	quotes, err := yahoo.New(nil /* opts */)
	if err != nil {
		return nil, fmt.Errorf("could not create yahoo finance client: %w", err)
	}
	s.quotes = quotes

	if secrets.Metrics != nil {
		client, err := metrics.New(secrets.Metrics)
		if err != nil {
			return nil, fmt.Errorf("could not create metrics client: %w", err)
		}
		s.metricsClient = client
	}

	if secrets.Pushover != nil {
		client, err := pushover.New(secrets.Pushover)
		if err != nil {
			return nil, fmt.Errorf("could not create pushover client: %w", err)
		}
		s.pushoverClient = client
	}

	return s, nil
}

func (s *Server) Close() error {
	s.closeCancel(os.ErrClosed)
	s.wg.Wait()

	if s.telegramClient != nil {
		s.telegramClient.Close()
		s.telegramClient = nil
	}
	if s.metricsClient != nil {
		s.metricsClient.Close()
		s.metricsClient = nil
	}
	if c, ok := s.quotes.(*yahoo.Client); ok && c != nil {
		c.Close()
	}
	return nil
}

// Runtime returns the environment shared by all monitor jobs.
func (s *Server) Runtime() *runtime.Runtime {
	rt := &runtime.Runtime{
		Database: s.db,
		Quotes:   s.quotes,
	}
	if s.metricsClient != nil {
		rt.Gauge = s.metricsClient
	}
	return rt
}

// Start brings up the telegram bot and resumes the saved monitors that were
// running before the last shutdown.
func (s *Server) Start(ctx context.Context) error {
	if s.secrets.Telegram != nil {
		client, err := telegram.New(s.closeCtx, s.db, s.secrets.Telegram)
		if err != nil {
			return fmt.Errorf("could not create telegram bot: %w", err)
		}
		s.telegramClient = client

		if err := s.registerTelegramCommands(ctx); err != nil {
			return fmt.Errorf("could not register telegram commands: %w", err)
		}
	}

	if s.opts.NoResume {
		return nil
	}

	var jds []*job.JobData
	collect := func(ctx context.Context, r kv.Reader, jd *job.JobData) error {
		jds = append(jds, jd)
		return nil
	}
	scan := func(ctx context.Context, r kv.Reader) error {
		return s.runner.Scan(ctx, r, collect)
	}
	if err := kv.WithReader(ctx, s.db, scan); err != nil {
		return fmt.Errorf("could not scan saved jobs: %w", err)
	}

	for _, jd := range jds {
		if job.IsDone(jd.State) || jd.Flags&ManualFlag != 0 {
			continue
		}
		if err := s.resumeMonitor(ctx, jd.UID); err != nil {
			slog.Error("could not resume saved monitor (ignored)", "uid", jd.UID, "err", err)
			continue
		}
		slog.Info("resumed saved monitor", "uid", jd.UID)
	}
	return nil
}

// Stop pauses all running monitors and syncs their states to the database.
func (s *Server) Stop(ctx context.Context) error {
	return s.runner.PauseAll(ctx)
}

func (s *Server) makeJobFunc(m *monitor.Monitor) job.Func {
	return func(ctx context.Context) error {
		return m.Run(ctx, s.Runtime())
	}
}

// addMonitor remembers the monitor and starts a warning watcher for it. The
// watcher lives till the server is closed, across pauses and resumes.
func (s *Server) addMonitor(m *monitor.Monitor) *monitor.Monitor {
	v, loaded := s.monitorMap.LoadOrStore(m.UID(), m)
	if loaded {
		return v
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.watchForWarnings(s.closeCtx, m)
	}()
	return m
}

// getMonitor returns the in-memory monitor for the uid, loading it from the
// database when necessary.
func (s *Server) getMonitor(ctx context.Context, uid string) (*monitor.Monitor, error) {
	if m, ok := s.monitorMap.Load(uid); ok {
		return m, nil
	}
	var m *monitor.Monitor
	load := func(ctx context.Context, r kv.Reader) error {
		v, err := monitor.Load(ctx, uid, r)
		if err != nil {
			return err
		}
		m = v
		return nil
	}
	if err := kv.WithReader(ctx, s.db, load); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("no monitor with uid %q: %w", uid, os.ErrNotExist)
		}
		return nil, fmt.Errorf("could not load monitor %q: %w", uid, err)
	}
	return s.addMonitor(m), nil
}

func (s *Server) resumeMonitor(ctx context.Context, uid string) error {
	m, err := s.getMonitor(ctx, uid)
	if err != nil {
		return err
	}
	if err := s.runner.Resume(ctx, uid, s.makeJobFunc(m), s.closeCtx); err != nil {
		return fmt.Errorf("could not resume monitor job %q: %w", uid, err)
	}
	return nil
}

// SendMessage sends a message through all the configured messaging clients.
// Messages are alerts about index price drops, so the pushover copy is sent
// with the emergency priority.
func (s *Server) SendMessage(ctx context.Context, at time.Time, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if s.telegramClient != nil {
		if err := s.telegramClient.SendMessage(ctx, at, msg); err != nil {
			slog.Error("could not send telegram message (ignored)", "err", err)
		}
	}
	if s.pushoverClient != nil {
		if err := s.pushoverClient.SendAlert(ctx, at, msg); err != nil {
			slog.Error("could not send pushover alert (ignored)", "err", err)
		}
	}
}
