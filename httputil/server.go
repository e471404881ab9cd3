// Copyright (c) 2025 BVK Chaitanya

// Package httputil implements a http server wrapper that allows url handlers
// to be added and removed dynamically while the listeners keep serving.
package httputil

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"os"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bvk/indexmon/syncmap"
	"github.com/google/uuid"
)

type Server struct {
	ctx    context.Context
	cancel context.CancelCauseFunc
	wg     sync.WaitGroup

	opts Options

	lastListenerID atomic.Int64
	listenerMap    syncmap.Map[int64, *http.Server]

	mux atomic.Pointer[http.ServeMux]

	mutex      sync.Mutex
	handlerMap map[string]http.Handler
}

// New creates a http server with no listeners and no url handlers.
func New(opts *Options) (_ *Server, status error) {
	if opts == nil {
		opts = new(Options)
	}
	opts.setDefaults()
	if err := opts.Check(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancelCause(context.Background())
	defer func() {
		if status != nil {
			cancel(status)
		}
	}()

	s := &Server{
		ctx:        ctx,
		cancel:     cancel,
		opts:       *opts,
		handlerMap: make(map[string]http.Handler),
	}
	return s, nil
}

// Close stops all listeners and waits for their serving goroutines.
func (s *Server) Close() error {
	s.cancel(os.ErrClosed)
	s.listenerMap.Range(func(id int64, svr *http.Server) bool {
		svr.Close()
		return true
	})
	s.wg.Wait()
	return nil
}

// StartTCP starts serving on the given tcp address. A zero port picks an
// unused port and updates addr with the chosen value. StartTCP returns after
// the listener has responded to a probe request, so that callers know the
// endpoint is live. Returns an id that can stop this listener with Stop.
func (s *Server) StartTCP(ctx context.Context, addr *net.TCPAddr) (id int64, status error) {
	l, err := net.Listen("tcp", addr.String())
	if err != nil {
		return -1, err
	}
	defer func() {
		if status != nil {
			l.Close()
		}
	}()

	if addr.Port == 0 {
		laddr, ok := l.Addr().(*net.TCPAddr)
		if !ok {
			return -1, fmt.Errorf("created listener addr is not *net.TCPAddr type")
		}
		addr.Port = laddr.Port
	}

	server := &http.Server{
		Handler: s,
		BaseContext: func(net.Listener) context.Context {
			return s.ctx
		},
	}
	defer func() {
		if status != nil {
			server.Close()
		}
	}()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		defer func() {
			if r := recover(); r != nil {
				slog.Error("CAUGHT PANIC", "panic", r)
				slog.Error(string(debug.Stack()))
				panic(r)
			}
		}()

		for s.ctx.Err() == nil {
			if err := server.Serve(l); err != nil {
				if !errors.Is(err, http.ErrServerClosed) {
					slog.ErrorContext(ctx, "http server failed", "error", err)
				}
			}
		}
	}()

	if err := s.waitLive(ctx, l.Addr().String()); err != nil {
		return -1, err
	}

	id = s.lastListenerID.Add(1) - 1
	s.listenerMap.Store(id, server)
	return id, nil
}

// waitLive registers a probe handler at a random url and polls it over the
// new listener till it responds or the check timeout expires.
func (s *Server) waitLive(ctx context.Context, host string) error {
	probePath := "/" + uuid.New().String()
	probeHandler := http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		log.Printf("%s: received probe request from %q", host, r.RemoteAddr)
	})
	s.AddHandler(probePath, probeHandler)
	defer s.RemoveHandler(probePath)

	c := http.Client{
		Timeout: s.opts.ServerCheckTimeout,
	}
	u := url.URL{
		Scheme: "http",
		Host:   host,
		Path:   probePath,
	}

	tctx, tcancel := context.WithTimeout(ctx, s.opts.ServerCheckTimeout)
	defer tcancel()

	for tctx.Err() == nil {
		r, err := http.NewRequestWithContext(tctx, http.MethodGet, u.String(), nil)
		if err != nil {
			return err
		}
		resp, err := c.Do(r)
		if err != nil {
			s.sleep(s.opts.ServerCheckRetryInterval)
			continue
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			s.sleep(s.opts.ServerCheckRetryInterval)
			continue
		}
		return nil
	}
	return fmt.Errorf("could not invoke probe handler: %w", context.Cause(tctx))
}

// Stop closes the listener identified by the id. Url handlers are left
// untouched for other listeners.
func (s *Server) Stop(id int64) error {
	svr, ok := s.listenerMap.LoadAndDelete(id)
	if !ok {
		return fmt.Errorf("http listener %d not found: %w", id, os.ErrNotExist)
	}
	_ = svr.Close()
	return nil
}

// AddHandler adds or replaces the url handler at the given pattern.
func (s *Server) AddHandler(pattern string, handler http.Handler) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.handlerMap[pattern] = handler
	s.updateHandlerMux()
}

// RemoveHandler removes the url handler at the given pattern. Returns false
// when no handler exists at the pattern.
func (s *Server) RemoveHandler(pattern string) bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if _, ok := s.handlerMap[pattern]; !ok {
		return false
	}
	delete(s.handlerMap, pattern)
	s.updateHandlerMux()
	return true
}

// Requests observed while a pattern has no handler get the mux's default
// not-found response.
func (s *Server) updateHandlerMux() {
	m := http.NewServeMux()
	for k, v := range s.handlerMap {
		m.Handle(k, v)
	}
	s.mux.Store(m)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.Load().ServeHTTP(w, r)
}

func (s *Server) sleep(d time.Duration) error {
	select {
	case <-s.ctx.Done():
		return context.Cause(s.ctx)
	case <-time.After(d):
		return nil
	}
}
