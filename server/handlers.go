// Copyright (c) 2025 BVK Chaitanya

package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/bvk/indexmon/api"
	"github.com/bvk/indexmon/job"
	"github.com/bvk/indexmon/monitor"
	"github.com/bvkgo/kv"
	"github.com/google/uuid"
)

// HandlerMap returns the http handlers for the monitor control api.
func (s *Server) HandlerMap() map[string]http.Handler {
	return map[string]http.Handler{
		api.MonitorAddPath:    httpPostJSONHandler(s.doAdd),
		api.MonitorListPath:   httpPostJSONHandler(s.doList),
		api.MonitorStatusPath: httpPostJSONHandler(s.doStatus),
		api.MonitorCheckPath:  httpPostJSONHandler(s.doCheck),
		api.MonitorPausePath:  httpPostJSONHandler(s.doPause),
		api.MonitorResumePath: httpPostJSONHandler(s.doResume),
		api.MonitorCancelPath: httpPostJSONHandler(s.doCancel),
	}
}

func httpPostJSONHandler[T1, T2 any](fn func(context.Context, *T1) (*T2, error)) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "invalid http method type", http.StatusMethodNotAllowed)
			return
		}
		if v := r.Header.Get("content-type"); !strings.EqualFold(v, "application/json") {
			http.Error(w, "unsupported content type", http.StatusBadRequest)
			return
		}
		req := new(T1)
		if err := json.NewDecoder(r.Body).Decode(req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		resp, err := fn(r.Context(), req)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("content-type", "application/json")
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			slog.Error("could not encode response (ignored)", "err", err)
		}
	})
}

// doAdd creates a new monitor and starts it immediately.
func (s *Server) doAdd(ctx context.Context, req *api.MonitorAddRequest) (*api.MonitorAddResponse, error) {
	if err := req.Check(); err != nil {
		return nil, fmt.Errorf("invalid add request: %w", err)
	}

	uid := uuid.New().String()
	opts := &monitor.Options{
		FireHour:   req.FireHour,
		FireMinute: req.FireMinute,
		Threshold:  req.Threshold,
	}
	m, err := monitor.New(uid, req.Symbol, opts)
	if err != nil {
		return nil, fmt.Errorf("could not create monitor: %w", err)
	}

	add := func(ctx context.Context, rw kv.ReadWriter) error {
		if err := s.runner.Add(ctx, rw, uid, "monitor"); err != nil {
			return err
		}
		return m.Save(ctx, rw)
	}
	if err := kv.WithReadWriter(ctx, s.db, add); err != nil {
		return nil, fmt.Errorf("could not save new monitor: %w", err)
	}

	m = s.addMonitor(m)
	if err := s.runner.Resume(ctx, uid, s.makeJobFunc(m), s.closeCtx); err != nil {
		return nil, fmt.Errorf("monitor %q is created, but could not be started: %w", uid, err)
	}

	resp := &api.MonitorAddResponse{
		UID: uid,
	}
	return resp, nil
}

func (s *Server) doList(ctx context.Context, req *api.MonitorListRequest) (*api.MonitorListResponse, error) {
	resp := new(api.MonitorListResponse)
	collect := func(ctx context.Context, r kv.Reader, jd *job.JobData) error {
		item := &api.MonitorListResponseItem{
			UID:   jd.UID,
			State: string(jd.State),
		}
		if m, err := monitor.Load(ctx, jd.UID, r); err == nil {
			item.Symbol = m.Symbol()
		}
		resp.Monitors = append(resp.Monitors, item)
		return nil
	}
	scan := func(ctx context.Context, r kv.Reader) error {
		return s.runner.Scan(ctx, r, collect)
	}
	if err := kv.WithReader(ctx, s.db, scan); err != nil {
		return nil, fmt.Errorf("could not scan all monitors: %w", err)
	}
	return resp, nil
}

func (s *Server) doStatus(ctx context.Context, req *api.MonitorStatusRequest) (*api.MonitorStatusResponse, error) {
	if err := req.Check(); err != nil {
		return nil, fmt.Errorf("invalid status request: %w", err)
	}
	jd, err := s.runner.Get(ctx, nil, req.UID)
	if err != nil {
		return nil, fmt.Errorf("could not get job %q data: %w", req.UID, err)
	}
	m, err := s.getMonitor(ctx, req.UID)
	if err != nil {
		return nil, err
	}
	resp := &api.MonitorStatusResponse{
		State:  string(jd.State),
		Status: m.Status(),
	}
	return resp, nil
}

// doCheck performs an immediate, out-of-schedule price check.
func (s *Server) doCheck(ctx context.Context, req *api.MonitorCheckRequest) (*api.MonitorCheckResponse, error) {
	if err := req.Check(); err != nil {
		return nil, fmt.Errorf("invalid check request: %w", err)
	}
	m, err := s.getMonitor(ctx, req.UID)
	if err != nil {
		return nil, err
	}
	result, err := m.Check(ctx, s.Runtime())
	if err != nil {
		return nil, fmt.Errorf("could not check index price: %w", err)
	}
	resp := &api.MonitorCheckResponse{
		Result: result,
	}
	return resp, nil
}

// doPause pauses a running monitor. Paused monitors are not restarted on a
// daemon restart till they are resumed explicitly.
func (s *Server) doPause(ctx context.Context, req *api.MonitorPauseRequest) (*api.MonitorPauseResponse, error) {
	if err := req.Check(); err != nil {
		return nil, fmt.Errorf("invalid pause request: %w", err)
	}
	if err := s.runner.Pause(ctx, req.UID); err != nil {
		return nil, fmt.Errorf("could not pause monitor %q: %w", req.UID, err)
	}

	jd, err := s.runner.Get(ctx, nil, req.UID)
	if err != nil {
		return nil, fmt.Errorf("could not get job %q data: %w", req.UID, err)
	}
	if err := s.runner.UpdateFlags(ctx, req.UID, jd.Flags|ManualFlag); err != nil {
		slog.Warn("monitor is paused, but could not be marked as manual (ignored)", "uid", req.UID, "err", err)
	}

	resp := &api.MonitorPauseResponse{
		FinalState: string(jd.State),
	}
	return resp, nil
}

// doResume resumes a paused monitor.
func (s *Server) doResume(ctx context.Context, req *api.MonitorResumeRequest) (*api.MonitorResumeResponse, error) {
	if err := req.Check(); err != nil {
		return nil, fmt.Errorf("invalid resume request: %w", err)
	}
	if err := s.resumeMonitor(ctx, req.UID); err != nil {
		return nil, err
	}

	jd, err := s.runner.Get(ctx, nil, req.UID)
	if err != nil {
		return nil, fmt.Errorf("could not get job %q data: %w", req.UID, err)
	}
	if err := s.runner.UpdateFlags(ctx, req.UID, jd.Flags&^ManualFlag); err != nil {
		slog.Warn("monitor is resumed, but the manual flag could not be cleared (ignored)", "uid", req.UID, "err", err)
	}

	resp := &api.MonitorResumeResponse{
		FinalState: string(jd.State),
	}
	return resp, nil
}

// doCancel cancels a monitor. If the monitor is running it is stopped first.
// Canceled monitors cannot be resumed.
func (s *Server) doCancel(ctx context.Context, req *api.MonitorCancelRequest) (*api.MonitorCancelResponse, error) {
	if err := req.Check(); err != nil {
		return nil, fmt.Errorf("invalid cancel request: %w", err)
	}
	state, err := s.runner.Cancel(ctx, req.UID)
	if err != nil {
		return nil, fmt.Errorf("could not cancel monitor %q: %w", req.UID, err)
	}
	resp := &api.MonitorCancelResponse{
		FinalState: string(state),
	}
	return resp, nil
}
