// Copyright (c) 2025 BVK Chaitanya

package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bvk/indexmon/api"
	"github.com/bvk/indexmon/job"
	"github.com/bvkgo/kv"
	"github.com/bvkgo/kv/kvmemdb"
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

func newTestServer(t *testing.T, db kv.Database) *Server {
	s, err := New(nil /* secrets */, db, nil /* opts */)
	if err != nil {
		t.Fatal(err)
	}
	s.quotes = &fakeQuotes{price: decimal.NewFromFloat(4500)}
	t.Cleanup(func() {
		if err := s.Stop(context.Background()); err != nil {
			t.Error(err)
		}
		s.Close()
	})
	return s
}

func TestMonitorAPIs(t *testing.T) {
	ctx := context.Background()
	s := newTestServer(t, kvmemdb.New())

	addResp, err := s.doAdd(ctx, &api.MonitorAddRequest{Symbol: "^GSPC"})
	if err != nil {
		t.Fatal(err)
	}
	uid := addResp.UID
	if len(uid) == 0 {
		t.Fatalf("add response has no uid")
	}

	listResp, err := s.doList(ctx, &api.MonitorListRequest{})
	if err != nil {
		t.Fatal(err)
	}
	if len(listResp.Monitors) != 1 {
		t.Fatalf("want 1 monitor, got %d", len(listResp.Monitors))
	}
	if v := listResp.Monitors[0]; v.UID != uid || v.Symbol != "^GSPC" {
		t.Fatalf("unexpected list item %+v", v)
	}

	checkResp, err := s.doCheck(ctx, &api.MonitorCheckRequest{UID: uid})
	if err != nil {
		t.Fatal(err)
	}
	if v := checkResp.Result.CurrentPrice; v != 4500 {
		t.Fatalf("want current price 4500, got %v", v)
	}

	statusResp, err := s.doStatus(ctx, &api.MonitorStatusRequest{UID: uid})
	if err != nil {
		t.Fatal(err)
	}
	if statusResp.Status.Symbol != "^GSPC" {
		t.Fatalf("unexpected status %+v", statusResp.Status)
	}
	if statusResp.Status.NumChecks == 0 {
		t.Fatalf("want non-zero checks after an immediate check")
	}

	pauseResp, err := s.doPause(ctx, &api.MonitorPauseRequest{UID: uid})
	if err != nil {
		t.Fatal(err)
	}
	if pauseResp.FinalState != string(job.PAUSED) {
		t.Fatalf("want %s, got %s", job.PAUSED, pauseResp.FinalState)
	}
	jd, err := s.runner.Get(ctx, nil, uid)
	if err != nil {
		t.Fatal(err)
	}
	if jd.Flags&ManualFlag == 0 {
		t.Fatalf("paused monitor is not marked as manual")
	}

	resumeResp, err := s.doResume(ctx, &api.MonitorResumeRequest{UID: uid})
	if err != nil {
		t.Fatal(err)
	}
	if resumeResp.FinalState != string(job.RUNNING) {
		t.Fatalf("want %s, got %s", job.RUNNING, resumeResp.FinalState)
	}
	if jd, err = s.runner.Get(ctx, nil, uid); err != nil {
		t.Fatal(err)
	}
	if jd.Flags&ManualFlag != 0 {
		t.Fatalf("resumed monitor still marked as manual")
	}

	cancelResp, err := s.doCancel(ctx, &api.MonitorCancelRequest{UID: uid})
	if err != nil {
		t.Fatal(err)
	}
	if cancelResp.FinalState != string(job.CANCELED) {
		t.Fatalf("want %s, got %s", job.CANCELED, cancelResp.FinalState)
	}

	if _, err := s.doResume(ctx, &api.MonitorResumeRequest{UID: uid}); err == nil {
		t.Fatalf("canceled monitor could be resumed")
	}
}

func TestRestartResume(t *testing.T) {
	ctx := context.Background()
	db := kvmemdb.New()

	s1, err := New(nil, db, nil)
	if err != nil {
		t.Fatal(err)
	}
	s1.quotes = &fakeQuotes{price: decimal.NewFromFloat(4500)}

	running, err := s1.doAdd(ctx, &api.MonitorAddRequest{Symbol: "^GSPC"})
	if err != nil {
		t.Fatal(err)
	}
	paused, err := s1.doAdd(ctx, &api.MonitorAddRequest{Symbol: "^DJI"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s1.doPause(ctx, &api.MonitorPauseRequest{UID: paused.UID}); err != nil {
		t.Fatal(err)
	}

	if err := s1.Stop(ctx); err != nil {
		t.Fatal(err)
	}
	s1.Close()

	s2 := newTestServer(t, db)
	if err := s2.Start(ctx); err != nil {
		t.Fatal(err)
	}

	jd, err := s2.runner.Get(ctx, nil, running.UID)
	if err != nil {
		t.Fatal(err)
	}
	if jd.State != job.RUNNING {
		t.Fatalf("want %s after restart, got %s", job.RUNNING, jd.State)
	}

	if jd, err = s2.runner.Get(ctx, nil, paused.UID); err != nil {
		t.Fatal(err)
	}
	if jd.State != job.PAUSED {
		t.Fatalf("manually paused monitor restarted as %s", jd.State)
	}
}

func TestHTTPHandlers(t *testing.T) {
	ctx := context.Background()
	s := newTestServer(t, kvmemdb.New())

	handlerMap := s.HandlerMap()
	for _, p := range []string{api.MonitorAddPath, api.MonitorListPath, api.MonitorStatusPath, api.MonitorCheckPath, api.MonitorPausePath, api.MonitorResumePath, api.MonitorCancelPath} {
		if handlerMap[p] == nil {
			t.Fatalf("no handler for %s", p)
		}
	}

	if _, err := s.doAdd(ctx, &api.MonitorAddRequest{Symbol: "^GSPC"}); err != nil {
		t.Fatal(err)
	}

	ts := httptest.NewServer(handlerMap[api.MonitorListPath])
	defer ts.Close()

	data, err := json.Marshal(&api.MonitorListRequest{})
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.Post(ts.URL, "application/json", bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("want status 200, got %d", resp.StatusCode)
	}
	listResp := new(api.MonitorListResponse)
	if err := json.NewDecoder(resp.Body).Decode(listResp); err != nil {
		t.Fatal(err)
	}
	if len(listResp.Monitors) != 1 {
		t.Fatalf("want 1 monitor, got %d", len(listResp.Monitors))
	}

	if resp, err := http.Get(ts.URL); err != nil {
		t.Fatal(err)
	} else if resp.Body.Close(); resp.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("want status 405 for GET, got %d", resp.StatusCode)
	}
}
