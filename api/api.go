// Copyright (c) 2025 BVK Chaitanya

// Package api defines the http POST request/response types for the daemon's
// control endpoints.
package api

import (
	"github.com/bvk/indexmon/monitor"
)

type MonitorAddRequest struct {
	Symbol string

	// Optional schedule and threshold overrides. Zero values pick the
	// defaults (weekdays at 18:00 UTC with a -2% threshold).
	FireHour   int
	FireMinute int
	Threshold  float64
}

type MonitorAddResponse struct {
	UID string
}

type MonitorListRequest struct {
}

type MonitorListResponseItem struct {
	UID    string
	Symbol string
	State  string
}

type MonitorListResponse struct {
	Monitors []*MonitorListResponseItem
}

type MonitorStatusRequest struct {
	UID string
}

type MonitorStatusResponse struct {
	State string

	Status *monitor.Status
}

// MonitorCheckRequest asks for an immediate out-of-schedule price check.
type MonitorCheckRequest struct {
	UID string
}

type MonitorCheckResponse struct {
	Result *monitor.Result
}

type MonitorPauseRequest struct {
	UID string
}

type MonitorPauseResponse struct {
	FinalState string
}

type MonitorResumeRequest struct {
	UID string
}

type MonitorResumeResponse struct {
	FinalState string
}

type MonitorCancelRequest struct {
	UID string
}

type MonitorCancelResponse struct {
	FinalState string
}
