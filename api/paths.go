// Copyright (c) 2025 BVK Chaitanya

package api

const (
	MonitorAddPath    = "/monitor/add"
	MonitorListPath   = "/monitor/list"
	MonitorStatusPath = "/monitor/status"
	MonitorCheckPath  = "/monitor/check"
	MonitorPausePath  = "/monitor/pause"
	MonitorResumePath = "/monitor/resume"
	MonitorCancelPath = "/monitor/cancel"
)
