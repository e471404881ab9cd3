// Copyright (c) 2025 BVK Chaitanya

package api

import "fmt"

func (r *MonitorAddRequest) Check() error {
	if len(r.Symbol) == 0 {
		return fmt.Errorf("symbol cannot be empty")
	}
	if r.FireHour < 0 || r.FireHour > 23 {
		return fmt.Errorf("fire hour %d is out of range", r.FireHour)
	}
	if r.FireMinute < 0 || r.FireMinute > 59 {
		return fmt.Errorf("fire minute %d is out of range", r.FireMinute)
	}
	if r.Threshold > 0 {
		return fmt.Errorf("threshold %f cannot be positive", r.Threshold)
	}
	return nil
}

func (r *MonitorStatusRequest) Check() error {
	if len(r.UID) == 0 {
		return fmt.Errorf("uid cannot be empty")
	}
	return nil
}

func (r *MonitorCheckRequest) Check() error {
	if len(r.UID) == 0 {
		return fmt.Errorf("uid cannot be empty")
	}
	return nil
}

func (r *MonitorPauseRequest) Check() error {
	if len(r.UID) == 0 {
		return fmt.Errorf("uid cannot be empty")
	}
	return nil
}

func (r *MonitorResumeRequest) Check() error {
	if len(r.UID) == 0 {
		return fmt.Errorf("uid cannot be empty")
	}
	return nil
}

func (r *MonitorCancelRequest) Check() error {
	if len(r.UID) == 0 {
		return fmt.Errorf("uid cannot be empty")
	}
	return nil
}
