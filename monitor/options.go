// Copyright (c) 2025 BVK Chaitanya

package monitor

import "fmt"

type Options struct {
	// FireHour and FireMinute pick the UTC time-of-day for the scheduled
	// daily check. Checks fire only on weekdays.
	FireHour   int `json:"fire_hour"`
	FireMinute int `json:"fire_minute"`

	// Threshold holds the percentage change at-or-below which a check
	// raises a warning. Must be negative.
	Threshold float64 `json:"threshold"`

	// MetricName and MetricUnit identify the percentage change gauge
	// reported to the metrics service.
	MetricName string `json:"metric_name"`
	MetricUnit string `json:"metric_unit"`
}

func (v *Options) setDefaults() {
	if v.FireHour == 0 && v.FireMinute == 0 {
		v.FireHour = 18
	}
	if v.Threshold == 0 {
		v.Threshold = -2.0
	}
	if len(v.MetricName) == 0 {
		v.MetricName = "sp500_percentage_change"
	}
	if len(v.MetricUnit) == 0 {
		v.MetricUnit = "percentage"
	}
}

func (v *Options) Check() error {
	if v.FireHour < 0 || v.FireHour > 23 {
		return fmt.Errorf("fire hour %d is out of range", v.FireHour)
	}
	if v.FireMinute < 0 || v.FireMinute > 59 {
		return fmt.Errorf("fire minute %d is out of range", v.FireMinute)
	}
	if v.Threshold >= 0 {
		return fmt.Errorf("threshold %f must be negative", v.Threshold)
	}
	return nil
}
