// Copyright (c) 2025 BVK Chaitanya

package httputil

import (
	"fmt"
	"time"
)

type Options struct {
	// ServerCheckTimeout is the max duration to wait for a new listener to
	// respond to the initial probe request.
	ServerCheckTimeout time.Duration

	// ServerCheckRetryInterval is the delay between probe attempts while
	// waiting for a new listener to turn live.
	ServerCheckRetryInterval time.Duration
}

func (v *Options) setDefaults() {
	if v.ServerCheckTimeout == 0 {
		v.ServerCheckTimeout = 10 * time.Second
	}
	if v.ServerCheckRetryInterval == 0 {
		v.ServerCheckRetryInterval = time.Second
	}
}

func (v *Options) Check() error {
	if v.ServerCheckRetryInterval > v.ServerCheckTimeout {
		return fmt.Errorf("check retry interval cannot be larger than the check timeout")
	}
	return nil
}
