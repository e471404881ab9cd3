// Copyright (c) 2025 BVK Chaitanya

package server

type Options struct {
	// NoResume when true skips restarting the saved monitors during the
	// daemon startup. Monitors can still be resumed manually.
	NoResume bool
}

func (v *Options) setDefaults() {
}

func (v *Options) Check() error {
	return nil
}
