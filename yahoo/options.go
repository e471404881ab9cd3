// Copyright (c) 2025 BVK Chaitanya

package yahoo

import "time"

type Options struct {
	// RestHostname holds the chart api endpoint hostname.
	RestHostname string

	// HttpClientTimeout holds the http client timeout for chart api calls.
	HttpClientTimeout time.Duration

	// restScheme exists for tests; production always uses https.
	restScheme string
}

func (v *Options) setDefaults() {
	if len(v.RestHostname) == 0 {
		v.RestHostname = "query1.finance.yahoo.com"
	}
	if v.HttpClientTimeout == 0 {
		v.HttpClientTimeout = 30 * time.Second
	}
	if len(v.restScheme) == 0 {
		v.restScheme = "https"
	}
}
