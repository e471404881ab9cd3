// Copyright (c) 2025 BVK Chaitanya

package metrics

import (
	"fmt"
	"net/url"
)

// Keys holds the credentials and endpoint for the metrics ingestion
// service. The private key signs short-lived JWT bearer tokens for each
// datapoint upload.
type Keys struct {
	// KeyID holds the api key name registered with the ingestion service.
	KeyID string `json:"kid"`

	// PrivateKeyPEM holds the EC private key in PEM format.
	PrivateKeyPEM string `json:"pem"`

	// IngestURL holds the endpoint that accepts datapoint uploads.
	IngestURL string `json:"url"`
}

func (v *Keys) Check() error {
	if len(v.KeyID) == 0 {
		return fmt.Errorf("key id cannot be empty")
	}
	if len(v.PrivateKeyPEM) == 0 {
		return fmt.Errorf("private key cannot be empty")
	}
	if len(v.IngestURL) == 0 {
		return fmt.Errorf("ingest url cannot be empty")
	}
	if _, err := url.Parse(v.IngestURL); err != nil {
		return fmt.Errorf("ingest url is invalid: %w", err)
	}
	return nil
}

func (v *Keys) Clone() *Keys {
	return &Keys{
		KeyID:         v.KeyID,
		PrivateKeyPEM: v.PrivateKeyPEM,
		IngestURL:     v.IngestURL,
	}
}
