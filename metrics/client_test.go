// Copyright (c) 2025 BVK Chaitanya

package metrics

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func testKeys(t *testing.T, url string) *Keys {
	priKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	der, err := x509.MarshalECPrivateKey(priKey)
	if err != nil {
		t.Fatal(err)
	}
	pemText := pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: der})
	return &Keys{
		KeyID:         "test-key",
		PrivateKeyPEM: string(pemText),
		IngestURL:     url,
	}
}

func TestRecordGauge(t *testing.T) {
	var got Datapoint
	var auth string
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer s.Close()

	c, err := New(testKeys(t, s.URL))
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	at := time.Now()
	if err := c.RecordGauge(context.Background(), "sp500_percentage_change", "percentage", -2.5, at); err != nil {
		t.Fatal(err)
	}
	if got.Name != "sp500_percentage_change" {
		t.Fatalf("gauge name: got %q", got.Name)
	}
	if got.Unit != "percentage" {
		t.Fatalf("gauge unit: got %q", got.Unit)
	}
	if got.Value != -2.5 {
		t.Fatalf("gauge value: got %v", got.Value)
	}
	if got.Timestamp != at.Unix() {
		t.Fatalf("gauge timestamp: got %d, want %d", got.Timestamp, at.Unix())
	}
	if !strings.HasPrefix(auth, "Bearer ") {
		t.Fatalf("authorization header: got %q", auth)
	}
	// The bearer token is a compact JWS with three dot-separated parts.
	if parts := strings.Split(strings.TrimPrefix(auth, "Bearer "), "."); len(parts) != 3 {
		t.Fatalf("bearer token is not a compact jwt: %q", auth)
	}
}

func TestRecordGaugeServerError(t *testing.T) {
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer s.Close()

	c, err := New(testKeys(t, s.URL))
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	if err := c.RecordGauge(context.Background(), "sp500_percentage_change", "percentage", 0.1, time.Now()); err == nil {
		t.Fatalf("expected an error for a 500 response")
	}
}

func TestNewBadKeys(t *testing.T) {
	if _, err := New(&Keys{KeyID: "k", PrivateKeyPEM: "not-a-pem", IngestURL: "http://localhost"}); err == nil {
		t.Fatalf("expected an error for an invalid private key")
	}
	if _, err := New(&Keys{}); err == nil {
		t.Fatalf("expected an error for empty keys")
	}
}
