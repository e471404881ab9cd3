// Copyright (c) 2025 BVK Chaitanya

// Package metrics implements a small client that uploads gauge datapoints
// to an external metrics ingestion service over authenticated https.
package metrics

import (
	"bytes"
	"context"
	"crypto/ecdsa"
	"crypto/rand"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/big"
	"net/http"
	"net/url"
	"os"
	"time"

	jose "gopkg.in/square/go-jose.v2"
	"gopkg.in/square/go-jose.v2/jwt"
)

type Client struct {
	keys Keys

	ingestURL *url.URL

	priKey *ecdsa.PrivateKey
	signer jose.Signer

	client *http.Client
}

// Datapoint is a single gauge observation uploaded to the ingestion
// service.
type Datapoint struct {
	Name      string  `json:"name"`
	Unit      string  `json:"unit"`
	Value     float64 `json:"value"`
	Timestamp int64   `json:"timestamp"`
}

type nonceSource struct{}

func (n nonceSource) Nonce() (string, error) {
	r, err := rand.Int(rand.Reader, big.NewInt(math.MaxInt64))
	if err != nil {
		return "", err
	}
	return r.String(), nil
}

// New creates a client for the metrics ingestion service.
func New(keys *Keys) (*Client, error) {
	if err := keys.Check(); err != nil {
		return nil, err
	}
	ingestURL, err := url.Parse(keys.IngestURL)
	if err != nil {
		return nil, fmt.Errorf("could not parse ingest url: %w", err)
	}

	block, _ := pem.Decode([]byte(keys.PrivateKeyPEM))
	if block == nil {
		slog.Error("could not parse the PEM private key")
		return nil, os.ErrInvalid
	}
	priKey, err := x509.ParseECPrivateKey(block.Bytes)
	if err != nil {
		slog.Error("could not parse the EC private key", "err", err)
		return nil, err
	}
	signer, err := jose.NewSigner(jose.SigningKey{Algorithm: jose.ES256, Key: priKey},
		(&jose.SignerOptions{NonceSource: nonceSource{}}).WithType("JWT").WithHeader("kid", keys.KeyID),
	)
	if err != nil {
		slog.Error("could not create go-jose.v2 pkg signer", "err", err)
		return nil, err
	}

	c := &Client{
		keys:      *keys,
		ingestURL: ingestURL,
		priKey:    priKey,
		signer:    signer,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
	return c, nil
}

func (c *Client) Close() error {
	return nil
}

type apiKeyClaims struct {
	*jwt.Claims
	URI string `json:"uri"`
}

func (c *Client) signJWT(uri string) (string, error) {
	cl := &apiKeyClaims{
		Claims: &jwt.Claims{
			Subject:   c.keys.KeyID,
			Issuer:    "indexmon",
			NotBefore: jwt.NewNumericDate(time.Now()),
			Expiry:    jwt.NewNumericDate(time.Now().Add(2 * time.Minute)),
		},
		URI: uri,
	}
	return jwt.Signed(c.signer).Claims(cl).CompactSerialize()
}

// RecordGauge uploads a single gauge observation. Every call replaces the
// previous value of the named gauge on the service side.
func (c *Client) RecordGauge(ctx context.Context, name, unit string, value float64, at time.Time) error {
	d := &Datapoint{
		Name:      name,
		Unit:      unit,
		Value:     value,
		Timestamp: at.Unix(),
	}
	var body bytes.Buffer
	if err := json.NewEncoder(&body).Encode(d); err != nil {
		return fmt.Errorf("could not json-encode datapoint: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.ingestURL.String(), &body)
	if err != nil {
		return fmt.Errorf("could not create post request: %w", err)
	}
	token, err := c.signJWT(fmt.Sprintf("%s %s%s", req.Method, req.URL.Host, req.URL.Path))
	if err != nil {
		slog.Error("could not create signed jwt token for POST", "err", err)
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := c.client.Do(req)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			slog.Error("could not perform datapoint post request", "err", err)
		}
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		slog.Error("datapoint upload is unsuccessful", "status", resp.StatusCode, "name", name)
		return fmt.Errorf("http POST returned %d", resp.StatusCode)
	}
	return nil
}
