// Copyright (c) 2025 BVK Chaitanya

// Package observation implements durable, single-slot persistence for the
// last observed price of a tracked instrument. Each instrument owns exactly
// one record under the observations keyspace; every successful fetch
// overwrites it in full. There is no history -- the store remembers the
// previous observation and nothing else.
package observation

import (
	"context"
	"fmt"
	"path"

	"github.com/bvk/indexmon/kvutil"
	"github.com/bvkgo/kv"
)

const DefaultKeyspace = "/observations/"

// Observation is the persisted record. The payload is a UTF-8 JSON object of
// the form {"last_price": <number>} so that it can be inspected and repaired
// with the db subcommands.
//
// A missing record and a stored zero price are deliberately
// indistinguishable to callers: both mean "no prior observation".
type Observation struct {
	LastPrice float64 `json:"last_price"`
}

// Store reads and overwrites the single observation record for one symbol.
type Store struct {
	db  kv.Database
	key string
}

func New(db kv.Database, symbol string) (*Store, error) {
	if len(symbol) == 0 {
		return nil, fmt.Errorf("symbol cannot be empty")
	}
	s := &Store{
		db:  db,
		key: Key(symbol),
	}
	return s, nil
}

// Key returns the db key holding the observation record for a symbol.
func Key(symbol string) string {
	return path.Join(DefaultKeyspace, symbol, "last")
}

// Load returns the stored observation. Returns os.ErrNotExist (wrapped) when
// no record exists and a decode error when the payload is malformed. Callers
// that only need best-effort history should treat every error as the zero
// observation.
func (s *Store) Load(ctx context.Context) (*Observation, error) {
	return kvutil.GetDB[Observation](ctx, s.db, s.key)
}

// Save overwrites the observation record with the given price. The record is
// replaced in full in a single read-write transaction; there are no partial
// updates or merges.
func (s *Store) Save(ctx context.Context, price float64) error {
	v := &Observation{LastPrice: price}
	if err := kvutil.SetDB(ctx, s.db, s.key, v); err != nil {
		return fmt.Errorf("could not save observation at key %q: %w", s.key, err)
	}
	return nil
}

