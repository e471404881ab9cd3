// Copyright (c) 2025 BVK Chaitanya

// Package monitor implements the daily index price check. Each monitor
// tracks one symbol: it fetches the latest daily close, compares it against
// the previously saved observation and publishes the percentage change.
package monitor

import (
	"context"
	"fmt"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/bvk/indexmon/kvutil"
	"github.com/bvkgo/kv"
	"github.com/bvkgo/topic"
	"github.com/google/uuid"
)

const DefaultKeyspace = "/monitors/"

type Monitor struct {
	uid string

	symbol string

	opts Options

	resultTopic *topic.Topic[*Result]

	mu sync.Mutex

	numChecks int64
	numErrors int64

	lastCheck *Result
}

// Result holds the outcome of a single price check.
type Result struct {
	UID    string `json:"uid"`
	Symbol string `json:"symbol"`

	CheckTime time.Time `json:"check_time"`
	QuoteTime time.Time `json:"quote_time"`

	CurrentPrice  float64 `json:"current_price"`
	PreviousPrice float64 `json:"previous_price"`

	// HasChange is true when a prior observation with a positive price
	// existed, in which case PercentageChange is meaningful.
	HasChange        bool    `json:"has_change"`
	PercentageChange float64 `json:"percentage_change"`

	// Warning is true when the percentage change is at or below the
	// monitor's threshold.
	Warning bool `json:"warning"`
}

// State is the saved form of a monitor in the database.
type State struct {
	Symbol  string  `json:"symbol"`
	Options Options `json:"options"`

	NumChecks int64 `json:"num_checks"`
	NumErrors int64 `json:"num_errors"`

	LastCheck *Result `json:"last_check,omitempty"`
}

func New(uid, symbol string, opts *Options) (*Monitor, error) {
	if opts == nil {
		opts = new(Options)
	}
	opts.setDefaults()
	if err := opts.Check(); err != nil {
		return nil, err
	}
	if err := checkUID(uid); err != nil {
		return nil, err
	}
	if len(symbol) == 0 {
		return nil, fmt.Errorf("symbol cannot be empty")
	}
	m := &Monitor{
		uid:         uid,
		symbol:      symbol,
		opts:        *opts,
		resultTopic: topic.New[*Result](),
	}
	return m, nil
}

func checkUID(uid string) error {
	fs := strings.Split(uid, "/")
	if len(fs) == 0 {
		return fmt.Errorf("uid cannot be empty")
	}
	if _, err := uuid.Parse(fs[0]); err != nil {
		return fmt.Errorf("uid %q doesn't start with an uuid: %w", uid, err)
	}
	return nil
}

func (m *Monitor) String() string {
	return "monitor:" + m.uid
}

func (m *Monitor) UID() string {
	return m.uid
}

func (m *Monitor) Symbol() string {
	return m.symbol
}

func (m *Monitor) Options() Options {
	return m.opts
}

// ResultsCh returns a channel carrying check results, along with a function
// to unsubscribe. The most recent result, if any, is delivered first.
func (m *Monitor) ResultsCh() (<-chan *Result, func()) {
	sub, ch, _ := m.resultTopic.Subscribe(1, true /* includeRecent */)
	return ch, sub.Unsubscribe
}

// Status is a point-in-time snapshot of a monitor for the status apis.
type Status struct {
	UID     string  `json:"uid"`
	Symbol  string  `json:"symbol"`
	Options Options `json:"options"`

	NumChecks int64 `json:"num_checks"`
	NumErrors int64 `json:"num_errors"`

	NextCheckTime time.Time `json:"next_check_time"`

	LastCheck *Result `json:"last_check,omitempty"`
}

func (m *Monitor) Status() *Status {
	m.mu.Lock()
	defer m.mu.Unlock()

	return &Status{
		UID:           m.uid,
		Symbol:        m.symbol,
		Options:       m.opts,
		NumChecks:     m.numChecks,
		NumErrors:     m.numErrors,
		NextCheckTime: m.NextCheckTime(time.Now()),
		LastCheck:     m.lastCheck,
	}
}

func (m *Monitor) Save(ctx context.Context, rw kv.ReadWriter) error {
	m.mu.Lock()
	state := &State{
		Symbol:    m.symbol,
		Options:   m.opts,
		NumChecks: m.numChecks,
		NumErrors: m.numErrors,
		LastCheck: m.lastCheck,
	}
	m.mu.Unlock()

	key := path.Join(DefaultKeyspace, m.uid)
	if err := kvutil.Set(ctx, rw, key, state); err != nil {
		return fmt.Errorf("could not save monitor state: %w", err)
	}
	return nil
}

func Load(ctx context.Context, uid string, r kv.Reader) (*Monitor, error) {
	if err := checkUID(uid); err != nil {
		return nil, err
	}
	key := path.Join(DefaultKeyspace, uid)
	state, err := kvutil.Get[State](ctx, r, key)
	if err != nil {
		return nil, err
	}
	m, err := New(uid, state.Symbol, &state.Options)
	if err != nil {
		return nil, err
	}
	m.numChecks = state.NumChecks
	m.numErrors = state.NumErrors
	m.lastCheck = state.LastCheck
	return m, nil
}
