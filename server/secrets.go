// Copyright (c) 2025 BVK Chaitanya

package server

import (
	"encoding/json"
	"os"

	"github.com/bvk/indexmon/metrics"
	"github.com/bvk/indexmon/pushover"
	"github.com/bvk/indexmon/telegram"
)

type Secrets struct {
	Metrics  *metrics.Keys     `json:"metrics"`
	Pushover *pushover.Keys    `json:"pushover"`
	Telegram *telegram.Secrets `json:"telegram"`
}

func SecretsFromFile(fpath string) (*Secrets, error) {
	data, err := os.ReadFile(fpath)
	if err != nil {
		return nil, err
	}
	s := new(Secrets)
	if err := json.Unmarshal(data, s); err != nil {
		return nil, err
	}
	return s, nil
}

func (v *Secrets) Check() error {
	if v.Metrics != nil {
		if err := v.Metrics.Check(); err != nil {
			return err
		}
	}
	if v.Pushover != nil {
		if err := v.Pushover.Check(); err != nil {
			return err
		}
	}
	if v.Telegram != nil {
		if err := v.Telegram.Check(); err != nil {
			return err
		}
	}
	return nil
}
