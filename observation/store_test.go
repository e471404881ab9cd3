// Copyright (c) 2025 BVK Chaitanya

package observation

import (
	"context"
	"errors"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/bvkgo/kv"
	"github.com/bvkgo/kv/kvmemdb"
)

func TestLoadMissing(t *testing.T) {
	ctx := context.Background()
	db := kvmemdb.New()

	s, err := New(db, "^GSPC")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.Load(ctx); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("want os.ErrNotExist, got %v", err)
	}
}

func TestSaveLoad(t *testing.T) {
	ctx := context.Background()
	db := kvmemdb.New()

	s, err := New(db, "^GSPC")
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Save(ctx, 4567.89); err != nil {
		t.Fatal(err)
	}
	v, err := s.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if v.LastPrice != 4567.89 {
		t.Fatalf("want 4567.89, got %v", v.LastPrice)
	}
}

func TestSaveOverwrites(t *testing.T) {
	ctx := context.Background()
	db := kvmemdb.New()

	s, err := New(db, "^GSPC")
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Save(ctx, 100); err != nil {
		t.Fatal(err)
	}
	if err := s.Save(ctx, 97.5); err != nil {
		t.Fatal(err)
	}
	v, err := s.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if v.LastPrice != 97.5 {
		t.Fatalf("want 97.5, got %v", v.LastPrice)
	}
}

func TestLoadMalformed(t *testing.T) {
	ctx := context.Background()
	db := kvmemdb.New()

	set := func(ctx context.Context, rw kv.ReadWriter) error {
		return rw.Set(ctx, Key("^GSPC"), strings.NewReader("not-json"))
	}
	if err := kv.WithReadWriter(ctx, db, set); err != nil {
		t.Fatal(err)
	}

	s, err := New(db, "^GSPC")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.Load(ctx); err == nil {
		t.Fatalf("want decode error for malformed payload, got nil")
	}
}

func TestPayloadFormat(t *testing.T) {
	ctx := context.Background()
	db := kvmemdb.New()

	s, err := New(db, "^GSPC")
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Save(ctx, 100); err != nil {
		t.Fatal(err)
	}

	var payload string
	get := func(ctx context.Context, r kv.Reader) error {
		v, err := r.Get(ctx, Key("^GSPC"))
		if err != nil {
			return err
		}
		var sb strings.Builder
		if _, err := io.Copy(&sb, v); err != nil {
			return err
		}
		payload = sb.String()
		return nil
	}
	if err := kv.WithReader(ctx, db, get); err != nil {
		t.Fatal(err)
	}
	if want := `{"last_price":100}`; strings.TrimSpace(payload) != want {
		t.Fatalf("want payload %q, got %q", want, payload)
	}
}
