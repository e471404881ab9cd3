// Copyright (c) 2025 BVK Chaitanya

package pushover

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"testing"
	"time"
)

func TestSendAlert(t *testing.T) {
	type message struct {
		Token    string `json:"token"`
		User     string `json:"user"`
		Message  string `json:"message"`
		Priority int    `json:"priority"`
	}

	var received message
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := io.ReadAll(r.Body)
		if err != nil {
			t.Error(err)
		}
		if err := json.Unmarshal(data, &received); err != nil {
			t.Error(err)
		}
		io.WriteString(w, `{"status":1,"request":"test"}`)
	}))
	defer s.Close()

	c, err := New(&Keys{ApplicationKey: "app", UserKey: "user"})
	if err != nil {
		t.Fatal(err)
	}
	u, err := url.Parse(s.URL)
	if err != nil {
		t.Fatal(err)
	}
	c.apiURL = u

	if err := c.SendAlert(context.Background(), time.Now(), "index has dropped"); err != nil {
		t.Fatal(err)
	}
	if received.Token != "app" || received.User != "user" {
		t.Errorf("want app/user keys, got %q/%q", received.Token, received.User)
	}
	if received.Message != "index has dropped" {
		t.Errorf("wrong message: %q", received.Message)
	}
	if received.Priority != 1 {
		t.Errorf("alert priority: want 1, got %d", received.Priority)
	}
}

// TestSendMessage talks to the real pushover api. It runs only when a
// pushover-keys.json file exists next to the test.
func TestSendMessage(t *testing.T) {
	data, err := os.ReadFile("pushover-keys.json")
	if err != nil {
		t.Skip("no keys")
		return
	}
	keys := new(Keys)
	if err := json.Unmarshal(data, keys); err != nil {
		t.Fatal(err)
	}

	c, err := New(keys)
	if err != nil {
		t.Fatal(err)
	}
	if err := c.SendMessage(context.Background(), time.Now(), t.Name()); err != nil {
		t.Fatal(err)
	}
}
