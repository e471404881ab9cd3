// Copyright (c) 2025 BVK Chaitanya

package yahoo

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
)

const chartBody = `{
  "chart": {
    "result": [
      {
        "meta": {
          "currency": "USD",
          "symbol": "^GSPC",
          "exchangeName": "SNP",
          "instrumentType": "INDEX",
          "regularMarketPrice": 4567.18,
          "regularMarketTime": 1701205200,
          "gmtoffset": -18000,
          "timezone": "EST"
        },
        "timestamp": [1701181800],
        "indicators": {
          "quote": [
            {
              "open": [4554.86],
              "high": [4568.43],
              "low": [4552.8],
              "close": [4567.18],
              "volume": [3975210000]
            }
          ]
        }
      }
    ],
    "error": null
  }
}`

const chartBodyNullClose = `{
  "chart": {
    "result": [
      {
        "meta": {
          "currency": "USD",
          "symbol": "^GSPC",
          "regularMarketPrice": 4550.58,
          "regularMarketTime": 1701205200
        },
        "timestamp": [1701181800],
        "indicators": {
          "quote": [
            {
              "close": [null]
            }
          ]
        }
      }
    ],
    "error": null
  }
}`

const chartBodyNotFound = `{
  "chart": {
    "result": null,
    "error": {
      "code": "Not Found",
      "description": "No data found, symbol may be delisted"
    }
  }
}`

func newTestClient(t *testing.T, body string) (*Client, *httptest.Server) {
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, body)
	}))
	u, err := url.Parse(s.URL)
	if err != nil {
		s.Close()
		t.Fatal(err)
	}
	c, err := New(&Options{RestHostname: u.Host, restScheme: "http"})
	if err != nil {
		s.Close()
		t.Fatal(err)
	}
	return c, s
}

func TestGetDailyClose(t *testing.T) {
	c, s := newTestClient(t, chartBody)
	defer s.Close()
	defer c.Close()

	price, at, err := c.GetDailyClose(context.Background(), "^GSPC")
	if err != nil {
		t.Fatal(err)
	}
	if want := "4567.18"; price.String() != want {
		t.Fatalf("daily close: got %s, want %s", price, want)
	}
	if want := int64(1701181800); at.Unix() != want {
		t.Fatalf("close timestamp: got %d, want %d", at.Unix(), want)
	}
}

func TestGetDailyCloseNullCandle(t *testing.T) {
	c, s := newTestClient(t, chartBodyNullClose)
	defer s.Close()
	defer c.Close()

	price, at, err := c.GetDailyClose(context.Background(), "^GSPC")
	if err != nil {
		t.Fatal(err)
	}
	if want := "4550.58"; price.String() != want {
		t.Fatalf("daily close: got %s, want %s", price, want)
	}
	if want := int64(1701205200); at.Unix() != want {
		t.Fatalf("close timestamp: got %d, want %d", at.Unix(), want)
	}
}

func TestGetDailyCloseNoData(t *testing.T) {
	c, s := newTestClient(t, chartBodyNotFound)
	defer s.Close()
	defer c.Close()

	if _, _, err := c.GetDailyClose(context.Background(), "NOSUCH"); err == nil {
		t.Fatalf("expected an error for an unknown symbol")
	}
}

func TestGetDailyCloseEmptyResult(t *testing.T) {
	c, s := newTestClient(t, `{"chart":{"result":[],"error":null}}`)
	defer s.Close()
	defer c.Close()

	_, _, err := c.GetDailyClose(context.Background(), "^GSPC")
	if !errors.Is(err, ErrNoData) {
		t.Fatalf("got %v, want ErrNoData", err)
	}
}
