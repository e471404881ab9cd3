// Copyright (c) 2025 BVK Chaitanya

// Package yahoo implements a read-only client for the Yahoo Finance chart
// api. It only fetches the most recent daily closing price for an index or
// ticker symbol, which is all the monitor needs.
package yahoo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"
)

// ErrNoData indicates that the chart api response contains no usable price
// for the requested symbol.
var ErrNoData = errors.New("no price data for symbol")

type Client struct {
	opts Options

	client *http.Client

	limiter *rate.Limiter
}

// New creates a client for the Yahoo Finance chart api. No credentials are
// required.
func New(opts *Options) (*Client, error) {
	if opts == nil {
		opts = new(Options)
	}
	opts.setDefaults()

	c := &Client{
		opts: *opts,
		client: &http.Client{
			Timeout: opts.HttpClientTimeout,
		},
		limiter: rate.NewLimiter(2, 1),
	}
	return c, nil
}

func (c *Client) Close() error {
	return nil
}

func (c *Client) getJSON(ctx context.Context, url *url.URL, result interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url.String(), nil)
	if err != nil {
		slog.Error("could not create http get request with context", "url", url, "err", err)
		return err
	}
	// Yahoo rejects requests without a browser-looking user agent.
	req.Header.Set("User-Agent", "Mozilla/5.0 (X11; Linux x86_64) indexmon/1.0")
	req.Header.Set("Accept", "application/json")
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			slog.Error("could not do http client request", "url", url, "err", err)
		}
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		if resp.StatusCode == http.StatusTooManyRequests {
			slog.Warn("get request returned with status code 429 - too many requests (retrying)")
			time.Sleep(time.Second)
			return c.getJSON(ctx, url, result)
		}
		slog.Error("http GET is unsuccessful", "status", resp.StatusCode, "url", url.String())
		return fmt.Errorf("http GET returned %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		slog.Error("could not decode response to json", "err", err)
		return err
	}
	return nil
}

// GetChart fetches one day of daily candles for the given symbol.
func (c *Client) GetChart(ctx context.Context, symbol string) (*ChartResponse, error) {
	values := make(url.Values)
	values.Set("interval", "1d")
	values.Set("range", "1d")

	url := &url.URL{
		Scheme:   c.opts.restScheme,
		Host:     c.opts.RestHostname,
		Path:     "/v8/finance/chart/" + symbol,
		RawQuery: values.Encode(),
	}
	resp := new(ChartResponse)
	if err := c.getJSON(ctx, url, resp); err != nil {
		if !errors.Is(err, context.Canceled) {
			slog.Error("could not http get chart", "symbol", symbol, "err", err)
		}
		return nil, err
	}
	if resp.Chart.Error != nil {
		return nil, fmt.Errorf("chart api returned %s: %s", resp.Chart.Error.Code, resp.Chart.Error.Description)
	}
	return resp, nil
}

// GetDailyClose returns the most recent daily closing price for the symbol
// along with its timestamp. Returns ErrNoData when the response carries no
// usable price.
func (c *Client) GetDailyClose(ctx context.Context, symbol string) (decimal.Decimal, time.Time, error) {
	resp, err := c.GetChart(ctx, symbol)
	if err != nil {
		return decimal.Zero, time.Time{}, err
	}
	if len(resp.Chart.Result) == 0 || resp.Chart.Result[0] == nil {
		return decimal.Zero, time.Time{}, fmt.Errorf("%w: %s", ErrNoData, symbol)
	}
	result := resp.Chart.Result[0]

	// Prefer the last non-null candle close. Index quotes sometimes carry
	// null placeholders for the in-progress candle, in which case the meta
	// price below is used instead.
	for _, quote := range result.Indicators.Quote {
		for i := len(quote.Close) - 1; i >= 0; i-- {
			if quote.Close[i] == nil {
				continue
			}
			at := time.Unix(result.Meta.RegularMarketTime, 0).UTC()
			if i < len(result.Timestamps) {
				at = time.Unix(result.Timestamps[i], 0).UTC()
			}
			return *quote.Close[i], at, nil
		}
	}

	if result.Meta.RegularMarketPrice.IsPositive() {
		at := time.Unix(result.Meta.RegularMarketTime, 0).UTC()
		return result.Meta.RegularMarketPrice, at, nil
	}
	return decimal.Zero, time.Time{}, fmt.Errorf("%w: %s", ErrNoData, symbol)
}
