package prices

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"lifedash/internal/cache"
	"lifedash/internal/core"
	applog "lifedash/internal/log"
)

const defaultBaseURL = "https://eodhd.com"

// historicalLookback covers weekends and holidays when the requested day
// has no close of its own.
const historicalLookback = 7

// EODHDClient fetches prices from eodhd.com and caches successful answers.
type EODHDClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
	quotes  *cache.LRUCache[Quote]
}

var _ Lookup = (*EODHDClient)(nil)

type Option func(*EODHDClient)

func WithBaseURL(u string) Option {
	return func(c *EODHDClient) { c.baseURL = strings.TrimRight(u, "/") }
}

func WithHTTPClient(h *http.Client) Option {
	return func(c *EODHDClient) { c.http = h }
}

func WithCache(quotes *cache.LRUCache[Quote]) Option {
	return func(c *EODHDClient) { c.quotes = quotes }
}

func NewEODHDClient(apiKey string, opts ...Option) *EODHDClient {
	c := &EODHDClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
		quotes:  cache.NewLRUCache[Quote](256, 15*time.Minute),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Cache exposes the quote cache so a cache.Manager can sweep it.
func (c *EODHDClient) Cache() *cache.LRUCache[Quote] {
	return c.quotes
}

func (c *EODHDClient) CurrentPrice(ctx context.Context, symbol string) (Quote, error) {
	symbol = strings.TrimSpace(symbol)
	return c.quotes.GetOrLoad("rt:"+symbol, func() (Quote, error) {
		// https://eodhd.com/api/real-time/AAPL.US?api_token=demo&fmt=json
		var payload struct {
			Code  string          `json:"code"`
			Close decimal.Decimal `json:"close"`
		}
		if err := c.get(ctx, "/api/real-time/"+url.PathEscape(symbol), nil, &payload); err != nil {
			return Quote{}, err
		}
		if !payload.Close.IsPositive() {
			return Quote{}, fmt.Errorf("%w: no current price for %s", ErrUnavailable, symbol)
		}
		return Quote{Symbol: symbol, Price: payload.Close, Date: core.DateOf(time.Now())}, nil
	})
}

func (c *EODHDClient) HistoricalClose(ctx context.Context, symbol string, day core.Date) (Quote, error) {
	symbol = strings.TrimSpace(symbol)
	return c.quotes.GetOrLoad("eod:"+symbol+":"+day.String(), func() (Quote, error) {
		// https://eodhd.com/api/eod/NVD.F?api_token=demo&fmt=json&from=...&to=...
		q := url.Values{}
		q.Set("from", day.AddDays(-historicalLookback).String())
		q.Set("to", day.String())
		var bars []struct {
			Date  core.Date       `json:"date"`
			Close decimal.Decimal `json:"close"`
		}
		if err := c.get(ctx, "/api/eod/"+url.PathEscape(symbol), q, &bars); err != nil {
			return Quote{}, err
		}
		for i := len(bars) - 1; i >= 0; i-- {
			if !bars[i].Date.After(day.Time) && bars[i].Close.IsPositive() {
				return Quote{Symbol: symbol, Price: bars[i].Close, Date: bars[i].Date}, nil
			}
		}
		return Quote{}, fmt.Errorf("%w: no close for %s on or before %s", ErrUnavailable, symbol, day)
	})
}

func (c *EODHDClient) get(ctx context.Context, path string, q url.Values, into any) error {
	if c.apiKey == "" {
		return fmt.Errorf("%w: missing API key", ErrUnavailable)
	}
	if q == nil {
		q = url.Values{}
	}
	q.Set("api_token", c.apiKey)
	q.Set("fmt", "json")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return fmt.Errorf("%w: build request: %v", ErrUnavailable, err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		slog.WarnContext(ctx, "Price provider returned non-OK status", applog.FieldComponent, applog.ComponentPrices, "path", path, "status", resp.StatusCode)
		return fmt.Errorf("%w: provider status %d", ErrUnavailable, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(into); err != nil {
		return fmt.Errorf("%w: decode response: %v", ErrUnavailable, err)
	}
	return nil
}
