// Package prices looks up current and historical security prices.
//
// Every failure, from a missing API key to an unknown symbol, is reported
// as ErrUnavailable so callers can fall back to cost basis.
package prices

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"lifedash/internal/core"
)

var ErrUnavailable = fmt.Errorf("%w: price unavailable", core.ErrExternalUnavailable)

type Quote struct {
	Symbol string          `json:"symbol"`
	Price  decimal.Decimal `json:"price"`
	Date   core.Date       `json:"date"`
}

// Lookup is the price service port.
type Lookup interface {
	CurrentPrice(ctx context.Context, symbol string) (Quote, error)
	HistoricalClose(ctx context.Context, symbol string, day core.Date) (Quote, error)
}

// Unavailable answers every lookup with ErrUnavailable. It stands in when no
// provider is configured.
type Unavailable struct{}

func (Unavailable) CurrentPrice(_ context.Context, symbol string) (Quote, error) {
	return Quote{}, fmt.Errorf("%w: no provider configured for %s", ErrUnavailable, symbol)
}

func (Unavailable) HistoricalClose(_ context.Context, symbol string, _ core.Date) (Quote, error) {
	return Quote{}, fmt.Errorf("%w: no provider configured for %s", ErrUnavailable, symbol)
}

// Static serves fixed prices keyed by upper-case symbol.
type Static map[string]decimal.Decimal

func (s Static) CurrentPrice(_ context.Context, symbol string) (Quote, error) {
	p, ok := s[strings.ToUpper(symbol)]
	if !ok {
		return Quote{}, fmt.Errorf("%w: unknown symbol %s", ErrUnavailable, symbol)
	}
	return Quote{Symbol: symbol, Price: p}, nil
}

func (s Static) HistoricalClose(ctx context.Context, symbol string, day core.Date) (Quote, error) {
	q, err := s.CurrentPrice(ctx, symbol)
	q.Date = day
	return q, err
}
