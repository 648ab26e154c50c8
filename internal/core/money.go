// Package core provides money parsing and handling utilities.
//
// Amounts are kept as integer cents. Parsing and arithmetic that may produce
// fractional cents go through shopspring/decimal and are rounded half-up to
// two places; display formatting is delegated to go-money.
package core

import (
	"encoding/json"
	"math"
	"strings"

	gomoney "github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// DefaultCurrency is used when a record carries no currency code.
const DefaultCurrency = "EUR"

var (
	maxCents = decimal.NewFromInt(math.MaxInt64)
	minCents = decimal.NewFromInt(math.MinInt64)
)

type Money struct {
	Cents int64
}

// ParseAmount parses a non-negative decimal string, accepting both dot (12.34)
// and comma (12,34) separators. Zero is allowed; amounts whose cents do not
// fit in an int64 are not.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return decimal.Zero, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	if d.Round(2).Shift(2).GreaterThan(maxCents) {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// ParseMoney converts a decimal string to Money with half-up rounding on the
// third decimal place.
//
// Examples:
//
//	ParseMoney("12.34")  -> 1234
//	ParseMoney("12,34")  -> 1234
//	ParseMoney("12.345") -> 1235
func ParseMoney(s string) (Money, error) {
	d, err := ParseAmount(s)
	if err != nil {
		return Money{}, err
	}
	return MoneyFromDecimal(d), nil
}

// MoneyFromDecimal rounds d to cents, saturating at the int64 range.
func MoneyFromDecimal(d decimal.Decimal) Money {
	cents := d.Round(2).Shift(2)
	switch {
	case cents.GreaterThan(maxCents):
		return Money{Cents: math.MaxInt64}
	case cents.LessThan(minCents):
		return Money{Cents: math.MinInt64}
	}
	return Money{Cents: cents.IntPart()}
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Cents, -2)
}

func (m Money) Add(o Money) Money {
	return Money{Cents: m.Cents + o.Cents}
}

// Sub never goes below zero.
func (m Money) Sub(o Money) Money {
	if o.Cents >= m.Cents {
		return Money{}
	}
	return Money{Cents: m.Cents - o.Cents}
}

func (m Money) String() string {
	return m.Decimal().StringFixed(2)
}

// Format renders the amount with the currency's symbol and separators.
func (m Money) Format(currency string) string {
	if strings.TrimSpace(currency) == "" {
		currency = DefaultCurrency
	}
	return gomoney.New(m.Cents, strings.ToUpper(currency)).Display()
}

// MarshalJSON encodes money as a fixed two-decimal string so documents never
// pass through binary floats.
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

func (m *Money) UnmarshalJSON(b []byte) error {
	var raw any
	if err := json.Unmarshal(b, &raw); err != nil {
		return ErrInvalidAmount
	}
	var s string
	switch v := raw.(type) {
	case string:
		s = v
	case float64:
		s = string(b)
	case nil:
		*m = Money{}
		return nil
	default:
		return ErrInvalidAmount
	}
	parsed, err := ParseMoney(s)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
