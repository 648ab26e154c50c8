package totals

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"lifedash/internal/core"
	"lifedash/internal/docstore"
)

// Record is a dated amount as it was stored. Both fields are kept raw so
// that malformed values can be skipped rather than rejected upstream.
type Record struct {
	Amount     string
	OccurredOn string
}

type Totals struct {
	Daily   core.Money `json:"daily"`
	Weekly  core.Money `json:"weekly"`
	Monthly core.Money `json:"monthly"`
}

// ComputeTotals sums record amounts falling on asOf's day, in its Monday-started
// week, and in its month, each bounded above by asOf's day. Records with an
// unparseable date or a non-numeric or negative amount contribute nothing.
func ComputeTotals(records []Record, asOf time.Time) Totals {
	ref := core.DateOf(asOf)
	var daily, weekly, monthly decimal.Decimal

	for _, rec := range records {
		day, err := core.ParseDate(rec.OccurredOn)
		if err != nil {
			continue
		}
		amount, err := core.ParseAmount(rec.Amount)
		if err != nil {
			continue
		}
		if Contains(windows[Daily], day, ref) {
			daily = daily.Add(amount)
		}
		if Contains(windows[Weekly], day, ref) {
			weekly = weekly.Add(amount)
		}
		if Contains(windows[Monthly], day, ref) {
			monthly = monthly.Add(amount)
		}
	}

	return Totals{
		Daily:   core.MoneyFromDecimal(daily),
		Weekly:  core.MoneyFromDecimal(weekly),
		Monthly: core.MoneyFromDecimal(monthly),
	}
}

// Get returns the total for a single period.
func (t Totals) Get(p Period) core.Money {
	switch p {
	case Daily:
		return t.Daily
	case Weekly:
		return t.Weekly
	default:
		return t.Monthly
	}
}

// RecordsFromDocuments extracts the amount and date fields of stored
// documents. Missing fields become empty strings and are skipped later.
func RecordsFromDocuments(docs []docstore.Document, amountField, dateField string) []Record {
	out := make([]Record, 0, len(docs))
	for _, d := range docs {
		out = append(out, Record{
			Amount:     stringValue(d.Fields[amountField]),
			OccurredOn: stringValue(d.Fields[dateField]),
		})
	}
	return out
}

func stringValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return decimal.NewFromFloat(t).String()
	case int:
		return fmt.Sprint(t)
	case int64:
		return fmt.Sprint(t)
	default:
		return fmt.Sprint(t)
	}
}
