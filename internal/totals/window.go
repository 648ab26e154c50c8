// Package totals sums dated monetary records over calendar windows.
//
// Each window (day, week, month) is a strategy that knows where it starts
// relative to a reference day; every window ends on the reference day itself.
package totals

import (
	"fmt"

	"lifedash/internal/core"
)

// Period names a calendar window.
type Period string

const (
	Daily   Period = "daily"
	Weekly  Period = "weekly"
	Monthly Period = "monthly"
)

// Window is the strategy interface for a calendar window ending on asOf.
type Window interface {
	// Start returns the first day included in the window.
	Start(asOf core.Date) core.Date
}

// DayWindow covers asOf only.
type DayWindow struct{}

func (DayWindow) Start(asOf core.Date) core.Date { return asOf }

// WeekWindow starts on the Monday of asOf's week.
type WeekWindow struct{}

func (WeekWindow) Start(asOf core.Date) core.Date { return asOf.StartOfWeek() }

// MonthWindow starts on the first day of asOf's month.
type MonthWindow struct{}

func (MonthWindow) Start(asOf core.Date) core.Date { return asOf.StartOfMonth() }

var windows = map[Period]Window{
	Daily:   DayWindow{},
	Weekly:  WeekWindow{},
	Monthly: MonthWindow{},
}

// GetWindow returns the strategy for a period.
func GetWindow(p Period) (Window, error) {
	w, ok := windows[p]
	if !ok {
		return nil, fmt.Errorf("%w: unknown period %q", core.ErrValidation, p)
	}
	return w, nil
}

// Contains reports whether day falls in w for the given reference day.
func Contains(w Window, day, asOf core.Date) bool {
	return day.Between(w.Start(asOf), asOf)
}
