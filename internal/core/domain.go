package core

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

type (
	// Date is a calendar day in UTC; time of day is always midnight.
	Date struct {
		time.Time
	}

	Expense struct {
		OccurredOn  Date   `json:"occurred_on"`
		Description string `json:"description"`
		Amount      Money  `json:"amount"`
		Category    string `json:"category,omitempty"`
	}

	// Payment settles part of a Debt when DebtID is set.
	Payment struct {
		OccurredOn  Date   `json:"occurred_on"`
		Description string `json:"description"`
		Amount      Money  `json:"amount"`
		DebtID      string `json:"debt_id,omitempty"`
	}

	// Debt is a liability whose Remaining balance is decremented by linked payments.
	Debt struct {
		Name      string `json:"name"`
		Creditor  string `json:"creditor,omitempty"`
		Total     Money  `json:"total"`
		Remaining Money  `json:"remaining"`
		OpenedOn  Date   `json:"opened_on"`
	}

	Investment struct {
		Symbol    string          `json:"symbol"`
		Quantity  decimal.Decimal `json:"quantity"`
		CostBasis Money           `json:"cost_basis"`
		Currency  string          `json:"currency,omitempty"`
		BoughtOn  Date            `json:"bought_on"`
	}

	// Word is a vocabulary flashcard. TR holds the translation; EN and DE are
	// the foreign-language terms.
	Word struct {
		EN           string    `json:"en,omitempty"`
		DE           string    `json:"de,omitempty"`
		TR           string    `json:"tr"`
		Sentence     string    `json:"sentence,omitempty"`
		SentenceTR   string    `json:"sentence_tr,omitempty"`
		Type         string    `json:"type,omitempty"`
		ImageURL     string    `json:"image_url,omitempty"`
		LearnedCount int       `json:"learned_count"`
		CreatedAt    time.Time `json:"created_at"`
	}

	HabitCheckIn struct {
		Habit string `json:"habit"`
		Day   Date   `json:"day"`
		Note  string `json:"note,omitempty"`
	}
)

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf returns the calendar day of t in t's own location.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), int(t.Month()), t.Day())
}

// ParseDate accepts YYYY-MM-DD or an RFC3339 timestamp, keeping only the day.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, ErrInvalidDate
	}
	if t, err := time.Parse(dateLayout, s); err == nil {
		return DateOf(t), nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return DateOf(t), nil
	}
	return Date{}, ErrInvalidDate
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

func (d Date) String() string {
	return d.Format(dateLayout)
}

// StartOfWeek returns the Monday of d's week.
func (d Date) StartOfWeek() Date {
	offset := (int(d.Weekday()) + 6) % 7
	return Date{Time: d.AddDate(0, 0, -offset)}
}

// StartOfMonth returns the first day of d's month.
func (d Date) StartOfMonth() Date {
	return NewDate(d.Year(), int(d.Month()), 1)
}

// AddDays returns d shifted by n days.
func (d Date) AddDays(n int) Date {
	return Date{Time: d.AddDate(0, 0, n)}
}

// Between reports whether from <= d <= to.
func (d Date) Between(from, to Date) bool {
	return !d.Before(from.Time) && !d.After(to.Time)
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte(`""`), nil
	}
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return ErrInvalidDate
	}
	if s == "" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func validateDescription(desc string) error {
	if len(strings.TrimSpace(desc)) == 0 {
		return ErrEmptyDescription
	}
	if len(desc) > 200 {
		return ErrDescriptionTooLong
	}
	return nil
}

func (e Expense) Validate() error {
	if err := e.OccurredOn.Validate(); err != nil {
		return err
	}
	if err := validateDescription(e.Description); err != nil {
		return err
	}
	return e.Amount.Validate()
}

func (p Payment) Validate() error {
	if err := p.OccurredOn.Validate(); err != nil {
		return err
	}
	if err := validateDescription(p.Description); err != nil {
		return err
	}
	return p.Amount.Validate()
}

func (d Debt) Validate() error {
	if strings.TrimSpace(d.Name) == "" {
		return ErrEmptyName
	}
	if err := d.OpenedOn.Validate(); err != nil {
		return err
	}
	if err := d.Total.Validate(); err != nil {
		return err
	}
	if d.Remaining.Cents < 0 {
		return ErrInvalidAmount
	}
	if d.Remaining.Cents > d.Total.Cents {
		return ErrRemainingExceedsDue
	}
	return nil
}

func (i Investment) Validate() error {
	if strings.TrimSpace(i.Symbol) == "" {
		return ErrEmptySymbol
	}
	if !i.Quantity.IsPositive() {
		return ErrInvalidQuantity
	}
	if err := i.BoughtOn.Validate(); err != nil {
		return err
	}
	return i.CostBasis.Validate()
}

// Validate requires a translation and at least one foreign-language term.
func (w Word) Validate() error {
	if strings.TrimSpace(w.TR) == "" {
		return ErrMissingTranslation
	}
	if strings.TrimSpace(w.EN) == "" && strings.TrimSpace(w.DE) == "" {
		return ErrMissingForeignTerm
	}
	return nil
}

// Prompt is the foreign term shown on the front of the card.
func (w Word) Prompt() string {
	if strings.TrimSpace(w.EN) != "" {
		return w.EN
	}
	return w.DE
}

func (h HabitCheckIn) Validate() error {
	if strings.TrimSpace(h.Habit) == "" {
		return ErrEmptyName
	}
	return h.Day.Validate()
}
