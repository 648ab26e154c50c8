package core

import (
	"errors"
	"fmt"
)

// Error categories. Concrete errors wrap one of these so callers can branch
// with errors.Is without knowing every individual failure.
var (
	ErrInvalidState        = errors.New("invalid state")
	ErrValidation          = errors.New("validation failed")
	ErrExternalUnavailable = errors.New("external service unavailable")
	ErrNotFound            = errors.New("not found")
)

var (
	ErrInvalidDate         = fmt.Errorf("%w: invalid date", ErrValidation)
	ErrInvalidAmount       = fmt.Errorf("%w: invalid amount", ErrValidation)
	ErrEmptyDescription    = fmt.Errorf("%w: empty description", ErrValidation)
	ErrEmptyName           = fmt.Errorf("%w: empty name", ErrValidation)
	ErrEmptySymbol         = fmt.Errorf("%w: empty symbol", ErrValidation)
	ErrInvalidQuantity     = fmt.Errorf("%w: invalid quantity", ErrValidation)
	ErrMissingTranslation  = fmt.Errorf("%w: translation is required", ErrValidation)
	ErrMissingForeignTerm  = fmt.Errorf("%w: an English or German term is required", ErrValidation)
	ErrDescriptionTooLong  = fmt.Errorf("%w: description too long (max 200 characters)", ErrValidation)
	ErrRemainingExceedsDue = fmt.Errorf("%w: remaining balance exceeds total", ErrValidation)
)

// Notice is a non-fatal message surfaced alongside a degraded result, for
// example when a price lookup fell back to cost basis.
type Notice struct {
	Source  string `json:"source"`
	Message string `json:"message"`
}

// NewNotice builds a notice from an error that was recovered locally.
func NewNotice(source string, err error) Notice {
	return Notice{Source: source, Message: err.Error()}
}
