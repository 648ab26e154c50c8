package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"lifedash/internal/core"
)

const (
	maxJSONBody   = 1 << 20
	maxUploadBody = 10 << 20
)

// decodeJSON reads a single JSON object into dst. Unknown fields, trailing
// data and bodies over maxJSONBody are validation failures.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	if ct := r.Header.Get("Content-Type"); ct != "" && !strings.HasPrefix(ct, "application/json") {
		return fmt.Errorf("%w: content type must be application/json", core.ErrValidation)
	}
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.Is(err, io.EOF):
			return fmt.Errorf("%w: request body is empty", core.ErrValidation)
		case errors.As(err, &maxErr):
			return fmt.Errorf("%w: request body exceeds %d bytes", core.ErrValidation, maxErr.Limit)
		case errors.Is(err, core.ErrValidation):
			return err
		default:
			return fmt.Errorf("%w: malformed JSON: %v", core.ErrValidation, err)
		}
	}
	if dec.More() {
		return fmt.Errorf("%w: request body must hold a single JSON object", core.ErrValidation)
	}
	return nil
}

// sanitizeInput drops control characters other than tab and newlines and
// trims surrounding whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, s)
}

// asOf reads the as_of query parameter, defaulting to now. Only the day is
// kept; the result is midnight UTC of that day.
func (s *Server) asOf(r *http.Request) (time.Time, error) {
	v := strings.TrimSpace(r.URL.Query().Get("as_of"))
	if v == "" {
		return core.DateOf(s.now()).Time, nil
	}
	d, err := core.ParseDate(v)
	if err != nil {
		return time.Time{}, fmt.Errorf("as_of: %w", err)
	}
	return d.Time, nil
}

// dateOrToday parses an optional request date, defaulting to today.
func (s *Server) dateOrToday(d core.Date) core.Date {
	if d.IsZero() {
		return core.DateOf(s.now())
	}
	return d
}

func urlID(r *http.Request) string {
	return sanitizeInput(chi.URLParam(r, "id"))
}
