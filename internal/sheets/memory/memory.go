// Package memory is an in-process spreadsheet used when no Google
// spreadsheet is configured, and by tests.
package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"lifedash/internal/docstore"
	"lifedash/internal/sheets"
)

type Store struct {
	mu   sync.Mutex
	tabs map[string][][]string
}

var (
	_ sheets.DocumentMirror = (*Store)(nil)
	_ sheets.TableReader    = (*Store)(nil)
)

func New() *Store {
	return &Store{tabs: make(map[string][][]string)}
}

// SetTab replaces a tab's contents, header row first.
func (s *Store) SetTab(name string, values [][]string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tabs[name] = copyRows(values)
}

// Tab returns a copy of a tab's rows.
func (s *Store) Tab(name string) [][]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyRows(s.tabs[name])
}

func (s *Store) MirrorDocument(_ context.Context, doc docstore.Document) (string, error) {
	if err := docstore.ValidateCollection(doc.Collection); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	values := s.tabs[doc.Collection]
	var existing []string
	if len(values) > 0 {
		existing = values[0]
	}
	header := sheets.Header(existing, doc)
	if len(values) == 0 {
		values = [][]string{header}
	} else {
		values[0] = header
	}

	row := sheets.Row(header, doc)
	idx := sheets.FindRow(values, doc.ID)
	if idx < 0 {
		values = append(values, row)
		idx = len(values) - 1
	} else {
		values[idx] = row
	}
	s.tabs[doc.Collection] = values
	return fmt.Sprintf("%s!A%d", doc.Collection, idx+1), nil
}

func (s *Store) RemoveDocument(_ context.Context, collection, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	values := s.tabs[collection]
	if idx := sheets.FindRow(values, id); idx > 0 {
		s.tabs[collection] = append(values[:idx], values[idx+1:]...)
	}
	return nil
}

// ReadTable accepts a tab name, optionally followed by "!" and a range
// which is ignored.
func (s *Store) ReadTable(_ context.Context, rng string) ([][]string, error) {
	name, _, _ := strings.Cut(rng, "!")
	name = strings.Trim(name, "'")
	s.mu.Lock()
	defer s.mu.Unlock()
	values, ok := s.tabs[name]
	if !ok {
		return nil, fmt.Errorf("unknown tab %q", name)
	}
	return copyRows(values), nil
}

func copyRows(in [][]string) [][]string {
	out := make([][]string, len(in))
	for i, r := range in {
		out[i] = append([]string(nil), r...)
	}
	return out
}
