package memory

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"lifedash/internal/docstore"
)

// Store keeps documents in process memory, in insertion order per collection.
type Store struct {
	mu    sync.Mutex
	now   func() time.Time
	items map[string][]docstore.Document
}

var _ docstore.Store = (*Store)(nil)

func New() *Store {
	return &Store{now: time.Now, items: map[string][]docstore.Document{}}
}

// NewFromFiles seeds the store from <base>/seed_<collection>.json files, each
// holding a JSON array of field objects. Missing or unreadable files are skipped.
func NewFromFiles(base string, collections ...string) *Store {
	s := New()
	for _, c := range collections {
		for _, f := range readSeed(filepath.Join(base, "seed_"+c+".json")) {
			_, _ = s.Save(context.Background(), c, f)
		}
	}
	return s
}

func (s *Store) Save(_ context.Context, collection string, fields docstore.Fields) (string, error) {
	if err := docstore.ValidateCollection(collection); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	doc := docstore.Document{
		ID:         uuid.NewString(),
		Collection: collection,
		Fields:     docstore.Merge(nil, fields),
		CreatedAt:  s.now(),
	}
	s.items[collection] = append(s.items[collection], doc)
	return doc.ID, nil
}

// ListAll returns newest first.
func (s *Store) ListAll(_ context.Context, collection string) ([]docstore.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	docs := s.items[collection]
	out := make([]docstore.Document, 0, len(docs))
	for i := len(docs) - 1; i >= 0; i-- {
		out = append(out, copyDoc(docs[i]))
	}
	return out, nil
}

func (s *Store) Get(_ context.Context, collection, id string) (docstore.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(collection, id)
	if i < 0 {
		return docstore.Document{}, docstore.NotFound(collection, id)
	}
	return copyDoc(s.items[collection][i]), nil
}

func (s *Store) DeleteOne(_ context.Context, collection, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(collection, id)
	if i < 0 {
		return docstore.NotFound(collection, id)
	}
	docs := s.items[collection]
	s.items[collection] = append(docs[:i:i], docs[i+1:]...)
	return nil
}

func (s *Store) UpdateFields(_ context.Context, collection, id string, partial docstore.Fields) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(collection, id)
	if i < 0 {
		return docstore.NotFound(collection, id)
	}
	doc := s.items[collection][i]
	doc.Fields = docstore.Merge(doc.Fields, partial)
	s.items[collection][i] = doc
	return nil
}

func (s *Store) indexOf(collection, id string) int {
	for i, d := range s.items[collection] {
		if d.ID == id {
			return i
		}
	}
	return -1
}

func copyDoc(d docstore.Document) docstore.Document {
	d.Fields = docstore.Merge(nil, d.Fields)
	return d
}

func readSeed(path string) []docstore.Fields {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	var out []docstore.Fields
	if err := json.Unmarshal(b, &out); err != nil {
		slog.Warn("Ignoring malformed seed file", "path", path, "error", err)
		return nil
	}
	return out
}
