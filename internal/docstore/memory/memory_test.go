package memory

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"lifedash/internal/docstore"
	"lifedash/internal/docstore/docstoretest"
)

func TestStoreContract(t *testing.T) {
	docstoretest.Run(t, func(t *testing.T) docstore.Store { return New() })
}

func TestNewFromFiles(t *testing.T) {
	dir := t.TempDir()
	seed := `[{"tr":"ev","en":"house"},{"tr":"kedi","en":"cat"}]`
	if err := os.WriteFile(filepath.Join(dir, "seed_words.json"), []byte(seed), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "seed_expenses.json"), []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	s := NewFromFiles(dir, docstore.Words, docstore.Expenses, docstore.Habits)
	words, _ := s.ListAll(context.Background(), docstore.Words)
	if len(words) != 2 {
		t.Fatalf("seeded words = %d, want 2", len(words))
	}
	if words[0].Fields["en"] != "cat" {
		t.Errorf("newest seeded word = %v, want cat", words[0].Fields["en"])
	}
	expenses, _ := s.ListAll(context.Background(), docstore.Expenses)
	if len(expenses) != 0 {
		t.Errorf("malformed seed produced %d expenses", len(expenses))
	}
}

func TestListAllReturnsCopies(t *testing.T) {
	s := New()
	ctx := context.Background()
	id, _ := s.Save(ctx, docstore.Words, docstore.Fields{"tr": "ev"})
	docs, _ := s.ListAll(ctx, docstore.Words)
	docs[0].Fields["tr"] = "changed"

	doc, _ := s.Get(ctx, docstore.Words, id)
	if doc.Fields["tr"] != "ev" {
		t.Errorf("stored document mutated through ListAll result: %v", doc.Fields["tr"])
	}
}
