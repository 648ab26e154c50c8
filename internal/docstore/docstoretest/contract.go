// Package docstoretest holds the behaviour every docstore.Store must share,
// run by each implementation's tests.
package docstoretest

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"lifedash/internal/core"
	"lifedash/internal/docstore"
)

// Run exercises store against the persistence contract. newStore must return
// an empty store for each call.
func Run(t *testing.T, newStore func(t *testing.T) docstore.Store) {
	t.Helper()
	ctx := context.Background()

	t.Run("save and list newest first", func(t *testing.T) {
		s := newStore(t)
		var ids []string
		for _, desc := range []string{"first", "second", "third"} {
			id, err := s.Save(ctx, docstore.Expenses, docstore.Fields{"description": desc, "amount": "1.00"})
			if err != nil {
				t.Fatalf("Save: %v", err)
			}
			if id == "" {
				t.Fatal("Save returned empty id")
			}
			ids = append(ids, id)
		}
		if _, err := s.Save(ctx, docstore.Words, docstore.Fields{"tr": "ev"}); err != nil {
			t.Fatalf("Save other collection: %v", err)
		}

		docs, err := s.ListAll(ctx, docstore.Expenses)
		if err != nil {
			t.Fatalf("ListAll: %v", err)
		}
		var got []string
		for _, d := range docs {
			got = append(got, d.Fields["description"].(string))
		}
		if diff := cmp.Diff([]string{"third", "second", "first"}, got); diff != "" {
			t.Errorf("ListAll order (-want +got):\n%s", diff)
		}
		if docs[0].ID != ids[2] {
			t.Errorf("newest id = %s, want %s", docs[0].ID, ids[2])
		}
	})

	t.Run("list empty collection", func(t *testing.T) {
		s := newStore(t)
		docs, err := s.ListAll(ctx, docstore.Habits)
		if err != nil {
			t.Fatalf("ListAll: %v", err)
		}
		if len(docs) != 0 {
			t.Errorf("got %d docs, want 0", len(docs))
		}
	})

	t.Run("get and update fields", func(t *testing.T) {
		s := newStore(t)
		id, err := s.Save(ctx, docstore.Debts, docstore.Fields{"name": "Car", "remaining": "100.00", "total": "100.00"})
		if err != nil {
			t.Fatal(err)
		}
		if err := s.UpdateFields(ctx, docstore.Debts, id, docstore.Fields{"remaining": "60.00", "note": "paid 40"}); err != nil {
			t.Fatalf("UpdateFields: %v", err)
		}
		doc, err := s.Get(ctx, docstore.Debts, id)
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		want := docstore.Fields{"name": "Car", "remaining": "60.00", "total": "100.00", "note": "paid 40"}
		if diff := cmp.Diff(want, doc.Fields); diff != "" {
			t.Errorf("fields after update (-want +got):\n%s", diff)
		}
	})

	t.Run("delete", func(t *testing.T) {
		s := newStore(t)
		keep, _ := s.Save(ctx, docstore.Words, docstore.Fields{"tr": "ev", "en": "house"})
		drop, _ := s.Save(ctx, docstore.Words, docstore.Fields{"tr": "kedi", "en": "cat"})
		if err := s.DeleteOne(ctx, docstore.Words, drop); err != nil {
			t.Fatalf("DeleteOne: %v", err)
		}
		docs, _ := s.ListAll(ctx, docstore.Words)
		if len(docs) != 1 || docs[0].ID != keep {
			t.Errorf("after delete got %+v", docs)
		}
		if _, err := s.Get(ctx, docstore.Words, drop); !errors.Is(err, core.ErrNotFound) {
			t.Errorf("Get deleted = %v, want ErrNotFound", err)
		}
	})

	t.Run("missing ids", func(t *testing.T) {
		s := newStore(t)
		if err := s.DeleteOne(ctx, docstore.Words, "missing"); !errors.Is(err, core.ErrNotFound) {
			t.Errorf("DeleteOne = %v, want ErrNotFound", err)
		}
		if err := s.UpdateFields(ctx, docstore.Words, "missing", docstore.Fields{"a": "b"}); !errors.Is(err, core.ErrNotFound) {
			t.Errorf("UpdateFields = %v, want ErrNotFound", err)
		}
	})

	t.Run("empty collection name", func(t *testing.T) {
		s := newStore(t)
		if _, err := s.Save(ctx, " ", docstore.Fields{"a": "b"}); !errors.Is(err, core.ErrValidation) {
			t.Errorf("Save = %v, want validation error", err)
		}
	})

	t.Run("typed round trip", func(t *testing.T) {
		s := newStore(t)
		in := core.Expense{OccurredOn: core.NewDate(2024, 6, 5), Description: "Groceries", Amount: core.Money{Cents: 4599}, Category: "Food"}
		fields, err := docstore.Encode(in)
		if err != nil {
			t.Fatal(err)
		}
		id, err := s.Save(ctx, docstore.Expenses, fields)
		if err != nil {
			t.Fatal(err)
		}
		doc, err := s.Get(ctx, docstore.Expenses, id)
		if err != nil {
			t.Fatal(err)
		}
		var out core.Expense
		if err := docstore.Decode(doc, &out); err != nil {
			t.Fatal(err)
		}
		if diff := cmp.Diff(in, out); diff != "" {
			t.Errorf("round trip (-want +got):\n%s", diff)
		}
	})
}
