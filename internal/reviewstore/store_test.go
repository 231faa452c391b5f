package reviewstore

import (
	"path/filepath"
	"testing"

	"go.uber.org/zap"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := New(filepath.Join(t.TempDir(), "review.db"), zap.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStoreSaveAndListPending(t *testing.T) {
	store := newTestStore(t)

	first := &Sample{Text: "feeling hopeless", Tier: "HIGH", Score: 6, Categories: "hopelessness"}
	second := &Sample{Text: "so anxious today", Tier: "LOW", Score: 1, Categories: "anxiety"}
	for _, s := range []*Sample{first, second} {
		if err := store.Save(s); err != nil {
			t.Fatalf("Save: %v", err)
		}
		if s.ID == 0 {
			t.Fatal("Save did not assign an id")
		}
	}

	pending, err := store.ListPending(10)
	if err != nil {
		t.Fatalf("ListPending: %v", err)
	}
	if len(pending) != 2 {
		t.Fatalf("pending = %d samples, want 2", len(pending))
	}
	if pending[0].Text != "feeling hopeless" {
		t.Errorf("pending[0].Text = %q, want oldest first", pending[0].Text)
	}
	if pending[0].Reviewed {
		t.Error("pending sample marked reviewed")
	}
}

func TestStoreMarkReviewed(t *testing.T) {
	store := newTestStore(t)

	sample := &Sample{Text: "overwhelmed", Tier: "MODERATE", Score: 3}
	if err := store.Save(sample); err != nil {
		t.Fatalf("Save: %v", err)
	}

	if err := store.MarkReviewed(sample.ID); err != nil {
		t.Fatalf("MarkReviewed: %v", err)
	}

	pending, err := store.ListPending(10)
	if err != nil {
		t.Fatalf("ListPending: %v", err)
	}
	if len(pending) != 0 {
		t.Errorf("pending = %d samples after review, want 0", len(pending))
	}

	if err := store.MarkReviewed(9999); err == nil {
		t.Error("MarkReviewed accepted unknown id")
	}
}
