package summarize

import (
	"context"
	"testing"
	"time"
)

func TestStoreNoopWhenUnconfigured(t *testing.T) {
	j := &PersistedJob{JobID: "j1", DocumentID: "d1", Status: "completed", StartedAt: time.Now()}

	var s *Store
	if err := s.SaveJob(context.Background(), j); err != nil {
		t.Fatalf("expected nil store to be a no-op, got %v", err)
	}
	if got, err := s.Load(context.Background(), "j1"); err != nil || got != nil {
		t.Fatalf("expected nil result from nil store, got %v err=%v", got, err)
	}

	empty := NewStore(nil)
	if err := empty.SaveJob(context.Background(), j); err != nil {
		t.Fatalf("expected collectionless store to be a no-op, got %v", err)
	}
	if jobs, err := empty.ListByDocument(context.Background(), "d1"); err != nil || jobs != nil {
		t.Fatalf("expected no jobs from collectionless store, got %v err=%v", jobs, err)
	}
}
