package journal

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/mindvale/worldcore/core/events"
)

func TestRecordAndRecent(t *testing.T) {
	store, err := Open(filepath.Join(t.TempDir(), "journal.db"))
	if err != nil {
		t.Fatalf("failed to open the journal: %v", err)
	}
	defer store.Close()

	first := events.NewSpeech("ada", "tavern", "hello", events.WithMetadata("tone", "warm"))
	if err := store.Record(first); err != nil {
		t.Fatalf("failed to record the first event: %v", err)
	}

	time.Sleep(5 * time.Millisecond)
	second := events.NewMovement("ada", "tavern", "garden", events.WithVia("goes"))
	if err := store.Record(second); err != nil {
		t.Fatalf("failed to record the second event: %v", err)
	}

	recent, err := store.Recent(context.Background(), 10)
	if err != nil {
		t.Fatalf("failed to read back events: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("expected 2 events, got %d", len(recent))
	}

	// Newest first.
	if recent[0].ID != second.ID {
		t.Fatalf("expected the movement first, got %q", recent[0].ID)
	}
	if recent[0].Origin != "tavern" || recent[0].Destination != "garden" || recent[0].Via != "goes" {
		t.Fatalf("expected the movement fields round-tripped, got %+v", recent[0])
	}
	if recent[1].Message != "hello" || recent[1].Metadata["tone"] != "warm" {
		t.Fatalf("expected the speech round-tripped, got %+v", recent[1])
	}
}

func TestRecentHonorsTheLimit(t *testing.T) {
	store, err := Open(":memory:")
	if err != nil {
		t.Fatalf("failed to open the journal: %v", err)
	}
	defer store.Close()

	for i := 0; i < 5; i++ {
		if err := store.Record(events.NewSpeech("ada", "tavern", "line")); err != nil {
			t.Fatalf("failed to record event %d: %v", i, err)
		}
	}

	recent, err := store.Recent(context.Background(), 3)
	if err != nil {
		t.Fatalf("failed to read back events: %v", err)
	}
	if len(recent) != 3 {
		t.Fatalf("expected the limit applied, got %d events", len(recent))
	}
}

func TestRecordOnClosedJournal(t *testing.T) {
	store, err := Open(":memory:")
	if err != nil {
		t.Fatalf("failed to open the journal: %v", err)
	}
	store.Close()

	if err := store.Record(events.NewSpeech("ada", "tavern", "too late")); err == nil {
		t.Fatalf("expected recording on a closed journal to fail")
	}
}
