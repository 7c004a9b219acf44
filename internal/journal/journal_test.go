package journal

import (
	"context"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestRecordAndRecent(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	events := []Entry{
		{Event: EventScheduleLoaded, ScheduleID: "s-1", Detail: "3 items"},
		{Event: EventShown, MediaID: "m-1", MediaName: "banner", ScheduleID: "s-1"},
		{Event: EventSkipped, MediaID: "m-2", MediaName: "broken", ScheduleID: "s-1", Detail: "render failure"},
	}
	for _, event := range events {
		if err := store.Record(ctx, event); err != nil {
			t.Fatalf("Record failed: %v", err)
		}
	}

	recent, err := store.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(recent) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(recent))
	}
	// Most recent first.
	if recent[0].Event != EventSkipped || recent[0].MediaID != "m-2" {
		t.Fatalf("unexpected first entry: %+v", recent[0])
	}
	if recent[2].Event != EventScheduleLoaded {
		t.Fatalf("unexpected last entry: %+v", recent[2])
	}
	if recent[0].OccurredAt.IsZero() {
		t.Fatal("timestamps should round trip")
	}
}

func TestRecentHonorsLimit(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		if err := store.Record(ctx, Entry{Event: EventShown, MediaID: "m"}); err != nil {
			t.Fatalf("Record failed: %v", err)
		}
	}
	recent, err := store.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(recent))
	}
}

func TestPruneBefore(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	old := Entry{Event: EventShown, MediaID: "old", OccurredAt: time.Now().Add(-48 * time.Hour)}
	fresh := Entry{Event: EventShown, MediaID: "fresh"}
	if err := store.Record(ctx, old); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if err := store.Record(ctx, fresh); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	removed, err := store.PruneBefore(ctx, time.Now().Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("PruneBefore failed: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 pruned row, got %d", removed)
	}
	recent, err := store.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(recent) != 1 || recent[0].MediaID != "fresh" {
		t.Fatalf("unexpected survivors: %+v", recent)
	}
}
