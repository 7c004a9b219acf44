package schedule

import (
	"os"
	"testing"
)

func TestStoreRoundTrip(t *testing.T) {
	store := NewStore(t.TempDir())

	snap := &Snapshot{
		PlayerID: "player-1",
		Current:  &Ref{ID: "sched-1", Name: "Morning Loop"},
		Media: []MediaItem{
			{ID: "m1", Name: "Welcome", Type: TypeImage, URL: "uploads/welcome.jpg", PlaylistDuration: 5},
		},
		TickerText:  "Hello",
		TickerSpeed: 3,
	}
	if err := store.Save(snap); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := store.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded == nil {
		t.Fatal("expected snapshot")
	}
	if loaded.ScheduleID() != "sched-1" {
		t.Fatalf("schedule id = %q", loaded.ScheduleID())
	}
	if len(loaded.Media) != 1 || loaded.Media[0].ID != "m1" {
		t.Fatalf("media = %+v", loaded.Media)
	}
}

func TestStoreLoadMissingIsColdStart(t *testing.T) {
	store := NewStore(t.TempDir())
	snap, err := store.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if snap != nil {
		t.Fatalf("expected nil snapshot on cold start, got %+v", snap)
	}
}

func TestStoreLoadRejectsCorruptFile(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir)
	if err := os.WriteFile(store.Path(), []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write corrupt file: %v", err)
	}
	if _, err := store.Load(); err == nil {
		t.Fatal("expected decode error")
	}
}
