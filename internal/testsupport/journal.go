package testsupport

import (
	"testing"

	"marquee/internal/journal"
)

// MustOpenJournal opens a playback journal for tests and registers cleanup.
func MustOpenJournal(t testing.TB, dataDir string) *journal.Store {
	t.Helper()

	store, err := journal.Open(dataDir)
	if err != nil {
		t.Fatalf("open journal: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("close journal: %v", err)
		}
	})
	return store
}
