package testsupport

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

// SeedMediaFile drops a fake cached media file of the given size into dir
// and returns its path. A size <= 0 writes a single byte.
func SeedMediaFile(t testing.TB, dir, name string, size int64) string {
	t.Helper()

	if size <= 0 {
		size = 1
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", dir, err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, bytes.Repeat([]byte{0x42}, int(size)), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}
