package mediacache

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"marquee/internal/logging"
	"marquee/internal/schedule"
)

func newTestCache(t *testing.T, opts ...Option) *Cache {
	t.Helper()
	cache, err := New(t.TempDir(), logging.NewNop(), opts...)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return cache
}

func TestMaterializeDownloadsOnce(t *testing.T) {
	var hits atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write([]byte("image-bytes"))
	}))
	defer server.Close()

	cache := newTestCache(t)
	item := schedule.MediaItem{ID: "m-1", Name: "promo", Type: schedule.TypeImage, URL: server.URL + "/promo.jpg"}

	first, err := cache.Materialize(context.Background(), item)
	if err != nil {
		t.Fatalf("first Materialize failed: %v", err)
	}
	if filepath.Base(first) != "m-1_promo.jpg" {
		t.Fatalf("unexpected cache key %q", filepath.Base(first))
	}
	data, err := os.ReadFile(first)
	if err != nil || string(data) != "image-bytes" {
		t.Fatalf("cached content wrong: %q err=%v", data, err)
	}

	second, err := cache.Materialize(context.Background(), item)
	if err != nil {
		t.Fatalf("second Materialize failed: %v", err)
	}
	if second != first {
		t.Fatalf("cache hit returned different path: %q vs %q", second, first)
	}
	if hits.Load() != 1 {
		t.Fatalf("expected single download, server saw %d", hits.Load())
	}
}

func TestMaterializePrefersH265URL(t *testing.T) {
	var path string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		w.Write([]byte("video"))
	}))
	defer server.Close()

	cache := newTestCache(t)
	item := schedule.MediaItem{
		ID:      "m-2",
		Type:    schedule.TypeVideo,
		URL:     server.URL + "/clip.mp4",
		H265URL: server.URL + "/clip_h265.mp4",
	}
	local, err := cache.Materialize(context.Background(), item)
	if err != nil {
		t.Fatalf("Materialize failed: %v", err)
	}
	if path != "/clip_h265.mp4" {
		t.Fatalf("expected h265 source, server saw %q", path)
	}
	if filepath.Base(local) != "m-2_clip_h265.mp4" {
		t.Fatalf("unexpected cache key %q", filepath.Base(local))
	}
}

func TestMaterializeSkipsTextItems(t *testing.T) {
	cache := newTestCache(t)
	item := schedule.MediaItem{ID: "m-3", Type: schedule.TypeText, Name: "notice"}
	local, err := cache.Materialize(context.Background(), item)
	if err != nil {
		t.Fatalf("Materialize failed: %v", err)
	}
	if local != "" {
		t.Fatalf("text item should not materialize, got %q", local)
	}
}

func TestMaterializeFailureLeavesNoPartial(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	cache := newTestCache(t)
	item := schedule.MediaItem{ID: "m-4", Type: schedule.TypeImage, URL: server.URL + "/gone.jpg"}
	if _, err := cache.Materialize(context.Background(), item); err == nil {
		t.Fatal("expected error for missing source")
	}
	entries, err := os.ReadDir(cache.Dir())
	if err != nil {
		t.Fatalf("read cache dir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("cache should be empty after failure, found %d entries", len(entries))
	}
}

func TestMaterializeAllReportsFailures(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/bad.jpg" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	cache := newTestCache(t)
	items := []schedule.MediaItem{
		{ID: "ok-1", Type: schedule.TypeImage, URL: server.URL + "/good.jpg"},
		{ID: "bad-1", Type: schedule.TypeImage, URL: server.URL + "/bad.jpg"},
		{ID: "txt-1", Type: schedule.TypeText},
	}
	paths, failed := cache.MaterializeAll(context.Background(), items)
	if len(paths) != 1 || paths["ok-1"] == "" {
		t.Fatalf("unexpected paths: %+v", paths)
	}
	if len(failed) != 1 || failed[0] != "bad-1" {
		t.Fatalf("unexpected failures: %+v", failed)
	}
}

func TestVerifySizeInvalidatesChangedFile(t *testing.T) {
	content := []byte("0123456789")
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(content)
	}))
	defer server.Close()

	cache := newTestCache(t, WithSizeVerification(true))
	item := schedule.MediaItem{ID: "m-5", Type: schedule.TypeImage, URL: server.URL + "/banner.jpg"}
	local, err := cache.Materialize(context.Background(), item)
	if err != nil {
		t.Fatalf("Materialize failed: %v", err)
	}

	// Shrink the remote file; the cached copy is now stale.
	content = []byte("012")
	if _, err := cache.Materialize(context.Background(), item); err != nil {
		t.Fatalf("re-Materialize failed: %v", err)
	}
	data, _ := os.ReadFile(local)
	if string(data) != "012" {
		t.Fatalf("stale cache entry survived: %q", data)
	}
}

func TestPruneRemovesOrphans(t *testing.T) {
	cache := newTestCache(t)
	keepItem := schedule.MediaItem{ID: "keep", Type: schedule.TypeImage, URL: "http://cdn/keep.jpg"}
	if err := os.WriteFile(cache.Path(keepItem), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(cache.Dir(), "orphan_old.jpg"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(cache.Dir(), "stale.part"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	removed, err := cache.Prune([]schedule.MediaItem{keepItem})
	if err != nil {
		t.Fatalf("Prune failed: %v", err)
	}
	if len(removed) != 1 || removed[0] != "orphan_old.jpg" {
		t.Fatalf("unexpected removals: %+v", removed)
	}
	entries, _ := cache.List()
	if len(entries) != 1 || entries[0].Name != filepath.Base(cache.Path(keepItem)) {
		t.Fatalf("unexpected survivors: %+v", entries)
	}
}
