package mediacache

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"marquee/internal/logging"
	"marquee/internal/schedule"
)

// Cache materializes remote media into a local directory keyed by media
// id and source basename. Files are immutable once written; a changed id
// or filename produces a new cache entry.
type Cache struct {
	dir        string
	verifySize bool
	httpClient *http.Client
	logger     *slog.Logger
}

// Option configures a Cache.
type Option func(*Cache)

// WithHTTPClient overrides the download client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Cache) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithSizeVerification enables a HEAD probe before each cache hit so a
// changed Content-Length invalidates the local copy.
func WithSizeVerification(enabled bool) Option {
	return func(c *Cache) {
		c.verifySize = enabled
	}
}

// New creates a cache rooted at dir, creating it if needed.
func New(dir string, logger *slog.Logger, opts ...Option) (*Cache, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, errors.New("cache directory required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	cache := &Cache{
		dir:        dir,
		httpClient: &http.Client{Timeout: 5 * time.Minute},
		logger:     logging.NewComponentLogger(logger, "mediacache"),
	}
	for _, opt := range opts {
		opt(cache)
	}
	return cache, nil
}

// Dir returns the cache root.
func (c *Cache) Dir() string {
	return c.dir
}

// Path returns the local path a media item materializes to, whether or
// not it exists yet.
func (c *Cache) Path(item schedule.MediaItem) string {
	return filepath.Join(c.dir, fmt.Sprintf("%s_%s", item.ID, item.Basename()))
}

// Materialize ensures the item's media file exists locally and returns
// its path. Existing files are reused without re-downloading.
func (c *Cache) Materialize(ctx context.Context, item schedule.MediaItem) (string, error) {
	if !item.Type.NeedsDownload() {
		return "", nil
	}
	source := item.DownloadURL()
	if source == "" {
		return "", fmt.Errorf("media %s has no source url", item.ID)
	}

	local := c.Path(item)
	if info, err := os.Stat(local); err == nil && info.Size() > 0 {
		if !c.verifySize || c.sizeMatches(ctx, source, info.Size()) {
			return local, nil
		}
		c.logger.Info("cached size mismatch, re-downloading",
			logging.String(logging.FieldMediaID, item.ID),
			logging.String("path", local))
	}

	if err := c.download(ctx, source, local); err != nil {
		return "", err
	}
	c.logger.Info("media downloaded",
		logging.String(logging.FieldMediaID, item.ID),
		logging.String("name", item.Name),
		logging.String("path", local))
	return local, nil
}

// MaterializeAll downloads every downloadable item in the snapshot and
// returns the media ids that could not be materialized. A failed item is
// skipped, not fatal; the playlist simply plays without it.
func (c *Cache) MaterializeAll(ctx context.Context, items []schedule.MediaItem) (map[string]string, []string) {
	paths := make(map[string]string, len(items))
	var failed []string
	for _, item := range items {
		if ctx.Err() != nil {
			break
		}
		if !item.Type.NeedsDownload() {
			continue
		}
		local, err := c.Materialize(ctx, item)
		if err != nil {
			c.logger.Warn("media download failed",
				logging.String(logging.FieldMediaID, item.ID),
				logging.String("name", item.Name),
				logging.Error(err))
			failed = append(failed, item.ID)
			continue
		}
		paths[item.ID] = local
	}
	return paths, failed
}

// Prune removes cached files that no current media item references and
// returns the removed filenames.
func (c *Cache) Prune(items []schedule.MediaItem) ([]string, error) {
	keep := make(map[string]struct{}, len(items))
	for _, item := range items {
		if item.Type.NeedsDownload() {
			keep[filepath.Base(c.Path(item))] = struct{}{}
		}
	}

	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return nil, fmt.Errorf("read cache directory: %w", err)
	}
	var removed []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasSuffix(name, ".part") {
			_ = os.Remove(filepath.Join(c.dir, name))
			continue
		}
		if _, ok := keep[name]; ok {
			continue
		}
		if err := os.Remove(filepath.Join(c.dir, name)); err != nil {
			c.logger.Warn("prune failed", logging.String("file", name), logging.Error(err))
			continue
		}
		removed = append(removed, name)
	}
	sort.Strings(removed)
	return removed, nil
}

// Entry describes one cached file.
type Entry struct {
	Name     string
	Size     int64
	Modified time.Time
}

// List returns the cached files sorted by name.
func (c *Cache) List() ([]Entry, error) {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return nil, fmt.Errorf("read cache directory: %w", err)
	}
	out := make([]Entry, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		out = append(out, Entry{Name: entry.Name(), Size: info.Size(), Modified: info.ModTime()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (c *Cache) sizeMatches(ctx context.Context, source string, localSize int64) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, source, nil)
	if err != nil {
		return true
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Unreachable server must not invalidate a playable local copy.
		return true
	}
	defer resp.Body.Close()
	remote, err := strconv.ParseInt(resp.Header.Get("Content-Length"), 10, 64)
	if err != nil || remote <= 0 {
		return true
	}
	return remote == localSize
}

func (c *Cache) download(ctx context.Context, source, local string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return fmt.Errorf("build download request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("download %s: %w", source, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("download %s: unexpected status %d", source, resp.StatusCode)
	}

	tmp := local + ".part"
	file, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	if _, err := io.Copy(file, resp.Body); err != nil {
		file.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := file.Close(); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp, local); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("finalize %s: %w", local, err)
	}
	return nil
}
