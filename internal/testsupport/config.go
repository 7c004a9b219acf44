package testsupport

import (
	"path/filepath"
	"testing"

	"marquee/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfg := &cfgVal
	cfg.CMS.BaseURL = "http://127.0.0.1:0/"
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.MediaCacheDir = filepath.Join(base, "data", "media_cache")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.SocketPath = filepath.Join(base, "marqueed.sock")
	cfg.Player.Name = "Test-Display"

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     cfg,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithBaseURL points the test config at a specific CMS endpoint, usually
// an httptest server.
func WithBaseURL(url string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.CMS.BaseURL = url
	}
}

// WithPlayerName overrides the player name on the test config.
func WithPlayerName(name string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Player.Name = name
	}
}

// WithTickerText overrides the fallback ticker text.
func WithTickerText(text string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Ticker.Text = text
	}
}
