package config

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeCMS(); err != nil {
		return err
	}
	c.normalizePlayer()
	c.normalizeTicker()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.MediaCacheDir) == "" {
		c.Paths.MediaCacheDir = filepath.Join(c.Paths.DataDir, "media_cache")
	}
	if c.Paths.MediaCacheDir, err = expandPath(c.Paths.MediaCacheDir); err != nil {
		return fmt.Errorf("paths.media_cache_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.SocketPath) == "" {
		c.Paths.SocketPath = filepath.Join(c.Paths.DataDir, "marqueed.sock")
	}
	if c.Paths.SocketPath, err = expandPath(c.Paths.SocketPath); err != nil {
		return fmt.Errorf("paths.socket_path: %w", err)
	}
	return nil
}

func (c *Config) normalizeCMS() error {
	c.CMS.BaseURL = strings.TrimSpace(c.CMS.BaseURL)
	if c.CMS.BaseURL != "" && !strings.HasSuffix(c.CMS.BaseURL, "/") {
		c.CMS.BaseURL += "/"
	}

	// Derive the websocket URL from the base URL when not configured.
	if strings.TrimSpace(c.CMS.WebsocketURL) == "" && c.CMS.BaseURL != "" {
		parsed, err := url.Parse(c.CMS.BaseURL)
		if err != nil {
			return fmt.Errorf("cms.base_url: %w", err)
		}
		switch parsed.Scheme {
		case "https":
			parsed.Scheme = "wss"
		default:
			parsed.Scheme = "ws"
		}
		parsed.Path = ""
		c.CMS.WebsocketURL = parsed.String()
	}
	c.CMS.WebsocketURL = strings.TrimSpace(c.CMS.WebsocketURL)

	if c.CMS.RequestTimeout <= 0 {
		c.CMS.RequestTimeout = defaultRequestTimeout
	}
	if c.CMS.DownloadTimeout <= 0 {
		c.CMS.DownloadTimeout = defaultDownloadTimeout
	}
	if c.CMS.StateTimeout <= 0 {
		c.CMS.StateTimeout = defaultStateTimeout
	}
	return nil
}

func (c *Config) normalizePlayer() {
	if c.Player.ScreenWidth <= 0 {
		c.Player.ScreenWidth = defaultScreenWidth
	}
	if c.Player.ScreenHeight <= 0 {
		c.Player.ScreenHeight = defaultScreenHeight
	}
	if c.Player.PollInterval <= 0 {
		c.Player.PollInterval = defaultPollInterval
	}
	if c.Player.TickIntervalMillis <= 0 {
		c.Player.TickIntervalMillis = defaultTickIntervalMillis
	}
	if c.Player.HeartbeatInterval <= 0 {
		c.Player.HeartbeatInterval = defaultHeartbeatInterval
	}
	if c.Player.ErrorBackoffSeconds <= 0 {
		c.Player.ErrorBackoffSeconds = defaultErrorBackoffSeconds
	}
	if c.Player.DefaultImageDuration <= 0 {
		c.Player.DefaultImageDuration = defaultImageDuration
	}
}

func (c *Config) normalizeTicker() {
	if strings.TrimSpace(c.Ticker.Text) == "" {
		c.Ticker.Text = defaultTickerText
	}
	if c.Ticker.Speed <= 0 {
		c.Ticker.Speed = defaultTickerSpeed
	}
	if c.Ticker.Margin <= 0 {
		c.Ticker.Margin = defaultTickerMargin
	}
}

func (c *Config) normalizeLogging() {
	if strings.TrimSpace(c.Logging.Format) == "" {
		c.Logging.Format = defaultLogFormat
	}
	if strings.TrimSpace(c.Logging.Level) == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNotifyRequestTimeout
	}
}
