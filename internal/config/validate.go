package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateCMS(); err != nil {
		return err
	}
	if err := c.validatePlayer(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateCMS() error {
	if strings.TrimSpace(c.CMS.BaseURL) == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/marquee/config.toml"
		}
		return fmt.Errorf("cms.base_url is required. Edit %s (create with 'marquee config init')", defaultPath)
	}
	parsed, err := url.Parse(c.CMS.BaseURL)
	if err != nil {
		return fmt.Errorf("cms.base_url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("cms.base_url must use http or https, got %q", parsed.Scheme)
	}
	if c.CMS.WebsocketURL != "" {
		ws, err := url.Parse(c.CMS.WebsocketURL)
		if err != nil {
			return fmt.Errorf("cms.websocket_url: %w", err)
		}
		if ws.Scheme != "ws" && ws.Scheme != "wss" {
			return fmt.Errorf("cms.websocket_url must use ws or wss, got %q", ws.Scheme)
		}
	}
	return nil
}

func (c *Config) validatePlayer() error {
	if strings.TrimSpace(c.Player.Name) == "" {
		return errors.New("player.name must be set")
	}
	for field, value := range map[string]int{
		"player.poll_interval":          c.Player.PollInterval,
		"player.tick_interval_ms":       c.Player.TickIntervalMillis,
		"player.heartbeat_interval":     c.Player.HeartbeatInterval,
		"player.default_image_duration": c.Player.DefaultImageDuration,
		"cms.request_timeout":           c.CMS.RequestTimeout,
		"cms.download_timeout":          c.CMS.DownloadTimeout,
	} {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", field)
		}
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch strings.ToLower(strings.TrimSpace(c.Logging.Format)) {
	case "console", "json":
		return nil
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
}
