package notify

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"marquee/internal/config"
)

const userAgent = "Marquee-Go/0.1.0"

// Service is the operator alert surface. Alerts are for conditions a
// human should act on; routine state changes go to the CMS instead.
type Service interface {
	NotifyDownloadFailed(ctx context.Context, mediaName string, err error) error
	NotifyIdentityRevoked(ctx context.Context, playerName string) error
	NotifySyncDegraded(ctx context.Context, failures int, lastErr error) error
	NotifyScheduleCleared(ctx context.Context, playerName string) error
	TestNotification(ctx context.Context) error
}

// NewService builds an alert service backed by ntfy when configured.
// Without a topic a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
}

func (n *ntfyService) NotifyDownloadFailed(ctx context.Context, mediaName string, cause error) error {
	data := payload{
		title:   "Marquee - Download Failed",
		message: fmt.Sprintf("Media %q could not be downloaded: %v", strings.TrimSpace(mediaName), cause),
		tags:    []string{"marquee", "download", "failed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyIdentityRevoked(ctx context.Context, playerName string) error {
	data := payload{
		title:    "Marquee - Player Removed",
		message:  fmt.Sprintf("Player %q was deleted on the server; it will re-register on restart", strings.TrimSpace(playerName)),
		tags:     []string{"marquee", "identity"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifySyncDegraded(ctx context.Context, failures int, lastErr error) error {
	data := payload{
		title:    "Marquee - Sync Degraded",
		message:  fmt.Sprintf("Schedule fetch has failed %d times in a row, playing from cache. Last error: %v", failures, lastErr),
		tags:     []string{"marquee", "sync", "warning"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyScheduleCleared(ctx context.Context, playerName string) error {
	data := payload{
		title:   "Marquee - Schedule Cleared",
		message: fmt.Sprintf("Player %q has no schedule assigned and is showing the waiting screen", strings.TrimSpace(playerName)),
		tags:    []string{"marquee", "schedule"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:   "Marquee - Test",
		message: "Notifications are configured correctly",
		tags:    []string{"marquee", "test"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// NewNoop returns a Service that discards every alert.
func NewNoop() Service {
	return noopService{}
}

type noopService struct{}

func (noopService) NotifyDownloadFailed(context.Context, string, error) error { return nil }
func (noopService) NotifyIdentityRevoked(context.Context, string) error       { return nil }
func (noopService) NotifySyncDegraded(context.Context, int, error) error      { return nil }
func (noopService) NotifyScheduleCleared(context.Context, string) error       { return nil }
func (noopService) TestNotification(context.Context) error                    { return nil }
