package cms

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"marquee/internal/identity"
	"marquee/internal/schedule"
)

const userAgent = "Marquee-Go/0.1.0"

// ErrUnauthorized is returned when the CMS rejects the player token. The
// caller is expected to re-authenticate once and retry.
var ErrUnauthorized = errors.New("cms: unauthorized")

// ErrNotRegistered is returned for operations that need credentials when
// the player has none.
var ErrNotRegistered = errors.New("cms: player not registered")

// Fetcher defines the schedule retrieval surface used by the sync engine.
type Fetcher interface {
	FetchSchedule(ctx context.Context) (*schedule.Snapshot, error)
}

// Client talks to the CMS REST API on behalf of one player.
type Client struct {
	baseURL    string
	record     *identity.Record
	httpClient *http.Client
}

var _ Fetcher = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// New creates a CMS client bound to an identity record. The record is
// shared with the caller; registration and re-authentication update its
// credentials in place.
func New(baseURL string, record *identity.Record, opts ...Option) (*Client, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("cms base url required")
	}
	if record == nil {
		return nil, errors.New("identity record required")
	}
	client := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		record:     record,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

type registerRequest struct {
	Name     string           `json:"name"`
	Location string           `json:"location"`
	Device   *identity.Device `json:"deviceInfo,omitempty"`
}

type credentialsResponse struct {
	PlayerID string `json:"playerId"`
	ID       string `json:"id"`
	Token    string `json:"token"`
}

// Register creates the player on the CMS and stores the returned
// credentials in the identity record.
func (c *Client) Register(ctx context.Context, device *identity.Device) error {
	body := registerRequest{Name: c.record.Name, Location: c.record.Location, Device: device}
	var resp credentialsResponse
	if err := c.post(ctx, "players/register", "", body, &resp); err != nil {
		return fmt.Errorf("register player: %w", err)
	}
	playerID := resp.PlayerID
	if playerID == "" {
		playerID = resp.ID
	}
	if playerID == "" || resp.Token == "" {
		return errors.New("register player: response missing credentials")
	}
	c.record.PlayerID = playerID
	c.record.Token = resp.Token
	return nil
}

type authRequest struct {
	PlayerID string `json:"playerId"`
	Token    string `json:"token"`
}

// Authenticate validates the stored credentials with the CMS. A 2xx
// response means the existing token is still good; the server does not
// issue a new one here. ErrUnauthorized means the player must
// re-register.
func (c *Client) Authenticate(ctx context.Context) error {
	if !c.record.Registered() {
		return ErrNotRegistered
	}
	body := authRequest{PlayerID: c.record.PlayerID, Token: c.record.Token}
	if err := c.post(ctx, "players/auth", "", body, nil); err != nil {
		if errors.Is(err, ErrUnauthorized) {
			return ErrUnauthorized
		}
		return fmt.Errorf("authenticate player: %w", err)
	}
	return nil
}

// FetchSchedule retrieves the schedule snapshot assigned to this player.
func (c *Client) FetchSchedule(ctx context.Context) (*schedule.Snapshot, error) {
	if !c.record.Registered() {
		return nil, ErrNotRegistered
	}
	endpoint := "player-schedule/" + url.PathEscape(c.record.PlayerID)
	req, err := c.newRequest(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.record.Token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch schedule: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, ErrUnauthorized
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, statusError("fetch schedule", resp)
	}

	var snapshot schedule.Snapshot
	if err := json.NewDecoder(resp.Body).Decode(&snapshot); err != nil {
		return nil, fmt.Errorf("decode schedule: %w", err)
	}
	snapshot.PlayerID = c.record.PlayerID
	return &snapshot, nil
}

// StateReport carries the playback state posted to the CMS. Reports are
// best effort; callers log and move on when they fail.
type StateReport struct {
	Status       string  `json:"status"`
	MediaID      string  `json:"mediaId,omitempty"`
	MediaName    string  `json:"mediaName,omitempty"`
	MediaType    string  `json:"mediaType,omitempty"`
	MediaURL     string  `json:"mediaUrl,omitempty"`
	ScheduleID   string  `json:"scheduleId,omitempty"`
	ScheduleName string  `json:"scheduleName,omitempty"`
	CurrentTime  float64 `json:"currentTime,omitempty"`
	Detail       string  `json:"detail,omitempty"`
}

// ReportState posts the current playback state for this player.
func (c *Client) ReportState(ctx context.Context, report StateReport) error {
	if !c.record.Registered() {
		return ErrNotRegistered
	}
	endpoint := "api/players/" + url.PathEscape(c.record.PlayerID) + "/state"
	if err := c.post(ctx, endpoint, c.record.Token, report, nil); err != nil {
		return fmt.Errorf("report state: %w", err)
	}
	return nil
}

func (c *Client) post(ctx context.Context, endpoint, token string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	req, err := c.newRequest(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return ErrUnauthorized
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return statusError(endpoint, resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, method, endpoint string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+"/"+endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")
	return req, nil
}

func statusError(operation string, resp *http.Response) error {
	detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	trimmed := strings.TrimSpace(string(detail))
	if trimmed == "" {
		return fmt.Errorf("%s: unexpected status %d", operation, resp.StatusCode)
	}
	return fmt.Errorf("%s: unexpected status %d: %s", operation, resp.StatusCode, trimmed)
}
