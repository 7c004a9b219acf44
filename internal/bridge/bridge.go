package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"marquee/internal/identity"
	"marquee/internal/logging"
)

// EventKind identifies a push message from the CMS.
type EventKind string

const (
	// EventConnected means the server confirmed this player's session.
	EventConnected EventKind = "connection-confirmed"
	// EventRejected means the server refused the session; credentials
	// are stale and the player must re-register.
	EventRejected EventKind = "connection-rejected"
	// EventContentChanged means the assigned schedule changed and the
	// player should refresh immediately.
	EventContentChanged EventKind = "content-changed"
	// EventTickerUpdated carries new ticker text or speed.
	EventTickerUpdated EventKind = "ticker-updated"
	// EventPlayerDeleted means this player was removed on the server.
	EventPlayerDeleted EventKind = "player-deleted"
	// EventCommand carries an operator command such as "reload".
	EventCommand EventKind = "command"
)

// Event is one decoded push message.
type Event struct {
	Kind        EventKind
	Command     string
	TickerText  string
	TickerSpeed float64
	Reason      string
}

// Ticker fields ride at the top level of the message; command
// arguments arrive under "data".
type wireMessage struct {
	Type        string  `json:"type"`
	Command     string  `json:"command"`
	TickerText  string  `json:"tickerText"`
	TickerSpeed float64 `json:"tickerSpeed"`
	Reason      string  `json:"reason"`
	Data        struct {
		Speed float64 `json:"speed"`
	} `json:"data"`
}

const (
	eventBuffer      = 16
	writeWait        = 10 * time.Second
	initialReconnect = time.Second
	maxReconnect     = 30 * time.Second
)

// Bridge maintains the persistent WebSocket session with the CMS. It
// reconnects with backoff, announces the player on every connect, and
// converts inbound messages into events the sync engine drains.
type Bridge struct {
	url       string
	record    *identity.Record
	sessionID string
	heartbeat time.Duration
	logger    *slog.Logger
	dialer    *websocket.Dialer

	events chan Event

	mu        sync.Mutex
	conn      *websocket.Conn
	connected bool
}

// Option configures a Bridge.
type Option func(*Bridge)

// WithDialer overrides the websocket dialer.
func WithDialer(dialer *websocket.Dialer) Option {
	return func(b *Bridge) {
		if dialer != nil {
			b.dialer = dialer
		}
	}
}

// New creates a bridge for the given websocket URL. sessionID is a
// per-process identifier sent with every connect so the server can tell
// restarts apart.
func New(url string, record *identity.Record, sessionID string, heartbeat time.Duration, logger *slog.Logger, opts ...Option) *Bridge {
	if logger == nil {
		logger = logging.NewNop()
	}
	if heartbeat <= 0 {
		heartbeat = time.Minute
	}
	b := &Bridge{
		url:       url,
		record:    record,
		sessionID: sessionID,
		heartbeat: heartbeat,
		logger:    logging.NewComponentLogger(logger, "bridge"),
		dialer:    websocket.DefaultDialer,
		events:    make(chan Event, eventBuffer),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Events returns the channel the engine drains each driver tick.
func (b *Bridge) Events() <-chan Event {
	return b.events
}

// Connected reports whether a session is currently open.
func (b *Bridge) Connected() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.connected
}

// Run maintains the session until the context is cancelled. It never
// returns a connection error; failures trigger backoff and reconnect.
func (b *Bridge) Run(ctx context.Context) {
	delay := initialReconnect
	for {
		if ctx.Err() != nil {
			return
		}
		err := b.session(ctx)
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			b.logger.Warn("websocket session ended", logging.Error(err))
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}
		if delay *= 2; delay > maxReconnect {
			delay = maxReconnect
		}
	}
}

func (b *Bridge) session(ctx context.Context) error {
	conn, _, err := b.dialer.DialContext(ctx, b.url, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", b.url, err)
	}
	b.setConn(conn)
	defer b.clearConn(conn)

	if err := b.announce(); err != nil {
		return err
	}
	b.logger.Info("websocket connected", logging.String(logging.FieldSessionID, b.sessionID))

	heartbeatCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go b.heartbeatLoop(heartbeatCtx)

	// Close on cancellation so the blocking read below unblocks.
	go func() {
		<-heartbeatCtx.Done()
		conn.Close()
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("read message: %w", err)
		}
		b.dispatch(data)
	}
}

func (b *Bridge) announce() error {
	return b.write(map[string]any{
		"type":      "player-connect",
		"playerId":  b.record.PlayerID,
		"token":     b.record.Token,
		"name":      b.record.Name,
		"sessionId": b.sessionID,
	})
}

func (b *Bridge) heartbeatLoop(ctx context.Context) {
	ticker := time.NewTicker(b.heartbeat)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			err := b.write(map[string]any{
				"type":      "player-heartbeat",
				"playerId":  b.record.PlayerID,
				"timestamp": time.Now().UnixMilli(),
			})
			if err != nil {
				b.logger.Debug("heartbeat failed", logging.Error(err))
				return
			}
		}
	}
}

func (b *Bridge) dispatch(data []byte) {
	var msg wireMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		b.logger.Debug("undecodable push message", logging.Error(err))
		return
	}
	kind := EventKind(msg.Type)
	switch kind {
	case EventConnected, EventRejected, EventContentChanged, EventTickerUpdated, EventPlayerDeleted, EventCommand:
	default:
		b.logger.Debug("ignoring push message", logging.String(logging.FieldEventType, msg.Type))
		return
	}
	event := Event{
		Kind:        kind,
		Command:     msg.Command,
		TickerText:  msg.TickerText,
		TickerSpeed: msg.TickerSpeed,
		Reason:      msg.Reason,
	}
	if kind == EventCommand && msg.Data.Speed != 0 {
		event.TickerSpeed = msg.Data.Speed
	}
	select {
	case b.events <- event:
	default:
		// The engine drains every tick; a full buffer means it is
		// wedged, and dropping beats blocking the read loop.
		b.logger.Warn("event buffer full, dropping push message",
			logging.String(logging.FieldEventType, msg.Type))
	}
}

// SendStatus pushes the current playback state over the session. It is
// best effort: without a connection the report is skipped.
func (b *Bridge) SendStatus(status map[string]any) error {
	return b.write(map[string]any{
		"type":      "player-status",
		"playerId":  b.record.PlayerID,
		"status":    status,
		"timestamp": time.Now().UnixMilli(),
	})
}

func (b *Bridge) write(payload any) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.conn == nil {
		return fmt.Errorf("no active session")
	}
	b.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return b.conn.WriteJSON(payload)
}

func (b *Bridge) setConn(conn *websocket.Conn) {
	b.mu.Lock()
	b.conn = conn
	b.connected = true
	b.mu.Unlock()
}

func (b *Bridge) clearConn(conn *websocket.Conn) {
	conn.Close()
	b.mu.Lock()
	if b.conn == conn {
		b.conn = nil
		b.connected = false
	}
	b.mu.Unlock()
}
