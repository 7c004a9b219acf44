package daemon

import (
	"context"
	"log/slog"
	"sync"

	"github.com/pilebones/go-udev/netlink"

	"marquee/internal/logging"
)

// displayMonitor listens for drm hotplug uevents so the player refreshes
// its schedule when a screen is plugged in or powers back on. Losing the
// monitor is non-fatal; polling still picks changes up.
type displayMonitor struct {
	logger    *slog.Logger
	onHotplug func()

	mu      sync.Mutex
	conn    *netlink.UEventConn
	quit    chan struct{}
	running bool
}

func newDisplayMonitor(logger *slog.Logger, onHotplug func()) *displayMonitor {
	return &displayMonitor{
		logger:    logging.NewComponentLogger(logger, "display-monitor"),
		onHotplug: onHotplug,
	}
}

// Start begins listening for udev netlink events.
func (m *displayMonitor) Start(ctx context.Context) error {
	if m == nil {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running {
		return nil
	}

	conn := new(netlink.UEventConn)
	if err := conn.Connect(netlink.UdevEvent); err != nil {
		m.logger.Warn("failed to connect to netlink socket; display hotplug detection disabled",
			logging.Error(err),
			logging.String(logging.FieldEventType, "netlink_connect_failed"),
			logging.String(logging.FieldErrorHint, "ensure the daemon has permission to access netlink sockets"),
			logging.String(logging.FieldImpact, "schedule refresh on display hotplug unavailable"),
		)
		return nil
	}

	m.conn = conn
	m.quit = make(chan struct{})
	m.running = true

	quit := m.quit
	go m.monitorLoop(ctx, quit)

	m.logger.Info("display monitor started",
		logging.String(logging.FieldEventType, "display_monitor_started"))
	return nil
}

// Stop shuts down the monitor.
func (m *displayMonitor) Stop() {
	if m == nil {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.running {
		return
	}

	if m.quit != nil {
		close(m.quit)
		m.quit = nil
	}
	if m.conn != nil {
		_ = m.conn.Close()
		m.conn = nil
	}
	m.running = false

	m.logger.Info("display monitor stopped",
		logging.String(logging.FieldEventType, "display_monitor_stopped"))
}

// Running reports whether the monitor is active.
func (m *displayMonitor) Running() bool {
	if m == nil {
		return false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

func (m *displayMonitor) monitorLoop(ctx context.Context, quit <-chan struct{}) {
	events := make(chan netlink.UEvent)
	errs := make(chan error)

	matcher := m.buildMatcher()

	m.mu.Lock()
	conn := m.conn
	m.mu.Unlock()
	if conn == nil {
		return
	}

	monitorQuit := conn.Monitor(events, errs, matcher)
	for {
		select {
		case <-ctx.Done():
			close(monitorQuit)
			return
		case <-quit:
			close(monitorQuit)
			return
		case uevent := <-events:
			m.handleEvent(uevent)
		case err := <-errs:
			m.logger.Warn("netlink monitor error",
				logging.Error(err),
				logging.String(logging.FieldEventType, "netlink_monitor_error"))
		}
	}
}

// buildMatcher matches drm connector change events
// (SUBSYSTEM=drm, ACTION=change), which fire on display hotplug.
func (m *displayMonitor) buildMatcher() netlink.Matcher {
	action := "change"
	rules := &netlink.RuleDefinitions{}
	rules.AddRule(netlink.RuleDefinition{
		Action: &action,
		Env: map[string]string{
			"SUBSYSTEM": "drm",
		},
	})
	return rules
}

func (m *displayMonitor) handleEvent(uevent netlink.UEvent) {
	m.logger.Info("display hotplug detected, refreshing schedule",
		logging.String("kobj", uevent.KObj),
		logging.String(logging.FieldEventType, "display_hotplug"))
	if m.onHotplug != nil {
		m.onHotplug()
	}
}
