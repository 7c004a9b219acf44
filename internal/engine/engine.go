package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"marquee/internal/bridge"
	"marquee/internal/cms"
	"marquee/internal/identity"
	"marquee/internal/journal"
	"marquee/internal/logging"
	"marquee/internal/mediacache"
	"marquee/internal/notify"
	"marquee/internal/player"
	"marquee/internal/schedule"
	"marquee/internal/ticker"
)

// Client is the CMS surface the engine drives.
type Client interface {
	Register(ctx context.Context, device *identity.Device) error
	Authenticate(ctx context.Context) error
	FetchSchedule(ctx context.Context) (*schedule.Snapshot, error)
	ReportState(ctx context.Context, report cms.StateReport) error
}

// PushChannel is the live server connection the engine listens to.
type PushChannel interface {
	Events() <-chan bridge.Event
	SendStatus(status map[string]any) error
	Connected() bool
}

const (
	syncFailureAlertThreshold = 5
	videoProgressInterval     = 10 * time.Second
)

// Options wires an Engine.
type Options struct {
	Client   Client
	Push     PushChannel
	Record   *identity.Record
	Identity *identity.Store
	Cache    *mediacache.Cache
	Store    *schedule.Store
	Journal  *journal.Store
	Notifier notify.Service
	Ticker   *ticker.Controller
	Player   *player.Player
	Renderer player.Renderer
	Logger   *slog.Logger

	PollInterval       time.Duration
	ErrorBackoff       time.Duration
	DefaultTickerText  string
	DefaultTickerSpeed int
	Device             *identity.Device
}

// Engine is the schedule sync state machine. Every mutation of playback
// state happens inside Tick, which the daemon's driver loop calls from
// a single goroutine; the engine itself needs no locking.
type Engine struct {
	client   Client
	push     PushChannel
	record   *identity.Record
	idStore  *identity.Store
	cache    *mediacache.Cache
	store    *schedule.Store
	journal  *journal.Store
	notifier notify.Service
	ticker   *ticker.Controller
	player   *player.Player
	renderer player.Renderer
	logger   *slog.Logger

	pollInterval       time.Duration
	errorBackoff       time.Duration
	defaultTickerText  string
	defaultTickerSpeed int
	device             *identity.Device

	snapshot          *schedule.Snapshot
	fingerprints      schedule.Fingerprints
	appliedScheduleID string
	loaded            bool

	lastPoll     time.Time
	forceRefresh bool
	forceReload  bool
	failures     int
	degraded     bool
	revoked      bool

	lastReport   playbackReport
	lastReportAt time.Time
}

type playbackReport struct {
	status  string
	mediaID string
}

// New creates an engine. The first Tick performs the initial sync.
func New(opts Options) *Engine {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	notifier := opts.Notifier
	if notifier == nil {
		notifier = notify.NewNoop()
	}
	pollInterval := opts.PollInterval
	if pollInterval <= 0 {
		pollInterval = 5 * time.Second
	}
	errorBackoff := opts.ErrorBackoff
	if errorBackoff <= 0 {
		errorBackoff = 10 * time.Second
	}
	return &Engine{
		client:             opts.Client,
		push:               opts.Push,
		record:             opts.Record,
		idStore:            opts.Identity,
		cache:              opts.Cache,
		store:              opts.Store,
		journal:            opts.Journal,
		notifier:           notifier,
		ticker:             opts.Ticker,
		player:             opts.Player,
		renderer:           opts.Renderer,
		logger:             logging.NewComponentLogger(logger, "engine"),
		pollInterval:       pollInterval,
		errorBackoff:       errorBackoff,
		defaultTickerText:  opts.DefaultTickerText,
		defaultTickerSpeed: opts.DefaultTickerSpeed,
		device:             opts.Device,
		forceRefresh:       true,
	}
}

// Tick runs one driver cycle: drain push events, sync when due, advance
// playback, and report state changes upstream.
func (e *Engine) Tick(ctx context.Context, now time.Time) {
	e.drainEvents(ctx)
	if e.syncDue(now) {
		e.sync(ctx, now)
	}
	if e.player != nil {
		e.player.Tick(now)
	}
	if e.ticker != nil {
		e.ticker.Step()
	}
	e.reportPlayback(ctx, now)
}

func (e *Engine) syncDue(now time.Time) bool {
	if e.revoked {
		return false
	}
	if e.forceRefresh {
		return true
	}
	interval := e.pollInterval
	if e.failures > 0 && e.errorBackoff > interval {
		interval = e.errorBackoff
	}
	return e.lastPoll.IsZero() || now.Sub(e.lastPoll) >= interval
}

func (e *Engine) drainEvents(ctx context.Context) {
	if e.push == nil {
		return
	}
	for {
		select {
		case event := <-e.push.Events():
			e.handleEvent(ctx, event)
		default:
			return
		}
	}
}

func (e *Engine) handleEvent(ctx context.Context, event bridge.Event) {
	switch event.Kind {
	case bridge.EventContentChanged:
		e.logger.Info("content change pushed, refreshing")
		e.forceRefresh = true
	case bridge.EventTickerUpdated:
		// Push updates bypass the poll; the next fetch will agree.
		text := event.TickerText
		if text == "" {
			text = e.defaultTickerText
		}
		speed := int(event.TickerSpeed)
		if speed <= 0 {
			speed = e.defaultTickerSpeed
		}
		if e.ticker != nil {
			e.ticker.ApplyUpdate(text, float64(speed))
		}
		e.fingerprints.Ticker = schedule.TickerHash(text, speed)
	case bridge.EventCommand:
		e.handleCommand(event)
	case bridge.EventRejected:
		e.logger.Warn("session rejected, validating credentials",
			logging.String("reason", event.Reason))
		if err := e.client.Authenticate(ctx); err != nil {
			e.logger.Warn("re-authentication failed", logging.Error(err))
			if errors.Is(err, cms.ErrUnauthorized) {
				e.record.ClearCredentials()
				if e.idStore != nil {
					_ = e.idStore.Save(e.record)
				}
				e.forceRefresh = true
			}
		}
	case bridge.EventPlayerDeleted:
		e.handleRevocation(ctx)
	case bridge.EventConnected:
		e.logger.Info("session confirmed")
	}
}

func (e *Engine) handleCommand(event bridge.Event) {
	switch event.Command {
	case "reload":
		e.logger.Info("reload command received")
		e.forceRefresh = true
		e.forceReload = true
	case "set_ticker_speed":
		speed := event.TickerSpeed
		if speed <= 0 {
			speed = float64(e.defaultTickerSpeed)
		}
		e.logger.Info("ticker speed command received", logging.Any("speed", speed))
		if e.ticker != nil {
			e.ticker.SetSpeed(speed)
		}
	case "toggle_ticker":
		// The overlay is always on; the command is acknowledged but has
		// no effect.
		e.logger.Info("toggle_ticker command ignored")
	default:
		e.logger.Warn("unknown command ignored", logging.String("command", event.Command))
	}
}

// handleRevocation tears the player down when the server deletes it:
// credentials are wiped, playback stops, and syncing halts until the
// daemon restarts and re-registers.
func (e *Engine) handleRevocation(ctx context.Context) {
	e.logger.Warn("player deleted on server, clearing identity")
	e.record.ClearCredentials()
	if e.idStore != nil {
		if err := e.idStore.Save(e.record); err != nil {
			e.logger.Error("persist cleared identity", logging.Error(err))
		}
	}
	if e.player != nil {
		e.player.Clear()
	}
	if e.renderer != nil {
		_ = e.renderer.ShowWaiting("Player removed from server")
	}
	e.loaded = false
	e.snapshot = nil
	e.revoked = true
	if err := e.notifier.NotifyIdentityRevoked(ctx, e.record.Name); err != nil {
		e.logger.Debug("revocation alert failed", logging.Error(err))
	}
}

func (e *Engine) sync(ctx context.Context, now time.Time) {
	e.lastPoll = now
	e.forceRefresh = false

	if !e.record.Registered() {
		if err := e.register(ctx); err != nil {
			e.recordFailure(ctx, err)
			return
		}
	}

	snapshot, err := e.fetch(ctx)
	if err != nil {
		e.recordFailure(ctx, err)
		e.fallbackToCached(ctx, now)
		return
	}
	e.clearFailures()
	e.apply(ctx, snapshot, now)
}

func (e *Engine) register(ctx context.Context) error {
	if err := e.client.Register(ctx, e.device); err != nil {
		return err
	}
	if e.idStore != nil {
		if err := e.idStore.Save(e.record); err != nil {
			return err
		}
	}
	e.logger.Info("player registered",
		logging.String(logging.FieldPlayerID, e.record.PlayerID),
		logging.String("name", e.record.Name))
	return nil
}

// fetch retrieves the snapshot, refreshing the token once on a 401.
func (e *Engine) fetch(ctx context.Context) (*schedule.Snapshot, error) {
	snapshot, err := e.client.FetchSchedule(ctx)
	if !errors.Is(err, cms.ErrUnauthorized) {
		return snapshot, err
	}
	e.logger.Info("token rejected, re-authenticating")
	if authErr := e.client.Authenticate(ctx); authErr != nil {
		if errors.Is(authErr, cms.ErrUnauthorized) {
			// Credentials are dead server-side; drop them so the next
			// sync registers from scratch.
			e.logger.Warn("credentials rejected, re-registering")
			e.record.ClearCredentials()
			if e.idStore != nil {
				_ = e.idStore.Save(e.record)
			}
		}
		return nil, authErr
	}
	return e.client.FetchSchedule(ctx)
}

func (e *Engine) recordFailure(ctx context.Context, err error) {
	e.failures++
	e.logger.Warn("schedule sync failed",
		logging.Error(err),
		logging.Int("consecutive", e.failures))
	if e.failures == syncFailureAlertThreshold && !e.degraded {
		e.degraded = true
		if alertErr := e.notifier.NotifySyncDegraded(ctx, e.failures, err); alertErr != nil {
			e.logger.Debug("degraded alert failed", logging.Error(alertErr))
		}
	}
}

func (e *Engine) clearFailures() {
	e.failures = 0
	e.degraded = false
}

// fallbackToCached keeps the display alive from the last persisted
// snapshot when the server is unreachable at startup.
func (e *Engine) fallbackToCached(ctx context.Context, now time.Time) {
	if e.loaded || e.store == nil {
		return
	}
	snapshot, err := e.store.Load()
	if err != nil || snapshot == nil {
		if e.renderer != nil {
			_ = e.renderer.ShowWaiting("Waiting for server...")
		}
		return
	}
	e.logger.Info("server unreachable, playing cached schedule",
		logging.String(logging.FieldScheduleID, snapshot.ScheduleID()))
	e.apply(ctx, snapshot, now)
}

func (e *Engine) apply(ctx context.Context, snapshot *schedule.Snapshot, now time.Time) {
	next := schedule.Compute(snapshot, e.defaultTickerText, e.defaultTickerSpeed)

	contentChanged := !e.loaded ||
		next.Content != e.fingerprints.Content ||
		snapshot.ScheduleID() != e.appliedScheduleID ||
		e.forceReload
	tickerChanged := next.Ticker != e.fingerprints.Ticker

	if contentChanged {
		e.reload(ctx, snapshot, now)
	}
	if (contentChanged || tickerChanged) && e.ticker != nil {
		text := snapshot.TickerText
		if text == "" {
			text = e.defaultTickerText
		}
		speed := snapshot.TickerSpeed
		if speed <= 0 {
			speed = e.defaultTickerSpeed
		}
		e.ticker.ApplyUpdate(text, float64(speed))
	}
	e.snapshot = snapshot
	e.fingerprints = next
	e.loaded = true
}

// reload rebuilds local playback for a new content fingerprint: stop,
// materialize media, hand the playable set to the player, and persist
// the snapshot for offline restarts.
func (e *Engine) reload(ctx context.Context, snapshot *schedule.Snapshot, now time.Time) {
	scheduleID := snapshot.ScheduleID()
	e.forceReload = false
	e.appliedScheduleID = scheduleID
	e.logger.Info("loading schedule",
		logging.String(logging.FieldScheduleID, scheduleID),
		logging.Int("media", len(snapshot.Media)))

	if e.player != nil {
		e.player.Stop()
	}

	if len(snapshot.Media) == 0 {
		e.clearPlayback(ctx, snapshot)
		e.persist(snapshot)
		return
	}

	e.setReport(ctx, now, cms.StateReport{
		Status:       "downloading",
		ScheduleID:   scheduleID,
		ScheduleName: snapshot.ScheduleName(),
	})

	var paths map[string]string
	var failed []string
	if e.cache != nil {
		paths, failed = e.cache.MaterializeAll(ctx, snapshot.Media)
	}
	for _, mediaID := range failed {
		item := snapshot.Item(mediaID)
		name := mediaID
		if item != nil {
			name = item.Name
		}
		e.journalEvent(ctx, journal.Entry{
			Event:      journal.EventDownloadFailed,
			MediaID:    mediaID,
			MediaName:  name,
			ScheduleID: scheduleID,
		})
		if err := e.notifier.NotifyDownloadFailed(ctx, name, errors.New("download failed")); err != nil {
			e.logger.Debug("download alert failed", logging.Error(err))
		}
	}

	playable := make([]schedule.MediaItem, 0, len(snapshot.Media))
	for _, item := range snapshot.Media {
		if item.Type.NeedsDownload() && paths[item.ID] == "" {
			continue
		}
		playable = append(playable, item)
	}
	if len(playable) == 0 {
		e.clearPlayback(ctx, snapshot)
		e.persist(snapshot)
		return
	}

	if e.player != nil {
		e.player.Load(playable, paths)
	}
	e.persist(snapshot)
	e.journalEvent(ctx, journal.Entry{
		Event:      journal.EventScheduleLoaded,
		ScheduleID: scheduleID,
		Detail:     detailCount(len(playable), len(failed)),
	})
}

func (e *Engine) clearPlayback(ctx context.Context, snapshot *schedule.Snapshot) {
	e.logger.Info("schedule has no playable media, standing by")
	if e.player != nil {
		e.player.Clear()
	}
	if e.renderer != nil {
		_ = e.renderer.ShowWaiting("No schedule assigned")
	}
	e.journalEvent(ctx, journal.Entry{
		Event:      journal.EventScheduleClear,
		ScheduleID: snapshot.ScheduleID(),
	})
	if err := e.notifier.NotifyScheduleCleared(ctx, e.record.Name); err != nil {
		e.logger.Debug("cleared alert failed", logging.Error(err))
	}
}

func (e *Engine) persist(snapshot *schedule.Snapshot) {
	if e.store == nil {
		return
	}
	if err := e.store.Save(snapshot); err != nil {
		e.logger.Warn("persist schedule snapshot", logging.Error(err))
	}
}

func (e *Engine) journalEvent(ctx context.Context, entry journal.Entry) {
	if e.journal == nil {
		return
	}
	if err := e.journal.Record(ctx, entry); err != nil {
		e.logger.Debug("journal write failed", logging.Error(err))
	}
}

func detailCount(playable, failed int) string {
	if failed == 0 {
		return fmt.Sprintf("%d playable", playable)
	}
	return fmt.Sprintf("%d playable, %d failed", playable, failed)
}
