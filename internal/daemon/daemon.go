package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"marquee/internal/bridge"
	"marquee/internal/config"
	"marquee/internal/engine"
	"marquee/internal/ipc"
	"marquee/internal/journal"
	"marquee/internal/logging"
	"marquee/internal/player"
	"marquee/internal/ticker"
)

// Options carries the daemon's collaborators, wired by the entry point.
type Options struct {
	Config   *config.Config
	Logger   *slog.Logger
	Engine   *engine.Engine
	Push     *bridge.Bridge
	Ticker   *ticker.Controller
	Renderer player.Renderer
	Journal  *journal.Store
	CacheDir string
}

// Daemon owns the display process lifecycle: the single-instance lock,
// the push connection, the display hotplug monitor, and the driver loop
// that ticks the engine. Everything that mutates playback state runs on
// the driver loop; control calls from the IPC surface only set flags the
// next tick picks up.
type Daemon struct {
	cfg      *config.Config
	logger   *slog.Logger
	engine   *engine.Engine
	push     *bridge.Bridge
	ticker   *ticker.Controller
	renderer player.Renderer
	journal  *journal.Store
	cacheDir string

	lockPath string
	lock     *flock.Flock

	// mu serializes driver ticks against IPC reads of engine state.
	mu      sync.Mutex
	running atomic.Bool
	stopCh  chan struct{}
	stop    sync.Once
}

var _ ipc.Controller = (*Daemon)(nil)

// New constructs a daemon. The engine, push channel, and renderer must
// already be wired together.
func New(opts Options) (*Daemon, error) {
	if opts.Config == nil || opts.Engine == nil {
		return nil, errors.New("daemon requires config and engine")
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	lockPath := filepath.Join(opts.Config.Paths.DataDir, "marqueed.lock")
	return &Daemon{
		cfg:      opts.Config,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		engine:   opts.Engine,
		push:     opts.Push,
		ticker:   opts.Ticker,
		renderer: opts.Renderer,
		journal:  opts.Journal,
		cacheDir: opts.CacheDir,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
		stopCh:   make(chan struct{}),
	}, nil
}

// Run acquires the instance lock and drives the daemon until the context
// is cancelled or Shutdown is called, then tears down in order: report
// offline, stop the renderer, stop the workers.
func (d *Daemon) Run(ctx context.Context) error {
	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another marquee daemon instance is already running")
	}
	defer func() {
		if unlockErr := d.lock.Unlock(); unlockErr != nil {
			d.logger.Warn("failed to release daemon lock", logging.Error(unlockErr))
		}
	}()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	if d.push != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d.push.Run(runCtx)
		}()
	}

	monitor := newDisplayMonitor(d.logger, func() {
		d.RequestRefresh()
	})
	if err := monitor.Start(runCtx); err != nil {
		d.logger.Warn("display monitor unavailable", logging.Error(err))
	}
	defer monitor.Stop()

	d.running.Store(true)
	defer d.running.Store(false)
	d.logger.Info("marquee daemon started",
		logging.String("lock", d.lockPath),
		logging.Int("pid", os.Getpid()))

	d.driverLoop(runCtx)

	// Ordered shutdown: tell the server first, then clear the screen,
	// then stop the background workers.
	offlineCtx, offlineCancel := context.WithTimeout(context.Background(), 5*time.Second)
	d.engine.ReportOffline(offlineCtx)
	offlineCancel()

	if d.renderer != nil {
		d.renderer.Stop()
	}

	cancel()
	wg.Wait()
	d.logger.Info("marquee daemon stopped")
	return nil
}

// driverLoop ticks the engine at the configured cadence until shutdown.
// A panic inside a tick is logged and the loop keeps going; one bad
// cycle must not blank the display.
func (d *Daemon) driverLoop(ctx context.Context) {
	interval := time.Duration(d.cfg.Player.TickIntervalMillis) * time.Millisecond
	if interval <= 0 {
		interval = 100 * time.Millisecond
	}
	driver := time.NewTicker(interval)
	defer driver.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-d.stopCh:
			return
		case now := <-driver.C:
			d.tick(ctx, now)
		}
	}
}

func (d *Daemon) tick(ctx context.Context, now time.Time) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("driver tick panicked",
				logging.Any("panic", r),
				logging.String(logging.FieldErrorHint, "playback continues on the next tick"))
		}
	}()
	d.mu.Lock()
	defer d.mu.Unlock()
	d.engine.Tick(ctx, now)
}

// Shutdown stops the daemon. Safe to call from any goroutine.
func (d *Daemon) Shutdown() {
	d.stop.Do(func() { close(d.stopCh) })
}

// RequestRefresh queues an immediate schedule re-sync.
func (d *Daemon) RequestRefresh() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.engine.ForceRefresh()
}

// ForceReload implements the IPC control surface.
func (d *Daemon) ForceReload() {
	d.RequestRefresh()
}

// SetTickerSpeed changes the local scroll speed.
func (d *Daemon) SetTickerSpeed(speed float64) error {
	if speed <= 0 || speed > 50 {
		return fmt.Errorf("ticker speed %.1f out of range (0, 50]", speed)
	}
	if d.ticker == nil {
		return errors.New("ticker unavailable")
	}
	d.ticker.SetSpeed(speed)
	return nil
}

// History returns recent playback journal entries.
func (d *Daemon) History(ctx context.Context, limit int) ([]journal.Entry, error) {
	if d.journal == nil {
		return nil, errors.New("journal unavailable")
	}
	return d.journal.Recent(ctx, limit)
}

// Status reports daemon state for the CLI.
func (d *Daemon) Status(ctx context.Context) ipc.StatusResponse {
	d.mu.Lock()
	snapshot := d.engine.SnapshotStatus(time.Now())
	d.mu.Unlock()

	return ipc.StatusResponse{
		Running:       d.running.Load(),
		PID:           os.Getpid(),
		Registered:    snapshot.Registered,
		PlayerID:      snapshot.PlayerID,
		PlayerName:    snapshot.PlayerName,
		ScheduleID:    snapshot.ScheduleID,
		ScheduleName:  snapshot.ScheduleName,
		Playback:      snapshot.Playback,
		MediaID:       snapshot.MediaID,
		MediaName:     snapshot.MediaName,
		Elapsed:       snapshot.Elapsed,
		TickerText:    snapshot.TickerText,
		PushConnected: snapshot.PushConnected,
		SyncFailures:  snapshot.SyncFailures,
		CacheDir:      d.cacheDir,
		LockPath:      d.lockPath,
	}
}
