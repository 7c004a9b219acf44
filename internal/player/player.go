package player

import (
	"log/slog"
	"time"

	"marquee/internal/logging"
	"marquee/internal/schedule"
)

// Status is the coarse playback state reported upstream.
type Status string

const (
	// StatusIdle means the playlist is empty or nothing can play.
	StatusIdle Status = "idle"
	// StatusPlaying means a playlist item is on screen.
	StatusPlaying Status = "playing"
)

// State is a point-in-time description of what the player is showing.
type State struct {
	Status    Status
	MediaID   string
	MediaName string
	MediaType schedule.MediaType
	Elapsed   float64
}

// Player cycles through the loaded playlist on a renderer. All methods
// are driven from a single goroutine; the player has no locking of its
// own.
type Player struct {
	renderer             Renderer
	logger               *slog.Logger
	defaultImageDuration float64

	items   []schedule.MediaItem
	paths   map[string]string
	cursor  int
	current *schedule.MediaItem
	started time.Time
	failed  map[string]struct{}
}

// New creates a player over the given renderer.
func New(renderer Renderer, defaultImageDuration float64, logger *slog.Logger) *Player {
	if logger == nil {
		logger = logging.NewNop()
	}
	if defaultImageDuration <= 0 {
		defaultImageDuration = 5
	}
	return &Player{
		renderer:             renderer,
		logger:               logging.NewComponentLogger(logger, "player"),
		defaultImageDuration: defaultImageDuration,
		failed:               make(map[string]struct{}),
	}
}

// Load replaces the playlist. Playback stops and the cursor returns to
// the first item; the next Tick starts it.
func (p *Player) Load(items []schedule.MediaItem, paths map[string]string) {
	p.Stop()
	p.items = items
	p.paths = paths
	p.cursor = 0
	p.failed = make(map[string]struct{})
}

// Stop halts playback and clears the current item.
func (p *Player) Stop() {
	if p.current != nil {
		p.renderer.Stop()
		p.current = nil
	}
}

// Clear stops playback and drops the playlist entirely.
func (p *Player) Clear() {
	p.Stop()
	p.items = nil
	p.paths = nil
	p.cursor = 0
}

// Tick advances the playlist state machine by one driver cycle: start
// the next item when nothing is showing, otherwise check whether the
// current item has finished.
func (p *Player) Tick(now time.Time) {
	if len(p.items) == 0 {
		return
	}
	if p.current == nil {
		p.startNext(now)
		return
	}
	if p.finished(now) {
		p.advance()
		p.startNext(now)
	}
}

func (p *Player) finished(now time.Time) bool {
	switch p.current.Type {
	case schedule.TypeVideo:
		state := p.renderer.VideoState()
		if state == VideoError {
			p.logger.Warn("video playback error, skipping",
				logging.String(logging.FieldMediaID, p.current.ID),
				logging.String("name", p.current.Name))
			p.failed[p.current.ID] = struct{}{}
			return true
		}
		return state == VideoEnded
	default:
		elapsed := now.Sub(p.started).Seconds()
		return elapsed >= p.current.DisplaySeconds(p.defaultImageDuration)
	}
}

func (p *Player) advance() {
	p.cursor = (p.cursor + 1) % len(p.items)
	if p.cursor == 0 && len(p.failed) > 0 {
		// New cycle: give failed items another chance. Transient
		// renderer errors should not bench an item forever.
		p.failed = make(map[string]struct{})
	}
}

// startNext walks the playlist from the cursor and shows the first item
// that renders. Items that fail to render are skipped until the playlist
// wraps; if every item fails the player goes idle.
func (p *Player) startNext(now time.Time) {
	p.current = nil
	for attempts := 0; attempts < len(p.items); attempts++ {
		item := p.items[p.cursor]
		if _, bad := p.failed[item.ID]; bad {
			p.advance()
			continue
		}
		if err := p.show(item); err != nil {
			p.logger.Warn("media failed to render, skipping",
				logging.String(logging.FieldMediaID, item.ID),
				logging.String("name", item.Name),
				logging.Error(err))
			p.failed[item.ID] = struct{}{}
			p.advance()
			continue
		}
		p.current = &p.items[p.cursor]
		p.started = now
		p.logger.Info("now showing",
			logging.String(logging.FieldMediaID, item.ID),
			logging.String("name", item.Name),
			logging.String("type", string(item.Type)))
		return
	}
	p.renderer.Stop()
}

func (p *Player) show(item schedule.MediaItem) error {
	switch item.Type {
	case schedule.TypeVideo:
		return p.renderer.PlayVideo(p.paths[item.ID])
	case schedule.TypeImage:
		return p.renderer.ShowImage(p.paths[item.ID])
	default:
		content := item.Name
		if item.URL != "" && !item.Type.NeedsDownload() {
			content = item.URL
		}
		return p.renderer.ShowText(content)
	}
}

// State reports what the player is currently showing.
func (p *Player) State(now time.Time) State {
	if p.current == nil {
		return State{Status: StatusIdle}
	}
	var elapsed float64
	if p.current.Type == schedule.TypeVideo {
		elapsed = p.renderer.VideoElapsed()
	} else {
		elapsed = now.Sub(p.started).Seconds()
	}
	return State{
		Status:    StatusPlaying,
		MediaID:   p.current.ID,
		MediaName: p.current.Name,
		MediaType: p.current.Type,
		Elapsed:   elapsed,
	}
}

// Empty reports whether the player has no playlist loaded.
func (p *Player) Empty() bool {
	return len(p.items) == 0
}
