package render

import (
	"log/slog"
	"sync"
	"time"

	"marquee/internal/logging"
	"marquee/internal/player"
)

// Headless is a renderer with no output surface. It logs what would be
// shown and simulates video playback on a timer, which keeps the daemon
// fully runnable on machines without a display.
type Headless struct {
	mu            sync.Mutex
	logger        *slog.Logger
	videoDuration time.Duration
	videoStart    time.Time
	videoActive   bool
}

var _ player.Renderer = (*Headless)(nil)

// Option configures a Headless renderer.
type Option func(*Headless)

// WithVideoDuration sets how long simulated videos run.
func WithVideoDuration(d time.Duration) Option {
	return func(h *Headless) {
		if d > 0 {
			h.videoDuration = d
		}
	}
}

// NewHeadless creates a renderer that logs instead of drawing.
func NewHeadless(logger *slog.Logger, opts ...Option) *Headless {
	if logger == nil {
		logger = logging.NewNop()
	}
	h := &Headless{
		logger:        logging.NewComponentLogger(logger, "render"),
		videoDuration: 10 * time.Second,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Headless) ShowImage(path string) error {
	h.clearVideo()
	h.logger.Info("showing image", logging.String("path", path))
	return nil
}

func (h *Headless) ShowText(content string) error {
	h.clearVideo()
	h.logger.Info("showing text", logging.String("content", content))
	return nil
}

func (h *Headless) PlayVideo(path string) error {
	h.mu.Lock()
	h.videoActive = true
	h.videoStart = time.Now()
	h.mu.Unlock()
	h.logger.Info("playing video", logging.String("path", path))
	return nil
}

func (h *Headless) VideoState() player.VideoState {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.videoActive {
		return player.VideoIdle
	}
	if time.Since(h.videoStart) >= h.videoDuration {
		return player.VideoEnded
	}
	return player.VideoPlaying
}

func (h *Headless) VideoElapsed() float64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.videoActive {
		return 0
	}
	elapsed := time.Since(h.videoStart)
	if elapsed > h.videoDuration {
		elapsed = h.videoDuration
	}
	return elapsed.Seconds()
}

func (h *Headless) ShowWaiting(message string) error {
	h.clearVideo()
	h.logger.Info("showing waiting screen", logging.String("message", message))
	return nil
}

func (h *Headless) Stop() {
	h.clearVideo()
	h.logger.Debug("display cleared")
}

func (h *Headless) clearVideo() {
	h.mu.Lock()
	h.videoActive = false
	h.mu.Unlock()
}
