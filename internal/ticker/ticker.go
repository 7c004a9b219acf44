package ticker

import (
	"strings"
	"sync"
)

// MeasureFunc returns the rendered pixel width of a ticker text. The
// default estimates from rune count; renderers with real font metrics
// can supply their own.
type MeasureFunc func(text string) float64

const defaultGlyphWidth = 18

func defaultMeasure(text string) float64 {
	return float64(len([]rune(text)) * defaultGlyphWidth)
}

// Controller owns the scrolling ticker state: the text, its scroll
// speed, and the current horizontal position. The ticker is always
// visible; updates only ever change what it shows and how fast.
type Controller struct {
	mu          sync.Mutex
	text        string
	speed       float64
	screenWidth float64
	margin      float64
	textWidth   float64
	position    float64
	measure     MeasureFunc
}

// Option configures a Controller.
type Option func(*Controller)

// WithMeasure overrides the text width estimator.
func WithMeasure(measure MeasureFunc) Option {
	return func(c *Controller) {
		if measure != nil {
			c.measure = measure
		}
	}
}

// New creates a ticker controller. The initial text starts just past
// the right edge of the screen.
func New(text string, speed, screenWidth, margin float64, opts ...Option) *Controller {
	c := &Controller{
		screenWidth: screenWidth,
		margin:      margin,
		measure:     defaultMeasure,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.text = text
	c.speed = normalizeSpeed(speed)
	c.textWidth = c.measure(text)
	c.position = screenWidth
	return c
}

func normalizeSpeed(speed float64) float64 {
	if speed <= 0 {
		return 2
	}
	return speed
}

// ApplyUpdate installs new ticker content. Identical text and speed is
// a no-op so a schedule refresh never makes the ticker stutter; any
// real change restarts the scroll from off-screen right.
func (c *Controller) ApplyUpdate(text string, speed float64) bool {
	speed = normalizeSpeed(speed)
	c.mu.Lock()
	defer c.mu.Unlock()
	if text == c.text && speed == c.speed {
		return false
	}
	c.text = text
	c.speed = speed
	c.textWidth = c.measure(text)
	c.position = c.screenWidth
	return true
}

// SetSpeed changes only the scroll speed, keeping the current position.
func (c *Controller) SetSpeed(speed float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.speed = normalizeSpeed(speed)
}

// Step advances the scroll by one tick. The text wraps only after the
// whole string has cleared the left edge plus the configured margin.
func (c *Controller) Step() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if strings.TrimSpace(c.text) == "" {
		return
	}
	c.position -= c.speed
	if c.position <= -(c.textWidth + c.margin) {
		c.position = c.screenWidth
	}
}

// Frame is one renderable ticker state.
type Frame struct {
	Text     string
	Position float64
	Speed    float64
}

// Snapshot returns the current ticker frame.
func (c *Controller) Snapshot() Frame {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Frame{Text: c.text, Position: c.position, Speed: c.speed}
}
