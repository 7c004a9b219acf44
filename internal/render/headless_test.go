package render

import (
	"testing"
	"time"

	"marquee/internal/player"
)

func TestHeadlessVideoLifecycle(t *testing.T) {
	h := NewHeadless(nil, WithVideoDuration(30*time.Millisecond))

	if got := h.VideoState(); got != player.VideoIdle {
		t.Fatalf("expected idle before playback, got %v", got)
	}
	if err := h.PlayVideo("/cache/clip.mp4"); err != nil {
		t.Fatalf("PlayVideo failed: %v", err)
	}
	if got := h.VideoState(); got != player.VideoPlaying {
		t.Fatalf("expected playing, got %v", got)
	}

	time.Sleep(50 * time.Millisecond)
	if got := h.VideoState(); got != player.VideoEnded {
		t.Fatalf("expected ended after simulated duration, got %v", got)
	}
	if got := h.VideoElapsed(); got != (30 * time.Millisecond).Seconds() {
		t.Fatalf("elapsed should clamp to duration, got %v", got)
	}
}

func TestHeadlessShowImageCancelsVideo(t *testing.T) {
	h := NewHeadless(nil, WithVideoDuration(time.Minute))
	if err := h.PlayVideo("/cache/clip.mp4"); err != nil {
		t.Fatalf("PlayVideo failed: %v", err)
	}
	if err := h.ShowImage("/cache/banner.jpg"); err != nil {
		t.Fatalf("ShowImage failed: %v", err)
	}
	if got := h.VideoState(); got != player.VideoIdle {
		t.Fatalf("image should cancel video, got %v", got)
	}
}

func TestHeadlessStopResetsElapsed(t *testing.T) {
	h := NewHeadless(nil)
	if err := h.PlayVideo("/cache/clip.mp4"); err != nil {
		t.Fatalf("PlayVideo failed: %v", err)
	}
	h.Stop()
	if got := h.VideoElapsed(); got != 0 {
		t.Fatalf("expected zero elapsed after stop, got %v", got)
	}
}
