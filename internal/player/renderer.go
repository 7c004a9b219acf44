package player

// VideoState reports where the renderer is in the current video.
type VideoState int

const (
	// VideoIdle means no video is loaded.
	VideoIdle VideoState = iota
	// VideoPlaying means playback is in progress.
	VideoPlaying
	// VideoEnded means the video reached its end.
	VideoEnded
	// VideoError means the renderer could not play the video.
	VideoError
)

// String returns a stable label for logs and state reports.
func (s VideoState) String() string {
	switch s {
	case VideoIdle:
		return "idle"
	case VideoPlaying:
		return "playing"
	case VideoEnded:
		return "ended"
	case VideoError:
		return "error"
	default:
		return "unknown"
	}
}

// Renderer is the display surface the player drives. Implementations own
// the actual output (a window, a framebuffer, or nothing at all for
// headless runs); the player only sequences what to show.
type Renderer interface {
	// ShowImage displays a local image file until told otherwise.
	ShowImage(path string) error
	// ShowText displays a full-screen text slide.
	ShowText(content string) error
	// PlayVideo starts a local video file.
	PlayVideo(path string) error
	// VideoState reports progress of the current video.
	VideoState() VideoState
	// VideoElapsed returns seconds of video played so far.
	VideoElapsed() float64
	// ShowWaiting displays the standby screen with a status message.
	ShowWaiting(message string) error
	// Stop clears the display and releases any playing media.
	Stop()
}
