package schedule

import (
	"path"
	"strings"
)

// MediaType identifies how a playlist item is presented and whether it needs
// a local download before playback.
type MediaType string

const (
	TypeImage MediaType = "image"
	TypeVideo MediaType = "video"
	TypeText  MediaType = "text"
)

// NeedsDownload reports whether items of this type are materialized into the
// media cache. Text items render locally and never touch the network.
func (t MediaType) NeedsDownload() bool {
	return t == TypeImage || t == TypeVideo
}

// Known reports whether the type is one the player can present.
func (t MediaType) Known() bool {
	switch t {
	case TypeImage, TypeVideo, TypeText:
		return true
	default:
		return false
	}
}

// MediaItem is a single playlist entry as delivered by the CMS. Items are
// immutable once produced by a fetch.
type MediaItem struct {
	ID   string    `json:"id"`
	Name string    `json:"name"`
	Type MediaType `json:"type"`
	URL  string    `json:"url"`
	// H265URL, when present, points at a transcode preferred for playback.
	H265URL string `json:"h265_url,omitempty"`
	// PlaylistDuration is the per-playlist display duration in seconds.
	PlaylistDuration float64 `json:"playlistDuration,omitempty"`
	// Duration is the item's own display duration, used when the playlist
	// does not override it.
	Duration float64 `json:"duration,omitempty"`
}

// DownloadURL returns the URL used to materialize the item, preferring the
// h265 transcode when the CMS provides one.
func (m MediaItem) DownloadURL() string {
	if strings.TrimSpace(m.H265URL) != "" {
		return m.H265URL
	}
	return m.URL
}

// Basename returns the final path element of the item's download URL with
// any query string stripped.
func (m MediaItem) Basename() string {
	raw := m.DownloadURL()
	if i := strings.IndexAny(raw, "?#"); i >= 0 {
		raw = raw[:i]
	}
	return path.Base(raw)
}

// DisplaySeconds returns the effective display duration for timed media,
// falling back to the supplied default when the schedule carries none.
func (m MediaItem) DisplaySeconds(fallback float64) float64 {
	if m.PlaylistDuration > 0 {
		return m.PlaylistDuration
	}
	if m.Duration > 0 {
		return m.Duration
	}
	return fallback
}

// Ref identifies the schedule a snapshot was produced from.
type Ref struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Snapshot is the result of one successful schedule fetch. Snapshots are
// never mutated in place; a later fetch produces a new one that either
// replaces or is discarded relative to the active snapshot.
type Snapshot struct {
	PlayerID      string      `json:"playerId"`
	Current       *Ref        `json:"currentSchedule"`
	Media         []MediaItem `json:"media"`
	TickerText    string      `json:"tickerText"`
	TickerEnabled bool        `json:"tickerEnabled"`
	TickerSpeed   int         `json:"tickerSpeed"`
	ServerTime    string      `json:"serverTime,omitempty"`
}

// ScheduleID returns the active schedule id, or "" when no schedule applies.
func (s *Snapshot) ScheduleID() string {
	if s == nil || s.Current == nil {
		return ""
	}
	return s.Current.ID
}

// ScheduleName returns the active schedule name, or "" when no schedule
// applies.
func (s *Snapshot) ScheduleName() string {
	if s == nil || s.Current == nil {
		return ""
	}
	return s.Current.Name
}

// Item returns the media item with the given id, or nil.
func (s *Snapshot) Item(mediaID string) *MediaItem {
	if s == nil {
		return nil
	}
	for i := range s.Media {
		if s.Media[i].ID == mediaID {
			return &s.Media[i]
		}
	}
	return nil
}
