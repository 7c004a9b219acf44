package ipc

import "time"

// StatusRequest fetches daemon status.
type StatusRequest struct{}

// StatusResponse summarizes the daemon for the CLI.
type StatusResponse struct {
	Running       bool    `json:"running"`
	PID           int     `json:"pid"`
	Registered    bool    `json:"registered"`
	PlayerID      string  `json:"player_id"`
	PlayerName    string  `json:"player_name"`
	ScheduleID    string  `json:"schedule_id"`
	ScheduleName  string  `json:"schedule_name"`
	Playback      string  `json:"playback"`
	MediaID       string  `json:"media_id"`
	MediaName     string  `json:"media_name"`
	Elapsed       float64 `json:"elapsed"`
	TickerText    string  `json:"ticker_text"`
	PushConnected bool    `json:"push_connected"`
	SyncFailures  int     `json:"sync_failures"`
	CacheDir      string  `json:"cache_dir"`
	LockPath      string  `json:"lock_path"`
}

// ReloadRequest forces a schedule refresh on the next driver tick.
type ReloadRequest struct{}

// ReloadResponse indicates the refresh was queued.
type ReloadResponse struct {
	Triggered bool   `json:"triggered"`
	Message   string `json:"message"`
}

// TickerSpeedRequest changes the local scroll speed.
type TickerSpeedRequest struct {
	Speed float64 `json:"speed"`
}

// TickerSpeedResponse indicates the speed change result.
type TickerSpeedResponse struct {
	Applied bool   `json:"applied"`
	Message string `json:"message"`
}

// HistoryRequest fetches recent playback journal entries.
type HistoryRequest struct {
	Limit int `json:"limit"`
}

// HistoryEntry is one playback journal row for display.
type HistoryEntry struct {
	OccurredAt time.Time `json:"occurred_at"`
	Event      string    `json:"event"`
	MediaID    string    `json:"media_id"`
	MediaName  string    `json:"media_name"`
	ScheduleID string    `json:"schedule_id"`
	Detail     string    `json:"detail"`
}

// HistoryResponse contains journal entries, most recent first.
type HistoryResponse struct {
	Entries []HistoryEntry `json:"entries"`
}

// StopRequest asks the daemon to shut down.
type StopRequest struct{}

// StopResponse indicates shutdown was initiated.
type StopResponse struct {
	Stopped bool `json:"stopped"`
}
