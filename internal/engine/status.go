package engine

import (
	"context"
	"time"

	"marquee/internal/cms"
	"marquee/internal/journal"
	"marquee/internal/logging"
	"marquee/internal/player"
	"marquee/internal/schedule"
)

// reportPlayback sends state upstream on transitions, plus periodic
// elapsed updates while a video plays so the CMS progress bar moves.
func (e *Engine) reportPlayback(ctx context.Context, now time.Time) {
	if e.player == nil {
		return
	}
	state := e.player.State(now)
	current := playbackReport{status: string(state.Status), mediaID: state.MediaID}

	transitioned := current != e.lastReport
	progressDue := state.Status == player.StatusPlaying &&
		state.MediaType == schedule.TypeVideo &&
		now.Sub(e.lastReportAt) >= videoProgressInterval
	if !transitioned && !progressDue {
		return
	}

	if transitioned && state.Status == player.StatusPlaying {
		e.journalEvent(ctx, journal.Entry{
			Event:      journal.EventShown,
			MediaID:    state.MediaID,
			MediaName:  state.MediaName,
			ScheduleID: e.snapshot.ScheduleID(),
		})
	}

	report := cms.StateReport{
		Status:       string(state.Status),
		MediaID:      state.MediaID,
		MediaName:    state.MediaName,
		MediaType:    string(state.MediaType),
		ScheduleID:   e.snapshot.ScheduleID(),
		ScheduleName: e.snapshot.ScheduleName(),
		CurrentTime:  state.Elapsed,
	}
	if item := e.snapshot.Item(state.MediaID); item != nil {
		report.MediaURL = item.URL
	}
	e.setReport(ctx, now, report)
}

// setReport delivers one state report over both channels, best effort.
func (e *Engine) setReport(ctx context.Context, now time.Time, report cms.StateReport) {
	e.lastReport = playbackReport{status: report.Status, mediaID: report.MediaID}
	e.lastReportAt = now

	if e.record.Registered() && e.client != nil {
		if err := e.client.ReportState(ctx, report); err != nil {
			e.logger.Debug("state report failed", logging.Error(err))
		}
	}
	if e.push != nil && e.push.Connected() {
		err := e.push.SendStatus(map[string]any{
			"status":    report.Status,
			"mediaId":   report.MediaID,
			"mediaName": report.MediaName,
			"elapsed":   report.CurrentTime,
		})
		if err != nil {
			e.logger.Debug("push status failed", logging.Error(err))
		}
	}
}

// ForceRefresh makes the next Tick re-sync regardless of the poll gate
// and reload playback even if the fetched content is unchanged.
func (e *Engine) ForceRefresh() {
	e.forceRefresh = true
	e.forceReload = true
}

// ReportOffline tells the CMS the player is going away. Called once
// during shutdown, before the renderer stops.
func (e *Engine) ReportOffline(ctx context.Context) {
	e.setReport(ctx, time.Now(), cms.StateReport{
		Status:       "offline",
		ScheduleID:   e.snapshot.ScheduleID(),
		ScheduleName: e.snapshot.ScheduleName(),
	})
}

// Status is a point-in-time engine summary for the control socket.
type Status struct {
	Registered    bool
	PlayerID      string
	PlayerName    string
	ScheduleID    string
	ScheduleName  string
	Playback      string
	MediaID       string
	MediaName     string
	Elapsed       float64
	TickerText    string
	PushConnected bool
	SyncFailures  int
}

// Snapshot summarizes the engine for operators.
func (e *Engine) SnapshotStatus(now time.Time) Status {
	status := Status{
		Registered:   e.record.Registered(),
		PlayerID:     e.record.PlayerID,
		PlayerName:   e.record.Name,
		ScheduleID:   e.snapshot.ScheduleID(),
		ScheduleName: e.snapshot.ScheduleName(),
		Playback:     string(player.StatusIdle),
		SyncFailures: e.failures,
	}
	if e.player != nil {
		state := e.player.State(now)
		status.Playback = string(state.Status)
		status.MediaID = state.MediaID
		status.MediaName = state.MediaName
		status.Elapsed = state.Elapsed
	}
	if e.ticker != nil {
		status.TickerText = e.ticker.Snapshot().Text
	}
	if e.push != nil {
		status.PushConnected = e.push.Connected()
	}
	return status
}
