package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"marquee/internal/ipc"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show daemon and playback status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Status()
				if err != nil {
					return fmt.Errorf("fetch status: %w", err)
				}
				renderStatus(cmd.OutOrStdout(), resp)
				return nil
			})
		},
	}
}

func renderStatus(stdout io.Writer, resp *ipc.StatusResponse) {
	colorize := shouldColorize(stdout)

	for _, line := range renderSectionHeader("Daemon", colorize) {
		fmt.Fprintln(stdout, line)
	}
	fmt.Fprintln(stdout, renderStatusLine("Running", boolKind(resp.Running), fmt.Sprintf("pid %d", resp.PID), colorize))
	fmt.Fprintln(stdout, renderStatusLine("Registered", boolKind(resp.Registered), playerDetail(resp), colorize))
	fmt.Fprintln(stdout, renderStatusLine("Push channel", pushKind(resp.PushConnected), yesNo(resp.PushConnected), colorize))
	fmt.Fprintln(stdout)

	for _, line := range renderSectionHeader("Playback", colorize) {
		fmt.Fprintln(stdout, line)
	}
	fmt.Fprintln(stdout, renderStatusLine("State", playbackKind(resp.Playback), resp.Playback, colorize))
	fmt.Fprintln(stdout, renderStatusLine("Schedule", statusInfo, scheduleDetail(resp), colorize))
	fmt.Fprintln(stdout, renderStatusLine("Media", statusInfo, mediaDetail(resp), colorize))
	fmt.Fprintln(stdout, renderStatusLine("Ticker", statusInfo, tickerDetail(resp), colorize))
	fmt.Fprintln(stdout)

	for _, line := range renderSectionHeader("Sync", colorize) {
		fmt.Fprintln(stdout, line)
	}
	syncKind := statusOK
	syncDetail := "healthy"
	if resp.SyncFailures > 0 {
		syncKind = statusWarn
		syncDetail = fmt.Sprintf("%d consecutive failure(s)", resp.SyncFailures)
	}
	fmt.Fprintln(stdout, renderStatusLine("Schedule sync", syncKind, syncDetail, colorize))
	fmt.Fprintln(stdout, renderStatusLine("Media cache", statusInfo, resp.CacheDir, colorize))
}

func boolKind(ok bool) statusKind {
	if ok {
		return statusOK
	}
	return statusWarn
}

func pushKind(connected bool) statusKind {
	if connected {
		return statusOK
	}
	// The daemon falls back to polling, so a missing push channel is
	// informational rather than a fault.
	return statusInfo
}

func playbackKind(state string) statusKind {
	switch state {
	case "playing":
		return statusOK
	case "error":
		return statusError
	default:
		return statusInfo
	}
}

func playerDetail(resp *ipc.StatusResponse) string {
	if !resp.Registered {
		return "awaiting registration"
	}
	if resp.PlayerName != "" {
		return fmt.Sprintf("%s (%s)", resp.PlayerName, resp.PlayerID)
	}
	return resp.PlayerID
}

func scheduleDetail(resp *ipc.StatusResponse) string {
	if resp.ScheduleID == "" {
		return "none"
	}
	if resp.ScheduleName != "" {
		return fmt.Sprintf("%s (%s)", resp.ScheduleName, resp.ScheduleID)
	}
	return resp.ScheduleID
}

func mediaDetail(resp *ipc.StatusResponse) string {
	if resp.MediaID == "" {
		return "none"
	}
	name := resp.MediaName
	if name == "" {
		name = resp.MediaID
	}
	return fmt.Sprintf("%s (%.0fs elapsed)", name, resp.Elapsed)
}

func tickerDetail(resp *ipc.StatusResponse) string {
	text := strings.TrimSpace(resp.TickerText)
	if text == "" {
		return "disabled"
	}
	const maxPreview = 48
	if len(text) > maxPreview {
		text = text[:maxPreview] + "..."
	}
	return text
}
