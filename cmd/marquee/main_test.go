package main

import (
	"errors"
	"strings"
	"testing"
	"time"

	"marquee/internal/journal"
)

func TestStatusCommandRendersSections(t *testing.T) {
	env := setupCLITestEnv(t)
	env.controller.status.Registered = true
	env.controller.status.PlayerID = "p-1"
	env.controller.status.PlayerName = "Lobby Screen"
	env.controller.status.ScheduleID = "sched-1"
	env.controller.status.ScheduleName = "Weekday Loop"
	env.controller.status.Playback = "playing"
	env.controller.status.MediaID = "m-1"
	env.controller.status.MediaName = "welcome.mp4"
	env.controller.status.Elapsed = 12
	env.controller.status.TickerText = "Grand opening this Saturday"
	env.controller.status.PushConnected = true

	out, _, err := runCLI(t, []string{"status"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "== Daemon ==")
	requireContains(t, out, "Lobby Screen (p-1)")
	requireContains(t, out, "Weekday Loop (sched-1)")
	requireContains(t, out, "welcome.mp4 (12s elapsed)")
	requireContains(t, out, "Grand opening this Saturday")
	requireContains(t, out, "[OK]")
}

func TestStatusCommandUnregistered(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"status"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "awaiting registration")
	requireContains(t, out, "healthy")
}

func TestStatusCommandReportsSyncFailures(t *testing.T) {
	env := setupCLITestEnv(t)
	env.controller.status.SyncFailures = 3

	out, _, err := runCLI(t, []string{"status"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "3 consecutive failure(s)")
}

func TestReloadCommand(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"reload"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	requireContains(t, out, "refresh queued")
	if env.controller.reloads != 1 {
		t.Fatalf("expected one reload request, got %d", env.controller.reloads)
	}
}

func TestStopCommand(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"stop"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("stop: %v", err)
	}
	requireContains(t, out, "Daemon stopping")
	if env.controller.shutdowns != 1 {
		t.Fatalf("expected one shutdown request, got %d", env.controller.shutdowns)
	}
}

func TestTickerSpeedCommand(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"ticker", "speed", "4.5"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("ticker speed: %v", err)
	}
	requireContains(t, out, "Ticker speed set to 4.5")
	if len(env.controller.speeds) != 1 || env.controller.speeds[0] != 4.5 {
		t.Fatalf("unexpected recorded speeds: %v", env.controller.speeds)
	}
}

func TestTickerSpeedCommandRejected(t *testing.T) {
	env := setupCLITestEnv(t)
	env.controller.speedErr = errors.New("ticker speed must be between 0 and 50")

	out, _, err := runCLI(t, []string{"ticker", "speed", "900"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("ticker speed: %v", err)
	}
	requireContains(t, out, "Ticker speed not changed")
	requireContains(t, out, "between 0 and 50")
}

func TestTickerSpeedCommandBadArgument(t *testing.T) {
	env := setupCLITestEnv(t)

	_, _, err := runCLI(t, []string{"ticker", "speed", "fast"}, env.socketPath, env.configPath)
	if err == nil {
		t.Fatal("expected parse error for non-numeric speed")
	}
}

func TestHistoryCommand(t *testing.T) {
	env := setupCLITestEnv(t)
	now := time.Now()
	env.controller.history = []journal.Entry{
		historyEntry("shown", "welcome.mp4", now),
		historyEntry("skipped", "promo.jpg", now.Add(-time.Minute)),
	}

	out, _, err := runCLI(t, []string{"history"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	requireContains(t, out, "welcome.mp4")
	requireContains(t, out, "shown")
}

func TestHistoryCommandEmpty(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"history"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	requireContains(t, out, "No playback history recorded")
}

func TestCommandsFailWithoutDaemon(t *testing.T) {
	env := setupCLITestEnv(t)

	_, _, err := runCLI(t, []string{"status"}, env.socketPath+".missing", env.configPath)
	if err == nil {
		t.Fatal("expected dial error for missing socket")
	}
	if !strings.Contains(err.Error(), "start the daemon") {
		t.Fatalf("expected daemon hint in error, got %v", err)
	}
}
