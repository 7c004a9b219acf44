package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"

	"marquee/internal/config"
	"marquee/internal/ipc"
	"marquee/internal/journal"
	"marquee/internal/logging"
	"marquee/internal/testsupport"
)

type fakeController struct {
	mu         sync.Mutex
	status     ipc.StatusResponse
	reloads    int
	speeds     []float64
	speedErr   error
	history    []journal.Entry
	historyErr error
	shutdowns  int
}

func (f *fakeController) Status(context.Context) ipc.StatusResponse {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.status
}

func (f *fakeController) ForceReload() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reloads++
}

func (f *fakeController) SetTickerSpeed(speed float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.speedErr != nil {
		return f.speedErr
	}
	f.speeds = append(f.speeds, speed)
	return nil
}

func (f *fakeController) History(_ context.Context, limit int) ([]journal.Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.historyErr != nil {
		return nil, f.historyErr
	}
	if limit > 0 && limit < len(f.history) {
		return f.history[:limit], nil
	}
	return f.history, nil
}

func (f *fakeController) Shutdown() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.shutdowns++
}

type cliTestEnv struct {
	cfg        *config.Config
	controller *fakeController
	server     *ipc.Server
	socketPath string
	configPath string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	cfg := testsupport.NewConfig(t)
	controller := &fakeController{
		status: ipc.StatusResponse{
			Running:  true,
			PID:      os.Getpid(),
			Playback: "idle",
			CacheDir: cfg.Paths.MediaCacheDir,
		},
	}

	socketPath := filepath.Join(t.TempDir(), "cli.sock")
	ctx, cancel := context.WithCancel(context.Background())
	server, err := ipc.NewServer(ctx, socketPath, controller, logging.NewNop())
	if err != nil {
		cancel()
		t.Fatalf("ipc.NewServer: %v", err)
	}
	server.Serve()

	configPath := writeTestConfig(t, cfg)

	t.Cleanup(func() {
		cancel()
		server.Close()
	})

	return &cliTestEnv{
		cfg:        cfg,
		controller: controller,
		server:     server,
		socketPath: socketPath,
		configPath: configPath,
	}
}

func writeTestConfig(t *testing.T, cfg *config.Config) string {
	t.Helper()
	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func runCLI(t *testing.T, args []string, socket, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	flags := []string{"--socket", socket}
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, want string) {
	t.Helper()
	if !strings.Contains(output, want) {
		t.Fatalf("expected output to contain %q, got:\n%s", want, output)
	}
}

func historyEntry(event, mediaName string, at time.Time) journal.Entry {
	return journal.Entry{
		OccurredAt: at,
		Event:      event,
		MediaID:    "m-" + strings.ToLower(mediaName),
		MediaName:  mediaName,
		ScheduleID: "sched-1",
	}
}
