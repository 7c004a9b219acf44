package main

import (
	"context"
	"log"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/google/uuid"

	"marquee/internal/bridge"
	"marquee/internal/cms"
	"marquee/internal/config"
	"marquee/internal/daemon"
	"marquee/internal/engine"
	"marquee/internal/identity"
	"marquee/internal/ipc"
	"marquee/internal/journal"
	"marquee/internal/logging"
	"marquee/internal/mediacache"
	"marquee/internal/notify"
	"marquee/internal/player"
	"marquee/internal/render"
	"marquee/internal/schedule"
	"marquee/internal/ticker"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, _, _, err := config.Load("")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		log.Fatalf("prepare directories: %v", err)
	}

	logger, err := logging.New(logging.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		OutputPaths: []string{
			"stdout",
			filepath.Join(cfg.Paths.LogDir, "marquee.log"),
		},
	})
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}

	idStore := identity.NewStore(cfg.Paths.DataDir)
	record, err := idStore.Load(cfg.Player.Name, cfg.Player.Location)
	if err != nil {
		logger.Error("load identity", logging.Error(err))
		return
	}
	device, err := idStore.DescribeDevice(cfg.Player.ScreenWidth, cfg.Player.ScreenHeight)
	if err != nil {
		logger.Warn("describe device", logging.Error(err))
	}

	client, err := cms.New(cfg.CMS.BaseURL, record,
		cms.WithHTTPClient(cfg.HTTPClient()))
	if err != nil {
		logger.Error("create cms client", logging.Error(err))
		return
	}

	cache, err := mediacache.New(cfg.Paths.MediaCacheDir, logger,
		mediacache.WithSizeVerification(cfg.Cache.VerifySize),
		mediacache.WithHTTPClient(cfg.DownloadClient()))
	if err != nil {
		logger.Error("create media cache", logging.Error(err))
		return
	}

	journalStore, err := journal.Open(cfg.Paths.DataDir)
	if err != nil {
		logger.Error("open playback journal", logging.Error(err))
		return
	}
	defer journalStore.Close()

	renderer := render.NewHeadless(logger)
	playlist := player.New(renderer, float64(cfg.Player.DefaultImageDuration), logger)
	scroller := ticker.New(cfg.Ticker.Text, float64(cfg.Ticker.Speed),
		float64(cfg.Player.ScreenWidth), float64(cfg.Ticker.Margin))

	sessionID := uuid.NewString()
	push := bridge.New(cfg.CMS.WebsocketURL, record, sessionID,
		time.Duration(cfg.Player.HeartbeatInterval)*time.Second, logger)

	eng := engine.New(engine.Options{
		Client:             client,
		Push:               push,
		Record:             record,
		Identity:           idStore,
		Cache:              cache,
		Store:              schedule.NewStore(cfg.Paths.DataDir),
		Journal:            journalStore,
		Notifier:           notify.NewService(cfg),
		Ticker:             scroller,
		Player:             playlist,
		Renderer:           renderer,
		Logger:             logger,
		PollInterval:       time.Duration(cfg.Player.PollInterval) * time.Second,
		ErrorBackoff:       time.Duration(cfg.Player.ErrorBackoffSeconds) * time.Second,
		DefaultTickerText:  cfg.Ticker.Text,
		DefaultTickerSpeed: cfg.Ticker.Speed,
		Device:             device,
	})

	d, err := daemon.New(daemon.Options{
		Config:   cfg,
		Logger:   logger,
		Engine:   eng,
		Push:     push,
		Ticker:   scroller,
		Renderer: renderer,
		Journal:  journalStore,
		CacheDir: cache.Dir(),
	})
	if err != nil {
		logger.Error("create daemon", logging.Error(err))
		return
	}

	ipcServer, err := ipc.NewServer(ctx, cfg.Paths.SocketPath, d, logger)
	if err != nil {
		logger.Error("start IPC server", logging.Error(err))
		return
	}
	defer ipcServer.Close()
	ipcServer.Serve()

	if err := d.Run(ctx); err != nil {
		logger.Error("daemon exited", logging.Error(err))
		return
	}
	logger.Info("marqueed shut down cleanly")
}
