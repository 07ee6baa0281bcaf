package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/sjvdm/roadprog/internal/cache"
	"github.com/sjvdm/roadprog/internal/config"
	"github.com/sjvdm/roadprog/internal/daemon"
	"github.com/sjvdm/roadprog/internal/dashboard"
	"github.com/sjvdm/roadprog/internal/ui"
)

var serveCmd = &cobra.Command{
	Use:     "serve",
	GroupID: "sync",
	Short:   "Start the live progress dashboard",
	Long: `Start the dashboard server with its watch daemon.

The daemon mirrors the completion log and override file into a sqlite
cache and resyncs whenever they change, so edits made by any process (or
pulled from the remote) show up live. The server exposes:

  /api/status    per-suburb status table
  /api/summary   per-editor progress
  /api/progress  overall completion
  /api/editors   roster editors
  /api/stats     cache statistics
  /ws            WebSocket feed of completion/reassignment/stats events
  /health        health check

Example usage:
  roadprog serve                # default port 8080
  roadprog serve --port 9000`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		logger, cleanup := serveLogger(cfg)
		defer cleanup()

		a, err := buildAppWith(cfg, logger)
		if err != nil {
			return err
		}

		port, _ := cmd.Flags().GetInt("port")
		if port == 0 {
			port = a.cfg.Port
		}

		db, err := cache.Open(a.cfg.CacheFile)
		if err != nil {
			return fmt.Errorf("failed to open cache: %w", err)
		}
		defer db.Close()

		if err := db.InitSchema(); err != nil {
			return fmt.Errorf("failed to initialize cache schema: %w", err)
		}

		server := dashboard.NewServer(&dashboard.Config{
			Port:   port,
			API:    dashboard.NewAPI(db, a.tracker, logger),
			Logger: logger,
		})
		if err := server.Start(); err != nil {
			return fmt.Errorf("failed to start dashboard: %w", err)
		}

		daemonCfg := daemon.DefaultConfig()
		daemonCfg.Logger = logger
		daemonCfg.OnSync = func(stats cache.Stats, duration time.Duration) {
			dashboard.BroadcastSync(server, stats, duration)
		}

		d, err := daemon.New(a.tracker, db, a.cfg.DataDir, dataFilePaths(a.cfg), daemonCfg)
		if err != nil {
			_ = server.Stop()
			return fmt.Errorf("failed to create watch daemon: %w", err)
		}

		fmt.Printf("%s Dashboard started on http://localhost:%d\n", ui.RenderAccent("▶"), port)
		fmt.Printf("   WebSocket feed: ws://localhost:%d/ws\n", port)
		fmt.Printf("   Watching: %s\n", a.cfg.DataDir)
		fmt.Println("\nPress Ctrl+C to stop...")

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		// Daemon blocks until the context is cancelled.
		daemonErr := d.Start(ctx)

		fmt.Println("\nShutting down...")
		if err := server.Stop(); err != nil {
			return fmt.Errorf("error during dashboard shutdown: %w", err)
		}
		if daemonErr != nil {
			return fmt.Errorf("watch daemon stopped with error: %w", daemonErr)
		}

		fmt.Println("Dashboard stopped")
		return nil
	},
}

// serveLogger builds the serve-mode logger: stderr by default, a rotated
// file when log_file is configured.
func serveLogger(cfg config.Config) (*log.Logger, func()) {
	if cfg.LogFile == "" {
		return log.New(os.Stderr, "[serve] ", log.LstdFlags), func() {}
	}

	rotator := &lumberjack.Logger{
		Filename:   cfg.LogFile,
		MaxSize:    10, // megabytes
		MaxBackups: 3,
		MaxAge:     28, // days
	}
	writer := io.MultiWriter(os.Stderr, rotator)
	return log.New(writer, "[serve] ", log.LstdFlags), func() { _ = rotator.Close() }
}

func init() {
	serveCmd.Flags().IntP("port", "p", 0, "Port to listen on (default from config, 8080)")
	rootCmd.AddCommand(serveCmd)
}
