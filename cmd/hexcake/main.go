// Command hexcake builds hex board levels and serves them over HTTP.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/talgya/hexcake/internal/api"
	"github.com/talgya/hexcake/internal/config"
	"github.com/talgya/hexcake/internal/engine"
	"github.com/talgya/hexcake/internal/persistence"
)

func main() {
	configPath := flag.String("config", "", "path to config file (default: ./hexcake.yaml if present)")
	fresh := flag.Bool("fresh", false, "build a new level instead of restoring the last one")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "hexcake:", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLevel(cfg.LogLevel),
	}))
	slog.SetDefault(logger)

	slog.Info("hexcake starting",
		"board", fmt.Sprintf("%dx%d", cfg.Board.Rows, cfg.Board.Cols),
		"terrain", cfg.Terrain.Mode,
	)

	// ── Database ──────────────────────────────────────────────────────
	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0755); err != nil {
		slog.Error("failed to create data directory", "error", err)
		os.Exit(1)
	}
	db, err := persistence.Open(cfg.DBPath)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	slog.Info("database opened", "path", cfg.DBPath)

	// ── Level ─────────────────────────────────────────────────────────
	levels, err := engine.NewManager(cfg, db)
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	restored := false
	if !*fresh {
		if restored, err = levels.Restore(ctx); err != nil {
			slog.Warn("could not restore last level, building a new one", "error", err)
		}
	}
	if !restored {
		if _, err := levels.Rebuild(ctx, cfg.Terrain.Seed); err != nil {
			slog.Error("failed to build level", "error", err)
			os.Exit(1)
		}
	}

	// ── HTTP API ──────────────────────────────────────────────────────
	if cfg.API.AdminKey == "" {
		slog.Warn("api.adminKey not set, admin POST endpoints will be disabled")
	}
	apiServer := &api.Server{
		Levels:         levels,
		Port:           cfg.API.Port,
		AdminKey:       cfg.API.AdminKey,
		RebuildPerHour: cfg.API.RebuildPerHour,
		TrustProxy:     cfg.API.TrustProxy,
	}
	apiServer.Start()

	fmt.Printf("API: http://localhost:%d/api/v1/status\n", cfg.API.Port)

	// ── Wait ──────────────────────────────────────────────────────────
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	slog.Info("received signal, shutting down", "signal", sig)

	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP shutdown failed", "error", err)
	}
	fmt.Println("hexcake stopped.")
}

// parseLevel converts a config log level to slog.Level. Unknown values log at info.
func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
