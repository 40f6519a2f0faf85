// Command hexprobe reads the level a hexcake server is serving and prints
// terrain statistics. With HEXPROBE_INTERVAL set it keeps watching.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/talgya/hexcake/internal/probe"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	apiURL := envOrDefault("HEXPROBE_API_URL", "http://localhost:8080")
	intervalSec := envIntOrDefault("HEXPROBE_INTERVAL", 0)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	observer := probe.NewObserver(apiURL)
	if !waitForAPI(ctx, observer) {
		os.Exit(1)
	}

	if intervalSec <= 0 {
		if !runProbe(ctx, observer) {
			os.Exit(1)
		}
		return
	}

	ticker := time.NewTicker(time.Duration(intervalSec) * time.Second)
	defer ticker.Stop()
	for {
		runProbe(ctx, observer)
		select {
		case <-ticker.C:
		case <-ctx.Done():
			slog.Info("shutting down")
			return
		}
	}
}

// runProbe observes once and prints the report. Reports false on failure
// or when the level is inconsistent.
func runProbe(ctx context.Context, observer *probe.Observer) bool {
	snap, err := observer.Observe(ctx)
	if err != nil {
		slog.Error("observation failed", "error", err)
		return false
	}
	report := probe.Analyze(snap)
	fmt.Print(probe.Format(snap, report))
	if !report.Healthy() {
		slog.Warn("level is inconsistent", "problems", len(report.Problems))
	}
	return report.Healthy()
}

func envOrDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envIntOrDefault(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultVal
}

// waitForAPI polls the status endpoint with exponential backoff until a
// level is being served. Gives up after 2 minutes.
func waitForAPI(ctx context.Context, observer *probe.Observer) bool {
	backoff := time.Second
	maxBackoff := 15 * time.Second
	deadline := time.Now().Add(2 * time.Minute)

	for {
		if observer.Ready(ctx) {
			return true
		}
		if time.Now().After(deadline) {
			slog.Error("hexcake API did not become ready within 2 minutes", "url", observer.BaseURL)
			return false
		}
		slog.Info("hexcake not ready, retrying...", "backoff", backoff)
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return false
		}
		backoff = min(backoff*2, maxBackoff)
	}
}
