package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"

	"github.com/use-agent/sitecheck/artifact"
	"github.com/use-agent/sitecheck/config"
	"github.com/use-agent/sitecheck/models"
	"github.com/use-agent/sitecheck/runner"
	"github.com/use-agent/sitecheck/session"
)

func main() {
	// ── 1. Load configuration ───────────────────────────────────────
	cfg := config.Load()
	initLogger(cfg.Log)

	targetsPath := "targets.yaml"
	if len(os.Args) > 1 {
		targetsPath = os.Args[1]
	}

	// Missing credentials or a broken targets file are the only fatal,
	// whole-process errors; they surface before any target runs.
	targets, err := config.LoadTargets(targetsPath)
	if err != nil {
		slog.Error("failed to load targets", "path", targetsPath, "error", err)
		os.Exit(1)
	}

	runID := uuid.NewString()
	slog.Info("sitecheck starting",
		"runID", runID,
		"targets", len(targets),
		"remote", cfg.Provisioner.Endpoint != "",
	)

	// ── 2. Wire the pipeline ────────────────────────────────────────
	store := artifact.NewStore(cfg.Artifacts.Dir, runID)
	prov := session.NewProvisioner(cfg.Provisioner)
	acquire := runner.ProvisionerFunc(
		func(ctx context.Context, caps models.Capabilities) (runner.Session, error) {
			return prov.Acquire(ctx, caps)
		})
	run := runner.New(acquire, store, cfg.Pacing, cfg.Runner)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── 3. Run all targets sequentially ─────────────────────────────
	results := run.RunAll(ctx, targets)

	// ── 4. Print the aggregate summary ──────────────────────────────
	passed := 0
	fmt.Println()
	fmt.Println("=== verification summary ===")
	for _, r := range results {
		mark := "FAIL"
		if r.Success {
			mark = "PASS"
			passed++
		}
		fmt.Printf("[%s] %s: %s\n", mark, r.Target, r.Message)
		if r.ArtifactPath != "" {
			fmt.Printf("       artifact: %s\n", r.ArtifactPath)
		}
	}
	fmt.Printf("%d/%d targets verified (artifacts in %s)\n", passed, len(results), store.Dir())

	if passed < len(results) {
		os.Exit(1)
	}
}

// initLogger configures slog based on the LogConfig.
func initLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	slog.SetDefault(slog.New(handler))
}
