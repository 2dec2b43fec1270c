package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all process-level configuration. Per-target settings live in
// the targets file (see LoadTargets).
type Config struct {
	Provisioner ProvisionerConfig
	Artifacts   ArtifactConfig
	Pacing      PacingConfig
	Runner      RunnerConfig
	Log         LogConfig
}

// ProvisionerConfig controls how browser sessions are obtained.
type ProvisionerConfig struct {
	// Endpoint is the remote CDP websocket endpoint (e.g. a browserless
	// deployment). When empty, a local headless browser is launched instead.
	Endpoint string

	// Token authenticates against the remote endpoint. Required when
	// Endpoint is set.
	Token string

	// ProxyURL is the egress proxy handed to sessions that request one.
	ProxyURL string

	// NoSandbox disables Chrome's sandbox for local launches (needed in Docker).
	NoSandbox bool // default: false

	// BrowserBin overrides the Chromium binary path for local launches.
	BrowserBin string
}

// ArtifactConfig controls checkpoint snapshot storage.
type ArtifactConfig struct {
	// Dir is the root directory for captured screenshots.
	Dir string // default: "artifacts"
}

// PacingConfig bounds the randomized human-pacing delays.
type PacingConfig struct {
	// StepPauseMin/Max bound the pause between interaction steps.
	StepPauseMin time.Duration // default: 500ms
	StepPauseMax time.Duration // default: 2s

	// TargetPauseMin/Max bound the pause between independent targets.
	TargetPauseMin time.Duration // default: 2s
	TargetPauseMax time.Duration // default: 6s
}

// RunnerConfig controls the sequential target loop.
type RunnerConfig struct {
	// SessionsPerMinute caps the session acquisition rate across targets.
	SessionsPerMinute float64 // default: 6
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string // default: "info"
	Format string // "json" or "text"; default: "json"
}

// Load reads configuration from environment variables with sane defaults.
func Load() *Config {
	return &Config{
		Provisioner: ProvisionerConfig{
			Endpoint:   os.Getenv("SITECHECK_ENDPOINT"),
			Token:      os.Getenv("SITECHECK_TOKEN"),
			ProxyURL:   os.Getenv("SITECHECK_PROXY"),
			NoSandbox:  envBoolOr("SITECHECK_NO_SANDBOX", false),
			BrowserBin: os.Getenv("SITECHECK_BROWSER_BIN"),
		},
		Artifacts: ArtifactConfig{
			Dir: envOr("SITECHECK_ARTIFACT_DIR", "artifacts"),
		},
		Pacing: PacingConfig{
			StepPauseMin:   envDurationOr("SITECHECK_STEP_PAUSE_MIN", 500*time.Millisecond),
			StepPauseMax:   envDurationOr("SITECHECK_STEP_PAUSE_MAX", 2*time.Second),
			TargetPauseMin: envDurationOr("SITECHECK_TARGET_PAUSE_MIN", 2*time.Second),
			TargetPauseMax: envDurationOr("SITECHECK_TARGET_PAUSE_MAX", 6*time.Second),
		},
		Runner: RunnerConfig{
			SessionsPerMinute: envFloatOr("SITECHECK_SESSIONS_PER_MINUTE", 6.0),
		},
		Log: LogConfig{
			Level:  envOr("SITECHECK_LOG_LEVEL", "info"),
			Format: envOr("SITECHECK_LOG_FORMAT", "json"),
		},
	}
}

// --- helper functions ---

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envBoolOr(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envFloatOr(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
