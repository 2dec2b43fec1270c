// Package artifact persists checkpoint screenshots. Artifacts are
// append-only: filenames embed a nanosecond timestamp, so repeated captures
// under the same logical name never collide and nothing is ever overwritten.
package artifact

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/use-agent/sitecheck/browser"
	"github.com/use-agent/sitecheck/models"
)

// captureTimeout bounds a single screenshot round-trip.
const captureTimeout = 10 * time.Second

// Store writes captured snapshots under a single run directory.
type Store struct {
	dir string
}

// NewStore creates a store rooted at dir/runID. The directory itself is
// created lazily on first capture.
func NewStore(dir, runID string) *Store {
	return &Store{dir: filepath.Join(dir, runID)}
}

// Dir returns the directory captures are written to.
func (s *Store) Dir() string {
	return s.dir
}

// Capture screenshots the page under the given logical checkpoint name and
// returns a reference to the stored file.
func (s *Store) Capture(ctx context.Context, page browser.Page, logicalName string) (models.ArtifactRef, error) {
	// MkdirAll is a no-op when the directory already exists, so captures
	// are safe to repeat (and would stay safe under concurrent stores).
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return models.ArtifactRef{}, models.NewCheckError(models.ErrCodeArtifactCapture,
			"failed to create artifact directory", err)
	}

	captureCtx, cancel := context.WithTimeout(ctx, captureTimeout)
	defer cancel()

	data, err := page.Screenshot(captureCtx)
	if err != nil {
		return models.ArtifactRef{}, models.NewCheckError(models.ErrCodeArtifactCapture,
			fmt.Sprintf("screenshot for checkpoint %q failed", logicalName), err)
	}

	now := time.Now()
	path := filepath.Join(s.dir, fmt.Sprintf("%s-%d.png", logicalName, now.UnixNano()))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return models.ArtifactRef{}, models.NewCheckError(models.ErrCodeArtifactCapture,
			fmt.Sprintf("failed to write artifact %q", path), err)
	}

	slog.Debug("artifact captured", "checkpoint", logicalName, "path", path)
	return models.ArtifactRef{Path: path, Name: logicalName, CapturedAt: now}, nil
}

// CaptureQuiet is Capture for error-handling paths: failures are logged and
// swallowed so a diagnostic snapshot can never mask the original error. It
// returns the stored path, or "" when the capture failed.
func (s *Store) CaptureQuiet(ctx context.Context, page browser.Page, logicalName string) string {
	ref, err := s.Capture(ctx, page, logicalName)
	if err != nil {
		slog.Warn("checkpoint capture failed", "checkpoint", logicalName, "error", err)
		return ""
	}
	return ref.Path
}
