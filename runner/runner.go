// Package runner sequences target executions. Targets run strictly one at
// a time: concurrent sessions against detection-sensitive endpoints invite
// rate limits and cross-session correlation, and one live remote session at
// a time keeps resource usage predictable.
package runner

import (
	"context"
	"log/slog"

	"golang.org/x/time/rate"

	"github.com/use-agent/sitecheck/arbiter"
	"github.com/use-agent/sitecheck/artifact"
	"github.com/use-agent/sitecheck/browser"
	"github.com/use-agent/sitecheck/config"
	"github.com/use-agent/sitecheck/models"
	"github.com/use-agent/sitecheck/pacing"
	"github.com/use-agent/sitecheck/sequencer"
)

// Session is the runner's view of an acquired browser session.
type Session interface {
	Page(ctx context.Context) (browser.Page, error)
	InspectURL() string
	Release() error
}

// Provisioner acquires sessions for targets.
type Provisioner interface {
	Acquire(ctx context.Context, caps models.Capabilities) (Session, error)
}

// ProvisionerFunc adapts a function to the Provisioner interface.
type ProvisionerFunc func(ctx context.Context, caps models.Capabilities) (Session, error)

// Acquire calls f.
func (f ProvisionerFunc) Acquire(ctx context.Context, caps models.Capabilities) (Session, error) {
	return f(ctx, caps)
}

// Runner executes targets sequentially, isolating each one's failures and
// guaranteeing its session is released before the next target starts.
type Runner struct {
	prov    Provisioner
	store   *artifact.Store
	seq     *sequencer.Sequencer
	limiter *rate.Limiter
	pacing  config.PacingConfig
}

// New creates a Runner. The rate limiter bounds how fast sessions are
// acquired across consecutive targets.
func New(prov Provisioner, store *artifact.Store, pacingCfg config.PacingConfig, runnerCfg config.RunnerConfig) *Runner {
	perMinute := runnerCfg.SessionsPerMinute
	if perMinute <= 0 {
		perMinute = 6
	}
	return &Runner{
		prov:    prov,
		store:   store,
		seq:     sequencer.New(store, pacingCfg),
		limiter: rate.NewLimiter(rate.Limit(perMinute/60.0), 1),
		pacing:  pacingCfg,
	}
}

// RunAll processes the targets in list order and returns exactly one
// VerificationResult per target, in the same order. No per-target failure
// stops the loop.
func (r *Runner) RunAll(ctx context.Context, targets []models.Target) []models.VerificationResult {
	results := make([]models.VerificationResult, 0, len(targets))
	for i, target := range targets {
		if i > 0 {
			if err := pacing.Sleep(ctx, r.pacing.TargetPauseMin, r.pacing.TargetPauseMax); err != nil {
				slog.Warn("run interrupted between targets", "error", err)
			}
		}
		if err := r.limiter.Wait(ctx); err != nil {
			slog.Warn("session rate limiter interrupted", "error", err)
		}

		result := r.runOne(ctx, target)
		if result.Success {
			slog.Info("target verified", "target", result.Target, "message", result.Message)
		} else {
			slog.Warn("target failed", "target", result.Target, "message", result.Message)
		}
		results = append(results, result)
	}
	return results
}

// runOne executes a single target's pipeline: acquire, interact, arbitrate,
// capture, release. The deferred release runs on every exit path, so a
// session can never leak past its target.
func (r *Runner) runOne(ctx context.Context, target models.Target) (result models.VerificationResult) {
	result = models.VerificationResult{Target: target.Name}

	sess, err := r.prov.Acquire(ctx, target.Capabilities)
	if err != nil {
		result.Message = "session provisioning failed: " + err.Error()
		return result
	}
	defer func() {
		if relErr := sess.Release(); relErr != nil {
			slog.Warn("session release failed", "target", target.Name, "error", relErr)
		}
	}()

	slog.Info("running target", "target", target.Name, "url", target.URL,
		"inspectURL", sess.InspectURL())

	page, err := sess.Page(ctx)
	if err != nil {
		result.Message = "failed to open page: " + err.Error()
		return result
	}

	if err := r.seq.Run(ctx, page, target); err != nil {
		result.Message = "interaction sequence failed: " + err.Error()
		result.ArtifactPath = r.store.CaptureQuiet(ctx, page, target.Name+"-failure")
		return result
	}

	verdict := arbiter.Resolve(ctx, page, target.SuccessSelector, target.FailureSelector,
		target.VerdictTimeout())

	// Final artifact regardless of outcome.
	result.ArtifactPath = r.store.CaptureQuiet(ctx, page, target.Name+"-final")
	result.Success = verdict.Success()
	result.Message = verdict.Reason
	return result
}
