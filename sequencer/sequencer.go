// Package sequencer executes a target's ordered interaction steps against a
// live page. A step failure aborts the remaining sequence for that target;
// isolation across targets is the runner's job.
package sequencer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/use-agent/sitecheck/artifact"
	"github.com/use-agent/sitecheck/browser"
	"github.com/use-agent/sitecheck/config"
	"github.com/use-agent/sitecheck/models"
	"github.com/use-agent/sitecheck/pacing"
)

// Default query surfaces for browse steps: search boxes come as inputs or
// textareas depending on the site, so both are tried.
var defaultQuerySelectors = []string{`input[name="q"]`, `textarea[name="q"]`}

const defaultMaxTitles = 5

const defaultScrolls = 3

// Sequencer drives interaction steps, pausing a human-ish random interval
// between them and capturing checkpoint artifacts around submissions.
type Sequencer struct {
	store  *artifact.Store
	pacing config.PacingConfig
}

// New creates a Sequencer.
func New(store *artifact.Store, pacingCfg config.PacingConfig) *Sequencer {
	return &Sequencer{store: store, pacing: pacingCfg}
}

// Run navigates to the target's entry URL and then executes its steps in
// order. An empty step list is a pure reachability check: entry navigation
// alone. The first failing step aborts the rest.
func (s *Sequencer) Run(ctx context.Context, page browser.Page, target models.Target) error {
	if err := page.Navigate(ctx, target.URL, models.DefaultSettleTimeout); err != nil {
		return err
	}

	for i, step := range target.Steps {
		if err := pacing.Sleep(ctx, s.pacing.StepPauseMin, s.pacing.StepPauseMax); err != nil {
			return err
		}
		if err := s.runStep(ctx, page, target.Name, step); err != nil {
			return models.NewCheckError(models.ErrCodeStepFailed,
				fmt.Sprintf("step %d (%s) failed after %d completed", i, step.Type, i), err)
		}
	}
	return nil
}

func (s *Sequencer) runStep(ctx context.Context, page browser.Page, targetName string, step models.Step) error {
	switch step.Type {
	case models.StepNavigate:
		return page.Navigate(ctx, step.URL, step.Timeout())

	case models.StepFill:
		return page.Fill(ctx, step.Selector, step.Value, step.Timeout())

	case models.StepSubmit:
		return s.runSubmit(ctx, page, targetName, step)

	case models.StepBrowse:
		return s.runBrowse(ctx, page, step)

	case models.StepCustom:
		return runCustom(ctx, page, step)

	default:
		return fmt.Errorf("unknown step type: %q", step.Type)
	}
}

// runSubmit captures a pre-submission checkpoint, triggers the submission,
// and waits best-effort for the page to settle. The settle wait is
// swallowed on failure: not every submission navigates, and the outcome
// arbiter owns the real decision.
func (s *Sequencer) runSubmit(ctx context.Context, page browser.Page, targetName string, step models.Step) error {
	s.store.CaptureQuiet(ctx, page, targetName+"-pre-submit")

	if err := page.Click(ctx, step.Selector, step.Timeout()); err != nil {
		return err
	}

	if err := page.WaitSettled(ctx, step.Timeout()); err != nil {
		slog.Debug("page did not settle after submit, proceeding to signal race",
			"target", targetName, "error", err)
	}
	return nil
}

// runBrowse performs the composite search flow: find whichever query
// surface exists, type the query, open the results, log a bounded number of
// result titles, open the first result, read it with paced scrolls, and
// navigate back.
func (s *Sequencer) runBrowse(ctx context.Context, page browser.Page, step models.Step) error {
	querySelectors := step.QuerySelectors
	if len(querySelectors) == 0 {
		querySelectors = defaultQuerySelectors
	}

	inputSel, err := page.WaitAny(ctx, querySelectors, step.Timeout())
	if err != nil {
		return err
	}

	if err := page.Fill(ctx, inputSel, step.Query, step.Timeout()); err != nil {
		return err
	}
	if err := pacing.Sleep(ctx, s.pacing.StepPauseMin, s.pacing.StepPauseMax); err != nil {
		return err
	}
	if err := page.PressEnter(ctx, inputSel); err != nil {
		return err
	}

	if err := page.WaitFor(ctx, step.ResultSelector, step.Timeout()); err != nil {
		return err
	}

	maxTitles := step.MaxTitles
	if maxTitles <= 0 {
		maxTitles = defaultMaxTitles
	}
	titles, err := page.Texts(ctx, step.ResultSelector, maxTitles)
	if err != nil {
		return err
	}
	slog.Info("search results", "query", step.Query, "titles", titles)

	// Open the first result and simulate reading it.
	if err := page.Click(ctx, step.ResultSelector, step.Timeout()); err != nil {
		return err
	}
	if err := page.WaitSettled(ctx, step.Timeout()); err != nil {
		slog.Debug("result page did not settle, scrolling anyway", "error", err)
	}

	scrolls := step.Scrolls
	if scrolls <= 0 {
		scrolls = defaultScrolls
	}
	for i := 0; i < scrolls; i++ {
		if err := page.Scroll(ctx, 1); err != nil {
			return err
		}
		if err := pacing.Sleep(ctx, s.pacing.StepPauseMin, s.pacing.StepPauseMax); err != nil {
			return err
		}
	}

	return page.Back(ctx)
}
