// Package arbiter resolves the outcome of a target run by racing completion
// signals. Remote pages vary in how they express success: some navigate,
// some inject a class, some just stop showing a spinner. A single fixed
// wait is unreliable across that variety, so the arbiter races independent
// signal waits and falls back to a cheap poll when nothing fires.
package arbiter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/use-agent/sitecheck/browser"
	"github.com/use-agent/sitecheck/models"
)

// Resolve races a wait for successSelector against a wait for
// failureSelector (when defined), each bounded by timeout. The first signal
// to appear determines the verdict; the loser is abandoned.
//
// If neither signal fires within the budget, a single non-waiting existence
// check for successSelector decides: present resolves a lower-confidence
// success, absent resolves Inconclusive. Errors raised while racing are
// mapped to Inconclusive, never propagated — the arbiter always returns a
// complete verdict.
func Resolve(ctx context.Context, page browser.Page, successSelector, failureSelector string, timeout time.Duration) models.Verdict {
	type signal struct {
		kind models.VerdictKind
		err  error
	}

	raceCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	// Buffered so the abandoned loser can still send and exit.
	signals := make(chan signal, 2)
	watch := func(kind models.VerdictKind, selector string) {
		go func() {
			err := page.WaitFor(raceCtx, selector, timeout)
			signals <- signal{kind: kind, err: err}
		}()
	}

	watch(models.SuccessSignalObserved, successSelector)
	waiters := 1
	if failureSelector != "" {
		watch(models.FailureSignalObserved, failureSelector)
		waiters = 2
	}

	var lastErr error
	for i := 0; i < waiters; i++ {
		s := <-signals
		if s.err == nil {
			// First signal to appear wins; cancel abandons the other wait.
			cancel()
			switch s.kind {
			case models.SuccessSignalObserved:
				return models.Verdict{
					Kind:   models.SuccessSignalObserved,
					Reason: fmt.Sprintf("success indicator %q observed", successSelector),
				}
			default:
				return models.Verdict{
					Kind:   models.FailureSignalObserved,
					Reason: fmt.Sprintf("failure indicator %q observed", failureSelector),
				}
			}
		}
		lastErr = s.err
	}

	// No signal fired. Poll once: slow pages sometimes render the success
	// state moments after the waits give up.
	present, hasErr := page.Has(successSelector)
	if hasErr == nil && present {
		return models.Verdict{
			Kind:   models.SuccessSignalObserved,
			Reason: fmt.Sprintf("success indicator %q present after signal wait expired, appears successful", successSelector),
		}
	}
	if hasErr != nil {
		slog.Debug("fallback existence check failed", "selector", successSelector, "error", hasErr)
		return models.Verdict{
			Kind:   models.Inconclusive,
			Reason: fmt.Sprintf("status unclear: %v", hasErr),
		}
	}

	if lastErr != nil && !isTimeout(lastErr) {
		return models.Verdict{
			Kind:   models.Inconclusive,
			Reason: fmt.Sprintf("status unclear: %v", lastErr),
		}
	}
	return models.Verdict{
		Kind:   models.Inconclusive,
		Reason: "status unclear: no completion signal observed within budget",
	}
}

func isTimeout(err error) bool {
	return errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)
}
