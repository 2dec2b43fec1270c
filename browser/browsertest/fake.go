// Package browsertest provides a scriptable in-memory Page for tests that
// exercise sequencing, racing, and capture logic without a live browser.
package browsertest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/use-agent/sitecheck/browser"
)

// FakePage implements browser.Page. Selector appearance is simulated with
// per-selector delays; everything else records the call and returns the
// configured result.
type FakePage struct {
	mu sync.Mutex

	// Appears maps a selector to the delay after which waits on it
	// succeed. Selectors not in the map never appear.
	Appears map[string]time.Duration

	// Present lists selectors Has reports as immediately present.
	Present map[string]bool

	// TextsResult is returned by Texts.
	TextsResult []string

	// Per-call error injection. NavigateSettleErr fails the settle wait
	// that Navigate itself performs, which is fatal; SettleErr fails only
	// explicit WaitSettled calls.
	NavigateErr       error
	NavigateSettleErr error
	SettleErr         error
	WaitForErr        error
	HasErr            error
	FillErr           error
	ClickErr          error
	ScreenshotErr     error

	// ScreenshotData is the image returned by a successful Screenshot.
	ScreenshotData []byte

	calls []string
}

var _ browser.Page = (*FakePage)(nil)

func (f *FakePage) record(format string, args ...any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, fmt.Sprintf(format, args...))
}

// Calls returns the recorded call log in order.
func (f *FakePage) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	copy(out, f.calls)
	return out
}

func (f *FakePage) Navigate(ctx context.Context, url string, settle time.Duration) error {
	f.record("navigate %s", url)
	if f.NavigateErr != nil {
		return f.NavigateErr
	}
	return f.NavigateSettleErr
}

func (f *FakePage) WaitSettled(ctx context.Context, timeout time.Duration) error {
	f.record("settle")
	return f.SettleErr
}

// waitAppear blocks until the selector's configured delay elapses, or the
// earlier of ctx and timeout expires.
func (f *FakePage) waitAppear(ctx context.Context, selector string, timeout time.Duration) error {
	f.mu.Lock()
	delay, appears := f.Appears[selector]
	f.mu.Unlock()

	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if !appears {
		<-waitCtx.Done()
		return waitCtx.Err()
	}

	t := time.NewTimer(delay)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-waitCtx.Done():
		return waitCtx.Err()
	}
}

func (f *FakePage) WaitFor(ctx context.Context, selector string, timeout time.Duration) error {
	f.record("waitfor %s", selector)
	if f.WaitForErr != nil {
		return f.WaitForErr
	}
	return f.waitAppear(ctx, selector, timeout)
}

func (f *FakePage) WaitAny(ctx context.Context, selectors []string, timeout time.Duration) (string, error) {
	f.record("waitany %v", selectors)

	best := ""
	bestDelay := time.Duration(-1)
	f.mu.Lock()
	for _, sel := range selectors {
		if d, ok := f.Appears[sel]; ok && (bestDelay < 0 || d < bestDelay) {
			best, bestDelay = sel, d
		}
	}
	f.mu.Unlock()

	if best == "" {
		waitCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		<-waitCtx.Done()
		return "", waitCtx.Err()
	}
	if err := f.waitAppear(ctx, best, timeout); err != nil {
		return "", err
	}
	return best, nil
}

func (f *FakePage) Has(selector string) (bool, error) {
	f.record("has %s", selector)
	if f.HasErr != nil {
		return false, f.HasErr
	}
	return f.Present[selector], nil
}

func (f *FakePage) Fill(ctx context.Context, selector, value string, timeout time.Duration) error {
	f.record("fill %s", selector)
	return f.FillErr
}

func (f *FakePage) Click(ctx context.Context, selector string, timeout time.Duration) error {
	f.record("click %s", selector)
	return f.ClickErr
}

func (f *FakePage) PressEnter(ctx context.Context, selector string) error {
	f.record("enter %s", selector)
	return nil
}

func (f *FakePage) Texts(ctx context.Context, selector string, limit int) ([]string, error) {
	f.record("texts %s", selector)
	if len(f.TextsResult) > limit {
		return f.TextsResult[:limit], nil
	}
	return f.TextsResult, nil
}

func (f *FakePage) Scroll(ctx context.Context, screens int) error {
	f.record("scroll %d", screens)
	return nil
}

func (f *FakePage) Back(ctx context.Context) error {
	f.record("back")
	return nil
}

func (f *FakePage) Eval(ctx context.Context, js string) error {
	f.record("eval")
	return nil
}

func (f *FakePage) Screenshot(ctx context.Context) ([]byte, error) {
	f.record("screenshot")
	if f.ScreenshotErr != nil {
		return nil, f.ScreenshotErr
	}
	if f.ScreenshotData != nil {
		return f.ScreenshotData, nil
	}
	return []byte("png"), nil
}

func (f *FakePage) Close() error {
	f.record("close")
	return nil
}
