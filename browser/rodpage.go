package browser

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/input"
	"github.com/go-rod/rod/lib/proto"
	"github.com/ysmood/gson"

	"github.com/use-agent/sitecheck/models"
)

// domStableInterval and domStableDiff tune WaitDOMStable: the DOM is
// considered settled when under 10% of it changed across a 300ms window.
const (
	domStableInterval = 300 * time.Millisecond
	domStableDiff     = 0.1
)

// RodPage adapts a *rod.Page to the Page interface.
type RodPage struct {
	page *rod.Page
}

// NewRodPage wraps an already-created rod page.
func NewRodPage(page *rod.Page) *RodPage {
	return &RodPage{page: page}
}

// Navigate seeds a Referer header (pages arriving with no referrer at all
// look more automated than ones arriving from a search), loads the URL, and
// waits for the DOM to settle. A settle timeout fails the navigation: the
// page never reached a state the following steps can trust.
func (r *RodPage) Navigate(ctx context.Context, target string, settle time.Duration) error {
	p := r.page.Context(ctx)

	if u, parseErr := url.Parse(target); parseErr == nil && u.Hostname() != "" {
		headers := proto.NetworkHeaders{
			"Referer": gson.New("https://www.google.com/search?q=" + url.QueryEscape(u.Hostname())),
		}
		_ = proto.NetworkSetExtraHTTPHeaders{Headers: headers}.Call(p)
	}

	if err := p.Navigate(target); err != nil {
		return navError(err, fmt.Sprintf("navigation to %s failed", target))
	}

	return r.WaitSettled(ctx, settle)
}

func (r *RodPage) WaitSettled(ctx context.Context, timeout time.Duration) error {
	p := r.page.Context(ctx).Timeout(timeout)
	if err := p.WaitDOMStable(domStableInterval, domStableDiff); err != nil {
		return navError(err, "page did not settle within budget")
	}
	return nil
}

func (r *RodPage) WaitFor(ctx context.Context, selector string, timeout time.Duration) error {
	p := r.page.Context(ctx).Timeout(timeout)
	el, err := p.Element(selector)
	if err != nil {
		return elementError(err, selector)
	}
	if err := el.WaitVisible(); err != nil {
		return elementError(err, selector)
	}
	return nil
}

// WaitAny uses rod's element race so that whichever selector appears first
// wins; it fails only when none appear within the timeout.
func (r *RodPage) WaitAny(ctx context.Context, selectors []string, timeout time.Duration) (string, error) {
	p := r.page.Context(ctx).Timeout(timeout)

	var matched string
	race := p.Race()
	for _, sel := range selectors {
		sel := sel
		race = race.Element(sel).Handle(func(_ *rod.Element) error {
			matched = sel
			return nil
		})
	}
	if _, err := race.Do(); err != nil {
		return "", elementError(err, fmt.Sprintf("any of %v", selectors))
	}
	return matched, nil
}

func (r *RodPage) Has(selector string) (bool, error) {
	ok, _, err := r.page.Has(selector)
	return ok, err
}

func (r *RodPage) Fill(ctx context.Context, selector, value string, timeout time.Duration) error {
	p := r.page.Context(ctx).Timeout(timeout)
	el, err := p.Element(selector)
	if err != nil {
		return elementError(err, selector)
	}
	// Clear any pre-filled value before typing.
	if err := el.SelectAllText(); err == nil {
		_ = el.Type(input.Backspace)
	}
	if err := el.Input(value); err != nil {
		return fmt.Errorf("input into %q failed: %w", selector, err)
	}
	return nil
}

func (r *RodPage) Click(ctx context.Context, selector string, timeout time.Duration) error {
	p := r.page.Context(ctx).Timeout(timeout)
	el, err := p.Element(selector)
	if err != nil {
		return elementError(err, selector)
	}
	if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return fmt.Errorf("click on %q failed: %w", selector, err)
	}
	return nil
}

func (r *RodPage) PressEnter(ctx context.Context, selector string) error {
	p := r.page.Context(ctx)
	el, err := p.Element(selector)
	if err != nil {
		return elementError(err, selector)
	}
	return el.Type(input.Enter)
}

func (r *RodPage) Texts(ctx context.Context, selector string, limit int) ([]string, error) {
	p := r.page.Context(ctx)
	els, err := p.Elements(selector)
	if err != nil {
		return nil, elementError(err, selector)
	}
	texts := make([]string, 0, limit)
	for _, el := range els {
		if len(texts) >= limit {
			break
		}
		text, textErr := el.Text()
		if textErr != nil {
			continue
		}
		texts = append(texts, text)
	}
	return texts, nil
}

// Scroll moves by whole viewport heights with a short pause between steps
// so lazy-loaded content gets a chance to trigger.
func (r *RodPage) Scroll(ctx context.Context, screens int) error {
	p := r.page.Context(ctx)

	res, err := p.Eval(`() => window.innerHeight`)
	if err != nil {
		return fmt.Errorf("failed to get viewport height: %w", err)
	}
	viewportHeight := res.Value.Int()

	steps := screens
	if steps < 0 {
		steps = -steps
	}
	for i := 0; i < steps; i++ {
		delta := float64(viewportHeight)
		if screens < 0 {
			delta = -delta
		}
		if err := p.Mouse.Scroll(0, delta, 1); err != nil {
			return fmt.Errorf("scroll step %d failed: %w", i, err)
		}
		select {
		case <-time.After(100 * time.Millisecond):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func (r *RodPage) Back(ctx context.Context) error {
	p := r.page.Context(ctx)
	if err := p.NavigateBack(); err != nil {
		return navError(err, "history navigation failed")
	}
	return nil
}

func (r *RodPage) Eval(ctx context.Context, js string) error {
	p := r.page.Context(ctx)
	_, err := p.Eval(js)
	return err
}

func (r *RodPage) Screenshot(ctx context.Context) ([]byte, error) {
	p := r.page.Context(ctx)
	return p.Screenshot(false, &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
	})
}

func (r *RodPage) Close() error {
	return r.page.Close()
}

// navError wraps raw errors into typed navigation failures, flagging
// deadline expiry explicitly since it is the common case.
func navError(err error, msg string) error {
	if errors.Is(err, context.DeadlineExceeded) {
		msg += " (timed out)"
	}
	return models.NewCheckError(models.ErrCodeNavigation, msg, err)
}

func elementError(err error, selector string) error {
	msg := fmt.Sprintf("element %q never appeared within budget", selector)
	return models.NewCheckError(models.ErrCodeElementNotFound, msg, err)
}
