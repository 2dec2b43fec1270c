// Package browser defines the narrow driver surface the verification engine
// consumes: navigate, selector waits, input, scroll, and screenshots, keyed
// by CSS selectors and timeouts. The rod-backed implementation lives in
// rodpage.go; tests substitute fakes.
package browser

import (
	"context"
	"time"
)

// Page is one live browser tab. All blocking operations take a context and
// are additionally bounded by the given timeout where one is accepted.
type Page interface {
	// Navigate loads the URL and waits for the DOM to settle.
	Navigate(ctx context.Context, url string, settle time.Duration) error

	// WaitSettled waits for the DOM to stop mutating, up to the timeout.
	WaitSettled(ctx context.Context, timeout time.Duration) error

	// WaitFor blocks until an element matching selector exists and is
	// visible, or the timeout expires.
	WaitFor(ctx context.Context, selector string, timeout time.Duration) error

	// WaitAny races the given selectors and returns whichever appeared
	// first. It fails only if none appear within the timeout.
	WaitAny(ctx context.Context, selectors []string, timeout time.Duration) (string, error)

	// Has reports immediately, without waiting, whether an element
	// matching selector is currently present.
	Has(selector string) (bool, error)

	// Fill waits for the selector and types value into it.
	Fill(ctx context.Context, selector, value string, timeout time.Duration) error

	// Click waits for the selector and clicks it.
	Click(ctx context.Context, selector string, timeout time.Duration) error

	// PressEnter sends an Enter keypress to the element at selector.
	PressEnter(ctx context.Context, selector string) error

	// Texts returns the visible text of up to limit elements matching
	// selector. Elements must already be present; use WaitFor first.
	Texts(ctx context.Context, selector string, limit int) ([]string, error)

	// Scroll moves the viewport down (or up, negative) by whole screens.
	Scroll(ctx context.Context, screens int) error

	// Back navigates one entry back in session history.
	Back(ctx context.Context) error

	// Eval runs a JS function (`() => {...}` form) in the page, discarding
	// its result.
	Eval(ctx context.Context, js string) error

	// Screenshot captures the current viewport as a PNG.
	Screenshot(ctx context.Context) ([]byte, error)

	// Close closes the tab. The owning session's release also closes it;
	// Close exists for callers that shed pages early.
	Close() error
}
