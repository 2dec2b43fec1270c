package sequencer

import (
	"context"
	"fmt"

	"github.com/use-agent/sitecheck/browser"
	"github.com/use-agent/sitecheck/models"
)

// customActions is the registry of named per-site actions. Targets invoke
// them as data (`type: custom, name: ...`) so the target file stays
// configuration, not code.
var customActions = map[string]func(ctx context.Context, page browser.Page) error{
	"dismiss_overlays": dismissOverlays,
}

func runCustom(ctx context.Context, page browser.Page, step models.Step) error {
	action, ok := customActions[step.Name]
	if !ok {
		return fmt.Errorf("unknown custom action: %q", step.Name)
	}
	return action(ctx, page)
}

// dismissOverlays removes fixed/sticky positioned elements with high
// z-index, which are typically cookie consent banners and popup overlays
// that would sit on top of the inputs the sequence needs.
func dismissOverlays(ctx context.Context, page browser.Page) error {
	const js = `() => {
		const els = document.querySelectorAll('*');
		for (const el of els) {
			const style = window.getComputedStyle(el);
			const pos = style.position;
			if (pos === 'fixed' || pos === 'sticky') {
				const z = parseInt(style.zIndex, 10);
				if (z >= 900 || style.zIndex === 'auto') {
					el.remove();
				}
			}
		}
		const selectors = [
			'[class*="cookie"]', '[class*="consent"]', '[class*="overlay"]',
			'[id*="cookie"]', '[id*="consent"]', '[id*="overlay"]',
			'[class*="popup"]', '[id*="popup"]',
			'[class*="gdpr"]', '[id*="gdpr"]',
		];
		for (const sel of selectors) {
			document.querySelectorAll(sel).forEach(el => {
				const style = window.getComputedStyle(el);
				if (style.position === 'fixed' || style.position === 'sticky' || style.position === 'absolute') {
					el.remove();
				}
			});
		}
		document.documentElement.style.overflow = '';
		document.body.style.overflow = '';
	}`
	return page.Eval(ctx, js)
}
