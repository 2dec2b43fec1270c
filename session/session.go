// Package session provisions remote browser sessions. A Session is owned by
// exactly one target run: acquired at its start, released at its end, never
// shared.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"

	"github.com/use-agent/sitecheck/browser"
	"github.com/use-agent/sitecheck/config"
	"github.com/use-agent/sitecheck/models"
)

// Provisioner acquires browser sessions, either from a remote CDP endpoint
// (browserless-style, capability flags passed as query parameters) or by
// launching a local headless browser when no endpoint is configured.
//
// Provisioning failures are returned as-is; retry policy belongs to the
// caller, and the runner deliberately does not retry — a failed acquisition
// fails that target only.
type Provisioner struct {
	cfg config.ProvisionerConfig
}

// NewProvisioner creates a Provisioner from configuration.
func NewProvisioner(cfg config.ProvisionerConfig) *Provisioner {
	return &Provisioner{cfg: cfg}
}

// Session is a live browser instance plus the capability flags it was
// created with and a human-inspectable URL for watching it run.
type Session struct {
	browser    *rod.Browser
	launch     *launcher.Launcher // non-nil only for local launches
	caps       models.Capabilities
	inspectURL string
}

// Acquire requests a browser session with the given capabilities. It fails
// with a PROVISIONING_FAILED error if the connection cannot be established
// within the capability's acquire timeout.
func (p *Provisioner) Acquire(ctx context.Context, caps models.Capabilities) (*Session, error) {
	connectCtx, cancel := context.WithTimeout(ctx, caps.AcquireTimeout())
	defer cancel()

	var (
		controlURL string
		launch     *launcher.Launcher
		err        error
	)
	if p.cfg.Endpoint != "" {
		controlURL, err = p.remoteControlURL(caps)
		if err != nil {
			return nil, err
		}
	} else {
		launch = p.localLauncher(caps)
		controlURL, err = launch.Context(connectCtx).Launch()
		if err != nil {
			return nil, models.NewCheckError(models.ErrCodeProvisioning,
				"failed to launch local browser", err)
		}
	}

	b := rod.New().ControlURL(controlURL)
	if err := b.Context(connectCtx).Connect(); err != nil {
		if launch != nil {
			launch.Kill()
		}
		return nil, models.NewCheckError(models.ErrCodeProvisioning,
			"failed to connect to browser session", err)
	}

	inspectURL := inspectURLFor(controlURL)
	slog.Info("browser session acquired",
		"inspectURL", inspectURL,
		"remote", p.cfg.Endpoint != "",
		"stealth", caps.Stealth,
		"proxy", caps.UseProxy,
	)

	return &Session{
		browser:    b,
		launch:     launch,
		caps:       caps,
		inspectURL: inspectURL,
	}, nil
}

// remoteControlURL composes the websocket URL for the remote provisioner,
// passing capability flags through untouched as query parameters. What the
// remote driver does with "stealth" is its business.
func (p *Provisioner) remoteControlURL(caps models.Capabilities) (string, error) {
	u, err := url.Parse(p.cfg.Endpoint)
	if err != nil {
		return "", models.NewCheckError(models.ErrCodeProvisioning,
			"invalid provisioner endpoint", err)
	}
	if p.cfg.Token == "" {
		return "", models.NewCheckError(models.ErrCodeProvisioning,
			"provisioner token is required for remote endpoints", nil)
	}

	q := u.Query()
	q.Set("token", p.cfg.Token)
	q.Set("timeout", strconv.FormatInt(caps.AcquireTimeout().Milliseconds(), 10))
	if caps.Stealth {
		q.Set("stealth", "true")
	}
	if caps.UseProxy && p.cfg.ProxyURL != "" {
		q.Set("--proxy-server", p.cfg.ProxyURL)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// localLauncher builds a launcher with the anti-automation flag set used
// for local fallback sessions.
func (p *Provisioner) localLauncher(caps models.Capabilities) *launcher.Launcher {
	l := launcher.New().
		Headless(true).
		NoSandbox(p.cfg.NoSandbox)

	if p.cfg.BrowserBin != "" {
		l = l.Bin(p.cfg.BrowserBin)
	}
	if caps.UseProxy && p.cfg.ProxyURL != "" {
		l = l.Proxy(p.cfg.ProxyURL)
	}

	l.Set(flags.Flag("disable-blink-features"), "AutomationControlled")
	l.Delete(flags.Flag("enable-automation"))
	l.Set(flags.Flag("disable-features"), "AudioServiceOutOfProcess,TranslateUI")
	l.Set(flags.Flag("disable-popup-blocking"))
	l.Set(flags.Flag("disable-prompt-on-repost"))
	l.Set(flags.Flag("disable-component-update"))
	l.Set(flags.Flag("disable-default-apps"))
	l.Set(flags.Flag("disable-dev-shm-usage"))
	l.Set(flags.Flag("disable-extensions"))
	l.Set(flags.Flag("no-first-run"))

	return l
}

// Page opens a fresh tab on the session. When the session requested stealth
// and the browser is locally launched, the stealth JS is injected before any
// navigation; remote endpoints handle stealth themselves.
func (s *Session) Page(ctx context.Context) (browser.Page, error) {
	page, err := s.browser.Context(ctx).Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, models.NewCheckError(models.ErrCodeProvisioning,
			"failed to open page on session", err)
	}

	if s.caps.Stealth && s.launch != nil {
		if _, evalErr := page.EvalOnNewDocument(stealth.JS); evalErr != nil {
			slog.Warn("stealth injection failed, proceeding without stealth",
				"error", evalErr)
		}
	}

	return browser.NewRodPage(page), nil
}

// InspectURL returns the human-inspectable URL for this session.
func (s *Session) InspectURL() string {
	return s.inspectURL
}

// Release closes the session. For remote sessions this closes the
// connection (the provisioner reclaims the browser); for local launches it
// also kills the browser process. Called exactly once per target run.
func (s *Session) Release() error {
	err := s.browser.Close()
	if s.launch != nil {
		s.launch.Kill()
	}
	if err != nil {
		return fmt.Errorf("close browser session: %w", err)
	}
	return nil
}

// inspectURLFor derives a browser-openable URL from a CDP websocket URL.
func inspectURLFor(controlURL string) string {
	u, err := url.Parse(controlURL)
	if err != nil {
		return controlURL
	}
	switch u.Scheme {
	case "ws":
		u.Scheme = "http"
	case "wss":
		u.Scheme = "https"
	}
	u.Path = "/sessions"
	u.RawQuery = ""
	if strings.HasPrefix(u.Host, "127.0.0.1") || strings.HasPrefix(u.Host, "localhost") {
		// Local devtools index lives at the root.
		u.Path = "/"
	}
	return u.String()
}
