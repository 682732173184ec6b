// Package browser owns the rod browser session used by the row processor.
// One browser, one page, strictly sequential use.
package browser

import (
	"os/exec"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/awardcheck/internal/config"
)

// engineBins maps an engine name to candidate system binaries, in lookup
// order. The empty "chromium" entry means rod manages its own binary.
var engineBins = map[string][]string{
	"chromium": nil,
	"chrome":   {"google-chrome", "google-chrome-stable", "chrome"},
	"msedge":   {"microsoft-edge", "microsoft-edge-stable", "msedge"},
}

// Session holds a launched browser and its single page.
type Session struct {
	browser *rod.Browser
	page    *rod.Page
}

// NewSession launches the configured browser engine and opens one page.
// The caller must Close the session on every exit path.
func NewSession(cfg config.BrowserConfig) (*Session, error) {
	bin, err := resolveBin(cfg)
	if err != nil {
		return nil, err
	}

	l := launcher.New().
		Headless(cfg.Headless).
		NoSandbox(cfg.NoSandbox)

	if bin != "" {
		l = l.Bin(bin)
	}

	// The search SPA refuses to render for obviously automated browsers.
	l.Set(flags.Flag("disable-blink-features"), "AutomationControlled")
	l.Delete(flags.Flag("enable-automation"))
	l.Set(flags.Flag("no-first-run"))
	l.Set(flags.Flag("disable-component-update"))
	l.Set(flags.Flag("disable-default-apps"))
	l.Set(flags.Flag("disable-dev-shm-usage"))

	controlURL, err := l.Launch()
	if err != nil {
		return nil, eris.Wrapf(err, "browser: launch %s", cfg.Engine)
	}
	zap.L().Info("browser launched",
		zap.String("engine", cfg.Engine),
		zap.Bool("headless", cfg.Headless),
	)

	b := rod.New().ControlURL(controlURL)
	if err := b.Connect(); err != nil {
		return nil, eris.Wrap(err, "browser: connect")
	}

	page, err := b.Page(proto.TargetCreateTarget{})
	if err != nil {
		_ = b.Close()
		return nil, eris.Wrap(err, "browser: open page")
	}

	if cfg.Stealth {
		if _, err := page.EvalOnNewDocument(stealth.JS); err != nil {
			zap.L().Warn("stealth injection failed, proceeding without", zap.Error(err))
		}
	}

	return &Session{browser: b, page: page}, nil
}

// Page returns the session's page wrapped for the row processor.
func (s *Session) Page() *Page {
	return &Page{page: s.page}
}

// Close tears down the page and browser. Safe to call on any exit path.
func (s *Session) Close() {
	if s.page != nil {
		if err := s.page.Close(); err != nil {
			zap.L().Debug("page close", zap.Error(err))
		}
	}
	if s.browser != nil {
		if err := s.browser.Close(); err != nil {
			zap.L().Debug("browser close", zap.Error(err))
		}
	}
}

// resolveBin maps the configured engine to a browser binary. An explicit
// bin path wins; "chromium" defers to rod's managed binary.
func resolveBin(cfg config.BrowserConfig) (string, error) {
	if cfg.Bin != "" {
		return cfg.Bin, nil
	}

	candidates, ok := engineBins[cfg.Engine]
	if !ok {
		return "", eris.Errorf("browser: unknown engine %q (want chromium, chrome, or msedge)", cfg.Engine)
	}
	if candidates == nil {
		return "", nil
	}

	for _, name := range candidates {
		if path, err := exec.LookPath(name); err == nil {
			return path, nil
		}
	}
	return "", eris.Errorf("browser: no %s binary found in PATH (tried %v)", cfg.Engine, candidates)
}
