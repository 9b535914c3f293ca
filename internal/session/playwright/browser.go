// Package playwright adapts a Playwright-driven Chromium profile to session.Session.
package playwright

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/cristianoliveira/messenger-mirror/internal/config"
	"github.com/cristianoliveira/messenger-mirror/internal/session"
	pw "github.com/playwright-community/playwright-go"
)

// Defaults for the browser window and waits.
const (
	DefaultViewportWidth  = 1280
	DefaultViewportHeight = 900
	DefaultTimeout        = 30 * time.Second
)

// Options configure the launched browser.
type Options struct {
	// UserDataDir holds the persistent profile so logins survive restarts.
	UserDataDir string
	Headless    bool
	// Timeout bounds every navigation and element wait.
	Timeout time.Duration
	// Install downloads the driver and Chromium before starting.
	Install bool
}

// Browser is a persistent Chromium context with a single page.
type Browser struct {
	pw      *pw.Playwright
	context pw.BrowserContext
	page    pw.Page
}

var _ session.Session = (*Browser)(nil)

// Launch starts Playwright and opens the persistent profile.
func Launch(opts Options) (*Browser, error) {
	if opts.UserDataDir == "" {
		return nil, errors.New("playwright session: user data dir cannot be empty")
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if err := os.MkdirAll(opts.UserDataDir, config.FileModeDir); err != nil {
		return nil, fmt.Errorf("playwright session: create profile dir: %w", err)
	}

	runOpts := &pw.RunOptions{
		Browsers: []string{"chromium"},
		Verbose:  false,
		Stdout:   io.Discard,
		Stderr:   io.Discard,
	}
	if opts.Install {
		if err := pw.Install(runOpts); err != nil {
			return nil, fmt.Errorf("failed to install playwright: %w", err)
		}
	}
	runner, err := pw.Run(runOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to start playwright: %w", err)
	}

	ctx, err := runner.Chromium.LaunchPersistentContext(opts.UserDataDir, pw.BrowserTypeLaunchPersistentContextOptions{
		Headless: pw.Bool(opts.Headless),
		Viewport: &pw.Size{
			Width:  DefaultViewportWidth,
			Height: DefaultViewportHeight,
		},
	})
	if err != nil {
		_ = runner.Stop()
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	var page pw.Page
	if pages := ctx.Pages(); len(pages) > 0 {
		page = pages[0]
	} else if page, err = ctx.NewPage(); err != nil {
		_ = ctx.Close()
		_ = runner.Stop()
		return nil, fmt.Errorf("failed to create page: %w", err)
	}
	page.SetDefaultTimeout(float64(opts.Timeout.Milliseconds()))

	return &Browser{pw: runner, context: ctx, page: page}, nil
}

// Navigate loads url and waits for the load event.
func (b *Browser) Navigate(url string) error {
	if _, err := b.page.Goto(url); err != nil {
		return fmt.Errorf("navigation failed: %w", err)
	}
	return nil
}

// CurrentURL returns the page URL.
func (b *Browser) CurrentURL() (string, error) {
	return b.page.URL(), nil
}

// Title returns the document title.
func (b *Browser) Title() (string, error) {
	return b.page.Title()
}

// Find returns the first element matching sel.
func (b *Browser) Find(sel session.Selector) (session.Element, error) {
	h, err := b.page.QuerySelector(sel.Query())
	return wrap(h, err, sel)
}

// FindAll returns every element matching sel.
func (b *Browser) FindAll(sel session.Selector) ([]session.Element, error) {
	hs, err := b.page.QuerySelectorAll(sel.Query())
	return wrapAll(hs, err, sel)
}

// Screenshot saves a PNG of the viewport, creating the directory if needed.
func (b *Browser) Screenshot(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), config.FileModeDir); err != nil {
		return fmt.Errorf("screenshot: create dir: %w", err)
	}
	if _, err := b.page.Screenshot(pw.PageScreenshotOptions{Path: pw.String(path)}); err != nil {
		return fmt.Errorf("screenshot: %w", err)
	}
	return nil
}

// Close closes the profile and stops the driver.
func (b *Browser) Close() error {
	var errs []error
	if b.context != nil {
		if err := b.context.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close context: %w", err))
		}
	}
	if b.pw != nil {
		if err := b.pw.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("stop playwright: %w", err))
		}
	}
	return errors.Join(errs...)
}
