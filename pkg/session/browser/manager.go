// Package browser drives chat pages with Playwright.
//
// Every platform gets one persistent Chromium context, stored under
// <data dir>/profiles/<partition>, so logins survive restarts and are shared
// by all tabs. Each tab opens its own page inside that context.
package browser

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/playwright-community/playwright-go"

	"github.com/entrhq/llmux/pkg/logging"
	"github.com/entrhq/llmux/pkg/platform"
	"github.com/entrhq/llmux/pkg/session"
)

// DefaultUserAgent is presented by every page. Some services reject the
// default headless user agent.
const DefaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"

// Options configures a Manager.
type Options struct {
	// DataDir holds the per-platform profiles.
	DataDir   string
	UserAgent string
	Headless  bool
	// SkipInstall assumes the Playwright driver and Chromium are present.
	SkipInstall bool
	Logger      *logging.Logger
}

// Manager owns the Playwright runtime and one persistent context per
// platform partition. It implements session.Factory.
type Manager struct {
	mu          sync.Mutex
	opts        Options
	playwright  *playwright.Playwright
	contexts    map[string]playwright.BrowserContext
	pages       map[*Page]struct{}
	initialized bool
	log         *logging.Logger
}

var _ session.Factory = (*Manager)(nil)

// NewManager creates a manager. Initialize must run before Open.
func NewManager(opts Options) *Manager {
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	log := opts.Logger
	if log == nil {
		log = logging.Nop()
	}
	return &Manager{
		opts:     opts,
		contexts: make(map[string]playwright.BrowserContext),
		pages:    make(map[*Page]struct{}),
		log:      log,
	}
}

// Initialize installs (unless skipped) and starts Playwright.
func (m *Manager) Initialize() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.initialized {
		return nil
	}

	// Discard driver output so it does not interfere with the TUI
	runOpts := &playwright.RunOptions{
		Browsers: []string{"chromium"},
		Verbose:  false,
		Stdout:   io.Discard,
		Stderr:   io.Discard,
	}

	if !m.opts.SkipInstall {
		if err := playwright.Install(runOpts); err != nil {
			return fmt.Errorf("failed to install playwright: %w", err)
		}
	}

	pw, err := playwright.Run(runOpts)
	if err != nil {
		return fmt.Errorf("failed to start playwright: %w", err)
	}

	m.playwright = pw
	m.initialized = true
	return nil
}

// Open creates a page for p in the platform's persistent context and starts
// loading url.
func (m *Manager) Open(ctx context.Context, p *platform.Platform, url string, events session.Events) (session.Host, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	bctx, err := m.contextFor(p)
	if err != nil {
		return nil, err
	}

	pg, err := bctx.NewPage()
	if err != nil {
		return nil, fmt.Errorf("failed to create page for %s: %w", p.ID, err)
	}

	page, err := newPage(p.ID, pg, events, m.log.With("browser:"+string(p.ID)))
	if err != nil {
		_ = pg.Close()
		return nil, err
	}
	page.onClose = m.forget

	m.mu.Lock()
	m.pages[page] = struct{}{}
	m.mu.Unlock()

	if err := page.Navigate(url); err != nil {
		_ = page.Close()
		return nil, err
	}
	return page, nil
}

// contextFor returns the persistent context for p's partition, launching it
// on first use.
func (m *Manager) contextFor(p *platform.Platform) (playwright.BrowserContext, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.initialized {
		return nil, fmt.Errorf("session manager not initialized")
	}
	if bctx, ok := m.contexts[p.Partition]; ok {
		return bctx, nil
	}

	profile := filepath.Join(m.opts.DataDir, "profiles", p.Partition)
	if err := os.MkdirAll(profile, 0700); err != nil {
		return nil, fmt.Errorf("failed to create profile directory: %w", err)
	}

	bctx, err := m.playwright.Chromium.LaunchPersistentContext(profile, playwright.BrowserTypeLaunchPersistentContextOptions{
		Headless:  playwright.Bool(m.opts.Headless),
		UserAgent: playwright.String(m.opts.UserAgent),
		Viewport: &playwright.Size{
			Width:  DefaultViewportWidth,
			Height: DefaultViewportHeight,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser for %s: %w", p.ID, err)
	}

	// Persistent contexts start with one blank page
	for _, pg := range bctx.Pages() {
		_ = pg.Close()
	}

	m.log.Infof("Launched persistent context %s at %s", p.Partition, profile)
	m.contexts[p.Partition] = bctx
	return bctx, nil
}

func (m *Manager) forget(p *Page) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.pages, p)
}

// PageCount returns the number of open pages.
func (m *Manager) PageCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pages)
}

// Close closes every page and context and stops Playwright.
func (m *Manager) Close() error {
	m.mu.Lock()
	pages := make([]*Page, 0, len(m.pages))
	for p := range m.pages {
		pages = append(pages, p)
	}
	contexts := m.contexts
	m.contexts = make(map[string]playwright.BrowserContext)
	m.mu.Unlock()

	for _, p := range pages {
		_ = p.Close() // Ignore errors, continue cleanup
	}

	var errs []error
	for partition, bctx := range contexts {
		if err := bctx.Close(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", partition, err))
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.initialized && m.playwright != nil {
		if err := m.playwright.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("failed to stop playwright: %w", err))
		}
		m.initialized = false
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors closing browser: %v", errs)
	}
	return nil
}
