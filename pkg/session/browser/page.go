package browser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/playwright-community/playwright-go"

	"github.com/entrhq/llmux/pkg/logging"
	"github.com/entrhq/llmux/pkg/platform"
	"github.com/entrhq/llmux/pkg/session"
)

const (
	DefaultViewportWidth  = 1280
	DefaultViewportHeight = 900
)

// Page is one tab's view of a platform. It implements session.Host.
//
// Playwright delivers page events on its connection goroutine, so handlers
// only touch cached state and forward to session.Events.
type Page struct {
	platform platform.ID
	page     playwright.Page
	events   session.Events
	log      *logging.Logger
	onClose  func(*Page)

	mu     sync.RWMutex
	url    string
	closed bool
}

var _ session.Host = (*Page)(nil)

func newPage(id platform.ID, pg playwright.Page, events session.Events, log *logging.Logger) (*Page, error) {
	p := &Page{
		platform: id,
		page:     pg,
		events:   events,
		log:      log,
		url:      "about:blank",
	}

	err := pg.ExposeFunction(session.TitleBinding, func(args ...interface{}) interface{} {
		if len(args) > 0 {
			if title, ok := args[0].(string); ok && !p.isClosed() {
				p.events.TitleUpdated(title)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to expose title binding: %w", err)
	}

	script := session.TitleWatcher
	if err := pg.AddInitScript(playwright.Script{Content: &script}); err != nil {
		return nil, fmt.Errorf("failed to add title watcher: %w", err)
	}

	pg.OnFrameNavigated(func(f playwright.Frame) {
		if f.ParentFrame() != nil || p.isClosed() {
			return
		}
		u := f.URL()
		p.mu.Lock()
		p.url = u
		p.mu.Unlock()
		p.events.Navigated(u)
	})
	pg.OnDOMContentLoaded(func(playwright.Page) {
		if !p.isClosed() {
			p.events.LoadStateChanged(session.Ready)
		}
	})
	pg.OnLoad(func(playwright.Page) {
		if !p.isClosed() {
			p.events.LoadStateChanged(session.Ready)
		}
	})

	return p, nil
}

// URL returns the last committed main-frame URL.
func (p *Page) URL() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.url
}

// Navigate starts loading url in the background.
func (p *Page) Navigate(url string) error {
	if p.isClosed() {
		return session.ErrClosed
	}
	p.events.LoadStateChanged(session.Loading)
	go func() {
		waitUntil := playwright.WaitUntilState("commit")
		_, err := p.page.Goto(url, playwright.PageGotoOptions{WaitUntil: &waitUntil})
		p.finishNavigation("navigate", err)
	}()
	return nil
}

// Reload starts reloading the page in the background.
func (p *Page) Reload() error {
	if p.isClosed() {
		return session.ErrClosed
	}
	p.events.LoadStateChanged(session.Loading)
	go func() {
		waitUntil := playwright.WaitUntilState("commit")
		_, err := p.page.Reload(playwright.PageReloadOptions{WaitUntil: &waitUntil})
		p.finishNavigation("reload", err)
	}()
	return nil
}

func (p *Page) finishNavigation(op string, err error) {
	if err == nil || p.isClosed() {
		return
	}
	if isAborted(err) {
		p.log.Debugf("%s %s aborted: %v", p.platform, op, err)
		return
	}
	p.log.Warnf("%s %s failed: %v", p.platform, op, err)
	p.events.LoadStateChanged(session.Failed)
}

// ExecuteScript evaluates code and converts the result to a string. The
// evaluation keeps running in the page if ctx ends first.
func (p *Page) ExecuteScript(ctx context.Context, code string) (string, error) {
	if p.isClosed() {
		return "", session.ErrClosed
	}

	type outcome struct {
		value interface{}
		err   error
	}
	done := make(chan outcome, 1)
	go func() {
		v, err := p.page.Evaluate(code)
		done <- outcome{v, err}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case o := <-done:
		if o.err != nil {
			return "", fmt.Errorf("script evaluation failed: %w", o.err)
		}
		return stringify(o.value), nil
	}
}

// Close closes the page. Safe to call more than once.
func (p *Page) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.mu.Unlock()

	if p.onClose != nil {
		p.onClose(p)
	}
	if err := p.page.Close(); err != nil {
		return fmt.Errorf("failed to close page: %w", err)
	}
	return nil
}

func (p *Page) isClosed() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.closed
}

// isAborted reports navigations superseded by another one. Chromium
// reports these as net::ERR_ABORTED.
func isAborted(err error) bool {
	if errors.Is(err, playwright.ErrTargetClosed) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "net::ERR_ABORTED") ||
		strings.Contains(msg, "interrupted by another navigation")
}

func stringify(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprintf("%v", val)
		}
		return string(b)
	}
}
