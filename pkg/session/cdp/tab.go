package cdp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"

	"github.com/entrhq/llmux/pkg/logging"
	"github.com/entrhq/llmux/pkg/platform"
	"github.com/entrhq/llmux/pkg/session"
)

// Tab is one browser target. It implements session.Host.
//
// chromedp calls listeners synchronously while handling protocol messages,
// so the listener only updates cached state and forwards to session.Events.
type Tab struct {
	platform platform.ID
	ctx      context.Context
	cancel   context.CancelFunc
	events   session.Events
	log      *logging.Logger
	onClose  func(*Tab)

	mu        sync.RWMutex
	url       string
	mainFrame cdp.FrameID
	closed    bool
}

var _ session.Host = (*Tab)(nil)

func newTab(id platform.ID, ctx context.Context, cancel context.CancelFunc, events session.Events, log *logging.Logger) *Tab {
	return &Tab{
		platform: id,
		ctx:      ctx,
		cancel:   cancel,
		events:   events,
		log:      log,
		url:      "about:blank",
	}
}

// install creates the target and registers the title binding and watcher.
func (t *Tab) install() error {
	chromedp.ListenTarget(t.ctx, t.handle)
	return chromedp.Run(t.ctx,
		page.Enable(),
		runtime.Enable(),
		runtime.AddBinding(session.TitleBinding),
		chromedp.ActionFunc(func(ctx context.Context) error {
			_, err := page.AddScriptToEvaluateOnNewDocument(session.TitleWatcher).Do(ctx)
			return err
		}),
	)
}

func (t *Tab) handle(ev interface{}) {
	if t.isClosed() {
		return
	}
	switch e := ev.(type) {
	case *page.EventFrameNavigated:
		if e.Frame == nil || e.Frame.ParentID != "" {
			return
		}
		t.mu.Lock()
		t.mainFrame = e.Frame.ID
		t.url = e.Frame.URL + e.Frame.URLFragment
		u := t.url
		t.mu.Unlock()
		t.events.Navigated(u)
	case *page.EventNavigatedWithinDocument:
		if !t.isMainFrame(e.FrameID) {
			return
		}
		t.mu.Lock()
		t.url = e.URL
		t.mu.Unlock()
		t.events.Navigated(e.URL)
	case *page.EventFrameStartedLoading:
		if t.isMainFrame(e.FrameID) {
			t.events.LoadStateChanged(session.Loading)
		}
	case *page.EventDomContentEventFired, *page.EventLoadEventFired:
		t.events.LoadStateChanged(session.Ready)
	case *runtime.EventBindingCalled:
		if e.Name == session.TitleBinding {
			t.events.TitleUpdated(e.Payload)
		}
	}
}

func (t *Tab) isMainFrame(id cdp.FrameID) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.mainFrame == "" || t.mainFrame == id
}

// URL returns the last committed main-frame URL.
func (t *Tab) URL() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.url
}

// Navigate starts loading url in the background.
func (t *Tab) Navigate(url string) error {
	if t.isClosed() {
		return session.ErrClosed
	}
	t.events.LoadStateChanged(session.Loading)
	go func() {
		t.finish("navigate", chromedp.Run(t.ctx, chromedp.Navigate(url)))
	}()
	return nil
}

// Reload starts reloading the page in the background.
func (t *Tab) Reload() error {
	if t.isClosed() {
		return session.ErrClosed
	}
	t.events.LoadStateChanged(session.Loading)
	go func() {
		t.finish("reload", chromedp.Run(t.ctx, chromedp.Reload()))
	}()
	return nil
}

func (t *Tab) finish(op string, err error) {
	if err == nil || t.isClosed() {
		return
	}
	if isAborted(err) {
		t.log.Debugf("%s %s aborted: %v", t.platform, op, err)
		return
	}
	t.log.Warnf("%s %s failed: %v", t.platform, op, err)
	t.events.LoadStateChanged(session.Failed)
}

// ExecuteScript evaluates code, awaiting promises, and converts the result
// to a string.
func (t *Tab) ExecuteScript(ctx context.Context, code string) (string, error) {
	if t.isClosed() {
		return "", session.ErrClosed
	}

	// Bound the evaluation by both the caller and the target lifetime.
	runCtx, cancel := context.WithCancel(t.ctx)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	var raw json.RawMessage
	err := chromedp.Run(runCtx, chromedp.Evaluate(code, &raw, func(p *runtime.EvaluateParams) *runtime.EvaluateParams {
		return p.WithAwaitPromise(true)
	}))
	switch {
	case errors.Is(err, chromedp.ErrJSUndefined), errors.Is(err, chromedp.ErrJSNull):
		return "", nil
	case err != nil:
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("script evaluation failed: %w", err)
	}
	return decode(raw), nil
}

// Close closes the target. Safe to call more than once.
func (t *Tab) Close() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	t.mu.Unlock()

	if t.onClose != nil {
		t.onClose(t)
	}
	err := chromedp.Cancel(t.ctx)
	t.cancel()
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("failed to close target: %w", err)
	}
	return nil
}

func (t *Tab) isClosed() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.closed
}

func isAborted(err error) bool {
	if errors.Is(err, context.Canceled) {
		return true
	}
	return strings.Contains(err.Error(), "net::ERR_ABORTED")
}

// decode returns string results unquoted and anything else as JSON.
func decode(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}
