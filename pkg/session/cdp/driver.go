// Package cdp drives chat pages over the Chrome DevTools Protocol with
// chromedp. It needs a local Chrome or Chromium but no Playwright runtime.
//
// One browser process runs per platform partition with its own user data
// directory. Each tab is a separate target in that browser.
package cdp

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/chromedp/chromedp"

	"github.com/entrhq/llmux/pkg/logging"
	"github.com/entrhq/llmux/pkg/platform"
	"github.com/entrhq/llmux/pkg/session"
)

// Options configures a Driver.
type Options struct {
	DataDir   string
	UserAgent string
	Headless  bool
	// ExecPath overrides Chrome discovery.
	ExecPath string
	Logger   *logging.Logger
}

// process is one running browser and the root target keeping it alive.
type process struct {
	root        context.Context
	cancelRoot  context.CancelFunc
	cancelAlloc context.CancelFunc
}

// Driver implements session.Factory.
type Driver struct {
	mu     sync.Mutex
	opts   Options
	procs  map[string]*process
	tabs   map[*Tab]struct{}
	closed bool
	log    *logging.Logger
}

var _ session.Factory = (*Driver)(nil)

// New returns a driver. Browsers start lazily on the first Open for each
// partition.
func New(opts Options) *Driver {
	log := opts.Logger
	if log == nil {
		log = logging.Nop()
	}
	return &Driver{
		opts:  opts,
		procs: make(map[string]*process),
		tabs:  make(map[*Tab]struct{}),
		log:   log,
	}
}

// Open creates a new target for p and starts loading url.
func (d *Driver) Open(ctx context.Context, p *platform.Platform, url string, events session.Events) (session.Host, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	proc, err := d.processFor(p)
	if err != nil {
		return nil, err
	}

	tctx, cancel := chromedp.NewContext(proc.root)
	tab := newTab(p.ID, tctx, cancel, events, d.log.With("cdp:"+string(p.ID)))
	if err := tab.install(); err != nil {
		cancel()
		return nil, fmt.Errorf("failed to prepare %s target: %w", p.ID, err)
	}
	tab.onClose = d.forget

	d.mu.Lock()
	d.tabs[tab] = struct{}{}
	d.mu.Unlock()

	if err := tab.Navigate(url); err != nil {
		_ = tab.Close()
		return nil, err
	}
	return tab, nil
}

func (d *Driver) processFor(p *platform.Platform) (*process, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil, session.ErrClosed
	}
	if proc, ok := d.procs[p.Partition]; ok {
		return proc, nil
	}

	profile := filepath.Join(d.opts.DataDir, "profiles", p.Partition)
	if err := os.MkdirAll(profile, 0700); err != nil {
		return nil, fmt.Errorf("failed to create profile directory: %w", err)
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.UserDataDir(profile),
		chromedp.Flag("headless", d.opts.Headless),
		chromedp.WindowSize(1280, 900),
	)
	if d.opts.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(d.opts.UserAgent))
	}
	if d.opts.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(d.opts.ExecPath))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), opts...)
	root, cancelRoot := chromedp.NewContext(allocCtx)
	if err := chromedp.Run(root); err != nil {
		cancelRoot()
		cancelAlloc()
		return nil, fmt.Errorf("failed to start browser for %s: %w", p.ID, err)
	}

	d.log.Infof("Started browser for %s at %s", p.Partition, profile)
	proc := &process{root: root, cancelRoot: cancelRoot, cancelAlloc: cancelAlloc}
	d.procs[p.Partition] = proc
	return proc, nil
}

func (d *Driver) forget(t *Tab) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.tabs, t)
}

// TabCount returns the number of open targets.
func (d *Driver) TabCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.tabs)
}

// Close closes every target and browser.
func (d *Driver) Close() error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	tabs := make([]*Tab, 0, len(d.tabs))
	for t := range d.tabs {
		tabs = append(tabs, t)
	}
	procs := d.procs
	d.procs = make(map[string]*process)
	d.mu.Unlock()

	for _, t := range tabs {
		_ = t.Close()
	}

	var errs []error
	for partition, proc := range procs {
		if err := chromedp.Cancel(proc.root); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", partition, err))
		}
		proc.cancelRoot()
		proc.cancelAlloc()
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors closing browsers: %v", errs)
	}
	return nil
}
