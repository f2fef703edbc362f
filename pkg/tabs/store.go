package tabs

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/entrhq/llmux/pkg/logging"
	"github.com/entrhq/llmux/pkg/persist"
	"github.com/entrhq/llmux/pkg/platform"
	"github.com/entrhq/llmux/pkg/session"
	"github.com/entrhq/llmux/pkg/title"
)

// Default delays.
const (
	DefaultTitleDebounce = 500 * time.Millisecond
	DefaultStatusGrace   = 3 * time.Second
)

// Scripts renders the automation payload that submits query on a platform.
type Scripts interface {
	Script(id platform.ID, query string) (string, error)
}

// Options configures a Store.
type Options struct {
	Registry *platform.Registry
	Factory  session.Factory
	Scripts  Scripts

	// Gateway persists the tab layout. Nil disables persistence.
	Gateway persist.Gateway
	// Cleaner defaults to one built from the registry's decorations.
	Cleaner *title.Cleaner
	Logger  *logging.Logger

	TitleDebounce time.Duration
	StatusGrace   time.Duration
}

// Store owns every tab. All methods are safe for concurrent use. Session
// calls are made without holding the store lock, so a slow page never
// blocks other tabs.
type Store struct {
	reg     *platform.Registry
	factory session.Factory
	scripts Scripts
	gateway persist.Gateway
	cleaner *title.Cleaner
	log     *logging.Logger

	titleDebounce time.Duration
	statusGrace   time.Duration

	mu          sync.Mutex
	tabs        []*tab
	active      TabID
	nextID      int64
	lastEnabled map[platform.ID]bool
	restoring   bool
	closed      bool

	// persistMu orders checkpoints so an older layout never overwrites a
	// newer one.
	persistMu sync.Mutex

	subMu   sync.RWMutex
	subs    map[int]func(Change)
	nextSub int
}

// New creates an empty store. Call Restore or CreateTab before using it.
func New(opts Options) (*Store, error) {
	if opts.Registry == nil {
		return nil, errors.New("registry is required")
	}
	if opts.Factory == nil {
		return nil, errors.New("session factory is required")
	}
	if opts.Scripts == nil {
		return nil, errors.New("script generator is required")
	}

	s := &Store{
		reg:           opts.Registry,
		factory:       opts.Factory,
		scripts:       opts.Scripts,
		gateway:       opts.Gateway,
		cleaner:       opts.Cleaner,
		log:           opts.Logger,
		titleDebounce: opts.TitleDebounce,
		statusGrace:   opts.StatusGrace,
		subs:          make(map[int]func(Change)),
	}
	if s.cleaner == nil {
		s.cleaner = title.NewCleaner(s.reg.TitleDecorations()...)
	}
	if s.log == nil {
		s.log = logging.Nop()
	}
	if s.titleDebounce <= 0 {
		s.titleDebounce = DefaultTitleDebounce
	}
	if s.statusGrace <= 0 {
		s.statusGrace = DefaultStatusGrace
	}
	s.lastEnabled = s.loadEnabled()
	return s, nil
}

// Registry returns the platforms the store was built with.
func (s *Store) Registry() *platform.Registry {
	return s.reg
}

// CreateTab opens a tab and makes it active. A nil snapshot yields a fresh
// tab using the last enabled set. It always succeeds: a page that fails to
// open is replaced by a host whose every call faults, and its status shows
// the load failure.
func (s *Store) CreateTab(ctx context.Context, snap *Snapshot) Tab {
	s.mu.Lock()
	s.nextID++
	t := &tab{
		id:      TabID(s.nextID),
		name:    DefaultName,
		hosts:   make(map[platform.ID]session.Host),
		status:  make(map[platform.ID]session.Status),
		lastURL: make(map[platform.ID]string),
		namer:   newNamer(),
	}
	if snap != nil {
		t.enabled = s.reg.Normalize(snap.EnabledPlatforms)
		if snap.Name != "" {
			t.name = Truncate(snap.Name)
		}
		t.querySent = snap.QuerySent
		if snap.UserRenamed {
			t.namer.state = UserLocked
		}
	} else {
		t.enabled = copySet(s.lastEnabled)
	}
	for _, p := range s.reg.All() {
		u := p.DefaultURL
		if snap != nil {
			u = p.RestoreURL(snap.URLs[p.ID])
		}
		t.lastURL[p.ID] = u
		t.status[p.ID] = session.LoadingStatus()
	}
	urls := copyURLs(t.lastURL)
	s.tabs = append(s.tabs, t)
	s.active = t.id
	s.mu.Unlock()

	s.log.Debugf("created tab %d (%q)", t.id, t.name)
	s.openSessions(ctx, t, urls)

	s.notify(Change{Kind: ChangeTabs, Tab: t.id})
	s.checkpoint()

	s.mu.Lock()
	defer s.mu.Unlock()
	return t.view()
}

// openSessions opens one page per platform in parallel and installs them.
func (s *Store) openSessions(ctx context.Context, t *tab, urls map[platform.ID]string) {
	platforms := s.reg.All()
	hosts := make([]session.Host, len(platforms))
	failed := make([]bool, len(platforms))

	var g errgroup.Group
	for i, p := range platforms {
		g.Go(func() error {
			u := urls[p.ID]
			h, err := s.factory.Open(ctx, p, u, &hostEvents{store: s, tab: t.id, platform: p.ID})
			if err != nil {
				s.log.Errorf("failed to open %s session for tab %d: %v", p.ID, t.id, err)
				h = session.NewBroken(u, err)
				failed[i] = true
			}
			hosts[i] = h
			return nil
		})
	}
	_ = g.Wait()

	s.mu.Lock()
	if t.closed || s.closed {
		s.mu.Unlock()
		s.closeHosts(t.id, hosts)
		return
	}
	for i, p := range platforms {
		t.hosts[p.ID] = hosts[i]
		if failed[i] {
			t.status[p.ID] = session.ErrorStatus(session.LabelLoadError)
		}
	}
	s.mu.Unlock()
}

// CloseTab closes a tab and its pages. The sole remaining tab and unknown
// ids are ignored. When the active tab closes, the tab that moved into its
// position becomes active, or the new last tab.
func (s *Store) CloseTab(id TabID) bool {
	s.mu.Lock()
	idx := s.indexOf(id)
	if idx < 0 || len(s.tabs) <= 1 {
		s.mu.Unlock()
		return false
	}
	t := s.tabs[idx]
	s.tabs = append(s.tabs[:idx], s.tabs[idx+1:]...)
	t.closed = true
	t.namer.debounce.stop()
	if s.active == id {
		s.active = s.tabs[min(idx, len(s.tabs)-1)].id
	}
	hosts := hostList(t.hosts)
	s.mu.Unlock()

	s.closeHosts(id, hosts)
	s.log.Debugf("closed tab %d", id)
	s.notify(Change{Kind: ChangeTabs, Tab: id})
	s.checkpoint()
	return true
}

// SwitchTo activates the tab. Unknown ids are ignored.
func (s *Store) SwitchTo(id TabID) bool {
	s.mu.Lock()
	if s.find(id) == nil {
		s.mu.Unlock()
		return false
	}
	s.active = id
	s.mu.Unlock()

	s.notify(Change{Kind: ChangeTabs, Tab: id})
	s.checkpoint()
	return true
}

// Next activates the tab after the active one, wrapping around.
func (s *Store) Next() bool {
	return s.step(1)
}

// Prev activates the tab before the active one, wrapping around.
func (s *Store) Prev() bool {
	return s.step(-1)
}

func (s *Store) step(delta int) bool {
	s.mu.Lock()
	n := len(s.tabs)
	idx := s.indexOf(s.active)
	if n == 0 || idx < 0 {
		s.mu.Unlock()
		return false
	}
	id := s.tabs[(idx+delta+n)%n].id
	s.mu.Unlock()
	return s.SwitchTo(id)
}

// GoTo activates the tab at index. Out-of-range indexes are ignored.
func (s *Store) GoTo(index int) bool {
	s.mu.Lock()
	if index < 0 || index >= len(s.tabs) {
		s.mu.Unlock()
		return false
	}
	id := s.tabs[index].id
	s.mu.Unlock()
	return s.SwitchTo(id)
}

// ResetTab starts the tab over: every page goes back to its platform's
// default URL, titles are forgotten and the name returns to DefaultName.
// The pages themselves are reused.
func (s *Store) ResetTab(id TabID) error {
	s.mu.Lock()
	t := s.find(id)
	if t == nil {
		s.mu.Unlock()
		return fmt.Errorf("%w: %d", ErrTabNotFound, id)
	}
	t.name = DefaultName
	t.querySent = false
	t.namer.reset()
	type target struct {
		host session.Host
		url  string
		id   platform.ID
	}
	var targets []target
	for _, p := range s.reg.All() {
		t.lastURL[p.ID] = p.DefaultURL
		if h := t.hosts[p.ID]; h != nil {
			targets = append(targets, target{host: h, url: p.DefaultURL, id: p.ID})
		}
	}
	s.mu.Unlock()

	for _, tg := range targets {
		if err := tg.host.Navigate(tg.url); err != nil {
			s.log.Warnf("failed to reset %s in tab %d: %v", tg.id, id, err)
		}
	}
	s.notify(Change{Kind: ChangeName, Tab: id})
	s.checkpoint()
	return nil
}

// ToggleEnabled flips one platform of a tab. Turning off the last enabled
// platform, an unknown tab or an unknown platform is ignored. A successful
// toggle becomes the enabled set for new tabs.
func (s *Store) ToggleEnabled(id TabID, p platform.ID) bool {
	return s.setEnabled(id, func(t *tab) bool {
		if _, ok := s.reg.Get(p); !ok {
			return false
		}
		if t.enabled[p] && t.enabledCount() == 1 {
			return false
		}
		t.enabled[p] = !t.enabled[p]
		return true
	})
}

// ShowOnly enables p and disables every other platform of the tab.
func (s *Store) ShowOnly(id TabID, p platform.ID) bool {
	return s.setEnabled(id, func(t *tab) bool {
		if _, ok := s.reg.Get(p); !ok {
			return false
		}
		for _, other := range s.reg.IDs() {
			t.enabled[other] = other == p
		}
		return true
	})
}

// ShowAll enables every platform of the tab.
func (s *Store) ShowAll(id TabID) bool {
	return s.setEnabled(id, func(t *tab) bool {
		t.enabled = s.reg.AllEnabled()
		return true
	})
}

func (s *Store) setEnabled(id TabID, apply func(t *tab) bool) bool {
	s.mu.Lock()
	t := s.find(id)
	if t == nil || !apply(t) {
		s.mu.Unlock()
		return false
	}
	s.lastEnabled = copySet(t.enabled)
	s.mu.Unlock()

	s.notify(Change{Kind: ChangePlatforms, Tab: id})
	s.saveEnabled()
	s.checkpoint()
	return true
}

// Rename sets the tab name, truncated to MaxNameLength. A user-initiated
// rename stops auto-naming for the tab until it is reset.
func (s *Store) Rename(id TabID, name string, userInitiated bool) error {
	s.mu.Lock()
	t := s.find(id)
	if t == nil {
		s.mu.Unlock()
		return fmt.Errorf("%w: %d", ErrTabNotFound, id)
	}
	t.name = Truncate(name)
	if userInitiated {
		t.namer.lock()
	}
	s.mu.Unlock()

	s.notify(Change{Kind: ChangeName, Tab: id})
	s.checkpoint()
	return nil
}

// Reload reloads one platform page of a tab.
func (s *Store) Reload(id TabID, p platform.ID) error {
	s.mu.Lock()
	t := s.find(id)
	if t == nil {
		s.mu.Unlock()
		return fmt.Errorf("%w: %d", ErrTabNotFound, id)
	}
	h := t.hosts[p]
	s.mu.Unlock()

	if h == nil {
		return fmt.Errorf("no %s session in tab %d", p, id)
	}
	return h.Reload()
}

// ReloadAll reloads every enabled platform page of a tab.
func (s *Store) ReloadAll(id TabID) error {
	s.mu.Lock()
	t := s.find(id)
	if t == nil {
		s.mu.Unlock()
		return fmt.Errorf("%w: %d", ErrTabNotFound, id)
	}
	var hosts []session.Host
	var ids []platform.ID
	for _, p := range s.reg.IDs() {
		if h := t.hosts[p]; t.enabled[p] && h != nil {
			hosts = append(hosts, h)
			ids = append(ids, p)
		}
	}
	s.mu.Unlock()

	var errs []error
	for i, h := range hosts {
		if err := h.Reload(); err != nil {
			errs = append(errs, fmt.Errorf("reload %s: %w", ids[i], err))
		}
	}
	return errors.Join(errs...)
}

// URL returns the current address of a platform page, falling back to the
// last address known to belong to the platform.
func (s *Store) URL(id TabID, p platform.ID) (string, error) {
	s.mu.Lock()
	t := s.find(id)
	if t == nil {
		s.mu.Unlock()
		return "", fmt.Errorf("%w: %d", ErrTabNotFound, id)
	}
	h := t.hosts[p]
	last := t.lastURL[p]
	s.mu.Unlock()

	if h != nil {
		if u := h.URL(); u != "" {
			return u, nil
		}
	}
	if last == "" {
		return "", fmt.Errorf("no %s session in tab %d", p, id)
	}
	return last, nil
}

// Tabs returns every tab in display order.
func (s *Store) Tabs() []Tab {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Tab, len(s.tabs))
	for i, t := range s.tabs {
		out[i] = t.view()
	}
	return out
}

// Get returns one tab.
func (s *Store) Get(id TabID) (Tab, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.find(id)
	if t == nil {
		return Tab{}, false
	}
	return t.view(), true
}

// Active returns the active tab. It is the zero Tab only before the first
// tab is created.
func (s *Store) Active() Tab {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.find(s.active)
	if t == nil {
		return Tab{}
	}
	return t.view()
}

// ActiveIndex returns the position of the active tab, or -1 when there are
// no tabs.
func (s *Store) ActiveIndex() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.indexOf(s.active)
}

// Len returns the number of tabs.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tabs)
}

// Close closes every page and stops pending timers. The store is unusable
// afterwards. The session factory is left open.
func (s *Store) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	var errs []error
	closing := s.tabs
	s.tabs = nil
	s.mu.Unlock()

	for _, t := range closing {
		s.mu.Lock()
		t.closed = true
		t.namer.debounce.stop()
		hosts := hostList(t.hosts)
		s.mu.Unlock()
		for _, h := range hosts {
			if err := h.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

func (s *Store) closeHosts(id TabID, hosts []session.Host) {
	for _, h := range hosts {
		if h == nil {
			continue
		}
		if err := h.Close(); err != nil {
			s.log.Warnf("failed to close session in tab %d: %v", id, err)
		}
	}
}

// find returns the live tab with id. The caller holds s.mu.
func (s *Store) find(id TabID) *tab {
	for _, t := range s.tabs {
		if t.id == id {
			return t
		}
	}
	return nil
}

// indexOf returns the position of id, or -1. The caller holds s.mu.
func (s *Store) indexOf(id TabID) int {
	for i, t := range s.tabs {
		if t.id == id {
			return i
		}
	}
	return -1
}

func hostList(hosts map[platform.ID]session.Host) []session.Host {
	out := make([]session.Host, 0, len(hosts))
	for _, h := range hosts {
		out = append(out, h)
	}
	return out
}

func copyURLs(urls map[platform.ID]string) map[platform.ID]string {
	out := make(map[platform.ID]string, len(urls))
	for k, v := range urls {
		out[k] = v
	}
	return out
}
