package tabs

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/entrhq/llmux/pkg/persist"
	"github.com/entrhq/llmux/pkg/platform"
	"github.com/entrhq/llmux/pkg/session"
)

type fakeHost struct {
	mu       sync.Mutex
	platform platform.ID
	url      string
	events   session.Events
	navs     []string
	reloads  int
	scripts  []string
	closed   bool
	exec     func(ctx context.Context, code string) (string, error)
}

func (h *fakeHost) URL() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.url
}

func (h *fakeHost) Navigate(url string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return session.ErrClosed
	}
	h.navs = append(h.navs, url)
	h.url = url
	return nil
}

func (h *fakeHost) Reload() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return session.ErrClosed
	}
	h.reloads++
	return nil
}

func (h *fakeHost) ExecuteScript(ctx context.Context, code string) (string, error) {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return "", session.ErrClosed
	}
	h.scripts = append(h.scripts, code)
	exec := h.exec
	h.mu.Unlock()

	if exec == nil {
		return "OK", nil
	}
	return exec(ctx, code)
}

func (h *fakeHost) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	return nil
}

func (h *fakeHost) isClosed() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.closed
}

func (h *fakeHost) scriptCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.scripts)
}

func (h *fakeHost) navigations() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.navs...)
}

// fakeFactory records hosts per platform in the order tabs opened them.
type fakeFactory struct {
	mu      sync.Mutex
	opened  map[platform.ID][]*fakeHost
	openErr map[platform.ID]error
	exec    map[platform.ID]func(ctx context.Context, code string) (string, error)
}

func newFakeFactory() *fakeFactory {
	return &fakeFactory{
		opened:  make(map[platform.ID][]*fakeHost),
		openErr: make(map[platform.ID]error),
		exec:    make(map[platform.ID]func(ctx context.Context, code string) (string, error)),
	}
}

func (f *fakeFactory) Open(ctx context.Context, p *platform.Platform, url string, events session.Events) (session.Host, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.openErr[p.ID]; err != nil {
		return nil, err
	}
	h := &fakeHost{platform: p.ID, url: url, events: events, exec: f.exec[p.ID]}
	f.opened[p.ID] = append(f.opened[p.ID], h)
	return h, nil
}

func (f *fakeFactory) Close() error {
	return nil
}

// host returns the page of platform p opened by the n-th created tab.
func (f *fakeFactory) host(t *testing.T, p platform.ID, n int) *fakeHost {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.Greater(t, len(f.opened[p]), n, "no %s host #%d", p, n)
	return f.opened[p][n]
}

type stubScripts struct{}

func (stubScripts) Script(id platform.ID, query string) (string, error) {
	return fmt.Sprintf("%s|%s", id, query), nil
}

// countingGateway counts Set calls on top of a MemoryStore.
type countingGateway struct {
	*persist.MemoryStore
	mu   sync.Mutex
	sets int
}

func (g *countingGateway) Set(key string, value any) error {
	g.mu.Lock()
	g.sets++
	g.mu.Unlock()
	return g.MemoryStore.Set(key, value)
}

func (g *countingGateway) setCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.sets
}

type fixture struct {
	store   *Store
	factory *fakeFactory
	gateway *countingGateway
}

type fixtureOption func(*Options)

func withTiming(debounce, grace time.Duration) fixtureOption {
	return func(o *Options) {
		o.TitleDebounce = debounce
		o.StatusGrace = grace
	}
}

func newFixture(t *testing.T, opts ...fixtureOption) *fixture {
	t.Helper()
	return newFixtureWith(t, newFakeFactory(), newGateway(), opts...)
}

func newGateway() *countingGateway {
	return &countingGateway{MemoryStore: persist.NewMemoryStore()}
}

func newFixtureWith(t *testing.T, factory *fakeFactory, gateway *countingGateway, opts ...fixtureOption) *fixture {
	t.Helper()
	o := Options{
		Registry:      platform.DefaultRegistry(),
		Factory:       factory,
		Scripts:       stubScripts{},
		Gateway:       gateway,
		TitleDebounce: 20 * time.Millisecond,
		StatusGrace:   time.Hour,
	}
	for _, opt := range opts {
		opt(&o)
	}
	s, err := New(o)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return &fixture{store: s, factory: factory, gateway: gateway}
}

func (f *fixture) saved(t *testing.T) []Snapshot {
	t.Helper()
	var saved []Snapshot
	require.NoError(t, f.gateway.Get(KeySavedTabs, &saved))
	return saved
}

func (f *fixture) activeIndex(t *testing.T) int {
	t.Helper()
	var idx int
	require.NoError(t, f.gateway.Get(KeyActiveTabIndex, &idx))
	return idx
}
