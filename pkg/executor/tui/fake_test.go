package tui

import (
	"context"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"

	"github.com/entrhq/llmux/pkg/platform"
	"github.com/entrhq/llmux/pkg/session"
	"github.com/entrhq/llmux/pkg/tabs"
)

type fakeHost struct {
	mu      sync.Mutex
	url     string
	result  string
	scripts []string
	reloads int
}

func (h *fakeHost) URL() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.url
}

func (h *fakeHost) Navigate(url string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.url = url
	return nil
}

func (h *fakeHost) Reload() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.reloads++
	return nil
}

func (h *fakeHost) ExecuteScript(_ context.Context, code string) (string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.scripts = append(h.scripts, code)
	return h.result, nil
}

func (h *fakeHost) Close() error { return nil }

type fakeFactory struct {
	mu      sync.Mutex
	results map[platform.ID]string
	opened  map[platform.ID][]*fakeHost
}

func newFakeFactory() *fakeFactory {
	return &fakeFactory{
		results: make(map[platform.ID]string),
		opened:  make(map[platform.ID][]*fakeHost),
	}
}

func (f *fakeFactory) Open(_ context.Context, p *platform.Platform, url string, _ session.Events) (session.Host, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	result := f.results[p.ID]
	if result == "" {
		result = "OK"
	}
	h := &fakeHost{url: url, result: result}
	f.opened[p.ID] = append(f.opened[p.ID], h)
	return h, nil
}

func (f *fakeFactory) Close() error { return nil }

func (f *fakeFactory) host(t *testing.T, p platform.ID, n int) *fakeHost {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.Greater(t, len(f.opened[p]), n, "no host %d for %s", n, p)
	return f.opened[p][n]
}

type stubScripts struct{}

func (stubScripts) Script(id platform.ID, query string) (string, error) {
	return string(id) + "|" + query, nil
}

type fixture struct {
	model   *model
	store   *tabs.Store
	factory *fakeFactory
	copied  []string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{factory: newFakeFactory()}

	store, err := tabs.New(tabs.Options{
		Registry:    platform.DefaultRegistry(),
		Factory:     f.factory,
		Scripts:     stubScripts{},
		StatusGrace: time.Hour,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	store.CreateTab(context.Background(), nil)

	f.store = store
	f.model = newModel(context.Background(), store, Options{
		Clipboard: func(text string) error {
			f.copied = append(f.copied, text)
			return nil
		},
	})
	f.model.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return f
}

// press sends msg to the model and feeds back the messages its command
// produces.
func (f *fixture) press(msg tea.Msg) {
	_, cmd := f.model.Update(msg)
	for _, out := range collect(cmd) {
		f.model.Update(out)
	}
}

func (f *fixture) typeText(s string) {
	f.press(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
}

// collect runs cmd and returns its messages, expanding batches. Commands
// that wait on timers, like cursor blinks, are abandoned.
func collect(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	ch := make(chan tea.Msg, 1)
	go func() { ch <- cmd() }()

	select {
	case msg := <-ch:
		if batch, ok := msg.(tea.BatchMsg); ok {
			var out []tea.Msg
			for _, c := range batch {
				out = append(out, collect(c)...)
			}
			return out
		}
		if msg == nil {
			return nil
		}
		return []tea.Msg{msg}
	case <-time.After(200 * time.Millisecond):
		return nil
	}
}
