package tabs

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entrhq/llmux/pkg/platform"
	"github.com/entrhq/llmux/pkg/session"
)

func TestNewRequiresDependencies(t *testing.T) {
	reg := platform.DefaultRegistry()
	tests := []struct {
		name string
		opts Options
	}{
		{name: "no registry", opts: Options{Factory: newFakeFactory(), Scripts: stubScripts{}}},
		{name: "no factory", opts: Options{Registry: reg, Scripts: stubScripts{}}},
		{name: "no scripts", opts: Options{Registry: reg, Factory: newFakeFactory()}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.opts)
			assert.Error(t, err)
		})
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "", want: ""},
		{in: "Short", want: "Short"},
		{in: strings.Repeat("a", 40), want: strings.Repeat("a", 40)},
		{in: strings.Repeat("a", 41), want: strings.Repeat("a", 37) + "..."},
		{in: strings.Repeat("é", 45), want: strings.Repeat("é", 37) + "..."},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Truncate(tt.in))
	}
}

func TestCreateTabDefaults(t *testing.T) {
	f := newFixture(t)
	reg := f.store.Registry()

	tab := f.store.CreateTab(context.Background(), nil)

	assert.Equal(t, TabID(1), tab.ID)
	assert.Equal(t, DefaultName, tab.Name)
	assert.Equal(t, Unnamed, tab.NameState)
	assert.False(t, tab.QuerySent)
	assert.Equal(t, reg.AllEnabled(), tab.Enabled)
	for _, p := range reg.All() {
		assert.Equal(t, session.StatusLoading, tab.Status[p.ID].Kind, p.ID)
		assert.Equal(t, p.DefaultURL, f.factory.host(t, p.ID, 0).URL())
		assert.Equal(t, p.DefaultURL, tab.URLs[p.ID])
	}

	assert.Equal(t, tab.ID, f.store.Active().ID)
	assert.Equal(t, 0, f.store.ActiveIndex())

	saved := f.saved(t)
	require.Len(t, saved, 1)
	assert.Equal(t, DefaultName, saved[0].Name)
	assert.Equal(t, 0, f.activeIndex(t))
}

func TestCreateTabIDsNeverReused(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a := f.store.CreateTab(ctx, nil)
	b := f.store.CreateTab(ctx, nil)
	require.True(t, f.store.CloseTab(b.ID))
	c := f.store.CreateTab(ctx, nil)

	assert.Equal(t, TabID(1), a.ID)
	assert.Equal(t, TabID(2), b.ID)
	assert.Equal(t, TabID(3), c.ID)
	assert.Equal(t, c.ID, f.store.Active().ID)
}

func TestCreateTabFromSnapshot(t *testing.T) {
	f := newFixture(t)

	tab := f.store.CreateTab(context.Background(), &Snapshot{
		Name: "Trip planning",
		URLs: map[platform.ID]string{
			platform.Claude:  "https://claude.ai/chat/abc",
			platform.ChatGPT: "https://evil.example/phish",
			platform.Gemini:  "",
		},
		EnabledPlatforms: map[platform.ID]bool{platform.Claude: true, platform.Gemini: true},
		UserRenamed:      true,
		QuerySent:        true,
	})

	assert.Equal(t, "Trip planning", tab.Name)
	assert.True(t, tab.UserRenamed)
	assert.Equal(t, UserLocked, tab.NameState)
	assert.True(t, tab.QuerySent)
	assert.Equal(t, map[platform.ID]bool{platform.ChatGPT: false, platform.Claude: true, platform.Gemini: true}, tab.Enabled)

	assert.Equal(t, "https://claude.ai/chat/abc", f.factory.host(t, platform.Claude, 0).URL())
	assert.Equal(t, "https://chatgpt.com", f.factory.host(t, platform.ChatGPT, 0).URL())
	assert.Equal(t, "https://gemini.google.com/app", f.factory.host(t, platform.Gemini, 0).URL())
}

func TestCreateTabSnapshotWithNothingEnabled(t *testing.T) {
	f := newFixture(t)

	tab := f.store.CreateTab(context.Background(), &Snapshot{Name: "x"})

	assert.Equal(t, f.store.Registry().AllEnabled(), tab.Enabled)
}

func TestCreateTabOpenFailureIsContained(t *testing.T) {
	factory := newFakeFactory()
	factory.openErr[platform.Claude] = errors.New("browser crashed")
	f := newFixtureWith(t, factory, newGateway())

	tab := f.store.CreateTab(context.Background(), nil)

	assert.Equal(t, session.ErrorStatus(session.LabelLoadError), tab.Status[platform.Claude])
	assert.Equal(t, session.StatusLoading, tab.Status[platform.ChatGPT].Kind)

	url, err := f.store.URL(tab.ID, platform.Claude)
	require.NoError(t, err)
	assert.Equal(t, "https://claude.ai", url)

	res, err := f.store.Dispatch(context.Background(), tab.ID, "hi")
	require.NoError(t, err)
	claude, _ := res.Outcome(platform.Claude)
	assert.Equal(t, session.ErrorStatus(""), claude.Status)
	assert.Error(t, claude.Err)
	chatgpt, _ := res.Outcome(platform.ChatGPT)
	assert.Equal(t, session.StatusSent, chatgpt.Status.Kind)
}

func TestCloseTab(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	only := f.store.CreateTab(ctx, nil)
	assert.False(t, f.store.CloseTab(only.ID), "sole tab must stay")
	assert.Equal(t, 1, f.store.Len())
	assert.Equal(t, only.ID, f.store.Active().ID)

	b := f.store.CreateTab(ctx, nil)
	c := f.store.CreateTab(ctx, nil)
	assert.False(t, f.store.CloseTab(999))

	// Closing the active middle tab activates the one that moved into its
	// place.
	require.True(t, f.store.SwitchTo(b.ID))
	require.True(t, f.store.CloseTab(b.ID))
	assert.Equal(t, c.ID, f.store.Active().ID)
	for _, p := range f.store.Registry().IDs() {
		assert.True(t, f.factory.host(t, p, 1).isClosed(), p)
		assert.False(t, f.factory.host(t, p, 2).isClosed(), p)
	}

	// Closing the active last tab clamps to the new last tab.
	require.True(t, f.store.CloseTab(c.ID))
	assert.Equal(t, only.ID, f.store.Active().ID)

	require.Len(t, f.saved(t), 1)
	assert.Equal(t, 0, f.activeIndex(t))
}

func TestCloseInactiveTabKeepsActive(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a := f.store.CreateTab(ctx, nil)
	b := f.store.CreateTab(ctx, nil)

	require.True(t, f.store.CloseTab(a.ID))
	assert.Equal(t, b.ID, f.store.Active().ID)
	assert.Equal(t, 0, f.store.ActiveIndex())
}

func TestNavigation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a := f.store.CreateTab(ctx, nil)
	b := f.store.CreateTab(ctx, nil)
	c := f.store.CreateTab(ctx, nil)

	assert.False(t, f.store.SwitchTo(42))
	assert.Equal(t, c.ID, f.store.Active().ID)

	require.True(t, f.store.Next())
	assert.Equal(t, a.ID, f.store.Active().ID, "next wraps to the first tab")
	require.True(t, f.store.Prev())
	assert.Equal(t, c.ID, f.store.Active().ID, "prev wraps to the last tab")
	require.True(t, f.store.Prev())
	assert.Equal(t, b.ID, f.store.Active().ID)

	require.True(t, f.store.GoTo(0))
	assert.Equal(t, a.ID, f.store.Active().ID)
	assert.False(t, f.store.GoTo(3))
	assert.False(t, f.store.GoTo(-1))
	assert.Equal(t, a.ID, f.store.Active().ID)

	require.True(t, f.store.SwitchTo(b.ID))
	assert.Equal(t, 1, f.activeIndex(t))
}

func TestToggleEnabledNeverLeavesNone(t *testing.T) {
	f := newFixture(t)
	tab := f.store.CreateTab(context.Background(), nil)
	ids := f.store.Registry().IDs()

	// Every sequence of toggles keeps at least one platform on.
	for i := 0; i < 50; i++ {
		f.store.ToggleEnabled(tab.ID, ids[(i*7+i/3)%len(ids)])
		got, ok := f.store.Get(tab.ID)
		require.True(t, ok)
		assert.NotEmpty(t, got.EnabledIDs(ids))
	}
}

func TestToggleEnabled(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tab := f.store.CreateTab(ctx, nil)

	require.True(t, f.store.ToggleEnabled(tab.ID, platform.ChatGPT))
	require.True(t, f.store.ToggleEnabled(tab.ID, platform.Gemini))
	assert.False(t, f.store.ToggleEnabled(tab.ID, platform.Claude), "last enabled platform")
	assert.False(t, f.store.ToggleEnabled(tab.ID, "bing"))
	assert.False(t, f.store.ToggleEnabled(99, platform.ChatGPT))

	got, _ := f.store.Get(tab.ID)
	assert.Equal(t, []platform.ID{platform.Claude}, got.EnabledIDs(f.store.Registry().IDs()))

	var lastUsed map[platform.ID]bool
	require.NoError(t, f.gateway.Get(KeyEnabledPlatforms, &lastUsed))
	assert.Equal(t, map[platform.ID]bool{platform.ChatGPT: false, platform.Claude: true, platform.Gemini: false}, lastUsed)
	assert.Equal(t, got.Enabled, f.saved(t)[0].EnabledPlatforms)

	// New tabs start from the last used set.
	next := f.store.CreateTab(ctx, nil)
	assert.Equal(t, got.Enabled, next.Enabled)
}

func TestShowOnlyAndShowAll(t *testing.T) {
	f := newFixture(t)
	tab := f.store.CreateTab(context.Background(), nil)
	ids := f.store.Registry().IDs()

	require.True(t, f.store.ShowOnly(tab.ID, platform.Gemini))
	got, _ := f.store.Get(tab.ID)
	assert.Equal(t, []platform.ID{platform.Gemini}, got.EnabledIDs(ids))

	assert.False(t, f.store.ShowOnly(tab.ID, "bing"))

	require.True(t, f.store.ShowAll(tab.ID))
	got, _ = f.store.Get(tab.ID)
	assert.Equal(t, ids, got.EnabledIDs(ids))

	var lastUsed map[platform.ID]bool
	require.NoError(t, f.gateway.Get(KeyEnabledPlatforms, &lastUsed))
	assert.Equal(t, f.store.Registry().AllEnabled(), lastUsed)
}

func TestLastEnabledLoadedFromGateway(t *testing.T) {
	gateway := newGateway()
	require.NoError(t, gateway.MemoryStore.Set(KeyEnabledPlatforms, map[string]bool{"gemini": true, "bing": true}))
	f := newFixtureWith(t, newFakeFactory(), gateway)

	tab := f.store.CreateTab(context.Background(), nil)
	assert.Equal(t, []platform.ID{platform.Gemini}, tab.EnabledIDs(f.store.Registry().IDs()))
}

func TestRenameTruncatesAndLocks(t *testing.T) {
	f := newFixture(t)
	tab := f.store.CreateTab(context.Background(), nil)

	require.NoError(t, f.store.Rename(tab.ID, "A very long name exceeding forty characters total", true))

	got, _ := f.store.Get(tab.ID)
	assert.Len(t, []rune(got.Name), 40)
	assert.True(t, strings.HasSuffix(got.Name, "..."))
	assert.Equal(t, "A very long name exceeding forty char...", got.Name)
	assert.True(t, got.UserRenamed)
	assert.Equal(t, got.Name, f.saved(t)[0].Name)
	assert.True(t, f.saved(t)[0].UserRenamed)

	assert.ErrorIs(t, f.store.Rename(77, "x", true), ErrTabNotFound)
}

func TestRenameNotUserInitiated(t *testing.T) {
	f := newFixture(t)
	tab := f.store.CreateTab(context.Background(), nil)

	require.NoError(t, f.store.Rename(tab.ID, "Interim", false))

	got, _ := f.store.Get(tab.ID)
	assert.Equal(t, "Interim", got.Name)
	assert.False(t, got.UserRenamed)
}

func TestResetTab(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tab := f.store.CreateTab(ctx, nil)

	claude := f.factory.host(t, platform.Claude, 0)
	claude.events.Navigated("https://claude.ai/chat/1")
	require.NoError(t, f.store.Rename(tab.ID, "Mine", true))
	_, err := f.store.Dispatch(ctx, tab.ID, "hello")
	require.NoError(t, err)
	claude.events.TitleUpdated("Claude - Plan")

	require.NoError(t, f.store.ResetTab(tab.ID))

	got, _ := f.store.Get(tab.ID)
	assert.Equal(t, DefaultName, got.Name)
	assert.False(t, got.UserRenamed)
	assert.False(t, got.QuerySent)
	assert.Empty(t, got.AutoTitles)
	assert.Equal(t, "https://claude.ai", got.URLs[platform.Claude])
	for _, p := range f.store.Registry().All() {
		h := f.factory.host(t, p.ID, 0)
		assert.Equal(t, []string{p.DefaultURL}, h.navigations(), p.ID)
		assert.False(t, h.isClosed())
	}

	assert.ErrorIs(t, f.store.ResetTab(99), ErrTabNotFound)
}

func TestReload(t *testing.T) {
	f := newFixture(t)
	tab := f.store.CreateTab(context.Background(), nil)
	require.True(t, f.store.ToggleEnabled(tab.ID, platform.Gemini))

	require.NoError(t, f.store.ReloadAll(tab.ID))
	assert.Equal(t, 1, f.factory.host(t, platform.Claude, 0).reloads)
	assert.Equal(t, 1, f.factory.host(t, platform.ChatGPT, 0).reloads)
	assert.Equal(t, 0, f.factory.host(t, platform.Gemini, 0).reloads, "disabled platforms are skipped")

	require.NoError(t, f.store.Reload(tab.ID, platform.Gemini))
	assert.Equal(t, 1, f.factory.host(t, platform.Gemini, 0).reloads)

	assert.ErrorIs(t, f.store.ReloadAll(9), ErrTabNotFound)
	assert.ErrorIs(t, f.store.Reload(9, platform.Claude), ErrTabNotFound)
	assert.Error(t, f.store.Reload(tab.ID, "bing"))
}

func TestURL(t *testing.T) {
	f := newFixture(t)
	tab := f.store.CreateTab(context.Background(), nil)

	require.NoError(t, f.factory.host(t, platform.ChatGPT, 0).Navigate("https://chatgpt.com/c/42"))
	url, err := f.store.URL(tab.ID, platform.ChatGPT)
	require.NoError(t, err)
	assert.Equal(t, "https://chatgpt.com/c/42", url)

	_, err = f.store.URL(5, platform.ChatGPT)
	assert.ErrorIs(t, err, ErrTabNotFound)
}

func TestNavigatedTracksOwnedURLs(t *testing.T) {
	f := newFixture(t)
	tab := f.store.CreateTab(context.Background(), nil)
	events := f.factory.host(t, platform.Claude, 0).events
	before := f.gateway.setCount()

	events.Navigated("https://claude.ai/chat/9")
	assert.Equal(t, "https://claude.ai/chat/9", f.saved(t)[0].URLs[platform.Claude])
	assert.Greater(t, f.gateway.setCount(), before)

	events.Navigated("about:blank")
	events.Navigated("chrome-error://chromewebdata/")
	got, _ := f.store.Get(tab.ID)
	assert.Equal(t, "https://claude.ai/chat/9", got.URLs[platform.Claude])
	assert.Equal(t, "https://claude.ai/chat/9", f.saved(t)[0].URLs[platform.Claude])
}

func TestLoadStateDrivesStatus(t *testing.T) {
	f := newFixture(t)
	tab := f.store.CreateTab(context.Background(), nil)
	events := f.factory.host(t, platform.Gemini, 0).events

	status := func() session.Status {
		got, _ := f.store.Get(tab.ID)
		return got.Status[platform.Gemini]
	}

	events.LoadStateChanged(session.Ready)
	assert.Equal(t, session.IdleStatus(), status())
	events.LoadStateChanged(session.Loading)
	assert.Equal(t, session.LoadingStatus(), status())
	events.LoadStateChanged(session.Failed)
	assert.Equal(t, "Load failed", status().Label())
}

func TestEventsForClosedTabIgnored(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.store.CreateTab(ctx, nil)
	f.store.CreateTab(ctx, nil)
	events := f.factory.host(t, platform.Claude, 0).events

	require.True(t, f.store.CloseTab(a.ID))

	assert.NotPanics(t, func() {
		events.TitleUpdated("Claude - Old")
		events.Navigated("https://claude.ai/chat/old")
		events.LoadStateChanged(session.Ready)
	})
	_, ok := f.store.Get(a.ID)
	assert.False(t, ok)
}

func TestPersistenceFailureIsNotFatal(t *testing.T) {
	f := newFixture(t)
	f.gateway.FailSets(errors.New("disk full"))

	tab := f.store.CreateTab(context.Background(), nil)
	require.NoError(t, f.store.Rename(tab.ID, "Still works", true))
	assert.True(t, f.store.ToggleEnabled(tab.ID, platform.Gemini))

	got, _ := f.store.Get(tab.ID)
	assert.Equal(t, "Still works", got.Name)
	_, ok := f.gateway.Raw(KeySavedTabs)
	assert.False(t, ok)
}

func TestNilGatewayDisablesPersistence(t *testing.T) {
	s, err := New(Options{
		Registry: platform.DefaultRegistry(),
		Factory:  newFakeFactory(),
		Scripts:  stubScripts{},
	})
	require.NoError(t, err)
	defer s.Close()

	tab := s.Restore(context.Background())
	assert.Equal(t, DefaultName, tab.Name)
	require.NoError(t, s.Rename(tab.ID, "x", true))
}

func TestSubscribe(t *testing.T) {
	f := newFixture(t)

	var mu sync.Mutex
	var kinds []ChangeKind
	unsubscribe := f.store.Subscribe(func(c Change) {
		mu.Lock()
		defer mu.Unlock()
		kinds = append(kinds, c.Kind)
	})

	tab := f.store.CreateTab(context.Background(), nil)
	require.NoError(t, f.store.Rename(tab.ID, "x", true))
	require.True(t, f.store.ToggleEnabled(tab.ID, platform.Gemini))

	mu.Lock()
	assert.Equal(t, []ChangeKind{ChangeTabs, ChangeName, ChangePlatforms}, kinds)
	mu.Unlock()

	unsubscribe()
	require.NoError(t, f.store.Rename(tab.ID, "y", true))
	mu.Lock()
	assert.Len(t, kinds, 3)
	mu.Unlock()
}

func TestSubscriberMayCallStore(t *testing.T) {
	f := newFixture(t)

	names := make(chan string, 8)
	f.store.Subscribe(func(c Change) {
		if c.Kind == ChangeName {
			got, _ := f.store.Get(c.Tab)
			names <- got.Name
		}
	})

	tab := f.store.CreateTab(context.Background(), nil)
	require.NoError(t, f.store.Rename(tab.ID, "Reentrant", true))
	assert.Equal(t, "Reentrant", <-names)
}

func TestCloseStore(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.store.CreateTab(ctx, nil)
	f.store.CreateTab(ctx, nil)
	before := f.gateway.setCount()

	require.NoError(t, f.store.Close())
	require.NoError(t, f.store.Close())

	for _, p := range f.store.Registry().IDs() {
		assert.True(t, f.factory.host(t, p, 0).isClosed())
		assert.True(t, f.factory.host(t, p, 1).isClosed())
	}
	assert.Equal(t, before, f.gateway.setCount(), "closing must not persist an empty layout")
}
