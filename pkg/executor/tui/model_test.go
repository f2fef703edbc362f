package tui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entrhq/llmux/pkg/palette"
	"github.com/entrhq/llmux/pkg/platform"
	"github.com/entrhq/llmux/pkg/tabs"
)

func TestEnterSendsToActiveTab(t *testing.T) {
	f := newFixture(t)

	f.typeText("hello")
	assert.Equal(t, "hello", f.model.input.Value())
	f.press(tea.KeyMsg{Type: tea.KeyEnter})

	assert.Empty(t, f.model.input.Value())
	for _, p := range f.store.Registry().IDs() {
		assert.Equal(t, []string{string(p) + "|hello"}, f.factory.host(t, p, 0).scripts)
	}
	active := f.store.Active()
	assert.Equal(t, "hello", active.Name)
	assert.True(t, active.QuerySent)
	assert.False(t, f.model.toast.active, "a clean send raises no toast")
}

func TestEnterTrimsQuery(t *testing.T) {
	f := newFixture(t)

	f.typeText("  hello  ")
	f.press(tea.KeyMsg{Type: tea.KeyEnter})

	for _, p := range f.store.Registry().IDs() {
		assert.Equal(t, []string{string(p) + "|hello"}, f.factory.host(t, p, 0).scripts)
	}
	assert.Equal(t, "hello", f.store.Active().Name)
}

func TestEnterIgnoresBlankInput(t *testing.T) {
	f := newFixture(t)

	f.typeText("   ")
	_, cmd := f.model.Update(tea.KeyMsg{Type: tea.KeyEnter})

	assert.Nil(t, cmd)
	assert.False(t, f.store.Active().QuerySent)
}

func TestSendReportsFailedPlatforms(t *testing.T) {
	f := newFixture(t)
	f.factory.results[platform.Gemini] = "ERR: Input not found"
	f.press(tea.KeyMsg{Type: tea.KeyCtrlT})
	require.Equal(t, 2, f.store.Len())

	f.typeText("q")
	f.press(tea.KeyMsg{Type: tea.KeyEnter})

	require.True(t, f.model.toast.active)
	assert.True(t, f.model.toast.isError)
	assert.Equal(t, "Sent to 2 of 3 platforms", f.model.toast.message)
	assert.Equal(t, "Gemini: ERR: Input not found", f.model.toast.details)
}

func TestTabKeys(t *testing.T) {
	f := newFixture(t)
	first := f.store.Active().ID

	f.press(tea.KeyMsg{Type: tea.KeyCtrlT})
	require.Equal(t, 2, f.store.Len())
	second := f.store.Active().ID
	assert.NotEqual(t, first, second)

	f.press(tea.KeyMsg{Type: tea.KeyCtrlRight})
	assert.Equal(t, first, f.store.Active().ID, "next wraps around")
	f.press(tea.KeyMsg{Type: tea.KeyCtrlLeft})
	assert.Equal(t, second, f.store.Active().ID)
	f.press(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("1"), Alt: true})
	assert.Equal(t, first, f.store.Active().ID)

	f.press(tea.KeyMsg{Type: tea.KeyCtrlW})
	assert.Equal(t, 1, f.store.Len())
	assert.Equal(t, second, f.store.Active().ID)

	f.press(tea.KeyMsg{Type: tea.KeyCtrlW})
	assert.Equal(t, 1, f.store.Len(), "the last tab stays open")
}

func TestToggleKeys(t *testing.T) {
	f := newFixture(t)

	f.press(tea.KeyMsg{Type: tea.KeyF1})
	f.press(tea.KeyMsg{Type: tea.KeyF2})
	assert.Equal(t, []platform.ID{platform.Gemini}, f.store.Active().EnabledIDs(f.store.Registry().IDs()))
	assert.False(t, f.model.toast.active)

	f.press(tea.KeyMsg{Type: tea.KeyF3})
	assert.Equal(t, []platform.ID{platform.Gemini}, f.store.Active().EnabledIDs(f.store.Registry().IDs()))
	assert.False(t, f.model.toast.active, "a refused toggle changes nothing on screen")
}

func TestNewChatResetsTab(t *testing.T) {
	f := newFixture(t)
	f.typeText("hello")
	f.press(tea.KeyMsg{Type: tea.KeyEnter})
	require.Equal(t, "hello", f.store.Active().Name)

	f.press(tea.KeyMsg{Type: tea.KeyCtrlN})

	assert.Equal(t, tabs.DefaultName, f.store.Active().Name)
	assert.False(t, f.store.Active().QuerySent)
}

func TestReloadAllKey(t *testing.T) {
	f := newFixture(t)
	f.press(tea.KeyMsg{Type: tea.KeyF1})

	f.press(tea.KeyMsg{Type: tea.KeyCtrlR})

	assert.Equal(t, 0, f.factory.host(t, platform.ChatGPT, 0).reloads, "hidden platforms are not reloaded")
	assert.Equal(t, 1, f.factory.host(t, platform.Claude, 0).reloads)
	assert.Equal(t, 1, f.factory.host(t, platform.Gemini, 0).reloads)
}

func TestPaletteRunsCommand(t *testing.T) {
	f := newFixture(t)
	f.press(tea.KeyMsg{Type: tea.KeyCtrlT})
	first := f.store.Tabs()[0].ID

	f.press(tea.KeyMsg{Type: tea.KeyCtrlK})
	require.True(t, f.model.commandPalette.IsActive())
	assert.False(t, f.model.input.Focused())

	f.typeText("next tab")
	assert.Empty(t, f.model.input.Value(), "palette keys never reach the query input")
	f.press(tea.KeyMsg{Type: tea.KeyEnter})

	assert.False(t, f.model.commandPalette.IsActive())
	assert.True(t, f.model.input.Focused())
	assert.Equal(t, first, f.store.Active().ID)
}

func TestPaletteToggleAndEscape(t *testing.T) {
	f := newFixture(t)

	f.press(tea.KeyMsg{Type: tea.KeyCtrlK})
	assert.True(t, f.model.commandPalette.IsActive())
	f.press(tea.KeyMsg{Type: tea.KeyCtrlK})
	assert.False(t, f.model.commandPalette.IsActive())

	f.press(tea.KeyMsg{Type: tea.KeyCtrlK})
	f.press(tea.KeyMsg{Type: tea.KeyEsc})
	assert.False(t, f.model.commandPalette.IsActive())
	assert.True(t, f.model.input.Focused())
}

func TestPaletteRename(t *testing.T) {
	f := newFixture(t)

	f.press(tea.KeyMsg{Type: tea.KeyCtrlK})
	f.typeText("rename")
	f.press(tea.KeyMsg{Type: tea.KeyEnter})

	require.Equal(t, palette.ModeRename, f.model.commandPalette.Mode())
	assert.Equal(t, tabs.DefaultName, f.model.commandPalette.Input())

	f.press(tea.KeyMsg{Type: tea.KeyCtrlU})
	f.typeText("Borrowing")
	f.press(tea.KeyMsg{Type: tea.KeyEnter})

	active := f.store.Active()
	assert.Equal(t, "Borrowing", active.Name)
	assert.Equal(t, tabs.UserLocked, active.NameState)
	assert.False(t, f.model.commandPalette.IsActive())
}

func TestPaletteListsOpenTabs(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.store.Rename(f.store.Active().ID, "Go generics", true))

	entries := f.model.commands()

	last := entries[len(entries)-1]
	assert.Equal(t, palette.CategoryGoTo, last.Category)
	assert.Equal(t, "Go generics", last.Label)

	byID := make(map[string]palette.Entry)
	for _, e := range entries {
		byID[e.ID] = e
	}
	assert.Equal(t, "ctrl+t", byID[palette.IDNewTab].Shortcut)
	assert.Equal(t, "f2", byID[palette.ToggleID(platform.Claude)].Shortcut)
}

func TestCopyLink(t *testing.T) {
	f := newFixture(t)

	f.model.CopyLink(platform.Claude)
	for _, msg := range collect(f.model.flush()) {
		f.model.Update(msg)
	}

	assert.Equal(t, []string{"https://claude.ai"}, f.copied)
	assert.Equal(t, "Copied Claude link", f.model.toast.message)
	assert.False(t, f.model.toast.isError)
}

func TestQuit(t *testing.T) {
	f := newFixture(t)

	_, cmd := f.model.Update(tea.KeyMsg{Type: tea.KeyCtrlC})

	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.True(t, f.model.shouldQuit)
}

func TestChangeMessagesOnlyRedraw(t *testing.T) {
	f := newFixture(t)

	_, cmd := f.model.Update(changeMsg{Kind: tabs.ChangeStatus, Tab: f.store.Active().ID, Platform: platform.Claude})

	assert.Nil(t, cmd)
}
