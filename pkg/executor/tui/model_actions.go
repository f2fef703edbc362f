package tui

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/entrhq/llmux/pkg/palette"
	"github.com/entrhq/llmux/pkg/platform"
	"github.com/entrhq/llmux/pkg/tabs"
)

var _ palette.Actions = (*model)(nil)

// run queues fn as a command. Store calls that wait on pages go through
// here so the UI never blocks on a browser. A failure becomes a toast.
func (m *model) run(failure string, fn func() error) {
	m.queue(func() tea.Msg {
		if err := fn(); err != nil {
			return toastMsg{message: failure, details: err.Error(), icon: "✗", isError: true}
		}
		return nil
	})
}

// NewTab opens a fresh tab with the last used platforms.
func (m *model) NewTab() {
	m.run("Could not open tab", func() error {
		m.store.CreateTab(m.ctx, nil)
		return nil
	})
}

// CloseTab closes the active tab. The last tab stays open.
func (m *model) CloseTab() {
	id := m.store.Active().ID
	m.run("Could not close tab", func() error {
		m.store.CloseTab(id)
		return nil
	})
}

func (m *model) NextTab() {
	m.store.Next()
}

func (m *model) PrevTab() {
	m.store.Prev()
}

// NewChat starts the active tab over on every platform.
func (m *model) NewChat() {
	id := m.store.Active().ID
	m.run("Could not start a new chat", func() error {
		return m.store.ResetTab(id)
	})
}

// RenameTab reopens the palette as a rename prompt for the active tab.
func (m *model) RenameTab() {
	active := m.store.Active()
	m.queue(m.commandPalette.ActivateRename(active.Name, func(name string) {
		if err := m.store.Rename(active.ID, name, true); err != nil {
			m.ShowToast("Rename failed", err.Error(), "✗", true)
		}
	}))
}

// Toggle flips one platform. Disabling the last enabled platform is refused
// by the store and has no visible effect.
func (m *model) Toggle(p platform.ID) {
	m.store.ToggleEnabled(m.store.Active().ID, p)
}

func (m *model) ShowOnly(p platform.ID) {
	m.store.ShowOnly(m.store.Active().ID, p)
}

func (m *model) ShowAll() {
	m.store.ShowAll(m.store.Active().ID)
}

func (m *model) ReloadAll() {
	id := m.store.Active().ID
	m.run("Reload failed", func() error {
		return m.store.ReloadAll(id)
	})
}

func (m *model) Reload(p platform.ID) {
	id := m.store.Active().ID
	m.run("Reload failed", func() error {
		return m.store.Reload(id, p)
	})
}

// CopyLink puts the platform's current conversation URL on the clipboard.
func (m *model) CopyLink(p platform.ID) {
	id := m.store.Active().ID
	label := string(p)
	if def, ok := m.reg.Get(p); ok {
		label = def.Label
	}
	copyText := m.copyText
	m.queue(func() tea.Msg {
		url, err := m.store.URL(id, p)
		if err == nil {
			err = copyText(url)
		}
		if err != nil {
			return toastMsg{message: "Copy failed", details: err.Error(), icon: "✗", isError: true}
		}
		return toastMsg{message: fmt.Sprintf("Copied %s link", label), details: url, icon: "✓"}
	})
}

// FocusInput returns the keyboard to the query input.
func (m *model) FocusInput() {
	m.commandPalette.Deactivate()
	m.queue(m.input.Focus())
}

func (m *model) GoTo(id tabs.TabID) {
	m.store.SwitchTo(id)
}

// ShowToast displays a toast notification
func (m *model) ShowToast(message, details, icon string, isError bool) {
	m.toast = &toastNotification{
		active:    true,
		message:   message,
		details:   details,
		icon:      icon,
		isError:   isError,
		showUntil: time.Now().Add(3 * time.Second),
	}
}

// Quit triggers application exit by setting a flag that will be checked in the Update loop.
func (m *model) Quit() {
	m.shouldQuit = true
}
