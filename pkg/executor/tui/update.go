package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/entrhq/llmux/pkg/session"
)

// Update handles all state updates for the TUI model.
// This is the main event loop handler for Bubble Tea.
//
// Uses pointer receiver so palette actions, which call back into the
// model, mutate the same value the program renders.
func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	// Check if quit was requested by an action
	if m.shouldQuit {
		return m, tea.Quit
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleWindowResize(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case changeMsg:
		// The view reads the store directly; a change only needs a redraw.
		m.log.Debugf("store change: %s tab=%s platform=%s", msg.Kind, msg.Tab, msg.Platform)
		return m, nil

	case dispatchDoneMsg:
		return m.handleDispatchDone(msg)

	case toastMsg:
		m.ShowToast(msg.message, msg.details, msg.icon, msg.isError)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *model) handleWindowResize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.width = msg.Width
	m.height = msg.Height
	m.input.Width = max(msg.Width-8, 10)
	m.ready = true
	return m, nil
}

//nolint:gocyclo
func (m *model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) {
		m.Quit()
		return m, tea.Quit
	}

	// Handle command palette keyboard input BEFORE the query input so Enter
	// confirms the palette instead of sending.
	if key.Matches(msg, m.keys.Palette) {
		if m.commandPalette.IsActive() {
			m.commandPalette.Deactivate()
			return m, m.input.Focus()
		}
		m.input.Blur()
		return m, m.commandPalette.Activate(m.commands())
	}
	if m.commandPalette.IsActive() {
		cmd := m.commandPalette.HandleKey(msg)
		if !m.commandPalette.IsActive() {
			m.queue(m.input.Focus())
		}
		return m, m.flush(cmd)
	}

	switch {
	case key.Matches(msg, m.keys.Send):
		return m, m.send()
	case key.Matches(msg, m.keys.NewTab):
		m.NewTab()
	case key.Matches(msg, m.keys.CloseTab):
		m.CloseTab()
	case key.Matches(msg, m.keys.NextTab):
		m.NextTab()
	case key.Matches(msg, m.keys.PrevTab):
		m.PrevTab()
	case key.Matches(msg, m.keys.NewChat):
		m.NewChat()
	case key.Matches(msg, m.keys.ReloadAll):
		m.ReloadAll()
	case key.Matches(msg, m.keys.FocusInput):
		m.FocusInput()
	default:
		for i, b := range m.keys.Toggle {
			if key.Matches(msg, b) {
				m.Toggle(m.reg.IDs()[i])
				return m, m.flush()
			}
		}
		for i, b := range m.keys.GoTo {
			if key.Matches(msg, b) {
				m.store.GoTo(i)
				return m, m.flush()
			}
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, m.flush()
}

// send dispatches the input to the active tab and clears it.
func (m *model) send() tea.Cmd {
	query := strings.TrimSpace(m.input.Value())
	if query == "" {
		return nil
	}
	m.input.Reset()
	return func() tea.Msg {
		result, err := m.store.DispatchActive(m.ctx, query)
		return dispatchDoneMsg{result: result, err: err}
	}
}

// handleDispatchDone reports failed platforms. Successful sends show in the
// status row only.
func (m *model) handleDispatchDone(msg dispatchDoneMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.log.Warnf("dispatch failed: %v", msg.err)
		m.ShowToast("Send failed", msg.err.Error(), "✗", true)
		return m, nil
	}

	var failures []string
	for _, o := range msg.result.Outcomes {
		if o.Status.Kind != session.StatusError {
			continue
		}
		label := string(o.Platform)
		if p, ok := m.reg.Get(o.Platform); ok {
			label = p.Label
		}
		failures = append(failures, fmt.Sprintf("%s: %s", label, o.Status.Label()))
	}
	if len(failures) > 0 {
		title := fmt.Sprintf("Sent to %d of %d platforms", msg.result.Sent(), len(msg.result.Outcomes))
		m.ShowToast(title, strings.Join(failures, "\n"), "⚠", true)
	}
	return m, nil
}
