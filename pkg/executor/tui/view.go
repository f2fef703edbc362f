package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/entrhq/llmux/pkg/platform"
	"github.com/entrhq/llmux/pkg/session"
	"github.com/entrhq/llmux/pkg/tabs"
)

// View renders the entire TUI interface.
// This is called by Bubble Tea whenever the UI needs to be redrawn.
func (m *model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	all := m.store.Tabs()
	active := m.store.Active()

	baseView := lipgloss.JoinVertical(
		lipgloss.Left,
		m.buildHeader(),
		m.buildTabBar(all, active.ID),
		m.buildPlatforms(active),
		m.buildInputBox(),
		m.buildBottomBar(len(all)),
	)

	// Layer overlays
	return m.applyOverlays(baseView)
}

// buildHeader renders the title line with usage tips
func (m *model) buildHeader() string {
	return headerStyle.Render(" LLMux ") +
		tipsStyle.Render(" Enter sends to every enabled platform • Ctrl+K commands • Ctrl+T new tab • F1-F3 toggle platforms")
}

// buildTabBar renders one label per tab, the active one highlighted
func (m *model) buildTabBar(all []tabs.Tab, active tabs.TabID) string {
	labels := make([]string, 0, len(all))
	for i, t := range all {
		label := fmt.Sprintf("%d %s", i+1, t.Name)
		if t.ID == active {
			labels = append(labels, activeTabStyle.Render(label))
		} else {
			labels = append(labels, inactiveTabStyle.Render(label))
		}
	}
	bar := lipgloss.JoinHorizontal(lipgloss.Top, labels...)
	return lipgloss.NewStyle().MaxWidth(m.width).Render(bar)
}

// buildPlatforms renders one row per platform: whether it is enabled, its
// status and where its page is.
func (m *model) buildPlatforms(t tabs.Tab) string {
	rows := make([]string, 0, len(m.reg.All()))
	for _, p := range m.reg.All() {
		rows = append(rows, m.platformRow(t, p))
	}
	return panelStyle.Width(m.width - 2).Render(strings.Join(rows, "\n"))
}

func (m *model) platformRow(t tabs.Tab, p *platform.Platform) string {
	if !t.Enabled[p.ID] {
		return disabledStyle.Render("○ " + padRight(p.Label, 10) + "hidden")
	}

	status := t.Status[p.ID]
	row := "● " + platformLabelStyle.Render(p.Label) + m.renderStatus(status)
	if u := t.URLs[p.ID]; u != "" {
		room := m.width - lipgloss.Width(row) - 10
		row += "  " + urlStyle.Render(truncateMiddle(u, room))
	}
	return row
}

// renderStatus shows a spinner while a page is busy
func (m *model) renderStatus(s session.Status) string {
	label := s.Label()
	switch s.Kind {
	case session.StatusLoading, session.StatusInjecting:
		return m.spinner.View() + " " + label
	case session.StatusSent:
		return sentStyle.Render("✓ " + label)
	case session.StatusError:
		return errorStyle.Render("✗ " + label)
	default:
		return tipsStyle.Render("· " + label)
	}
}

// buildInputBox renders the query input
func (m *model) buildInputBox() string {
	return inputBoxStyle.Width(m.width - 4).Render(m.input.View())
}

// buildBottomBar renders the bottom status bar
func (m *model) buildBottomBar(tabCount int) string {
	bottomLeft := "~/llmux"
	bottomCenter := "Enter to send • Ctrl+K for commands • Ctrl+C to quit"
	bottomRight := fmt.Sprintf("%d tab", tabCount)
	if tabCount != 1 {
		bottomRight += "s"
	}

	totalUsed := len(bottomLeft) + len(bottomCenter) + len(bottomRight)
	leftPadding := (m.width - totalUsed) / 3
	rightPadding := m.width - totalUsed - leftPadding*2
	if leftPadding < 2 {
		leftPadding = 2
	}
	if rightPadding < 2 {
		rightPadding = 2
	}

	return statusBarStyle.Width(m.width).Render(
		bottomLeft +
			strings.Repeat(" ", leftPadding) +
			bottomCenter +
			strings.Repeat(" ", rightPadding) +
			bottomRight,
	)
}

// applyOverlays layers all active overlays on top of the base view
func (m *model) applyOverlays(baseView string) string {
	if m.commandPalette.IsActive() {
		paletteContent := m.commandPalette.Render(m.width)
		baseView = renderToastOverlay(baseView, paletteContent)
	}

	// Add toast notification as overlay if active and not expired
	if m.toast.active && time.Now().Before(m.toast.showUntil) {
		toastContent := m.renderToast()
		baseView = renderToastOverlay(baseView, toastContent)
	}

	return baseView
}

// renderToast renders a toast notification
func (m *model) renderToast() string {
	if !m.toast.active || time.Now().After(m.toast.showUntil) {
		return ""
	}

	// Create box with border
	boxWidth := m.width - 4
	if boxWidth < 40 {
		boxWidth = 40
	}

	var content strings.Builder

	// Icon and message
	header := fmt.Sprintf("%s %s", m.toast.icon, m.toast.message)
	content.WriteString(header)
	content.WriteString("\n")

	// Details
	if m.toast.details != "" {
		content.WriteString(m.toast.details)
	}

	// Create styled box
	borderColor := salmonPink
	if m.toast.isError {
		borderColor = errorRed
	}

	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(borderColor).
		Padding(0, 1).
		Width(boxWidth)

	return "\n" + boxStyle.Render(content.String()) + "\n"
}
