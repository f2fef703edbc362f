package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/entrhq/llmux/pkg/executor/tui/types"
)

// Color Palette
// The overlay package shares these through the types package.
var (
	salmonPink  = types.SalmonPink  // Soft pastel salmon pink - primary accent
	coralPink   = types.CoralPink   // Lighter coral accent - secondary
	mintGreen   = types.MintGreen   // Soft mint green - success states
	mutedGray   = types.MutedGray   // Muted gray - secondary text
	brightWhite = types.BrightWhite // Bright white - primary text
	errorRed    = types.ErrorRed
)

// Common Styles
var (
	// Text Styles
	headerStyle = lipgloss.NewStyle().
			Foreground(salmonPink).
			Bold(true)

	tipsStyle = lipgloss.NewStyle().
			Foreground(mutedGray)

	spinnerStyle = lipgloss.NewStyle().
			Foreground(salmonPink)

	// Tab bar
	activeTabStyle = lipgloss.NewStyle().
			Foreground(types.DarkText).
			Background(salmonPink).
			Bold(true).
			Padding(0, 1)

	inactiveTabStyle = lipgloss.NewStyle().
				Foreground(coralPink).
				Padding(0, 1)

	// Platform rows
	platformLabelStyle = lipgloss.NewStyle().
				Foreground(brightWhite).
				Bold(true).
				Width(10)

	disabledStyle = lipgloss.NewStyle().
			Foreground(mutedGray)

	sentStyle = lipgloss.NewStyle().
			Foreground(mintGreen)

	errorStyle = lipgloss.NewStyle().
			Foreground(errorRed)

	urlStyle = lipgloss.NewStyle().
			Foreground(mutedGray).
			Italic(true)

	// Container Styles
	statusBarStyle = lipgloss.NewStyle().
			Foreground(mutedGray).
			Padding(0, 1)

	inputBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(salmonPink).
			Padding(0, 1)

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(mutedGray).
			Padding(0, 1)
)
