// Package types holds values shared by the TUI and its overlays.
package types

import "github.com/charmbracelet/lipgloss"

// Color palette shared by the main view and the overlays.
var (
	SalmonPink  = lipgloss.Color("#FFB3BA")
	CoralPink   = lipgloss.Color("#FFCCCB")
	MintGreen   = lipgloss.Color("#A8E6CF")
	MutedGray   = lipgloss.Color("#6B7280")
	BrightWhite = lipgloss.Color("#F9FAFB")
	ErrorRed    = lipgloss.Color("203")
	PaletteBg   = lipgloss.Color("#2A2D3A")
	DarkText    = lipgloss.Color("#1F2937")
)
