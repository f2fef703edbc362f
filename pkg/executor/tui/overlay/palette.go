package overlay

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/entrhq/llmux/pkg/executor/tui/types"
	"github.com/entrhq/llmux/pkg/palette"
)

const defaultMaxVisible = 8

// CommandPalette puts a palette.Palette on screen: it owns the input line,
// forwards keys and renders the ranked results.
type CommandPalette struct {
	palette    *palette.Palette
	input      textinput.Model
	maxVisible int
}

// NewCommandPalette creates a closed command palette
func NewCommandPalette() *CommandPalette {
	ti := textinput.New()
	ti.Prompt = "» "
	ti.CharLimit = 200
	return &CommandPalette{
		palette:    palette.New(),
		input:      ti,
		maxVisible: defaultMaxVisible,
	}
}

// Activate opens the palette listing entries
func (cp *CommandPalette) Activate(entries []palette.Entry) tea.Cmd {
	cp.palette.Open(entries)
	cp.input.Placeholder = "Type a command..."
	cp.input.SetValue("")
	return cp.input.Focus()
}

// ActivateRename opens the rename prompt prefilled with current
func (cp *CommandPalette) ActivateRename(current string, commit func(name string)) tea.Cmd {
	cp.palette.OpenRename(current, commit)
	cp.input.Placeholder = "Tab name"
	cp.input.SetValue(current)
	cp.input.CursorEnd()
	return cp.input.Focus()
}

// Toggle opens the palette with entries, or closes it when open
func (cp *CommandPalette) Toggle(entries []palette.Entry) tea.Cmd {
	if cp.IsActive() {
		cp.Deactivate()
		return nil
	}
	return cp.Activate(entries)
}

// Deactivate hides the palette
func (cp *CommandPalette) Deactivate() {
	cp.palette.Close()
	cp.reset()
}

func (cp *CommandPalette) reset() {
	cp.input.SetValue("")
	cp.input.Blur()
}

// IsActive returns whether the palette is open
func (cp *CommandPalette) IsActive() bool {
	return cp.palette.IsOpen()
}

func (cp *CommandPalette) Mode() palette.Mode {
	return cp.palette.Mode()
}

func (cp *CommandPalette) Results() []palette.Result {
	return cp.palette.Results()
}

func (cp *CommandPalette) Selected() int {
	return cp.palette.Selected()
}

// Input returns the text in the input line
func (cp *CommandPalette) Input() string {
	return cp.input.Value()
}

// HandleKey processes a key while the palette is open. Enter runs the
// selected command (or commits the rename) after closing the palette; the
// command may open it again.
func (cp *CommandPalette) HandleKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.Type {
	case tea.KeyEsc:
		cp.Deactivate()
		return nil
	case tea.KeyUp, tea.KeyShiftTab:
		cp.palette.SelectPrev()
		return nil
	case tea.KeyDown, tea.KeyTab:
		cp.palette.SelectNext()
		return nil
	case tea.KeyEnter:
		cp.palette.Confirm()
		if !cp.palette.IsOpen() {
			cp.reset()
		}
		return nil
	}

	var cmd tea.Cmd
	cp.input, cmd = cp.input.Update(msg)
	if value := cp.input.Value(); value != cp.palette.Query() {
		cp.palette.SetQuery(value)
	}
	return cmd
}

// Render renders the command palette
func (cp *CommandPalette) Render(width int) string {
	if !cp.IsActive() {
		return ""
	}

	// Calculate palette width (80% of screen or max 80 chars)
	paletteWidth := width * 80 / 100
	if paletteWidth > 80 {
		paletteWidth = 80
	}
	if paletteWidth < 40 {
		paletteWidth = 40
	}
	innerWidth := paletteWidth - 4

	headerStyle := lipgloss.NewStyle().
		Foreground(types.SalmonPink).
		Bold(true).
		PaddingLeft(1)
	hintStyle := lipgloss.NewStyle().
		Foreground(types.MutedGray).
		Italic(true).
		PaddingLeft(1)

	var sb strings.Builder
	title := "Commands"
	if cp.Mode() == palette.ModeRename {
		title = "Rename Tab"
	}
	sb.WriteString(headerStyle.Render(title))
	sb.WriteString("\n")
	sb.WriteString(cp.input.View())
	sb.WriteString("\n")

	if cp.Mode() == palette.ModeRename {
		sb.WriteString(hintStyle.Render("Enter to rename • Esc to cancel"))
		return cp.frame(paletteWidth).Render(sb.String())
	}

	results := cp.Results()
	if len(results) == 0 {
		sb.WriteString(hintStyle.Render("No matching commands"))
		return cp.frame(paletteWidth).Render(sb.String())
	}

	start, end := visibleWindow(len(results), cp.Selected(), cp.maxVisible)
	for i := start; i < end; i++ {
		sb.WriteString(renderResult(results[i], i == cp.Selected(), innerWidth))
		sb.WriteString("\n")
	}

	// Footer hint
	if hidden := len(results) - (end - start); hidden > 0 {
		sb.WriteString(hintStyle.Render(fmt.Sprintf("... and %d more. Keep typing to filter.", hidden)))
	}

	return cp.frame(paletteWidth).Render(strings.TrimRight(sb.String(), "\n"))
}

func (cp *CommandPalette) frame(width int) lipgloss.Style {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(types.SalmonPink).
		Width(width).
		Padding(0, 1)
}

func renderResult(r palette.Result, selected bool, width int) string {
	prefix := "  "
	if selected {
		prefix = "> "
	}

	labelStyle := lipgloss.NewStyle().
		Foreground(types.SalmonPink).
		Bold(selected)
	mutedStyle := lipgloss.NewStyle().
		Foreground(types.MutedGray)

	left := prefix + labelStyle.Render(r.Entry.Label) + "  " + mutedStyle.Render(string(r.Entry.Category))
	right := mutedStyle.Render(r.Entry.Shortcut)
	gap := width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 2 {
		gap = 2
	}
	line := left + strings.Repeat(" ", gap) + right

	if !selected {
		return line
	}
	// Highlighted background for selected item
	return lipgloss.NewStyle().
		Background(types.PaletteBg).
		Width(width).
		Render(line)
}

// visibleWindow returns the slice of n results to draw so that selected
// stays on screen.
func visibleWindow(n, selected, max int) (int, int) {
	if n <= max {
		return 0, n
	}
	start := selected - max/2
	if start < 0 {
		start = 0
	}
	if start > n-max {
		start = n - max
	}
	return start, start + max
}
