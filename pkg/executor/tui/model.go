package tui

import (
	"context"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/entrhq/llmux/pkg/executor/tui/overlay"
	"github.com/entrhq/llmux/pkg/logging"
	"github.com/entrhq/llmux/pkg/palette"
	"github.com/entrhq/llmux/pkg/platform"
	"github.com/entrhq/llmux/pkg/tabs"
)

// model represents the state of the TUI application. Tab state lives in
// the store; the model only keeps what the terminal needs on top of it.
type model struct {
	ctx   context.Context
	store *tabs.Store
	reg   *platform.Registry
	log   *logging.Logger

	keys      keyMap
	shortcuts palette.Shortcuts
	copyText  func(string) error

	// Bubble Tea components
	input   textinput.Model
	spinner spinner.Model

	// UI state
	commandPalette *overlay.CommandPalette
	toast          *toastNotification

	// pending collects commands queued by actions during one Update.
	pending []tea.Cmd

	// Window dimensions
	width  int
	height int
	ready  bool

	// Application state
	shouldQuit bool // Flag to trigger application exit
}

// changeMsg is a store change forwarded into the program.
type changeMsg tabs.Change

// dispatchDoneMsg carries the result of one query fan-out.
type dispatchDoneMsg struct {
	result tabs.Result
	err    error
}

// toastMsg triggers a toast notification
type toastMsg struct {
	message string
	details string
	icon    string
	isError bool
}

// toastNotification represents a temporary notification message
type toastNotification struct {
	active    bool
	message   string
	details   string
	icon      string
	isError   bool
	showUntil time.Time
}

func newModel(ctx context.Context, store *tabs.Store, opts Options) *model {
	reg := store.Registry()

	ti := textinput.New()
	ti.Placeholder = "Ask every enabled platform..."
	ti.Prompt = "❯ "
	ti.CharLimit = 0
	ti.Focus()

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = spinnerStyle

	keys := defaultKeyMap(reg)
	shortcuts := opts.Shortcuts
	if shortcuts == nil {
		shortcuts = keys.shortcuts(reg)
	}
	copyText := opts.Clipboard
	if copyText == nil {
		copyText = clipboard.WriteAll
	}
	log := opts.Logger
	if log == nil {
		log = logging.Nop()
	}

	return &model{
		ctx:            ctx,
		store:          store,
		reg:            reg,
		log:            log,
		keys:           keys,
		shortcuts:      shortcuts,
		copyText:       copyText,
		input:          ti,
		spinner:        s,
		commandPalette: overlay.NewCommandPalette(),
		toast:          &toastNotification{},
	}
}

// Init starts the spinner and the input cursor.
func (m *model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, textinput.Blink)
}

// commands builds the palette entries for the current tabs.
func (m *model) commands() []palette.Entry {
	return palette.Commands(m, m.reg, m.store.Tabs(), m.shortcuts)
}

// queue adds cmd to the commands returned by the current Update.
func (m *model) queue(cmd tea.Cmd) {
	if cmd != nil {
		m.pending = append(m.pending, cmd)
	}
}

// flush returns the queued commands plus extra as one batch.
func (m *model) flush(extra ...tea.Cmd) tea.Cmd {
	cmds := append(m.pending, extra...)
	m.pending = nil
	if m.shouldQuit {
		cmds = append(cmds, tea.Quit)
	}
	return tea.Batch(cmds...)
}
