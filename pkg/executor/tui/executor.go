// Package tui is the terminal front end of llmux: a tab bar, one status row
// per platform, the query input and the command palette.
//
// The TUI codebase is split into multiple files:
// - executor.go: Program lifecycle and store subscription
// - model.go: Core model structure and state
// - model_actions.go: Commands shared by key bindings and the palette
// - update.go: Bubble Tea Update function and message handling
// - view.go: Bubble Tea View function and rendering
// - keys.go: Key bindings
// - styles.go: Color schemes and styling
package tui

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/entrhq/llmux/pkg/logging"
	"github.com/entrhq/llmux/pkg/palette"
	"github.com/entrhq/llmux/pkg/tabs"
)

// changeBuffer bounds the store changes waiting to be forwarded. Changes
// only trigger redraws, so dropping some when it is full loses nothing.
const changeBuffer = 64

// Options configures an Executor.
type Options struct {
	// Shortcuts overrides the key hints shown in the palette.
	Shortcuts palette.Shortcuts
	// Clipboard defaults to the system clipboard.
	Clipboard func(text string) error
	Logger    *logging.Logger
}

// Executor runs the interactive terminal UI over a tab store.
type Executor struct {
	store   *tabs.Store
	opts    Options
	program *tea.Program
}

// NewExecutor creates a new TUI executor for the given store. The store
// should already hold at least one tab.
func NewExecutor(store *tabs.Store, opts Options) *Executor {
	return &Executor{
		store: store,
		opts:  opts,
	}
}

// Run starts the TUI and blocks until the user exits or ctx is done.
func (e *Executor) Run(ctx context.Context) error {
	log := e.opts.Logger
	if log == nil {
		log = logging.Nop()
	}
	log.Infof("TUI starting with %d tabs", e.store.Len())

	m := newModel(ctx, e.store, e.opts)
	e.program = tea.NewProgram(
		m,
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)

	// Store callbacks may fire inside Update, so they must never block on
	// the program; a goroutine forwards them instead.
	changes := make(chan tabs.Change, changeBuffer)
	unsubscribe := e.store.Subscribe(func(c tabs.Change) {
		select {
		case changes <- c:
		default:
		}
	})
	stop := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			select {
			case c := <-changes:
				e.program.Send(changeMsg(c))
			case <-stop:
				return
			}
		}
	}()

	_, err := e.program.Run()

	unsubscribe()
	close(stop)
	<-done

	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("failed to run TUI program: %w", err)
	}
	log.Infof("TUI stopped")
	return nil
}
