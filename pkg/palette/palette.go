// Package palette is the command palette: a fuzzy-filtered list of actions
// plus a rename prompt for the active tab. It holds no UI code; the terminal
// front end renders Results and forwards keys.
package palette

import (
	"strings"

	"github.com/entrhq/llmux/pkg/fuzzy"
)

// Category groups entries in the list.
type Category string

const (
	CategoryTabs      Category = "Tabs"
	CategoryPlatforms Category = "Platforms"
	CategoryActions   Category = "Actions"
	CategoryGoTo      Category = "Go to Tab"
)

// Entry is one command. Entries are rebuilt each time the palette opens.
type Entry struct {
	ID       string
	Label    string
	Category Category
	// Shortcut is a display hint only; it may be empty.
	Shortcut string
	Action   func()
}

// Result is an entry as currently ranked.
type Result struct {
	Entry Entry
	Score int
}

// Mode is what the palette input means.
type Mode int

const (
	ModeClosed Mode = iota
	ModeCommand
	ModeRename
)

func (m Mode) String() string {
	switch m {
	case ModeCommand:
		return "command"
	case ModeRename:
		return "rename"
	default:
		return "closed"
	}
}

// Palette tracks the open state, the typed query and the selection. It is
// not safe for concurrent use; the UI loop owns it.
type Palette struct {
	mode     Mode
	entries  []Entry
	query    string
	results  []Result
	selected int
	onRename func(name string)
}

// New returns a closed palette.
func New() *Palette {
	return &Palette{}
}

// Open shows entries in command mode with an empty query.
func (p *Palette) Open(entries []Entry) {
	p.mode = ModeCommand
	p.entries = entries
	p.onRename = nil
	p.SetQuery("")
}

// OpenRename switches to the rename prompt, prefilled with current. commit
// receives the trimmed name on confirmation.
func (p *Palette) OpenRename(current string, commit func(name string)) {
	p.mode = ModeRename
	p.entries = nil
	p.results = nil
	p.selected = 0
	p.query = current
	p.onRename = commit
}

// Close hides the palette.
func (p *Palette) Close() {
	p.mode = ModeClosed
	p.entries = nil
	p.results = nil
	p.query = ""
	p.selected = 0
	p.onRename = nil
}

// Toggle opens the palette with entries, or closes it when open.
func (p *Palette) Toggle(entries []Entry) {
	if p.IsOpen() {
		p.Close()
		return
	}
	p.Open(entries)
}

func (p *Palette) Mode() Mode {
	return p.mode
}

func (p *Palette) IsOpen() bool {
	return p.mode != ModeClosed
}

// Query returns the text in the palette input.
func (p *Palette) Query() string {
	return p.query
}

// SetQuery replaces the input text. In command mode it re-ranks the entries
// and moves the selection to the top; in rename mode it only edits the name.
func (p *Palette) SetQuery(query string) {
	p.query = query
	if p.mode != ModeCommand {
		return
	}
	ranked := fuzzy.Rank(query, len(p.entries), func(i int) string {
		return p.entries[i].Label
	})
	p.results = make([]Result, len(ranked))
	for i, r := range ranked {
		p.results[i] = Result{Entry: p.entries[r.Index], Score: r.Score}
	}
	p.selected = 0
}

// Results returns the ranked entries. It is empty in rename mode.
func (p *Palette) Results() []Result {
	return p.results
}

// Selected returns the index of the highlighted result.
func (p *Palette) Selected() int {
	return p.selected
}

// SelectNext moves the highlight down, wrapping to the top.
func (p *Palette) SelectNext() {
	if len(p.results) == 0 {
		return
	}
	p.selected = (p.selected + 1) % len(p.results)
}

// SelectPrev moves the highlight up, wrapping to the bottom.
func (p *Palette) SelectPrev() {
	if len(p.results) == 0 {
		return
	}
	p.selected = (p.selected - 1 + len(p.results)) % len(p.results)
}

// Execute closes the palette and runs the action of result index. It does
// nothing in rename mode or for an index out of range. The action may
// reopen the palette.
func (p *Palette) Execute(index int) bool {
	if p.mode != ModeCommand || index < 0 || index >= len(p.results) {
		return false
	}
	action := p.results[index].Entry.Action
	p.Close()
	if action != nil {
		action()
	}
	return true
}

// Confirm is the Enter key: it executes the selection in command mode and
// commits the name in rename mode.
func (p *Palette) Confirm() bool {
	switch p.mode {
	case ModeCommand:
		return p.Execute(p.selected)
	case ModeRename:
		return p.CommitRename()
	default:
		return false
	}
}

// CommitRename closes the prompt and hands the trimmed input to the commit
// function. A blank name closes the prompt without renaming.
func (p *Palette) CommitRename() bool {
	if p.mode != ModeRename {
		return false
	}
	name := strings.TrimSpace(p.query)
	commit := p.onRename
	p.Close()
	if name == "" || commit == nil {
		return false
	}
	commit(name)
	return true
}
