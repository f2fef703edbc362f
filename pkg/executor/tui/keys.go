package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"

	"github.com/entrhq/llmux/pkg/palette"
	"github.com/entrhq/llmux/pkg/platform"
)

// keyMap holds the global key bindings. Toggle and GoTo are indexed by
// platform display order and tab position.
type keyMap struct {
	Quit       key.Binding
	Palette    key.Binding
	Send       key.Binding
	NewTab     key.Binding
	CloseTab   key.Binding
	NextTab    key.Binding
	PrevTab    key.Binding
	NewChat    key.Binding
	ReloadAll  key.Binding
	FocusInput key.Binding
	Toggle     []key.Binding
	GoTo       []key.Binding
}

func defaultKeyMap(reg *platform.Registry) keyMap {
	km := keyMap{
		Quit:       key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")),
		Palette:    key.NewBinding(key.WithKeys("ctrl+k", "ctrl+p"), key.WithHelp("ctrl+k", "commands")),
		Send:       key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "send")),
		NewTab:     key.NewBinding(key.WithKeys("ctrl+t"), key.WithHelp("ctrl+t", "new tab")),
		CloseTab:   key.NewBinding(key.WithKeys("ctrl+w"), key.WithHelp("ctrl+w", "close tab")),
		NextTab:    key.NewBinding(key.WithKeys("ctrl+right", "alt+]"), key.WithHelp("ctrl+→", "next tab")),
		PrevTab:    key.NewBinding(key.WithKeys("ctrl+left", "alt+["), key.WithHelp("ctrl+←", "previous tab")),
		NewChat:    key.NewBinding(key.WithKeys("ctrl+n"), key.WithHelp("ctrl+n", "new chat")),
		ReloadAll:  key.NewBinding(key.WithKeys("ctrl+r"), key.WithHelp("ctrl+r", "reload all")),
		FocusInput: key.NewBinding(key.WithKeys("ctrl+l"), key.WithHelp("ctrl+l", "focus input")),
	}
	for i, p := range reg.All() {
		k := fmt.Sprintf("f%d", i+1)
		km.Toggle = append(km.Toggle, key.NewBinding(key.WithKeys(k), key.WithHelp(k, "toggle "+p.Label)))
	}
	for i := 1; i <= 9; i++ {
		k := fmt.Sprintf("alt+%d", i)
		km.GoTo = append(km.GoTo, key.NewBinding(key.WithKeys(k), key.WithHelp(k, fmt.Sprintf("tab %d", i))))
	}
	return km
}

// shortcuts returns the palette hints for these bindings.
func (km keyMap) shortcuts(reg *platform.Registry) palette.Shortcuts {
	s := palette.Shortcuts{
		palette.IDNewTab:     km.NewTab.Help().Key,
		palette.IDCloseTab:   km.CloseTab.Help().Key,
		palette.IDNextTab:    km.NextTab.Help().Key,
		palette.IDPrevTab:    km.PrevTab.Help().Key,
		palette.IDNewChat:    km.NewChat.Help().Key,
		palette.IDReloadAll:  km.ReloadAll.Help().Key,
		palette.IDFocusInput: km.FocusInput.Help().Key,
	}
	for i, id := range reg.IDs() {
		if i < len(km.Toggle) {
			s[palette.ToggleID(id)] = km.Toggle[i].Help().Key
		}
	}
	return s
}
