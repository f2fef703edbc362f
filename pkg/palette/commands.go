package palette

import (
	"fmt"

	"github.com/entrhq/llmux/pkg/platform"
	"github.com/entrhq/llmux/pkg/tabs"
)

// Actions is what palette commands can do.
type Actions interface {
	NewTab()
	CloseTab()
	NextTab()
	PrevTab()
	NewChat()
	RenameTab()
	Toggle(p platform.ID)
	ShowOnly(p platform.ID)
	ShowAll()
	ReloadAll()
	Reload(p platform.ID)
	CopyLink(p platform.ID)
	FocusInput()
	GoTo(id tabs.TabID)
}

// Entry ids.
const (
	IDNewTab     = "new-tab"
	IDCloseTab   = "close-tab"
	IDNextTab    = "next-tab"
	IDPrevTab    = "prev-tab"
	IDNewChat    = "new-chat"
	IDRenameTab  = "rename-tab"
	IDShowAll    = "show-all"
	IDReloadAll  = "reload-all"
	IDFocusInput = "focus-input"
)

func ToggleID(p platform.ID) string   { return "toggle-" + string(p) }
func ShowOnlyID(p platform.ID) string { return "show-only-" + string(p) }
func ReloadID(p platform.ID) string   { return "reload-" + string(p) }
func CopyLinkID(p platform.ID) string { return "copy-link-" + string(p) }
func GoToID(id tabs.TabID) string     { return "goto-tab-" + id.String() }

// Shortcuts maps entry ids to the key hint shown next to them.
type Shortcuts map[string]string

// DefaultShortcuts returns the desktop-style hints. Platform toggles are
// numbered in display order.
func DefaultShortcuts(reg *platform.Registry) Shortcuts {
	s := Shortcuts{
		IDNewTab:     "⌘T",
		IDCloseTab:   "⌘W",
		IDNextTab:    "⌘⇧]",
		IDPrevTab:    "⌘⇧[",
		IDNewChat:    "⌘N",
		IDReloadAll:  "⌘⇧R",
		IDFocusInput: "⌘L",
	}
	for i, id := range reg.IDs() {
		s[ToggleID(id)] = fmt.Sprintf("⌘⇧ %d", i+1)
	}
	return s
}

// Commands builds the full command list: the static commands followed by
// one "Go to Tab" entry per open tab.
func Commands(a Actions, reg *platform.Registry, open []tabs.Tab, keys Shortcuts) []Entry {
	var out []Entry
	add := func(id, label string, cat Category, action func()) {
		out = append(out, Entry{ID: id, Label: label, Category: cat, Shortcut: keys[id], Action: action})
	}

	add(IDNewTab, "New Tab", CategoryTabs, a.NewTab)
	add(IDCloseTab, "Close Tab", CategoryTabs, a.CloseTab)
	add(IDNextTab, "Next Tab", CategoryTabs, a.NextTab)
	add(IDPrevTab, "Previous Tab", CategoryTabs, a.PrevTab)
	add(IDNewChat, "New Chat", CategoryTabs, a.NewChat)
	add(IDRenameTab, "Rename Tab", CategoryTabs, a.RenameTab)

	platforms := reg.All()
	for _, p := range platforms {
		add(ToggleID(p.ID), "Toggle "+p.Label, CategoryPlatforms, func() { a.Toggle(p.ID) })
	}
	for _, p := range platforms {
		add(ShowOnlyID(p.ID), "Show Only "+p.Label, CategoryPlatforms, func() { a.ShowOnly(p.ID) })
	}
	add(IDShowAll, "Show All Platforms", CategoryPlatforms, a.ShowAll)

	add(IDReloadAll, "Reload All Panels", CategoryActions, a.ReloadAll)
	for _, p := range platforms {
		add(ReloadID(p.ID), "Reload "+p.Label, CategoryActions, func() { a.Reload(p.ID) })
	}
	for _, p := range platforms {
		add(CopyLinkID(p.ID), "Copy Link: "+p.Label, CategoryActions, func() { a.CopyLink(p.ID) })
	}
	add(IDFocusInput, "Focus Input", CategoryActions, a.FocusInput)

	for _, t := range open {
		add(GoToID(t.ID), t.Name, CategoryGoTo, func() { a.GoTo(t.ID) })
	}
	return out
}
