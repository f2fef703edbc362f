// Package tabs owns the chat tabs: their sessions, names, enabled platforms
// and per-platform status. Every mutation goes through Store, which also
// fans queries out to the sessions and derives tab names from page titles.
package tabs

import (
	"errors"
	"strconv"

	"github.com/entrhq/llmux/pkg/platform"
	"github.com/entrhq/llmux/pkg/session"
)

// DefaultName is the name of a tab nothing has named yet.
const DefaultName = "New Chat"

// MaxNameLength is the longest name a tab displays, in runes.
const MaxNameLength = 40

const ellipsis = "..."

var (
	ErrTabNotFound = errors.New("tab not found")
	ErrEmptyQuery  = errors.New("query is empty")
)

// TabID identifies a tab for the lifetime of the process. Ids are never
// reused.
type TabID int64

func (id TabID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

// NameState tracks who named a tab.
type NameState int

const (
	// Unnamed tabs carry DefaultName or the interim query label.
	Unnamed NameState = iota
	// AutoNamed tabs were named from a page title and may be renamed again.
	AutoNamed
	// UserLocked tabs were renamed by the user. Only a reset unlocks them.
	UserLocked
)

func (s NameState) String() string {
	switch s {
	case Unnamed:
		return "unnamed"
	case AutoNamed:
		return "auto"
	case UserLocked:
		return "user"
	default:
		return "unknown"
	}
}

// Tab is a point-in-time copy of a tab's state. Mutating it has no effect
// on the store.
type Tab struct {
	ID          TabID
	Name        string
	NameState   NameState
	UserRenamed bool
	QuerySent   bool
	Enabled     map[platform.ID]bool
	Status      map[platform.ID]session.Status
	AutoTitles  map[platform.ID]string
	URLs        map[platform.ID]string
}

// EnabledIDs returns the enabled platforms in the order of ids.
func (t Tab) EnabledIDs(ids []platform.ID) []platform.ID {
	var out []platform.ID
	for _, id := range ids {
		if t.Enabled[id] {
			out = append(out, id)
		}
	}
	return out
}

// Snapshot is the persisted form of a tab.
type Snapshot struct {
	Name             string                 `json:"name"`
	URLs             map[platform.ID]string `json:"urls"`
	EnabledPlatforms map[platform.ID]bool   `json:"enabledPlatforms"`
	UserRenamed      bool                   `json:"userRenamed"`
	QuerySent        bool                   `json:"querySent"`
}

// Truncate shortens name to MaxNameLength runes, ending it with "..." when
// anything was cut.
func Truncate(name string) string {
	runes := []rune(name)
	if len(runes) <= MaxNameLength {
		return name
	}
	return string(runes[:MaxNameLength-len(ellipsis)]) + ellipsis
}

// tab is the store-owned state of one tab. It is guarded by Store.mu.
type tab struct {
	id        TabID
	name      string
	querySent bool
	enabled   map[platform.ID]bool
	hosts     map[platform.ID]session.Host
	status    map[platform.ID]session.Status
	lastURL   map[platform.ID]string
	namer     namer
	closed    bool
}

func (t *tab) view() Tab {
	v := Tab{
		ID:          t.id,
		Name:        t.name,
		NameState:   t.namer.state,
		UserRenamed: t.namer.state == UserLocked,
		QuerySent:   t.querySent,
		Enabled:     make(map[platform.ID]bool, len(t.enabled)),
		Status:      make(map[platform.ID]session.Status, len(t.status)),
		AutoTitles:  make(map[platform.ID]string, len(t.namer.titles)),
		URLs:        make(map[platform.ID]string, len(t.lastURL)),
	}
	for k, on := range t.enabled {
		v.Enabled[k] = on
	}
	for k, st := range t.status {
		v.Status[k] = st
	}
	for k, title := range t.namer.titles {
		v.AutoTitles[k] = title
	}
	for k, u := range t.lastURL {
		v.URLs[k] = u
	}
	return v
}

func (t *tab) snapshot() Snapshot {
	snap := Snapshot{
		Name:             t.name,
		URLs:             make(map[platform.ID]string, len(t.lastURL)),
		EnabledPlatforms: make(map[platform.ID]bool, len(t.enabled)),
		UserRenamed:      t.namer.state == UserLocked,
		QuerySent:        t.querySent,
	}
	for k, u := range t.lastURL {
		snap.URLs[k] = u
	}
	for k, on := range t.enabled {
		snap.EnabledPlatforms[k] = on
	}
	return snap
}

func (t *tab) enabledCount() int {
	n := 0
	for _, on := range t.enabled {
		if on {
			n++
		}
	}
	return n
}

func copySet(set map[platform.ID]bool) map[platform.ID]bool {
	out := make(map[platform.ID]bool, len(set))
	for k, v := range set {
		out[k] = v
	}
	return out
}
