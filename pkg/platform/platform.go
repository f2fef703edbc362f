// Package platform defines the fixed set of remote chat services that every
// tab opens a session for.
//
// The set is built once at startup and never mutated. Display order (the
// order panels are laid out and commands are listed) and naming priority
// (which platform's page title wins when a tab is auto-named) are tracked
// separately.
package platform

import (
	"fmt"
	"sort"
	"strings"

	"github.com/gobwas/glob"
)

// ID identifies a platform. It doubles as the persistence key for the
// platform's per-tab state.
type ID string

const (
	ChatGPT ID = "chatgpt"
	Claude  ID = "claude"
	Gemini  ID = "gemini"
)

// Platform describes one target service.
type Platform struct {
	ID    ID
	Label string
	// DefaultURL is where new and reset sessions are pointed.
	DefaultURL string
	// Priority orders platforms for auto-naming. Lower wins.
	Priority int
	// Partition names the persistent browser profile shared by every tab's
	// session for this platform.
	Partition string
	// Domains are glob patterns matched against the registrable domain of a
	// URL to decide whether the URL belongs to this platform.
	Domains []string
	// TitleDecorations are the brand strings services put around page titles.
	TitleDecorations []string

	domainGlobs []glob.Glob
}

// Registry holds the platforms in display order.
type Registry struct {
	platforms []*Platform
	byID      map[ID]*Platform
	priority  []ID
}

// Defaults returns the built-in platform definitions in display order.
func Defaults() []Platform {
	return []Platform{
		{
			ID:               ChatGPT,
			Label:            "ChatGPT",
			DefaultURL:       "https://chatgpt.com",
			Priority:         1,
			Partition:        "persist-chatgpt",
			Domains:          []string{"chatgpt.com", "openai.com"},
			TitleDecorations: []string{"ChatGPT"},
		},
		{
			ID:               Claude,
			Label:            "Claude",
			DefaultURL:       "https://claude.ai",
			Priority:         0,
			Partition:        "persist-claude",
			Domains:          []string{"claude.ai", "anthropic.com"},
			TitleDecorations: []string{"Claude", "Claude.ai"},
		},
		{
			ID:               Gemini,
			Label:            "Gemini",
			DefaultURL:       "https://gemini.google.com/app",
			Priority:         2,
			Partition:        "persist-gemini",
			Domains:          []string{"google.*", "googleapis.com", "youtube.com"},
			TitleDecorations: []string{"Gemini", "Google Gemini"},
		},
	}
}

// NewRegistry validates the definitions and compiles their domain patterns.
func NewRegistry(defs []Platform) (*Registry, error) {
	if len(defs) == 0 {
		return nil, fmt.Errorf("at least one platform is required")
	}

	r := &Registry{
		byID: make(map[ID]*Platform, len(defs)),
	}
	for i := range defs {
		p := defs[i]
		if p.ID == "" {
			return nil, fmt.Errorf("platform %d has no id", i)
		}
		if _, dup := r.byID[p.ID]; dup {
			return nil, fmt.Errorf("platform %q defined twice", p.ID)
		}
		if strings.TrimSpace(p.DefaultURL) == "" {
			return nil, fmt.Errorf("platform %q has no default url", p.ID)
		}
		if p.Label == "" {
			p.Label = string(p.ID)
		}
		if p.Partition == "" {
			p.Partition = "persist-" + string(p.ID)
		}
		for _, pattern := range p.Domains {
			g, err := glob.Compile(strings.ToLower(pattern))
			if err != nil {
				return nil, fmt.Errorf("platform %q: invalid domain pattern %q: %w", p.ID, pattern, err)
			}
			p.domainGlobs = append(p.domainGlobs, g)
		}
		r.platforms = append(r.platforms, &p)
		r.byID[p.ID] = &p
	}

	ordered := make([]*Platform, len(r.platforms))
	copy(ordered, r.platforms)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Priority < ordered[j].Priority
	})
	for _, p := range ordered {
		r.priority = append(r.priority, p.ID)
	}

	return r, nil
}

// DefaultRegistry returns a registry of the built-in platforms.
func DefaultRegistry() *Registry {
	r, err := NewRegistry(Defaults())
	if err != nil {
		panic(fmt.Sprintf("built-in platforms are invalid: %v", err))
	}
	return r
}

// Get returns the platform with the given id.
func (r *Registry) Get(id ID) (*Platform, bool) {
	p, ok := r.byID[id]
	return p, ok
}

// IDs returns platform ids in display order.
func (r *Registry) IDs() []ID {
	ids := make([]ID, len(r.platforms))
	for i, p := range r.platforms {
		ids[i] = p.ID
	}
	return ids
}

// All returns the platforms in display order.
func (r *Registry) All() []*Platform {
	out := make([]*Platform, len(r.platforms))
	copy(out, r.platforms)
	return out
}

// Priority returns platform ids from highest to lowest naming priority.
func (r *Registry) Priority() []ID {
	out := make([]ID, len(r.priority))
	copy(out, r.priority)
	return out
}

// TitleDecorations returns every platform's decorations in display order.
func (r *Registry) TitleDecorations() []string {
	var out []string
	for _, p := range r.platforms {
		out = append(out, p.TitleDecorations...)
	}
	return out
}

// AllEnabled returns an enabled-set with every platform switched on.
func (r *Registry) AllEnabled() map[ID]bool {
	set := make(map[ID]bool, len(r.platforms))
	for _, p := range r.platforms {
		set[p.ID] = true
	}
	return set
}

// Normalize returns a copy of set containing exactly the registry's
// platforms. Unknown ids are dropped, missing ones are false. When the
// result would have nothing enabled, every platform is enabled instead.
func (r *Registry) Normalize(set map[ID]bool) map[ID]bool {
	out := make(map[ID]bool, len(r.platforms))
	any := false
	for _, p := range r.platforms {
		out[p.ID] = set[p.ID]
		any = any || set[p.ID]
	}
	if !any {
		return r.AllEnabled()
	}
	return out
}

func (id ID) String() string {
	return string(id)
}
