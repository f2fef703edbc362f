package tabs

import (
	"github.com/entrhq/llmux/pkg/platform"
	"github.com/entrhq/llmux/pkg/session"
)

// ChangeKind says what part of the store changed.
type ChangeKind int

const (
	// ChangeTabs covers tabs being created, closed or switched to.
	ChangeTabs ChangeKind = iota
	ChangeName
	ChangeStatus
	ChangePlatforms
	ChangeURL
)

func (k ChangeKind) String() string {
	switch k {
	case ChangeTabs:
		return "tabs"
	case ChangeName:
		return "name"
	case ChangeStatus:
		return "status"
	case ChangePlatforms:
		return "platforms"
	case ChangeURL:
		return "url"
	default:
		return "unknown"
	}
}

// Change is delivered to subscribers after the store state changed.
// Platform is empty when the change is not specific to one platform.
type Change struct {
	Kind     ChangeKind
	Tab      TabID
	Platform platform.ID
}

// Subscribe registers fn for every later change and returns a function that
// removes it. fn is called without store locks held, from whichever
// goroutine made the change, so it may call back into the store.
func (s *Store) Subscribe(fn func(Change)) func() {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	return func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		delete(s.subs, id)
	}
}

func (s *Store) notify(c Change) {
	s.subMu.RLock()
	fns := make([]func(Change), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.RUnlock()

	for _, fn := range fns {
		fn(c)
	}
}

// hostEvents routes one page's events to its tab.
type hostEvents struct {
	store    *Store
	tab      TabID
	platform platform.ID
}

func (e *hostEvents) TitleUpdated(title string) {
	e.store.titleUpdated(e.tab, e.platform, title)
}

func (e *hostEvents) Navigated(url string) {
	e.store.navigated(e.tab, e.platform, url)
}

func (e *hostEvents) LoadStateChanged(state session.LoadState) {
	e.store.setStatus(e.tab, e.platform, session.StatusForLoad(state))
}

// navigated remembers url when it still belongs to the platform, so blank
// and error pages never replace the last good address.
func (s *Store) navigated(id TabID, p platform.ID, url string) {
	def, ok := s.reg.Get(p)
	if !ok || !def.Owns(url) {
		return
	}

	s.mu.Lock()
	t := s.find(id)
	if t == nil || t.lastURL[p] == url {
		s.mu.Unlock()
		return
	}
	t.lastURL[p] = url
	s.mu.Unlock()

	s.notify(Change{Kind: ChangeURL, Tab: id, Platform: p})
	s.checkpoint()
}
