package tabs

import (
	"time"

	"github.com/entrhq/llmux/pkg/platform"
)

// timer is a rescheduled time.AfterFunc. Each schedule gets a generation;
// a callback whose generation is no longer current was superseded and must
// do nothing.
type timer struct {
	t   *time.Timer
	gen uint64
}

func (t *timer) schedule(d time.Duration, fire func(gen uint64)) {
	t.stop()
	gen := t.gen
	t.t = time.AfterFunc(d, func() { fire(gen) })
}

func (t *timer) stop() {
	if t.t != nil {
		t.t.Stop()
		t.t = nil
	}
	t.gen++
}

func (t *timer) current(gen uint64) bool {
	return t.t != nil && t.gen == gen
}

// namer is the per-tab naming state machine:
// Unnamed -> AutoNamed -> UserLocked, where UserLocked only leaves through
// reset.
type namer struct {
	state    NameState
	titles   map[platform.ID]string
	debounce timer
}

func newNamer() namer {
	return namer{titles: make(map[platform.ID]string)}
}

func (n *namer) lock() {
	n.state = UserLocked
	n.debounce.stop()
}

func (n *namer) reset() {
	n.debounce.stop()
	n.state = Unnamed
	n.titles = make(map[platform.ID]string)
}

// titleUpdated records a page title and restarts the tab's quiet period.
// Titles that clean to nothing are not recorded but still restart it.
func (s *Store) titleUpdated(id TabID, p platform.ID, raw string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.find(id)
	if t == nil {
		return
	}
	if cleaned, ok := s.cleaner.Clean(raw); ok {
		t.namer.titles[p] = cleaned
	}
	t.namer.debounce.schedule(s.titleDebounce, func(gen uint64) {
		s.titlesSettled(id, gen)
	})
}

func (s *Store) titlesSettled(id TabID, gen uint64) {
	s.mu.Lock()
	t := s.find(id)
	if t == nil || !t.namer.debounce.current(gen) {
		s.mu.Unlock()
		return
	}
	t.namer.debounce.t = nil
	name, ok := s.autoName(t)
	if !ok || name == t.name {
		s.mu.Unlock()
		return
	}
	t.name = name
	t.namer.state = AutoNamed
	s.mu.Unlock()

	s.log.Debugf("auto-named tab %d %q", id, name)
	s.notify(Change{Kind: ChangeName, Tab: id})
	s.checkpoint()
}

// autoName picks the name the recorded titles imply. It waits for the
// highest-priority enabled platform so a faster low-priority page cannot
// name the tab first. The caller holds s.mu.
func (s *Store) autoName(t *tab) (string, bool) {
	if t.namer.state == UserLocked || !t.querySent {
		return "", false
	}

	priority := s.reg.Priority()
	for _, p := range priority {
		if !t.enabled[p] {
			continue
		}
		if t.namer.titles[p] == "" {
			return "", false
		}
		break
	}

	for _, p := range priority {
		if title := t.namer.titles[p]; title != "" {
			return Truncate(title), true
		}
	}
	return "", false
}
