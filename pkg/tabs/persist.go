package tabs

import (
	"context"
	"errors"

	"github.com/entrhq/llmux/pkg/persist"
	"github.com/entrhq/llmux/pkg/platform"
)

// Keys under which the layout is stored.
const (
	KeySavedTabs        = "savedTabs"
	KeyEnabledPlatforms = "enabledPlatforms"
	KeyActiveTabIndex   = "activeTabIndex"
)

// Restore rebuilds the saved tabs in their saved order and activates the
// saved active tab. Without saved tabs it creates one fresh tab. Nothing is
// written back while restoring. It returns the active tab.
func (s *Store) Restore(ctx context.Context) Tab {
	s.mu.Lock()
	s.restoring = true
	s.mu.Unlock()

	saved := s.loadTabs()
	if len(saved) == 0 {
		s.CreateTab(ctx, nil)
	} else {
		for i := range saved {
			s.CreateTab(ctx, &saved[i])
		}
		if idx, ok := s.loadActiveIndex(); ok {
			s.mu.Lock()
			if idx >= 0 && idx < len(s.tabs) {
				s.active = s.tabs[idx].id
			}
			s.mu.Unlock()
		}
	}

	s.mu.Lock()
	s.restoring = false
	s.mu.Unlock()

	s.log.Infof("restored %d tab(s)", len(saved))
	s.notify(Change{Kind: ChangeTabs})
	return s.Active()
}

// SavedTabs reads the persisted layout without opening anything.
func SavedTabs(g persist.Gateway) ([]Snapshot, int, error) {
	var saved []Snapshot
	if err := g.Get(KeySavedTabs, &saved); err != nil && !errors.Is(err, persist.ErrNotFound) {
		return nil, 0, err
	}
	var idx int
	if err := g.Get(KeyActiveTabIndex, &idx); err != nil && !errors.Is(err, persist.ErrNotFound) {
		return saved, 0, err
	}
	return saved, idx, nil
}

func (s *Store) loadTabs() []Snapshot {
	if s.gateway == nil {
		return nil
	}
	var saved []Snapshot
	if err := s.gateway.Get(KeySavedTabs, &saved); err != nil {
		if !errors.Is(err, persist.ErrNotFound) {
			s.log.Warnf("ignoring saved tabs: %v", err)
		}
		return nil
	}
	return saved
}

func (s *Store) loadActiveIndex() (int, bool) {
	if s.gateway == nil {
		return 0, false
	}
	var idx int
	if err := s.gateway.Get(KeyActiveTabIndex, &idx); err != nil {
		if !errors.Is(err, persist.ErrNotFound) {
			s.log.Warnf("ignoring saved active tab: %v", err)
		}
		return 0, false
	}
	return idx, true
}

func (s *Store) loadEnabled() map[platform.ID]bool {
	if s.gateway == nil {
		return s.reg.AllEnabled()
	}
	var set map[platform.ID]bool
	if err := s.gateway.Get(KeyEnabledPlatforms, &set); err != nil {
		if !errors.Is(err, persist.ErrNotFound) {
			s.log.Warnf("ignoring saved platforms: %v", err)
		}
		return s.reg.AllEnabled()
	}
	return s.reg.Normalize(set)
}

// checkpoint writes the tab layout. Failures are logged and dropped.
func (s *Store) checkpoint() {
	if s.gateway == nil {
		return
	}
	s.persistMu.Lock()
	defer s.persistMu.Unlock()

	s.mu.Lock()
	if s.restoring || s.closed {
		s.mu.Unlock()
		return
	}
	saved := make([]Snapshot, len(s.tabs))
	for i, t := range s.tabs {
		saved[i] = t.snapshot()
	}
	idx := max(s.indexOf(s.active), 0)
	s.mu.Unlock()

	if err := s.gateway.Set(KeySavedTabs, saved); err != nil {
		s.log.Warnf("failed to save tabs: %v", err)
		return
	}
	if err := s.gateway.Set(KeyActiveTabIndex, idx); err != nil {
		s.log.Warnf("failed to save active tab: %v", err)
	}
}

// saveEnabled writes the enabled set used for new tabs.
func (s *Store) saveEnabled() {
	if s.gateway == nil {
		return
	}
	s.persistMu.Lock()
	defer s.persistMu.Unlock()

	s.mu.Lock()
	if s.restoring || s.closed {
		s.mu.Unlock()
		return
	}
	set := copySet(s.lastEnabled)
	s.mu.Unlock()

	if err := s.gateway.Set(KeyEnabledPlatforms, set); err != nil {
		s.log.Warnf("failed to save enabled platforms: %v", err)
	}
}
