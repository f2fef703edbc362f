package tabs

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/entrhq/llmux/pkg/automation"
	"github.com/entrhq/llmux/pkg/platform"
	"github.com/entrhq/llmux/pkg/session"
)

var errSessionPending = errors.New("session is still opening")

// Outcome is how one platform handled a dispatched query.
type Outcome struct {
	Platform platform.ID
	Status   session.Status
	// Output is the automation result string, empty on a fault.
	Output string
	// Err is the fault raised by the session, if any.
	Err error
}

// Result collects the outcome of every enabled platform, in display order.
type Result struct {
	Tab      TabID
	Outcomes []Outcome
}

// Sent returns how many platforms accepted the query.
func (r Result) Sent() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Status.Kind == session.StatusSent {
			n++
		}
	}
	return n
}

// Outcome returns the outcome for p.
func (r Result) Outcome(p platform.ID) (Outcome, bool) {
	for _, o := range r.Outcomes {
		if o.Platform == p {
			return o, true
		}
	}
	return Outcome{}, false
}

type dispatchTarget struct {
	platform platform.ID
	host     session.Host
}

// Dispatch submits query to every enabled platform of the tab at once and
// waits for all of them. A platform failing never affects the others and is
// reported only through its status and Outcome; the returned error covers
// an unknown tab or an empty query. Some time after Dispatch returns, every
// status of the tab goes back to idle regardless of its value.
func (s *Store) Dispatch(ctx context.Context, id TabID, query string) (Result, error) {
	if strings.TrimSpace(query) == "" {
		return Result{}, ErrEmptyQuery
	}

	s.mu.Lock()
	t := s.find(id)
	if t == nil {
		s.mu.Unlock()
		return Result{}, fmt.Errorf("%w: %d", ErrTabNotFound, id)
	}
	t.querySent = true
	renamed := false
	if t.name == DefaultName && t.namer.state != UserLocked {
		t.name = Truncate(query)
		renamed = true
	}
	var targets []dispatchTarget
	for _, p := range s.reg.IDs() {
		if !t.enabled[p] {
			continue
		}
		t.status[p] = session.InjectingStatus()
		targets = append(targets, dispatchTarget{platform: p, host: t.hosts[p]})
	}
	s.mu.Unlock()

	s.log.Infof("dispatching to %d platform(s) in tab %d", len(targets), id)
	if renamed {
		s.notify(Change{Kind: ChangeName, Tab: id})
	}
	s.notify(Change{Kind: ChangeStatus, Tab: id})
	s.checkpoint()

	outcomes := make([]Outcome, len(targets))
	var g errgroup.Group
	for i, target := range targets {
		g.Go(func() error {
			outcomes[i] = s.inject(ctx, id, target, query)
			return nil
		})
	}
	_ = g.Wait()

	time.AfterFunc(s.statusGrace, func() { s.resetStatuses(id) })

	return Result{Tab: id, Outcomes: outcomes}, nil
}

// DispatchActive dispatches query to the active tab.
func (s *Store) DispatchActive(ctx context.Context, query string) (Result, error) {
	s.mu.Lock()
	id := s.active
	s.mu.Unlock()
	return s.Dispatch(ctx, id, query)
}

// inject runs the automation payload on one page and records its status.
func (s *Store) inject(ctx context.Context, id TabID, target dispatchTarget, query string) Outcome {
	out := Outcome{Platform: target.platform}

	script, err := s.scripts.Script(target.platform, query)
	if err == nil && target.host == nil {
		err = errSessionPending
	}
	if err == nil {
		out.Output, err = target.host.ExecuteScript(ctx, script)
	}

	switch {
	case err != nil:
		s.log.Errorf("dispatch to %s in tab %d failed: %v", target.platform, id, err)
		out.Err = err
		out.Status = session.ErrorStatus("")
	case automation.IsMiss(out.Output):
		s.log.Warnf("dispatch to %s in tab %d: %s", target.platform, id, out.Output)
		out.Status = session.ErrorStatus(out.Output)
	default:
		out.Status = session.SentStatus()
	}

	s.setStatus(id, target.platform, out.Status)
	return out
}

func (s *Store) setStatus(id TabID, p platform.ID, status session.Status) {
	s.mu.Lock()
	t := s.find(id)
	if t == nil {
		s.mu.Unlock()
		return
	}
	t.status[p] = status
	s.mu.Unlock()

	s.notify(Change{Kind: ChangeStatus, Tab: id, Platform: p})
}

// resetStatuses returns every status of the tab to idle.
func (s *Store) resetStatuses(id TabID) {
	s.mu.Lock()
	t := s.find(id)
	if t == nil {
		s.mu.Unlock()
		return
	}
	for p := range t.status {
		t.status[p] = session.IdleStatus()
	}
	s.mu.Unlock()

	s.notify(Change{Kind: ChangeStatus, Tab: id})
}
