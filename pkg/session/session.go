// Package session defines the boundary between tabs and the embedded browser
// pages that render each chat service.
//
// A Host is one page bound to one platform inside one tab. Drivers implement
// Factory to open hosts; the pages report back through Events. Navigation is
// asynchronous: Navigate and Reload start the load and return, and progress
// arrives as LoadStateChanged events.
package session

import (
	"context"
	"errors"

	"github.com/entrhq/llmux/pkg/platform"
)

// ErrClosed is returned by hosts after Close.
var ErrClosed = errors.New("session closed")

// Host is a handle to one embedded browser page.
type Host interface {
	// URL returns the last committed main-frame URL.
	URL() string
	// Navigate starts loading url.
	Navigate(url string) error
	// Reload starts reloading the current page.
	Reload() error
	// ExecuteScript evaluates code in the page and returns its string result.
	// Promises are awaited.
	ExecuteScript(ctx context.Context, code string) (string, error)
	// Close releases the page.
	Close() error
}

// Events receives page notifications. Drivers may call it from any
// goroutine, but never while holding their own locks.
type Events interface {
	TitleUpdated(title string)
	Navigated(url string)
	LoadStateChanged(state LoadState)
}

// Factory opens hosts.
type Factory interface {
	// Open creates a page for p showing url. Events for the page are
	// delivered to events until the host is closed.
	Open(ctx context.Context, p *platform.Platform, url string, events Events) (Host, error)
	// Close releases every browser the factory started.
	Close() error
}

// LoadState is the page lifecycle as reported by drivers.
type LoadState int

const (
	Loading LoadState = iota
	Ready
	Failed
)

func (s LoadState) String() string {
	switch s {
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// EventFuncs adapts plain functions to Events. Nil fields are ignored.
type EventFuncs struct {
	OnTitle     func(title string)
	OnNavigate  func(url string)
	OnLoadState func(state LoadState)
}

func (f EventFuncs) TitleUpdated(title string) {
	if f.OnTitle != nil {
		f.OnTitle(title)
	}
}

func (f EventFuncs) Navigated(url string) {
	if f.OnNavigate != nil {
		f.OnNavigate(url)
	}
}

func (f EventFuncs) LoadStateChanged(state LoadState) {
	if f.OnLoadState != nil {
		f.OnLoadState(state)
	}
}
