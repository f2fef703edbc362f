package session

import (
	"context"
	"fmt"
)

// Broken is a host standing in for a page that failed to open. Every call
// except URL and Close faults with the original cause.
type Broken struct {
	url   string
	cause error
}

// NewBroken returns a host that remembers url and fails with cause.
func NewBroken(url string, cause error) *Broken {
	return &Broken{url: url, cause: cause}
}

func (b *Broken) URL() string {
	return b.url
}

func (b *Broken) Navigate(url string) error {
	return b.fault("navigate")
}

func (b *Broken) Reload() error {
	return b.fault("reload")
}

func (b *Broken) ExecuteScript(ctx context.Context, code string) (string, error) {
	return "", b.fault("execute script")
}

func (b *Broken) Close() error {
	return nil
}

func (b *Broken) fault(op string) error {
	return fmt.Errorf("%s on unavailable session: %w", op, b.cause)
}
