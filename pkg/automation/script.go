// Package automation renders the JavaScript payloads that type a query into
// a chat service's composer and submit it.
//
// A payload evaluates to a string. Results starting with ErrorMarker mean
// the page had nothing to type into; anything else means the query was
// submitted.
package automation

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/entrhq/llmux/pkg/platform"
)

// Result strings produced by the payloads.
const (
	ErrorMarker  = "ERR"
	InputMissing = "ERR: Input not found"
	Sent         = "OK"
	SentEnter    = "OK (Enter)"
)

// DefaultSettle is the pause between filling the composer and looking for
// its submit button.
const DefaultSettle = 500 * time.Millisecond

// ErrNoPlan is returned for platforms without registered heuristics.
var ErrNoPlan = errors.New("no automation plan for platform")

//go:embed inject.js.tmpl
var injectSource string

var injectTemplate = template.Must(template.New("inject").Parse(injectSource))

// Generator renders payloads. It is safe for concurrent use once built.
type Generator struct {
	plans  map[platform.ID]string
	settle time.Duration
}

// NewGenerator builds a generator from plans. A non-positive settle uses
// DefaultSettle.
func NewGenerator(plans map[platform.ID]Plan, settle time.Duration) (*Generator, error) {
	if settle <= 0 {
		settle = DefaultSettle
	}
	g := &Generator{
		plans:  make(map[platform.ID]string, len(plans)),
		settle: settle,
	}
	for id, p := range plans {
		if len(p.Input) == 0 {
			return nil, fmt.Errorf("plan for %s has no input selectors", id)
		}
		encoded, err := json.Marshal(p)
		if err != nil {
			return nil, fmt.Errorf("failed to encode plan for %s: %w", id, err)
		}
		g.plans[id] = string(encoded)
	}
	return g, nil
}

// Script returns the payload submitting query on platform id.
func (g *Generator) Script(id platform.ID, query string) (string, error) {
	plan, ok := g.plans[id]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNoPlan, id)
	}

	data := struct {
		Plan      string
		Query     string
		Miss      string
		Sent      string
		SentEnter string
		SettleMs  int64
	}{
		Plan:      plan,
		Query:     jsString(query),
		Miss:      jsString(InputMissing),
		Sent:      jsString(Sent),
		SentEnter: jsString(SentEnter),
		SettleMs:  g.settle.Milliseconds(),
	}

	var buf bytes.Buffer
	if err := injectTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render script for %s: %w", id, err)
	}
	return buf.String(), nil
}

// IsMiss reports whether a payload result signals an automation miss.
func IsMiss(result string) bool {
	return strings.HasPrefix(result, ErrorMarker)
}

// jsString encodes s as a JavaScript string literal.
func jsString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}
