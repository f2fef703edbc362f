// Package title turns raw page titles reported by chat services into
// candidate tab names.
package title

import (
	"regexp"
	"sort"
	"strings"
)

// invisible matches zero-width characters and bidi marks some services
// embed in document titles.
var invisible = regexp.MustCompile(`[\x{200B}-\x{200D}\x{FEFF}\x{200E}\x{200F}\x{202A}-\x{202E}]`)

// baseGeneric are placeholder titles that carry no information about the
// conversation regardless of platform.
var baseGeneric = []string{"new chat", "home", "chat", "untitled"}

// Cleaner strips brand decorations from titles and rejects generic ones.
// A Cleaner is immutable and safe for concurrent use.
type Cleaner struct {
	prefixes []*regexp.Regexp
	suffixes []*regexp.Regexp
	generic  map[string]struct{}
}

// NewCleaner builds a cleaner for the given brand decorations, such as
// "ChatGPT" or "Google Gemini".
func NewCleaner(decorations ...string) *Cleaner {
	names := make([]string, 0, len(decorations))
	for _, d := range decorations {
		if d = strings.TrimSpace(d); d != "" {
			names = append(names, d)
		}
	}
	// Longer names first so "Claude.ai" wins over "Claude".
	sort.SliceStable(names, func(i, j int) bool {
		return len(names[i]) > len(names[j])
	})

	c := &Cleaner{
		generic: make(map[string]struct{}, len(baseGeneric)+len(names)),
	}
	for _, g := range baseGeneric {
		c.generic[g] = struct{}{}
	}
	for _, name := range names {
		quoted := regexp.QuoteMeta(name)
		c.prefixes = append(c.prefixes, regexp.MustCompile(`(?i)^`+quoted+`\s*[-–—:]\s*`))
		c.suffixes = append(c.suffixes, regexp.MustCompile(`(?i)\s*[-–—|]\s*`+quoted+`$`))
		c.generic[strings.ToLower(name)] = struct{}{}
	}
	return c
}

// Clean returns the meaningful part of raw. The second result is false when
// nothing useful remains.
func (c *Cleaner) Clean(raw string) (string, bool) {
	t := strings.TrimSpace(invisible.ReplaceAllString(raw, ""))
	if t == "" {
		return "", false
	}

	for _, re := range c.prefixes {
		t = re.ReplaceAllString(t, "")
	}
	for _, re := range c.suffixes {
		t = re.ReplaceAllString(t, "")
	}
	t = strings.TrimSpace(t)

	if t == "" {
		return "", false
	}
	if _, ok := c.generic[strings.ToLower(t)]; ok {
		return "", false
	}
	return t, true
}
