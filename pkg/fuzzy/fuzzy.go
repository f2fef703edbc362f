// Package fuzzy ranks short labels against a typed query.
//
// A contiguous substring always beats a scattered subsequence: substring
// matches score 1000 minus the start offset, while subsequence scores grow
// by at most 16 per matched rune.
package fuzzy

import (
	"sort"
	"strings"
)

const substringBase = 1000

const (
	matchPoints   = 1
	adjacentBonus = 10
	boundaryBonus = 5
)

// Match is the outcome of scoring one text against a query.
type Match struct {
	Matched bool
	Score   int
}

// Scored pairs a candidate index with its score.
type Scored struct {
	Index int
	Score int
}

// Score matches query against text, ignoring case. Offsets count runes.
func Score(query, text string) Match {
	q := []rune(strings.ToLower(query))
	t := []rune(strings.ToLower(text))

	if idx := runeIndex(t, q); idx >= 0 {
		return Match{Matched: true, Score: substringBase - idx}
	}

	qi := 0
	score := 0
	last := -1
	for ti := 0; ti < len(t) && qi < len(q); ti++ {
		if t[ti] != q[qi] {
			continue
		}
		if last >= 0 && last == ti-1 {
			score += adjacentBonus
		}
		if ti == 0 || isBoundary(t[ti-1]) {
			score += boundaryBonus
		}
		score += matchPoints
		last = ti
		qi++
	}

	if qi == len(q) {
		return Match{Matched: true, Score: score}
	}
	return Match{}
}

// Rank scores n candidates, labelled by label(i), and returns the matches
// ordered by descending score. Ties keep candidate order. An empty query
// returns every candidate in order with a zero score; whitespace is matched
// like any other rune.
func Rank(query string, n int, label func(i int) string) []Scored {
	out := make([]Scored, 0, n)
	if query == "" {
		for i := 0; i < n; i++ {
			out = append(out, Scored{Index: i})
		}
		return out
	}

	for i := 0; i < n; i++ {
		if m := Score(query, label(i)); m.Matched {
			out = append(out, Scored{Index: i, Score: m.Score})
		}
	}
	sort.SliceStable(out, func(a, b int) bool {
		return out[a].Score > out[b].Score
	})
	return out
}

func isBoundary(r rune) bool {
	return r == ' ' || r == '-' || r == ':'
}

func runeIndex(haystack, needle []rune) int {
	if len(needle) == 0 {
		return 0
	}
	for i := 0; i+len(needle) <= len(haystack); i++ {
		match := true
		for j, r := range needle {
			if haystack[i+j] != r {
				match = false
				break
			}
		}
		if match {
			return i
		}
	}
	return -1
}
