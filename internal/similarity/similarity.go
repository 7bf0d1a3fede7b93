// Package similarity provides the deterministic string-similarity heuristic
// used when the text-generation service is unavailable or inconclusive.
package similarity

import (
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// Ratio returns a similarity score in [0,1] for two texts, compared
// case-insensitively at the character level.
//
// The score is difflib's 2*M/T ratio (M = characters in matching blocks,
// T = combined length). SequenceMatcher is order-sensitive, so both
// directions are scored and the larger one kept; this makes Ratio
// symmetric. Two empty strings score 1.0.
func Ratio(a, b string) float64 {
	a = strings.ToLower(a)
	b = strings.ToLower(b)
	if a == b {
		return 1.0
	}
	forward := ratio(a, b)
	backward := ratio(b, a)
	if backward > forward {
		return backward
	}
	return forward
}

func ratio(a, b string) float64 {
	matcher := difflib.NewMatcherWithJunk(split(a), split(b), false, nil)
	return matcher.Ratio()
}

// split breaks s into single-rune elements for character-level matching.
func split(s string) []string {
	out := make([]string, 0, len(s))
	for _, r := range s {
		out = append(out, string(r))
	}
	return out
}

// FirstAbove returns the first text in existing whose Ratio against
// candidate is strictly greater than threshold. Earlier entries win ties.
func FirstAbove(candidate string, existing []string, threshold float64) (match string, score float64, ok bool) {
	for _, text := range existing {
		score := Ratio(candidate, text)
		if score > threshold {
			return text, score, true
		}
	}
	return "", 0, false
}
