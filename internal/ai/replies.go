package ai

import (
	"strconv"
	"strings"
)

// normalizeReply folds case, collapses runs of whitespace and strips quoting
// a model tends to wrap around a verbatim answer.
func normalizeReply(s string) string {
	s = strings.TrimSpace(s)
	s = strings.Trim(s, "\"'`")
	s = strings.TrimSpace(s)
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// isNone matches only the literal sentinel so that a candidate titled "No"
// or "N/A" can still be confirmed.
func isNone(normalized string) bool {
	return strings.TrimRight(normalized, ".!") == "none"
}

// IsNoneReply reports whether raw is the "nothing fits" sentinel.
func IsNoneReply(raw string) bool {
	return isNone(normalizeReply(raw))
}

// ParseDuplicateReply confirms a duplicate-check reply against the candidates
// the generator was shown. It returns the matching candidate's original text.
// The none sentinel and anything not in candidates report false.
func ParseDuplicateReply(raw string, candidates []string) (string, bool) {
	reply := normalizeReply(raw)
	if isNone(reply) {
		return "", false
	}
	for _, c := range candidates {
		if normalizeReply(c) == reply {
			return c, true
		}
	}
	return "", false
}

// ParseStoryIndex accepts a bare 1-based index within [1, n] and returns it
// 0-based. Prose, signs, fractions and out-of-range values are rejected.
func ParseStoryIndex(raw string, n int) (int, bool) {
	reply := strings.TrimRight(strings.TrimSpace(raw), ".")
	if reply == "" || n <= 0 {
		return 0, false
	}
	for _, r := range reply {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	idx, err := strconv.Atoi(reply)
	if err != nil || idx < 1 || idx > n {
		return 0, false
	}
	return idx - 1, true
}

// ParsePriorityReply returns the listed name the reply case-insensitively equals.
func ParsePriorityReply(raw string, names []string) (string, bool) {
	reply := normalizeReply(raw)
	if reply == "" {
		return "", false
	}
	for _, name := range names {
		if normalizeReply(name) == reply {
			return name, true
		}
	}
	return "", false
}
