package ai

import (
	"unicode/utf8"
)

// truncateString truncates s to at most maxLen bytes without splitting a
// UTF-8 sequence, appending "..." when anything was cut.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	cut := maxLen - 3
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
