package ai

import (
	"testing"
)

func TestParseDuplicateReply(t *testing.T) {
	candidates := []string{"Fix login bug", "Add OAuth support"}
	tests := []struct {
		name   string
		raw    string
		want   string
		wantOK bool
	}{
		{"exact", "Fix login bug", "Fix login bug", true},
		{"case and whitespace", "  fix   LOGIN bug \n", "Fix login bug", true},
		{"quoted", `"Add OAuth support"`, "Add OAuth support", true},
		{"none sentinel", "None", "", false},
		{"none with period", "none.", "", false},
		{"empty", "", "", false},
		{"unlisted", "Fix logout bug", "", false},
		{"prose", "The duplicate is Fix login bug", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseDuplicateReply(tt.raw, candidates)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("ParseDuplicateReply(%q) = (%q, %v), want (%q, %v)", tt.raw, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestParseStoryIndex(t *testing.T) {
	tests := []struct {
		raw    string
		n      int
		want   int
		wantOK bool
	}{
		{"1", 3, 0, true},
		{"3", 3, 2, true},
		{" 2.\n", 3, 1, true},
		{"7", 3, 0, false},
		{"0", 3, 0, false},
		{"-1", 3, 0, false},
		{"1.5", 3, 0, false},
		{"None", 3, 0, false},
		{"Story 2", 3, 0, false},
		{"", 3, 0, false},
		{"1", 0, 0, false},
		{"99999999999999999999", 3, 0, false},
	}
	for _, tt := range tests {
		got, ok := ParseStoryIndex(tt.raw, tt.n)
		if ok != tt.wantOK || got != tt.want {
			t.Errorf("ParseStoryIndex(%q, %d) = (%d, %v), want (%d, %v)", tt.raw, tt.n, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestParsePriorityReply(t *testing.T) {
	names := []string{"High", "Low"}
	tests := []struct {
		raw    string
		want   string
		wantOK bool
	}{
		{"High", "High", true},
		{"low", "Low", true},
		{" HIGH ", "High", true},
		{"Critical", "", false},
		{"", "", false},
		{"High priority", "", false},
	}
	for _, tt := range tests {
		got, ok := ParsePriorityReply(tt.raw, names)
		if ok != tt.wantOK || got != tt.want {
			t.Errorf("ParsePriorityReply(%q) = (%q, %v), want (%q, %v)", tt.raw, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestIsNoneReply(t *testing.T) {
	for _, raw := range []string{"None", "none.", " NONE ", `"None"`, "none!"} {
		if !IsNoneReply(raw) {
			t.Errorf("IsNoneReply(%q) = false, want true", raw)
		}
	}
	for _, raw := range []string{"Fix login bug", "no", "No.", "n/a", ""} {
		if IsNoneReply(raw) {
			t.Errorf("IsNoneReply(%q) = true, want false", raw)
		}
	}
}

func TestParseDuplicateReplyConfirmsSentinelLikeTitles(t *testing.T) {
	candidates := []string{"No", "N/A", "Fix login bug"}
	tests := []struct {
		raw  string
		want string
	}{
		{"No", "No"},
		{"no", "No"},
		{"n/a", "N/A"},
		{`"N/A"`, "N/A"},
	}
	for _, tt := range tests {
		got, ok := ParseDuplicateReply(tt.raw, candidates)
		if !ok || got != tt.want {
			t.Errorf("ParseDuplicateReply(%q) = (%q, %v), want (%q, true)", tt.raw, got, ok, tt.want)
		}
	}
	if _, ok := ParseDuplicateReply("None", []string{"None"}); ok {
		t.Error("the none sentinel must not confirm a candidate")
	}
}
