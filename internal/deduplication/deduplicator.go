package deduplication

import (
	"context"

	"github.com/UllasZ/teams-taiga-integration/internal/types"
)

// Deduplicator finds an existing text that duplicates a candidate.
//
// Example usage:
//
//	oracle, _ := NewOracle(gen, DefaultConfig(), logger)
//	if match, ok := oracle.FindDuplicate(ctx, "Fix login bug!", titles, cfg.StoryThreshold); ok {
//	    log.Printf("duplicate of %q", match)
//	}
type Deduplicator interface {
	// FindDuplicate returns the exact text of the matched existing item.
	// It never fails: generator errors degrade to the similarity heuristic.
	FindDuplicate(ctx context.Context, candidate string, existing []string, threshold float64) (string, bool)
}

// StoryMatcher routes a message to an existing story.
type StoryMatcher interface {
	MatchStory(ctx context.Context, message string, stories []types.WorkItem) StoryMatch
}

// MatchKind is the verdict of MatchStory.
type MatchKind int

const (
	NoMatch        MatchKind = iota // No related story; create a new one
	ExactDuplicate                  // Message duplicates a story title
	FuzzyMatch                      // Message belongs under a story
)

func (k MatchKind) String() string {
	switch k {
	case NoMatch:
		return "no-match"
	case ExactDuplicate:
		return "exact-duplicate"
	case FuzzyMatch:
		return "fuzzy-match"
	default:
		return "unknown"
	}
}

// StoryMatch is the result of MatchStory. Story is zero for NoMatch.
type StoryMatch struct {
	Kind  MatchKind
	Story types.WorkItem
}

// Matched reports whether a story was selected.
func (m StoryMatch) Matched() bool {
	return m.Kind != NoMatch
}

// Source records which stage produced a duplicate decision.
type Source string

const (
	SourceGenerator Source = "generator"
	SourceRatio     Source = "ratio"
)
