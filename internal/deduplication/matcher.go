package deduplication

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/UllasZ/teams-taiga-integration/internal/ai"
	"github.com/UllasZ/teams-taiga-integration/internal/types"
)

// Matcher implements StoryMatcher in two stages: an exact-duplicate check
// through the Deduplicator, then a generator-picked story index.
type Matcher struct {
	dedup  Deduplicator
	gen    ai.Generator
	config Config
	logger *zap.Logger
}

var _ StoryMatcher = (*Matcher)(nil)

// NewMatcher creates a Matcher. gen may be nil, which disables stage two.
func NewMatcher(dedup Deduplicator, gen ai.Generator, config Config, logger *zap.Logger) (*Matcher, error) {
	if dedup == nil {
		return nil, fmt.Errorf("deduplicator cannot be nil")
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Matcher{dedup: dedup, gen: gen, config: config, logger: logger}, nil
}

// MatchStory implements StoryMatcher.
func (m *Matcher) MatchStory(ctx context.Context, message string, stories []types.WorkItem) StoryMatch {
	if len(stories) == 0 {
		return StoryMatch{Kind: NoMatch}
	}

	titles := types.Titles(stories)
	if title, ok := m.dedup.FindDuplicate(ctx, message, titles, m.config.StoryThreshold); ok {
		if story, found := findByTitle(stories, title); found {
			return StoryMatch{Kind: ExactDuplicate, Story: story}
		}
		// the oracle only returns supplied titles, so this is a bug upstream
		m.logger.Error("duplicate title not found among stories", zap.String("title", title))
	}

	if m.gen == nil || !m.config.UseGenerator {
		return StoryMatch{Kind: NoMatch}
	}

	shown := titles
	if len(shown) > m.config.MaxPromptCandidates {
		shown = shown[:m.config.MaxPromptCandidates]
	}
	reply, err := m.gen.GenerateText(ai.WithOperation(ctx, ai.OpStoryMatch), ai.BuildStoryIndexPrompt(message, shown))
	if err != nil {
		m.logger.Warn("story routing unavailable; treating as no match", zap.Error(err))
		return StoryMatch{Kind: NoMatch}
	}

	idx, ok := ai.ParseStoryIndex(reply, len(shown))
	if !ok {
		if !ai.IsNoneReply(reply) {
			m.logger.Warn("story index reply rejected",
				zap.String("reply", reply),
				zap.Int("stories", len(shown)))
		}
		return StoryMatch{Kind: NoMatch}
	}
	return StoryMatch{Kind: FuzzyMatch, Story: stories[idx]}
}

// findByTitle returns the first story whose title equals title, comparing
// exactly first and then case-insensitively with surrounding space trimmed.
func findByTitle(stories []types.WorkItem, title string) (types.WorkItem, bool) {
	for _, s := range stories {
		if s.Title == title {
			return s, true
		}
	}
	want := types.NormalizeTitle(title)
	for _, s := range stories {
		if types.NormalizeTitle(s.Title) == want {
			return s, true
		}
	}
	return types.WorkItem{}, false
}
