package pipeline

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/UllasZ/teams-taiga-integration/internal/ai"
	"github.com/UllasZ/teams-taiga-integration/internal/deduplication"
	"github.com/UllasZ/teams-taiga-integration/internal/enrichment"
	"github.com/UllasZ/teams-taiga-integration/internal/storage"
	"github.com/UllasZ/teams-taiga-integration/internal/workitems"
)

// NewDefault wires the standard Oracle, Matcher, enrichment Engine and
// work-item Creator around backend and gen. gen may be nil, which leaves
// only the deterministic similarity checks and no generated content.
func NewDefault(backend storage.Backend, gen ai.Generator, dedupCfg deduplication.Config, logger *zap.Logger) (*Classifier, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	oracle, err := deduplication.NewOracle(gen, dedupCfg, logger.Named("oracle"))
	if err != nil {
		return nil, fmt.Errorf("creating oracle: %w", err)
	}
	matcher, err := deduplication.NewMatcher(oracle, gen, dedupCfg, logger.Named("matcher"))
	if err != nil {
		return nil, fmt.Errorf("creating matcher: %w", err)
	}
	creator, err := workitems.NewCreator(backend, enrichment.NewEngine(gen, logger.Named("enrichment")), logger.Named("workitems"))
	if err != nil {
		return nil, fmt.Errorf("creating work-item creator: %w", err)
	}
	return New(Config{
		Backend:          backend,
		Matcher:          matcher,
		Deduplicator:     oracle,
		Creator:          creator,
		StoryThreshold:   dedupCfg.StoryThreshold,
		SubItemThreshold: dedupCfg.SubItemThreshold,
		Logger:           logger.Named("pipeline"),
	})
}
