package deduplication

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/UllasZ/teams-taiga-integration/internal/ai"
	"github.com/UllasZ/teams-taiga-integration/internal/similarity"
)

// Oracle implements Deduplicator: a generator check validated against the
// candidate list, then the deterministic ratio as fallback.
type Oracle struct {
	gen    ai.Generator
	config Config
	logger *zap.Logger
}

var _ Deduplicator = (*Oracle)(nil)

// NewOracle creates an Oracle. gen may be nil, in which case only the
// similarity heuristic is used.
func NewOracle(gen ai.Generator, config Config, logger *zap.Logger) (*Oracle, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Oracle{gen: gen, config: config, logger: logger}, nil
}

// Config returns the oracle's configuration.
func (o *Oracle) Config() Config {
	return o.config
}

// FindDuplicate implements Deduplicator.
func (o *Oracle) FindDuplicate(ctx context.Context, candidate string, existing []string, threshold float64) (string, bool) {
	if len(existing) == 0 {
		return "", false
	}

	if match, ok := o.askGenerator(ctx, candidate, existing); ok {
		o.logger.Debug("duplicate confirmed",
			zap.String("candidate", candidate),
			zap.String("match", match),
			zap.String("source", string(SourceGenerator)))
		return match, true
	}

	match, score, ok := similarity.FirstAbove(candidate, existing, threshold)
	if ok {
		o.logger.Debug("duplicate confirmed",
			zap.String("candidate", candidate),
			zap.String("match", match),
			zap.String("source", string(SourceRatio)),
			zap.Float64("score", score),
			zap.Float64("threshold", threshold))
	}
	return match, ok
}

func (o *Oracle) askGenerator(ctx context.Context, candidate string, existing []string) (string, bool) {
	if o.gen == nil || !o.config.UseGenerator {
		return "", false
	}
	shown := existing
	if len(shown) > o.config.MaxPromptCandidates {
		shown = shown[:o.config.MaxPromptCandidates]
	}

	ctx = ai.WithOperation(ctx, ai.OpDuplicateCheck)
	reply, err := o.gen.GenerateText(ctx, ai.BuildDuplicatePrompt(candidate, shown))
	if err != nil {
		o.logger.Warn("duplicate check fell back to similarity ratio", zap.Error(err))
		return "", false
	}

	match, ok := ai.ParseDuplicateReply(reply, shown)
	if !ok && !ai.IsNoneReply(reply) {
		o.logger.Warn("generator reply not among candidates; discarded",
			zap.String("reply", reply))
	}
	return match, ok
}
