// Package enrichment fills in the generated parts of a new work item: a
// short description and an inferred priority.
//
// Both operations are best effort. A generator failure never fails the
// creation; it yields an empty description or an unset priority.
package enrichment

import (
	"context"

	"go.uber.org/zap"

	"github.com/UllasZ/teams-taiga-integration/internal/ai"
	"github.com/UllasZ/teams-taiga-integration/internal/priorities"
	"github.com/UllasZ/teams-taiga-integration/internal/types"
)

// Enricher is the contract the work-item creator depends on.
type Enricher interface {
	DescribeTask(ctx context.Context, title string) string
	ChoosePriority(ctx context.Context, title string, list []types.Priority) *int64
}

// Engine implements Enricher with a text generator.
type Engine struct {
	gen    ai.Generator
	logger *zap.Logger
}

var _ Enricher = (*Engine)(nil)

// NewEngine creates an Engine. A nil gen makes every call fall through to
// its empty result.
func NewEngine(gen ai.Generator, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{gen: gen, logger: logger}
}

// DescribeTask asks for a 2-3 sentence description of title. The reply is
// returned as-is; on failure the result is "".
func (e *Engine) DescribeTask(ctx context.Context, title string) string {
	if e.gen == nil {
		return ""
	}
	reply, err := e.gen.GenerateText(ai.WithOperation(ctx, ai.OpDescribe), ai.BuildDescriptionPrompt(title))
	if err != nil {
		e.logger.Error("description generation failed", zap.String("title", title), zap.Error(err))
		return ""
	}
	if reply == "" {
		e.logger.Warn("generator returned an empty description", zap.String("title", title))
	}
	return reply
}

// ChoosePriority asks the generator to pick one of list by name and returns
// that priority's id. Unlisted replies and failures return nil, which
// callers submit as an unset priority.
func (e *Engine) ChoosePriority(ctx context.Context, title string, list []types.Priority) *int64 {
	if e.gen == nil || len(list) == 0 {
		return nil
	}
	names := priorities.Names(priorities.Sorted(list))
	reply, err := e.gen.GenerateText(ai.WithOperation(ctx, ai.OpPriority), ai.BuildPriorityPrompt(title, names))
	if err != nil {
		e.logger.Error("priority selection failed", zap.String("title", title), zap.Error(err))
		return nil
	}

	name, ok := ai.ParsePriorityReply(reply, names)
	if !ok {
		e.logger.Warn("priority reply not among project priorities",
			zap.String("reply", reply),
			zap.Strings("priorities", names))
		return nil
	}
	p, _ := priorities.Resolve(name, list)
	id := p.ID
	return &id
}
