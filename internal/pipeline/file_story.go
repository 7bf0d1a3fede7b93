package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/UllasZ/teams-taiga-integration/internal/types"
	"github.com/UllasZ/teams-taiga-integration/internal/workitems"
)

// FileStory creates a story directly, skipping story routing. It still
// refuses titles that duplicate an existing story at the story threshold.
// A non-empty description is used instead of a generated one.
func (c *Classifier) FileStory(ctx context.Context, title, description string) (out types.ClassificationOutcome) {
	requestID := uuid.NewString()
	start := time.Now()
	logger := c.logger.With(zap.String("request_id", requestID))

	defer func() {
		if r := recover(); r != nil {
			logger.Error("panic while filing story", zap.Any("panic", r), zap.Stack("stack"))
			out = internalError(fmt.Errorf("panic: %v", r))
		}
		out.RequestID = requestID
		out.Input = strings.TrimSpace(title)
		out.Elapsed = time.Since(start)
		c.logOutcome(logger, out)
	}()

	title = strings.TrimSpace(title)
	if title == "" {
		return types.ClassificationOutcome{Kind: types.OutcomeEmpty, Message: MsgEmpty}
	}

	projectID, err := c.backend.GetProjectID(ctx)
	if err != nil {
		return internalError(fmt.Errorf("resolving project: %w", err))
	}
	stories, err := c.backend.ListStories(ctx, projectID)
	if err != nil {
		return internalError(fmt.Errorf("loading stories: %w", err))
	}

	if dup, ok := c.dedup.FindDuplicate(ctx, title, types.Titles(stories), c.storyThreshold); ok {
		logger.Info("duplicate story", zap.String("title", title), zap.String("existing", dup))
		return types.ClassificationOutcome{
			Kind:         types.OutcomeDuplicateStory,
			Message:      MsgDuplicateStory,
			MatchKind:    types.MatchExact,
			MatchedTitle: dup,
		}
	}

	story, err := c.creator.CreateStoryWithOptions(ctx, title, workitems.Options{Description: description})
	if err != nil {
		logger.Error("story creation failed", zap.String("category", errorCategory(err)), zap.Error(err))
		return internalError(err)
	}
	return types.ClassificationOutcome{
		Kind:    types.OutcomeNewStory,
		Message: MsgStoryCreated,
		Story:   story,
	}
}
