// Package pipeline classifies one inbound chat message and, when it is
// novel, files it in the backend.
//
//	message empty            -> Empty
//	load stories, MatchStory
//	  ExactDuplicate(story)  -> title equals story, story has no sub-items -> DuplicateStory
//	                          -> sub-item duplicate -> DuplicateSubItem
//	                          -> else CreateSubItem -> NewSubItem
//	  FuzzyMatch(story)      -> sub-item duplicate -> DuplicateSubItem
//	                          -> else CreateSubItem -> NewSubItem
//	  NoMatch                -> CreateStory -> NewStory
//
// Duplicate detection always finishes before any creation call. Classify
// never returns an error or panics: failures become an InternalError outcome.
package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/UllasZ/teams-taiga-integration/internal/deduplication"
	"github.com/UllasZ/teams-taiga-integration/internal/storage"
	"github.com/UllasZ/teams-taiga-integration/internal/types"
	"github.com/UllasZ/teams-taiga-integration/internal/workitems"
)

// Outcome messages returned to webhook callers.
const (
	MsgEmpty                 = "Empty message. Skipping."
	MsgDuplicateStory        = "Duplicate story. Skipping."
	MsgDuplicateSubItem      = "Duplicate sub-task. Skipping."
	MsgDuplicateSubItemFuzzy = "Duplicate sub-task (fuzzy match). Skipping."
	MsgSubItemExact          = "Sub-task created under exact story match"
	MsgSubItemFuzzy          = "Sub-task created under fuzzy-matched story"
	MsgNewStory              = "No match found. New user story created"
	MsgStoryCreated          = "User story created"
	MsgInternalError         = "Internal error processing task"
)

// Creator is the subset of workitems.Creator the pipeline uses.
type Creator interface {
	CreateStory(ctx context.Context, title string) (*types.WorkItem, error)
	CreateStoryWithOptions(ctx context.Context, title string, opts workitems.Options) (*types.WorkItem, error)
	CreateSubItem(ctx context.Context, parentID int64, title string) (*types.SubItem, error)
}

// Config wires a Classifier's collaborators.
type Config struct {
	Backend      storage.Backend
	Matcher      deduplication.StoryMatcher
	Deduplicator deduplication.Deduplicator
	Creator      Creator

	// Thresholds passed to the Deduplicator.
	StoryThreshold   float64
	SubItemThreshold float64

	Logger *zap.Logger
}

// Classifier runs the classification state machine. It holds no state
// between calls and is safe for concurrent use if its collaborators are.
type Classifier struct {
	backend          storage.Backend
	matcher          deduplication.StoryMatcher
	dedup            deduplication.Deduplicator
	creator          Creator
	storyThreshold   float64
	subItemThreshold float64
	logger           *zap.Logger
}

// New creates a Classifier.
func New(cfg Config) (*Classifier, error) {
	switch {
	case cfg.Backend == nil:
		return nil, fmt.Errorf("backend cannot be nil")
	case cfg.Matcher == nil:
		return nil, fmt.Errorf("matcher cannot be nil")
	case cfg.Deduplicator == nil:
		return nil, fmt.Errorf("deduplicator cannot be nil")
	case cfg.Creator == nil:
		return nil, fmt.Errorf("creator cannot be nil")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Classifier{
		backend:          cfg.Backend,
		matcher:          cfg.Matcher,
		dedup:            cfg.Deduplicator,
		creator:          cfg.Creator,
		storyThreshold:   cfg.StoryThreshold,
		subItemThreshold: cfg.SubItemThreshold,
		logger:           logger,
	}, nil
}

// Classify decides what message is and files it if novel.
func (c *Classifier) Classify(ctx context.Context, message string) (out types.ClassificationOutcome) {
	requestID := uuid.NewString()
	start := time.Now()
	logger := c.logger.With(zap.String("request_id", requestID))

	defer func() {
		if r := recover(); r != nil {
			logger.Error("panic while classifying message",
				zap.Any("panic", r),
				zap.Stack("stack"))
			out = internalError(fmt.Errorf("panic: %v", r))
		}
		out.RequestID = requestID
		out.Input = strings.TrimSpace(message)
		out.Elapsed = time.Since(start)
		c.logOutcome(logger, out)
	}()

	trimmed := strings.TrimSpace(message)
	if trimmed == "" {
		return types.ClassificationOutcome{Kind: types.OutcomeEmpty, Message: MsgEmpty}
	}

	out, err := c.classify(ctx, logger, trimmed)
	if err != nil {
		logger.Error("classification failed",
			zap.String("category", errorCategory(err)),
			zap.Error(err))
		return internalError(err)
	}
	return out
}

func (c *Classifier) classify(ctx context.Context, logger *zap.Logger, message string) (types.ClassificationOutcome, error) {
	logger.Info("processing message", zap.String("message", message))

	projectID, err := c.backend.GetProjectID(ctx)
	if err != nil {
		return types.ClassificationOutcome{}, fmt.Errorf("resolving project: %w", err)
	}
	stories, err := c.backend.ListStories(ctx, projectID)
	if err != nil {
		return types.ClassificationOutcome{}, fmt.Errorf("loading stories: %w", err)
	}

	match := c.matcher.MatchStory(ctx, message, stories)
	logger.Debug("story match",
		zap.Stringer("kind", match.Kind),
		zap.Int("stories", len(stories)),
		zap.String("story", match.Story.Title))

	if !match.Matched() {
		story, err := c.creator.CreateStory(ctx, message)
		if err != nil {
			return types.ClassificationOutcome{}, err
		}
		return types.ClassificationOutcome{
			Kind:    types.OutcomeNewStory,
			Message: MsgNewStory,
			Story:   story,
		}, nil
	}

	return c.underStory(ctx, logger, message, match)
}

// underStory handles a message routed to an existing story.
func (c *Classifier) underStory(ctx context.Context, logger *zap.Logger, message string, match deduplication.StoryMatch) (types.ClassificationOutcome, error) {
	story := match.Story
	base := types.ClassificationOutcome{
		MatchKind:     types.MatchExact,
		MatchedTitle:  story.Title,
		ParentStoryID: story.ID,
	}
	fuzzy := match.Kind == deduplication.FuzzyMatch
	if fuzzy {
		base.MatchKind = types.MatchFuzzy
	}

	subItems, err := c.backend.ListSubItems(ctx, story.ID)
	if err != nil {
		return types.ClassificationOutcome{}, fmt.Errorf("loading sub-tasks of story %d: %w", story.ID, err)
	}

	// the message is the story itself; a sub-task named after its parent adds nothing
	if !fuzzy && len(subItems) == 0 && types.NormalizeTitle(message) == types.NormalizeTitle(story.Title) {
		out := base
		out.Kind = types.OutcomeDuplicateStory
		out.Message = MsgDuplicateStory
		out.Story = &story
		return out, nil
	}

	if dup, ok := c.dedup.FindDuplicate(ctx, message, types.SubItemTitles(subItems), c.subItemThreshold); ok {
		logger.Info("duplicate sub-task",
			zap.String("message", message),
			zap.String("existing", dup),
			zap.Int64("story", story.ID))
		out := base
		out.Kind = types.OutcomeDuplicateSubItem
		out.Message = MsgDuplicateSubItem
		if fuzzy {
			out.Message = MsgDuplicateSubItemFuzzy
		}
		out.MatchedTitle = dup
		return out, nil
	}

	sub, err := c.creator.CreateSubItem(ctx, story.ID, message)
	if err != nil {
		return types.ClassificationOutcome{}, err
	}
	out := base
	out.Kind = types.OutcomeNewSubItem
	out.Message = MsgSubItemExact
	if fuzzy {
		out.Message = MsgSubItemFuzzy
	}
	out.SubItem = sub
	return out, nil
}

func internalError(err error) types.ClassificationOutcome {
	return types.ClassificationOutcome{
		Kind:    types.OutcomeInternalError,
		Message: MsgInternalError,
		Error:   err.Error(),
	}
}

func (c *Classifier) logOutcome(logger *zap.Logger, out types.ClassificationOutcome) {
	fields := []zap.Field{
		zap.String("kind", string(out.Kind)),
		zap.Duration("elapsed", out.Elapsed),
	}
	if out.ParentStoryID != 0 {
		fields = append(fields, zap.Int64("story", out.ParentStoryID))
	}
	logger.Info("classification complete", fields...)
}

// errorCategory names the failure class for log filtering.
func errorCategory(err error) string {
	switch {
	case types.IsConfigurationError(err):
		return "configuration"
	case types.IsAuthError(err):
		return "auth"
	case types.IsNetworkError(err):
		return "network"
	case types.IsGenerationError(err):
		return "generation"
	default:
		return "backend"
	}
}
