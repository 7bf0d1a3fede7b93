// Package workitems creates enriched stories and sub-items in the backend.
package workitems

import (
	"context"
	"fmt"
	"html"
	"strings"

	"go.uber.org/zap"

	"github.com/UllasZ/teams-taiga-integration/internal/enrichment"
	"github.com/UllasZ/teams-taiga-integration/internal/storage"
	"github.com/UllasZ/teams-taiga-integration/internal/types"
)

// payloadVersion is sent with new stories; Taiga uses it for optimistic locking.
const payloadVersion = 1

// Creator builds and submits new work items. It does not check for
// duplicates; callers must do that first.
type Creator struct {
	backend  storage.Backend
	enricher enrichment.Enricher
	logger   *zap.Logger
}

// NewCreator creates a Creator.
func NewCreator(backend storage.Backend, enricher enrichment.Enricher, logger *zap.Logger) (*Creator, error) {
	if backend == nil {
		return nil, fmt.Errorf("backend cannot be nil")
	}
	if enricher == nil {
		return nil, fmt.Errorf("enricher cannot be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Creator{backend: backend, enricher: enricher, logger: logger}, nil
}

// Options overrides generated content.
type Options struct {
	// Description is used verbatim when non-empty instead of a generated one.
	Description string
}

// CreateStory creates a story titled title in the configured project.
func (c *Creator) CreateStory(ctx context.Context, title string) (*types.WorkItem, error) {
	return c.CreateStoryWithOptions(ctx, title, Options{})
}

// CreateStoryWithOptions is CreateStory with caller-supplied content.
func (c *Creator) CreateStoryWithOptions(ctx context.Context, title string, opts Options) (*types.WorkItem, error) {
	projectID, err := c.backend.GetProjectID(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolving project: %w", err)
	}
	statuses, err := c.backend.ListStoryStatuses(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("fetching story statuses: %w", err)
	}
	status, err := types.SelectDefaultStatus("user story", statuses)
	if err != nil {
		return nil, err
	}

	description, priorityID, err := c.enrich(ctx, projectID, title, opts)
	if err != nil {
		return nil, err
	}

	payload := storage.StoryPayload{
		ProjectID:       projectID,
		Subject:         title,
		Description:     description,
		DescriptionHTML: DescriptionHTML(description),
		StatusID:        status.ID,
		PriorityID:      priorityID,
		Version:         payloadVersion,
	}
	c.logger.Info("creating user story",
		zap.String("title", title),
		zap.Int64("status", status.ID),
		zap.Bool("has_priority", priorityID != nil))
	story, err := c.backend.SubmitStory(ctx, payload)
	if err != nil {
		return nil, fmt.Errorf("submitting story %q: %w", title, err)
	}
	return story, nil
}

// CreateSubItem creates a sub-item titled title under parentID.
func (c *Creator) CreateSubItem(ctx context.Context, parentID int64, title string) (*types.SubItem, error) {
	projectID, err := c.backend.GetProjectID(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolving project: %w", err)
	}
	statuses, err := c.backend.ListTaskStatuses(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("fetching task statuses: %w", err)
	}
	status, err := types.SelectDefaultStatus("task", statuses)
	if err != nil {
		return nil, err
	}

	description, priorityID, err := c.enrich(ctx, projectID, title, Options{})
	if err != nil {
		return nil, err
	}

	payload := storage.SubItemPayload{
		ProjectID:       projectID,
		Subject:         title,
		Description:     description,
		DescriptionHTML: DescriptionHTML(description),
		StatusID:        status.ID,
		PriorityID:      priorityID,
	}
	c.logger.Info("creating sub-task",
		zap.String("title", title),
		zap.Int64("story", parentID),
		zap.Int64("status", status.ID))
	sub, err := c.backend.SubmitSubItem(ctx, parentID, payload)
	if err != nil {
		return nil, fmt.Errorf("submitting sub-task %q under story %d: %w", title, parentID, err)
	}
	return sub, nil
}

// enrich returns the description and priority for a new item. Only the
// priority list fetch can fail; generation failures yield empty values.
func (c *Creator) enrich(ctx context.Context, projectID int64, title string, opts Options) (string, *int64, error) {
	description := strings.TrimSpace(opts.Description)
	if description == "" {
		description = c.enricher.DescribeTask(ctx, title)
	}

	priorities, err := c.backend.ListPriorities(ctx, projectID)
	if err != nil {
		return "", nil, fmt.Errorf("fetching priorities: %w", err)
	}
	return description, c.enricher.ChoosePriority(ctx, title, priorities), nil
}

// DescriptionHTML renders a plain-text description as one escaped paragraph.
func DescriptionHTML(description string) string {
	return "<p>" + html.EscapeString(description) + "</p>"
}
