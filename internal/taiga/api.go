package taiga

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"go.uber.org/zap"

	"github.com/UllasZ/teams-taiga-integration/internal/storage"
	"github.com/UllasZ/teams-taiga-integration/internal/types"
)

var _ storage.Backend = (*Client)(nil)

// Project is the subset of a Taiga project the bridge reads.
type Project struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// GetProject fetches a project by slug.
func (client *Client) GetProject(ctx context.Context, slug string) (*Project, error) {
	var project Project
	if err := client.get(ctx, "/projects/by_slug?slug="+url.QueryEscape(slug), &project); err != nil {
		return nil, fmt.Errorf("fetching project %q: %w", slug, err)
	}
	return &project, nil
}

// GetProjectID returns the id of the configured project. The id is looked
// up once and cached for the life of the client.
func (client *Client) GetProjectID(ctx context.Context) (int64, error) {
	client.projectMu.Lock()
	defer client.projectMu.Unlock()
	if client.projectID != 0 {
		return client.projectID, nil
	}
	project, err := client.GetProject(ctx, client.projectSlug)
	if err != nil {
		return 0, err
	}
	client.logger.Debug("resolved project", zap.String("slug", client.projectSlug), zap.Int64("id", project.ID))
	client.projectID = project.ID
	return project.ID, nil
}

// ListStories fetches every user story of a project.
func (client *Client) ListStories(ctx context.Context, projectID int64) ([]types.WorkItem, error) {
	var stories []types.WorkItem
	if err := client.get(ctx, "/userstories?project="+strconv.FormatInt(projectID, 10), &stories); err != nil {
		return nil, fmt.Errorf("listing stories of project %d: %w", projectID, err)
	}
	return stories, nil
}

// ListSubItems fetches every task attached to a story.
func (client *Client) ListSubItems(ctx context.Context, storyID int64) ([]types.SubItem, error) {
	var tasks []types.SubItem
	if err := client.get(ctx, "/tasks?user_story="+strconv.FormatInt(storyID, 10), &tasks); err != nil {
		return nil, fmt.Errorf("listing tasks of story %d: %w", storyID, err)
	}
	return tasks, nil
}

// ListStoryStatuses fetches user story statuses in workflow order.
func (client *Client) ListStoryStatuses(ctx context.Context, projectID int64) ([]types.Status, error) {
	var statuses []types.Status
	if err := client.get(ctx, "/userstory-statuses?project="+strconv.FormatInt(projectID, 10), &statuses); err != nil {
		return nil, fmt.Errorf("listing story statuses of project %d: %w", projectID, err)
	}
	return statuses, nil
}

// ListTaskStatuses fetches task statuses in workflow order.
func (client *Client) ListTaskStatuses(ctx context.Context, projectID int64) ([]types.Status, error) {
	var statuses []types.Status
	if err := client.get(ctx, "/task-statuses?project="+strconv.FormatInt(projectID, 10), &statuses); err != nil {
		return nil, fmt.Errorf("listing task statuses of project %d: %w", projectID, err)
	}
	return statuses, nil
}

// ListPriorities fetches the project's priorities.
func (client *Client) ListPriorities(ctx context.Context, projectID int64) ([]types.Priority, error) {
	var priorities []types.Priority
	if err := client.get(ctx, "/priorities?project="+strconv.FormatInt(projectID, 10), &priorities); err != nil {
		return nil, fmt.Errorf("listing priorities of project %d: %w", projectID, err)
	}
	return priorities, nil
}

// SubmitStory creates a user story.
func (client *Client) SubmitStory(ctx context.Context, payload storage.StoryPayload) (*types.WorkItem, error) {
	var story types.WorkItem
	if err := client.post(ctx, "/userstories", payload, &story, client.createStoryTimeout); err != nil {
		return nil, fmt.Errorf("creating story %q: %w", payload.Subject, err)
	}
	client.logger.Info("story created", zap.Int64("id", story.ID), zap.String("subject", story.Title))
	return &story, nil
}

// SubmitSubItem creates a task under parentID.
func (client *Client) SubmitSubItem(ctx context.Context, parentID int64, payload storage.SubItemPayload) (*types.SubItem, error) {
	payload.UserStoryID = parentID
	var task types.SubItem
	if err := client.post(ctx, "/tasks", payload, &task, 0); err != nil {
		return nil, fmt.Errorf("creating task %q under story %d: %w", payload.Subject, parentID, err)
	}
	client.logger.Info("task created",
		zap.Int64("id", task.ID),
		zap.Int64("story", parentID),
		zap.String("subject", task.Title))
	return &task, nil
}
