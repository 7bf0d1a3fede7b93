// Package storage defines the contract between the bridge and the
// project-management backend that owns all durable state.
package storage

import (
	"context"

	"github.com/UllasZ/teams-taiga-integration/internal/types"
)

// Backend defines the operations the bridge needs from a project tracker.
// Status lists are returned in workflow order: index 0 is the default.
type Backend interface {
	// Project
	GetProjectID(ctx context.Context) (int64, error)

	// Stories and sub-items
	ListStories(ctx context.Context, projectID int64) ([]types.WorkItem, error)
	ListSubItems(ctx context.Context, storyID int64) ([]types.SubItem, error)
	SubmitStory(ctx context.Context, payload StoryPayload) (*types.WorkItem, error)
	SubmitSubItem(ctx context.Context, parentID int64, payload SubItemPayload) (*types.SubItem, error)

	// Reference data
	ListStoryStatuses(ctx context.Context, projectID int64) ([]types.Status, error)
	ListTaskStatuses(ctx context.Context, projectID int64) ([]types.Status, error)
	ListPriorities(ctx context.Context, projectID int64) ([]types.Priority, error)
}

// StoryPayload is the body submitted to create a story.
// A nil PriorityID is sent as null and means "unset".
type StoryPayload struct {
	ProjectID       int64  `json:"project"`
	Subject         string `json:"subject"`
	Description     string `json:"description"`
	DescriptionHTML string `json:"description_html"`
	StatusID        int64  `json:"status"`
	PriorityID      *int64 `json:"priority"`
	Version         int    `json:"version"`
}

// SubItemPayload is the body submitted to create a sub-item. UserStoryID is
// filled in by the backend from the parent id passed to SubmitSubItem.
type SubItemPayload struct {
	ProjectID       int64  `json:"project"`
	UserStoryID     int64  `json:"user_story"`
	Subject         string `json:"subject"`
	Description     string `json:"description"`
	DescriptionHTML string `json:"description_html"`
	StatusID        int64  `json:"status"`
	PriorityID      *int64 `json:"priority"`
}
