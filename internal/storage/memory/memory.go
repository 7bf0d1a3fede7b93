// Package memory provides an in-process storage.Backend. It backs tests,
// the --dry-run mode of the CLI and the offline REPL.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/UllasZ/teams-taiga-integration/internal/storage"
	"github.com/UllasZ/teams-taiga-integration/internal/types"
)

// Config seeds a Backend's reference data.
type Config struct {
	ProjectID       int64
	StoryStatuses   []types.Status
	TaskStatuses    []types.Status
	Priorities      []types.Priority
	FirstIDToAssign int64
}

// DefaultConfig mirrors a fresh Scrum project's reference data.
func DefaultConfig() Config {
	return Config{
		ProjectID: 1,
		StoryStatuses: []types.Status{
			{ID: 1, Name: "New", Order: 1},
			{ID: 2, Name: "Ready", Order: 2},
			{ID: 3, Name: "In progress", Order: 3},
			{ID: 4, Name: "Done", Order: 4},
		},
		TaskStatuses: []types.Status{
			{ID: 11, Name: "New", Order: 1},
			{ID: 12, Name: "In progress", Order: 2},
			{ID: 13, Name: "Ready for test", Order: 3},
			{ID: 14, Name: "Closed", Order: 4},
		},
		Priorities: []types.Priority{
			{ID: 21, Name: "Low", Order: 1},
			{ID: 22, Name: "Normal", Order: 3},
			{ID: 23, Name: "High", Order: 5},
		},
		FirstIDToAssign: 100,
	}
}

// Stats counts calls that change state.
type Stats struct {
	StoriesSubmitted  int
	SubItemsSubmitted int
}

// Backend is a mutex-guarded in-memory storage.Backend. Submitted items are
// visible to subsequent List calls.
type Backend struct {
	mu       sync.RWMutex
	cfg      Config
	nextID   int64
	stories  []types.WorkItem
	subItems map[int64][]types.SubItem
	stats    Stats
}

var _ storage.Backend = (*Backend)(nil)

// New creates a Backend seeded from cfg.
func New(cfg Config) *Backend {
	if cfg.FirstIDToAssign == 0 {
		cfg.FirstIDToAssign = 1
	}
	return &Backend{
		cfg:      cfg,
		nextID:   cfg.FirstIDToAssign,
		subItems: make(map[int64][]types.SubItem),
	}
}

// GetProjectID implements storage.Backend.
func (b *Backend) GetProjectID(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return b.cfg.ProjectID, nil
}

// ListStories implements storage.Backend.
func (b *Backend) ListStories(ctx context.Context, projectID int64) ([]types.WorkItem, error) {
	if err := b.checkProject(ctx, projectID); err != nil {
		return nil, err
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]types.WorkItem(nil), b.stories...), nil
}

// ListSubItems implements storage.Backend.
func (b *Backend) ListSubItems(ctx context.Context, storyID int64) ([]types.SubItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]types.SubItem(nil), b.subItems[storyID]...), nil
}

// ListStoryStatuses implements storage.Backend.
func (b *Backend) ListStoryStatuses(ctx context.Context, projectID int64) ([]types.Status, error) {
	if err := b.checkProject(ctx, projectID); err != nil {
		return nil, err
	}
	return append([]types.Status(nil), b.cfg.StoryStatuses...), nil
}

// ListTaskStatuses implements storage.Backend.
func (b *Backend) ListTaskStatuses(ctx context.Context, projectID int64) ([]types.Status, error) {
	if err := b.checkProject(ctx, projectID); err != nil {
		return nil, err
	}
	return append([]types.Status(nil), b.cfg.TaskStatuses...), nil
}

// ListPriorities implements storage.Backend.
func (b *Backend) ListPriorities(ctx context.Context, projectID int64) ([]types.Priority, error) {
	if err := b.checkProject(ctx, projectID); err != nil {
		return nil, err
	}
	return append([]types.Priority(nil), b.cfg.Priorities...), nil
}

// SubmitStory implements storage.Backend.
func (b *Backend) SubmitStory(ctx context.Context, payload storage.StoryPayload) (*types.WorkItem, error) {
	if err := b.checkProject(ctx, payload.ProjectID); err != nil {
		return nil, err
	}
	story := types.WorkItem{
		Title:           payload.Subject,
		Description:     payload.Description,
		DescriptionHTML: payload.DescriptionHTML,
		StatusID:        payload.StatusID,
		PriorityID:      payload.PriorityID,
		ProjectID:       payload.ProjectID,
	}
	if err := story.Validate(); err != nil {
		return nil, fmt.Errorf("invalid story: %w", err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	story.ID = b.nextID
	story.Ref = int64(len(b.stories) + 1)
	b.nextID++
	b.stories = append(b.stories, story)
	b.stats.StoriesSubmitted++
	return &story, nil
}

// SubmitSubItem implements storage.Backend.
func (b *Backend) SubmitSubItem(ctx context.Context, parentID int64, payload storage.SubItemPayload) (*types.SubItem, error) {
	if err := b.checkProject(ctx, payload.ProjectID); err != nil {
		return nil, err
	}
	sub := types.SubItem{
		WorkItem: types.WorkItem{
			Title:           payload.Subject,
			Description:     payload.Description,
			DescriptionHTML: payload.DescriptionHTML,
			StatusID:        payload.StatusID,
			PriorityID:      payload.PriorityID,
			ProjectID:       payload.ProjectID,
		},
		ParentStoryID: parentID,
	}
	if err := sub.Validate(); err != nil {
		return nil, fmt.Errorf("invalid sub-item: %w", err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.hasStory(parentID) {
		return nil, fmt.Errorf("story %d not found", parentID)
	}
	sub.ID = b.nextID
	sub.Ref = sub.ID
	b.nextID++
	b.subItems[parentID] = append(b.subItems[parentID], sub)
	b.stats.SubItemsSubmitted++
	return &sub, nil
}

// AddStory inserts a story directly, without counting it as a submission.
func (b *Backend) AddStory(title string) types.WorkItem {
	b.mu.Lock()
	defer b.mu.Unlock()
	story := types.WorkItem{
		ID:        b.nextID,
		Ref:       int64(len(b.stories) + 1),
		Title:     title,
		ProjectID: b.cfg.ProjectID,
	}
	if len(b.cfg.StoryStatuses) > 0 {
		story.StatusID = b.cfg.StoryStatuses[0].ID
	}
	b.nextID++
	b.stories = append(b.stories, story)
	return story
}

// AddSubItem inserts a sub-item directly under storyID.
func (b *Backend) AddSubItem(storyID int64, title string) types.SubItem {
	b.mu.Lock()
	defer b.mu.Unlock()
	sub := types.SubItem{
		WorkItem: types.WorkItem{
			ID:        b.nextID,
			Ref:       b.nextID,
			Title:     title,
			ProjectID: b.cfg.ProjectID,
		},
		ParentStoryID: storyID,
	}
	b.nextID++
	b.subItems[storyID] = append(b.subItems[storyID], sub)
	return sub
}

// Stats returns submission counters.
func (b *Backend) Stats() Stats {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.stats
}

func (b *Backend) checkProject(ctx context.Context, projectID int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if projectID != b.cfg.ProjectID {
		return fmt.Errorf("project %d not found", projectID)
	}
	return nil
}

// hasStory must be called with the lock held.
func (b *Backend) hasStory(id int64) bool {
	for _, s := range b.stories {
		if s.ID == id {
			return true
		}
	}
	return false
}
