package types

import (
	"fmt"
	"strings"
)

// WorkItem represents a top-level story in the project-management backend.
// The backend owns it; the bridge never mutates one after creation.
type WorkItem struct {
	ID              int64  `json:"id"`
	Ref             int64  `json:"ref,omitempty"`
	Title           string `json:"subject"`
	Description     string `json:"description"`
	DescriptionHTML string `json:"description_html,omitempty"`
	StatusID        int64  `json:"status"`
	PriorityID      *int64 `json:"priority,omitempty"`
	ProjectID       int64  `json:"project"`
}

// Validate checks if the work item has valid field values
func (w *WorkItem) Validate() error {
	if strings.TrimSpace(w.Title) == "" {
		return fmt.Errorf("title is required")
	}
	if len(w.Title) > 500 {
		return fmt.Errorf("title must be 500 characters or less (got %d)", len(w.Title))
	}
	return nil
}

// SubItem represents a task attached to exactly one story.
type SubItem struct {
	WorkItem
	ParentStoryID int64 `json:"user_story"`
}

// Validate checks if the sub-item has valid field values
func (s *SubItem) Validate() error {
	if err := s.WorkItem.Validate(); err != nil {
		return err
	}
	if s.ParentStoryID == 0 {
		return fmt.Errorf("parent story is required")
	}
	return nil
}

// Priority is project reference data. Names are unique within a project.
type Priority struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Order int    `json:"order"`
}

// Status is a workflow state for stories or tasks.
type Status struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Order int    `json:"order"`
}

// SelectDefaultStatus returns the status new items are created in.
// The backend lists statuses in workflow order, so index 0 is the
// initial (open) state. An empty list means the project cannot accept
// new items and is reported as a ConfigurationError.
func SelectDefaultStatus(kind string, statuses []Status) (Status, error) {
	if len(statuses) == 0 {
		return Status{}, &ConfigurationError{Reason: fmt.Sprintf("no %s statuses found", kind)}
	}
	return statuses[0], nil
}

// Titles extracts story titles in order.
func Titles(items []WorkItem) []string {
	titles := make([]string, len(items))
	for i, item := range items {
		titles[i] = item.Title
	}
	return titles
}

// SubItemTitles extracts sub-item titles in order, skipping untitled entries.
func SubItemTitles(items []SubItem) []string {
	titles := make([]string, 0, len(items))
	for _, item := range items {
		if item.Title == "" {
			continue
		}
		titles = append(titles, item.Title)
	}
	return titles
}

// NormalizeTitle folds case and surrounding whitespace for title comparison.
func NormalizeTitle(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
