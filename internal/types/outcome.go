package types

import "time"

// OutcomeKind tags the terminal state of one classification.
type OutcomeKind string

const (
	OutcomeEmpty            OutcomeKind = "empty"
	OutcomeNewStory         OutcomeKind = "new_story"
	OutcomeNewSubItem       OutcomeKind = "new_sub_item"
	OutcomeDuplicateStory   OutcomeKind = "duplicate_story"
	OutcomeDuplicateSubItem OutcomeKind = "duplicate_sub_item"
	OutcomeInternalError    OutcomeKind = "internal_error"
)

// IsValid checks if the outcome kind value is valid
func (k OutcomeKind) IsValid() bool {
	switch k {
	case OutcomeEmpty, OutcomeNewStory, OutcomeNewSubItem,
		OutcomeDuplicateStory, OutcomeDuplicateSubItem, OutcomeInternalError:
		return true
	}
	return false
}

// Created reports whether the outcome produced a backend entity.
func (k OutcomeKind) Created() bool {
	return k == OutcomeNewStory || k == OutcomeNewSubItem
}

// MatchKind records how a message was associated with an existing story.
type MatchKind string

const (
	MatchNone  MatchKind = ""
	MatchExact MatchKind = "exact"
	MatchFuzzy MatchKind = "fuzzy"
)

// ClassificationOutcome is the result of classifying one inbound message.
// It is built fresh per request and never persisted.
type ClassificationOutcome struct {
	RequestID     string      `json:"request_id"`
	Kind          OutcomeKind `json:"kind"`
	Message       string      `json:"message"`
	Input         string      `json:"input,omitempty"`
	MatchKind     MatchKind   `json:"match_kind,omitempty"`
	MatchedTitle  string      `json:"matched_title,omitempty"`
	ParentStoryID int64       `json:"parent_story_id,omitempty"`
	Story         *WorkItem   `json:"story,omitempty"`
	SubItem       *SubItem    `json:"sub_item,omitempty"`

	// Error carries the failure detail for InternalError outcomes. It is
	// logged server-side and never rendered to webhook callers.
	Error string `json:"-"`

	Elapsed time.Duration `json:"-"`
}
