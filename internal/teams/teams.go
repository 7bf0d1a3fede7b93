// Package teams is an in-memory stand-in for provisioning Teams teams that
// track a Taiga task. Nothing is sent to Microsoft Graph.
package teams

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// StatusMockCreated marks a team created by the mock store.
const StatusMockCreated = "mock_created"

// DefaultChannelName is the primary channel every team starts with.
const DefaultChannelName = "General"

// Channel is a team channel.
type Channel struct {
	ID   string `json:"channel_id"`
	Name string `json:"channel_name"`
}

// Team is a mock team linked to an optional Taiga task.
type Team struct {
	ID          string    `json:"team_id"`
	Name        string    `json:"team_name"`
	Description string    `json:"description,omitempty"`
	TaigaTaskID *int64    `json:"linked_taiga_task_id"`
	Channel     Channel   `json:"primary_channel"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

// Store is a concurrency-safe in-memory team registry.
type Store struct {
	mu     sync.RWMutex
	teams  []Team
	byTask map[int64]int
}

// NewStore returns an empty Store.
func NewStore() *Store {
	return &Store{byTask: make(map[int64]int)}
}

// Create registers a new team. FindByTaskID keeps returning the first team
// created for a task.
func (s *Store) Create(name, description string, taskID *int64) Team {
	team := Team{
		ID:          uuid.NewString(),
		Name:        strings.TrimSpace(name),
		Description: strings.TrimSpace(description),
		Channel:     Channel{ID: uuid.NewString(), Name: DefaultChannelName},
		Status:      StatusMockCreated,
		CreatedAt:   time.Now().UTC(),
	}
	if taskID != nil {
		id := *taskID
		team.TaigaTaskID = &id
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.teams = append(s.teams, team)
	if team.TaigaTaskID != nil {
		if _, exists := s.byTask[*team.TaigaTaskID]; !exists {
			s.byTask[*team.TaigaTaskID] = len(s.teams) - 1
		}
	}
	return team
}

// FindByTaskID returns the team linked to taskID.
func (s *Store) FindByTaskID(taskID int64) (Team, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx, ok := s.byTask[taskID]
	if !ok {
		return Team{}, false
	}
	return s.teams[idx], true
}

// Len returns the number of teams created.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.teams)
}
