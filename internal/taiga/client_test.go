package taiga

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/UllasZ/teams-taiga-integration/internal/storage"
	"github.com/UllasZ/teams-taiga-integration/internal/types"
)

func TestNewClientValidation(t *testing.T) {
	_, err := NewClient(Config{ProjectSlug: ""})
	assert.Error(t, err)

	_, err = NewClient(Config{BaseURL: "ftp://example.com", ProjectSlug: "x"})
	assert.Error(t, err)

	c, err := NewClient(Config{ProjectSlug: "x"})
	require.NoError(t, err)
	assert.Equal(t, DefaultBaseURL, c.baseURL)
}

func TestGetProjectIDIsCached(t *testing.T) {
	f := newFakeTaiga(t)
	c := f.client(nil)

	for i := 0; i < 3; i++ {
		id, err := c.GetProjectID(context.Background())
		require.NoError(t, err)
		assert.Equal(t, int64(7), id)
	}
	count := 0
	for _, r := range f.requests {
		if r == "GET /projects/by_slug" {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestGetProjectNotFound(t *testing.T) {
	f := newFakeTaiga(t)
	c := f.client(func(cfg *Config) { cfg.ProjectSlug = "missing" })

	_, err := c.GetProjectID(context.Background())
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
	assert.Contains(t, err.Error(), "No Project matches")
}

func TestListEndpoints(t *testing.T) {
	f := newFakeTaiga(t)
	c := f.client(nil)
	ctx := context.Background()

	stories, err := c.ListStories(ctx, 7)
	require.NoError(t, err)
	require.Len(t, stories, 2)
	assert.Equal(t, "Fix login bug", stories[0].Title)
	assert.Equal(t, int64(3), stories[0].StatusID)

	tasks, err := c.ListSubItems(ctx, 1)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, int64(1), tasks[0].ParentStoryID)
	assert.Equal(t, "Write tests", tasks[0].Title)

	statuses, err := c.ListStoryStatuses(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, int64(3), statuses[0].ID)

	taskStatuses, err := c.ListTaskStatuses(ctx, 7)
	require.NoError(t, err)
	assert.Empty(t, taskStatuses)
	_, err = types.SelectDefaultStatus("task", taskStatuses)
	assert.True(t, types.IsConfigurationError(err))

	priorities, err := c.ListPriorities(ctx, 7)
	require.NoError(t, err)
	assert.Len(t, priorities, 2)
}

func TestSubmitStoryPayload(t *testing.T) {
	f := newFakeTaiga(t)
	c := f.client(nil)

	story, err := c.SubmitStory(context.Background(), storage.StoryPayload{
		ProjectID:       7,
		Subject:         "Add OAuth support",
		Description:     "Allow login with Google.",
		DescriptionHTML: "<p>Allow login with Google.</p>",
		StatusID:        3,
		Version:         1,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(100), story.ID)
	assert.Equal(t, "Add OAuth support", story.Title)

	p := f.payload()
	assert.Equal(t, "Add OAuth support", p["subject"])
	assert.Equal(t, float64(1), p["version"])
	assert.Contains(t, p, "priority")
	assert.Nil(t, p["priority"], "unset priority is sent as null")
}

func TestSubmitSubItemSetsParent(t *testing.T) {
	f := newFakeTaiga(t)
	c := f.client(nil)
	high := int64(2)

	task, err := c.SubmitSubItem(context.Background(), 1, storage.SubItemPayload{
		ProjectID:  7,
		Subject:    "Write tests",
		StatusID:   5,
		PriorityID: &high,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(200), task.ID)
	assert.Equal(t, int64(1), task.ParentStoryID)
	assert.Equal(t, float64(1), f.payload()["user_story"])
	assert.Equal(t, float64(2), f.payload()["priority"])
}

func TestUnauthorizedInvalidatesToken(t *testing.T) {
	f := newFakeTaiga(t)
	c := f.client(nil)
	ctx := context.Background()

	_, err := c.ListStories(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, int32(1), f.authCalls.Load())
	assert.Equal(t, int64(1), c.Tokens().Logins())

	f.rejectToken.Store(true)
	_, err = c.ListStories(ctx, 7)
	require.Error(t, err)
	assert.True(t, types.IsAuthError(err))
	assert.True(t, IsUnauthorized(err))
	assert.Equal(t, int32(1), f.authCalls.Load(), "the failing request is not retried")

	_, err = c.ListStories(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, int32(2), f.authCalls.Load(), "next request logs in again")
	assert.Equal(t, int64(2), c.Tokens().Logins())
}

func TestLoginFailureIsAuthError(t *testing.T) {
	f := newFakeTaiga(t)
	f.authStatus = http.StatusUnauthorized
	c := f.client(nil)

	_, err := c.ListStories(context.Background(), 7)
	require.Error(t, err)
	assert.True(t, types.IsAuthError(err))
	assert.Contains(t, err.Error(), "No active account")
}

func TestTransportFailureIsNetworkError(t *testing.T) {
	f := newFakeTaiga(t)
	c := f.client(nil)
	_, err := c.GetProjectID(context.Background())
	require.NoError(t, err)

	f.server.Close()
	_, err = c.ListStories(context.Background(), 7)
	require.Error(t, err)
	assert.True(t, types.IsNetworkError(err))
}

func TestRateLimiterPacesRequests(t *testing.T) {
	f := newFakeTaiga(t)
	c := f.client(func(cfg *Config) { cfg.RateLimit = 20; cfg.Burst = 1 })
	ctx := context.Background()

	start := time.Now()
	for i := 0; i < 4; i++ {
		_, err := c.ListPriorities(ctx, 7)
		require.NoError(t, err)
	}
	// 4 requests at 20/s with burst 1 need at least 3 intervals of 50ms
	assert.GreaterOrEqual(t, time.Since(start), 140*time.Millisecond)
}

func TestRequestHonorsContext(t *testing.T) {
	f := newFakeTaiga(t)
	c := f.client(nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.ListStories(ctx, 7)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestParseAPIError(t *testing.T) {
	tests := []struct {
		body string
		want string
	}{
		{`{"_error_message": "bad"}`, "bad"},
		{`{"detail": "nope"}`, "nope"},
		{`plain text`, "plain text"},
	}
	for _, tt := range tests {
		err := parseAPIError(400, "GET", "/x", []byte(tt.body))
		assert.Equal(t, tt.want, err.Message)
		assert.Contains(t, err.Error(), "HTTP 400")
	}
}
