package memory

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/UllasZ/teams-taiga-integration/internal/storage"
)

func TestSubmitStoryVisibleToList(t *testing.T) {
	ctx := context.Background()
	b := New(DefaultConfig())

	pid, err := b.GetProjectID(ctx)
	require.NoError(t, err)

	story, err := b.SubmitStory(ctx, storage.StoryPayload{ProjectID: pid, Subject: "Fix login bug", StatusID: 1, Version: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(100), story.ID)

	stories, err := b.ListStories(ctx, pid)
	require.NoError(t, err)
	require.Len(t, stories, 1)
	assert.Equal(t, "Fix login bug", stories[0].Title)
	assert.Equal(t, 1, b.Stats().StoriesSubmitted)
}

func TestSubmitSubItem(t *testing.T) {
	ctx := context.Background()
	b := New(DefaultConfig())
	parent := b.AddStory("Fix login bug")

	sub, err := b.SubmitSubItem(ctx, parent.ID, storage.SubItemPayload{ProjectID: 1, Subject: "Write tests", StatusID: 11})
	require.NoError(t, err)
	assert.Equal(t, parent.ID, sub.ParentStoryID)

	subs, err := b.ListSubItems(ctx, parent.ID)
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, "Write tests", subs[0].Title)

	_, err = b.SubmitSubItem(ctx, 9999, storage.SubItemPayload{ProjectID: 1, Subject: "Orphan"})
	assert.Error(t, err)
	assert.Equal(t, 1, b.Stats().SubItemsSubmitted)
	assert.Equal(t, 0, b.Stats().StoriesSubmitted, "AddStory is not a submission")
}

func TestSubmitRejectsEmptyTitleAndWrongProject(t *testing.T) {
	ctx := context.Background()
	b := New(DefaultConfig())

	_, err := b.SubmitStory(ctx, storage.StoryPayload{ProjectID: 1, Subject: "  "})
	assert.Error(t, err)

	_, err = b.SubmitStory(ctx, storage.StoryPayload{ProjectID: 42, Subject: "x"})
	assert.Error(t, err)

	_, err = b.ListStoryStatuses(ctx, 42)
	assert.Error(t, err)
}

func TestReferenceDataIsCopied(t *testing.T) {
	ctx := context.Background()
	b := New(DefaultConfig())
	statuses, err := b.ListStoryStatuses(ctx, 1)
	require.NoError(t, err)
	statuses[0].Name = "mutated"

	again, err := b.ListStoryStatuses(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "New", again[0].Name)
}

func TestCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(DefaultConfig()).ListStories(ctx, 1)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestConcurrentSubmissions(t *testing.T) {
	ctx := context.Background()
	b := New(DefaultConfig())
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = b.SubmitStory(ctx, storage.StoryPayload{ProjectID: 1, Subject: "story"})
		}()
	}
	wg.Wait()

	stories, err := b.ListStories(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, stories, 20)
	seen := map[int64]bool{}
	for _, s := range stories {
		assert.False(t, seen[s.ID], "duplicate id %d", s.ID)
		seen[s.ID] = true
	}
}
