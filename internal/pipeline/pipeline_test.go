package pipeline

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/UllasZ/teams-taiga-integration/internal/ai"
	"github.com/UllasZ/teams-taiga-integration/internal/ai/aitest"
	"github.com/UllasZ/teams-taiga-integration/internal/deduplication"
	"github.com/UllasZ/teams-taiga-integration/internal/storage"
	"github.com/UllasZ/teams-taiga-integration/internal/storage/memory"
	"github.com/UllasZ/teams-taiga-integration/internal/types"
	"github.com/UllasZ/teams-taiga-integration/internal/workitems"
)

// recordingBackend counts calls per method and can fail any of them.
type recordingBackend struct {
	storage.Backend

	mu    sync.Mutex
	calls map[string]int
	fail  map[string]error
}

func newRecordingBackend(inner storage.Backend) *recordingBackend {
	return &recordingBackend{Backend: inner, calls: map[string]int{}, fail: map[string]error{}}
}

func (r *recordingBackend) record(method string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls[method]++
	return r.fail[method]
}

func (r *recordingBackend) total() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, c := range r.calls {
		n += c
	}
	return n
}

func (r *recordingBackend) count(method string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls[method]
}

func (r *recordingBackend) GetProjectID(ctx context.Context) (int64, error) {
	if err := r.record("GetProjectID"); err != nil {
		return 0, err
	}
	return r.Backend.GetProjectID(ctx)
}

func (r *recordingBackend) ListStories(ctx context.Context, projectID int64) ([]types.WorkItem, error) {
	if err := r.record("ListStories"); err != nil {
		return nil, err
	}
	return r.Backend.ListStories(ctx, projectID)
}

func (r *recordingBackend) ListSubItems(ctx context.Context, storyID int64) ([]types.SubItem, error) {
	if err := r.record("ListSubItems"); err != nil {
		return nil, err
	}
	return r.Backend.ListSubItems(ctx, storyID)
}

func (r *recordingBackend) SubmitStory(ctx context.Context, payload storage.StoryPayload) (*types.WorkItem, error) {
	if err := r.record("SubmitStory"); err != nil {
		return nil, err
	}
	return r.Backend.SubmitStory(ctx, payload)
}

func (r *recordingBackend) SubmitSubItem(ctx context.Context, parentID int64, payload storage.SubItemPayload) (*types.SubItem, error) {
	if err := r.record("SubmitSubItem"); err != nil {
		return nil, err
	}
	return r.Backend.SubmitSubItem(ctx, parentID, payload)
}

type fixture struct {
	mem      *memory.Backend
	backend  *recordingBackend
	gen      *aitest.Fake
	pipeline *Classifier
}

func newFixture(t *testing.T, gen *aitest.Fake) *fixture {
	t.Helper()
	mem := memory.New(memory.DefaultConfig())
	backend := newRecordingBackend(mem)
	var g ai.Generator
	if gen != nil {
		g = gen
	}
	p, err := NewDefault(backend, g, deduplication.DefaultConfig(), zaptest.NewLogger(t))
	require.NoError(t, err)
	return &fixture{mem: mem, backend: backend, gen: gen, pipeline: p}
}

func TestClassify_EmptyMessage(t *testing.T) {
	for _, msg := range []string{"", "   ", "\n\t "} {
		f := newFixture(t, aitest.New())
		out := f.pipeline.Classify(context.Background(), msg)

		assert.Equal(t, types.OutcomeEmpty, out.Kind)
		assert.Equal(t, "Empty message. Skipping.", out.Message)
		assert.Equal(t, 0, f.backend.total(), "no backend calls for %q", msg)
		assert.Empty(t, f.gen.Calls())
		assert.NotEmpty(t, out.RequestID)
	}
}

func TestClassify_NewStoryWhenNoStories(t *testing.T) {
	f := newFixture(t, aitest.New())
	out := f.pipeline.Classify(context.Background(), "  Add OAuth support ")

	require.Equal(t, types.OutcomeNewStory, out.Kind, out.Error)
	assert.Equal(t, "No match found. New user story created", out.Message)
	require.NotNil(t, out.Story)
	assert.Equal(t, "Add OAuth support", out.Story.Title)
	assert.Equal(t, 1, f.mem.Stats().StoriesSubmitted)
	assert.Equal(t, "Add OAuth support", out.Input)
}

func TestClassify_TitleEqualNeverCreatesStory(t *testing.T) {
	f := newFixture(t, aitest.New())
	f.mem.AddStory("Fix login bug")

	out := f.pipeline.Classify(context.Background(), "FIX LOGIN BUG")
	assert.Equal(t, types.OutcomeDuplicateStory, out.Kind)
	assert.Equal(t, "Duplicate story. Skipping.", out.Message)
	assert.Equal(t, 0, f.backend.count("SubmitStory"))
	assert.Equal(t, 0, f.backend.count("SubmitSubItem"))
}

func TestClassify_ExactStoryWithUnrelatedSubItem(t *testing.T) {
	f := newFixture(t, aitest.New())
	story := f.mem.AddStory("Fix login bug")
	f.mem.AddSubItem(story.ID, "Update CI badges")

	out := f.pipeline.Classify(context.Background(), "Fix login bug")
	require.Equal(t, types.OutcomeNewSubItem, out.Kind, out.Error)
	assert.Equal(t, "Sub-task created under exact story match", out.Message)
	assert.Equal(t, story.ID, out.ParentStoryID)
	assert.Equal(t, types.MatchExact, out.MatchKind)
	require.NotNil(t, out.SubItem)
	assert.Equal(t, story.ID, out.SubItem.ParentStoryID)
	assert.Equal(t, 0, f.backend.count("SubmitStory"))
}

func TestClassify_ExactStoryWithDuplicateSubItem(t *testing.T) {
	f := newFixture(t, aitest.New())
	story := f.mem.AddStory("Fix login bug")
	f.mem.AddSubItem(story.ID, "Fix login bug.")

	out := f.pipeline.Classify(context.Background(), "Fix login bug")
	assert.Equal(t, types.OutcomeDuplicateSubItem, out.Kind)
	assert.Equal(t, "Duplicate sub-task. Skipping.", out.Message)
	assert.Equal(t, "Fix login bug.", out.MatchedTitle)
	assert.Equal(t, 0, f.backend.count("SubmitSubItem"))
}

func TestClassify_NearDuplicateBecomesSubItem(t *testing.T) {
	f := newFixture(t, aitest.New())
	story := f.mem.AddStory("Fix login bug")

	out := f.pipeline.Classify(context.Background(), "Fix login bug!")
	require.Equal(t, types.OutcomeNewSubItem, out.Kind, out.Error)
	assert.Equal(t, story.ID, out.ParentStoryID)
	assert.Equal(t, "Fix login bug!", out.SubItem.Title)
}

func TestClassify_FuzzyMatch(t *testing.T) {
	gen := aitest.New().
		On(ai.OpDuplicateCheck, "None").
		On(ai.OpStoryMatch, "2")
	f := newFixture(t, gen)
	f.mem.AddStory("Fix login bug")
	billing := f.mem.AddStory("Billing export")

	out := f.pipeline.Classify(context.Background(), "CSV download times out for large accounts")
	require.Equal(t, types.OutcomeNewSubItem, out.Kind, out.Error)
	assert.Equal(t, "Sub-task created under fuzzy-matched story", out.Message)
	assert.Equal(t, types.MatchFuzzy, out.MatchKind)
	assert.Equal(t, billing.ID, out.ParentStoryID)

	again := f.pipeline.Classify(context.Background(), "CSV download times out for large accounts")
	assert.Equal(t, types.OutcomeDuplicateSubItem, again.Kind)
	assert.Equal(t, "Duplicate sub-task (fuzzy match). Skipping.", again.Message)
}

func TestClassify_OutOfRangeIndexCreatesStory(t *testing.T) {
	gen := aitest.New().
		On(ai.OpDuplicateCheck, "None").
		On(ai.OpStoryMatch, "7")
	f := newFixture(t, gen)
	f.mem.AddStory("Fix login bug")
	f.mem.AddStory("Billing export")
	f.mem.AddStory("Onboarding emails")

	out := f.pipeline.Classify(context.Background(), "Dark mode for the dashboard")
	assert.Equal(t, types.OutcomeNewStory, out.Kind)
}

func TestClassify_DuplicateCheckBeforeCreation(t *testing.T) {
	gen := aitest.New().
		On(ai.OpDuplicateCheck, "None").
		On(ai.OpStoryMatch, "None").
		On(ai.OpDescribe, "desc")
	f := newFixture(t, gen)
	f.mem.AddStory("Fix login bug")

	out := f.pipeline.Classify(context.Background(), "Dark mode for the dashboard")
	require.Equal(t, types.OutcomeNewStory, out.Kind)

	var ops []string
	for _, c := range gen.Calls() {
		ops = append(ops, c.Operation)
	}
	require.GreaterOrEqual(t, len(ops), 3)
	assert.Equal(t, []string{ai.OpDuplicateCheck, ai.OpStoryMatch}, ops[:2])
	assert.Equal(t, ai.OpDescribe, ops[2])
}

func TestClassify_BackendFailureIsInternalError(t *testing.T) {
	f := newFixture(t, aitest.New())
	f.backend.fail["ListStories"] = &types.NetworkError{Op: "GET /userstories", Err: errors.New("connection reset")}

	out := f.pipeline.Classify(context.Background(), "Add OAuth support")
	assert.Equal(t, types.OutcomeInternalError, out.Kind)
	assert.Equal(t, "Internal error processing task", out.Message)
	assert.Contains(t, out.Error, "connection reset")
	assert.Equal(t, 0, f.backend.count("SubmitStory"))
}

func TestClassify_AuthFailureIsInternalError(t *testing.T) {
	f := newFixture(t, aitest.New())
	f.backend.fail["GetProjectID"] = &types.AuthError{Err: errors.New("401")}

	out := f.pipeline.Classify(context.Background(), "Add OAuth support")
	assert.Equal(t, types.OutcomeInternalError, out.Kind)
	assert.Contains(t, out.Error, "authentication failed")
}

func TestClassify_NoStatusesIsInternalError(t *testing.T) {
	cfg := memory.DefaultConfig()
	cfg.StoryStatuses = nil
	mem := memory.New(cfg)
	p, err := NewDefault(mem, nil, deduplication.DefaultConfig(), zaptest.NewLogger(t))
	require.NoError(t, err)

	out := p.Classify(context.Background(), "Add OAuth support")
	assert.Equal(t, types.OutcomeInternalError, out.Kind)
	assert.Contains(t, out.Error, "no user story statuses found")
	assert.Equal(t, 0, mem.Stats().StoriesSubmitted)
}

type panickingCreator struct{ *workitems.Creator }

func (panickingCreator) CreateStory(context.Context, string) (*types.WorkItem, error) {
	panic("nil map write")
}

func TestClassify_PanicIsInternalError(t *testing.T) {
	mem := memory.New(memory.DefaultConfig())
	oracle, err := deduplication.NewOracle(nil, deduplication.DefaultConfig(), nil)
	require.NoError(t, err)
	matcher, err := deduplication.NewMatcher(oracle, nil, deduplication.DefaultConfig(), nil)
	require.NoError(t, err)
	p, err := New(Config{
		Backend:      mem,
		Matcher:      matcher,
		Deduplicator: oracle,
		Creator:      panickingCreator{},
		Logger:       zaptest.NewLogger(t),
	})
	require.NoError(t, err)

	var out types.ClassificationOutcome
	require.NotPanics(t, func() {
		out = p.Classify(context.Background(), "Add OAuth support")
	})
	assert.Equal(t, types.OutcomeInternalError, out.Kind)
	assert.Contains(t, out.Error, "nil map write")
	assert.NotEmpty(t, out.RequestID)
}

func TestClassify_ReplayIsIdempotent(t *testing.T) {
	tests := []struct {
		name    string
		gen     func() *aitest.Fake
		seed    func(*memory.Backend)
		message string
	}{
		{
			name:    "new story",
			gen:     aitest.New,
			message: "Add OAuth support",
		},
		{
			name:    "near duplicate of story",
			gen:     aitest.New,
			seed:    func(m *memory.Backend) { m.AddStory("Fix login bug") },
			message: "Fix login bug!",
		},
		{
			name: "story with existing sub-task",
			gen:  aitest.New,
			seed: func(m *memory.Backend) {
				s := m.AddStory("Fix login bug")
				m.AddSubItem(s.ID, "Update CI badges")
			},
			message: "Fix login bug",
		},
		{
			name: "fuzzy routed",
			gen: func() *aitest.Fake {
				return aitest.New().On(ai.OpDuplicateCheck, "None").On(ai.OpStoryMatch, "1")
			},
			seed:    func(m *memory.Backend) { m.AddStory("Billing export") },
			message: "CSV download times out",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, tt.gen())
			if tt.seed != nil {
				tt.seed(f.mem)
			}
			first := f.pipeline.Classify(context.Background(), tt.message)
			require.True(t, first.Kind.Created(), "first call should create, got %s (%s)", first.Kind, first.Error)
			before := f.mem.Stats()

			second := f.pipeline.Classify(context.Background(), tt.message)
			assert.Contains(t, []types.OutcomeKind{types.OutcomeDuplicateStory, types.OutcomeDuplicateSubItem}, second.Kind)
			assert.Equal(t, before, f.mem.Stats(), "replay must not create anything")
		})
	}
}

func TestClassify_ConcurrentRequests(t *testing.T) {
	f := newFixture(t, nil)
	f.mem.AddStory("Fix login bug")

	var wg sync.WaitGroup
	for _, msg := range []string{"Add OAuth support", "Dark mode", "Fix login bug!", "Export to PDF"} {
		wg.Add(1)
		go func(msg string) {
			defer wg.Done()
			out := f.pipeline.Classify(context.Background(), msg)
			assert.NotEqual(t, types.OutcomeInternalError, out.Kind, out.Error)
		}(msg)
	}
	wg.Wait()
}

func TestNewValidatesCollaborators(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)
}
