package mcpserver

import (
	"context"
	"encoding/json"
	"strconv"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/UllasZ/teams-taiga-integration/internal/deduplication"
	"github.com/UllasZ/teams-taiga-integration/internal/pipeline"
	"github.com/UllasZ/teams-taiga-integration/internal/storage/memory"
	"github.com/UllasZ/teams-taiga-integration/internal/types"
)

func makeReq(args map[string]interface{}) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

func resultText(r *mcp.CallToolResult) string {
	if r == nil {
		return ""
	}
	for _, c := range r.Content {
		if tc, ok := c.(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

type stubClassifier struct{ out types.ClassificationOutcome }

func (s stubClassifier) Classify(context.Context, string) types.ClassificationOutcome { return s.out }

func TestClassifyTool_Definition(t *testing.T) {
	def := NewClassifyTool(stubClassifier{}, zaptest.NewLogger(t)).Definition()
	assert.Equal(t, "classify_message", def.Name)
	assert.Contains(t, def.InputSchema.Required, "message")
	assert.Contains(t, def.InputSchema.Properties, "message")
}

func TestClassifyTool_FilesThroughPipeline(t *testing.T) {
	backend := memory.New(memory.DefaultConfig())
	p, err := pipeline.NewDefault(backend, nil, deduplication.DefaultConfig(), zaptest.NewLogger(t))
	require.NoError(t, err)
	tool := NewClassifyTool(p, zaptest.NewLogger(t))

	res, err := tool.Handle(context.Background(), makeReq(map[string]interface{}{"message": "Add OAuth support"}))
	require.NoError(t, err)
	require.False(t, res.IsError, resultText(res))

	var out types.ClassificationOutcome
	require.NoError(t, json.Unmarshal([]byte(resultText(res)), &out))
	assert.Equal(t, types.OutcomeNewStory, out.Kind)
	assert.Equal(t, 1, backend.Stats().StoriesSubmitted)

	res, err = tool.Handle(context.Background(), makeReq(map[string]interface{}{"message": "Add OAuth support"}))
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(resultText(res)), &out))
	assert.Equal(t, types.OutcomeDuplicateStory, out.Kind)
}

func TestClassifyTool_InternalErrorIsToolError(t *testing.T) {
	tool := NewClassifyTool(stubClassifier{out: types.ClassificationOutcome{
		RequestID: "r-9",
		Kind:      types.OutcomeInternalError,
		Message:   "Internal error processing task",
		Error:     "secret detail",
	}}, zaptest.NewLogger(t))

	res, err := tool.Handle(context.Background(), makeReq(map[string]interface{}{"message": "x"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, resultText(res), "r-9")
	assert.NotContains(t, resultText(res), "secret detail")
}

func TestRatioTool(t *testing.T) {
	tool := NewRatioTool()

	res, err := tool.Handle(context.Background(), makeReq(map[string]interface{}{"a": "Fix login bug", "b": "fix login bug"}))
	require.NoError(t, err)
	assert.Equal(t, "1.0000", resultText(res))

	res, err = tool.Handle(context.Background(), makeReq(map[string]interface{}{"a": "Fix login bug!", "b": "Fix login bug"}))
	require.NoError(t, err)
	score, err := strconv.ParseFloat(resultText(res), 64)
	require.NoError(t, err)
	assert.Greater(t, score, 0.8)

	res, err = tool.Handle(context.Background(), makeReq(map[string]interface{}{"a": "only one"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestNew(t *testing.T) {
	s, err := New(stubClassifier{}, "test", zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.NotNil(t, s)

	_, err = New(nil, "test", nil)
	assert.Error(t, err)
}
