package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"

	"github.com/UllasZ/teams-taiga-integration/internal/similarity"
	"github.com/UllasZ/teams-taiga-integration/internal/types"
)

// ClassifyTool handles the classify_message MCP tool.
type ClassifyTool struct {
	classifier Classifier
	logger     *zap.Logger
}

// NewClassifyTool creates a ClassifyTool.
func NewClassifyTool(classifier Classifier, logger *zap.Logger) *ClassifyTool {
	return &ClassifyTool{classifier: classifier, logger: logger}
}

// Definition returns the MCP tool definition for classify_message.
func (t *ClassifyTool) Definition() mcp.Tool {
	return mcp.NewTool("classify_message",
		mcp.WithDescription(
			"Classify a chat message against the Taiga project and file it if it is new. "+
				"Returns the outcome kind, a human-readable message and any story or sub-task created.",
		),
		mcp.WithString("message",
			mcp.Required(),
			mcp.Description("The raw chat message text"),
		),
	)
}

// Handle processes the classify_message tool call.
func (t *ClassifyTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	message := req.GetString("message", "")
	out := t.classifier.Classify(ctx, message)
	if out.Kind == types.OutcomeInternalError {
		return mcp.NewToolResultError(fmt.Sprintf("%s (request %s)", out.Message, out.RequestID)), nil
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode outcome: %v", err)), nil
	}
	t.logger.Debug("classified via mcp", zap.String("kind", string(out.Kind)))
	return mcp.NewToolResultText(string(data)), nil
}

// RatioTool handles the similarity_ratio MCP tool.
type RatioTool struct{}

// NewRatioTool creates a RatioTool.
func NewRatioTool() *RatioTool {
	return &RatioTool{}
}

// Definition returns the MCP tool definition for similarity_ratio.
func (t *RatioTool) Definition() mcp.Tool {
	return mcp.NewTool("similarity_ratio",
		mcp.WithDescription("Score two titles with the duplicate-detection ratio (0 to 1, case-insensitive)."),
		mcp.WithString("a", mcp.Required(), mcp.Description("First title")),
		mcp.WithString("b", mcp.Required(), mcp.Description("Second title")),
	)
}

// Handle processes the similarity_ratio tool call.
func (t *RatioTool) Handle(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	a := strings.TrimSpace(req.GetString("a", ""))
	b := strings.TrimSpace(req.GetString("b", ""))
	if a == "" || b == "" {
		return mcp.NewToolResultError("'a' and 'b' are required"), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("%.4f", similarity.Ratio(a, b))), nil
}
