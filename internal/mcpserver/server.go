// Package mcpserver exposes the classification pipeline as MCP tools so
// assistants can file chat messages the same way the webhook does.
package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/UllasZ/teams-taiga-integration/internal/types"
)

// Name is the MCP server name reported during initialization.
const Name = "teams-taiga"

// Classifier is the pipeline surface the tools need.
type Classifier interface {
	Classify(ctx context.Context, message string) types.ClassificationOutcome
}

// New builds an MCP server with every tool registered.
func New(classifier Classifier, version string, logger *zap.Logger) (*server.MCPServer, error) {
	if classifier == nil {
		return nil, fmt.Errorf("classifier cannot be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	s := server.NewMCPServer(
		Name,
		version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(instructions),
	)

	classify := NewClassifyTool(classifier, logger)
	s.AddTool(classify.Definition(), classify.Handle)

	ratio := NewRatioTool()
	s.AddTool(ratio.Definition(), ratio.Handle)

	return s, nil
}

// ServeStdio serves s over stdin/stdout until the client disconnects.
func ServeStdio(s *server.MCPServer) error {
	return server.ServeStdio(s)
}

const instructions = `Use classify_message to file a chat message in Taiga. ` +
	`It skips duplicates, routes related messages under an existing user story as sub-tasks, ` +
	`and creates a new user story otherwise. Use similarity_ratio to see how close two titles are.`
