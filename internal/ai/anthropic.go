package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// DefaultAnthropicModel is cheap and fast enough for one-line classification replies.
const DefaultAnthropicModel = "claude-3-5-haiku-20241022"

// AnthropicGenerator calls the Anthropic Messages API.
type AnthropicGenerator struct {
	client    *anthropic.Client
	model     string
	maxTokens int64
}

// NewAnthropicGenerator creates a generator backed by the Anthropic API
func NewAnthropicGenerator(apiKey, model string, opts ...option.RequestOption) (*AnthropicGenerator, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("ANTHROPIC_API_KEY not set")
	}
	if model == "" {
		model = DefaultAnthropicModel
	}
	client := anthropic.NewClient(append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)...)
	return &AnthropicGenerator{
		client:    &client,
		model:     model,
		maxTokens: 512,
	}, nil
}

// GenerateText sends prompt as a single user message and concatenates the text blocks of the reply.
func (g *AnthropicGenerator) GenerateText(ctx context.Context, prompt string) (string, error) {
	response, err := g.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(g.model),
		MaxTokens: g.maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("anthropic API call failed: %w", err)
	}

	var sb strings.Builder
	for _, block := range response.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	return strings.TrimSpace(sb.String()), nil
}

// Name returns the generator name.
func (g *AnthropicGenerator) Name() string {
	return "anthropic:" + g.model
}
