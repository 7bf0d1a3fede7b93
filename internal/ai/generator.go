// Package ai wraps the text-generation service the bridge consults for
// duplicate detection, story routing, descriptions and priorities.
//
// Nothing the service returns is trusted as an identifier: every reply is
// checked against the candidates it was asked to choose from (see replies.go),
// and callers fall back to deterministic behavior when a call fails.
package ai

import (
	"context"
)

// Generator sends a prompt to a text-generation backend and returns the
// trimmed reply. Implementations must honor ctx cancellation.
type Generator interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

// GeneratorFunc adapts a function to the Generator interface.
type GeneratorFunc func(ctx context.Context, prompt string) (string, error)

// GenerateText calls f.
func (f GeneratorFunc) GenerateText(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// Operation names passed through WithOperation.
const (
	OpDuplicateCheck = "duplicate-check"
	OpStoryMatch     = "story-match"
	OpDescribe       = "describe"
	OpPriority       = "priority"
)

type operationKey struct{}

// WithOperation tags ctx with a short operation name ("duplicate-check",
// "describe", ...) used in logs and GenerationError values.
func WithOperation(ctx context.Context, op string) context.Context {
	return context.WithValue(ctx, operationKey{}, op)
}

// OperationFrom returns the operation name stored by WithOperation, or "generate".
func OperationFrom(ctx context.Context) string {
	if op, ok := ctx.Value(operationKey{}).(string); ok && op != "" {
		return op
	}
	return "generate"
}
