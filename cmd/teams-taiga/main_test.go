package main

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/UllasZ/teams-taiga-integration/internal/ai"
	"github.com/UllasZ/teams-taiga-integration/internal/config"
	"github.com/UllasZ/teams-taiga-integration/internal/types"
)

func TestExitCode(t *testing.T) {
	assert.Equal(t, 2, exitCode(errExitCode(2)))
	assert.Equal(t, 2, exitCode(fmt.Errorf("wrapped: %w", errExitCode(2))))
	assert.Equal(t, 1, exitCode(errors.New("boom")))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "OK", truncate("  OK \n", 10))
	assert.Equal(t, "héll...", truncate("héllo world", 4))
}

func TestOpenClassifierDryRun(t *testing.T) {
	logger = zaptest.NewLogger(t)
	cfg = config.Default()
	cfg.AI.Provider = ai.ProviderNone
	dryRun = true
	t.Cleanup(func() { dryRun = false })

	classifier, name, err := openClassifier(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "memory", name)

	out := classifier.Classify(context.Background(), "Add OAuth support")
	assert.Equal(t, types.OutcomeNewStory, out.Kind)
}

func TestOpenBackendRequiresTaigaSettings(t *testing.T) {
	logger = zaptest.NewLogger(t)
	cfg = config.Default()
	dryRun = false

	_, _, err := openBackend()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--dry-run")
}
