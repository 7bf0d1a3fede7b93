package main

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/UllasZ/teams-taiga-integration/internal/ai"
	"github.com/UllasZ/teams-taiga-integration/internal/pipeline"
	"github.com/UllasZ/teams-taiga-integration/internal/storage"
	"github.com/UllasZ/teams-taiga-integration/internal/storage/memory"
	"github.com/UllasZ/teams-taiga-integration/internal/taiga"
)

// openBackend returns the Taiga client, or the memory backend under --dry-run.
func openBackend() (storage.Backend, string, error) {
	if dryRun {
		return memory.New(memory.DefaultConfig()), "memory", nil
	}
	if err := cfg.RequireTaiga(); err != nil {
		return nil, "", fmt.Errorf("%w (or use --dry-run)", err)
	}
	tc := cfg.TaigaClientConfig()
	tc.Logger = logger.Named("taiga")
	client, err := taiga.NewClient(tc)
	if err != nil {
		return nil, "", err
	}
	return client, "taiga " + cfg.Taiga.ProjectSlug, nil
}

// openGenerator returns the supervised generator, or nil when generation
// is disabled.
func openGenerator(ctx context.Context) (*ai.Supervisor, error) {
	gen, err := ai.NewGenerator(ctx, cfg.Provider())
	if err != nil {
		return nil, fmt.Errorf("creating %s generator: %w", cfg.AI.Provider, err)
	}
	sup, err := ai.NewSupervisor(gen, cfg.SupervisorConfig(), logger.Named("ai"))
	if err != nil {
		return nil, err
	}
	return sup, nil
}

// openClassifier wires the whole pipeline.
func openClassifier(ctx context.Context) (*pipeline.Classifier, string, error) {
	backend, name, err := openBackend()
	if err != nil {
		return nil, "", err
	}

	var gen ai.Generator
	if cfg.AI.Provider != ai.ProviderNone {
		sup, err := openGenerator(ctx)
		if err != nil {
			return nil, "", err
		}
		gen = sup
	}

	classifier, err := pipeline.NewDefault(backend, gen, cfg.Dedup, logger)
	if err != nil {
		return nil, "", err
	}
	logger.Info("pipeline ready",
		zap.String("backend", name),
		zap.String("ai_provider", cfg.Provider().Provider),
		zap.Stringer("dedup", cfg.Dedup))
	return classifier, name, nil
}

// errExitCode carries a process exit status out of a command.
type errExitCode int

func (e errExitCode) Error() string { return fmt.Sprintf("exit status %d", int(e)) }

func exitCode(err error) int {
	var code errExitCode
	if errors.As(err, &code) {
		return int(code)
	}
	return 1
}
