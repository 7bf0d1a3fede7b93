package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/UllasZ/teams-taiga-integration/internal/types"
)

// Config holds supervisor configuration
type Config struct {
	Timeout time.Duration // Per-call deadline (default: 15s)

	// Concurrency limiting
	MaxConcurrentCalls int // Max concurrent generation calls (default: 3, 0 = unlimited)

	// Breaker configuration
	BreakerEnabled   bool          // Enable the breaker (default: true)
	FailureThreshold int           // Consecutive failures before opening (default: 5)
	TrialsToClose    int           // Trial successes needed to close again (default: 2)
	CoolDown         time.Duration // Time open before trial calls are admitted (default: 30s)
}

// DefaultConfig returns sensible defaults for supervising a generation backend
func DefaultConfig() Config {
	return Config{
		Timeout:            15 * time.Second,
		MaxConcurrentCalls: 3,
		BreakerEnabled:     true,
		FailureThreshold:   5,
		TrialsToClose:      2,
		CoolDown:           30 * time.Second,
	}
}

// Supervisor guards a Generator with a per-call timeout, a concurrency cap
// and a Breaker. It never retries: a failed call is reported once as
// a *types.GenerationError and the caller falls back.
type Supervisor struct {
	gen            Generator
	cfg            Config
	breaker        *Breaker
	concurrencySem *semaphore.Weighted
	logger         *zap.Logger
}

var _ Generator = (*Supervisor)(nil)

// NewSupervisor creates a new supervisor around gen
func NewSupervisor(gen Generator, cfg Config, logger *zap.Logger) (*Supervisor, error) {
	if gen == nil {
		return nil, fmt.Errorf("generator is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultConfig().Timeout
	}

	var breaker *Breaker
	if cfg.BreakerEnabled {
		if cfg.FailureThreshold < 1 || cfg.TrialsToClose < 1 {
			return nil, fmt.Errorf("breaker thresholds must be positive (failures=%d, trials=%d)",
				cfg.FailureThreshold, cfg.TrialsToClose)
		}
		breaker = NewBreaker(cfg.FailureThreshold, cfg.TrialsToClose, cfg.CoolDown, logger.Named("breaker"))
		logger.Debug("breaker initialized",
			zap.Int("failure_threshold", cfg.FailureThreshold),
			zap.Int("trials_to_close", cfg.TrialsToClose),
			zap.Duration("cool_down", cfg.CoolDown))
	}

	var concurrencySem *semaphore.Weighted
	if cfg.MaxConcurrentCalls > 0 {
		concurrencySem = semaphore.NewWeighted(int64(cfg.MaxConcurrentCalls))
	}

	return &Supervisor{
		gen:            gen,
		cfg:            cfg,
		breaker:        breaker,
		concurrencySem: concurrencySem,
		logger:         logger,
	}, nil
}

// HealthCheck returns an error while the breaker is open
func (s *Supervisor) HealthCheck(ctx context.Context) error {
	if s.breaker == nil {
		return nil
	}
	status := s.breaker.Status()
	if status.State == BreakerOpen {
		return fmt.Errorf("%w (failures=%d, retry at %s)",
			ErrBackendUnavailable, status.Failures, status.RetryAt.Format(time.RFC3339))
	}
	return nil
}

// GenerateText makes one supervised call to the wrapped generator.
func (s *Supervisor) GenerateText(ctx context.Context, prompt string) (string, error) {
	op := OperationFrom(ctx)

	var ticket *Ticket
	if s.breaker != nil {
		var err error
		if ticket, err = s.breaker.Admit(); err != nil {
			s.logger.Debug("generation skipped", zap.String("operation", op), zap.Error(err))
			return "", &types.GenerationError{Operation: op, Err: err}
		}
	}

	if s.concurrencySem != nil {
		if err := s.concurrencySem.Acquire(ctx, 1); err != nil {
			ticket.Done(ctx, err)
			return "", &types.GenerationError{Operation: op, Err: fmt.Errorf("acquiring generation slot: %w", err)}
		}
		defer s.concurrencySem.Release(1)
	}

	callCtx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	start := time.Now()
	reply, err := s.gen.GenerateText(callCtx, prompt)
	elapsed := time.Since(start)
	ticket.Done(ctx, err)
	if err != nil {
		s.logger.Warn("generation failed",
			zap.String("operation", op),
			zap.Duration("elapsed", elapsed),
			zap.Error(err))
		return "", &types.GenerationError{Operation: op, Err: err}
	}
	reply = strings.TrimSpace(reply)
	s.logger.Debug("generation complete",
		zap.String("operation", op),
		zap.Duration("elapsed", elapsed),
		zap.String("reply", truncateString(reply, 200)))
	return reply, nil
}
