package ai

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ErrBackendUnavailable is returned while the breaker is refusing calls.
var ErrBackendUnavailable = errors.New("generation backend unavailable")

// BreakerState is the admission mode of a Breaker.
type BreakerState string

const (
	BreakerClosed  BreakerState = "closed"
	BreakerOpen    BreakerState = "open"
	BreakerTesting BreakerState = "testing"
)

// Breaker stops calls to a generation backend after a run of consecutive
// failures. Once the cool-down has passed it lets a single trial call through
// at a time; enough trial successes in a row close it again and any trial
// failure restarts the cool-down.
type Breaker struct {
	mu sync.Mutex

	state            BreakerState
	failures         int
	trialSuccesses   int
	trialOutstanding bool
	openedAt         time.Time

	failureThreshold int
	trialsToClose    int
	coolDown         time.Duration
	now              func() time.Time
	logger           *zap.Logger
}

// NewBreaker returns a closed breaker.
func NewBreaker(failureThreshold, trialsToClose int, coolDown time.Duration, logger *zap.Logger) *Breaker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Breaker{
		state:            BreakerClosed,
		failureThreshold: failureThreshold,
		trialsToClose:    trialsToClose,
		coolDown:         coolDown,
		now:              time.Now,
		logger:           logger,
	}
}

// Ticket is one admitted call. Its owner must call Done exactly once.
type Ticket struct {
	breaker *Breaker
	trial   bool
	done    bool
}

// Admit reserves a call against the backend, or returns ErrBackendUnavailable.
func (b *Breaker) Admit() (*Ticket, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == BreakerOpen {
		if b.now().Sub(b.openedAt) < b.coolDown {
			return nil, ErrBackendUnavailable
		}
		b.state = BreakerTesting
		b.trialSuccesses = 0
		b.logger.Info("cool-down elapsed, admitting trial calls")
	}

	if b.state == BreakerTesting {
		if b.trialOutstanding {
			return nil, ErrBackendUnavailable
		}
		b.trialOutstanding = true
		return &Ticket{breaker: b, trial: true}, nil
	}
	return &Ticket{breaker: b}, nil
}

// Done reports how the admitted call ended. A nil err is a success. An error
// that arrives after callerCtx is done means the caller gave up, so it is not
// held against the backend; it only frees the trial slot. Extra calls are
// ignored.
func (t *Ticket) Done(callerCtx context.Context, err error) {
	if t == nil || t.done {
		return
	}
	t.done = true

	b := t.breaker
	b.mu.Lock()
	defer b.mu.Unlock()

	if t.trial {
		b.trialOutstanding = false
	}
	if err != nil && callerCtx != nil && callerCtx.Err() != nil {
		return
	}

	switch b.state {
	case BreakerClosed:
		if err == nil {
			b.failures = 0
			return
		}
		b.failures++
		if b.failures >= b.failureThreshold {
			b.open()
		}
	case BreakerTesting:
		// calls admitted before the breaker opened carry no signal here
		if !t.trial {
			return
		}
		if err != nil {
			b.open()
			return
		}
		b.trialSuccesses++
		if b.trialSuccesses >= b.trialsToClose {
			b.state = BreakerClosed
			b.failures = 0
			b.trialSuccesses = 0
			b.logger.Info("backend recovered, breaker closed")
		}
	}
}

func (b *Breaker) open() {
	b.state = BreakerOpen
	b.openedAt = b.now()
	b.trialSuccesses = 0
	b.logger.Warn("breaker opened",
		zap.Int("consecutive_failures", b.failures),
		zap.Duration("cool_down", b.coolDown))
}

// BreakerStatus is a point-in-time view of a Breaker.
type BreakerStatus struct {
	State    BreakerState
	Failures int
	RetryAt  time.Time // zero unless State is BreakerOpen
}

// Status reports the current state.
func (b *Breaker) Status() BreakerStatus {
	b.mu.Lock()
	defer b.mu.Unlock()

	status := BreakerStatus{State: b.state, Failures: b.failures}
	if b.state == BreakerOpen {
		status.RetryAt = b.openedAt.Add(b.coolDown)
	}
	return status
}
