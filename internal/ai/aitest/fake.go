// Package aitest provides a scripted ai.Generator for tests.
package aitest

import (
	"context"
	"errors"
	"sync"

	"github.com/UllasZ/teams-taiga-integration/internal/ai"
)

// ErrUnscripted is returned for operations with no scripted reply.
var ErrUnscripted = errors.New("aitest: no reply scripted for operation")

// Reply is one scripted response.
type Reply struct {
	Text string
	Err  error
}

// Call records one GenerateText invocation.
type Call struct {
	Operation string
	Prompt    string
}

// Fake replays scripted replies per operation name (see ai.WithOperation).
// Replies for an operation are consumed in order; the last one repeats.
type Fake struct {
	mu      sync.Mutex
	replies map[string][]Reply
	calls   []Call
}

var _ ai.Generator = (*Fake)(nil)

// New returns a Fake with nothing scripted, so every call fails.
func New() *Fake {
	return &Fake{replies: make(map[string][]Reply)}
}

// On queues a successful reply for op.
func (f *Fake) On(op, text string) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.replies[op] = append(f.replies[op], Reply{Text: text})
	return f
}

// Fail queues a failing reply for op.
func (f *Fake) Fail(op string, err error) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.replies[op] = append(f.replies[op], Reply{Err: err})
	return f
}

// GenerateText implements ai.Generator.
func (f *Fake) GenerateText(ctx context.Context, prompt string) (string, error) {
	op := ai.OperationFrom(ctx)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, Call{Operation: op, Prompt: prompt})

	if err := ctx.Err(); err != nil {
		return "", err
	}
	queue := f.replies[op]
	if len(queue) == 0 {
		return "", ErrUnscripted
	}
	r := queue[0]
	if len(queue) > 1 {
		f.replies[op] = queue[1:]
	}
	return r.Text, r.Err
}

// Calls returns a copy of every recorded call.
func (f *Fake) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Call(nil), f.calls...)
}

// CallsFor counts calls made for op.
func (f *Fake) CallsFor(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c.Operation == op {
			n++
		}
	}
	return n
}
