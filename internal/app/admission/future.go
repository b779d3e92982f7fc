// Package admission provides non-blocking connect attempts for queued players.
package admission

import (
	"context"
	"sync"
)

// Outcome is the result of a connect attempt.
type Outcome struct {
	Connected bool
	Err       error
}

// Succeeded returns a successful outcome.
func Succeeded() Outcome {
	return Outcome{Connected: true}
}

// Failed returns a failed outcome.
func Failed(err error) Outcome {
	return Outcome{Connected: false, Err: err}
}

// Future is the pending result of a connect attempt.
// It is resolved exactly once; later Resolve calls are ignored.
type Future struct {
	mu        sync.Mutex
	done      chan struct{}
	resolved  bool
	outcome   Outcome
	callbacks []func(Outcome)
}

// NewFuture creates an unresolved future.
func NewFuture() *Future {
	return &Future{
		done: make(chan struct{}),
	}
}

// Resolved creates a future that is already resolved with o.
func Resolved(o Outcome) *Future {
	f := NewFuture()
	f.Resolve(o)
	return f
}

// Resolve sets the outcome and runs registered continuations.
// Returns false if the future was already resolved.
func (f *Future) Resolve(o Outcome) bool {
	f.mu.Lock()
	if f.resolved {
		f.mu.Unlock()
		return false
	}
	f.resolved = true
	f.outcome = o
	callbacks := f.callbacks
	f.callbacks = nil
	close(f.done)
	f.mu.Unlock()

	for _, cb := range callbacks {
		go cb(o)
	}
	return true
}

// OnComplete registers a continuation. It always runs on its own goroutine,
// immediately if the future is already resolved.
func (f *Future) OnComplete(fn func(Outcome)) {
	f.mu.Lock()
	if f.resolved {
		o := f.outcome
		f.mu.Unlock()
		go fn(o)
		return
	}
	f.callbacks = append(f.callbacks, fn)
	f.mu.Unlock()
}

// Done returns a channel closed when the future is resolved.
func (f *Future) Done() <-chan struct{} {
	return f.done
}

// Outcome returns the outcome and whether the future is resolved.
func (f *Future) Outcome() (Outcome, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.outcome, f.resolved
}

// Wait blocks until the future is resolved or ctx is done.
func (f *Future) Wait(ctx context.Context) (Outcome, error) {
	select {
	case <-f.done:
		o, _ := f.Outcome()
		return o, nil
	case <-ctx.Done():
		return Outcome{}, ctx.Err()
	}
}
