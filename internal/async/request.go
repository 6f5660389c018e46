// Package async holds the request lifecycle shared by every console page:
// a tagged request state bound to a cancellation scope, and transient
// messages that clear themselves.
package async

import (
	"context"
	"fmt"
	"sync"
)

type Status int

const (
	Idle Status = iota
	Pending
	Resolved
	Failed
)

func (s Status) String() string {
	switch s {
	case Pending:
		return "pending"
	case Resolved:
		return "resolved"
	case Failed:
		return "failed"
	default:
		return "idle"
	}
}

func (s Status) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *Status) UnmarshalText(b []byte) error {
	switch string(b) {
	case "idle":
		*s = Idle
	case "pending":
		*s = Pending
	case "resolved":
		*s = Resolved
	case "failed":
		*s = Failed
	default:
		return fmt.Errorf("unknown request status %q", b)
	}
	return nil
}

// State is Value when Resolved and Err when Failed; both are zero otherwise.
type State[T any] struct {
	Status Status
	Value  T
	Err    error
}

// Request tracks one operation. A new Run supersedes the previous one: the
// older call is cancelled and its result is dropped.
type Request[T any] struct {
	scope  *Scope
	notify func()

	mu     sync.Mutex
	state  State[T]
	gen    uint64
	cancel context.CancelFunc
}

// NewRequest binds a request to scope. notify may be nil; it is called
// after every visible state change.
func NewRequest[T any](scope *Scope, notify func()) *Request[T] {
	if notify == nil {
		notify = func() {}
	}
	return &Request[T]{scope: scope, notify: notify}
}

func (r *Request[T]) State() State[T] {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

func (r *Request[T]) Pending() bool {
	return r.State().Status == Pending
}

// Run starts fn in the request scope. onSettle, if set, runs after the new
// state is stored and before notify, only for results that are kept. The
// returned channel closes once the call is over, kept or not.
func (r *Request[T]) Run(fn func(context.Context) (T, error), onSettle func(State[T])) <-chan struct{} {
	done := make(chan struct{})
	if r.scope.Closed() {
		close(done)
		return done
	}

	ctx, cancel := context.WithCancel(r.scope.Context())
	r.mu.Lock()
	if r.cancel != nil {
		r.cancel()
	}
	r.gen++
	gen := r.gen
	r.cancel = cancel
	r.state = State[T]{Status: Pending}
	r.mu.Unlock()
	r.notify()

	started := r.scope.Go(func() {
		defer close(done)
		defer cancel()
		v, err := fn(ctx)
		r.settle(gen, v, err, onSettle)
	})
	if !started {
		cancel()
		close(done)
	}
	return done
}

func (r *Request[T]) settle(gen uint64, v T, err error, onSettle func(State[T])) {
	r.mu.Lock()
	if gen != r.gen || r.scope.Closed() {
		r.mu.Unlock()
		return
	}
	if err != nil {
		r.state = State[T]{Status: Failed, Err: err}
	} else {
		r.state = State[T]{Status: Resolved, Value: v}
	}
	r.cancel = nil
	st := r.state
	r.mu.Unlock()

	if onSettle != nil {
		onSettle(st)
	}
	r.notify()
}

// Reset cancels any in-flight call and returns to Idle.
func (r *Request[T]) Reset() {
	r.mu.Lock()
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
	r.gen++
	r.state = State[T]{}
	r.mu.Unlock()
	r.notify()
}
