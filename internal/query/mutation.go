package query

import (
	"context"
	"sync"

	apierr "aqve/internal/errors"
)

type MutationOptions[V, T any] struct {
	OnSuccess func(data T, vars V)
	OnError   func(err *apierr.APIError, vars V)
}

// Mutation is the write side: it runs only when Mutate is called. When calls
// overlap, only the latest one commits state; every call still gets its own
// result and callbacks.
type Mutation[V, T any] struct {
	fn   func(ctx context.Context, vars V) (T, error)
	opts MutationOptions[V, T]
	subs Broadcaster[State[T]]

	mu    sync.Mutex
	gen   uint64 // bumped by Reset
	seq   uint64 // bumped by every Mutate
	state State[T]
}

func NewMutation[V, T any](fn func(ctx context.Context, vars V) (T, error), opts MutationOptions[V, T]) *Mutation[V, T] {
	return &Mutation[V, T]{fn: fn, opts: opts}
}

// Mutate runs the mutation and blocks until it settles. The error, when
// non-nil, is always an *errors.APIError.
func (m *Mutation[V, T]) Mutate(ctx context.Context, vars V) (T, error) {
	m.mu.Lock()
	m.seq++
	seq, gen := m.seq, m.gen
	m.state.IsLoading = true
	m.state.Err = nil
	snap := m.state
	m.mu.Unlock()
	m.subs.Publish(snap)

	data, err := m.fn(ctx, vars)
	var apiErr *apierr.APIError
	if err != nil {
		apiErr = apierr.FromError(err)
	}

	m.mu.Lock()
	committed := gen == m.gen && seq == m.seq
	if committed {
		if apiErr != nil {
			m.state = State[T]{Err: apiErr}
		} else {
			m.state = State[T]{Data: data, HasData: true}
		}
		snap = m.state
	}
	m.mu.Unlock()

	if apiErr != nil {
		if m.opts.OnError != nil {
			m.opts.OnError(apiErr, vars)
		}
	} else if m.opts.OnSuccess != nil {
		m.opts.OnSuccess(data, vars)
	}
	if committed {
		m.subs.Publish(snap)
	}

	if apiErr != nil {
		var zero T
		return zero, apiErr
	}
	return data, nil
}

// Reset returns the state to its initial value. Calls still in flight keep
// their results and callbacks but no longer touch the state.
func (m *Mutation[V, T]) Reset() {
	m.mu.Lock()
	m.gen++
	m.state = State[T]{}
	snap := m.state
	m.mu.Unlock()
	m.subs.Publish(snap)
}

func (m *Mutation[V, T]) State() State[T] {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *Mutation[V, T]) IsLoading() bool {
	return m.State().IsLoading
}

func (m *Mutation[V, T]) Subscribe(fn func(State[T])) (unsubscribe func()) {
	return m.subs.Subscribe(fn)
}
