package query

import (
	"sync"

	apierr "aqve/internal/errors"
)

// State is the observable state of a Query or Mutation. Once settled, either
// HasData is set or Err is non-nil, never both.
type State[T any] struct {
	Data      T
	HasData   bool
	IsLoading bool
	Err       *apierr.APIError
}

// Settled reports a terminal state with no request in flight.
func (s State[T]) Settled() bool {
	return !s.IsLoading && (s.HasData || s.Err != nil)
}

// Broadcaster fans state snapshots out to subscribers. The zero value is ready to use.
type Broadcaster[S any] struct {
	mu   sync.Mutex
	next int
	subs map[int]func(S)
}

// Subscribe registers fn and returns a function that removes it.
func (b *Broadcaster[S]) Subscribe(fn func(S)) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.subs == nil {
		b.subs = make(map[int]func(S))
	}
	id := b.next
	b.next++
	b.subs[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
		})
	}
}

// Publish calls every subscriber with s. It must not be called with the
// owner's lock held.
func (b *Broadcaster[S]) Publish(s S) {
	b.mu.Lock()
	fns := make([]func(S), 0, len(b.subs))
	for _, fn := range b.subs {
		fns = append(fns, fn)
	}
	b.mu.Unlock()

	for _, fn := range fns {
		fn(s)
	}
}

// Clear drops every subscriber.
func (b *Broadcaster[S]) Clear() {
	b.mu.Lock()
	b.subs = nil
	b.mu.Unlock()
}
