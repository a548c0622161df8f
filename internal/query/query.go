package query

import (
	"context"
	"sync"

	apierr "aqve/internal/errors"
)

// Fetcher loads the value for key. It must honor ctx cancellation.
type Fetcher[K comparable, T any] func(ctx context.Context, key K) (T, error)

type Options[K comparable, T any] struct {
	// Enabled gates automatic fetching for a key. Nil means always enabled.
	Enabled   func(key K) bool
	OnSuccess func(data T)
	OnError   func(err *apierr.APIError)
	// Context is the parent of every fetch context. Defaults to context.Background.
	Context context.Context
}

// Query is the read side: it fetches when activated and whenever its key
// changes, and only the newest fetch may commit.
type Query[K comparable, T any] struct {
	fetch Fetcher[K, T]
	opts  Options[K, T]
	subs  Broadcaster[State[T]]

	mu     sync.Mutex
	key    K
	active bool
	closed bool
	paused bool
	gen    uint64
	cancel context.CancelFunc
	idle   chan struct{}
	state  State[T]
}

func New[K comparable, T any](fetch Fetcher[K, T], opts Options[K, T]) *Query[K, T] {
	if opts.Context == nil {
		opts.Context = context.Background()
	}
	idle := make(chan struct{})
	close(idle)
	return &Query[K, T]{
		fetch: fetch,
		opts:  opts,
		idle:  idle,
	}
}

// Activate binds the query to key and fetches if enabled. It is the
// equivalent of mounting; later calls behave like SetKey.
func (q *Query[K, T]) Activate(key K) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	if q.active && q.key == key {
		q.mu.Unlock()
		return
	}
	q.active = true
	q.key = key
	q.supersedeLocked()
	run := q.triggerLocked()
	snap := q.state
	q.mu.Unlock()

	q.subs.Publish(snap)
	run()
}

// SetKey changes the dependency key. An equal key is a no-op; a different
// key supersedes any fetch in flight.
func (q *Query[K, T]) SetKey(key K) {
	q.Activate(key)
}

// Key returns the current key.
func (q *Query[K, T]) Key() K {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.key
}

// SetEnabled toggles automatic fetching. Disabling supersedes any fetch in
// flight; re-enabling an active query fetches again.
func (q *Query[K, T]) SetEnabled(enabled bool) {
	q.mu.Lock()
	if q.closed || q.paused == !enabled {
		q.mu.Unlock()
		return
	}
	q.paused = !enabled
	q.supersedeLocked()
	run := q.triggerLocked()
	snap := q.state
	q.mu.Unlock()

	q.subs.Publish(snap)
	run()
}

// Refetch re-runs the fetch for the current key.
func (q *Query[K, T]) Refetch() {
	q.mu.Lock()
	run := q.triggerLocked()
	snap := q.state
	q.mu.Unlock()

	q.subs.Publish(snap)
	run()
}

// Close tears the query down. Fetches still in flight are cancelled and
// their results discarded. A result whose delivery already began may still
// reach OnSuccess or OnError. Callbacks may call Close.
func (q *Query[K, T]) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	q.supersedeLocked()
	q.mu.Unlock()
	q.subs.Clear()
}

func (q *Query[K, T]) State() State[T] {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.state
}

func (q *Query[K, T]) Subscribe(fn func(State[T])) (unsubscribe func()) {
	return q.subs.Subscribe(fn)
}

// Wait blocks until no fetch is in flight and returns the state at that point.
func (q *Query[K, T]) Wait(ctx context.Context) (State[T], error) {
	for {
		q.mu.Lock()
		idle := q.idle
		q.mu.Unlock()

		select {
		case <-ctx.Done():
			return q.State(), ctx.Err()
		case <-idle:
		}

		q.mu.Lock()
		if q.idle == idle {
			s := q.state
			q.mu.Unlock()
			return s, nil
		}
		q.mu.Unlock()
	}
}

func (q *Query[K, T]) enabledLocked() bool {
	if q.paused {
		return false
	}
	if q.opts.Enabled == nil {
		return true
	}
	return q.opts.Enabled(q.key)
}

// supersedeLocked invalidates the fetch in flight, if any.
func (q *Query[K, T]) supersedeLocked() {
	q.gen++
	if q.cancel != nil {
		q.cancel()
		q.cancel = nil
	}
	if q.state.IsLoading {
		q.state.IsLoading = false
		close(q.idle)
	}
}

// triggerLocked starts a new generation and returns the function that
// launches it. The returned func is never nil.
func (q *Query[K, T]) triggerLocked() func() {
	if q.closed || !q.active || !q.enabledLocked() {
		return func() {}
	}
	q.supersedeLocked()
	gen := q.gen
	key := q.key
	ctx, cancel := context.WithCancel(q.opts.Context)
	q.cancel = cancel
	q.idle = make(chan struct{})
	q.state.IsLoading = true
	q.state.Err = nil

	return func() { go q.run(ctx, gen, key) }
}

func (q *Query[K, T]) run(ctx context.Context, gen uint64, key K) {
	data, err := q.fetch(ctx, key)

	q.mu.Lock()
	if q.closed || gen != q.gen {
		q.mu.Unlock()
		return
	}
	q.cancel()
	q.cancel = nil

	var apiErr *apierr.APIError
	if err != nil {
		apiErr = apierr.FromError(err)
		q.state = State[T]{Err: apiErr}
	} else {
		q.state = State[T]{Data: data, HasData: true}
	}
	close(q.idle)
	snap := q.state
	q.mu.Unlock()

	if apiErr != nil {
		if q.opts.OnError != nil {
			q.opts.OnError(apiErr)
		}
	} else if q.opts.OnSuccess != nil {
		q.opts.OnSuccess(data)
	}
	q.subs.Publish(snap)
}
