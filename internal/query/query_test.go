package query

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apierr "aqve/internal/errors"
)

// gatedFetcher blocks each fetch until the test releases its key.
type gatedFetcher struct {
	mu       sync.Mutex
	calls    []string
	canceled []string
	gates    map[string]chan error
}

func newGatedFetcher(keys ...string) *gatedFetcher {
	g := &gatedFetcher{gates: make(map[string]chan error)}
	for _, k := range keys {
		g.gates[k] = make(chan error, 1)
	}
	return g
}

func (g *gatedFetcher) fetch(ctx context.Context, key string) (string, error) {
	g.mu.Lock()
	g.calls = append(g.calls, key)
	gate := g.gates[key]
	g.mu.Unlock()

	select {
	case err := <-gate:
		if err != nil {
			return "", err
		}
		return "lots in " + key, nil
	case <-ctx.Done():
		g.mu.Lock()
		g.canceled = append(g.canceled, key)
		g.mu.Unlock()
		return "", ctx.Err()
	}
}

func (g *gatedFetcher) release(key string, err error) {
	g.gates[key] <- err
}

func (g *gatedFetcher) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.calls)
}

func waitSettled[K comparable, T any](t *testing.T, q *Query[K, T]) State[T] {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	s, err := q.Wait(ctx)
	require.NoError(t, err)
	return s
}

func TestQueryFetchesOnActivate(t *testing.T) {
	g := newGatedFetcher("Tbilisi")
	var successes atomic.Int32
	q := New(g.fetch, Options[string, string]{
		OnSuccess: func(string) { successes.Add(1) },
	})
	defer q.Close()

	assert.False(t, q.State().IsLoading)
	q.Activate("Tbilisi")
	assert.True(t, q.State().IsLoading)

	g.release("Tbilisi", nil)
	s := waitSettled(t, q)
	assert.False(t, s.IsLoading)
	assert.True(t, s.HasData)
	assert.Equal(t, "lots in Tbilisi", s.Data)
	assert.Nil(t, s.Err)
	assert.Eventually(t, func() bool { return successes.Load() == 1 }, time.Second, 5*time.Millisecond)
}

func TestQueryErrorIsNormalized(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantMsg  string
	}{
		{name: "plain error", err: errors.New("socket hang up"), wantCode: http.StatusInternalServerError, wantMsg: "socket hang up"},
		{name: "api error", err: apierr.New(http.StatusNotFound, "Parking lot not found"), wantCode: http.StatusNotFound, wantMsg: "Parking lot not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newGatedFetcher("p1")
			var got atomic.Pointer[apierr.APIError]
			q := New(g.fetch, Options[string, string]{
				OnError: func(err *apierr.APIError) { got.Store(err) },
			})
			defer q.Close()

			q.Activate("p1")
			g.release("p1", tt.err)
			s := waitSettled(t, q)

			require.NotNil(t, s.Err)
			assert.Equal(t, tt.wantCode, s.Err.Code)
			assert.Equal(t, tt.wantMsg, s.Err.Message)
			assert.False(t, s.HasData)
			assert.Eventually(t, func() bool { return got.Load() != nil }, time.Second, 5*time.Millisecond)
		})
	}
}

func TestQueryErrorClearsPreviousData(t *testing.T) {
	g := newGatedFetcher("p1")
	q := New(g.fetch, Options[string, string]{})
	defer q.Close()

	q.Activate("p1")
	g.release("p1", nil)
	require.True(t, waitSettled(t, q).HasData)

	q.Refetch()
	loading := q.State()
	assert.True(t, loading.IsLoading)
	assert.True(t, loading.HasData, "data stays visible while refetching")
	assert.Nil(t, loading.Err)

	g.release("p1", errors.New("offline"))
	s := waitSettled(t, q)
	assert.False(t, s.HasData)
	assert.Empty(t, s.Data)
	require.NotNil(t, s.Err)
}

func TestQueryDisabled(t *testing.T) {
	g := newGatedFetcher("")
	q := New(g.fetch, Options[string, string]{
		Enabled: func(id string) bool { return id != "" },
	})
	defer q.Close()

	q.Activate("")
	q.Refetch()
	assert.False(t, q.State().IsLoading)
	assert.Equal(t, 0, g.callCount())

	s := waitSettled(t, q)
	assert.False(t, s.HasData)
	assert.Nil(t, s.Err)
}

func TestQuerySetEnabled(t *testing.T) {
	g := newGatedFetcher("p1")
	q := New(g.fetch, Options[string, string]{})
	defer q.Close()

	q.SetEnabled(false)
	q.Activate("p1")
	assert.Equal(t, 0, g.callCount())
	assert.False(t, q.State().IsLoading)

	q.SetEnabled(true)
	assert.True(t, q.State().IsLoading)
	g.release("p1", nil)
	assert.Equal(t, "lots in p1", waitSettled(t, q).Data)
	assert.Equal(t, 1, g.callCount())
}

func TestQueryStaleResponseSuppressed(t *testing.T) {
	tests := []struct {
		name  string
		order []string
	}{
		{name: "stale resolves last", order: []string{"Batumi", "Tbilisi"}},
		{name: "stale resolves first", order: []string{"Tbilisi", "Batumi"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newGatedFetcher("Tbilisi", "Batumi")
			var mu sync.Mutex
			var committed []string
			q := New(g.fetch, Options[string, string]{
				OnSuccess: func(d string) {
					mu.Lock()
					committed = append(committed, d)
					mu.Unlock()
				},
			})
			defer q.Close()

			q.Activate("Tbilisi")
			q.SetKey("Batumi")
			for _, k := range tt.order {
				g.release(k, nil)
			}

			s := waitSettled(t, q)
			assert.Equal(t, "lots in Batumi", s.Data)
			assert.Eventually(t, func() bool {
				mu.Lock()
				defer mu.Unlock()
				return len(committed) == 1
			}, time.Second, 5*time.Millisecond)

			time.Sleep(20 * time.Millisecond)
			mu.Lock()
			assert.Equal(t, []string{"lots in Batumi"}, committed)
			mu.Unlock()
			assert.Equal(t, "lots in Batumi", q.State().Data)
		})
	}
}

func TestQuerySupersededFetchIsCanceled(t *testing.T) {
	g := newGatedFetcher("Tbilisi", "Batumi")
	q := New(g.fetch, Options[string, string]{})
	defer q.Close()

	q.Activate("Tbilisi")
	q.SetKey("Batumi")
	assert.Eventually(t, func() bool {
		g.mu.Lock()
		defer g.mu.Unlock()
		return len(g.canceled) == 1 && g.canceled[0] == "Tbilisi"
	}, time.Second, 5*time.Millisecond)

	g.release("Batumi", nil)
	assert.Equal(t, "lots in Batumi", waitSettled(t, q).Data)
}

func TestQuerySameKeyDoesNotRefetch(t *testing.T) {
	g := newGatedFetcher("p1")
	q := New(g.fetch, Options[string, string]{})
	defer q.Close()

	q.Activate("p1")
	q.SetKey("p1")
	g.release("p1", nil)
	waitSettled(t, q)
	assert.Equal(t, 1, g.callCount())
}

func TestQueryRefetch(t *testing.T) {
	var n atomic.Int32
	q := New(func(ctx context.Context, _ struct{}) (int32, error) {
		return n.Add(1), nil
	}, Options[struct{}, int32]{})
	defer q.Close()

	q.Activate(struct{}{})
	assert.Equal(t, int32(1), waitSettled(t, q).Data)

	q.Refetch()
	assert.Equal(t, int32(2), waitSettled(t, q).Data)
}

func TestQueryCloseDiscardsInFlight(t *testing.T) {
	g := newGatedFetcher("p1")
	var callbacks atomic.Int32
	q := New(g.fetch, Options[string, string]{
		OnSuccess: func(string) { callbacks.Add(1) },
		OnError:   func(*apierr.APIError) { callbacks.Add(1) },
	})
	var published atomic.Int32
	q.Subscribe(func(State[string]) { published.Add(1) })

	q.Activate("p1")
	before := published.Load()
	q.Close()
	g.release("p1", nil)

	s := waitSettled(t, q)
	assert.False(t, s.HasData)
	assert.False(t, s.IsLoading)

	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int32(0), callbacks.Load())
	assert.Equal(t, before, published.Load())

	q.Refetch()
	q.SetKey("p2")
	assert.False(t, q.State().IsLoading)
}

func TestQueryCloseFromCallback(t *testing.T) {
	var n atomic.Int32
	var q *Query[string, int32]
	var successes atomic.Int32
	q = New(func(ctx context.Context, _ string) (int32, error) {
		return n.Add(1), nil
	}, Options[string, int32]{
		OnSuccess: func(int32) {
			successes.Add(1)
			q.Close()
		},
	})
	var published atomic.Int32
	q.Subscribe(func(State[int32]) { published.Add(1) })

	q.Activate("p1")
	assert.Eventually(t, func() bool { return successes.Load() == 1 }, time.Second, 5*time.Millisecond)
	before := published.Load()

	q.Refetch()
	q.SetKey("p2")
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int32(1), n.Load())
	assert.Equal(t, int32(1), successes.Load())
	assert.Equal(t, before, published.Load())
	assert.Equal(t, "p1", q.Key())
}

func TestQuerySubscribe(t *testing.T) {
	g := newGatedFetcher("p1")
	q := New(g.fetch, Options[string, string]{})
	defer q.Close()

	var mu sync.Mutex
	var states []State[string]
	unsubscribe := q.Subscribe(func(s State[string]) {
		mu.Lock()
		states = append(states, s)
		mu.Unlock()
	})

	q.Activate("p1")
	g.release("p1", nil)
	waitSettled(t, q)

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(states) == 2
	}, time.Second, 5*time.Millisecond)

	mu.Lock()
	assert.True(t, states[0].IsLoading)
	assert.True(t, states[1].Settled())
	mu.Unlock()

	unsubscribe()
	q.Refetch()
	time.Sleep(10 * time.Millisecond)
	mu.Lock()
	assert.Len(t, states, 2)
	mu.Unlock()
}

func TestQueryWaitHonorsContext(t *testing.T) {
	g := newGatedFetcher("p1")
	q := New(g.fetch, Options[string, string]{})
	defer q.Close()

	q.Activate("p1")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	s, err := q.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.True(t, s.IsLoading)
}
