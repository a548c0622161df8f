package session

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aqve/internal/client"
	"aqve/internal/entities"
	apierr "aqve/internal/errors"
	"aqve/internal/repository"
)

// fakeBackend serves the /auth routes the manager uses.
type fakeBackend struct {
	mu           sync.Mutex
	valid        map[string]entities.User
	meCalls      int
	logoutCalls  int
	logoutAuth   string
	logoutStatus int
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{valid: map[string]entities.User{}}
}

func (b *fakeBackend) grant(token string, user entities.User) {
	b.mu.Lock()
	b.valid[token] = user
	b.mu.Unlock()
}

func (b *fakeBackend) revoke(token string) {
	b.mu.Lock()
	delete(b.valid, token)
	b.mu.Unlock()
}

func (b *fakeBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()

	writeJSON := func(status int, v any) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(v)
	}
	bearer := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")

	switch r.Method + " " + r.URL.Path {
	case "POST /api/auth/login":
		var req entities.LoginRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.Email != "a@b.com" || req.Password != "secret123" {
			writeJSON(http.StatusUnauthorized, map[string]string{"message": "Invalid credentials"})
			return
		}
		user := entities.User{ID: "u1", Email: req.Email, FirstName: "Nino"}
		b.valid["t1"] = user
		writeJSON(http.StatusOK, entities.AuthResponse{Token: "t1", User: user})
	case "POST /api/auth/register":
		var req entities.RegisterRequest
		json.NewDecoder(r.Body).Decode(&req)
		user := entities.User{ID: "u2", Email: req.Email, FirstName: req.FirstName, LastName: req.LastName}
		b.valid["t-reg"] = user
		writeJSON(http.StatusCreated, entities.AuthResponse{Token: "t-reg", User: user})
	case "GET /api/auth/me":
		b.meCalls++
		user, ok := b.valid[bearer]
		if !ok {
			writeJSON(http.StatusUnauthorized, map[string]string{"message": "Invalid token"})
			return
		}
		writeJSON(http.StatusOK, user)
	case "POST /api/auth/logout":
		b.logoutCalls++
		b.logoutAuth = r.Header.Get("Authorization")
		if b.logoutStatus != 0 {
			w.WriteHeader(b.logoutStatus)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		http.NotFound(w, r)
	}
}

func (b *fakeBackend) counts() (me, logout int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.meCalls, b.logoutCalls
}

func newTestManager(t *testing.T, store repository.TokenRepository) (*Manager, *fakeBackend) {
	t.Helper()
	backend := newFakeBackend()
	srv := httptest.NewServer(backend)
	t.Cleanup(srv.Close)

	c := client.New(client.Config{BaseURL: srv.URL + "/api"})
	m := NewManager(c.Auth, store, nil)
	c.SetTokenSource(m)
	return m, backend
}

func stored(t *testing.T, store repository.TokenRepository) string {
	t.Helper()
	token, err := store.Load(context.Background())
	require.NoError(t, err)
	return token
}

func TestLoginScenario(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryTokenRepository("")
	m, _ := newTestManager(t, store)
	require.NoError(t, m.Restore(ctx))
	assert.False(t, m.IsAuthenticated())

	user, err := m.Login(ctx, entities.LoginRequest{Email: "a@b.com", Password: "secret123"})
	require.NoError(t, err)

	assert.Equal(t, "a@b.com", user.Email)
	assert.Equal(t, StatusAuthenticated, m.Status())
	assert.True(t, m.IsAuthenticated())
	assert.Equal(t, "t1", m.Token())
	assert.Equal(t, "t1", stored(t, store))
	require.NotNil(t, m.User())
	assert.Equal(t, "u1", m.User().ID)
}

func TestLoginRejected(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryTokenRepository("")
	m, _ := newTestManager(t, store)
	require.NoError(t, m.Restore(ctx))

	_, err := m.Login(ctx, entities.LoginRequest{Email: "a@b.com", Password: "nope"})
	var apiErr *apierr.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Code)
	assert.Equal(t, "Invalid credentials", apiErr.Message)

	assert.Equal(t, StatusUnauthenticated, m.Status())
	assert.Empty(t, m.Token())
	assert.Empty(t, stored(t, store))
}

func TestRegister(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryTokenRepository("")
	m, _ := newTestManager(t, store)

	user, err := m.Register(ctx, entities.RegisterRequest{
		FirstName: "Giorgi",
		LastName:  "Beridze",
		Email:     "g@b.com",
		Password:  "secret123",
	})
	require.NoError(t, err)
	assert.Equal(t, "Giorgi Beridze", user.FullName())
	assert.True(t, m.IsAuthenticated())
	assert.Equal(t, "t-reg", stored(t, store))
}

func TestRestore(t *testing.T) {
	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
	}).SignedString([]byte("k"))
	require.NoError(t, err)

	tests := []struct {
		name       string
		persisted  string
		grant      bool
		wantStatus Status
		wantStored string
		wantMe     int
	}{
		{name: "valid token", persisted: "t1", grant: true, wantStatus: StatusAuthenticated, wantStored: "t1", wantMe: 1},
		{name: "rejected token", persisted: "stale", wantStatus: StatusUnauthenticated, wantStored: "", wantMe: 1},
		{name: "no token", persisted: "", wantStatus: StatusUnauthenticated, wantStored: "", wantMe: 0},
		{name: "expired jwt", persisted: expired, grant: true, wantStatus: StatusUnauthenticated, wantStored: "", wantMe: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := repository.NewMemoryTokenRepository(tt.persisted)
			m, backend := newTestManager(t, store)
			if tt.grant {
				backend.grant(tt.persisted, entities.User{ID: "u1", Email: "a@b.com"})
			}
			assert.True(t, m.IsLoading())

			require.NoError(t, m.Restore(context.Background()))

			assert.False(t, m.IsLoading())
			assert.Equal(t, tt.wantStatus, m.Status())
			assert.Equal(t, tt.wantStored, stored(t, store))
			assert.Equal(t, tt.wantStored, m.Token())
			assert.Equal(t, tt.wantStatus == StatusAuthenticated, m.User() != nil)
			me, _ := backend.counts()
			assert.Equal(t, tt.wantMe, me)
		})
	}
}

func TestRestoreCanceledKeepsToken(t *testing.T) {
	store := repository.NewMemoryTokenRepository("t1")
	m, backend := newTestManager(t, store)
	backend.grant("t1", entities.User{ID: "u1"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := m.Restore(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, StatusRestoring, m.Status())
	assert.Empty(t, m.Token())
	assert.Equal(t, "t1", stored(t, store))
}

func TestLogoutIdempotent(t *testing.T) {
	ctx := context.Background()
	m, backend := newTestManager(t, repository.NewMemoryTokenRepository(""))
	require.NoError(t, m.Restore(ctx))

	var events []Snapshot
	unsubscribe := m.Subscribe(func(s Snapshot) { events = append(events, s) })
	defer unsubscribe()

	require.NoError(t, m.Logout(ctx))
	require.NoError(t, m.Logout(ctx))

	assert.Equal(t, StatusUnauthenticated, m.Status())
	assert.Empty(t, events)
	_, logout := backend.counts()
	assert.Zero(t, logout)
}

func TestLogoutClearsWhenBackendFails(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryTokenRepository("")
	m, backend := newTestManager(t, store)
	backend.logoutStatus = http.StatusInternalServerError

	_, err := m.Login(ctx, entities.LoginRequest{Email: "a@b.com", Password: "secret123"})
	require.NoError(t, err)

	require.NoError(t, m.Logout(ctx))
	assert.Equal(t, StatusUnauthenticated, m.Status())
	assert.Nil(t, m.User())
	assert.Empty(t, m.Token())
	assert.Empty(t, stored(t, store))

	_, logout := backend.counts()
	assert.Equal(t, 1, logout)
	assert.Equal(t, "Bearer t1", backend.logoutAuth)
}

func TestRefreshUser(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryTokenRepository("")
	m, backend := newTestManager(t, store)

	assert.ErrorIs(t, m.RefreshUser(ctx), ErrNotAuthenticated)

	_, err := m.Login(ctx, entities.LoginRequest{Email: "a@b.com", Password: "secret123"})
	require.NoError(t, err)

	backend.grant("t1", entities.User{ID: "u1", Email: "a@b.com", FirstName: "Updated"})
	require.NoError(t, m.RefreshUser(ctx))
	assert.Equal(t, "Updated", m.User().FirstName)

	backend.revoke("t1")
	err = m.RefreshUser(ctx)
	var apiErr *apierr.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Code)
	assert.Equal(t, StatusUnauthenticated, m.Status())
	assert.Empty(t, stored(t, store))
}

type failingStore struct {
	repository.TokenRepository
	err error
}

func (s failingStore) Save(ctx context.Context, token string) error {
	return s.err
}

func TestLoginPersistFailureKeepsMemoryClean(t *testing.T) {
	ctx := context.Background()
	store := failingStore{TokenRepository: repository.NewMemoryTokenRepository(""), err: errors.New("disk full")}
	m, _ := newTestManager(t, store)
	require.NoError(t, m.Restore(ctx))

	_, err := m.Login(ctx, entities.LoginRequest{Email: "a@b.com", Password: "secret123"})
	assert.ErrorContains(t, err, "disk full")
	assert.Equal(t, StatusUnauthenticated, m.Status())
	assert.Empty(t, m.Token())
}

func TestSubscribeTransitions(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestManager(t, repository.NewMemoryTokenRepository(""))

	var statuses []Status
	m.Subscribe(func(s Snapshot) { statuses = append(statuses, s.Status) })

	require.NoError(t, m.Restore(ctx))
	_, err := m.Login(ctx, entities.LoginRequest{Email: "a@b.com", Password: "secret123"})
	require.NoError(t, err)
	require.NoError(t, m.Logout(ctx))

	assert.Equal(t, []Status{StatusUnauthenticated, StatusAuthenticated, StatusUnauthenticated}, statuses)
}

func TestResync(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryTokenRepository("")
	m, backend := newTestManager(t, store)

	_, err := m.Login(ctx, entities.LoginRequest{Email: "a@b.com", Password: "secret123"})
	require.NoError(t, err)

	require.NoError(t, m.Resync(ctx))
	me, _ := backend.counts()
	assert.Zero(t, me, "unchanged token needs no validation")

	backend.grant("t2", entities.User{ID: "u9", Email: "other@b.com"})
	require.NoError(t, store.Save(ctx, "t2"))
	require.NoError(t, m.Resync(ctx))
	assert.Equal(t, "t2", m.Token())
	assert.Equal(t, "u9", m.User().ID)

	require.NoError(t, store.Delete(ctx))
	require.NoError(t, m.Resync(ctx))
	assert.Equal(t, StatusUnauthenticated, m.Status())
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "restoring", StatusRestoring.String())
	assert.Equal(t, "unauthenticated", StatusUnauthenticated.String())
	assert.Equal(t, "authenticated", StatusAuthenticated.String())
	assert.Equal(t, "Status(7)", Status(7).String())
}
