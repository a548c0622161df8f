package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"aqve/internal/client"
	"aqve/internal/entities"
	apierr "aqve/internal/errors"
	"aqve/internal/query"
	"aqve/internal/repository"
)

type Status int

const (
	StatusRestoring Status = iota
	StatusUnauthenticated
	StatusAuthenticated
)

func (s Status) String() string {
	switch s {
	case StatusRestoring:
		return "restoring"
	case StatusUnauthenticated:
		return "unauthenticated"
	case StatusAuthenticated:
		return "authenticated"
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// Snapshot is what subscribers observe after every transition.
type Snapshot struct {
	Status Status
	User   *entities.User
}

// AuthAPI is the part of the backend the manager talks to.
type AuthAPI interface {
	Login(ctx context.Context, req entities.LoginRequest) (entities.AuthResponse, error)
	Register(ctx context.Context, req entities.RegisterRequest) (entities.AuthResponse, error)
	Me(ctx context.Context) (entities.User, error)
	Logout(ctx context.Context) error
}

// ErrNotAuthenticated is returned by RefreshUser when there is no session.
var ErrNotAuthenticated = apierr.ErrUnauthorized("not authenticated")

// Manager owns the session token and the current user. It is the only
// writer of both; persisted storage is written before memory when a token
// is set, and cleared together with memory when the session ends.
type Manager struct {
	api   AuthAPI
	store repository.TokenRepository
	log   *zap.SugaredLogger
	now   func() time.Time
	subs  query.Broadcaster[Snapshot]

	// op serializes transitions.
	op sync.Mutex

	mu     sync.RWMutex
	status Status
	token  string
	user   *entities.User
}

func NewManager(api AuthAPI, store repository.TokenRepository, log *zap.SugaredLogger) *Manager {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Manager{
		api:    api,
		store:  store,
		log:    log,
		now:    time.Now,
		status: StatusRestoring,
	}
}

// Restore validates the persisted token against the backend. A missing,
// expired or rejected token ends in StatusUnauthenticated with storage
// cleared, and is not reported as an error. If ctx ends before the token
// could be checked the manager stays in StatusRestoring and ctx's error is
// returned.
func (m *Manager) Restore(ctx context.Context) error {
	m.op.Lock()
	defer m.op.Unlock()
	return m.restoreLocked(ctx)
}

func (m *Manager) restoreLocked(ctx context.Context) error {
	m.set(StatusRestoring, "", nil)

	token, err := m.store.Load(ctx)
	if err != nil {
		if apierr.IsCanceled(err) {
			return err
		}
		m.log.Warnf("session: read stored token: %v", err)
		return m.clearLocked(ctx)
	}
	if token == "" {
		m.set(StatusUnauthenticated, "", nil)
		return nil
	}
	if tokenExpired(token, m.now()) {
		m.log.Debugf("session: stored token has expired")
		return m.clearLocked(ctx)
	}

	user, err := m.api.Me(client.WithToken(ctx, token))
	if err != nil {
		if apierr.IsCanceled(err) || ctx.Err() != nil {
			return fmt.Errorf("restore session: %w", errors.Join(err, ctx.Err()))
		}
		m.log.Debugf("session: stored token rejected: %v", err)
		return m.clearLocked(ctx)
	}

	m.set(StatusAuthenticated, token, &user)
	m.log.Infof("session restored for %s", user.Email)
	return nil
}

// Resync re-reads storage after another process changed it. Nothing happens
// when the stored token is the one already in memory.
func (m *Manager) Resync(ctx context.Context) error {
	m.op.Lock()
	defer m.op.Unlock()

	stored, err := m.store.Load(ctx)
	if err == nil && stored == m.Token() && m.Status() != StatusRestoring {
		return nil
	}
	return m.restoreLocked(ctx)
}

func (m *Manager) Login(ctx context.Context, req entities.LoginRequest) (entities.User, error) {
	m.op.Lock()
	defer m.op.Unlock()

	resp, err := m.api.Login(ctx, req)
	if err != nil {
		return entities.User{}, err
	}
	return m.establishLocked(ctx, resp)
}

func (m *Manager) Register(ctx context.Context, req entities.RegisterRequest) (entities.User, error) {
	m.op.Lock()
	defer m.op.Unlock()

	resp, err := m.api.Register(ctx, req)
	if err != nil {
		return entities.User{}, err
	}
	return m.establishLocked(ctx, resp)
}

func (m *Manager) establishLocked(ctx context.Context, resp entities.AuthResponse) (entities.User, error) {
	if resp.Token == "" {
		return entities.User{}, apierr.Transport(errors.New("auth response carried no token"))
	}
	if err := m.store.Save(ctx, resp.Token); err != nil {
		return entities.User{}, fmt.Errorf("persist session token: %w", err)
	}
	user := resp.User
	m.set(StatusAuthenticated, resp.Token, &user)
	m.log.Infof("signed in as %s", user.Email)
	return user, nil
}

// Logout tells the backend the session is over, then clears storage and
// memory whatever the backend answered. Logging out without a session is a
// no-op.
func (m *Manager) Logout(ctx context.Context) error {
	m.op.Lock()
	defer m.op.Unlock()

	if token := m.Token(); token != "" {
		if err := m.api.Logout(client.WithToken(ctx, token)); err != nil {
			m.log.Debugf("session: logout request failed: %v", err)
		}
	}
	return m.clearLocked(ctx)
}

// RefreshUser reloads the current user. Any failure other than ctx ending
// drops the session.
func (m *Manager) RefreshUser(ctx context.Context) error {
	m.op.Lock()
	defer m.op.Unlock()

	token := m.Token()
	if token == "" {
		return ErrNotAuthenticated
	}

	user, err := m.api.Me(client.WithToken(ctx, token))
	if err != nil {
		if apierr.IsCanceled(err) || ctx.Err() != nil {
			return err
		}
		m.log.Infof("session: refresh failed, signing out: %v", err)
		if clearErr := m.clearLocked(ctx); clearErr != nil {
			return errors.Join(err, clearErr)
		}
		return err
	}

	m.set(StatusAuthenticated, token, &user)
	return nil
}

// clearLocked deletes the persisted token and always resets memory.
func (m *Manager) clearLocked(ctx context.Context) error {
	err := m.store.Delete(context.WithoutCancel(ctx))
	m.set(StatusUnauthenticated, "", nil)
	if err != nil {
		m.log.Errorf("session: delete stored token: %v", err)
		return fmt.Errorf("delete session token: %w", err)
	}
	return nil
}

func (m *Manager) set(status Status, token string, user *entities.User) {
	m.mu.Lock()
	changed := m.status != status || m.token != token || m.user != user
	m.status = status
	m.token = token
	m.user = user
	m.mu.Unlock()

	if changed {
		m.subs.Publish(Snapshot{Status: status, User: copyUser(user)})
	}
}

func (m *Manager) Status() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

func (m *Manager) IsAuthenticated() bool {
	return m.Status() == StatusAuthenticated
}

// IsLoading is true until the first Restore has settled.
func (m *Manager) IsLoading() bool {
	return m.Status() == StatusRestoring
}

// Token implements client.TokenSource. It is empty unless authenticated.
func (m *Manager) Token() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token
}

// User returns a copy of the current user, or nil.
func (m *Manager) User() *entities.User {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return copyUser(m.user)
}

func (m *Manager) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Snapshot{Status: m.status, User: copyUser(m.user)}
}

// Subscribe registers fn for every later transition.
func (m *Manager) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
	return m.subs.Subscribe(fn)
}

func copyUser(u *entities.User) *entities.User {
	if u == nil {
		return nil
	}
	c := *u
	return &c
}

// tokenExpired reports a JWT whose exp claim is not after now. Tokens that
// are not JWTs, or carry no exp, are left for the backend to judge.
func tokenExpired(token string, now time.Time) bool {
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return false
	}
	return claims.ExpiresAt != nil && !claims.ExpiresAt.After(now)
}
