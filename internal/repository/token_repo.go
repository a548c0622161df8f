package repository

import (
	"context"
	"sync"
)

// TokenKey names the persisted session token.
const TokenKey = "auth_token"

// TokenRepository persists the single session token. Load returns "" when no
// token is stored.
type TokenRepository interface {
	Load(ctx context.Context) (string, error)
	Save(ctx context.Context, token string) error
	Delete(ctx context.Context) error
}

// TokenWatcher is implemented by repositories that can report changes made
// by other processes.
type TokenWatcher interface {
	Watch(ctx context.Context, onChange func()) error
}

type memoryTokenRepository struct {
	mu    sync.RWMutex
	token string
}

func NewMemoryTokenRepository(initial string) TokenRepository {
	return &memoryTokenRepository{token: initial}
}

func (r *memoryTokenRepository) Load(ctx context.Context) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.token, nil
}

func (r *memoryTokenRepository) Save(ctx context.Context, token string) error {
	r.mu.Lock()
	r.token = token
	r.mu.Unlock()
	return nil
}

func (r *memoryTokenRepository) Delete(ctx context.Context) error {
	r.mu.Lock()
	r.token = ""
	r.mu.Unlock()
	return nil
}
