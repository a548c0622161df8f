package session

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aqve/internal/entities"
	"aqve/internal/repository"
)

func TestNewRefresherRejectsBadSchedule(t *testing.T) {
	m, _ := newTestManager(t, repository.NewMemoryTokenRepository(""))
	_, err := NewRefresher(m, "every so often", nil)
	assert.Error(t, err)
}

func TestRefresherTick(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryTokenRepository("")
	m, backend := newTestManager(t, store)

	r, err := NewRefresher(m, "@every 1h", nil)
	require.NoError(t, err)
	r.Start()
	defer r.Stop()

	r.Tick(ctx)
	me, _ := backend.counts()
	assert.Zero(t, me, "no session, no request")

	_, err = m.Login(ctx, entities.LoginRequest{Email: "a@b.com", Password: "secret123"})
	require.NoError(t, err)

	r.Tick(ctx)
	assert.True(t, m.IsAuthenticated())

	backend.revoke("t1")
	r.Tick(ctx)
	assert.False(t, m.IsAuthenticated())
	assert.Empty(t, stored(t, store))
}
