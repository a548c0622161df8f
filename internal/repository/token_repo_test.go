package repository

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aqve/internal/config"
)

func TestTokenRepositoryContract(t *testing.T) {
	tests := []struct {
		name string
		repo func(t *testing.T) TokenRepository
	}{
		{
			name: "memory",
			repo: func(t *testing.T) TokenRepository { return NewMemoryTokenRepository("") },
		},
		{
			name: "file",
			repo: func(t *testing.T) TokenRepository {
				return NewFileTokenRepository(filepath.Join(t.TempDir(), "aqve", "token"), "correct horse", nil)
			},
		},
		{
			name: "badger in memory",
			repo: func(t *testing.T) TokenRepository {
				r, err := OpenBadgerTokenRepository("", nil)
				require.NoError(t, err)
				t.Cleanup(func() { r.Close() })
				return r
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			repo := tt.repo(t)

			got, err := repo.Load(ctx)
			require.NoError(t, err)
			assert.Empty(t, got)

			require.NoError(t, repo.Save(ctx, "t1"))
			got, err = repo.Load(ctx)
			require.NoError(t, err)
			assert.Equal(t, "t1", got)

			require.NoError(t, repo.Save(ctx, "t2"))
			got, err = repo.Load(ctx)
			require.NoError(t, err)
			assert.Equal(t, "t2", got)

			require.NoError(t, repo.Delete(ctx))
			got, err = repo.Load(ctx)
			require.NoError(t, err)
			assert.Empty(t, got)

			require.NoError(t, repo.Delete(ctx), "deleting twice is fine")
		})
	}
}

func TestMemoryTokenRepositoryInitial(t *testing.T) {
	got, err := NewMemoryTokenRepository("seed").Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "seed", got)
}

func TestFileTokenRepositoryEncrypts(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "token")
	repo := NewFileTokenRepository(path, "correct horse", nil)

	const token = "eyJhbGciOiJIUzI1NiJ9.secret-session"
	require.NoError(t, repo.Save(ctx, token))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.False(t, strings.Contains(string(raw), "secret-session"))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	other := NewFileTokenRepository(path, "battery staple", nil)
	_, err = other.Load(ctx)
	assert.ErrorIs(t, err, ErrTokenDecrypt)

	require.NoError(t, os.WriteFile(path, []byte("garbage"), 0o600))
	_, err = repo.Load(ctx)
	assert.ErrorIs(t, err, ErrTokenDecrypt)
}

func TestFileTokenRepositoryDefaultPassphrase(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "token")

	require.NoError(t, NewFileTokenRepository(path, "", nil).Save(ctx, "t1"))
	got, err := NewFileTokenRepository(path, "", nil).Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "t1", got)
}

func TestFileTokenRepositoryWatch(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "token")
	repo := NewFileTokenRepository(path, "pw", nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changed := make(chan struct{}, 16)
	done := make(chan error, 1)
	go func() {
		done <- repo.Watch(ctx, func() { changed <- struct{}{} })
	}()

	// unrelated files in the same directory are ignored
	require.Eventually(t, func() bool {
		_ = os.WriteFile(filepath.Join(dir, "other"), []byte("x"), 0o600)
		if err := repo.Save(context.Background(), "t1"); err != nil {
			return false
		}
		select {
		case <-changed:
			return true
		case <-time.After(50 * time.Millisecond):
			return false
		}
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("watch did not stop")
	}
}

func TestOpenTokenRepository(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name string
		cfg  config.TokenStoreConfig
	}{
		{"memory", config.TokenStoreConfig{Driver: config.StoreMemory}},
		{"file", config.TokenStoreConfig{Driver: config.StoreFile, File: filepath.Join(t.TempDir(), "token"), Passphrase: "pw"}},
		{"badger in memory", config.TokenStoreConfig{Driver: config.StoreBadger}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, closeFn, err := OpenTokenRepository(ctx, tt.cfg, nil)
			require.NoError(t, err)
			defer closeFn()

			require.NoError(t, repo.Save(ctx, "t1"))
			got, err := repo.Load(ctx)
			require.NoError(t, err)
			assert.Equal(t, "t1", got)
		})
	}

	_, _, err := OpenTokenRepository(ctx, config.TokenStoreConfig{Driver: "redis"}, nil)
	assert.Error(t, err)
}
