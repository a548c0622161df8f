package repository

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"aqve/internal/config"
)

// OpenTokenRepository builds the repository selected by cfg.Driver. The
// returned close function releases whatever the driver opened.
func OpenTokenRepository(ctx context.Context, cfg config.TokenStoreConfig, log *zap.SugaredLogger) (TokenRepository, func() error, error) {
	noop := func() error { return nil }
	switch cfg.Driver {
	case config.StoreMemory:
		return NewMemoryTokenRepository(""), noop, nil
	case config.StoreFile:
		return NewFileTokenRepository(cfg.File, cfg.Passphrase, log), noop, nil
	case config.StorePostgres:
		db, err := OpenPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		if err := EnsureTokenTable(ctx, db, DefaultTokenTable); err != nil {
			db.Close()
			return nil, nil, err
		}
		return NewPostgresTokenRepository(db, DefaultTokenTable, TokenKey), db.Close, nil
	case config.StoreBadger:
		repo, err := OpenBadgerTokenRepository(cfg.Dir, log)
		if err != nil {
			return nil, nil, err
		}
		return repo, repo.Close, nil
	}
	return nil, nil, fmt.Errorf("unknown token store driver %q", cfg.Driver)
}
