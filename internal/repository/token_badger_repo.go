package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v3"
	"go.uber.org/zap"
)

// BadgerTokenRepository keeps the token in an embedded badger database.
type BadgerTokenRepository struct {
	db  *badger.DB
	key []byte
}

// OpenBadgerTokenRepository opens the database in dir. An empty dir keeps
// everything in memory.
func OpenBadgerTokenRepository(dir string, log *zap.SugaredLogger) (*BadgerTokenRepository, error) {
	opts := badger.DefaultOptions(dir)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	if log != nil {
		opts = opts.WithLogger(badgerLogger{log})
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("badger: open db: %w", err)
	}
	return &BadgerTokenRepository{db: db, key: []byte(TokenKey)}, nil
}

func (r *BadgerTokenRepository) Load(ctx context.Context) (string, error) {
	var token []byte
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(r.key)
		if err != nil {
			return err
		}
		token, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("badger: load token: %w", err)
	}
	return string(token), nil
}

func (r *BadgerTokenRepository) Save(ctx context.Context, token string) error {
	err := r.db.Update(func(txn *badger.Txn) error {
		return txn.Set(r.key, []byte(token))
	})
	if err != nil {
		return fmt.Errorf("badger: save token: %w", err)
	}
	return nil
}

func (r *BadgerTokenRepository) Delete(ctx context.Context) error {
	err := r.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(r.key)
	})
	if err != nil {
		return fmt.Errorf("badger: delete token: %w", err)
	}
	return nil
}

func (r *BadgerTokenRepository) Close() error {
	return r.db.Close()
}

// badgerLogger routes badger's logging through zap.
type badgerLogger struct {
	log *zap.SugaredLogger
}

func (l badgerLogger) Errorf(f string, v ...interface{})   { l.log.Errorf(f, v...) }
func (l badgerLogger) Warningf(f string, v ...interface{}) { l.log.Warnf(f, v...) }
func (l badgerLogger) Infof(f string, v ...interface{})    { l.log.Debugf(f, v...) }
func (l badgerLogger) Debugf(f string, v ...interface{})   { l.log.Debugf(f, v...) }
