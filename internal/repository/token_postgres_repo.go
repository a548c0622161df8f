package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
)

const DefaultTokenTable = "session_tokens"

type postgresTokenRepository struct {
	db    *sql.DB
	table string
	key   string
}

// NewPostgresTokenRepository stores the token as one row of table, keyed by key.
func NewPostgresTokenRepository(db *sql.DB, table, key string) TokenRepository {
	if table == "" {
		table = DefaultTokenTable
	}
	if key == "" {
		key = TokenKey
	}
	return &postgresTokenRepository{
		db:    db,
		table: pq.QuoteIdentifier(table),
		key:   key,
	}
}

// OpenPostgres opens and pings a lib/pq connection pool.
func OpenPostgres(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	return db, nil
}

// EnsureTokenTable creates the token table when it does not exist.
func EnsureTokenTable(ctx context.Context, db *sql.DB, table string) error {
	if table == "" {
		table = DefaultTokenTable
	}
	query := `CREATE TABLE IF NOT EXISTS ` + pq.QuoteIdentifier(table) + ` (
		key        TEXT PRIMARY KEY,
		token      TEXT NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`
	if _, err := db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("create token table: %w", err)
	}
	return nil
}

func (r *postgresTokenRepository) Load(ctx context.Context) (string, error) {
	var token string
	err := r.db.QueryRowContext(ctx, "SELECT token FROM "+r.table+" WHERE key = $1", r.key).Scan(&token)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("load token: %w", err)
	}
	return token, nil
}

func (r *postgresTokenRepository) Save(ctx context.Context, token string) error {
	query := "INSERT INTO " + r.table + " (key, token, updated_at) VALUES ($1, $2, NOW()) " +
		"ON CONFLICT (key) DO UPDATE SET token = EXCLUDED.token, updated_at = NOW()"
	if _, err := r.db.ExecContext(ctx, query, r.key, token); err != nil {
		return fmt.Errorf("save token: %w", err)
	}
	return nil
}

func (r *postgresTokenRepository) Delete(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM "+r.table+" WHERE key = $1", r.key); err != nil {
		return fmt.Errorf("delete token: %w", err)
	}
	return nil
}
