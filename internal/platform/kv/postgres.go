package kv

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var tableNamePattern = regexp.MustCompile(`^[a-z_][a-z0-9_]{0,62}$`)

// PGStore is a Store backed by a single PostgreSQL table. It owns the pool.
type PGStore struct {
	pool  *pgxpool.Pool
	table string
}

// ValidateTableName reports whether name is safe to interpolate as a table
// identifier.
func ValidateTableName(name string) error {
	if !tableNamePattern.MatchString(name) {
		return fmt.Errorf("invalid kv table name %q", name)
	}
	return nil
}

// NewPGStore wraps pool and creates the backing table if needed.
func NewPGStore(ctx context.Context, pool *pgxpool.Pool, table string) (*PGStore, error) {
	if err := ValidateTableName(table); err != nil {
		return nil, err
	}
	s := &PGStore{pool: pool, table: table}
	if err := s.ensureTable(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *PGStore) ensureTable(ctx context.Context) error {
	query := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
    key TEXT PRIMARY KEY,
    value BYTEA NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`, s.table)
	if _, err := s.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("create kv table %s: %w", s.table, err)
	}
	return nil
}

func (s *PGStore) Get(ctx context.Context, key string) ([]byte, error) {
	var v []byte
	err := s.pool.QueryRow(ctx,
		fmt.Sprintf(`SELECT value FROM %s WHERE key = $1`, s.table), key).Scan(&v)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("kv get %s: %w", key, err)
	}
	return v, nil
}

func (s *PGStore) Set(ctx context.Context, key string, value []byte) error {
	return s.put(ctx, s.pool, key, value)
}

type execer interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

func (s *PGStore) put(ctx context.Context, q execer, key string, value []byte) error {
	_, err := q.Exec(ctx, fmt.Sprintf(`INSERT INTO %s (key, value, updated_at) VALUES ($1, $2, NOW())
		 ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()`, s.table), key, value)
	if err != nil {
		return fmt.Errorf("kv put %s: %w", key, err)
	}
	return nil
}

// Update serializes writers on key with a transaction-scoped advisory lock,
// which also covers keys that do not exist yet.
func (s *PGStore) Update(ctx context.Context, key string, fn func(old []byte) ([]byte, error)) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, key); err != nil {
			return fmt.Errorf("kv lock %s: %w", key, err)
		}

		var old []byte
		err := tx.QueryRow(ctx,
			fmt.Sprintf(`SELECT value FROM %s WHERE key = $1`, s.table), key).Scan(&old)
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("kv get %s: %w", key, err)
		}

		next, err := fn(old)
		if err != nil {
			return err
		}
		return s.put(ctx, tx, key, next)
	})
}

func (s *PGStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *PGStore) Close() error {
	s.pool.Close()
	return nil
}
