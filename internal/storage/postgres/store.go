package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"aieni/internal/storage"
)

// Schema is applied by EnsureSchema and mirrored in migrations/.
const Schema = `CREATE TABLE IF NOT EXISTS kv_documents (
	key        TEXT PRIMARY KEY,
	value      BYTEA NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// Store keeps collection documents in the kv_documents table. The *sql.DB is
// expected to use the pgx stdlib driver (see internal/platform/database).
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("create kv_documents: %w", err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv_documents WHERE key = $1`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("select %s: %w", key, err)
	}
	return value, true, nil
}

func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	_, err := s.db.ExecContext(ctx, upsert, key, value)
	if err != nil {
		return fmt.Errorf("upsert %s: %w", key, err)
	}
	return nil
}

const upsert = `INSERT INTO kv_documents (key, value, updated_at) VALUES ($1, $2, now())
		 ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`

// Mutate serializes writers of key with a transaction-scoped advisory lock,
// which also covers keys that have no row yet.
func (s *Store) Mutate(ctx context.Context, key string, fn storage.MutateFunc) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin mutate %s: %w", key, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1)::bigint)`, key); err != nil {
		return fmt.Errorf("lock %s: %w", key, err)
	}

	var value []byte
	ok := true
	err = tx.QueryRowContext(ctx, `SELECT value FROM kv_documents WHERE key = $1`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		ok = false
	} else if err != nil {
		return fmt.Errorf("select %s: %w", key, err)
	}

	next, err := fn(value, ok)
	if err != nil || next == nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, upsert, key, next); err != nil {
		return fmt.Errorf("upsert %s: %w", key, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit %s: %w", key, err)
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }
