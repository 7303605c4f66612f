// Package database opens the Postgres pool behind the "postgres" storage
// driver.
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
)

const pingTimeout = 5 * time.Second

var errNotConfigured = errors.New("database not configured")

// Config sizes the pool. The record collections are two rows, so a handful
// of connections is plenty.
type Config struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

func DefaultConfig(url string) Config {
	return Config{
		URL:             url,
		MaxOpenConns:    4,
		MaxIdleConns:    2,
		ConnMaxLifetime: 30 * time.Minute,
		ConnMaxIdleTime: 5 * time.Minute,
	}
}

// Pool is a *sql.DB over the pgx stdlib driver.
type Pool struct {
	db   *sql.DB
	host string
}

// New parses the URL with pgx, opens the pool and pings it. Errors name the
// host and database but never the credentials.
func New(ctx context.Context, cfg Config) (*Pool, error) {
	if cfg.URL == "" {
		return nil, errNotConfigured
	}
	connCfg, err := pgx.ParseConfig(cfg.URL)
	if err != nil {
		return nil, errors.New("parse DATABASE_URL: invalid connection string")
	}
	host := fmt.Sprintf("%s:%d/%s", connCfg.Host, connCfg.Port, connCfg.Database)

	db := stdlib.OpenDB(*connCfg)
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close() //nolint:errcheck // best-effort cleanup on init failure
		return nil, fmt.Errorf("ping %s: %w", host, err)
	}
	return &Pool{db: db, host: host}, nil
}

func (p *Pool) DB() *sql.DB { return p.db }

// Host is "host:port/database", safe to log.
func (p *Pool) Host() string { return p.host }

func (p *Pool) Health(ctx context.Context) error {
	if p == nil || p.db == nil {
		return errNotConfigured
	}
	return p.db.PingContext(ctx)
}

func (p *Pool) Close() error {
	if p == nil || p.db == nil {
		return nil
	}
	return p.db.Close()
}
