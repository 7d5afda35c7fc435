// Package postgres opens the shared pgx connection pool used by the
// Postgres-backed vector and result stores.
package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/okian/resumatch/internal/domain/types"
	"github.com/okian/resumatch/pkg/logger"
	pgxvec "github.com/pgvector/pgvector-go/pgx"
)

const createExtensionSQL = `CREATE EXTENSION IF NOT EXISTS vector`

// Option configures Connect.
type Option func(*options)

type options struct {
	maxConns       int32
	connectTimeout time.Duration
	log            logger.Logger
}

// WithMaxConns caps the pool size.
func WithMaxConns(n int32) Option {
	return func(o *options) {
		if n > 0 {
			o.maxConns = n
		}
	}
}

// WithConnectTimeout bounds the bootstrap and ping round trips.
func WithConnectTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.connectTimeout = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.log = l
		}
	}
}

// Connect makes sure the pgvector extension exists, then opens a pool whose
// connections have the vector type registered.
func Connect(ctx context.Context, databaseURL string, opts ...Option) (*pgxpool.Pool, error) {
	o := options{connectTimeout: 10 * time.Second, log: logger.Nop()}
	for _, opt := range opts {
		opt(&o)
	}

	if strings.TrimSpace(databaseURL) == "" {
		return nil, fmt.Errorf("%w: database url is empty", types.ErrInvalidInput)
	}

	cctx, cancel := context.WithTimeout(ctx, o.connectTimeout)
	defer cancel()

	if err := ensureExtension(cctx, databaseURL); err != nil {
		return nil, err
	}

	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("%w: parse database url: %w", types.ErrInvalidInput, err)
	}
	if o.maxConns > 0 {
		cfg.MaxConns = o.maxConns
	}
	cfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return pgxvec.RegisterTypes(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, Unavailable("open pool", err)
	}
	if err := pool.Ping(cctx); err != nil {
		pool.Close()
		return nil, Unavailable("ping", err)
	}

	o.log.Info(ctx, "postgres pool ready",
		logger.String("host", cfg.ConnConfig.Host),
		logger.String("database", cfg.ConnConfig.Database),
		logger.Int("max_conns", int(cfg.MaxConns)),
	)
	return pool, nil
}

// ensureExtension runs on a dedicated connection because type registration
// on pooled connections needs the extension to exist already.
func ensureExtension(ctx context.Context, databaseURL string) error {
	conn, err := pgx.Connect(ctx, databaseURL)
	if err != nil {
		return Unavailable("connect", err)
	}
	defer func() { _ = conn.Close(context.Background()) }()

	if _, err := conn.Exec(ctx, createExtensionSQL); err != nil {
		return Unavailable("create extension", err)
	}
	return nil
}

// Unavailable wraps a driver error as types.ErrStorageUnavailable.
func Unavailable(op string, err error) error {
	return fmt.Errorf("%w: postgres %s: %w", types.ErrStorageUnavailable, op, err)
}

// Identifier quotes a table name for interpolation into DDL and queries.
func Identifier(name string) string {
	return pgx.Identifier{name}.Sanitize()
}
