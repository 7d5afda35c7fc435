package vectorstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/okian/resumatch/internal/adapters/postgres"
	"github.com/okian/resumatch/internal/domain/embedding"
	"github.com/okian/resumatch/pkg/logger"
	"github.com/pgvector/pgvector-go"
)

// Postgres error codes handled explicitly.
const (
	pgUndefinedTable = "42P01"
	pgDataException  = "22000"
)

// Querier is the subset of *pgxpool.Pool used by PGStore.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PGStore keeps job description vectors in a pgvector table:
//
//	<table>(id text primary key, embedding vector(dim), jd_text text, created_at timestamptz)
type PGStore struct {
	db    Querier
	table string
	name  string
	opts  storeOptions
}

// NewPGStore creates a store over the named table.
func NewPGStore(db Querier, table string, opts ...Option) *PGStore {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &PGStore{db: db, table: postgres.Identifier(table), name: table, opts: o}
}

// IndexExists reports whether the vector table exists.
func (s *PGStore) IndexExists(ctx context.Context) (bool, error) {
	var exists bool
	err := s.db.QueryRow(ctx, `SELECT to_regclass($1) IS NOT NULL`, s.table).Scan(&exists)
	if err != nil {
		return false, postgres.Unavailable("index exists", err)
	}
	return exists, nil
}

// CreateIndex creates the vector table and an HNSW cosine index over it.
func (s *PGStore) CreateIndex(ctx context.Context, dim int, metric embedding.Metric) error {
	if metric != embedding.MetricCosine {
		return fmt.Errorf("%w: %s", ErrUnsupportedMetric, metric)
	}
	if dim <= 0 {
		return fmt.Errorf("%w: dimension %d", ErrDimensionMismatch, dim)
	}

	ddl := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id text PRIMARY KEY,
			embedding vector(%d) NOT NULL,
			jd_text text NOT NULL,
			created_at timestamptz NOT NULL DEFAULT now()
		)`, s.table, dim),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s ON %s USING hnsw (embedding vector_cosine_ops)`,
			postgres.Identifier(s.name+"_embedding_idx"), s.table),
	}
	for _, q := range ddl {
		if _, err := s.db.Exec(ctx, q); err != nil {
			return postgres.Unavailable("create index", err)
		}
	}

	s.opts.log.Info(ctx, "vector index ready",
		logger.String("table", s.name),
		logger.Int("dimension", dim),
		logger.String("metric", string(metric)),
	)
	return nil
}

// Fetch returns the record stored under id.
func (s *PGStore) Fetch(ctx context.Context, id string) (Record, bool, error) {
	start := time.Now()
	defer observe("fetch", start)

	var (
		vec pgvector.Vector
		rec = Record{ID: id}
	)
	err := s.db.QueryRow(ctx,
		fmt.Sprintf(`SELECT embedding, jd_text, created_at FROM %s WHERE id = $1`, s.table),
		id,
	).Scan(&vec, &rec.Text, &rec.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Record{}, false, nil
	}
	if err != nil {
		return Record{}, false, s.classify("fetch", err)
	}
	rec.Vector = embedding.Vector(vec.Slice())
	return rec, true, nil
}

// PutIfAbsent inserts rec with ON CONFLICT DO NOTHING; when the id is taken it
// returns the existing row.
func (s *PGStore) PutIfAbsent(ctx context.Context, rec Record) (Record, bool, error) {
	start := time.Now()
	defer observe("put", start)

	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = s.opts.now().UTC()
	}

	var createdAt time.Time
	err := s.db.QueryRow(ctx,
		fmt.Sprintf(`INSERT INTO %s (id, embedding, jd_text, created_at)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (id) DO NOTHING
			RETURNING created_at`, s.table),
		rec.ID, pgvector.NewVector(rec.Vector), rec.Text, rec.CreatedAt,
	).Scan(&createdAt)
	switch {
	case err == nil:
		rec.CreatedAt = createdAt
		return rec, true, nil
	case errors.Is(err, pgx.ErrNoRows):
		existing, ok, ferr := s.Fetch(ctx, rec.ID)
		if ferr != nil {
			return Record{}, false, ferr
		}
		if !ok {
			return Record{}, false, postgres.Unavailable("put", fmt.Errorf("row %q conflicted but is not readable", rec.ID))
		}
		return existing, false, nil
	default:
		return Record{}, false, s.classify("put", err)
	}
}

func (s *PGStore) classify(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUndefinedTable:
			return fmt.Errorf("%w: %s: %w", ErrIndexNotFound, s.name, err)
		case pgDataException:
			return fmt.Errorf("%w: %w", ErrDimensionMismatch, err)
		}
	}
	return postgres.Unavailable(op, err)
}
