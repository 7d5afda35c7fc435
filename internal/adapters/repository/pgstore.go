package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/okian/resumatch/internal/adapters/postgres"
	"github.com/okian/resumatch/internal/domain/model"
	"github.com/okian/resumatch/internal/domain/types"
	"github.com/okian/resumatch/pkg/logger"
)

const pgUniqueViolation = "23505"

const schemaSQL = `
CREATE TABLE IF NOT EXISTS analyses (
	id             uuid PRIMARY KEY,
	seq            bigserial,
	candidate      text NOT NULL,
	job_id         text NOT NULL,
	score          double precision NOT NULL,
	verdict        text NOT NULL,
	missing        text[] NOT NULL,
	feedback       text NOT NULL,
	hard_score     double precision NOT NULL,
	semantic_score double precision NOT NULL,
	created_at     timestamptz NOT NULL
);
CREATE INDEX IF NOT EXISTS analyses_job_seq_idx ON analyses (job_id, seq);
CREATE INDEX IF NOT EXISTS analyses_job_rank_idx ON analyses (job_id, score DESC, created_at, id);
`

const analysisColumns = `id, candidate, job_id, score, verdict, missing, feedback, hard_score, semantic_score, created_at`

// Querier is the subset of *pgxpool.Pool used by PGStore.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PGStore keeps analyses in the analyses table.
type PGStore struct {
	db   Querier
	opts storeOptions
}

// NewPGStore creates a Postgres result store. Call Migrate before use.
func NewPGStore(db Querier, opts ...Option) *PGStore {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &PGStore{db: db, opts: o}
}

// Migrate creates the analyses table and its indexes when missing.
func (s *PGStore) Migrate(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, schemaSQL); err != nil {
		return postgres.Unavailable("migrate analyses", err)
	}
	s.opts.log.Info(ctx, "analyses schema ready")
	return nil
}

// Save inserts a.
func (s *PGStore) Save(ctx context.Context, a model.Analysis) error { //nolint:gocritic // hugeParam: value semantics
	start := time.Now()
	defer observe("save", start)

	if err := validate(a); err != nil {
		return err
	}
	missing := a.Missing
	if missing == nil {
		missing = []string{}
	}

	_, err := s.db.Exec(ctx,
		`INSERT INTO analyses (`+analysisColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		a.ID, a.Candidate, a.JobID, a.Score, string(a.Verdict), missing,
		a.Feedback, a.HardScore, a.SemanticScore, a.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return ErrDuplicateID
		}
		return postgres.Unavailable("save analysis", err)
	}

	s.opts.log.Debug(ctx, "analysis saved",
		logger.String("job_id", a.JobID),
		logger.String("id", a.ID.String()),
	)
	return nil
}

// ListByJob returns the job's analyses in insertion order.
func (s *PGStore) ListByJob(ctx context.Context, jobID string) ([]model.Analysis, error) {
	start := time.Now()
	defer observe("list", start)

	return s.query(ctx, "list analyses",
		`SELECT `+analysisColumns+` FROM analyses WHERE job_id = $1 ORDER BY seq`,
		jobID,
	)
}

// TopN returns the n best analyses for a job.
func (s *PGStore) TopN(ctx context.Context, jobID string, n int) ([]model.Analysis, error) {
	start := time.Now()
	defer observe("top", start)

	if err := checkLimit(n); err != nil {
		return nil, err
	}
	return s.query(ctx, "top analyses",
		`SELECT `+analysisColumns+` FROM analyses WHERE job_id = $1
		 ORDER BY score DESC, created_at ASC, id ASC LIMIT $2`,
		jobID, n,
	)
}

// Count returns the number of stored analyses.
func (s *PGStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRow(ctx, `SELECT count(*) FROM analyses`).Scan(&n); err != nil {
		return 0, postgres.Unavailable("count analyses", err)
	}
	return n, nil
}

func (s *PGStore) query(ctx context.Context, op, sql string, args ...any) ([]model.Analysis, error) {
	rows, err := s.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, postgres.Unavailable(op, err)
	}
	out, err := pgx.CollectRows(rows, scanAnalysis)
	if err != nil {
		return nil, postgres.Unavailable(op, err)
	}
	if out == nil {
		out = []model.Analysis{}
	}
	return out, nil
}

func scanAnalysis(row pgx.CollectableRow) (model.Analysis, error) {
	var (
		a       model.Analysis
		verdict string
	)
	err := row.Scan(&a.ID, &a.Candidate, &a.JobID, &a.Score, &verdict, &a.Missing,
		&a.Feedback, &a.HardScore, &a.SemanticScore, &a.CreatedAt)
	if err != nil {
		return model.Analysis{}, fmt.Errorf("scan analysis: %w", err)
	}
	a.Verdict = types.Verdict(verdict)
	a.CreatedAt = a.CreatedAt.UTC()
	return a, nil
}
