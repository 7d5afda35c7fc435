// Package service assembles the relevance pipeline from configuration and
// implements the dependencies required by the HTTP API and the CLI.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/okian/resumatch/internal/adapters/embedder"
	"github.com/okian/resumatch/internal/adapters/postgres"
	"github.com/okian/resumatch/internal/adapters/repository"
	"github.com/okian/resumatch/internal/adapters/vectorstore"
	"github.com/okian/resumatch/internal/config"
	"github.com/okian/resumatch/internal/domain/embedding"
	"github.com/okian/resumatch/internal/domain/model"
	"github.com/okian/resumatch/internal/domain/relevance"
	"github.com/okian/resumatch/internal/domain/semantic"
	"github.com/okian/resumatch/internal/domain/types"
	"github.com/okian/resumatch/internal/domain/vectorcache"
	"github.com/okian/resumatch/pkg/logger"
	"github.com/okian/resumatch/pkg/metrics"
)

// ErrNotStarted is returned by operations called before Start.
var ErrNotStarted = errors.New("service not started")

// Service owns the relevance engine and the result store.
type Service struct {
	mu sync.RWMutex

	cfg *config.Config

	// Injected or built on Start.
	embedder embedding.Embedder
	vectors  vectorstore.Store
	results  repository.Store
	pool     *pgxpool.Pool

	// Stores built on pool are dropped with it so a restart reconnects.
	pooledVectors bool
	pooledResults bool

	cache  *vectorcache.Cache
	engine *relevance.Engine

	now   func() time.Time
	newID func() uuid.UUID

	started bool
	logger  logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithConfig sets the configuration. Defaults from config.New are used otherwise.
func WithConfig(cfg *config.Config) Option {
	return func(s *Service) {
		if cfg != nil {
			s.cfg = cfg
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithEmbedder overrides the configured embedding provider.
func WithEmbedder(e embedding.Embedder) Option {
	return func(s *Service) {
		if e != nil {
			s.embedder = e
		}
	}
}

// WithVectorStore overrides the configured job description vector store.
func WithVectorStore(v vectorstore.Store) Option {
	return func(s *Service) {
		if v != nil {
			s.vectors = v
		}
	}
}

// WithResultStore overrides the configured result store.
func WithResultStore(r repository.Store) Option {
	return func(s *Service) {
		if r != nil {
			s.results = r
		}
	}
}

// WithClock sets the clock used to stamp analyses.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// New constructs a new Service. Components are built by Start.
func New(opts ...Option) *Service {
	s := &Service{
		cfg:   config.New(context.Background()),
		now:   time.Now,
		newID: uuid.New,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start builds the embedder, the stores and the relevance engine, and makes
// sure the vector index exists.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}
	cfg := s.cfg
	s.logger.Info(ctx, "starting relevance service...",
		logger.String("store_backend", cfg.StoreBackend),
		logger.String("embedding_provider", cfg.EmbeddingProvider),
	)

	if err := s.buildEmbedder(ctx); err != nil {
		return err
	}
	if err := s.buildStores(ctx); err != nil {
		return err
	}

	cache, err := vectorcache.New(s.vectors, s.embedder,
		vectorcache.WithLogger(s.logger.Named("vectorcache")),
	)
	if err != nil {
		s.releasePool()
		return fmt.Errorf("vector cache: %w", err)
	}
	if err := cache.EnsureIndex(ctx); err != nil {
		s.releasePool()
		return err
	}
	matcher, err := semantic.New(s.embedder, cache)
	if err != nil {
		s.releasePool()
		return fmt.Errorf("semantic matcher: %w", err)
	}
	engine, err := relevance.New(matcher,
		relevance.WithWeights(cfg.HardWeight, cfg.SemanticWeight),
		relevance.WithKeywordThreshold(cfg.KeywordThreshold),
		relevance.WithVerdictThresholds(cfg.HighThreshold, cfg.MediumThreshold),
		relevance.WithTimeout(cfg.AnalysisTimeout()),
		relevance.WithLogger(s.logger.Named("relevance")),
	)
	if err != nil {
		s.releasePool()
		return fmt.Errorf("relevance engine: %w", err)
	}
	s.cache = cache
	s.engine = engine

	s.started = true
	s.logger.Info(ctx, "relevance service started",
		logger.Int("dimension", s.embedder.Dimension()),
		logger.Float64("hard_weight", cfg.HardWeight),
		logger.Float64("semantic_weight", cfg.SemanticWeight),
	)
	return nil
}

func (s *Service) buildEmbedder(ctx context.Context) error {
	if s.embedder != nil {
		return nil
	}
	switch s.cfg.EmbeddingProvider {
	case config.ProviderGemini:
		g, err := embedder.NewGemini(ctx, s.cfg.GeminiAPIKey,
			embedder.WithModel(s.cfg.GeminiModel),
			embedder.WithDimension(s.cfg.EmbeddingDimension),
		)
		if err != nil {
			return err
		}
		s.embedder = g
	default:
		s.embedder = embedding.NewHashingEmbedder(embedding.WithDimension(s.cfg.EmbeddingDimension))
	}
	return nil
}

func (s *Service) buildStores(ctx context.Context) error {
	if s.cfg.StoreBackend != config.BackendPostgres {
		if s.vectors == nil {
			s.vectors = vectorstore.NewMemoryStore(vectorstore.WithLogger(s.logger.Named("vectorstore")))
		}
		if s.results == nil {
			s.results = repository.NewMemoryStore(repository.WithLogger(s.logger.Named("repository")))
		}
		return nil
	}
	if s.vectors != nil && s.results != nil {
		return nil
	}

	pool, err := postgres.Connect(ctx, s.cfg.DatabaseURL, postgres.WithLogger(s.logger.Named("postgres")))
	if err != nil {
		return err
	}
	s.pool = pool
	if s.vectors == nil {
		s.vectors = vectorstore.NewPGStore(pool, s.cfg.IndexName, vectorstore.WithLogger(s.logger.Named("vectorstore")))
		s.pooledVectors = true
	}
	if s.results == nil {
		store := repository.NewPGStore(pool, repository.WithLogger(s.logger.Named("repository")))
		if err := store.Migrate(ctx); err != nil {
			s.releasePool()
			return err
		}
		s.results = store
		s.pooledResults = true
	}
	return nil
}

// releasePool closes the database pool and forgets the stores built on it.
// Injected stores are kept.
func (s *Service) releasePool() {
	if s.pool == nil {
		return
	}
	s.pool.Close()
	s.pool = nil
	if s.pooledVectors {
		s.vectors = nil
		s.pooledVectors = false
	}
	if s.pooledResults {
		s.results = nil
		s.pooledResults = false
	}
}

// Stop releases the database pool. The service may be started again; stores
// built on the pool are rebuilt by the next Start.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	s.logger.Info(context.Background(), "stopping relevance service...")
	s.releasePool()
	s.cache = nil
	s.engine = nil
	s.started = false
	s.logger.Info(context.Background(), "relevance service stopped")
}

func (s *Service) components() (*relevance.Engine, repository.Store, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return nil, nil, ErrNotStarted
	}
	return s.engine, s.results, nil
}

// Score computes relevance without persisting the result.
func (s *Service) Score(ctx context.Context, sub model.Submission) (relevance.Result, error) {
	engine, _, err := s.components()
	if err != nil {
		return relevance.Result{}, err
	}
	keywords := sub.Keywords
	if keywords == nil {
		keywords = s.cfg.DefaultKeywords
	}
	return engine.Compute(ctx, relevance.Input{
		ResumeText: sub.ResumeText,
		JDText:     sub.JDText,
		Keywords:   keywords,
		JobID:      strings.TrimSpace(sub.JobID),
	})
}

// Analyze scores sub and stores the analysis.
func (s *Service) Analyze(ctx context.Context, sub model.Submission) (model.Analysis, error) {
	_, results, err := s.components()
	if err != nil {
		return model.Analysis{}, err
	}
	res, err := s.Score(ctx, sub)
	if err != nil {
		return model.Analysis{}, err
	}

	missing := res.MissingKeywords
	if missing == nil {
		missing = []string{}
	}
	a := model.Analysis{
		ID:            s.newID(),
		Candidate:     strings.TrimSpace(sub.Candidate),
		JobID:         strings.TrimSpace(sub.JobID),
		Score:         res.ScorePercentage,
		Verdict:       res.Verdict,
		Missing:       missing,
		Feedback:      res.Feedback,
		HardScore:     res.HardScore,
		SemanticScore: res.SemanticScore,
		// Postgres keeps microseconds; truncate so stored and returned values agree.
		CreatedAt: s.now().UTC().Truncate(time.Microsecond),
	}
	if err := results.Save(ctx, a); err != nil {
		return model.Analysis{}, fmt.Errorf("save analysis: %w", err)
	}
	s.logger.Info(ctx, "analysis stored",
		logger.String("id", a.ID.String()),
		logger.String("job_id", a.JobID),
		logger.Float64("score", a.Score),
		logger.String("verdict", a.Verdict.String()),
	)
	return a, nil
}

// Results returns the stored analyses for jobID in submission order.
func (s *Service) Results(ctx context.Context, jobID string) ([]model.Analysis, error) {
	_, results, err := s.components()
	if err != nil {
		return nil, err
	}
	jobID = strings.TrimSpace(jobID)
	if jobID == "" {
		return nil, fmt.Errorf("%w: job id must not be empty", types.ErrInvalidInput)
	}
	return results.ListByJob(ctx, jobID)
}

// Shortlist returns the n best analyses for jobID.
func (s *Service) Shortlist(ctx context.Context, jobID string, n int) ([]model.Analysis, error) {
	_, results, err := s.components()
	if err != nil {
		return nil, err
	}
	jobID = strings.TrimSpace(jobID)
	if jobID == "" {
		return nil, fmt.Errorf("%w: job id must not be empty", types.ErrInvalidInput)
	}
	list, err := results.TopN(ctx, jobID, n)
	if errors.Is(err, repository.ErrInvalidLimit) {
		return nil, fmt.Errorf("%w: %w", types.ErrInvalidInput, err)
	}
	return list, err
}

// Stats returns service statistics for monitoring and refreshes the
// stored-results gauge.
func (s *Service) Stats(ctx context.Context) (map[string]any, error) {
	s.mu.RLock()
	started := s.started
	results := s.results
	dim := 0
	if s.embedder != nil {
		dim = s.embedder.Dimension()
	}
	s.mu.RUnlock()

	stats := map[string]any{
		"started":             started,
		"store_backend":       s.cfg.StoreBackend,
		"embedding_provider":  s.cfg.EmbeddingProvider,
		"embedding_dimension": dim,
		"hard_weight":         s.cfg.HardWeight,
		"semantic_weight":     s.cfg.SemanticWeight,
		"keyword_threshold":   s.cfg.KeywordThreshold,
	}
	if !started {
		return stats, nil
	}

	total, err := results.Count(ctx)
	if err != nil {
		return nil, err
	}
	stats["total_analyses"] = total
	metrics.UpdateResultRecordsTotal(total)
	return stats, nil
}
