// Package vectorcache memoizes job description embeddings in a persistent
// vector index keyed by job id.
//
// A job id is embedded at most once: the first text seen for a job id is the
// one whose vector is stored, and later calls with different text for the
// same id receive that stored vector unchanged.
package vectorcache

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/okian/resumatch/internal/adapters/vectorstore"
	"github.com/okian/resumatch/internal/domain/embedding"
	"github.com/okian/resumatch/internal/domain/types"
	"github.com/okian/resumatch/pkg/logger"
	"github.com/okian/resumatch/pkg/metrics"
	"golang.org/x/sync/singleflight"
)

// Cache resolves job ids to job description vectors.
type Cache struct {
	store    vectorstore.Store
	embedder embedding.Embedder
	metric   embedding.Metric
	log      logger.Logger

	createTimeout time.Duration
	group         singleflight.Group
}

// DefaultCreateTimeout bounds a single embed-and-store run for a job id.
const DefaultCreateTimeout = 30 * time.Second

// New creates a cache over store that embeds misses with embedder.
func New(store vectorstore.Store, embedder embedding.Embedder, opts ...Option) (*Cache, error) {
	if store == nil {
		return nil, ErrNilStore
	}
	if embedder == nil {
		return nil, ErrNilEmbedder
	}

	c := &Cache{
		store:    store,
		embedder: embedder,
		metric:   embedding.MetricCosine,
		log:      logger.Nop(),

		createTimeout: DefaultCreateTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Dimension returns the vector length of the cached embeddings.
func (c *Cache) Dimension() int { return c.embedder.Dimension() }

// EnsureIndex creates the backing index when it does not exist yet.
func (c *Cache) EnsureIndex(ctx context.Context) error {
	exists, err := c.store.IndexExists(ctx)
	if err != nil {
		return storageError("index exists", err)
	}
	if exists {
		c.log.Debug(ctx, "vector index exists")
		return nil
	}

	if err := c.store.CreateIndex(ctx, c.embedder.Dimension(), c.metric); err != nil {
		return storageError("create index", err)
	}
	c.log.Info(ctx, "vector index created",
		logger.Int("dimension", c.embedder.Dimension()),
		logger.String("metric", string(c.metric)),
	)
	return nil
}

// GetOrCreate returns the stored vector for jobID, embedding and storing
// jdText on a miss. On a hit jdText is ignored.
func (c *Cache) GetOrCreate(ctx context.Context, jobID, jdText string) (embedding.Vector, error) {
	if strings.TrimSpace(jobID) == "" {
		return nil, fmt.Errorf("%w: job id must not be empty", types.ErrInvalidInput)
	}

	if vec, ok, err := c.lookup(ctx, jobID); err != nil || ok {
		return vec, err
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: vectorcache: %w", types.ErrStorageUnavailable, err)
	}

	// Shared by every caller waiting on jobID; detached from the starter's deadline.
	ch := c.group.DoChan(jobID, func() (any, error) {
		runCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.createTimeout)
		defer cancel()
		return c.create(runCtx, jobID, jdText)
	})
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: vectorcache: %w", types.ErrStorageUnavailable, ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return slices.Clone(res.Val.(embedding.Vector)), nil
	}
}

func (c *Cache) lookup(ctx context.Context, jobID string) (embedding.Vector, bool, error) {
	rec, ok, err := c.store.Fetch(ctx, jobID)
	if err != nil {
		c.recordError("fetch", err)
		return nil, false, storageError("fetch", err)
	}
	if !ok {
		return nil, false, nil
	}
	if err := c.checkDimension(rec.Vector); err != nil {
		return nil, false, err
	}

	metrics.RecordVectorCacheHit()
	c.log.Debug(ctx, "jd vector cache hit", logger.String("job_id", jobID))
	return rec.Vector, true, nil
}

// create runs once per job id among concurrent callers.
func (c *Cache) create(ctx context.Context, jobID, jdText string) (embedding.Vector, error) {
	// A caller that lost the race to the singleflight leader may arrive
	// after the record was stored.
	if vec, ok, err := c.lookup(ctx, jobID); err != nil || ok {
		return vec, err
	}

	start := time.Now()
	vec, err := c.embedder.Embed(ctx, jdText)
	if err != nil {
		c.recordError("embed", err)
		if !errors.Is(err, types.ErrEmbedding) {
			err = fmt.Errorf("%w: %w", types.ErrEmbedding, err)
		}
		return nil, err
	}
	metrics.RecordEmbedding("jd")
	metrics.RecordEmbeddingLatency(float64(time.Since(start).Microseconds()) / 1000.0)

	stored, inserted, err := c.store.PutIfAbsent(ctx, vectorstore.Record{ID: jobID, Vector: vec, Text: jdText})
	if err != nil {
		c.recordError("put", err)
		return nil, storageError("put", err)
	}
	if err := c.checkDimension(stored.Vector); err != nil {
		return nil, err
	}

	metrics.RecordVectorCacheMiss()
	c.log.Info(ctx, "jd vector stored",
		logger.String("job_id", jobID),
		logger.Bool("inserted", inserted),
		logger.Int("jd_chars", len(jdText)),
	)
	return stored.Vector, nil
}

func (c *Cache) checkDimension(vec embedding.Vector) error {
	if len(vec) != c.embedder.Dimension() {
		return fmt.Errorf("%w: stored vector has %d dimensions, embedder produces %d",
			types.ErrEmbedding, len(vec), c.embedder.Dimension())
	}
	return nil
}

func (c *Cache) recordError(op string, err error) {
	kind := "storage_unavailable"
	if errors.Is(err, types.ErrEmbedding) || op == "embed" {
		kind = "embedding_error"
	}
	metrics.RecordErrorByComponent("vectorcache", kind)
}

// storageError tags store failures as types.ErrStorageUnavailable unless they
// already carry a domain kind.
func storageError(op string, err error) error {
	switch {
	case errors.Is(err, types.ErrStorageUnavailable), errors.Is(err, types.ErrEmbedding):
		return fmt.Errorf("vectorcache %s: %w", op, err)
	case errors.Is(err, vectorstore.ErrDimensionMismatch):
		return fmt.Errorf("%w: vectorcache %s: %w", types.ErrEmbedding, op, err)
	default:
		return fmt.Errorf("%w: vectorcache %s: %w", types.ErrStorageUnavailable, op, err)
	}
}
