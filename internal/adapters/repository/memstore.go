package repository

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/okian/resumatch/internal/domain/model"
	"github.com/okian/resumatch/pkg/logger"
	"github.com/okian/resumatch/pkg/metrics"
)

// jobResults holds one job's analyses in insertion and rank order.
type jobResults struct {
	saved  []model.Analysis
	ranked []model.Analysis
}

// MemoryStore keeps analyses in process memory. Each job keeps a ranked
// slice maintained by binary insertion so TopN is a prefix copy.
type MemoryStore struct {
	opts storeOptions

	mu    sync.RWMutex
	ids   map[uuid.UUID]struct{}
	jobs  map[string]*jobResults
	total int
}

// NewMemoryStore creates an empty in-memory result store.
func NewMemoryStore(opts ...Option) *MemoryStore {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &MemoryStore{
		opts: o,
		ids:  make(map[uuid.UUID]struct{}),
		jobs: make(map[string]*jobResults),
	}
}

// Save stores a copy of a.
func (s *MemoryStore) Save(ctx context.Context, a model.Analysis) error { //nolint:gocritic // hugeParam: value semantics
	start := time.Now()
	defer observe("save", start)

	if err := validate(a); err != nil {
		return err
	}
	a.Missing = slices.Clone(a.Missing)

	s.mu.Lock()
	if _, ok := s.ids[a.ID]; ok {
		s.mu.Unlock()
		return ErrDuplicateID
	}
	s.ids[a.ID] = struct{}{}

	jr := s.jobs[a.JobID]
	if jr == nil {
		jr = &jobResults{}
		s.jobs[a.JobID] = jr
	}
	jr.saved = append(jr.saved, a)
	i := sort.Search(len(jr.ranked), func(i int) bool { return model.Ranks(a, jr.ranked[i]) })
	jr.ranked = slices.Insert(jr.ranked, i, a)
	s.total++
	total := s.total
	s.mu.Unlock()

	metrics.UpdateResultRecordsTotal(total)
	s.opts.log.Debug(ctx, "analysis saved",
		logger.String("job_id", a.JobID),
		logger.String("id", a.ID.String()),
		logger.Int("rank", i+1),
	)
	return nil
}

// ListByJob returns the job's analyses in insertion order.
func (s *MemoryStore) ListByJob(_ context.Context, jobID string) ([]model.Analysis, error) {
	start := time.Now()
	defer observe("list", start)

	s.mu.RLock()
	defer s.mu.RUnlock()
	jr := s.jobs[jobID]
	if jr == nil {
		return []model.Analysis{}, nil
	}
	return cloneAll(jr.saved), nil
}

// TopN returns the n best analyses for a job.
func (s *MemoryStore) TopN(_ context.Context, jobID string, n int) ([]model.Analysis, error) {
	start := time.Now()
	defer observe("top", start)

	if err := checkLimit(n); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	jr := s.jobs[jobID]
	if jr == nil {
		return []model.Analysis{}, nil
	}
	return cloneAll(jr.ranked[:min(n, len(jr.ranked))]), nil
}

// Count returns the number of stored analyses.
func (s *MemoryStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.total, nil
}

func cloneAll(in []model.Analysis) []model.Analysis {
	out := make([]model.Analysis, len(in))
	for i, a := range in {
		a.Missing = slices.Clone(a.Missing)
		out[i] = a
	}
	return out
}
