package vectorstore

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/okian/resumatch/internal/domain/embedding"
	"github.com/okian/resumatch/pkg/metrics"
)

// MemoryStore is an in-process Store. Records live for the lifetime of the
// process.
type MemoryStore struct {
	opts storeOptions

	mu      sync.RWMutex
	created bool
	dim     int
	records map[string]Record
}

// NewMemoryStore creates an empty in-memory vector index.
func NewMemoryStore(opts ...Option) *MemoryStore {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &MemoryStore{opts: o, records: make(map[string]Record)}
}

// IndexExists reports whether CreateIndex has been called.
func (s *MemoryStore) IndexExists(_ context.Context) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.created, nil
}

// CreateIndex creates the index; only cosine is supported.
func (s *MemoryStore) CreateIndex(_ context.Context, dim int, metric embedding.Metric) error {
	if metric != embedding.MetricCosine {
		return fmt.Errorf("%w: %s", ErrUnsupportedMetric, metric)
	}
	if dim <= 0 {
		return fmt.Errorf("%w: dimension %d", ErrDimensionMismatch, dim)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.created {
		s.created = true
		s.dim = dim
	}
	return nil
}

// Fetch returns a copy of the record stored under id.
func (s *MemoryStore) Fetch(_ context.Context, id string) (Record, bool, error) {
	start := time.Now()
	defer observe("fetch", start)

	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.created {
		return Record{}, false, ErrIndexNotFound
	}
	rec, ok := s.records[id]
	if !ok {
		return Record{}, false, nil
	}
	return clone(rec), true, nil
}

// PutIfAbsent stores rec unless id is already taken.
func (s *MemoryStore) PutIfAbsent(_ context.Context, rec Record) (Record, bool, error) {
	start := time.Now()
	defer observe("put", start)

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.created {
		return Record{}, false, ErrIndexNotFound
	}
	if existing, ok := s.records[rec.ID]; ok {
		return clone(existing), false, nil
	}
	if len(rec.Vector) != s.dim {
		return Record{}, false, fmt.Errorf("%w: got %d, index has %d", ErrDimensionMismatch, len(rec.Vector), s.dim)
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = s.opts.now().UTC()
	}
	rec = clone(rec)
	s.records[rec.ID] = rec
	return clone(rec), true, nil
}

// Len returns the number of stored records.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

func clone(rec Record) Record {
	rec.Vector = slices.Clone(rec.Vector)
	return rec
}

func observe(op string, start time.Time) {
	metrics.RecordVectorStoreLatency(op, float64(time.Since(start).Microseconds())/1000.0)
}
