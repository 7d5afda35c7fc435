// Package vectorstore defines the persistent key-vector index holding job
// description embeddings, with in-memory and Postgres (pgvector) backends.
package vectorstore

import (
	"context"
	"time"

	"github.com/okian/resumatch/internal/domain/embedding"
)

// Record is a stored job description embedding keyed by job id.
type Record struct {
	ID        string
	Vector    embedding.Vector
	Text      string
	CreatedAt time.Time
}

// Store provides access to the job description vector index.
//
// Implementations report backend failures wrapped in types.ErrStorageUnavailable.
type Store interface {
	// IndexExists reports whether the index has been created.
	IndexExists(ctx context.Context) (bool, error)

	// CreateIndex creates the index for vectors of the given dimension and metric.
	// Creating an existing index is a no-op.
	CreateIndex(ctx context.Context, dim int, metric embedding.Metric) error

	// Fetch returns the record stored under id; ok is false when none exists.
	Fetch(ctx context.Context, id string) (rec Record, ok bool, err error)

	// PutIfAbsent atomically stores rec unless a record with the same id exists.
	// It returns the record that is stored after the call and whether rec was
	// the one inserted.
	PutIfAbsent(ctx context.Context, rec Record) (stored Record, inserted bool, err error)
}
