// Package repository persists analysis results and serves them per job.
package repository

import (
	"context"

	"github.com/okian/resumatch/internal/domain/model"
)

// Store provides read/write access to stored analyses.
//
// Implementations report backend failures wrapped in types.ErrStorageUnavailable.
type Store interface {
	// Save persists a new analysis. IDs are unique; saving an existing ID
	// returns ErrDuplicateID.
	Save(ctx context.Context, a model.Analysis) error

	// ListByJob returns the analyses for a job in the order they were saved.
	ListByJob(ctx context.Context, jobID string) ([]model.Analysis, error)

	// TopN returns up to n analyses for a job ordered by model.Ranks.
	TopN(ctx context.Context, jobID string, n int) ([]model.Analysis, error)

	// Count returns the number of stored analyses.
	Count(ctx context.Context) (int, error)
}
