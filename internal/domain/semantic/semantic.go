// Package semantic scores resume to job description similarity as the cosine
// of their unit-length embeddings.
package semantic

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/okian/resumatch/internal/domain/embedding"
	"github.com/okian/resumatch/internal/domain/types"
	"github.com/okian/resumatch/pkg/metrics"
)

// VectorSource resolves a job id to its job description vector.
type VectorSource interface {
	GetOrCreate(ctx context.Context, jobID, jdText string) (embedding.Vector, error)
}

// Matcher computes semantic similarity.
type Matcher struct {
	embedder embedding.Embedder
	jds      VectorSource
}

// New creates a matcher that embeds resumes with embedder and looks up job
// description vectors in jds.
func New(embedder embedding.Embedder, jds VectorSource) (*Matcher, error) {
	if embedder == nil || jds == nil {
		return nil, errors.New("semantic: embedder and vector source are required")
	}
	return &Matcher{embedder: embedder, jds: jds}, nil
}

// Score returns the dot product of the resume embedding and the job
// description vector. Both are unit length, so the value is their cosine
// similarity, nominally within [-1, 1].
func (m *Matcher) Score(ctx context.Context, resumeText, jdText, jobID string) (float64, error) {
	start := time.Now()
	defer func() {
		metrics.RecordSemanticLatency(float64(time.Since(start).Microseconds()) / 1000.0)
	}()

	resumeVec, err := m.embedder.Embed(ctx, resumeText)
	if err != nil {
		if !errors.Is(err, types.ErrEmbedding) {
			err = fmt.Errorf("%w: %w", types.ErrEmbedding, err)
		}
		return 0, fmt.Errorf("embed resume: %w", err)
	}
	metrics.RecordEmbedding("resume")

	jdVec, err := m.jds.GetOrCreate(ctx, jobID, jdText)
	if err != nil {
		return 0, fmt.Errorf("job description vector: %w", err)
	}

	sim, err := embedding.Dot(resumeVec, jdVec)
	if err != nil {
		return 0, err
	}
	return sim, nil
}
