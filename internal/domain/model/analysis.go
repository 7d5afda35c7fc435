// Package model contains domain models passed between layers.
package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/okian/resumatch/internal/domain/types"
)

// Analysis is a persisted relevance verdict for one candidate against one job.
// JSON field names match the public API.
type Analysis struct {
	ID            uuid.UUID     `json:"id"`
	Candidate     string        `json:"candidate"`
	JobID         string        `json:"job_id"`
	Score         float64       `json:"score"` // percentage, 2 decimals
	Verdict       types.Verdict `json:"verdict"`
	Missing       []string      `json:"missing"`
	Feedback      string        `json:"feedback"`
	HardScore     float64       `json:"hard_score"`
	SemanticScore float64       `json:"semantic_score"`
	CreatedAt     time.Time     `json:"created_at"`
}

// Ranks reports whether a should be listed before b in a shortlist:
// higher score first, then earlier creation, then id.
func Ranks(a, b Analysis) bool { //nolint:gocritic // hugeParam: comparator takes values for sort.Slice ergonomics
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.ID.String() < b.ID.String()
}

// Submission is one resume submitted for analysis against a job description.
// A nil Keywords slice selects the configured defaults.
type Submission struct {
	Candidate  string
	JobID      string
	ResumeText string
	JDText     string
	Keywords   []string
}
