package relevance

import (
	"time"

	"github.com/okian/resumatch/pkg/logger"
)

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithWeights sets the hard and semantic weights of the final score.
// Negative weights and an all-zero pair are ignored.
func WithWeights(hard, semantic float64) Option {
	return func(e *Engine) {
		if hard >= 0 && semantic >= 0 && hard+semantic > 0 {
			e.hardWeight = hard
			e.semanticWeight = semantic
		}
	}
}

// WithKeywordThreshold sets the partial-ratio threshold (0-100) for a keyword hit.
func WithKeywordThreshold(threshold int) Option {
	return func(e *Engine) {
		if threshold >= 0 && threshold <= 100 {
			e.threshold = threshold
		}
	}
}

// WithVerdictThresholds sets the inclusive lower bounds of the High and
// Medium bands on the final score.
func WithVerdictThresholds(high, medium float64) Option {
	return func(e *Engine) {
		if medium >= 0 && high >= medium {
			e.bands = Bands{High: high, Medium: medium}
		}
	}
}

// WithTimeout bounds each Compute call; zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d >= 0 {
			e.timeout = d
		}
	}
}

// WithLogger sets the engine logger.
func WithLogger(l logger.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}
