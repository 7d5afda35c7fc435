package vectorcache

import (
	"time"

	"github.com/okian/resumatch/internal/domain/embedding"
	"github.com/okian/resumatch/pkg/logger"
)

// Option applies a configuration option to the Cache.
type Option func(*Cache)

// WithLogger sets the cache logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Cache) {
		if l != nil {
			c.log = l
		}
	}
}

// WithMetric sets the distance metric used when the index is created.
func WithMetric(m embedding.Metric) Option {
	return func(c *Cache) {
		if m != "" {
			c.metric = m
		}
	}
}

// WithCreateTimeout bounds the shared embed-and-store run on a miss.
// Callers still give up on their own context while the run continues.
func WithCreateTimeout(d time.Duration) Option {
	return func(c *Cache) {
		if d > 0 {
			c.createTimeout = d
		}
	}
}
