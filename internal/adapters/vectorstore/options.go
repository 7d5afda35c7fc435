package vectorstore

import (
	"time"

	"github.com/okian/resumatch/pkg/logger"
)

// Option applies a configuration option to a store.
type Option func(*storeOptions)

type storeOptions struct {
	now func() time.Time
	log logger.Logger
}

func defaultOptions() storeOptions {
	return storeOptions{now: time.Now, log: logger.Nop()}
}

// WithClock overrides the clock used to stamp records without CreatedAt.
func WithClock(now func() time.Time) Option {
	return func(o *storeOptions) {
		if now != nil {
			o.now = now
		}
	}
}

// WithLogger sets the store logger.
func WithLogger(l logger.Logger) Option {
	return func(o *storeOptions) {
		if l != nil {
			o.log = l
		}
	}
}
