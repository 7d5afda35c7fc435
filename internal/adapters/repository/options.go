package repository

import "github.com/okian/resumatch/pkg/logger"

// Option applies a configuration option to a store.
type Option func(*storeOptions)

type storeOptions struct {
	log logger.Logger
}

func defaultOptions() storeOptions {
	return storeOptions{log: logger.Nop()}
}

// WithLogger sets the store logger.
func WithLogger(l logger.Logger) Option {
	return func(o *storeOptions) {
		if l != nil {
			o.log = l
		}
	}
}
