package vectorcache

import "errors"

// Sentinel kinds for vector cache construction errors.
var (
	ErrNilStore    = errors.New("vector store is required")
	ErrNilEmbedder = errors.New("embedder is required")
)
