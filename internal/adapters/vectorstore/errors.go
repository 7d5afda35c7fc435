package vectorstore

import "errors"

// Sentinel kinds for vector store errors.
var (
	ErrIndexNotFound     = errors.New("vector index not found")
	ErrDimensionMismatch = errors.New("vector dimension does not match index")
	ErrUnsupportedMetric = errors.New("unsupported distance metric")
)
