package types

import (
	"context"
	"errors"
)

// Error kinds shared by every layer. Components wrap these with %w so the
// caller can classify failures with errors.Is.
var (
	// ErrUnsupportedFormat is returned by text extraction for unknown file types.
	ErrUnsupportedFormat = errors.New("unsupported format")
	// ErrEmbedding is returned when an embedding provider cannot process input.
	ErrEmbedding = errors.New("embedding failed")
	// ErrStorageUnavailable is returned when the vector cache or result store is unreachable.
	ErrStorageUnavailable = errors.New("storage unavailable")
	// ErrInvalidInput is returned for absent identifiers or malformed requests.
	ErrInvalidInput = errors.New("invalid input")
)

// Kind labels returned by KindOf.
const (
	KindUnsupportedFormat  = "unsupported_format"
	KindEmbedding          = "embedding"
	KindStorageUnavailable = "storage_unavailable"
	KindInvalidInput       = "invalid_input"
	KindTimeout            = "timeout"
	KindCanceled           = "canceled"
	KindUnknown            = "unknown"
)

// KindOf classifies err into a stable label for metrics and logs.
// Deadline and cancellation win over the domain kinds they may be wrapped in.
func KindOf(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, context.DeadlineExceeded):
		return KindTimeout
	case errors.Is(err, context.Canceled):
		return KindCanceled
	case errors.Is(err, ErrInvalidInput):
		return KindInvalidInput
	case errors.Is(err, ErrUnsupportedFormat):
		return KindUnsupportedFormat
	case errors.Is(err, ErrEmbedding):
		return KindEmbedding
	case errors.Is(err, ErrStorageUnavailable):
		return KindStorageUnavailable
	default:
		return KindUnknown
	}
}
