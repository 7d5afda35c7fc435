package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/okian/resumatch/internal/domain/types"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest      = errors.New("bad request")
	ErrLimitExceeded   = errors.New("limit exceeded")
	ErrPayloadTooLarge = errors.New("payload too large")
)

// KindError tags an error with the operation that failed and its kind.
type KindError struct {
	Op   string
	Kind error
	Err  error
}

func (e *KindError) Error() string {
	switch {
	case e.Kind != nil && e.Err != nil:
		return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind, e.Err)
	case e.Kind != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Kind)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	default:
		return e.Op
	}
}

// Unwrap exposes both the kind and the cause to errors.Is and errors.As.
func (e *KindError) Unwrap() []error {
	out := make([]error, 0, 2)
	if e.Kind != nil {
		out = append(out, e.Kind)
	}
	if e.Err != nil {
		out = append(out, e.Err)
	}
	return out
}

// NewKind returns an error of the given kind for op.
func NewKind(op string, kind error) error {
	return &KindError{Op: op, Kind: kind}
}

// WrapKind tags err with op and kind.
func WrapKind(op string, kind, err error) error {
	return &KindError{Op: op, Kind: kind, Err: err}
}

// Wrap tags err with op. The kind is derived from err itself.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return &KindError{Op: op, Err: err}
}

// statusFor maps an error to the HTTP status and the code sent to clients.
func statusFor(err error) (int, string) {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge), errors.Is(err, ErrPayloadTooLarge):
		return http.StatusRequestEntityTooLarge, "payload_too_large"
	case errors.Is(err, ErrLimitExceeded):
		return http.StatusBadRequest, "limit_exceeded"
	case errors.Is(err, ErrBadRequest):
		return http.StatusBadRequest, "bad_request"
	}

	switch types.KindOf(err) {
	case types.KindTimeout:
		return http.StatusGatewayTimeout, types.KindTimeout
	case types.KindCanceled:
		return http.StatusRequestTimeout, types.KindCanceled
	case types.KindInvalidInput:
		return http.StatusBadRequest, types.KindInvalidInput
	case types.KindUnsupportedFormat:
		return http.StatusUnsupportedMediaType, types.KindUnsupportedFormat
	case types.KindEmbedding:
		return http.StatusUnprocessableEntity, types.KindEmbedding
	case types.KindStorageUnavailable:
		return http.StatusServiceUnavailable, types.KindStorageUnavailable
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}
