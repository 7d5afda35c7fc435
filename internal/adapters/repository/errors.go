package repository

import "errors"

// Sentinel kinds for result store errors.
var (
	ErrDuplicateID  = errors.New("analysis id already stored")
	ErrInvalidLimit = errors.New("invalid shortlist limit")
)
