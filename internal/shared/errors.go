package shared

import "errors"

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrValidation marks a blocking input problem. The mutation is aborted with no partial write.
	ErrValidation = errors.New("validation failed")
	// ErrLimitExceeded marks a configured capacity cap being reached.
	ErrLimitExceeded = errors.New("limit exceeded")
	// ErrNetwork marks a failed upstream fetch.
	ErrNetwork = errors.New("network error")
	// ErrPersistence marks a failed slice read or write.
	ErrPersistence = errors.New("persistence error")
)
