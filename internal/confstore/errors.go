package confstore

import "errors"

// Domain-specific errors for the config store.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrStorageUnavailable is returned when the backing filesystem
	// cannot be read at all. A merely absent record does not trigger it.
	ErrStorageUnavailable = errors.New("confstore: storage unavailable")

	// ErrStorageWrite is returned when persisting the record fails.
	ErrStorageWrite = errors.New("confstore: write failed")
)
