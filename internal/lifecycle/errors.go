package lifecycle

import "errors"

// Domain-specific errors for the wake-cycle pipeline.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrSessionDown is returned when the pipeline is asked to publish
	// without a live broker session. The caller should sleep the
	// shortened retry interval; no publish attempt is made.
	ErrSessionDown = errors.New("lifecycle: broker session not connected")

	// ErrCaptureFailed wraps ADC sampling failures.
	ErrCaptureFailed = errors.New("lifecycle: sample capture failed")
)
