package mqtt

import "errors"

// Domain-specific errors for broker session operations.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrNotConnected is returned when attempting operations on a closed session.
	ErrNotConnected = errors.New("mqtt: session not connected")

	// ErrConnectionFailed wraps the failure of a single connection attempt.
	ErrConnectionFailed = errors.New("mqtt: connection failed")

	// ErrRetriesExhausted is returned when every connection attempt in the
	// cycle's budget has failed. The caller should sleep the shortened
	// retry interval rather than keep trying.
	ErrRetriesExhausted = errors.New("mqtt: connection retries exhausted")

	// ErrPublishFailed is returned when a publish operation fails.
	ErrPublishFailed = errors.New("mqtt: publish failed")

	// ErrInvalidTopic is returned when an empty topic is provided.
	ErrInvalidTopic = errors.New("mqtt: topic cannot be empty")

	// ErrNoBroker is returned when the persisted record has no broker host,
	// i.e. the node has never been configured through the portal.
	ErrNoBroker = errors.New("mqtt: no broker host configured")
)
