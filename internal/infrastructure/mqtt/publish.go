package mqtt

import (
	"fmt"
)

// maxPayloadSize bounds a publish payload. The sample payload is well
// under 200 bytes; anything larger indicates a bug upstream.
const maxPayloadSize = 4096

// PublishRetained sends a retained message to the given topic.
//
// Retained delivery means the broker stores the last message per topic and
// hands it to late subscribers, so a backend that polls every few minutes
// always sees the node's most recent sample even though the node spends
// almost all of its life asleep.
//
// Parameters:
//   - topic: The configured sample topic from the persisted record
//   - payload: The encoded sample (JSON)
//
// Returns:
//   - error: nil on broker acknowledgment, or a wrapped sentinel error
func (s *Session) PublishRetained(topic string, payload []byte) error {
	if topic == "" {
		return ErrInvalidTopic
	}
	if len(payload) > maxPayloadSize {
		return fmt.Errorf("%w: payload size %d exceeds maximum %d bytes", ErrPublishFailed, len(payload), maxPayloadSize)
	}
	if !s.IsConnected() {
		return ErrNotConnected
	}

	token := s.client.Publish(topic, s.cfg.QoS, true, payload)
	s.lastToken = token

	if !token.WaitTimeout(defaultPublishTimeout) {
		return fmt.Errorf("%w: timeout after %v", ErrPublishFailed, defaultPublishTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %w", ErrPublishFailed, err)
	}

	return nil
}
