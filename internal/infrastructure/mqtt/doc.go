// Package mqtt provides the broker session for adsnode.
//
// This package manages:
//   - Connection to the configured broker with a bounded retry budget
//   - Retained publishing of the per-cycle sample payload
//   - Draining pending traffic before deep sleep
//
// # Bounded retry
//
// Unlike a long-running service, this node cannot afford an open-ended
// reconnect loop: every second awake is battery spent. Connect makes at
// most MaxAttempts dials (default 5) separated by a fixed delay (default
// 5s) and then reports ErrRetriesExhausted. The caller answers exhaustion
// by deep-sleeping the shortened retry interval, not by spinning. The
// paho auto-reconnect machinery is deliberately disabled.
//
// # Usage
//
//	session, err := mqtt.Connect(cfg)
//	if errors.Is(err, mqtt.ErrRetriesExhausted) {
//	    // sleep the shortened interval and try again next wake
//	}
//	defer session.Close()
//
//	err = session.PublishRetained(topic, payload)
package mqtt
