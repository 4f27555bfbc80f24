package mqtt

import (
	"fmt"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
)

func defaultSleep(d time.Duration) { time.Sleep(d) }

// newPahoClient builds the underlying paho client. Tests substitute a fake;
// nothing else should touch this.
var newPahoClient = func(opts *pahomqtt.ClientOptions) pahomqtt.Client {
	return pahomqtt.NewClient(opts)
}

// sleepBetweenAttempts waits out the retry delay. Tests substitute a no-op.
var sleepBetweenAttempts = defaultSleep

// Session is one wake cycle's connection to the broker.
//
// It is owned by the single cycle goroutine; no method is called
// concurrently. The session does not reconnect on its own: if the link
// drops, the cycle's dispatcher decides what happens next.
type Session struct {
	client pahomqtt.Client
	cfg    SessionConfig

	// lastToken tracks the most recent publish for Flush.
	lastToken pahomqtt.Token
}

// Connect opens a session to the configured broker.
//
// It makes at most cfg.MaxAttempts connection attempts, each bounded by
// cfg.ConnectTimeout and separated by cfg.RetryDelay. Each attempt is
// independent; no state is shared between them beyond the counter.
//
// Parameters:
//   - cfg: Session configuration built from the persisted broker record
//
// Returns:
//   - *Session: Connected session ready to publish
//   - error: ErrNoBroker if the record has no host, or ErrRetriesExhausted
//     wrapping the final attempt's failure
func Connect(cfg SessionConfig) (*Session, error) {
	cfg = cfg.withDefaults()

	if cfg.Broker.Host == "" {
		return nil, ErrNoBroker
	}

	opts := buildClientOptions(cfg)

	var lastErr error
	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		client := newPahoClient(opts)

		token := client.Connect()
		if token.WaitTimeout(cfg.ConnectTimeout) && token.Error() == nil {
			return &Session{client: client, cfg: cfg}, nil
		}

		if err := token.Error(); err != nil {
			lastErr = fmt.Errorf("%w: attempt %d: %w", ErrConnectionFailed, attempt, err)
		} else {
			lastErr = fmt.Errorf("%w: attempt %d: timeout after %v", ErrConnectionFailed, attempt, cfg.ConnectTimeout)
		}

		// No delay after the final attempt; the caller is about to sleep
		// far longer than RetryDelay anyway.
		if attempt < cfg.MaxAttempts {
			sleepBetweenAttempts(cfg.RetryDelay)
		}
	}

	return nil, fmt.Errorf("%w after %d attempts: %w", ErrRetriesExhausted, cfg.MaxAttempts, lastErr)
}

// IsConnected reports whether the session is still live.
func (s *Session) IsConnected() bool {
	return s != nil && s.client != nil && s.client.IsConnected()
}

// Flush waits for the most recent publish to be acknowledged.
//
// Called by the dispatcher when preparing for sleep, so the deep-sleep
// call cannot cut off an in-flight sample.
func (s *Session) Flush() {
	if s == nil || s.lastToken == nil {
		return
	}
	s.lastToken.WaitTimeout(defaultPublishTimeout)
}

// Close disconnects from the broker, granting in-flight traffic a short
// quiesce period. Safe to call on a nil or never-connected session.
func (s *Session) Close() error {
	if s == nil || s.client == nil {
		return nil
	}
	s.Flush()
	s.client.Disconnect(defaultDisconnectQuiesce)
	return nil
}
