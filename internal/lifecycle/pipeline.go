package lifecycle

import (
	"context"
	"fmt"
)

// PublishResult describes how a pipeline invocation resolved.
type PublishResult int

const (
	// Published means the sample went out and was acknowledged.
	Published PublishResult = iota

	// SkippedAlreadySent means this cycle's publish already happened;
	// the call was a no-op.
	SkippedAlreadySent

	// PublishFailed means the sample could not be delivered. The cycle
	// should end with the shortened retry sleep.
	PublishFailed
)

// String returns a human-readable result name for logging.
func (r PublishResult) String() string {
	switch r {
	case Published:
		return "published"
	case SkippedAlreadySent:
		return "skipped_already_sent"
	case PublishFailed:
		return "publish_failed"
	default:
		return "unknown"
	}
}

// Sampler captures one cycle's readings from the ADC.
type Sampler interface {
	Sample(ctx context.Context) (Sample, error)
}

// BrokerSession is the slice of the broker session the pipeline needs.
type BrokerSession interface {
	IsConnected() bool
	PublishRetained(topic string, payload []byte) error
}

// Pipeline captures the four-channel sample and publishes it once per
// wake cycle.
type Pipeline struct {
	sampler Sampler
	session BrokerSession
	topic   string
	logger  Logger
}

// NewPipeline creates a Pipeline.
//
// Parameters:
//   - sampler: ADC access
//   - session: Live broker session
//   - topic: Configured publish topic from the persisted record
func NewPipeline(sampler Sampler, session BrokerSession, topic string) *Pipeline {
	return &Pipeline{
		sampler: sampler,
		session: session,
		topic:   topic,
		logger:  noopLogger{},
	}
}

// SetLogger sets the logger for the pipeline.
func (p *Pipeline) SetLogger(logger Logger) {
	p.logger = logger
}

// CaptureAndPublish reads the ADC channel set and publishes the sample.
//
// Guarantees, per wake cycle:
//   - The sample is captured at most once (cached on the Cycle).
//   - At most one publish attempt is made. The sent flag is set the
//     moment an attempt is made, successful or not, so repeat loop
//     iterations before sleep cannot re-send.
//   - With no live session, no attempt is made at all: the caller gets
//     ErrSessionDown and must sleep the shortened retry interval.
//
// Returns:
//   - PublishResult: How the invocation resolved
//   - error: nil for Published and SkippedAlreadySent
func (p *Pipeline) CaptureAndPublish(ctx context.Context, c *Cycle) (PublishResult, error) {
	if c.Sent {
		p.logger.Debug("sample already sent this cycle", "cycle", c.ID)
		return SkippedAlreadySent, nil
	}

	if p.session == nil || !p.session.IsConnected() {
		return PublishFailed, ErrSessionDown
	}

	if c.Sample == nil {
		sample, err := p.sampler.Sample(ctx)
		if err != nil {
			return PublishFailed, fmt.Errorf("%w: %w", ErrCaptureFailed, err)
		}
		c.Sample = &sample

		for _, r := range sample.Readings {
			p.logger.Debug("channel read", "cycle", c.ID, "channel", r.Channel, "raw", r.Raw)
		}
	}

	payload, err := c.Sample.Payload()
	if err != nil {
		return PublishFailed, err
	}

	// One attempt per cycle, whatever happens next.
	c.Sent = true

	if err := p.session.PublishRetained(p.topic, payload); err != nil {
		return PublishFailed, err
	}

	p.logger.Info("sample published", "cycle", c.ID, "topic", p.topic)
	return Published, nil
}
