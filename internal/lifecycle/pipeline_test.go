package lifecycle

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
)

// =============================================================================
// Fakes
// =============================================================================

type fakeSampler struct {
	sample   Sample
	err      error
	captures int
}

func (f *fakeSampler) Sample(_ context.Context) (Sample, error) {
	f.captures++
	return f.sample, f.err
}

type fakeSession struct {
	connected  bool
	publishErr error
	published  [][]byte
	topics     []string
}

func (f *fakeSession) IsConnected() bool { return f.connected }

func (f *fakeSession) PublishRetained(topic string, payload []byte) error {
	f.topics = append(f.topics, topic)
	f.published = append(f.published, payload)
	return f.publishErr
}

func testSample() Sample {
	return Sample{Readings: [ChannelCount]Reading{
		{Channel: 0, Raw: 100},
		{Channel: 1, Raw: -50},
		{Channel: 2, Raw: 0},
		{Channel: 3, Raw: 32767},
	}}
}

// =============================================================================
// Payload Tests
// =============================================================================

func TestSamplePayload(t *testing.T) {
	sample := testSample()

	payload, err := sample.Payload()
	if err != nil {
		t.Fatalf("Payload() error = %v", err)
	}

	var fields map[string]string
	if err := json.Unmarshal(payload, &fields); err != nil {
		t.Fatalf("payload is not a flat string map: %v", err)
	}

	want := map[string]string{
		"channel_0": "100",
		"channel_1": "-50",
		"channel_2": "0",
		"channel_3": "32767",
	}
	if len(fields) != len(want) {
		t.Errorf("payload has %d fields, want %d", len(fields), len(want))
	}
	for key, value := range want {
		if fields[key] != value {
			t.Errorf("payload[%q] = %q, want %q", key, fields[key], value)
		}
	}
}

func TestSamplePayload_OrderIndependent(t *testing.T) {
	// Same readings listed in a different order produce the same payload.
	shuffled := Sample{Readings: [ChannelCount]Reading{
		{Channel: 3, Raw: 32767},
		{Channel: 0, Raw: 100},
		{Channel: 2, Raw: 0},
		{Channel: 1, Raw: -50},
	}}

	ordered := testSample()
	a, err := ordered.Payload()
	if err != nil {
		t.Fatalf("Payload() error = %v", err)
	}
	b, err := shuffled.Payload()
	if err != nil {
		t.Fatalf("Payload() error = %v", err)
	}

	if string(a) != string(b) {
		t.Errorf("payload depends on reading order:\n%s\n%s", a, b)
	}
}

func TestSamplePayload_MinimumValue(t *testing.T) {
	sample := Sample{Readings: [ChannelCount]Reading{
		{Channel: 0, Raw: -32768},
		{Channel: 1}, {Channel: 2}, {Channel: 3},
	}}

	payload, err := sample.Payload()
	if err != nil {
		t.Fatalf("Payload() error = %v", err)
	}

	var fields map[string]string
	if err := json.Unmarshal(payload, &fields); err != nil {
		t.Fatalf("decoding payload: %v", err)
	}
	if fields["channel_0"] != "-32768" {
		t.Errorf("channel_0 = %q, want %q", fields["channel_0"], "-32768")
	}
}

// =============================================================================
// CaptureAndPublish Tests
// =============================================================================

func TestCaptureAndPublish(t *testing.T) {
	sampler := &fakeSampler{sample: testSample()}
	session := &fakeSession{connected: true}
	p := NewPipeline(sampler, session, "sensors/ads")
	c := NewCycle(5)

	result, err := p.CaptureAndPublish(context.Background(), c)
	if err != nil {
		t.Fatalf("CaptureAndPublish() error = %v", err)
	}
	if result != Published {
		t.Errorf("result = %v, want Published", result)
	}

	if len(session.published) != 1 {
		t.Fatalf("publish count = %d, want 1", len(session.published))
	}
	if session.topics[0] != "sensors/ads" {
		t.Errorf("topic = %q, want %q", session.topics[0], "sensors/ads")
	}
	if !c.Sent {
		t.Error("Sent flag not set after publish")
	}
}

func TestCaptureAndPublish_IdempotentWithinCycle(t *testing.T) {
	// The control loop may run several times before sleep is reached;
	// only the first iteration publishes.
	sampler := &fakeSampler{sample: testSample()}
	session := &fakeSession{connected: true}
	p := NewPipeline(sampler, session, "sensors/ads")
	c := NewCycle(5)

	for i := 0; i < 4; i++ {
		result, err := p.CaptureAndPublish(context.Background(), c)
		if err != nil {
			t.Fatalf("iteration %d: error = %v", i, err)
		}
		if i == 0 && result != Published {
			t.Errorf("first iteration result = %v, want Published", result)
		}
		if i > 0 && result != SkippedAlreadySent {
			t.Errorf("iteration %d result = %v, want SkippedAlreadySent", i, result)
		}
	}

	if len(session.published) != 1 {
		t.Errorf("publish count = %d, want exactly 1", len(session.published))
	}
	if sampler.captures != 1 {
		t.Errorf("capture count = %d, want exactly 1", sampler.captures)
	}
}

func TestCaptureAndPublish_SessionDown(t *testing.T) {
	sampler := &fakeSampler{sample: testSample()}
	session := &fakeSession{connected: false}
	p := NewPipeline(sampler, session, "sensors/ads")
	c := NewCycle(5)

	result, err := p.CaptureAndPublish(context.Background(), c)
	if result != PublishFailed {
		t.Errorf("result = %v, want PublishFailed", result)
	}
	if !errors.Is(err, ErrSessionDown) {
		t.Errorf("error = %v, want ErrSessionDown", err)
	}

	// No attempt was made, so the cycle's one attempt is still available.
	if c.Sent {
		t.Error("Sent flag set without a publish attempt")
	}
	if len(session.published) != 0 {
		t.Error("pipeline published on a dead session")
	}
}

func TestCaptureAndPublish_CaptureError(t *testing.T) {
	sampler := &fakeSampler{err: errors.New("i2c read timeout")}
	session := &fakeSession{connected: true}
	p := NewPipeline(sampler, session, "sensors/ads")
	c := NewCycle(5)

	result, err := p.CaptureAndPublish(context.Background(), c)
	if result != PublishFailed {
		t.Errorf("result = %v, want PublishFailed", result)
	}
	if !errors.Is(err, ErrCaptureFailed) {
		t.Errorf("error = %v, want ErrCaptureFailed", err)
	}
	if len(session.published) != 0 {
		t.Error("pipeline published without a sample")
	}
}

func TestCaptureAndPublish_FailedAttemptStillCounts(t *testing.T) {
	sampler := &fakeSampler{sample: testSample()}
	session := &fakeSession{connected: true, publishErr: errors.New("broker rejected")}
	p := NewPipeline(sampler, session, "sensors/ads")
	c := NewCycle(5)

	result, err := p.CaptureAndPublish(context.Background(), c)
	if result != PublishFailed {
		t.Errorf("result = %v, want PublishFailed", result)
	}
	if err == nil {
		t.Error("expected publish error")
	}

	// The attempt was made; a retry within this cycle is not allowed.
	if !c.Sent {
		t.Error("Sent flag must be set once an attempt is made")
	}

	result, err = p.CaptureAndPublish(context.Background(), c)
	if result != SkippedAlreadySent || err != nil {
		t.Errorf("second call = (%v, %v), want (SkippedAlreadySent, nil)", result, err)
	}
	if len(session.published) != 1 {
		t.Errorf("publish count = %d, want 1", len(session.published))
	}
}

func TestCaptureAndPublish_SentFlagResetAllowsNewAttempt(t *testing.T) {
	sampler := &fakeSampler{sample: testSample()}
	session := &fakeSession{connected: true}
	p := NewPipeline(sampler, session, "sensors/ads")
	d := NewDispatcher(noopFlusher{})
	c := NewCycle(5)

	if _, err := p.CaptureAndPublish(context.Background(), c); err != nil {
		t.Fatalf("CaptureAndPublish() error = %v", err)
	}

	// A fresh broker connection clears the guard; the cached sample is
	// reused rather than recaptured.
	d.Dispatch(c, EventBrokerConnected)

	result, err := p.CaptureAndPublish(context.Background(), c)
	if err != nil {
		t.Fatalf("CaptureAndPublish() after reset error = %v", err)
	}
	if result != Published {
		t.Errorf("result = %v, want Published after flag reset", result)
	}
	if sampler.captures != 1 {
		t.Errorf("capture count = %d, want 1 (sample cached across attempts)", sampler.captures)
	}
}

type noopFlusher struct{}

func (noopFlusher) Flush() {}
