package lifecycle

import (
	"github.com/google/uuid"
)

// ChannelCount is the number of ADC channels sampled each cycle.
// Channels are read in fixed order 0..3.
const ChannelCount = 4

// State reflects the node's position in its connectivity lifecycle.
type State int

const (
	StateDisconnected State = iota
	StateNetworkConnected
	StateBrokerConnected
	StateReadyToSleep
)

// String returns a human-readable state name for logging.
func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateNetworkConnected:
		return "network_connected"
	case StateBrokerConnected:
		return "broker_connected"
	case StateReadyToSleep:
		return "ready_to_sleep"
	default:
		return "unknown"
	}
}

// Event is a connectivity transition observed during the cycle.
type Event int

const (
	// EventLinkLost fires when the Wi-Fi link or broker session drops.
	EventLinkLost Event = iota

	// EventBrokerConnected fires on a fresh broker session.
	EventBrokerConnected

	// EventReadyToSleep fires when the cycle's work is done.
	EventReadyToSleep
)

// String returns a human-readable event name for logging.
func (e Event) String() string {
	switch e {
	case EventLinkLost:
		return "link_lost"
	case EventBrokerConnected:
		return "broker_connected"
	case EventReadyToSleep:
		return "ready_to_sleep"
	default:
		return "unknown"
	}
}

// Reading is one raw ADC conversion. No scaling is applied anywhere in
// the firmware; the backend receives raw counts.
type Reading struct {
	Channel int
	Raw     int16
}

// Sample is one wake cycle's worth of readings, captured atomically within
// the cycle and never persisted.
type Sample struct {
	Readings [ChannelCount]Reading
}

// Cycle is the per-wake-cycle context.
//
// It is created at wake, threaded through the dispatcher and pipeline, and
// discarded at sleep. There is exactly one Cycle alive at a time and one
// goroutine touching it.
type Cycle struct {
	// ID tags this cycle in logs and the journal.
	ID string

	// State is the current lifecycle state. Mutated only by Dispatcher.
	State State

	// Sample is the cycle's captured sample, nil until capture.
	Sample *Sample

	// Sent is true once this cycle's publish attempt has been made.
	// Reset only by a fresh EventBrokerConnected.
	Sent bool

	// linkBudget counts down tolerated link losses.
	linkBudget int
}

// NewCycle creates the context for one wake cycle.
//
// Parameters:
//   - linkRetries: The per-boot budget of tolerated link-lost events
func NewCycle(linkRetries int) *Cycle {
	return &Cycle{
		ID:         uuid.NewString(),
		State:      StateDisconnected,
		linkBudget: linkRetries,
	}
}

// LinkBudget returns the remaining tolerated link losses.
func (c *Cycle) LinkBudget() int {
	return c.linkBudget
}
