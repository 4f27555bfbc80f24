package lifecycle

// Logger is the logging interface lifecycle components report through.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}

// Flusher drains pending protocol traffic before the node sleeps.
// The broker session implements it.
type Flusher interface {
	Flush()
}

// Outcome is the dispatcher's verdict after a transition.
type Outcome struct {
	// Sleep is true when the cycle must end now.
	Sleep bool

	// Interval is the sleep duration; meaningful only when Sleep is set.
	Interval Interval
}

// Interval names which of the two sleep durations applies.
type Interval int

const (
	// IntervalFull is the normal inter-cycle sleep.
	IntervalFull Interval = iota

	// IntervalRetry is the shortened post-failure sleep.
	IntervalRetry
)

// String returns a human-readable interval name for logging.
func (i Interval) String() string {
	if i == IntervalRetry {
		return "retry"
	}
	return "full"
}

// Dispatcher applies connectivity events to the cycle context.
//
// It is a plain synchronous transition function: events are dispatched as
// nested calls from the cycle's single control loop, never from another
// goroutine. This replaces the registered-callback indirection of earlier
// firmware revisions while preserving its ordering guarantees.
type Dispatcher struct {
	session Flusher
	logger  Logger
}

// NewDispatcher creates a Dispatcher.
//
// Parameters:
//   - session: Flushed when a fresh broker connection is observed; may be nil
func NewDispatcher(session Flusher) *Dispatcher {
	return &Dispatcher{
		session: session,
		logger:  noopLogger{},
	}
}

// SetLogger sets the logger for the dispatcher.
func (d *Dispatcher) SetLogger(logger Logger) {
	d.logger = logger
}

// Dispatch applies one event to the cycle and returns the verdict.
//
// Policy:
//   - EventLinkLost: burn one unit of the link budget. When the budget is
//     exhausted the node gives up and sleeps the full cycle; retrying a
//     dead link indefinitely only drains the battery.
//   - EventBrokerConnected: clear the sent flag (a fresh session means any
//     stale "already sent" guard belongs to a previous connection), flush
//     pending traffic, and carry on.
//   - EventReadyToSleep: sleep the full cycle.
//
// Dispatch mutates only the Cycle. It never touches the broker record.
func (d *Dispatcher) Dispatch(c *Cycle, e Event) Outcome {
	d.logger.Debug("dispatching event",
		"cycle", c.ID,
		"event", e.String(),
		"state", c.State.String(),
	)

	switch e {
	case EventLinkLost:
		c.State = StateDisconnected
		c.linkBudget--
		if c.linkBudget <= 0 {
			d.logger.Warn("link budget exhausted, giving up until next cycle", "cycle", c.ID)
			return Outcome{Sleep: true, Interval: IntervalFull}
		}
		d.logger.Info("link lost", "cycle", c.ID, "budget_left", c.linkBudget)
		return Outcome{}

	case EventBrokerConnected:
		c.State = StateBrokerConnected
		c.Sent = false
		if d.session != nil {
			d.session.Flush()
		}
		return Outcome{}

	case EventReadyToSleep:
		c.State = StateReadyToSleep
		return Outcome{Sleep: true, Interval: IntervalFull}

	default:
		d.logger.Warn("unknown event ignored", "cycle", c.ID, "event", int(e))
		return Outcome{}
	}
}
