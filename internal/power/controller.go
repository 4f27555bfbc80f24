package power

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/fernwood-labs/adsnode/internal/infrastructure/config"
	"github.com/fernwood-labs/adsnode/internal/process"
)

// ErrSleepUnavailable is returned when both the deep-sleep request and
// the reset fallback failed. The caller can only exit and let an external
// supervisor restart the agent.
var ErrSleepUnavailable = errors.New("power: deep sleep and reset both unavailable")

// Logger is the logging interface the controller reports through.
type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Info(string, ...any) {}
func (noopLogger) Warn(string, ...any) {}

// runFunc matches process.Run; swapped for a fake in tests.
type runFunc func(ctx context.Context, name string, args ...string) (string, error)

// Controller performs the deep-sleep / reset sequence.
type Controller struct {
	cfg    config.PowerConfig
	logger Logger
	run    runFunc
}

// New creates a Controller from the node's power configuration.
func New(cfg config.PowerConfig) *Controller {
	return &Controller{
		cfg:    cfg,
		logger: noopLogger{},
		run:    process.Run,
	}
}

// SetLogger sets the logger for the controller.
func (c *Controller) SetLogger(logger Logger) {
	c.logger = logger
}

// Sleep requests deep sleep for the given duration.
//
// On a healthy node this call does not return: rtcwake powers the board
// down and the next thing that runs is boot. If execution continues past
// the sleep request — the request failed, or the platform suspended in
// place and resumed — the controller resets the board instead.
//
// Parameters:
//   - ctx: Bounds the helper invocations, not the sleep itself
//   - d: Requested sleep duration; rounded to whole seconds, minimum 1
//
// Returns:
//   - error: ErrSleepUnavailable if both paths failed
func (c *Controller) Sleep(ctx context.Context, d time.Duration) error {
	seconds := int(d.Round(time.Second) / time.Second)
	if seconds < 1 {
		seconds = 1
	}

	c.logger.Info("entering deep sleep",
		"seconds", seconds,
		"mode", c.cfg.Mode,
	)

	out, sleepErr := c.run(ctx, c.cfg.Rtcwake,
		"-m", c.cfg.Mode,
		"-s", strconv.Itoa(seconds),
	)
	if sleepErr != nil {
		c.logger.Warn("deep sleep request failed, falling back to reset",
			"error", sleepErr,
			"output", out,
		)
	}

	// Still executing: either the request failed or we resumed in place.
	if _, resetErr := c.run(ctx, c.cfg.Reboot); resetErr != nil {
		return fmt.Errorf("%w: sleep: %v, reset: %v", ErrSleepUnavailable, sleepErr, resetErr)
	}

	return nil
}
