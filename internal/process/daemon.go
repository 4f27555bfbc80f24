package process

import (
	"context"
	"fmt"
	"os/exec"
	"sync"
	"syscall"
	"time"
)

// Daemon defaults.
const (
	// defaultRestartDelay is the pause before restarting a crashed helper.
	defaultRestartDelay = 2 * time.Second

	// defaultMaxRestarts bounds restart attempts within one portal phase.
	defaultMaxRestarts = 3

	// defaultStopTimeout is how long Stop waits after SIGTERM before SIGKILL.
	defaultStopTimeout = 5 * time.Second
)

// Logger is the logging interface the daemon reports through.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// DaemonConfig describes a helper daemon for one phase of the wake cycle.
type DaemonConfig struct {
	// Name is a human-readable identifier for logging.
	Name string

	// Binary is the path to the executable.
	Binary string

	// Args are command-line arguments to pass to the binary.
	Args []string

	// RestartDelay is the pause before restarting after a crash.
	RestartDelay time.Duration

	// MaxRestarts bounds restart attempts. The portal phase is short;
	// a helper that keeps dying is not coming back this cycle.
	MaxRestarts int

	// StopTimeout is how long Stop waits for graceful exit before SIGKILL.
	StopTimeout time.Duration
}

// Daemon supervises one helper process for a bounded phase.
type Daemon struct {
	cfg    DaemonConfig
	logger Logger

	mu       sync.Mutex
	cmd      *exec.Cmd
	running  bool
	stopping bool
	restarts int
	done     chan struct{}
}

// NewDaemon creates a Daemon with the given configuration.
func NewDaemon(cfg DaemonConfig) *Daemon {
	if cfg.RestartDelay == 0 {
		cfg.RestartDelay = defaultRestartDelay
	}
	if cfg.MaxRestarts == 0 {
		cfg.MaxRestarts = defaultMaxRestarts
	}
	if cfg.StopTimeout == 0 {
		cfg.StopTimeout = defaultStopTimeout
	}

	return &Daemon{
		cfg:    cfg,
		logger: noopLogger{},
	}
}

// SetLogger sets the logger for the daemon.
func (d *Daemon) SetLogger(logger Logger) {
	d.logger = logger
}

// Start launches the helper and begins monitoring it.
//
// If the helper exits unexpectedly it is restarted after RestartDelay, up
// to MaxRestarts times. Start returns an error only if the initial launch
// fails.
func (d *Daemon) Start(ctx context.Context) error {
	d.mu.Lock()
	if d.running {
		d.mu.Unlock()
		return fmt.Errorf("daemon %s is already running", d.cfg.Name)
	}
	d.running = true
	d.stopping = false
	d.restarts = 0
	d.done = make(chan struct{})
	d.mu.Unlock()

	if err := d.launch(ctx); err != nil {
		d.mu.Lock()
		d.running = false
		d.mu.Unlock()
		return err
	}

	go d.monitor(ctx)
	return nil
}

// launch starts the helper process.
func (d *Daemon) launch(ctx context.Context) error {
	d.logger.Info("starting helper",
		"name", d.cfg.Name,
		"binary", d.cfg.Binary,
	)

	cmd := exec.CommandContext(ctx, d.cfg.Binary, d.cfg.Args...) //nolint:gosec // Binary paths come from validated node config
	cmd.SysProcAttr = pgidAttr()

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("starting %s: %w", d.cfg.Name, err)
	}

	d.mu.Lock()
	d.cmd = cmd
	d.mu.Unlock()

	d.logger.Debug("helper started", "name", d.cfg.Name, "pid", cmd.Process.Pid)
	return nil
}

// monitor waits for the helper to exit and restarts it when warranted.
func (d *Daemon) monitor(ctx context.Context) {
	defer close(d.done)

	for {
		d.mu.Lock()
		cmd := d.cmd
		d.mu.Unlock()

		err := cmd.Wait()

		d.mu.Lock()
		if d.stopping || ctx.Err() != nil {
			d.running = false
			d.mu.Unlock()
			return
		}
		d.restarts++
		restarts := d.restarts
		d.mu.Unlock()

		d.logger.Warn("helper exited unexpectedly",
			"name", d.cfg.Name,
			"error", err,
			"restart", restarts,
		)

		if restarts > d.cfg.MaxRestarts {
			d.logger.Error("helper restart budget exhausted", "name", d.cfg.Name)
			d.mu.Lock()
			d.running = false
			d.mu.Unlock()
			return
		}

		select {
		case <-ctx.Done():
			d.mu.Lock()
			d.running = false
			d.mu.Unlock()
			return
		case <-time.After(d.cfg.RestartDelay):
		}

		if err := d.launch(ctx); err != nil {
			d.logger.Error("helper restart failed", "name", d.cfg.Name, "error", err)
			d.mu.Lock()
			d.running = false
			d.mu.Unlock()
			return
		}
	}
}

// Running reports whether the helper is currently supervised.
func (d *Daemon) Running() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.running
}

// Stop terminates the helper and waits for the monitor to finish.
//
// SIGTERM goes to the whole process group; SIGKILL follows after
// StopTimeout. Stopping a daemon that is not running is a no-op.
func (d *Daemon) Stop() {
	d.mu.Lock()
	if !d.running {
		d.mu.Unlock()
		return
	}
	d.stopping = true
	cmd := d.cmd
	done := d.done
	d.mu.Unlock()

	if cmd != nil && cmd.Process != nil {
		// Negative pid signals the process group.
		_ = syscall.Kill(-cmd.Process.Pid, syscall.SIGTERM)
	}

	select {
	case <-done:
	case <-time.After(d.cfg.StopTimeout):
		d.logger.Warn("helper ignored SIGTERM, killing", "name", d.cfg.Name)
		if cmd != nil && cmd.Process != nil {
			_ = syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
		}
		<-done
	}

	d.mu.Lock()
	d.running = false
	d.mu.Unlock()
}
