package wifi

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fernwood-labs/adsnode/internal/confstore"
	"github.com/fernwood-labs/adsnode/internal/infrastructure/config"
	"github.com/fernwood-labs/adsnode/internal/portal"
	"github.com/fernwood-labs/adsnode/internal/process"
)

// defaultPollInterval is the gap between association status checks.
const defaultPollInterval = time.Second

// runFunc matches process.Run and is swapped out in tests.
type runFunc func(ctx context.Context, name string, args ...string) (string, error)

// portalRunner is the configuration portal surface the manager needs.
type portalRunner interface {
	Run(ctx context.Context, current confstore.BrokerConfig) (portal.Submission, error)
}

// Logger is the logging interface the manager reports through.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Manager associates the node with a network, opening the portal as a
// fallback when stored credentials do not produce a link.
type Manager struct {
	cfg    config.WiFiConfig
	portal portalRunner
	logger Logger

	run          runFunc
	pollInterval time.Duration
}

// New creates a Manager.
//
// Parameters:
//   - cfg: Wireless settings from node.yaml
//   - p: Portal to open when stored credentials fail
func New(cfg config.WiFiConfig, p portalRunner) *Manager {
	return &Manager{
		cfg:          cfg,
		portal:       p,
		logger:       noopLogger{},
		run:          process.Run,
		pollInterval: defaultPollInterval,
	}
}

// SetLogger sets the logger for the manager.
func (m *Manager) SetLogger(logger Logger) {
	m.logger = logger
}

// Associate brings the network link up.
//
// Stored credentials are tried first; wpa_supplicant reconnects on its
// own, so this is a bounded wait rather than an active join. When the
// link does not come up the portal opens, the submission is written into
// wpa_supplicant's config, and the join is retried once.
//
// Parameters:
//   - ctx: Cancels association early
//   - current: Broker record used to pre-populate the portal form
//
// Returns:
//   - confstore.BrokerConfig: The broker record to use this cycle; equal
//     to current unless the portal produced an edit
//   - bool: True when the returned record differs from current
//   - error: ErrAssociationTimeout, ErrPortalFailed, ErrWpaUnavailable,
//     or ctx.Err()
func (m *Manager) Associate(ctx context.Context, current confstore.BrokerConfig) (confstore.BrokerConfig, bool, error) {
	err := m.waitForLink(ctx)
	if err == nil {
		m.logger.Debug("network up via stored credentials", "interface", m.cfg.Interface)
		return current, false, nil
	}
	if ctx.Err() != nil || errors.Is(err, ErrWpaUnavailable) {
		return current, false, err
	}

	m.logger.Info("stored credentials failed, opening portal", "cause", err)

	sub, err := m.portal.Run(ctx, current)
	if err != nil {
		return current, false, fmt.Errorf("%w: %w", ErrPortalFailed, err)
	}

	if sub.SSID != "" {
		if err := m.applyCredentials(ctx, sub.SSID, sub.Passphrase); err != nil {
			return current, false, err
		}
	}

	if err := m.waitForLink(ctx); err != nil {
		return current, false, err
	}

	changed := !sub.Broker.Equal(current)
	return sub.Broker, changed, nil
}

// ResetNetworks wipes every stored network from wpa_supplicant.
//
// Called on the factory-reset path; the next boot lands in the portal.
func (m *Manager) ResetNetworks(ctx context.Context) error {
	if _, err := m.wpa(ctx, "remove_network", "all"); err != nil {
		return err
	}
	_, err := m.wpa(ctx, "save_config")
	return err
}

// waitForLink polls association state until COMPLETED or the join
// timeout elapses. At least one status check happens even with a zero
// timeout.
func (m *Manager) waitForLink(ctx context.Context) error {
	deadline := time.Now().Add(m.cfg.JoinTimeoutDuration())

	for {
		state, err := m.linkState(ctx)
		if err != nil {
			return err
		}
		if state == "COMPLETED" {
			return nil
		}

		if time.Now().After(deadline) {
			return fmt.Errorf("%w: last state %s", ErrAssociationTimeout, state)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(m.pollInterval):
		}
	}
}

// linkState extracts wpa_state from a status dump.
func (m *Manager) linkState(ctx context.Context) (string, error) {
	out, err := m.wpa(ctx, "status")
	if err != nil {
		return "", err
	}
	for _, line := range strings.Split(out, "\n") {
		if v, ok := strings.CutPrefix(strings.TrimSpace(line), "wpa_state="); ok {
			return v, nil
		}
	}
	return "UNKNOWN", nil
}

// applyCredentials writes a portal submission into wpa_supplicant and
// persists it, replacing whatever network was selected before.
func (m *Manager) applyCredentials(ctx context.Context, ssid, passphrase string) error {
	id, err := m.wpa(ctx, "add_network")
	if err != nil {
		return err
	}

	steps := [][]string{
		{"set_network", id, "ssid", fmt.Sprintf("%q", ssid)},
	}
	if passphrase == "" {
		steps = append(steps, []string{"set_network", id, "key_mgmt", "NONE"})
	} else {
		steps = append(steps, []string{"set_network", id, "psk", fmt.Sprintf("%q", passphrase)})
	}
	steps = append(steps,
		[]string{"select_network", id},
		[]string{"save_config"},
	)

	for _, args := range steps {
		out, err := m.wpa(ctx, args...)
		if err != nil {
			return err
		}
		if out == "FAIL" {
			return fmt.Errorf("wpa_cli %s: FAIL", strings.Join(args, " "))
		}
	}

	m.logger.Info("network credentials updated", "ssid", ssid)
	return nil
}

// wpa runs a single wpa_cli command against the configured interface.
func (m *Manager) wpa(ctx context.Context, args ...string) (string, error) {
	full := append([]string{"-i", m.cfg.Interface}, args...)
	out, err := m.run(ctx, m.cfg.WpaCli, full...)
	if err != nil {
		if ctx.Err() != nil {
			return out, err
		}
		return out, fmt.Errorf("%w: %v", ErrWpaUnavailable, err)
	}
	return out, nil
}
