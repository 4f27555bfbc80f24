// adsnode - battery powered ADS1115 sampling node
//
// This is the main entry point for the adsnode agent. The process is
// deliberately short-lived: it wakes, brings the network up, publishes
// one set of readings, and puts the board into deep sleep. A supervisor
// (systemd) restarts it if sleep ever fails to halt execution.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fernwood-labs/adsnode/internal/confstore"
	"github.com/fernwood-labs/adsnode/internal/hal"
	"github.com/fernwood-labs/adsnode/internal/infrastructure/config"
	"github.com/fernwood-labs/adsnode/internal/infrastructure/logging"
	"github.com/fernwood-labs/adsnode/internal/infrastructure/mqtt"
	"github.com/fernwood-labs/adsnode/internal/journal"
	"github.com/fernwood-labs/adsnode/internal/lifecycle"
	"github.com/fernwood-labs/adsnode/internal/portal"
	"github.com/fernwood-labs/adsnode/internal/power"
	"github.com/fernwood-labs/adsnode/internal/wifi"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
)

// Default configuration file path
const defaultConfigPath = "configs/node.yaml"

// journalKeep bounds the journal to this many cycle rows.
const journalKeep = 500

func main() {
	// Cancel on interrupt signals so a bench session can stop the node
	// mid-cycle without waiting for deep sleep.
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is one complete wake cycle, separated from main for testability.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//
// Returns:
//   - error: nil when the node went to sleep (which normally means this
//     process never returns at all), or error describing failure
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// Reinitialise logger with config settings. With debug off this
	// discards everything, including its own setup messages.
	log = logging.New(cfg.Logging, version)
	defer log.Close() //nolint:errcheck // Going to sleep either way
	log.Info("adsnode waking", "version", version, "commit", commit, "config", configPath)

	store := confstore.New(cfg.Store.Path)

	p := portal.New(cfg.Portal, cfg.WiFi.Interface)
	p.SetLogger(log)
	wifiMgr := wifi.New(cfg.WiFi, p)
	wifiMgr.SetLogger(log)

	// A held reset pin wipes the broker record and every stored network
	// before anything else happens; this boot then lands in the portal.
	if hal.ResetRequested(cfg.GPIO.ResetPin) {
		log.Warn("factory reset requested via pin")
		if resetErr := store.Reset(); resetErr != nil {
			log.Error("wiping broker record", "error", resetErr)
		}
		if resetErr := wifiMgr.ResetNetworks(ctx); resetErr != nil {
			log.Error("wiping stored networks", "error", resetErr)
		}
	}

	// Journal failures never cost a reading.
	jnl, err := journal.Open(ctx, cfg.Journal)
	if err != nil {
		log.Error("journal unavailable, continuing without", "error", err)
		jnl = nil
	}
	defer jnl.Close() //nolint:errcheck // Best effort on the way to sleep

	cycle, interval, disposition := executeCycle(ctx, cfg, log, store, wifiMgr)

	if jErr := jnl.RecordCycle(ctx, cycle, disposition); jErr != nil {
		log.Error("recording cycle", "error", jErr)
	}
	if jErr := jnl.Prune(ctx, journalKeep); jErr != nil {
		log.Error("pruning journal", "error", jErr)
	}

	if ctx.Err() != nil {
		// Interrupted: exit instead of sleeping so the operator keeps
		// control of the board.
		return ctx.Err()
	}

	sleepFor := cfg.Cycle.SleepDuration()
	if interval == lifecycle.IntervalRetry {
		sleepFor = cfg.Cycle.RetryDuration()
	}

	log.Info("cycle complete",
		"cycle_id", cycle.ID,
		"disposition", disposition,
		"state", cycle.State,
		"sleep", sleepFor,
	)

	pwr := power.New(cfg.Power)
	pwr.SetLogger(log)
	return pwr.Sleep(ctx, sleepFor)
}

// executeCycle runs the measurement lifecycle for this wake.
//
// All failure modes resolve to a disposition label and a sleep interval;
// the node always goes back to sleep, shortened after failures so the
// next attempt comes sooner.
//
// Returns:
//   - *lifecycle.Cycle: The finished cycle, for the journal
//   - lifecycle.Interval: Which sleep interval to use
//   - string: Short disposition label for the journal
func executeCycle(
	ctx context.Context,
	cfg *config.Config,
	log *logging.Logger,
	store *confstore.Store,
	wifiMgr *wifi.Manager,
) (*lifecycle.Cycle, lifecycle.Interval, string) {
	cycle := lifecycle.NewCycle(cfg.Cycle.LinkRetries)

	broker, err := store.Load()
	if err != nil {
		log.Error("loading broker record", "error", err)
		return cycle, lifecycle.IntervalRetry, "store-unavailable"
	}

	broker, changed, err := wifiMgr.Associate(ctx, broker)
	if err != nil {
		log.Error("network association failed", "error", err)
		return cycle, lifecycle.IntervalRetry, "no-network"
	}

	// Flash writes are rationed: only a genuinely edited record is saved.
	if changed {
		if saveErr := store.Save(broker); saveErr != nil {
			log.Error("saving broker record", "error", saveErr)
		} else {
			log.Info("broker record updated", "host", broker.Host, "topic", broker.Topic)
		}
	}

	sampler, err := hal.New(cfg.ADC, cfg.GPIO.SamplePin)
	if err != nil {
		log.Error("opening ADC", "error", err)
		return cycle, lifecycle.IntervalRetry, "no-adc"
	}
	defer sampler.Close() //nolint:errcheck // Best effort on the way to sleep

	session, err := connectBroker(cfg, broker)
	if err != nil {
		log.Error("broker connection failed", "error", err)
		return cycle, lifecycle.IntervalRetry, "no-broker"
	}
	defer func() {
		if session != nil {
			session.Close() //nolint:errcheck // Best effort on the way to sleep
		}
	}()

	dispatcher := lifecycle.NewDispatcher(session)
	dispatcher.SetLogger(log)
	pipeline := lifecycle.NewPipeline(sampler, session, broker.Topic)
	pipeline.SetLogger(log)

	dispatcher.Dispatch(cycle, lifecycle.EventBrokerConnected)

	for {
		result, err := pipeline.CaptureAndPublish(ctx, cycle)

		switch {
		case result == lifecycle.Published || result == lifecycle.SkippedAlreadySent:
			outcome := dispatcher.Dispatch(cycle, lifecycle.EventReadyToSleep)
			return cycle, outcome.Interval, "published"

		case errors.Is(err, lifecycle.ErrSessionDown):
			outcome := dispatcher.Dispatch(cycle, lifecycle.EventLinkLost)
			if outcome.Sleep {
				log.Warn("link retry budget exhausted", "cycle_id", cycle.ID)
				return cycle, outcome.Interval, "link-budget-exhausted"
			}

			// Rebuild the session; the cached sample survives on the
			// cycle so the reading is not recaptured.
			session.Close() //nolint:errcheck // Already down
			session, err = connectBroker(cfg, broker)
			if err != nil {
				log.Error("broker reconnection failed", "error", err)
				session = nil
				return cycle, lifecycle.IntervalRetry, "no-broker"
			}
			dispatcher = lifecycle.NewDispatcher(session)
			dispatcher.SetLogger(log)
			pipeline = lifecycle.NewPipeline(sampler, session, broker.Topic)
			pipeline.SetLogger(log)
			dispatcher.Dispatch(cycle, lifecycle.EventBrokerConnected)

		default:
			log.Error("publish pipeline failed", "error", err, "result", result)
			return cycle, lifecycle.IntervalRetry, "publish-failed"
		}
	}
}

// connectBroker opens a bounded-retry broker session from config.
func connectBroker(cfg *config.Config, broker confstore.BrokerConfig) (*mqtt.Session, error) {
	return mqtt.Connect(mqtt.SessionConfig{
		Broker:      broker,
		NodeID:      cfg.Node.ID,
		QoS:         byte(cfg.Broker.QoS),
		MaxAttempts: cfg.Broker.MaxAttempts,
		RetryDelay:  cfg.Broker.RetryDelayDuration(),
	})
}

// getConfigPath returns the configuration file path.
// Uses ADSNODE_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("ADSNODE_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}
