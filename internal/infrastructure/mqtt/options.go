package mqtt

import (
	"fmt"
	"strings"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/fernwood-labs/adsnode/internal/confstore"
)

// Connection constants.
const (
	// defaultConnectTimeout bounds a single connection attempt.
	defaultConnectTimeout = 10 * time.Second

	// defaultPublishTimeout bounds the wait for publish acknowledgment.
	defaultPublishTimeout = 5 * time.Second

	// defaultDisconnectQuiesce is the time (ms) granted to in-flight
	// traffic when closing the session before sleep.
	defaultDisconnectQuiesce = 1000

	// defaultKeepAlive is the keepalive interval for the connection.
	// The session only lives for one wake cycle, so this rarely fires.
	defaultKeepAlive = 60 * time.Second

	// defaultMaxAttempts is the per-cycle connection retry budget.
	defaultMaxAttempts = 5

	// defaultRetryDelay separates consecutive connection attempts.
	defaultRetryDelay = 5 * time.Second

	// clientIDSuffixLen is how many UUID characters tag the client ID.
	clientIDSuffixLen = 8
)

// SessionConfig describes one wake cycle's broker session.
type SessionConfig struct {
	// Broker is the operator-editable record loaded from flash.
	Broker confstore.BrokerConfig

	// NodeID prefixes the MQTT client ID.
	NodeID string

	// QoS is the publish quality-of-service level.
	QoS byte

	// MaxAttempts is the connection retry budget (default 5).
	MaxAttempts int

	// RetryDelay is the fixed delay between attempts (default 5s).
	RetryDelay time.Duration

	// ConnectTimeout bounds a single attempt (default 10s).
	ConnectTimeout time.Duration
}

// withDefaults fills zero values with the package defaults.
func (c SessionConfig) withDefaults() SessionConfig {
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = defaultMaxAttempts
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = defaultRetryDelay
	}
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = defaultConnectTimeout
	}
	if c.NodeID == "" {
		c.NodeID = "adsnode"
	}
	return c
}

// buildClientOptions creates paho options for a single-cycle session.
//
// Auto-reconnect and connect-retry are switched off: retry policy belongs
// to Connect's bounded loop, and a session that drops mid-cycle is dealt
// with by sleeping, not by background reconnection.
func buildClientOptions(cfg SessionConfig) *pahomqtt.ClientOptions {
	opts := pahomqtt.NewClientOptions()

	opts.AddBroker(fmt.Sprintf("tcp://%s:%d", cfg.Broker.Host, cfg.Broker.Port))
	opts.SetClientID(clientID(cfg.NodeID))

	if cfg.Broker.User != "" {
		opts.SetUsername(cfg.Broker.User)
		opts.SetPassword(cfg.Broker.Password)
	}

	opts.SetCleanSession(true)
	opts.SetAutoReconnect(false)
	opts.SetConnectRetry(false)
	opts.SetConnectTimeout(cfg.ConnectTimeout)
	opts.SetKeepAlive(defaultKeepAlive)

	return opts
}

// clientID builds a per-boot client identifier.
//
// The UUID suffix keeps a crashed previous session from colliding with
// this one on brokers that enforce unique client IDs.
func clientID(nodeID string) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:clientIDSuffixLen]
	return fmt.Sprintf("%s-%s", nodeID, suffix)
}
