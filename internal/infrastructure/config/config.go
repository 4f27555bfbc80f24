package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// retryDivisor is the fixed ratio between the full sleep cycle and the
// shortened retry interval used after a failed cycle.
const retryDivisor = 5

// Config is the root configuration structure for an adsnode sensor node.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Node    NodeConfig    `yaml:"node"`
	Cycle   CycleConfig   `yaml:"cycle"`
	Store   StoreConfig   `yaml:"store"`
	WiFi    WiFiConfig    `yaml:"wifi"`
	Portal  PortalConfig  `yaml:"portal"`
	Broker  BrokerConfig  `yaml:"broker"`
	ADC     ADCConfig     `yaml:"adc"`
	GPIO    GPIOConfig    `yaml:"gpio"`
	Power   PowerConfig   `yaml:"power"`
	Journal JournalConfig `yaml:"journal"`
	Logging LoggingConfig `yaml:"logging"`
}

// NodeConfig identifies this node.
type NodeConfig struct {
	ID string `yaml:"id"`
}

// CycleConfig contains wake-cycle timing settings.
type CycleConfig struct {
	// Sleep is the full deep-sleep duration between successful cycles (seconds).
	Sleep int `yaml:"sleep"`

	// LinkRetries is the per-boot budget of tolerated link-lost events
	// before the node gives up and sleeps the full cycle.
	LinkRetries int `yaml:"link_retries"`
}

// StoreConfig contains persistent broker-record settings.
type StoreConfig struct {
	// Path is the flash location of the persisted broker record.
	Path string `yaml:"path"`
}

// WiFiConfig contains network association settings.
type WiFiConfig struct {
	// Interface is the wireless interface name (e.g. "wlan0").
	Interface string `yaml:"interface"`

	// JoinTimeout bounds the attempt to join a previously associated
	// network before the portal opens (seconds).
	JoinTimeout int `yaml:"join_timeout"`

	// WpaCli is the path to the wpa_cli binary.
	WpaCli string `yaml:"wpa_cli"`
}

// PortalConfig contains configuration portal settings.
type PortalConfig struct {
	SSID     string `yaml:"ssid"`
	Password string `yaml:"password"`

	// Timeout closes an unattended portal (seconds).
	Timeout int `yaml:"timeout"`

	// ListenAddr is the captive portal HTTP listen address.
	ListenAddr string `yaml:"listen_addr"`

	// Hostapd and Dnsmasq are paths to the AP-mode helper daemons.
	Hostapd string `yaml:"hostapd"`
	Dnsmasq string `yaml:"dnsmasq"`
}

// BrokerConfig contains broker session settings that are not operator-editable.
// Host, credentials, port and topic come from the persisted record instead.
type BrokerConfig struct {
	// MaxAttempts is the connection retry budget per wake cycle.
	MaxAttempts int `yaml:"max_attempts"`

	// RetryDelay is the fixed delay between connection attempts (seconds).
	RetryDelay int `yaml:"retry_delay"`

	// QoS is the publish quality-of-service level (0, 1 or 2).
	QoS int `yaml:"qos"`
}

// ADCConfig contains ADS1115 settings.
type ADCConfig struct {
	// Bus is the I2C bus name ("" selects the first available bus).
	Bus string `yaml:"bus"`

	// Address is the 7-bit I2C address of the ADS1115.
	Address int `yaml:"address"`
}

// GPIOConfig contains pin assignments.
type GPIOConfig struct {
	// SamplePin is driven HIGH for the duration of ADC sampling.
	SamplePin string `yaml:"sample_pin"`

	// ResetPin, when held at boot, wipes the persisted broker record.
	ResetPin string `yaml:"reset_pin"`
}

// PowerConfig contains deep-sleep controller settings.
type PowerConfig struct {
	// Rtcwake is the path to the rtcwake binary.
	Rtcwake string `yaml:"rtcwake"`

	// Mode is the rtcwake suspend mode (e.g. "mem", "off").
	Mode string `yaml:"mode"`

	// Reboot is the command run when deep sleep fails to halt execution.
	Reboot string `yaml:"reboot"`
}

// JournalConfig contains wake-cycle journal settings.
type JournalConfig struct {
	// Enabled turns the journal on. Default false: every row is a flash write.
	Enabled bool `yaml:"enabled"`

	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	// Debug enables diagnostic output. When false all logging is
	// suppressed entirely, whatever the other settings say.
	Debug bool `yaml:"debug"`

	Level  string `yaml:"level"`
	Format string `yaml:"format"`

	// Output is "stdout", "stderr" or "serial:<device>[@baud]".
	Output string `yaml:"output"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: ADSNODE_SECTION_KEY
// For example: ADSNODE_STORE_PATH, ADSNODE_WIFI_INTERFACE
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
//
// The timing defaults mirror the board this agent replaces: a five minute
// cycle, a one minute retry interval (cycle/5), five broker attempts five
// seconds apart, and a 300 second portal timeout.
func defaultConfig() *Config {
	return &Config{
		Node: NodeConfig{
			ID: "adsnode-001",
		},
		Cycle: CycleConfig{
			Sleep:       300,
			LinkRetries: 5,
		},
		Store: StoreConfig{
			Path: "/var/lib/adsnode/config.json",
		},
		WiFi: WiFiConfig{
			Interface:   "wlan0",
			JoinTimeout: 30,
			WpaCli:      "/usr/sbin/wpa_cli",
		},
		Portal: PortalConfig{
			SSID:       "AutoConnectAP",
			Password:   "password",
			Timeout:    300,
			ListenAddr: "192.168.4.1:80",
			Hostapd:    "/usr/sbin/hostapd",
			Dnsmasq:    "/usr/sbin/dnsmasq",
		},
		Broker: BrokerConfig{
			MaxAttempts: 5,
			RetryDelay:  5,
			QoS:         0,
		},
		ADC: ADCConfig{
			Bus:     "",
			Address: 0x48,
		},
		GPIO: GPIOConfig{
			SamplePin: "GPIO17",
			ResetPin:  "GPIO27",
		},
		Power: PowerConfig{
			Rtcwake: "/usr/sbin/rtcwake",
			Mode:    "mem",
			Reboot:  "/sbin/reboot",
		},
		Journal: JournalConfig{
			Enabled:     false,
			Path:        "/var/lib/adsnode/journal.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		Logging: LoggingConfig{
			Debug:  false,
			Level:  "info",
			Format: "text",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: ADSNODE_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("ADSNODE_NODE_ID"); v != "" {
		cfg.Node.ID = v
	}
	if v := os.Getenv("ADSNODE_STORE_PATH"); v != "" {
		cfg.Store.Path = v
	}
	if v := os.Getenv("ADSNODE_WIFI_INTERFACE"); v != "" {
		cfg.WiFi.Interface = v
	}
	if v := os.Getenv("ADSNODE_JOURNAL_PATH"); v != "" {
		cfg.Journal.Path = v
	}
	if v := os.Getenv("ADSNODE_LOGGING_DEBUG"); v != "" {
		if debug, err := strconv.ParseBool(v); err == nil {
			cfg.Logging.Debug = debug
		}
	}
}

// Validate checks the configuration for errors.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	if c.Node.ID == "" {
		errs = append(errs, "node.id is required")
	}

	if c.Cycle.Sleep < retryDivisor {
		errs = append(errs, fmt.Sprintf("cycle.sleep must be at least %d seconds", retryDivisor))
	}
	if c.Cycle.LinkRetries < 1 {
		errs = append(errs, "cycle.link_retries must be at least 1")
	}

	if c.Store.Path == "" {
		errs = append(errs, "store.path is required")
	}

	if c.WiFi.Interface == "" {
		errs = append(errs, "wifi.interface is required")
	}
	if c.WiFi.JoinTimeout < 1 {
		errs = append(errs, "wifi.join_timeout must be at least 1 second")
	}

	if c.Portal.SSID == "" {
		errs = append(errs, "portal.ssid is required")
	}
	if c.Portal.Timeout < 1 {
		errs = append(errs, "portal.timeout must be at least 1 second")
	}

	if c.Broker.MaxAttempts < 1 {
		errs = append(errs, "broker.max_attempts must be at least 1")
	}
	if c.Broker.QoS < 0 || c.Broker.QoS > 2 {
		errs = append(errs, "broker.qos must be 0, 1, or 2")
	}

	if c.ADC.Address < 0 || c.ADC.Address > 0x7f {
		errs = append(errs, "adc.address must be a 7-bit I2C address")
	}

	if c.Journal.Enabled && c.Journal.Path == "" {
		errs = append(errs, "journal.path is required when journal.enabled")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// SleepDuration returns the full deep-sleep duration between cycles.
func (c *CycleConfig) SleepDuration() time.Duration {
	return time.Duration(c.Sleep) * time.Second
}

// RetryDuration returns the shortened sleep used after a failed cycle.
// It is a fixed fraction of the full cycle so a dark node resurfaces
// reasonably quickly without burning the battery on tight retry loops.
func (c *CycleConfig) RetryDuration() time.Duration {
	return c.SleepDuration() / retryDivisor
}

// JoinTimeoutDuration returns the network association timeout as a Duration.
func (c *WiFiConfig) JoinTimeoutDuration() time.Duration {
	return time.Duration(c.JoinTimeout) * time.Second
}

// TimeoutDuration returns the portal inactivity timeout as a Duration.
func (c *PortalConfig) TimeoutDuration() time.Duration {
	return time.Duration(c.Timeout) * time.Second
}

// RetryDelayDuration returns the delay between broker connection attempts.
func (c *BrokerConfig) RetryDelayDuration() time.Duration {
	return time.Duration(c.RetryDelay) * time.Second
}
