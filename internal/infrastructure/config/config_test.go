package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_ValidConfig(t *testing.T) {
	content := `
node:
  id: "test-node"
cycle:
  sleep: 600
  link_retries: 3
store:
  path: "/tmp/test-config.json"
wifi:
  interface: "wlan1"
  join_timeout: 10
broker:
  max_attempts: 2
  retry_delay: 1
  qos: 1
`
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "node.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Node.ID != "test-node" {
		t.Errorf("Node.ID = %q, want %q", cfg.Node.ID, "test-node")
	}

	if cfg.Cycle.Sleep != 600 {
		t.Errorf("Cycle.Sleep = %d, want 600", cfg.Cycle.Sleep)
	}

	if cfg.WiFi.Interface != "wlan1" {
		t.Errorf("WiFi.Interface = %q, want %q", cfg.WiFi.Interface, "wlan1")
	}

	// Unset sections keep their defaults.
	if cfg.Portal.SSID != "AutoConnectAP" {
		t.Errorf("Portal.SSID = %q, want default %q", cfg.Portal.SSID, "AutoConnectAP")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/node.yaml")
	if err == nil {
		t.Error("Load() expected error for missing file, got nil")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "node.yaml")
	if err := os.WriteFile(configPath, []byte("invalid: [yaml: content"), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	_, err := Load(configPath)
	if err == nil {
		t.Error("Load() expected error for invalid YAML, got nil")
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	content := `
node:
  id: "file-node"
`
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "node.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	t.Setenv("ADSNODE_NODE_ID", "env-node")
	t.Setenv("ADSNODE_LOGGING_DEBUG", "true")

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Node.ID != "env-node" {
		t.Errorf("Node.ID = %q, want env override %q", cfg.Node.ID, "env-node")
	}
	if !cfg.Logging.Debug {
		t.Error("Logging.Debug = false, want env override true")
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid defaults",
			mutate:  func(_ *Config) {},
			wantErr: false,
		},
		{
			name:    "empty node id",
			mutate:  func(c *Config) { c.Node.ID = "" },
			wantErr: true,
		},
		{
			name:    "sleep too short",
			mutate:  func(c *Config) { c.Cycle.Sleep = 2 },
			wantErr: true,
		},
		{
			name:    "zero link retries",
			mutate:  func(c *Config) { c.Cycle.LinkRetries = 0 },
			wantErr: true,
		},
		{
			name:    "empty store path",
			mutate:  func(c *Config) { c.Store.Path = "" },
			wantErr: true,
		},
		{
			name:    "empty wifi interface",
			mutate:  func(c *Config) { c.WiFi.Interface = "" },
			wantErr: true,
		},
		{
			name:    "invalid qos",
			mutate:  func(c *Config) { c.Broker.QoS = 3 },
			wantErr: true,
		},
		{
			name:    "invalid adc address",
			mutate:  func(c *Config) { c.ADC.Address = 0x100 },
			wantErr: true,
		},
		{
			name: "journal enabled without path",
			mutate: func(c *Config) {
				c.Journal.Enabled = true
				c.Journal.Path = ""
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestCycleConfig_RetryDuration(t *testing.T) {
	c := CycleConfig{Sleep: 300}

	if got := c.SleepDuration(); got != 5*time.Minute {
		t.Errorf("SleepDuration() = %v, want 5m", got)
	}

	// The retry interval is pinned at one fifth of the full cycle.
	if got := c.RetryDuration(); got != time.Minute {
		t.Errorf("RetryDuration() = %v, want 1m", got)
	}
}

func TestBrokerConfig_RetryDelayDuration(t *testing.T) {
	b := BrokerConfig{RetryDelay: 5}

	if got := b.RetryDelayDuration(); got != 5*time.Second {
		t.Errorf("RetryDelayDuration() = %v, want 5s", got)
	}
}
