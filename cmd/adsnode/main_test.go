package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fernwood-labs/adsnode/internal/power"
)

// TestRun_InvalidConfig verifies run fails with invalid config path.
func TestRun_InvalidConfig(t *testing.T) {
	t.Setenv("ADSNODE_CONFIG", "/nonexistent/path/node.yaml")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := run(ctx); err == nil {
		t.Fatal("run() should fail with invalid config path")
	}
}

// TestRun_NoHardware runs a full cycle on a machine with none of the
// node's binaries present. Association fails immediately (no wpa_cli),
// the cycle resolves to a retry sleep, and sleep itself fails because
// rtcwake and the reboot fallback are both missing. That last error is
// what run reports.
func TestRun_NoHardware(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "node.yaml")

	configContent := `
node:
  id: test-node

cycle:
  sleep: 300
  link_retries: 5

store:
  path: "` + filepath.Join(tmpDir, "broker.json") + `"

wifi:
  interface: wlan0
  join_timeout: 1
  wpa_cli: /nonexistent/wpa_cli

portal:
  listen_addr: "127.0.0.1:0"
  timeout: 1

broker:
  max_attempts: 1
  retry_delay: 1

power:
  rtcwake: /nonexistent/rtcwake
  reboot: /nonexistent/reboot

journal:
  enabled: false

logging:
  debug: false
`
	if err := os.WriteFile(configPath, []byte(configContent), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	t.Setenv("ADSNODE_CONFIG", configPath)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	err := run(ctx)
	if err == nil {
		t.Fatal("run() should fail when sleep is unavailable")
	}
	if !errors.Is(err, power.ErrSleepUnavailable) {
		t.Errorf("run() error = %v, want ErrSleepUnavailable", err)
	}
}

// TestGetConfigPath_Default verifies default config path.
func TestGetConfigPath_Default(t *testing.T) {
	t.Setenv("ADSNODE_CONFIG", "")

	if path := getConfigPath(); path != defaultConfigPath {
		t.Errorf("getConfigPath() = %q, want %q", path, defaultConfigPath)
	}
}

// TestGetConfigPath_EnvOverride verifies environment variable override.
func TestGetConfigPath_EnvOverride(t *testing.T) {
	expected := "/custom/path/node.yaml"
	t.Setenv("ADSNODE_CONFIG", expected)

	if path := getConfigPath(); path != expected {
		t.Errorf("getConfigPath() = %q, want %q", path, expected)
	}
}
