// Package config handles loading and validating adsnode configuration.
//
// This package manages:
//   - Loading configuration from YAML files
//   - Overriding with environment variables
//   - Validation of required fields
//   - Default value handling
//
// This is the *static* node configuration: sleep intervals, hardware pin
// assignments, Wi-Fi and portal settings, logging. The broker record that
// operators edit through the configuration portal is a separate artefact,
// persisted to flash by the confstore package.
//
// Security Considerations:
//   - The config file should have restricted permissions (0600)
//   - The file lives on the node's flash; it holds no broker credentials
//
// Performance Characteristics:
//   - Configuration is loaded once per wake cycle, at boot
//   - No runtime overhead after initial load
//
// Usage:
//
//	cfg, err := config.Load("/etc/adsnode/node.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Cycle.SleepDuration())
package config
