// Package logging provides structured logging for adsnode.
//
// This package wraps Go's standard log/slog package to provide
// consistent, structured logging across the node firmware.
//
// # Features
//
//   - Text output for bench debugging, JSON for log collection
//   - Default fields (service, version) on all log entries
//   - Level-based filtering (debug, info, warn, error)
//   - Serial console sink for headless nodes ("serial:/dev/ttyS0@115200")
//
// # Debug gating
//
// The node is battery powered and its broker credentials pass through this
// code. Unless logging.debug is set, every sink is replaced by a discard
// handler: the production build emits nothing at all.
//
// # Configuration
//
//	logging:
//	  debug: true
//	  level: "info"       # debug, info, warn, error
//	  format: "text"      # json, text
//	  output: "stdout"    # stdout, stderr, serial:<device>[@baud]
//
// # Usage
//
//	logger := logging.New(cfg.Logging, "1.0.0")
//	defer logger.Close()
//	logger.Info("awake", "cycle", id)
package logging
