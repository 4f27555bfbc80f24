package logging

import (
	"io"
	"log/slog"
	"math"
	"os"
	"strings"

	"github.com/fernwood-labs/adsnode/internal/infrastructure/config"
)

// Logger wraps slog.Logger with adsnode-specific functionality.
//
// Thread Safety:
//   - All methods are safe for concurrent use from multiple goroutines.
type Logger struct {
	*slog.Logger

	// closer releases the serial port when that sink is in use.
	closer io.Closer
}

// New creates a new Logger with the specified configuration.
//
// When cfg.Debug is false the returned logger discards everything; no
// sink is opened and no credential or reading can leak through it.
//
// Parameters:
//   - cfg: Logging configuration from node.yaml
//   - version: Firmware version for the default field
//
// Returns:
//   - *Logger: Configured logger ready for use
func New(cfg config.LoggingConfig, version string) *Logger {
	if !cfg.Debug {
		return &Logger{Logger: slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.Level(math.MaxInt32)}))}
	}

	output, closer := openOutput(cfg.Output)

	opts := &slog.HandlerOptions{
		Level: parseLevel(cfg.Level),
	}

	var handler slog.Handler
	switch strings.ToLower(cfg.Format) {
	case "json":
		handler = slog.NewJSONHandler(output, opts)
	default:
		handler = slog.NewTextHandler(output, opts)
	}

	handler = handler.WithAttrs([]slog.Attr{
		slog.String("service", "adsnode"),
		slog.String("version", version),
	})

	return &Logger{
		Logger: slog.New(handler),
		closer: closer,
	}
}

// openOutput resolves the configured output to a writer.
//
// Recognised values are "stdout", "stderr" and "serial:<device>[@baud]".
// A serial device that cannot be opened falls back to stderr so a bench
// session still sees something.
func openOutput(output string) (io.Writer, io.Closer) {
	switch {
	case strings.HasPrefix(strings.ToLower(output), serialPrefix):
		port, err := openSerial(output)
		if err != nil {
			return os.Stderr, nil
		}
		return port, port
	case strings.EqualFold(output, "stderr"):
		return os.Stderr, nil
	default:
		return os.Stdout, nil
	}
}

// parseLevel converts a string log level to slog.Level.
//
// Supported levels: debug, info, warn, error
// Defaults to info if unrecognised.
func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// With returns a new Logger with additional default attributes.
//
// Example:
//
//	wifiLogger := logger.With("component", "wifi")
//	wifiLogger.Info("associated") // Includes component=wifi
func (l *Logger) With(args ...any) *Logger {
	return &Logger{
		Logger: l.Logger.With(args...),
		closer: l.closer,
	}
}

// Close releases the serial sink, if one was opened.
// It is safe to call on any logger, including discard loggers.
func (l *Logger) Close() error {
	if l.closer == nil {
		return nil
	}
	return l.closer.Close()
}

// Default creates a default logger for use before configuration is loaded.
//
// Early boot failures are only visible on a bench setup anyway, so this
// logger writes text to stderr at info level.
func Default() *Logger {
	return New(config.LoggingConfig{
		Debug:  true,
		Level:  "info",
		Format: "text",
		Output: "stderr",
	}, "dev")
}
