package confstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// Record field limits, inherited from the flash layout of the board this
// agent replaces. Over-length values are clamped, not rejected: a truncated
// hostname fails visibly at connect time, a rejected record would brick the
// portal flow.
const (
	maxHostLen     = 20
	maxUserLen     = 20
	maxPasswordLen = 20
	maxPortLen     = 6
	maxTopicLen    = 20
)

// defaultPort is used when the record is absent or carries an unparsable port.
const defaultPort = 1883

// filePermissions is the permission mode for the persisted record.
// It holds broker credentials.
const filePermissions = 0600

// dirPermissions is the permission mode for the record's directory.
const dirPermissions = 0750

// BrokerConfig is the operator-editable broker configuration.
//
// It is loaded once at boot and mutated only by the configuration portal.
// There are no concurrent writers; the node runs one cycle on one goroutine.
type BrokerConfig struct {
	Host     string
	User     string
	Password string
	Port     int
	Topic    string
}

// Default returns the configuration used when no record is stored.
// All fields except the port are empty; the caller must tolerate that.
func Default() BrokerConfig {
	return BrokerConfig{Port: defaultPort}
}

// Equal reports whether two configurations are field-for-field identical.
// The portal flow uses it to decide whether a save is warranted.
func (c BrokerConfig) Equal(other BrokerConfig) bool {
	return c == other
}

// Clamp returns a copy with every field cut down to its record limit and
// the port forced into the valid TCP range.
func (c BrokerConfig) Clamp() BrokerConfig {
	c.Host = truncate(c.Host, maxHostLen)
	c.User = truncate(c.User, maxUserLen)
	c.Password = truncate(c.Password, maxPasswordLen)
	c.Topic = truncate(c.Topic, maxTopicLen)
	if c.Port < 1 || c.Port > 65535 {
		c.Port = defaultPort
	}
	return c
}

func truncate(s string, max int) string {
	if len(s) > max {
		return s[:max]
	}
	return s
}

// record is the on-flash JSON layout. All values are strings, including the
// port, matching the records written by earlier firmware revisions.
type record struct {
	Server   string `json:"mqtt_server"`
	User     string `json:"mqtt_user"`
	Password string `json:"mqtt_password"`
	Port     string `json:"mqtt_port"`
	Topic    string `json:"mqtt_topic"`
}

// Store reads and writes the persisted broker record.
type Store struct {
	path string
}

// New creates a Store backed by the given flash path.
func New(path string) *Store {
	return &Store{path: path}
}

// Load reads the persisted record.
//
// An absent or unparsable record yields Default() with a nil error; the
// node must keep booting so the portal can repair the config. Only a
// filesystem-level read failure returns ErrStorageUnavailable.
//
// Returns:
//   - BrokerConfig: Stored configuration, or defaults
//   - error: nil, or ErrStorageUnavailable (wrapped)
func (s *Store) Load() (BrokerConfig, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return Default(), fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}

	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		// Corrupt record. Non-fatal: defaults apply.
		return Default(), nil
	}

	cfg := BrokerConfig{
		Host:     rec.Server,
		User:     rec.User,
		Password: rec.Password,
		Topic:    rec.Topic,
		Port:     defaultPort,
	}
	if port, err := strconv.Atoi(rec.Port); err == nil && port >= 1 && port <= 65535 {
		cfg.Port = port
	}

	return cfg.Clamp(), nil
}

// Save persists the record to flash.
//
// The write is atomic: a temp file in the same directory is renamed over
// the record, so a power loss mid-write leaves the previous record intact.
// Callers invoke Save only when the portal reported changed fields.
//
// Returns:
//   - error: nil, or ErrStorageWrite (wrapped)
func (s *Store) Save(cfg BrokerConfig) error {
	cfg = cfg.Clamp()

	rec := record{
		Server:   cfg.Host,
		User:     cfg.User,
		Password: cfg.Password,
		Port:     strconv.Itoa(cfg.Port),
		Topic:    cfg.Topic,
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("%w: encoding record: %w", ErrStorageWrite, err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, dirPermissions); err != nil {
		return fmt.Errorf("%w: creating %s: %w", ErrStorageWrite, dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".config-*.json")
	if err != nil {
		return fmt.Errorf("%w: %w", ErrStorageWrite, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("%w: %w", ErrStorageWrite, err)
	}
	if err := tmp.Chmod(filePermissions); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("%w: %w", ErrStorageWrite, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: %w", ErrStorageWrite, err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: %w", ErrStorageWrite, err)
	}

	return nil
}

// Reset removes the persisted record. Used by the reset-configuration
// GPIO path at boot. A record that was never written is not an error.
func (s *Store) Reset() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: %w", ErrStorageWrite, err)
	}
	return nil
}
