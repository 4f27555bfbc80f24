package journal

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"github.com/fernwood-labs/adsnode/internal/infrastructure/config"
	"github.com/fernwood-labs/adsnode/internal/lifecycle"
)

const (
	// dirPermissions is the permission mode for the journal directory.
	dirPermissions = 0750

	// filePermissions is the permission mode for the journal file.
	filePermissions = 0600

	// msPerSecond converts seconds to milliseconds.
	msPerSecond = 1000

	// openTimeout bounds the connectivity check at open.
	openTimeout = 5 * time.Second
)

// schema is applied on every open. Changes must stay additive so a node
// flashed with newer firmware can keep its existing journal file.
const schema = `
CREATE TABLE IF NOT EXISTS boots (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	booted_at  TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS cycles (
	cycle_id    TEXT PRIMARY KEY,
	boot_id     INTEGER NOT NULL REFERENCES boots(id),
	final_state TEXT NOT NULL,
	outcome     TEXT NOT NULL,
	published   INTEGER NOT NULL,
	recorded_at TEXT NOT NULL
);
`

// Journal records wake-cycle outcomes in SQLite.
//
// A nil *Journal is valid and records nothing; this is the disabled
// configuration.
type Journal struct {
	db     *sql.DB
	bootID int64
}

// Open opens (or creates) the journal and registers this boot.
//
// Returns (nil, nil) when the journal is disabled in config.
//
// Parameters:
//   - ctx: Bounds schema setup and the boot insert
//   - cfg: Journal settings from node.yaml
//
// Returns:
//   - *Journal: The open journal, or nil when disabled
//   - error: If the file cannot be opened or the schema applied
func Open(ctx context.Context, cfg config.JournalConfig) (*Journal, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Path), dirPermissions); err != nil {
		return nil, fmt.Errorf("creating journal directory: %w", err)
	}

	connStr := fmt.Sprintf("file:%s?_busy_timeout=%d&_foreign_keys=on",
		cfg.Path,
		cfg.BusyTimeout*msPerSecond,
	)
	if cfg.WALMode {
		connStr += "&_journal_mode=WAL&_synchronous=NORMAL"
	}

	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("opening journal: %w", err)
	}

	// Single connection: the node is the only writer and the process is
	// short-lived.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	openCtx, cancel := context.WithTimeout(ctx, openTimeout)
	defer cancel()

	if _, err := db.ExecContext(openCtx, schema); err != nil {
		db.Close() //nolint:errcheck // Best effort cleanup on error path
		return nil, fmt.Errorf("applying journal schema: %w", err)
	}

	_ = os.Chmod(cfg.Path, filePermissions) //nolint:errcheck // File may appear after first write

	j := &Journal{db: db}
	if err := j.registerBoot(openCtx); err != nil {
		db.Close() //nolint:errcheck // Best effort cleanup on error path
		return nil, err
	}

	return j, nil
}

// registerBoot inserts this wake into the boot counter.
func (j *Journal) registerBoot(ctx context.Context) error {
	res, err := j.db.ExecContext(ctx,
		"INSERT INTO boots (booted_at) VALUES (?)",
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("registering boot: %w", err)
	}
	j.bootID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading boot id: %w", err)
	}
	return nil
}

// BootCount returns the total number of recorded boots, this one included.
func (j *Journal) BootCount(ctx context.Context) (int64, error) {
	if j == nil {
		return 0, nil
	}
	var n int64
	if err := j.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM boots").Scan(&n); err != nil {
		return 0, fmt.Errorf("counting boots: %w", err)
	}
	return n, nil
}

// RecordCycle writes the final disposition of a wake cycle.
//
// Journal failures must never cost a reading, so callers treat the
// returned error as log-and-continue.
//
// Parameters:
//   - ctx: Bounds the insert
//   - c: The finished cycle
//   - outcome: Short free-text disposition (e.g. "published", "no-broker")
func (j *Journal) RecordCycle(ctx context.Context, c *lifecycle.Cycle, outcome string) error {
	if j == nil {
		return nil
	}

	published := 0
	if c.Sent {
		published = 1
	}

	_, err := j.db.ExecContext(ctx,
		`INSERT INTO cycles (cycle_id, boot_id, final_state, outcome, published, recorded_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		c.ID,
		j.bootID,
		c.State.String(),
		outcome,
		published,
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("recording cycle: %w", err)
	}
	return nil
}

// Prune deletes all but the most recent keep cycles and their orphaned
// boot rows, bounding the journal's flash footprint.
func (j *Journal) Prune(ctx context.Context, keep int) error {
	if j == nil {
		return nil
	}

	_, err := j.db.ExecContext(ctx,
		`DELETE FROM cycles WHERE cycle_id NOT IN (
			SELECT cycle_id FROM cycles ORDER BY recorded_at DESC LIMIT ?
		)`, keep)
	if err != nil {
		return fmt.Errorf("pruning cycles: %w", err)
	}

	_, err = j.db.ExecContext(ctx,
		`DELETE FROM boots WHERE id != ? AND id NOT IN (SELECT boot_id FROM cycles)`,
		j.bootID)
	if err != nil {
		return fmt.Errorf("pruning boots: %w", err)
	}
	return nil
}

// Close closes the journal. Safe on a nil Journal.
func (j *Journal) Close() error {
	if j == nil || j.db == nil {
		return nil
	}
	if err := j.db.Close(); err != nil {
		return fmt.Errorf("closing journal: %w", err)
	}
	return nil
}
