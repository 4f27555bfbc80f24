package journal

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/fernwood-labs/adsnode/internal/infrastructure/config"
	"github.com/fernwood-labs/adsnode/internal/lifecycle"
)

func testJournalConfig(t *testing.T) config.JournalConfig {
	t.Helper()
	return config.JournalConfig{
		Enabled:     true,
		Path:        filepath.Join(t.TempDir(), "journal.db"),
		WALMode:     true,
		BusyTimeout: 5,
	}
}

func TestOpen_Disabled(t *testing.T) {
	j, err := Open(context.Background(), config.JournalConfig{Enabled: false})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if j != nil {
		t.Fatal("Open() returned a journal for disabled config")
	}

	// The nil journal must be safe to use everywhere main does.
	c := lifecycle.NewCycle(5)
	if err := j.RecordCycle(context.Background(), c, "published"); err != nil {
		t.Errorf("nil RecordCycle() error = %v", err)
	}
	if n, err := j.BootCount(context.Background()); err != nil || n != 0 {
		t.Errorf("nil BootCount() = %d, %v, want 0, nil", n, err)
	}
	if err := j.Prune(context.Background(), 10); err != nil {
		t.Errorf("nil Prune() error = %v", err)
	}
	if err := j.Close(); err != nil {
		t.Errorf("nil Close() error = %v", err)
	}
}

func TestOpen_CountsBoots(t *testing.T) {
	cfg := testJournalConfig(t)
	ctx := context.Background()

	for want := int64(1); want <= 3; want++ {
		j, err := Open(ctx, cfg)
		if err != nil {
			t.Fatalf("Open() #%d error = %v", want, err)
		}
		n, err := j.BootCount(ctx)
		if err != nil {
			t.Fatalf("BootCount() error = %v", err)
		}
		if n != want {
			t.Errorf("BootCount() = %d, want %d", n, want)
		}
		if err := j.Close(); err != nil {
			t.Fatalf("Close() error = %v", err)
		}
	}
}

func TestRecordCycle(t *testing.T) {
	ctx := context.Background()
	j, err := Open(ctx, testJournalConfig(t))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer j.Close()

	c := lifecycle.NewCycle(5)
	c.State = lifecycle.StateReadyToSleep
	c.Sent = true

	if err := j.RecordCycle(ctx, c, "published"); err != nil {
		t.Fatalf("RecordCycle() error = %v", err)
	}

	var state, outcome string
	var published int
	err = j.db.QueryRowContext(ctx,
		"SELECT final_state, outcome, published FROM cycles WHERE cycle_id = ?",
		c.ID,
	).Scan(&state, &outcome, &published)
	if err != nil {
		t.Fatalf("reading cycle row: %v", err)
	}

	if state != lifecycle.StateReadyToSleep.String() {
		t.Errorf("final_state = %q, want %q", state, lifecycle.StateReadyToSleep.String())
	}
	if outcome != "published" {
		t.Errorf("outcome = %q, want %q", outcome, "published")
	}
	if published != 1 {
		t.Errorf("published = %d, want 1", published)
	}
}

func TestPrune(t *testing.T) {
	ctx := context.Background()
	j, err := Open(ctx, testJournalConfig(t))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer j.Close()

	for i := 0; i < 10; i++ {
		if err := j.RecordCycle(ctx, lifecycle.NewCycle(5), "published"); err != nil {
			t.Fatalf("RecordCycle() #%d error = %v", i, err)
		}
	}

	if err := j.Prune(ctx, 4); err != nil {
		t.Fatalf("Prune() error = %v", err)
	}

	var n int
	if err := j.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM cycles").Scan(&n); err != nil {
		t.Fatalf("counting cycles: %v", err)
	}
	if n != 4 {
		t.Errorf("cycles after Prune = %d, want 4", n)
	}
}
