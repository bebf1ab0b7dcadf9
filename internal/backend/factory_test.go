package backend

import (
	"context"
	"path/filepath"
	"testing"

	"harambee/internal/config"
	"harambee/internal/ledger"
	"harambee/internal/repo"
)

func TestFromAppConfig(t *testing.T) {
	cfg := &config.Config{DataBackend: "memory", LedgerSnapshotFile: "data/ledger.json"}
	bc, err := FromAppConfig(cfg)
	if err != nil {
		t.Fatalf("FromAppConfig: %v", err)
	}
	if bc.Type != MemoryBackend {
		t.Fatalf("type = %q", bc.Type)
	}
	if bc.SnapshotFile != "data/ledger.json" {
		t.Fatalf("snapshot file = %q", bc.SnapshotFile)
	}

	if _, err := FromAppConfig(&config.Config{DataBackend: "postgres"}); err == nil {
		t.Fatal("expected error for unknown backend type")
	}
	if _, err := FromAppConfig(nil); err == nil {
		t.Fatal("expected error for nil config")
	}
}

func TestNewMemoryBackend(t *testing.T) {
	be, err := New(Config{Type: MemoryBackend, SnapshotFile: filepath.Join(t.TempDir(), "ledger.json")})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer func() { _ = be.Cleanup() }()

	saved, err := be.Contributions.CreateContribution(context.Background(), repo.CreateContribution{
		Name:   "Mary Achieng",
		Amount: 500,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if saved.ID == "" {
		t.Fatal("missing id")
	}

	rows, err := be.Ledger.ListContributions(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if want := len(ledger.DefaultPinnedRows) + 1; len(rows) != want {
		t.Fatalf("rows = %d, want %d (seed + manual entry)", len(rows), want)
	}
}

func TestNewSQLiteBackend(t *testing.T) {
	be, err := New(Config{Type: SQLiteBackend, SQLiteDBPath: filepath.Join(t.TempDir(), "ledger.db")})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer func() { _ = be.Cleanup() }()

	rows, err := be.Ledger.ListContributions(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != len(ledger.DefaultPinnedRows) {
		t.Fatalf("rows = %d, want %d seeded", len(rows), len(ledger.DefaultPinnedRows))
	}
}

func TestNewSeedsPinnedContributions(t *testing.T) {
	snapshot := filepath.Join(t.TempDir(), "ledger.json")

	be, err := New(Config{Type: MemoryBackend, SnapshotFile: snapshot})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	rows, err := be.Ledger.ListContributions(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != len(ledger.DefaultPinnedRows) {
		t.Fatalf("rows = %d, want %d", len(rows), len(ledger.DefaultPinnedRows))
	}
	var total int64
	for _, row := range rows {
		total += row.Amount
		if row.ContributedAt.IsZero() {
			t.Errorf("seeded row %q has no timestamp", row.Name)
		}
		if row.Note != "Default seeded contribution" {
			t.Errorf("seeded row %q note = %q", row.Name, row.Note)
		}
	}
	if total != 700000 {
		t.Fatalf("seeded total = %d, want 700000", total)
	}
	if err := be.Cleanup(); err != nil {
		t.Fatalf("cleanup: %v", err)
	}

	// A restart over the same snapshot must not duplicate the pledges.
	be2, err := New(Config{Type: MemoryBackend, SnapshotFile: snapshot})
	if err != nil {
		t.Fatalf("New again: %v", err)
	}
	defer func() { _ = be2.Cleanup() }()
	rows, err = be2.Ledger.ListContributions(context.Background())
	if err != nil {
		t.Fatalf("list again: %v", err)
	}
	if len(rows) != len(ledger.DefaultPinnedRows) {
		t.Fatalf("rows after restart = %d, want %d", len(rows), len(ledger.DefaultPinnedRows))
	}
}

func TestSeedMatchesRenamedCaseAndSpacing(t *testing.T) {
	be, err := New(Config{Type: MemoryBackend})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer func() { _ = be.Cleanup() }()

	// Same key as the first pledge despite case and spacing drift.
	if err := seedPinnedContributions(context.Background(), be.Ledger, []ledger.PinnedRow{
		{Name: "  KABOGO'S   FAMILY ", Amount: 300000},
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	rows, err := be.Ledger.ListContributions(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != len(ledger.DefaultPinnedRows) {
		t.Fatalf("rows = %d, want %d (no duplicate pledge)", len(rows), len(ledger.DefaultPinnedRows))
	}
}

func TestNewRejectsUnknownType(t *testing.T) {
	if _, err := New(Config{Type: "postgres"}); err == nil {
		t.Fatal("expected error")
	}
}

func TestTypeIsValid(t *testing.T) {
	for _, tc := range []struct {
		t    Type
		want bool
	}{
		{MemoryBackend, true},
		{SQLiteBackend, true},
		{"", false},
		{"postgres", false},
	} {
		if got := tc.t.IsValid(); got != tc.want {
			t.Errorf("IsValid(%q) = %v, want %v", tc.t, got, tc.want)
		}
	}
}
