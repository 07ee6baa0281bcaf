package cache

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/sjvdm/roadprog/internal/completion"
	"github.com/sjvdm/roadprog/internal/reconcile"
	"github.com/sjvdm/roadprog/internal/roster"
)

// setupTestDB creates a temporary cache database for testing.
func setupTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := Open(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatalf("failed to open cache: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.InitSchema(); err != nil {
		t.Fatalf("failed to init schema: %v", err)
	}
	return db
}

func testState() ([]roster.Suburb, completion.Sets) {
	records := []roster.Suburb{
		{Name: "UMBUMBULU", AssignedEditor: "alice"},
		{Name: "INWABI", AssignedEditor: "bob"},
	}
	sets := completion.Sets{
		"alice": {"UMBUMBULU": true},
	}
	return records, sets
}

func TestInitSchemaIdempotent(t *testing.T) {
	db := setupTestDB(t)

	if err := db.InitSchema(); err != nil {
		t.Errorf("second InitSchema failed: %v", err)
	}
}

func TestResyncAndStatusRows(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	records, sets := testState()
	if err := db.Resync(ctx, records, sets); err != nil {
		t.Fatalf("Resync failed: %v", err)
	}

	rows, err := db.StatusRows(ctx)
	if err != nil {
		t.Fatalf("StatusRows failed: %v", err)
	}

	// Name order, not roster order.
	want := []reconcile.StatusRow{
		{Suburb: "INWABI", AssignedEditor: "bob", State: reconcile.NotStarted},
		{Suburb: "UMBUMBULU", AssignedEditor: "alice", State: reconcile.Complete, CompletedBy: "alice"},
	}
	if diff := cmp.Diff(want, rows); diff != "" {
		t.Errorf("status rows mismatch (-want +got):\n%s", diff)
	}
}

func TestResyncReplacesContent(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	records, sets := testState()
	if err := db.Resync(ctx, records, sets); err != nil {
		t.Fatalf("first Resync failed: %v", err)
	}

	// Sync again with the completion retracted.
	if err := db.Resync(ctx, records, completion.Sets{}); err != nil {
		t.Fatalf("second Resync failed: %v", err)
	}

	n, err := db.CompletionCount(ctx)
	if err != nil {
		t.Fatalf("CompletionCount failed: %v", err)
	}
	if n != 0 {
		t.Errorf("expected completions cleared, got %d", n)
	}

	rows, err := db.StatusRows(ctx)
	if err != nil {
		t.Fatalf("StatusRows failed: %v", err)
	}
	for _, r := range rows {
		if r.State != reconcile.NotStarted {
			t.Errorf("expected %s reset to Not Started, got %s", r.Suburb, r.State)
		}
	}
}

func TestGetStats(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	stats, err := db.GetStats(ctx)
	if err != nil {
		t.Fatalf("GetStats on empty cache failed: %v", err)
	}
	if stats.Suburbs != 0 || stats.Completed != 0 || stats.Editors != 0 {
		t.Errorf("expected zero stats before sync, got %+v", stats)
	}
	if !stats.SyncedAt.IsZero() {
		t.Errorf("expected zero sync time before sync, got %v", stats.SyncedAt)
	}

	records, sets := testState()
	if err := db.Resync(ctx, records, sets); err != nil {
		t.Fatalf("Resync failed: %v", err)
	}

	stats, err = db.GetStats(ctx)
	if err != nil {
		t.Fatalf("GetStats failed: %v", err)
	}
	if stats.Suburbs != 2 {
		t.Errorf("expected 2 suburbs, got %d", stats.Suburbs)
	}
	if stats.Completed != 1 {
		t.Errorf("expected 1 completed, got %d", stats.Completed)
	}
	if stats.Editors != 1 {
		t.Errorf("expected 1 editor, got %d", stats.Editors)
	}
	if stats.SyncedAt.IsZero() {
		t.Error("expected sync time to be recorded")
	}
}

func TestCounts(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	records, sets := testState()
	if err := db.Resync(ctx, records, sets); err != nil {
		t.Fatalf("Resync failed: %v", err)
	}

	suburbs, err := db.SuburbCount(ctx)
	if err != nil {
		t.Fatalf("SuburbCount failed: %v", err)
	}
	if suburbs != 2 {
		t.Errorf("expected 2 suburbs, got %d", suburbs)
	}

	completions, err := db.CompletionCount(ctx)
	if err != nil {
		t.Fatalf("CompletionCount failed: %v", err)
	}
	if completions != 1 {
		t.Errorf("expected 1 completion, got %d", completions)
	}
}
