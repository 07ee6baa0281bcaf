package tracker

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/sjvdm/roadprog/internal/completion"
	"github.com/sjvdm/roadprog/internal/pusher"
	"github.com/sjvdm/roadprog/internal/reconcile"
	"github.com/sjvdm/roadprog/internal/roster"
)

const testRoster = `{
  "type": "FeatureCollection",
  "features": [
    {
      "type": "Feature",
      "properties": {"NAME": "Umbumbulu", "Assigned": "alice"},
      "geometry": {"type": "Polygon", "coordinates": [[[30.7, -29.9], [30.8, -29.9], [30.8, -30.0], [30.7, -29.9]]]}
    },
    {
      "type": "Feature",
      "properties": {"NAME": "Inwabi", "Assigned": "bob"},
      "geometry": {"type": "Polygon", "coordinates": [[[30.6, -29.8], [30.7, -29.8], [30.7, -29.9], [30.6, -29.8]]]}
    }
  ]
}`

// newTestTracker builds a tracker over a two-suburb roster in a temp
// directory, with sync disabled.
func newTestTracker(t *testing.T) *Tracker {
	t.Helper()
	dir := t.TempDir()

	rosterPath := filepath.Join(dir, "suburbs.geojson")
	if err := os.WriteFile(rosterPath, []byte(testRoster), 0644); err != nil {
		t.Fatalf("failed to write roster file: %v", err)
	}

	return New(Options{
		Roster:      roster.NewStore(roster.DefaultOptions(rosterPath)),
		Overrides:   roster.NewOverrideStore(filepath.Join(dir, "overrides.csv"), nil),
		Completions: completion.NewStore(filepath.Join(dir, "completions.csv"), nil),
	})
}

func TestListEditors(t *testing.T) {
	tr := newTestTracker(t)

	editors, err := tr.ListEditors()
	if err != nil {
		t.Fatalf("ListEditors failed: %v", err)
	}
	want := []string{"alice", "bob"}
	if diff := cmp.Diff(want, editors); diff != "" {
		t.Errorf("editor list mismatch (-want +got):\n%s", diff)
	}
}

func TestSuburbsFor(t *testing.T) {
	tr := newTestTracker(t)

	suburbs, err := tr.SuburbsFor("alice")
	if err != nil {
		t.Fatalf("SuburbsFor failed: %v", err)
	}
	want := []string{"UMBUMBULU"}
	if diff := cmp.Diff(want, suburbs); diff != "" {
		t.Errorf("suburb list mismatch (-want +got):\n%s", diff)
	}
}

func TestMarkCompletedEndToEnd(t *testing.T) {
	tr := newTestTracker(t)
	ctx := context.Background()

	progress, err := tr.OverallProgress()
	if err != nil {
		t.Fatalf("OverallProgress failed: %v", err)
	}
	if progress.Percent != 0 {
		t.Fatalf("expected 0%% before any completion, got %v", progress.Percent)
	}

	result, err := tr.MarkCompleted(ctx, "alice", []string{"UMBUMBULU"})
	if err != nil {
		t.Fatalf("MarkCompleted failed: %v", err)
	}
	if result.Outcome != pusher.Skipped {
		t.Errorf("expected sync to be skipped without a pusher, got %s", result.Outcome)
	}

	state, by, err := tr.Status("UMBUMBULU")
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if state != reconcile.Complete || by != "alice" {
		t.Errorf("expected Complete by alice, got %s by %q", state, by)
	}

	state, _, err = tr.Status("INWABI")
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if state != reconcile.NotStarted {
		t.Errorf("expected INWABI Not Started, got %s", state)
	}

	progress, err = tr.OverallProgress()
	if err != nil {
		t.Fatalf("OverallProgress failed: %v", err)
	}
	if progress.Completed != 1 || progress.Total != 2 || progress.Percent != 50 {
		t.Errorf("expected 1/2 = 50%%, got %+v", progress)
	}
}

func TestMarkCompletedRejectsUnknownSuburbs(t *testing.T) {
	tr := newTestTracker(t)

	_, err := tr.MarkCompleted(context.Background(), "alice", []string{"UMBUMBULU", "ATLANTIS", "NOWHERE"})
	if err == nil {
		t.Fatal("expected error for unknown suburbs")
	}
	if !strings.Contains(err.Error(), "ATLANTIS, NOWHERE") {
		t.Errorf("expected sorted unknown suburbs in error, got %v", err)
	}

	// Nothing was written.
	sets, err := tr.completions.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(sets) != 0 {
		t.Errorf("expected no completions saved, got %v", sets)
	}
}

func TestMarkCompletedRetraction(t *testing.T) {
	tr := newTestTracker(t)
	ctx := context.Background()

	if _, err := tr.MarkCompleted(ctx, "alice", []string{"UMBUMBULU"}); err != nil {
		t.Fatalf("MarkCompleted failed: %v", err)
	}
	if _, err := tr.MarkCompleted(ctx, "alice", nil); err != nil {
		t.Fatalf("retracting MarkCompleted failed: %v", err)
	}

	state, _, err := tr.Status("UMBUMBULU")
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if state != reconcile.NotStarted {
		t.Errorf("expected retraction back to Not Started, got %s", state)
	}
}

func TestReassign(t *testing.T) {
	tr := newTestTracker(t)
	ctx := context.Background()

	if _, err := tr.Reassign(ctx, "Inwabi", "carol"); err != nil {
		t.Fatalf("Reassign failed: %v", err)
	}

	editors, err := tr.ListEditors()
	if err != nil {
		t.Fatalf("ListEditors failed: %v", err)
	}
	want := []string{"alice", "carol"}
	if diff := cmp.Diff(want, editors); diff != "" {
		t.Errorf("editor list mismatch after reassign (-want +got):\n%s", diff)
	}

	suburbs, err := tr.SuburbsFor("carol")
	if err != nil {
		t.Fatalf("SuburbsFor failed: %v", err)
	}
	if len(suburbs) != 1 || suburbs[0] != "INWABI" {
		t.Errorf("expected carol to hold INWABI, got %v", suburbs)
	}

	// A later reassignment overwrites the first.
	if _, err := tr.Reassign(ctx, "INWABI", "dave"); err != nil {
		t.Fatalf("second Reassign failed: %v", err)
	}
	suburbs, err = tr.SuburbsFor("dave")
	if err != nil {
		t.Fatalf("SuburbsFor failed: %v", err)
	}
	if len(suburbs) != 1 || suburbs[0] != "INWABI" {
		t.Errorf("expected dave to hold INWABI, got %v", suburbs)
	}
}

func TestReassignUnknownSuburb(t *testing.T) {
	tr := newTestTracker(t)

	if _, err := tr.Reassign(context.Background(), "ATLANTIS", "carol"); err == nil {
		t.Error("expected error for unknown suburb")
	}
}

func TestSummaryAfterCompletion(t *testing.T) {
	tr := newTestTracker(t)

	if _, err := tr.MarkCompleted(context.Background(), "alice", []string{"UMBUMBULU"}); err != nil {
		t.Fatalf("MarkCompleted failed: %v", err)
	}

	summaries, err := tr.Summary()
	if err != nil {
		t.Fatalf("Summary failed: %v", err)
	}
	want := []reconcile.EditorSummary{
		{Editor: "alice", Completed: 1, Total: 1, Percent: 100},
		{Editor: "bob", Completed: 0, Total: 1, Percent: 0},
	}
	if diff := cmp.Diff(want, summaries); diff != "" {
		t.Errorf("summary mismatch (-want +got):\n%s", diff)
	}
}
