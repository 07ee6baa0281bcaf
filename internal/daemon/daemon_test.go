package daemon

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sjvdm/roadprog/internal/cache"
	"github.com/sjvdm/roadprog/internal/completion"
	"github.com/sjvdm/roadprog/internal/roster"
	"github.com/sjvdm/roadprog/internal/tracker"
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

type testEnv struct {
	dir         string
	tracker     *tracker.Tracker
	completions *completion.Store
	db          *cache.DB
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()

	rosterPath := filepath.Join(dir, "suburbs.geojson")
	if err := os.WriteFile(rosterPath, []byte(testRoster), 0644); err != nil {
		t.Fatalf("failed to write roster file: %v", err)
	}

	completions := completion.NewStore(filepath.Join(dir, "completions.csv"), nil)
	tr := tracker.New(tracker.Options{
		Roster:      roster.NewStore(roster.DefaultOptions(rosterPath)),
		Overrides:   roster.NewOverrideStore(filepath.Join(dir, "overrides.csv"), nil),
		Completions: completions,
	})

	db, err := cache.Open(filepath.Join(dir, "cache.db"))
	if err != nil {
		t.Fatalf("failed to open cache: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := db.InitSchema(); err != nil {
		t.Fatalf("failed to init schema: %v", err)
	}

	return &testEnv{dir: dir, tracker: tr, completions: completions, db: db}
}

func testConfig() *Config {
	return &Config{
		DebounceInterval: 50 * time.Millisecond,
		Logger:           log.New(os.Stderr, "[test] ", log.LstdFlags),
	}
}

func TestNewValidation(t *testing.T) {
	env := setupTestEnv(t)

	if _, err := New(nil, env.db, env.dir, nil, testConfig()); err == nil {
		t.Error("expected error for nil tracker")
	}
	if _, err := New(env.tracker, nil, env.dir, nil, testConfig()); err == nil {
		t.Error("expected error for nil cache")
	}
	if _, err := New(env.tracker, env.db, "", nil, testConfig()); err == nil {
		t.Error("expected error for empty data directory")
	}
}

func TestInitialResync(t *testing.T) {
	env := setupTestEnv(t)
	if err := env.completions.Save("alice", []string{"UMBUMBULU"}); err != nil {
		t.Fatalf("failed to seed completions: %v", err)
	}

	d, err := New(env.tracker, env.db, env.dir, []string{env.completions.Path()}, testConfig())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	if err := d.Resync(); err != nil {
		t.Fatalf("Resync failed: %v", err)
	}

	ctx := context.Background()
	suburbs, err := env.db.SuburbCount(ctx)
	if err != nil {
		t.Fatalf("SuburbCount failed: %v", err)
	}
	if suburbs != 2 {
		t.Errorf("expected 2 suburbs in cache, got %d", suburbs)
	}

	completions, err := env.db.CompletionCount(ctx)
	if err != nil {
		t.Fatalf("CompletionCount failed: %v", err)
	}
	if completions != 1 {
		t.Errorf("expected 1 completion in cache, got %d", completions)
	}
}

func TestResyncNotifiesHook(t *testing.T) {
	env := setupTestEnv(t)

	synced := make(chan cache.Stats, 1)
	config := testConfig()
	config.OnSync = func(stats cache.Stats, duration time.Duration) {
		select {
		case synced <- stats:
		default:
		}
	}

	d, err := New(env.tracker, env.db, env.dir, []string{env.completions.Path()}, config)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	if err := d.Resync(); err != nil {
		t.Fatalf("Resync failed: %v", err)
	}

	select {
	case stats := <-synced:
		if stats.Suburbs != 2 {
			t.Errorf("expected 2 suburbs in stats, got %d", stats.Suburbs)
		}
	default:
		t.Error("expected OnSync to be called")
	}
}

func TestWatchTriggersResync(t *testing.T) {
	env := setupTestEnv(t)

	d, err := New(env.tracker, env.db, env.dir, []string{env.completions.Path()}, testConfig())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- d.Start(ctx) }()

	// Give the watcher time to settle, then write a completion.
	time.Sleep(200 * time.Millisecond)
	if err := env.completions.Save("alice", []string{"UMBUMBULU"}); err != nil {
		t.Fatalf("failed to save completions: %v", err)
	}

	// Wait for the debounced resync to land in the cache.
	deadline := time.Now().Add(5 * time.Second)
	for {
		n, err := env.db.CompletionCount(context.Background())
		if err != nil {
			t.Fatalf("CompletionCount failed: %v", err)
		}
		if n == 1 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("timed out waiting for resync after file change")
		}
		time.Sleep(50 * time.Millisecond)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Start returned error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for daemon shutdown")
	}
}

func TestRelevantFiltersEvents(t *testing.T) {
	env := setupTestEnv(t)

	d, err := New(env.tracker, env.db, env.dir, []string{env.completions.Path()}, testConfig())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer d.watcher.Close()

	if !d.watched["completions.csv"] {
		t.Error("expected completions.csv to be watched")
	}
	if d.watched["cache.db"] {
		t.Error("expected cache.db not to be watched")
	}
}
