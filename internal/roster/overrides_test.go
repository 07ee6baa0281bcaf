package roster

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func newTestOverrides(t *testing.T) *OverrideStore {
	t.Helper()
	path := filepath.Join(t.TempDir(), "overrides.csv")
	return NewOverrideStore(path, nil)
}

func TestOverridesLoadMissingFile(t *testing.T) {
	store := newTestOverrides(t)

	overrides, err := store.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(overrides) != 0 {
		t.Errorf("expected empty mapping for missing file, got %v", overrides)
	}
}

func TestOverridesSetAndLoad(t *testing.T) {
	store := newTestOverrides(t)

	if err := store.Set("Inwabi", "carol"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := store.Set("UMBUMBULU", "bob"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	overrides, err := store.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	want := map[string]string{
		"INWABI":    "carol",
		"UMBUMBULU": "bob",
	}
	if diff := cmp.Diff(want, overrides); diff != "" {
		t.Errorf("override mapping mismatch (-want +got):\n%s", diff)
	}
}

func TestOverridesSetReplacesPrior(t *testing.T) {
	store := newTestOverrides(t)

	if err := store.Set("INWABI", "carol"); err != nil {
		t.Fatalf("first Set failed: %v", err)
	}
	if err := store.Set("inwabi", "dave"); err != nil {
		t.Fatalf("second Set failed: %v", err)
	}

	overrides, err := store.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(overrides) != 1 || overrides["INWABI"] != "dave" {
		t.Errorf("expected single override to dave, got %v", overrides)
	}

	// The rewrite keeps one row per suburb.
	data, err := os.ReadFile(store.Path())
	if err != nil {
		t.Fatalf("failed to read override file: %v", err)
	}
	if got := strings.Count(string(data), "INWABI"); got != 1 {
		t.Errorf("expected 1 INWABI row on disk, got %d", got)
	}
}

func TestOverridesSetValidates(t *testing.T) {
	store := newTestOverrides(t)

	if err := store.Set("  ", "carol"); err == nil {
		t.Error("expected error for empty suburb")
	}
	if err := store.Set("INWABI", "  "); err == nil {
		t.Error("expected error for empty editor")
	}
}

func TestOverridesLoadErrorOnUnreadableStore(t *testing.T) {
	// A directory opens fine but every read fails the same way; Load
	// must surface that instead of retrying the skip loop forever.
	store := NewOverrideStore(t.TempDir(), nil)

	done := make(chan error, 1)
	go func() {
		_, err := store.Load()
		done <- err
	}()

	select {
	case err := <-done:
		if err == nil {
			t.Error("expected error when the store path is a directory")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Load did not return for an unreadable store")
	}
}

func TestOverridesLoadLastWriteWins(t *testing.T) {
	path := filepath.Join(t.TempDir(), "overrides.csv")
	content := strings.Join([]string{
		"SUBURB,Assigned",
		"INWABI,carol",
		"INWABI,dave",
		"malformed-row",
		"\"UM\"LAZI,eve",
		",empty-suburb",
		"",
	}, "\n")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}

	store := NewOverrideStore(path, nil)
	overrides, err := store.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	want := map[string]string{"INWABI": "dave"}
	if diff := cmp.Diff(want, overrides); diff != "" {
		t.Errorf("override mapping mismatch (-want +got):\n%s", diff)
	}
}
