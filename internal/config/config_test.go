package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.DataDir != "data" {
		t.Errorf("expected default data dir, got %q", cfg.DataDir)
	}
	if cfg.NameColumn != "NAME" || cfg.AssignedColumn != "Assigned" {
		t.Errorf("unexpected default columns: %q, %q", cfg.NameColumn, cfg.AssignedColumn)
	}
	if cfg.Port != 8080 {
		t.Errorf("expected default port 8080, got %d", cfg.Port)
	}
	if cfg.Remote != "" {
		t.Errorf("expected sync disabled by default, got remote %q", cfg.Remote)
	}
}

func TestLoadFromFile(t *testing.T) {
	t.Chdir(t.TempDir())

	content := "data_dir: /srv/roadprog\nremote: origin\nport: 9090\n"
	if err := os.WriteFile("roadprog.yaml", []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.DataDir != "/srv/roadprog" {
		t.Errorf("expected data dir from file, got %q", cfg.DataDir)
	}
	if cfg.Remote != "origin" {
		t.Errorf("expected remote from file, got %q", cfg.Remote)
	}
	if cfg.Port != 9090 {
		t.Errorf("expected port from file, got %d", cfg.Port)
	}
	// Keys not in the file keep their defaults.
	if cfg.NameColumn != "NAME" {
		t.Errorf("expected default name column, got %q", cfg.NameColumn)
	}
}

func TestLoadMalformedFile(t *testing.T) {
	t.Chdir(t.TempDir())

	if err := os.WriteFile("roadprog.yaml", []byte(":\nnot yaml at all ["), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	if _, err := Load(); err == nil {
		t.Error("expected error for malformed config file")
	}
}

func TestEnvOverride(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("ROADPROG_REMOTE", "upstream")
	t.Setenv("ROADPROG_PORT", "7070")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Remote != "upstream" {
		t.Errorf("expected remote from environment, got %q", cfg.Remote)
	}
	if cfg.Port != 7070 {
		t.Errorf("expected port from environment, got %d", cfg.Port)
	}
}

func TestWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roadprog.yaml")

	cfg := defaults()
	if err := cfg.Write(path); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read written config: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("expected non-empty config file")
	}

	// The written file round-trips through Load.
	t.Chdir(filepath.Dir(path))
	loaded, err := Load()
	if err != nil {
		t.Fatalf("Load of written config failed: %v", err)
	}
	if loaded != cfg {
		t.Errorf("round trip mismatch:\nwrote:  %+v\nloaded: %+v", cfg, loaded)
	}
}
