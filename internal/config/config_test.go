package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// isolate points HOME at a temp dir and clears the env overrides
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("JOBTRACK_DATA_DIR", "")
	t.Setenv("JOBTRACK_VIEW", "")
	return home
}

func writeConfig(t *testing.T, home, content string) {
	t.Helper()
	dir := filepath.Join(home, ".config", "jobtrack")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "config.json"), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestLoad_Default(t *testing.T) {
	home := isolate(t)

	cfg, err := Load(CLIFlags{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.DataDir != filepath.Join(home, "jobtrack") {
		t.Errorf("expected default data dir, got %q", cfg.DataDir)
	}
	if cfg.DefaultView != ViewTable {
		t.Errorf("expected default view 'table', got %q", cfg.DefaultView)
	}
	if cfg.Debounce() != 400*time.Millisecond {
		t.Errorf("expected 400ms debounce, got %v", cfg.Debounce())
	}
	if cfg.UploadTimeout() != 120*time.Second {
		t.Errorf("expected 120s upload timeout, got %v", cfg.UploadTimeout())
	}
}

func TestLoad_ConfigFile(t *testing.T) {
	home := isolate(t)
	writeConfig(t, home, `{
  // personal setup
  "data_dir": "~/Documents/hunt",
  "default_view": "board",
  "debounce_ms": 250,
}`)

	cfg, err := Load(CLIFlags{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.DataDir != filepath.Join(home, "Documents", "hunt") {
		t.Errorf("expected expanded data dir, got %q", cfg.DataDir)
	}
	if cfg.DefaultView != ViewBoard {
		t.Errorf("expected view 'board', got %q", cfg.DefaultView)
	}
	if cfg.DebounceMS != 250 {
		t.Errorf("expected debounce 250, got %d", cfg.DebounceMS)
	}
	if cfg.UploadTimeoutSeconds != 120 {
		t.Errorf("expected default upload timeout, got %d", cfg.UploadTimeoutSeconds)
	}
}

func TestLoad_BrokenConfigFile(t *testing.T) {
	home := isolate(t)
	writeConfig(t, home, `{"data_dir": `)

	if _, err := Load(CLIFlags{}); err == nil {
		t.Error("expected error for malformed config file")
	}
}

func TestLoad_EnvVar(t *testing.T) {
	home := isolate(t)
	writeConfig(t, home, `{"data_dir": "/tmp/from-file", "default_view": "table"}`)
	t.Setenv("JOBTRACK_DATA_DIR", "/tmp/from-env")
	t.Setenv("JOBTRACK_VIEW", "board")

	cfg, err := Load(CLIFlags{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.DataDir != "/tmp/from-env" {
		t.Errorf("expected /tmp/from-env, got %q", cfg.DataDir)
	}
	if cfg.DefaultView != ViewBoard {
		t.Errorf("expected board, got %q", cfg.DefaultView)
	}
}

func TestLoad_CLIFlags(t *testing.T) {
	isolate(t)
	t.Setenv("JOBTRACK_DATA_DIR", "/tmp/from-env")

	cfg, err := Load(CLIFlags{DataDir: "/tmp/from-cli", View: "board"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// CLI flags should override env vars
	if cfg.DataDir != "/tmp/from-cli" {
		t.Errorf("expected /tmp/from-cli, got %q", cfg.DataDir)
	}
	if cfg.DefaultView != ViewBoard {
		t.Errorf("expected board, got %q", cfg.DefaultView)
	}
}

func TestLoad_UnknownView(t *testing.T) {
	isolate(t)

	if _, err := Load(CLIFlags{View: "calendar"}); err == nil {
		t.Error("expected error for unknown view")
	}
}

func TestEnsureConfigFile(t *testing.T) {
	home := isolate(t)

	if err := EnsureConfigFile(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cfg, err := Load(CLIFlags{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.DataDir != filepath.Join(home, "jobtrack") {
		t.Errorf("expected data dir from generated file, got %q", cfg.DataDir)
	}
}
