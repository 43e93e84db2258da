package logs

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestInitializeWritesToDataDir(t *testing.T) {
	first, second := t.TempDir(), t.TempDir()

	if err := Initialize(first); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	Logger.Printf("first message")
	if err := Initialize(second); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	Logger.Printf("second message")
	if err := Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	Logger.Printf("dropped")

	read := func(dir string) string {
		data, err := os.ReadFile(filepath.Join(dir, FileName))
		if err != nil {
			t.Fatalf("read log: %v", err)
		}
		return string(data)
	}
	if got := read(first); !strings.Contains(got, "first message") || strings.Contains(got, "second message") {
		t.Errorf("first log = %q", got)
	}
	if got := read(second); !strings.Contains(got, "second message") || strings.Contains(got, "dropped") {
		t.Errorf("second log = %q", got)
	}
}

func TestInitializeMissingDir(t *testing.T) {
	if err := Initialize(filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Error("expected an error for a missing directory")
	}
	if err := Initialize(""); err != nil {
		t.Errorf("empty dir should be a no-op, got %v", err)
	}
}
