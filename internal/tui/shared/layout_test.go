package shared

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
)

func TestCenterVertically(t *testing.T) {
	out := CenterVertically("hello", 5)
	lines := strings.Split(out, "\n")
	if len(lines) != 5 {
		t.Fatalf("got %d lines, want 5", len(lines))
	}
	if strings.TrimSpace(lines[2]) != "hello" {
		t.Errorf("content should sit on the middle line: %q", lines)
	}

	tall := "a\nb\nc"
	if got := CenterVertically(tall, 2); got != tall {
		t.Errorf("content taller than height should be unchanged, got %q", got)
	}
}

func TestCenterAbove(t *testing.T) {
	out := CenterAbove("body", "esc: back", 6)
	if h := lipgloss.Height(out); h != 6 {
		t.Errorf("height = %d, want 6", h)
	}
	lines := strings.Split(out, "\n")
	if lines[len(lines)-1] != "esc: back" {
		t.Errorf("hints should be on the last line: %q", lines)
	}
}
