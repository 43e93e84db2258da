package shared

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// CenterVertically pads content to height lines with the content in the
// middle. Content that does not fit is returned as is.
func CenterVertically(content string, height int) string {
	content = strings.TrimRight(content, "\n")
	if lipgloss.Height(content) >= height {
		return content
	}
	return lipgloss.PlaceVertical(height, lipgloss.Center, content)
}

// CenterAbove centers content in the lines left over after hints, which
// stay pinned to the bottom.
func CenterAbove(content, hints string, height int) string {
	content = strings.TrimRight(content, "\n")
	hints = strings.TrimRight(hints, "\n")
	room := height - lipgloss.Height(hints)
	return CenterVertically(content, room) + "\n" + hints
}
