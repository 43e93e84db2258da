package shared

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"jobtrack/internal/tui/theme"
)

// HelpBind represents a single keybind entry
type HelpBind struct {
	Key  string
	Desc string
}

// HelpSection represents a group of related keybinds
type HelpSection struct {
	Title string
	Binds []HelpBind
}

var (
	helpSectionStyle = theme.Title
	helpKeyStyle     = lipgloss.NewStyle().Bold(true).Foreground(theme.Secondary)
	helpDescStyle    = lipgloss.NewStyle().Foreground(theme.Text)
	helpBoxStyle     = theme.ModalBox
	helpDismissStyle = theme.HelpHint
)

// RenderHelpPopup renders a centered help popup with the given sections
func RenderHelpPopup(sections []HelpSection, width, height int) string {
	line := func(key, desc string) string {
		return "  " + helpKeyStyle.Width(14).Render(key) + helpDescStyle.Render(desc)
	}

	// Sections are laid out in two columns when there are more than three
	var left, right strings.Builder
	for i, section := range sections {
		b := &left
		if len(sections) > 3 && i >= (len(sections)+1)/2 {
			b = &right
		}
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString(helpSectionStyle.Render(section.Title) + "\n")
		for _, bind := range section.Binds {
			b.WriteString(line(bind.Key, bind.Desc) + "\n")
		}
	}

	content := strings.TrimRight(left.String(), "\n")
	if right.Len() > 0 {
		content = lipgloss.JoinHorizontal(lipgloss.Top, content, "    ", strings.TrimRight(right.String(), "\n"))
	}
	content += "\n\n" + helpDismissStyle.Render("Press any key to close")

	box := helpBoxStyle.Render(content)
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, box)
}
