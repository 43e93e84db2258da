package board

import (
	"github.com/charmbracelet/lipgloss"

	"jobtrack/internal/tui/theme"
)

const (
	// Layout constants
	columnWidth             = 34
	columnPaddingHorizontal = 1
	cardPaddingHorizontal   = 1
	cardBorderWidth         = 1
	scrollIndicatorWidth    = 3
)

var (
	titleStyle = theme.Title.Padding(0, 1)

	// Column styles
	columnStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(theme.Border).
			Padding(1, columnPaddingHorizontal).
			Width(columnWidth)

	selectedColumnStyle = columnStyle.BorderForeground(theme.BorderFocused)

	dragColumnStyle = columnStyle.BorderForeground(theme.Warning)

	dropColumnStyle = columnStyle.BorderForeground(theme.Accent)

	extraColumnStyle = columnStyle.BorderStyle(lipgloss.NormalBorder())

	columnTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Align(lipgloss.Center)

	// Card styles
	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder(), false, false, false, true).
			BorderForeground(theme.Border).
			Padding(0, cardPaddingHorizontal).
			MarginBottom(1)

	selectedCardStyle = cardStyle.
				BorderForeground(theme.BorderFocused).
				Background(theme.Surface).
				Bold(true)

	draggedCardStyle = cardStyle.
				BorderForeground(theme.Warning).
				Background(lipgloss.Color("54")).
				Bold(true)

	cardTitleStyle = lipgloss.NewStyle().
			Foreground(theme.Primary).
			Bold(true)

	cardMetaStyle = lipgloss.NewStyle().
			Foreground(theme.Accent).
			Italic(true)

	dropMarkerStyle = lipgloss.NewStyle().
			Foreground(theme.Accent).
			Bold(true)

	scrollIndicatorStyle = lipgloss.NewStyle().
				Foreground(theme.Warning).
				Italic(true)

	filterIndicatorStyle = lipgloss.NewStyle().
				Foreground(theme.Secondary).
				Bold(true)

	helpStyle = theme.Muted.Padding(1, 2)
)
