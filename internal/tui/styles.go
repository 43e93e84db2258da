package tui

import (
	"github.com/charmbracelet/lipgloss"

	"jobtrack/internal/tui/theme"
)

var (
	TabStyle       = theme.TabInactive.Padding(0, 1)
	ActiveTabStyle = theme.TabActive.Padding(0, 1).Underline(true)
	TabBarStyle    = theme.TabBar

	BannerStyle    = theme.Banner
	StatusBarStyle = theme.StatusBar
	HelpStyle      = theme.HelpHint

	appNameStyle = lipgloss.NewStyle().Bold(true).Foreground(theme.Accent).PaddingRight(2)
)
