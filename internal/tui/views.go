package tui

import "jobtrack/internal/tui/messages"

// Re-export types from messages package for convenience
type ViewType = messages.ViewType

const (
	ViewTable  = messages.ViewTable
	ViewBoard  = messages.ViewBoard
	ViewDetail = messages.ViewDetail
)

type SwitchViewMsg = messages.SwitchViewMsg
type OpenRecordMsg = messages.OpenRecordMsg
type CloseRecordMsg = messages.CloseRecordMsg
type SettingsMsg = messages.SettingsMsg
type RecordsChangedMsg = messages.RecordsChangedMsg
type DataRefreshMsg = messages.DataRefreshMsg

// ParseView maps a config view name to a view, defaulting to the table
func ParseView(name string) ViewType {
	if name == "board" {
		return ViewBoard
	}
	return ViewTable
}
