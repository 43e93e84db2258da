package messages

import (
	tea "github.com/charmbracelet/bubbletea"

	"jobtrack/internal/records/models"
)

// ViewType represents the different views in the application
type ViewType int

const (
	ViewTable ViewType = iota
	ViewBoard
	ViewDetail
)

// SwitchViewMsg is sent by child views to switch to a different view
type SwitchViewMsg struct {
	View ViewType
}

// OpenRecordMsg requests the detail view of one record
type OpenRecordMsg struct {
	ID int64
}

// SettingsMsg carries a newly published settings document. It is sent from
// outside the update loop through Program.Send.
type SettingsMsg struct {
	Settings models.Settings
}

// RecordsChangedMsg reports that a session operation finished. Err is the
// operation's error, if any; network failures also land in the error slot.
type RecordsChangedMsg struct {
	Status string
	Err    error
	Focus  int64 // record to move the cursor to, 0 for none
}

// DataRefreshMsg signals that data should be reloaded
type DataRefreshMsg struct{}

func SwitchView(v ViewType) tea.Cmd {
	return func() tea.Msg {
		return SwitchViewMsg{View: v}
	}
}

func OpenRecord(id int64) tea.Cmd {
	return func() tea.Msg {
		return OpenRecordMsg{ID: id}
	}
}

// CloseRecordMsg leaves the detail view for the view it was opened from
type CloseRecordMsg struct{}

func CloseRecord() tea.Msg {
	return CloseRecordMsg{}
}
