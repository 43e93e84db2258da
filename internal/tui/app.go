package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"jobtrack/internal/logs"
	"jobtrack/internal/session"
	boardview "jobtrack/internal/tui/board"
	detailview "jobtrack/internal/tui/detail"
	"jobtrack/internal/tui/shared"
	tableview "jobtrack/internal/tui/table"
)

// chrome is the tab bar, banner line and status bar around the child view
const chromeLines = 5

// AppModel is the root model that dispatches to child views
type AppModel struct {
	sess         *session.Session
	currentView  ViewType
	previousView ViewType
	tableView    tableview.Model
	boardView    boardview.BoardModel
	detailView   detailview.Model
	showHelp     bool
	width        int
	height       int
	ready        bool
}

// NewAppModel creates the root application model on a loaded session
func NewAppModel(sess *session.Session, view ViewType) AppModel {
	if view == ViewDetail {
		view = ViewTable
	}
	return AppModel{
		sess:         sess,
		currentView:  view,
		previousView: view,
		tableView:    tableview.New(sess),
		boardView:    boardview.NewBoardModel(sess),
		detailView:   detailview.New(sess),
	}
}

func (m AppModel) Init() tea.Cmd {
	return tea.SetWindowTitle("jobtrack")
}

func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		contentHeight := max(1, msg.Height-chromeLines)
		m.tableView.SetSize(msg.Width, contentHeight)
		m.boardView.SetSize(msg.Width, contentHeight)
		m.detailView.SetSize(msg.Width, contentHeight)
		return m, nil

	case SettingsMsg:
		// Publishes can arrive out of order, the session always has the newest
		settings := m.sess.Settings()
		m.tableView.Reload(settings)
		m.boardView.Reload(settings)
		m.detailView.Refresh()
		return m, nil

	case RecordsChangedMsg:
		switch m.currentView {
		case ViewTable:
			m.tableView.HandleResult(msg)
			m.boardView.Refresh()
			m.detailView.Refresh()
		case ViewBoard:
			m.boardView.HandleResult(msg)
			m.tableView.Refresh()
			m.detailView.Refresh()
		case ViewDetail:
			m.detailView.HandleResult(msg)
			m.tableView.Refresh()
			m.boardView.Refresh()
		}
		return m, nil

	case OpenRecordMsg:
		if !m.detailView.Open(msg.ID) {
			logs.Logger.Printf("open: record %d is gone", msg.ID)
			return m, nil
		}
		if m.currentView != ViewDetail {
			m.previousView = m.currentView
		}
		m.currentView = ViewDetail
		return m, nil

	case CloseRecordMsg:
		id := m.detailView.ID()
		m.currentView = m.previousView
		m.tableView.Focus(id)
		m.boardView.Focus(id)
		return m, nil

	case SwitchViewMsg:
		m.switchTo(msg.View)
		return m, nil

	case DataRefreshMsg:
		return m, shared.Refresh(m.sess)

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}

		if m.showHelp {
			m.showHelp = false
			return m, nil
		}

		if !m.childIsModal() {
			switch msg.String() {
			case "1":
				m.switchTo(ViewTable)
				return m, nil
			case "2":
				m.switchTo(ViewBoard)
				return m, nil
			case "?":
				m.showHelp = true
				return m, nil
			case "!":
				if err := m.sess.Errors().Take(); err != nil {
					logs.Logger.Printf("dismissed: %v", err)
				}
				return m, nil
			case "ctrl+r":
				return m, shared.Refresh(m.sess)
			case "q":
				if m.currentView != ViewDetail {
					return m, tea.Quit
				}
			}
		}
	}

	return m.dispatch(msg)
}

// dispatch hands a message to the active view. Background results of the
// detail view, such as a finished upload, still reach it after the user has
// moved on.
func (m AppModel) dispatch(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.currentView {
	case ViewTable:
		m.tableView, cmd = m.tableView.Update(msg)
	case ViewBoard:
		m.boardView, cmd = m.boardView.Update(msg)
	case ViewDetail:
		m.detailView, cmd = m.detailView.Update(msg)
		return m, cmd
	}
	if foreground(msg) {
		return m, cmd
	}

	var bg tea.Cmd
	m.detailView, bg = m.detailView.Update(msg)
	return m, tea.Batch(cmd, bg)
}

// foreground messages only make sense to the view the user is looking at
func foreground(msg tea.Msg) bool {
	switch msg.(type) {
	case tea.KeyMsg, tea.MouseMsg, shared.TextInputResultMsg, shared.ConfirmationResultMsg:
		return true
	}
	return false
}

func (m *AppModel) switchTo(view ViewType) {
	if view == ViewDetail {
		if m.detailView.ID() == 0 {
			return
		}
		m.previousView = m.currentView
	}
	switch view {
	case ViewTable:
		m.tableView.Refresh()
	case ViewBoard:
		m.boardView.Refresh()
	}
	m.currentView = view
}

func (m AppModel) childIsModal() bool {
	switch m.currentView {
	case ViewTable:
		return m.tableView.IsModal()
	case ViewBoard:
		return m.boardView.IsModal()
	case ViewDetail:
		return m.detailView.IsModal()
	}
	return false
}

func (m AppModel) View() string {
	if !m.ready {
		return "Loading..."
	}

	if m.showHelp {
		return shared.RenderHelpPopup(helpSections, m.width, m.height)
	}

	var content string
	switch m.currentView {
	case ViewTable:
		content = m.tableView.View()
	case ViewBoard:
		content = m.boardView.View()
	case ViewDetail:
		content = m.detailView.View()
	}

	statusText := "1:table 2:board | ctrl+r: reload | ?:help | q:quit"
	if m.currentView == ViewDetail {
		statusText = "1:table 2:board | esc: back | ?:help"
	}
	statusBar := StatusBarStyle.Width(m.width).Render(HelpStyle.Render(statusText))

	return lipgloss.JoinVertical(lipgloss.Left, m.renderTabs(), m.renderBanner(), content, statusBar)
}

func (m AppModel) renderTabs() string {
	tab := func(label string, active bool) string {
		if active {
			return ActiveTabStyle.Render(label)
		}
		return TabStyle.Render(label)
	}
	tabs := []string{
		appNameStyle.Render("jobtrack"),
		tab("1 Table", m.currentView == ViewTable),
		tab("2 Board", m.currentView == ViewBoard),
	}
	if id := m.detailView.ID(); id != 0 {
		if rec, ok := m.sess.Record(id); ok {
			tabs = append(tabs, tab(ansi.Truncate(rec.CompanyName, 24, "…"), m.currentView == ViewDetail))
		}
	}
	return TabBarStyle.Width(m.width).Render(lipgloss.JoinHorizontal(lipgloss.Top, tabs...))
}

// renderBanner shows the process-wide error until it is dismissed
func (m AppModel) renderBanner() string {
	err := m.sess.Errors().Peek()
	if err == nil {
		return ""
	}
	text := fmt.Sprintf("%v  (! to dismiss)", err)
	text = strings.ReplaceAll(text, "\n", " ")
	return BannerStyle.Render(ansi.Truncate(text, max(10, m.width-2), "…"))
}

var helpSections = []shared.HelpSection{
	{
		Title: "Global",
		Binds: []shared.HelpBind{
			{Key: "1 / 2", Desc: "Table / board"},
			{Key: "ctrl+r", Desc: "Reload from disk"},
			{Key: "!", Desc: "Dismiss error"},
			{Key: "?", Desc: "Show this help"},
			{Key: "q", Desc: "Quit"},
		},
	},
	{
		Title: "Table",
		Binds: []shared.HelpBind{
			{Key: "hjkl", Desc: "Move"},
			{Key: "enter", Desc: "Edit cell / toggle group"},
			{Key: "space / esc", Desc: "Select row / clear"},
			{Key: "/ f F", Desc: "Search / filter / clear"},
			{Key: "s g a", Desc: "Sort / group / aggregate"},
			{Key: "< > =", Desc: "Resize / fit column"},
			{Key: "m p c", Desc: "Move / pin / columns"},
			{Key: "r d", Desc: "Rename column / density"},
			{Key: "+ X", Desc: "Add / remove property"},
			{Key: "O R", Desc: "Add / rename option"},
			{Key: "n D B", Desc: "New / delete / bulk edit"},
			{Key: "o y", Desc: "Open / copy cell"},
		},
	},
	{
		Title: "Board",
		Binds: []shared.HelpBind{
			{Key: "hjkl", Desc: "Move"},
			{Key: "m / M", Desc: "Drag card / stage"},
			{Key: "enter", Desc: "Open application"},
			{Key: "n D", Desc: "New / delete"},
			{Key: "f O", Desc: "Star / outcome"},
			{Key: "a r C X", Desc: "Stage add/rename/color/delete"},
			{Key: "/", Desc: "Filter"},
		},
	},
	{
		Title: "Application",
		Binds: []shared.HelpBind{
			{Key: "j / k", Desc: "Scroll"},
			{Key: "tab", Desc: "Documents / to-dos"},
			{Key: "J / K", Desc: "Select item"},
			{Key: "u y", Desc: "Upload / copy link"},
			{Key: "t E space", Desc: "Add / edit / finish to-do"},
			{Key: "x", Desc: "Delete selected item"},
			{Key: "e", Desc: "Edit notes in $EDITOR"},
			{Key: "f", Desc: "Star"},
			{Key: "esc", Desc: "Back or cancel upload"},
		},
	},
}
