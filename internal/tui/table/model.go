// Package table is the spreadsheet view: one row per application, one column
// per visible property, with the query, layout and editing state of the grid
// engine behind it.
package table

import (
	"fmt"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"jobtrack/internal/grid"
	"jobtrack/internal/kanban/drag"
	"jobtrack/internal/records/models"
	"jobtrack/internal/schema"
	"jobtrack/internal/session"
	"jobtrack/internal/tui/messages"
	"jobtrack/internal/tui/shared"
)

type mode int

const (
	modeNormal mode = iota
	modeSearch
	modePrompt
	modePicker
	modeConfirm
	modeColumns
	modeDrag
	modeResize
)

// purpose tells what the open prompt, picker or confirmation is for
type purpose int

const (
	forCell purpose = iota
	forBulk
	forFilter
	forLabel
	forAggregate
	forNewCompany
	forNewPosition
	forPropertyName
	forPropertyKind
	forPropertyOptions
	forAddOption
	forRenameOptionFrom
	forRenameOptionTo
	forDeleteRows
	forRemoveProperty
)

// Model is the grid view
type Model struct {
	sess   *session.Session
	layout *grid.Layout
	drag   drag.ColumnDrag

	view  grid.View
	lines []grid.Line

	cursor  int // index into lines
	col     int // index into the visible columns
	offset  int // first displayed line
	hscroll int // first scrolled (non-pinned) column
	width   int
	height  int

	mode    mode
	purpose purpose
	editor  *grid.Editor
	editIDs []int64
	prompt  *shared.TextInputModel
	picker  *shared.PickerModel
	confirm *shared.ConfirmationModal
	search  textinput.Model
	columns *columnsModel
	draft   map[string]string // values collected across chained prompts

	selected map[int64]bool
	message  string
	err      error
}

// New builds the grid view over the session's records and settings
func New(sess *session.Session) Model {
	search := textinput.New()
	search.Placeholder = "search company, position, location, notes..."
	search.CharLimit = 100
	search.Width = 40

	m := Model{
		sess:     sess,
		layout:   grid.NewLayout(sess.Settings(), sess),
		search:   search,
		selected: make(map[int64]bool),
	}
	m.recompute()
	return m
}

// SetSize updates the view dimensions
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.adjustScroll()
}

// Reload adopts a newly published settings document
func (m *Model) Reload(s models.Settings) {
	m.layout.Reload(s)
	m.recompute()
}

// Refresh re-runs the pipeline over the session's current records
func (m *Model) Refresh() {
	m.recompute()
}

// IsModal reports whether keys must not be intercepted by the app
func (m Model) IsModal() bool {
	return m.mode != modeNormal
}

// Layout exposes the column layout for the help and status bars
func (m Model) Layout() *grid.Layout {
	return m.layout
}

// HandleResult shows the outcome of a finished session operation
func (m *Model) HandleResult(msg messages.RecordsChangedMsg) {
	m.recompute()
	m.message = msg.Status
	m.err = nil
	if msg.Err != nil {
		m.message = ""
		if text, isErr := shared.InlineError(msg.Err); isErr {
			m.err = msg.Err
		} else {
			m.message = text
		}
	}
	if msg.Focus != 0 {
		m.Focus(msg.Focus)
	}
}

// Focus moves the cursor to the row of record id
func (m *Model) Focus(id int64) {
	for i, line := range m.lines {
		if !line.Header && m.view.Rows[line.Row].ID == id {
			m.cursor = i
			m.adjustScroll()
			return
		}
	}
}

func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles grid events as a child view
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case shared.TextInputResultMsg:
		if m.mode == modePrompt {
			m, cmd = m.handlePromptResult(msg)
		}

	case shared.ConfirmationResultMsg:
		if m.mode == modeConfirm {
			m, cmd = m.handleConfirmResult(msg)
		}

	case tea.KeyMsg:
		switch m.mode {
		case modeNormal:
			m, cmd = m.updateNormal(msg)
		case modeSearch:
			m, cmd = m.updateSearch(msg)
		case modePrompt:
			_, cmd = m.prompt.Update(msg)
		case modePicker:
			m, cmd = m.updatePicker(msg)
		case modeConfirm:
			cmd = m.confirm.Update(msg)
		case modeColumns:
			m = m.updateColumns(msg)
		case modeDrag:
			m = m.updateDrag(msg)
		case modeResize:
			m = m.updateResize(msg)
		}

	default:
		switch m.mode {
		case modePrompt:
			_, cmd = m.prompt.Update(msg)
		case modeSearch:
			m.search, cmd = m.search.Update(msg)
		}
	}

	m.drag.Publish()
	return m, cmd
}

func (m Model) updateNormal(msg tea.KeyMsg) (Model, tea.Cmd) {
	m.message = ""
	m.err = nil
	cols := m.layout.VisibleColumns()

	switch msg.String() {
	case "j", "down":
		m.moveCursor(1)
	case "k", "up":
		m.moveCursor(-1)
	case "ctrl+d", "pgdown":
		m.moveCursor(max(1, m.viewportHeight()/2))
	case "ctrl+u", "pgup":
		m.moveCursor(-max(1, m.viewportHeight()/2))
	case "home":
		m.cursor = 0
	case "end", "G":
		m.cursor = max(0, len(m.lines)-1)
	case "h", "left":
		if m.col > 0 {
			m.col--
		}
	case "l", "right":
		if m.col < len(cols)-1 {
			m.col++
		}
	case "0":
		m.col = 0
	case "$":
		m.col = max(0, len(cols)-1)

	case "enter":
		if m.cursor < len(m.lines) && m.lines[m.cursor].Header {
			m.layout.ToggleGroup(m.view.Groups[m.lines[m.cursor].Group].Key)
			m.recompute()
			return m, nil
		}
		return m.beginEdit()

	case " ":
		if rec, ok := m.currentRecord(); ok {
			if m.selected[rec.ID] {
				delete(m.selected, rec.ID)
			} else {
				m.selected[rec.ID] = true
			}
			m.moveCursor(1)
		}

	case "esc":
		m.selected = make(map[int64]bool)

	case "o":
		if rec, ok := m.currentRecord(); ok {
			return m, messages.OpenRecord(rec.ID)
		}

	case "/":
		m.search.SetValue(m.layout.Query().Search)
		m.search.CursorEnd()
		m.mode = modeSearch
		return m, m.search.Focus()

	case "f":
		if col, ok := m.currentColumn(); ok {
			return m.openPrompt("Filter "+col.Label, m.layout.Query().Filters[col.Key], "substring match, empty clears", forFilter)
		}

	case "F":
		m.layout.ClearFilters()
		m.recompute()
		m.message = "Filters cleared"

	case "s":
		m.cycleSort()

	case "g":
		if col, ok := m.currentColumn(); ok {
			if m.layout.Query().GroupBy == col.Key {
				m.layout.SetGroupBy("")
			} else {
				m.layout.SetGroupBy(col.Key)
			}
			m.cursor = 0
			m.recompute()
		}

	case "a":
		return m.openAggregatePicker()

	case "<", ">":
		if _, ok := m.currentColumn(); ok {
			m.mode = modeResize
			return m.updateResize(msg), nil
		}

	case "=":
		if col, ok := m.currentColumn(); ok {
			w := m.layout.FitToContent(col.Key, m.view.Rows)
			m.message = fmt.Sprintf("%s width %dpx", col.Label, w)
		}

	case "m":
		if col, ok := m.currentColumn(); ok {
			m.drag.Start(col.Key)
			m.drag.Over(col.Key)
			m.mode = modeDrag
		}

	case "p":
		if col, ok := m.currentColumn(); ok {
			var err error
			if m.layout.Pinned() == col.Key {
				err = m.layout.Unpin(col.Key)
			} else {
				err = m.layout.Pin(col.Key)
			}
			if err != nil {
				m.err = err
			}
			m.recompute()
			m.col = max(0, indexOf(m.layout.VisibleKeys(), col.Key))
		}

	case "c":
		m.columns = &columnsModel{}
		m.mode = modeColumns

	case "d":
		density := models.DensityCompact
		if m.layout.Density() == models.DensityCompact {
			density = models.DensityComfortable
		}
		if err := m.layout.SetDensity(density); err != nil {
			m.err = err
		}

	case "r":
		if col, ok := m.currentColumn(); ok {
			return m.openPrompt("Rename column "+col.Label, col.Label, "empty restores the default label", forLabel)
		}

	case "+":
		return m.openPrompt("New property name", "", "", forPropertyName)

	case "X":
		if col, ok := m.currentColumn(); ok {
			if !col.Custom {
				m.err = errNotCustom(col)
				return m, nil
			}
			m.draft = map[string]string{"key": col.Key}
			return m.openConfirm("Remove property "+col.Label+"?", "Values stored on applications are kept but no longer shown.", forRemoveProperty)
		}

	case "O":
		if col, ok := m.currentColumn(); ok {
			if !col.Kind.IsSelectLike() {
				m.err = errNoOptions(col)
				return m, nil
			}
			return m.openPrompt("New option for "+col.Label, "", "", forAddOption)
		}

	case "R":
		if col, ok := m.currentColumn(); ok {
			if !col.Kind.IsSelectLike() {
				m.err = errNoOptions(col)
				return m, nil
			}
			return m.openOptionPicker(col, "", "Rename which option?", false, forRenameOptionFrom)
		}

	case "n":
		return m.openPrompt("Company", "", "new application", forNewCompany)

	case "D":
		ids := m.targetIDs()
		if len(ids) == 0 {
			return m, nil
		}
		m.editIDs = ids
		return m.openConfirm(deleteQuestion(len(ids)), "", forDeleteRows)

	case "B":
		return m.beginBulkEdit()

	case "y":
		m.yankCell()
	}

	m.adjustScroll()
	return m, nil
}

func (m Model) updateSearch(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.search.Blur()
		m.mode = modeNormal
		return m, nil

	case "esc":
		m.search.SetValue("")
		m.search.Blur()
		m.layout.SetSearch("")
		m.mode = modeNormal
		m.recompute()
		return m, nil
	}

	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	m.layout.SetSearch(m.search.Value())
	m.cursor = 0
	m.recompute()
	return m, cmd
}

func (m *Model) cycleSort() {
	col, ok := m.currentColumn()
	if !ok {
		return
	}
	q := m.layout.Query()
	switch {
	case q.Sort == nil || q.Sort.Column != col.Key:
		m.layout.SetSort(col.Key, grid.Asc)
	case q.Sort.Direction == grid.Asc:
		m.layout.SetSort(col.Key, grid.Desc)
	default:
		m.layout.ClearSort()
	}
	m.recompute()
}

// recompute re-runs the pipeline and keeps the cursors in range
func (m *Model) recompute() {
	m.view = grid.Compute(m.sess.Records(), m.layout.Catalog(), m.layout.Query())
	m.lines = m.view.Lines()
	m.cursor = clamp(m.cursor, 0, len(m.lines)-1)
	m.col = clamp(m.col, 0, len(m.layout.VisibleKeys())-1)
	for id := range m.selected {
		if _, ok := m.sess.Record(id); !ok {
			delete(m.selected, id)
		}
	}
	m.adjustScroll()
}

func (m *Model) moveCursor(delta int) {
	m.cursor = clamp(m.cursor+delta, 0, len(m.lines)-1)
}

func (m Model) currentRecord() (models.Record, bool) {
	if m.cursor < 0 || m.cursor >= len(m.lines) || m.lines[m.cursor].Header {
		return models.Record{}, false
	}
	return m.view.Rows[m.lines[m.cursor].Row], true
}

func (m Model) currentColumn() (schema.Column, bool) {
	cols := m.layout.VisibleColumns()
	if m.col < 0 || m.col >= len(cols) {
		return schema.Column{}, false
	}
	return cols[m.col], true
}

// targetIDs is the selection, or the record under the cursor without one
func (m Model) targetIDs() []int64 {
	if len(m.selected) > 0 {
		ids := make([]int64, 0, len(m.selected))
		for _, row := range m.view.Rows {
			if m.selected[row.ID] {
				ids = append(ids, row.ID)
			}
		}
		return ids
	}
	if rec, ok := m.currentRecord(); ok {
		return []int64{rec.ID}
	}
	return nil
}

func clamp(v, lo, hi int) int {
	if hi < lo {
		return lo
	}
	return min(max(v, lo), hi)
}

func indexOf(keys []string, key string) int {
	for i, k := range keys {
		if k == key {
			return i
		}
	}
	return -1
}
