package shared

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sahilm/fuzzy"

	"jobtrack/internal/tui/theme"
)

var (
	pickerBoxStyle    = theme.ModalBox.Width(50)
	pickerItemStyle   = lipgloss.NewStyle().PaddingLeft(2)
	pickerCursorStyle = lipgloss.NewStyle().PaddingLeft(1).Bold(true).Foreground(theme.TextBright).Background(theme.Surface)
	pickerCreateStyle = lipgloss.NewStyle().PaddingLeft(2).Foreground(theme.Success).Italic(true)
	pickerHintStyle   = theme.Muted
)

const pickerMaxVisibleRows = 12

// PickerItem is one choice of a picker
type PickerItem struct {
	Label string
	Hint  string // shown dimmed after the label
	Color string // option color, optional
	Value string // defaults to Label
}

func (i PickerItem) value() string {
	if i.Value != "" {
		return i.Value
	}
	return i.Label
}

// PickerConfig configures a fuzzy single-select picker
type PickerConfig struct {
	Title       string
	Items       []PickerItem
	Current     string // value to put the cursor on
	AllowCreate bool   // offer the typed query as a new item
}

// PickerModel is a fuzzy-searchable single-select list. Typing filters;
// the query itself can be offered as a new item.
type PickerModel struct {
	config    PickerConfig
	textInput textinput.Model
	query     string
	filtered  []int // indices into config.Items
	cursorPos int
	offset    int

	chosen    PickerItem
	created   bool
	cancelled bool
}

// NewPickerModel creates a picker with the cursor on the current value
func NewPickerModel(config PickerConfig) PickerModel {
	ti := textinput.New()
	ti.Placeholder = "type to filter..."
	ti.CharLimit = 50
	ti.Width = 40
	ti.Focus()

	m := PickerModel{config: config, textInput: ti}
	m.filterItems()
	for pos, idx := range m.filtered {
		if strings.EqualFold(config.Items[idx].value(), config.Current) {
			m.cursorPos = pos
			break
		}
	}
	m.clampOffset()
	return m
}

// Init initializes the picker
func (m PickerModel) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles picker events
// Returns (model, cmd, isDone)
func (m PickerModel) Update(msg tea.Msg) (PickerModel, tea.Cmd, bool) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		var cmd tea.Cmd
		m.textInput, cmd = m.textInput.Update(msg)
		return m, cmd, false
	}

	switch key.String() {
	case "esc":
		if m.query != "" {
			m.textInput.SetValue("")
			m.query = ""
			m.filterItems()
			m.cursorPos = 0
			m.offset = 0
			return m, nil, false
		}
		m.cancelled = true
		return m, nil, true

	case "enter":
		if m.showCreate() && m.cursorPos == len(m.filtered) {
			m.chosen = PickerItem{Label: strings.TrimSpace(m.query)}
			m.created = true
			return m, nil, true
		}
		if m.cursorPos < len(m.filtered) {
			m.chosen = m.config.Items[m.filtered[m.cursorPos]]
			return m, nil, true
		}
		return m, nil, false

	case "down", "ctrl+n", "tab":
		if m.cursorPos < m.maxPos() {
			m.cursorPos++
			m.clampOffset()
		}
		return m, nil, false

	case "up", "ctrl+p", "shift+tab":
		if m.cursorPos > 0 {
			m.cursorPos--
			m.clampOffset()
		}
		return m, nil, false
	}

	var cmd tea.Cmd
	m.textInput, cmd = m.textInput.Update(msg)
	if q := m.textInput.Value(); q != m.query {
		m.query = q
		m.filterItems()
		m.cursorPos = 0
		m.offset = 0
	}
	return m, cmd, false
}

// Chosen returns the picked item and whether it is a newly typed one
func (m PickerModel) Chosen() (PickerItem, bool) {
	return m.chosen, m.created
}

// Cancelled reports whether the picker was dismissed without a choice
func (m PickerModel) Cancelled() bool {
	return m.cancelled
}

// View renders the picker
func (m PickerModel) View() string {
	var s strings.Builder

	s.WriteString(theme.ModalTitle.Render(m.config.Title))
	s.WriteString("\n\n")
	s.WriteString(m.textInput.View())
	s.WriteString("\n\n")

	if len(m.filtered) == 0 && !m.showCreate() {
		s.WriteString(pickerItemStyle.Render(pickerHintStyle.Render("No matches")))
		s.WriteString("\n")
	}

	end := min(len(m.filtered), m.offset+pickerMaxVisibleRows)
	if m.offset > 0 {
		s.WriteString(pickerHintStyle.Render("  ▲ more"))
		s.WriteString("\n")
	}
	for pos := m.offset; pos < end; pos++ {
		s.WriteString(m.renderItem(pos, m.config.Items[m.filtered[pos]]))
	}
	if end < len(m.filtered) {
		s.WriteString(pickerHintStyle.Render("  ▼ more"))
		s.WriteString("\n")
	}

	if m.showCreate() {
		text := "+ Create \"" + strings.TrimSpace(m.query) + "\""
		style := pickerCreateStyle
		if m.cursorPos == len(m.filtered) {
			style = pickerCursorStyle.Foreground(theme.Success)
			text = "> " + text
		}
		s.WriteString(style.Render(text))
		s.WriteString("\n")
	}

	s.WriteString("\n")
	s.WriteString(theme.ModalHelp.Render("type: filter • ↑/↓: navigate • enter: choose • esc: cancel"))

	return pickerBoxStyle.Render(s.String())
}

func (m PickerModel) renderItem(pos int, item PickerItem) string {
	label := theme.OptionStyle(item.Color).Render(item.Label)
	if item.Color == "" {
		label = item.Label
	}
	if item.Hint != "" {
		label += " " + pickerHintStyle.Render(item.Hint)
	}
	if pos == m.cursorPos {
		return pickerCursorStyle.Render("> "+label) + "\n"
	}
	return pickerItemStyle.Render(label) + "\n"
}

func (m PickerModel) maxPos() int {
	n := len(m.filtered) - 1
	if m.showCreate() {
		n++
	}
	return n
}

func (m PickerModel) showCreate() bool {
	q := strings.TrimSpace(m.query)
	if !m.config.AllowCreate || q == "" {
		return false
	}
	for _, item := range m.config.Items {
		if strings.EqualFold(item.Label, q) {
			return false
		}
	}
	return true
}

func (m *PickerModel) clampOffset() {
	if m.cursorPos < m.offset {
		m.offset = m.cursorPos
	}
	if m.cursorPos >= m.offset+pickerMaxVisibleRows {
		m.offset = m.cursorPos - pickerMaxVisibleRows + 1
	}
	m.offset = max(0, m.offset)
}

// filterItems applies fuzzy matching to the item labels
func (m *PickerModel) filterItems() {
	if m.query == "" {
		m.filtered = make([]int, len(m.config.Items))
		for i := range m.config.Items {
			m.filtered[i] = i
		}
		return
	}

	labels := make([]string, len(m.config.Items))
	for i, item := range m.config.Items {
		labels[i] = item.Label
	}
	matches := fuzzy.Find(m.query, labels)
	m.filtered = make([]int, len(matches))
	for i, match := range matches {
		m.filtered[i] = match.Index
	}
}
