package table

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"jobtrack/internal/tui/theme"
)

// resizeStep is the width change of one resize keypress, in px
const resizeStep = 2 * pxPerCell

// columnsModel is the visibility editor. Toggles collect in the layout's
// draft and are only saved on confirm.
type columnsModel struct {
	cursor int
}

func (m Model) updateColumns(msg tea.KeyMsg) Model {
	order := m.layout.Order()
	c := m.columns

	switch msg.String() {
	case "j", "down":
		if c.cursor < len(order)-1 {
			c.cursor++
		}
	case "k", "up":
		if c.cursor > 0 {
			c.cursor--
		}
	case " ", "x":
		if c.cursor < len(order) {
			m.layout.ToggleVisibility(order[c.cursor])
		}
	case "J", "shift+down":
		if c.cursor < len(order)-1 {
			if err := m.layout.Reorder(c.cursor, c.cursor+1); err == nil {
				c.cursor++
			}
		}
	case "K", "shift+up":
		if c.cursor > 0 {
			if err := m.layout.Reorder(c.cursor, c.cursor-1); err == nil {
				c.cursor--
			}
		}
	case "enter":
		m.layout.CommitVisibility()
		m.columns = nil
		m.mode = modeNormal
		m.message = "Columns saved"
	case "esc", "q":
		m.layout.DiscardVisibility()
		m.columns = nil
		m.mode = modeNormal
	}

	m.recompute()
	return m
}

func (m Model) viewColumns() string {
	var s strings.Builder
	s.WriteString(theme.ModalTitle.Render("Columns"))
	s.WriteString("\n\n")

	pinned := m.layout.Pinned()
	for i, key := range m.layout.Order() {
		col, ok := m.layout.Catalog().Column(key)
		if !ok {
			continue
		}
		box := "[ ]"
		if m.layout.IsVisible(key) {
			box = "[x]"
		}
		line := fmt.Sprintf("%s %s %s", box, col.Label, theme.Muted.Render(string(col.Kind)))
		if key == pinned {
			line += theme.Warn.Render(" pinned")
		}
		if i == m.columns.cursor {
			line = theme.Cursor.Render("> " + line)
		} else {
			line = "  " + line
		}
		s.WriteString(line + "\n")
	}

	if m.layout.VisibilityDirty() {
		s.WriteString("\n" + theme.Warn.Render("unsaved changes"))
	}
	s.WriteString("\n")
	s.WriteString(theme.ModalHelp.Render("space: show/hide • J/K: move • enter: save • esc: discard"))
	return theme.ModalBox.Width(min(60, max(36, m.width-10))).Render(s.String())
}

// updateDrag moves the drop target of a column drag
func (m Model) updateDrag(msg tea.KeyMsg) Model {
	keys := m.layout.VisibleKeys()
	source := m.drag.Source()

	switch msg.String() {
	case "h", "left":
		if m.col > 0 {
			m.col--
		}
		m.drag.Over(keys[m.col])
	case "l", "right":
		if m.col < len(keys)-1 {
			m.col++
		}
		m.drag.Over(keys[m.col])
	case "enter", "m":
		moved, err := m.drag.Drop(m.layout, keys[m.col])
		m.mode = modeNormal
		if err != nil {
			m.err = err
			break
		}
		m.recompute()
		m.col = max(0, indexOf(m.layout.VisibleKeys(), source))
		if moved {
			m.message = "Column moved"
		}
	case "esc":
		m.drag.Cancel()
		m.mode = modeNormal
		m.col = max(0, indexOf(keys, source))
	}

	m.adjustScroll()
	return m
}

// updateResize widens or narrows the current column until the resize is
// committed.
func (m Model) updateResize(msg tea.KeyMsg) Model {
	col, ok := m.currentColumn()
	if !ok {
		m.mode = modeNormal
		return m
	}

	switch msg.String() {
	case "<", "h", "left":
		m.layout.ResizeBy(col.Key, -resizeStep)
	case ">", "l", "right":
		m.layout.ResizeBy(col.Key, resizeStep)
	case "enter", "esc":
		m.layout.CommitResize(col.Key)
		m.mode = modeNormal
		m.message = fmt.Sprintf("%s width %dpx", col.Label, m.layout.Width(col.Key))
	}

	m.adjustScroll()
	return m
}
