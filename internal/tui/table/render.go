package table

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"jobtrack/internal/grid"
	"jobtrack/internal/records/models"
	"jobtrack/internal/schema"
	"jobtrack/internal/tui/shared"
	"jobtrack/internal/tui/theme"
)

const (
	// pxPerCell converts stored column widths to terminal cells
	pxPerCell = 9

	// gutterWidth holds the cursor and selection markers
	gutterWidth = 3

	// rowHeight is the height of one rendered row, in lines
	rowHeight = 1
)

var (
	headerStyle      = lipgloss.NewStyle().Bold(true).Foreground(theme.Primary)
	headerSortStyle  = headerStyle.Foreground(theme.Warning)
	headerDragStyle  = lipgloss.NewStyle().Bold(true).Foreground(theme.TextBright).Background(theme.Accent)
	headerOverStyle  = headerStyle.Underline(true)
	cursorCellStyle  = lipgloss.NewStyle().Reverse(true)
	cursorRowStyle   = lipgloss.NewStyle().Background(theme.Surface)
	groupHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(theme.Secondary)
	footerStyle      = lipgloss.NewStyle().Foreground(theme.Accent)
	pinSeparator     = theme.Muted.Render("│")
)

func (m Model) cellWidth(key string) int {
	return max(4, m.layout.Width(key)/pxPerCell)
}

// padding is the horizontal cell padding for the current density
func (m Model) padding() int {
	if m.layout.Density() == models.DensityCompact {
		return 0
	}
	return 1
}

// slotWidth is the full width a column takes, separator included
func (m Model) slotWidth(key string) int {
	return m.cellWidth(key) + 2*m.padding() + 1
}

// firstScrollable is the index of the first column that scrolls
// horizontally; a pinned first column stays put.
func (m Model) firstScrollable(cols []schema.Column) int {
	if len(cols) > 0 && cols[0].Key == m.layout.Pinned() {
		return 1
	}
	return 0
}

// displayed returns the indices of the visible columns that fit the width
func (m Model) displayed(cols []schema.Column) []int {
	if len(cols) == 0 {
		return nil
	}
	var out []int
	used := gutterWidth
	first := m.firstScrollable(cols)
	if first == 1 {
		out = append(out, 0)
		used += m.slotWidth(cols[0].Key)
	}
	for i := max(first, m.hscroll); i < len(cols); i++ {
		w := m.slotWidth(cols[i].Key)
		if m.width > 0 && used+w > m.width && len(out) > first {
			break
		}
		out = append(out, i)
		used += w
	}
	return out
}

func (m Model) showFooter() bool {
	return m.layout.ShowAggregates()
}

// viewportHeight is the number of lines available to rows
func (m Model) viewportHeight() int {
	h := m.height - 4 // title, header, rule, status
	if m.showFooter() {
		h -= 2
	}
	return max(1, h)
}

// window is the range of lines to render. Large ungrouped views materialize
// only the rows around the viewport.
func (m Model) window() grid.Window {
	return grid.WindowFor(m.offset*rowHeight, m.viewportHeight()*rowHeight, rowHeight, len(m.lines), m.view.Grouped())
}

// adjustScroll keeps the cursor row and column on screen
func (m *Model) adjustScroll() {
	vh := m.viewportHeight()
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+vh {
		m.offset = m.cursor - vh + 1
	}
	m.offset = clamp(m.offset, 0, max(0, len(m.lines)-vh))

	cols := m.layout.VisibleColumns()
	first := m.firstScrollable(cols)
	if m.hscroll < first {
		m.hscroll = first
	}
	if m.col < first {
		return
	}
	if m.col < m.hscroll {
		m.hscroll = m.col
		return
	}
	for m.hscroll < m.col && indexOf(keysAt(cols, m.displayed(cols)), cols[m.col].Key) < 0 {
		m.hscroll++
	}
}

func keysAt(cols []schema.Column, idx []int) []string {
	keys := make([]string, len(idx))
	for i, j := range idx {
		keys[i] = cols[j].Key
	}
	return keys
}

// View renders the grid, or the open modal on top of it
func (m Model) View() string {
	switch m.mode {
	case modePrompt:
		return m.place(m.prompt.View())
	case modePicker:
		return m.place(m.picker.View())
	case modeConfirm:
		return m.place(m.confirm.View())
	case modeColumns:
		return m.place(m.viewColumns())
	}

	cols := m.layout.VisibleColumns()
	idx := m.displayed(cols)

	var b strings.Builder
	b.WriteString(m.renderTitle())
	b.WriteString("\n")

	if len(cols) == 0 {
		b.WriteString(theme.Muted.Render("All columns are hidden. Press c to choose columns."))
		b.WriteString("\n")
		b.WriteString(m.renderStatus())
		return b.String()
	}

	b.WriteString(m.renderHeader(cols, idx))
	b.WriteString("\n")
	b.WriteString(theme.Muted.Render(strings.Repeat("─", max(0, min(m.width, m.rowWidth(cols, idx))))))
	b.WriteString("\n")

	vh := m.viewportHeight()
	if len(m.lines) == 0 {
		b.WriteString(shared.CenterVertically(theme.Muted.Render(m.emptyText()), vh))
		b.WriteString("\n")
		vh = 0
	} else {
		w := m.window()
		shown := 0
		for i := max(w.Start, m.offset); i < w.End && shown < vh; i++ {
			b.WriteString(m.renderLine(i, cols, idx))
			b.WriteString("\n")
			shown++
		}
		vh -= shown
	}
	for ; vh > 0; vh-- {
		b.WriteString("\n")
	}

	if m.showFooter() {
		b.WriteString(theme.Muted.Render(strings.Repeat("─", max(0, min(m.width, m.rowWidth(cols, idx))))))
		b.WriteString("\n")
		b.WriteString(m.renderFooter(cols, idx))
		b.WriteString("\n")
	}

	b.WriteString(m.renderStatus())
	return b.String()
}

func (m Model) place(modal string) string {
	if m.width == 0 || m.height == 0 {
		return modal
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal)
}

func (m Model) emptyText() string {
	q := m.layout.Query()
	if q.Search != "" || len(q.Filters) > 0 {
		return "No applications match. Press F to clear filters or / to change the search."
	}
	return "No applications yet. Press n to add one."
}

func (m Model) rowWidth(cols []schema.Column, idx []int) int {
	w := gutterWidth
	for _, i := range idx {
		w += m.slotWidth(cols[i].Key)
	}
	return w
}

func (m Model) renderTitle() string {
	title := theme.Title.Render(fmt.Sprintf("Applications (%d)", len(m.view.Rows)))
	var parts []string
	q := m.layout.Query()
	if m.mode == modeSearch {
		parts = append(parts, "/"+m.search.View())
	} else if q.Search != "" {
		parts = append(parts, theme.Subtitle.Render("search: "+q.Search))
	}
	if n := len(q.Filters); n > 0 {
		parts = append(parts, theme.Subtitle.Render(fmt.Sprintf("%d filter(s)", n)))
	}
	if q.GroupBy != "" {
		if col, ok := m.layout.Catalog().Column(q.GroupBy); ok {
			parts = append(parts, theme.Subtitle.Render("grouped by "+col.Label))
		}
	}
	if n := len(m.selected); n > 0 {
		parts = append(parts, theme.Selected.Render(fmt.Sprintf("%d selected", n)))
	}
	if len(parts) == 0 {
		return title
	}
	return title + "  " + strings.Join(parts, "  ")
}

func (m Model) cell(text string, key string) string {
	w := m.cellWidth(key)
	text = ansi.Truncate(text, w, "…")
	pad := strings.Repeat(" ", m.padding())
	return pad + text + strings.Repeat(" ", max(0, w-ansi.StringWidth(text))) + pad
}

func (m Model) renderHeader(cols []schema.Column, idx []int) string {
	q := m.layout.Query()
	source, over := m.drag.Highlight()

	var b strings.Builder
	b.WriteString(strings.Repeat(" ", gutterWidth))
	for n, i := range idx {
		col := cols[i]
		label := col.Label
		if q.Sort != nil && q.Sort.Column == col.Key {
			if q.Sort.Direction == grid.Desc {
				label += " ↓"
			} else {
				label += " ↑"
			}
		}
		if _, ok := q.Filters[col.Key]; ok {
			label += " ⧩"
		}

		style := headerStyle
		switch {
		case col.Key == source:
			style = headerDragStyle
		case col.Key == over:
			style = headerOverStyle
		case q.Sort != nil && q.Sort.Column == col.Key:
			style = headerSortStyle
		}
		text := m.cell(label, col.Key)
		if i == m.col && m.mode == modeResize {
			text = cursorCellStyle.Render(text)
		} else {
			text = style.Render(text)
		}
		b.WriteString(text)
		b.WriteString(m.separator(n, i, cols))
	}
	return b.String()
}

// separator follows a cell; the pinned column gets a visible rule
func (m Model) separator(n, i int, cols []schema.Column) string {
	if n == 0 && i == 0 && m.firstScrollable(cols) == 1 {
		return pinSeparator
	}
	return " "
}

func (m Model) renderLine(i int, cols []schema.Column, idx []int) string {
	line := m.lines[i]
	if line.Header {
		g := m.view.Groups[line.Group]
		arrow := "▾"
		if g.Collapsed {
			arrow = "▸"
		}
		label := g.Key
		if col, ok := m.layout.Catalog().Column(m.layout.Query().GroupBy); ok {
			label = col.Label + ": " + g.Key
		}
		text := fmt.Sprintf(" %s %s (%d)", arrow, label, g.Count)
		if i == m.cursor {
			return cursorCellStyle.Render(groupHeaderStyle.Render(text))
		}
		return groupHeaderStyle.Render(text)
	}

	rec := m.view.Rows[line.Row]
	gutter := "   "
	switch {
	case i == m.cursor && m.selected[rec.ID]:
		gutter = theme.Cursor.Render(">") + theme.Selected.Render("●") + " "
	case i == m.cursor:
		gutter = theme.Cursor.Render(">") + "  "
	case m.selected[rec.ID]:
		gutter = " " + theme.Selected.Render("●") + " "
	}

	var b strings.Builder
	b.WriteString(gutter)
	for n, j := range idx {
		col := cols[j]
		text := m.cell(displayValue(col, rec), col.Key)
		switch {
		case i == m.cursor && j == m.col:
			text = cursorCellStyle.Render(text)
		case col.Kind.IsSelectLike():
			style := theme.OptionStyle(optionColor(col, rec))
			if i == m.cursor {
				style = style.Background(theme.Surface)
			}
			text = style.Render(text)
		case i == m.cursor:
			text = cursorRowStyle.Render(text)
		}
		b.WriteString(text)
		b.WriteString(m.separator(n, j, cols))
	}
	return b.String()
}

func optionColor(col schema.Column, rec models.Record) string {
	if o, ok := col.Option(col.Raw(rec)); ok {
		return o.Color
	}
	return ""
}

func (m Model) renderFooter(cols []schema.Column, idx []int) string {
	ops := m.layout.Aggregates()
	var b strings.Builder
	b.WriteString(strings.Repeat(" ", gutterWidth))
	for n, i := range idx {
		col := cols[i]
		text := ""
		if op, ok := ops[col.Key]; ok && op != grid.OpNone {
			text = strings.TrimSpace(op.Label() + " " + grid.Aggregate(m.view.Rows, col, op))
		}
		b.WriteString(footerStyle.Render(m.cell(text, col.Key)))
		b.WriteString(m.separator(n, i, cols))
	}
	return b.String()
}

func (m Model) renderStatus() string {
	switch {
	case m.err != nil:
		return theme.Error.Render("Error: " + m.err.Error())
	case m.message != "":
		return theme.Ok.Render(m.message)
	}

	var hint string
	switch m.mode {
	case modeSearch:
		hint = "type to search • enter: keep • esc: clear"
	case modeDrag:
		hint = "h/l: choose target • enter: drop • esc: cancel"
	case modeResize:
		hint = "</>: resize • enter: done"
	default:
		hint = "enter: edit • s: sort • f: filter • g: group • a: aggregate • c: columns • n: new • ?: help"
	}
	return theme.HelpHint.Render(hint)
}

// displayValue is the text shown in a cell
func displayValue(col schema.Column, rec models.Record) string {
	raw := col.Raw(rec)
	switch col.Kind {
	case schema.KindCheckbox:
		if schema.IsChecked(raw) {
			return "✓"
		}
		return ""
	case schema.KindRating:
		if n, err := strconv.Atoi(strings.TrimSpace(raw)); err == nil && n > 0 {
			return strings.Repeat("★", min(n, 5))
		}
		return ""
	case schema.KindNumber:
		if v, ok := schema.NumericValue(raw); ok {
			return schema.FormatNumber(v)
		}
		return ""
	}
	return strings.ReplaceAll(col.Project(rec), " | ", ", ")
}
