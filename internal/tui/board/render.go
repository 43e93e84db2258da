package board

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"jobtrack/internal/kanban/drag"
	"jobtrack/internal/kanban/models"
	"jobtrack/internal/tui/theme"
)

const (
	boardHeaderLines = 3
	statusLines      = 3
	marginLines      = 2
	columnOverhead   = 8 // title, spacing, indicators, border, padding
)

func (m BoardModel) View() string {
	switch m.mode {
	case boardModePrompt:
		return m.place(m.prompt.View())
	case boardModePicker:
		return m.place(m.picker.View())
	case boardModeConfirm:
		return m.place(m.confirm.View())
	}

	var s strings.Builder

	s.WriteString(titleStyle.Render(fmt.Sprintf("Pipeline (%d)", m.board.CardCount())))
	s.WriteString("\n")

	// Filter bar
	if m.mode == boardModeFilter {
		s.WriteString("  / " + m.filterInput.View())
	} else if m.filterActive {
		s.WriteString("  " + filterIndicatorStyle.Render("Filter: "+m.filterQuery))
	}
	s.WriteString("\n")

	if len(m.board.Columns) == 0 {
		s.WriteString(theme.Muted.Render("  No stages. Press a to add one."))
		s.WriteString("\n")
		s.WriteString(m.renderStatus())
		return s.String()
	}

	fixedHeight := m.columnHeight()

	// Render columns with fixed height and horizontal scrolling
	startCol, endCol := m.calculateVisibleColumns()
	views := []string{}

	if startCol > 0 {
		views = append(views, m.renderScrollIndicator("◀", fixedHeight))
	} else {
		views = append(views, m.renderScrollIndicator(" ", fixedHeight))
	}
	for i := startCol; i < endCol; i++ {
		views = append(views, m.renderColumn(i, m.board.Columns[i], m.getVisibleCards(i), fixedHeight))
	}
	if endCol < len(m.board.Columns) {
		views = append(views, m.renderScrollIndicator("▶", fixedHeight))
	} else {
		views = append(views, m.renderScrollIndicator(" ", fixedHeight))
	}

	columns := lipgloss.JoinHorizontal(lipgloss.Top, views...)
	s.WriteString(lipgloss.Place(m.width, 0, lipgloss.Center, lipgloss.Top, columns))
	s.WriteString("\n")
	s.WriteString(m.renderStatus())

	return s.String()
}

func (m BoardModel) place(modal string) string {
	if m.width == 0 || m.height == 0 {
		return modal
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal)
}

func (m BoardModel) renderStatus() string {
	var s strings.Builder
	if m.err != nil {
		s.WriteString(theme.Error.Render(fmt.Sprintf("Error: %v", m.err)))
		s.WriteString("\n")
	} else if m.message != "" {
		s.WriteString(theme.Ok.Render(m.message))
		s.WriteString("\n")
	}

	switch m.mode {
	case boardModeCardDrag:
		s.WriteString(helpStyle.Render("hjkl: choose drop position • enter: drop • esc: cancel"))
	case boardModeStageDrag:
		s.WriteString(helpStyle.Render("h/l: choose position • enter: drop • esc: cancel"))
	case boardModeFilter:
		s.WriteString(helpStyle.Render("type to filter • enter: lock filter • esc: cancel"))
	default:
		helpText := "hjkl: navigate • m/space: move card • M: move stage • enter: open • n: new • D: delete • f: star • O: outcome • a/r/C/X: add/rename/color/delete stage • /: filter • ?: help"
		if m.filterActive {
			helpText = "hjkl: navigate • m/space: move card • enter: open • /: edit filter • esc: clear filter"
		}
		s.WriteString(helpStyle.Render(helpText))
	}
	return s.String()
}

func (m BoardModel) columnHeight() int {
	return max(10, m.height-boardHeaderLines-statusLines-marginLines)
}

// focus is the column and card the keyboard currently points at
func (m BoardModel) focus() (col, card int) {
	switch m.mode {
	case boardModeCardDrag:
		return m.targetCol, m.targetCard
	case boardModeStageDrag:
		return m.targetCol, m.columnCursorPos[m.targetCol]
	}
	return m.selectedCol, m.selectedCard
}

func (m BoardModel) renderColumn(index int, col models.Column, cards []models.Card, fixedHeight int) string {
	var s strings.Builder

	kind, dragStage, _ := m.drag.Highlight()

	title := fmt.Sprintf("%s (%d)", col.Name, len(col.Cards))
	headStyle := columnTitleStyle.Inherit(theme.OptionStyle(col.Color))
	if index == m.selectedCol {
		headStyle = headStyle.Underline(true)
	}
	s.WriteString(headStyle.Render(ansi.Truncate(title, columnWidth-2*columnPaddingHorizontal, "…")))
	s.WriteString("\n\n")

	style := columnStyle
	switch {
	case kind == drag.StageDrag && col.Name == dragStage:
		style = dragColumnStyle
	case kind == drag.StageDrag && index == m.targetCol:
		style = dropColumnStyle
	case col.Extra:
		style = extraColumnStyle
	case index == m.selectedCol:
		style = selectedColumnStyle
	}

	dropHere := m.mode == boardModeCardDrag && index == m.targetCol

	if len(cards) == 0 {
		if dropHere {
			s.WriteString(m.renderDropMarker())
		} else {
			s.WriteString(theme.Preview.Render("(empty)"))
		}
		s.WriteString("\n")
		return style.Height(fixedHeight).Render(s.String())
	}

	scrollOffset := 0
	if index < len(m.columnScrollOffsets) {
		scrollOffset = min(m.columnScrollOffsets[index], len(cards)-1)
	}

	// Top scroll indicator (always reserve space)
	if scrollOffset > 0 {
		s.WriteString(scrollIndicatorStyle.Render(fmt.Sprintf("▲ +%d above", scrollOffset)))
	}
	s.WriteString("\n\n")

	available := fixedHeight - columnOverhead
	var cardBuilder strings.Builder
	rendered := 0
	used := 0

	for i := scrollOffset; i < len(cards); i++ {
		view := m.renderCard(index, i, cards[i])
		if dropHere && i == m.targetCard {
			view = m.renderDropMarker() + "\n" + view
		}
		h := lipgloss.Height(view)
		if rendered > 0 && used+h > available {
			break
		}
		cardBuilder.WriteString(view)
		cardBuilder.WriteString("\n")
		rendered++
		used += h
	}
	if dropHere && m.targetCard >= len(cards) {
		cardBuilder.WriteString(m.renderDropMarker())
		cardBuilder.WriteString("\n")
	}
	s.WriteString(cardBuilder.String())

	if below := len(cards) - scrollOffset - rendered; below > 0 {
		s.WriteString(scrollIndicatorStyle.Render(fmt.Sprintf("▼ +%d below", below)))
	}

	return style.Height(fixedHeight).Render(s.String())
}

func (m BoardModel) renderDropMarker() string {
	width := columnWidth - 2*columnPaddingHorizontal - 2
	return dropMarkerStyle.Render(strings.Repeat("─", 2) + " drop here " + strings.Repeat("─", max(0, width-13)))
}

func (m BoardModel) renderCard(colIndex, cardIndex int, card models.Card) string {
	maxWidth := columnWidth - (2 * columnPaddingHorizontal) - cardBorderWidth - (2 * cardPaddingHorizontal) - 2

	kind, _, dragCard := m.drag.Highlight()

	title := card.Title
	if card.Favorite {
		title = "★ " + title
	}
	lines := []string{cardTitleStyle.Render(ansi.Truncate(title, maxWidth, "…"))}

	if card.Subtitle != "" {
		lines = append(lines, theme.Position.Render(ansi.Truncate(card.Subtitle, maxWidth, "…")))
	}

	var meta []string
	if card.JobType != "" {
		meta = append(meta, card.JobType)
	}
	if card.Outcome != "" {
		meta = append(meta, card.Outcome)
	}
	if len(meta) > 0 {
		lines = append(lines, cardMetaStyle.Render(ansi.Truncate(strings.Join(meta, " · "), maxWidth, "…")))
	}

	if card.Preview != "" {
		lines = append(lines, theme.Preview.Render(ansi.Truncate(card.Preview, maxWidth, "…")))
	}

	content := strings.Join(lines, "\n")

	style := cardStyle
	switch {
	case kind == drag.CardDrag && card.ID == dragCard:
		style = draggedCardStyle
	case m.mode == boardModeNormal && colIndex == m.selectedCol && cardIndex == m.selectedCard:
		style = selectedCardStyle
	}
	return style.Render(content)
}

// adjustScrollPosition ensures the focused card is visible by adjusting the
// column's scroll offset
func (m *BoardModel) adjustScrollPosition() {
	colIdx, cardIdx := m.focus()
	if colIdx >= len(m.board.Columns) {
		return
	}

	cards := m.getVisibleCards(colIdx)
	if len(cards) == 0 {
		return
	}
	cardIdx = min(cardIdx, len(cards)-1)

	available := m.columnHeight() - columnOverhead
	offset := m.columnScrollOffsets[colIdx]

	if cardIdx < offset {
		m.columnScrollOffsets[colIdx] = cardIdx
	} else {
		visible := 0
		used := 0
		for i := offset; i < len(cards); i++ {
			h := lipgloss.Height(m.renderCard(colIdx, i, cards[i]))
			if visible > 0 && used+h > available {
				break
			}
			used += h
			visible++
		}
		visible = max(1, visible)
		if cardIdx >= offset+visible {
			m.columnScrollOffsets[colIdx] = cardIdx - visible + 1
		}
	}

	m.columnScrollOffsets[colIdx] = clamp(m.columnScrollOffsets[colIdx], 0, len(cards)-1)
}

// calculateVisibleColumns determines which columns fit in terminal width
func (m *BoardModel) calculateVisibleColumns() (startCol, endCol int) {
	columnTotalWidth := columnWidth + 2 // border
	widthForColumns := m.width - 2*scrollIndicatorWidth
	visibleCount := max(1, widthForColumns/columnTotalWidth)

	startCol = m.columnHorizontalOffset
	endCol = min(startCol+visibleCount, len(m.board.Columns))
	if endCol <= startCol && len(m.board.Columns) > 0 {
		endCol = startCol + 1
	}
	return startCol, endCol
}

// renderScrollIndicator renders ◀ and ▶ indicators for horizontal scrolling
func (m *BoardModel) renderScrollIndicator(symbol string, height int) string {
	indicator := theme.Warn.Render(symbol)
	return lipgloss.NewStyle().
		Width(scrollIndicatorWidth).
		Height(height).
		Align(lipgloss.Center, lipgloss.Center).
		Render(indicator)
}

// adjustHorizontalScrollPosition ensures the focused column is visible
func (m *BoardModel) adjustHorizontalScrollPosition() {
	if len(m.board.Columns) == 0 {
		return
	}
	colIdx, _ := m.focus()
	startCol, endCol := m.calculateVisibleColumns()

	if colIdx < startCol {
		m.columnHorizontalOffset = colIdx
		return
	}
	if colIdx >= endCol {
		m.columnHorizontalOffset = max(0, colIdx-(endCol-startCol)+1)
	}
}

func clamp(v, lo, hi int) int {
	if hi < lo {
		return lo
	}
	return min(max(v, lo), hi)
}
