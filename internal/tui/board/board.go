// Package board is the pipeline view: one column per stage, one card per
// application, with keyboard drag and drop for cards and stages.
package board

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/sahilm/fuzzy"

	"jobtrack/internal/kanban/drag"
	"jobtrack/internal/kanban/models"
	"jobtrack/internal/kanban/operations"
	records "jobtrack/internal/records/models"
	"jobtrack/internal/schema"
	"jobtrack/internal/session"
	"jobtrack/internal/tui/messages"
	"jobtrack/internal/tui/shared"
)

type boardMode int

const (
	boardModeNormal boardMode = iota
	boardModeFilter
	boardModeCardDrag
	boardModeStageDrag
	boardModePrompt
	boardModePicker
	boardModeConfirm
)

type purpose int

const (
	forAddStage purpose = iota
	forRenameStage
	forRecolorStage
	forDeleteStage
	forNewCompany
	forNewPosition
	forDeleteCard
	forOutcome
)

type BoardModel struct {
	sess  *session.Session
	board models.Board
	drag  drag.BoardDrag

	selectedCol  int
	selectedCard int
	targetCol    int // drop target while dragging
	targetCard   int // insertion index in the target column

	mode    boardMode
	purpose purpose
	width   int
	height  int
	err     error
	message string

	prompt  *shared.TextInputModel
	picker  *shared.PickerModel
	confirm *shared.ConfirmationModal
	draft   map[string]string

	columnScrollOffsets    []int // scroll position (card index) for each column
	columnCursorPos        []int // cursor position (card index) for each column
	columnHorizontalOffset int   // first visible column index
	filterInput            textinput.Model
	filterQuery            string
	filterActive           bool
	filteredIndices        [][]int // per-column: original card indices that match
}

func NewBoardModel(sess *session.Session) BoardModel {
	m := BoardModel{sess: sess}
	m.rebuild(sess.Settings())
	return m
}

// SetSize updates the view dimensions
func (m *BoardModel) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.adjustScrollPosition()
	m.adjustHorizontalScrollPosition()
}

// Reload rebuilds the board for a newly published settings document
func (m *BoardModel) Reload(s records.Settings) {
	m.rebuild(s)
}

// Refresh rebuilds the board from the session's current records
func (m *BoardModel) Refresh() {
	m.rebuild(m.sess.Settings())
}

func (m *BoardModel) rebuild(s records.Settings) {
	m.board = models.BuildBoard(m.sess.Records(), s.Stages, s.StageColors)
	m.reloadBoardState()
}

// HandleResult shows the outcome of a finished session operation
func (m *BoardModel) HandleResult(msg messages.RecordsChangedMsg) {
	m.Refresh()
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

// Focus moves the cursor to the card of record id
func (m *BoardModel) Focus(id int64) {
	colIdx, cardIdx, ok := m.board.Locate(id)
	if !ok {
		return
	}
	if m.filterActive && colIdx < len(m.filteredIndices) {
		found := false
		for pos, idx := range m.filteredIndices[colIdx] {
			if idx == cardIdx {
				cardIdx, found = pos, true
				break
			}
		}
		if !found {
			return
		}
	}
	m.selectedCol = colIdx
	m.selectedCard = cardIdx
	m.columnCursorPos[colIdx] = cardIdx
	m.adjustScrollPosition()
	m.adjustHorizontalScrollPosition()
}

// IsModal returns true if keys must not be intercepted by the app
func (m BoardModel) IsModal() bool {
	return m.mode != boardModeNormal
}

func (m BoardModel) Init() tea.Cmd {
	return nil
}

// Update handles board events as a child view
func (m BoardModel) Update(msg tea.Msg) (BoardModel, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case shared.TextInputResultMsg:
		if m.mode == boardModePrompt {
			m, cmd = m.handlePromptResult(msg)
		}

	case shared.ConfirmationResultMsg:
		if m.mode == boardModeConfirm {
			m, cmd = m.handleConfirmResult(msg)
		}

	case tea.KeyMsg:
		switch m.mode {
		case boardModeNormal:
			m, cmd = m.updateNormal(msg)
		case boardModeFilter:
			m, cmd = m.updateFilter(msg)
		case boardModeCardDrag:
			m, cmd = m.updateCardDrag(msg)
		case boardModeStageDrag:
			m = m.updateStageDrag(msg)
		case boardModePrompt:
			_, cmd = m.prompt.Update(msg)
		case boardModePicker:
			m, cmd = m.updatePicker(msg)
		case boardModeConfirm:
			cmd = m.confirm.Update(msg)
		}

	default:
		switch m.mode {
		case boardModePrompt:
			_, cmd = m.prompt.Update(msg)
		case boardModeFilter:
			m.filterInput, cmd = m.filterInput.Update(msg)
		}
	}

	m.drag.Publish()
	return m, cmd
}

func (m BoardModel) updateNormal(msg tea.KeyMsg) (BoardModel, tea.Cmd) {
	m.message = ""
	m.err = nil

	switch msg.String() {
	case "esc":
		if m.filterActive {
			m.clearFilter()
		}

	case "/":
		ti := textinput.New()
		ti.Placeholder = "filter..."
		ti.CharLimit = 100
		ti.Width = 40
		ti.SetValue(m.filterQuery)
		ti.Focus()
		m.filterInput = ti
		m.mode = boardModeFilter
		m.selectedCard = 0
		m.columnCursorPos[m.selectedCol] = 0
		return m, textinput.Blink

	case "h", "left":
		if m.selectedCol > 0 {
			m.selectColumn(m.selectedCol - 1)
		}

	case "l", "right":
		if m.selectedCol < len(m.board.Columns)-1 {
			m.selectColumn(m.selectedCol + 1)
		}

	case "j", "down":
		if m.selectedCol < len(m.board.Columns) {
			maxCard := len(m.getVisibleCards(m.selectedCol)) - 1
			if m.selectedCard < maxCard {
				m.selectedCard++
				m.columnCursorPos[m.selectedCol] = m.selectedCard
				m.adjustScrollPosition()
			}
		}

	case "k", "up":
		if m.selectedCard > 0 {
			m.selectedCard--
			m.columnCursorPos[m.selectedCol] = m.selectedCard
			m.adjustScrollPosition()
		}

	case "g":
		m.selectedCard = 0
		m.columnCursorPos[m.selectedCol] = 0
		m.adjustScrollPosition()

	case "G":
		if m.selectedCol < len(m.board.Columns) {
			m.selectedCard = max(0, len(m.getVisibleCards(m.selectedCol))-1)
			m.columnCursorPos[m.selectedCol] = m.selectedCard
			m.adjustScrollPosition()
		}

	case "enter", "o":
		if card, ok := m.currentCard(); ok {
			return m, messages.OpenRecord(card.ID)
		}

	case "m", " ":
		if card, ok := m.currentCard(); ok {
			m.drag.StartCard(card.ID)
			m.targetCol = m.selectedCol
			m.targetCard = m.selectedCard
			m.mode = boardModeCardDrag
		}

	case "M":
		if m.selectedCol < len(m.board.Columns) {
			col := m.board.Columns[m.selectedCol]
			if col.Extra {
				m.err = fmt.Errorf("stage %q is not in the pipeline", col.Name)
				return m, nil
			}
			m.drag.StartStage(col.Name)
			m.targetCol = m.selectedCol
			m.mode = boardModeStageDrag
		}

	case "n":
		if m.selectedCol < len(m.board.Columns) {
			m.draft = map[string]string{"stage": m.board.Columns[m.selectedCol].Name}
			return m.openPrompt("Company", "", "new application in "+m.board.Columns[m.selectedCol].Name, forNewCompany)
		}

	case "D":
		if card, ok := m.currentCard(); ok {
			return m.openConfirm(fmt.Sprintf("Delete %s?", card.Title), card.Subtitle, forDeleteCard)
		}

	case "f":
		if card, ok := m.currentCard(); ok {
			col, _ := schema.NewCatalog(m.sess.Settings()).Column("favorite")
			status := "Unstarred " + card.Title
			if !card.Favorite {
				status = "Starred " + card.Title
			}
			return m, shared.UpdateRecord(m.sess, card.ID, col.Patch(strconv.FormatBool(!card.Favorite)), status)
		}

	case "O":
		if card, ok := m.currentCard(); ok {
			return m.openOutcomePicker(card)
		}

	case "a":
		return m.openPrompt("New stage", "", "added after the selected stage", forAddStage)

	case "r":
		if col, ok := m.currentStage(); ok {
			return m.openPrompt("Rename stage "+col.Name, col.Name, "applications move with it", forRenameStage)
		}

	case "C":
		if col, ok := m.currentStage(); ok {
			return m.openPrompt("Color of "+col.Name, col.Color, "#rrggbb, empty clears", forRecolorStage)
		}

	case "X":
		if col, ok := m.currentStage(); ok {
			if ok, reason := m.board.CanDeleteColumn(m.selectedCol); !ok {
				m.err = fmt.Errorf("cannot delete %s: %s", col.Name, reason)
				return m, nil
			}
			return m.openConfirm("Delete stage "+col.Name+"?", "", forDeleteStage)
		}
	}

	return m, nil
}

func (m *BoardModel) selectColumn(i int) {
	m.selectedCol = i
	// Restore saved cursor position
	m.selectedCard = m.columnCursorPos[i]
	visibleCount := len(m.getVisibleCards(i))
	if m.selectedCard >= visibleCount {
		m.selectedCard = max(0, visibleCount-1)
		m.columnCursorPos[i] = m.selectedCard
	}
	m.adjustScrollPosition()
	m.adjustHorizontalScrollPosition()
}

func (m BoardModel) updateFilter(msg tea.KeyMsg) (BoardModel, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.filterQuery = m.filterInput.Value()
		if m.filterQuery != "" {
			m.filterActive = true
			m.recomputeFilter()
			m.selectedCard = 0
			m.columnCursorPos[m.selectedCol] = 0
			m.adjustScrollPosition()
		} else {
			m.filterActive = false
			m.filteredIndices = nil
		}
		m.mode = boardModeNormal
		return m, nil

	case "esc":
		m.clearFilter()
		m.mode = boardModeNormal
		return m, nil
	}

	var cmd tea.Cmd
	m.filterInput, cmd = m.filterInput.Update(msg)
	m.filterQuery = m.filterInput.Value()
	if m.filterQuery != "" {
		m.filterActive = true
		m.recomputeFilter()
	} else {
		m.filterActive = false
		m.filteredIndices = nil
	}
	m.clampFilteredCursors()
	m.adjustScrollPosition()
	return m, cmd
}

func (m *BoardModel) clearFilter() {
	m.filterQuery = ""
	m.filterActive = false
	m.filteredIndices = nil
	m.selectedCard = 0
	m.columnCursorPos[m.selectedCol] = 0
	m.adjustScrollPosition()
}

// updateCardDrag moves the insertion point of a dragged card. The target is
// an index into the visible cards of the target column; len means the end.
func (m BoardModel) updateCardDrag(msg tea.KeyMsg) (BoardModel, tea.Cmd) {
	switch msg.String() {
	case "esc", "q":
		m.drag.Cancel()
		m.mode = boardModeNormal

	case "h", "left":
		if m.targetCol > 0 {
			m.targetCol--
			m.targetCard = min(m.targetCard, len(m.getVisibleCards(m.targetCol)))
		}

	case "l", "right":
		if m.targetCol < len(m.board.Columns)-1 {
			m.targetCol++
			m.targetCard = min(m.targetCard, len(m.getVisibleCards(m.targetCol)))
		}

	case "j", "down":
		if m.targetCard < len(m.getVisibleCards(m.targetCol)) {
			m.targetCard++
		}

	case "k", "up":
		if m.targetCard > 0 {
			m.targetCard--
		}

	case "enter", "m", " ":
		return m.dropCard()
	}

	m.adjustScrollPosition()
	m.adjustHorizontalScrollPosition()
	return m, nil
}

func (m BoardModel) dropCard() (BoardModel, tea.Cmd) {
	m.mode = boardModeNormal
	id := m.drag.Card()
	stage := m.board.Columns[m.targetCol].Name
	cards := m.getVisibleCards(m.targetCol)

	var (
		drop drag.Drop
		err  error
	)
	if m.targetCard < len(cards) {
		drop, err = m.drag.DropOnCard(m.board, stage, cards[m.targetCard].ID)
	} else {
		drop, err = m.drag.DropOnStage(m.board, stage)
	}
	if err != nil {
		m.err = err
		return m, nil
	}
	if drop.Kind != drag.CardDrag {
		return m, nil
	}

	operations.ApplyAssignments(&m.board, m.sess.Records(), drop.Assignments)
	m.reloadBoardState()
	m.Focus(id)
	return m, shared.ApplyAssignments(m.sess, drop.Assignments, "Moved to "+stage)
}

func (m BoardModel) updateStageDrag(msg tea.KeyMsg) BoardModel {
	switch msg.String() {
	case "esc", "q":
		m.drag.Cancel()
		m.mode = boardModeNormal

	case "h", "left":
		if m.targetCol > 0 {
			m.targetCol--
		}

	case "l", "right":
		if m.targetCol < len(m.board.Columns)-1 {
			m.targetCol++
		}

	case "enter", "M":
		m.mode = boardModeNormal
		drop, err := m.drag.DropOnStage(m.board, m.board.Columns[m.targetCol].Name)
		if err != nil {
			m.err = err
			break
		}
		if drop.Kind != drag.StageDrag {
			break
		}
		err = m.sess.EditSettings(func(s *records.Settings) error {
			return operations.ReorderStage(s, drop.From, drop.To)
		})
		if err != nil {
			m.err = err
			break
		}
		m.Refresh()
		m.selectColumn(drop.To)
		m.message = "Stage moved"
	}

	m.adjustHorizontalScrollPosition()
	return m
}

func (m BoardModel) openPrompt(title, value, hint string, p purpose) (BoardModel, tea.Cmd) {
	m.prompt = shared.NewTextInput(title, value, hint, m.validatorFor(p))
	m.prompt.SetWidth(min(70, max(30, m.width-10)))
	m.purpose = p
	m.mode = boardModePrompt
	return m, m.prompt.Init()
}

// validatorFor checks prompt input on enter; a rejected value keeps the
// prompt open with the error.
func (m BoardModel) validatorFor(p purpose) func(string) error {
	cat := schema.NewCatalog(m.sess.Settings())
	switch p {
	case forAddStage, forRenameStage:
		stages, _ := cat.Column("stage")
		except := ""
		if col, ok := m.currentStage(); ok && p == forRenameStage {
			except = col.Name
		}
		labels := shared.OptionLabelValidator(stages.Options, except)
		return func(v string) error {
			if _, err := operations.ValidateStageName(v); err != nil {
				return err
			}
			return labels(v)
		}
	case forNewCompany, forNewPosition:
		key := "company_name"
		if p == forNewPosition {
			key = "position"
		}
		col, _ := cat.Column(key)
		return shared.ColumnValidator(col)
	}
	return nil
}

func (m BoardModel) openConfirm(question, details string, p purpose) (BoardModel, tea.Cmd) {
	m.confirm = shared.NewConfirmationModal(question, details, min(60, max(30, m.width-10)))
	m.purpose = p
	m.mode = boardModeConfirm
	return m, nil
}

func (m BoardModel) openOutcomePicker(card models.Card) (BoardModel, tea.Cmd) {
	col, _ := schema.NewCatalog(m.sess.Settings()).Column("outcome")
	items := make([]shared.PickerItem, len(col.Options))
	for i, o := range col.Options {
		items[i] = shared.PickerItem{Label: o.Label, Color: o.Color}
	}
	picker := shared.NewPickerModel(shared.PickerConfig{
		Title:   "Outcome of " + card.Title,
		Items:   items,
		Current: card.Outcome,
	})
	m.picker = &picker
	m.purpose = forOutcome
	m.mode = boardModePicker
	return m, picker.Init()
}

func (m BoardModel) updatePicker(msg tea.KeyMsg) (BoardModel, tea.Cmd) {
	var (
		cmd  tea.Cmd
		done bool
	)
	*m.picker, cmd, done = m.picker.Update(msg)
	if !done {
		return m, cmd
	}

	picker := m.picker
	m.picker = nil
	m.mode = boardModeNormal
	if picker.Cancelled() {
		return m, nil
	}
	item, _ := picker.Chosen()
	card, ok := m.currentCard()
	if !ok || item.Label == card.Outcome {
		return m, nil
	}

	col, _ := schema.NewCatalog(m.sess.Settings()).Column("outcome")
	serialized, err := col.Normalize(item.Label)
	if err != nil {
		m.err = err
		return m, nil
	}
	return m, shared.UpdateRecord(m.sess, card.ID, col.Patch(serialized), "Outcome set to "+serialized)
}

func (m BoardModel) handlePromptResult(msg shared.TextInputResultMsg) (BoardModel, tea.Cmd) {
	m.prompt = nil
	m.mode = boardModeNormal
	if msg.Cancelled {
		m.draft = nil
		return m, nil
	}
	value := strings.TrimSpace(msg.Value)

	switch m.purpose {
	case forAddStage:
		position := -1
		if col, ok := m.currentStage(); ok {
			position = indexFold(m.sess.Settings().Stages, col.Name) + 1
		}
		err := m.sess.EditSettings(func(s *records.Settings) error {
			return operations.AddStage(s, value, "", position)
		})
		if err != nil {
			m.err = err
			return m, nil
		}
		m.Refresh()
		if i := m.board.ColumnIndex(value); i >= 0 {
			m.selectColumn(i)
		}
		m.message = "Added stage " + value

	case forRenameStage:
		col, ok := m.currentStage()
		if !ok || value == col.Name {
			return m, nil
		}
		return m, shared.RenameStage(m.sess, col.Name, value)

	case forRecolorStage:
		col, ok := m.currentStage()
		if !ok {
			return m, nil
		}
		err := m.sess.EditOptions("stage", func(opts []records.Option) ([]records.Option, error) {
			return schema.RecolorOption(opts, col.Name, value)
		})
		if err != nil {
			m.err = err
			return m, nil
		}
		m.Refresh()

	case forNewCompany:
		m.draft["company_name"] = value
		return m.openPrompt("Position", "", "new application at "+value, forNewPosition)

	case forNewPosition:
		values := m.draft
		m.draft = nil
		values["position"] = value
		rec, err := schema.DraftRecord(m.sess.Settings(), values)
		if err != nil {
			m.err = err
			return m, nil
		}
		return m, shared.CreateRecord(m.sess, rec)
	}
	return m, nil
}

func (m BoardModel) handleConfirmResult(msg shared.ConfirmationResultMsg) (BoardModel, tea.Cmd) {
	m.confirm = nil
	m.mode = boardModeNormal
	if !msg.Confirmed {
		return m, nil
	}

	switch m.purpose {
	case forDeleteCard:
		if card, ok := m.currentCard(); ok {
			return m, shared.DeleteRecords(m.sess, []int64{card.ID})
		}

	case forDeleteStage:
		col, ok := m.currentStage()
		if !ok {
			return m, nil
		}
		err := m.sess.EditSettings(func(s *records.Settings) error {
			return operations.DeleteStage(m.board, s, col.Name)
		})
		if err != nil {
			m.err = err
			return m, nil
		}
		m.Refresh()
		m.selectColumn(min(m.selectedCol, max(0, len(m.board.Columns)-1)))
		m.message = "Deleted stage " + col.Name
	}
	return m, nil
}

func (m BoardModel) currentCard() (models.Card, bool) {
	if m.selectedCol >= len(m.board.Columns) {
		return models.Card{}, false
	}
	cards := m.getVisibleCards(m.selectedCol)
	if m.selectedCard >= len(cards) {
		return models.Card{}, false
	}
	return cards[m.selectedCard], true
}

// currentStage is the selected column when it is a pipeline stage
func (m BoardModel) currentStage() (models.Column, bool) {
	if m.selectedCol >= len(m.board.Columns) {
		return models.Column{}, false
	}
	col := m.board.Columns[m.selectedCol]
	return col, !col.Extra
}

func indexFold(list []string, s string) int {
	for i, v := range list {
		if strings.EqualFold(v, s) {
			return i
		}
	}
	return -1
}

// reloadBoardState syncs arrays and validates cursors after a rebuild
func (m *BoardModel) reloadBoardState() {
	if len(m.columnScrollOffsets) != len(m.board.Columns) {
		newOffsets := make([]int, len(m.board.Columns))
		copy(newOffsets, m.columnScrollOffsets)
		m.columnScrollOffsets = newOffsets
	}

	if len(m.columnCursorPos) != len(m.board.Columns) {
		newCursorPos := make([]int, len(m.board.Columns))
		copy(newCursorPos, m.columnCursorPos)
		m.columnCursorPos = newCursorPos
	}

	if m.selectedCol >= len(m.board.Columns) {
		m.selectedCol = max(0, len(m.board.Columns)-1)
	}

	if m.filterActive {
		m.recomputeFilter()
		m.clampFilteredCursors()
	} else if m.selectedCol < len(m.board.Columns) {
		if m.selectedCard >= len(m.board.Columns[m.selectedCol].Cards) {
			m.selectedCard = max(0, len(m.board.Columns[m.selectedCol].Cards)-1)
			m.columnCursorPos[m.selectedCol] = m.selectedCard
		}
	}

	if m.columnHorizontalOffset >= len(m.board.Columns) {
		m.columnHorizontalOffset = max(0, len(m.board.Columns)-1)
	}
	m.adjustHorizontalScrollPosition()
}

// cardSearchString builds a single string from all card fields for fuzzy matching
func cardSearchString(card models.Card) string {
	parts := []string{card.Title}
	if card.Subtitle != "" {
		parts = append(parts, card.Subtitle)
	}
	if card.JobType != "" {
		parts = append(parts, card.JobType)
	}
	if card.Outcome != "" {
		parts = append(parts, card.Outcome)
	}
	if card.Preview != "" {
		parts = append(parts, card.Preview)
	}
	if card.Favorite {
		parts = append(parts, "*favorite")
	}
	return strings.Join(parts, " ")
}

// recomputeFilter rebuilds filteredIndices for each column based on the current filterQuery
func (m *BoardModel) recomputeFilter() {
	if m.filterQuery == "" {
		m.filterActive = false
		m.filteredIndices = nil
		return
	}

	m.filteredIndices = make([][]int, len(m.board.Columns))
	for colIdx, col := range m.board.Columns {
		searchStrings := make([]string, len(col.Cards))
		for i, card := range col.Cards {
			searchStrings[i] = cardSearchString(card)
		}
		matches := fuzzy.Find(m.filterQuery, searchStrings)
		indices := make([]int, len(matches))
		for i, match := range matches {
			indices[i] = match.Index
		}
		m.filteredIndices[colIdx] = indices
	}
}

// getVisibleCards returns the cards to display for a column, respecting the active filter
func (m *BoardModel) getVisibleCards(colIndex int) []models.Card {
	if !m.filterActive || m.filteredIndices == nil || colIndex >= len(m.filteredIndices) {
		return m.board.Columns[colIndex].Cards
	}
	indices := m.filteredIndices[colIndex]
	cards := make([]models.Card, len(indices))
	for i, idx := range indices {
		cards[i] = m.board.Columns[colIndex].Cards[idx]
	}
	return cards
}

// clampFilteredCursors ensures cursor positions are valid for the filtered card sets
func (m *BoardModel) clampFilteredCursors() {
	if m.selectedCol >= len(m.board.Columns) {
		return
	}
	visibleCount := len(m.getVisibleCards(m.selectedCol))
	if m.selectedCard >= visibleCount {
		m.selectedCard = max(0, visibleCount-1)
	}
	m.columnCursorPos[m.selectedCol] = m.selectedCard
}
