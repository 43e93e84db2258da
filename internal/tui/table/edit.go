package table

import (
	"errors"
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"

	"jobtrack/internal/api"
	"jobtrack/internal/grid"
	"jobtrack/internal/records/models"
	"jobtrack/internal/schema"
	"jobtrack/internal/tui/messages"
	"jobtrack/internal/tui/shared"
)

// clearLabel is the picker entry that empties an optional select cell
const clearLabel = "(none)"

// newPropertyKinds are the kinds offered when adding a property, in menu order
var newPropertyKinds = []schema.Kind{
	schema.KindText,
	schema.KindNumber,
	schema.KindDate,
	schema.KindCheckbox,
	schema.KindRating,
	schema.KindSelect,
	schema.KindContacts,
	schema.KindLinks,
	schema.KindDocuments,
}

func errNotCustom(col schema.Column) error {
	return api.Invalid(col.Key, "%s is a built-in column", col.Label)
}

func errNoOptions(col schema.Column) error {
	return api.Invalid(col.Key, "%s has no options", col.Label)
}

func deleteQuestion(n int) string {
	if n == 1 {
		return "Delete this application?"
	}
	return fmt.Sprintf("Delete %d applications?", n)
}

// editHint describes the editing syntax of a kind
func editHint(k schema.Kind) string {
	switch k {
	case schema.KindNumber:
		return "a number, empty clears"
	case schema.KindRating:
		return "0 to 5, empty clears"
	case schema.KindDate:
		return "YYYY-MM-DD, empty clears"
	case schema.KindDatetime:
		return "YYYY-MM-DDTHH:MM, empty clears"
	case schema.KindContacts:
		return `name|email|phone|info, entries separated by ; (\ escapes ; and |)`
	case schema.KindLinks:
		return `url or label=url, entries separated by commas (\ escapes , and =)`
	}
	return ""
}

func (m Model) openPrompt(title, value, hint string, p purpose) (Model, tea.Cmd) {
	m.prompt = shared.NewTextInput(title, value, hint, m.validatorFor(p))
	m.prompt.SetWidth(min(70, max(30, m.width-10)))
	m.purpose = p
	m.mode = modePrompt
	return m, m.prompt.Init()
}

// validatorFor checks prompt input on enter; a rejected value keeps the
// prompt open with the error.
func (m Model) validatorFor(p purpose) func(string) error {
	cat := schema.NewCatalog(m.sess.Settings())
	switch p {
	case forNewCompany, forNewPosition:
		key := "company_name"
		if p == forNewPosition {
			key = "position"
		}
		col, _ := cat.Column(key)
		return shared.ColumnValidator(col)
	case forPropertyName:
		return shared.NotEmpty("name", "property name")
	case forAddOption:
		if col, ok := m.currentColumn(); ok {
			return shared.OptionLabelValidator(col.Options, "")
		}
	case forRenameOptionTo:
		if col, ok := m.currentColumn(); ok {
			return shared.OptionLabelValidator(col.Options, m.draft["from"])
		}
	}
	return nil
}

func (m Model) openConfirm(question, details string, p purpose) (Model, tea.Cmd) {
	m.confirm = shared.NewConfirmationModal(question, details, min(60, max(30, m.width-10)))
	m.purpose = p
	m.mode = modeConfirm
	return m, nil
}

func (m Model) openPicker(config shared.PickerConfig, p purpose) (Model, tea.Cmd) {
	picker := shared.NewPickerModel(config)
	m.picker = &picker
	m.purpose = p
	m.mode = modePicker
	return m, picker.Init()
}

func (m Model) openOptionPicker(col schema.Column, current, title string, allowCreate bool, p purpose) (Model, tea.Cmd) {
	items := make([]shared.PickerItem, 0, len(col.Options)+1)
	if allowCreate && !col.Required {
		items = append(items, shared.PickerItem{Label: clearLabel})
	}
	for _, o := range col.Options {
		items = append(items, shared.PickerItem{Label: o.Label, Color: o.Color})
	}
	return m.openPicker(shared.PickerConfig{
		Title:       title,
		Items:       items,
		Current:     current,
		AllowCreate: allowCreate,
	}, p)
}

func (m Model) openAggregatePicker() (Model, tea.Cmd) {
	col, ok := m.currentColumn()
	if !ok {
		return m, nil
	}
	var items []shared.PickerItem
	for _, op := range grid.OperatorsFor(col.Kind) {
		items = append(items, shared.PickerItem{Label: string(op), Hint: op.Label()})
	}
	current := string(m.layout.Aggregates()[col.Key])
	return m.openPicker(shared.PickerConfig{
		Title:   "Aggregate " + col.Label,
		Items:   items,
		Current: current,
	}, forAggregate)
}

// beginEdit opens the editor of the cell under the cursor
func (m Model) beginEdit() (Model, tea.Cmd) {
	rec, ok := m.currentRecord()
	if !ok {
		return m, nil
	}
	col, ok := m.currentColumn()
	if !ok {
		return m, nil
	}

	ed := grid.EditorFor(col)
	ed.Begin(col.Raw(rec))
	if ed.ReadOnly() {
		return m, messages.OpenRecord(rec.ID)
	}
	m.editor = ed
	m.editIDs = []int64{rec.ID}

	switch {
	case col.Kind == schema.KindCheckbox:
		ed.Toggle()
		return m.saveEdit()
	case col.Kind.IsSelectLike():
		return m.openOptionPicker(col, ed.Draft(), col.Label, true, forCell)
	}
	return m.openPrompt(col.Label, ed.Draft(), editHint(col.Kind), forCell)
}

// beginBulkEdit sets one column on every selected record
func (m Model) beginBulkEdit() (Model, tea.Cmd) {
	if len(m.selected) == 0 {
		m.message = "Select rows with space first"
		return m, nil
	}
	col, ok := m.currentColumn()
	if !ok {
		return m, nil
	}
	ed := grid.EditorFor(col)
	if ed.ReadOnly() {
		m.err = api.Invalid(col.Key, "%s cannot be bulk edited", col.Label)
		return m, nil
	}
	ed.Begin("")
	m.editor = ed
	m.editIDs = m.targetIDs()

	title := fmt.Sprintf("Set %s on %d application(s)", col.Label, len(m.editIDs))
	switch {
	case col.Kind == schema.KindCheckbox:
		ed.Toggle()
		return m.saveEdit()
	case col.Kind.IsSelectLike():
		return m.openOptionPicker(col, "", title, true, forBulk)
	}
	return m.openPrompt(title, "", editHint(col.Kind), forBulk)
}

// saveEdit commits the open editor and dispatches the write for every
// edited record. Invalid input reverts without a write.
func (m Model) saveEdit() (Model, tea.Cmd) {
	ed, ids := m.editor, m.editIDs
	m.editor = nil
	m.editIDs = nil
	m.mode = modeNormal
	if ed == nil || len(ids) == 0 {
		return m, nil
	}

	var cmd tea.Cmd
	err := ed.Save(func(patch models.Patch) {
		if len(ids) == 1 {
			cmd = shared.UpdateRecord(m.sess, ids[0], patch, ed.Column().Label+" updated")
			return
		}
		cmd = shared.BulkUpdate(m.sess, ids, patch)
	})
	if err != nil {
		m.err = err
	}
	return m, cmd
}

// chooseOption puts a picked option into the open editor. A typed label is
// added to the vocabulary first.
func (m Model) chooseOption(item shared.PickerItem, created bool) (Model, tea.Cmd) {
	if m.editor == nil {
		return m, nil
	}
	col := m.editor.Column()
	if created {
		err := m.sess.EditOptions(col.Key, func(opts []models.Option) ([]models.Option, error) {
			return schema.AddOption(opts, item.Label, "")
		})
		if err != nil {
			m.err = err
			m.editor = nil
			return m, nil
		}
		m.layout.Reload(m.sess.Settings())
		fresh, _ := m.layout.Catalog().Column(col.Key)
		ed := grid.EditorFor(fresh)
		ed.Begin(m.editor.Original())
		m.editor = ed
	}

	if item.Label == clearLabel && !created {
		m.editor.SetDraft("")
	} else {
		m.editor.SetDraft(item.Label)
	}
	return m.saveEdit()
}

func (m Model) updatePicker(msg tea.KeyMsg) (Model, tea.Cmd) {
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
	m.mode = modeNormal
	if picker.Cancelled() {
		m.editor = nil
		m.editIDs = nil
		m.draft = nil
		return m, nil
	}
	item, created := picker.Chosen()

	switch m.purpose {
	case forCell, forBulk:
		return m.chooseOption(item, created)

	case forAggregate:
		col, ok := m.currentColumn()
		if !ok {
			return m, nil
		}
		if err := m.layout.SetAggregate(col.Key, grid.Operator(item.Label)); err != nil {
			m.err = err
		}

	case forPropertyKind:
		kind := schema.Kind(item.Label)
		if kind.IsSelectLike() {
			m.draft["kind"] = item.Label
			return m.openPrompt("Options", "", "labels separated by commas, optional", forPropertyOptions)
		}
		m = m.addProperty(m.draft["name"], kind, nil)

	case forRenameOptionFrom:
		m.draft = map[string]string{"from": item.Label}
		return m.openPrompt("Rename option "+item.Label, item.Label, "", forRenameOptionTo)
	}
	return m, nil
}

func (m Model) handlePromptResult(msg shared.TextInputResultMsg) (Model, tea.Cmd) {
	m.prompt = nil
	m.mode = modeNormal
	if msg.Cancelled {
		m.editor = nil
		m.editIDs = nil
		m.draft = nil
		return m, nil
	}
	col, _ := m.currentColumn()
	value := msg.Value

	switch m.purpose {
	case forCell, forBulk:
		if m.editor != nil {
			m.editor.SetDraft(value)
		}
		return m.saveEdit()

	case forFilter:
		m.layout.SetFilter(col.Key, value)
		m.cursor = 0
		m.recompute()

	case forLabel:
		if err := m.layout.SetLabel(col.Key, value); err != nil {
			m.err = err
		}

	case forNewCompany:
		m.draft = map[string]string{"company_name": value}
		return m.openPrompt("Position", "", "new application at "+strings.TrimSpace(value), forNewPosition)

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

	case forPropertyName:
		if strings.TrimSpace(value) == "" {
			m.err = api.Invalid("name", "property name cannot be empty")
			return m, nil
		}
		m.draft = map[string]string{"name": value}
		items := make([]shared.PickerItem, len(newPropertyKinds))
		for i, k := range newPropertyKinds {
			items[i] = shared.PickerItem{Label: string(k)}
		}
		return m.openPicker(shared.PickerConfig{Title: "Type of " + strings.TrimSpace(value), Items: items}, forPropertyKind)

	case forPropertyOptions:
		var options []models.Option
		for _, label := range strings.Split(value, ",") {
			if label = strings.TrimSpace(label); label != "" {
				options = append(options, models.Option{Label: label})
			}
		}
		name, kind := m.draft["name"], schema.Kind(m.draft["kind"])
		m.draft = nil
		m = m.addProperty(name, kind, options)

	case forAddOption:
		err := m.sess.EditOptions(col.Key, func(opts []models.Option) ([]models.Option, error) {
			return schema.AddOption(opts, value, "")
		})
		if err != nil {
			m.err = err
			return m, nil
		}
		m.layout.Reload(m.sess.Settings())
		m.message = fmt.Sprintf("Added %q to %s", strings.TrimSpace(value), col.Label)

	case forRenameOptionTo:
		from := m.draft["from"]
		m.draft = nil
		if strings.TrimSpace(value) == from {
			return m, nil
		}
		return m, shared.RenameOption(m.sess, col.Key, from, strings.TrimSpace(value))
	}
	return m, nil
}

func (m Model) handleConfirmResult(msg shared.ConfirmationResultMsg) (Model, tea.Cmd) {
	m.confirm = nil
	m.mode = modeNormal
	p := m.purpose
	ids, draft := m.editIDs, m.draft
	m.editIDs = nil
	m.draft = nil
	if !msg.Confirmed {
		return m, nil
	}

	switch p {
	case forDeleteRows:
		for _, id := range ids {
			delete(m.selected, id)
		}
		return m, shared.DeleteRecords(m.sess, ids)

	case forRemoveProperty:
		if err := m.layout.RemoveCustomProperty(draft["key"]); err != nil {
			m.err = err
			return m, nil
		}
		m.recompute()
		m.message = "Property removed"
	}
	return m, nil
}

func (m Model) addProperty(name string, kind schema.Kind, options []models.Option) Model {
	m.draft = nil
	col, err := m.layout.AddCustomProperty(name, kind, options)
	if err != nil {
		m.err = err
		return m
	}
	m.recompute()
	if i := indexOf(m.layout.VisibleKeys(), col.Key); i >= 0 {
		m.col = i
	}
	m.adjustScroll()
	m.message = "Added property " + col.Label
	return m
}

// yankCell copies the displayed value of the cell under the cursor
func (m *Model) yankCell() {
	rec, ok := m.currentRecord()
	if !ok {
		return
	}
	col, ok := m.currentColumn()
	if !ok {
		return
	}
	text := displayValue(col, rec)
	if err := clipboard.WriteAll(text); err != nil {
		m.err = errors.New("clipboard unavailable: " + err.Error())
		return
	}
	m.message = "Copied " + col.Label
}
