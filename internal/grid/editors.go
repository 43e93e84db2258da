package grid

import (
	"strings"

	"jobtrack/internal/api"
	"jobtrack/internal/records/models"
	"jobtrack/internal/schema"
)

// Editor edits one cell. The draft is free text in the kind's editing syntax;
// Commit normalizes it into the serialized form. A rejected commit reverts the
// draft to the original value.
type Editor struct {
	col      schema.Column
	original string
	draft    string
}

// EditorFor returns an editor for a column
func EditorFor(col schema.Column) *Editor {
	return &Editor{col: col}
}

// Column is the edited column
func (e *Editor) Column() schema.Column { return e.col }

// ReadOnly reports kinds that cannot be edited inline
func (e *Editor) ReadOnly() bool {
	return e.col.Kind == schema.KindDocuments
}

// Begin starts editing from a serialized value
func (e *Editor) Begin(raw string) {
	e.original = raw
	e.draft = editable(e.col.Kind, raw)
}

// Original is the serialized value editing started from
func (e *Editor) Original() string { return e.original }

// Draft is the current editing text
func (e *Editor) Draft() string { return e.draft }

// SetDraft replaces the editing text
func (e *Editor) SetDraft(s string) { e.draft = s }

// Revert restores the draft to the original value
func (e *Editor) Revert() { e.draft = editable(e.col.Kind, e.original) }

// Toggle flips a checkbox draft
func (e *Editor) Toggle() {
	if e.col.Kind != schema.KindCheckbox {
		return
	}
	if schema.IsChecked(e.draft) {
		e.draft = "false"
	} else {
		e.draft = "true"
	}
}

// Options lists the choices of a select-like column
func (e *Editor) Options() []models.Option {
	return e.col.Options
}

// Contacts parses the draft of a contacts editor
func (e *Editor) Contacts() []models.Contact {
	return schema.ParseContactLines(e.draft)
}

// AddContact appends a contact to the draft
func (e *Editor) AddContact(c models.Contact) error {
	if e.col.Kind != schema.KindContacts {
		return api.Invalid(e.col.Key, "not a contacts column")
	}
	if strings.TrimSpace(c.Name) == "" {
		return api.Invalid(e.col.Key, "contact name is required")
	}
	e.draft = schema.FormatContactLines(append(e.Contacts(), c))
	return nil
}

// RemoveContact drops the i-th contact of the draft
func (e *Editor) RemoveContact(i int) {
	contacts := e.Contacts()
	if i < 0 || i >= len(contacts) {
		return
	}
	e.draft = schema.FormatContactLines(append(contacts[:i], contacts[i+1:]...))
}

// Commit normalizes the draft. changed is false when the result equals the
// original value; on a ValidationError the draft is reverted.
func (e *Editor) Commit() (string, bool, error) {
	if e.ReadOnly() {
		return e.original, false, nil
	}
	serialized, err := e.col.Normalize(e.draft)
	if err != nil {
		e.Revert()
		return "", false, err
	}
	if e.col.Kind == schema.KindContacts {
		before := schema.ParseContacts(e.original)
		after := schema.ParseContacts(serialized)
		if schema.SameContacts(before, after) {
			return schema.EncodeContacts(before), false, nil
		}
		return schema.EncodeContacts(keepContactIDs(before, after)), true, nil
	}
	return serialized, serialized != canonical(e.col, e.original), nil
}

// Save commits the draft and, when the value changed, hands the resulting
// patch to mutate. mutate is never called for invalid input.
func (e *Editor) Save(mutate func(models.Patch)) error {
	serialized, changed, err := e.Commit()
	if err != nil {
		return err
	}
	if changed {
		mutate(e.col.Patch(serialized))
	}
	return nil
}

func editable(k schema.Kind, raw string) string {
	switch k {
	case schema.KindContacts:
		return schema.FormatContactLines(schema.ParseContacts(raw))
	case schema.KindLinks:
		return schema.FormatLinkLines(schema.ParseLinks(raw))
	case schema.KindCheckbox:
		if schema.IsChecked(raw) {
			return "true"
		}
		return "false"
	}
	return raw
}

// canonical is the serialized form the original value would normalize to, so
// formatting-only differences are not reported as changes.
func canonical(col schema.Column, raw string) string {
	switch col.Kind {
	case schema.KindContacts:
		return schema.EncodeContacts(schema.ParseContacts(raw))
	case schema.KindLinks:
		return schema.EncodeLinks(schema.ParseLinks(raw))
	case schema.KindCheckbox:
		if schema.IsChecked(raw) {
			return "true"
		}
		return "false"
	}
	if out, err := col.Normalize(raw); err == nil {
		return out
	}
	return raw
}

// keepContactIDs carries the ids of existing contacts over to edited entries
// with the same name. Entries left without one get a fresh id.
func keepContactIDs(before, after []models.Contact) []models.Contact {
	used := make(map[int]bool)
	for i := range after {
		for j, b := range before {
			if b.ID != "" && !used[j] && strings.EqualFold(b.Name, after[i].Name) {
				after[i].ID = b.ID
				used[j] = true
				break
			}
		}
	}
	return schema.AssignContactIDs(after)
}
