package detail

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"jobtrack/internal/records/models"
	"jobtrack/internal/schema"
	"jobtrack/internal/tui/shared"
	"jobtrack/internal/tui/theme"
)

const (
	headerLines = 2
	footerLines = 3
	labelWidth  = 20
)

var (
	labelStyle   = theme.Muted.Width(labelWidth)
	sectionStyle = theme.Subtitle.MarginTop(1)
	helpStyle    = theme.Muted.PaddingLeft(1)
)

// header fields are shown in the title line instead of the field list
var headerKeys = map[string]bool{
	"company_name": true,
	"position":     true,
	"favorite":     true,
	"notes":        true,
}

func (m Model) View() string {
	switch m.mode {
	case modePrompt:
		return m.place(m.prompt.View())
	case modeConfirm:
		return m.place(m.confirm.View())
	}
	if m.id == 0 {
		return shared.CenterAbove(theme.Muted.Render("No application selected"), helpStyle.Render("esc: back"), m.height)
	}

	var s strings.Builder
	title := m.rec.CompanyName
	if m.rec.Favorite {
		title = theme.Favorite.Render("★ ") + title
	}
	s.WriteString(" " + theme.Title.Render(title))
	if m.rec.Position != "" {
		s.WriteString(theme.Position.Render(" - " + m.rec.Position))
	}
	s.WriteString("\n\n")

	s.WriteString(m.viewport.View())
	s.WriteString("\n")
	s.WriteString(m.renderStatus())
	return s.String()
}

func (m Model) place(modal string) string {
	if m.width == 0 || m.height == 0 {
		return modal
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal)
}

func (m Model) renderStatus() string {
	var s strings.Builder
	switch {
	case m.err != nil:
		s.WriteString(" " + theme.Error.Render(fmt.Sprintf("Error: %v", m.err)))
	case m.message != "":
		s.WriteString(" " + theme.Ok.Render(m.message))
	}
	s.WriteString("\n")
	help := "j/k: scroll • tab: documents/to-dos • J/K: select • u: upload • y: copy link • t: add to-do • space: done • x: delete • e: notes • f: star • esc: back"
	if m.cancelUpload != nil {
		help = "uploading • esc: cancel upload"
	}
	s.WriteString(helpStyle.Render(help))
	return s.String()
}

// render rebuilds the scrollable body
func (m *Model) render() {
	if m.id == 0 {
		m.viewport.SetContent("")
		return
	}
	var b strings.Builder
	b.WriteString(m.renderFields())
	b.WriteString(m.renderDocuments())
	b.WriteString(m.renderTodos())
	b.WriteString(sectionStyle.Render("Notes"))
	b.WriteString("\n")
	b.WriteString(m.renderNotes())
	m.viewport.SetContent(b.String())
}

func (m Model) renderFields() string {
	settings := m.sess.Settings()
	cat := schema.NewCatalog(settings)

	keys := schema.BuiltinKeys()
	for _, p := range settings.CustomProperties {
		if !schema.IsBuiltin(p.Key) {
			keys = append(keys, p.Key)
		}
	}

	var b strings.Builder
	for _, col := range cat.Columns(keys) {
		if headerKeys[col.Key] {
			continue
		}
		raw := col.Raw(m.rec)
		if strings.TrimSpace(raw) == "" {
			continue
		}
		lines := fieldLines(col, raw)
		for i, line := range lines {
			label := ""
			if i == 0 {
				label = col.Label
			}
			b.WriteString(" " + labelStyle.Render(label) + line + "\n")
		}
	}
	return b.String()
}

func fieldLines(col schema.Column, raw string) []string {
	switch col.Kind {
	case schema.KindSelect:
		opt, ok := col.Option(raw)
		if !ok {
			return []string{raw}
		}
		return []string{theme.OptionStyle(opt.Color).Render(opt.Label)}
	case schema.KindCheckbox:
		if schema.IsChecked(raw) {
			return []string{"✓"}
		}
		return []string{"✗"}
	case schema.KindRating:
		v, _ := schema.NumericValue(raw)
		return []string{theme.Favorite.Render(strings.Repeat("★", int(v)))}
	case schema.KindNumber:
		if v, ok := schema.NumericValue(raw); ok {
			return []string{schema.FormatNumber(v)}
		}
	case schema.KindContacts:
		var out []string
		for _, c := range schema.ParseContacts(raw) {
			out = append(out, formatContact(c))
		}
		return out
	case schema.KindLinks:
		var out []string
		for _, l := range schema.ParseLinks(raw) {
			if l.Label != "" {
				out = append(out, l.Label+": "+l.URL)
			} else {
				out = append(out, l.URL)
			}
		}
		return out
	case schema.KindDocuments:
		var out []string
		for _, d := range schema.ParseDocuments(raw) {
			out = append(out, d.Name)
		}
		return out
	}
	return strings.Split(raw, "\n")
}

func formatContact(c models.Contact) string {
	parts := []string{c.Name}
	if c.Email != "" {
		parts = append(parts, "<"+c.Email+">")
	}
	if c.Phone != "" {
		parts = append(parts, c.Phone)
	}
	if c.Information != "" {
		parts = append(parts, theme.Preview.Render(c.Information))
	}
	return strings.Join(parts, " ")
}

func (m Model) renderDocuments() string {
	var b strings.Builder
	docs := m.rec.DocumentsFiles
	b.WriteString(sectionStyle.Render(fmt.Sprintf("Documents (%d)", len(docs))))
	b.WriteString("\n")
	if len(docs) == 0 {
		b.WriteString(theme.Preview.Render("  none, press u to upload"))
		b.WriteString("\n")
		return b.String()
	}
	for i, d := range docs {
		cursor := "  "
		name := d.Name
		if i == m.docCursor && m.focus == sectionDocuments {
			cursor = theme.Cursor.Render("> ")
			name = theme.Selected.Render(name)
		}
		meta := []string{}
		if d.Size > 0 {
			meta = append(meta, humanize.Bytes(uint64(d.Size)))
		}
		if d.UploadedAt != nil {
			meta = append(meta, humanize.Time(*d.UploadedAt))
		}
		line := cursor + name
		if len(meta) > 0 {
			line += theme.Muted.Render("  " + strings.Join(meta, ", "))
		}
		b.WriteString(line + "\n")
	}
	return b.String()
}

func (m Model) renderTodos() string {
	var b strings.Builder
	items := m.rec.TodoItems
	done := 0
	for _, t := range items {
		if schema.IsDone(t) {
			done++
		}
	}
	b.WriteString(sectionStyle.Render(fmt.Sprintf("To-Dos (%d/%d)", done, len(items))))
	b.WriteString("\n")
	if len(items) == 0 {
		b.WriteString(theme.Preview.Render("  none, press t to add one"))
		b.WriteString("\n")
		return b.String()
	}
	for i, t := range items {
		cursor := "  "
		box := "[ ] "
		task := t.Task
		if schema.IsDone(t) {
			box = "[x] "
			task = theme.Muted.Strikethrough(true).Render(task)
		}
		if i == m.todoCursor && m.focus == sectionTodos {
			cursor = theme.Cursor.Render("> ")
			task = theme.Selected.Render(t.Task)
		}
		line := cursor + box + task
		if due, ok := schema.DueDate(t); ok {
			line += theme.Muted.Render("  due " + t.DueDate + ", " + humanize.Time(due))
		} else if t.DueDate != "" {
			line += theme.Muted.Render("  due " + t.DueDate)
		}
		if t.TaskLocation != "" {
			line += theme.Muted.Render("  @ " + t.TaskLocation)
		}
		b.WriteString(line + "\n")
	}
	return b.String()
}

// renderNotes renders the notes as markdown. The output is cached until the
// notes or the width change.
func (m *Model) renderNotes() string {
	notes := strings.TrimSpace(m.rec.Notes)
	if notes == "" {
		return theme.Preview.Render("  none, press e to write some") + "\n"
	}
	if notes == m.notesSrc && m.notes != "" {
		return m.notes
	}
	r := m.ensureRenderer()
	if r == nil {
		return notes + "\n"
	}
	out, err := r.Render(notes)
	if err != nil {
		return notes + "\n"
	}
	m.notes = out
	m.notesSrc = notes
	return out
}

func (m *Model) ensureRenderer() *glamour.TermRenderer {
	if m.renderer != nil {
		return m.renderer
	}
	wrap := max(20, m.width-4)
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dark"),
		glamour.WithWordWrap(wrap),
	)
	if err != nil {
		return nil
	}
	m.renderer = r
	return r
}
