package detail

import (
	"context"
	"fmt"
	"io"
	"mime"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"jobtrack/internal/api"
	"jobtrack/internal/logs"
	"jobtrack/internal/records/models"
	"jobtrack/internal/schema"
	"jobtrack/internal/session"
	"jobtrack/internal/tui/messages"
	"jobtrack/internal/tui/shared"
)

type mode int

const (
	modeNormal mode = iota
	modePrompt
	modeConfirm
)

// section is the list J/K and x act on
type section int

const (
	sectionDocuments section = iota
	sectionTodos
)

// purpose tells what the open prompt or confirmation is for
type purpose int

const (
	forUpload purpose = iota
	forAddTodo
	forEditTodo
	forDeleteDocument
	forDeleteTodo
)

// uploadDoneMsg wraps the result of an upload so the view can drop its
// cancel handle before the result is broadcast.
type uploadDoneMsg struct {
	id     int64
	result messages.RecordsChangedMsg
}

type notesEditedMsg struct {
	id   int64
	path string
	err  error
}

// Model shows every field of one record with its documents and notes
type Model struct {
	sess *session.Session
	id   int64
	rec  models.Record

	viewport viewport.Model
	renderer *glamour.TermRenderer
	notes    string // rendered notes, cached per width
	notesSrc string

	width, height int
	mode          mode
	purpose       purpose
	focus         section
	docCursor     int
	todoCursor    int
	prompt        *shared.TextInputModel
	confirm       *shared.ConfirmationModal

	cancelUpload context.CancelFunc

	message string
	err     error
}

func New(sess *session.Session) Model {
	return Model{
		sess:     sess,
		viewport: viewport.New(0, 0),
	}
}

// Open loads a record into the view. It reports false when the record is gone.
func (m *Model) Open(id int64) bool {
	rec, ok := m.sess.Record(id)
	if !ok {
		return false
	}
	if m.id != id {
		m.docCursor = 0
		m.todoCursor = 0
		m.focus = sectionDocuments
		m.viewport.GotoTop()
	}
	m.id = id
	m.rec = rec
	m.mode = modeNormal
	m.message = ""
	m.err = nil
	m.render()
	return true
}

// ID is the record on display, 0 when none
func (m Model) ID() int64 { return m.id }

func (m *Model) SetSize(width, height int) {
	if width != m.width {
		m.renderer = nil
		m.notesSrc = ""
	}
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = max(1, height-headerLines-footerLines)
	m.render()
}

// Refresh re-reads the record from the session
func (m *Model) Refresh() {
	if m.id == 0 {
		return
	}
	if rec, ok := m.sess.Record(m.id); ok {
		m.rec = rec
	}
	m.docCursor = clamp(m.docCursor, 0, len(m.rec.DocumentsFiles)-1)
	m.todoCursor = clamp(m.todoCursor, 0, len(m.rec.TodoItems)-1)
	m.render()
}

// HandleResult shows the outcome of a session operation
func (m *Model) HandleResult(msg messages.RecordsChangedMsg) {
	m.message = msg.Status
	m.err = nil
	if text, isErr := shared.InlineError(msg.Err); text != "" {
		if isErr {
			m.err = fmt.Errorf("%s", text)
			m.message = ""
		} else {
			m.message = text
		}
	} else if msg.Err != nil {
		m.message = ""
	}
	m.Refresh()
}

func (m Model) IsModal() bool {
	return m.mode != modeNormal
}

// Uploading reports whether an upload is in flight
func (m Model) Uploading() bool {
	return m.cancelUpload != nil
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case uploadDoneMsg:
		if msg.id == m.id {
			m.cancelUpload = nil
		}
		result := msg.result
		return m, func() tea.Msg { return result }

	case notesEditedMsg:
		return m.finishNotes(msg)

	case shared.TextInputResultMsg:
		if m.mode != modePrompt {
			return m, nil
		}
		m.mode = modeNormal
		m.prompt = nil
		if msg.Cancelled {
			return m, nil
		}
		switch m.purpose {
		case forAddTodo, forEditTodo:
			return m.saveTodo(msg.Value)
		}
		return m.startUpload(msg.Value)

	case shared.ConfirmationResultMsg:
		if m.mode != modeConfirm {
			return m, nil
		}
		m.mode = modeNormal
		m.confirm = nil
		if !msg.Confirmed {
			return m, nil
		}
		if m.purpose == forDeleteTodo {
			if _, ok := m.currentTodo(); !ok {
				return m, nil
			}
			items := schema.RemoveTodo(m.rec.TodoItems, m.todoCursor)
			return m, shared.UpdateRecord(m.sess, m.id, schema.TodoPatch(items), "To-do removed")
		}
		doc, ok := m.currentDocument()
		if !ok {
			return m, nil
		}
		return m, shared.DeleteDocument(m.sess, m.id, doc.ID)

	case tea.KeyMsg:
		switch m.mode {
		case modePrompt:
			_, cmd := m.prompt.Update(msg)
			return m, cmd
		case modeConfirm:
			return m, m.confirm.Update(msg)
		}
		return m.handleKey(msg)
	}

	if m.mode == modePrompt && m.prompt != nil {
		_, cmd := m.prompt.Update(msg)
		return m, cmd
	}
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	m.message = ""
	m.err = nil

	switch msg.String() {
	case "esc":
		if m.cancelUpload != nil {
			m.cancelUpload()
			return m, nil
		}
		return m, messages.CloseRecord
	case "q", "backspace":
		return m, messages.CloseRecord

	case "tab", "shift+tab":
		if m.focus == sectionDocuments {
			m.focus = sectionTodos
		} else {
			m.focus = sectionDocuments
		}
		m.render()
		return m, nil

	case "J":
		m.moveCursor(1)
		return m, nil
	case "K":
		m.moveCursor(-1)
		return m, nil

	case "u":
		if m.cancelUpload != nil {
			m.err = fmt.Errorf("an upload is already running")
			return m, nil
		}
		return m.openPrompt("Upload files", "", "paths separated by commas", forUpload, shared.NotEmpty("path", "path"))

	case "t":
		m.focus = sectionTodos
		return m.openPrompt("New to-do", "", "task, optionally ending in @ YYYY-MM-DD", forAddTodo, validTodo)

	case "E":
		todo, ok := m.currentTodo()
		if !ok || m.focus != sectionTodos {
			return m, nil
		}
		return m.openPrompt("Edit to-do", schema.FormatTodo(todo), "task, optionally ending in @ YYYY-MM-DD", forEditTodo, validTodo)

	case " ":
		if _, ok := m.currentTodo(); !ok || m.focus != sectionTodos {
			return m, nil
		}
		items := schema.ToggleTodo(m.rec.TodoItems, m.todoCursor)
		status := "To-do reopened"
		if schema.IsDone(items[m.todoCursor]) {
			status = "To-do done"
		}
		return m, shared.UpdateRecord(m.sess, m.id, schema.TodoPatch(items), status)

	case "x":
		if m.focus == sectionTodos {
			todo, ok := m.currentTodo()
			if !ok {
				return m, nil
			}
			return m.openConfirm(fmt.Sprintf("Delete to-do %q?", todo.Task), "", forDeleteTodo), nil
		}
		doc, ok := m.currentDocument()
		if !ok {
			return m, nil
		}
		return m.openConfirm(fmt.Sprintf("Delete %s?", doc.Name), "The stored file is removed.", forDeleteDocument), nil

	case "y":
		doc, ok := m.currentDocument()
		if !ok {
			return m, nil
		}
		url := m.sess.DocumentURL(m.id, doc.ID)
		if err := clipboard.WriteAll(url); err != nil {
			logs.Logger.Printf("clipboard: %v", err)
			m.message = url
			return m, nil
		}
		m.message = "Copied link to " + doc.Name
		return m, nil

	case "e":
		return m, editNotes(m.id, m.rec.Notes)

	case "f":
		patch := models.Patch{"favorite": !m.rec.Favorite}
		status := "Starred"
		if m.rec.Favorite {
			status = "Unstarred"
		}
		return m, shared.UpdateRecord(m.sess, m.id, patch, status)
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Model) openPrompt(title, value, hint string, p purpose, validate func(string) error) (Model, tea.Cmd) {
	m.prompt = shared.NewTextInput(title, value, hint, validate)
	m.prompt.SetWidth(min(80, max(30, m.width-10)))
	m.purpose = p
	m.mode = modePrompt
	return m, m.prompt.Init()
}

func (m Model) openConfirm(question, details string, p purpose) Model {
	m.confirm = shared.NewConfirmationModal(question, details, 50)
	m.purpose = p
	m.mode = modeConfirm
	return m
}

func validTodo(input string) error {
	_, err := schema.ParseTodo(input)
	return err
}

// moveCursor steps through the focused list, wrapping at both ends
func (m *Model) moveCursor(delta int) {
	cursor, n := &m.docCursor, len(m.rec.DocumentsFiles)
	if m.focus == sectionTodos {
		cursor, n = &m.todoCursor, len(m.rec.TodoItems)
	}
	if n == 0 {
		return
	}
	*cursor = ((*cursor+delta)%n + n) % n
	m.render()
}

func (m Model) saveTodo(input string) (Model, tea.Cmd) {
	todo, err := schema.ParseTodo(input)
	if err != nil {
		m.err = err
		return m, nil
	}
	if m.purpose == forEditTodo {
		current, ok := m.currentTodo()
		if !ok || schema.FormatTodo(current) == schema.FormatTodo(todo) {
			return m, nil
		}
		items := schema.EditTodo(m.rec.TodoItems, m.todoCursor, todo)
		return m, shared.UpdateRecord(m.sess, m.id, schema.TodoPatch(items), "To-do updated")
	}
	items := schema.AddTodo(m.rec.TodoItems, todo)
	m.todoCursor = len(items) - 1
	return m, shared.UpdateRecord(m.sess, m.id, schema.TodoPatch(items), "To-do added")
}

func (m Model) currentTodo() (models.TodoItem, bool) {
	items := m.rec.TodoItems
	if m.todoCursor < 0 || m.todoCursor >= len(items) {
		return models.TodoItem{}, false
	}
	return items[m.todoCursor], true
}

func (m Model) currentDocument() (models.DocumentFile, bool) {
	docs := m.rec.DocumentsFiles
	if m.docCursor < 0 || m.docCursor >= len(docs) {
		return models.DocumentFile{}, false
	}
	return docs[m.docCursor], true
}

// startUpload opens every listed file and hands them to the session. The
// files are closed once the upload returns.
func (m Model) startUpload(input string) (Model, tea.Cmd) {
	var (
		uploads []api.Upload
		files   []*os.File
	)
	closeAll := func() {
		for _, f := range files {
			f.Close()
		}
	}
	for _, p := range strings.Split(input, ",") {
		p = expandHome(strings.TrimSpace(p))
		if p == "" {
			continue
		}
		f, err := os.Open(p)
		if err != nil {
			closeAll()
			m.err = err
			return m, nil
		}
		files = append(files, f)
		uploads = append(uploads, api.Upload{
			Name:        filepath.Base(p),
			ContentType: contentType(p),
			Body:        f,
		})
	}
	if len(uploads) == 0 {
		return m, nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	m.cancelUpload = cancel
	m.message = fmt.Sprintf("Uploading %d file(s)...", len(uploads))

	id := m.id
	run := shared.UploadDocuments(ctx, m.sess, id, uploads)
	return m, func() tea.Msg {
		defer cancel()
		defer closeAll()
		result, _ := run().(messages.RecordsChangedMsg)
		return uploadDoneMsg{id: id, result: result}
	}
}

func contentType(path string) string {
	if t := mime.TypeByExtension(filepath.Ext(path)); t != "" {
		return t
	}
	return "application/octet-stream"
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}

// editNotes writes the notes to a temporary markdown file and opens it in
// $EDITOR.
func editNotes(id int64, notes string) tea.Cmd {
	f, err := os.CreateTemp("", "jobtrack-notes-*.md")
	if err != nil {
		return func() tea.Msg { return notesEditedMsg{id: id, err: err} }
	}
	path := f.Name()
	_, err = io.WriteString(f, notes)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(path)
		return func() tea.Msg { return notesEditedMsg{id: id, err: err} }
	}

	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = "vim"
	}
	c := exec.Command(editor, path)
	return tea.ExecProcess(c, func(err error) tea.Msg {
		return notesEditedMsg{id: id, path: path, err: err}
	})
}

func (m Model) finishNotes(msg notesEditedMsg) (Model, tea.Cmd) {
	if msg.path != "" {
		defer os.Remove(msg.path)
	}
	if msg.err != nil {
		logs.Logger.Printf("notes editor: %v", msg.err)
		m.err = msg.err
		return m, nil
	}
	data, err := os.ReadFile(msg.path)
	if err != nil {
		m.err = err
		return m, nil
	}
	notes := strings.TrimRight(string(data), "\n")
	rec, ok := m.sess.Record(msg.id)
	if !ok || notes == rec.Notes {
		return m, nil
	}
	return m, shared.UpdateRecord(m.sess, msg.id, models.Patch{"notes": notes}, "Notes updated")
}

func clamp(v, lo, hi int) int {
	if hi < lo {
		return lo
	}
	return min(max(v, lo), hi)
}
