package tui

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobtrack/internal/records/models"
	"jobtrack/internal/schema"
	"jobtrack/internal/session"
	"jobtrack/internal/store/service"
)

func newApp(t *testing.T) (AppModel, *session.Session, int64) {
	t.Helper()
	svc, err := service.New(t.TempDir())
	require.NoError(t, err)
	sess := session.New(svc, session.Options{})
	require.NoError(t, sess.Load(context.Background()))

	rec, err := schema.DraftRecord(sess.Settings(), map[string]string{
		"company_name": "Acme",
		"position":     "Engineer",
	})
	require.NoError(t, err)
	created, err := sess.Create(context.Background(), rec)
	require.NoError(t, err)

	m := NewAppModel(sess, ViewTable)
	next, _ := m.Update(tea.WindowSizeMsg{Width: 160, Height: 40})
	return next.(AppModel), sess, created.ID
}

func step(t *testing.T, m AppModel, msg tea.Msg) AppModel {
	t.Helper()
	next, _ := m.Update(msg)
	return next.(AppModel)
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestSwitchViews(t *testing.T) {
	m, _, _ := newApp(t)
	assert.Equal(t, ViewTable, m.currentView)
	assert.Contains(t, m.View(), "Applications (1)")

	m = step(t, m, runes("2"))
	assert.Equal(t, ViewBoard, m.currentView)
	assert.Contains(t, m.View(), "Pipeline (1)")

	m = step(t, m, runes("1"))
	assert.Equal(t, ViewTable, m.currentView)
}

func TestOpenAndCloseRecord(t *testing.T) {
	m, _, id := newApp(t)
	m = step(t, m, runes("2"))

	m = step(t, m, OpenRecordMsg{ID: id})
	require.Equal(t, ViewDetail, m.currentView)
	assert.Contains(t, m.View(), "Engineer")

	// q goes back from the detail view instead of quitting
	next, cmd := m.Update(runes("q"))
	m = next.(AppModel)
	require.NotNil(t, cmd)
	m = step(t, m, cmd())
	assert.Equal(t, ViewBoard, m.currentView)
}

func TestOpenMissingRecordStays(t *testing.T) {
	m, _, _ := newApp(t)
	m = step(t, m, OpenRecordMsg{ID: 9999})
	assert.Equal(t, ViewTable, m.currentView)
}

func TestSettingsMsgReloadsViews(t *testing.T) {
	m, sess, _ := newApp(t)
	require.NoError(t, sess.EditSettings(func(s *models.Settings) error {
		s.Stages = append([]string{"Sourced"}, s.Stages...)
		return nil
	}))

	m = step(t, m, SettingsMsg{})
	m = step(t, m, runes("2"))
	assert.Contains(t, m.View(), "Sourced (0)")
}

func TestRecordsChangedRefreshesInactiveViews(t *testing.T) {
	m, sess, _ := newApp(t)
	rec, err := schema.DraftRecord(sess.Settings(), map[string]string{
		"company_name": "Globex",
		"position":     "SRE",
	})
	require.NoError(t, err)
	_, err = sess.Create(context.Background(), rec)
	require.NoError(t, err)

	m = step(t, m, RecordsChangedMsg{Status: "Added Globex"})
	m = step(t, m, runes("2"))
	assert.Contains(t, m.View(), "Pipeline (2)")
}

func TestErrorBanner(t *testing.T) {
	m, sess, _ := newApp(t)
	sess.Errors().Set(errors.New("disk full"))
	assert.Contains(t, m.View(), "disk full")

	m = step(t, m, runes("!"))
	assert.NoError(t, sess.Errors().Peek())
	assert.False(t, strings.Contains(m.View(), "disk full"))
}

func TestHelpOverlay(t *testing.T) {
	m, _, _ := newApp(t)
	m = step(t, m, runes("?"))
	assert.Contains(t, m.View(), "Drag card / stage")
	m = step(t, m, runes("x"))
	assert.False(t, m.showHelp)
}

func TestBridgeWithoutProgram(t *testing.T) {
	var b Bridge
	b.Publish(models.Settings{})
}

func TestParseView(t *testing.T) {
	assert.Equal(t, ViewBoard, ParseView("board"))
	assert.Equal(t, ViewTable, ParseView("table"))
	assert.Equal(t, ViewTable, ParseView(""))
}
