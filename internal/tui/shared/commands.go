package shared

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"jobtrack/internal/api"
	"jobtrack/internal/kanban/operations"
	"jobtrack/internal/records/models"
	"jobtrack/internal/session"
	"jobtrack/internal/tui/messages"
)

// Session calls block on persistence, so every one of them runs as a command
// off the update loop and reports back with a RecordsChangedMsg.

func done(status string, err error) tea.Msg {
	if err != nil {
		return messages.RecordsChangedMsg{Err: err}
	}
	return messages.RecordsChangedMsg{Status: status}
}

// UpdateRecord writes a patch to one record
func UpdateRecord(sess *session.Session, id int64, patch models.Patch, status string) tea.Cmd {
	return func() tea.Msg {
		_, err := sess.UpdateRecord(context.Background(), id, patch)
		return done(status, err)
	}
}

// BulkUpdate writes the same patch to several records
func BulkUpdate(sess *session.Session, ids []int64, patch models.Patch) tea.Cmd {
	return func() tea.Msg {
		err := sess.BulkUpdate(context.Background(), ids, patch)
		return done(fmt.Sprintf("Updated %d application(s)", len(ids)), err)
	}
}

// CreateRecord adds a record and focuses it
func CreateRecord(sess *session.Session, input models.Record) tea.Cmd {
	return func() tea.Msg {
		rec, err := sess.Create(context.Background(), input)
		if err != nil {
			return messages.RecordsChangedMsg{Err: err}
		}
		return messages.RecordsChangedMsg{Status: "Added " + rec.CompanyName, Focus: rec.ID}
	}
}

// DeleteRecords removes records, one request each
func DeleteRecords(sess *session.Session, ids []int64) tea.Cmd {
	return func() tea.Msg {
		err := sess.BulkDelete(context.Background(), ids)
		return done(fmt.Sprintf("Deleted %d application(s)", len(ids)), err)
	}
}

// ApplyAssignments writes board renumbering as one batch
func ApplyAssignments(sess *session.Session, assignments []operations.Assignment, status string) tea.Cmd {
	return func() tea.Msg {
		return done(status, sess.ApplyAssignments(context.Background(), assignments))
	}
}

// RenameOption renames a select option and rewrites the records using it
func RenameOption(sess *session.Session, key, oldLabel, newLabel string) tea.Cmd {
	return func() tea.Msg {
		err := sess.RenameOption(context.Background(), key, oldLabel, newLabel)
		return done(fmt.Sprintf("Renamed %q to %q", oldLabel, newLabel), err)
	}
}

// RenameStage renames a stage and moves its records along
func RenameStage(sess *session.Session, oldName, newName string) tea.Cmd {
	return func() tea.Msg {
		err := sess.RenameStage(context.Background(), oldName, newName)
		return done(fmt.Sprintf("Renamed stage %q to %q", oldName, newName), err)
	}
}

// UploadDocuments attaches files; cancelling ctx aborts the upload
func UploadDocuments(ctx context.Context, sess *session.Session, id int64, files []api.Upload) tea.Cmd {
	return func() tea.Msg {
		_, err := sess.UploadDocuments(ctx, id, files)
		return done(fmt.Sprintf("Uploaded %d file(s)", len(files)), err)
	}
}

// DeleteDocument removes an attached file
func DeleteDocument(sess *session.Session, id int64, fileID string) tea.Cmd {
	return func() tea.Msg {
		_, err := sess.DeleteDocument(context.Background(), id, fileID)
		return done("Document deleted", err)
	}
}

// Refresh reloads every record from persistence
func Refresh(sess *session.Session) tea.Cmd {
	return func() tea.Msg {
		return done("Reloaded", sess.Refresh(context.Background()))
	}
}

// InlineError returns the part of an operation error the view itself should
// show. Network failures are left to the banner and aborted uploads are
// reported as a plain status.
func InlineError(err error) (msg string, isError bool) {
	switch {
	case err == nil:
		return "", false
	case api.IsValidation(err):
		return err.Error(), true
	case errors.Is(err, api.ErrUploadAborted):
		return "Upload cancelled", false
	}
	return "", false
}
