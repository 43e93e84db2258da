// Package export writes records out as calendar and spreadsheet files.
package export

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"

	"jobtrack/internal/records/models"
	"jobtrack/internal/schema"
)

const (
	icsDate     = "20060102"
	icsDateTime = "20060102T150405"
	// RFC 5545 folds content lines longer than this many octets
	icsLineLimit = 75
)

// Event is one calendar entry
type Event struct {
	UID         string
	Summary     string
	Description string
	Start       time.Time
	End         time.Time
	AllDay      bool
}

// Events lists the calendar entries of a record: the interview, the follow-up
// and every to-do with a due date. UIDs are stable so a re-import updates
// the entries instead of duplicating them.
func Events(rec models.Record) []Event {
	var out []Event
	title := rec.CompanyName
	if rec.Position != "" {
		title += " - " + rec.Position
	}

	var desc []string
	if notes := strings.TrimSpace(rec.Notes); notes != "" {
		desc = append(desc, notes)
	}
	if rec.Interviewers != "" {
		desc = append(desc, "Interviewers: "+rec.Interviewers)
	}
	description := strings.Join(desc, "\n")

	if start, ok := parseLocal(rec.InterviewDatetime); ok {
		out = append(out, Event{
			UID:         uid(rec, "interview"),
			Summary:     "Interview - " + title,
			Description: description,
			Start:       start,
			End:         start.Add(time.Hour),
		})
	}
	if day, ok := parseLocal(rec.FollowupDate); ok {
		out = append(out, Event{
			UID:         uid(rec, "followup"),
			Summary:     "Follow-Up - " + title,
			Description: description,
			Start:       day,
			AllDay:      true,
		})
	}
	for i, todo := range rec.TodoItems {
		due, ok := schema.DueDate(todo)
		if !ok {
			continue
		}
		out = append(out, todoEvent(rec, todo, i, due))
	}
	return out
}

func todoEvent(rec models.Record, todo models.TodoItem, i int, due time.Time) Event {
	var notes []string
	if todo.TaskLocation != "" {
		notes = append(notes, "Location: "+todo.TaskLocation)
	}
	if todo.Notes != "" {
		notes = append(notes, todo.Notes)
	}
	if todo.DocumentsLinks != "" {
		notes = append(notes, "Links: "+todo.DocumentsLinks)
	}
	task := strings.TrimSpace(todo.Task)
	if task == "" {
		task = "To-Do"
	}
	id := todo.ID
	if id == "" {
		id = uid(rec, fmt.Sprintf("todo-%d", i))
	}
	return Event{
		UID:         id,
		Summary:     "To-Do - " + rec.CompanyName + " - " + task,
		Description: strings.Join(notes, "\n"),
		Start:       time.Date(due.Year(), due.Month(), due.Day(), 0, 0, 0, 0, time.UTC),
		AllDay:      true,
	}
}

func uid(rec models.Record, what string) string {
	key := rec.ApplicationID
	if key == "" {
		key = fmt.Sprintf("record-%d", rec.ID)
	}
	return key + "-" + what + "@jobtrack"
}

// parseLocal reads a stored date or datetime as floating local time
func parseLocal(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	for _, layout := range []string{"2006-01-02T15:04", "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// WriteICS writes events as an iCalendar document. stamp is the DTSTAMP of
// every event.
func WriteICS(w io.Writer, events []Event, stamp time.Time) error {
	bw := bufio.NewWriter(w)
	line := func(s string) {
		writeFolded(bw, s)
	}

	line("BEGIN:VCALENDAR")
	line("VERSION:2.0")
	line("PRODID:-//jobtrack//EN")
	line("CALSCALE:GREGORIAN")
	for _, e := range events {
		line("BEGIN:VEVENT")
		line("UID:" + escapeText(e.UID))
		line("DTSTAMP:" + stamp.UTC().Format(icsDateTime) + "Z")
		line("SUMMARY:" + escapeText(e.Summary))
		if e.Description != "" {
			line("DESCRIPTION:" + escapeText(e.Description))
		}
		if e.AllDay {
			line("DTSTART;VALUE=DATE:" + e.Start.Format(icsDate))
		} else {
			line("DTSTART:" + e.Start.Format(icsDateTime))
			if !e.End.IsZero() {
				line("DTEND:" + e.End.Format(icsDateTime))
			}
		}
		line("END:VEVENT")
	}
	line("END:VCALENDAR")
	return bw.Flush()
}

func escapeText(s string) string {
	r := strings.NewReplacer(`\`, `\\`, ";", `\;`, ",", `\,`, "\r\n", `\n`, "\n", `\n`)
	return r.Replace(s)
}

// writeFolded ends the line with CRLF, folding it into continuation lines
// without splitting a UTF-8 sequence.
func writeFolded(w *bufio.Writer, s string) {
	limit := icsLineLimit
	for len(s) > limit {
		cut := limit
		for cut > 0 && !isRuneStart(s[cut]) {
			cut--
		}
		w.WriteString(s[:cut])
		w.WriteString("\r\n ")
		s = s[cut:]
		// the leading space of a continuation counts against the limit
		limit = icsLineLimit - 1
	}
	w.WriteString(s)
	w.WriteString("\r\n")
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}
