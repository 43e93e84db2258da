package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
	"time"

	"jobtrack/internal/records/models"
	"jobtrack/internal/schema"
)

// Scope selects which records a spreadsheet export contains
type Scope string

const (
	ScopeAll       Scope = "all"
	ScopeFavorites Scope = "favorites"
	ScopeActive    Scope = "active"
)

// activeOutcome is the outcome of applications that are still open
const activeOutcome = "In Progress"

// ParseScope reads a scope name, empty meaning all
func ParseScope(s string) (Scope, error) {
	switch Scope(strings.ToLower(strings.TrimSpace(s))) {
	case "", ScopeAll:
		return ScopeAll, nil
	case ScopeFavorites:
		return ScopeFavorites, nil
	case ScopeActive:
		return ScopeActive, nil
	}
	return "", fmt.Errorf("unknown scope %q (all, favorites, active)", s)
}

// Includes reports whether rec belongs to the scope
func (s Scope) Includes(rec models.Record) bool {
	switch s {
	case ScopeFavorites:
		return rec.Favorite
	case ScopeActive:
		return strings.EqualFold(strings.TrimSpace(rec.Outcome), activeOutcome)
	}
	return true
}

// SheetColumns lists the exported columns: every built-in followed by the
// custom properties in settings order.
func SheetColumns(s models.Settings) []schema.Column {
	keys := schema.BuiltinKeys()
	for _, p := range s.CustomProperties {
		if !schema.IsBuiltin(p.Key) {
			keys = append(keys, p.Key)
		}
	}
	return schema.NewCatalog(s).Columns(keys)
}

// WriteCSV writes the records of scope as a spreadsheet, one row per record
// ordered by id. Cells hold the same projections the table shows.
func WriteCSV(w io.Writer, records []models.Record, s models.Settings, scope Scope) error {
	cols := SheetColumns(s)
	header := []string{"ID", "Application ID"}
	for _, col := range cols {
		header = append(header, col.Label)
	}
	header = append(header, "To-Dos", "Documents", "Created", "Updated")

	rows := make([]models.Record, 0, len(records))
	for _, rec := range records {
		if scope.Includes(rec) {
			rows = append(rows, rec)
		}
	}
	slices.SortFunc(rows, func(a, b models.Record) int {
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return 0
	})

	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, rec := range rows {
		row := []string{strconv.FormatInt(rec.ID, 10), rec.ApplicationID}
		for _, col := range cols {
			row = append(row, col.Project(rec))
		}
		row = append(row, todoCell(rec.TodoItems), documentCell(rec.DocumentsFiles), stamp(rec.CreatedAt), stamp(rec.UpdatedAt))
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func todoCell(items []models.TodoItem) string {
	lines := make([]string, 0, len(items))
	for _, t := range items {
		mark := "[ ] "
		if schema.IsDone(t) {
			mark = "[x] "
		}
		lines = append(lines, mark+schema.FormatTodo(t))
	}
	return strings.Join(lines, "\n")
}

func documentCell(docs []models.DocumentFile) string {
	names := make([]string, 0, len(docs))
	for _, d := range docs {
		names = append(names, d.Name)
	}
	return strings.Join(names, ", ")
}

func stamp(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
