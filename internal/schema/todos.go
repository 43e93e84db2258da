package schema

import (
	"slices"
	"strings"
	"time"

	"jobtrack/internal/api"
	"jobtrack/internal/records/models"
)

// TodoDone is the status written when a to-do is checked off
const TodoDone = "Done"

// IsDone reports a finished to-do. Imported data may spell the status
// differently.
func IsDone(t models.TodoItem) bool {
	switch strings.ToLower(strings.TrimSpace(t.Status)) {
	case "done", "completed", "complete":
		return true
	}
	return false
}

// DueDate parses the to-do due date. ok is false when unset or malformed.
func DueDate(t models.TodoItem) (time.Time, bool) {
	due := strings.TrimSpace(t.DueDate)
	if due == "" {
		return time.Time{}, false
	}
	if d, err := time.Parse(dateLayout, due); err == nil {
		return d, true
	}
	if d, err := time.Parse(datetimeLayout, due); err == nil {
		return d, true
	}
	return time.Time{}, false
}

// ParseTodo reads the editing syntax "task" or "task @ YYYY-MM-DD" into a
// to-do without an id. An "@" followed by something that is not a date stays
// part of the task, so addresses survive.
func ParseTodo(input string) (models.TodoItem, error) {
	input = strings.TrimSpace(input)
	task, due := input, ""
	if i := strings.LastIndex(input, "@"); i >= 0 {
		suffix := strings.TrimSpace(input[i+1:])
		if _, err := time.Parse(dateLayout, suffix); err == nil {
			task, due = strings.TrimSpace(input[:i]), suffix
		} else if i > 0 && input[i-1] == ' ' && suffix != "" && suffix[0] >= '0' && suffix[0] <= '9' {
			return models.TodoItem{}, api.Invalid("due_date", "%q is not a date (yyyy-mm-dd)", suffix)
		}
	}
	if task == "" {
		return models.TodoItem{}, api.Invalid("task", "task cannot be empty")
	}
	return models.TodoItem{Task: task, DueDate: due}, nil
}

// FormatTodo renders a to-do in the editing syntax
func FormatTodo(t models.TodoItem) string {
	if t.DueDate == "" {
		return t.Task
	}
	return t.Task + " @ " + t.DueDate
}

// AddTodo appends a to-do
func AddTodo(items []models.TodoItem, t models.TodoItem) []models.TodoItem {
	return append(slices.Clone(items), t)
}

// EditTodo replaces task and due date of the i-th to-do, keeping the rest
func EditTodo(items []models.TodoItem, i int, edited models.TodoItem) []models.TodoItem {
	out := slices.Clone(items)
	if i < 0 || i >= len(out) {
		return out
	}
	out[i].Task = edited.Task
	out[i].DueDate = edited.DueDate
	return out
}

// ToggleTodo flips the i-th to-do between done and open
func ToggleTodo(items []models.TodoItem, i int) []models.TodoItem {
	out := slices.Clone(items)
	if i < 0 || i >= len(out) {
		return out
	}
	if IsDone(out[i]) {
		out[i].Status = ""
	} else {
		out[i].Status = TodoDone
	}
	return out
}

// RemoveTodo drops the i-th to-do
func RemoveTodo(items []models.TodoItem, i int) []models.TodoItem {
	if i < 0 || i >= len(items) {
		return slices.Clone(items)
	}
	return slices.Delete(slices.Clone(items), i, i+1)
}

// TodoPatch is the record update writing items. An empty list is sent as
// [] so the store clears the field.
func TodoPatch(items []models.TodoItem) models.Patch {
	if items == nil {
		items = []models.TodoItem{}
	}
	return models.Patch{"todo_items": items}
}
