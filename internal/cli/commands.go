package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/pflag"

	"jobtrack/internal/api"
	"jobtrack/internal/grid"
	"jobtrack/internal/records/models"
	"jobtrack/internal/schema"
	"jobtrack/internal/session"
)

type command struct {
	ctx     context.Context
	sess    *session.Session
	dataDir string
	now     func() time.Time
	out     io.Writer
	errOut  io.Writer
}

// cliSaver drops layout writes; query flags only apply to one listing
type cliSaver struct{}

func (cliSaver) Save(grid.Change, grid.SaveMode) {}

func (c *command) flagSet(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(c.errOut)
	return fs
}

func (c *command) fail(format string, args ...any) int {
	fmt.Fprintf(c.errOut, "Error: "+format+"\n", args...)
	return 1
}

func (c *command) list(args []string) int {
	fs := c.flagSet("ls")
	search := fs.StringP("search", "s", "", "Free text search")
	filters := fs.StringArrayP("filter", "f", nil, "Column filter col=needle (repeatable)")
	sortFlag := fs.String("sort", "", "Sort column, col or col:desc")
	group := fs.StringP("group", "g", "", "Group by column")
	aggs := fs.StringArray("agg", nil, "Footer aggregate col=op (repeatable)")
	all := fs.BoolP("all", "a", false, "Show hidden columns too")
	if err := fs.Parse(args); err != nil {
		return 1
	}

	// Saved grid state is the starting point; flags override it for this run
	layout := grid.NewLayout(c.sess.Settings(), cliSaver{})
	cat := layout.Catalog()
	q := layout.Query()
	ops := layout.Aggregates()

	if *search != "" {
		q.Search = *search
	}
	if q.Filters == nil {
		q.Filters = make(map[string]string)
	}
	if ops == nil {
		ops = make(map[string]grid.Operator)
	}
	for _, f := range *filters {
		col, needle, ok := strings.Cut(f, "=")
		if !ok {
			return c.fail("filter %q is not col=needle", f)
		}
		if _, known := cat.Column(col); !known {
			return c.fail("unknown column %q", col)
		}
		q.Filters[col] = needle
	}
	if *sortFlag != "" {
		col, dir, _ := strings.Cut(*sortFlag, ":")
		if _, known := cat.Column(col); !known {
			return c.fail("unknown column %q", col)
		}
		spec := grid.SortSpec{Column: col, Direction: grid.Asc}
		if strings.EqualFold(dir, "desc") {
			spec.Direction = grid.Desc
		}
		q.Sort = &spec
	}
	if *group != "" {
		if _, known := cat.Column(*group); !known {
			return c.fail("unknown column %q", *group)
		}
		q.GroupBy = *group
	}
	for _, a := range *aggs {
		col, op, ok := strings.Cut(a, "=")
		if !ok {
			return c.fail("aggregate %q is not col=op", a)
		}
		column, known := cat.Column(col)
		if !known {
			return c.fail("unknown column %q", col)
		}
		if !grid.Operator(op).Applicable(column.Kind) {
			return c.fail("operator %q does not apply to %s", op, column.Label)
		}
		ops[col] = grid.Operator(op)
	}

	columns := layout.VisibleColumns()
	if *all {
		columns = cat.Columns(layout.Order())
	}

	view := grid.Compute(c.sess.Records(), cat, q)
	if len(view.Rows) == 0 {
		fmt.Fprintln(c.out, "No applications found.")
		return 0
	}

	keys := make([]string, len(columns))
	for i, col := range columns {
		keys[i] = col.Key
	}
	if !view.Grouped() {
		fmt.Fprintln(c.out, renderTable(columns, view.Rows, ops, grid.ShowAggregates(keys, ops)))
	} else {
		groupCol, _ := cat.Column(q.GroupBy)
		for _, g := range view.Groups {
			rows := view.Rows[g.Start : g.Start+g.Count]
			fmt.Fprintf(c.out, "%s: %s (%d)\n", groupCol.Label, g.Key, g.Count)
			fmt.Fprintln(c.out, renderTable(columns, rows, ops, grid.ShowAggregates(keys, ops)))
		}
	}

	fmt.Fprintf(c.out, "\n%d application(s)\n", len(view.Rows))
	return 0
}

func renderTable(columns []schema.Column, rows []models.Record, ops map[string]grid.Operator, footer bool) string {
	headers := make([]string, 0, len(columns)+1)
	headers = append(headers, "ID")
	for _, col := range columns {
		headers = append(headers, col.Label)
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			s := lipgloss.NewStyle().Padding(0, 1)
			if row == table.HeaderRow {
				return s.Bold(true)
			}
			return s
		})

	for _, r := range rows {
		cells := make([]string, 0, len(columns)+1)
		cells = append(cells, strconv.FormatInt(r.ID, 10))
		for _, col := range columns {
			cells = append(cells, truncate(col.Project(r), 40))
		}
		t.Row(cells...)
	}

	if footer {
		cells := make([]string, 0, len(columns)+1)
		cells = append(cells, "")
		for _, col := range columns {
			op := ops[col.Key]
			value := grid.Aggregate(rows, col, op)
			if value != "" && op.Label() != "" {
				value = op.Label() + " " + value
			}
			cells = append(cells, value)
		}
		t.Row(cells...)
	}
	return t.String()
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}

func (c *command) add(args []string) int {
	fs := c.flagSet("add")
	company := fs.String("company", "", "Company name (required)")
	position := fs.String("position", "", "Position (required)")
	stage := fs.String("stage", "", "Stage")
	jobType := fs.String("job-type", "", "Job type")
	outcome := fs.String("outcome", "", "Outcome")
	if err := fs.Parse(args); err != nil {
		return 1
	}

	input, err := schema.DraftRecord(c.sess.Settings(), map[string]string{
		"company_name": *company,
		"position":     *position,
		"stage":        *stage,
		"job_type":     *jobType,
		"outcome":      *outcome,
	})
	if err != nil {
		return c.fail("%v", err)
	}
	created, err := c.sess.Create(c.ctx, input)
	if err != nil {
		return c.fail("adding application: %v", err)
	}

	fmt.Fprintf(c.out, "Added: %s - %s [%s]\n", created.CompanyName, created.Position, created.Stage)
	fmt.Fprintf(c.out, "ID: %d\n", created.ID)
	return 0
}

func (c *command) move(args []string) int {
	if len(args) != 2 {
		fmt.Fprintln(c.errOut, "Usage: jobtrack move <id> <stage>")
		return 1
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return c.fail("invalid id %q", args[0])
	}

	col, _ := schema.NewCatalog(c.sess.Settings()).Column("stage")
	stage, ok := col.Option(args[1])
	if !ok {
		return c.fail("unknown stage %q (stages: %s)", args[1], strings.Join(schema.Labels(col.Options), ", "))
	}

	rec, err := c.sess.UpdateRecord(c.ctx, id, models.Patch{"stage": stage.Label})
	if err != nil {
		if errors.Is(err, api.ErrNotFound) {
			return c.fail("no application with id %d", id)
		}
		return c.fail("moving application: %v", err)
	}

	fmt.Fprintf(c.out, "Moved: %s -> %s\n", rec.CompanyName, rec.Stage)
	return 0
}

func (c *command) remove(args []string) int {
	if len(args) == 0 {
		fmt.Fprintln(c.errOut, "Usage: jobtrack rm <id>...")
		return 1
	}
	ids := make([]int64, 0, len(args))
	for _, a := range args {
		id, err := strconv.ParseInt(a, 10, 64)
		if err != nil {
			return c.fail("invalid id %q", a)
		}
		if _, ok := c.sess.Record(id); !ok {
			return c.fail("no application with id %d", id)
		}
		ids = append(ids, id)
	}

	if err := c.sess.BulkDelete(c.ctx, ids); err != nil {
		var batch *api.PartialBatchError
		if errors.As(err, &batch) {
			return c.fail("could not delete %d of %d application(s): %v", len(batch.Failed), batch.Total, batch.FailedIDs())
		}
		return c.fail("%v", err)
	}

	fmt.Fprintf(c.out, "Deleted %d application(s)\n", len(ids))
	return 0
}

func (c *command) props(args []string) int {
	fs := c.flagSet("props")
	if err := fs.Parse(args); err != nil {
		return 1
	}

	layout := grid.NewLayout(c.sess.Settings(), cliSaver{})
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("Key", "Label", "Type", "Custom", "Visible")
	for _, col := range layout.Catalog().Columns(layout.Order()) {
		t.Row(col.Key, col.Label, string(col.Kind), yesNo(col.Custom), yesNo(layout.IsVisible(col.Key)))
	}
	fmt.Fprintln(c.out, t.String())
	return 0
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
