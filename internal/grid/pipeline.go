// Package grid computes the table view: the filter, sort and group pipeline,
// footer aggregates, the virtualization window, column layout and cell editors.
package grid

import (
	"cmp"
	"slices"
	"strings"

	"jobtrack/internal/records/models"
	"jobtrack/internal/schema"
)

// SearchFields are the columns matched by the free-text search
var SearchFields = []string{
	"company_name",
	"position",
	"location",
	"job_type",
	"stage",
	"outcome",
	"interviewers",
	"notes",
}

// Direction of a sort
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// SortSpec is the single active sort
type SortSpec struct {
	Column    string    `json:"column"`
	Direction Direction `json:"direction"`
}

// Query is the client side view state the pipeline runs against
type Query struct {
	Search    string
	Filters   map[string]string
	Sort      *SortSpec
	GroupBy   string
	Collapsed map[string]bool
}

// Active reports whether the query narrows or reorders anything
func (q Query) Active() bool {
	if strings.TrimSpace(q.Search) != "" || q.Sort != nil || q.GroupBy != "" {
		return true
	}
	for _, needle := range q.Filters {
		if needle != "" {
			return true
		}
	}
	return false
}

// References reports whether the query filters, sorts or groups by col
func (q Query) References(col string) bool {
	if q.Filters[col] != "" || q.GroupBy == col {
		return true
	}
	return q.Sort != nil && q.Sort.Column == col
}

// Forget drops every reference to col
func (q *Query) Forget(col string) {
	delete(q.Filters, col)
	if q.Sort != nil && q.Sort.Column == col {
		q.Sort = nil
	}
	if q.GroupBy == col {
		q.GroupBy = ""
		q.Collapsed = nil
	}
}

// Group is a run of adjacent rows sharing a group key
type Group struct {
	Key       string
	Start     int
	Count     int
	Collapsed bool
}

// View is the display-ordered result of the pipeline
type View struct {
	Rows   []models.Record
	Groups []Group
}

// Grouped reports whether the view has group headers
func (v View) Grouped() bool {
	return v.Groups != nil
}

// Line is one display line: a group header or a row
type Line struct {
	Header bool
	Group  int
	Row    int
}

// Lines flattens the view into header and row lines, skipping the rows of
// collapsed groups.
func (v View) Lines() []Line {
	if !v.Grouped() {
		lines := make([]Line, len(v.Rows))
		for i := range v.Rows {
			lines[i] = Line{Row: i, Group: -1}
		}
		return lines
	}
	lines := make([]Line, 0, len(v.Rows)+len(v.Groups))
	for gi, g := range v.Groups {
		lines = append(lines, Line{Header: true, Group: gi, Row: -1})
		if g.Collapsed {
			continue
		}
		for i := g.Start; i < g.Start+g.Count; i++ {
			lines = append(lines, Line{Row: i, Group: gi})
		}
	}
	return lines
}

// Compute runs filter, sort and group over records. The input slice is not
// modified.
func Compute(records []models.Record, cat schema.Catalog, q Query) View {
	rows := Filter(records, cat, q)
	if q.Sort != nil {
		SortRows(rows, cat, *q.Sort)
	}
	if q.GroupBy == "" {
		return View{Rows: rows}
	}
	groups := GroupRows(rows, cat, q.GroupBy)
	for i := range groups {
		groups[i].Collapsed = q.Collapsed[groups[i].Key]
	}
	return View{Rows: rows, Groups: groups}
}

// Filter keeps the records matching the search text and every non-empty
// column filter, in input order.
func Filter(records []models.Record, cat schema.Catalog, q Query) []models.Record {
	search := strings.ToLower(strings.TrimSpace(q.Search))
	type needle struct {
		col   string
		value string
	}
	var needles []needle
	for col, value := range q.Filters {
		if value = strings.ToLower(strings.TrimSpace(value)); value != "" {
			needles = append(needles, needle{col, value})
		}
	}

	out := make([]models.Record, 0, len(records))
	for _, rec := range records {
		if search != "" && !matchesSearch(rec, cat, search) {
			continue
		}
		ok := true
		for _, n := range needles {
			if !strings.Contains(strings.ToLower(cat.Project(rec, n.col)), n.value) {
				ok = false
				break
			}
		}
		if ok {
			out = append(out, rec)
		}
	}
	return out
}

func matchesSearch(rec models.Record, cat schema.Catalog, search string) bool {
	for _, field := range SearchFields {
		if strings.Contains(strings.ToLower(cat.Project(rec, field)), search) {
			return true
		}
	}
	return false
}

// sortKey is the comparable form of one cell
type sortKey struct {
	num  float64
	text string
}

func keyFunc(cat schema.Catalog, column string) func(models.Record) sortKey {
	col, ok := cat.Column(column)
	if !ok {
		return func(models.Record) sortKey { return sortKey{} }
	}
	switch {
	case col.Kind.IsNumeric():
		return func(r models.Record) sortKey {
			v, _ := schema.NumericValue(col.Raw(r))
			return sortKey{num: v}
		}
	case col.Kind.IsTemporal():
		return func(r models.Record) sortKey {
			return sortKey{num: float64(schema.DateMillis(col.Raw(r)))}
		}
	case col.Kind.IsBoolean():
		return func(r models.Record) sortKey {
			if schema.IsChecked(col.Raw(r)) {
				return sortKey{num: 1}
			}
			return sortKey{}
		}
	}
	return func(r models.Record) sortKey {
		return sortKey{text: strings.ToLower(col.Project(r))}
	}
}

// SortRows sorts rows in place. Ties keep their input order.
func SortRows(rows []models.Record, cat schema.Catalog, spec SortSpec) {
	key := keyFunc(cat, spec.Column)
	type keyed struct {
		rec models.Record
		key sortKey
	}
	items := make([]keyed, len(rows))
	for i, r := range rows {
		items[i] = keyed{r, key(r)}
	}
	desc := spec.Direction == Desc
	slices.SortStableFunc(items, func(a, b keyed) int {
		c := cmp.Compare(a.key.num, b.key.num)
		if c == 0 {
			c = strings.Compare(a.key.text, b.key.text)
		}
		if desc {
			return -c
		}
		return c
	})
	for i, it := range items {
		rows[i] = it.rec
	}
}

// GroupKey is the group a record falls in for column
func GroupKey(cat schema.Catalog, rec models.Record, column string) string {
	if key := cat.Project(rec, column); key != "" {
		return key
	}
	return schema.EmptyGroup
}

// GroupRows stable-sorts rows by group key, "(empty)" last, and returns the
// group boundaries found in a single pass.
func GroupRows(rows []models.Record, cat schema.Catalog, column string) []Group {
	type keyed struct {
		rec   models.Record
		key   string
		lower string
	}
	items := make([]keyed, len(rows))
	for i, r := range rows {
		k := GroupKey(cat, r, column)
		items[i] = keyed{r, k, strings.ToLower(k)}
	}
	slices.SortStableFunc(items, func(a, b keyed) int {
		ea, eb := a.key == schema.EmptyGroup, b.key == schema.EmptyGroup
		switch {
		case ea && eb:
			return 0
		case ea:
			return 1
		case eb:
			return -1
		}
		return strings.Compare(a.lower, b.lower)
	})

	groups := []Group{}
	prev := ""
	for i, it := range items {
		rows[i] = it.rec
		if i == 0 || it.lower != prev {
			groups = append(groups, Group{Key: it.key, Start: i})
			prev = it.lower
		}
		groups[len(groups)-1].Count++
	}
	return groups
}
