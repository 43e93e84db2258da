package grid

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"jobtrack/internal/records/models"
	"jobtrack/internal/schema"
)

func catalog() schema.Catalog {
	s := models.DefaultSettings()
	s.CustomProperties = []models.CustomProperty{
		{Key: "n", Name: "N", Type: models.PropertyNumber},
		{Key: "flag", Name: "Flag", Type: models.PropertyCheckbox},
		{Key: "due", Name: "Due", Type: models.PropertyDate},
		{Key: "people", Name: "People", Type: models.PropertyContacts},
	}
	return schema.NewCatalog(s)
}

func rec(id int64, company string, props map[string]string) models.Record {
	return models.Record{ID: id, CompanyName: company, Properties: props}
}

func ids(rows []models.Record) []int64 {
	out := make([]int64, len(rows))
	for i, r := range rows {
		out[i] = r.ID
	}
	return out
}

func TestEmptyQueryKeepsEverythingInOrder(t *testing.T) {
	records := []models.Record{
		rec(3, "Cobalt", nil),
		rec(1, "Acme", nil),
		rec(2, "", nil),
	}
	view := Compute(records, catalog(), Query{Filters: map[string]string{"company_name": "", "stage": "  "}})
	if diff := cmp.Diff([]int64{3, 1, 2}, ids(view.Rows)); diff != "" {
		t.Errorf("rows (-want +got):\n%s", diff)
	}
	if view.Grouped() {
		t.Error("ungrouped query produced groups")
	}
}

func TestFilterSearchAndNeedles(t *testing.T) {
	records := []models.Record{
		{ID: 1, CompanyName: "Acme", Position: "Backend Engineer", Stage: "Applied"},
		{ID: 2, CompanyName: "Globex", Notes: "met the ACME recruiter", Stage: "Screening"},
		{ID: 3, CompanyName: "Initech", Stage: "Applied", Contacts: []models.Contact{{ID: "c", Name: "Ada"}}},
		{ID: 4, CompanyName: "Umbrella", Stage: "Applied", Properties: map[string]string{"people": `[{"id":"x","name":"Grace"}]`}},
	}
	cat := catalog()

	tests := []struct {
		name  string
		query Query
		want  []int64
	}{
		{"search matches notes case-insensitively", Query{Search: "acme"}, []int64{1, 2}},
		{"column needle on select label", Query{Filters: map[string]string{"stage": "appl"}}, []int64{1, 3, 4}},
		{"search and needle combine", Query{Search: "ini", Filters: map[string]string{"stage": "applied"}}, []int64{3}},
		{"contacts projection", Query{Filters: map[string]string{"contacts": "ada"}}, []int64{3}},
		{"custom contacts projection", Query{Filters: map[string]string{"people": "grace"}}, []int64{4}},
		{"deleted column projects empty", Query{Filters: map[string]string{"gone": "x"}}, []int64{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ids(Filter(records, cat, tt.query))
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("(-want +got):\n%s", diff)
			}
		})
	}
}

func TestSortNumericNullAsZero(t *testing.T) {
	records := []models.Record{
		rec(1, "null", nil),
		rec(2, "three", map[string]string{"n": "3"}),
		rec(3, "one", map[string]string{"n": "1"}),
	}
	view := Compute(records, catalog(), Query{Sort: &SortSpec{Column: "n", Direction: Asc}})
	if diff := cmp.Diff([]int64{1, 3, 2}, ids(view.Rows)); diff != "" {
		t.Errorf("asc (-want +got):\n%s", diff)
	}
	view = Compute(records, catalog(), Query{Sort: &SortSpec{Column: "n", Direction: Desc}})
	if diff := cmp.Diff([]int64{2, 3, 1}, ids(view.Rows)); diff != "" {
		t.Errorf("desc (-want +got):\n%s", diff)
	}
	if records[0].ID != 1 || records[1].ID != 2 {
		t.Error("Compute reordered its input")
	}
}

func TestSortStableOnTies(t *testing.T) {
	var records []models.Record
	for i := int64(1); i <= 20; i++ {
		records = append(records, rec(i, "Same", map[string]string{"n": "7"}))
	}
	want := ids(records)
	for _, col := range []string{"company_name", "n", "flag", "due", "gone"} {
		for _, dir := range []Direction{Asc, Desc} {
			view := Compute(records, catalog(), Query{Sort: &SortSpec{Column: col, Direction: dir}})
			if diff := cmp.Diff(want, ids(view.Rows)); diff != "" {
				t.Errorf("sort by %s %s not stable (-want +got):\n%s", col, dir, diff)
			}
		}
	}
}

func TestSortTypeAware(t *testing.T) {
	records := []models.Record{
		rec(1, "b", map[string]string{"due": "2024-03-01", "flag": "true", "n": "10"}),
		rec(2, "B", map[string]string{"due": "not a date", "flag": "false", "n": "9"}),
		rec(3, "a", map[string]string{"due": "2023-12-31", "n": "-1"}),
	}
	cat := catalog()
	tests := []struct {
		col  string
		want []int64
	}{
		{"due", []int64{2, 3, 1}},
		{"flag", []int64{2, 3, 1}},
		{"n", []int64{3, 2, 1}},
		{"company_name", []int64{3, 1, 2}},
	}
	for _, tt := range tests {
		view := Compute(records, cat, Query{Sort: &SortSpec{Column: tt.col, Direction: Asc}})
		if diff := cmp.Diff(tt.want, ids(view.Rows)); diff != "" {
			t.Errorf("sort by %s (-want +got):\n%s", tt.col, diff)
		}
	}
}

func TestGroupEmptyLastAndCounts(t *testing.T) {
	records := []models.Record{
		{ID: 1, Stage: "Screening"},
		{ID: 2, Stage: ""},
		{ID: 3, Stage: "applied"},
		{ID: 4, Stage: "Screening"},
		{ID: 5, Stage: "Applied"},
	}
	view := Compute(records, catalog(), Query{GroupBy: "stage", Collapsed: map[string]bool{"Screening": true}})

	if diff := cmp.Diff([]int64{3, 5, 1, 4, 2}, ids(view.Rows)); diff != "" {
		t.Errorf("rows (-want +got):\n%s", diff)
	}
	want := []Group{
		{Key: "applied", Start: 0, Count: 2},
		{Key: "Screening", Start: 2, Count: 2, Collapsed: true},
		{Key: schema.EmptyGroup, Start: 4, Count: 1},
	}
	if diff := cmp.Diff(want, view.Groups); diff != "" {
		t.Errorf("groups (-want +got):\n%s", diff)
	}

	lines := view.Lines()
	wantLines := []Line{
		{Header: true, Group: 0, Row: -1},
		{Group: 0, Row: 0},
		{Group: 0, Row: 1},
		{Header: true, Group: 1, Row: -1},
		{Header: true, Group: 2, Row: -1},
		{Group: 2, Row: 4},
	}
	if diff := cmp.Diff(wantLines, lines); diff != "" {
		t.Errorf("lines (-want +got):\n%s", diff)
	}
}

func TestGroupByDeletedColumnIsOneEmptyGroup(t *testing.T) {
	records := []models.Record{{ID: 1}, {ID: 2}}
	view := Compute(records, catalog(), Query{GroupBy: "gone"})
	if len(view.Groups) != 1 || view.Groups[0].Key != schema.EmptyGroup || view.Groups[0].Count != 2 {
		t.Errorf("groups = %+v", view.Groups)
	}
}

func TestGroupByCheckboxHasNoEmptyGroup(t *testing.T) {
	records := []models.Record{
		{ID: 1, Properties: map[string]string{"flag": "true"}},
		{ID: 2},
		{ID: 3, Properties: map[string]string{"flag": ""}},
	}
	view := Compute(records, catalog(), Query{GroupBy: "flag"})
	want := []Group{
		{Key: "No", Start: 0, Count: 2},
		{Key: "Yes", Start: 2, Count: 1},
	}
	if diff := cmp.Diff(want, view.Groups); diff != "" {
		t.Errorf("groups (-want +got):\n%s", diff)
	}
}

func TestQueryForget(t *testing.T) {
	q := Query{
		Filters: map[string]string{"n": "1", "stage": "x"},
		Sort:    &SortSpec{Column: "n"},
		GroupBy: "n",
	}
	if !q.References("n") {
		t.Fatal("query should reference n")
	}
	q.Forget("n")
	if q.References("n") || q.Filters["stage"] != "x" {
		t.Errorf("Forget left %+v", q)
	}
}
