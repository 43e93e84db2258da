package models

import (
	"testing"

	records "jobtrack/internal/records/models"
)

func order(v int) *int { return &v }

func TestBuildBoard(t *testing.T) {
	recs := []records.Record{
		{ID: 1, CompanyName: "A", Stage: "Applied", PipelineOrder: order(2)},
		{ID: 2, CompanyName: "B", Stage: "Applied"},
		{ID: 3, CompanyName: "C", Stage: "applied", PipelineOrder: order(0)},
		{ID: 4, CompanyName: "D", Stage: "Ghosted"},
		{ID: 5, CompanyName: "E", Stage: "Applied"},
	}
	board := BuildBoard(recs, []string{"Applied", "Offer"}, map[string]string{"Offer": "#0f0"})

	if len(board.Columns) != 3 {
		t.Fatalf("expected 3 columns, got %d", len(board.Columns))
	}
	applied := board.Columns[0]
	var got []int64
	for _, c := range applied.Cards {
		got = append(got, c.ID)
	}
	want := []int64{3, 1, 2, 5}
	if len(got) != len(want) {
		t.Fatalf("applied cards = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("applied cards = %v, want %v", got, want)
		}
	}
	if board.Columns[1].Color != "#0f0" || len(board.Columns[1].Cards) != 0 {
		t.Errorf("offer column = %+v", board.Columns[1])
	}
	if !board.Columns[2].Extra || board.Columns[2].Name != "Ghosted" {
		t.Errorf("unknown stage should get an extra column, got %+v", board.Columns[2])
	}

	if col, i, ok := board.Locate(5); !ok || col != 0 || i != 3 {
		t.Errorf("Locate(5) = %d, %d, %v", col, i, ok)
	}
	if board.CardCount() != 5 {
		t.Errorf("CardCount = %d", board.CardCount())
	}
	if ok, _ := board.CanDeleteColumn(0); ok {
		t.Error("stage with cards should not be deletable")
	}
	if ok, _ := board.CanDeleteColumn(1); !ok {
		t.Error("empty stage should be deletable")
	}
}

func TestNotesPreview(t *testing.T) {
	tests := []struct {
		name  string
		notes string
		want  string
	}{
		{"empty", "", ""},
		{"skips headings", "# Call notes\n\nFriendly team.\n\nAsked about Go.\n\nThird paragraph.", "Friendly team. Asked about Go."},
		{"truncates", "This paragraph is long enough that it has to be cut off somewhere around sixty characters.", "This paragraph is long enough that it has to be cut off s..."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NotesPreview(tt.notes); got != tt.want {
				t.Errorf("NotesPreview() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNewCardUntitled(t *testing.T) {
	c := NewCard(records.Record{ID: 9, Position: " Dev "})
	if c.Title != "Untitled" || c.Subtitle != "Dev" {
		t.Errorf("card = %+v", c)
	}
	if _, ok := c.Order(); ok {
		t.Error("card without pipeline order reported one")
	}
}
