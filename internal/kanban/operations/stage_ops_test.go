package operations

import (
	"strings"
	"testing"

	"jobtrack/internal/api"
	"jobtrack/internal/kanban/models"
	records "jobtrack/internal/records/models"
)

func TestValidateStageName(t *testing.T) {
	if name, err := ValidateStageName("  Onsite "); err != nil || name != "Onsite" {
		t.Errorf("ValidateStageName = %q, %v", name, err)
	}
	if _, err := ValidateStageName(" "); !api.IsValidation(err) {
		t.Errorf("empty name err = %v", err)
	}
	if _, err := ValidateStageName(strings.Repeat("x", 51)); !api.IsValidation(err) {
		t.Errorf("long name err = %v", err)
	}
}

func TestAddStage(t *testing.T) {
	s := records.DefaultSettings()
	if err := AddStage(&s, "Onsite", "#123", 2); err != nil {
		t.Fatal(err)
	}
	if s.Stages[2] != "Onsite" || s.StageColors["Onsite"] != "#123" {
		t.Errorf("stages = %v", s.Stages)
	}
	if err := AddStage(&s, "onsite", "", -1); !api.IsValidation(err) {
		t.Errorf("duplicate stage err = %v", err)
	}
	if err := AddStage(&s, "Ghosted", "", -1); err != nil || s.Stages[len(s.Stages)-1] != "Ghosted" {
		t.Errorf("append stage: %v %v", s.Stages, err)
	}
	if err := AddStage(&s, "Bad", "", 99); err == nil {
		t.Error("expected invalid position error")
	}
}

func TestRenameStageRewritesRecords(t *testing.T) {
	s := records.DefaultSettings()
	recs := []records.Record{
		{ID: 1, Stage: "HR"},
		{ID: 2, Stage: "Technical"},
		{ID: 3, Stage: "hr"},
	}
	rewrites, err := RenameStage(&s, recs, "HR", "People Team")
	if err != nil {
		t.Fatal(err)
	}
	if s.Stages[2] != "People Team" {
		t.Errorf("stages = %v", s.Stages)
	}
	if s.StageColors["People Team"] != "#F6AD55" {
		t.Errorf("color did not follow the rename: %v", s.StageColors)
	}
	if len(rewrites) != 2 || rewrites[0].ID != 1 || rewrites[1].ID != 3 {
		t.Fatalf("rewrites = %+v", rewrites)
	}
	if rewrites[0].Patch["stage"] != "People Team" {
		t.Errorf("patch = %v", rewrites[0].Patch)
	}
	if _, err := RenameStage(&s, recs, "Technical", "offer"); !api.IsValidation(err) {
		t.Errorf("rename onto existing stage err = %v", err)
	}
}

func TestDeleteStage(t *testing.T) {
	s := records.DefaultSettings()
	recs := []records.Record{{ID: 1, Stage: "Applied"}}
	board := models.BuildBoard(recs, s.Stages, s.StageColors)

	if err := DeleteStage(board, &s, "Applied"); !api.IsValidation(err) {
		t.Errorf("deleting a stage with cards err = %v", err)
	}
	if err := DeleteStage(board, &s, "HR"); err != nil {
		t.Fatal(err)
	}
	for _, st := range s.Stages {
		if st == "HR" {
			t.Error("HR still present")
		}
	}
	if _, ok := s.StageColors["HR"]; ok {
		t.Error("HR color still present")
	}
	if err := DeleteStage(board, &s, "Nope"); !api.IsValidation(err) {
		t.Errorf("unknown stage err = %v", err)
	}
}

func TestReorderStage(t *testing.T) {
	s := records.Settings{Stages: []string{"A", "B", "C", "D"}}
	if err := ReorderStage(&s, 0, 2); err != nil {
		t.Fatal(err)
	}
	if strings.Join(s.Stages, ",") != "B,C,A,D" {
		t.Errorf("stages = %v", s.Stages)
	}
	if err := ReorderStage(&s, 3, 0); err != nil {
		t.Fatal(err)
	}
	if strings.Join(s.Stages, ",") != "D,B,C,A" {
		t.Errorf("stages = %v", s.Stages)
	}
	if err := ReorderStage(&s, 0, 4); err == nil {
		t.Error("expected invalid destination error")
	}
}
