package operations

import (
	"fmt"

	"jobtrack/internal/kanban/models"
	records "jobtrack/internal/records/models"
)

// Assignment is the stage and dense pipeline order a card ends up with
type Assignment struct {
	ID    int64
	Stage string
	Order int
}

// Patch is the record update carrying the assignment
func (a Assignment) Patch() records.Patch {
	return records.Patch{"stage": a.Stage, "pipeline_order": a.Order}
}

// PlanCardMove computes the renumbering for dropping a card into targetStage
// before beforeID (0 = end of the list). The target stage, and the source stage
// when it differs, are renumbered 0..n-1; only cards whose stage or order
// changes get an assignment.
func PlanCardMove(board models.Board, cardID int64, targetStage string, beforeID int64) ([]Assignment, error) {
	fromCol, fromIdx, ok := board.Locate(cardID)
	if !ok {
		return nil, fmt.Errorf("card %d is not on the board", cardID)
	}
	toCol := board.ColumnIndex(targetStage)
	if toCol < 0 {
		return nil, fmt.Errorf("invalid destination stage %q", targetStage)
	}
	if beforeID == cardID {
		return nil, nil
	}

	moved := board.Columns[fromCol].Cards[fromIdx]
	target := board.Columns[toCol]

	list := make([]models.Card, 0, len(target.Cards)+1)
	for _, c := range target.Cards {
		if c.ID != cardID {
			list = append(list, c)
		}
	}

	insertAt := len(list)
	if beforeID != 0 {
		for i, c := range list {
			if c.ID == beforeID {
				insertAt = i
				break
			}
		}
	}
	list = append(list[:insertAt], append([]models.Card{moved}, list[insertAt:]...)...)

	assignments := renumber(list, target.Name)

	if fromCol != toCol {
		source := board.Columns[fromCol]
		rest := make([]models.Card, 0, len(source.Cards))
		for _, c := range source.Cards {
			if c.ID != cardID {
				rest = append(rest, c)
			}
		}
		assignments = append(assignments, renumber(rest, source.Name)...)
	}

	return assignments, nil
}

func renumber(cards []models.Card, stage string) []Assignment {
	var out []Assignment
	for i, c := range cards {
		order, ok := c.Order()
		if ok && order == i && c.Stage == stage {
			continue
		}
		out = append(out, Assignment{ID: c.ID, Stage: stage, Order: i})
	}
	return out
}

// ApplyAssignments updates the board in place so it can be redrawn before the
// writes confirm.
func ApplyAssignments(board *models.Board, recs []records.Record, assignments []Assignment) []records.Record {
	byID := make(map[int64]Assignment, len(assignments))
	for _, a := range assignments {
		byID[a.ID] = a
	}
	out := make([]records.Record, len(recs))
	for i, r := range recs {
		if a, ok := byID[r.ID]; ok {
			r = r.Clone()
			r.Stage = a.Stage
			r.PipelineOrder = records.IntPtr(a.Order)
		}
		out[i] = r
	}
	stages := make([]string, 0, len(board.Columns))
	colors := make(map[string]string, len(board.Columns))
	for _, c := range board.Columns {
		if !c.Extra {
			stages = append(stages, c.Name)
			colors[c.Name] = c.Color
		}
	}
	*board = models.BuildBoard(out, stages, colors)
	return out
}
