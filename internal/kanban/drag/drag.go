// Package drag holds the column-header and board drag state machines.
//
// Each machine keeps two copies of the drag source: ref, which every handler
// reads and which changes the moment a drag starts, and a presentation copy
// that is only refreshed by Publish when the view redraws. Handlers never
// branch on the presentation copy, so an event arriving before the redraw
// still sees the real source.
package drag

import (
	"jobtrack/internal/kanban/models"
	"jobtrack/internal/kanban/operations"
)

// Reorderer is the column layout a header drop splices through
type Reorderer interface {
	IndexOf(col string) int
	Reorder(from, to int) error
}

// ColumnDrag reorders table columns by dragging headers
type ColumnDrag struct {
	ref   string
	over  string
	shown struct{ source, over string }
}

// Start captures the dragged column
func (d *ColumnDrag) Start(col string) {
	d.ref = col
	d.over = ""
}

// Active reports whether a column drag is in flight
func (d *ColumnDrag) Active() bool { return d.ref != "" }

// Source is the dragged column
func (d *ColumnDrag) Source() string { return d.ref }

// Over records the header currently under the pointer
func (d *ColumnDrag) Over(col string) {
	if d.ref != "" {
		d.over = col
	}
}

// Drop splice-moves the source column to the target's position. Dropping a
// column on itself, or with no drag in flight, does nothing.
func (d *ColumnDrag) Drop(layout Reorderer, target string) (bool, error) {
	source := d.ref
	d.ref, d.over = "", ""
	if source == "" || source == target {
		return false, nil
	}
	from, to := layout.IndexOf(source), layout.IndexOf(target)
	if from < 0 || to < 0 {
		return false, nil
	}
	if err := layout.Reorder(from, to); err != nil {
		return false, err
	}
	return true, nil
}

// Cancel abandons the drag
func (d *ColumnDrag) Cancel() {
	d.ref, d.over = "", ""
}

// Publish copies the drag state into the presentation copy
func (d *ColumnDrag) Publish() {
	d.shown.source, d.shown.over = d.ref, d.over
}

// Highlight returns the presentation copy for styling
func (d *ColumnDrag) Highlight() (source, over string) {
	return d.shown.source, d.shown.over
}

// Kind tells stage drags from card drags
type Kind int

const (
	None Kind = iota
	StageDrag
	CardDrag
)

type boardRef struct {
	kind  Kind
	stage string
	card  int64
}

// BoardDrag handles both stage and card drags on the board. Both share the
// same drop targets, so the kind of the drag in flight decides what a drop
// means.
type BoardDrag struct {
	ref   boardRef
	shown boardRef
}

// Drop is the outcome of a board drop
type Drop struct {
	Kind Kind

	// stage drags
	From, To int

	// card drags
	Assignments []operations.Assignment
}

// StartStage begins dragging a stage column
func (d *BoardDrag) StartStage(stage string) {
	d.ref = boardRef{kind: StageDrag, stage: stage}
}

// StartCard begins dragging a card
func (d *BoardDrag) StartCard(id int64) {
	d.ref = boardRef{kind: CardDrag, card: id}
}

// Active returns the kind of drag in flight
func (d *BoardDrag) Active() Kind { return d.ref.kind }

// Card is the dragged card id
func (d *BoardDrag) Card() int64 { return d.ref.card }

// Stage is the dragged stage
func (d *BoardDrag) Stage() string { return d.ref.stage }

// Cancel abandons the drag
func (d *BoardDrag) Cancel() { d.ref = boardRef{} }

// Publish copies the drag state into the presentation copy
func (d *BoardDrag) Publish() { d.shown = d.ref }

// Highlight returns the presentation copy for styling
func (d *BoardDrag) Highlight() (Kind, string, int64) {
	return d.shown.kind, d.shown.stage, d.shown.card
}

// DropOnStage handles a drop on a stage header or on empty space in its body.
// A stage drag moves the dragged stage to the target's position; a card drag
// appends the card to the end of the target stage.
func (d *BoardDrag) DropOnStage(board models.Board, stage string) (Drop, error) {
	return d.drop(board, stage, 0)
}

// DropOnCard handles a drop on a card. A card drag inserts before that card; a
// stage drag treats it as a drop on the card's stage.
func (d *BoardDrag) DropOnCard(board models.Board, stage string, beforeID int64) (Drop, error) {
	return d.drop(board, stage, beforeID)
}

func (d *BoardDrag) drop(board models.Board, stage string, beforeID int64) (Drop, error) {
	ref := d.ref
	d.ref = boardRef{}

	switch ref.kind {
	case StageDrag:
		from, to := board.ColumnIndex(ref.stage), board.ColumnIndex(stage)
		if from < 0 || to < 0 || from == to {
			return Drop{}, nil
		}
		if board.Columns[from].Extra || board.Columns[to].Extra {
			return Drop{}, nil
		}
		return Drop{Kind: StageDrag, From: from, To: to}, nil
	case CardDrag:
		assignments, err := operations.PlanCardMove(board, ref.card, stage, beforeID)
		if err != nil {
			return Drop{}, err
		}
		if len(assignments) == 0 {
			return Drop{}, nil
		}
		return Drop{Kind: CardDrag, Assignments: assignments}, nil
	}
	return Drop{}, nil
}
