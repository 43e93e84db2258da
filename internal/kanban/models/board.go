package models

import (
	"slices"
	"strings"

	records "jobtrack/internal/records/models"
)

// Board is the pipeline view: one column per stage
type Board struct {
	Columns []Column
}

// Column is one stage of the pipeline with its cards in pipeline order
type Column struct {
	Name  string
	Color string
	Cards []Card
	Extra bool // stage not in the vocabulary
}

// BuildBoard groups records by stage. Cards are sorted by pipeline_order with
// unordered cards last, keeping input order among equals. Records whose stage
// is not in stages get trailing extra columns.
func BuildBoard(recs []records.Record, stages []string, colors map[string]string) Board {
	board := Board{Columns: make([]Column, 0, len(stages))}
	for _, s := range stages {
		board.Columns = append(board.Columns, Column{Name: s, Color: colors[s], Cards: []Card{}})
	}

	for _, r := range recs {
		i := board.ColumnIndex(r.Stage)
		if i < 0 {
			board.Columns = append(board.Columns, Column{Name: r.Stage, Cards: []Card{}, Extra: true})
			i = len(board.Columns) - 1
		}
		board.Columns[i].Cards = append(board.Columns[i].Cards, NewCard(r))
	}

	for i := range board.Columns {
		SortCards(board.Columns[i].Cards)
	}
	return board
}

// SortCards orders cards by pipeline order, unordered last, stable
func SortCards(cards []Card) {
	slices.SortStableFunc(cards, func(a, b Card) int {
		ao, aok := a.Order()
		bo, bok := b.Order()
		switch {
		case aok && bok:
			return ao - bo
		case aok:
			return -1
		case bok:
			return 1
		}
		return 0
	})
}

// GetColumn returns a pointer to the column with the given name
func (b *Board) GetColumn(name string) *Column {
	if i := b.ColumnIndex(name); i >= 0 {
		return &b.Columns[i]
	}
	return nil
}

// ColumnIndex returns the index of the stage, matched case-insensitively, or -1
func (b *Board) ColumnIndex(name string) int {
	for i := range b.Columns {
		if strings.EqualFold(b.Columns[i].Name, name) {
			return i
		}
	}
	return -1
}

// Locate finds a card by record id
func (b *Board) Locate(id int64) (col, card int, ok bool) {
	for ci, c := range b.Columns {
		for i, cd := range c.Cards {
			if cd.ID == id {
				return ci, i, true
			}
		}
	}
	return -1, -1, false
}

// CardCount is the number of cards across all columns
func (b *Board) CardCount() int {
	n := 0
	for _, c := range b.Columns {
		n += len(c.Cards)
	}
	return n
}

// CanDeleteColumn returns (bool, errorMessage)
func (b *Board) CanDeleteColumn(index int) (bool, string) {
	if index < 0 || index >= len(b.Columns) {
		return false, "invalid stage index"
	}
	if b.Columns[index].Extra {
		return false, "stage is not in the vocabulary"
	}
	if len(b.Columns[index].Cards) > 0 {
		return false, "stage still has applications"
	}
	return true, ""
}
