package models

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	records "jobtrack/internal/records/models"
)

// Card is a record as shown on the board
type Card struct {
	ID       int64
	Title    string // company name
	Subtitle string // position
	Stage    string
	Outcome  string
	JobType  string
	Favorite bool
	Preview  string // first lines of the notes
	order    *int
}

// NewCard builds the card of a record
func NewCard(r records.Record) Card {
	title := strings.TrimSpace(r.CompanyName)
	if title == "" {
		title = "Untitled"
	}
	c := Card{
		ID:       r.ID,
		Title:    title,
		Subtitle: strings.TrimSpace(r.Position),
		Stage:    r.Stage,
		Outcome:  r.Outcome,
		JobType:  r.JobType,
		Favorite: r.Favorite,
		Preview:  NotesPreview(r.Notes),
	}
	if o, ok := r.Order(); ok {
		c.order = &o
	}
	return c
}

// Order returns the pipeline order and whether it is set
func (c Card) Order() (int, bool) {
	if c.order == nil {
		return 0, false
	}
	return *c.order, true
}

// NotesPreview renders the first two paragraphs of markdown notes as a single
// line of at most 60 characters. Headings are skipped.
func NotesPreview(markdown string) string {
	if strings.TrimSpace(markdown) == "" {
		return ""
	}
	source := []byte(markdown)
	doc := goldmark.DefaultParser().Parse(text.NewReader(source))

	var preview strings.Builder
	paragraphs := 0
	ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch n.Kind() {
		case ast.KindHeading:
			return ast.WalkSkipChildren, nil
		case ast.KindParagraph:
			if paragraphs >= 2 {
				return ast.WalkStop, nil
			}
			if line := string(n.Text(source)); line != "" {
				if preview.Len() > 0 {
					preview.WriteString(" ")
				}
				preview.WriteString(line)
				paragraphs++
			}
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})

	out := []rune(preview.String())
	if len(out) > 60 {
		return string(out[:57]) + "..."
	}
	return string(out)
}
