package session

import (
	"context"

	"jobtrack/internal/api"
	"jobtrack/internal/kanban/operations"
	"jobtrack/internal/records/models"
	"jobtrack/internal/schema"
)

// RenameOption renames an option of a select-like column and rewrites every
// record holding the old label. The vocabulary change is saved first.
func (s *Session) RenameOption(ctx context.Context, key, oldLabel, newLabel string) error {
	next := s.sync.Settings()
	col, ok := schema.NewCatalog(next).Column(key)
	if !ok {
		return api.Invalid(key, "unknown column")
	}
	options, rewrites, err := schema.RenameOption(col, s.Records(), oldLabel, newLabel)
	if err != nil {
		return err
	}
	if err := schema.SetOptions(&next, key, options); err != nil {
		return err
	}
	s.ReplaceSettings(next)
	return s.ApplyRewrites(ctx, rewrites)
}

// RenameStage renames a pipeline stage and moves its records along
func (s *Session) RenameStage(ctx context.Context, oldName, newName string) error {
	next := s.sync.Settings()
	rewrites, err := operations.RenameStage(&next, s.Records(), oldName, newName)
	if err != nil {
		return err
	}
	s.ReplaceSettings(next)
	return s.ApplyRewrites(ctx, rewrites)
}

// EditOptions applies a vocabulary edit (add, remove, recolor) to column key
func (s *Session) EditOptions(key string, edit func([]models.Option) ([]models.Option, error)) error {
	return s.EditSettings(func(st *models.Settings) error {
		col, ok := schema.NewCatalog(*st).Column(key)
		if !ok || !col.Kind.IsSelectLike() {
			return api.Invalid(key, "column has no option vocabulary")
		}
		options, err := edit(col.Options)
		if err != nil {
			return err
		}
		return schema.SetOptions(st, key, options)
	})
}
