package operations

import (
	"fmt"
	"slices"
	"strings"

	"jobtrack/internal/api"
	"jobtrack/internal/kanban/models"
	records "jobtrack/internal/records/models"
	"jobtrack/internal/schema"
)

// ValidateStageName checks if stage name is valid (trim, length check)
func ValidateStageName(name string) (string, error) {
	trimmed := strings.TrimSpace(name)

	if trimmed == "" {
		return "", api.Invalid("stage", "stage name cannot be empty")
	}

	if len([]rune(trimmed)) > schema.MaxLabelLength {
		return "", api.Invalid("stage", "stage name too long (max %d characters)", schema.MaxLabelLength)
	}

	return trimmed, nil
}

// AddStage inserts a new stage at position (-1 = at the end)
func AddStage(settings *records.Settings, name, color string, position int) error {
	validatedName, err := ValidateStageName(name)
	if err != nil {
		return err
	}

	for _, s := range settings.Stages {
		if strings.EqualFold(s, validatedName) {
			return api.Invalid("stage", "stage name already exists")
		}
	}

	if position == -1 {
		position = len(settings.Stages)
	}
	if position < 0 || position > len(settings.Stages) {
		return fmt.Errorf("invalid position")
	}

	settings.Stages = slices.Insert(slices.Clone(settings.Stages), position, validatedName)
	if color != "" {
		if settings.StageColors == nil {
			settings.StageColors = make(map[string]string)
		}
		settings.StageColors[validatedName] = color
	}
	return nil
}

// RenameStage renames a stage and returns the rewrites moving every record in
// the old stage to the new name.
func RenameStage(settings *records.Settings, recs []records.Record, oldName, newName string) ([]schema.RecordRewrite, error) {
	validatedName, err := ValidateStageName(newName)
	if err != nil {
		return nil, err
	}

	col, _ := schema.NewCatalog(*settings).Column("stage")
	options, rewrites, err := schema.RenameOption(col, recs, oldName, validatedName)
	if err != nil {
		return nil, err
	}
	if err := schema.SetOptions(settings, "stage", options); err != nil {
		return nil, err
	}
	return rewrites, nil
}

// DeleteStage removes a stage that has no cards
func DeleteStage(board models.Board, settings *records.Settings, name string) error {
	idx := slices.IndexFunc(settings.Stages, func(s string) bool { return strings.EqualFold(s, name) })
	if idx < 0 {
		return api.Invalid("stage", "stage %q does not exist", name)
	}

	if i := board.ColumnIndex(name); i >= 0 {
		if ok, msg := board.CanDeleteColumn(i); !ok {
			return api.Invalid("stage", "%s", msg)
		}
	}

	if len(settings.Stages) <= 1 {
		return api.Invalid("stage", "cannot delete the last stage")
	}

	removed := settings.Stages[idx]
	settings.Stages = slices.Delete(slices.Clone(settings.Stages), idx, idx+1)
	if settings.StageColors != nil {
		colors := make(map[string]string, len(settings.StageColors))
		for k, v := range settings.StageColors {
			if k != removed {
				colors[k] = v
			}
		}
		settings.StageColors = colors
	}
	return nil
}

// ReorderStage moves a stage from one position to another
func ReorderStage(settings *records.Settings, fromIndex, toIndex int) error {
	if fromIndex < 0 || fromIndex >= len(settings.Stages) {
		return fmt.Errorf("invalid source index")
	}
	if toIndex < 0 || toIndex >= len(settings.Stages) {
		return fmt.Errorf("invalid destination index")
	}

	if fromIndex == toIndex {
		return nil
	}

	stages := slices.Clone(settings.Stages)
	stage := stages[fromIndex]
	stages = slices.Delete(stages, fromIndex, fromIndex+1)
	settings.Stages = slices.Insert(stages, toIndex, stage)

	return nil
}
