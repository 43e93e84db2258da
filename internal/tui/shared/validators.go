package shared

import (
	"strings"

	"jobtrack/internal/api"
	"jobtrack/internal/records/models"
	"jobtrack/internal/schema"
)

// ColumnValidator accepts input the column normalizes without error
func ColumnValidator(col schema.Column) func(string) error {
	return func(v string) error {
		_, err := col.Normalize(v)
		return err
	}
}

// OptionLabelValidator rejects empty, overlong and duplicate labels. except is
// the label being renamed and may be kept.
func OptionLabelValidator(options []models.Option, except string) func(string) error {
	return func(v string) error {
		_, err := schema.ValidateOptionLabel(options, v, except)
		return err
	}
}

// NotEmpty rejects blank input
func NotEmpty(field, what string) func(string) error {
	return func(v string) error {
		if strings.TrimSpace(v) == "" {
			return api.Invalid(field, "%s cannot be empty", what)
		}
		return nil
	}
}
