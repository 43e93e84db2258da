package schema

import (
	"strings"

	"github.com/google/uuid"

	"jobtrack/internal/api"
	"jobtrack/internal/records/models"
)

// MaxLabelLength bounds option and stage labels
const MaxLabelLength = 50

// RecordRewrite is a record update required to keep a value pointing at a
// renamed label.
type RecordRewrite struct {
	ID    int64
	Patch models.Patch
}

// FindOption matches input against the option labels case-insensitively
func FindOption(options []models.Option, input string) (models.Option, bool) {
	input = strings.TrimSpace(input)
	for _, o := range options {
		if strings.EqualFold(o.Label, input) {
			return o, true
		}
	}
	return models.Option{}, false
}

// ValidateOptionLabel trims a label and checks its length and uniqueness.
// except is the label being replaced, which may collide with itself.
func ValidateOptionLabel(options []models.Option, label, except string) (string, error) {
	trimmed := strings.TrimSpace(label)
	if trimmed == "" {
		return "", api.Invalid("label", "option label cannot be empty")
	}
	if len([]rune(trimmed)) > MaxLabelLength {
		return "", api.Invalid("label", "option label too long (max %d characters)", MaxLabelLength)
	}
	for _, o := range options {
		if strings.EqualFold(o.Label, except) && except != "" {
			continue
		}
		if strings.EqualFold(o.Label, trimmed) {
			return "", api.Invalid("label", "option %q already exists", o.Label)
		}
	}
	return trimmed, nil
}

// AddOption appends a new option
func AddOption(options []models.Option, label, color string) ([]models.Option, error) {
	validated, err := ValidateOptionLabel(options, label, "")
	if err != nil {
		return nil, err
	}
	out := append([]models.Option(nil), options...)
	return append(out, models.Option{Label: validated, Color: color}), nil
}

// RemoveOption drops an option. Record values still holding the label are left
// untouched and show as plain text.
func RemoveOption(options []models.Option, label string) ([]models.Option, error) {
	out := make([]models.Option, 0, len(options))
	found := false
	for _, o := range options {
		if strings.EqualFold(o.Label, label) {
			found = true
			continue
		}
		out = append(out, o)
	}
	if !found {
		return nil, api.Invalid("label", "option %q does not exist", label)
	}
	return out, nil
}

// RecolorOption changes the color of an option
func RecolorOption(options []models.Option, label, color string) ([]models.Option, error) {
	out := append([]models.Option(nil), options...)
	for i := range out {
		if strings.EqualFold(out[i].Label, label) {
			out[i].Color = color
			return out, nil
		}
	}
	return nil, api.Invalid("label", "option %q does not exist", label)
}

// RenameOption changes an option label in place and returns the rewrites for
// every record of col whose value references the old label.
func RenameOption(col Column, records []models.Record, oldLabel, newLabel string) ([]models.Option, []RecordRewrite, error) {
	current, ok := FindOption(col.Options, oldLabel)
	if !ok {
		return nil, nil, api.Invalid(col.Key, "option %q does not exist", oldLabel)
	}
	validated, err := ValidateOptionLabel(col.Options, newLabel, current.Label)
	if err != nil {
		return nil, nil, err
	}

	out := append([]models.Option(nil), col.Options...)
	for i := range out {
		if out[i].Label == current.Label {
			out[i].Label = validated
		}
	}
	if validated == current.Label {
		return out, nil, nil
	}

	var rewrites []RecordRewrite
	for _, rec := range records {
		if strings.EqualFold(strings.TrimSpace(col.Raw(rec)), current.Label) {
			rewrites = append(rewrites, RecordRewrite{ID: rec.ID, Patch: col.Patch(validated)})
		}
	}
	return out, rewrites, nil
}

// NewPropertyKey generates the stable key of a new custom property
func NewPropertyKey() string {
	return "prop_" + strings.ReplaceAll(uuid.NewString(), "-", "")
}

// Labels returns the option labels in order
func Labels(options []models.Option) []string {
	out := make([]string, len(options))
	for i, o := range options {
		out[i] = o.Label
	}
	return out
}

// SetOptions writes the vocabulary of a select-like column back into the
// settings document. Built-in vocabularies keep labels and colors separately.
func SetOptions(s *models.Settings, key string, options []models.Option) error {
	labels := Labels(options)
	colors := make(map[string]string, len(options))
	for _, o := range options {
		if o.Color != "" {
			colors[o.Label] = o.Color
		}
	}
	switch key {
	case "stage":
		s.Stages, s.StageColors = labels, colors
		return nil
	case "outcome":
		s.Outcomes, s.OutcomeColors = labels, colors
		return nil
	case "job_type":
		s.JobTypes, s.JobTypeColors = labels, colors
		return nil
	}
	for i := range s.CustomProperties {
		if s.CustomProperties[i].Key == key {
			s.CustomProperties[i].Options = append([]models.Option(nil), options...)
			return nil
		}
	}
	return api.Invalid(key, "column has no option vocabulary")
}
