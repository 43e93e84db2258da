package models

import (
	"encoding/json"
	"strings"
	"time"
)

// PropertyType is the kind of a user defined column
type PropertyType string

const (
	PropertyText      PropertyType = "text"
	PropertyNumber    PropertyType = "number"
	PropertyDate      PropertyType = "date"
	PropertyCheckbox  PropertyType = "checkbox"
	PropertyRating    PropertyType = "rating"
	PropertySelect    PropertyType = "select"
	PropertyContacts  PropertyType = "contacts"
	PropertyLinks     PropertyType = "links"
	PropertyDocuments PropertyType = "documents"
)

// Option is one entry of a select-like vocabulary. The label is its identity.
type Option struct {
	Label string `json:"label"`
	Color string `json:"color,omitempty"`
}

// CustomProperty is a user defined column stored in the settings document
type CustomProperty struct {
	Key     string       `json:"key"`
	Name    string       `json:"name"`
	Type    PropertyType `json:"type"`
	Options []Option     `json:"options,omitempty"`
}

// ScoreScale bounds the score fields
type ScoreScale struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// PageConfig is an opaque, independently timestamped fragment of the settings
// document (one per page layout).
type PageConfig map[string]any

// UpdatedAtKey is the fragment field carrying its timestamp
const UpdatedAtKey = "updated_at"

// UpdatedAt parses the fragment timestamp. ok is false when absent or unparseable.
func (p PageConfig) UpdatedAt() (time.Time, bool) {
	raw, ok := p[UpdatedAtKey].(string)
	if !ok {
		return time.Time{}, false
	}
	return ParseTimestamp(raw)
}

// Clone copies the top level of the fragment
func (p PageConfig) Clone() PageConfig {
	if p == nil {
		return nil
	}
	out := make(PageConfig, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// Stamp returns a copy of the fragment with updated_at set to t
func (p PageConfig) Stamp(t time.Time) PageConfig {
	out := p.Clone()
	if out == nil {
		out = PageConfig{}
	}
	out[UpdatedAtKey] = t.UTC().Format(time.RFC3339Nano)
	return out
}

// ParseTimestamp accepts RFC3339 (with or without fractional seconds) and
// naive ISO timestamps, which are read as UTC.
func ParseTimestamp(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	layouts := []string{
		time.RFC3339Nano,
		"2006-01-02T15:04:05.999999999",
		"2006-01-02T15:04:05",
		"2006-01-02T15:04",
		"2006-01-02",
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// Settings is the per-user view configuration document. Fields the client does
// not model are preserved verbatim in Extra so whole-document saves never drop
// them.
type Settings struct {
	Stages           []string              `json:"stages"`
	Outcomes         []string              `json:"outcomes"`
	JobTypes         []string              `json:"job_types"`
	StageColors      map[string]string     `json:"stage_colors"`
	OutcomeColors    map[string]string     `json:"outcome_colors"`
	JobTypeColors    map[string]string     `json:"job_type_colors"`
	ScoreScale       ScoreScale            `json:"score_scale"`
	TableColumns     []string              `json:"table_columns"`
	HiddenColumns    []string              `json:"hidden_columns"`
	ColumnWidths     map[string]int        `json:"column_widths"`
	ColumnLabels     map[string]string     `json:"column_labels"`
	TableDensity     string                `json:"table_density"`
	DarkMode         bool                  `json:"dark_mode"`
	CustomProperties []CustomProperty      `json:"custom_properties"`
	PageConfigs      map[string]PageConfig `json:"page_configs"`

	Extra map[string]json.RawMessage `json:"-"`
}

type settingsAlias Settings

var knownSettingsKeys = map[string]bool{
	"stages": true, "outcomes": true, "job_types": true,
	"stage_colors": true, "outcome_colors": true, "job_type_colors": true,
	"score_scale": true, "table_columns": true, "hidden_columns": true,
	"column_widths": true, "column_labels": true, "table_density": true,
	"dark_mode": true, "custom_properties": true, "page_configs": true,
}

// UnmarshalJSON decodes known fields and keeps the rest in Extra
func (s *Settings) UnmarshalJSON(data []byte) error {
	var alias settingsAlias
	if err := json.Unmarshal(data, &alias); err != nil {
		return err
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*s = Settings(alias)
	for k, v := range raw {
		if knownSettingsKeys[k] {
			continue
		}
		if s.Extra == nil {
			s.Extra = make(map[string]json.RawMessage)
		}
		s.Extra[k] = v
	}
	return nil
}

// MarshalJSON encodes known fields plus Extra
func (s Settings) MarshalJSON() ([]byte, error) {
	data, err := json.Marshal(settingsAlias(s))
	if err != nil {
		return nil, err
	}
	if len(s.Extra) == 0 {
		return data, nil
	}
	var merged map[string]json.RawMessage
	if err := json.Unmarshal(data, &merged); err != nil {
		return nil, err
	}
	for k, v := range s.Extra {
		if knownSettingsKeys[k] {
			continue
		}
		merged[k] = v
	}
	return json.Marshal(merged)
}

// Clone deep-copies the settings document
func (s Settings) Clone() Settings {
	out := s
	out.Stages = append([]string(nil), s.Stages...)
	out.Outcomes = append([]string(nil), s.Outcomes...)
	out.JobTypes = append([]string(nil), s.JobTypes...)
	out.StageColors = cloneStringMap(s.StageColors)
	out.OutcomeColors = cloneStringMap(s.OutcomeColors)
	out.JobTypeColors = cloneStringMap(s.JobTypeColors)
	out.TableColumns = append([]string(nil), s.TableColumns...)
	out.HiddenColumns = append([]string(nil), s.HiddenColumns...)
	out.ColumnLabels = cloneStringMap(s.ColumnLabels)
	if s.ColumnWidths != nil {
		out.ColumnWidths = make(map[string]int, len(s.ColumnWidths))
		for k, v := range s.ColumnWidths {
			out.ColumnWidths[k] = v
		}
	}
	out.CustomProperties = make([]CustomProperty, len(s.CustomProperties))
	for i, p := range s.CustomProperties {
		p.Options = append([]Option(nil), p.Options...)
		out.CustomProperties[i] = p
	}
	if s.PageConfigs != nil {
		out.PageConfigs = make(map[string]PageConfig, len(s.PageConfigs))
		for k, v := range s.PageConfigs {
			out.PageConfigs[k] = v.Clone()
		}
	}
	if s.Extra != nil {
		out.Extra = make(map[string]json.RawMessage, len(s.Extra))
		for k, v := range s.Extra {
			out.Extra[k] = append(json.RawMessage(nil), v...)
		}
	}
	return out
}

// Property returns the custom property with the given key
func (s Settings) Property(key string) (CustomProperty, bool) {
	for _, p := range s.CustomProperties {
		if p.Key == key {
			return p, true
		}
	}
	return CustomProperty{}, false
}

// IsHidden reports whether a column is in the hidden set
func (s Settings) IsHidden(key string) bool {
	for _, h := range s.HiddenColumns {
		if h == key {
			return true
		}
	}
	return false
}

// VisibleColumns returns TableColumns minus the hidden set, in order
func (s Settings) VisibleColumns() []string {
	hidden := make(map[string]bool, len(s.HiddenColumns))
	for _, h := range s.HiddenColumns {
		hidden[h] = true
	}
	var out []string
	for _, c := range s.TableColumns {
		if !hidden[c] {
			out = append(out, c)
		}
	}
	return out
}

func cloneStringMap(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
