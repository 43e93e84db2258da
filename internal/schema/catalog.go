package schema

import (
	"strconv"
	"strings"

	"jobtrack/internal/records/models"
)

type fieldType int

const (
	fieldProperty fieldType = iota
	fieldString
	fieldInt
	fieldFloat
	fieldBool
	fieldContacts
)

// Column describes one table column, built-in or custom
type Column struct {
	Key      string
	Label    string
	Kind     Kind
	Options  []models.Option
	Custom   bool
	Required bool

	field fieldType
}

type builtin struct {
	key      string
	label    string
	kind     Kind
	field    fieldType
	required bool
}

var builtins = []builtin{
	{"company_name", "Company", KindText, fieldString, true},
	{"position", "Position", KindText, fieldString, true},
	{"job_type", "Job Type", KindSelect, fieldString, true},
	{"location", "Location", KindText, fieldString, false},
	{"stage", "Stage", KindSelect, fieldString, true},
	{"outcome", "Outcome", KindSelect, fieldString, true},
	{"application_date", "Applied", KindDate, fieldString, false},
	{"interview_datetime", "Interview", KindDatetime, fieldString, false},
	{"followup_date", "Follow-Up", KindDate, fieldString, false},
	{"interview_rounds", "Rounds", KindNumber, fieldInt, false},
	{"interview_type", "Interview Type", KindText, fieldString, false},
	{"interviewers", "Interviewers", KindText, fieldString, false},
	{"company_score", "Company Score", KindNumber, fieldFloat, false},
	{"contacts", "Contacts", KindContacts, fieldContacts, false},
	{"last_round_cleared", "Last Round Cleared", KindText, fieldString, false},
	{"total_rounds", "Total Rounds", KindNumber, fieldInt, false},
	{"my_interview_score", "My Score", KindNumber, fieldFloat, false},
	{"improvement_areas", "Improvement Areas", KindText, fieldString, false},
	{"skill_to_upgrade", "Skill to Upgrade", KindText, fieldString, false},
	{"job_description", "Job Description", KindText, fieldString, false},
	{"notes", "Notes", KindText, fieldString, false},
	{"documents_links", "Documents / Links", KindText, fieldString, false},
	{"favorite", "Favorite", KindCheckbox, fieldBool, false},
}

// IsBuiltin reports whether key names a built-in column
func IsBuiltin(key string) bool {
	for _, b := range builtins {
		if b.key == key {
			return true
		}
	}
	return false
}

// BuiltinKeys returns the built-in column keys in their default order
func BuiltinKeys() []string {
	keys := make([]string, len(builtins))
	for i, b := range builtins {
		keys[i] = b.key
	}
	return keys
}

// Catalog resolves column keys against the built-in set and the custom
// properties of a settings document.
type Catalog struct {
	columns map[string]Column
}

// NewCatalog builds the catalog for a settings document
func NewCatalog(s models.Settings) Catalog {
	cols := make(map[string]Column, len(builtins)+len(s.CustomProperties))
	for _, b := range builtins {
		col := Column{
			Key:      b.key,
			Label:    b.label,
			Kind:     b.kind,
			Required: b.required,
			field:    b.field,
		}
		switch b.key {
		case "stage":
			col.Options = vocabulary(s.Stages, s.StageColors)
		case "outcome":
			col.Options = vocabulary(s.Outcomes, s.OutcomeColors)
		case "job_type":
			col.Options = vocabulary(s.JobTypes, s.JobTypeColors)
		}
		cols[b.key] = col
	}
	for _, p := range s.CustomProperties {
		if IsBuiltin(p.Key) {
			continue
		}
		cols[p.Key] = Column{
			Key:     p.Key,
			Label:   p.Name,
			Kind:    KindOf(p.Type),
			Options: append([]models.Option(nil), p.Options...),
			Custom:  true,
			field:   fieldProperty,
		}
	}
	for key, label := range s.ColumnLabels {
		if col, ok := cols[key]; ok && strings.TrimSpace(label) != "" {
			col.Label = strings.TrimSpace(label)
			cols[key] = col
		}
	}
	return Catalog{columns: cols}
}

func vocabulary(labels []string, colors map[string]string) []models.Option {
	out := make([]models.Option, len(labels))
	for i, l := range labels {
		out[i] = models.Option{Label: l, Color: colors[l]}
	}
	return out
}

// Column looks up a column by key
func (c Catalog) Column(key string) (Column, bool) {
	col, ok := c.columns[key]
	return col, ok
}

// Columns resolves keys in order, skipping unknown ones
func (c Catalog) Columns(keys []string) []Column {
	out := make([]Column, 0, len(keys))
	for _, k := range keys {
		if col, ok := c.columns[k]; ok {
			out = append(out, col)
		}
	}
	return out
}

// Project returns the projection of a record's value for key. Unknown keys
// project to the empty string.
func (c Catalog) Project(rec models.Record, key string) string {
	col, ok := c.columns[key]
	if !ok {
		return ""
	}
	return col.Project(rec)
}

// Raw returns the serialized value of the column for rec
func (col Column) Raw(rec models.Record) string {
	if col.Custom || col.field == fieldProperty {
		return rec.Property(col.Key)
	}
	switch col.Key {
	case "company_name":
		return rec.CompanyName
	case "position":
		return rec.Position
	case "job_type":
		return rec.JobType
	case "location":
		return rec.Location
	case "stage":
		return rec.Stage
	case "outcome":
		return rec.Outcome
	case "application_date":
		return rec.ApplicationDate
	case "interview_datetime":
		return rec.InterviewDatetime
	case "followup_date":
		return rec.FollowupDate
	case "interview_rounds":
		return formatIntPtr(rec.InterviewRounds)
	case "interview_type":
		return rec.InterviewType
	case "interviewers":
		return rec.Interviewers
	case "company_score":
		return formatFloatPtr(rec.CompanyScore)
	case "contacts":
		return EncodeContacts(rec.Contacts)
	case "last_round_cleared":
		return rec.LastRoundCleared
	case "total_rounds":
		return formatIntPtr(rec.TotalRounds)
	case "my_interview_score":
		return formatFloatPtr(rec.MyInterviewScore)
	case "improvement_areas":
		return rec.ImprovementAreas
	case "skill_to_upgrade":
		return rec.SkillToUpgrade
	case "job_description":
		return rec.JobDescription
	case "notes":
		return rec.Notes
	case "documents_links":
		return rec.DocumentsLinks
	case "favorite":
		return strconv.FormatBool(rec.Favorite)
	}
	return ""
}

// Project returns the comparable string of the column's value for rec
func (col Column) Project(rec models.Record) string {
	return Project(col.Kind, col.Raw(rec))
}

// Normalize turns user input into the column's serialized form
func (col Column) Normalize(input string) (string, error) {
	return spec(col.Kind).normalize(col, input)
}

// Patch builds the record update writing a serialized value to this column
func (col Column) Patch(serialized string) models.Patch {
	if col.Custom || col.field == fieldProperty {
		return models.Patch{}.SetProperty(col.Key, serialized)
	}
	switch col.field {
	case fieldInt:
		v, ok := NumericValue(serialized)
		if !ok {
			return models.Patch{col.Key: nil}
		}
		return models.Patch{col.Key: int(v)}
	case fieldFloat:
		v, ok := NumericValue(serialized)
		if !ok {
			return models.Patch{col.Key: nil}
		}
		return models.Patch{col.Key: v}
	case fieldBool:
		return models.Patch{col.Key: IsChecked(serialized)}
	case fieldContacts:
		contacts := ParseContacts(serialized)
		if contacts == nil {
			contacts = []models.Contact{}
		}
		return models.Patch{col.Key: contacts}
	}
	return models.Patch{col.Key: serialized}
}

// Option returns the option of a select-like column matching value
func (col Column) Option(value string) (models.Option, bool) {
	return FindOption(col.Options, value)
}

func formatIntPtr(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func formatFloatPtr(v *float64) string {
	if v == nil {
		return ""
	}
	return FormatNumber(*v)
}
