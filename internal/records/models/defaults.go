package models

// Density values for the table
const (
	DensityComfortable = "comfortable"
	DensityCompact     = "compact"
)

// DefaultSettings returns the document used before the user changed anything
func DefaultSettings() Settings {
	return Settings{
		Stages:   []string{"Applied", "Screening", "HR", "Technical", "Final Interview", "Offer"},
		Outcomes: []string{"In Progress", "Offer", "Rejected", "On Hold"},
		JobTypes: []string{"Internship", "Full-time", "Part-time", "Graduate Program"},
		JobTypeColors: map[string]string{
			"Internship":       "#BEE3F8",
			"Full-time":        "#C6F6D5",
			"Part-time":        "#FED7D7",
			"Graduate Program": "#FAF089",
		},
		StageColors: map[string]string{
			"Applied":         "#CBD5E0",
			"Screening":       "#63B3ED",
			"HR":              "#F6AD55",
			"Technical":       "#4FD1C5",
			"Final Interview": "#9F7AEA",
			"Offer":           "#68D391",
		},
		OutcomeColors: map[string]string{
			"In Progress": "#F6C453",
			"Offer":       "#2F855A",
			"Rejected":    "#C53030",
			"On Hold":     "#718096",
		},
		ScoreScale: ScoreScale{Min: 0, Max: 10},
		TableColumns: []string{
			"company_name",
			"position",
			"job_type",
			"location",
			"stage",
			"outcome",
			"application_date",
			"interview_datetime",
			"followup_date",
			"interview_rounds",
			"interview_type",
			"interviewers",
			"company_score",
			"contacts",
			"last_round_cleared",
			"total_rounds",
			"my_interview_score",
			"improvement_areas",
			"skill_to_upgrade",
			"job_description",
			"notes",
			"documents_links",
			"favorite",
		},
		HiddenColumns: []string{
			"job_description",
			"notes",
			"improvement_areas",
			"skill_to_upgrade",
			"documents_links",
		},
		ColumnWidths:     map[string]int{},
		ColumnLabels:     map[string]string{},
		TableDensity:     DensityComfortable,
		CustomProperties: []CustomProperty{},
		PageConfigs:      map[string]PageConfig{},
	}
}

// WithDefaults fills zero-valued fields of s from DefaultSettings, the way a
// stored partial document is overlaid on defaults.
func WithDefaults(s Settings) Settings {
	d := DefaultSettings()
	if s.Stages == nil {
		s.Stages = d.Stages
	}
	if s.Outcomes == nil {
		s.Outcomes = d.Outcomes
	}
	if s.JobTypes == nil {
		s.JobTypes = d.JobTypes
	}
	if s.StageColors == nil {
		s.StageColors = d.StageColors
	}
	if s.OutcomeColors == nil {
		s.OutcomeColors = d.OutcomeColors
	}
	if s.JobTypeColors == nil {
		s.JobTypeColors = d.JobTypeColors
	}
	if s.ScoreScale == (ScoreScale{}) {
		s.ScoreScale = d.ScoreScale
	}
	if s.TableColumns == nil {
		s.TableColumns = d.TableColumns
	}
	if s.HiddenColumns == nil {
		s.HiddenColumns = d.HiddenColumns
	}
	if s.ColumnWidths == nil {
		s.ColumnWidths = d.ColumnWidths
	}
	if s.ColumnLabels == nil {
		s.ColumnLabels = d.ColumnLabels
	}
	if s.TableDensity == "" {
		s.TableDensity = d.TableDensity
	}
	if s.CustomProperties == nil {
		s.CustomProperties = d.CustomProperties
	}
	if s.PageConfigs == nil {
		s.PageConfigs = d.PageConfigs
	}
	return s
}
