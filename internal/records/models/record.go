package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// Contact is a person attached to a record
type Contact struct {
	ID          string `json:"id" yaml:"id"`
	Name        string `json:"name" yaml:"name"`
	Information string `json:"information,omitempty" yaml:"information,omitempty"`
	Email       string `json:"email,omitempty" yaml:"email,omitempty"`
	Phone       string `json:"phone,omitempty" yaml:"phone,omitempty"`
}

// DocumentFile describes an uploaded file stored by the persistence layer
type DocumentFile struct {
	ID          string     `json:"id" yaml:"id"`
	Name        string     `json:"name" yaml:"name"`
	Size        int64      `json:"size,omitempty" yaml:"size,omitempty"`
	ContentType string     `json:"content_type,omitempty" yaml:"content_type,omitempty"`
	UploadedAt  *time.Time `json:"uploaded_at,omitempty" yaml:"uploaded_at,omitempty"`
}

// TodoItem is a sub-task of a record
type TodoItem struct {
	ID             string `json:"id" yaml:"id"`
	Task           string `json:"task" yaml:"task"`
	DueDate        string `json:"due_date,omitempty" yaml:"due_date,omitempty"`
	Status         string `json:"status,omitempty" yaml:"status,omitempty"`
	TaskLocation   string `json:"task_location,omitempty" yaml:"task_location,omitempty"`
	Notes          string `json:"notes,omitempty" yaml:"notes,omitempty"`
	DocumentsLinks string `json:"documents_links,omitempty" yaml:"documents_links,omitempty"`
}

// Record is a tracked job application.
//
// Dates are kept in their serialized form (YYYY-MM-DD, or YYYY-MM-DDTHH:MM for
// InterviewDatetime) so projections never need to reformat them.
type Record struct {
	ID                int64             `json:"id" yaml:"id"`
	ApplicationID     string            `json:"application_id" yaml:"application_id"`
	CompanyName       string            `json:"company_name" yaml:"company_name"`
	Position          string            `json:"position" yaml:"position"`
	JobType           string            `json:"job_type" yaml:"job_type"`
	Stage             string            `json:"stage" yaml:"stage"`
	Outcome           string            `json:"outcome" yaml:"outcome"`
	PipelineOrder     *int              `json:"pipeline_order" yaml:"pipeline_order,omitempty"`
	Location          string            `json:"location,omitempty" yaml:"location,omitempty"`
	ApplicationDate   string            `json:"application_date,omitempty" yaml:"application_date,omitempty"`
	InterviewDatetime string            `json:"interview_datetime,omitempty" yaml:"interview_datetime,omitempty"`
	FollowupDate      string            `json:"followup_date,omitempty" yaml:"followup_date,omitempty"`
	InterviewRounds   *int              `json:"interview_rounds,omitempty" yaml:"interview_rounds,omitempty"`
	InterviewType     string            `json:"interview_type,omitempty" yaml:"interview_type,omitempty"`
	Interviewers      string            `json:"interviewers,omitempty" yaml:"interviewers,omitempty"`
	CompanyScore      *float64          `json:"company_score,omitempty" yaml:"company_score,omitempty"`
	LastRoundCleared  string            `json:"last_round_cleared,omitempty" yaml:"last_round_cleared,omitempty"`
	TotalRounds       *int              `json:"total_rounds,omitempty" yaml:"total_rounds,omitempty"`
	MyInterviewScore  *float64          `json:"my_interview_score,omitempty" yaml:"my_interview_score,omitempty"`
	ImprovementAreas  string            `json:"improvement_areas,omitempty" yaml:"improvement_areas,omitempty"`
	SkillToUpgrade    string            `json:"skill_to_upgrade,omitempty" yaml:"skill_to_upgrade,omitempty"`
	JobDescription    string            `json:"job_description,omitempty" yaml:"job_description,omitempty"`
	Notes             string            `json:"notes,omitempty" yaml:"-"`
	TodoItems         []TodoItem        `json:"todo_items" yaml:"todo_items,omitempty"`
	DocumentsLinks    string            `json:"documents_links,omitempty" yaml:"documents_links,omitempty"`
	DocumentsFiles    []DocumentFile    `json:"documents_files" yaml:"documents_files,omitempty"`
	Contacts          []Contact         `json:"contacts" yaml:"contacts,omitempty"`
	Favorite          bool              `json:"favorite" yaml:"favorite,omitempty"`
	CreatedBy         string            `json:"created_by,omitempty" yaml:"created_by,omitempty"`
	Properties        map[string]string `json:"properties" yaml:"properties,omitempty"`
	CreatedAt         *time.Time        `json:"created_at,omitempty" yaml:"created_at,omitempty"`
	UpdatedAt         *time.Time        `json:"updated_at,omitempty" yaml:"updated_at,omitempty"`
	LastViewed        *time.Time        `json:"last_viewed,omitempty" yaml:"last_viewed,omitempty"`
}

// Order returns the pipeline order and whether it is set
func (r Record) Order() (int, bool) {
	if r.PipelineOrder == nil {
		return 0, false
	}
	return *r.PipelineOrder, true
}

// Property returns a custom property value, empty when unset
func (r Record) Property(key string) string {
	if r.Properties == nil {
		return ""
	}
	return r.Properties[key]
}

// Clone returns a deep copy so cached records can be mutated optimistically
// without aliasing slices held by callers.
func (r Record) Clone() Record {
	out := r
	if r.PipelineOrder != nil {
		v := *r.PipelineOrder
		out.PipelineOrder = &v
	}
	out.TodoItems = append([]TodoItem(nil), r.TodoItems...)
	out.DocumentsFiles = append([]DocumentFile(nil), r.DocumentsFiles...)
	out.Contacts = append([]Contact(nil), r.Contacts...)
	if r.Properties != nil {
		out.Properties = make(map[string]string, len(r.Properties))
		for k, v := range r.Properties {
			out.Properties[k] = v
		}
	}
	return out
}

// Patch is a partial record update keyed by JSON field name. The "properties"
// entry is merged key by key instead of replacing the whole map.
type Patch map[string]any

// IntPtr is a small helper for building patches and records
func IntPtr(v int) *int {
	return &v
}

// SetProperty adds a custom property write to the patch
func (p Patch) SetProperty(key, value string) Patch {
	props, _ := p["properties"].(map[string]string)
	if props == nil {
		props = make(map[string]string)
	}
	props[key] = value
	p["properties"] = props
	return p
}

// ApplyPatch overlays patch onto rec and returns the result. Unknown fields are
// ignored, mirroring the persistence layer's partial update semantics.
func ApplyPatch(rec Record, patch Patch) (Record, error) {
	if len(patch) == 0 {
		return rec.Clone(), nil
	}

	base, err := json.Marshal(rec)
	if err != nil {
		return Record{}, err
	}
	var fields map[string]any
	if err := json.Unmarshal(base, &fields); err != nil {
		return Record{}, err
	}

	for key, value := range patch {
		if key == "id" || key == "application_id" {
			continue
		}
		if key == "properties" {
			merged := rec.Clone().Properties
			if merged == nil {
				merged = make(map[string]string)
			}
			switch props := value.(type) {
			case map[string]string:
				for k, v := range props {
					merged[k] = v
				}
			case map[string]any:
				for k, v := range props {
					if v == nil {
						merged[k] = ""
						continue
					}
					merged[k] = fmt.Sprint(v)
				}
			default:
				return Record{}, fmt.Errorf("properties patch must be a map, got %T", value)
			}
			fields[key] = merged
			continue
		}
		fields[key] = value
	}

	data, err := json.Marshal(fields)
	if err != nil {
		return Record{}, err
	}
	var out Record
	if err := json.Unmarshal(data, &out); err != nil {
		return Record{}, fmt.Errorf("invalid patch: %w", err)
	}
	return out, nil
}
