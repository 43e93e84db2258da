package schema

import (
	"jobtrack/internal/records/models"
)

// DraftRecord builds a new record from user input keyed by column. Select
// columns left empty take the first option of their vocabulary. Every value
// goes through its column's normalizer, so the first invalid one is returned
// as a ValidationError.
func DraftRecord(s models.Settings, values map[string]string) (models.Record, error) {
	cat := NewCatalog(s)
	defaults := map[string][]string{
		"stage":    s.Stages,
		"job_type": s.JobTypes,
		"outcome":  s.Outcomes,
	}

	inputs := map[string]string{"company_name": "", "position": ""}
	for k, v := range values {
		inputs[k] = v
	}
	for key, options := range defaults {
		if inputs[key] == "" && len(options) > 0 {
			inputs[key] = options[0]
		}
	}

	patch := models.Patch{}
	for key, input := range inputs {
		col, ok := cat.Column(key)
		if !ok {
			continue
		}
		serialized, err := col.Normalize(input)
		if err != nil {
			return models.Record{}, err
		}
		for k, v := range col.Patch(serialized) {
			if k == "properties" {
				for pk, pv := range v.(map[string]string) {
					patch.SetProperty(pk, pv)
				}
				continue
			}
			patch[k] = v
		}
	}
	return models.ApplyPatch(models.Record{}, patch)
}
