// Package schema describes the table columns, their kinds and how each kind
// is serialized, parsed and projected to a comparable string.
package schema

import (
	"math"
	"strconv"
	"strings"
	"time"

	"jobtrack/internal/api"
	"jobtrack/internal/records/models"
)

// Kind is the type tag of a column
type Kind string

const (
	KindText      Kind = "text"
	KindNumber    Kind = "number"
	KindDate      Kind = "date"
	KindDatetime  Kind = "datetime"
	KindCheckbox  Kind = "checkbox"
	KindRating    Kind = "rating"
	KindSelect    Kind = "select"
	KindContacts  Kind = "contacts"
	KindLinks     Kind = "links"
	KindDocuments Kind = "documents"
)

// EmptyGroup is the group key used for empty projections
const EmptyGroup = "(empty)"

const (
	dateLayout     = "2006-01-02"
	datetimeLayout = "2006-01-02T15:04"
	maxRating      = 5
)

// kindSpec holds the per-kind behavior. Every type-aware decision in the grid
// goes through this table.
type kindSpec struct {
	project   func(raw string) string
	normalize func(col Column, input string) (string, error)
	numeric   bool
	temporal  bool
	boolean   bool
	multi     bool
}

var kinds = map[Kind]kindSpec{
	KindText: {
		project:   strings.TrimSpace,
		normalize: normalizeText,
	},
	KindNumber: {
		project:   strings.TrimSpace,
		normalize: normalizeNumber,
		numeric:   true,
	},
	KindRating: {
		project:   strings.TrimSpace,
		normalize: normalizeRating,
		numeric:   true,
	},
	KindDate: {
		project:   strings.TrimSpace,
		normalize: normalizeDate,
		temporal:  true,
	},
	KindDatetime: {
		project:   strings.TrimSpace,
		normalize: normalizeDatetime,
		temporal:  true,
	},
	KindCheckbox: {
		// unset reads as "No", so a checkbox is never empty
		project: func(raw string) string {
			if IsChecked(raw) {
				return "Yes"
			}
			return "No"
		},
		normalize: normalizeCheckbox,
		boolean:   true,
	},
	KindSelect: {
		project:   strings.TrimSpace,
		normalize: normalizeSelect,
	},
	KindContacts: {
		project: func(raw string) string {
			contacts := ParseContacts(raw)
			names := make([]string, len(contacts))
			for i, c := range contacts {
				names[i] = c.Name
			}
			return strings.Join(names, " | ")
		},
		normalize: normalizeContacts,
		multi:     true,
	},
	KindLinks: {
		project: func(raw string) string {
			links := ParseLinks(raw)
			names := make([]string, len(links))
			for i, l := range links {
				names[i] = l.Name()
			}
			return strings.Join(names, " | ")
		},
		normalize: normalizeLinks,
		multi:     true,
	},
	KindDocuments: {
		project: func(raw string) string {
			docs := ParseDocuments(raw)
			names := make([]string, len(docs))
			for i, d := range docs {
				names[i] = d.Name
			}
			return strings.Join(names, " | ")
		},
		normalize: func(col Column, input string) (string, error) {
			return "", api.Invalid(col.Key, "documents are managed through uploads")
		},
		multi: true,
	},
}

func spec(k Kind) kindSpec {
	if s, ok := kinds[k]; ok {
		return s
	}
	return kinds[KindText]
}

// Valid reports whether k is a known kind
func (k Kind) Valid() bool {
	_, ok := kinds[k]
	return ok
}

// IsNumeric reports number-like kinds (number, rating)
func (k Kind) IsNumeric() bool { return spec(k).numeric }

// IsTemporal reports date-like kinds
func (k Kind) IsTemporal() bool { return spec(k).temporal }

// IsBoolean reports the checkbox kind
func (k Kind) IsBoolean() bool { return spec(k).boolean }

// IsMulti reports list-valued kinds (contacts, links, documents)
func (k Kind) IsMulti() bool { return spec(k).multi }

// IsSelectLike reports kinds backed by an option vocabulary
func (k Kind) IsSelectLike() bool { return k == KindSelect }

// KindOf maps a custom property type to its column kind
func KindOf(t models.PropertyType) Kind {
	k := Kind(t)
	if !k.Valid() || k == KindDatetime {
		return KindText
	}
	return k
}

// Project renders a serialized value as the string used for search, filter,
// sort and group comparisons.
func Project(k Kind, raw string) string {
	return spec(k).project(raw)
}

// NumericValue parses a serialized numeric value
func NumericValue(raw string) (float64, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// DateMillis returns the epoch milliseconds of a serialized date, 0 when
// absent or unparseable.
func DateMillis(raw string) int64 {
	t, ok := models.ParseTimestamp(raw)
	if !ok {
		return 0
	}
	return t.UnixMilli()
}

// IsChecked reports whether a serialized checkbox value is true
func IsChecked(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "true", "1", "yes", "y", "x", "on":
		return true
	}
	return false
}

// FormatNumber renders a float in its shortest decimal form
func FormatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func normalizeText(col Column, input string) (string, error) {
	out := strings.TrimSpace(input)
	if col.Required && out == "" {
		return "", api.Invalid(col.Key, "%s is required", col.Label)
	}
	return out, nil
}

func normalizeNumber(col Column, input string) (string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", nil
	}
	v, ok := NumericValue(input)
	if !ok {
		return "", api.Invalid(col.Key, "%q is not a number", input)
	}
	if col.field == fieldInt && v != math.Trunc(v) {
		return "", api.Invalid(col.Key, "%q is not a whole number", input)
	}
	return FormatNumber(v), nil
}

func normalizeRating(col Column, input string) (string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", nil
	}
	v, err := strconv.Atoi(input)
	if err != nil || v < 0 || v > maxRating {
		return "", api.Invalid(col.Key, "rating must be a whole number between 0 and %d", maxRating)
	}
	return strconv.Itoa(v), nil
}

func normalizeDate(col Column, input string) (string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", nil
	}
	t, err := time.Parse(dateLayout, input)
	if err != nil {
		return "", api.Invalid(col.Key, "%q is not a date (yyyy-mm-dd)", input)
	}
	return t.Format(dateLayout), nil
}

func normalizeDatetime(col Column, input string) (string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", nil
	}
	for _, layout := range []string{datetimeLayout, "2006-01-02 15:04", "2006-01-02T15:04:05", dateLayout} {
		if t, err := time.Parse(layout, input); err == nil {
			return t.Format(datetimeLayout), nil
		}
	}
	return "", api.Invalid(col.Key, "%q is not a date and time (yyyy-mm-ddThh:mm)", input)
}

func normalizeCheckbox(col Column, input string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "true", "1", "yes", "y", "x", "on":
		return "true", nil
	case "false", "0", "no", "n", "off", "":
		return "false", nil
	}
	return "", api.Invalid(col.Key, "%q is not a checkbox value", input)
}

func normalizeSelect(col Column, input string) (string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		if col.Required {
			return "", api.Invalid(col.Key, "%s is required", col.Label)
		}
		return "", nil
	}
	if opt, ok := FindOption(col.Options, input); ok {
		return opt.Label, nil
	}
	return "", api.Invalid(col.Key, "%q is not one of the options", input)
}

func normalizeContacts(col Column, input string) (string, error) {
	return EncodeContacts(ParseContactLines(input)), nil
}

func normalizeLinks(col Column, input string) (string, error) {
	return EncodeLinks(ParseLinkLines(input)), nil
}
