package schema

import (
	"encoding/json"
	"strings"

	"github.com/google/uuid"

	"jobtrack/internal/records/models"
)

// Link is one entry of a links value
type Link struct {
	Label string `json:"label,omitempty"`
	URL   string `json:"url"`
}

// Name is the label, falling back to the url
func (l Link) Name() string {
	if strings.TrimSpace(l.Label) != "" {
		return strings.TrimSpace(l.Label)
	}
	return strings.TrimSpace(l.URL)
}

// ParseContacts decodes a serialized contacts value. Entries without a name
// are dropped and malformed input yields an empty list.
func ParseContacts(raw string) []models.Contact {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	var decoded []models.Contact
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		return nil
	}
	return cleanContacts(decoded)
}

// EncodeContacts serializes contacts; an empty list encodes to ""
func EncodeContacts(contacts []models.Contact) string {
	contacts = cleanContacts(contacts)
	if len(contacts) == 0 {
		return ""
	}
	data, err := json.Marshal(contacts)
	if err != nil {
		return ""
	}
	return string(data)
}

func cleanContacts(in []models.Contact) []models.Contact {
	var out []models.Contact
	for _, c := range in {
		c.Name = strings.TrimSpace(c.Name)
		if c.Name == "" {
			continue
		}
		c.Email = strings.TrimSpace(c.Email)
		c.Phone = strings.TrimSpace(c.Phone)
		c.Information = strings.TrimSpace(c.Information)
		out = append(out, c)
	}
	return out
}

// AssignContactIDs gives every contact without an id a fresh one. Parsing and
// encoding never invent ids, so the same value always serializes the same way.
func AssignContactIDs(contacts []models.Contact) []models.Contact {
	out := make([]models.Contact, len(contacts))
	for i, c := range contacts {
		if c.ID == "" {
			c.ID = uuid.NewString()
		}
		out[i] = c
	}
	return out
}

// SameContacts compares two lists field by field, ignoring ids
func SameContacts(a, b []models.Contact) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		x, y := a[i], b[i]
		x.ID, y.ID = "", ""
		if x != y {
			return false
		}
	}
	return true
}

// ParseContactLines reads the editor syntax: one contact per line (or per
// ";"), fields "name|email|phone|information". A backslash escapes the
// separators, itself, and "\n" stands for a newline inside a field.
func ParseContactLines(input string) []models.Contact {
	var out []models.Contact
	for _, entry := range splitEscaped(input, ";\n") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		fields := splitEscaped(entry, "|")
		for len(fields) < 4 {
			fields = append(fields, "")
		}
		c := models.Contact{
			Name:        unescapeField(fields[0]),
			Email:       unescapeField(fields[1]),
			Phone:       unescapeField(fields[2]),
			Information: unescapeField(strings.Join(fields[3:], "|")),
		}
		if c.Name == "" {
			continue
		}
		out = append(out, c)
	}
	return out
}

// FormatContactLines renders contacts in the editor syntax. ParseContactLines
// reads the result back to the same contacts.
func FormatContactLines(contacts []models.Contact) string {
	lines := make([]string, len(contacts))
	for i, c := range contacts {
		fields := []string{c.Name, c.Email, c.Phone, c.Information}
		for len(fields) > 1 && strings.TrimSpace(fields[len(fields)-1]) == "" {
			fields = fields[:len(fields)-1]
		}
		for j, f := range fields {
			fields[j] = escapeField(strings.TrimSpace(f), ";|")
		}
		lines[i] = strings.Join(fields, "|")
	}
	return strings.Join(lines, "; ")
}

// ParseLinks decodes a serialized links value, dropping entries without a url
func ParseLinks(raw string) []Link {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	var decoded []Link
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		return nil
	}
	return cleanLinks(decoded)
}

// EncodeLinks serializes links; an empty list encodes to ""
func EncodeLinks(links []Link) string {
	links = cleanLinks(links)
	if len(links) == 0 {
		return ""
	}
	data, err := json.Marshal(links)
	if err != nil {
		return ""
	}
	return string(data)
}

func cleanLinks(in []Link) []Link {
	var out []Link
	for _, l := range in {
		l.URL = strings.TrimSpace(l.URL)
		l.Label = strings.TrimSpace(l.Label)
		if l.URL == "" {
			continue
		}
		out = append(out, l)
	}
	return out
}

// ParseLinkLines reads the editor syntax: entries separated by newlines or
// commas, each "url" or "label=url". Backslash escapes work as in
// ParseContactLines. An unescaped "=" before "://" belongs to the url.
func ParseLinkLines(input string) []Link {
	var out []Link
	for _, entry := range splitEscaped(input, ",\n") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		label, url := "", entry
		if parts := splitEscapedN(entry, "=", 2); len(parts) == 2 && !strings.Contains(parts[0], "://") {
			label, url = parts[0], parts[1]
		}
		out = append(out, Link{Label: unescapeField(label), URL: unescapeField(url)})
	}
	return cleanLinks(out)
}

// FormatLinkLines renders links in the editor syntax. ParseLinkLines reads
// the result back to the same links.
func FormatLinkLines(links []Link) string {
	parts := make([]string, len(links))
	for i, l := range links {
		if l.Label != "" {
			// everything after the first "=" is url
			label := strings.ReplaceAll(escapeField(l.Label, ",="), "://", `:\//`)
			parts[i] = label + "=" + escapeField(l.URL, ",")
		} else {
			parts[i] = escapeField(l.URL, ",=")
		}
	}
	return strings.Join(parts, ", ")
}

// ParseDocuments decodes a serialized documents value, dropping entries
// without id or name.
func ParseDocuments(raw string) []models.DocumentFile {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	var decoded []models.DocumentFile
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		return nil
	}
	var out []models.DocumentFile
	for _, d := range decoded {
		if d.ID == "" || strings.TrimSpace(d.Name) == "" {
			continue
		}
		out = append(out, d)
	}
	return out
}

// EncodeDocuments serializes documents; an empty list encodes to ""
func EncodeDocuments(docs []models.DocumentFile) string {
	if len(docs) == 0 {
		return ""
	}
	data, err := json.Marshal(docs)
	if err != nil {
		return ""
	}
	return string(data)
}

func escapeField(s, seps string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r == '\\' || strings.ContainsRune(seps, r):
			b.WriteByte('\\')
			b.WriteRune(r)
		case r == '\n':
			b.WriteString(`\n`)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// unescapeField resolves escapes and trims. Unknown escapes keep their
// backslash so pasted paths survive.
func unescapeField(s string) string {
	if !strings.Contains(s, `\`) {
		return strings.TrimSpace(s)
	}
	var b strings.Builder
	rs := []rune(s)
	for i := 0; i < len(rs); i++ {
		if rs[i] != '\\' || i == len(rs)-1 {
			b.WriteRune(rs[i])
			continue
		}
		i++
		switch next := rs[i]; next {
		case 'n':
			b.WriteByte('\n')
		case '\\', ';', '|', ',', '=', '/':
			b.WriteRune(next)
		default:
			b.WriteByte('\\')
			b.WriteRune(next)
		}
	}
	return strings.TrimSpace(b.String())
}

// splitEscaped splits on any unescaped rune of seps. Escapes are kept so the
// parts can be split again before unescapeField.
func splitEscaped(s, seps string) []string {
	return splitEscapedN(s, seps, -1)
}

func splitEscapedN(s, seps string, n int) []string {
	var out []string
	var cur strings.Builder
	rs := []rune(s)
	for i := 0; i < len(rs); i++ {
		r := rs[i]
		if r == '\\' && i+1 < len(rs) {
			cur.WriteRune(r)
			cur.WriteRune(rs[i+1])
			i++
			continue
		}
		if strings.ContainsRune(seps, r) && (n < 0 || len(out) < n-1) {
			out = append(out, cur.String())
			cur.Reset()
			continue
		}
		cur.WriteRune(r)
	}
	return append(out, cur.String())
}
