package schema

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"jobtrack/internal/api"
	"jobtrack/internal/records/models"
)

func testSettings() models.Settings {
	s := models.DefaultSettings()
	s.CustomProperties = []models.CustomProperty{
		{Key: "prop_referral", Name: "Referral", Type: models.PropertySelect, Options: []models.Option{
			{Label: "Friend", Color: "#fff"},
			{Label: "Recruiter"},
		}},
		{Key: "prop_salary", Name: "Salary", Type: models.PropertyNumber},
		{Key: "prop_people", Name: "People", Type: models.PropertyContacts},
		{Key: "prop_remote", Name: "Remote", Type: models.PropertyCheckbox},
	}
	return s
}

func TestContactsRoundTrip(t *testing.T) {
	original := []models.Contact{
		{ID: "a", Name: "Ada Lovelace", Email: "ada@example.com", Phone: "123", Information: "hiring manager"},
		{ID: "b", Name: "   ", Email: "ghost@example.com"},
		{ID: "c", Name: "Grace", Information: "recruiter"},
	}

	parsed := ParseContacts(EncodeContacts(original))

	want := []models.Contact{original[0], original[2]}
	ignoreID := cmpopts.IgnoreFields(models.Contact{}, "ID")
	if diff := cmp.Diff(want, parsed, ignoreID); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestParseContactsMalformed(t *testing.T) {
	for _, raw := range []string{"", "not json", "{\"name\":\"x\"}"} {
		if got := ParseContacts(raw); len(got) != 0 {
			t.Errorf("ParseContacts(%q) = %v, want empty", raw, got)
		}
	}
}

func TestContactsEncodeIsStable(t *testing.T) {
	raw := `[{"name":"Bob","email":"b@x.io"}]`
	first := EncodeContacts(ParseContacts(raw))
	if second := EncodeContacts(ParseContacts(raw)); first != second {
		t.Fatalf("encoding differs between calls:\n%s\n%s", first, second)
	}
	if parsed := ParseContacts(first); parsed[0].ID != "" {
		t.Errorf("encoding invented id %q", parsed[0].ID)
	}

	col, _ := NewCatalog(testSettings()).Column("contacts")
	rec := models.Record{Contacts: []models.Contact{{Name: "Bob"}, {Name: "Ada", Phone: "1"}}}
	if a, b := col.Raw(rec), col.Raw(rec); a != b {
		t.Errorf("Raw is not deterministic: %s vs %s", a, b)
	}
}

func TestAssignContactIDs(t *testing.T) {
	got := AssignContactIDs([]models.Contact{{ID: "keep", Name: "Ada"}, {Name: "Bob"}})
	if got[0].ID != "keep" || got[1].ID == "" {
		t.Fatalf("AssignContactIDs = %+v", got)
	}
	if !SameContacts(got, []models.Contact{{Name: "Ada"}, {ID: "other", Name: "Bob"}}) {
		t.Error("SameContacts should ignore ids")
	}
	if SameContacts(got, []models.Contact{{Name: "Ada"}}) {
		t.Error("SameContacts with different lengths")
	}
}

func TestContactLinesRoundTripSeparators(t *testing.T) {
	contacts := []models.Contact{
		{Name: "Ada; Lovelace|Byron", Email: "ada|x@example.com", Phone: "+1;2|3", Information: "Met at conf; follow up | twice"},
		{Name: `C:\path\n`, Information: "line one\nline two"},
		{Name: "Grace", Information: `trailing \`},
		{Name: "Plain"},
	}
	got := ParseContactLines(FormatContactLines(contacts))
	if diff := cmp.Diff(contacts, got); diff != "" {
		t.Errorf("contact lines round trip (-want +got):\n%s", diff)
	}

	// unknown escapes keep their backslash
	if got := ParseContactLines(`Ada|||C:\temp`); got[0].Information != `C:\temp` {
		t.Errorf("information = %q", got[0].Information)
	}
}

func TestLinkLinesRoundTripSeparators(t *testing.T) {
	links := []Link{
		{Label: "Post, with=signs", URL: "https://example.com/q?a=1,2&b=3"},
		{URL: "https://example.com/list?ids=4,5"},
		{URL: "example.com/?x=y"},
		{Label: "see https://example.com", URL: "https://example.com/"},
		{Label: `back\slash`, URL: `https://example.com/a\b`},
	}
	got := ParseLinkLines(FormatLinkLines(links))
	if diff := cmp.Diff(links, got); diff != "" {
		t.Errorf("link lines round trip (-want +got):\n%s", diff)
	}
}

func TestContactLines(t *testing.T) {
	got := ParseContactLines("Ada|ada@example.com|123|lead; |nobody@example.com\nGrace")
	want := []models.Contact{
		{Name: "Ada", Email: "ada@example.com", Phone: "123", Information: "lead"},
		{Name: "Grace"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ParseContactLines mismatch (-want +got):\n%s", diff)
	}
	if line := FormatContactLines(got); line != "Ada|ada@example.com|123|lead; Grace" {
		t.Errorf("FormatContactLines = %q", line)
	}
}

func TestLinkLines(t *testing.T) {
	got := ParseLinkLines("Posting=https://jobs.example.com/1, https://example.com/?a=b\n\n")
	want := []Link{
		{Label: "Posting", URL: "https://jobs.example.com/1"},
		{URL: "https://example.com/?a=b"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ParseLinkLines mismatch (-want +got):\n%s", diff)
	}
	if p := Project(KindLinks, EncodeLinks(got)); p != "Posting | https://example.com/?a=b" {
		t.Errorf("links projection = %q", p)
	}
}

func TestProjections(t *testing.T) {
	tests := []struct {
		name string
		kind Kind
		raw  string
		want string
	}{
		{"text trims", KindText, "  Acme  ", "Acme"},
		{"checkbox true", KindCheckbox, "true", "Yes"},
		{"checkbox empty", KindCheckbox, "", "No"},
		{"select label", KindSelect, "Offer", "Offer"},
		{"contacts names", KindContacts, `[{"name":"Ada"},{"name":""},{"name":"Grace"}]`, "Ada | Grace"},
		{"documents names", KindDocuments, `[{"id":"1","name":"cv.pdf"},{"id":"","name":"x"}]`, "cv.pdf"},
		{"unknown kind as text", Kind("mystery"), " v ", "v"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Project(tt.kind, tt.raw); got != tt.want {
				t.Errorf("Project(%s, %q) = %q, want %q", tt.kind, tt.raw, got, tt.want)
			}
		})
	}
}

func TestDateMillis(t *testing.T) {
	if DateMillis("") != 0 || DateMillis("soon") != 0 {
		t.Error("absent or unparseable dates should be 0")
	}
	if DateMillis("2024-01-02") >= DateMillis("2024-01-02T09:30") {
		t.Error("date should sort before a later time on the same day")
	}
}

func TestCatalogLabelsAndColumns(t *testing.T) {
	s := testSettings()
	s.ColumnLabels = map[string]string{"company_name": "Employer", "prop_salary": "Pay"}
	cat := NewCatalog(s)

	tests := map[string]string{
		"company_name":  "Employer",
		"prop_salary":   "Pay",
		"prop_referral": "Referral",
		"position":      "Position",
	}
	for key, want := range tests {
		col, ok := cat.Column(key)
		if !ok {
			t.Fatalf("column %s missing", key)
		}
		if col.Label != want {
			t.Errorf("label of %s = %q, want %q", key, col.Label, want)
		}
	}

	cols := cat.Columns([]string{"stage", "gone", "prop_remote"})
	if len(cols) != 2 || cols[0].Key != "stage" || cols[1].Kind != KindCheckbox {
		t.Errorf("Columns skipped or mis-resolved keys: %+v", cols)
	}
	stage, _ := cat.Column("stage")
	if len(stage.Options) != len(s.Stages) || stage.Options[1].Color != s.StageColors["Screening"] {
		t.Errorf("stage options not derived from settings: %+v", stage.Options)
	}
}

func TestCatalogProject(t *testing.T) {
	cat := NewCatalog(testSettings())
	rec := models.Record{
		CompanyName:     "Acme",
		Favorite:        true,
		InterviewRounds: models.IntPtr(3),
		Contacts:        []models.Contact{{ID: "1", Name: "Ada"}},
		Properties:      map[string]string{"prop_salary": "1200.50", "prop_remote": "false"},
	}
	tests := map[string]string{
		"company_name":     "Acme",
		"favorite":         "Yes",
		"interview_rounds": "3",
		"contacts":         "Ada",
		"prop_salary":      "1200.50",
		"prop_remote":      "No",
		"prop_deleted":     "",
		"company_score":    "",
	}
	for key, want := range tests {
		if got := cat.Project(rec, key); got != want {
			t.Errorf("Project(%s) = %q, want %q", key, got, want)
		}
	}
}

func TestNormalize(t *testing.T) {
	cat := NewCatalog(testSettings())
	tests := []struct {
		key     string
		input   string
		want    string
		wantErr bool
	}{
		{"company_name", "  Acme ", "Acme", false},
		{"company_name", "  ", "", true},
		{"prop_salary", "1e3", "1000", false},
		{"prop_salary", "abc", "", true},
		{"prop_salary", "", "", false},
		{"interview_rounds", "2.5", "", true},
		{"application_date", "2024-02-30", "", true},
		{"application_date", "2024-02-03", "2024-02-03", false},
		{"interview_datetime", "2024-02-03 10:15", "2024-02-03T10:15", false},
		{"prop_remote", "yes", "true", false},
		{"prop_remote", "maybe", "", true},
		{"prop_referral", "friend", "Friend", false},
		{"prop_referral", "Stranger", "", true},
		{"stage", "", "", true},
		{"prop_people", "Ada|ada@x.io", `"name":"Ada"`, false},
	}
	for _, tt := range tests {
		col, _ := cat.Column(tt.key)
		got, err := col.Normalize(tt.input)
		if tt.wantErr {
			if !api.IsValidation(err) {
				t.Errorf("Normalize(%s, %q) err = %v, want ValidationError", tt.key, tt.input, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("Normalize(%s, %q) unexpected error: %v", tt.key, tt.input, err)
			continue
		}
		if tt.key == "prop_people" {
			if !strings.Contains(got, tt.want) {
				t.Errorf("Normalize(%s) = %q, want it to contain %q", tt.key, got, tt.want)
			}
			continue
		}
		if got != tt.want {
			t.Errorf("Normalize(%s, %q) = %q, want %q", tt.key, tt.input, got, tt.want)
		}
	}
}

func TestRatingNormalize(t *testing.T) {
	col := Column{Key: "r", Kind: KindRating}
	for _, in := range []string{"6", "-1", "2.5", "x"} {
		if _, err := col.Normalize(in); !api.IsValidation(err) {
			t.Errorf("rating %q should be rejected", in)
		}
	}
	if got, err := col.Normalize("5"); err != nil || got != "5" {
		t.Errorf("rating 5 = %q, %v", got, err)
	}
}

func TestColumnPatch(t *testing.T) {
	cat := NewCatalog(testSettings())
	rec := models.Record{ID: 7, CompanyName: "Old"}

	apply := func(key, serialized string) models.Record {
		t.Helper()
		col, _ := cat.Column(key)
		out, err := models.ApplyPatch(rec, col.Patch(serialized))
		if err != nil {
			t.Fatalf("ApplyPatch(%s): %v", key, err)
		}
		return out
	}

	if got := apply("company_name", "New"); got.CompanyName != "New" {
		t.Errorf("company_name = %q", got.CompanyName)
	}
	if got := apply("interview_rounds", "4"); got.InterviewRounds == nil || *got.InterviewRounds != 4 {
		t.Errorf("interview_rounds = %v", got.InterviewRounds)
	}
	if got := apply("interview_rounds", ""); got.InterviewRounds != nil {
		t.Errorf("empty interview_rounds should clear, got %v", *got.InterviewRounds)
	}
	if got := apply("favorite", "true"); !got.Favorite {
		t.Error("favorite not set")
	}
	if got := apply("prop_salary", "99"); got.Property("prop_salary") != "99" {
		t.Errorf("prop_salary = %q", got.Property("prop_salary"))
	}
	if got := apply("contacts", EncodeContacts([]models.Contact{{Name: "Ada"}})); len(got.Contacts) != 1 {
		t.Errorf("contacts = %+v", got.Contacts)
	}
}

func TestRenameOptionRewritesRecords(t *testing.T) {
	cat := NewCatalog(testSettings())
	col, _ := cat.Column("prop_referral")
	records := []models.Record{
		{ID: 1, Properties: map[string]string{"prop_referral": "Friend"}},
		{ID: 2, Properties: map[string]string{"prop_referral": "Recruiter"}},
		{ID: 3, Properties: map[string]string{"prop_referral": "friend "}},
	}

	options, rewrites, err := RenameOption(col, records, "friend", "Former colleague")
	if err != nil {
		t.Fatalf("RenameOption: %v", err)
	}
	if options[0].Label != "Former colleague" || options[0].Color != "#fff" {
		t.Errorf("option not renamed in place: %+v", options)
	}
	if len(rewrites) != 2 || rewrites[0].ID != 1 || rewrites[1].ID != 3 {
		t.Fatalf("rewrites = %+v", rewrites)
	}
	updated, err := models.ApplyPatch(records[2], rewrites[1].Patch)
	if err != nil {
		t.Fatal(err)
	}
	if updated.Property("prop_referral") != "Former colleague" {
		t.Errorf("rewrite produced %q", updated.Property("prop_referral"))
	}

	if _, _, err := RenameOption(col, records, "Friend", "recruiter"); !api.IsValidation(err) {
		t.Errorf("renaming onto an existing label should fail, got %v", err)
	}
	if _, rw, err := RenameOption(col, records, "Friend", "FRIEND"); err != nil || len(rw) != 2 {
		t.Errorf("case-only rename: rewrites=%d err=%v", len(rw), err)
	}
}

func TestVocabularyOps(t *testing.T) {
	opts := []models.Option{{Label: "A"}}
	opts, err := AddOption(opts, " B ", "#123")
	if err != nil || len(opts) != 2 || opts[1].Label != "B" {
		t.Fatalf("AddOption = %+v, %v", opts, err)
	}
	if _, err := AddOption(opts, "b", ""); !api.IsValidation(err) {
		t.Error("duplicate label should be rejected")
	}
	if _, err := AddOption(opts, string(make([]rune, 51)), ""); err == nil {
		t.Error("overlong label should be rejected")
	}
	opts, err = RecolorOption(opts, "a", "#000")
	if err != nil || opts[0].Color != "#000" {
		t.Errorf("RecolorOption = %+v, %v", opts, err)
	}
	opts, err = RemoveOption(opts, "A")
	if err != nil || len(opts) != 1 {
		t.Errorf("RemoveOption = %+v, %v", opts, err)
	}

	s := testSettings()
	if err := SetOptions(&s, "stage", []models.Option{{Label: "Only", Color: "#1"}}); err != nil {
		t.Fatal(err)
	}
	if len(s.Stages) != 1 || s.StageColors["Only"] != "#1" {
		t.Errorf("stage vocabulary not written: %v %v", s.Stages, s.StageColors)
	}
	if err := SetOptions(&s, "company_name", nil); err == nil {
		t.Error("text column should have no vocabulary")
	}
}

func TestNewPropertyKeyUnique(t *testing.T) {
	a, b := NewPropertyKey(), NewPropertyKey()
	if a == b || len(a) < len("prop_")+8 {
		t.Errorf("keys %q and %q", a, b)
	}
}

func TestDraftRecord(t *testing.T) {
	s := testSettings()

	rec, err := DraftRecord(s, map[string]string{
		"company_name": "  Acme ",
		"position":     "Backend",
		"stage":        "technical",
		"prop_salary":  "120000",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.CompanyName != "Acme" || rec.Stage != "Technical" {
		t.Errorf("unexpected record %+v", rec)
	}
	if rec.JobType != s.JobTypes[0] || rec.Outcome != s.Outcomes[0] {
		t.Errorf("expected vocabulary defaults, got %q %q", rec.JobType, rec.Outcome)
	}
	if rec.Property("prop_salary") != "120000" {
		t.Errorf("expected custom property, got %q", rec.Property("prop_salary"))
	}

	_, err = DraftRecord(s, map[string]string{"position": "Backend"})
	if !api.IsValidation(err) {
		t.Errorf("expected validation error for missing company, got %v", err)
	}

	_, err = DraftRecord(s, map[string]string{"company_name": "Acme", "position": "x", "stage": "Nowhere"})
	if !api.IsValidation(err) {
		t.Errorf("expected validation error for unknown stage, got %v", err)
	}
}
