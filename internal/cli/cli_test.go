package cli

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"jobtrack/internal/records/models"
	"jobtrack/internal/session"
	"jobtrack/internal/store/service"
)

func newSession(t *testing.T) *session.Session {
	t.Helper()
	svc, err := service.New(t.TempDir())
	if err != nil {
		t.Fatalf("service: %v", err)
	}
	sess := session.New(svc, session.Options{})
	if err := sess.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	return sess
}

func exec(t *testing.T, sess *session.Session, args ...string) (int, string, string) {
	t.Helper()
	return execIn(t, sess, "", args...)
}

// execIn runs a command with dataDir as the data directory and a fixed clock
func execIn(t *testing.T, sess *session.Session, dataDir string, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := &command{
		ctx:     context.Background(),
		sess:    sess,
		dataDir: dataDir,
		now:     func() time.Time { return time.Date(2024, 4, 1, 8, 0, 0, 0, time.UTC) },
		out:     &stdout,
		errOut:  &stderr,
	}
	code := run(cmd, args)
	return code, stdout.String(), stderr.String()
}

func TestAddAndList(t *testing.T) {
	sess := newSession(t)

	code, out, errOut := exec(t, sess, "add", "--company", "Acme", "--position", "Backend Engineer", "--stage", "hr")
	if code != 0 {
		t.Fatalf("add failed: %s", errOut)
	}
	if !strings.Contains(out, "Added: Acme - Backend Engineer [HR]") {
		t.Errorf("unexpected add output: %q", out)
	}

	exec(t, sess, "add", "--company", "Globex", "--position", "SRE")

	code, out, _ = exec(t, sess, "ls")
	if code != 0 {
		t.Fatalf("ls exit code %d", code)
	}
	for _, want := range []string{"Acme", "Globex", "2 application(s)"} {
		if !strings.Contains(out, want) {
			t.Errorf("ls output missing %q:\n%s", want, out)
		}
	}
}

func TestAddRequiresCompany(t *testing.T) {
	sess := newSession(t)

	code, _, errOut := exec(t, sess, "add", "--position", "SRE")
	if code != 1 {
		t.Errorf("expected exit code 1, got %d", code)
	}
	if !strings.Contains(errOut, "Company is required") {
		t.Errorf("unexpected error output: %q", errOut)
	}
	if len(sess.Records()) != 0 {
		t.Error("expected no record to be created")
	}
}

func TestListSearchAndFilter(t *testing.T) {
	sess := newSession(t)
	exec(t, sess, "add", "--company", "Acme", "--position", "Backend", "--stage", "Technical")
	exec(t, sess, "add", "--company", "Globex", "--position", "Frontend")

	_, out, _ := exec(t, sess, "ls", "--search", "globex")
	if strings.Contains(out, "Acme") || !strings.Contains(out, "Globex") {
		t.Errorf("search did not narrow rows:\n%s", out)
	}

	_, out, _ = exec(t, sess, "ls", "--filter", "stage=tech")
	if !strings.Contains(out, "Acme") || strings.Contains(out, "Globex") {
		t.Errorf("filter did not narrow rows:\n%s", out)
	}

	_, out, _ = exec(t, sess, "ls", "--search", "nobody")
	if !strings.Contains(out, "No applications found.") {
		t.Errorf("expected empty message, got:\n%s", out)
	}
}

func TestListGroupedWithAggregate(t *testing.T) {
	sess := newSession(t)
	exec(t, sess, "add", "--company", "Acme", "--position", "Backend", "--stage", "HR")
	exec(t, sess, "add", "--company", "Initech", "--position", "Backend", "--stage", "HR")
	exec(t, sess, "add", "--company", "Globex", "--position", "Frontend")

	code, out, errOut := exec(t, sess, "ls", "--group", "stage", "--agg", "company_name=count")
	if code != 0 {
		t.Fatalf("ls failed: %s", errOut)
	}
	if !strings.Contains(out, "Stage: HR (2)") || !strings.Contains(out, "Stage: Applied (1)") {
		t.Errorf("missing group headers:\n%s", out)
	}
}

func TestListRejectsBadArguments(t *testing.T) {
	sess := newSession(t)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"unknown filter column", []string{"ls", "--filter", "salary=10"}, `unknown column "salary"`},
		{"malformed filter", []string{"ls", "--filter", "stage"}, "is not col=needle"},
		{"unknown sort column", []string{"ls", "--sort", "salary"}, `unknown column "salary"`},
		{"operator for wrong kind", []string{"ls", "--agg", "company_name=sum"}, "does not apply"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _, errOut := exec(t, sess, tt.args...)
			if code != 1 {
				t.Errorf("expected exit code 1, got %d", code)
			}
			if !strings.Contains(errOut, tt.want) {
				t.Errorf("expected %q in %q", tt.want, errOut)
			}
		})
	}
}

func TestMove(t *testing.T) {
	sess := newSession(t)
	exec(t, sess, "add", "--company", "Acme", "--position", "Backend")
	id := sess.Records()[0].ID

	code, out, errOut := exec(t, sess, "move", fmt.Sprint(id), "final interview")
	if code != 0 {
		t.Fatalf("move failed: %s", errOut)
	}
	if !strings.Contains(out, "Moved: Acme -> Final Interview") {
		t.Errorf("unexpected output: %q", out)
	}
	if rec, _ := sess.Record(id); rec.Stage != "Final Interview" {
		t.Errorf("expected stage Final Interview, got %q", rec.Stage)
	}

	code, _, errOut = exec(t, sess, "move", fmt.Sprint(id), "Nowhere")
	if code != 1 || !strings.Contains(errOut, `unknown stage "Nowhere"`) {
		t.Errorf("expected unknown stage error, got %d %q", code, errOut)
	}

	code, _, errOut = exec(t, sess, "move", "999", "HR")
	if code != 1 || !strings.Contains(errOut, "no application with id 999") {
		t.Errorf("expected not found error, got %d %q", code, errOut)
	}
}

func TestRemove(t *testing.T) {
	sess := newSession(t)
	exec(t, sess, "add", "--company", "Acme", "--position", "Backend")
	exec(t, sess, "add", "--company", "Globex", "--position", "Frontend")
	recs := sess.Records()

	code, out, errOut := exec(t, sess, "rm", fmt.Sprint(recs[0].ID), fmt.Sprint(recs[1].ID))
	if code != 0 {
		t.Fatalf("rm failed: %s", errOut)
	}
	if !strings.Contains(out, "Deleted 2 application(s)") {
		t.Errorf("unexpected output: %q", out)
	}
	if len(sess.Records()) != 0 {
		t.Errorf("expected empty cache, got %d records", len(sess.Records()))
	}

	code, _, _ = exec(t, sess, "rm", "abc")
	if code != 1 {
		t.Errorf("expected exit code 1 for invalid id, got %d", code)
	}
}

func TestProps(t *testing.T) {
	sess := newSession(t)

	code, out, _ := exec(t, sess, "props")
	if code != 0 {
		t.Fatalf("props exit code %d", code)
	}
	for _, want := range []string{"company_name", "Company", "job_description"} {
		if !strings.Contains(out, want) {
			t.Errorf("props output missing %q", want)
		}
	}
}

func TestUnknownCommand(t *testing.T) {
	sess := newSession(t)

	code, _, errOut := exec(t, sess, "frobnicate")
	if code != 1 {
		t.Errorf("expected exit code 1, got %d", code)
	}
	if !strings.Contains(errOut, "Unknown command: frobnicate") {
		t.Errorf("unexpected stderr: %q", errOut)
	}

	code, out, _ := exec(t, sess, "help")
	if code != 0 || !strings.Contains(out, "Usage: jobtrack") {
		t.Errorf("help should print usage, got %d", code)
	}
}

func TestExportCSV(t *testing.T) {
	sess := newSession(t)
	exec(t, sess, "add", "--company", "Acme", "--position", "Engineer")
	exec(t, sess, "add", "--company", "Globex", "--position", "SRE")
	if _, err := sess.UpdateRecord(context.Background(), 2, models.Patch{"favorite": true}); err != nil {
		t.Fatal(err)
	}

	code, out, errOut := exec(t, sess, "export", "csv")
	if code != 0 {
		t.Fatalf("export failed: %s", errOut)
	}
	if !strings.HasPrefix(out, "ID,Application ID,Company,") || !strings.Contains(out, "Acme") {
		t.Errorf("unexpected csv:\n%s", out)
	}

	_, out, _ = exec(t, sess, "export", "csv", "--scope", "favorites")
	if strings.Contains(out, "Acme") || !strings.Contains(out, "Globex") {
		t.Errorf("favorites scope:\n%s", out)
	}

	if code, _, _ := exec(t, sess, "export", "csv", "--scope", "archived"); code != 1 {
		t.Error("unknown scope should fail")
	}
}

func TestExportICSToFile(t *testing.T) {
	sess := newSession(t)
	exec(t, sess, "add", "--company", "Acme", "--position", "Engineer")
	if _, err := sess.UpdateRecord(context.Background(), 1, models.Patch{"interview_datetime": "2024-05-02T14:30"}); err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(t.TempDir(), "cal.ics")
	code, out, errOut := exec(t, sess, "export", "ics", "--id", "1", "-o", path)
	if code != 0 {
		t.Fatalf("export failed: %s", errOut)
	}
	if !strings.Contains(out, "Wrote "+path) {
		t.Errorf("unexpected output %q", out)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"SUMMARY:Interview - Acme - Engineer", "DTSTAMP:20240401T080000Z"} {
		if !strings.Contains(string(data), want) {
			t.Errorf("calendar missing %q", want)
		}
	}

	if code, _, _ := exec(t, sess, "export", "ics", "--id", "9"); code != 1 {
		t.Error("unknown id should fail")
	}
	if code, _, _ := exec(t, sess, "export", "pdf"); code != 1 {
		t.Error("unknown format should fail")
	}
}

func TestBackupRotates(t *testing.T) {
	dataDir := t.TempDir()
	svc, err := service.New(dataDir)
	if err != nil {
		t.Fatal(err)
	}
	sess := session.New(svc, session.Options{})
	if err := sess.Load(context.Background()); err != nil {
		t.Fatal(err)
	}
	exec(t, sess, "add", "--company", "Acme", "--position", "Engineer")

	backups := filepath.Join(dataDir, "backups")
	if err := os.MkdirAll(backups, 0755); err != nil {
		t.Fatal(err)
	}
	for day := 1; day <= 5; day++ {
		name := fmt.Sprintf("jobtrack-backup-202403%02d-000000.zip", day)
		if err := os.WriteFile(filepath.Join(backups, name), nil, 0644); err != nil {
			t.Fatal(err)
		}
	}

	code, out, errOut := execIn(t, sess, dataDir, "backup")
	if code != 0 {
		t.Fatalf("backup failed: %s", errOut)
	}
	if !strings.Contains(out, "jobtrack-backup-20240401-080000.zip") || !strings.Contains(out, "Removed 1 old backup(s)") {
		t.Errorf("unexpected output %q", out)
	}

	entries, _ := os.ReadDir(backups)
	if len(entries) != 5 {
		t.Errorf("kept %d backups, want 5", len(entries))
	}
	if _, err := os.Stat(filepath.Join(backups, "jobtrack-backup-20240301-000000.zip")); !os.IsNotExist(err) {
		t.Error("oldest backup should be pruned")
	}

	zr, err := zip.OpenReader(filepath.Join(backups, "jobtrack-backup-20240401-080000.zip"))
	if err != nil {
		t.Fatal(err)
	}
	defer zr.Close()
	found := false
	for _, f := range zr.File {
		if f.Name == "records/1.md" {
			found = true
		}
	}
	if !found {
		t.Error("archive should contain the record file")
	}
}

func TestBackupNeedsDestination(t *testing.T) {
	sess := newSession(t)
	if code, _, errOut := exec(t, sess, "backup"); code != 1 || !strings.Contains(errOut, "--output") {
		t.Errorf("backup without data dir: %d %q", code, errOut)
	}

	path := filepath.Join(t.TempDir(), "out", "snapshot.zip")
	if code, _, errOut := exec(t, sess, "backup", "-o", path); code != 0 {
		t.Fatalf("backup -o failed: %s", errOut)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("archive not written: %v", err)
	}
}
