// Package fs reads and writes the local data directory: one markdown file per
// record, the settings document and uploaded files.
package fs

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/natefinch/atomic"
	"gopkg.in/yaml.v3"

	"jobtrack/internal/logs"
	"jobtrack/internal/records/models"
)

// RecordPath is the file of record id inside dir
func RecordPath(dir string, id int64) string {
	return filepath.Join(dir, strconv.FormatInt(id, 10)+".md")
}

// ReadRecord reads a record file: YAML frontmatter for the fields, the
// markdown body for the notes
func ReadRecord(path string) (models.Record, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return models.Record{}, err
	}
	return ParseRecord(content)
}

// ParseRecord decodes the contents of a record file
func ParseRecord(content []byte) (models.Record, error) {
	front, body, ok := splitFrontmatter(content)
	if !ok {
		return models.Record{}, fmt.Errorf("record file has no frontmatter")
	}

	var rec models.Record
	if err := yaml.Unmarshal(front, &rec); err != nil {
		return models.Record{}, fmt.Errorf("parse frontmatter: %w", err)
	}
	if rec.ID == 0 {
		return models.Record{}, fmt.Errorf("record file has no id")
	}
	rec.Notes = strings.TrimSpace(string(body))
	return rec, nil
}

// splitFrontmatter returns the YAML between the leading --- fences and the
// rest of the file
func splitFrontmatter(content []byte) ([]byte, []byte, bool) {
	lines := bytes.Split(content, []byte("\n"))

	if len(lines) == 0 || !bytes.Equal(bytes.TrimSpace(lines[0]), []byte("---")) {
		return nil, content, false
	}

	var end int
	for i := 1; i < len(lines); i++ {
		if bytes.Equal(bytes.TrimSpace(lines[i]), []byte("---")) {
			end = i
			break
		}
	}
	if end == 0 {
		return nil, content, false
	}

	front := bytes.Join(lines[1:end], []byte("\n"))
	body := bytes.Join(lines[end+1:], []byte("\n"))
	return front, body, true
}

// FormatRecord encodes a record as a markdown file
func FormatRecord(rec models.Record) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString("---\n")
	yamlBytes, err := yaml.Marshal(rec)
	if err != nil {
		return nil, err
	}
	buf.Write(yamlBytes)
	buf.WriteString("---\n")

	if notes := strings.TrimSpace(rec.Notes); notes != "" {
		buf.WriteString("\n")
		buf.WriteString(notes)
		buf.WriteString("\n")
	}
	return buf.Bytes(), nil
}

// WriteRecord replaces the record file atomically
func WriteRecord(dir string, rec models.Record) error {
	data, err := FormatRecord(rec)
	if err != nil {
		return err
	}
	return atomic.WriteFile(RecordPath(dir, rec.ID), bytes.NewReader(data))
}

// RemoveRecord deletes the record file. A missing file is not an error.
func RemoveRecord(dir string, id int64) error {
	err := os.Remove(RecordPath(dir, id))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// ScanRecords reads every record file in dir, sorted by id. Unreadable files
// are logged and skipped.
func ScanRecords(dir string) ([]models.Record, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var out []models.Record
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".md") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		rec, err := ReadRecord(path)
		if err != nil {
			logs.Logger.Printf("Skipping record file %s: %v", path, err)
			continue
		}
		out = append(out, rec)
	}
	slices.SortFunc(out, func(a, b models.Record) int {
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return 0
	})
	return out, nil
}
