package cli

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/natefinch/atomic"

	"jobtrack/internal/export"
	"jobtrack/internal/records/models"
	"jobtrack/internal/store/fs"
)

const (
	backupPrefix = "jobtrack-backup-"
	backupKeep   = 5
)

func (c *command) export(args []string) int {
	if len(args) == 0 {
		fmt.Fprintln(c.errOut, "Usage: jobtrack export ics|csv [-o file]")
		return 1
	}
	format, args := args[0], args[1:]

	fset := c.flagSet("export " + format)
	outPath := fset.StringP("output", "o", "", "Write to file instead of stdout")
	var (
		id    *int64
		scope *string
	)
	switch format {
	case "ics":
		id = fset.Int64("id", 0, "Only this application")
	case "csv":
		scope = fset.String("scope", string(export.ScopeAll), "Records to include: all, favorites, active")
	default:
		return c.fail("unknown export format %q (ics, csv)", format)
	}
	if err := fset.Parse(args); err != nil {
		return 1
	}

	var buf bytes.Buffer
	switch format {
	case "ics":
		records := c.sess.Records()
		if *id != 0 {
			rec, ok := c.sess.Record(*id)
			if !ok {
				return c.fail("no application with id %d", *id)
			}
			records = []models.Record{rec}
		}
		var events []export.Event
		for _, rec := range records {
			events = append(events, export.Events(rec)...)
		}
		if err := export.WriteICS(&buf, events, c.now()); err != nil {
			return c.fail("%v", err)
		}
	case "csv":
		sc, err := export.ParseScope(*scope)
		if err != nil {
			return c.fail("%v", err)
		}
		if err := export.WriteCSV(&buf, c.sess.Records(), c.sess.Settings(), sc); err != nil {
			return c.fail("%v", err)
		}
	}
	return c.emit(*outPath, &buf)
}

// emit writes the export to path, or stdout when path is empty
func (c *command) emit(path string, r io.Reader) int {
	if path == "" || path == "-" {
		if _, err := io.Copy(c.out, r); err != nil {
			return c.fail("%v", err)
		}
		return 0
	}
	if err := atomic.WriteFile(path, r); err != nil {
		return c.fail("%v", err)
	}
	fmt.Fprintf(c.out, "Wrote %s\n", path)
	return 0
}

func (c *command) backup(args []string) int {
	fset := c.flagSet("backup")
	outPath := fset.StringP("output", "o", "", "Archive path (default: <data-dir>/backups)")
	if err := fset.Parse(args); err != nil {
		return 1
	}

	path := *outPath
	rotate := path == ""
	if rotate {
		if c.dataDir == "" {
			return c.fail("no data directory, pass --output")
		}
		path = filepath.Join(c.dataDir, "backups", backupPrefix+c.now().Format("20060102-150405")+".zip")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return c.fail("%v", err)
	}

	var buf bytes.Buffer
	if err := c.sess.Backup(c.ctx, &buf); err != nil {
		return c.fail("backup: %v", err)
	}
	size := buf.Len()
	if err := atomic.WriteFile(path, &buf); err != nil {
		return c.fail("%v", err)
	}
	fmt.Fprintf(c.out, "Wrote %s (%s)\n", path, humanize.Bytes(uint64(size)))

	if rotate {
		removed, err := fs.PruneArchives(filepath.Dir(path), backupPrefix, backupKeep)
		if err != nil {
			fmt.Fprintf(c.errOut, "Warning: could not prune old backups: %v\n", err)
		}
		if len(removed) > 0 {
			fmt.Fprintf(c.out, "Removed %d old backup(s)\n", len(removed))
		}
	}
	return 0
}
