package service

import (
	"context"
	"io"
	"path/filepath"

	"jobtrack/internal/store/fs"
)

// Backup writes a zip of settings, records and uploads to w. Writers are
// held off until the archive is complete.
func (s *Service) Backup(ctx context.Context, w io.Writer) error {
	s.settingsMu.Lock()
	defer s.settingsMu.Unlock()
	s.mu.Lock()
	defer s.mu.Unlock()

	return fs.WriteArchive(ctx, w, s.dataDir,
		filepath.Base(s.settingsPath),
		filepath.Base(s.recordsDir),
		filepath.Base(s.uploadsDir),
	)
}
