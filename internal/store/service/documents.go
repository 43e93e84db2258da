package service

import (
	"context"
	"fmt"
	"net/url"
	"path/filepath"
	"slices"

	"github.com/google/uuid"

	"jobtrack/internal/api"
	"jobtrack/internal/logs"
	"jobtrack/internal/records/models"
	"jobtrack/internal/store/fs"
)

// UploadDocuments stores files under the record's upload directory and lists
// them on the record. Files without a name are skipped. When ctx ends mid-way
// the files stored by this call are removed again.
func (s *Service) UploadDocuments(ctx context.Context, id int64, files []api.Upload) (models.Record, error) {
	s.mu.Lock()
	_, ok := s.records[id]
	s.mu.Unlock()
	if !ok {
		return models.Record{}, fmt.Errorf("record %d: %w", id, api.ErrNotFound)
	}

	var stored []models.DocumentFile
	for _, f := range files {
		if f.Name == "" {
			continue
		}
		fileID := uuid.NewString()
		size, err := fs.SaveUpload(ctx, s.uploadsDir, id, fileID, f.Body)
		if err != nil {
			for _, done := range stored {
				if rmErr := fs.RemoveUpload(s.uploadsDir, id, done.ID); rmErr != nil {
					logs.Logger.Printf("Failed to remove partial upload %s: %v", done.ID, rmErr)
				}
			}
			return models.Record{}, err
		}
		now := s.now().UTC()
		stored = append(stored, models.DocumentFile{
			ID:          fileID,
			Name:        f.Name,
			Size:        size,
			ContentType: f.ContentType,
			UploadedAt:  &now,
		})
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[id]
	if !ok {
		return models.Record{}, fmt.Errorf("record %d: %w", id, api.ErrNotFound)
	}
	rec = rec.Clone()
	rec.DocumentsFiles = append(rec.DocumentsFiles, stored...)
	return s.saveLocked(rec)
}

// DeleteDocument removes one attached file
func (s *Service) DeleteDocument(ctx context.Context, id int64, fileID string) (models.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[id]
	if !ok {
		return models.Record{}, fmt.Errorf("record %d: %w", id, api.ErrNotFound)
	}
	idx := slices.IndexFunc(rec.DocumentsFiles, func(d models.DocumentFile) bool { return d.ID == fileID })
	if idx < 0 {
		return models.Record{}, fmt.Errorf("document %s: %w", fileID, api.ErrNotFound)
	}
	if err := fs.RemoveUpload(s.uploadsDir, id, fileID); err != nil {
		return models.Record{}, err
	}
	rec = rec.Clone()
	rec.DocumentsFiles = slices.Delete(rec.DocumentsFiles, idx, idx+1)
	return s.saveLocked(rec)
}

// DocumentDownloadURL is a file:// URL pointing at the stored file
func (s *Service) DocumentDownloadURL(id int64, fileID string) string {
	path, err := filepath.Abs(fs.UploadPath(s.uploadsDir, id, fileID))
	if err != nil {
		path = fs.UploadPath(s.uploadsDir, id, fileID)
	}
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(path)}
	return u.String()
}

func (s *Service) saveLocked(rec models.Record) (models.Record, error) {
	now := s.now().UTC()
	rec.UpdatedAt = &now
	if err := fs.WriteRecord(s.recordsDir, rec); err != nil {
		return models.Record{}, err
	}
	s.records[rec.ID] = rec
	return rec.Clone(), nil
}
