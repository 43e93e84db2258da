// Package api describes the persistence collaborator the tracker talks to.
package api

import (
	"context"
	"io"
	"time"

	"jobtrack/internal/records/models"
)

// Filter narrows ListRecords on the persistence side
type Filter struct {
	Search        string
	Stages        []string
	Outcomes      []string
	JobTypes      []string
	FavoritesOnly bool
}

// Upload is one file to attach to a record
type Upload struct {
	Name        string
	ContentType string
	Body        io.Reader
}

// UpdateInfo gates the update banner
type UpdateInfo struct {
	CurrentVersion  string     `json:"current_version"`
	LatestVersion   string     `json:"latest_version,omitempty"`
	UpdateAvailable bool       `json:"update_available"`
	URL             string     `json:"url,omitempty"`
	Notes           string     `json:"notes,omitempty"`
	CheckedAt       *time.Time `json:"checked_at,omitempty"`
}

// Client is the record and settings persistence API. UpdateSettings has
// whole-document replace semantics.
type Client interface {
	ListRecords(ctx context.Context, filter Filter) ([]models.Record, error)
	CreateRecord(ctx context.Context, input models.Record) (models.Record, error)
	UpdateRecord(ctx context.Context, id int64, patch models.Patch) (models.Record, error)
	DeleteRecord(ctx context.Context, id int64) error
	BulkDelete(ctx context.Context, ids []int64) error

	GetSettings(ctx context.Context) (models.Settings, error)
	UpdateSettings(ctx context.Context, settings models.Settings) (models.Settings, error)

	UploadDocuments(ctx context.Context, id int64, files []Upload) (models.Record, error)
	DeleteDocument(ctx context.Context, id int64, fileID string) (models.Record, error)
	DocumentDownloadURL(id int64, fileID string) string

	GetUpdateInfo(ctx context.Context) (UpdateInfo, error)
}

// Archiver is implemented by backends that can write a backup of everything
// they store
type Archiver interface {
	Backup(ctx context.Context, w io.Writer) error
}
