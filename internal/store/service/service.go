// Package service is the local persistence backend: records, settings and
// uploads kept in a data directory.
package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"jobtrack/internal/api"
	"jobtrack/internal/logs"
	"jobtrack/internal/records/models"
	"jobtrack/internal/store/fs"
)

// Version is reported by GetUpdateInfo
var Version = "dev"

// Service implements api.Client on top of a data directory
type Service struct {
	dataDir      string
	recordsDir   string
	uploadsDir   string
	settingsPath string
	now          func() time.Time

	settingsMu sync.Mutex

	mu      sync.Mutex
	records map[int64]models.Record
	nextID  int64
}

var (
	_ api.Client   = (*Service)(nil)
	_ api.Archiver = (*Service)(nil)
)

// New opens (and creates if needed) the data directory
func New(dataDir string) (*Service, error) {
	s := &Service{
		dataDir:      dataDir,
		recordsDir:   filepath.Join(dataDir, "records"),
		uploadsDir:   filepath.Join(dataDir, "uploads"),
		settingsPath: filepath.Join(dataDir, "settings.json"),
		now:          time.Now,
	}
	for _, dir := range []string{s.recordsDir, s.uploadsDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, err
		}
	}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Reload rereads every record file
func (s *Service) Reload() error {
	recs, err := fs.ScanRecords(s.recordsDir)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = make(map[int64]models.Record, len(recs))
	s.nextID = 1
	for _, r := range recs {
		s.records[r.ID] = r
		if r.ID >= s.nextID {
			s.nextID = r.ID + 1
		}
	}
	return nil
}

// ListRecords returns the records passing filter, most recently updated first
func (s *Service) ListRecords(ctx context.Context, filter api.Filter) ([]models.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	needle := strings.ToLower(strings.TrimSpace(filter.Search))
	var out []models.Record
	for _, r := range s.records {
		if needle != "" && !matchesSearch(r, needle) {
			continue
		}
		if len(filter.Stages) > 0 && !slices.Contains(filter.Stages, r.Stage) {
			continue
		}
		if len(filter.Outcomes) > 0 && !slices.Contains(filter.Outcomes, r.Outcome) {
			continue
		}
		if len(filter.JobTypes) > 0 && !slices.Contains(filter.JobTypes, r.JobType) {
			continue
		}
		if filter.FavoritesOnly && !r.Favorite {
			continue
		}
		out = append(out, r.Clone())
	}

	slices.SortFunc(out, func(a, b models.Record) int {
		at, bt := stampOf(a), stampOf(b)
		if !at.Equal(bt) {
			if at.After(bt) {
				return -1
			}
			return 1
		}
		switch {
		case a.ID > b.ID:
			return -1
		case a.ID < b.ID:
			return 1
		}
		return 0
	})
	return out, nil
}

func matchesSearch(r models.Record, needle string) bool {
	for _, field := range []string{r.CompanyName, r.Position, r.Location, r.Notes} {
		if strings.Contains(strings.ToLower(field), needle) {
			return true
		}
	}
	return false
}

func stampOf(r models.Record) time.Time {
	if r.UpdatedAt == nil {
		return time.Time{}
	}
	return *r.UpdatedAt
}

// CreateRecord stores a new record
func (s *Service) CreateRecord(ctx context.Context, input models.Record) (models.Record, error) {
	if err := validateDates(input); err != nil {
		return models.Record{}, err
	}
	settings, err := s.GetSettings(ctx)
	if err != nil {
		return models.Record{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec := applyOutcomeRules(input.Clone(), nil, settings.Stages)
	rec.ID = s.nextID
	if rec.ApplicationID == "" {
		rec.ApplicationID = uuid.NewString()
	}
	if rec.CreatedBy == "" {
		rec.CreatedBy = "local"
	}
	assignItemIDs(&rec)
	if rec.PipelineOrder == nil && rec.Stage != "" {
		rec.PipelineOrder = s.nextPipelineOrderLocked(rec.Stage, 0)
	}
	now := s.now().UTC()
	rec.CreatedAt, rec.UpdatedAt = &now, &now

	if err := fs.WriteRecord(s.recordsDir, rec); err != nil {
		return models.Record{}, err
	}
	s.records[rec.ID] = rec
	s.nextID++
	return rec.Clone(), nil
}

// UpdateRecord applies a partial update
func (s *Service) UpdateRecord(ctx context.Context, id int64, patch models.Patch) (models.Record, error) {
	settings, err := s.GetSettings(ctx)
	if err != nil {
		return models.Record{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.records[id]
	if !ok {
		return models.Record{}, fmt.Errorf("record %d: %w", id, api.ErrNotFound)
	}
	merged, err := models.ApplyPatch(current, patch)
	if err != nil {
		return models.Record{}, api.Invalid("", "%v", err)
	}
	if err := validateDates(merged); err != nil {
		return models.Record{}, err
	}

	merged = applyOutcomeRules(merged, &current, settings.Stages)
	if _, explicit := patch["pipeline_order"]; !explicit && merged.Stage != current.Stage {
		merged.PipelineOrder = nil
		if merged.Stage != "" {
			merged.PipelineOrder = s.nextPipelineOrderLocked(merged.Stage, id)
		}
	}
	merged.ID, merged.ApplicationID = current.ID, current.ApplicationID
	merged.CreatedAt, merged.CreatedBy = current.CreatedAt, current.CreatedBy
	assignItemIDs(&merged)
	now := s.now().UTC()
	merged.UpdatedAt = &now

	if err := fs.WriteRecord(s.recordsDir, merged); err != nil {
		return models.Record{}, err
	}
	s.records[id] = merged
	return merged.Clone(), nil
}

// assignItemIDs gives new contacts and to-do items their ids
func assignItemIDs(rec *models.Record) {
	for i := range rec.Contacts {
		if rec.Contacts[i].ID == "" {
			rec.Contacts[i].ID = uuid.NewString()
		}
	}
	for i := range rec.TodoItems {
		if rec.TodoItems[i].ID == "" {
			rec.TodoItems[i].ID = uuid.NewString()
		}
	}
}

// DeleteRecord removes a record and its uploads
func (s *Service) DeleteRecord(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[id]; !ok {
		return fmt.Errorf("record %d: %w", id, api.ErrNotFound)
	}
	return s.deleteLocked(id)
}

// BulkDelete removes every existing record in ids
func (s *Service) BulkDelete(ctx context.Context, ids []int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		if _, ok := s.records[id]; !ok {
			continue
		}
		if err := s.deleteLocked(id); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) deleteLocked(id int64) error {
	if err := fs.RemoveRecord(s.recordsDir, id); err != nil {
		return err
	}
	if err := fs.RemoveUploads(s.uploadsDir, id); err != nil {
		logs.Logger.Printf("Failed to remove uploads of record %d: %v", id, err)
	}
	delete(s.records, id)
	return nil
}

// nextPipelineOrderLocked is one past the highest order in stage, or nil when
// some card of the stage has no order yet. exclude is the record being moved.
func (s *Service) nextPipelineOrderLocked(stage string, exclude int64) *int {
	next := 0
	for _, r := range s.records {
		if r.ID == exclude || r.Stage != stage {
			continue
		}
		order, ok := r.Order()
		if !ok {
			return nil
		}
		if order+1 > next {
			next = order + 1
		}
	}
	return models.IntPtr(next)
}

// applyOutcomeRules moves an offer to the Offer stage and keeps a rejected
// application where it was
func applyOutcomeRules(rec models.Record, previous *models.Record, stages []string) models.Record {
	if rec.Outcome == "Offer" && slices.Contains(stages, "Offer") {
		rec.Stage = "Offer"
	}
	if rec.Outcome == "Rejected" && previous != nil {
		rec.Stage = previous.Stage
	}
	return rec
}

func validateDates(r models.Record) error {
	applied, ok := day(r.ApplicationDate)
	if !ok {
		return nil
	}
	if interview, ok := day(r.InterviewDatetime); ok && interview.Before(applied) {
		return api.Invalid("interview_datetime", "Interview Date must be on/after Application Date")
	}
	if followup, ok := day(r.FollowupDate); ok && followup.Before(applied) {
		return api.Invalid("followup_date", "Follow-Up Date must be on/after Application Date")
	}
	return nil
}

func day(raw string) (time.Time, bool) {
	t, ok := models.ParseTimestamp(raw)
	if !ok {
		return time.Time{}, false
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), true
}

// GetUpdateInfo reports the running version; the local backend never checks
// for updates
func (s *Service) GetUpdateInfo(ctx context.Context) (api.UpdateInfo, error) {
	now := s.now().UTC()
	return api.UpdateInfo{CurrentVersion: Version, CheckedAt: &now}, nil
}
