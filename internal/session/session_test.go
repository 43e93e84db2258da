package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobtrack/internal/api"
	"jobtrack/internal/grid"
	"jobtrack/internal/kanban/operations"
	"jobtrack/internal/records/models"
)

type fakeClient struct {
	mu       sync.Mutex
	records  map[int64]models.Record
	order    []int64
	settings models.Settings
	fail     map[int64]bool
	listErr  error
	patches  map[int64][]models.Patch
	saves    int
	upload   func(ctx context.Context) error
}

func newFakeClient(recs ...models.Record) *fakeClient {
	f := &fakeClient{
		records:  make(map[int64]models.Record),
		settings: models.DefaultSettings(),
		fail:     make(map[int64]bool),
		patches:  make(map[int64][]models.Patch),
	}
	for _, r := range recs {
		f.records[r.ID] = r
		f.order = append(f.order, r.ID)
	}
	return f
}

func (f *fakeClient) ListRecords(ctx context.Context, filter api.Filter) ([]models.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]models.Record, 0, len(f.order))
	for _, id := range f.order {
		if r, ok := f.records[id]; ok {
			out = append(out, r.Clone())
		}
	}
	return out, nil
}

func (f *fakeClient) CreateRecord(ctx context.Context, input models.Record) (models.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	input.ID = int64(len(f.order) + 100)
	f.records[input.ID] = input
	f.order = append(f.order, input.ID)
	return input, nil
}

func (f *fakeClient) UpdateRecord(ctx context.Context, id int64, patch models.Patch) (models.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.patches[id] = append(f.patches[id], patch)
	if f.fail[id] {
		return models.Record{}, errors.New("server unavailable")
	}
	r, ok := f.records[id]
	if !ok {
		return models.Record{}, api.ErrNotFound
	}
	next, err := models.ApplyPatch(r, patch)
	if err != nil {
		return models.Record{}, err
	}
	f.records[id] = next
	return next, nil
}

func (f *fakeClient) DeleteRecord(ctx context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail[id] {
		return errors.New("server unavailable")
	}
	delete(f.records, id)
	return nil
}

func (f *fakeClient) BulkDelete(ctx context.Context, ids []int64) error {
	for _, id := range ids {
		if err := f.DeleteRecord(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakeClient) GetSettings(ctx context.Context) (models.Settings, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.settings.Clone(), nil
}

func (f *fakeClient) UpdateSettings(ctx context.Context, s models.Settings) (models.Settings, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saves++
	f.settings = s.Clone()
	return s.Clone(), nil
}

func (f *fakeClient) UploadDocuments(ctx context.Context, id int64, files []api.Upload) (models.Record, error) {
	if f.upload != nil {
		if err := f.upload(ctx); err != nil {
			return models.Record{}, err
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	r := f.records[id]
	for i, file := range files {
		data, _ := io.ReadAll(file.Body)
		r.DocumentsFiles = append(r.DocumentsFiles, models.DocumentFile{
			ID: fmt.Sprintf("f%d", i), Name: file.Name, Size: int64(len(data)),
		})
	}
	f.records[id] = r
	return r, nil
}

func (f *fakeClient) DeleteDocument(ctx context.Context, id int64, fileID string) (models.Record, error) {
	return models.Record{}, api.ErrNotFound
}

func (f *fakeClient) DocumentDownloadURL(id int64, fileID string) string {
	return fmt.Sprintf("file:///uploads/%d/%s", id, fileID)
}

func (f *fakeClient) GetUpdateInfo(ctx context.Context) (api.UpdateInfo, error) {
	return api.UpdateInfo{}, nil
}

func (f *fakeClient) saveCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.saves
}

func rec(id int64, company, stage string) models.Record {
	return models.Record{ID: id, CompanyName: company, Position: "Engineer", Stage: stage, Outcome: "In Progress", JobType: "Full-time"}
}

func loaded(t *testing.T, client *fakeClient) *Session {
	t.Helper()
	s := New(client, Options{Debounce: time.Hour})
	require.NoError(t, s.Load(context.Background()))
	return s
}

func TestLoadKeepsServerOrder(t *testing.T) {
	s := loaded(t, newFakeClient(rec(3, "C", "Applied"), rec(1, "A", "Applied"), rec(2, "B", "HR")))

	var ids []int64
	for _, r := range s.Records() {
		ids = append(ids, r.ID)
	}
	assert.Equal(t, []int64{3, 1, 2}, ids)
}

func TestLoadFailureFillsErrorSlot(t *testing.T) {
	client := newFakeClient()
	client.listErr = errors.New("offline")
	s := New(client, Options{})

	err := s.Load(context.Background())

	var netErr *api.NetworkError
	require.ErrorAs(t, err, &netErr)
	assert.Equal(t, err, s.Errors().Peek())
}

func TestUpdateRecordAdoptsServerCopy(t *testing.T) {
	client := newFakeClient(rec(1, "Acme", "Applied"))
	s := loaded(t, client)

	got, err := s.UpdateRecord(context.Background(), 1, models.Patch{"company_name": "Acme Corp"})

	require.NoError(t, err)
	assert.Equal(t, "Acme Corp", got.CompanyName)
	cached, _ := s.Record(1)
	assert.Equal(t, "Acme Corp", cached.CompanyName)
}

func TestUpdateRecordKeepsOptimisticValueOnFailure(t *testing.T) {
	client := newFakeClient(rec(1, "Acme", "Applied"))
	client.fail[1] = true
	s := loaded(t, client)

	_, err := s.UpdateRecord(context.Background(), 1, models.Patch{"company_name": "Acme Corp"})

	var netErr *api.NetworkError
	require.ErrorAs(t, err, &netErr)
	cached, _ := s.Record(1)
	assert.Equal(t, "Acme Corp", cached.CompanyName)
	assert.NotNil(t, s.Errors().Take())
	assert.Nil(t, s.Errors().Peek())
}

func TestUpdateUnknownRecord(t *testing.T) {
	s := loaded(t, newFakeClient())

	_, err := s.UpdateRecord(context.Background(), 9, models.Patch{"stage": "HR"})

	assert.ErrorIs(t, err, api.ErrNotFound)
}

func TestCreateAndDelete(t *testing.T) {
	s := loaded(t, newFakeClient())

	created, err := s.Create(context.Background(), rec(0, "New Co", "Applied"))
	require.NoError(t, err)
	_, ok := s.Record(created.ID)
	require.True(t, ok)

	require.NoError(t, s.Delete(context.Background(), created.ID))
	_, ok = s.Record(created.ID)
	assert.False(t, ok)
}

func TestBulkDeleteReportsFailedIDs(t *testing.T) {
	client := newFakeClient(rec(1, "A", "Applied"), rec(2, "B", "Applied"), rec(3, "C", "Applied"))
	client.fail[2] = true
	s := loaded(t, client)

	err := s.BulkDelete(context.Background(), []int64{1, 2, 3})

	var batch *api.PartialBatchError
	require.ErrorAs(t, err, &batch)
	assert.Equal(t, []int64{2}, batch.FailedIDs())
	assert.Equal(t, 3, batch.Total)

	require.Len(t, s.Records(), 1)
	assert.Equal(t, int64(2), s.Records()[0].ID)
	assert.Equal(t, err, s.Errors().Peek())
}

func TestBulkUpdate(t *testing.T) {
	client := newFakeClient(rec(1, "A", "Applied"), rec(2, "B", "Applied"))
	s := loaded(t, client)

	require.NoError(t, s.BulkUpdate(context.Background(), []int64{1, 2}, models.Patch{"outcome": "On Hold"}))

	for _, r := range s.Records() {
		assert.Equal(t, "On Hold", r.Outcome)
	}
}

func TestApplyAssignments(t *testing.T) {
	client := newFakeClient(rec(1, "A", "Screening"), rec(2, "B", "Screening"))
	client.fail[2] = true
	s := loaded(t, client)

	err := s.ApplyAssignments(context.Background(), []operations.Assignment{
		{ID: 1, Stage: "HR", Order: 0},
		{ID: 2, Stage: "Screening", Order: 0},
	})

	var batch *api.PartialBatchError
	require.ErrorAs(t, err, &batch)
	assert.Equal(t, []int64{2}, batch.FailedIDs())

	moved, _ := s.Record(1)
	assert.Equal(t, "HR", moved.Stage)
	order, ok := moved.Order()
	require.True(t, ok)
	assert.Equal(t, 0, order)

	// the failed card keeps its optimistic order until the next refresh
	failed, _ := s.Record(2)
	order, ok = failed.Order()
	require.True(t, ok)
	assert.Equal(t, 0, order)
}

func TestRenameOptionRewritesRecords(t *testing.T) {
	client := newFakeClient(rec(1, "A", "Applied"), rec(2, "B", "HR"))
	s := loaded(t, client)

	require.NoError(t, s.RenameOption(context.Background(), "job_type", "Full-time", "Permanent"))

	assert.Contains(t, s.Settings().JobTypes, "Permanent")
	assert.NotContains(t, s.Settings().JobTypes, "Full-time")
	for _, r := range s.Records() {
		assert.Equal(t, "Permanent", r.JobType)
	}
}

func TestRenameOptionToExistingLabelFails(t *testing.T) {
	s := loaded(t, newFakeClient(rec(1, "A", "Applied")))

	err := s.RenameOption(context.Background(), "job_type", "Full-time", "internship")

	assert.True(t, api.IsValidation(err))
	assert.Nil(t, s.Errors().Peek(), "validation errors never reach the banner")
}

func TestRenameStage(t *testing.T) {
	client := newFakeClient(rec(1, "A", "Screening"), rec(2, "B", "HR"))
	s := loaded(t, client)

	require.NoError(t, s.RenameStage(context.Background(), "Screening", "Phone Screen"))

	assert.Contains(t, s.Settings().Stages, "Phone Screen")
	moved, _ := s.Record(1)
	assert.Equal(t, "Phone Screen", moved.Stage)
	untouched, _ := s.Record(2)
	assert.Equal(t, "HR", untouched.Stage)
}

func TestEditOptionsRejectsPlainColumn(t *testing.T) {
	s := loaded(t, newFakeClient())

	err := s.EditOptions("position", func(o []models.Option) ([]models.Option, error) { return o, nil })

	assert.True(t, api.IsValidation(err))
}

func TestSaveRoutesThroughSync(t *testing.T) {
	client := newFakeClient()
	s := loaded(t, client)
	layout := grid.NewLayout(s.Settings(), s)

	require.NoError(t, layout.SetDensity(models.DensityCompact))
	require.NoError(t, s.Flush(context.Background()))

	assert.Equal(t, 1, client.saveCount())
	assert.Equal(t, models.DensityCompact, s.Settings().TableDensity)
}

func TestDebouncedSaveWaitsForFlush(t *testing.T) {
	client := newFakeClient()
	s := loaded(t, client)
	layout := grid.NewLayout(s.Settings(), s)

	require.NoError(t, layout.SetLabel("position", "Role"))
	assert.Equal(t, 0, client.saveCount())

	require.NoError(t, s.Flush(context.Background()))
	assert.Equal(t, 1, client.saveCount())
	assert.Equal(t, "Role", s.Settings().ColumnLabels["position"])
}

func TestUploadTimeoutIsAbort(t *testing.T) {
	client := newFakeClient(rec(1, "A", "Applied"))
	client.upload = func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}
	s := New(client, Options{UploadTimeout: 10 * time.Millisecond})
	require.NoError(t, s.Load(context.Background()))

	_, err := s.UploadDocuments(context.Background(), 1, []api.Upload{{Name: "cv.pdf"}})

	assert.ErrorIs(t, err, api.ErrUploadAborted)
	assert.Nil(t, s.Errors().Peek())
}

func TestUploadCancelIsAbort(t *testing.T) {
	client := newFakeClient(rec(1, "A", "Applied"))
	client.upload = func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}
	s := loaded(t, client)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.UploadDocuments(ctx, 1, nil)

	assert.ErrorIs(t, err, api.ErrUploadAborted)
}

func TestUploadStoresRecord(t *testing.T) {
	client := newFakeClient(rec(1, "A", "Applied"))
	s := loaded(t, client)

	got, err := s.UploadDocuments(context.Background(), 1, []api.Upload{{Name: "cv.pdf", Body: strings.NewReader("pdf")}})

	require.NoError(t, err)
	require.Len(t, got.DocumentsFiles, 1)
	cached, _ := s.Record(1)
	assert.Equal(t, "cv.pdf", cached.DocumentsFiles[0].Name)
}

func TestErrorSlotIgnoresQuietErrors(t *testing.T) {
	var slot ErrorSlot
	slot.Set(api.Invalid("x", "bad"))
	slot.Set(fmt.Errorf("wrapped: %w", api.ErrUploadAborted))
	assert.Nil(t, slot.Peek())

	first := errors.New("first")
	second := errors.New("second")
	slot.Set(first)
	slot.Set(second)
	assert.Equal(t, second, slot.Take())
	assert.Nil(t, slot.Take())
}

type archivingClient struct {
	*fakeClient
	savesAtBackup int
}

func (a *archivingClient) Backup(ctx context.Context, w io.Writer) error {
	a.savesAtBackup = a.saveCount()
	_, err := io.WriteString(w, "zip")
	return err
}

func TestBackupFlushesSettingsFirst(t *testing.T) {
	client := &archivingClient{fakeClient: newFakeClient()}
	s := New(client, Options{Debounce: time.Hour})
	require.NoError(t, s.Load(context.Background()))
	layout := grid.NewLayout(s.Settings(), s)
	require.NoError(t, layout.SetLabel("position", "Role"))

	var buf strings.Builder
	require.NoError(t, s.Backup(context.Background(), &buf))

	assert.Equal(t, "zip", buf.String())
	assert.Equal(t, 1, client.savesAtBackup)
}

func TestBackupUnsupported(t *testing.T) {
	s := loaded(t, newFakeClient())
	err := s.Backup(context.Background(), io.Discard)
	assert.ErrorIs(t, err, api.ErrUnsupported)
}
