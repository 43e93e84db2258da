package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"jobtrack/internal/api"
	"jobtrack/internal/kanban/operations"
	"jobtrack/internal/logs"
	"jobtrack/internal/records/models"
	"jobtrack/internal/schema"
)

// UpdateRecord applies patch to the cached record, sends it and adopts the
// server's copy. A failed write keeps the optimistic value until the next
// refresh.
func (s *Session) UpdateRecord(ctx context.Context, id int64, patch models.Patch) (models.Record, error) {
	cur, ok := s.Record(id)
	if !ok {
		return models.Record{}, fmt.Errorf("record %d: %w", id, api.ErrNotFound)
	}
	optimistic, err := models.ApplyPatch(cur, patch)
	if err != nil {
		return models.Record{}, err
	}
	s.store(optimistic)

	saved, err := s.client.UpdateRecord(ctx, id, patch)
	if err != nil {
		return optimistic, s.fail("update record", err)
	}
	s.store(saved)
	return saved, nil
}

// Create creates a record and adds it to the cache
func (s *Session) Create(ctx context.Context, input models.Record) (models.Record, error) {
	created, err := s.client.CreateRecord(ctx, input)
	if err != nil {
		return models.Record{}, s.fail("create record", err)
	}
	s.store(created)
	return created, nil
}

// Delete removes one record
func (s *Session) Delete(ctx context.Context, id int64) error {
	if err := s.client.DeleteRecord(ctx, id); err != nil {
		return s.fail("delete record", err)
	}
	s.prune([]int64{id})
	return nil
}

// BulkDelete deletes every id with one request each, concurrently. Deleted
// records leave the cache even when others fail.
func (s *Session) BulkDelete(ctx context.Context, ids []int64) error {
	deleted, err := fanOut(ctx, "delete", ids, func(ctx context.Context, id int64) (models.Record, error) {
		return models.Record{ID: id}, s.client.DeleteRecord(ctx, id)
	})
	gone := make([]int64, 0, len(deleted))
	for _, r := range deleted {
		gone = append(gone, r.ID)
	}
	s.prune(gone)
	return s.batchResult(err)
}

// BulkUpdate sends the same patch to every id concurrently
func (s *Session) BulkUpdate(ctx context.Context, ids []int64, patch models.Patch) error {
	patches := make(map[int64]models.Patch, len(ids))
	for _, id := range ids {
		patches[id] = patch
	}
	return s.updateEach(ctx, "update", patches)
}

// ApplyAssignments writes the stage and order of every card a board drop
// touched. The cache moves first so the board redraws at once.
func (s *Session) ApplyAssignments(ctx context.Context, assignments []operations.Assignment) error {
	patches := make(map[int64]models.Patch, len(assignments))
	for _, a := range assignments {
		patches[a.ID] = a.Patch()
	}
	return s.updateEach(ctx, "reorder", patches)
}

// ApplyRewrites sends the record rewrites of a vocabulary rename
func (s *Session) ApplyRewrites(ctx context.Context, rewrites []schema.RecordRewrite) error {
	patches := make(map[int64]models.Patch, len(rewrites))
	for _, rw := range rewrites {
		patches[rw.ID] = rw.Patch
	}
	return s.updateEach(ctx, "rename", patches)
}

func (s *Session) updateEach(ctx context.Context, op string, patches map[int64]models.Patch) error {
	if len(patches) == 0 {
		return nil
	}
	ids := make([]int64, 0, len(patches))
	for id, p := range patches {
		if cur, ok := s.Record(id); ok {
			if next, err := models.ApplyPatch(cur, p); err == nil {
				s.store(next)
			}
		}
		ids = append(ids, id)
	}

	saved, err := fanOut(ctx, op, ids, func(ctx context.Context, id int64) (models.Record, error) {
		return s.client.UpdateRecord(ctx, id, patches[id])
	})
	for _, r := range saved {
		s.store(r)
	}
	return s.batchResult(err)
}

// fanOut runs call for every id concurrently and waits for all of them. It
// returns the successful results and a *api.PartialBatchError naming the ids
// that failed.
func fanOut(ctx context.Context, op string, ids []int64, call func(context.Context, int64) (models.Record, error)) ([]models.Record, error) {
	type result struct {
		rec models.Record
		err error
	}
	results := make([]result, len(ids))

	var wg sync.WaitGroup
	for i, id := range ids {
		wg.Add(1)
		go func(i int, id int64) {
			defer wg.Done()
			rec, err := call(ctx, id)
			results[i] = result{rec: rec, err: err}
		}(i, id)
	}
	wg.Wait()

	var ok []models.Record
	failed := make(map[int64]error)
	for i, r := range results {
		if r.err != nil {
			failed[ids[i]] = r.err
			continue
		}
		ok = append(ok, r.rec)
	}
	if len(failed) == 0 {
		return ok, nil
	}
	return ok, &api.PartialBatchError{Op: op, Total: len(ids), Failed: failed}
}

func (s *Session) batchResult(err error) error {
	if err == nil {
		return nil
	}
	logs.Logger.Printf("session: %v", err)
	s.errs.Set(err)
	return err
}

// UploadDocuments attaches files to a record. The upload is cancelled with ctx
// or after the safety timeout; either way api.ErrUploadAborted is returned.
func (s *Session) UploadDocuments(ctx context.Context, id int64, files []api.Upload) (models.Record, error) {
	ctx, cancel := context.WithTimeout(ctx, s.uploadTimeout)
	defer cancel()

	rec, err := s.client.UploadDocuments(ctx, id, files)
	if err != nil {
		if ctx.Err() != nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			logs.Logger.Printf("session: upload to record %d aborted: %v", id, err)
			return models.Record{}, fmt.Errorf("record %d: %w", id, api.ErrUploadAborted)
		}
		return models.Record{}, s.fail("upload documents", err)
	}
	s.store(rec)
	return rec, nil
}

// DeleteDocument removes an attached file
func (s *Session) DeleteDocument(ctx context.Context, id int64, fileID string) (models.Record, error) {
	rec, err := s.client.DeleteDocument(ctx, id, fileID)
	if err != nil {
		return models.Record{}, s.fail("delete document", err)
	}
	s.store(rec)
	return rec, nil
}

// DocumentURL is where a document can be downloaded from
func (s *Session) DocumentURL(id int64, fileID string) string {
	return s.client.DocumentDownloadURL(id, fileID)
}

// Backup writes an archive of the backend's data to w once pending settings
// saves are flushed
func (s *Session) Backup(ctx context.Context, w io.Writer) error {
	archiver, ok := s.client.(api.Archiver)
	if !ok {
		return api.ErrUnsupported
	}
	if err := s.Flush(ctx); err != nil {
		return err
	}
	if err := archiver.Backup(ctx, w); err != nil {
		return s.fail("backup", err)
	}
	return nil
}

// fail wraps a persistence error, logs it and puts it in the error slot.
// Validation errors pass through untouched.
func (s *Session) fail(op string, err error) error {
	if api.IsValidation(err) {
		return err
	}
	logs.Logger.Printf("session: %s failed: %v", op, err)
	wrapped := &api.NetworkError{Op: op, Err: err}
	s.errs.Set(wrapped)
	return wrapped
}
