// Package session is the client-side state shared by every view: the record
// cache, the configuration sync handle and the error slot feeding the banner.
package session

import (
	"context"
	"slices"
	"sync"
	"time"

	"jobtrack/internal/api"
	"jobtrack/internal/configsync"
	"jobtrack/internal/grid"
	"jobtrack/internal/logs"
	"jobtrack/internal/records/models"
)

// DefaultUploadTimeout aborts uploads that take longer than this
const DefaultUploadTimeout = 120 * time.Second

// Options configures a Session
type Options struct {
	Debounce      time.Duration
	UploadTimeout time.Duration

	// OnSettings receives every newly published settings document. It may be
	// called from a network goroutine.
	OnSettings func(models.Settings)
}

// Session owns the record cache and the configuration sync handle
type Session struct {
	client        api.Client
	sync          *configsync.Sync
	uploadTimeout time.Duration
	errs          *ErrorSlot

	mu      sync.RWMutex
	records []models.Record
	index   map[int64]int
}

// New creates a session on top of a persistence client
func New(client api.Client, opts Options) *Session {
	s := &Session{
		client:        client,
		uploadTimeout: opts.UploadTimeout,
		errs:          &ErrorSlot{},
		index:         make(map[int64]int),
	}
	if s.uploadTimeout <= 0 {
		s.uploadTimeout = DefaultUploadTimeout
	}

	syncOpts := []configsync.Option{configsync.OnError(s.errs.Set)}
	if opts.Debounce > 0 {
		syncOpts = append(syncOpts, configsync.WithDebounce(opts.Debounce))
	}
	if opts.OnSettings != nil {
		syncOpts = append(syncOpts, configsync.OnPublish(opts.OnSettings))
	}
	s.sync = configsync.New(client, syncOpts...)
	return s
}

// Load fetches settings and records
func (s *Session) Load(ctx context.Context) error {
	if err := s.sync.Load(ctx); err != nil {
		s.errs.Set(err)
		return err
	}
	return s.Refresh(ctx)
}

// Refresh replaces the record cache with the server's list
func (s *Session) Refresh(ctx context.Context) error {
	recs, err := s.client.ListRecords(ctx, api.Filter{})
	if err != nil {
		logs.Logger.Printf("session: list records failed: %v", err)
		err = &api.NetworkError{Op: "list records", Err: err}
		s.errs.Set(err)
		return err
	}
	s.mu.Lock()
	s.records = recs
	s.reindexLocked()
	s.mu.Unlock()
	return nil
}

// Records returns a copy of the cache in server order
func (s *Session) Records() []models.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Record, len(s.records))
	for i, r := range s.records {
		out[i] = r.Clone()
	}
	return out
}

// Record returns one cached record
func (s *Session) Record(id int64) (models.Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.index[id]
	if !ok {
		return models.Record{}, false
	}
	return s.records[i].Clone(), true
}

// Settings is the current published settings document
func (s *Session) Settings() models.Settings {
	return s.sync.Settings()
}

// Sync exposes the configuration sync handle
func (s *Session) Sync() *configsync.Sync {
	return s.sync
}

// Errors is the process-wide error slot
func (s *Session) Errors() *ErrorSlot {
	return s.errs
}

// Save implements grid.Saver
func (s *Session) Save(change grid.Change, mode grid.SaveMode) {
	s.sync.Commit(change.Update, change.Pages, mode == grid.SaveDebounced)
}

// ReplaceSettings sends a fully edited settings document. Page fragments in
// next are ignored; they travel through the fragment cache.
func (s *Session) ReplaceSettings(next models.Settings) {
	next = next.Clone()
	s.sync.Update(func(st *models.Settings) {
		*st = next
	})
}

// EditSettings runs fn on a copy of the settings and saves the result, or
// returns fn's error leaving the settings untouched.
func (s *Session) EditSettings(fn func(*models.Settings) error) error {
	next := s.sync.Settings()
	if err := fn(&next); err != nil {
		return err
	}
	s.ReplaceSettings(next)
	return nil
}

// Flush waits for pending configuration saves
func (s *Session) Flush(ctx context.Context) error {
	return s.sync.Flush(ctx)
}

func (s *Session) store(r models.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i, ok := s.index[r.ID]; ok {
		s.records[i] = r
		return
	}
	s.records = append(s.records, r)
	s.index[r.ID] = len(s.records) - 1
}

func (s *Session) prune(ids []int64) {
	if len(ids) == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = slices.DeleteFunc(s.records, func(r models.Record) bool {
		return slices.Contains(ids, r.ID)
	})
	s.reindexLocked()
}

func (s *Session) reindexLocked() {
	s.index = make(map[int64]int, len(s.records))
	for i, r := range s.records {
		s.index[r.ID] = i
	}
}
