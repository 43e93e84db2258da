// Package configsync keeps the local view configuration and the server-held
// settings document in step.
//
// Page fragments live in a process-local cache that is the source of truth for
// outgoing saves. Every save carries every known fragment and a strictly
// increasing sequence number; a response older than the newest applied one is
// dropped, and fragments are merged one by one, newest updated_at wins.
package configsync

import (
	"context"
	"sync"
	"time"

	"jobtrack/internal/api"
	"jobtrack/internal/logs"
	"jobtrack/internal/records/models"
)

// DefaultDebounce delays free-text edits before they are sent
const DefaultDebounce = 400 * time.Millisecond

// Backend is the part of the persistence API the protocol needs
type Backend interface {
	GetSettings(ctx context.Context) (models.Settings, error)
	UpdateSettings(ctx context.Context, settings models.Settings) (models.Settings, error)
}

// Request is one outgoing save
type Request struct {
	Seq      uint64
	Settings models.Settings
}

// Option configures a Sync
type Option func(*Sync)

// WithDebounce overrides the debounce delay
func WithDebounce(d time.Duration) Option {
	return func(s *Sync) { s.debounce = d }
}

// WithClock overrides the clock used to stamp fragments
func WithClock(now func() time.Time) Option {
	return func(s *Sync) { s.now = now }
}

// OnPublish registers a callback receiving every newly published document
func OnPublish(fn func(models.Settings)) Option {
	return func(s *Sync) { s.onPublish = fn }
}

// OnError registers a callback for failed saves
func OnError(fn func(error)) Option {
	return func(s *Sync) { s.onError = fn }
}

// Sync is the configuration sync handle
type Sync struct {
	backend  Backend
	debounce time.Duration
	now      func() time.Time

	onPublish func(models.Settings)
	onError   func(error)

	mu       sync.Mutex
	settings models.Settings // top level fields, server known plus local edits
	cache    map[string]models.PageConfig
	sent     uint64 // last sequence number handed out
	applied  uint64 // highest sequence number whose response was applied
	timer    *time.Timer
	dirty    bool // a debounced edit is waiting for its save
	inflight sync.WaitGroup
}

// New creates a sync handle seeded with the default settings
func New(backend Backend, opts ...Option) *Sync {
	s := &Sync{
		backend:  backend,
		debounce: DefaultDebounce,
		now:      time.Now,
		settings: models.DefaultSettings(),
		cache:    make(map[string]models.PageConfig),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load fetches the settings document and seeds the cache from it
func (s *Sync) Load(ctx context.Context) error {
	remote, err := s.backend.GetSettings(ctx)
	if err != nil {
		logs.Logger.Printf("configsync: load failed: %v", err)
		return &api.NetworkError{Op: "get settings", Err: err}
	}

	s.mu.Lock()
	s.settings = remote.Clone()
	s.settings.PageConfigs = nil
	MergePages(s.cache, remote.PageConfigs)
	published := s.snapshotLocked()
	s.mu.Unlock()

	s.publish(published)
	return nil
}

// Settings returns the current published document
func (s *Sync) Settings() models.Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Page returns the cached fragment for a page
func (s *Sync) Page(id string) (models.PageConfig, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.cache[id]
	return p.Clone(), ok
}

// Edit merges a fragment and saves right away
func (s *Sync) Edit(pageID string, cfg models.PageConfig) {
	s.Commit(nil, map[string]models.PageConfig{pageID: cfg}, false)
}

// EditDebounced merges a fragment now and saves once edits settle
func (s *Sync) EditDebounced(pageID string, cfg models.PageConfig) {
	s.Commit(nil, map[string]models.PageConfig{pageID: cfg}, true)
}

// Update changes top level view configuration and saves right away
func (s *Sync) Update(fn func(*models.Settings)) {
	s.Commit(fn, nil, false)
}

// UpdateDebounced changes top level view configuration and saves once edits
// settle
func (s *Sync) UpdateDebounced(fn func(*models.Settings)) {
	s.Commit(fn, nil, true)
}

// Commit applies a change locally, publishes it, and either sends a save or
// (re)arms the debounce timer. Both parts of the change travel in the same
// save.
func (s *Sync) Commit(update func(*models.Settings), pages map[string]models.PageConfig, debounced bool) {
	s.mu.Lock()
	s.stageLocked(update, pages)
	published := s.snapshotLocked()

	var req Request
	send := false
	if debounced {
		s.dirty = true
		if s.timer != nil {
			s.timer.Stop()
		}
		s.timer = time.AfterFunc(s.debounce, s.fire)
	} else {
		s.stopTimerLocked()
		req = s.prepareLocked()
		send = true
	}
	s.mu.Unlock()

	s.publish(published)
	if send {
		s.send(req)
	}
}

// Prepare stages a change and builds its save without sending it
func (s *Sync) Prepare(update func(*models.Settings), pages map[string]models.PageConfig) Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stageLocked(update, pages)
	return s.prepareLocked()
}

// Apply handles the response to the save with sequence number seq. It
// reports whether the response was applied; a stale one only leaves a log
// line behind.
func (s *Sync) Apply(seq uint64, resp models.Settings) bool {
	s.mu.Lock()
	if seq < s.applied {
		s.mu.Unlock()
		logs.Logger.Printf("configsync: dropped stale response seq=%d (applied=%d)", seq, s.applied)
		return false
	}
	s.applied = seq

	MergePages(s.cache, resp.PageConfigs)
	if seq == s.sent && !s.dirty {
		top := resp.Clone()
		top.PageConfigs = nil
		s.settings = top
	}
	published := s.snapshotLocked()
	s.mu.Unlock()

	s.publish(published)
	return true
}

// Applied is the sequence watermark
func (s *Sync) Applied() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.applied
}

// Flush sends any pending debounced save and waits for every in-flight save
func (s *Sync) Flush(ctx context.Context) error {
	s.mu.Lock()
	var req Request
	pending := s.dirty
	if pending {
		s.stopTimerLocked()
		req = s.prepareLocked()
	}
	s.mu.Unlock()

	if pending {
		s.send(req)
	}

	done := make(chan struct{})
	go func() {
		s.inflight.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Sync) fire() {
	s.mu.Lock()
	if !s.dirty {
		s.mu.Unlock()
		return
	}
	s.timer = nil
	req := s.prepareLocked()
	s.mu.Unlock()

	s.send(req)
}

func (s *Sync) send(req Request) {
	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		resp, err := s.backend.UpdateSettings(context.Background(), req.Settings)
		if err != nil {
			logs.Logger.Printf("configsync: save seq=%d failed: %v", req.Seq, err)
			if s.onError != nil {
				s.onError(&api.NetworkError{Op: "update settings", Err: err})
			}
			return
		}
		s.Apply(req.Seq, resp)
	}()
}

func (s *Sync) stageLocked(update func(*models.Settings), pages map[string]models.PageConfig) {
	if update != nil {
		next := s.settings.Clone()
		update(&next)
		next.PageConfigs = nil
		s.settings = next
	}
	for id, cfg := range pages {
		if _, ok := cfg.UpdatedAt(); !ok {
			cfg = cfg.Stamp(s.now())
		}
		MergePages(s.cache, map[string]models.PageConfig{id: cfg})
	}
}

func (s *Sync) prepareLocked() Request {
	s.dirty = false
	s.sent++
	return Request{Seq: s.sent, Settings: s.snapshotLocked()}
}

func (s *Sync) stopTimerLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.dirty = false
}

func (s *Sync) snapshotLocked() models.Settings {
	out := s.settings.Clone()
	out.PageConfigs = make(map[string]models.PageConfig, len(s.cache))
	for id, p := range s.cache {
		out.PageConfigs[id] = p.Clone()
	}
	return out
}

func (s *Sync) publish(settings models.Settings) {
	if s.onPublish != nil {
		s.onPublish(settings)
	}
}

// MergePages merges incoming fragments into dst, fragment by fragment.
// Fragments only present in dst are kept.
func MergePages(dst, incoming map[string]models.PageConfig) {
	for id, in := range incoming {
		cur, ok := dst[id]
		if !ok || PreferIncoming(cur, in) {
			dst[id] = in.Clone()
		}
	}
}

// PreferIncoming decides between two versions of the same fragment. The later
// updated_at wins and ties go to incoming. A parseable timestamp beats an
// unparseable one; when neither parses, incoming wins.
func PreferIncoming(current, incoming models.PageConfig) bool {
	ct, cok := current.UpdatedAt()
	it, iok := incoming.UpdatedAt()
	switch {
	case cok && iok:
		return !it.Before(ct)
	case iok:
		return true
	case cok:
		return false
	}
	return true
}
