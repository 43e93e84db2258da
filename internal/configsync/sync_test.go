package configsync

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobtrack/internal/api"
	"jobtrack/internal/records/models"
)

var base = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func at(sec int) time.Time { return base.Add(time.Duration(sec) * time.Second) }

func page(sec int, kv ...string) models.PageConfig {
	p := models.PageConfig{}
	for i := 0; i+1 < len(kv); i += 2 {
		p[kv[i]] = kv[i+1]
	}
	return p.Stamp(at(sec))
}

func stampOf(t *testing.T, p models.PageConfig) time.Time {
	t.Helper()
	ts, ok := p.UpdatedAt()
	require.True(t, ok, "fragment has no timestamp")
	return ts
}

type fakeBackend struct {
	mu    sync.Mutex
	saved []models.Settings
	err   error
	doc   models.Settings
}

func (f *fakeBackend) GetSettings(ctx context.Context) (models.Settings, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.doc.Clone(), f.err
}

func (f *fakeBackend) UpdateSettings(ctx context.Context, s models.Settings) (models.Settings, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return models.Settings{}, f.err
	}
	f.saved = append(f.saved, s.Clone())
	f.doc = s.Clone()
	return s.Clone(), nil
}

func (f *fakeBackend) saves() []models.Settings {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.Settings(nil), f.saved...)
}

func TestPreferIncoming(t *testing.T) {
	garbage := models.PageConfig{models.UpdatedAtKey: "yesterday-ish"}
	missing := models.PageConfig{"k": "v"}

	tests := []struct {
		name     string
		current  models.PageConfig
		incoming models.PageConfig
		want     bool
	}{
		{"newer incoming", page(10), page(20), true},
		{"older incoming", page(20), page(10), false},
		{"equal prefers incoming", page(10), page(10), true},
		{"only incoming parses", garbage, page(10), true},
		{"only current parses", page(10), garbage, false},
		{"missing stamp loses", page(10), missing, false},
		{"neither parses", garbage, missing, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PreferIncoming(tt.current, tt.incoming); got != tt.want {
				t.Errorf("PreferIncoming() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMergePages_KeepsUnmentionedFragments(t *testing.T) {
	dst := map[string]models.PageConfig{
		"grid":  page(30, "v", "local"),
		"board": page(5, "v", "old"),
	}
	MergePages(dst, map[string]models.PageConfig{
		"grid":  page(20, "v", "server"),
		"board": page(6, "v", "new"),
		"other": page(1),
	})

	assert.Equal(t, "local", dst["grid"]["v"])
	assert.Equal(t, "new", dst["board"]["v"])
	assert.Contains(t, dst, "other")
}

func TestStaleResponseNeverRegresses(t *testing.T) {
	s := New(nil)

	req1 := s.Prepare(nil, map[string]models.PageConfig{"dashboard": page(10)})
	req2 := s.Prepare(nil, map[string]models.PageConfig{"dashboard": page(20)})
	require.Equal(t, uint64(1), req1.Seq)
	require.Equal(t, uint64(2), req2.Seq)
	assert.Equal(t, at(20), stampOf(t, req2.Settings.PageConfigs["dashboard"]))

	assert.True(t, s.Apply(req2.Seq, req2.Settings))
	assert.False(t, s.Apply(req1.Seq, req1.Settings))

	got, ok := s.Page("dashboard")
	require.True(t, ok)
	assert.Equal(t, at(20), stampOf(t, got))
	assert.Equal(t, uint64(2), s.Applied())
}

func TestOutOfOrderOlderResponseFirst(t *testing.T) {
	s := New(nil)

	req1 := s.Prepare(nil, map[string]models.PageConfig{"dashboard": page(10)})
	s.Prepare(nil, map[string]models.PageConfig{"dashboard": page(20)})

	// seq 1 still applies, but its fragment is older than the cached one
	assert.True(t, s.Apply(req1.Seq, req1.Settings))

	got, _ := s.Page("dashboard")
	assert.Equal(t, at(20), stampOf(t, got))
	assert.Equal(t, uint64(1), s.Applied())
}

func TestEverySaveCarriesAllFragments(t *testing.T) {
	s := New(nil)

	s.Prepare(nil, map[string]models.PageConfig{"a": page(10, "v", "a1")})
	req := s.Prepare(nil, map[string]models.PageConfig{"b": page(11, "v", "b1")})

	require.Contains(t, req.Settings.PageConfigs, "a")
	require.Contains(t, req.Settings.PageConfigs, "b")

	// the response to the first save does not know about b
	stale := models.Settings{PageConfigs: map[string]models.PageConfig{"a": page(10, "v", "a1")}}
	s.Apply(1, stale)

	_, ok := s.Page("b")
	assert.True(t, ok, "fragment b lost to a response that predates it")
}

func TestUnstampedFragmentGetsClockTime(t *testing.T) {
	s := New(nil, WithClock(func() time.Time { return at(42) }))

	req := s.Prepare(nil, map[string]models.PageConfig{"grid": {"sort": "x"}})

	assert.Equal(t, at(42), stampOf(t, req.Settings.PageConfigs["grid"]))
}

func TestTopLevelOnlyFromLatestSave(t *testing.T) {
	s := New(nil)

	req1 := s.Prepare(func(st *models.Settings) { st.DarkMode = true }, nil)
	s.Prepare(func(st *models.Settings) { st.TableDensity = models.DensityCompact }, nil)

	resp := req1.Settings.Clone()
	resp.TableDensity = models.DensityComfortable
	require.True(t, s.Apply(req1.Seq, resp))

	got := s.Settings()
	assert.Equal(t, models.DensityCompact, got.TableDensity)
	assert.True(t, got.DarkMode)
}

func TestTopLevelAdoptedFromLatestSave(t *testing.T) {
	s := New(nil)

	req := s.Prepare(func(st *models.Settings) { st.Stages = []string{"Applied"} }, nil)
	resp := req.Settings.Clone()
	resp.Stages = []string{"Applied", "Server Added"}
	s.Apply(req.Seq, resp)

	assert.Equal(t, []string{"Applied", "Server Added"}, s.Settings().Stages)
}

func TestLoadSeedsCache(t *testing.T) {
	doc := models.DefaultSettings()
	doc.PageConfigs = map[string]models.PageConfig{"grid": page(10, "group_by", "stage")}
	backend := &fakeBackend{doc: doc}

	var published []models.Settings
	s := New(backend, OnPublish(func(st models.Settings) { published = append(published, st) }))
	require.NoError(t, s.Load(context.Background()))

	got, ok := s.Page("grid")
	require.True(t, ok)
	assert.Equal(t, "stage", got["group_by"])
	require.Len(t, published, 1)
	assert.Equal(t, doc.Stages, published[0].Stages)
}

func TestLoadFailureIsNetworkError(t *testing.T) {
	s := New(&fakeBackend{err: errors.New("connection refused")})

	err := s.Load(context.Background())

	var netErr *api.NetworkError
	require.ErrorAs(t, err, &netErr)
	assert.Equal(t, "get settings", netErr.Op)
}

func TestEditSendsImmediately(t *testing.T) {
	backend := &fakeBackend{}
	s := New(backend)

	s.Edit("grid", page(1, "v", "x"))
	require.NoError(t, s.Flush(context.Background()))

	saves := backend.saves()
	require.Len(t, saves, 1)
	assert.Equal(t, "x", saves[0].PageConfigs["grid"]["v"])
	assert.Equal(t, uint64(1), s.Applied())
}

func TestDebouncedEditsCoalesceUntilFlush(t *testing.T) {
	backend := &fakeBackend{}
	s := New(backend, WithDebounce(time.Hour))

	s.UpdateDebounced(func(st *models.Settings) { st.ColumnLabels = map[string]string{"position": "R"} })
	s.UpdateDebounced(func(st *models.Settings) { st.ColumnLabels["position"] = "Role" })

	assert.Empty(t, backend.saves())
	assert.Equal(t, "Role", s.Settings().ColumnLabels["position"], "edit not visible locally")

	require.NoError(t, s.Flush(context.Background()))

	saves := backend.saves()
	require.Len(t, saves, 1)
	assert.Equal(t, "Role", saves[0].ColumnLabels["position"])
}

func TestImmediateSaveCarriesPendingDebouncedEdit(t *testing.T) {
	backend := &fakeBackend{}
	s := New(backend, WithDebounce(time.Hour))

	s.EditDebounced("grid", page(1, "search", "acme"))
	s.Update(func(st *models.Settings) { st.DarkMode = true })
	require.NoError(t, s.Flush(context.Background()))

	saves := backend.saves()
	require.Len(t, saves, 1)
	assert.True(t, saves[0].DarkMode)
	assert.Equal(t, "acme", saves[0].PageConfigs["grid"]["search"])
}

func TestDebounceTimerFires(t *testing.T) {
	backend := &fakeBackend{}
	s := New(backend, WithDebounce(time.Millisecond))

	s.EditDebounced("grid", page(1))

	require.Eventually(t, func() bool { return len(backend.saves()) == 1 }, time.Second, 5*time.Millisecond)
}

func TestFailedSaveReportsNetworkError(t *testing.T) {
	var (
		mu   sync.Mutex
		errs []error
	)
	backend := &fakeBackend{err: errors.New("boom")}
	s := New(backend, OnError(func(err error) {
		mu.Lock()
		errs = append(errs, err)
		mu.Unlock()
	}))

	s.Update(func(st *models.Settings) { st.DarkMode = true })
	require.NoError(t, s.Flush(context.Background()))

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, errs, 1)
	var netErr *api.NetworkError
	assert.ErrorAs(t, errs[0], &netErr)
	assert.True(t, s.Settings().DarkMode, "local edit must survive a failed save")
}

func TestFlushHonorsContext(t *testing.T) {
	block := make(chan struct{})
	defer close(block)
	s := New(blockingBackend{block})

	s.Update(func(st *models.Settings) {})
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	assert.ErrorIs(t, s.Flush(ctx), context.DeadlineExceeded)
}

type blockingBackend struct{ block chan struct{} }

func (b blockingBackend) GetSettings(ctx context.Context) (models.Settings, error) {
	return models.Settings{}, nil
}

func (b blockingBackend) UpdateSettings(ctx context.Context, s models.Settings) (models.Settings, error) {
	<-b.block
	return s, nil
}
