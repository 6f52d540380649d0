package stats

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/mmcdole/cinelog/internal/adapter"
	"github.com/mmcdole/cinelog/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func movie(id, runtime int) *domain.ContentDetail {
	return &domain.ContentDetail{Ref: domain.ContentRef{ID: id, Type: domain.ContentTypeMovie}, Runtime: intPtr(runtime)}
}

func show(id, episodes int, runtimes ...int) *domain.ContentDetail {
	return &domain.ContentDetail{
		Ref:              domain.ContentRef{ID: id, Type: domain.ContentTypeTV},
		NumberOfEpisodes: intPtr(episodes),
		EpisodeRunTime:   runtimes,
	}
}

func wholeLog() domain.LogEntry { return domain.LogEntry{} }

func seasonLog(n int) domain.LogEntry { return domain.LogEntry{SeasonNumber: intPtr(n)} }

func episodeLog(s, e int) domain.LogEntry {
	return domain.LogEntry{SeasonNumber: intPtr(s), EpisodeNumber: intPtr(e)}
}

func TestCompute_MixedList(t *testing.T) {
	items := []Item{
		{Ref: movie(1, 120).Ref, Detail: movie(1, 120), Logs: []domain.LogEntry{wholeLog()}},
		{Ref: show(2, 10, 30).Ref, Detail: show(2, 10, 30), Logs: []domain.LogEntry{wholeLog()}},
		{Ref: show(3, 8, 45).Ref, Detail: show(3, 8, 45), Logs: []domain.LogEntry{seasonLog(1)}},
	}

	got := Compute(items)
	assert.Equal(t, domain.ListStats{
		WatchedCount:           2,
		TotalCount:             3,
		PercentWatched:         67,
		TotalDurationMinutes:   780,
		WatchedDurationMinutes: 420,
	}, got)
}

func TestCompute_DetailWithoutRef(t *testing.T) {
	// Details decoded without their ref take the item's type for both rules
	items := []Item{
		{
			Ref:    domain.ContentRef{ID: 1, Type: domain.ContentTypeMovie},
			Detail: &domain.ContentDetail{Runtime: intPtr(120)},
			Logs:   []domain.LogEntry{wholeLog()},
		},
		{
			Ref:    domain.ContentRef{ID: 2, Type: domain.ContentTypeTV},
			Detail: &domain.ContentDetail{NumberOfEpisodes: intPtr(10), EpisodeRunTime: []int{30}},
			Logs:   []domain.LogEntry{seasonLog(1)},
		},
	}

	assert.Equal(t, domain.ListStats{
		WatchedCount:           1,
		TotalCount:             2,
		PercentWatched:         50,
		TotalDurationMinutes:   420,
		WatchedDurationMinutes: 120,
	}, Compute(items))
}

func TestItemType(t *testing.T) {
	ref := domain.ContentRef{ID: 1, Type: domain.ContentTypeMovie}
	assert.Equal(t, domain.ContentTypeMovie, Item{Ref: ref}.Type())
	assert.Equal(t, domain.ContentTypeMovie, Item{Ref: ref, Detail: &domain.ContentDetail{}}.Type())
	assert.Equal(t, domain.ContentTypeTV, Item{Ref: ref, Detail: show(1, 1, 1)}.Type())
}

func TestCompute_Empty(t *testing.T) {
	assert.Equal(t, domain.ListStats{}, Compute(nil))
}

func TestIsFullyWatched(t *testing.T) {
	tests := []struct {
		name string
		typ  domain.ContentType
		logs []domain.LogEntry
		want bool
	}{
		{name: "movie without logs", typ: domain.ContentTypeMovie, want: false},
		{name: "movie with any log", typ: domain.ContentTypeMovie, logs: []domain.LogEntry{seasonLog(1)}, want: true},
		{name: "tv whole series", typ: domain.ContentTypeTV, logs: []domain.LogEntry{wholeLog()}, want: true},
		{name: "tv season only", typ: domain.ContentTypeTV, logs: []domain.LogEntry{seasonLog(1), seasonLog(2)}, want: false},
		{name: "tv episodes only", typ: domain.ContentTypeTV, logs: []domain.LogEntry{episodeLog(1, 1)}, want: false},
		{name: "tv mixed", typ: domain.ContentTypeTV, logs: []domain.LogEntry{episodeLog(1, 1), wholeLog()}, want: true},
		{name: "unknown type", typ: "", logs: []domain.LogEntry{wholeLog()}, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsFullyWatched(tt.typ, tt.logs))
		})
	}
}

func TestDuration(t *testing.T) {
	tests := []struct {
		name   string
		typ    domain.ContentType
		detail *domain.ContentDetail
		want   int
	}{
		{name: "nil", typ: domain.ContentTypeMovie, detail: nil, want: 0},
		{name: "movie", typ: domain.ContentTypeMovie, detail: movie(1, 95), want: 95},
		{name: "movie without runtime", typ: domain.ContentTypeMovie, detail: &domain.ContentDetail{}, want: 0},
		{name: "tv uses first runtime", typ: domain.ContentTypeTV, detail: show(2, 10, 42, 60), want: 420},
		{name: "tv without runtimes", typ: domain.ContentTypeTV, detail: show(2, 10), want: 0},
		{name: "tv without episodes", typ: domain.ContentTypeTV, detail: &domain.ContentDetail{EpisodeRunTime: []int{30}}, want: 0},
		{name: "unknown type", typ: "", detail: movie(1, 95), want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Duration(tt.typ, tt.detail))
		})
	}
}

func TestPercentWatched(t *testing.T) {
	assert.Equal(t, 0, PercentWatched(0, 0))
	assert.Equal(t, 33, PercentWatched(1, 3))
	assert.Equal(t, 67, PercentWatched(2, 3))
	assert.Equal(t, 50, PercentWatched(1, 2))
	assert.Equal(t, 100, PercentWatched(4, 4))
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		minutes int
		units   Units
		want    string
	}{
		{0, UnitsEN, "0m"},
		{45, UnitsEN, "45m"},
		{59, UnitsEN, "59m"},
		{60, UnitsEN, "1h"},
		{89, UnitsEN, "1h"},
		{90, UnitsEN, "2h"},
		{130, UnitsEN, "2h"},
		{45, UnitsTR, "45 dk"},
		{130, UnitsTR, "2 sa"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatDuration(tt.minutes, tt.units), "%d minutes", tt.minutes)
	}
	assert.Equal(t, UnitsTR, UnitsFor("tr"))
	assert.Equal(t, UnitsEN, UnitsFor("de"))
}

type fakeDetails struct {
	byRef map[domain.ContentRef]*domain.ContentDetail
}

func (f *fakeDetails) Detail(ctx context.Context, ref domain.ContentRef) (*domain.ContentDetail, error) {
	if d, ok := f.byRef[ref]; ok {
		return d, nil
	}
	return nil, domain.ErrNotFound
}

type fakeLogs struct {
	mu    sync.Mutex
	byRef map[domain.ContentRef][]domain.LogEntry
	fail  map[domain.ContentRef]bool
	calls int
}

func (f *fakeLogs) ForContent(ctx context.Context, ref domain.ContentRef) ([]domain.LogEntry, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.fail[ref] {
		return nil, errors.New("logs unavailable")
	}
	return f.byRef[ref], nil
}

func TestLoader_DegradesPerItem(t *testing.T) {
	m, s1, s2 := movie(1, 120), show(2, 10, 30), show(3, 8, 45)
	missing := domain.ContentRef{ID: 4, Type: domain.ContentTypeMovie}

	details := &fakeDetails{byRef: map[domain.ContentRef]*domain.ContentDetail{m.Ref: m, s1.Ref: s1, s2.Ref: s2}}
	logs := &fakeLogs{
		byRef: map[domain.ContentRef][]domain.LogEntry{
			m.Ref:   {wholeLog()},
			s1.Ref:  {wholeLog()},
			missing: {wholeLog()},
		},
		fail: map[domain.ContentRef]bool{s2.Ref: true},
	}

	l := NewLoader(details, logs, domain.Session{Token: "tok"}, adapter.NullLogger())
	got, items, err := l.Stats(context.Background(), []domain.ContentRef{m.Ref, s1.Ref, s2.Ref, missing})
	require.NoError(t, err)

	require.Len(t, items, 4)
	assert.Equal(t, missing, items[3].Ref, "input order kept")
	assert.Nil(t, items[3].Detail)
	assert.Empty(t, items[2].Logs)

	assert.Equal(t, 4, got.TotalCount)
	assert.Equal(t, 3, got.WatchedCount, "missing detail still counts as watched, with zero duration")
	assert.Equal(t, 780, got.TotalDurationMinutes)
	assert.Equal(t, 420, got.WatchedDurationMinutes)
	assert.Equal(t, 75, got.PercentWatched)
}

func TestLoader_AnonymousSkipsLogs(t *testing.T) {
	m := movie(1, 100)
	details := &fakeDetails{byRef: map[domain.ContentRef]*domain.ContentDetail{m.Ref: m}}
	logs := &fakeLogs{byRef: map[domain.ContentRef][]domain.LogEntry{m.Ref: {wholeLog()}}}

	l := NewLoader(details, logs, domain.Session{}, adapter.NullLogger())
	got, _, err := l.Stats(context.Background(), []domain.ContentRef{m.Ref})
	require.NoError(t, err)

	assert.Zero(t, logs.calls)
	assert.Equal(t, 0, got.WatchedCount)
	assert.Equal(t, 100, got.TotalDurationMinutes)
}

func TestLoader_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	l := NewLoader(&fakeDetails{}, &fakeLogs{}, domain.Session{Token: "tok"}, adapter.NullLogger())
	_, err := l.Load(ctx, []domain.ContentRef{{ID: 1, Type: domain.ContentTypeMovie}})
	assert.ErrorIs(t, err, context.Canceled)
}
