package main

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/mmcdole/cinelog/internal/adapter"
	"github.com/mmcdole/cinelog/internal/domain"
	"github.com/mmcdole/cinelog/internal/lists"
	"github.com/mmcdole/cinelog/internal/stats"
	"github.com/mmcdole/cinelog/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func newLists(t *testing.T) *lists.Service {
	t.Helper()
	st, err := store.NewLocalStore("", "")
	require.NoError(t, err)
	return lists.NewService(st, adapter.NullLogger())
}

func TestResolveRefs(t *testing.T) {
	svc := newLists(t)
	_, err := svc.Create("weekend")
	require.NoError(t, err)
	_, _, err = svc.Add("weekend", domain.ListEntry{Ref: domain.ContentRef{ID: 603, Type: domain.ContentTypeMovie}, Title: "The Matrix"})
	require.NoError(t, err)

	refs, title, err := resolveRefs(options{list: "weekend"}, svc)
	require.NoError(t, err)
	assert.Equal(t, "weekend", title)
	assert.Equal(t, []domain.ContentRef{{ID: 603, Type: domain.ContentTypeMovie}}, refs)

	refs, _, err = resolveRefs(options{refs: []string{"movie:603", "tv:1399"}}, svc)
	require.NoError(t, err)
	assert.Equal(t, domain.ContentTypeTV, refs[1].Type)

	_, _, err = resolveRefs(options{refs: []string{"book:1"}}, svc)
	assert.Error(t, err)

	_, _, err = resolveRefs(options{}, svc)
	assert.Error(t, err)

	_, _, err = resolveRefs(options{list: "weekend", refs: []string{"movie:1"}}, svc)
	assert.Error(t, err)

	_, _, err = resolveRefs(options{list: "missing"}, svc)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func sampleItems() []stats.Item {
	return []stats.Item{
		{
			Ref:    domain.ContentRef{ID: 1, Type: domain.ContentTypeMovie},
			Detail: &domain.ContentDetail{Title: "Heat", Runtime: intPtr(120)},
			Logs:   []domain.LogEntry{{LogID: "a"}},
		},
		{
			Ref:    domain.ContentRef{ID: 2, Type: domain.ContentTypeTV},
			Detail: &domain.ContentDetail{Title: "Dark", NumberOfEpisodes: intPtr(10), EpisodeRunTime: []int{30}},
		},
	}
}

func TestWriteText(t *testing.T) {
	items := sampleItems()
	var buf bytes.Buffer
	require.NoError(t, writeText(&buf, "mix", stats.Compute(items), items, stats.UnitsEN, true))

	out := buf.String()
	assert.Contains(t, out, "1 of 2")
	assert.Contains(t, out, "(50%)")
	assert.Contains(t, out, "2h of 7h")
	assert.Contains(t, out, "Heat")
	assert.Contains(t, out, "Dark")
}

func TestWriteJSON(t *testing.T) {
	items := sampleItems()
	var buf bytes.Buffer
	require.NoError(t, writeJSON(&buf, "mix", stats.Compute(items), items))

	var got map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, float64(420), got["totalDuration"])
	assert.Equal(t, float64(120), got["watchedDuration"])
	assert.Len(t, got["items"], 2)
}
