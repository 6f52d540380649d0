package store

import (
	"testing"

	"github.com/mmcdole/cinelog/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func TestLocalStore_Details(t *testing.T) {
	tests := []struct {
		name string
		dir  func(t *testing.T) string
	}{
		{name: "memory only", dir: func(t *testing.T) string { return "" }},
		{name: "bolt", dir: func(t *testing.T) string { return t.TempDir() }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewLocalStore(tt.dir(t), "https://api.example.com/")
			require.NoError(t, err)
			defer s.Close()

			movie := domain.ContentRef{ID: 603, Type: domain.ContentTypeMovie}
			show := domain.ContentRef{ID: 603, Type: domain.ContentTypeTV}

			_, ok := s.GetDetail(movie)
			assert.False(t, ok)

			require.NoError(t, s.SaveDetail(&domain.ContentDetail{Ref: movie, Title: "The Matrix", Runtime: intPtr(136)}))
			require.NoError(t, s.SaveDetail(&domain.ContentDetail{Ref: show, Title: "Other", NumberOfEpisodes: intPtr(10)}))

			got, ok := s.GetDetail(movie)
			require.True(t, ok)
			assert.Equal(t, "The Matrix", got.Title)
			assert.Equal(t, 136, *got.Runtime)

			// Same id, different type is a distinct entry
			got, ok = s.GetDetail(show)
			require.True(t, ok)
			assert.Equal(t, "Other", got.Title)

			s.InvalidateDetail(movie)
			_, ok = s.GetDetail(movie)
			assert.False(t, ok)

			s.InvalidateDetails()
			_, ok = s.GetDetail(show)
			assert.False(t, ok)
		})
	}
}

func TestLocalStore_ListsPersistAcrossReopen(t *testing.T) {
	dir := t.TempDir()

	s, err := NewLocalStore(dir, "https://api.example.com")
	require.NoError(t, err)

	list := &domain.DraftList{
		Name: "weekend",
		Entries: []domain.ListEntry{
			{Ref: domain.ContentRef{ID: 1, Type: domain.ContentTypeMovie}, Title: "One"},
		},
	}
	require.NoError(t, s.SaveList(list))
	require.NoError(t, s.SaveList(&domain.DraftList{Name: "archive"}))
	require.NoError(t, s.Close())

	s, err = NewLocalStore(dir, "https://api.example.com")
	require.NoError(t, err)
	defer s.Close()

	got, ok := s.GetList("weekend")
	require.True(t, ok)
	require.Len(t, got.Entries, 1)
	assert.Equal(t, "One", got.Entries[0].Title)
	assert.Equal(t, []string{"archive", "weekend"}, s.ListNames())

	require.NoError(t, s.DeleteList("archive"))
	assert.Equal(t, []string{"weekend"}, s.ListNames())
}

func TestLocalStore_ScopedPerServer(t *testing.T) {
	dir := t.TempDir()

	a, err := NewLocalStore(dir, "https://a.example.com")
	require.NoError(t, err)
	require.NoError(t, a.SaveList(&domain.DraftList{Name: "mine"}))
	require.NoError(t, a.Close())

	b, err := NewLocalStore(dir, "https://b.example.com")
	require.NoError(t, err)
	defer b.Close()

	assert.Empty(t, b.ListNames())
}

func TestLocalStore_SaveListRequiresName(t *testing.T) {
	s, err := NewLocalStore("", "")
	require.NoError(t, err)

	assert.Error(t, s.SaveList(&domain.DraftList{}))
}
