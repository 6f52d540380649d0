package toggle

import (
	"context"
	"testing"

	"github.com/mmcdole/cinelog/internal/adapter"
	"github.com/mmcdole/cinelog/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockLikes struct {
	mock.Mock
}

func (m *mockLikes) LikeStatus(ctx context.Context, logID string) (bool, error) {
	args := m.Called(ctx, logID)
	return args.Bool(0), args.Error(1)
}

func (m *mockLikes) LikeCount(ctx context.Context, logID string) (int, error) {
	args := m.Called(ctx, logID)
	return args.Int(0), args.Error(1)
}

func (m *mockLikes) Like(ctx context.Context, logID string) (*int, error) {
	args := m.Called(ctx, logID)
	n, _ := args.Get(0).(*int)
	return n, args.Error(1)
}

func (m *mockLikes) Unlike(ctx context.Context, logID string) (*int, error) {
	args := m.Called(ctx, logID)
	n, _ := args.Get(0).(*int)
	return n, args.Error(1)
}

func TestNewLike_Lifecycle(t *testing.T) {
	repo := &mockLikes{}
	repo.On("LikeStatus", mock.Anything, "l1").Return(false, nil)
	repo.On("LikeCount", mock.Anything, "l1").Return(10, nil)
	repo.On("Like", mock.Anything, "l1").Return(intPtr(12), nil).Once()
	repo.On("Unlike", mock.Anything, "l1").Return(nil, nil).Once()

	c := NewLike(repo, user, domain.LogEntry{LogID: "l1", LikeCount: 8}, Options{Logger: adapter.NullLogger()})
	assert.Equal(t, 8, c.State().Count, "seeded from the rendered entry")

	require.NoError(t, c.Init(context.Background()))
	assert.Equal(t, 10, c.State().Count)

	require.NoError(t, c.Toggle(context.Background()))
	assert.Equal(t, State{Active: true, Count: 12}, c.State())

	require.NoError(t, c.Toggle(context.Background()))
	assert.Equal(t, State{Active: false, Count: 11}, c.State(), "optimistic count kept when the server sends none")

	repo.AssertExpectations(t)
}

type mockWatchlist struct {
	mock.Mock
}

func (m *mockWatchlist) WatchlistStatus(ctx context.Context, ref domain.ContentRef) (bool, string, error) {
	args := m.Called(ctx, ref)
	return args.Bool(0), args.String(1), args.Error(2)
}

func (m *mockWatchlist) AddToWatchlist(ctx context.Context, ref domain.ContentRef) (string, error) {
	args := m.Called(ctx, ref)
	return args.String(0), args.Error(1)
}

func (m *mockWatchlist) RemoveFromWatchlist(ctx context.Context, itemID string) error {
	return m.Called(ctx, itemID).Error(0)
}

var matrix = domain.ContentRef{ID: 603, Type: domain.ContentTypeMovie}

func TestWatchlistActions_AddThenRemoveUsesItemID(t *testing.T) {
	repo := &mockWatchlist{}
	repo.On("AddToWatchlist", mock.Anything, matrix).Return("w-1", nil).Once()
	repo.On("RemoveFromWatchlist", mock.Anything, "w-1").Return(nil).Once()

	a := NewWatchlistActions(repo, matrix)
	_, err := a.Activate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "w-1", a.ItemID())
	item, ok := a.Item()
	require.True(t, ok)
	assert.Equal(t, matrix, item.Ref)
	assert.False(t, item.AddedAt.IsZero())

	_, err = a.Deactivate(context.Background())
	require.NoError(t, err)
	assert.Empty(t, a.ItemID())
	_, ok = a.Item()
	assert.False(t, ok)
	repo.AssertExpectations(t)
}

func TestWatchlistActions_ConflictIsSuccess(t *testing.T) {
	repo := &mockWatchlist{}
	repo.On("AddToWatchlist", mock.Anything, matrix).Return("", domain.ErrConflict).Once()
	repo.On("WatchlistStatus", mock.Anything, matrix).Return(true, "w-7", nil).Once()

	a := NewWatchlistActions(repo, matrix)
	_, err := a.Activate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "w-7", a.ItemID())
	item, ok := a.Item()
	require.True(t, ok)
	assert.True(t, item.AddedAt.IsZero(), "status does not report when it was added")
	repo.AssertExpectations(t)
}

func TestWatchlistActions_RemoveWithUnknownItemReadsStatus(t *testing.T) {
	tests := []struct {
		name     string
		inList   bool
		itemID   string
		removeOK bool
	}{
		{name: "present", inList: true, itemID: "w-3", removeOK: true},
		{name: "already gone", inList: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &mockWatchlist{}
			repo.On("WatchlistStatus", mock.Anything, matrix).Return(tt.inList, tt.itemID, nil).Once()
			if tt.removeOK {
				repo.On("RemoveFromWatchlist", mock.Anything, tt.itemID).Return(nil).Once()
			}

			a := NewWatchlistActions(repo, matrix)
			_, err := a.Deactivate(context.Background())
			require.NoError(t, err)
			repo.AssertExpectations(t)
		})
	}
}

func TestWatchlistActions_RemoveNotFoundIsSuccess(t *testing.T) {
	repo := &mockWatchlist{}
	repo.On("WatchlistStatus", mock.Anything, matrix).Return(true, "w-4", nil).Once()
	repo.On("RemoveFromWatchlist", mock.Anything, "w-4").Return(domain.ErrNotFound).Once()

	a := NewWatchlistActions(repo, matrix)
	in, err := a.Status(context.Background())
	require.NoError(t, err)
	require.True(t, in)

	_, err = a.Deactivate(context.Background())
	assert.NoError(t, err)
}

func TestNewWatchlist_RollbackOnFailedRemove(t *testing.T) {
	repo := &mockWatchlist{}
	repo.On("WatchlistStatus", mock.Anything, matrix).Return(true, "w-5", nil).Once()
	repo.On("RemoveFromWatchlist", mock.Anything, "w-5").Return(domain.ErrServerOffline).Once()

	c := NewWatchlist(repo, user, matrix, Options{Logger: adapter.NullLogger()})
	require.NoError(t, c.Init(context.Background()))
	require.True(t, c.State().Active)

	err := c.Toggle(context.Background())
	assert.ErrorIs(t, err, domain.ErrServerOffline)
	assert.True(t, c.State().Active)
	assert.Zero(t, c.State().Count)
}
