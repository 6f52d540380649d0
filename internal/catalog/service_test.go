package catalog

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mmcdole/cinelog/internal/adapter"
	"github.com/mmcdole/cinelog/internal/domain"
	"github.com/mmcdole/cinelog/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type slowClient struct {
	calls atomic.Int32
	err   error
}

func (c *slowClient) ContentDetail(ctx context.Context, ref domain.ContentRef) (*domain.ContentDetail, error) {
	c.calls.Add(1)
	time.Sleep(20 * time.Millisecond)
	if c.err != nil {
		return nil, c.err
	}
	runtime := 100 + ref.ID
	return &domain.ContentDetail{Ref: ref, Title: ref.Key(), Runtime: &runtime}, nil
}

func newService(t *testing.T, client domain.DetailRepository) *Service {
	t.Helper()
	st, err := store.NewLocalStore(t.TempDir(), "https://api.example.com")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return NewService(client, st, adapter.NullLogger())
}

var matrix = domain.ContentRef{ID: 603, Type: domain.ContentTypeMovie}

func TestDetail_CachesAfterFirstFetch(t *testing.T) {
	client := &slowClient{}
	svc := newService(t, client)

	d, err := svc.Detail(context.Background(), matrix)
	require.NoError(t, err)
	assert.Equal(t, 703, *d.Runtime)

	_, err = svc.Detail(context.Background(), matrix)
	require.NoError(t, err)
	assert.Equal(t, int32(1), client.calls.Load())

	svc.Invalidate(matrix)
	_, err = svc.Refresh(context.Background(), matrix)
	require.NoError(t, err)
	assert.Equal(t, int32(2), client.calls.Load())
}

func TestDetail_ConcurrentMissesShareOneRequest(t *testing.T) {
	client := &slowClient{}
	svc := newService(t, client)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d, err := svc.Detail(context.Background(), matrix)
			assert.NoError(t, err)
			assert.Equal(t, "movie:603", d.Title)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), client.calls.Load())
}

func TestDetail_ErrorNotCached(t *testing.T) {
	client := &slowClient{err: domain.ErrServerOffline}
	svc := newService(t, client)

	_, err := svc.Detail(context.Background(), matrix)
	assert.ErrorIs(t, err, domain.ErrServerOffline)

	client.err = nil
	_, err = svc.Detail(context.Background(), matrix)
	assert.NoError(t, err)
}

func TestInvalidateAll(t *testing.T) {
	client := &slowClient{}
	svc := newService(t, client)
	show := domain.ContentRef{ID: 603, Type: domain.ContentTypeTV}

	_, _ = svc.Detail(context.Background(), matrix)
	_, _ = svc.Detail(context.Background(), show)
	require.Equal(t, int32(2), client.calls.Load(), "same id, different type")

	svc.InvalidateAll()
	_, _ = svc.Detail(context.Background(), matrix)
	assert.Equal(t, int32(3), client.calls.Load())
}

// gatedClient blocks every fetch until release is closed
type gatedClient struct {
	calls   atomic.Int32
	entered chan struct{}
	release chan struct{}
	ctxErr  atomic.Value
}

func (c *gatedClient) ContentDetail(ctx context.Context, ref domain.ContentRef) (*domain.ContentDetail, error) {
	c.calls.Add(1)
	c.entered <- struct{}{}
	<-c.release
	if err := ctx.Err(); err != nil {
		c.ctxErr.Store(err)
		return nil, err
	}
	return &domain.ContentDetail{Ref: ref, Title: "The Matrix"}, nil
}

func TestDetail_CancelledCallerDoesNotFailOthers(t *testing.T) {
	client := &gatedClient{entered: make(chan struct{}, 1), release: make(chan struct{})}
	svc := newService(t, client)

	firstCtx, cancelFirst := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := svc.Detail(firstCtx, matrix)
		firstErr <- err
	}()
	<-client.entered

	type result struct {
		d   *domain.ContentDetail
		err error
	}
	second := make(chan result, 1)
	go func() {
		d, err := svc.Detail(context.Background(), matrix)
		second <- result{d, err}
	}()

	cancelFirst()
	select {
	case err := <-firstErr:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("cancelled caller kept waiting")
	}

	close(client.release)
	select {
	case r := <-second:
		require.NoError(t, r.err)
		assert.Equal(t, "The Matrix", r.d.Title)
	case <-time.After(time.Second):
		t.Fatal("second caller never returned")
	}
	assert.Nil(t, client.ctxErr.Load())
	assert.Equal(t, int32(1), client.calls.Load())

	// The shared result was stored for later callers
	_, err := svc.Detail(context.Background(), matrix)
	require.NoError(t, err)
	assert.Equal(t, int32(1), client.calls.Load())
}
