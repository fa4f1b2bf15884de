package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rescale/pdrive/internal/events"
	"github.com/rescale/pdrive/internal/models"
)

type countingLoader struct {
	calls   atomic.Int32
	release chan struct{}
	err     error
}

func (l *countingLoader) GetFolderContents(ctx context.Context, id int64) (*models.FolderContents, error) {
	n := l.calls.Add(1)
	if l.release != nil {
		<-l.release
	}
	if l.err != nil {
		return nil, l.err
	}
	return &models.FolderContents{
		Folder: models.Folder{ID: id, Name: "f", Path: "f"},
		Files:  []models.File{{ID: int64(n), Name: "x"}},
	}, nil
}

func TestContentsReadThrough(t *testing.T) {
	loader := &countingLoader{}
	c := NewContentsCache(loader, nil)
	ctx := context.Background()

	first, err := c.Contents(ctx, 1)
	require.NoError(t, err)
	second, err := c.Contents(ctx, 1)
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, int32(1), loader.calls.Load())
	assert.Equal(t, 1, c.Len())
}

func TestInvalidateRefetches(t *testing.T) {
	loader := &countingLoader{}
	bus := events.NewEventBus(10)
	defer bus.Close()
	ch := bus.Subscribe(events.EventCacheInvalidated)

	c := NewContentsCache(loader, bus)
	ctx := context.Background()

	before, err := c.Contents(ctx, 7)
	require.NoError(t, err)
	c.Invalidate(7)

	_, ok := c.Peek(7)
	assert.False(t, ok)

	after, err := c.Contents(ctx, 7)
	require.NoError(t, err)
	assert.NotEqual(t, before.Files[0].ID, after.Files[0].ID)
	assert.Equal(t, int32(2), loader.calls.Load())

	select {
	case ev := <-ch:
		assert.Equal(t, int64(7), ev.(*events.CacheInvalidatedEvent).FolderID)
	case <-time.After(time.Second):
		t.Fatal("no invalidation event")
	}
}

func TestInvalidateOnlyTouchesOneFolder(t *testing.T) {
	loader := &countingLoader{}
	c := NewContentsCache(loader, nil)
	ctx := context.Background()

	_, err := c.Contents(ctx, 1)
	require.NoError(t, err)
	_, err = c.Contents(ctx, 2)
	require.NoError(t, err)

	c.Invalidate(1)
	_, ok := c.Peek(2)
	assert.True(t, ok)

	c.InvalidateAll()
	assert.Zero(t, c.Len())
}

func TestConcurrentMissesShareOneRequest(t *testing.T) {
	loader := &countingLoader{release: make(chan struct{})}
	c := NewContentsCache(loader, nil)
	ctx := context.Background()

	var wg sync.WaitGroup
	results := make([]*models.FolderContents, 5)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			r, err := c.Contents(ctx, 3)
			assert.NoError(t, err)
			results[i] = r
		}(i)
	}
	require.Eventually(t, func() bool { return loader.calls.Load() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(loader.release)
	wg.Wait()

	assert.Equal(t, int32(1), loader.calls.Load())
	for _, r := range results {
		assert.Same(t, results[0], r)
	}
}

func TestStaleLoadNotStoredAfterInvalidate(t *testing.T) {
	loader := &countingLoader{release: make(chan struct{})}
	c := NewContentsCache(loader, nil)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = c.Contents(context.Background(), 4)
	}()
	require.Eventually(t, func() bool { return loader.calls.Load() == 1 }, time.Second, 5*time.Millisecond)
	c.Invalidate(4)
	close(loader.release)
	<-done

	_, ok := c.Peek(4)
	assert.False(t, ok)
}

func TestErrorsAreNotCached(t *testing.T) {
	loader := &countingLoader{err: errors.New("boom")}
	c := NewContentsCache(loader, nil)

	_, err := c.Contents(context.Background(), 1)
	require.Error(t, err)
	_, err = c.Contents(context.Background(), 1)
	require.Error(t, err)
	assert.Equal(t, int32(2), loader.calls.Load())
}
