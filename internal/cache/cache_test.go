package cache

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abbradar/anki-thai-dictionary/internal/domain"
)

func countingFetch(calls *atomic.Int32) FetchFunc {
	return func(ctx context.Context, id domain.EntryID) (*domain.DictionaryEntry, error) {
		calls.Add(1)
		return &domain.DictionaryEntry{
			ID:   id,
			Word: fmt.Sprintf("word-%d", id),
			Definitions: []domain.Definition{
				{Index: 1, Text: "definition"},
			},
		}, nil
	}
}

func TestCacheSingleFetchPerID(t *testing.T) {
	var calls atomic.Int32
	c := New(countingFetch(&calls))
	ctx := context.Background()

	first, err := c.Entry(ctx, 131210)
	require.NoError(t, err)
	second, err := c.Entry(ctx, 131210)
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, int32(1), calls.Load())

	_, err = c.Entry(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestCacheErrorsNotCached(t *testing.T) {
	var calls atomic.Int32
	c := New(func(ctx context.Context, id domain.EntryID) (*domain.DictionaryEntry, error) {
		if calls.Add(1) == 1 {
			return nil, domain.ErrEntryNotFound
		}
		return &domain.DictionaryEntry{ID: id, Word: "w"}, nil
	})
	ctx := context.Background()

	_, err := c.Entry(ctx, 1)
	assert.ErrorIs(t, err, domain.ErrEntryNotFound)

	entry, err := c.Entry(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, domain.EntryID(1), entry.ID)
	assert.Equal(t, int32(2), calls.Load())
}

func TestCacheConcurrentSameID(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	var calls atomic.Int32

	c := New(func(ctx context.Context, id domain.EntryID) (*domain.DictionaryEntry, error) {
		if calls.Add(1) == 1 {
			close(started)
			<-release
		}
		return &domain.DictionaryEntry{ID: id, Word: "w"}, nil
	})

	const workers = 8
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			entry, err := c.Entry(context.Background(), 7)
			assert.NoError(t, err)
			assert.Equal(t, domain.EntryID(7), entry.ID)
		}()
	}

	// Hold the first fetch open until every worker is queued behind it.
	<-started
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
}

func TestCachePrefetch(t *testing.T) {
	var calls atomic.Int32
	c := New(countingFetch(&calls))
	ids := []domain.EntryID{1, 2, 3, 2, 1}

	require.NoError(t, c.Prefetch(context.Background(), ids, 4))
	assert.Equal(t, int32(3), calls.Load())

	// Everything is warm now; no further fetches.
	for _, id := range ids {
		_, err := c.Entry(context.Background(), id)
		require.NoError(t, err)
	}
	assert.Equal(t, int32(3), calls.Load())
}
