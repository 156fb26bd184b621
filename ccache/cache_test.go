// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2023-present Datadog, Inc.

package ccache

import (
	"math/rand"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func TestCache(t *testing.T) {
	t.Run("Get", func(t *testing.T) {
		t.Run("Miss", func(t *testing.T) {
			cache := New[int, int]()
			defer cache.Close()

			assert.Nil(t, cache.Get(1337))
		})

		t.Run("Hit", func(t *testing.T) {
			cache := New[int, int]()
			defer cache.Close()

			setItem := cache.Set(1337, 42)

			getItem := cache.Get(1337)
			require.NotNil(t, getItem)
			require.Equal(t, setItem, getItem)
		})
	})

	t.Run("GetOrStore", func(t *testing.T) {
		cache := New[int, int]()
		defer cache.Close()

		item, found := cache.GetOrStore(1337, func() int { return 42 })
		require.NotNil(t, item)
		assert.False(t, found)
		assert.Equal(t, 42, item.Value())

		item, found = cache.GetOrStore(1337, func() int { return -58008 })
		require.NotNil(t, item)
		assert.True(t, found)
		assert.Equal(t, 42, item.Value())
	})

	t.Run("Set", func(t *testing.T) {
		cache := New[int, int]()
		defer cache.Close()

		item := cache.Set(1337, 42)
		require.NotNil(t, item)
		assert.Equal(t, 1337, item.Key())
		assert.Equal(t, 42, item.Value())

		t.Run("Overwrite", func(t *testing.T) {
			item := cache.Set(1337, -58008)
			require.NotNil(t, item)
			assert.Equal(t, 1337, item.Key())
			assert.Equal(t, -58008, item.Value())
		})
	})

	t.Run("MoveToFront", func(t *testing.T) {
		cache := New[int, int]()
		defer cache.Close()

		var item0 *Item[int, int]
		for i := range maxCount + itemsToPrune {
			item := cache.Set(i, i)
			if i == 0 {
				item0 = item
				continue
			}
			// Keep the item 0 atop the freshness list
			cache.MoveToFront(item0)
		}

		item := cache.Get(0)
		assert.Equal(t, item0, item)
	})

	t.Run("Close", func(t *testing.T) {
		cache := New[int, int]()

		var (
			goroutineCount = runtime.GOMAXPROCS(0) * 10
			barrier        sync.WaitGroup
			closeChan      = make(chan struct{})
			group          errgroup.Group
		)
		barrier.Add(goroutineCount + 1)
		for range goroutineCount {
			group.Go(func() error {
				// Synchronize the start of all the goroutines
				barrier.Done()
				barrier.Wait()

				for {
					// Check whether this is our last action or not... This is done this
					// way to ensure we slot one more request after the cache has been
					// closed before stopping to issue new requests.
					var exit bool
					select {
					case <-closeChan:
						exit = true
					default:
						// Don't wait
					}

					key := rand.Intn(2 * maxCount)
					switch rand.Intn(3) {
					case 0:
						_ = cache.Set(key, key)
					case 1:
						_ = cache.Get(key)
					case 2:
						_, _ = cache.GetOrStore(key, func() int { return key })
					}

					if exit {
						return nil
					}
				}
			})
		}
		barrier.Done()

		// In 10 ms, close the cache, and let further requests proceed...
		time.Sleep(10 * time.Millisecond)
		cache.Close()
		close(closeChan)

		// Wait until all goroutines have finished...
		require.NoError(t, group.Wait())
	})

	t.Run("gc", func(t *testing.T) {
		cache := New[int, int]()
		defer cache.Close()

		// Insert more items than are allowed to be retained...
		for i := range maxCount + itemsToPrune {
			_ = cache.Set(i, i)
			if i%(promoteBufferCount/2) == 0 {
				// Make sure we don't cause the promotion buffer to become full...
				cache.syncUpdates()
			}
		}

		// Wait for all pending promotes/deletes to have been flushed
		cache.syncUpdates()

		// Now, verify only the last maxCount items are in the cache...
		for i := range maxCount + itemsToPrune {
			item := cache.Get(i)
			if i < itemsToPrune {
				assert.Nil(t, item, "item %d should have been pruned", i)
				continue
			}
			require.NotNil(t, item, "item %d should not have been pruned", i)
			assert.Equal(t, i, item.Value())
		}

		assert.Equal(t, maxCount, cache.Len())
		assert.EqualValues(t, itemsToPrune, cache.Stats().Evictions)
		report := cache.check()
		require.NoError(t, report.err)
		assert.Equal(t, maxCount, report.len)
	})

	t.Run("LRU", func(t *testing.T) {
		cache := New[int, int]()
		defer cache.Close()

		for i := range maxCount {
			_ = cache.Set(i, i)
			if i%(promoteBufferCount/2) == 0 {
				cache.syncUpdates()
			}
		}
		cache.syncUpdates()

		// Touch the oldest few items so they are no longer eligible for pruning
		const touched = 10
		for i := range touched {
			item := cache.Get(i)
			require.NotNil(t, item)
			require.True(t, cache.MoveToFront(item))
		}
		cache.syncUpdates()

		// One more item triggers a collection
		_ = cache.Set(maxCount, maxCount)
		cache.syncUpdates()

		for i := range touched {
			assert.NotNil(t, cache.Get(i), "item %d was touched and should remain", i)
		}
		for i := touched; i < touched+itemsToPrune; i++ {
			assert.Nil(t, cache.Get(i), "item %d should have been pruned", i)
		}
		assert.NotNil(t, cache.Get(touched+itemsToPrune))
		assert.NotNil(t, cache.Get(maxCount))

		assert.Equal(t, maxCount+1-itemsToPrune, cache.Len())
		assert.EqualValues(t, itemsToPrune, cache.Stats().Evictions)
		report := cache.check()
		require.NoError(t, report.err)
		assert.Equal(t, cache.Len(), report.len)
	})

	t.Run("Replace", func(t *testing.T) {
		cache := New[int, int]()
		defer cache.Close()

		old := cache.Set(1337, 42)
		cache.syncUpdates()
		item := cache.Set(1337, 43)
		cache.syncUpdates()

		assert.NotSame(t, old, item)
		assert.Same(t, item, cache.Get(1337))
		assert.Equal(t, 1, cache.Len())

		// The replaced item left the recency list, the new one took its place.
		report := cache.check()
		require.NoError(t, report.err)
		assert.Equal(t, 1, report.len)
		assert.Zero(t, cache.Stats().Evictions)
	})

	t.Run("gc rebound key", func(t *testing.T) {
		// Drive the worker-side operations directly, without a worker.
		cache := &Cache[int, int]{buckets: make([]bucket[int, int], 1)}
		cache.buckets[0].lookup = make(map[int]*Item[int, int])

		stale, _ := cache.bucket(1).set(1, 1)
		require.True(t, cache.doPromote(stale))
		other, _ := cache.bucket(2).set(2, 2)
		require.True(t, cache.doPromote(other))

		// Key 1 is rebound, and the replaced item's deletion is not processed yet
		fresh, _ := cache.bucket(1).set(1, 3)

		assert.Equal(t, 1, cache.gc(), "only key 2 was actually evicted")
		assert.EqualValues(t, 1, cache.Stats().Evictions)
		assert.Same(t, fresh, cache.Get(1))
		assert.Nil(t, cache.Get(2))
		assert.True(t, stale.deleted)
		require.NoError(t, cache.list.Check())
		assert.Zero(t, cache.list.Len())
	})

	t.Run("Capacity", func(t *testing.T) {
		// Concurrent writers outpace the worker; new items must still all reach
		// the recency list so that the cache stays within its capacity.
		cache := New[int, int]()
		defer cache.Close()

		const (
			writers   = 8
			perWriter = 5_000
		)
		var group errgroup.Group
		for w := range writers {
			group.Go(func() error {
				for i := range perWriter {
					key := w*perWriter + i
					if i%2 == 0 {
						_ = cache.Set(key, key)
					} else {
						_, _ = cache.GetOrStore(key, func() int { return key })
					}
				}
				return nil
			})
		}
		require.NoError(t, group.Wait())

		report := cache.check()
		require.NoError(t, report.err)
		assert.LessOrEqual(t, cache.Len(), maxCount)
		assert.Equal(t, cache.Len(), report.len)
		assert.EqualValues(t, writers*perWriter-cache.Len(), cache.Stats().Evictions)
	})

	t.Run("Stats", func(t *testing.T) {
		cache := New[int, int]()
		defer cache.Close()

		assert.Zero(t, cache.Stats())

		assert.Nil(t, cache.Get(1))
		_ = cache.Set(1, 1)
		assert.NotNil(t, cache.Get(1))
		_, _ = cache.GetOrStore(2, func() int { return 2 })
		_, _ = cache.GetOrStore(2, func() int { return 3 })

		assert.Equal(t, Stats{Hits: 2, Misses: 2}, cache.Stats())
	})
}
