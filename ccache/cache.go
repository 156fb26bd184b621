// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2023-present Datadog, Inc.

// Package ccache is a "trimmed down" version of [github.com/karlseguin/ccache/v3]
// that only has the simple features (no custom expiry times, no hooks, etc...)
// and that is adapted to work off integer keys instead of strings.
//
// Its recency list is an intrusive [doubly.List]: the cache [Item] values embed
// their own list links, so promoting, demoting and evicting items never
// allocates list nodes. The list is only ever touched by the [Cache.worker]
// goroutine, which is what makes it safe to use a single-threaded list from a
// concurrent cache.
//
// It has also been adapted slightly, including:
//   - introduction of [Cache.MoveToFront] method to promote items to the font of
//     the recency queue without incurring a deletion operation;
//   - introduction of [Cache.GetOrStore] method to atomically check for existence
//     of an item, and creating of a new if needed;
//   - introduction of [Cache.Stats] to observe hits, misses and evictions.
package ccache

import (
	"context"
	"time"

	"github.com/DataDog/intrusive-go/doubly"
	"github.com/DataDog/intrusive-go/intrusive"
	"github.com/DataDog/intrusive-go/log"
	"github.com/pkg/errors"
	"go.uber.org/atomic"
)

const (
	maxCount           = 4_096         // Maximum number of items held in the cache
	itemsToPrune       = maxCount / 4  // Number of items to prune when the cache is full
	promoteBufferCount = maxCount / 16 // Size of the promotion queue. If full, promotions are not done
	deleteBufferCount  = maxCount / 4  // Size of the deletion queue. If full, calls to [Cache.Set] will block when replacing values
)

type (
	Cache[K cacheKey, V any] struct {
		control                      // Control channel for the [Cache]
		deletables  chan *Item[K, V] // Ask [Cache.worker] to remove an item from the recency list
		promotables chan *Item[K, V] // Ask [Cache.worker] to move an item to the front of the recency list
		buckets     []bucket[K, V]   // Buckets for the cache's backing store

		// Maintained by [Cache.worker] only
		list doubly.List[V, Item[K, V], *Item[K, V], intrusive.Raw[Item[K, V]]] // Recency list, most recent first

		// Counters backing [Cache.Stats]
		hits      atomic.Uint64
		misses    atomic.Uint64
		evictions atomic.Uint64

		// Constant for operations
		bucketMask uint32
	}

	// Stats is a snapshot of the cache's counters.
	Stats struct {
		Hits      uint64 // Lookups that found an item
		Misses    uint64 // Lookups that did not find an item
		Evictions uint64 // Items pruned to make room for new ones
	}

	cacheKey interface {
		int32 | int64 | uint32 | uint64 | int | uint | uintptr
	}
)

// New creates a new cache and starts its worker goroutine. [Cache.Close] must
// be called after it ceases to be useful so that the worker goroutine exits.
// The cache will be sharded in 2^4=16 buckets, to use a different shard count,
// use [NewWithShardBits] function instead.
func New[K cacheKey, V any]() *Cache[K, V] {
	return NewWithShardBits[K, V](4)
}

// NewWithShardBits creates a new cache and starts its worker goroutine.
// [Cache.Close] must be called after it ceases to be useful so that the worker
// goroutine exits. The cache will be sharded in 2^bucketCountPow buckets.
func NewWithShardBits[K cacheKey, V any](bucketCountPow uint8) *Cache[K, V] {
	bucketCount := uint32(1) << bucketCountPow
	bucketMask := bucketCount - 1 // Effectively the bucketCountPow low bits

	cache := &Cache[K, V]{
		control:     newControl(),
		buckets:     make([]bucket[K, V], bucketCount),
		deletables:  make(chan *Item[K, V], deleteBufferCount),
		promotables: make(chan *Item[K, V], promoteBufferCount),
		bucketMask:  bucketMask,
	}

	for i := range bucketCount {
		cache.buckets[i].lookup = make(map[K]*Item[K, V])
	}

	go cache.worker()

	return cache
}

// Get retrieves the [Item] associated with the supplied key. If no such item
// exist, nil is returned. This does not move the item to the front of the
// recency queue.
func (c *Cache[K, V]) Get(key K) *Item[K, V] {
	item := c.bucket(key).get(key)
	c.record(item != nil)
	return item
}

// GetOrStore retrieves the [Item] associated with the supplied key. If no such
// item exist, the value returned by the provided load callback is stored, and
// the new [Item] is returned. Use of the callback allows avoiding unnecessary
// allocations. Existing items are not moved to the front of the recency queue,
// but new items are added at the front of the recency queue, blocking if the
// promotion queue is full.
func (c *Cache[K, V]) GetOrStore(key K, load func() V) (*Item[K, V], bool) {
	item, found := c.bucket(key).getOrStore(key, load)
	c.record(found)
	if !found {
		c.insert(item)
	}
	return item, found
}

// MoveToFront moves the supplied item to the front of the recency list; meaning
// it becomes the last item eligible for pruning. If the promotion queue is
// full, this does nothing and immediately returns false.
func (c *Cache[K, V]) MoveToFront(item *Item[K, V]) bool {
	select {
	case c.promotables <- item:
		// There was space in the queue, so we've successfully registered!
		return true

	default:
		// There was no space in the queue, so we're ignoring this request...
		return false
	}
}

// Set adds or replaces an item to the [Cache], and returns the associated
// [Item], which becomes the most recently used. If an existing value is being
// replaced, its [Item] is added to the deletion queue. Both queues are waited
// on when full.
func (c *Cache[K, V]) Set(key K, value V) *Item[K, V] {
	item, oldItem := c.bucket(key).set(key, value)
	if oldItem != nil {
		// We replaced an existing item, so need to remove the old one from the
		// recency queue, as it's no longer in store.
		c.deletables <- oldItem
	}
	c.insert(item)
	return item
}

// insert hands a new item over to the [Cache.worker]. Unlike
// [Cache.MoveToFront], it waits for room in the promotion queue: an item that
// never reaches the recency list could never be pruned.
func (c *Cache[K, V]) insert(item *Item[K, V]) {
	c.promotables <- item
}

// Len returns the number of items currently held in the cache's backing store.
// Items evicted or replaced are no longer counted, even if the [Cache.worker]
// has not caught up with them yet. New items may briefly push it past the
// cache capacity, until the worker prunes the least recently used ones.
func (c *Cache[K, V]) Len() int {
	n := 0
	for i := range c.buckets {
		n += c.buckets[i].len()
	}
	return n
}

// Stats returns a snapshot of the cache's hit, miss and eviction counters.
func (c *Cache[K, V]) Stats() Stats {
	return Stats{
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Evictions: c.evictions.Load(),
	}
}

// bucket returns the bucket associated with the supplied key.
func (c *Cache[K, V]) bucket(key K) *bucket[K, V] {
	slot := uint32(key) & c.bucketMask
	return &c.buckets[slot]
}

// record accounts for a lookup in the hit or miss counter.
func (c *Cache[K, V]) record(hit bool) {
	if hit {
		c.hits.Inc()
	} else {
		c.misses.Inc()
	}
}

// doDelete performs the deletion of the provided [Item]. This must only be
// called from the [Cache.worker] goroutine.
func (c *Cache[K, V]) doDelete(item *Item[K, V]) {
	item.deleted = true
	if !item.inList {
		// That was already deleted (or never inserted in the first place)
		return
	}
	c.list.Remove(item)
	item.inList = false
}

// doPromote performs the promotion of the provided [Item], placing it ahead of
// the recency list. This must only be called from the [Cache.worker] goroutine.
// Returns true if the item was added to the recency list, false if it was
// already there, or has already been evicted.
func (c *Cache[K, V]) doPromote(item *Item[K, V]) bool {
	if item.deleted {
		// Already deleted, not promoting anymore...
		return false
	}

	if item.inList {
		// Not a new item, so we just move it to the front of the list.
		c.list.MoveToFront(item)
		return false
	}

	// New item, so we insert it right at the front of the queue.
	c.list.PushFrontNode(intrusive.RawOf(item))
	item.inList = true
	return true
}

// gc prunes the least recently used items from the cache, making space for new
// items. This must only be called from the [Cache.worker] goroutine.
func (c *Cache[K, V]) gc() int {
	toPrune := itemsToPrune
	if delta := c.list.Len() - maxCount; delta > toPrune {
		toPrune = delta
	}

	dropped := 0
	for range toPrune {
		ref, ok := c.list.PopBackNode()
		if !ok {
			break
		}

		item := ref.Node()
		item.deleted = true
		item.inList = false
		// The key may have been rebound by [Cache.Set] since, in which case the
		// bucket holds a newer item that must survive. The replaced item is
		// not an eviction then.
		if c.bucket(item.key).evict(item) {
			dropped++
		}
	}
	c.evictions.Add(uint64(dropped))

	return dropped
}

// inspect verifies the recency list, and that each of its items is flagged as
// live and is still the one its bucket holds for its key. This must only be
// called from the [Cache.worker] goroutine, while no update is pending.
func (c *Cache[K, V]) inspect() recencyReport {
	report := recencyReport{len: c.list.Len()}
	if report.err = c.list.Check(); report.err != nil {
		return report
	}
	for item := range c.list.Nodes() {
		if !item.inList || item.deleted {
			report.err = errors.Errorf("ccache: item %v is in the recency list, but flagged inList=%t deleted=%t", item.key, item.inList, item.deleted)
			return report
		}
		if c.bucket(item.key).get(item.key) != item {
			report.err = errors.Errorf("ccache: item %v is in the recency list, but no longer in its bucket", item.key)
			return report
		}
	}
	return report
}

// worker is the goroutine that maintains the cache. It receives from
// [Cache.deletables], [Cache.promotables], and processes messages from
// [Cache.control]. It exits after [Cache.Close] is called; once outstanding
// queued items are processed.
func (c *Cache[K, V]) worker() {
	dropped := 0

	promoteItem := func(item *Item[K, V]) {
		if c.doPromote(item) && c.list.Len() > maxCount {
			dropped += c.gc()
		}
	}

	// process handles at most one pending deletion or promotion, and returns
	// false if there was none.
	process := func() bool {
		select {
		case item := <-c.deletables:
			c.doDelete(item)
		case item := <-c.promotables:
			promoteItem(item)
		default:
			return false
		}
		return true
	}

	drain := func(timeout time.Duration) {
		ctx := context.Background()
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		// Start by completely draining the promotion and deletion queues...
		for process() {
		}

		// Now, continue processing items from the promotion and deletion queues
		// until the context expires.
		for {
			select {
			case item := <-c.deletables:
				c.doDelete(item)
			case item := <-c.promotables:
				promoteItem(item)
			case <-ctx.Done():
				return
			}
		}
	}

	for {
		select {
		case item := <-c.deletables:
			// Actually delete old items from the recency queue
			c.doDelete(item)

		case item := <-c.promotables:
			// Add new items (or move existing items) to the front of the recency queue
			promoteItem(item)

		case ctrl := <-c.control:
			switch ctrl := ctrl.(type) {
			case controlStop:
				// [control.Close] has been called, stop operations...
				drain(ctrl.timeout)
				log.Debug("ccache: worker stopped with %d items in the recency list, %d evicted", c.list.Len(), dropped)
				return // Goroutine exits after draining

			case controlSyncUpdates:
				// [control.syncUpdates] was called, process all pending promotions &
				// deletions synchronously.
				for process() {
				}
				ctrl.done <- struct{}{}

			case controlCheck:
				for process() {
				}
				ctrl.report <- c.inspect()
			}
		}
	}
}
