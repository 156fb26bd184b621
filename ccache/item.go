// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2023-present Datadog, Inc.

package ccache

import "github.com/DataDog/intrusive-go/doubly"

// Item is an entry in the cache; tracking a key and value together with the
// necessary state. Items are themselves the nodes of the cache's recency
// list, so tracking recency does not allocate.
type Item[K cacheKey, V any] struct {
	links   doubly.Links[Item[K, V]] // The recency list links, owned by [Cache.worker]
	key     K                        // The key of this item
	value   V                        // The value of this item
	inList  bool                     // True if the item is currently in the recency list
	deleted bool                     // True if the item was deleted already
}

// newItem initializes a new [Item] with the given key and value.
func newItem[K cacheKey, V any](key K, value V) *Item[K, V] {
	return &Item[K, V]{
		key:   key,
		value: value,
	}
}

// Key returns the key associated with this [Item].
func (i *Item[K, V]) Key() K {
	return i.key
}

// Value returns the value associated with this [Item].
func (i *Item[K, V]) Value() V {
	return i.value
}

// Links implements [doubly.Linked]. It is reserved to the recency list.
func (i *Item[K, V]) Links() *doubly.Links[Item[K, V]] {
	return &i.links
}

// Payload implements [doubly.Node]. It is reserved to the recency list.
func (i *Item[K, V]) Payload() *V {
	return &i.value
}
