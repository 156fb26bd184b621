// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2023-present Datadog, Inc.

package doubly

import "github.com/DataDog/intrusive-go/intrusive"

type (
	// Links is the pair of links a node must embed in order to be a member of a
	// [List]. The zero value is an unlinked node.
	Links[N any] struct {
		prev intrusive.Link[N]
		next intrusive.Link[N]
	}

	// Linked is implemented by pointers to node types that embed [Links].
	Linked[N any] interface {
		*N
		// Links returns the node's embedded links. While the node is in a list,
		// only the list may modify them.
		Links() *Links[N]
	}

	// Node is a [Linked] node carrying a payload of type T.
	Node[T any, N any] interface {
		Linked[N]
		// Payload returns the node's payload, for reading and writing.
		Payload() *T
	}
)

// Prev returns the link to the previous node.
func (l *Links[N]) Prev() intrusive.Link[N] {
	return l.prev
}

// Next returns the link to the next node.
func (l *Links[N]) Next() intrusive.Link[N] {
	return l.next
}

// Take returns the current links and resets both of them to none, so that a
// node removed from a list keeps no stale reference into it.
func (l *Links[N]) Take() Links[N] {
	return Links[N]{prev: l.prev.Take(), next: l.next.Take()}
}

// Next returns the node following n in its list, or nil if n is the last.
func Next[N any, P Linked[N]](n P) *N {
	return n.Links().next.Get()
}

// Prev returns the node preceding n in its list, or nil if n is the first.
func Prev[N any, P Linked[N]](n P) *N {
	return n.Links().prev.Get()
}

// PeekNext returns the payload of the node following n, or nil if n is the
// last node of its list.
func PeekNext[T any, N any, P Node[T, N]](n P) *T {
	if next := n.Links().next.Get(); next != nil {
		return P(next).Payload()
	}
	return nil
}

// PeekPrev returns the payload of the node preceding n, or nil if n is the
// first node of its list.
func PeekPrev[T any, N any, P Node[T, N]](n P) *T {
	if prev := n.Links().prev.Get(); prev != nil {
		return P(prev).Payload()
	}
	return nil
}
