// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2023-present Datadog, Inc.

// Package intrusive contains the building blocks shared by the intrusive
// lists of the [github.com/DataDog/intrusive-go/singly] and
// [github.com/DataDog/intrusive-go/doubly] packages.
//
// An intrusive list does not allocate wrapper cells for its elements: the link
// fields live inside the elements themselves, which makes such lists usable in
// places where a general purpose collection cannot allocate, such as the
// free-list of an allocator. The list only ever manipulates [Link] values that
// are already present inside the nodes it is given.
//
// Nodes enter and leave a list through a [Ref], which is one of exactly two
// ownership strategies:
//   - [Owned] is the exclusive owner of its node. Pushing it into a list moves
//     ownership into the list, popping it moves ownership back out;
//   - [Raw] is a non-owning handle on memory whose lifetime is managed by the
//     caller, possibly outside of the Go heap altogether.
package intrusive

import (
	"fmt"
	"unsafe"
)

// Link is an optional, non-owning reference to a node of type N. It is the
// building block of the next/prev fields embedded in list nodes. A Link never
// keeps track of who owns the node it points to; that is the job of the [Ref]
// strategy the node was inserted with.
//
// The zero value is the absent link, same as [None].
type Link[N any] struct {
	node *N
}

// None returns an absent [Link].
func None[N any]() Link[N] {
	return Link[N]{}
}

// IsNone returns true if no node is attached to this link.
func (l Link[N]) IsNone() bool {
	return l.node == nil
}

// IsSome returns true if a node is attached to this link.
func (l Link[N]) IsSome() bool {
	return l.node != nil
}

// Get returns the node this link refers to, or nil if the link is absent. The
// node can be read and written through the returned pointer; this does not
// transfer ownership.
func (l Link[N]) Get() *N {
	return l.node
}

// Ptr returns the raw address of the linked node, or nil. It is meant for
// identity comparisons and bookkeeping only.
func (l Link[N]) Ptr() unsafe.Pointer {
	return unsafe.Pointer(l.node)
}

// Take returns the current value of the link and resets it to [None].
func (l *Link[N]) Take() Link[N] {
	old := *l
	l.node = nil
	return old
}

// String implements [fmt.Stringer].
func (l Link[N]) String() string {
	if l.node == nil {
		return "Link(none)"
	}
	return fmt.Sprintf("Link(%p)", l.node)
}
