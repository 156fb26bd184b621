// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2023-present Datadog, Inc.

// Package doubly implements an intrusive doubly-linked list. Nodes embed their
// own [Links], so pushing and popping never allocates.
//
// A list is declared with four type parameters: the payload type T, the node
// type N, the pointer type P implementing [Node] for N, and the ownership
// strategy R (either [intrusive.Owned] or [intrusive.Raw]). A type alias keeps
// this readable:
//
//	type Block struct {
//		links doubly.Links[Block]
//		size  uintptr
//	}
//
//	func (b *Block) Links() *doubly.Links[Block] { return &b.links }
//	func (b *Block) Payload() *uintptr { return &b.size }
//
//	type FreeList = doubly.List[uintptr, Block, *Block, intrusive.Raw[Block]]
//
// Lists are not safe for concurrent use.
package doubly

import (
	"iter"

	"github.com/DataDog/intrusive-go/config"
	"github.com/DataDog/intrusive-go/intrusive"
	"github.com/DataDog/intrusive-go/log"
)

// List is an intrusive doubly-linked list. It keeps links to its head and tail
// nodes, and its length.
//
// The zero value for List is an empty list ready to use.
type List[T any, N any, P Node[T, N], R intrusive.Ref[N, R]] struct {
	head intrusive.Link[N]
	tail intrusive.Link[N]
	len  int
}

// New creates a new, empty [List].
func New[T any, N any, P Node[T, N], R intrusive.Ref[N, R]]() *List[T, N, P, R] {
	return &List[T, N, P, R]{}
}

// FromSeq creates a new [List] holding the references from seq, in order. It is
// equivalent to calling [List.PushBackNode] for each of them.
func FromSeq[T any, N any, P Node[T, N], R intrusive.Ref[N, R]](seq iter.Seq[R]) *List[T, N, P, R] {
	l := New[T, N, P, R]()
	l.Extend(seq)
	return l
}

// Len returns the number of nodes in the list. This is an O(1) operation.
func (l *List[T, N, P, R]) Len() int {
	return l.len
}

// IsEmpty returns true if the list has no nodes.
func (l *List[T, N, P, R]) IsEmpty() bool {
	return l.len == 0
}

// Head returns the first node of the list, or nil if it is empty. Note that this
// is distinct from [List.Front], which returns the first payload.
func (l *List[T, N, P, R]) Head() *N {
	return l.head.Get()
}

// Tail returns the last node of the list, or nil if it is empty.
func (l *List[T, N, P, R]) Tail() *N {
	return l.tail.Get()
}

// Front returns the payload of the first node, or nil if the list is empty.
func (l *List[T, N, P, R]) Front() *T {
	if head := l.head.Get(); head != nil {
		return P(head).Payload()
	}
	return nil
}

// Back returns the payload of the last node, or nil if the list is empty.
func (l *List[T, N, P, R]) Back() *T {
	if tail := l.tail.Get(); tail != nil {
		return P(tail).Payload()
	}
	return nil
}

// PushFrontNode inserts the node referenced by r at the front of the list. The
// reference is surrendered to the list until the node is popped or removed.
func (l *List[T, N, P, R]) PushFrontNode(r R) *List[T, N, P, R] {
	links := P(r.Node()).Links()
	links.prev = intrusive.None[N]()
	links.next = l.head

	link := r.IntoLink()
	if head := l.head.Get(); head != nil {
		P(head).Links().prev = link
	} else {
		l.tail = link
	}
	l.head = link
	l.len++

	l.verify()
	return l
}

// PushBackNode inserts the node referenced by r at the back of the list. The
// reference is surrendered to the list until the node is popped or removed.
func (l *List[T, N, P, R]) PushBackNode(r R) *List[T, N, P, R] {
	links := P(r.Node()).Links()
	links.prev = l.tail
	links.next = intrusive.None[N]()

	link := r.IntoLink()
	if tail := l.tail.Get(); tail != nil {
		P(tail).Links().next = link
	} else {
		l.head = link
	}
	l.tail = link
	l.len++

	l.verify()
	return l
}

// PopFrontNode removes the first node of the list and returns its reference.
// It returns false if the list is empty.
func (l *List[T, N, P, R]) PopFrontNode() (R, bool) {
	var zero R
	if l.head.IsNone() {
		return zero, false
	}

	link := l.head
	l.head = P(link.Get()).Links().Take().next
	if head := l.head.Get(); head != nil {
		P(head).Links().prev = intrusive.None[N]()
	} else {
		l.tail = intrusive.None[N]()
	}
	l.len--

	l.verify()
	return zero.Reclaim(link), true
}

// PopBackNode removes the last node of the list and returns its reference. It
// returns false if the list is empty.
func (l *List[T, N, P, R]) PopBackNode() (R, bool) {
	var zero R
	if l.tail.IsNone() {
		return zero, false
	}

	link := l.tail
	l.tail = P(link.Get()).Links().Take().prev
	if tail := l.tail.Get(); tail != nil {
		P(tail).Links().next = intrusive.None[N]()
	} else {
		l.head = intrusive.None[N]()
	}
	l.len--

	l.verify()
	return zero.Reclaim(link), true
}

// Remove unlinks n from the list and returns its reference. n must be a member
// of this list; Remove panics if n is evidently not linked into it, but cannot
// detect every misuse (e.g. a node from another list).
func (l *List[T, N, P, R]) Remove(n *N) R {
	links := P(n).Links()

	// Find the link that currently refers to n, so the reference can be
	// reclaimed from it.
	var self intrusive.Link[N]
	if prev := links.prev.Get(); prev != nil {
		self = P(prev).Links().next
	} else {
		self = l.head
	}
	if self.Get() != n || (links.next.IsNone() && l.tail.Get() != n) {
		panic("doubly: Remove called with a node that is not linked into this list")
	}

	old := links.Take()
	if prev := old.prev.Get(); prev != nil {
		P(prev).Links().next = old.next
	} else {
		l.head = old.next
	}
	if next := old.next.Get(); next != nil {
		P(next).Links().prev = old.prev
	} else {
		l.tail = old.prev
	}
	l.len--

	l.verify()
	var zero R
	return zero.Reclaim(self)
}

// MoveToFront moves n, which must be a member of this list, to its front.
func (l *List[T, N, P, R]) MoveToFront(n *N) {
	if l.head.Get() == n {
		return
	}
	l.PushFrontNode(l.Remove(n))
}

// MoveToBack moves n, which must be a member of this list, to its back.
func (l *List[T, N, P, R]) MoveToBack(n *N) {
	if l.tail.Get() == n {
		return
	}
	l.PushBackNode(l.Remove(n))
}

// Extend pushes every reference of seq to the back of the list, in order.
func (l *List[T, N, P, R]) Extend(seq iter.Seq[R]) *List[T, N, P, R] {
	for r := range seq {
		l.PushBackNode(r)
	}
	return l
}

// Drain returns a sequence that pops nodes from the front of the list until it
// is empty. Nodes not consumed when the iteration stops remain in the list.
func (l *List[T, N, P, R]) Drain() iter.Seq[R] {
	return func(yield func(R) bool) {
		for {
			r, ok := l.PopFrontNode()
			if !ok || !yield(r) {
				return
			}
		}
	}
}

// Nodes returns a sequence over the nodes of the list, from front to back. The
// list must not be modified during the iteration.
func (l *List[T, N, P, R]) Nodes() iter.Seq[*N] {
	return func(yield func(*N) bool) {
		for n := l.head.Get(); n != nil; n = P(n).Links().next.Get() {
			if !yield(n) {
				return
			}
		}
	}
}

// Backward returns a sequence over the nodes of the list, from back to front.
// The list must not be modified during the iteration.
func (l *List[T, N, P, R]) Backward() iter.Seq[*N] {
	return func(yield func(*N) bool) {
		for n := l.tail.Get(); n != nil; n = P(n).Links().prev.Get() {
			if !yield(n) {
				return
			}
		}
	}
}

// Payloads returns a sequence over the payloads of the list, from front to
// back. The list must not be modified during the iteration.
func (l *List[T, N, P, R]) Payloads() iter.Seq[*T] {
	return func(yield func(*T) bool) {
		for n := range l.Nodes() {
			if !yield(P(n).Payload()) {
				return
			}
		}
	}
}

// Check walks the list and verifies its structural invariants: the chain from
// the head has exactly [List.Len] nodes and ends at the tail, every node's prev
// link refers to the node before it, and the ends have no outer links. It runs
// in O(n) and returns an error wrapping [intrusive.ErrCorrupted] on the first
// violation found.
func (l *List[T, N, P, R]) Check() error {
	var (
		count int
		prev  intrusive.Link[N]
	)
	for cur := l.head; cur.IsSome(); count++ {
		if count == l.len {
			return intrusive.Corruptedf("doubly: chain from head is longer than len %d", l.len)
		}
		links := P(cur.Get()).Links()
		if links.prev != prev {
			return intrusive.Corruptedf("doubly: node #%d: prev is %v, expected %v", count, links.prev, prev)
		}
		prev, cur = cur, links.next
	}
	if count != l.len {
		return intrusive.Corruptedf("doubly: len is %d, but the chain has %d nodes", l.len, count)
	}
	if l.tail != prev {
		return intrusive.Corruptedf("doubly: tail is %v, but the chain ends at %v", l.tail, prev)
	}
	return nil
}

// verify runs [List.Check] after a mutation when invariant checks are enabled.
func (l *List[T, N, P, R]) verify() {
	if !config.Checks() {
		return
	}
	if err := l.Check(); err != nil {
		panic(log.Criticalf("doubly: %w", err))
	}
}
