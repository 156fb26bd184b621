// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2023-present Datadog, Inc.

// Package singly implements an intrusive singly-linked list. Nodes embed a
// single [intrusive.Link] to their successor; the list only tracks its head,
// so insertion and removal happen at the front only, which makes it a stack.
//
// Lists are not safe for concurrent use.
package singly

import (
	"iter"

	"github.com/DataDog/intrusive-go/config"
	"github.com/DataDog/intrusive-go/intrusive"
	"github.com/DataDog/intrusive-go/log"
)

type (
	// Linked is implemented by pointers to node types that embed an
	// [intrusive.Link] to the next node.
	Linked[N any] interface {
		*N
		// Link returns the node's embedded link to its successor. While the
		// node is in a list, only the list may modify it.
		Link() *intrusive.Link[N]
	}

	// Node is a [Linked] node carrying a payload of type T.
	Node[T any, N any] interface {
		Linked[N]
		// Payload returns the node's payload, for reading and writing.
		Payload() *T
	}

	// List is an intrusive singly-linked list. It keeps a link to its head node,
	// and its length.
	//
	// The zero value for List is an empty list ready to use.
	List[T any, N any, P Node[T, N], R intrusive.Ref[N, R]] struct {
		head intrusive.Link[N]
		len  int
	}
)

// New creates a new, empty [List].
func New[T any, N any, P Node[T, N], R intrusive.Ref[N, R]]() *List[T, N, P, R] {
	return &List[T, N, P, R]{}
}

// FromSeq creates a new [List] by pushing every reference of seq, in order.
// The last reference of seq ends up at the head.
func FromSeq[T any, N any, P Node[T, N], R intrusive.Ref[N, R]](seq iter.Seq[R]) *List[T, N, P, R] {
	l := New[T, N, P, R]()
	l.Extend(seq)
	return l
}

// Next returns the node following n in its list, or nil if n is the last.
func Next[N any, P Linked[N]](n P) *N {
	return n.Link().Get()
}

// PeekNext returns the payload of the node following n, or nil if n is the
// last node of its list.
func PeekNext[T any, N any, P Node[T, N]](n P) *T {
	if next := n.Link().Get(); next != nil {
		return P(next).Payload()
	}
	return nil
}

// Len returns the number of nodes in the list. This is an O(1) operation.
func (l *List[T, N, P, R]) Len() int {
	return l.len
}

// IsEmpty returns true if the list has no nodes.
func (l *List[T, N, P, R]) IsEmpty() bool {
	return l.len == 0
}

// Head returns the first node of the list, or nil if it is empty.
func (l *List[T, N, P, R]) Head() *N {
	return l.head.Get()
}

// Front returns the payload of the first node, or nil if the list is empty.
func (l *List[T, N, P, R]) Front() *T {
	if head := l.head.Get(); head != nil {
		return P(head).Payload()
	}
	return nil
}

// PushNode inserts the node referenced by r at the front of the list. The
// reference is surrendered to the list until the node is popped.
func (l *List[T, N, P, R]) PushNode(r R) *List[T, N, P, R] {
	*P(r.Node()).Link() = l.head
	l.head = r.IntoLink()
	l.len++

	l.verify()
	return l
}

// PopNode removes the first node of the list and returns its reference. It
// returns false if the list is empty.
func (l *List[T, N, P, R]) PopNode() (R, bool) {
	var zero R
	if l.head.IsNone() {
		return zero, false
	}

	link := l.head
	l.head = P(link.Get()).Link().Take()
	l.len--

	l.verify()
	return zero.Reclaim(link), true
}

// Extend pushes every reference of seq, in order. As pushing happens at the
// front, the list ends up holding them in reverse order.
func (l *List[T, N, P, R]) Extend(seq iter.Seq[R]) *List[T, N, P, R] {
	for r := range seq {
		l.PushNode(r)
	}
	return l
}

// Drain returns a sequence that pops nodes until the list is empty. Nodes not
// consumed when the iteration stops remain in the list.
func (l *List[T, N, P, R]) Drain() iter.Seq[R] {
	return func(yield func(R) bool) {
		for {
			r, ok := l.PopNode()
			if !ok || !yield(r) {
				return
			}
		}
	}
}

// Nodes returns a sequence over the nodes of the list, from the head. The list
// must not be modified during the iteration.
func (l *List[T, N, P, R]) Nodes() iter.Seq[*N] {
	return func(yield func(*N) bool) {
		for n := l.head.Get(); n != nil; n = P(n).Link().Get() {
			if !yield(n) {
				return
			}
		}
	}
}

// Check walks the list and verifies the chain from the head has exactly
// [List.Len] nodes. It runs in O(n) and returns an error wrapping
// [intrusive.ErrCorrupted] if it does not, which includes cycles.
func (l *List[T, N, P, R]) Check() error {
	count := 0
	for cur := l.head; cur.IsSome(); cur = *P(cur.Get()).Link() {
		if count == l.len {
			return intrusive.Corruptedf("singly: chain from head is longer than len %d", l.len)
		}
		count++
	}
	if count != l.len {
		return intrusive.Corruptedf("singly: len is %d, but the chain has %d nodes", l.len, count)
	}
	return nil
}

func (l *List[T, N, P, R]) verify() {
	if !config.Checks() {
		return
	}
	if err := l.Check(); err != nil {
		panic(log.Criticalf("singly: %w", err))
	}
}
