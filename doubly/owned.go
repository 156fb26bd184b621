// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2023-present Datadog, Inc.

package doubly

import (
	"iter"

	"github.com/DataDog/intrusive-go/intrusive"
)

// OwnedList is a [List] that exclusively owns its nodes. On top of the
// node-level operations, it offers item-level ones that wrap payloads in new
// nodes on the way in, and unwrap them (discarding the node) on the way out.
//
// Nodes are created from the zero value of N, which must be an unlinked node,
// with the payload written through [Node.Payload].
//
// The zero value for OwnedList is an empty list ready to use.
type OwnedList[T any, N any, P Node[T, N]] struct {
	List[T, N, P, intrusive.Owned[N]]
}

// NewOwned creates a new, empty [OwnedList].
func NewOwned[T any, N any, P Node[T, N]]() *OwnedList[T, N, P] {
	return &OwnedList[T, N, P]{}
}

// FromValues creates a new [OwnedList] holding the values from seq, in order.
// It is equivalent to calling [OwnedList.PushBack] for each of them.
func FromValues[T any, N any, P Node[T, N]](seq iter.Seq[T]) *OwnedList[T, N, P] {
	l := NewOwned[T, N, P]()
	l.Extend(seq)
	return l
}

// PushFront wraps v in a new node and inserts it at the front of the list.
func (l *OwnedList[T, N, P]) PushFront(v T) *OwnedList[T, N, P] {
	l.PushFrontNode(wrap[T, N, P](v))
	return l
}

// PushBack wraps v in a new node and inserts it at the back of the list.
func (l *OwnedList[T, N, P]) PushBack(v T) *OwnedList[T, N, P] {
	l.PushBackNode(wrap[T, N, P](v))
	return l
}

// PopFront removes the first node of the list and returns its payload. It
// returns false if the list is empty.
func (l *OwnedList[T, N, P]) PopFront() (T, bool) {
	return unwrap[T, N, P](l.PopFrontNode())
}

// PopBack removes the last node of the list and returns its payload. It returns
// false if the list is empty.
func (l *OwnedList[T, N, P]) PopBack() (T, bool) {
	return unwrap[T, N, P](l.PopBackNode())
}

// Extend pushes every value of seq to the back of the list, in order.
func (l *OwnedList[T, N, P]) Extend(seq iter.Seq[T]) *OwnedList[T, N, P] {
	for v := range seq {
		l.PushBack(v)
	}
	return l
}

// DrainValues returns a sequence that pops payloads from the front of the list
// until it is empty. Values not consumed when the iteration stops remain in
// the list.
func (l *OwnedList[T, N, P]) DrainValues() iter.Seq[T] {
	return func(yield func(T) bool) {
		for {
			v, ok := l.PopFront()
			if !ok || !yield(v) {
				return
			}
		}
	}
}

func wrap[T any, N any, P Node[T, N]](v T) intrusive.Owned[N] {
	node := new(N)
	*P(node).Payload() = v
	return intrusive.Own(node)
}

func unwrap[T any, N any, P Node[T, N]](node intrusive.Owned[N], ok bool) (T, bool) {
	if !ok {
		var zero T
		return zero, false
	}
	return *P(node.Node()).Payload(), true
}
