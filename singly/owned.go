// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2023-present Datadog, Inc.

package singly

import (
	"iter"

	"github.com/DataDog/intrusive-go/intrusive"
)

// OwnedList is a [List] that exclusively owns its nodes, with item-level
// operations that wrap payloads in new nodes (built from the zero value of N)
// and unwrap them on the way out.
type OwnedList[T any, N any, P Node[T, N]] struct {
	List[T, N, P, intrusive.Owned[N]]
}

// NewOwned creates a new, empty [OwnedList].
func NewOwned[T any, N any, P Node[T, N]]() *OwnedList[T, N, P] {
	return &OwnedList[T, N, P]{}
}

// FromValues creates a new [OwnedList] by pushing every value of seq, in order.
func FromValues[T any, N any, P Node[T, N]](seq iter.Seq[T]) *OwnedList[T, N, P] {
	l := NewOwned[T, N, P]()
	l.Extend(seq)
	return l
}

// Push wraps v in a new node and inserts it at the front of the list.
func (l *OwnedList[T, N, P]) Push(v T) *OwnedList[T, N, P] {
	node := new(N)
	*P(node).Payload() = v
	l.PushNode(intrusive.Own(node))
	return l
}

// Pop removes the first node of the list and returns its payload. It returns
// false if the list is empty.
func (l *OwnedList[T, N, P]) Pop() (T, bool) {
	node, ok := l.PopNode()
	if !ok {
		var zero T
		return zero, false
	}
	return *P(node.Node()).Payload(), true
}

// Extend pushes every value of seq, in order.
func (l *OwnedList[T, N, P]) Extend(seq iter.Seq[T]) *OwnedList[T, N, P] {
	for v := range seq {
		l.Push(v)
	}
	return l
}

// DrainValues returns a sequence that pops payloads until the list is empty.
func (l *OwnedList[T, N, P]) DrainValues() iter.Seq[T] {
	return func(yield func(T) bool) {
		for {
			v, ok := l.Pop()
			if !ok || !yield(v) {
				return
			}
		}
	}
}
