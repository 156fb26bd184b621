// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2023-present Datadog, Inc.

package intrusive

import "unsafe"

type (
	// Ref is the ownership strategy a list uses for its nodes. R is the type
	// implementing the strategy itself, so that [Ref.Reclaim] can return it.
	// The set of implementations is closed: only [Owned] and [Raw] exist.
	Ref[N any, R any] interface {
		// Node returns the referenced node.
		Node() *N
		// IntoLink surrenders this reference, returning a [Link] to its node.
		// The reference must not be used afterwards; the returned link is the
		// sole record of the node's location.
		IntoLink() Link[N]
		// Reclaim is the reverse of [Ref.IntoLink]. It is called on the zero
		// value of the strategy. The link must have been produced by IntoLink
		// of the same strategy, and must not have been reclaimed since;
		// violating this is not detected and leads to aliased nodes.
		Reclaim(Link[N]) R

		// ownershipStrategy is a marker method that prevents implementations of
		// [Ref] outside of this package.
		ownershipStrategy()
	}

	// Owned is the exclusive owner of a node. At most one live Owned exists for
	// a given node, and nothing else in the program refers to the node while it
	// is linked into a list.
	Owned[N any] struct {
		node *N
	}

	// Raw is a non-owning handle on a node. It never frees, zeroes or otherwise
	// manages the memory it refers to. The caller guarantees that the memory
	// outlives the handle's presence in any list, and that nothing else mutates
	// the node's links while it is linked.
	Raw[N any] struct {
		node *N
	}
)

var (
	_ Ref[struct{}, Owned[struct{}]] = Owned[struct{}]{}
	_ Ref[struct{}, Raw[struct{}]]   = Raw[struct{}]{}
)

// NewOwned moves n into freshly allocated storage and returns its exclusive
// owner.
func NewOwned[N any](n N) Owned[N] {
	node := new(N)
	*node = n
	return Owned[N]{node: node}
}

// Own adopts node. The caller must not retain node, nor any pointer into it,
// after this call.
func Own[N any](node *N) Owned[N] {
	return Owned[N]{node: node}
}

// Node implements [Ref.Node].
func (o Owned[N]) Node() *N {
	return o.node
}

// IntoLink implements [Ref.IntoLink].
func (o Owned[N]) IntoLink() Link[N] {
	return Link[N]{node: o.node}
}

// Reclaim implements [Ref.Reclaim].
func (Owned[N]) Reclaim(l Link[N]) Owned[N] {
	return Owned[N]{node: l.node}
}

func (Owned[N]) ownershipStrategy() {}

// RawOf returns a non-owning handle on node.
func RawOf[N any](node *N) Raw[N] {
	return Raw[N]{node: node}
}

// RawFromPointer returns a non-owning handle on the N located at ptr. This is
// how nodes living in memory obtained outside of the Go heap (e.g. an mmap'd
// arena) are handed to a list. Such nodes must not hold pointers into the Go
// heap, as the garbage collector does not scan that memory.
func RawFromPointer[N any](ptr unsafe.Pointer) Raw[N] {
	return Raw[N]{node: (*N)(ptr)}
}

// AllocRaw allocates storage for n and returns a non-owning handle on it. It is
// a convenience for synthesizing nodes when no externally managed memory is
// at hand; the list never releases this storage.
func AllocRaw[N any](n N) Raw[N] {
	node := new(N)
	*node = n
	return Raw[N]{node: node}
}

// Node implements [Ref.Node].
func (r Raw[N]) Node() *N {
	return r.node
}

// Pointer returns the address the handle refers to.
func (r Raw[N]) Pointer() unsafe.Pointer {
	return unsafe.Pointer(r.node)
}

// IntoLink implements [Ref.IntoLink].
func (r Raw[N]) IntoLink() Link[N] {
	return Link[N]{node: r.node}
}

// Reclaim implements [Ref.Reclaim].
func (Raw[N]) Reclaim(l Link[N]) Raw[N] {
	return Raw[N]{node: l.node}
}

func (Raw[N]) ownershipStrategy() {}
