// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2023-present Datadog, Inc.

// Package blockpool is a fixed-size block allocator over a memory-mapped
// arena. Free blocks are threaded onto an intrusive [singly.List] whose nodes
// live in the free blocks themselves, so the pool does not allocate any
// bookkeeping memory per block beyond one bit.
//
// A [Pool] is not safe for concurrent use.
package blockpool

import (
	"math"
	"math/bits"
	"unsafe"

	"github.com/DataDog/intrusive-go/intrusive"
	"github.com/DataDog/intrusive-go/log"
	"github.com/DataDog/intrusive-go/singly"
	"github.com/pkg/errors"
)

var (
	// ErrGeometry is returned by [New] when the block size or count is invalid.
	ErrGeometry = errors.New("blockpool: invalid geometry")
	// ErrExhausted is returned by [Pool.Alloc] when no block is free.
	ErrExhausted = errors.New("blockpool: no free block")
	// ErrForeignBlock is returned by [Pool.Free] when the block was not
	// allocated from the pool.
	ErrForeignBlock = errors.New("blockpool: block does not belong to the pool")
	// ErrDoubleFree is returned by [Pool.Free] when the block is already free.
	ErrDoubleFree = errors.New("blockpool: block is already free")
	// ErrClosed is returned by all operations on a closed [Pool].
	ErrClosed = errors.New("blockpool: pool is closed")
)

type (
	// freeBlock is the header written at the start of every free block.
	freeBlock struct {
		next  intrusive.Link[freeBlock]
		index uint32 // Position of the block in the arena
	}

	// freeList holds non-owning handles: the memory belongs to the arena.
	freeList = singly.List[uint32, freeBlock, *freeBlock, intrusive.Raw[freeBlock]]

	// Pool hands out blocks of [Pool.BlockSize] bytes from a single arena.
	Pool struct {
		arena     []byte
		blockSize int
		blocks    int
		free      freeList
		allocated []uint64 // One bit per block
	}
)

const (
	headerSize  = int(unsafe.Sizeof(freeBlock{}))
	headerAlign = int(unsafe.Alignof(freeBlock{}))
)

func (b *freeBlock) Link() *intrusive.Link[freeBlock] {
	return &b.next
}

func (b *freeBlock) Payload() *uint32 {
	return &b.index
}

// New maps an arena of blocks blocks of at least blockSize bytes each. The
// block size is rounded up so every block can hold and align a free-block
// header. Blocks are handed out lowest address first.
func New(blockSize, blocks int) (*Pool, error) {
	if blockSize <= 0 || blocks <= 0 || uint64(blocks) > math.MaxUint32 {
		return nil, errors.Wrapf(ErrGeometry, "%d blocks of %d bytes", blocks, blockSize)
	}
	blockSize = max(blockSize, headerSize)
	blockSize = (blockSize + headerAlign - 1) &^ (headerAlign - 1)
	if blockSize > math.MaxInt/blocks {
		return nil, errors.Wrapf(ErrGeometry, "%d blocks of %d bytes overflow the address space", blocks, blockSize)
	}

	arena, err := mapArena(blockSize * blocks)
	if err != nil {
		return nil, err
	}

	p := &Pool{
		arena:     arena,
		blockSize: blockSize,
		blocks:    blocks,
		allocated: make([]uint64, (blocks+63)/64),
	}
	// Pushing happens at the front, so go backwards for block #0 to come first.
	for i := blocks - 1; i >= 0; i-- {
		p.push(i)
	}

	log.Debug("blockpool: mapped %d blocks of %d bytes", blocks, blockSize)
	return p, nil
}

// BlockSize returns the size of the blocks handed out by [Pool.Alloc].
func (p *Pool) BlockSize() int {
	return p.blockSize
}

// Blocks returns the total number of blocks in the pool.
func (p *Pool) Blocks() int {
	return p.blocks
}

// Available returns the number of free blocks.
func (p *Pool) Available() int {
	return p.free.Len()
}

// Alloc hands out a free block. Its contents are unspecified. It returns
// [ErrExhausted] if all blocks are in use, and an error wrapping
// [intrusive.ErrCorrupted] if the free block's header was overwritten since it
// was freed; the pool then abandons its free list.
func (p *Pool) Alloc() ([]byte, error) {
	if p.arena == nil {
		return nil, ErrClosed
	}

	ref, ok := p.free.PopNode()
	if !ok {
		return nil, ErrExhausted
	}

	i, err := p.indexOf(ref.Pointer())
	if err != nil || *ref.Node().Payload() != uint32(i) || p.isAllocated(i) {
		p.free = freeList{}
		return nil, log.Errorf("blockpool: %w", intrusive.Corruptedf("free block at %p claims to be block #%d", ref.Pointer(), *ref.Node().Payload()))
	}

	p.setAllocated(i, true)
	block := p.block(i)
	clear(block[:headerSize])
	return block, nil
}

// Free returns a block obtained from [Pool.Alloc] to the pool. The block must
// not be used afterwards.
func (p *Pool) Free(b []byte) error {
	if p.arena == nil {
		return ErrClosed
	}
	if len(b) == 0 {
		return ErrForeignBlock
	}

	i, err := p.indexOf(unsafe.Pointer(unsafe.SliceData(b)))
	if err != nil {
		return log.Errorf("blockpool: %w", err)
	}
	if !p.isAllocated(i) {
		return log.Errorf("blockpool: block #%d: %w", i, ErrDoubleFree)
	}

	p.setAllocated(i, false)
	p.push(i)
	return nil
}

// Check verifies the free list is sound and accounts, together with the
// allocated blocks, for every block of the pool. It runs in O(n).
func (p *Pool) Check() error {
	if p.arena == nil {
		return ErrClosed
	}
	if err := p.free.Check(); err != nil {
		return err
	}

	for node := range p.free.Nodes() {
		i, err := p.indexOf(unsafe.Pointer(node))
		if err != nil || node.index != uint32(i) {
			return intrusive.Corruptedf("blockpool: free block at %p claims to be block #%d", node, node.index)
		}
		if p.isAllocated(i) {
			return intrusive.Corruptedf("blockpool: block #%d is both free and allocated", i)
		}
	}

	allocated := 0
	for _, word := range p.allocated {
		allocated += bits.OnesCount64(word)
	}
	if allocated+p.free.Len() != p.blocks {
		return intrusive.Corruptedf("blockpool: %d allocated and %d free blocks, expected %d in total", allocated, p.free.Len(), p.blocks)
	}
	return nil
}

// Close unmaps the arena. Blocks handed out by the pool must no longer be used,
// and all further operations return [ErrClosed].
func (p *Pool) Close() error {
	if p.arena == nil {
		return ErrClosed
	}

	arena := p.arena
	p.arena, p.free, p.allocated = nil, freeList{}, nil
	log.Debug("blockpool: unmapping %d blocks of %d bytes", p.blocks, p.blockSize)
	return unmapArena(arena)
}

// block returns the memory of block #i, with its capacity clipped so that it
// cannot be grown into the next block.
func (p *Pool) block(i int) []byte {
	off := i * p.blockSize
	return p.arena[off : off+p.blockSize : off+p.blockSize]
}

// push writes a fresh header at the start of block #i and pushes it onto the
// free list.
func (p *Pool) push(i int) {
	ref := intrusive.RawFromPointer[freeBlock](unsafe.Pointer(unsafe.SliceData(p.block(i))))
	*ref.Node() = freeBlock{index: uint32(i)}
	p.free.PushNode(ref)
}

// indexOf returns the position of the block starting at ptr.
func (p *Pool) indexOf(ptr unsafe.Pointer) (int, error) {
	base := uintptr(unsafe.Pointer(unsafe.SliceData(p.arena)))
	addr := uintptr(ptr)
	if addr < base || addr >= base+uintptr(len(p.arena)) {
		return 0, errors.Wrapf(ErrForeignBlock, "%p is outside of the arena", ptr)
	}
	off := addr - base
	if off%uintptr(p.blockSize) != 0 {
		return 0, errors.Wrapf(ErrForeignBlock, "%p is not at the start of a block", ptr)
	}
	return int(off / uintptr(p.blockSize)), nil
}

func (p *Pool) isAllocated(i int) bool {
	return p.allocated[i/64]&(1<<(i%64)) != 0
}

func (p *Pool) setAllocated(i int, allocated bool) {
	if allocated {
		p.allocated[i/64] |= 1 << (i % 64)
	} else {
		p.allocated[i/64] &^= 1 << (i % 64)
	}
}
