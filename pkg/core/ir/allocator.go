package ir

import (
	"fmt"
	"sort"

	"github.com/pkg/errors"
)

// DefaultAlignment is the default arena alignment, suitable for 64-bit
// scalars.
const DefaultAlignment = 8

type freeBlock struct {
	Offset int
	Size   int
}

// Allocator is a pre-execution offset planner over a single logical
// arena. It tracks the largest offset ever committed (peak), the
// currently live byte count (used), and an offset-ordered, coalesced
// free-list. It commits to a real device buffer exactly once, on the
// first GetPtr call.
type Allocator struct {
	peak      int
	used      int
	alignment int

	// freeBlocks is kept sorted by Offset, with adjacent blocks always
	// coalesced — the slice equivalent of the offset-keyed mapping
	// SPEC_FULL.md describes, binary-searchable in O(log n).
	freeBlocks []freeBlock

	runtime Runtime
	ptr     *Pointer
}

// NewAllocator constructs an empty Allocator bound to runtime, with the
// given alignment; an alignment below 1 is replaced by DefaultAlignment.
func NewAllocator(runtime Runtime, alignment int) *Allocator {
	if alignment < 1 {
		alignment = DefaultAlignment
	}
	return &Allocator{runtime: runtime, alignment: alignment}
}

// Peak returns the largest offset ever committed.
func (a *Allocator) Peak() int { return a.peak }

// Used returns the currently live byte count.
func (a *Allocator) Used() int { return a.used }

// Info renders used and peak for diagnostics.
func (a *Allocator) Info() string {
	return fmt.Sprintf("allocator: used=%d peak=%d alignment=%d committed=%v", a.used, a.peak, a.alignment, a.ptr != nil)
}

func (a *Allocator) align(size int) int {
	if size <= 0 {
		return 0
	}
	rem := size % a.alignment
	if rem == 0 {
		return size
	}
	return size + (a.alignment - rem)
}

// Alloc rounds size up to a multiple of alignment and returns an offset
// for it, preferring (in order): extending the tail block, first-fit
// over the free-list, or extending the arena. It is forbidden once GetPtr
// has been called.
func (a *Allocator) Alloc(size int) (int, error) {
	if a.ptr != nil {
		return 0, errors.Wrap(ErrCommitted, "Alloc")
	}
	size = a.align(size)
	if size == 0 {
		return 0, nil
	}

	// Prefer the tail block: the free block whose end equals peak. This
	// keeps the high-water mark tight by always extending from there
	// instead of fragmenting a block elsewhere in the arena.
	if idx := a.tailBlockIndex(); idx >= 0 {
		block := a.freeBlocks[idx]
		if block.Size >= size {
			offset := block.Offset
			a.consumeFromBlock(idx, size)
			a.used += size
			return offset, nil
		}
		shortfall := size - block.Size
		offset := block.Offset
		a.freeBlocks = append(a.freeBlocks[:idx], a.freeBlocks[idx+1:]...)
		a.peak += shortfall
		a.used += size
		return offset, nil
	}

	// First-fit over the offset-ordered free-list.
	for idx, block := range a.freeBlocks {
		if block.Size >= size {
			offset := block.Offset
			a.consumeFromBlock(idx, size)
			a.used += size
			return offset, nil
		}
	}

	// Extend the arena.
	offset := a.peak
	a.peak += size
	a.used += size
	return offset, nil
}

// tailBlockIndex returns the index of the free block whose end equals
// peak, or -1 if none exists.
func (a *Allocator) tailBlockIndex() int {
	for i, block := range a.freeBlocks {
		if block.Offset+block.Size == a.peak {
			return i
		}
	}
	return -1
}

// consumeFromBlock carves size bytes from the low end of freeBlocks[idx],
// keeping any remainder as a smaller free block at the same index.
func (a *Allocator) consumeFromBlock(idx, size int) {
	block := a.freeBlocks[idx]
	remainder := block.Size - size
	if remainder == 0 {
		a.freeBlocks = append(a.freeBlocks[:idx], a.freeBlocks[idx+1:]...)
		return
	}
	a.freeBlocks[idx] = freeBlock{Offset: block.Offset + size, Size: remainder}
}

// Free rounds size up to a multiple of alignment, returns the range to
// the free-list, and coalesces it with any immediately adjacent
// neighbors. Forbidden once GetPtr has been called.
func (a *Allocator) Free(offset, size int) error {
	if a.ptr != nil {
		return errors.Wrap(ErrCommitted, "Free")
	}
	size = a.align(size)
	if size == 0 {
		return nil
	}
	a.used -= size

	insertAt := sort.Search(len(a.freeBlocks), func(i int) bool {
		return a.freeBlocks[i].Offset >= offset
	})

	merged := freeBlock{Offset: offset, Size: size}

	// Coalesce with the immediate right neighbor.
	if insertAt < len(a.freeBlocks) && a.freeBlocks[insertAt].Offset == merged.Offset+merged.Size {
		merged.Size += a.freeBlocks[insertAt].Size
		a.freeBlocks = append(a.freeBlocks[:insertAt], a.freeBlocks[insertAt+1:]...)
	}
	// Coalesce with the immediate left neighbor.
	if insertAt > 0 {
		left := a.freeBlocks[insertAt-1]
		if left.Offset+left.Size == merged.Offset {
			merged.Offset = left.Offset
			merged.Size += left.Size
			a.freeBlocks = append(a.freeBlocks[:insertAt-1], a.freeBlocks[insertAt:]...)
			insertAt--
		}
	}

	a.freeBlocks = append(a.freeBlocks, freeBlock{})
	copy(a.freeBlocks[insertAt+1:], a.freeBlocks[insertAt:])
	a.freeBlocks[insertAt] = merged
	return nil
}

// GetPtr materializes the arena: on first call it requests peak bytes
// from the runtime and caches the pointer; subsequent calls return the
// cached pointer. No further Alloc/Free may occur after this succeeds.
func (a *Allocator) GetPtr() (Pointer, error) {
	if a.ptr != nil {
		return *a.ptr, nil
	}
	ptr, err := a.runtime.Alloc(a.peak)
	if err != nil {
		return Pointer{}, errors.Wrap(ErrOutOfMemory, err.Error())
	}
	a.ptr = &ptr
	return ptr, nil
}

// Release returns the committed buffer to the runtime, if one was ever
// materialized. Safe to call on an allocator that never committed.
func (a *Allocator) Release() error {
	if a.ptr == nil {
		return nil
	}
	err := a.runtime.Dealloc(*a.ptr)
	a.ptr = nil
	return err
}
