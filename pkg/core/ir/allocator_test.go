package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAllocator() *Allocator {
	return NewAllocator(NewCPURuntime(), DefaultAlignment)
}

func TestAllocatorTailExtend(t *testing.T) {
	a := newTestAllocator()

	off1, err := a.Alloc(16)
	require.NoError(t, err)
	assert.Equal(t, 0, off1)
	assert.Equal(t, 16, a.Peak())

	off2, err := a.Alloc(32)
	require.NoError(t, err)
	assert.Equal(t, 16, off2)
	assert.Equal(t, 48, a.Peak())
	assert.Equal(t, 48, a.Used())
}

func TestAllocatorFirstFitWithSplit(t *testing.T) {
	a := newTestAllocator()

	oa, err := a.Alloc(16)
	require.NoError(t, err)
	ob, err := a.Alloc(32)
	require.NoError(t, err)
	_, err = a.Alloc(16)
	require.NoError(t, err)

	// Free the middle 32-byte block: it does not touch peak, so it is not
	// the tail block, and a subsequent alloc must first-fit into it.
	require.NoError(t, a.Free(ob, 32))

	offset, err := a.Alloc(8)
	require.NoError(t, err)
	assert.Equal(t, ob, offset, "first-fit should return the freed block's start")

	assert.Equal(t, 1, len(a.freeBlocks))
	assert.Equal(t, ob+8, a.freeBlocks[0].Offset)
	assert.Equal(t, 24, a.freeBlocks[0].Size)

	_ = oa
}

func TestAllocatorCoalescing(t *testing.T) {
	a := newTestAllocator()

	oa, err := a.Alloc(16)
	require.NoError(t, err)
	ob, err := a.Alloc(16)
	require.NoError(t, err)
	oc, err := a.Alloc(16)
	require.NoError(t, err)

	require.NoError(t, a.Free(oa, 16))
	require.NoError(t, a.Free(oc, 16))
	require.NoError(t, a.Free(ob, 16))

	require.Len(t, a.freeBlocks, 1)
	assert.Equal(t, 0, a.freeBlocks[0].Offset)
	assert.Equal(t, 48, a.freeBlocks[0].Size)
	assert.Equal(t, 0, a.Used())
	assert.Equal(t, 48, a.Peak(), "freeing the tail block never shrinks peak")
}

func TestAllocatorAlignment(t *testing.T) {
	a := newTestAllocator()

	off, err := a.Alloc(3)
	require.NoError(t, err)
	assert.Equal(t, 0, off)
	assert.Equal(t, DefaultAlignment, a.Peak(), "a sub-alignment request still rounds up")
}

func TestAllocatorZeroSizeAlloc(t *testing.T) {
	a := newTestAllocator()
	_, err := a.Alloc(0)
	require.NoError(t, err)
	assert.Equal(t, 0, a.Peak())
	assert.Equal(t, 0, a.Used())
}

func TestAllocatorForbiddenAfterCommit(t *testing.T) {
	a := newTestAllocator()
	_, err := a.Alloc(16)
	require.NoError(t, err)

	_, err = a.GetPtr()
	require.NoError(t, err)

	_, err = a.Alloc(8)
	assert.ErrorIs(t, err, ErrCommitted)

	err = a.Free(0, 16)
	assert.ErrorIs(t, err, ErrCommitted)
}

func TestAllocatorGetPtrIsIdempotent(t *testing.T) {
	a := newTestAllocator()
	_, err := a.Alloc(16)
	require.NoError(t, err)

	p1, err := a.GetPtr()
	require.NoError(t, err)
	p2, err := a.GetPtr()
	require.NoError(t, err)
	assert.Equal(t, p1, p2)
}

func TestAllocatorRelease(t *testing.T) {
	a := newTestAllocator()
	_, err := a.Alloc(16)
	require.NoError(t, err)
	_, err = a.GetPtr()
	require.NoError(t, err)

	require.NoError(t, a.Release())
	require.NoError(t, a.Release(), "releasing an already-released allocator is a no-op")
}
