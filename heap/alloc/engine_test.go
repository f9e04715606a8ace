package alloc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================================================
// Construction
// ============================================================================

func TestNew_RejectsBadRegion(t *testing.T) {
	_, err := New(nil)
	require.ErrorIs(t, err, ErrBadRegion)

	_, err = New([]byte{})
	require.ErrorIs(t, err, ErrBadRegion)
}

func TestNew_RejectsBadAlignment(t *testing.T) {
	for _, n := range []int{0, -4, 3, 6, 16, 4096} {
		_, err := New(make([]byte, 64), WithAlignment(n))
		require.ErrorIs(t, err, ErrBadAlignment, "alignment %d", n)
	}
	for _, n := range []int{1, 2, 4, 8} {
		_, err := New(make([]byte, 64), WithAlignment(n))
		require.NoError(t, err, "alignment %d", n)
	}
}

func TestNew_EmptyHeap(t *testing.T) {
	e := newTestEngine(t, 1024)

	assert.Equal(t, 1024, e.Capacity())
	assert.Equal(t, 0, e.Used())
	assert.Equal(t, 0, e.FreeBlocks())
	assert.Empty(t, blocks(e))
	assertInvariants(t, e)
}

// ============================================================================
// Allocate
// ============================================================================

func TestAllocate_CarvesInAddressOrder(t *testing.T) {
	e := newTestEngine(t, 1024)

	a := mustAlloc(t, e, 16)
	b := mustAlloc(t, e, 16)
	c := mustAlloc(t, e, 16)

	assert.Equal(t, Ptr(24), a)
	assert.Equal(t, Ptr(64), b)
	assert.Equal(t, Ptr(104), c)
	assert.Equal(t, 120, e.Used())
	assertInvariants(t, e)
}

func TestAllocate_ZeroSizeBlocksAreDistinct(t *testing.T) {
	e := newTestEngine(t, 1024)

	a := mustAlloc(t, e, 0)
	b := mustAlloc(t, e, 0)

	assert.NotEqual(t, a, b)
	assert.Equal(t, 0, e.UsableSize(a))
	assert.Equal(t, 2*HeaderSize, e.Used())
	assertInvariants(t, e)
}

func TestAllocate_NegativeSize(t *testing.T) {
	e := newTestEngine(t, 1024)

	_, err := e.Allocate(-1)
	require.ErrorIs(t, err, ErrBadSize)
	assert.Equal(t, 0, e.Used())
}

func TestAllocate_ExhaustionLeavesStateUntouched(t *testing.T) {
	e := newTestEngine(t, 64)

	p := mustAlloc(t, e, 40)
	assert.Equal(t, 64, e.Used(), "header plus payload fills the region exactly")

	_, err := e.Allocate(0)
	require.ErrorIs(t, err, ErrNoSpace)
	_, err = e.Allocate(1 << 20)
	require.ErrorIs(t, err, ErrNoSpace)

	assert.Equal(t, 64, e.Used())
	assert.Equal(t, 40, e.UsableSize(p))
	assert.Equal(t, 2, e.Stats().AllocFailed)
	assertInvariants(t, e)
}

func TestAllocate_ReusesWholeBlockBelowSplitThreshold(t *testing.T) {
	e := newTestEngine(t, 1024)

	a := mustAlloc(t, e, 16)
	mustAlloc(t, e, 16)
	require.NoError(t, e.Release(a))
	require.Equal(t, 1, e.FreeBlocks())

	// 16 < 8 + HeaderSize + MinSplitPayload, so the block is handed out whole.
	p := mustAlloc(t, e, 8)
	assert.Equal(t, a, p)
	assert.Equal(t, 16, e.UsableSize(p))
	assert.Equal(t, 0, e.FreeBlocks())
	assertInvariants(t, e)
}

func TestAllocate_SplitsLargeFreeBlock(t *testing.T) {
	e := newTestEngine(t, 1024)

	x := mustAlloc(t, e, 100)
	mustAlloc(t, e, 8)
	require.NoError(t, e.Release(x))

	p := mustAlloc(t, e, 40)
	assert.Equal(t, x, p)
	assert.Equal(t, 40, e.UsableSize(p))
	require.Equal(t, 1, e.FreeBlocks())

	bs := blocks(e)
	require.Len(t, bs, 3)
	assert.Equal(t, BlockInfo{Offset: 64, Ptr: 88, Size: 36, Free: true}, bs[1])

	// The remainder fits a 36-byte request exactly.
	q := mustAlloc(t, e, 36)
	assert.Equal(t, Ptr(88), q)
	assert.Equal(t, 156, e.Used(), "reuse must not move the high-water mark")
	assertInvariants(t, e)
}

func TestAllocate_SplitAtExactThreshold(t *testing.T) {
	e := newTestEngine(t, 1024)

	// A free block of exactly need + HeaderSize + MinSplitPayload splits.
	x := mustAlloc(t, e, 40+HeaderSize+MinSplitPayload)
	mustAlloc(t, e, 8)
	require.NoError(t, e.Release(x))

	p := mustAlloc(t, e, 40)
	assert.Equal(t, 40, e.UsableSize(p))
	bs := blocks(e)
	require.Len(t, bs, 3)
	assert.Equal(t, MinSplitPayload, bs[1].Size)
	assert.True(t, bs[1].Free)
	assertInvariants(t, e)
}

func TestAllocate_NoSplitOneByteBelowThreshold(t *testing.T) {
	e := newTestEngine(t, 1024)

	x := mustAlloc(t, e, 40+HeaderSize+MinSplitPayload-1)
	mustAlloc(t, e, 8)
	require.NoError(t, e.Release(x))

	p := mustAlloc(t, e, 40)
	assert.Equal(t, 40+HeaderSize+MinSplitPayload-1, e.UsableSize(p))
	assert.Len(t, blocks(e), 2)
	assertInvariants(t, e)
}

func TestAllocate_FirstFitFromMostRecentlyFreed(t *testing.T) {
	e := newTestEngine(t, 4096)

	a := mustAlloc(t, e, 64)
	mustAlloc(t, e, 8)
	b := mustAlloc(t, e, 64)
	mustAlloc(t, e, 8)

	require.NoError(t, e.Release(a))
	require.NoError(t, e.Release(b))

	// b is the index head, so it wins even though a comes first in memory.
	p := mustAlloc(t, e, 64)
	assert.Equal(t, b, p)
	q := mustAlloc(t, e, 64)
	assert.Equal(t, a, q)
	assertInvariants(t, e)
}

func TestAllocate_FirstFitSkipsTooSmall(t *testing.T) {
	e := newTestEngine(t, 4096)

	big := mustAlloc(t, e, 128)
	mustAlloc(t, e, 8)
	small := mustAlloc(t, e, 16)
	mustAlloc(t, e, 8)

	require.NoError(t, e.Release(big))
	require.NoError(t, e.Release(small))

	p := mustAlloc(t, e, 64)
	assert.Equal(t, big, p)
	assertInvariants(t, e)
}

// ============================================================================
// Release
// ============================================================================

func TestRelease_Nil(t *testing.T) {
	e := newTestEngine(t, 1024)
	mustAlloc(t, e, 16)

	require.NoError(t, e.Release(Nil))
	assert.Equal(t, 40, e.Used())
	assertInvariants(t, e)
}

func TestRelease_CoalescesBothNeighbours(t *testing.T) {
	e := newTestEngine(t, 1024)

	a := mustAlloc(t, e, 16)
	b := mustAlloc(t, e, 16)
	c := mustAlloc(t, e, 16)
	mustAlloc(t, e, 16)

	require.NoError(t, e.Release(a))
	require.NoError(t, e.Release(c))
	require.Equal(t, 2, e.FreeBlocks())

	require.NoError(t, e.Release(b))
	assert.Equal(t, 1, e.FreeBlocks())

	bs := blocks(e)
	require.Len(t, bs, 2)
	assert.Equal(t, BlockInfo{Offset: 0, Ptr: 24, Size: 96, Free: true}, bs[0])
	assert.False(t, bs[1].Free)

	st := e.Stats()
	assert.Equal(t, 1, st.MergeForward)
	assert.Equal(t, 1, st.MergeBackward)

	// The merged block satisfies a request no single original block could.
	p := mustAlloc(t, e, 96)
	assert.Equal(t, a, p)
	assertInvariants(t, e)
}

func TestRelease_LastBlockRetractsHighWaterMark(t *testing.T) {
	e := newTestEngine(t, 1024)

	a := mustAlloc(t, e, 16)
	b := mustAlloc(t, e, 16)

	require.NoError(t, e.Release(b))
	assert.Equal(t, 40, e.Used())
	assert.Equal(t, 0, e.FreeBlocks())

	require.NoError(t, e.Release(a))
	assert.Equal(t, 0, e.Used())
	assert.Equal(t, 2, e.Stats().TailRetracts)
	assertInvariants(t, e)
}

func TestRelease_CascadingTruncation(t *testing.T) {
	e := newTestEngine(t, 1024)

	a := mustAlloc(t, e, 16)
	b := mustAlloc(t, e, 16)
	c := mustAlloc(t, e, 16)

	require.NoError(t, e.Release(a))
	require.NoError(t, e.Release(b))
	require.Equal(t, 1, e.FreeBlocks())
	require.Equal(t, 120, e.Used())

	// c merges backward into the free run, which is now last and retracts.
	require.NoError(t, e.Release(c))
	assert.Equal(t, 0, e.Used())
	assert.Equal(t, 0, e.FreeBlocks())
	assert.Empty(t, blocks(e))
	assertInvariants(t, e)

	// The arena is fully reusable afterwards.
	assert.Equal(t, Ptr(24), mustAlloc(t, e, 1000-HeaderSize))
}

func TestRelease_ThenAllocateSameSize(t *testing.T) {
	e := newTestEngine(t, 1024)

	a := mustAlloc(t, e, 32)
	mustAlloc(t, e, 32)
	require.NoError(t, e.Release(a))

	assert.Equal(t, a, mustAlloc(t, e, 32))
	assertInvariants(t, e)
}

// ============================================================================
// Resize
// ============================================================================

func TestResize_ZeroReleases(t *testing.T) {
	e := newTestEngine(t, 1024)
	p := mustAlloc(t, e, 16)

	q, err := e.Resize(p, 0)
	require.NoError(t, err)
	assert.Equal(t, Nil, q)
	assert.Equal(t, 0, e.Used())
}

func TestResize_NilAllocates(t *testing.T) {
	e := newTestEngine(t, 1024)

	p, err := e.Resize(Nil, 16)
	require.NoError(t, err)
	assert.Equal(t, Ptr(24), p)
	assert.Equal(t, 16, e.UsableSize(p))
}

func TestResize_ShrinkSplitsRemainder(t *testing.T) {
	e := newTestEngine(t, 1024)

	a := mustAlloc(t, e, 100)
	mustAlloc(t, e, 8)

	p, err := e.Resize(a, 40)
	require.NoError(t, err)
	assert.Equal(t, a, p)
	assert.Equal(t, 40, e.UsableSize(p))
	assert.Equal(t, 1, e.FreeBlocks())
	assert.Equal(t, 1, e.Stats().ResizeShrink)
	assertInvariants(t, e)
}

func TestResize_ShrinkBelowThresholdKeepsBlock(t *testing.T) {
	e := newTestEngine(t, 1024)

	a := mustAlloc(t, e, 100)
	mustAlloc(t, e, 8)

	p, err := e.Resize(a, 90)
	require.NoError(t, err)
	assert.Equal(t, a, p)
	assert.Equal(t, 100, e.UsableSize(p))
	assert.Equal(t, 0, e.FreeBlocks())
	assertInvariants(t, e)
}

func TestResize_ShrinkLastBlockRetracts(t *testing.T) {
	e := newTestEngine(t, 1024)

	a := mustAlloc(t, e, 100)
	p, err := e.Resize(a, 40)
	require.NoError(t, err)

	assert.Equal(t, a, p)
	assert.Equal(t, 64, e.Used())
	assert.Equal(t, 0, e.FreeBlocks())
	assertInvariants(t, e)
}

func TestResize_ShrinkRemainderMergesWithFreeSuccessor(t *testing.T) {
	e := newTestEngine(t, 1024)

	a := mustAlloc(t, e, 100)
	b := mustAlloc(t, e, 16)
	mustAlloc(t, e, 8)
	require.NoError(t, e.Release(b))

	_, err := e.Resize(a, 40)
	require.NoError(t, err)

	bs := blocks(e)
	require.Len(t, bs, 3)
	assert.True(t, bs[1].Free)
	assert.Equal(t, 36+HeaderSize+16, bs[1].Size)
	assert.Equal(t, 1, e.FreeBlocks())
	assertInvariants(t, e)
}

func TestResize_GrowAbsorbsFreeSuccessor(t *testing.T) {
	e := newTestEngine(t, 1024)

	a := mustAlloc(t, e, 16)
	b := mustAlloc(t, e, 64)
	mustAlloc(t, e, 8)
	fill(t, e, a, 16, 0xAB)
	require.NoError(t, e.Release(b))

	p, err := e.Resize(a, 40)
	require.NoError(t, err)
	assert.Equal(t, a, p)
	assert.Equal(t, 40, e.UsableSize(p))
	requireFilled(t, e, p, 16, 0xAB)

	bs := blocks(e)
	require.Len(t, bs, 3)
	assert.Equal(t, BlockInfo{Offset: 64, Ptr: 88, Size: 40, Free: true}, bs[1])
	assert.Equal(t, 1, e.Stats().ResizeAbsorb)
	assertInvariants(t, e)
}

func TestResize_GrowAbsorbsWholeSuccessor(t *testing.T) {
	e := newTestEngine(t, 1024)

	a := mustAlloc(t, e, 16)
	b := mustAlloc(t, e, 16)
	mustAlloc(t, e, 8)
	require.NoError(t, e.Release(b))

	p, err := e.Resize(a, 50)
	require.NoError(t, err)
	assert.Equal(t, a, p)
	assert.Equal(t, 16+HeaderSize+16, e.UsableSize(p))
	assert.Equal(t, 0, e.FreeBlocks())
	assertInvariants(t, e)
}

func TestResize_GrowLastBlockInPlace(t *testing.T) {
	e := newTestEngine(t, 1024)

	mustAlloc(t, e, 16)
	b := mustAlloc(t, e, 16)
	fill(t, e, b, 16, 0x5A)

	p, err := e.Resize(b, 100)
	require.NoError(t, err)
	assert.Equal(t, b, p)
	assert.Equal(t, 100, e.UsableSize(p))
	assert.Equal(t, 164, e.Used())
	requireFilled(t, e, p, 16, 0x5A)
	assert.Equal(t, 1, e.Stats().ResizeGrowTail)
	assertInvariants(t, e)
}

func TestResize_MovesAndPreservesPayload(t *testing.T) {
	e := newTestEngine(t, 1024)

	a := mustAlloc(t, e, 16)
	mustAlloc(t, e, 16)
	fill(t, e, a, 16, 0x11)

	p, err := e.Resize(a, 64)
	require.NoError(t, err)
	assert.Equal(t, Ptr(104), p)
	requireFilled(t, e, p, 16, 0x11)
	assert.Equal(t, 1, e.FreeBlocks(), "old block goes to the free index")
	assert.Equal(t, 1, e.Stats().ResizeMove)
	assertInvariants(t, e)
}

func TestResize_FailureLeavesBlockUntouched(t *testing.T) {
	e := newTestEngine(t, 128)

	a := mustAlloc(t, e, 16)
	mustAlloc(t, e, 16)
	fill(t, e, a, 16, 0x77)

	p, err := e.Resize(a, 64)
	require.ErrorIs(t, err, ErrNoSpace)
	assert.Equal(t, Nil, p)

	assert.Equal(t, 16, e.UsableSize(a))
	requireFilled(t, e, a, 16, 0x77)
	assert.Equal(t, 80, e.Used())
	assert.Equal(t, 1, e.Stats().ResizeFailed)
	assertInvariants(t, e)

	// a is still live and releasable.
	require.NoError(t, e.Release(a))
	assertInvariants(t, e)
}

func TestResize_NegativeSize(t *testing.T) {
	e := newTestEngine(t, 1024)
	a := mustAlloc(t, e, 16)

	_, err := e.Resize(a, -1)
	require.ErrorIs(t, err, ErrBadSize)
	assert.Equal(t, 16, e.UsableSize(a))
}

// ============================================================================
// Reset, Payload, Options
// ============================================================================

func TestReset_ForgetsAllBlocks(t *testing.T) {
	e := newTestEngine(t, 1024)

	a := mustAlloc(t, e, 16)
	mustAlloc(t, e, 16)
	require.NoError(t, e.Release(a))

	e.Reset()
	assert.Equal(t, 0, e.Used())
	assert.Equal(t, 0, e.FreeBlocks())
	assert.Empty(t, blocks(e))
	assert.Equal(t, Ptr(24), mustAlloc(t, e, 16))
	assert.Equal(t, 2, e.Stats().Resets)
	assertInvariants(t, e)
}

func TestInit_RebindsAndClearsStats(t *testing.T) {
	e := newTestEngine(t, 1024)
	mustAlloc(t, e, 16)

	require.NoError(t, e.Init(make([]byte, 256)))
	assert.Equal(t, 256, e.Capacity())
	assert.Equal(t, 0, e.Used())
	assert.Equal(t, Stats{Resets: 1}, e.Stats())
}

func TestPayload_Bounds(t *testing.T) {
	e := newTestEngine(t, 1024)
	p := mustAlloc(t, e, 16)

	b, err := e.Payload(p, 16)
	require.NoError(t, err)
	assert.Len(t, b, 16)
	assert.Equal(t, 16, cap(b), "payload slice must not reach past the requested length")

	_, err = e.Payload(p, 17)
	require.ErrorIs(t, err, ErrOutOfRange)
	_, err = e.Payload(p, -1)
	require.ErrorIs(t, err, ErrOutOfRange)

	assert.Panics(t, func() { e.MustPayload(p, 1000) })
}

func TestAlignment_RoundsRequests(t *testing.T) {
	e := newTestEngine(t, 1024, WithAlignment(8))

	for _, n := range []int{1, 5, 8, 13, 31} {
		p := mustAlloc(t, e, n)
		assert.Zero(t, int(p)%8, "pointer %#x for request %d", p, n)
		assert.Zero(t, e.UsableSize(p)%8)
		assert.GreaterOrEqual(t, e.UsableSize(p), n)
	}
	assertInvariants(t, e)
}

func TestDirtyTracker_ReportsHeadersAndCopies(t *testing.T) {
	dt := newMockDirtyTracker()
	e := newTestEngine(t, 1024, WithDirtyTracker(dt))

	a := mustAlloc(t, e, 16)
	mustAlloc(t, e, 16)
	assert.True(t, dt.covers(0, HeaderSize), "first header")
	assert.True(t, dt.covers(40, HeaderSize), "second header")

	p, err := e.Resize(a, 64)
	require.NoError(t, err)
	assert.True(t, dt.covers(int(p), 16), "moved payload")
}

func TestStats_CountsPaths(t *testing.T) {
	e := newTestEngine(t, 1024)

	a := mustAlloc(t, e, 100)
	mustAlloc(t, e, 8)
	require.NoError(t, e.Release(a))
	mustAlloc(t, e, 16)

	st := e.Stats()
	assert.Equal(t, 3, st.AllocCalls)
	assert.Equal(t, 2, st.AllocCarved)
	assert.Equal(t, 1, st.AllocReused)
	assert.Equal(t, 1, st.ReleaseCalls)
	assert.Equal(t, 1, st.Splits)
	assert.Equal(t, uint64(156), st.PeakUsed)
}

func TestPayload_RejectsNil(t *testing.T) {
	e := newTestEngine(t, 1024)
	mustAlloc(t, e, 64)

	_, err := e.Payload(Nil, 8)
	require.ErrorIs(t, err, ErrOutOfRange)
	_, err = e.Payload(HeaderSize-1, 1)
	require.ErrorIs(t, err, ErrOutOfRange)
}
