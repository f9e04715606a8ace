package harness

import (
	"fmt"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/joshuapare/heapkit/heap/alloc"
	"github.com/joshuapare/heapkit/heap/workload"
)

var (
	_ workload.Allocator = (*checkingAllocator)(nil)
	_ workload.Allocator = (*fastAllocator)(nil)
)

// checkingAllocator validates every range the engine hands out: it must be
// non-nil, inside the arena, and disjoint from every live range. After the
// first violation every call fails.
type checkingAllocator struct {
	e        *alloc.Engine
	capacity uint64

	live  *roaring.Bitmap   // live payload bytes
	sizes map[alloc.Ptr]int // live payload lengths
	peak  uint64
	err   error
}

func newCheckingAllocator(e *alloc.Engine) *checkingAllocator {
	return &checkingAllocator{
		e:        e,
		capacity: uint64(e.Capacity()),
		live:     roaring.New(),
		sizes:    make(map[alloc.Ptr]int),
	}
}

func (c *checkingAllocator) Malloc(size int) alloc.Ptr {
	if c.err != nil {
		return alloc.Nil
	}
	p, err := c.e.Allocate(size)
	if err != nil {
		p = alloc.Nil
	}
	c.track(p, size, false)
	if c.err != nil {
		return alloc.Nil
	}
	return p
}

func (c *checkingAllocator) Free(p alloc.Ptr) {
	if c.err != nil {
		return
	}
	if err := c.e.Release(p); err != nil {
		c.err = fmt.Errorf("free %#x: %w", p, err)
		return
	}
	c.untrack(p)
}

func (c *checkingAllocator) Realloc(p alloc.Ptr, size int) alloc.Ptr {
	if c.err != nil {
		return alloc.Nil
	}
	np, err := c.e.Resize(p, size)
	if err != nil {
		np = alloc.Nil
	}
	switch {
	case size == 0 && np == alloc.Nil:
		c.untrack(p)
	case np == p:
		c.track(np, size, true)
	default:
		c.track(np, size, false)
		c.untrack(p)
	}
	if c.err != nil {
		return alloc.Nil
	}
	return np
}

func (c *checkingAllocator) Bytes(p alloc.Ptr, n int) []byte {
	return c.e.MustPayload(p, n)
}

// track registers [p, p+size) as live. A resize replaces p's own range.
func (c *checkingAllocator) track(p alloc.Ptr, size int, resize bool) {
	if p == alloc.Nil {
		c.err = fmt.Errorf("%w: request of %d bytes returned nil", ErrIllegalAddress, size)
		return
	}
	lo, hi := uint64(p), uint64(p)+uint64(size)
	if hi > c.capacity {
		c.err = fmt.Errorf("%w: [%#x, %#x) past arena end %#x", ErrOverflow, lo, hi, c.capacity)
		return
	}
	if resize {
		c.untrack(p)
	}
	if size > 0 && c.overlaps(lo, hi) {
		c.err = fmt.Errorf("%w: [%#x, %#x)", ErrOverlap, lo, hi)
		return
	}
	if size > 0 {
		c.live.AddRange(lo, hi)
	}
	c.sizes[p] = size
	if hi > c.peak {
		c.peak = hi
	}
}

func (c *checkingAllocator) untrack(p alloc.Ptr) {
	size, ok := c.sizes[p]
	if !ok {
		return
	}
	delete(c.sizes, p)
	if size > 0 {
		c.live.RemoveRange(uint64(p), uint64(p)+uint64(size))
	}
}

// overlaps reports whether any live byte lies in [lo, hi). hi > lo.
func (c *checkingAllocator) overlaps(lo, hi uint64) bool {
	n := c.live.Rank(uint32(hi - 1))
	if lo > 0 {
		n -= c.live.Rank(uint32(lo - 1))
	}
	return n > 0
}

// fastAllocator only records the peak address.
type fastAllocator struct {
	e    *alloc.Engine
	peak uint64
}

func (f *fastAllocator) note(p alloc.Ptr, size int) {
	if p == alloc.Nil {
		return
	}
	if end := uint64(p) + uint64(size); end > f.peak {
		f.peak = end
	}
}

func (f *fastAllocator) Malloc(size int) alloc.Ptr {
	p, err := f.e.Allocate(size)
	if err != nil {
		return alloc.Nil
	}
	f.note(p, size)
	return p
}

func (f *fastAllocator) Free(p alloc.Ptr) {
	_ = f.e.Release(p)
}

func (f *fastAllocator) Realloc(p alloc.Ptr, size int) alloc.Ptr {
	np, err := f.e.Resize(p, size)
	if err != nil {
		return alloc.Nil
	}
	f.note(np, size)
	return np
}

func (f *fastAllocator) Bytes(p alloc.Ptr, n int) []byte {
	return f.e.MustPayload(p, n)
}
