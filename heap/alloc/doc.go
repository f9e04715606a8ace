// Package alloc implements a first-fit heap allocator over a single
// caller-supplied, fixed-capacity byte region (the arena).
//
// # Overview
//
// The Engine hands out payload offsets (Ptr) into the region and supports the
// three conventional operations:
//
//   - Allocate(size): first-fit search of the free index, carve fresh space at
//     the high-water mark when nothing fits
//   - Release(p): mark free, coalesce with free neighbours, reclaim trailing
//     free space by retracting the high-water mark
//   - Resize(p, n): shrink in place, grow by absorbing a free successor, grow
//     in place at the end of the heap, or move
//
// # Layout
//
// Every block is a 24-byte header followed by its payload. Headers live inside
// the arena and link blocks two ways:
//
//	chain:      [hdr|payload][hdr|payload][hdr|payload] ... used ... capacity
//	free index: head -> most recently freed -> ... (free blocks only)
//
// The chain is address ordered, contiguous and exhaustive from offset 0 to the
// high-water mark. The free index threads only the free blocks, most recently
// freed first. Both views reference headers by offset, never by Go pointer.
//
// # Splitting and Coalescing
//
// A block is split only when the leftover can hold a header plus at least
// MinSplitPayload (8) bytes; smaller slivers stay inside the returned block.
// Release merges eagerly with both neighbours, so two adjacent free blocks
// never survive a public call. A free block is never the last block in the
// chain: it is cut off and the high-water mark retreats to its start instead.
//
// # Usage Example
//
//	mem := make([]byte, 1<<20)
//	e, err := alloc.New(mem)
//	if err != nil {
//	    return err
//	}
//
//	p, err := e.Allocate(64)
//	if errors.Is(err, alloc.ErrNoSpace) {
//	    // arena exhausted; caller decides
//	}
//	copy(e.MustPayload(p, 64), data)
//
//	p, err = e.Resize(p, 128)
//	_ = e.Release(p)
//
// # Misuse
//
// By default the engine trusts its caller: releasing or resizing a pointer it
// did not hand out, or releasing twice, has unspecified results. WithChecks
// enables pointer validation (ErrBadPointer, ErrDoubleRelease) at a small cost.
//
// # Thread Safety
//
// Engine instances are not thread-safe. Callers must synchronize access
// externally. Independent engines over independent regions may be used from
// different goroutines.
//
// # Debug Logging
//
// Setting HEAP_LOG_ALLOC in the environment makes the engine emit debug records
// (carve, split, merge, retract, exhaustion) through internal/logger.
package alloc
