package alloc

import (
	"github.com/joshuapare/heapkit/internal/format"
	"github.com/joshuapare/heapkit/internal/logger"
)

// ============================================================================
// Header field access
// ============================================================================
//
// Blocks are named by their header offset (uint32). These helpers are the only
// code that touches header bytes directly.

func (e *Engine) field(b uint32, off int) uint32 {
	return format.ReadU32(e.mem, int(b)+off)
}

func (e *Engine) setField(b uint32, off int, v uint32) {
	format.PutU32(e.mem, int(b)+off, v)
	if e.dt != nil {
		e.dt.Add(int(b)+off, 4)
	}
}

func (e *Engine) size(b uint32) uint32     { return e.field(b, format.BlockSizeOffset) }
func (e *Engine) next(b uint32) uint32     { return e.field(b, format.BlockNextOffset) }
func (e *Engine) prev(b uint32) uint32     { return e.field(b, format.BlockPrevOffset) }
func (e *Engine) nextFree(b uint32) uint32 { return e.field(b, format.BlockNextFreeOffset) }
func (e *Engine) prevFree(b uint32) uint32 { return e.field(b, format.BlockPrevFreeOffset) }

func (e *Engine) isFree(b uint32) bool {
	return uint8(e.field(b, format.BlockTagOffset)) == format.StateFree
}

func (e *Engine) setSize(b, v uint32)     { e.setField(b, format.BlockSizeOffset, v) }
func (e *Engine) setNext(b, v uint32)     { e.setField(b, format.BlockNextOffset, v) }
func (e *Engine) setPrev(b, v uint32)     { e.setField(b, format.BlockPrevOffset, v) }
func (e *Engine) setNextFree(b, v uint32) { e.setField(b, format.BlockNextFreeOffset, v) }
func (e *Engine) setPrevFree(b, v uint32) { e.setField(b, format.BlockPrevFreeOffset, v) }

func (e *Engine) setState(b uint32, state uint8) {
	e.setField(b, format.BlockTagOffset, format.Tag(state))
}

func (e *Engine) writeHeader(h format.Header) {
	format.EncodeHeader(e.mem, h)
	if e.dt != nil {
		e.dt.Add(int(h.Off), HeaderSize)
	}
}

// ============================================================================
// Free index
// ============================================================================

// pushFree makes b the head of the free index.
func (e *Engine) pushFree(b uint32) {
	e.setNextFree(b, e.freeHead)
	e.setPrevFree(b, noLink)
	if e.freeHead != noLink {
		e.setPrevFree(e.freeHead, b)
	}
	e.freeHead = b
	e.freeCount++
}

// unlinkFree removes b from the free index in O(1).
func (e *Engine) unlinkFree(b uint32) {
	nf, pf := e.nextFree(b), e.prevFree(b)
	if pf != noLink {
		e.setNextFree(pf, nf)
	} else {
		e.freeHead = nf
	}
	if nf != noLink {
		e.setPrevFree(nf, pf)
	}
	e.setNextFree(b, noLink)
	e.setPrevFree(b, noLink)
	e.freeCount--
}

// ============================================================================
// Block chain
// ============================================================================

// carve appends a new allocated block of size bytes at the high-water mark.
// The caller has checked that it fits.
func (e *Engine) carve(size uint32) uint32 {
	b := uint32(e.used)
	e.writeHeader(format.Header{
		Off:      b,
		Size:     size,
		State:    format.StateAllocated,
		NextFree: noLink,
		PrevFree: noLink,
		Prev:     e.tail,
		Next:     noLink,
	})
	if e.tail != noLink {
		e.setNext(e.tail, b)
	}
	e.tail = b
	e.used += HeaderSize + uint64(size)
	e.notePeak()

	if logAlloc {
		logger.Debug("alloc: carve", "off", b, "size", size, "used", e.used)
	}
	return b
}

// split shrinks b to size bytes and turns the rest into a new free block that
// directly follows it. The new block is not in the free index yet.
// The caller guarantees size(b) >= size + HeaderSize + MinSplitPayload.
func (e *Engine) split(b, size uint32) uint32 {
	rem := b + HeaderSize + size
	remSize := e.size(b) - size - HeaderSize
	next := e.next(b)

	e.writeHeader(format.Header{
		Off:      rem,
		Size:     remSize,
		State:    format.StateFree,
		NextFree: noLink,
		PrevFree: noLink,
		Prev:     b,
		Next:     next,
	})
	if next != noLink {
		e.setPrev(next, rem)
	} else {
		e.tail = rem
	}
	e.setNext(b, rem)
	e.setSize(b, size)
	e.stats.Splits++

	if logAlloc {
		logger.Debug("alloc: split", "off", b, "size", size, "rem", rem, "rem_size", remSize)
	}
	return rem
}

// fuse absorbs b's chain successor next into b. Neither block may be in the
// free index.
func (e *Engine) fuse(b, next uint32) {
	e.setSize(b, e.size(b)+HeaderSize+e.size(next))
	after := e.next(next)
	e.setNext(b, after)
	if after != noLink {
		e.setPrev(after, b)
	} else {
		e.tail = b
	}
}

// trim shrinks allocated block b to size bytes when the excess can form a
// block of its own; the excess is then settled like a released block.
func (e *Engine) trim(b, size uint32) {
	if uint64(e.size(b)) < uint64(size)+HeaderSize+MinSplitPayload {
		return
	}
	e.settle(e.split(b, size))
}

// settle integrates free block b, which is not in the free index, into the
// heap: it merges b with free neighbours and then either cuts the result off
// the end of the chain or pushes it on the free index.
func (e *Engine) settle(b uint32) {
	if next := e.next(b); next != noLink && e.isFree(next) {
		e.unlinkFree(next)
		e.fuse(b, next)
		e.stats.MergeForward++
	}
	if prev := e.prev(b); prev != noLink && e.isFree(prev) {
		e.unlinkFree(prev)
		e.fuse(prev, b)
		b = prev
		e.stats.MergeBackward++
	}
	if e.next(b) == noLink {
		e.retract(b)
		return
	}
	e.pushFree(b)
}

// retract removes the chain's last block and moves the high-water mark back
// to its start.
func (e *Engine) retract(b uint32) {
	prev := e.prev(b)
	if prev != noLink {
		e.setNext(prev, noLink)
	}
	e.tail = prev
	e.used = uint64(b)
	e.stats.TailRetracts++

	if logAlloc {
		logger.Debug("alloc: retract", "off", b, "used", e.used)
	}
}
