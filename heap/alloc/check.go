package alloc

import (
	"fmt"

	"github.com/joshuapare/heapkit/internal/format"
)

// Walk calls fn for every block of the chain in address order until fn
// returns false. The engine must not be modified during the walk.
func (e *Engine) Walk(fn func(BlockInfo) bool) {
	for b := e.firstBlock(); b != noLink; b = e.next(b) {
		info := BlockInfo{
			Offset: int(b),
			Ptr:    ptrOf(b),
			Size:   int(e.size(b)),
			Free:   e.isFree(b),
		}
		if !fn(info) {
			return
		}
	}
}

func (e *Engine) firstBlock() uint32 {
	if e.used == 0 {
		return noLink
	}
	return 0
}

// Check walks the chain and the free index and verifies every structural
// invariant. It returns an error wrapping ErrCorrupt on the first violation.
//
// Verified:
//   - blocks tile [0, used) exactly, in address order, with consistent links
//   - every header carries a valid tag
//   - no two chain neighbours are both free
//   - the last block is allocated
//   - the free index holds exactly the free blocks, each once, with
//     consistent back links
func (e *Engine) Check() error {
	if e.used > e.capacity {
		return corrupt("used %d exceeds capacity %d", e.used, e.capacity)
	}

	var (
		off      uint64
		prev     = noLink
		prevFree bool
		free     = make(map[uint32]struct{})
	)
	for off < e.used {
		h, err := format.DecodeHeader(e.mem[:e.used], uint32(off))
		if err != nil {
			return corrupt("block at %d: %v", off, err)
		}
		if err := format.CheckTag(h); err != nil {
			return corrupt("%v", err)
		}
		if uint64(h.End()) > e.used || h.End() < h.Off {
			return corrupt("block at %d: size %d runs past used %d", off, h.Size, e.used)
		}
		if h.Prev != prev {
			return corrupt("block at %d: prev link %#x, want %#x", off, h.Prev, prev)
		}
		isFree := h.State == format.StateFree
		if isFree && prevFree {
			return corrupt("blocks at %d and %d are adjacent and free", prev, off)
		}
		if isFree {
			free[h.Off] = struct{}{}
		}

		end := uint64(h.End())
		if end == e.used {
			if h.Next != noLink {
				return corrupt("last block at %d: next link %#x", off, h.Next)
			}
			if isFree {
				return corrupt("last block at %d is free", off)
			}
			if h.Off != e.tail {
				return corrupt("tail is %#x, last block is at %d", e.tail, off)
			}
		} else if uint64(h.Next) != end {
			return corrupt("block at %d: next link %#x, want %d", off, h.Next, end)
		}

		prev, prevFree, off = h.Off, isFree, end
	}
	if e.used == 0 && e.tail != noLink {
		return corrupt("empty chain with tail %#x", e.tail)
	}

	n := 0
	back := noLink
	for b := e.freeHead; b != noLink; b = e.nextFree(b) {
		if _, ok := free[b]; !ok {
			return corrupt("free index entry %#x is not a free chain block", b)
		}
		if e.prevFree(b) != back {
			return corrupt("free index entry %#x: back link %#x, want %#x", b, e.prevFree(b), back)
		}
		delete(free, b)
		back = b
		n++
	}
	if len(free) != 0 {
		return corrupt("%d free blocks missing from the free index", len(free))
	}
	if n != e.freeCount {
		return corrupt("free index holds %d blocks, count says %d", n, e.freeCount)
	}
	return nil
}

func corrupt(msg string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrCorrupt, fmt.Sprintf(msg, args...))
}
