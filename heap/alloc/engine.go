package alloc

import (
	"os"

	"github.com/joshuapare/heapkit/internal/buf"
	"github.com/joshuapare/heapkit/internal/format"
	"github.com/joshuapare/heapkit/internal/logger"
)

// Runtime debug flag for allocation logging - controlled by HEAP_LOG_ALLOC env var.
var logAlloc = os.Getenv("HEAP_LOG_ALLOC") != ""

// maxAlignment keeps WithAlignment within the header's own alignment.
const maxAlignment = 8

// Engine is a first-fit allocator bound to one byte region.
//
// The zero value is not usable; construct with New.
type Engine struct {
	mem      []byte
	capacity uint64
	used     uint64 // high-water mark: offset of the first never-carved byte

	freeHead  uint32 // most recently freed block, or noLink
	tail      uint32 // last block of the chain, or noLink
	freeCount int

	align   int
	checked bool
	dt      DirtyTracker

	stats Stats
}

// New binds an engine to mem. The engine owns mem's contents from now on;
// the caller keeps ownership of the memory itself.
func New(mem []byte, opts ...Option) (*Engine, error) {
	e := &Engine{align: 1}
	for _, opt := range opts {
		opt(e)
	}
	if e.align <= 0 || e.align > maxAlignment || !format.IsPow2(e.align) {
		return nil, ErrBadAlignment
	}
	if err := e.Init(mem); err != nil {
		return nil, err
	}
	return e, nil
}

// Init rebinds the engine to mem and resets all state.
func (e *Engine) Init(mem []byte) error {
	if len(mem) == 0 || uint64(len(mem)) > MaxCapacity {
		return ErrBadRegion
	}
	e.mem = mem
	e.capacity = uint64(len(mem))
	e.stats = Stats{}
	e.Reset()
	return nil
}

// Reset forgets every block. The region and options are kept; pointers
// returned before the reset must not be used again.
func (e *Engine) Reset() {
	e.used = 0
	e.freeHead = noLink
	e.tail = noLink
	e.freeCount = 0
	e.stats.Resets++
}

// Capacity returns the region size in bytes.
func (e *Engine) Capacity() int { return int(e.capacity) }

// Used returns the high-water mark.
func (e *Engine) Used() int { return int(e.used) }

// FreeBlocks returns the number of blocks in the free index.
func (e *Engine) FreeBlocks() int { return e.freeCount }

// Bytes returns the whole region.
func (e *Engine) Bytes() []byte { return e.mem }

// Allocate returns a block of at least size bytes, or ErrNoSpace.
func (e *Engine) Allocate(size int) (Ptr, error) {
	e.stats.AllocCalls++
	if size < 0 {
		return Nil, ErrBadSize
	}
	need, ok := e.request(size)
	if !ok {
		e.stats.AllocFailed++
		e.logExhausted(size)
		return Nil, ErrNoSpace
	}

	for b := e.freeHead; b != noLink; b = e.nextFree(b) {
		have := e.size(b)
		if have < need {
			continue
		}
		e.unlinkFree(b)
		e.setState(b, format.StateAllocated)
		if uint64(have) >= uint64(need)+HeaderSize+MinSplitPayload {
			rem := e.split(b, need)
			// rem's successor was the found block's successor, which is not free.
			e.pushFree(rem)
		}
		e.stats.AllocReused++
		return ptrOf(b), nil
	}

	if e.used+HeaderSize+uint64(need) > e.capacity {
		e.stats.AllocFailed++
		e.logExhausted(size)
		return Nil, ErrNoSpace
	}
	b := e.carve(need)
	e.stats.AllocCarved++
	return ptrOf(b), nil
}

// Release returns p's block to the heap. Releasing Nil is a no-op.
func (e *Engine) Release(p Ptr) error {
	e.stats.ReleaseCalls++
	if p == Nil {
		return nil
	}
	b, err := e.lookup(p)
	if err != nil {
		return err
	}
	e.setState(b, format.StateFree)
	e.settle(b)
	return nil
}

// Resize changes p's block to hold n bytes and returns the block's pointer,
// which differs from p only when the block had to move. A failed Resize
// returns ErrNoSpace and leaves p allocated and unchanged.
//
// Resize(p, 0) releases p and returns Nil; Resize(Nil, n) is Allocate(n).
func (e *Engine) Resize(p Ptr, n int) (Ptr, error) {
	e.stats.ResizeCalls++
	if n < 0 {
		return Nil, ErrBadSize
	}
	if n == 0 {
		return Nil, e.Release(p)
	}
	if p == Nil {
		return e.Allocate(n)
	}

	b, err := e.lookup(p)
	if err != nil {
		return Nil, err
	}
	need, ok := e.request(n)
	if !ok {
		e.stats.ResizeFailed++
		e.logExhausted(n)
		return Nil, ErrNoSpace
	}
	old := e.size(b)

	if need <= old {
		e.stats.ResizeShrink++
		e.trim(b, need)
		return p, nil
	}

	if next := e.next(b); next != noLink && e.isFree(next) &&
		uint64(old)+HeaderSize+uint64(e.size(next)) >= uint64(need) {
		e.stats.ResizeAbsorb++
		e.unlinkFree(next)
		e.fuse(b, next)
		e.trim(b, need)
		return p, nil
	}

	if b == e.tail && e.used+uint64(need-old) <= e.capacity {
		e.stats.ResizeGrowTail++
		e.setSize(b, need)
		e.used += uint64(need - old)
		e.notePeak()
		return p, nil
	}

	np, err := e.Allocate(n)
	if err != nil {
		e.stats.ResizeFailed++
		return Nil, err
	}
	e.stats.ResizeMove++
	copy(e.mem[np:uint32(np)+old], e.mem[p:uint32(p)+old])
	if e.dt != nil {
		e.dt.Add(int(np), int(old))
	}
	e.setState(b, format.StateFree)
	e.settle(b)
	return np, nil
}

// UsableSize returns the payload size of p's block, which may exceed the
// size requested for it.
func (e *Engine) UsableSize(p Ptr) int {
	if p == Nil {
		return 0
	}
	return int(e.size(hdrOf(p)))
}

// Payload returns the n bytes at p. It only checks that the range lies inside
// the carved part of the arena past the first header, not that it lies inside
// p's block.
func (e *Engine) Payload(p Ptr, n int) ([]byte, error) {
	if p < HeaderSize || !buf.Within(int(p), n, int(e.used)) {
		return nil, ErrOutOfRange
	}
	b, _ := buf.Slice(e.mem, int(p), n)
	return b, nil
}

// MustPayload is like Payload but panics on an out-of-range access.
func (e *Engine) MustPayload(p Ptr, n int) []byte {
	b, err := e.Payload(p, n)
	if err != nil {
		panic(err)
	}
	return b
}

// request converts a request size into a block size, rejecting sizes that
// could never fit.
func (e *Engine) request(size int) (uint32, bool) {
	if uint64(size) > e.capacity {
		return 0, false
	}
	return uint32(format.AlignUp(size, e.align)), true
}

// lookup maps a pointer to its header, validating it in checked mode.
func (e *Engine) lookup(p Ptr) (uint32, error) {
	if !e.checked {
		return hdrOf(p), nil
	}
	if uint64(p) < HeaderSize || uint64(p) > e.used {
		return 0, ErrBadPointer
	}
	b := hdrOf(p)
	h, err := format.DecodeHeader(e.mem, b)
	if err != nil || format.CheckTag(h) != nil || uint64(h.End()) > e.used {
		return 0, ErrBadPointer
	}
	if h.Prev == noLink {
		if b != 0 {
			return 0, ErrBadPointer
		}
	} else if h.Prev >= b || e.next(h.Prev) != b {
		return 0, ErrBadPointer
	}
	if h.Next == noLink {
		if b != e.tail {
			return 0, ErrBadPointer
		}
	} else if h.Next != h.End() || uint64(h.Next)+HeaderSize > e.used || e.prev(h.Next) != b {
		return 0, ErrBadPointer
	}
	if h.State == format.StateFree {
		return 0, ErrDoubleRelease
	}
	return b, nil
}

func (e *Engine) notePeak() {
	if e.used > e.stats.PeakUsed {
		e.stats.PeakUsed = e.used
	}
}

func (e *Engine) logExhausted(size int) {
	if logAlloc {
		logger.Debug("alloc: exhausted",
			"need", size, "used", e.used, "capacity", e.capacity, "free_blocks", e.freeCount)
	}
}

func ptrOf(b uint32) Ptr { return Ptr(b + HeaderSize) }

func hdrOf(p Ptr) uint32 { return uint32(p) - HeaderSize }
