package alloc

import "github.com/joshuapare/heapkit/internal/format"

// Ptr is a payload offset from the start of the arena. Nil (0) is the null
// pointer; no payload can start at 0 because a header always precedes it.
type Ptr uint32

// Nil is the null pointer.
const Nil Ptr = 0

const (
	// HeaderSize is the per-block bookkeeping overhead in bytes.
	HeaderSize = format.BlockHeaderSize

	// MinSplitPayload is the smallest payload a split remainder may have.
	MinSplitPayload = 8

	// MaxCapacity is the largest supported region (2 GiB).
	MaxCapacity = 1 << 31

	noLink = format.NoLink
)

// BlockInfo describes one block of the chain.
type BlockInfo struct {
	Offset int  // header offset
	Ptr    Ptr  // payload offset
	Size   int  // payload size
	Free   bool // true when the block is in the free index
}

// End returns the offset one past the block's payload.
func (b BlockInfo) End() int {
	return b.Offset + HeaderSize + b.Size
}

// DirtyTracker receives the byte ranges the engine writes to: headers on every
// structural change and payloads copied by a moving Resize.
type DirtyTracker interface {
	Add(off, length int)
}
