package alloc

// Stats holds engine counters since the last Init. Reset does not clear them.
//
// AllocCalls includes the Allocate issued by a moving Resize.
type Stats struct {
	Resets int // Reset() calls, including the one made by Init

	AllocCalls  int // Total Allocate() calls
	AllocFailed int // Allocations that returned ErrNoSpace
	AllocReused int // Allocations served from the free index
	AllocCarved int // Allocations carved at the high-water mark

	ReleaseCalls int // Total Release() calls, Nil included

	ResizeCalls    int // Total Resize() calls
	ResizeFailed   int // Resizes that returned ErrNoSpace
	ResizeShrink   int // Resizes served in place without growing
	ResizeAbsorb   int // Resizes that absorbed a free successor
	ResizeGrowTail int // Resizes that grew the last block in place
	ResizeMove     int // Resizes that moved the payload

	Splits        int // Blocks split in two
	MergeForward  int // Free successor merged into a block
	MergeBackward int // Block merged into its free predecessor
	TailRetracts  int // High-water mark moved back by a released last block

	PeakUsed uint64 // Highest high-water mark seen
}

// Stats returns a copy of the engine counters.
func (e *Engine) Stats() Stats {
	return e.stats
}
