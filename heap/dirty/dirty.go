package dirty

import (
	"sort"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/joshuapare/heapkit/heap/alloc"
)

const (
	// defaultRangeCapacity is the pre-allocated capacity for touched ranges.
	defaultRangeCapacity = 64

	// standardPageSize is the typical OS page size (4KB).
	standardPageSize = 4096
)

var _ alloc.DirtyTracker = (*Tracker)(nil)

// Range is a touched byte range of the arena.
type Range struct {
	Off int64 // Offset from the start of the arena
	Len int64 // Length in bytes
}

// End returns the offset one past the range.
func (r Range) End() int64 { return r.Off + r.Len }

// Tracker accumulates touched ranges and reports them at page granularity.
//
// NOT thread-safe. Only one goroutine should use it at a time.
type Tracker struct {
	ranges   []Range // Raw ranges, coalesced on demand
	pageSize int64
	bytes    int64 // Sum of raw range lengths, overlaps counted twice
}

// NewTracker creates a tracker with the given page size. A pageSize <= 0
// selects 4KB pages.
func NewTracker(pageSize int) *Tracker {
	if pageSize <= 0 {
		pageSize = standardPageSize
	}
	return &Tracker{
		ranges:   make([]Range, 0, defaultRangeCapacity),
		pageSize: int64(pageSize),
	}
}

// Add records a touched range. Empty and negative ranges are ignored.
//
// Add only appends; page alignment and merging happen when ranges are read.
func (t *Tracker) Add(off, length int) {
	if length <= 0 || off < 0 {
		return
	}
	t.ranges = append(t.ranges, Range{Off: int64(off), Len: int64(length)})
	t.bytes += int64(length)
	if len(t.ranges) >= compactThreshold {
		t.ranges = append(t.ranges[:0], t.coalesce()...)
	}
}

// compactThreshold bounds the raw range slice on long workloads. Coalesced
// ranges are page aligned, so compacting never changes the reported pages.
const compactThreshold = 1 << 16

// PageSize returns the tracking granularity in bytes.
func (t *Tracker) PageSize() int { return int(t.pageSize) }

// Bytes returns the total length of all ranges added since the last Reset.
func (t *Tracker) Bytes() int64 { return t.bytes }

// Ranges returns the touched ranges, page aligned, sorted and merged.
func (t *Tracker) Ranges() []Range {
	return t.coalesce()
}

// Pages returns the set of touched page indices.
func (t *Tracker) Pages() *roaring.Bitmap {
	bm := roaring.New()
	for _, r := range t.coalesce() {
		bm.AddRange(uint64(r.Off/t.pageSize), uint64(r.End()/t.pageSize))
	}
	return bm
}

// PageCount returns the number of touched pages.
func (t *Tracker) PageCount() uint64 {
	var n int64
	for _, r := range t.coalesce() {
		n += r.Len / t.pageSize
	}
	return uint64(n)
}

// Reset clears all tracked ranges.
func (t *Tracker) Reset() {
	t.ranges = t.ranges[:0]
	t.bytes = 0
}

// DebugRanges returns the raw, uncoalesced ranges (for testing/debugging).
func (t *Tracker) DebugRanges() []Range {
	result := make([]Range, len(t.ranges))
	copy(result, t.ranges)
	return result
}

// coalesce page-aligns all ranges, sorts them, and merges overlapping/adjacent ranges.
//
// Returns a new slice of non-overlapping, sorted ranges.
func (t *Tracker) coalesce() []Range {
	if len(t.ranges) == 0 {
		return nil
	}

	aligned := make([]Range, len(t.ranges))
	for i, r := range t.ranges {
		// Round down start to page boundary
		start := (r.Off / t.pageSize) * t.pageSize

		// Round up end to page boundary
		end := r.End()
		if end%t.pageSize != 0 {
			end = ((end / t.pageSize) + 1) * t.pageSize
		}

		aligned[i] = Range{Off: start, Len: end - start}
	}

	sort.Slice(aligned, func(i, j int) bool {
		return aligned[i].Off < aligned[j].Off
	})

	merged := make([]Range, 0, len(aligned))
	current := aligned[0]
	for _, next := range aligned[1:] {
		if next.Off <= current.End() {
			if next.End() > current.End() {
				current.Len = next.End() - current.Off
			}
			continue
		}
		merged = append(merged, current)
		current = next
	}
	return append(merged, current)
}
