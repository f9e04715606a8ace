package alloc

import "errors"

var (
	// ErrNoSpace indicates that no free block is large enough and the arena has
	// no headroom left to carve a new one.
	ErrNoSpace = errors.New("alloc: arena exhausted")

	// ErrBadSize indicates a negative request size.
	ErrBadSize = errors.New("alloc: negative size")

	// ErrBadRegion indicates an empty region or one larger than MaxCapacity.
	ErrBadRegion = errors.New("alloc: bad region")

	// ErrBadAlignment indicates an alignment other than 1, 2, 4 or 8.
	ErrBadAlignment = errors.New("alloc: alignment must be 1, 2, 4 or 8")

	// ErrBadPointer indicates a pointer that does not name a live block.
	// Only reported when checks are enabled.
	ErrBadPointer = errors.New("alloc: bad pointer")

	// ErrDoubleRelease indicates a pointer whose block is already free.
	// Only reported when checks are enabled.
	ErrDoubleRelease = errors.New("alloc: block already released")

	// ErrOutOfRange indicates a payload access outside the arena.
	ErrOutOfRange = errors.New("alloc: payload out of range")

	// ErrCorrupt indicates a failed structural invariant (see Check).
	ErrCorrupt = errors.New("alloc: heap corrupt")
)
