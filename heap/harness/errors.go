package harness

import "errors"

var (
	// ErrIllegalAddress indicates an allocation that failed or returned an
	// address outside the arena.
	ErrIllegalAddress = errors.New("allocated illegal address")

	// ErrOverflow indicates an allocation whose range runs past the arena end.
	ErrOverflow = errors.New("allocation overflowed")

	// ErrOverlap indicates an allocation that overlaps a live allocation.
	ErrOverlap = errors.New("allocated already-used memory")

	// ErrFault indicates a workload that panicked, typically by touching
	// memory outside the carved arena.
	ErrFault = errors.New("fault generated")

	// ErrUnknownWorkload indicates a workload name with no registration.
	ErrUnknownWorkload = errors.New("harness: unknown workload")

	// ErrBadSuite indicates a malformed suite table.
	ErrBadSuite = errors.New("harness: bad suite")
)
