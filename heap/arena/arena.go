// Package arena acquires the fixed byte regions allocator engines manage.
//
// A region is 2^bits bytes of anonymous mapped memory, or Go heap memory when
// mapping is unavailable. Regions never grow.
package arena

import (
	"errors"
	"fmt"

	"github.com/joshuapare/heapkit/internal/logger"
	"github.com/joshuapare/heapkit/internal/mmfile"
)

const (
	// MinBits and MaxBits bound the region size exponent.
	MinBits = 3
	MaxBits = 31

	// DefaultBits gives a 128 MiB region.
	DefaultBits = 27
)

var (
	// ErrBadBits indicates a size exponent outside [MinBits, MaxBits].
	ErrBadBits = errors.New("arena: size exponent out of range")

	// ErrMap indicates that the region could not be mapped.
	ErrMap = errors.New("arena: mapping failed")
)

// Region is a fixed-size byte region.
type Region struct {
	mem     []byte
	bits    int
	mapped  bool
	release func() error
}

// New returns a 2^bits byte region. It maps anonymous memory and falls back
// to a Go heap slice if the mapping fails.
func New(bits int) (*Region, error) {
	r, err := NewMapped(bits)
	if err == nil {
		return r, nil
	}
	if errors.Is(err, ErrBadBits) {
		return nil, err
	}
	logger.Warn("arena: falling back to heap memory", "bits", bits, "error", err)
	return NewHeap(bits)
}

// NewMapped is like New but fails with ErrMap instead of falling back.
func NewMapped(bits int) (*Region, error) {
	if err := checkBits(bits); err != nil {
		return nil, err
	}
	mem, release, err := mmfile.Anon(1 << bits)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMap, err)
	}
	logger.Debug("arena: mapped", "bits", bits, "size", len(mem))
	return &Region{mem: mem, bits: bits, mapped: true, release: release}, nil
}

// NewHeap returns a 2^bits byte region backed by a Go slice.
func NewHeap(bits int) (*Region, error) {
	if err := checkBits(bits); err != nil {
		return nil, err
	}
	return &Region{mem: make([]byte, 1<<bits), bits: bits}, nil
}

func checkBits(bits int) error {
	if bits < MinBits || bits > MaxBits {
		return fmt.Errorf("%w: %d not in [%d, %d]", ErrBadBits, bits, MinBits, MaxBits)
	}
	return nil
}

// Bytes returns the whole region. It returns nil after Close.
func (r *Region) Bytes() []byte { return r.mem }

// Size returns the region size in bytes.
func (r *Region) Size() int { return len(r.mem) }

// Bits returns the size exponent.
func (r *Region) Bits() int { return r.bits }

// Mapped reports whether the region is mapped memory rather than a Go slice.
func (r *Region) Mapped() bool { return r.mapped }

// Fill sets every byte of the region to v.
func (r *Region) Fill(v byte) {
	if len(r.mem) == 0 {
		return
	}
	r.mem[0] = v
	for n := 1; n < len(r.mem); n *= 2 {
		copy(r.mem[n:], r.mem[:n])
	}
}

// Close releases the region. Calling Close more than once is a no-op.
func (r *Region) Close() error {
	if r.mem == nil {
		return nil
	}
	r.mem = nil
	if r.release == nil {
		return nil
	}
	return r.release()
}
