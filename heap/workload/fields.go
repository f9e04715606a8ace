package workload

import (
	"github.com/joshuapare/heapkit/heap/alloc"
	"github.com/joshuapare/heapkit/internal/format"
)

// Field accessors over arena payloads. Pointers are stored as 8-byte values.

func loadPtr(a Allocator, p alloc.Ptr, off int) alloc.Ptr {
	return alloc.Ptr(format.ReadU64(a.Bytes(p, off+ptrSize), off))
}

func storePtr(a Allocator, p alloc.Ptr, off int, v alloc.Ptr) {
	format.PutU64(a.Bytes(p, off+ptrSize), off, uint64(v))
}

func loadInt(a Allocator, p alloc.Ptr, off int) int32 {
	return format.ReadI32(a.Bytes(p, off+intSize), off)
}

func storeInt(a Allocator, p alloc.Ptr, off int, v int32) {
	format.PutI32(a.Bytes(p, off+intSize), off, v)
}

// lfg is the lagged Fibonacci generator the tree and churn workloads share.
// Arithmetic wraps at 32 bits.
type lfg struct {
	state [10]int32
	index int
	mask  int32 // applied to every output when non-zero
}

func newLFG(mask int32) *lfg {
	return &lfg{
		state: [10]int32{124, 128, 173, 225, 222, 340, 357, 361, 374, 421},
		index: 9,
		mask:  mask,
	}
}

func (g *lfg) next() int32 {
	g.index = (g.index + 1) % 10
	v := g.state[g.index] + g.state[(g.index+3)%10]
	if g.mask != 0 {
		v &= g.mask
	}
	g.state[g.index] = v
	return v
}

// nextN returns a value in [0, n).
func (g *lfg) nextN(n int) int {
	return int(uint32(g.next()) % uint32(n))
}
