package workload

import (
	"fmt"

	"github.com/joshuapare/heapkit/heap/alloc"
)

func init() {
	register(Workload{
		Name:        "backstep",
		Description: "free what was just allocated many times",
		Run:         backstep,
	})
	register(Workload{
		Name:        "fragmented_growing",
		Description: "randomly scattered free blocks with mostly increasing sizes",
		Run:         fragmentedGrowing,
	})
	register(Workload{
		Name:        "chaos_reuse",
		Description: "random churn of a few small blocks",
		Run:         func(a Allocator) error { return chaosReuse(a, 8, 48, 5000, false) },
	})
	register(Workload{
		Name:        "chaos_reuse_2",
		Description: "random churn of many small blocks with resizes",
		Run:         func(a Allocator) error { return chaosReuse(a, 32, 256, 20000, true) },
	})
}

func backstep(a Allocator) error {
	ptrs := a.Malloc(ptrSize * 100)
	for i := range 100 {
		array := a.Malloc(intSize * 100 * (i + 1))
		a.Free(array)
		p := a.Malloc(intSize * 50 * (i + 1))
		p = a.Realloc(p, 10*(i+1))
		storePtr(a, ptrs, i*ptrSize, p)
	}
	for i := range 100 {
		a.Free(loadPtr(a, ptrs, i*ptrSize))
	}
	a.Free(ptrs)
	return nil
}

func fragmentedGrowing(a Allocator) error {
	for i := range 0xFFF {
		for k := range 8 {
			tmp := a.Malloc(1 + (i &^ (1 << k)))
			_ = a.Malloc(1) // leaked on purpose
			a.Free(tmp)
		}
	}
	return nil
}

// chaosReuse keeps up to slots live blocks of 1..maxSize bytes and churns them
// with generator-chosen frees and allocations (and resizes when resize is
// set). Every live block is stamped with its slot number and checked before
// it is released or resized.
func chaosReuse(a Allocator, slots, maxSize, steps int, resize bool) error {
	g := newLFG(0)
	ptr := make([]alloc.Ptr, slots)
	size := make([]int, slots)

	verify := func(s, n int) error {
		b := a.Bytes(ptr[s], n)
		for i, v := range b {
			if v != byte(s+1) {
				return fmt.Errorf("%w: slot %d byte %d holds %#x", ErrDataCorrupted, s, i, v)
			}
		}
		return nil
	}
	stamp := func(s, from int) {
		b := a.Bytes(ptr[s], size[s])
		for i := from; i < len(b); i++ {
			b[i] = byte(s + 1)
		}
	}

	for range steps {
		s := g.nextN(slots)
		n := 1 + g.nextN(maxSize)
		switch {
		case ptr[s] == alloc.Nil:
			ptr[s], size[s] = a.Malloc(n), n
			stamp(s, 0)
		case resize && n%2 == 0:
			if err := verify(s, size[s]); err != nil {
				return err
			}
			keep := min(size[s], n)
			ptr[s], size[s] = a.Realloc(ptr[s], n), n
			if err := verify(s, keep); err != nil {
				return err
			}
			stamp(s, keep)
		default:
			if err := verify(s, size[s]); err != nil {
				return err
			}
			a.Free(ptr[s])
			ptr[s] = alloc.Nil
		}
	}

	for s := range ptr {
		if ptr[s] == alloc.Nil {
			continue
		}
		if err := verify(s, size[s]); err != nil {
			return err
		}
		a.Free(ptr[s])
	}
	return nil
}
