package workload

import (
	"fmt"

	"github.com/joshuapare/heapkit/heap/alloc"
	"github.com/joshuapare/heapkit/internal/format"
)

func init() {
	register(Workload{
		Name:        "small_resize",
		Description: "a naive vector that grows one int at a time",
		Run:         smallResize,
	})
	register(Workload{
		Name:        "small_resize_2",
		Description: "two naive vectors growing one int at a time, interleaved",
		Run:         smallResize2,
	})
	register(Workload{
		Name:        "realloc_jitter",
		Description: "one vector alternately grown and trimmed",
		Run:         reallocJitter,
	})
	register(Workload{
		Name:        "realloc_works",
		Description: "checks that realloc copies data when it moves a block",
		Run:         reallocWorks,
	})
}

// checkVector verifies that elements 1..n-1 of the int vector at p hold
// their index plus one.
func checkVector(a Allocator, p alloc.Ptr, n int) error {
	b := a.Bytes(p, n*intSize)
	for i := 1; i < n; i++ {
		if got := format.ReadI32(b, i*intSize); got != int32(i+1) {
			return fmt.Errorf("%w: vector element %d holds %d", ErrDataCorrupted, i, got)
		}
	}
	return nil
}

func smallResize(a Allocator) error {
	array := a.Malloc(intSize)
	storeInt(a, array, 0, 0)
	for i := 2; i <= 100; i++ {
		array = a.Realloc(array, intSize*i)
		storeInt(a, array, (i-1)*intSize, int32(i))
	}
	if err := checkVector(a, array, 100); err != nil {
		return err
	}
	a.Free(array)
	return nil
}

func smallResize2(a Allocator) error {
	array1 := a.Malloc(intSize)
	array2 := a.Malloc(intSize)
	storeInt(a, array1, 0, 0)
	storeInt(a, array2, 0, 0)

	var n1, n2 int
	for i := 2; i <= 100; i++ {
		if i%3 != 0 {
			array1 = a.Realloc(array1, intSize*i)
			storeInt(a, array1, (i-1)*intSize, int32(i))
			n1 = i
		} else {
			array2 = a.Realloc(array2, intSize*i)
			storeInt(a, array2, (i-1)*intSize, int32(i))
			n2 = i
		}
	}

	// Each vector only writes the elements whose index it grew to; check the
	// last one of each.
	if got := loadInt(a, array1, (n1-1)*intSize); got != int32(n1) {
		return fmt.Errorf("%w: first vector tail holds %d", ErrDataCorrupted, got)
	}
	if got := loadInt(a, array2, (n2-1)*intSize); got != int32(n2) {
		return fmt.Errorf("%w: second vector tail holds %d", ErrDataCorrupted, got)
	}
	a.Free(array1)
	a.Free(array2)
	return nil
}

func reallocJitter(a Allocator) error {
	const rounds = 200

	stamp := func(p alloc.Ptr, n int) {
		b := a.Bytes(p, n)
		for i := range b {
			b[i] = byte(i * 7)
		}
	}
	check := func(p alloc.Ptr, n int) error {
		b := a.Bytes(p, n)
		for i := range b {
			if b[i] != byte(i*7) {
				return fmt.Errorf("%w: jitter byte %d", ErrDataCorrupted, i)
			}
		}
		return nil
	}

	size := 8
	vec := a.Malloc(size)
	stamp(vec, size)
	for i := 1; i <= rounds; i++ {
		grown := 10 * i
		vec = a.Realloc(vec, grown)
		if err := check(vec, size); err != nil {
			return err
		}
		stamp(vec, grown)

		size = grown / 2
		vec = a.Realloc(vec, size)
		if err := check(vec, size); err != nil {
			return err
		}
	}
	a.Free(vec)
	return nil
}

func reallocWorks(a Allocator) error {
	for base := 0x10000; base <= 1<<28; base <<= 1 {
		n := intSize * base
		array1 := a.Malloc(n)
		array2 := a.Malloc(n)
		array3 := a.Malloc(n)
		array4 := a.Malloc(n)

		b := a.Bytes(array2, n)
		for i := range base {
			format.PutI32(b, i*intSize, int32(0x61*i))
		}

		array5 := a.Realloc(array2, 2*n)
		if array5 != array2 {
			b = a.Bytes(array5, n)
			for i := range base {
				if format.ReadI32(b, i*intSize) != int32(0x61*i) {
					return ErrReallocNoCopy
				}
			}
		}
		a.Free(array1)
		a.Free(array3)
		a.Free(array4)
		a.Free(array5)
		if array5 != array2 {
			return nil
		}
		// Not large enough to have moved.
	}
	return ErrReallocNeverMoved
}
