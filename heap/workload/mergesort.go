package workload

import "github.com/joshuapare/heapkit/heap/alloc"

func init() {
	register(Workload{
		Name:        "mergesort_like",
		Description: "the memory allocation patterns of mergesort",
		Run:         mergesortLike,
	})
}

func mergesortLike(a Allocator) error {
	const size = 12345

	array := a.Malloc(size * intSize)
	fakeSort(a, array, size)
	return nil
}

// fakeSort allocates and frees a merge buffer at every level of a top-down
// mergesort without merging anything.
func fakeSort(a Allocator, array alloc.Ptr, size int) {
	if size <= 1 {
		return
	}
	half := size / 2
	fakeSort(a, array, half)
	fakeSort(a, array+alloc.Ptr(half*intSize), size-half)
	merger := a.Malloc(size * intSize)
	a.Free(merger)
}
