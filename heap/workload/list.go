package workload

import (
	"fmt"

	"github.com/joshuapare/heapkit/heap/alloc"
)

// Linked list node layout: data int32, next *node (padded to 16 bytes).
const (
	lnData     = 0
	lnNext     = ptrSize
	lnNodeSize = 16
)

func init() {
	register(Workload{
		Name:        "linked_list",
		Description: "allocate then free a huge singly linked list",
		Run:         linkedList,
	})
}

func linkedList(a Allocator) error {
	const n = 20000

	head := alloc.Nil
	for i := range n {
		node := a.Malloc(lnNodeSize)
		storeInt(a, node, lnData, int32(i))
		storePtr(a, node, lnNext, head)
		head = node
	}

	want := int32(n - 1)
	for head != alloc.Nil {
		node := head
		if got := loadInt(a, node, lnData); got != want {
			return fmt.Errorf("%w: list node holds %d, want %d", ErrDataCorrupted, got, want)
		}
		head = loadPtr(a, node, lnNext)
		a.Free(node)
		want--
	}
	return nil
}
