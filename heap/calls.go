package heap

import "github.com/joshuapare/heapkit/heap/alloc"

// Malloc returns a block of at least size bytes, or alloc.Nil when the
// request cannot be met.
func (h *Heap) Malloc(size int) alloc.Ptr {
	p, err := h.Allocate(size)
	if err != nil {
		return alloc.Nil
	}
	return p
}

// Free releases p. Release errors are dropped; call Release to see them.
func (h *Heap) Free(p alloc.Ptr) {
	_ = h.Release(p)
}

// Realloc resizes p, returning alloc.Nil on failure with p left intact.
func (h *Heap) Realloc(p alloc.Ptr, size int) alloc.Ptr {
	np, err := h.Resize(p, size)
	if err != nil {
		return alloc.Nil
	}
	return np
}

// Bytes returns n payload bytes at p and panics on an out-of-range access.
func (h *Heap) Bytes(p alloc.Ptr, n int) []byte {
	return h.MustPayload(p, n)
}
