// Package workload provides allocation workloads that exercise an allocator
// through malloc/free/realloc calls and validate what they read back.
//
// Workloads lay their data out the way a 64-bit C program would (8-byte
// pointers, 4-byte ints) so that memory limits stay comparable across
// allocators. All fields are encoded little-endian through the arena bytes.
package workload

import (
	"errors"
	"sort"

	"github.com/joshuapare/heapkit/heap/alloc"
)

// Allocator is the call surface a workload drives.
//
// Malloc and Realloc return alloc.Nil on failure. Bytes returns the n bytes at
// p and panics when the range is not addressable.
type Allocator interface {
	Malloc(size int) alloc.Ptr
	Free(p alloc.Ptr)
	Realloc(p alloc.Ptr, size int) alloc.Ptr
	Bytes(p alloc.Ptr, n int) []byte
}

// Workload is a named allocation pattern.
type Workload struct {
	Name        string
	Description string
	Run         func(a Allocator) error
}

// Layout sizes of the simulated 64-bit program.
const (
	ptrSize = 8
	intSize = 4
)

var (
	// ErrBSTViolated indicates a tree that no longer satisfies the search
	// property after construction.
	ErrBSTViolated = errors.New("BST property violated")

	// ErrReallocNoCopy indicates a moving realloc that did not carry the
	// old contents over.
	ErrReallocNoCopy = errors.New("realloc didn't copy data to new region")

	// ErrReallocNeverMoved indicates that realloc never moved a block, even
	// when it could not grow in place.
	ErrReallocNeverMoved = errors.New("realloc never moved to new memory")

	// ErrDataCorrupted indicates payload bytes changed while their block was
	// live.
	ErrDataCorrupted = errors.New("live data corrupted")
)

var registry = map[string]Workload{}

func register(w Workload) {
	if _, dup := registry[w.Name]; dup {
		panic("workload: duplicate registration of " + w.Name)
	}
	registry[w.Name] = w
}

// All returns every registered workload sorted by name.
func All() []Workload {
	out := make([]Workload, 0, len(registry))
	for _, w := range registry {
		out = append(out, w)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Lookup returns the workload registered under name.
func Lookup(name string) (Workload, bool) {
	w, ok := registry[name]
	return w, ok
}

// Names returns the registered workload names, sorted.
func Names() []string {
	all := All()
	names := make([]string, len(all))
	for i, w := range all {
		names[i] = w.Name
	}
	return names
}
