// Package heap binds a fixed arena to a first-fit allocator engine.
//
// # Overview
//
// A Heap owns one region of 2^bits bytes (see package arena) and one
// alloc.Engine managing it. It is the entry point for programs that want a
// ready-made heap rather than assembling the pieces themselves:
//
//	h, err := heap.New(20, heap.WithChecks())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer h.Close()
//
//	p, err := h.Allocate(64)
//	buf := h.MustPayload(p, 64)
//	p, err = h.Resize(p, 256)
//	err = h.Release(p)
//
// # Packages
//
//   - alloc: the engine (block chain, free index, split and merge)
//   - arena: region acquisition (anonymous mmap with heap fallback)
//   - dirty: page-touch tracking fed by the engine
//   - workload: allocation workloads over a small Allocator interface
//   - harness: checked and timed workload runs, suites and scoring
//   - trace: recording and replaying allocator call streams
//
// # Thread Safety
//
// A Heap is single-threaded. Independent heaps may be used from different
// goroutines.
package heap
