// Package dirty provides page-level tracking of the arena bytes an allocator
// writes to.
//
// # Overview
//
// The allocator engine reports every header it writes, and every payload it
// copies during a moving resize, as a byte range. The tracker collects those
// ranges and answers which pages of the arena were touched. heapctl uses the
// page count as a locality measure for a workload: a first-fit heap that keeps
// reusing low addresses touches far fewer pages than one that keeps carving.
//
// # Usage
//
//	tracker := dirty.NewTracker(0) // 0 = 4KB pages
//	e, _ := alloc.New(mem, alloc.WithDirtyTracker(tracker))
//	// ... run a workload ...
//	fmt.Println(tracker.PageCount(), "pages touched")
//
// # Page-Level Granularity
//
// Ranges are rounded out to page boundaries and merged when they overlap or
// touch:
//
//	Touched pages: [0, 1, 2, 5, 6] → Ranges: [0x0-0x3000, 0x5000-0x7000]
//
// # Thread Safety
//
// Tracker instances are not thread-safe. Each engine gets its own tracker.
package dirty
