// Package harness runs allocation workloads against a heap, validates what
// the engine hands out, times the runs and scores a suite of results.
//
// # Runs
//
// Each workload gets its own heap. The heap is reset and its region poisoned
// before every repetition, so a workload cannot rely on stale bytes. The
// first repetition goes through a checking allocator that verifies every
// returned range lies inside the arena and overlaps no live range; later
// repetitions only record the peak address and are timed. The best wall time
// is reported.
//
// A workload that panics (for example by writing through a nil pointer
// returned for an exhausted heap) is reported as ErrFault rather than
// crashing the process.
//
// # Suites and Scoring
//
// A suite lists limits per workload (peak bytes, minimum peak bytes, or
// nanoseconds), each tagged with the step it demonstrates. A run scores 10
// points when every workload is functional, 15 per passed step 1 through 6,
// and up to 10 extra credit points for steps 7 through 9 once it reaches 100.
//
// # Parallelism
//
// RunAll runs independent workloads concurrently, each on its own heap.
// A heap is never shared between goroutines.
package harness
