package harness

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/heapkit/heap/alloc"
	"github.com/joshuapare/heapkit/heap/workload"
)

func mustLookup(t *testing.T, name string) workload.Workload {
	t.Helper()

	w, ok := workload.Lookup(name)
	require.True(t, ok, name)
	return w
}

func TestRun_Passes(t *testing.T) {
	r := NewRunner(Config{Bits: 20, Runs: 3})

	res, err := r.Run(context.Background(), mustLookup(t, "linked_list"))
	require.NoError(t, err)
	require.NoError(t, res.Err)
	assert.True(t, res.OK())
	assert.Equal(t, 3, res.Runs)
	assert.Equal(t, uint64(20000*(alloc.HeaderSize+16)), res.Peak)
	assert.Positive(t, res.Best)
	assert.Equal(t, 20000, res.Stats.AllocCalls)
	assert.Equal(t, res.Peak, res.Stats.PeakUsed)
}

func TestRun_WorkloadError(t *testing.T) {
	sentinel := errors.New("validation failed")
	w := workload.Workload{Name: "failing", Run: func(workload.Allocator) error { return sentinel }}

	res, err := NewRunner(Config{Bits: 12}).Run(context.Background(), w)
	require.NoError(t, err)
	require.ErrorIs(t, res.Err, sentinel)
	assert.Equal(t, 0, res.Runs)
}

func TestRun_TrapsFaults(t *testing.T) {
	w := workload.Workload{Name: "wild", Run: func(a workload.Allocator) error {
		a.Bytes(1<<11, 8)[0] = 1 // nothing carved there
		return nil
	}}

	res, err := NewRunner(Config{Bits: 12}).Run(context.Background(), w)
	require.NoError(t, err)
	require.ErrorIs(t, res.Err, ErrFault)
	assert.Contains(t, res.Err.Error(), "fault generated")
}

func TestRun_ExhaustionReportsIllegalAddress(t *testing.T) {
	// The checking wrapper flags the nil result before the workload faults on it.
	res, err := NewRunner(Config{Bits: 10}).Run(context.Background(), mustLookup(t, "linked_list"))
	require.NoError(t, err)
	require.ErrorIs(t, res.Err, ErrIllegalAddress)
}

func TestRun_PoisonsBetweenRuns(t *testing.T) {
	var seen []byte
	w := workload.Workload{Name: "peek", Run: func(a workload.Allocator) error {
		p := a.Malloc(8)
		seen = append(seen, a.Bytes(p, 1)[0])
		a.Free(p)
		return nil
	}}

	_, err := NewRunner(Config{Bits: 12, Runs: 3}).Run(context.Background(), w)
	require.NoError(t, err)
	assert.Equal(t, []byte{97, 194, 35}, seen)
}

func TestRun_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewRunner(Config{Bits: 12}).Run(ctx, mustLookup(t, "small_resize"))
	require.ErrorIs(t, err, context.Canceled)
}

func TestRun_BadBits(t *testing.T) {
	_, err := NewRunner(Config{Bits: 40}).Run(context.Background(), mustLookup(t, "small_resize"))
	require.Error(t, err)
}

func TestRun_PageTracking(t *testing.T) {
	res, err := NewRunner(Config{Bits: 20, Runs: 1, Pages: true}).
		Run(context.Background(), mustLookup(t, "linked_list"))
	require.NoError(t, err)
	require.NoError(t, res.Err)

	// 20,000 40-byte blocks span 800,000 bytes of 4KB pages.
	assert.Equal(t, uint64(800000/4096+1), res.Pages)
}

func TestRunAll_PreservesOrder(t *testing.T) {
	ws, err := Lookup([]string{"small_resize", "backstep", "linked_list", "mergesort_like"})
	require.NoError(t, err)

	results, err := NewRunner(Config{Bits: 22, Runs: 2, Parallel: 4}).RunAll(context.Background(), ws)
	require.NoError(t, err)
	require.Len(t, results, len(ws))
	for i, res := range results {
		assert.Equal(t, ws[i].Name, res.Workload)
		assert.NoError(t, res.Err, res.Workload)
	}
}

func TestRunAll_DefaultSuiteIsFunctional(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping full suite in short mode")
	}
	s, err := DefaultSuite()
	require.NoError(t, err)

	results, err := NewRunner(Config{Bits: 24, Runs: 1, Parallel: 4}).RunAll(context.Background(), s.Selected())
	require.NoError(t, err)

	sc := s.Score(results)
	for _, res := range results {
		assert.NoError(t, res.Err, res.Workload)
	}
	assert.True(t, sc.Functional())
	for step := 1; step <= 4; step++ {
		assert.True(t, sc.Earned[step], "step %d: %s", step, StepNames[step])
	}
}

func TestConfig_Defaults(t *testing.T) {
	cfg := NewRunner(Config{}).Config()
	assert.Equal(t, 27, cfg.Bits)
	assert.Equal(t, DefaultRuns, cfg.Runs)
	assert.Equal(t, 1, cfg.Parallel)
}
