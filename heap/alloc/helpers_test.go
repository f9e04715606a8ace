package alloc

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// tb is the subset of testing.TB the shared helpers need; *rapid.T satisfies it.
type tb interface {
	require.TestingT
	Helper()
}

// ============================================================================
// Engine Setup Utilities
// ============================================================================

// newTestEngine creates an engine over a fresh zeroed region of capacity bytes.
func newTestEngine(t testing.TB, capacity int, opts ...Option) *Engine {
	t.Helper()

	e, err := New(make([]byte, capacity), opts...)
	require.NoError(t, err, "failed to create engine")
	return e
}

// mustAlloc allocates size bytes and fails the test on error.
func mustAlloc(t testing.TB, e *Engine, size int) Ptr {
	t.Helper()

	p, err := e.Allocate(size)
	require.NoError(t, err, "Allocate(%d)", size)
	require.NotEqual(t, Nil, p, "Allocate(%d) returned Nil", size)
	return p
}

// ============================================================================
// Invariant Checking
// ============================================================================

// assertInvariants runs the engine's own structural check and fails the test
// immediately on a violation.
func assertInvariants(t tb, e *Engine) {
	t.Helper()

	require.NoError(t, e.Check(), "heap invariants violated")
}

// blocks returns the chain as a slice.
func blocks(e *Engine) []BlockInfo {
	var out []BlockInfo
	e.Walk(func(b BlockInfo) bool {
		out = append(out, b)
		return true
	})
	return out
}

// fill writes v into every byte of p's first n payload bytes.
func fill(t tb, e *Engine, p Ptr, n int, v byte) {
	t.Helper()

	b, err := e.Payload(p, n)
	require.NoError(t, err)
	for i := range b {
		b[i] = v
	}
}

// requireFilled checks that p's first n payload bytes all equal v.
func requireFilled(t tb, e *Engine, p Ptr, n int, v byte) {
	t.Helper()

	b, err := e.Payload(p, n)
	require.NoError(t, err)
	for i, got := range b {
		require.Equal(t, v, got, "payload byte %d at %#x", i, p)
	}
}

// ============================================================================
// Dirty Tracking Mock
// ============================================================================

type span struct{ off, length int }

// mockDirtyTracker records every reported range.
type mockDirtyTracker struct {
	spans []span
}

func newMockDirtyTracker() *mockDirtyTracker {
	return &mockDirtyTracker{}
}

func (m *mockDirtyTracker) Add(off, length int) {
	m.spans = append(m.spans, span{off, length})
}

// covers reports whether [off, off+length) lies inside one recorded range.
func (m *mockDirtyTracker) covers(off, length int) bool {
	for _, s := range m.spans {
		if off >= s.off && off+length <= s.off+s.length {
			return true
		}
	}
	return false
}
