package alloc

// Option configures an Engine.
type Option func(*Engine)

// WithAlignment rounds every request up to a multiple of n, which keeps every
// payload n-aligned relative to the start of the arena. n must be 1, 2, 4 or
// 8; 1 (the default) leaves requests untouched.
func WithAlignment(n int) Option {
	return func(e *Engine) {
		e.align = n
	}
}

// WithChecks makes Release and Resize validate their pointer argument.
func WithChecks() Option {
	return func(e *Engine) {
		e.checked = true
	}
}

// WithDirtyTracker reports written ranges to dt.
func WithDirtyTracker(dt DirtyTracker) Option {
	return func(e *Engine) {
		e.dt = dt
	}
}
