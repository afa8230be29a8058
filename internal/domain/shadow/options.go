package shadow

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithEpsilon sets the occlusion tolerance in meters. Heights within eps of
// the shadow volume still count as sunlit.
func WithEpsilon(eps float64) Option {
	return func(e *Engine) {
		if eps > 0 {
			e.epsilon = eps
		}
	}
}

// WithPenumbra enables fractional illumination: a cell fades from lit to dark
// as its occlusion excess grows from zero to the given height in meters.
// Zero keeps hard 0/1 shadow edges.
func WithPenumbra(height float64) Option {
	return func(e *Engine) {
		if height >= 0 {
			e.penumbra = height
		}
	}
}

// WithMaxSteps caps the number of sweep iterations regardless of the natural
// bound. Zero leaves only the natural bound.
func WithMaxSteps(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxSteps = n
		}
	}
}
