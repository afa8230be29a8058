package render

// Option applies a configuration option to the Renderer.
type Option func(*Renderer)

// WithSize sets the output image size in pixels.
func WithSize(width, height int) Option {
	return func(r *Renderer) {
		if width > 0 && height > 0 {
			r.widthPx = width
			r.heightPx = height
		}
	}
}

// WithPaletteColors sets the number of discrete palette entries.
func WithPaletteColors(n int) Option {
	return func(r *Renderer) {
		if n > 1 {
			r.paletteColors = n
		}
	}
}
