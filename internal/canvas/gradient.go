package canvas

import (
	"image"
	"image/color"

	"github.com/fogleman/gg"
)

// LinearGradient is an image.Image whose color varies along the segment from
// (x0, y0) to (x1, y1), usable as a Fill source. Points beyond the ends take
// the end colors. Interpolation is gg's.
type LinearGradient struct {
	pattern    gg.Gradient
	degenerate bool

	stops       int
	first       color.Color
	firstOffset float64
}

// NewLinearGradient creates a gradient along the given segment.
func NewLinearGradient(x0, y0, x1, y1 float64) *LinearGradient {
	return &LinearGradient{
		pattern:    gg.NewLinearGradient(x0, y0, x1, y1),
		degenerate: x0 == x1 && y0 == y1,
	}
}

// AddColorStop adds a stop at offset, clamped to [0, 1].
func (g *LinearGradient) AddColorStop(offset float64, c color.Color) {
	offset = min(max(offset, 0), 1)
	if g.stops == 0 || offset < g.firstOffset {
		g.first, g.firstOffset = c, offset
	}
	g.stops++
	g.pattern.AddColorStop(offset, c)
}

// ColorModel implements image.Image.
func (g *LinearGradient) ColorModel() color.Model {
	return color.RGBAModel
}

// Bounds implements image.Image. A gradient is unbounded.
func (g *LinearGradient) Bounds() image.Rectangle {
	return image.Rect(-1e9, -1e9, 1e9, 1e9)
}

// At implements image.Image.
func (g *LinearGradient) At(x, y int) color.Color {
	switch {
	case g.stops == 0:
		return color.Transparent
	case g.degenerate:
		// A zero-length segment has no direction; paint the first stop.
		return g.first
	}
	return g.pattern.ColorAt(x, y)
}
