// Package geometry maps detector-frame coordinates onto the display overlay.
package geometry

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Transform is a uniform scale followed by a translation, derived from a
// "cover" fit of the video into the display area.
type Transform struct {
	Scale  float64
	Offset r2.Vec
}

// Cover computes the transform that scales a video of intrinsic size iw x ih
// by the larger of the two axis ratios so it fills a cw x ch display, cropping
// the excess symmetrically.
// ok is false when the video has no size yet; callers skip mapping for that frame.
func Cover(iw, ih, cw, ch float64) (Transform, bool) {
	if iw <= 0 || ih <= 0 {
		return Transform{}, false
	}
	scale := math.Max(cw/iw, ch/ih)
	return Transform{
		Scale: scale,
		Offset: r2.Vec{
			X: (iw*scale - cw) / 2,
			Y: (ih*scale - ch) / 2,
		},
	}, true
}

// Map converts a native-space point into display space.
func (t Transform) Map(p r2.Vec) r2.Vec {
	return r2.Sub(r2.Scale(t.Scale, p), t.Offset)
}

// MapXY is Map for bare coordinates.
func (t Transform) MapXY(x, y float64) (float64, float64) {
	p := t.Map(r2.Vec{X: x, Y: y})
	return p.X, p.Y
}

// Unmap converts a display-space point back into native space.
func (t Transform) Unmap(p r2.Vec) r2.Vec {
	if t.Scale == 0 {
		return r2.Vec{}
	}
	return r2.Scale(1/t.Scale, r2.Add(p, t.Offset))
}

// Distance is the Euclidean distance between two points.
func Distance(a, b r2.Vec) float64 {
	return r2.Norm(r2.Sub(a, b))
}
