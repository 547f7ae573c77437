// Package stroke turns a hand's trail into a brush stroke: it smooths the
// path, offsets it into a tapered ribbon and fills it on a canvas.
package stroke

import "github.com/ayusman/mudra/internal/trail"

// DefaultIterations is the smoothing strength used for rendering.
const DefaultIterations = 4

// Smooth repeatedly replaces each interior point with the mean of itself and
// its two neighbours. Endpoints never move. Timestamps and notes are kept from
// the original point at each index. The input is not modified.
func Smooth(points []trail.Point, iterations int) []trail.Point {
	out := make([]trail.Point, len(points))
	copy(out, points)
	if len(points) < 3 {
		return out
	}

	next := make([]trail.Point, len(points))
	for iter := 0; iter < iterations; iter++ {
		next[0] = out[0]
		next[len(out)-1] = out[len(out)-1]
		for i := 1; i < len(out)-1; i++ {
			next[i] = trail.Point{
				X:    (out[i-1].X + out[i].X + out[i+1].X) / 3,
				Y:    (out[i-1].Y + out[i].Y + out[i+1].Y) / 3,
				T:    points[i].T,
				Note: points[i].Note,
			}
		}
		out, next = next, out
	}
	return out
}
