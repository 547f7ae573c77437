package stroke

import (
	"image"
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/ayusman/mudra/internal/canvas"
	"github.com/ayusman/mudra/internal/trail"
)

// Style selects how a stroke's width varies along the path.
type Style string

const (
	// StyleRibbon tapers to a point at both ends, widest at the middle.
	StyleRibbon Style = "ribbon"
	// StyleLine keeps a constant width.
	StyleLine Style = "line"
)

// DefaultMaxHalfWidth is the widest half-width of a rendered ribbon, in pixels.
const DefaultMaxHalfWidth = 15.0

// PaintFunc picks the fill for a stroke from its original (un-offset) points.
// It may also style the canvas, for example to set a glow.
type PaintFunc func(c canvas.Canvas, points []trail.Point) image.Image

// HalfWidths returns the half-width at each point. For tapered strokes it
// rises linearly with arc length from the ends to maxHalfWidth at the middle;
// a zero width falls back to 1.
func HalfWidths(points []trail.Point, maxHalfWidth float64, taper bool) []float64 {
	widths := make([]float64, len(points))
	if len(points) == 0 {
		return widths
	}

	distances := make([]float64, len(points))
	for i := 1; i < len(points); i++ {
		distances[i] = distances[i-1] + math.Hypot(points[i].X-points[i-1].X, points[i].Y-points[i-1].Y)
	}
	total := distances[len(distances)-1]

	for i := range points {
		if !taper {
			widths[i] = maxHalfWidth
			continue
		}
		var t float64
		if total > 0 {
			t = distances[i] / total
		}
		w := maxHalfWidth * (1 - math.Abs(2*t-1))
		if w == 0 {
			w = 1
		}
		widths[i] = w
	}
	return widths
}

// tangent returns the unit direction of the path at point i.
func tangent(points []trail.Point, i int) r2.Vec {
	var a, b trail.Point
	switch i {
	case 0:
		a, b = points[0], points[1]
	case len(points) - 1:
		a, b = points[i-1], points[i]
	default:
		a, b = points[i-1], points[i+1]
	}
	d := r2.Vec{X: b.X - a.X, Y: b.Y - a.Y}
	l := r2.Norm(d)
	if l == 0 {
		l = 1
	}
	return r2.Scale(1/l, d)
}

// Outline offsets the path to both sides by its half-widths. left[i] and
// right[i] straddle points[i]. Fewer than two points have no outline.
func Outline(points []trail.Point, maxHalfWidth float64, style Style) (left, right []r2.Vec) {
	if len(points) < 2 {
		return nil, nil
	}

	widths := HalfWidths(points, maxHalfWidth, style != StyleLine)
	left = make([]r2.Vec, len(points))
	right = make([]r2.Vec, len(points))
	for i, p := range points {
		t := tangent(points, i)
		normal := r2.Scale(widths[i], r2.Vec{X: -t.Y, Y: t.X})
		center := r2.Vec{X: p.X, Y: p.Y}
		left[i] = r2.Add(center, normal)
		right[i] = r2.Sub(center, normal)
	}
	return left, right
}

// Draw fills the ribbon for points on c. Edges are softened with quadratic
// curves through the midpoints of consecutive offset points. Fewer than two
// points draw nothing.
func Draw(c canvas.Canvas, points []trail.Point, maxHalfWidth float64, style Style, paint PaintFunc) {
	left, right := Outline(points, maxHalfWidth, style)
	if left == nil {
		return
	}

	c.BeginPath()
	c.MoveTo(left[0].X, left[0].Y)
	for i := 0; i < len(left)-1; i++ {
		mid := r2.Scale(0.5, r2.Add(left[i], left[i+1]))
		c.QuadTo(left[i].X, left[i].Y, mid.X, mid.Y)
	}
	end := left[len(left)-1]
	c.LineTo(end.X, end.Y)
	for i := len(right) - 1; i > 0; i-- {
		mid := r2.Scale(0.5, r2.Add(right[i], right[i-1]))
		c.QuadTo(right[i].X, right[i].Y, mid.X, mid.Y)
	}
	c.LineTo(right[0].X, right[0].Y)
	c.ClosePath()

	if paint == nil {
		return
	}
	if fill := paint(c, points); fill != nil {
		c.Fill(fill)
	}
}
