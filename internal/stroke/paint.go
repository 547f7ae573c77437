package stroke

import (
	"image"
	"image/color"

	"github.com/ayusman/mudra/internal/canvas"
	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/trail"
)

// DefaultGlow is the shadow blur radius behind each stroke.
const DefaultGlow = 10.0

// Palette is the color scheme of one hand's strokes.
type Palette struct {
	Edge   color.NRGBA // stroke ends
	Middle color.NRGBA // stroke midpoint
	Glow   color.NRGBA
}

// Warm is the left hand's orange palette.
var Warm = Palette{
	Edge:   color.NRGBA{R: 255, G: 165, B: 0, A: 204},
	Middle: color.NRGBA{R: 255, G: 200, B: 120, A: 51},
	Glow:   color.NRGBA{R: 255, G: 165, B: 0, A: 128},
}

// Cool is the right hand's cyan palette.
var Cool = Palette{
	Edge:   color.NRGBA{R: 0, G: 255, B: 255, A: 204},
	Middle: color.NRGBA{R: 150, G: 255, B: 255, A: 51},
	Glow:   color.NRGBA{R: 0, G: 255, B: 255, A: 128},
}

// PaletteFor returns the palette of a hand.
func PaletteFor(label detector.Label) Palette {
	if label == detector.Left {
		return Warm
	}
	return Cool
}

// GradientPaint fills a stroke with a linear gradient from its first to its
// last point and sets a matching glow of the given blur radius.
func GradientPaint(p Palette, glow float64) PaintFunc {
	return func(c canvas.Canvas, points []trail.Point) image.Image {
		if len(points) == 0 {
			return nil
		}
		first, last := points[0], points[len(points)-1]
		g := canvas.NewLinearGradient(first.X, first.Y, last.X, last.Y)
		g.AddColorStop(0, p.Edge)
		g.AddColorStop(0.5, p.Middle)
		g.AddColorStop(1, p.Edge)
		c.SetShadow(p.Glow, glow)
		return g
	}
}

// HandPaint is the default paint for a hand: its palette with DefaultGlow.
func HandPaint(label detector.Label) PaintFunc {
	return GradientPaint(PaletteFor(label), DefaultGlow)
}
