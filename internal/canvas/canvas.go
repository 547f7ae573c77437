// Package canvas is a small 2D drawing surface for the stroke overlay: path
// construction with quadratic curves, gradient fills, glow and frame fading.
package canvas

import (
	"image"
	"image/color"
)

// Canvas is the drawing context strokes are rendered onto.
type Canvas interface {
	BeginPath()
	MoveTo(x, y float64)
	LineTo(x, y float64)
	QuadTo(cx, cy, x, y float64)
	ClosePath()

	// Fill paints the current path with the given source image.
	Fill(paint image.Image)

	// SetShadow sets the glow drawn beneath subsequent fills. A zero blur
	// or a transparent color disables it.
	SetShadow(c color.Color, blur float64)

	// Fade reduces the opacity of everything already drawn by alpha (0-1),
	// leaving fading ghosts of previous frames.
	Fade(alpha float64)

	// Clear erases the canvas.
	Clear()

	Bounds() image.Rectangle
}
