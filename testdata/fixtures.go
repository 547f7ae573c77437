// Package testdata builds synthetic frames and hand motions for tests.
package testdata

import (
	"image"
	"image/color"

	"gocv.io/x/gocv"

	"github.com/ayusman/mudra/internal/detector"
)

// Frame returns a blank BGR frame of the given size with a faint grid so
// that encoders have something to compress. The caller closes it.
func Frame(width, height int) gocv.Mat {
	mat := gocv.NewMatWithSize(height, width, gocv.MatTypeCV8UC3)
	grid := color.RGBA{R: 40, G: 40, B: 40, A: 255}
	for x := 0; x < width; x += 40 {
		gocv.Line(&mat, image.Pt(x, 0), image.Pt(x, height-1), grid, 1)
	}
	for y := 0; y < height; y += 40 {
		gocv.Line(&mat, image.Pt(0, y), image.Pt(width-1, y), grid, 1)
	}
	return mat
}

// Swipe returns one pinching hand per frame, the thumb tip moving in a
// straight line from (x0, y0) to (x1, y1) with the given landmarks touching.
func Swipe(label detector.Label, x0, y0, x1, y1 float64, steps int, touching ...int) [][]detector.Hand {
	if steps < 1 {
		steps = 1
	}
	frames := make([][]detector.Hand, 0, steps+1)
	for i := 0; i <= steps; i++ {
		f := float64(i) / float64(steps)
		x := x0 + (x1-x0)*f
		y := y0 + (y1-y0)*f
		frames = append(frames, []detector.Hand{detector.PinchHand(label, x, y, touching...)})
	}
	return frames
}

// Merge combines per-frame hand lists of equal or different lengths.
func Merge(sequences ...[][]detector.Hand) [][]detector.Hand {
	n := 0
	for _, s := range sequences {
		n = max(n, len(s))
	}
	out := make([][]detector.Hand, n)
	for _, s := range sequences {
		for i, hands := range s {
			out[i] = append(out[i], hands...)
		}
	}
	return out
}

// Absent returns n frames with no hands.
func Absent(n int) [][]detector.Hand {
	return make([][]detector.Hand, n)
}
