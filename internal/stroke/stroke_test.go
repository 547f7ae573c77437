package stroke

import (
	"image"
	"image/color"
	"math"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/ayusman/mudra/internal/canvas"
	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/trail"
)

const epsilon = 1e-9

var t0 = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

func pts(xy ...float64) []trail.Point {
	out := make([]trail.Point, 0, len(xy)/2)
	for i := 0; i+1 < len(xy); i += 2 {
		out = append(out, trail.Point{X: xy[i], Y: xy[i+1], T: t0.Add(time.Duration(i) * time.Millisecond)})
	}
	return out
}

func TestSmooth_ShortInputsUnchanged(t *testing.T) {
	for _, in := range [][]trail.Point{nil, pts(1, 2), pts(0, 0, 10, 10)} {
		got := Smooth(in, 4)
		if diff := cmp.Diff(in, got, cmpopts.EquateEmpty()); diff != "" {
			t.Errorf("Smooth() changed short input (-want +got):\n%s", diff)
		}
	}
}

func TestSmooth_OneIteration(t *testing.T) {
	in := pts(0, 0, 3, 3, 0, 6)
	in[1].Note = "E5"

	got := Smooth(in, 1)

	if got[1].X != 1 || got[1].Y != 3 {
		t.Errorf("middle = (%f, %f), want (1, 3)", got[1].X, got[1].Y)
	}
	if got[1].Note != "E5" || !got[1].T.Equal(in[1].T) {
		t.Error("note and timestamp should pass through")
	}
	if in[1].X != 3 {
		t.Error("input was modified")
	}
}

func TestSmooth_IterationsCompound(t *testing.T) {
	in := pts(0, 0, 9, 0, 0, 0, 0, 0)

	once := Smooth(in, 1)
	twice := Smooth(in, 2)

	// Second pass works from the first pass output, not the original.
	want := (once[0].X + once[1].X + once[2].X) / 3
	if math.Abs(twice[1].X-want) > epsilon {
		t.Errorf("twice[1].X = %f, want %f", twice[1].X, want)
	}
}

func TestSmooth_EndpointsFixed(t *testing.T) {
	in := pts(1, 1, 50, -20, 13, 80, -7, 4, 99, 99)
	for _, iters := range []int{0, 1, 4, 20} {
		got := Smooth(in, iters)
		if got[0] != in[0] || got[len(got)-1] != in[len(in)-1] {
			t.Errorf("iterations %d moved an endpoint", iters)
		}
		if len(got) != len(in) {
			t.Errorf("iterations %d changed length", iters)
		}
	}
}

func TestHalfWidths_Taper(t *testing.T) {
	in := pts(0, 0, 10, 0, 20, 0, 30, 0, 40, 0)
	w := HalfWidths(in, 15, true)

	want := []float64{1, 7.5, 15, 7.5, 1}
	if diff := cmp.Diff(want, w, cmpopts.EquateApprox(0, epsilon)); diff != "" {
		t.Errorf("HalfWidths() mismatch (-want +got):\n%s", diff)
	}
}

func TestHalfWidths_MidpointByArcLength(t *testing.T) {
	// Uneven spacing: the midpoint by arc length is the third point.
	in := pts(0, 0, 1, 0, 50, 0, 100, 0)
	w := HalfWidths(in, 12, true)
	if math.Abs(w[2]-12) > epsilon {
		t.Errorf("width at arc midpoint = %f, want 12", w[2])
	}
	if w[0] != 1 || w[3] != 1 {
		t.Errorf("end widths = %f, %f, want floor of 1", w[0], w[3])
	}
}

func TestHalfWidths_ZeroLengthPath(t *testing.T) {
	in := pts(5, 5, 5, 5, 5, 5)
	for i, w := range HalfWidths(in, 15, true) {
		if w != 1 {
			t.Errorf("width[%d] = %f, want 1", i, w)
		}
	}
}

func TestHalfWidths_Line(t *testing.T) {
	for _, w := range HalfWidths(pts(0, 0, 5, 5, 9, 1), 4, false) {
		if w != 4 {
			t.Errorf("line width = %f, want 4", w)
		}
	}
}

func TestOutline(t *testing.T) {
	t.Run("straight horizontal path", func(t *testing.T) {
		in := pts(0, 0, 10, 0, 20, 0)
		left, right := Outline(in, 10, StyleRibbon)

		// Tangent +x, normal +y.
		want := []r2.Vec{{X: 0, Y: 1}, {X: 10, Y: 10}, {X: 20, Y: 1}}
		if diff := cmp.Diff(want, left, cmpopts.EquateApprox(0, epsilon)); diff != "" {
			t.Errorf("left mismatch (-want +got):\n%s", diff)
		}
		if math.Abs(right[1].Y+10) > epsilon {
			t.Errorf("right middle y = %f, want -10", right[1].Y)
		}
	})

	t.Run("duplicate points guard zero tangent", func(t *testing.T) {
		left, right := Outline(pts(3, 3, 3, 3), 10, StyleRibbon)
		for i := range left {
			if math.IsNaN(left[i].X) || math.IsNaN(right[i].Y) {
				t.Fatal("zero-length tangent produced NaN")
			}
		}
	})

	t.Run("too short", func(t *testing.T) {
		left, right := Outline(pts(1, 1), 10, StyleRibbon)
		if left != nil || right != nil {
			t.Error("single point should have no outline")
		}
	})
}

type recordingCanvas struct {
	ops    []string
	filled image.Image
	shadow color.Color
}

func (r *recordingCanvas) BeginPath()                            { r.ops = append(r.ops, "begin") }
func (r *recordingCanvas) MoveTo(x, y float64)                   { r.ops = append(r.ops, "move") }
func (r *recordingCanvas) LineTo(x, y float64)                   { r.ops = append(r.ops, "line") }
func (r *recordingCanvas) QuadTo(cx, cy, x, y float64)           { r.ops = append(r.ops, "quad") }
func (r *recordingCanvas) ClosePath()                            { r.ops = append(r.ops, "close") }
func (r *recordingCanvas) Fill(p image.Image)                    { r.ops = append(r.ops, "fill"); r.filled = p }
func (r *recordingCanvas) SetShadow(c color.Color, blur float64) { r.shadow = c }
func (r *recordingCanvas) Fade(alpha float64)                    {}
func (r *recordingCanvas) Clear()                                {}
func (r *recordingCanvas) Bounds() image.Rectangle               { return image.Rect(0, 0, 100, 100) }

func TestDraw_PathShape(t *testing.T) {
	rc := &recordingCanvas{}
	Draw(rc, pts(0, 0, 10, 0, 20, 0), 10, StyleRibbon, HandPaint(detector.Left))

	want := []string{"begin", "move", "quad", "quad", "line", "quad", "quad", "line", "close", "fill"}
	if diff := cmp.Diff(want, rc.ops); diff != "" {
		t.Errorf("ops mismatch (-want +got):\n%s", diff)
	}
	if rc.shadow != Warm.Glow {
		t.Errorf("shadow = %v, want left glow", rc.shadow)
	}
	if _, ok := rc.filled.(*canvas.LinearGradient); !ok {
		t.Errorf("fill = %T, want gradient", rc.filled)
	}
}

func TestDraw_PaintSeesOriginalPoints(t *testing.T) {
	in := pts(0, 0, 10, 0, 20, 5)
	var seen []trail.Point
	Draw(&recordingCanvas{}, in, 10, StyleRibbon, func(c canvas.Canvas, p []trail.Point) image.Image {
		seen = p
		return image.NewUniform(color.White)
	})
	if diff := cmp.Diff(in, seen); diff != "" {
		t.Errorf("paint points mismatch (-want +got):\n%s", diff)
	}
}

func TestDraw_TooShortIsNoop(t *testing.T) {
	rc := &recordingCanvas{}
	Draw(rc, pts(5, 5), 10, StyleRibbon, HandPaint(detector.Right))
	Draw(rc, nil, 10, StyleRibbon, HandPaint(detector.Right))
	if len(rc.ops) != 0 {
		t.Errorf("expected no drawing, got %v", rc.ops)
	}
}

func TestDraw_OnSurface(t *testing.T) {
	s := canvas.NewSurface(100, 60)
	s.SetBlur(nil)
	Draw(s, pts(10, 30, 30, 30, 50, 30, 70, 30, 90, 30), DefaultMaxHalfWidth, StyleRibbon, HandPaint(detector.Right))

	img := s.Image()
	if img.RGBAAt(50, 30).A == 0 {
		t.Error("expected the stroke middle to be painted")
	}
	if img.RGBAAt(50, 5).A != 0 {
		t.Error("expected pixels beyond the half-width to stay clear")
	}
}

func TestPaletteFor(t *testing.T) {
	if PaletteFor(detector.Left) != Warm {
		t.Error("left hand should be warm")
	}
	if PaletteFor(detector.Right) != Cool {
		t.Error("right hand should be cool")
	}
}
