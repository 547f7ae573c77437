package geometry

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r2"
)

const epsilon = 1e-9

func near(a, b float64) bool { return math.Abs(a-b) < epsilon }

func TestCover(t *testing.T) {
	tests := []struct {
		name           string
		iw, ih, cw, ch float64
		wantScale      float64
		wantOffset     r2.Vec
	}{
		{
			name: "same aspect no crop",
			iw:   640, ih: 480, cw: 1280, ch: 960,
			wantScale:  2,
			wantOffset: r2.Vec{},
		},
		{
			name: "wider display crops top and bottom",
			iw:   640, ih: 480, cw: 1280, ch: 720,
			wantScale:  2,
			wantOffset: r2.Vec{X: 0, Y: 120},
		},
		{
			name: "taller display crops sides",
			iw:   1280, ih: 720, cw: 720, ch: 720,
			wantScale:  1,
			wantOffset: r2.Vec{X: 280, Y: 0},
		},
		{
			name: "downscale",
			iw:   1280, ih: 720, cw: 640, ch: 360,
			wantScale:  0.5,
			wantOffset: r2.Vec{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr, ok := Cover(tt.iw, tt.ih, tt.cw, tt.ch)
			if !ok {
				t.Fatal("expected ok")
			}
			if !near(tr.Scale, tt.wantScale) {
				t.Errorf("scale = %f, want %f", tr.Scale, tt.wantScale)
			}
			if !near(tr.Offset.X, tt.wantOffset.X) || !near(tr.Offset.Y, tt.wantOffset.Y) {
				t.Errorf("offset = %v, want %v", tr.Offset, tt.wantOffset)
			}
		})
	}
}

func TestCover_ZeroSizedVideo(t *testing.T) {
	if _, ok := Cover(0, 480, 100, 100); ok {
		t.Error("expected zero width video to be rejected")
	}
	if _, ok := Cover(640, 0, 100, 100); ok {
		t.Error("expected zero height video to be rejected")
	}
}

func TestTransform_MapCenterWithoutCrop(t *testing.T) {
	// With the display exactly the scaled video, the center maps to center*scale.
	for _, scale := range []float64{1, 1.5, 2} {
		tr, _ := Cover(640, 480, 640*scale, 480*scale)
		got := tr.Map(r2.Vec{X: 320, Y: 240})
		if !near(got.X, 320*scale) || !near(got.Y, 240*scale) {
			t.Errorf("scale %f: center mapped to %v", scale, got)
		}
	}

	tr, _ := Cover(640, 480, 640, 480)
	x, y := tr.MapXY(320, 240)
	if !near(x, 320) || !near(y, 240) {
		t.Errorf("identity fit moved the center to (%f, %f)", x, y)
	}
}

func TestTransform_MapWithCrop(t *testing.T) {
	tr, _ := Cover(640, 480, 1280, 720)
	got := tr.Map(r2.Vec{X: 100, Y: 100})
	if !near(got.X, 200) || !near(got.Y, 80) {
		t.Errorf("Map = %v, want {200 80}", got)
	}
}

func TestTransform_UnmapInvertsMap(t *testing.T) {
	tr, _ := Cover(1280, 720, 900, 900)
	p := r2.Vec{X: 417, Y: 33}
	back := tr.Unmap(tr.Map(p))
	if !near(back.X, p.X) || !near(back.Y, p.Y) {
		t.Errorf("Unmap(Map(p)) = %v, want %v", back, p)
	}
}

func TestDistance(t *testing.T) {
	if d := Distance(r2.Vec{}, r2.Vec{X: 3, Y: 4}); !near(d, 5) {
		t.Errorf("Distance = %f, want 5", d)
	}
}
