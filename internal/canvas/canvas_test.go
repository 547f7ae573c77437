package canvas

import (
	"image"
	"image/color"
	"testing"
)

func premul(c color.Color) color.RGBA {
	return color.RGBAModel.Convert(c).(color.RGBA)
}

func TestLinearGradient(t *testing.T) {
	g := NewLinearGradient(0, 0, 100, 0)
	g.AddColorStop(1, color.NRGBA{R: 255, A: 255})
	g.AddColorStop(0, color.NRGBA{B: 255, A: 255})
	g.AddColorStop(0.5, color.NRGBA{G: 255, A: 51})

	tests := []struct {
		name string
		x, y int
		want color.RGBA
	}{
		{"start", 0, 0, color.RGBA{B: 255, A: 255}},
		{"before start clamps", -50, 10, color.RGBA{B: 255, A: 255}},
		{"middle", 50, 30, color.RGBA{G: 51, A: 51}},
		{"end", 100, 0, color.RGBA{R: 255, A: 255}},
		{"past end clamps", 400, 0, color.RGBA{R: 255, A: 255}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := premul(g.At(tt.x, tt.y)); got != tt.want {
				t.Errorf("At(%d, %d) = %v, want %v", tt.x, tt.y, got, tt.want)
			}
		})
	}

	t.Run("quarter mixes neighbors", func(t *testing.T) {
		got := premul(g.At(25, 0))
		if got.B == 0 || got.G == 0 || got.R != 0 {
			t.Errorf("At(25, 0) = %v, want a blue-green blend", got)
		}
		if got.A <= 51 || got.A >= 255 {
			t.Errorf("alpha = %d, want between the stops", got.A)
		}
	})
}

func TestLinearGradient_DegenerateSegment(t *testing.T) {
	g := NewLinearGradient(10, 10, 10, 10)
	g.AddColorStop(1, color.NRGBA{R: 2, A: 255})
	g.AddColorStop(0, color.NRGBA{R: 1, A: 255})

	if got := premul(g.At(50, 50)); got.R != 1 {
		t.Errorf("zero-length gradient should use the first stop, got %v", got)
	}
}

func TestLinearGradient_NoStops(t *testing.T) {
	if got := premul(NewLinearGradient(0, 0, 1, 1).At(0, 0)); got.A != 0 {
		t.Errorf("expected transparent, got %v", got)
	}
}

func square(s *Surface, x0, y0, x1, y1 float64) {
	s.BeginPath()
	s.MoveTo(x0, y0)
	s.LineTo(x1, y0)
	s.LineTo(x1, y1)
	s.LineTo(x0, y1)
	s.ClosePath()
}

func TestSurface_Fill(t *testing.T) {
	s := NewSurface(40, 40)
	s.SetBlur(nil)
	square(s, 10, 10, 30, 30)
	s.Fill(image.NewUniform(color.NRGBA{R: 255, A: 255}))

	img := s.Image()
	if got := img.RGBAAt(20, 20); got.R != 255 || got.A != 255 {
		t.Errorf("inside pixel = %v, want opaque red", got)
	}
	if got := img.RGBAAt(2, 2); got.A != 0 {
		t.Errorf("outside pixel = %v, want transparent", got)
	}
}

func TestSurface_QuadTo(t *testing.T) {
	s := NewSurface(40, 40)
	s.BeginPath()
	s.MoveTo(0, 20)
	s.QuadTo(20, -20, 40, 20)
	s.LineTo(40, 40)
	s.LineTo(0, 40)
	s.ClosePath()
	s.Fill(image.NewUniform(color.White))

	if got := s.Image().RGBAAt(20, 10); got.A == 0 {
		t.Error("expected the curve's bulge to be filled")
	}
}

func TestSurface_EmptyPathIsNoop(t *testing.T) {
	s := NewSurface(10, 10)
	s.BeginPath()
	s.Fill(image.NewUniform(color.White))

	for _, v := range s.Image().Pix {
		if v != 0 {
			t.Fatal("fill with no path should draw nothing")
		}
	}
}

func TestSurface_ShadowUsesBlur(t *testing.T) {
	s := NewSurface(40, 40)
	var calls int
	s.SetBlur(func(img *image.RGBA, radius float64) (*image.RGBA, error) {
		calls++
		if radius != 8 {
			t.Errorf("radius = %f, want 8", radius)
		}
		return img, nil
	})

	s.SetShadow(color.NRGBA{G: 255, A: 128}, 8)
	square(s, 10, 10, 30, 30)
	s.Fill(image.NewUniform(color.Transparent))

	if calls != 1 {
		t.Fatalf("blur called %d times, want 1", calls)
	}
	if got := s.Image().RGBAAt(20, 20); got.G == 0 {
		t.Errorf("expected glow under the fill, got %v", got)
	}

	s.SetShadow(color.Transparent, 8)
	s.Fill(image.NewUniform(color.White))
	if calls != 1 {
		t.Error("transparent shadow should not blur")
	}
}

func TestSurface_Fade(t *testing.T) {
	s := NewSurface(4, 4)
	s.SetBlur(nil)
	square(s, 0, 0, 4, 4)
	s.Fill(image.NewUniform(color.White))

	s.Fade(0.5)
	got := s.Image().RGBAAt(1, 1)
	if got.A < 126 || got.A > 128 {
		t.Errorf("alpha after half fade = %d, want ~127", got.A)
	}
	if got.R != got.A {
		t.Errorf("premultiplied channels should scale together, got %v", got)
	}

	s.Fade(1)
	if s.Image().RGBAAt(1, 1).A != 0 {
		t.Error("full fade should clear")
	}
}

func TestSurface_Resize(t *testing.T) {
	s := NewSurface(10, 10)
	before := s.Image()
	s.Resize(10, 10)
	if s.Image() != before {
		t.Error("same size resize should keep the image")
	}
	s.Resize(20, 5)
	if b := s.Bounds(); b.Dx() != 20 || b.Dy() != 5 {
		t.Errorf("bounds = %v, want 20x5", b)
	}
}

func TestGaussianBlur(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires OpenCV")
	}

	img := image.NewRGBA(image.Rect(0, 0, 21, 21))
	img.SetRGBA(10, 10, color.RGBA{R: 255, A: 255})

	out, err := GaussianBlur(img, 3)
	if err != nil {
		t.Fatalf("GaussianBlur() error = %v", err)
	}
	if out.Bounds() != img.Bounds() {
		t.Errorf("bounds = %v, want %v", out.Bounds(), img.Bounds())
	}
	if out.RGBAAt(11, 10).A == 0 {
		t.Error("expected the blur to spread to neighbours")
	}
	if out.RGBAAt(10, 10).A >= 255 {
		t.Error("expected the center to lose intensity")
	}
}
