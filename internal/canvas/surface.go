package canvas

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"gocv.io/x/gocv"
	"golang.org/x/image/vector"
)

type opKind int

const (
	opMove opKind = iota
	opLine
	opQuad
	opClose
)

type pathOp struct {
	kind   opKind
	cx, cy float32
	x, y   float32
}

// BlurFunc returns a blurred copy of img.
type BlurFunc func(img *image.RGBA, radius float64) (*image.RGBA, error)

// Surface is a software Canvas backed by a premultiplied RGBA image.
// Paths are rasterized with anti-aliasing; glows are blurred through OpenCV.
type Surface struct {
	img        *image.RGBA
	path       []pathOp
	shadow     color.NRGBA
	shadowBlur float64
	blur       BlurFunc
}

var _ Canvas = (*Surface)(nil)

// NewSurface creates a transparent surface of the given size.
func NewSurface(width, height int) *Surface {
	return &Surface{
		img:  image.NewRGBA(image.Rect(0, 0, max(width, 0), max(height, 0))),
		blur: GaussianBlur,
	}
}

// SetBlur replaces the blur used for glows.
func (s *Surface) SetBlur(f BlurFunc) {
	s.blur = f
}

// Resize changes the surface size, discarding its contents when it changes.
func (s *Surface) Resize(width, height int) {
	b := s.img.Bounds()
	if b.Dx() == width && b.Dy() == height {
		return
	}
	s.img = image.NewRGBA(image.Rect(0, 0, max(width, 0), max(height, 0)))
}

// Image returns the backing image. It is owned by the surface.
func (s *Surface) Image() *image.RGBA {
	return s.img
}

// Bounds implements Canvas.
func (s *Surface) Bounds() image.Rectangle {
	return s.img.Bounds()
}

// BeginPath implements Canvas.
func (s *Surface) BeginPath() {
	s.path = s.path[:0]
}

// MoveTo implements Canvas.
func (s *Surface) MoveTo(x, y float64) {
	s.path = append(s.path, pathOp{kind: opMove, x: float32(x), y: float32(y)})
}

// LineTo implements Canvas.
func (s *Surface) LineTo(x, y float64) {
	s.path = append(s.path, pathOp{kind: opLine, x: float32(x), y: float32(y)})
}

// QuadTo implements Canvas.
func (s *Surface) QuadTo(cx, cy, x, y float64) {
	s.path = append(s.path, pathOp{kind: opQuad, cx: float32(cx), cy: float32(cy), x: float32(x), y: float32(y)})
}

// ClosePath implements Canvas.
func (s *Surface) ClosePath() {
	s.path = append(s.path, pathOp{kind: opClose})
}

// SetShadow implements Canvas.
func (s *Surface) SetShadow(c color.Color, blur float64) {
	s.shadow = color.NRGBAModel.Convert(c).(color.NRGBA)
	s.shadowBlur = blur
}

func (s *Surface) rasterizer() *vector.Rasterizer {
	b := s.img.Bounds()
	r := vector.NewRasterizer(b.Dx(), b.Dy())
	for _, op := range s.path {
		switch op.kind {
		case opMove:
			r.MoveTo(op.x, op.y)
		case opLine:
			r.LineTo(op.x, op.y)
		case opQuad:
			r.QuadTo(op.cx, op.cy, op.x, op.y)
		case opClose:
			r.ClosePath()
		}
	}
	return r
}

// Fill implements Canvas. When a shadow is set, a blurred copy of the shape in
// the shadow color is composited first.
func (s *Surface) Fill(paint image.Image) {
	b := s.img.Bounds()
	if len(s.path) == 0 || b.Empty() || paint == nil {
		return
	}

	if s.shadow.A > 0 && s.shadowBlur > 0 && s.blur != nil {
		layer := image.NewRGBA(b)
		s.rasterizer().Draw(layer, b, image.NewUniform(s.shadow), image.Point{})
		if glow, err := s.blur(layer, s.shadowBlur); err == nil {
			draw.Draw(s.img, b, glow, glow.Bounds().Min, draw.Over)
		}
	}

	s.rasterizer().Draw(s.img, b, paint, b.Min)
}

// Fade implements Canvas.
func (s *Surface) Fade(alpha float64) {
	if alpha <= 0 {
		return
	}
	if alpha >= 1 {
		s.Clear()
		return
	}
	keep := uint32((1 - alpha) * 256)
	for i, v := range s.img.Pix {
		s.img.Pix[i] = uint8(uint32(v) * keep >> 8)
	}
}

// Clear implements Canvas.
func (s *Surface) Clear() {
	clear(s.img.Pix)
}

// GaussianBlur blurs an RGBA image with OpenCV.
func GaussianBlur(img *image.RGBA, radius float64) (*image.RGBA, error) {
	src, err := gocv.ImageToMatRGBA(img)
	if err != nil {
		return nil, fmt.Errorf("image to mat: %w", err)
	}
	defer src.Close()

	dst := gocv.NewMat()
	defer dst.Close()

	k := int(radius)*2 + 1
	gocv.GaussianBlur(src, &dst, image.Point{X: k, Y: k}, radius/2, radius/2, gocv.BorderConstant)

	out, err := dst.ToImage()
	if err != nil {
		return nil, fmt.Errorf("mat to image: %w", err)
	}
	if rgba, ok := out.(*image.RGBA); ok {
		return rgba, nil
	}
	rgba := image.NewRGBA(out.Bounds())
	draw.Draw(rgba, rgba.Bounds(), out, out.Bounds().Min, draw.Src)
	return rgba, nil
}
