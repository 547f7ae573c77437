package app

import (
	"fmt"
	"image"
	"time"

	"gocv.io/x/gocv"
	"golang.org/x/image/draw"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/ayusman/mudra/internal/audio"
	"github.com/ayusman/mudra/internal/capture"
	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/geometry"
	"github.com/ayusman/mudra/internal/stroke"
	"github.com/ayusman/mudra/internal/trail"
)

// run is the frame loop. A tick that arrives while a cycle is still running
// is dropped, so cycles never overlap.
func (a *App) run(stopCh <-chan struct{}, doneCh chan<- struct{}) {
	defer close(doneCh)

	ticker := time.NewTicker(time.Second / time.Duration(a.config.FPS))
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			frame, err := a.camera.ReadFrame()
			if err != nil {
				a.fail(fmt.Errorf("read frame: %w", err))
				continue
			}

			err = a.Cycle(frame, time.Now())
			frame.Close()
			if err != nil {
				a.fail(err)
			}
		}
	}
}

func (a *App) fail(err error) {
	a.logf("Error in frame cycle: %v", err)
	a.mu.Lock()
	a.lastErr = err
	a.mu.Unlock()
}

// Cycle runs one detection, drawing and note step for a frame captured at
// now. The loop calls it once per tick; it is exported so the pipeline can
// be driven with fixed frames and clocks. It must not be called
// concurrently with itself or with a running loop.
func (a *App) Cycle(frame *gocv.Mat, now time.Time) error {
	if frame == nil || frame.Empty() {
		return capture.ErrEmptyFrame
	}

	// A failed detection is a frame without hands: trails clear and sounding
	// notes are released before the error is reported.
	hands, detectErr := a.detector.Detect(frame)
	if detectErr != nil {
		hands = nil
		detectErr = fmt.Errorf("detect hands: %w", detectErr)
	}

	a.mu.RLock()
	display, muted, onNote := a.display, a.muted, a.onNote
	a.mu.RUnlock()

	if b := a.overlay.Bounds(); b.Dx() != display.X || b.Dy() != display.Y {
		a.overlay.Resize(display.X, display.Y)
	}

	native := image.Pt(frame.Cols(), frame.Rows())
	tr, ok := geometry.Cover(float64(native.X), float64(native.Y), float64(display.X), float64(display.Y))
	if !ok {
		return detectErr
	}

	a.classifier.Apply(hands, tr, now, a.trails)
	a.trails.AgeOut(now)

	a.render()

	switch {
	case muted && !a.silenced:
		a.engine.Silence()
		a.silenced = true
	case !muted:
		a.silenced = false
		a.engine.Update(now, a.trails)
	}

	composite, err := a.composite(frame, tr, display)
	if err != nil {
		a.logf("Error compositing preview: %v", err)
	}
	a.publish(composite, onNote)
	return detectErr
}

// render draws every hand's trail onto the overlay.
func (a *App) render() {
	cfg := a.config.Stroke
	a.overlay.Fade(cfg.Fade)
	for _, label := range detector.Labels {
		points := a.trails.Points(label)
		if len(points) < 2 {
			continue
		}
		smoothed := stroke.Smooth(points, cfg.Iterations)
		stroke.Draw(a.overlay, smoothed, cfg.MaxHalfWidth, cfg.Style, a.paints[label])
	}
}

// composite scales the visible part of the camera frame to the display and
// lays the overlay over it.
func (a *App) composite(frame *gocv.Mat, tr geometry.Transform, display image.Point) (*image.RGBA, error) {
	src := frame
	if a.config.Mirror {
		mirrored := gocv.NewMat()
		defer mirrored.Close()
		gocv.Flip(*frame, &mirrored, 1)
		src = &mirrored
	}

	img, err := src.ToImage()
	if err != nil {
		return nil, fmt.Errorf("frame to image: %w", err)
	}

	// Visible region of the frame in native pixels.
	topLeft := tr.Unmap(r2.Vec{})
	bottomRight := tr.Unmap(r2.Vec{X: float64(display.X), Y: float64(display.Y)})
	visible := image.Rect(int(topLeft.X), int(topLeft.Y), int(bottomRight.X+0.5), int(bottomRight.Y+0.5)).
		Intersect(img.Bounds())

	out := image.NewRGBA(image.Rect(0, 0, display.X, display.Y))
	draw.ApproxBiLinear.Scale(out, out.Bounds(), img, visible, draw.Src, nil)
	draw.Draw(out, out.Bounds(), a.overlay.Image(), image.Point{}, draw.Over)
	return out, nil
}

func (a *App) publish(composite *image.RGBA, onNote func(detector.Label, audio.Note)) {
	snapshot := make(map[detector.Label][]trail.Point, len(detector.Labels))
	var changed []detector.Label

	a.mu.Lock()
	for _, label := range detector.Labels {
		snapshot[label] = a.trails.Points(label)
		if last, ok := a.trails.Last(label); ok && last.Note != "" && a.current[label] != last.Note {
			a.current[label] = last.Note
			changed = append(changed, label)
		}
	}
	a.snapshot = snapshot
	a.playing = make(map[detector.Label]audio.Note, len(detector.Labels))
	for _, label := range detector.Labels {
		if note, ok := a.engine.Playing(label); ok {
			a.playing[label] = note
		}
	}
	if composite != nil {
		a.frame = composite
	}
	a.frames++
	current := make(map[detector.Label]audio.Note, len(changed))
	for _, l := range changed {
		current[l] = a.current[l]
	}
	a.mu.Unlock()

	if onNote != nil {
		for _, l := range changed {
			onNote(l, current[l])
		}
	}
}
