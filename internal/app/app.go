// Package app runs the instrument: it drives one detection, drawing and
// note cycle per camera frame.
package app

import (
	"errors"
	"fmt"
	"image"
	"log"
	"sync"
	"time"

	"github.com/ayusman/mudra/internal/audio"
	"github.com/ayusman/mudra/internal/canvas"
	"github.com/ayusman/mudra/internal/capture"
	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/notes"
	"github.com/ayusman/mudra/internal/stroke"
	"github.com/ayusman/mudra/internal/trail"
)

// ErrAlreadyRunning is returned by Start while the loop is running.
var ErrAlreadyRunning = errors.New("instrument is already running")

// StrokeConfig controls how trails are drawn.
type StrokeConfig struct {
	Style        stroke.Style
	MaxHalfWidth float64
	Iterations   int
	Glow         float64
	// Fade is the share of the previous overlay erased each cycle; 1 redraws
	// from scratch.
	Fade float64
}

// DefaultStrokeConfig returns the ribbon style.
func DefaultStrokeConfig() StrokeConfig {
	return StrokeConfig{
		Style:        stroke.StyleRibbon,
		MaxHalfWidth: stroke.DefaultMaxHalfWidth,
		Iterations:   stroke.DefaultIterations,
		Glow:         stroke.DefaultGlow,
		Fade:         1,
	}
}

// Config holds the collaborators and parameters of the instrument.
type Config struct {
	Camera   capture.Camera
	Detector detector.Detector
	Voices   map[detector.Label]audio.Voice

	Gesture       gesture.Definition
	TrailLifetime time.Duration
	Stroke        StrokeConfig
	Notes         notes.Config

	// FPS is the cycle rate of the loop.
	FPS int
	// Display is the initial overlay size.
	Display image.Point
	// Mirror flips the camera image in the composited preview.
	Mirror bool
	// Blur renders stroke glows. Nil disables them.
	Blur canvas.BlurFunc
}

// App is the frame driver. Pipeline state is owned by the loop goroutine;
// everything read from other goroutines goes through mu.
type App struct {
	config     Config
	camera     capture.Camera
	detector   detector.Detector
	classifier *gesture.Classifier
	trails     *trail.Store
	engine     *notes.Engine
	overlay    *canvas.Surface
	paints     map[detector.Label]stroke.PaintFunc
	silenced   bool

	mu       sync.RWMutex
	stopCh   chan struct{}
	doneCh   chan struct{}
	display  image.Point
	muted    bool
	current  map[detector.Label]audio.Note
	snapshot map[detector.Label][]trail.Point
	playing  map[detector.Label]audio.Note
	frame    *image.RGBA
	frames   uint64
	lastErr  error
	onNote   func(label detector.Label, note audio.Note)

	// Logf receives loop errors. Defaults to log.Printf.
	Logf func(format string, args ...any)
}

// New creates an App. Camera and Detector are required.
func New(config Config) (*App, error) {
	if config.Camera == nil {
		return nil, errors.New("no camera configured")
	}
	if config.Detector == nil {
		return nil, detector.ErrNoDetector
	}
	if config.FPS <= 0 {
		config.FPS = capture.DefaultFPS
	}
	if config.Display.X <= 0 || config.Display.Y <= 0 {
		config.Display = image.Pt(capture.DefaultWidth, capture.DefaultHeight)
	}
	if config.Gesture.Candidates == nil {
		config.Gesture = gesture.NoteTable()
	}
	if config.Notes.Policy == "" {
		config.Notes = notes.DefaultConfig()
	}
	if config.Stroke.MaxHalfWidth <= 0 {
		config.Stroke = DefaultStrokeConfig()
	}

	classifier, err := gesture.NewClassifier(config.Gesture)
	if err != nil {
		return nil, err
	}
	engine, err := notes.NewEngine(config.Notes, config.Voices)
	if err != nil {
		return nil, err
	}

	a := &App{
		config:     config,
		camera:     config.Camera,
		detector:   config.Detector,
		classifier: classifier,
		trails:     trail.NewStore(config.TrailLifetime),
		engine:     engine,
		overlay:    canvas.NewSurface(config.Display.X, config.Display.Y),
		paints:     make(map[detector.Label]stroke.PaintFunc, len(detector.Labels)),
		display:    config.Display,
		current:    make(map[detector.Label]audio.Note, len(detector.Labels)),
		Logf:       log.Printf,
	}
	a.overlay.SetBlur(config.Blur)
	for _, l := range detector.Labels {
		a.paints[l] = stroke.GradientPaint(stroke.PaletteFor(l), config.Stroke.Glow)
	}
	engine.Logf = a.logf
	return a, nil
}

func (a *App) logf(format string, args ...any) {
	if a.Logf != nil {
		a.Logf(format, args...)
	}
}

// Start opens the camera and starts the loop. Acquisition failures are
// returned and the loop does not start.
func (a *App) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.stopCh != nil {
		return ErrAlreadyRunning
	}

	if err := a.camera.Open(); err != nil {
		return fmt.Errorf("failed to start instrument: %w", err)
	}
	if err := a.detector.Start(); err != nil {
		a.camera.Close()
		return fmt.Errorf("failed to start instrument: %w", err)
	}

	a.trails.Reset()
	a.overlay.Clear()
	a.stopCh = make(chan struct{})
	a.doneCh = make(chan struct{})
	go a.run(a.stopCh, a.doneCh)

	log.Println("Instrument started")
	return nil
}

// Stop halts the loop, silences both voices and releases the camera and
// detector. It waits for an in-flight cycle to finish.
func (a *App) Stop() {
	a.mu.Lock()
	stopCh, doneCh := a.stopCh, a.doneCh
	a.stopCh, a.doneCh = nil, nil
	a.mu.Unlock()

	if stopCh == nil {
		return
	}
	close(stopCh)
	<-doneCh

	a.engine.Silence()
	a.mu.Lock()
	a.playing = nil
	a.mu.Unlock()

	if err := a.camera.Close(); err != nil {
		a.logf("Error closing camera: %v", err)
	}
	if err := a.detector.Close(); err != nil {
		a.logf("Error closing detector: %v", err)
	}

	log.Println("Instrument stopped")
}

// IsRunning reports whether the loop is running.
func (a *App) IsRunning() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.stopCh != nil
}

// SetDisplaySize changes the overlay size. The mapping picks it up on the
// next cycle.
func (a *App) SetDisplaySize(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("invalid display size %dx%d", width, height)
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.display = image.Pt(width, height)
	return nil
}

// DisplaySize returns the current overlay size.
func (a *App) DisplaySize() image.Point {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.display
}

// SetMuted turns sound off or on. Sounding notes are released on the next
// cycle.
func (a *App) SetMuted(muted bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.muted = muted
}

// IsMuted reports whether sound is off.
func (a *App) IsMuted() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.muted
}

// OnNote registers a callback for when a hand touches a different note.
// It runs on the loop goroutine.
func (a *App) OnNote(fn func(label detector.Label, note audio.Note)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.onNote = fn
}

// CurrentNotes returns the last note each hand touched.
func (a *App) CurrentNotes() map[detector.Label]audio.Note {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make(map[detector.Label]audio.Note, len(a.current))
	for l, n := range a.current {
		out[l] = n
	}
	return out
}

// Trails returns the trails as of the last completed cycle.
func (a *App) Trails() map[detector.Label][]trail.Point {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.snapshot
}

// Frame returns the last composited preview and the number of cycles
// completed. The image is never modified after it is published.
func (a *App) Frame() (*image.RGBA, uint64) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.frame, a.frames
}

// Status is a point-in-time summary of the instrument.
type Status struct {
	Running   bool              `json:"running"`
	Muted     bool              `json:"muted"`
	Ready     bool              `json:"ready"`
	Width     int               `json:"width"`
	Height    int               `json:"height"`
	Frames    uint64            `json:"frames"`
	Notes     map[string]string `json:"notes"`
	Playing   map[string]string `json:"playing,omitempty"`
	LastError string            `json:"last_error,omitempty"`
}

// Status returns the current status.
func (a *App) Status() Status {
	a.mu.RLock()
	defer a.mu.RUnlock()

	s := Status{
		Running: a.stopCh != nil,
		Muted:   a.muted,
		Width:   a.display.X,
		Height:  a.display.Y,
		Frames:  a.frames,
		Notes:   make(map[string]string, len(a.current)),
		Playing: make(map[string]string, len(a.playing)),
	}
	for l, n := range a.current {
		s.Notes[string(l)] = string(n)
	}
	for l, n := range a.playing {
		s.Playing[string(l)] = string(n)
	}
	for _, v := range a.config.Voices {
		if v != nil && v.Ready() {
			s.Ready = true
		}
	}
	if a.lastErr != nil {
		s.LastError = a.lastErr.Error()
	}
	return s
}
