// Package notes derives note attacks and releases from the per-hand trails.
// Each hand is an edge-triggered state machine: silent, or sounding one note.
package notes

import (
	"fmt"
	"math"
	"time"

	"github.com/ayusman/mudra/internal/audio"
	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/trail"
)

// Policy decides what a qualifying movement does while a note is sounding.
type Policy string

const (
	// Sustain holds one note from the first qualifying movement until the
	// trail empties, then releases it.
	Sustain Policy = "sustain"
	// Discrete plays a fixed-length note for every qualifying movement.
	Discrete Policy = "discrete"
)

// Movement selects how far a trail is considered to have moved.
type Movement string

const (
	// Displacement measures from the first to the last trail point.
	Displacement Movement = "displacement"
	// Step measures between the last two trail points.
	Step Movement = "step"
)

// Default engine parameters.
const (
	DefaultThreshold    = 10.0
	DefaultMaxDistance  = 50.0
	DefaultInterval     = 100 * time.Millisecond
	DefaultNoteDuration = 250 * time.Millisecond
)

// Config holds the engine parameters.
type Config struct {
	Threshold    float64 // minimum movement, display pixels
	MaxDistance  float64 // movement that maps to full velocity
	Interval     time.Duration
	NoteDuration time.Duration // Discrete only
	Policy       Policy
	Movement     Movement
	// FixedNotes are played when the trail point carries no note.
	FixedNotes map[detector.Label]audio.Note
}

// DefaultConfig returns the default engine configuration.
func DefaultConfig() Config {
	return Config{
		Threshold:    DefaultThreshold,
		MaxDistance:  DefaultMaxDistance,
		Interval:     DefaultInterval,
		NoteDuration: DefaultNoteDuration,
		Policy:       Sustain,
		Movement:     Displacement,
		FixedNotes: map[detector.Label]audio.Note{
			detector.Left:  "C4",
			detector.Right: "G4",
		},
	}
}

// Validate reports configuration errors.
func (c Config) Validate() error {
	if c.MaxDistance <= 0 {
		return fmt.Errorf("max distance must be positive, got %v", c.MaxDistance)
	}
	if c.Threshold < 0 {
		return fmt.Errorf("threshold must not be negative, got %v", c.Threshold)
	}
	switch c.Policy {
	case Sustain, Discrete:
	default:
		return fmt.Errorf("unknown policy %q", c.Policy)
	}
	switch c.Movement {
	case Displacement, Step:
	default:
		return fmt.Errorf("unknown movement %q", c.Movement)
	}
	return nil
}

type handState struct {
	sounding    audio.Note
	playing     bool
	lastTrigger time.Time
	triggered   bool
}

// Engine owns the per-hand note state. It is not safe for concurrent use.
type Engine struct {
	cfg    Config
	voices map[detector.Label]audio.Voice
	state  map[detector.Label]*handState
	// Logf reports voice errors and dropped notes. Defaults to a no-op.
	Logf func(format string, args ...any)
}

// NewEngine creates an Engine playing through one voice per hand.
// Hands without a voice never sound.
func NewEngine(cfg Config, voices map[detector.Label]audio.Voice) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid note engine config: %w", err)
	}
	e := &Engine{
		cfg:    cfg,
		voices: voices,
		state:  make(map[detector.Label]*handState, len(detector.Labels)),
		Logf:   func(string, ...any) {},
	}
	for _, l := range detector.Labels {
		e.state[l] = &handState{}
	}
	return e, nil
}

// Config returns the engine configuration.
func (e *Engine) Config() Config {
	return e.cfg
}

// Update advances every hand's state machine against the current trails.
func (e *Engine) Update(now time.Time, store *trail.Store) {
	for _, label := range detector.Labels {
		e.update(label, now, store.Points(label))
	}
}

func (e *Engine) update(label detector.Label, now time.Time, points []trail.Point) {
	voice := e.voices[label]
	if voice == nil {
		return
	}
	st := e.state[label]
	if !voice.Ready() {
		// Whatever was listening when the note started is gone, so there is
		// nobody to release it to.
		if st.playing {
			e.Logf("Dropping %s on %s hand: voice no longer ready", st.sounding, label)
			st.playing = false
			st.sounding = ""
		}
		return
	}

	if len(points) < 2 {
		if st.playing {
			if e.cfg.Policy == Sustain {
				if err := voice.Release(st.sounding); err != nil {
					e.Logf("Error releasing %s on %s hand: %v", st.sounding, label, err)
				}
			}
			st.playing = false
			st.sounding = ""
		}
		return
	}

	if st.playing && e.cfg.Policy == Sustain {
		return
	}

	moved := e.movement(points)
	if moved <= e.cfg.Threshold {
		return
	}
	if st.triggered && now.Sub(st.lastTrigger) < e.cfg.Interval {
		return
	}

	note := points[len(points)-1].Note
	if note == "" {
		note = e.cfg.FixedNotes[label]
	}
	if note == "" {
		return
	}
	velocity := Velocity(moved, e.cfg.MaxDistance)

	var err error
	if e.cfg.Policy == Discrete {
		err = voice.AttackRelease(note, e.cfg.NoteDuration, velocity)
	} else {
		err = voice.Attack(note, velocity)
	}
	if err != nil {
		e.Logf("Error playing %s on %s hand: %v", note, label, err)
		return
	}
	st.playing = true
	st.sounding = note
	st.lastTrigger = now
	st.triggered = true
}

func (e *Engine) movement(points []trail.Point) float64 {
	a, b := points[0], points[len(points)-1]
	if e.cfg.Movement == Step {
		a = points[len(points)-2]
	}
	return math.Hypot(b.X-a.X, b.Y-a.Y)
}

// Velocity maps a movement distance to a 0-1 velocity.
func Velocity(distance, maxDistance float64) float64 {
	if maxDistance <= 0 {
		return 1
	}
	return math.Min(distance/maxDistance, 1)
}

// Playing returns the note a hand is sounding, if any.
func (e *Engine) Playing(label detector.Label) (audio.Note, bool) {
	st, ok := e.state[label]
	if !ok || !st.playing {
		return "", false
	}
	return st.sounding, true
}

// Silence releases every sounding note and returns all hands to silent.
// Debounce history is kept.
func (e *Engine) Silence() {
	for _, label := range detector.Labels {
		st := e.state[label]
		if !st.playing {
			continue
		}
		if voice := e.voices[label]; voice != nil && e.cfg.Policy == Sustain {
			if err := voice.Release(st.sounding); err != nil {
				e.Logf("Error releasing %s on %s hand: %v", st.sounding, label, err)
			}
		}
		st.playing = false
		st.sounding = ""
	}
}
