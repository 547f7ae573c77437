package audio

import "time"

// Voice is one monophonic instrument voice. The instrument owns one per hand.
type Voice interface {
	// Attack starts a note at the given velocity (0-1).
	Attack(note Note, velocity float64) error
	// Release stops a note previously started with Attack.
	Release(note Note) error
	// AttackRelease plays a note for a fixed duration.
	AttackRelease(note Note, duration time.Duration, velocity float64) error
	// Ready reports whether the voice has its samples loaded and can play.
	Ready() bool
}

// EventKind distinguishes the voice calls carried by an Event.
type EventKind string

const (
	KindAttack        EventKind = "attack"
	KindRelease       EventKind = "release"
	KindAttackRelease EventKind = "attack_release"
)

// Event describes a single voice call. It is what the hub broadcasts and what
// sessions record.
type Event struct {
	Kind       EventKind `json:"type"`
	Hand       string    `json:"hand"`
	Note       Note      `json:"note"`
	MIDI       int       `json:"midi"`
	Velocity   float64   `json:"velocity,omitempty"`
	DurationMs int64     `json:"duration_ms,omitempty"`
	At         time.Time `json:"at"`
}

func newEvent(kind EventKind, hand string, note Note, velocity float64, duration time.Duration) Event {
	midi, _ := note.MIDI()
	return Event{
		Kind:       kind,
		Hand:       hand,
		Note:       note,
		MIDI:       midi,
		Velocity:   velocity,
		DurationMs: duration.Milliseconds(),
		At:         time.Now(),
	}
}

// Sink receives every event played through a Recorder.
type Sink interface {
	Record(ev Event) error
}

// Recorder wraps a Voice and copies each call to a Sink. Sink failures are
// reported but never stop the note from playing.
type Recorder struct {
	voice   Voice
	hand    string
	sink    Sink
	onError func(error)
}

// NewRecorder creates a Recorder for one hand's voice.
func NewRecorder(voice Voice, hand string, sink Sink, onError func(error)) *Recorder {
	return &Recorder{voice: voice, hand: hand, sink: sink, onError: onError}
}

func (r *Recorder) record(ev Event) {
	if r.sink == nil {
		return
	}
	if err := r.sink.Record(ev); err != nil && r.onError != nil {
		r.onError(err)
	}
}

// Attack implements Voice.
func (r *Recorder) Attack(note Note, velocity float64) error {
	if err := r.voice.Attack(note, velocity); err != nil {
		return err
	}
	r.record(newEvent(KindAttack, r.hand, note, velocity, 0))
	return nil
}

// Release implements Voice.
func (r *Recorder) Release(note Note) error {
	if err := r.voice.Release(note); err != nil {
		return err
	}
	r.record(newEvent(KindRelease, r.hand, note, 0, 0))
	return nil
}

// AttackRelease implements Voice.
func (r *Recorder) AttackRelease(note Note, duration time.Duration, velocity float64) error {
	if err := r.voice.AttackRelease(note, duration, velocity); err != nil {
		return err
	}
	r.record(newEvent(KindAttackRelease, r.hand, note, velocity, duration))
	return nil
}

// Ready implements Voice.
func (r *Recorder) Ready() bool {
	return r.voice.Ready()
}
