// Package trail keeps the short-lived, per-hand sequence of touch points the
// instrument draws and plays from.
package trail

import (
	"time"

	"github.com/ayusman/mudra/internal/audio"
	"github.com/ayusman/mudra/internal/detector"
)

// DefaultLifetime is how long a point survives before AgeOut drops it.
const DefaultLifetime = 1000 * time.Millisecond

// Point is a touch point already mapped into overlay coordinates.
type Point struct {
	X    float64
	Y    float64
	T    time.Time
	Note audio.Note // empty when the gesture carries no note
}

// Store holds one chronological point sequence per hand. Both hands are
// always present, possibly empty.
type Store struct {
	lifetime time.Duration
	points   map[detector.Label][]Point
}

// NewStore creates a Store. A non-positive lifetime selects DefaultLifetime.
func NewStore(lifetime time.Duration) *Store {
	if lifetime <= 0 {
		lifetime = DefaultLifetime
	}
	s := &Store{
		lifetime: lifetime,
		points:   make(map[detector.Label][]Point, len(detector.Labels)),
	}
	for _, l := range detector.Labels {
		s.points[l] = nil
	}
	return s
}

// Lifetime returns the configured point lifetime.
func (s *Store) Lifetime() time.Duration {
	return s.lifetime
}

// Append pushes points onto the end of a hand's sequence. Points stamped
// earlier than the current last point are dropped so the sequence stays
// chronological. Unknown labels are ignored.
func (s *Store) Append(label detector.Label, pts ...Point) {
	seq, ok := s.points[label]
	if !ok {
		return
	}
	for _, p := range pts {
		if n := len(seq); n > 0 && p.T.Before(seq[n-1].T) {
			continue
		}
		seq = append(seq, p)
	}
	s.points[label] = seq
}

// AgeOut drops every point whose age at now has reached the lifetime.
func (s *Store) AgeOut(now time.Time) {
	for label, seq := range s.points {
		// Sequences are chronological, so expired points form a prefix.
		cut := 0
		for cut < len(seq) && now.Sub(seq[cut].T) >= s.lifetime {
			cut++
		}
		if cut == 0 {
			continue
		}
		kept := make([]Point, len(seq)-cut)
		copy(kept, seq[cut:])
		s.points[label] = kept
	}
}

// Clear empties one hand's sequence.
func (s *Store) Clear(label detector.Label) {
	if _, ok := s.points[label]; ok {
		s.points[label] = nil
	}
}

// Reset empties both sequences.
func (s *Store) Reset() {
	for label := range s.points {
		s.points[label] = nil
	}
}

// Points returns a copy of a hand's sequence.
func (s *Store) Points(label detector.Label) []Point {
	seq := s.points[label]
	if len(seq) == 0 {
		return nil
	}
	out := make([]Point, len(seq))
	copy(out, seq)
	return out
}

// Len returns the number of points held for a hand.
func (s *Store) Len(label detector.Label) int {
	return len(s.points[label])
}

// Last returns the newest point for a hand.
func (s *Store) Last(label detector.Label) (Point, bool) {
	seq := s.points[label]
	if len(seq) == 0 {
		return Point{}, false
	}
	return seq[len(seq)-1], true
}
