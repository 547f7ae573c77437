package gesture

import (
	"math"
	"sort"
	"time"

	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/geometry"
	"github.com/ayusman/mudra/internal/trail"
)

// Classifier turns detected hands into trail points.
type Classifier struct {
	def        Definition
	candidates []int
}

// NewClassifier creates a Classifier for a validated definition.
func NewClassifier(def Definition) (*Classifier, error) {
	if err := def.Validate(); err != nil {
		return nil, err
	}
	candidates := append([]int(nil), def.Candidates...)
	sort.Ints(candidates)
	return &Classifier{def: def, candidates: candidates}, nil
}

// Definition returns the gesture being classified.
func (c *Classifier) Definition() Definition {
	return c.def
}

// Touches returns the touching candidates of one hand, mapped to display
// space and stamped with now, in keypoint index order.
// ok is false when the reference keypoint is missing from the detection.
func (c *Classifier) Touches(hand *detector.Hand, tr geometry.Transform, now time.Time) (points []trail.Point, ok bool) {
	ref, ok := hand.Keypoint(c.def.Reference)
	if !ok {
		return nil, false
	}

	for _, idx := range c.candidates {
		kp, present := hand.Keypoint(idx)
		if !present {
			continue
		}
		if math.Hypot(kp.X-ref.X, kp.Y-ref.Y) >= c.def.TouchThreshold {
			continue
		}
		x, y := tr.MapXY(kp.X, kp.Y)
		points = append(points, trail.Point{
			X:    x,
			Y:    y,
			T:    now,
			Note: c.def.Notes[idx],
		})
	}
	return points, true
}

// Apply classifies one frame of detections into the store. A hand that is
// touching gets its points appended; a hand that is not touching, is missing
// its reference keypoint, or was not detected this frame is cleared.
// It returns the number of points appended per hand.
func (c *Classifier) Apply(hands []detector.Hand, tr geometry.Transform, now time.Time, store *trail.Store) map[detector.Label]int {
	byLabel := detector.PerLabel(hands)
	appended := make(map[detector.Label]int, len(detector.Labels))

	for _, label := range detector.Labels {
		hand, found := byLabel[label]
		if !found {
			store.Clear(label)
			continue
		}
		points, ok := c.Touches(hand, tr, now)
		if !ok || len(points) == 0 {
			store.Clear(label)
			continue
		}
		store.Append(label, points...)
		appended[label] = len(points)
	}
	return appended
}
