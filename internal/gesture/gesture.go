// Package gesture decides, per hand and per frame, whether the player is
// touching a finger joint with the thumb and which note that touch plays.
package gesture

import (
	"errors"
	"fmt"
	"sort"

	"github.com/ayusman/mudra/internal/audio"
	"github.com/ayusman/mudra/internal/detector"
)

// DefaultTouchThreshold is the native-space distance below which a joint
// counts as touching the reference point.
const DefaultTouchThreshold = 30.0

// Definition describes a touch gesture: a reference keypoint and the
// candidates that may touch it.
type Definition struct {
	Name           string
	Reference      int
	Candidates     []int
	Notes          map[int]audio.Note // optional keypoint -> note table
	TouchThreshold float64
}

// NoteTable is the thumb-to-knuckle gesture: touching a finger's joint with
// the thumb tip plays that joint's note.
func NoteTable() Definition {
	notes := map[int]audio.Note{
		detector.IndexMCP:  "C5",
		detector.IndexDIP:  "D5",
		detector.MiddleMCP: "E5",
		detector.MiddleDIP: "F5",
		detector.RingMCP:   "G5",
		detector.RingDIP:   "A5",
		detector.PinkyMCP:  "B5",
		detector.PinkyDIP:  "C6",
	}
	return Definition{
		Name:           "notes",
		Reference:      detector.ThumbTip,
		Candidates:     noteIndices(notes),
		Notes:          notes,
		TouchThreshold: DefaultTouchThreshold,
	}
}

// Pinch is the plain thumb-to-index pinch. It carries no notes, so each hand
// plays its fixed note.
func Pinch() Definition {
	return Definition{
		Name:           "pinch",
		Reference:      detector.ThumbTip,
		Candidates:     []int{detector.IndexDIP, detector.IndexTip},
		TouchThreshold: DefaultTouchThreshold,
	}
}

// ByName returns a built-in definition.
func ByName(name string) (Definition, error) {
	switch name {
	case "notes", "":
		return NoteTable(), nil
	case "pinch":
		return Pinch(), nil
	}
	return Definition{}, fmt.Errorf("unknown gesture %q", name)
}

func noteIndices(notes map[int]audio.Note) []int {
	out := make([]int, 0, len(notes))
	for idx := range notes {
		out = append(out, idx)
	}
	sort.Ints(out)
	return out
}

// Validate checks that the definition refers to real landmarks.
func (d Definition) Validate() error {
	if d.Reference < 0 || d.Reference >= detector.NumLandmarks {
		return fmt.Errorf("reference keypoint %d out of range", d.Reference)
	}
	if len(d.Candidates) == 0 {
		return errors.New("gesture needs at least one candidate keypoint")
	}
	for _, idx := range d.Candidates {
		if idx < 0 || idx >= detector.NumLandmarks {
			return fmt.Errorf("candidate keypoint %d out of range", idx)
		}
		if idx == d.Reference {
			return fmt.Errorf("candidate keypoint %d is the reference", idx)
		}
	}
	for idx, note := range d.Notes {
		if !note.Valid() {
			return fmt.Errorf("keypoint %d maps to invalid note %q", idx, note)
		}
	}
	if d.TouchThreshold <= 0 {
		return errors.New("touch threshold must be positive")
	}
	return nil
}
