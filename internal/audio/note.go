// Package audio defines the per-hand voice interface the instrument plays through,
// along with the websocket hub that forwards notes to browser synths.
package audio

import (
	"fmt"
	"strconv"
)

// Note is a scientific pitch name such as "C5" or "F#4".
type Note string

var semitones = map[byte]int{'C': 0, 'D': 2, 'E': 4, 'F': 5, 'G': 7, 'A': 9, 'B': 11}

// MIDI returns the MIDI note number, with C4 = 60.
func (n Note) MIDI() (int, error) {
	s := string(n)
	if len(s) < 2 {
		return 0, fmt.Errorf("invalid note %q", s)
	}
	base, ok := semitones[s[0]]
	if !ok {
		return 0, fmt.Errorf("invalid note letter in %q", s)
	}
	rest := s[1:]
	switch rest[0] {
	case '#':
		base++
		rest = rest[1:]
	case 'b':
		base--
		rest = rest[1:]
	}
	octave, err := strconv.Atoi(rest)
	if err != nil {
		return 0, fmt.Errorf("invalid octave in %q: %w", s, err)
	}
	midi := (octave+1)*12 + base
	if midi < 0 || midi > 127 {
		return 0, fmt.Errorf("note %q out of MIDI range", s)
	}
	return midi, nil
}

// Valid reports whether n parses as a pitch.
func (n Note) Valid() bool {
	_, err := n.MIDI()
	return err == nil
}
