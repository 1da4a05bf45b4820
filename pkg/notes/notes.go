// Package notes converts between scientific pitch names and MIDI key numbers.
//
// Middle C is "C4" = 60. Sharps may be written "#" or "s" (the sample-file
// convention, e.g. "Ds4"); flats are written "b".
package notes

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/aretw0/tonnetz/pkg/domain"
)

var sharpNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

var letterOffsets = map[byte]int{'C': 0, 'D': 2, 'E': 4, 'F': 5, 'G': 7, 'A': 9, 'B': 11}

// Parse returns the MIDI key number for name.
func Parse(name domain.NoteName) (uint8, error) {
	s := strings.TrimSpace(string(name))
	if len(s) < 2 {
		return 0, fmt.Errorf("%w: %q", domain.ErrInvalidNote, name)
	}

	offset, ok := letterOffsets[strings.ToUpper(s[:1])[0]]
	if !ok {
		return 0, fmt.Errorf("%w: %q", domain.ErrInvalidNote, name)
	}
	rest := s[1:]

	switch rest[0] {
	case '#', 's':
		offset++
		rest = rest[1:]
	case 'b':
		offset--
		rest = rest[1:]
	}

	// Octaves run from -1 to 9: one digit, optionally "-1".
	if rest != "-1" && (len(rest) != 1 || rest[0] < '0' || rest[0] > '9') {
		return 0, fmt.Errorf("%w: %q", domain.ErrInvalidNote, name)
	}
	octave, err := strconv.Atoi(rest)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", domain.ErrInvalidNote, name)
	}

	key := (octave+1)*12 + offset
	if key < 0 || key > 127 {
		return 0, fmt.Errorf("%w: %q is outside the MIDI range", domain.ErrInvalidNote, name)
	}
	return uint8(key), nil
}

// MustParse is like Parse but panics on error. Intended for constants.
func MustParse(name domain.NoteName) uint8 {
	key, err := Parse(name)
	if err != nil {
		panic(err)
	}
	return key
}

// Name returns the sharp spelling of a MIDI key, e.g. 61 -> "C#4".
func Name(key uint8) domain.NoteName {
	return domain.NoteName(fmt.Sprintf("%s%d", sharpNames[key%12], int(key)/12-1))
}

// PitchClass returns the pitch class (0 = C ... 11 = B) of name.
func PitchClass(name domain.NoteName) (int, error) {
	key, err := Parse(name)
	if err != nil {
		return 0, err
	}
	return int(key) % 12, nil
}

// Same reports whether two names denote the same key ("Ds4" and "Eb4", for instance).
func Same(a, b domain.NoteName) bool {
	ka, errA := Parse(a)
	kb, errB := Parse(b)
	return errA == nil && errB == nil && ka == kb
}
