// Package midifile turns Standard MIDI Files into timed note events.
//
// Decoding of the binary format is delegated to gomidi's smf package; this package
// only walks the decoded tracks and classifies note boundaries.
package midifile

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/aretw0/tonnetz/pkg/domain"
	"gitlab.com/gomidi/midi/v2/smf"
)

// ErrDecode marks input that is not a readable Standard MIDI File.
var ErrDecode = errors.New("malformed MIDI data")

// Score is the note content of a MIDI file.
type Score struct {
	Format     uint16             `json:"format"`
	Tracks     int                `json:"tracks"`
	Resolution uint16             `json:"resolution,omitempty"` // ticks per quarter note, 0 for SMPTE time
	Events     []domain.NoteEvent `json:"events"`
}

// Import decodes a Standard MIDI File.
// Only format 0 (single track) and format 1 (parallel tracks) are accepted; other
// formats return domain.ErrUnsupportedFormat.
func Import(r io.Reader) (*Score, error) {
	s, err := smf.ReadFrom(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}

	format := s.Format()
	if format != 0 && format != 1 {
		return nil, fmt.Errorf("%w: format %d (only 0 and 1 are supported)", domain.ErrUnsupportedFormat, format)
	}

	score := &Score{
		Format: format,
		Tracks: len(s.Tracks),
		Events: []domain.NoteEvent{},
	}
	if mt, ok := s.TimeFormat.(smf.MetricTicks); ok {
		score.Resolution = mt.Resolution()
	}

	for i, track := range s.Tracks {
		score.Events = append(score.Events, trackEvents(i, track)...)
	}

	return score, nil
}

// ImportBytes decodes an in-memory MIDI file.
func ImportBytes(data []byte) (*Score, error) {
	return Import(bytes.NewReader(data))
}

// ImportFile decodes the MIDI file at path.
func ImportFile(path string) (*Score, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open MIDI file: %w", err)
	}
	defer f.Close()
	return Import(f)
}

func trackEvents(index int, track smf.Track) []domain.NoteEvent {
	var (
		events []domain.NoteEvent
		tick   int64
	)
	for _, ev := range track {
		tick += int64(ev.Delta)

		var ch, key, vel uint8
		switch {
		case ev.Message.GetNoteStart(&ch, &key, &vel):
			events = append(events, domain.NoteEvent{
				Note:     key,
				Tick:     tick,
				Kind:     domain.EventNoteOn,
				Channel:  ch,
				Velocity: vel,
				Track:    index,
			})
		case ev.Message.GetNoteEnd(&ch, &key):
			events = append(events, domain.NoteEvent{
				Note:    key,
				Tick:    tick,
				Kind:    domain.EventNoteOff,
				Channel: ch,
				Track:   index,
			})
		}
	}
	return events
}

// NoteOns returns the number of note-on events.
func (s *Score) NoteOns() int {
	n := 0
	for _, e := range s.Events {
		if e.Kind == domain.EventNoteOn {
			n++
		}
	}
	return n
}

// LastTick returns the largest event tick.
func (s *Score) LastTick() int64 {
	var last int64
	for _, e := range s.Events {
		if e.Tick > last {
			last = e.Tick
		}
	}
	return last
}

// TickDuration converts a tick offset to wall time at a constant tempo.
// It returns 0 when the file uses SMPTE time or bpm is not positive.
func (s *Score) TickDuration(tick int64, bpm float64) time.Duration {
	if s.Resolution == 0 || bpm <= 0 {
		return 0
	}
	quarter := float64(time.Minute) / bpm
	return time.Duration(float64(tick) * quarter / float64(s.Resolution))
}

// Duration is the wall time of the last event at a constant tempo.
func (s *Score) Duration(bpm float64) time.Duration {
	return s.TickDuration(s.LastTick(), bpm)
}
