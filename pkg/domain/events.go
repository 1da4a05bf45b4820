package domain

// EventKind distinguishes note starts from note ends.
type EventKind string

const (
	EventNoteOn  EventKind = "on"
	EventNoteOff EventKind = "off"
)

// NoteEvent is a single note boundary decoded from a MIDI track.
// Tick is absolute within its track.
type NoteEvent struct {
	Note     uint8     `json:"note"`
	Tick     int64     `json:"tick"`
	Kind     EventKind `json:"kind"`
	Channel  uint8     `json:"channel"`
	Velocity uint8     `json:"velocity,omitempty"`
	Track    int       `json:"track"`
}
