package domain

import "errors"

// ErrInvalidDimensions is returned when a lattice is requested with rows or columns below 1.
var ErrInvalidDimensions = errors.New("invalid lattice dimensions")

// ErrInvalidSpacing is returned when the node spacing is not a positive finite number.
var ErrInvalidSpacing = errors.New("invalid lattice spacing")

// ErrEmptyPalette is returned when notes are assigned from an empty note palette.
var ErrEmptyPalette = errors.New("note palette is empty")

// ErrNodeNotFound is returned when a coordinate does not resolve to a lattice node.
var ErrNodeNotFound = errors.New("node not found")

// ErrSessionNotFound is returned when a session ID cannot be found in the store.
var ErrSessionNotFound = errors.New("session not found")

// ErrUnknownPalette is returned when a colour palette name is not registered.
var ErrUnknownPalette = errors.New("unknown colour palette")

// ErrUnsupportedFormat is returned for Standard MIDI Files other than format 0 or 1.
var ErrUnsupportedFormat = errors.New("unsupported MIDI format")

// ErrInvalidNote is returned when a note name cannot be parsed.
var ErrInvalidNote = errors.New("invalid note name")
