package lattice

import (
	"fmt"

	"github.com/aretw0/tonnetz/pkg/domain"
)

// DefaultNotes is the two-octave C major palette nodes are labelled with by default.
var DefaultNotes = []domain.NoteName{
	"C4", "D4", "E4", "F4", "G4", "A4", "B4",
	"C5", "D5", "E5", "F5", "G5", "A5", "B5",
}

// AssignNotes labels nodeCount nodes cyclically: index i receives palette[i mod len(palette)].
func AssignNotes(nodeCount int, palette []domain.NoteName) ([]domain.NoteName, error) {
	if len(palette) == 0 {
		return nil, domain.ErrEmptyPalette
	}
	if nodeCount < 0 {
		return nil, fmt.Errorf("%w: node count %d", domain.ErrInvalidDimensions, nodeCount)
	}
	out := make([]domain.NoteName, nodeCount)
	for i := range out {
		out[i] = palette[i%len(palette)]
	}
	return out, nil
}
