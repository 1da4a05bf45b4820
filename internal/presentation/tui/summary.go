package tui

import (
	"fmt"
	"strings"

	"github.com/aretw0/tonnetz/pkg/domain"
	"github.com/aretw0/tonnetz/pkg/lattice"
	"github.com/aretw0/tonnetz/pkg/midifile"
	"github.com/aretw0/tonnetz/pkg/notes"
)

// LatticeSummary describes l as a markdown document.
func LatticeSummary(l *lattice.Lattice) string {
	var sb strings.Builder
	minB, maxB := l.Bounds()
	center := l.Center()

	sb.WriteString("# Tonnetz lattice\n\n")
	sb.WriteString("| property | value |\n|---|---|\n")
	fmt.Fprintf(&sb, "| rows | %d |\n", l.Rows())
	fmt.Fprintf(&sb, "| columns | %d |\n", l.Columns())
	fmt.Fprintf(&sb, "| spacing | %g |\n", l.Spacing())
	fmt.Fprintf(&sb, "| nodes | %d |\n", l.Len())
	fmt.Fprintf(&sb, "| edges | %d |\n", len(l.Edges()))
	fmt.Fprintf(&sb, "| bounds | (%.3f, %.3f) - (%.3f, %.3f) |\n", minB.X, minB.Z, maxB.X, maxB.Z)
	fmt.Fprintf(&sb, "| center | (%.3f, %.3f) |\n", center.X, center.Z)
	return sb.String()
}

// ScoreSummary describes an imported MIDI file as a markdown document. Notes are
// listed with the lattice nodes that carry them, when l is not nil.
func ScoreSummary(score *midifile.Score, l *lattice.Lattice, limit int) string {
	var sb strings.Builder
	sb.WriteString("# MIDI import\n\n")
	fmt.Fprintf(&sb, "- format: %d\n", score.Format)
	fmt.Fprintf(&sb, "- tracks: %d\n", score.Tracks)
	fmt.Fprintf(&sb, "- resolution: %d ticks per quarter\n", score.Resolution)
	fmt.Fprintf(&sb, "- notes: %d\n", score.NoteOns())
	fmt.Fprintf(&sb, "- length at 120 BPM: %s\n\n", score.Duration(120))

	sb.WriteString("| track | tick | note | nodes |\n|---|---|---|---|\n")
	shown := 0
	for _, ev := range score.Events {
		if ev.Kind != domain.EventNoteOn {
			continue
		}
		if limit > 0 && shown == limit {
			fmt.Fprintf(&sb, "\n_%d more notes not shown_\n", score.NoteOns()-shown)
			break
		}
		shown++

		name := notes.Name(ev.Note)
		nodes := "-"
		if l != nil {
			if coords := l.NodesForNote(name); len(coords) > 0 {
				parts := make([]string, len(coords))
				for i, c := range coords {
					parts[i] = c.String()
				}
				nodes = strings.Join(parts, " ")
			}
		}
		fmt.Fprintf(&sb, "| %d | %d | %s | %s |\n", ev.Track, ev.Tick, name, nodes)
	}
	return sb.String()
}
