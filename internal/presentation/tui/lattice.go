package tui

import (
	"strings"

	"github.com/aretw0/tonnetz/pkg/domain"
	"github.com/aretw0/tonnetz/pkg/lattice"
	"github.com/aretw0/tonnetz/pkg/palette"
	"github.com/charmbracelet/lipgloss"
)

// cellWidth is the horizontal distance between two nodes of a row.
// Odd rows are shifted by half of it, as in the 3D layout.
const cellWidth = 4

type style int

const (
	styleNone style = iota
	styleIdleNode
	styleActiveNode
	styleSelectedNode
	styleIdleEdge
	styleHighlightEdge
)

// LatticeView draws a lattice as text: one line per row of nodes and one
// connector line between rows.
type LatticeView struct {
	Lattice  *lattice.Lattice
	Selected *domain.Coord
	Active   []domain.Coord
	// Color enables lipgloss styling; leave it off when output is not a terminal.
	Color bool
}

// Render returns the drawing.
func (v LatticeView) Render() string {
	l := v.Lattice
	width := l.Columns()*cellWidth + cellWidth/2
	height := 2*l.Rows() - 1

	runes := make([][]rune, height)
	styles := make([][]style, height)
	for i := range runes {
		runes[i] = []rune(strings.Repeat(" ", width))
		styles[i] = make([]style, width)
	}

	active := make(map[domain.Coord]bool, len(v.Active))
	for _, c := range v.Active {
		active[c] = true
	}

	for _, n := range l.Nodes() {
		label := nodeLabel(n)

		st := styleIdleNode
		switch {
		case v.Selected != nil && *v.Selected == n.Coord:
			st = styleSelectedNode
		case active[n.Coord]:
			st = styleActiveNode
		}

		y, x := 2*n.Row, column(n.Coord)
		for i, r := range label {
			runes[y][x+i] = r
			styles[y][x+i] = st
		}
	}

	for _, e := range l.Edges() {
		st := styleIdleEdge
		if v.Selected != nil && e.Has(*v.Selected) {
			st = styleHighlightEdge
		}

		y, x := 2*e.A.Row, column(e.A)
		switch {
		case e.A.Row == e.B.Row:
			a, _ := l.Node(e.A)
			for i := x + len(nodeLabel(a)); i < x+cellWidth; i++ {
				runes[y][i] = '-'
				styles[y][i] = st
			}
		case column(e.B) > x:
			runes[y+1][x+1] = '\\'
			styles[y+1][x+1] = st
		default:
			runes[y+1][x-1] = '/'
			styles[y+1][x-1] = st
		}
	}

	lines := make([]string, height)
	for i := range runes {
		lines[i] = strings.TrimRight(v.renderLine(runes[i], styles[i]), " ")
	}
	return strings.Join(lines, "\n") + "\n"
}

// nodeLabel is the note of n, cut to fit a cell, or "o" for unlabelled nodes.
func nodeLabel(n domain.Node) string {
	label := string(n.Note)
	if label == "" {
		label = "o"
	}
	if len(label) > cellWidth-1 {
		label = label[:cellWidth-1]
	}
	return label
}

func column(c domain.Coord) int {
	return c.Column*cellWidth + (c.Row%2)*(cellWidth/2)
}

// renderLine styles runs of equal style.
func (v LatticeView) renderLine(runes []rune, styles []style) string {
	if !v.Color {
		return string(runes)
	}

	var sb strings.Builder
	start := 0
	for i := 1; i <= len(runes); i++ {
		if i < len(runes) && styles[i] == styles[start] {
			continue
		}
		sb.WriteString(lipglossStyle(styles[start]).Render(string(runes[start:i])))
		start = i
	}
	return sb.String()
}

func lipglossStyle(s style) lipgloss.Style {
	base := lipgloss.NewStyle()
	switch s {
	case styleIdleNode:
		return base.Foreground(lipgloss.Color(palette.IdleNode.Hex()))
	case styleActiveNode:
		return base.Foreground(lipgloss.Color(palette.ActiveNode.Hex()))
	case styleSelectedNode:
		return base.Bold(true).Underline(true).Foreground(lipgloss.Color(palette.ActiveNode.Hex()))
	case styleIdleEdge:
		return base.Foreground(lipgloss.Color(palette.IdleEdge.Hex())).Faint(true)
	case styleHighlightEdge:
		return base.Bold(true).Foreground(lipgloss.Color(palette.HighlightEdge.Hex()))
	default:
		return base
	}
}
