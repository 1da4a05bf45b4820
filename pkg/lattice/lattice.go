package lattice

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/aretw0/tonnetz/pkg/domain"
	"github.com/aretw0/tonnetz/pkg/notes"
)

// MaxNodes caps rows*columns so a single request cannot exhaust memory.
const MaxNodes = 1 << 20

var rowPitch = math.Sin(math.Pi / 3)

// Lattice is an immutable offset hexagonal grid.
type Lattice struct {
	rows    int
	columns int
	spacing float64

	nodes    []domain.Node
	edges    []domain.Edge
	incident [][]int // node index -> edge indices
}

// Layout is the plain-data view handed to renderers and transports.
type Layout struct {
	Rows    int           `json:"rows"`
	Columns int           `json:"columns"`
	Spacing float64       `json:"spacing"`
	Nodes   []domain.Node `json:"nodes"`
	Edges   []domain.Edge `json:"edges"`
}

// Build computes every node and edge of a rows x columns lattice.
// Non-positive dimensions or spacing are rejected; no partial lattice is returned.
func Build(rows, columns int, spacing float64) (*Lattice, error) {
	if rows < 1 || columns < 1 {
		return nil, fmt.Errorf("%w: %dx%d", domain.ErrInvalidDimensions, rows, columns)
	}
	if rows > MaxNodes/columns {
		return nil, fmt.Errorf("%w: %dx%d exceeds %d nodes", domain.ErrInvalidDimensions, rows, columns, MaxNodes)
	}
	if !(spacing > 0) || math.IsInf(spacing, 1) {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidSpacing, spacing)
	}

	l := &Lattice{
		rows:     rows,
		columns:  columns,
		spacing:  spacing,
		nodes:    make([]domain.Node, 0, rows*columns),
		edges:    make([]domain.Edge, 0, EdgeCount(rows, columns)),
		incident: make([][]int, rows*columns),
	}

	for row := 0; row < rows; row++ {
		for col := 0; col < columns; col++ {
			l.nodes = append(l.nodes, domain.Node{
				Coord:    domain.Coord{Row: row, Column: col},
				Index:    row*columns + col,
				Position: Position(row, col, spacing),
			})
		}
	}

	for _, n := range l.nodes {
		for _, to := range candidates(n.Coord) {
			j, ok := l.Index(to)
			if !ok {
				continue
			}
			l.incident[n.Index] = append(l.incident[n.Index], len(l.edges))
			l.incident[j] = append(l.incident[j], len(l.edges))
			l.edges = append(l.edges, domain.Edge{A: n.Coord, B: to})
		}
	}

	return l, nil
}

// candidates returns the right, lower-right and lower-left neighbours of c,
// in that order, without bounds checking.
func candidates(c domain.Coord) [3]domain.Coord {
	shift := c.Row % 2
	return [3]domain.Coord{
		{Row: c.Row, Column: c.Column + 1},
		{Row: c.Row + 1, Column: c.Column + shift},
		{Row: c.Row + 1, Column: c.Column - 1 + shift},
	}
}

// Position returns the renderer-space position of node (row, column).
func Position(row, column int, spacing float64) domain.Vector3 {
	return domain.Vector3{
		X: float64(column)*spacing + float64(row%2)*(spacing/2),
		Y: 0,
		Z: float64(row) * spacing * rowPitch,
	}
}

// EdgeCount is the number of edges Build produces for the given dimensions.
func EdgeCount(rows, columns int) int {
	if rows < 1 || columns < 1 {
		return 0
	}
	return rows*(columns-1) + (rows-1)*(2*columns-1)
}

// Rows returns the number of rows.
func (l *Lattice) Rows() int { return l.rows }

// Columns returns the number of columns.
func (l *Lattice) Columns() int { return l.columns }

// Spacing returns the distance between neighbouring nodes.
func (l *Lattice) Spacing() float64 { return l.spacing }

// Len returns the number of nodes.
func (l *Lattice) Len() int { return len(l.nodes) }

// Nodes returns the nodes in row-major order. The slice is a copy.
func (l *Lattice) Nodes() []domain.Node {
	out := make([]domain.Node, len(l.nodes))
	copy(out, l.nodes)
	return out
}

// Edges returns the edges in discovery order. The slice is a copy.
func (l *Lattice) Edges() []domain.Edge {
	out := make([]domain.Edge, len(l.edges))
	copy(out, l.edges)
	return out
}

// Contains reports whether c lies inside the grid.
func (l *Lattice) Contains(c domain.Coord) bool {
	return c.Row >= 0 && c.Row < l.rows && c.Column >= 0 && c.Column < l.columns
}

// Index returns the dense index row*columns+column of c.
func (l *Lattice) Index(c domain.Coord) (int, bool) {
	if !l.Contains(c) {
		return 0, false
	}
	return c.Row*l.columns + c.Column, true
}

// Node looks up the node at c.
func (l *Lattice) Node(c domain.Coord) (domain.Node, bool) {
	i, ok := l.Index(c)
	if !ok {
		return domain.Node{}, false
	}
	return l.nodes[i], true
}

// NodeAt returns the node with dense index i.
func (l *Lattice) NodeAt(i int) (domain.Node, bool) {
	if i < 0 || i >= len(l.nodes) {
		return domain.Node{}, false
	}
	return l.nodes[i], true
}

// IncidentEdges returns every edge touching c, in discovery order.
// It returns nil when c is outside the grid.
func (l *Lattice) IncidentEdges(c domain.Coord) []domain.Edge {
	i, ok := l.Index(c)
	if !ok {
		return nil
	}
	out := make([]domain.Edge, 0, len(l.incident[i]))
	for _, e := range l.incident[i] {
		out = append(out, l.edges[e])
	}
	return out
}

// Neighbors returns the coordinates adjacent to c.
func (l *Lattice) Neighbors(c domain.Coord) []domain.Coord {
	edges := l.IncidentEdges(c)
	out := make([]domain.Coord, 0, len(edges))
	for _, e := range edges {
		other, _ := e.Other(c)
		out = append(out, other)
	}
	return out
}

// Degree returns the number of edges touching c.
func (l *Lattice) Degree(c domain.Coord) int {
	i, ok := l.Index(c)
	if !ok {
		return 0
	}
	return len(l.incident[i])
}

// Bounds returns the component-wise minimum and maximum node positions.
func (l *Lattice) Bounds() (min, max domain.Vector3) {
	min, max = l.nodes[0].Position, l.nodes[0].Position
	for _, n := range l.nodes[1:] {
		p := n.Position
		min.X, max.X = math.Min(min.X, p.X), math.Max(max.X, p.X)
		min.Y, max.Y = math.Min(min.Y, p.Y), math.Max(max.Y, p.Y)
		min.Z, max.Z = math.Min(min.Z, p.Z), math.Max(max.Z, p.Z)
	}
	return min, max
}

// Center returns the midpoint of Bounds, useful as a camera target.
func (l *Lattice) Center() domain.Vector3 {
	min, max := l.Bounds()
	return domain.Vector3{
		X: (min.X + max.X) / 2,
		Y: (min.Y + max.Y) / 2,
		Z: (min.Z + max.Z) / 2,
	}
}

// WithNotes returns a copy of the lattice whose nodes carry note labels
// assigned cyclically from palette.
func (l *Lattice) WithNotes(palette []domain.NoteName) (*Lattice, error) {
	labels, err := AssignNotes(len(l.nodes), palette)
	if err != nil {
		return nil, err
	}
	cp := *l
	cp.nodes = l.Nodes()
	for i := range cp.nodes {
		cp.nodes[i].Note = labels[i]
	}
	return &cp, nil
}

// NodesForNote returns the coordinates of every node labelled name or an
// enharmonic spelling of it.
func (l *Lattice) NodesForNote(name domain.NoteName) []domain.Coord {
	var out []domain.Coord
	for _, n := range l.nodes {
		if n.Note == name || notes.Same(n.Note, name) {
			out = append(out, n.Coord)
		}
	}
	return out
}

// Layout returns the plain-data view of the lattice.
func (l *Lattice) Layout() Layout {
	return Layout{
		Rows:    l.rows,
		Columns: l.columns,
		Spacing: l.spacing,
		Nodes:   l.Nodes(),
		Edges:   l.Edges(),
	}
}

// MarshalJSON encodes the lattice as its Layout.
func (l *Lattice) MarshalJSON() ([]byte, error) {
	return json.Marshal(l.Layout())
}
