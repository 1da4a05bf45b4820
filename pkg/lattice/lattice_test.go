package lattice_test

import (
	"math"
	"testing"

	"github.com/aretw0/tonnetz/pkg/domain"
	"github.com/aretw0/tonnetz/pkg/lattice"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func c(row, col int) domain.Coord { return domain.Coord{Row: row, Column: col} }

func edgeSet(edges []domain.Edge) map[[2]domain.Coord]bool {
	set := make(map[[2]domain.Coord]bool, len(edges))
	for _, e := range edges {
		set[e.Key()] = true
	}
	return set
}

func TestBuild_InvalidParameters(t *testing.T) {
	tests := []struct {
		name    string
		rows    int
		columns int
		spacing float64
		want    error
	}{
		{"zero rows", 0, 3, 1, domain.ErrInvalidDimensions},
		{"negative columns", 3, -1, 1, domain.ErrInvalidDimensions},
		{"too many nodes", lattice.MaxNodes, 2, 1, domain.ErrInvalidDimensions},
		{"zero spacing", 2, 2, 0, domain.ErrInvalidSpacing},
		{"negative spacing", 2, 2, -1, domain.ErrInvalidSpacing},
		{"NaN spacing", 2, 2, math.NaN(), domain.ErrInvalidSpacing},
		{"infinite spacing", 2, 2, math.Inf(1), domain.ErrInvalidSpacing},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := lattice.Build(tt.rows, tt.columns, tt.spacing)
			assert.ErrorIs(t, err, tt.want)
			assert.Nil(t, l)
		})
	}
}

func TestBuild_SingleNode(t *testing.T) {
	l, err := lattice.Build(1, 1, 3)
	require.NoError(t, err)

	assert.Equal(t, 1, l.Len())
	assert.Empty(t, l.Edges())
	assert.Equal(t, 0, l.Degree(c(0, 0)))
}

func TestBuild_TwoByTwo(t *testing.T) {
	l, err := lattice.Build(2, 2, 1)
	require.NoError(t, err)

	assert.Equal(t, 4, l.Len())

	want := []domain.Edge{
		{A: c(0, 0), B: c(0, 1)}, // right
		{A: c(0, 0), B: c(1, 0)}, // lower-right, even row has no shift
		{A: c(0, 1), B: c(1, 1)}, // lower-right
		{A: c(0, 1), B: c(1, 0)}, // lower-left
		{A: c(1, 0), B: c(1, 1)}, // right
	}
	assert.Equal(t, want, l.Edges())
}

func TestBuild_Properties(t *testing.T) {
	for rows := 1; rows <= 6; rows++ {
		for cols := 1; cols <= 6; cols++ {
			l, err := lattice.Build(rows, cols, 2)
			require.NoError(t, err)

			nodes := l.Nodes()
			require.Len(t, nodes, rows*cols)

			seenNodes := make(map[domain.Coord]bool)
			for i, n := range nodes {
				assert.Equal(t, i, n.Index, "row-major index")
				assert.False(t, seenNodes[n.Coord], "duplicate node %v", n.Coord)
				seenNodes[n.Coord] = true
			}

			edges := l.Edges()
			assert.Len(t, edges, lattice.EdgeCount(rows, cols))

			seenEdges := make(map[[2]domain.Coord]bool)
			for _, e := range edges {
				assert.NotEqual(t, e.A, e.B, "self loop")
				assert.True(t, l.Contains(e.A), "dangling %v", e)
				assert.True(t, l.Contains(e.B), "dangling %v", e)
				assert.False(t, seenEdges[e.Key()], "duplicate edge %v", e)
				seenEdges[e.Key()] = true

				a, _ := l.Node(e.A)
				b, _ := l.Node(e.B)
				dist := math.Hypot(a.Position.X-b.Position.X, a.Position.Z-b.Position.Z)
				assert.InDelta(t, 2.0, dist, 1e-9, "edge %v should have unit spacing", e)
			}
		}
	}
}

func TestBuild_InteriorDegree(t *testing.T) {
	l, err := lattice.Build(5, 7, 2)
	require.NoError(t, err)

	for _, n := range l.Nodes() {
		interior := n.Row > 0 && n.Row < 4 && n.Column > 0 && n.Column < 6
		if interior {
			assert.Equal(t, 6, l.Degree(n.Coord), "interior node %v", n.Coord)
		}
		assert.LessOrEqual(t, l.Degree(n.Coord), 6)
		assert.GreaterOrEqual(t, l.Degree(n.Coord), 2)
	}
}

func TestBuild_Deterministic(t *testing.T) {
	a, err := lattice.Build(4, 5, 1.5)
	require.NoError(t, err)
	b, err := lattice.Build(4, 5, 1.5)
	require.NoError(t, err)

	assert.Equal(t, a.Nodes(), b.Nodes())
	assert.Equal(t, edgeSet(a.Edges()), edgeSet(b.Edges()))
	assert.Equal(t, a.Edges(), b.Edges())
}

func TestPosition(t *testing.T) {
	p := lattice.Position(1, 0, 2)
	assert.InDelta(t, 1.0, p.X, 1e-12)
	assert.Equal(t, 0.0, p.Y)
	assert.InDelta(t, math.Sqrt(3), p.Z, 1e-12)

	p = lattice.Position(2, 3, 2)
	assert.InDelta(t, 6.0, p.X, 1e-12)
	assert.InDelta(t, 2*math.Sqrt(3), p.Z, 1e-12)
}

func TestIncidentEdgesAndNeighbors(t *testing.T) {
	l, err := lattice.Build(3, 3, 1)
	require.NoError(t, err)

	center := c(1, 1)
	assert.ElementsMatch(t,
		[]domain.Coord{c(0, 1), c(0, 2), c(1, 0), c(1, 2), c(2, 1), c(2, 2)},
		l.Neighbors(center),
	)
	for _, e := range l.IncidentEdges(center) {
		assert.True(t, e.Has(center))
	}

	assert.Nil(t, l.IncidentEdges(c(3, 0)))
	assert.Equal(t, 0, l.Degree(c(-1, 0)))
}

func TestLookups(t *testing.T) {
	l, err := lattice.Build(2, 3, 1)
	require.NoError(t, err)

	i, ok := l.Index(c(1, 2))
	assert.True(t, ok)
	assert.Equal(t, 5, i)

	_, ok = l.Index(c(2, 0))
	assert.False(t, ok)

	n, ok := l.NodeAt(4)
	assert.True(t, ok)
	assert.Equal(t, c(1, 1), n.Coord)

	_, ok = l.NodeAt(6)
	assert.False(t, ok)
}

func TestBoundsAndCenter(t *testing.T) {
	l, err := lattice.Build(2, 2, 2)
	require.NoError(t, err)

	min, max := l.Bounds()
	assert.Equal(t, 0.0, min.X)
	assert.InDelta(t, 3.0, max.X, 1e-12)
	assert.InDelta(t, math.Sqrt(3), max.Z, 1e-12)

	center := l.Center()
	assert.InDelta(t, 1.5, center.X, 1e-12)
	assert.InDelta(t, math.Sqrt(3)/2, center.Z, 1e-12)
}

func TestNodesAreCopies(t *testing.T) {
	l, err := lattice.Build(2, 2, 1)
	require.NoError(t, err)

	nodes := l.Nodes()
	nodes[0].Note = "X"
	edges := l.Edges()
	edges[0] = domain.Edge{}

	n, _ := l.Node(c(0, 0))
	assert.Empty(t, n.Note)
	assert.Equal(t, domain.Edge{A: c(0, 0), B: c(0, 1)}, l.Edges()[0])
}

func TestMarshalJSON(t *testing.T) {
	l, err := lattice.Build(1, 2, 1)
	require.NoError(t, err)

	b, err := l.MarshalJSON()
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"rows": 1, "columns": 2, "spacing": 1,
		"nodes": [
			{"row": 0, "column": 0, "index": 0, "position": {"x": 0, "y": 0, "z": 0}},
			{"row": 0, "column": 1, "index": 1, "position": {"x": 1, "y": 0, "z": 0}}
		],
		"edges": [{"a": {"row": 0, "column": 0}, "b": {"row": 0, "column": 1}}]
	}`, string(b))
}
