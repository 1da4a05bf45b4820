package domain

// Edge is an undirected adjacency between two distinct neighbouring nodes.
// A is the endpoint that discovered the edge during construction.
type Edge struct {
	A Coord `json:"a"`
	B Coord `json:"b"`
}

// Has reports whether c is one of the edge endpoints.
func (e Edge) Has(c Coord) bool {
	return e.A == c || e.B == c
}

// Other returns the endpoint opposite to c.
// The second result is false when c is not on the edge.
func (e Edge) Other(c Coord) (Coord, bool) {
	switch c {
	case e.A:
		return e.B, true
	case e.B:
		return e.A, true
	}
	return Coord{}, false
}

// Key returns the endpoints in a canonical (row-major) order, so that
// A-B and B-A compare equal.
func (e Edge) Key() [2]Coord {
	if e.B.Row < e.A.Row || (e.B.Row == e.A.Row && e.B.Column < e.A.Column) {
		return [2]Coord{e.B, e.A}
	}
	return [2]Coord{e.A, e.B}
}
