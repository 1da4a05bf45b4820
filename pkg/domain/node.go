package domain

import "fmt"

// Coord identifies a lattice node by its grid cell.
type Coord struct {
	Row    int `json:"row" yaml:"row" mapstructure:"row"`
	Column int `json:"column" yaml:"column" mapstructure:"column"`
}

// String renders the coordinate as "(row,column)".
func (c Coord) String() string {
	return fmt.Sprintf("(%d,%d)", c.Row, c.Column)
}

// Vector3 is a point in renderer space. Y is the up axis; the lattice lies on y = 0.
type Vector3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// NoteName is a scientific pitch label such as "C4" or "F#5".
type NoteName string

// Node is a single lattice cell.
// Position is derived from the coordinate and the lattice spacing; it is never
// authoritative on its own.
type Node struct {
	Coord
	Index    int      `json:"index"`
	Position Vector3  `json:"position"`
	Note     NoteName `json:"note,omitempty"`
}
