// Package palette holds the colour schemes of the lattice view and the tweens used
// to animate between them.
package palette

import (
	"fmt"
	"sort"

	"github.com/aretw0/tonnetz/pkg/domain"
	colorful "github.com/lucasb-eyer/go-colorful"
)

// Default is the palette applied to new sessions.
const Default = "cool"

// Palette is the colour scheme of nodes, edges and background.
type Palette struct {
	Name       string
	Node       colorful.Color
	Line       colorful.Color
	Background colorful.Color
}

// Hex is the JSON-friendly form of a Palette.
type Hex struct {
	Name       string `json:"name"`
	Node       string `json:"node"`
	Line       string `json:"line"`
	Background string `json:"background"`
}

// Fixed highlight colours of the view.
var (
	SceneBackground = mustHex("#222233")
	ActiveNode      = colorful.Color{R: 1, G: 0.2, B: 0.4}
	IdleNode        = colorful.Color{R: 0.4, G: 0.8, B: 1}
	HighlightEdge   = mustHex("#ff3366")
	IdleEdge        = mustHex("#ffffff")
)

// Edge widths in pixels.
const (
	IdleEdgeWidth      = 2
	HighlightEdgeWidth = 6
)

var builtin = map[string]Palette{
	"warm": {
		Name:       "warm",
		Node:       mustHex("#FF5733"),
		Line:       mustHex("#FFC300"),
		Background: mustHex("#F2A65A"),
	},
	"cool": {
		Name:       "cool",
		Node:       mustHex("#3498DB"),
		Line:       mustHex("#2ECC71"),
		Background: mustHex("#B3B6B7"),
	},
	"neutral": {
		Name:       "neutral",
		Node:       mustHex("#808080"),
		Line:       mustHex("#A9A9A9"),
		Background: mustHex("#D3D3D3"),
	},
}

func mustHex(s string) colorful.Color {
	c, err := colorful.Hex(s)
	if err != nil {
		panic(err)
	}
	return c
}

// Lookup returns the palette registered under name.
func Lookup(name string) (Palette, error) {
	p, ok := builtin[name]
	if !ok {
		return Palette{}, fmt.Errorf("%w: %q", domain.ErrUnknownPalette, name)
	}
	return p, nil
}

// Names lists the registered palettes alphabetically.
func Names() []string {
	names := make([]string, 0, len(builtin))
	for name := range builtin {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// All returns every registered palette, sorted by name.
func All() []Palette {
	out := make([]Palette, 0, len(builtin))
	for _, name := range Names() {
		out = append(out, builtin[name])
	}
	return out
}

// Hex converts the palette colours to "#rrggbb" strings.
func (p Palette) Hex() Hex {
	return Hex{
		Name:       p.Name,
		Node:       p.Node.Hex(),
		Line:       p.Line.Hex(),
		Background: p.Background.Hex(),
	}
}
