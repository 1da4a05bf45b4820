package graph

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/aretw0/tonnetz/pkg/domain"
	"github.com/aretw0/tonnetz/pkg/lattice"
	"github.com/aretw0/tonnetz/pkg/palette"
)

// GraphOverlay contains selection data to visualize on the graph.
type GraphOverlay struct {
	Selected *domain.Coord
	Active   []domain.Coord
}

// OverlayFromSelection builds an overlay from the nodes of sel. Expired
// activations are still drawn; callers sweep first when that matters.
func OverlayFromSelection(sel *domain.Selection) *GraphOverlay {
	if sel == nil {
		return nil
	}
	o := &GraphOverlay{Selected: sel.Selected}
	for _, a := range sel.Active {
		o.Active = append(o.Active, a.Coord)
	}
	return o
}

// GenerateMermaid produces a Mermaid flowchart of the lattice.
// Nodes are circles labelled with their note (when assigned) and coordinate;
// edges are undirected links in generation order.
// With an overlay, the selected node and its incident edges take the highlight
// style and active nodes are marked.
func GenerateMermaid(l *lattice.Lattice, overlay *GraphOverlay) string {
	var sb strings.Builder
	sb.WriteString("graph LR\n")

	for _, node := range l.Nodes() {
		label := node.Coord.String()
		if node.Note != "" {
			label = fmt.Sprintf("%s <br/> %s", node.Note, label)
		}
		sb.WriteString(fmt.Sprintf("    %s((\"%s\"))\n", mermaidID(node.Coord), label))
	}

	edges := l.Edges()
	for _, e := range edges {
		sb.WriteString(fmt.Sprintf("    %s --- %s\n", mermaidID(e.A), mermaidID(e.B)))
	}

	if overlay == nil {
		return sb.String()
	}

	sb.WriteString("\n    %% Overlay Styles\n")
	sb.WriteString(fmt.Sprintf("    classDef active fill:%s,stroke:%s,stroke-width:2px,color:#000;\n",
		palette.ActiveNode.Hex(), palette.HighlightEdge.Hex()))
	sb.WriteString(fmt.Sprintf("    classDef selected fill:%s,stroke:%s,stroke-width:4px,color:#000;\n",
		palette.ActiveNode.Hex(), palette.IdleEdge.Hex()))

	// Deduplicate, skipping coordinates that are not on this lattice
	seen := make(map[domain.Coord]bool)
	for _, c := range overlay.Active {
		if seen[c] || !l.Contains(c) {
			continue
		}
		seen[c] = true
		sb.WriteString(fmt.Sprintf("    class %s active;\n", mermaidID(c)))
	}

	if overlay.Selected != nil && l.Contains(*overlay.Selected) {
		sel := *overlay.Selected
		sb.WriteString(fmt.Sprintf("    class %s selected;\n", mermaidID(sel)))

		// linkStyle addresses edges by declaration order
		var idx []string
		for i, e := range edges {
			if e.Has(sel) {
				idx = append(idx, strconv.Itoa(i))
			}
		}
		if len(idx) > 0 {
			sb.WriteString(fmt.Sprintf("    linkStyle %s stroke:%s,stroke-width:%dpx;\n",
				strings.Join(idx, ","), palette.HighlightEdge.Hex(), palette.HighlightEdgeWidth))
		}
	}

	return sb.String()
}

func mermaidID(c domain.Coord) string {
	return fmt.Sprintf("n%d_%d", c.Row, c.Column)
}
