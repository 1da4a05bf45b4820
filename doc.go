/*
Package tonnetz builds and serves a Tonnetz: an offset hexagonal lattice of note nodes in
which every node connects to up to six neighbours.

The Engine wires the pieces together. It builds the lattice once, labels its nodes from a
repeating note palette, tracks per-session selections (which node is highlighted, which
nodes are still glowing) and plays the selected note through an optional Player.
Standard MIDI Files can be imported and their notes matched back to lattice nodes.

# Usage

	eng, err := tonnetz.New(tonnetz.WithLayout(5, 7, 2))
	if err != nil {
		log.Fatal(err)
	}

	h, err := eng.Select(ctx, "session-1", domain.Coord{Row: 2, Column: 3})
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(h.Node.Note, len(h.Edges))

# Layout

Node (row, column) sits at x = column*spacing + (row mod 2)*spacing/2, y = 0 and
z = row*spacing*sin(60°). Each node links right, lower-right and lower-left; links that
would leave the grid are dropped, so border nodes have fewer than six neighbours.

The HTTP server, the MCP server and the CLI in cmd/tonnetz are thin shells around Engine.
*/
package tonnetz
