/*
Package domain contains the core domain models of the Tonnetz lattice.

It defines the plain data exchanged between the lattice builder and its collaborators
(renderers, audio players, MIDI importers, transports). This package is kept pure and
free of external dependencies like I/O or persistence, following Hexagonal Architecture
principles.

# Key Entities

  - Coord: Identifies a node by (row, column).
  - Node: A lattice cell with its derived position and optional note label.
  - Edge: An undirected adjacency between two neighbouring nodes.
  - Selection: The per-session highlight/activation snapshot.
  - NoteEvent: A timed note-on/note-off decoded from a MIDI file.
*/
package domain
