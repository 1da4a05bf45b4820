/*
Package lattice builds the offset hexagonal grid ("Tonnetz") that the rest of the
system renders, highlights and plays.

A lattice of R rows and C columns places node (row, column) at

	x = column*spacing + (row mod 2)*(spacing/2)
	y = 0
	z = row*spacing*sin(60°)

so odd rows are shifted right by half a column and every edge has length spacing.
Each node discovers up to three edges (right, lower-right, lower-left); the other
three directions are discovered by its neighbours, which keeps the edge set free of
duplicates without any bookkeeping. Candidates outside the grid are dropped.

A built Lattice is immutable and safe for concurrent use.
*/
package lattice
