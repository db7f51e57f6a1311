// Package grid lays a linear memory index out on a 2D cell grid, for the
// viewer to turn a word index into a screen position.
package grid

// GetGridCoords maps a flat memory index to (column, row) coordinates on
// a grid with the given column count.
func GetGridCoords(index, cols int) (x, y int) {
	return index % cols, index / cols
}
