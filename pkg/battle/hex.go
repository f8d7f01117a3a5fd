package battle

import "fmt"

// Coord is an axial hex coordinate. The board is a rectangle of axial
// cells with (0,0) at the top-left corner.
type Coord struct {
	Q int `json:"q"`
	R int `json:"r"`
}

func (c Coord) String() string {
	return fmt.Sprintf("(%d,%d)", c.Q, c.R)
}

// hexDirections lists the six axial neighbor offsets in a fixed order.
// Order matters: anything that iterates neighbors must be deterministic.
var hexDirections = [6]Coord{
	{1, 0}, {1, -1}, {0, -1}, {-1, 0}, {-1, 1}, {0, 1},
}

// Neighbors returns the six adjacent coordinates, including any that
// fall off the board. Callers filter with Board.InBounds.
func (c Coord) Neighbors() [6]Coord {
	var out [6]Coord
	for i, d := range hexDirections {
		out[i] = Coord{c.Q + d.Q, c.R + d.R}
	}
	return out
}

// Distance is the axial hex distance between two coordinates.
func (c Coord) Distance(o Coord) int {
	dq := c.Q - o.Q
	dr := c.R - o.R
	ds := dq + dr
	return max(abs(dq), abs(dr), abs(ds))
}

// Adjacent reports whether o is one of c's six neighbors.
func (c Coord) Adjacent(o Coord) bool {
	return c.Distance(o) == 1
}

// Less orders coordinates by q, then r. Used wherever a tie between
// hexes must break the same way every time.
func (c Coord) Less(o Coord) bool {
	if c.Q != o.Q {
		return c.Q < o.Q
	}
	return c.R < o.R
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
