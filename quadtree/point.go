package quadtree

import "strconv"

// Point represents a location in 2D space.
//
// Owner is set only on the corner points of an object-mode BoundingBox. It is
// a back-reference used to classify query results and is never followed for
// anything else.
type Point struct {
	X, Y  float64
	Owner *BoundingBox
}

func (p *Point) String() string {
	return "[" + strconv.FormatFloat(p.X, 'f', -1, 64) + "," + strconv.FormatFloat(p.Y, 'f', -1, 64) + "]"
}
