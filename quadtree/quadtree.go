// Package quadtree implements a point-region quadtree over the corner points
// of axis-aligned boxes.
//
// Boxes are not stored directly. Each object-mode BoundingBox contributes its
// four corners, and every corner points back at the box that owns it. A range
// query returns the corners that fall inside the region or whose owner overlaps
// it, so callers recover the matching boxes through Point.Owner.
//
// A QuadTree is not safe for concurrent use.
package quadtree

import "errors"

// Capacity is the number of points a leaf holds before it subdivides.
const Capacity = 1

// ErrNilBoundary is returned by NewQuadTree when no boundary is given.
var ErrNilBoundary = errors.New("quadtree: nil boundary")

// QuadTree is a spatial data structure for corner point storage and retrieval.
//
// A node is a leaf until its first overflowing insert. Subdivision creates all
// four children at once and keeps the points already stored at the node in
// place, so an internal node may still hold points of its own.
type QuadTree struct {
	boundary             *BoundingBox
	points               []*Point
	northWest, northEast *QuadTree
	southWest, southEast *QuadTree
}

// NewQuadTree creates an empty tree covering boundary. An object-mode boundary
// is copied into a region-mode box so the tree never holds owned corners of its
// own.
func NewQuadTree(boundary *BoundingBox) (*QuadTree, error) {
	if boundary == nil {
		return nil, ErrNilBoundary
	}
	if boundary.IsObject() {
		region, err := NewBoundingBox(boundary.Center(), boundary.HalfWidth(), boundary.HalfHeight(), false)
		if err != nil {
			return nil, err
		}
		boundary = region
	}
	return newNode(boundary), nil
}

func newNode(boundary *BoundingBox) *QuadTree {
	return &QuadTree{
		boundary: boundary,
		points:   make([]*Point, 0, Capacity),
	}
}

// Boundary returns the region covered by the node.
func (qt *QuadTree) Boundary() *BoundingBox { return qt.boundary }

// IsLeaf reports whether the node has not been subdivided.
func (qt *QuadTree) IsLeaf() bool { return qt.northWest == nil }

// Points returns the points stored directly at this node.
func (qt *QuadTree) Points() []*Point { return qt.points }

// Children returns the four children in NW, NE, SW, SE order, or nil for a
// leaf.
func (qt *QuadTree) Children() []*QuadTree {
	if qt.IsLeaf() {
		return nil
	}
	return []*QuadTree{qt.northWest, qt.northEast, qt.southWest, qt.southEast}
}

// Insert adds p to the tree. It returns false when p lies outside the tree,
// has no owner, or its owner no longer overlaps the node that would hold it.
// A false result is not an error; the point is simply not indexed.
func (qt *QuadTree) Insert(p *Point) bool {
	if !qt.boundary.ContainsPoint(p) || p.Owner == nil || !qt.boundary.IntersectsAABB(p.Owner) {
		return false
	}

	// If we have capacity and aren't divided, add the point
	if len(qt.points) < Capacity && qt.IsLeaf() {
		qt.points = append(qt.points, p)
		return true
	}

	if qt.IsLeaf() {
		qt.subdivide()
	}

	return qt.northWest.Insert(p) ||
		qt.northEast.Insert(p) ||
		qt.southWest.Insert(p) ||
		qt.southEast.Insert(p)
}

// subdivide splits the node into four quarters. Points already stored here
// are left where they are.
func (qt *QuadTree) subdivide() {
	c := qt.boundary.Center()
	hw := qt.boundary.HalfWidth() / 2
	hh := qt.boundary.HalfHeight() / 2

	quarter := func(x, y float64) *QuadTree {
		b := &BoundingBox{
			center:     Point{X: x, Y: y},
			halfWidth:  hw,
			halfHeight: hh,
		}
		b.setSides()
		return newNode(b)
	}
	qt.northWest = quarter(c.X-hw, c.Y-hh)
	qt.northEast = quarter(c.X+hw, c.Y-hh)
	qt.southWest = quarter(c.X-hw, c.Y+hh)
	qt.southEast = quarter(c.X+hw, c.Y+hh)
}

// QueryRange returns every point whose coordinates lie inside region or whose
// owner intersects region. Results are ordered node by node, the node's own
// points first and then its children in NW, NE, SW, SE order.
func (qt *QuadTree) QueryRange(region *BoundingBox) []*Point {
	var results []*Point
	qt.query(region, &results)
	return results
}

func (qt *QuadTree) query(region *BoundingBox, results *[]*Point) {
	if !qt.boundary.IntersectsAABB(region) {
		return
	}
	for _, p := range qt.points {
		if region.ContainsPoint(p) || region.IntersectsAABB(p.Owner) {
			*results = append(*results, p)
		}
	}

	if qt.IsLeaf() {
		return
	}
	qt.northWest.query(region, results)
	qt.northEast.query(region, results)
	qt.southWest.query(region, results)
	qt.southEast.query(region, results)
}

// Clear removes every point and child, returning the tree to a single empty
// leaf. It is safe to call on an already empty tree.
func (qt *QuadTree) Clear() {
	clear(qt.points)
	qt.points = qt.points[:0]

	for _, child := range qt.Children() {
		child.Clear()
	}
	qt.northWest, qt.northEast = nil, nil
	qt.southWest, qt.southEast = nil, nil
}

// Walk visits the node and its descendants in pre-order. Returning false from
// fn skips the children of the visited node.
func (qt *QuadTree) Walk(fn func(node *QuadTree) bool) {
	if !fn(qt) {
		return
	}
	for _, child := range qt.Children() {
		child.Walk(fn)
	}
}

// Rects returns the boundary of every node, root first, for drawing the
// subdivision grid.
func (qt *QuadTree) Rects() []Rect {
	var rects []Rect
	qt.Walk(func(node *QuadTree) bool {
		rects = append(rects, node.boundary.ToRect())
		return true
	})
	return rects
}

// Len returns the number of points stored in the tree.
func (qt *QuadTree) Len() int {
	n := 0
	qt.Walk(func(node *QuadTree) bool {
		n += len(node.points)
		return true
	})
	return n
}

// Depth returns the number of levels in the tree. A single leaf has depth 1.
func (qt *QuadTree) Depth() int {
	deepest := 0
	for _, child := range qt.Children() {
		if d := child.Depth(); d > deepest {
			deepest = d
		}
	}
	return deepest + 1
}
