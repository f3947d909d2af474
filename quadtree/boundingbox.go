package quadtree

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrInvalidExtent is returned when a half width or half height is not a
	// positive finite number.
	ErrInvalidExtent = errors.New("quadtree: half extents must be positive and finite")
	// ErrInvalidCenter is returned when a center coordinate is NaN or infinite.
	ErrInvalidCenter = errors.New("quadtree: center must be finite")
)

// Rect is the drawable projection of a BoundingBox: top-left corner plus size.
type Rect struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// BoundingBox is an axis-aligned rectangle described by its center and half
// extents. The y axis grows downward, so Top is the smaller y value.
//
// A box built in object mode caches its four corner points at construction,
// each owned by the box. The corners are not refreshed by SetCenter; the sides
// always are.
type BoundingBox struct {
	center     Point
	halfWidth  float64
	halfHeight float64

	left, right, top, bottom float64

	corners []*Point
}

// NewBoundingBox creates a box around center. When objectMode is set the box
// caches its corner points for insertion into a QuadTree.
func NewBoundingBox(center Point, halfWidth, halfHeight float64, objectMode bool) (*BoundingBox, error) {
	if !finite(center.X) || !finite(center.Y) {
		return nil, fmt.Errorf("%w: got (%v, %v)", ErrInvalidCenter, center.X, center.Y)
	}
	if !(halfWidth > 0) || !(halfHeight > 0) || math.IsInf(halfWidth, 0) || math.IsInf(halfHeight, 0) {
		return nil, fmt.Errorf("%w: got %v x %v", ErrInvalidExtent, halfWidth, halfHeight)
	}

	b := &BoundingBox{
		center:     Point{X: center.X, Y: center.Y},
		halfWidth:  halfWidth,
		halfHeight: halfHeight,
	}
	b.setSides()
	if objectMode {
		b.corners = b.cornerPoints()
	}
	return b, nil
}

// MustBoundingBox is like NewBoundingBox but panics on invalid input.
func MustBoundingBox(center Point, halfWidth, halfHeight float64, objectMode bool) *BoundingBox {
	b, err := NewBoundingBox(center, halfWidth, halfHeight, objectMode)
	if err != nil {
		panic(err)
	}
	return b
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func (b *BoundingBox) Center() Point       { return b.center }
func (b *BoundingBox) HalfWidth() float64  { return b.halfWidth }
func (b *BoundingBox) HalfHeight() float64 { return b.halfHeight }
func (b *BoundingBox) Left() float64       { return b.left }
func (b *BoundingBox) Right() float64      { return b.right }
func (b *BoundingBox) Top() float64        { return b.top }
func (b *BoundingBox) Bottom() float64     { return b.bottom }

// IsObject reports whether the box was built in object mode.
func (b *BoundingBox) IsObject() bool { return b.corners != nil }

// SetCenter moves the box and recomputes its sides. Cached corners keep the
// coordinates they were created with.
func (b *BoundingBox) SetCenter(c Point) {
	b.center = Point{X: c.X, Y: c.Y}
	b.setSides()
}

// Corners returns the cached corners in top-left, bottom-left, top-right,
// bottom-right order, or nil for a region-mode box.
func (b *BoundingBox) Corners() []*Point {
	return b.corners
}

// ContainsPoint checks if p lies inside the box. All four sides are inclusive.
func (b *BoundingBox) ContainsPoint(p *Point) bool {
	return p.X >= b.left && p.X <= b.right &&
		p.Y >= b.top && p.Y <= b.bottom
}

// IntersectsAABB checks if the two boxes overlap with positive area. Boxes
// that only share an edge or a corner do not intersect.
func (b *BoundingBox) IntersectsAABB(other *BoundingBox) bool {
	if other == nil {
		return false
	}
	return b.left < other.right && b.right > other.left &&
		b.top < other.bottom && b.bottom > other.top
}

// ToRect projects the box to a drawable rectangle.
func (b *BoundingBox) ToRect() Rect {
	return Rect{X: b.left, Y: b.top, W: b.halfWidth * 2, H: b.halfHeight * 2}
}

func (b *BoundingBox) String() string {
	return fmt.Sprintf("box(%v, %v ±%v,%v)", b.center.X, b.center.Y, b.halfWidth, b.halfHeight)
}

func (b *BoundingBox) setSides() {
	b.left = b.center.X - b.halfWidth
	b.right = b.center.X + b.halfWidth
	b.top = b.center.Y - b.halfHeight
	b.bottom = b.center.Y + b.halfHeight
}

func (b *BoundingBox) cornerPoints() []*Point {
	return []*Point{
		{X: b.left, Y: b.top, Owner: b},
		{X: b.left, Y: b.bottom, Owner: b},
		{X: b.right, Y: b.top, Owner: b},
		{X: b.right, Y: b.bottom, Owner: b},
	}
}
