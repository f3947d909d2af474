package quadtree

import (
	"errors"
	"testing"
)

func newTestTree(t *testing.T) *QuadTree {
	t.Helper()
	qt, err := NewQuadTree(MustBoundingBox(Point{X: 250, Y: 250}, 250, 250, false))
	if err != nil {
		t.Fatalf("NewQuadTree: %v", err)
	}
	return qt
}

func insertBox(t *testing.T, qt *QuadTree, b *BoundingBox) {
	t.Helper()
	for _, c := range b.Corners() {
		if !qt.Insert(c) {
			t.Fatalf("corner %v of %v was rejected", c.String(), b)
		}
	}
}

func ownersOf(points []*Point) map[*BoundingBox]int {
	owners := make(map[*BoundingBox]int)
	for _, p := range points {
		owners[p.Owner]++
	}
	return owners
}

func TestNewQuadTree(t *testing.T) {
	if _, err := NewQuadTree(nil); !errors.Is(err, ErrNilBoundary) {
		t.Errorf("expected ErrNilBoundary, got %v", err)
	}

	obj := MustBoundingBox(Point{X: 10, Y: 10}, 10, 10, true)
	qt, err := NewQuadTree(obj)
	if err != nil {
		t.Fatalf("NewQuadTree: %v", err)
	}
	if qt.Boundary().IsObject() {
		t.Errorf("tree boundary should be a region-mode box")
	}
	if qt.Boundary().ToRect() != obj.ToRect() {
		t.Errorf("boundary = %+v, want %+v", qt.Boundary().ToRect(), obj.ToRect())
	}
}

func TestInsertWithinCapacityDoesNotSubdivide(t *testing.T) {
	qt := newTestTree(t)
	b := MustBoundingBox(Point{X: 100, Y: 100}, 10, 10, true)

	if !qt.Insert(b.Corners()[0]) {
		t.Fatalf("insert rejected")
	}
	if !qt.IsLeaf() {
		t.Errorf("tree subdivided with %d point(s)", Capacity)
	}
	if qt.Children() != nil {
		t.Errorf("leaf should have no children")
	}
}

func TestInsertOverCapacitySubdividesOnce(t *testing.T) {
	qt := newTestTree(t)
	a := MustBoundingBox(Point{X: 100, Y: 100}, 10, 10, true)
	b := MustBoundingBox(Point{X: 420, Y: 420}, 10, 10, true)

	qt.Insert(a.Corners()[0])
	if !qt.Insert(b.Corners()[0]) {
		t.Fatalf("second insert rejected")
	}

	if qt.IsLeaf() {
		t.Fatalf("expected subdivision")
	}
	if d := qt.Depth(); d != 2 {
		t.Errorf("depth = %d, want 2", d)
	}
	if len(qt.Points()) != 1 || qt.Points()[0] != a.Corners()[0] {
		t.Errorf("existing point should stay at the root")
	}
	children := qt.Children()
	if !children[3].IsLeaf() || len(children[3].Points()) != 1 {
		t.Errorf("second point should settle in the south-east leaf")
	}
	if got := len(qt.Rects()); got != 5 {
		t.Errorf("Rects() returned %d rects, want 5", got)
	}
}

func TestSubdivideQuarters(t *testing.T) {
	qt := newTestTree(t)
	qt.subdivide()

	want := []Rect{
		{X: 0, Y: 0, W: 250, H: 250},
		{X: 250, Y: 0, W: 250, H: 250},
		{X: 0, Y: 250, W: 250, H: 250},
		{X: 250, Y: 250, W: 250, H: 250},
	}
	for i, child := range qt.Children() {
		if got := child.Boundary().ToRect(); got != want[i] {
			t.Errorf("child %d = %+v, want %+v", i, got, want[i])
		}
		if !child.IsLeaf() || len(child.Points()) != 0 {
			t.Errorf("child %d should start as an empty leaf", i)
		}
	}
}

func TestInsertRejects(t *testing.T) {
	qt := newTestTree(t)

	outside := MustBoundingBox(Point{X: 600, Y: 600}, 10, 10, true)
	if qt.Insert(outside.Corners()[0]) {
		t.Errorf("point outside the root boundary was accepted")
	}

	if qt.Insert(&Point{X: 100, Y: 100}) {
		t.Errorf("point without owner was accepted")
	}

	moved := MustBoundingBox(Point{X: 100, Y: 100}, 10, 10, true)
	moved.SetCenter(Point{X: 2000, Y: 2000})
	if qt.Insert(moved.Corners()[0]) {
		t.Errorf("corner whose owner left the tree was accepted")
	}

	if qt.Len() != 0 {
		t.Errorf("rejected points were stored: Len() = %d", qt.Len())
	}
}

func TestInsertCoincidentCorners(t *testing.T) {
	qt := newTestTree(t)
	a := MustBoundingBox(Point{X: 60, Y: 60}, 10, 10, true)
	b := MustBoundingBox(Point{X: 70, Y: 70}, 20, 20, true)
	c := MustBoundingBox(Point{X: 65, Y: 80}, 15, 30, true)

	// All three share the top-left corner (50,50).
	for _, box := range []*BoundingBox{a, b, c} {
		insertBox(t, qt, box)
	}
	if got := qt.Len(); got != 12 {
		t.Errorf("Len() = %d, want 12", got)
	}
}

func TestInsertCornerOnCellEdge(t *testing.T) {
	qt := newTestTree(t)
	filler := MustBoundingBox(Point{X: 100, Y: 400}, 10, 10, true)
	if !qt.Insert(filler.Corners()[0]) {
		t.Fatalf("filler corner rejected")
	}

	// Spans x in [250,300]; its top-left corner (250,90) sits on the
	// NW/NE boundary.
	edge := MustBoundingBox(Point{X: 275, Y: 100}, 25, 10, true)
	corner := edge.Corners()[0]
	if !qt.Insert(corner) {
		t.Fatalf("edge corner rejected")
	}

	children := qt.Children()
	nw, ne := children[0], children[1]
	if !nw.Boundary().ContainsPoint(corner) {
		t.Fatalf("test setup: NW should contain %v", corner.String())
	}
	if len(nw.Points()) != 0 {
		t.Errorf("NW took the corner although the owner only touches it")
	}
	if got := ne.Points(); len(got) != 1 || got[0] != corner {
		t.Errorf("NE points = %v, want [%v]", got, corner.String())
	}
}

func TestQueryRangeTouchingEdge(t *testing.T) {
	qt := newTestTree(t)
	edge := MustBoundingBox(Point{X: 275, Y: 100}, 25, 10, true)
	corner := edge.Corners()[0]
	if !qt.Insert(corner) {
		t.Fatalf("corner rejected")
	}

	// The region's right side is x=250, the owner's left side.
	region := MustBoundingBox(Point{X: 225, Y: 100}, 25, 25, false)
	if region.IntersectsAABB(edge) {
		t.Fatalf("test setup: region should only touch the box")
	}

	got := qt.QueryRange(region)
	if len(got) != 1 || got[0] != corner {
		t.Errorf("QueryRange = %v, want the corner on the shared edge", got)
	}
}

func TestQueryRangeExactBox(t *testing.T) {
	qt := newTestTree(t)
	b1 := MustBoundingBox(Point{X: 50, Y: 50}, 25, 25, true)
	insertBox(t, qt, b1)

	region := MustBoundingBox(Point{X: 50, Y: 50}, 25, 25, false)
	got := qt.QueryRange(region)

	if len(got) != 4 {
		t.Fatalf("expected 4 points, got %d", len(got))
	}
	seen := make(map[*Point]bool)
	for _, p := range got {
		seen[p] = true
	}
	for _, c := range b1.Corners() {
		if !seen[c] {
			t.Errorf("corner %v missing from result", c.String())
		}
	}
}

func TestQueryRangeOwnerOverlap(t *testing.T) {
	qt := newTestTree(t)
	big := MustBoundingBox(Point{X: 250, Y: 250}, 100, 100, true)
	far := MustBoundingBox(Point{X: 50, Y: 450}, 20, 20, true)
	insertBox(t, qt, big)
	insertBox(t, qt, far)

	region := MustBoundingBox(Point{X: 250, Y: 250}, 10, 10, false)
	for _, c := range big.Corners() {
		if region.ContainsPoint(c) {
			t.Fatalf("test setup: corner %v should be outside the region", c.String())
		}
	}

	got := qt.QueryRange(region)
	owners := ownersOf(got)
	if owners[big] != 4 {
		t.Errorf("expected all 4 corners of the overlapped box, got %d", owners[big])
	}
	if owners[far] != 0 {
		t.Errorf("unrelated box returned %d corners", owners[far])
	}
	if len(got) != 4 {
		t.Errorf("expected 4 points, got %d", len(got))
	}
}

func TestQueryRangeNoDuplicates(t *testing.T) {
	qt := newTestTree(t)
	boxes := []*BoundingBox{
		MustBoundingBox(Point{X: 100, Y: 100}, 30, 20, true),
		MustBoundingBox(Point{X: 120, Y: 110}, 15, 40, true),
		MustBoundingBox(Point{X: 300, Y: 200}, 50, 50, true),
		MustBoundingBox(Point{X: 400, Y: 400}, 60, 20, true),
	}
	for _, b := range boxes {
		insertBox(t, qt, b)
	}

	got := qt.QueryRange(qt.Boundary())
	if len(got) != 16 {
		t.Errorf("expected all 16 corners, got %d", len(got))
	}
	seen := make(map[*Point]bool)
	for _, p := range got {
		if seen[p] {
			t.Errorf("point %v returned twice", p.String())
		}
		seen[p] = true
	}
}

func TestQueryRangeOutsideCoverage(t *testing.T) {
	qt := newTestTree(t)
	insertBox(t, qt, MustBoundingBox(Point{X: 100, Y: 100}, 10, 10, true))

	got := qt.QueryRange(MustBoundingBox(Point{X: 2000, Y: 2000}, 10, 10, false))
	if len(got) != 0 {
		t.Errorf("expected empty result, got %d points", len(got))
	}
}

func TestClear(t *testing.T) {
	qt := newTestTree(t)
	for _, b := range []*BoundingBox{
		MustBoundingBox(Point{X: 100, Y: 100}, 30, 20, true),
		MustBoundingBox(Point{X: 300, Y: 200}, 50, 50, true),
	} {
		insertBox(t, qt, b)
	}

	qt.Clear()

	if !qt.IsLeaf() || qt.Len() != 0 || qt.Depth() != 1 {
		t.Errorf("Clear left state behind: leaf=%v len=%d depth=%d", qt.IsLeaf(), qt.Len(), qt.Depth())
	}
	if got := qt.QueryRange(qt.Boundary()); len(got) != 0 {
		t.Errorf("expected empty query after Clear, got %d points", len(got))
	}

	// Clearing a bare leaf is a no-op, and the tree remains usable.
	qt.Clear()
	insertBox(t, qt, MustBoundingBox(Point{X: 50, Y: 50}, 25, 25, true))
	if qt.Len() != 4 {
		t.Errorf("Len() after reuse = %d, want 4", qt.Len())
	}
}

func TestWalkSkipsSubtrees(t *testing.T) {
	qt := newTestTree(t)
	insertBox(t, qt, MustBoundingBox(Point{X: 50, Y: 50}, 25, 25, true))

	visited := 0
	qt.Walk(func(node *QuadTree) bool {
		visited++
		return node == qt
	})
	if visited != 5 {
		t.Errorf("visited %d nodes, want root plus its 4 children", visited)
	}
}
