// Package world drives the quadtree the way a game loop would: it owns a set
// of random boxes and a movable query box, and every cycle rebuilds the tree
// from the boxes' corners before running one range query.
package world

import (
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"cornerquad/quadtree"
)

// Object is a tracked box as seen by renderers.
type Object struct {
	ID   int           `json:"id"`
	Rect quadtree.Rect `json:"rect"`
	Hit  bool          `json:"hit"`
}

// Frame is the result of one rebuild-and-query cycle.
type Frame struct {
	Query   quadtree.Rect   `json:"query"`
	Objects []Object        `json:"objects"`
	Hits    []int           `json:"hits"`    // object IDs in first-seen order
	Points  int             `json:"points"`  // corner points returned by the query
	Dropped int             `json:"dropped"` // corners rejected by the tree
	Nodes   []quadtree.Rect `json:"nodes"`
	Elapsed time.Duration   `json:"elapsed_ns"`
}

// World is safe for concurrent use; cycles are serialised.
type World struct {
	mu sync.Mutex

	cfg     Config
	rand    *rand.Rand
	objects []*quadtree.BoundingBox
	ids     map[*quadtree.BoundingBox]int
	tree    *quadtree.QuadTree
	query   *quadtree.BoundingBox
	cycles  int
}

// New creates a world from cfg and generates its first set of objects.
func New(cfg Config) (*World, error) {
	w := &World{}
	if err := w.Reconfigure(cfg); err != nil {
		return nil, err
	}
	return w, nil
}

// Reconfigure replaces the configuration, rebuilds the tree boundary and query
// box and regenerates all objects. The world is unchanged on error.
func (w *World) Reconfigure(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	root, err := quadtree.NewBoundingBox(quadtree.Point{X: cfg.Width / 2, Y: cfg.Height / 2}, cfg.Width/2, cfg.Height/2, false)
	if err != nil {
		return fmt.Errorf("world: root boundary: %w", err)
	}
	tree, err := quadtree.NewQuadTree(root)
	if err != nil {
		return fmt.Errorf("world: %w", err)
	}
	query, err := quadtree.NewBoundingBox(root.Center(), cfg.QueryHalfWidth, cfg.QueryHalfHeight, false)
	if err != nil {
		return fmt.Errorf("world: query box: %w", err)
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	w.cfg = cfg
	w.rand = rand.New(rand.NewSource(seed))
	w.tree = tree
	w.query = query
	w.regenerate()
	return nil
}

// Config returns the active configuration.
func (w *World) Config() Config {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.cfg
}

// Regenerate replaces every object with a new random box.
func (w *World) Regenerate() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.regenerate()
}

func (w *World) regenerate() {
	boxes := make([]*quadtree.BoundingBox, w.cfg.Objects)
	span := w.cfg.MaxHalfExtent - w.cfg.MinHalfExtent + 1
	for i := range boxes {
		center := quadtree.Point{
			X: float64(w.rand.Intn(int(w.cfg.Width) + 1)),
			Y: float64(w.rand.Intn(int(w.cfg.Height) + 1)),
		}
		hw := float64(w.cfg.MinHalfExtent + w.rand.Intn(span))
		hh := float64(w.cfg.MinHalfExtent + w.rand.Intn(span))
		boxes[i] = quadtree.MustBoundingBox(center, hw, hh, true)
	}
	w.place(boxes)
}

// ErrNotObject is returned by Place for boxes built without cached corners.
var ErrNotObject = errors.New("world: box is not in object mode")

// Place replaces the tracked objects with boxes supplied by the caller. Object
// IDs are indexes into boxes.
func (w *World) Place(boxes []*quadtree.BoundingBox) error {
	for i, b := range boxes {
		if b == nil || !b.IsObject() {
			return fmt.Errorf("%w: object %d", ErrNotObject, i)
		}
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.place(boxes)
	return nil
}

func (w *World) place(boxes []*quadtree.BoundingBox) {
	w.objects = boxes
	w.ids = make(map[*quadtree.BoundingBox]int, len(boxes))
	for i, b := range boxes {
		w.ids[b] = i
	}
}

// Len returns the number of tracked objects.
func (w *World) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.objects)
}

// Cycles returns the number of completed cycles.
func (w *World) Cycles() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.cycles
}

// Cycle moves the query box to center, rebuilds the tree from every object's
// corners and runs one range query.
func (w *World) Cycle(center quadtree.Point) Frame {
	w.mu.Lock()
	defer w.mu.Unlock()

	start := time.Now()
	w.query.SetCenter(center)

	w.tree.Clear()
	dropped := 0
	for _, o := range w.objects {
		for _, c := range o.Corners() {
			// Corners outside the world are not indexed.
			if !w.tree.Insert(c) {
				dropped++
			}
		}
	}

	points := w.tree.QueryRange(w.query)
	hit := make(map[int]bool)
	hits := []int{}
	for _, p := range points {
		id, ok := w.ids[p.Owner]
		if !ok || hit[id] {
			continue
		}
		hit[id] = true
		hits = append(hits, id)
	}

	objects := make([]Object, len(w.objects))
	for i, o := range w.objects {
		objects[i] = Object{ID: i, Rect: o.ToRect(), Hit: hit[i]}
	}

	w.cycles++
	return Frame{
		Query:   w.query.ToRect(),
		Objects: objects,
		Hits:    hits,
		Points:  len(points),
		Dropped: dropped,
		Nodes:   w.tree.Rects(),
		Elapsed: time.Since(start),
	}
}

// TreeRects returns the node boundaries left by the last cycle.
func (w *World) TreeRects() []quadtree.Rect {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.tree.Rects()
}
