// Package viewer renders a world in the terminal with braille characters.
// The query box follows the mouse.
package viewer

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"cornerquad/quadtree"
	"cornerquad/world"
)

const (
	headerHeight = 1
	footerHeight = 1
)

type tickMsg time.Time

// ReloadMsg tells the viewer that the world was reconfigured from disk.
type ReloadMsg struct {
	Err error
}

type Model struct {
	world *world.World

	width  int
	height int

	center quadtree.Point
	frame  world.Frame

	showObjects bool
	drawTree    bool
	helpVisible bool

	status string
}

func New(w *world.World) Model {
	cfg := w.Config()
	return Model{
		world:       w,
		center:      quadtree.Point{X: cfg.Width / 2, Y: cfg.Height / 2},
		showObjects: true,
		drawTree:    true,
		helpVisible: true,
		status:      "cornerquad ready",
	}
}

func (m Model) Init() tea.Cmd { return m.tick() }

func (m Model) tick() tea.Cmd {
	return tea.Tick(m.world.Config().Viewer.FrameInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case tickMsg:
		m.frame = m.world.Cycle(m.center)
		return m, m.tick()
	case ReloadMsg:
		if msg.Err != nil {
			m.status = "reload: " + msg.Err.Error()
		} else {
			m.status = fmt.Sprintf("reloaded: %d objects", m.world.Len())
		}
	case tea.MouseMsg:
		if x, y, ok := m.cellToWorld(msg.X, msg.Y); ok {
			m.center = quadtree.Point{X: x, Y: y}
		}
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			return m, tea.Quit
		case " ":
			m.world.Regenerate()
			m.status = fmt.Sprintf("regenerated %d objects", m.world.Len())
		case "e":
			m.showObjects = !m.showObjects
			m.status = fmt.Sprintf("objects: %v", m.showObjects)
		case "f":
			m.drawTree = !m.drawTree
			m.status = fmt.Sprintf("tree: %v", m.drawTree)
		case "h":
			m.helpVisible = !m.helpVisible
		case "up":
			m.center.Y -= m.step()
		case "down":
			m.center.Y += m.step()
		case "left":
			m.center.X -= m.step()
		case "right":
			m.center.X += m.step()
		}
	}
	return m, nil
}

// step is the keyboard move distance, 2% of the world width.
func (m Model) step() float64 {
	return m.world.Config().Width / 50
}

func (m Model) mapSize() (int, int) {
	return max(10, m.width), max(4, m.height-headerHeight-footerHeight)
}

// scale returns micro pixels per world unit on each axis.
func (m Model) scale() (float64, float64) {
	cfg := m.world.Config()
	w, h := m.mapSize()
	return float64(w*2-1) / cfg.Width, float64(h*4-1) / cfg.Height
}

func (m Model) toMicro(x, y float64) (int, int) {
	sx, sy := m.scale()
	return int(math.Round(x * sx)), int(math.Round(y * sy))
}

// cellToWorld maps a terminal cell to world coordinates at the cell center.
func (m Model) cellToWorld(cx, cy int) (float64, float64, bool) {
	w, h := m.mapSize()
	cy -= headerHeight
	if cx < 0 || cx >= w || cy < 0 || cy >= h {
		return 0, 0, false
	}
	sx, sy := m.scale()
	return (float64(cx*2) + 0.5) / sx, (float64(cy*4) + 1.5) / sy, true
}

func (m Model) drawRect(c *canvas, l layer, r quadtree.Rect, fill bool) {
	x0, y0 := m.toMicro(r.X, r.Y)
	x1, y1 := m.toMicro(r.X+r.W, r.Y+r.H)
	c.rect(l, x0, y0, x1, y1, fill)
}

func (m Model) renderMap() string {
	w, h := m.mapSize()
	c := newCanvas(w, h)

	if m.drawTree {
		for _, r := range m.frame.Nodes {
			m.drawRect(c, layerTree, r, false)
		}
	}
	for _, o := range m.frame.Objects {
		l := layerObject
		if o.Hit {
			l = layerHit
		}
		if m.showObjects {
			m.drawRect(c, l, o.Rect, o.Hit)
			continue
		}
		for _, p := range [][2]float64{
			{o.Rect.X, o.Rect.Y},
			{o.Rect.X, o.Rect.Y + o.Rect.H},
			{o.Rect.X + o.Rect.W, o.Rect.Y},
			{o.Rect.X + o.Rect.W, o.Rect.Y + o.Rect.H},
		} {
			mx, my := m.toMicro(p[0], p[1])
			c.set(l, mx, my)
		}
	}
	m.drawRect(c, layerQuery, m.frame.Query, false)

	return strings.Join(c.render(layerStyles), "\n")
}

func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	w, h := m.mapSize()

	header := titleStyle.Render(" cornerquad ─ corner point quadtree ")
	header = lipgloss.NewStyle().Width(w).Render(header)

	mapView := lipgloss.NewStyle().Width(w).Height(h).Render(m.renderMap())

	stats := fmt.Sprintf(" hits=%d pts=%d dropped=%d nodes=%d %v ",
		len(m.frame.Hits), m.frame.Points, m.frame.Dropped, len(m.frame.Nodes), m.frame.Elapsed.Round(time.Microsecond))
	footer := dimStyle.Render(" "+m.status+" ") + dimStyle.Render(stats) + m.renderHelp()
	footer = lipgloss.NewStyle().Width(w).MaxHeight(footerHeight).Render(footer)

	ui := lipgloss.JoinVertical(lipgloss.Left, header, mapView, footer)
	return appStyle.Width(w).Height(m.height).Render(ui)
}

func (m Model) renderHelp() string {
	if !m.helpVisible {
		return ""
	}
	keys := []string{
		"mouse/↑↓←→ move",
		"space new",
		"e objects",
		"f tree",
		"h help",
		"q quit",
	}
	return dimStyle.Render(" " + strings.Join(keys, "  "))
}
