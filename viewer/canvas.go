package viewer

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

type layer int

// Later layers are drawn on top.
const (
	layerTree layer = iota
	layerObject
	layerHit
	layerQuery
	numLayers
)

// canvas is a braille buffer with one bit mask per layer. Each cell holds a
// 2x4 grid of micro pixels.
type canvas struct {
	w, h  int // in cells
	masks [numLayers][][]uint8
}

func newCanvas(w, h int) *canvas {
	c := &canvas{w: w, h: h}
	for l := range c.masks {
		m := make([][]uint8, h)
		for i := range m {
			m[i] = make([]uint8, w)
		}
		c.masks[l] = m
	}
	return c
}

// microW and microH return the canvas size in micro pixels.
func (c *canvas) microW() int { return c.w * 2 }
func (c *canvas) microH() int { return c.h * 4 }

var brailleBits = [2][4]uint8{
	{0x01, 0x02, 0x04, 0x40},
	{0x08, 0x10, 0x20, 0x80},
}

func (c *canvas) set(l layer, mx, my int) {
	if mx < 0 || my < 0 {
		return
	}
	cx, cy := mx/2, my/4
	if cx >= c.w || cy >= c.h {
		return
	}
	c.masks[l][cy][cx] |= brailleBits[mx%2][my%4]
}

// line draws on the micro grid using Bresenham.
func (c *canvas) line(l layer, x0, y0, x1, y1 int) {
	dx := abs(x1 - x0)
	sx := -1
	if x0 < x1 {
		sx = 1
	}
	dy := -abs(y1 - y0)
	sy := -1
	if y0 < y1 {
		sy = 1
	}
	err := dx + dy
	for {
		c.set(l, x0, y0)
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

func (c *canvas) rect(l layer, x0, y0, x1, y1 int, fill bool) {
	if fill {
		for y := max(y0, 0); y <= min(y1, c.microH()-1); y++ {
			for x := max(x0, 0); x <= min(x1, c.microW()-1); x++ {
				c.set(l, x, y)
			}
		}
		return
	}
	c.line(l, x0, y0, x1, y0)
	c.line(l, x1, y0, x1, y1)
	c.line(l, x1, y1, x0, y1)
	c.line(l, x0, y1, x0, y0)
}

// render returns one string per cell row. Each cell takes the style of the
// topmost layer that has a pixel in it.
func (c *canvas) render(styles [numLayers]lipgloss.Style) []string {
	out := make([]string, c.h)
	for y := 0; y < c.h; y++ {
		var sb strings.Builder
		var run []rune
		runLayer := layer(-1)
		flush := func() {
			if len(run) == 0 {
				return
			}
			if runLayer < 0 {
				sb.WriteString(string(run))
			} else {
				sb.WriteString(styles[runLayer].Render(string(run)))
			}
			run = run[:0]
		}
		for x := 0; x < c.w; x++ {
			var mask uint8
			top := layer(-1)
			for l := layerTree; l < numLayers; l++ {
				if m := c.masks[l][y][x]; m != 0 {
					mask |= m
					top = l
				}
			}
			if top != runLayer {
				flush()
				runLayer = top
			}
			if mask == 0 {
				run = append(run, ' ')
			} else {
				run = append(run, rune(0x2800+int(mask)))
			}
		}
		flush()
		out[y] = sb.String()
	}
	return out
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
