// Package planner implements boustrophedon coverage planning over an
// occupancy grid. A work area is rasterized into fixed-size cells,
// obstacles are baked in at build time, and the sweep driver walks the
// grid row by row, alternating direction and routing around obstacles
// with an A* search between consecutive lane endpoints.
//
// The package is pure computation: no I/O, no locks, no state shared
// between calls. Every Plan call builds its own grid and search
// bookkeeping and discards them on return, so concurrent calls need no
// synchronization. Callers that must bound execution time impose their
// own deadline; grid size grows with area / resolution² and a huge work
// area makes a single call proportionally expensive.
package planner

import "github.com/mural-robotics/wallsweep/internal/geom"

// DefaultResolution is the grid cell size in work-area units (meters).
// One cell covers a 5 cm square, matching the spray head footprint.
const DefaultResolution = 0.05

// Cell addresses one grid entry. Valid iff 0 <= Row < Rows and
// 0 <= Col < Cols.
type Cell struct {
	Row int
	Col int
}

// Grid is the occupancy rasterization of a work area. Built once per
// planning run and never mutated afterwards; there is no incremental
// update path.
type Grid struct {
	Rows int
	Cols int

	blocked []bool // row-major, length Rows*Cols
}

// BuildGrid rasterizes the work area at the given resolution.
//
// Dimensions truncate: rows = int(height/res), cols = int(width/res),
// so a sub-cell margin at the far edges is silently dropped. For each
// obstacle the covered cell range is computed by truncating the origin
// indices and the origin+extent indices, the latter treated inclusive,
// then clamped to the grid, so obstacles poking past the boundary mark
// only their in-bounds cells. Obstacles with zero or negative extents
// mark nothing. Degenerate input is never an error here: non-positive
// dimensions or resolution produce an empty grid.
func BuildGrid(area geom.WorkArea, resolution float64) *Grid {
	g := &Grid{}
	if resolution <= 0 {
		return g
	}
	g.Rows = int(area.Height / resolution)
	g.Cols = int(area.Width / resolution)
	if g.Rows < 0 {
		g.Rows = 0
	}
	if g.Cols < 0 {
		g.Cols = 0
	}
	if g.Rows == 0 || g.Cols == 0 {
		return g
	}
	g.blocked = make([]bool, g.Rows*g.Cols)
	for _, o := range area.Obstacles {
		g.mark(o, resolution)
	}
	return g
}

func (g *Grid) mark(o geom.Obstacle, resolution float64) {
	if o.Width <= 0 || o.Height <= 0 {
		return
	}
	rowStart := int(o.Y / resolution)
	rowEnd := int((o.Y + o.Height) / resolution)
	colStart := int(o.X / resolution)
	colEnd := int((o.X + o.Width) / resolution)
	if rowStart < 0 {
		rowStart = 0
	}
	if colStart < 0 {
		colStart = 0
	}
	if rowEnd >= g.Rows {
		rowEnd = g.Rows - 1
	}
	if colEnd >= g.Cols {
		colEnd = g.Cols - 1
	}
	for r := rowStart; r <= rowEnd; r++ {
		for c := colStart; c <= colEnd; c++ {
			g.blocked[r*g.Cols+c] = true
		}
	}
}

// InBounds reports whether c addresses a cell inside the grid.
func (g *Grid) InBounds(c Cell) bool {
	return c.Row >= 0 && c.Row < g.Rows && c.Col >= 0 && c.Col < g.Cols
}

// Blocked reports whether c is obstacle-occupied. Cells outside the
// grid count as blocked.
func (g *Grid) Blocked(c Cell) bool {
	if !g.InBounds(c) {
		return true
	}
	return g.blocked[c.Row*g.Cols+c.Col]
}

// FreeCount returns the number of unblocked cells.
func (g *Grid) FreeCount() int {
	free := 0
	for _, b := range g.blocked {
		if !b {
			free++
		}
	}
	return free
}
