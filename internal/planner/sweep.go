package planner

import "github.com/mural-robotics/wallsweep/internal/geom"

// Planner produces boustrophedon coverage paths. The zero value plans
// at DefaultResolution.
type Planner struct {
	resolution float64
}

// New returns a Planner with the given grid resolution. Non-positive
// values fall back to DefaultResolution.
func New(resolution float64) *Planner {
	if resolution <= 0 {
		resolution = DefaultResolution
	}
	return &Planner{resolution: resolution}
}

// Resolution returns the cell size the planner rasterizes at.
func (p *Planner) Resolution() float64 {
	if p.resolution <= 0 {
		return DefaultResolution
	}
	return p.resolution
}

// Plan sweeps the work area in horizontal lanes. Rows are taken in
// order, alternating direction each lane; Search routes around
// obstacles between consecutive lane endpoints, and every cell of each
// sub-path is emitted scaled back to continuous coordinates.
//
// Two quirks are part of the contract. The shared endpoint between
// consecutive lanes appears twice in the output, once as the tail of
// one sub-path and once as the head of the next. And when a lane target
// is unreachable the lane contributes no points but the sweep still
// advances to the unreached target, so the next search may start from a
// blocked cell and come back empty too; coverage resumes at the first
// lane whose route exists. Callers get a possibly incomplete path,
// never an error.
//
// The result is empty only when the grid collapses to zero rows or
// columns, or when no lane target is reachable at all.
func (p *Planner) Plan(area geom.WorkArea) geom.Path {
	res := p.Resolution()
	grid := BuildGrid(area, res)

	path := geom.Path{}
	current := Cell{Row: 0, Col: 0}
	rightward := true
	for row := 0; row < grid.Rows; row++ {
		target := Cell{Row: row, Col: 0}
		if rightward {
			target.Col = grid.Cols - 1
		}
		for _, c := range Search(grid, current, target) {
			path = append(path, geom.Point{
				X: float64(c.Col) * res,
				Y: float64(c.Row) * res,
			})
		}
		current = target
		rightward = !rightward
	}
	return path
}
