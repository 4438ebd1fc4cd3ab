package planner

import (
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/mural-robotics/wallsweep/internal/geom"
)

// PathStats summarizes a planned coverage path. Lengths are in
// work-area units; lane figures are computed over maximal runs of
// consecutive points sharing a Y coordinate, so a detour splits its row
// into separate runs.
type PathStats struct {
	Points       int     `json:"points"`
	Lanes        int     `json:"lanes"`
	Length       float64 `json:"length"`
	MeanLane     float64 `json:"mean_lane_length"`
	P50Lane      float64 `json:"p50_lane_length"`
	P85Lane      float64 `json:"p85_lane_length"`
	CellsVisited int     `json:"cells_visited"`
	CellsFree    int     `json:"cells_free"`
	Coverage     float64 `json:"coverage"`
}

// Stats rebuilds the occupancy grid for the area and summarizes the
// path against it. Coverage is unique visited cells over free cells;
// with the advance-past-unreachable sweep behaviour this can be well
// under 1.0 even for a non-empty path.
func (p *Planner) Stats(area geom.WorkArea, path geom.Path) PathStats {
	grid := BuildGrid(area, p.Resolution())
	s := PathStats{
		Points:    len(path),
		Length:    path.Length(),
		CellsFree: grid.FreeCount(),
	}

	visited := make(map[geom.Point]struct{}, len(path))
	for _, pt := range path {
		visited[pt] = struct{}{}
	}
	s.CellsVisited = len(visited)
	if s.CellsFree > 0 {
		s.Coverage = float64(s.CellsVisited) / float64(s.CellsFree)
	}

	laneLengths := laneRunLengths(path)
	s.Lanes = len(laneLengths)
	if len(laneLengths) == 0 {
		return s
	}
	sort.Float64s(laneLengths)
	s.MeanLane = stat.Mean(laneLengths, nil)
	s.P50Lane = stat.Quantile(0.5, stat.Empirical, laneLengths, nil)
	s.P85Lane = stat.Quantile(0.85, stat.Empirical, laneLengths, nil)
	return s
}

func laneRunLengths(path geom.Path) []float64 {
	var lengths []float64
	start := 0
	for i := 1; i <= len(path); i++ {
		if i == len(path) || path[i].Y != path[start].Y {
			lengths = append(lengths, path[start:i].Length())
			start = i
		}
	}
	return lengths
}
