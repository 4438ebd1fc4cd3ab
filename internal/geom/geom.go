// Package geom holds the continuous-space value types shared by the
// planner, the HTTP API, and the trajectory store. All coordinates are
// in meters. The types are plain values: construct them, validate them
// at the system boundary with Validate, and pass them by value.
package geom

import (
	"encoding/json"
	"fmt"
	"math"
)

// Point is a position in continuous work-area coordinates.
//
// On the wire a point is a two-element array [x, y], not an object.
// The robot controller and the web UI both consume that shape, so the
// custom JSON methods below are load-bearing.
type Point struct {
	X float64
	Y float64
}

// MarshalJSON implements json.Marshaler for Point.
func (p Point) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]float64{p.X, p.Y})
}

// UnmarshalJSON implements json.Unmarshaler for Point.
func (p *Point) UnmarshalJSON(data []byte) error {
	var pair []float64
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("failed to parse point: %w", err)
	}
	if len(pair) != 2 {
		return fmt.Errorf("point must be a two-element array, got %d elements", len(pair))
	}
	p.X, p.Y = pair[0], pair[1]
	return nil
}

// Obstacle is an axis-aligned rectangle blocking part of the work area.
// Origin is the corner nearest the work-area origin; extents grow away
// from it. Obstacles may overlap each other and may extend past the
// work-area boundary.
type Obstacle struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// WorkArea is the rectangular region to be covered, with its obstacles.
type WorkArea struct {
	Width     float64    `json:"width"`
	Height    float64    `json:"height"`
	Obstacles []Obstacle `json:"obstacles,omitempty"`
}

// Path is an ordered sequence of continuous-space points. Consecutive
// duplicate points are legal (lane boundaries repeat the shared cell).
type Path []Point

// Length returns the total polyline length of the path in work-area
// units. Zero-length segments contribute nothing.
func (p Path) Length() float64 {
	var total float64
	for i := 1; i < len(p); i++ {
		total += math.Hypot(p[i].X-p[i-1].X, p[i].Y-p[i-1].Y)
	}
	return total
}

// Validate checks that the work area is usable as planner input. The
// planner itself degrades gracefully on bad geometry; callers that want
// to reject bad requests outright (the HTTP API does) call this first.
func (w WorkArea) Validate() error {
	if !isFinite(w.Width) || !isFinite(w.Height) {
		return fmt.Errorf("work area dimensions must be finite, got %vx%v", w.Width, w.Height)
	}
	if w.Width <= 0 || w.Height <= 0 {
		return fmt.Errorf("work area dimensions must be positive, got %vx%v", w.Width, w.Height)
	}
	for i, o := range w.Obstacles {
		if !isFinite(o.X) || !isFinite(o.Y) || !isFinite(o.Width) || !isFinite(o.Height) {
			return fmt.Errorf("obstacle %d has non-finite geometry", i)
		}
	}
	return nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
