package planner

import (
	"testing"

	"github.com/mural-robotics/wallsweep/internal/geom"
)

func TestBuildGridDimensions(t *testing.T) {
	tests := []struct {
		name       string
		width      float64
		height     float64
		resolution float64
		wantRows   int
		wantCols   int
	}{
		{"5x5 at default resolution", 5, 5, 0.05, 100, 100},
		{"1x1 at default resolution", 1, 1, 0.05, 20, 20},
		{"sub-cell margin dropped", 0.99, 0.99, 0.05, 19, 19},
		{"non-square", 2, 1.5, 0.25, 6, 8},
		{"zero width", 0, 5, 0.05, 100, 0},
		{"negative height clamps to zero rows", 5, -1, 0.05, 0, 100},
		{"area smaller than one cell", 0.04, 0.04, 0.05, 0, 0},
		{"zero resolution", 5, 5, 0, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := BuildGrid(geom.WorkArea{Width: tt.width, Height: tt.height}, tt.resolution)
			if g.Rows != tt.wantRows || g.Cols != tt.wantCols {
				t.Errorf("BuildGrid(%vx%v, %v) = %dx%d grid, want %dx%d",
					tt.width, tt.height, tt.resolution, g.Rows, g.Cols, tt.wantRows, tt.wantCols)
			}
		})
	}
}

func TestBuildGridMarksObstacleCells(t *testing.T) {
	// 0.25 resolution keeps every index computation exact in float64.
	area := geom.WorkArea{
		Width:  2,
		Height: 2,
		Obstacles: []geom.Obstacle{
			{X: 0.5, Y: 0.5, Width: 0.5, Height: 0.5},
		},
	}
	g := BuildGrid(area, 0.25)
	if g.Rows != 8 || g.Cols != 8 {
		t.Fatalf("grid is %dx%d, want 8x8", g.Rows, g.Cols)
	}

	// Inclusive end index: origin+extent lands on cell 4, so rows and
	// cols 2..4 are blocked.
	for r := 0; r < g.Rows; r++ {
		for c := 0; c < g.Cols; c++ {
			want := r >= 2 && r <= 4 && c >= 2 && c <= 4
			if got := g.Blocked(Cell{Row: r, Col: c}); got != want {
				t.Errorf("Blocked(%d,%d) = %v, want %v", r, c, got, want)
			}
		}
	}
	if free := g.FreeCount(); free != 64-9 {
		t.Errorf("FreeCount() = %d, want %d", free, 64-9)
	}
}

func TestBuildGridClampsOverhangingObstacle(t *testing.T) {
	area := geom.WorkArea{
		Width:  1,
		Height: 1,
		Obstacles: []geom.Obstacle{
			{X: 0.75, Y: -0.5, Width: 2, Height: 1},
		},
	}
	g := BuildGrid(area, 0.25)
	if g.Rows != 4 || g.Cols != 4 {
		t.Fatalf("grid is %dx%d, want 4x4", g.Rows, g.Cols)
	}

	for r := 0; r < g.Rows; r++ {
		for c := 0; c < g.Cols; c++ {
			want := c == 3 && r <= 2
			if got := g.Blocked(Cell{Row: r, Col: c}); got != want {
				t.Errorf("Blocked(%d,%d) = %v, want %v", r, c, got, want)
			}
		}
	}
}

func TestBuildGridIgnoresDegenerateObstacles(t *testing.T) {
	tests := []struct {
		name     string
		obstacle geom.Obstacle
	}{
		{"zero width", geom.Obstacle{X: 0.5, Y: 0.5, Width: 0, Height: 0.5}},
		{"zero height", geom.Obstacle{X: 0.5, Y: 0.5, Width: 0.5, Height: 0}},
		{"negative width", geom.Obstacle{X: 0.5, Y: 0.5, Width: -1, Height: 0.5}},
		{"fully left of area", geom.Obstacle{X: -5, Y: 0.5, Width: 1, Height: 0.5}},
		{"fully beyond far edge", geom.Obstacle{X: 3, Y: 3, Width: 1, Height: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			area := geom.WorkArea{Width: 2, Height: 2, Obstacles: []geom.Obstacle{tt.obstacle}}
			g := BuildGrid(area, 0.25)
			if free := g.FreeCount(); free != g.Rows*g.Cols {
				t.Errorf("FreeCount() = %d, want %d (no cell should be blocked)", free, g.Rows*g.Cols)
			}
		})
	}
}

func TestGridBlockedOutOfBounds(t *testing.T) {
	g := BuildGrid(geom.WorkArea{Width: 1, Height: 1}, 0.25)
	oob := []Cell{
		{Row: -1, Col: 0},
		{Row: 0, Col: -1},
		{Row: 4, Col: 0},
		{Row: 0, Col: 4},
	}
	for _, c := range oob {
		if !g.Blocked(c) {
			t.Errorf("Blocked(%v) = false, want true for out-of-bounds cell", c)
		}
		if g.InBounds(c) {
			t.Errorf("InBounds(%v) = true, want false", c)
		}
	}
	if !g.InBounds(Cell{Row: 3, Col: 3}) {
		t.Error("InBounds(3,3) = false, want true")
	}
}
