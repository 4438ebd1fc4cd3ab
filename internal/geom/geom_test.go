package geom

import (
	"encoding/json"
	"math"
	"strings"
	"testing"
)

func TestPointJSONShape(t *testing.T) {
	got, err := json.Marshal(Point{X: 1.25, Y: 0.5})
	if err != nil {
		t.Fatalf("Marshal returned error: %v", err)
	}
	if string(got) != "[1.25,0.5]" {
		t.Errorf("Marshal(Point{1.25, 0.5}) = %s, want [1.25,0.5]", got)
	}

	var p Point
	if err := json.Unmarshal([]byte("[2, 3.5]"), &p); err != nil {
		t.Fatalf("Unmarshal returned error: %v", err)
	}
	if p.X != 2 || p.Y != 3.5 {
		t.Errorf("Unmarshal([2, 3.5]) = %+v, want {2 3.5}", p)
	}
}

func TestPointUnmarshalRejectsBadShapes(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr string
	}{
		{"object instead of array", `{"x":1,"y":2}`, "failed to parse point"},
		{"too few elements", `[1]`, "two-element array"},
		{"too many elements", `[1,2,3]`, "two-element array"},
		{"non-numeric element", `[1,"a"]`, "failed to parse point"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var p Point
			err := json.Unmarshal([]byte(tt.input), &p)
			if err == nil {
				t.Fatalf("Unmarshal(%s) succeeded, want error", tt.input)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Unmarshal(%s) error = %v, want substring %q", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestPathLength(t *testing.T) {
	tests := []struct {
		name     string
		path     Path
		expected float64
	}{
		{"empty", Path{}, 0},
		{"single point", Path{{0, 0}}, 0},
		{"straight segment", Path{{0, 0}, {3, 4}}, 5},
		{"duplicate points contribute nothing", Path{{1, 1}, {1, 1}, {2, 1}}, 1},
		{"L shape", Path{{0, 0}, {1, 0}, {1, 1}}, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.path.Length()
			if math.Abs(got-tt.expected) > 1e-9 {
				t.Errorf("Length() = %f, want %f", got, tt.expected)
			}
		})
	}
}

func TestWorkAreaValidate(t *testing.T) {
	tests := []struct {
		name    string
		area    WorkArea
		wantErr bool
	}{
		{"valid without obstacles", WorkArea{Width: 5, Height: 5}, false},
		{"valid with obstacle", WorkArea{Width: 5, Height: 5, Obstacles: []Obstacle{{X: 1, Y: 1, Width: 0.5, Height: 0.5}}}, false},
		{"obstacle past boundary is still valid", WorkArea{Width: 2, Height: 2, Obstacles: []Obstacle{{X: 1.5, Y: 1.5, Width: 3, Height: 3}}}, false},
		{"zero-extent obstacle is still valid", WorkArea{Width: 2, Height: 2, Obstacles: []Obstacle{{X: 1, Y: 1}}}, false},
		{"zero width", WorkArea{Width: 0, Height: 5}, true},
		{"negative height", WorkArea{Width: 5, Height: -1}, true},
		{"NaN width", WorkArea{Width: math.NaN(), Height: 5}, true},
		{"infinite height", WorkArea{Width: 5, Height: math.Inf(1)}, true},
		{"NaN obstacle origin", WorkArea{Width: 5, Height: 5, Obstacles: []Obstacle{{X: math.NaN(), Y: 0, Width: 1, Height: 1}}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.area.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
