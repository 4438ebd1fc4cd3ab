// Command plancheck plans a coverage path for a work-area description
// offline and reports the path statistics, without a database or robot.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/mural-robotics/wallsweep/internal/geom"
	"github.com/mural-robotics/wallsweep/internal/planner"
	"github.com/mural-robotics/wallsweep/internal/viz"
)

// planInput mirrors the JSON body of POST /api/trajectories so the same
// file can be fed to either.
type planInput struct {
	Name       string          `json:"name"`
	WallWidth  float64         `json:"wall_width"`
	WallHeight float64         `json:"wall_height"`
	Obstacles  []geom.Obstacle `json:"obstacles"`
}

func (in *planInput) toWorkArea() geom.WorkArea {
	return geom.WorkArea{
		Width:     in.WallWidth,
		Height:    in.WallHeight,
		Obstacles: in.Obstacles,
	}
}

func main() {
	var resolution float64
	var pngOut string
	var htmlOut string

	flag.Float64Var(&resolution, "resolution", planner.DefaultResolution, "grid resolution in metres")
	flag.StringVar(&pngOut, "png", "", "write a PNG rendering of the planned path to this file")
	flag.StringVar(&htmlOut, "html", "", "write an interactive HTML chart of the planned path to this file")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: plancheck [flags] <workarea.json>")
		flag.PrintDefaults()
		os.Exit(2)
	}

	input, err := loadPlanInput(flag.Arg(0))
	if err != nil {
		log.Fatalf("load work area: %v", err)
	}

	area := input.toWorkArea()
	if err := area.Validate(); err != nil {
		log.Fatalf("invalid work area: %v", err)
	}

	p := planner.New(resolution)
	grid := planner.BuildGrid(area, p.Resolution())

	name := input.Name
	if name == "" {
		name = flag.Arg(0)
	}
	fmt.Printf("Planning %q: %.2f x %.2fm wall, %d obstacles, %dx%d grid at %vm resolution\n",
		name, area.Width, area.Height, len(area.Obstacles), grid.Cols, grid.Rows, p.Resolution())

	start := time.Now()
	path := p.Plan(area)
	elapsed := time.Since(start)

	stats := p.Stats(area, path)
	fmt.Printf("\nPlanned %d points in %v\n", stats.Points, elapsed.Round(time.Microsecond))
	fmt.Printf("  lanes:       %d\n", stats.Lanes)
	fmt.Printf("  path length: %.2fm\n", stats.Length)
	fmt.Printf("  mean lane:   %.2fm (p50 %.2fm, p85 %.2fm)\n", stats.MeanLane, stats.P50Lane, stats.P85Lane)
	fmt.Printf("  coverage:    %.1f%% (%d of %d free cells)\n", stats.Coverage*100, stats.CellsVisited, stats.CellsFree)

	if pngOut != "" {
		if err := writePNG(area, path, p.Resolution(), pngOut); err != nil {
			log.Fatalf("write png: %v", err)
		}
		fmt.Printf("✓ wrote %s\n", pngOut)
	}

	if htmlOut != "" {
		if err := writeHTML(area, path, p.Resolution(), htmlOut); err != nil {
			log.Fatalf("write html: %v", err)
		}
		fmt.Printf("✓ wrote %s\n", htmlOut)
	}
}

func loadPlanInput(path string) (*planInput, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var input planInput
	if err := json.Unmarshal(data, &input); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &input, nil
}

func writePNG(area geom.WorkArea, path geom.Path, resolution float64, out string) error {
	f, err := os.Create(out)
	if err != nil {
		return err
	}
	defer f.Close()
	return viz.RenderPathPNG(area, path, resolution, f)
}

func writeHTML(area geom.WorkArea, path geom.Path, resolution float64, out string) error {
	f, err := os.Create(out)
	if err != nil {
		return err
	}
	defer f.Close()
	return viz.PathChartHTML(area, path, resolution, f)
}
