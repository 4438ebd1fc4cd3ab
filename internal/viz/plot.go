// Package viz renders planned coverage paths for human inspection: a
// static PNG via gonum/plot and an interactive HTML chart via
// go-echarts. Both are debugging surfaces; the web UI draws its own
// canvas from the JSON API.
package viz

import (
	"fmt"
	"image/color"
	"io"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/mural-robotics/wallsweep/internal/geom"
)

const plotWidth = 10 * vg.Inch

var (
	pathColor     = color.RGBA{R: 38, G: 130, B: 142, A: 255}
	obstacleColor = color.RGBA{R: 158, G: 158, B: 158, A: 255}
	startColor    = color.RGBA{R: 53, G: 183, B: 121, A: 255}
	endColor      = color.RGBA{R: 255, G: 82, B: 82, A: 255}
)

// RenderPathPNG draws the work area, its obstacles and the coverage
// path to w as a PNG. The image height follows the wall's aspect ratio
// so lanes keep their proportions.
func RenderPathPNG(area geom.WorkArea, path geom.Path, resolution float64, w io.Writer) error {
	p := plot.New()
	p.Title.Text = fmt.Sprintf("Coverage path: %d points at %vm resolution", len(path), resolution)
	p.X.Label.Text = "X (m)"
	p.Y.Label.Text = "Y (m)"
	p.X.Min, p.X.Max = 0, area.Width
	p.Y.Min, p.Y.Max = 0, area.Height

	for _, o := range area.Obstacles {
		poly, err := plotter.NewPolygon(plotter.XYs{
			{X: o.X, Y: o.Y},
			{X: o.X + o.Width, Y: o.Y},
			{X: o.X + o.Width, Y: o.Y + o.Height},
			{X: o.X, Y: o.Y + o.Height},
		})
		if err != nil {
			return fmt.Errorf("failed to build obstacle polygon: %w", err)
		}
		poly.Color = obstacleColor
		p.Add(poly)
	}

	if len(path) > 0 {
		pts := make(plotter.XYs, len(path))
		for i, pt := range path {
			pts[i] = plotter.XY{X: pt.X, Y: pt.Y}
		}

		line, err := plotter.NewLine(pts)
		if err != nil {
			return fmt.Errorf("failed to build path line: %w", err)
		}
		line.Color = pathColor
		line.Width = vg.Points(1)
		p.Add(line)
		p.Legend.Add("path", line)

		start, err := plotter.NewScatter(plotter.XYs{pts[0]})
		if err != nil {
			return fmt.Errorf("failed to build start marker: %w", err)
		}
		start.GlyphStyle.Color = startColor
		start.GlyphStyle.Radius = vg.Points(4)
		p.Add(start)
		p.Legend.Add("start", start)

		end, err := plotter.NewScatter(plotter.XYs{pts[len(pts)-1]})
		if err != nil {
			return fmt.Errorf("failed to build end marker: %w", err)
		}
		end.GlyphStyle.Color = endColor
		end.GlyphStyle.Radius = vg.Points(4)
		p.Add(end)
		p.Legend.Add("end", end)
	}

	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10

	height := plotWidth
	if area.Width > 0 && area.Height > 0 {
		height = vg.Length(float64(plotWidth) * area.Height / area.Width)
		if height < 2*vg.Inch {
			height = 2 * vg.Inch
		}
		if height > 30*vg.Inch {
			height = 30 * vg.Inch
		}
	}

	wt, err := p.WriterTo(plotWidth, height, "png")
	if err != nil {
		return fmt.Errorf("failed to render plot: %w", err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write plot: %w", err)
	}
	return nil
}
