package viz

import (
	"bytes"
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/mural-robotics/wallsweep/internal/geom"
)

// PathChartHTML renders the coverage path as an interactive scatter
// chart. Each point carries its visit order in the tooltip; obstacle
// corners are overlaid in a second series so holes in the sweep are
// explainable at a glance.
func PathChartHTML(area geom.WorkArea, path geom.Path, resolution float64, w io.Writer) error {
	pathPts := make([]opts.ScatterData, 0, len(path))
	for i, pt := range path {
		pathPts = append(pathPts, opts.ScatterData{Value: []interface{}{pt.X, pt.Y, i}})
	}

	obstaclePts := make([]opts.ScatterData, 0, len(area.Obstacles)*4)
	for _, o := range area.Obstacles {
		for _, corner := range [][2]float64{
			{o.X, o.Y},
			{o.X + o.Width, o.Y},
			{o.X + o.Width, o.Y + o.Height},
			{o.X, o.Y + o.Height},
		} {
			obstaclePts = append(obstaclePts, opts.ScatterData{Value: []interface{}{corner[0], corner[1]}})
		}
	}

	// Small padding so edge points stay visible.
	padX := area.Width * 0.05
	padY := area.Height * 0.05
	if padX == 0 {
		padX = 1.0
	}
	if padY == 0 {
		padY = 1.0
	}

	subtitle := fmt.Sprintf("wall=%vx%vm points=%d obstacles=%d resolution=%vm",
		area.Width, area.Height, len(path), len(area.Obstacles), resolution)

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Coverage Path", Theme: "dark", Width: "900px", Height: "900px"}),
		charts.WithTitleOpts(opts.Title{Title: "Coverage Path", Subtitle: subtitle}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Min: -padX, Max: area.Width + padX, Name: "X (m)", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Min: -padY, Max: area.Height + padY, Name: "Y (m)", NameLocation: "middle", NameGap: 30}),
	)

	scatter.AddSeries("path", pathPts, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 4}), charts.WithItemStyleOpts(opts.ItemStyle{Color: "#26828e"}))
	scatter.AddSeries("obstacles", obstaclePts, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 10}), charts.WithItemStyleOpts(opts.ItemStyle{Color: "#ff5252"}))

	var buf bytes.Buffer
	if err := scatter.Render(&buf); err != nil {
		return fmt.Errorf("failed to render chart: %w", err)
	}
	if _, err := w.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("failed to write chart: %w", err)
	}
	return nil
}
