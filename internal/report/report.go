// Package report renders an HTML convergence report for a fit run using
// go-echarts: one line chart per pyramid level showing the mean DTM
// elevation after each outer relaxation iteration, plus the per-level
// schedule in the subtitle. Useful for judging whether the iteration
// budget was generous or tight for a given scene.
package report

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/terrain.report/internal/terrain"
)

// Render writes the convergence report for the recorded run to w.
// rec must have observed at least one level.
func Render(w io.Writer, rec *terrain.RecordingObserver) error {
	if rec == nil || len(rec.Levels) == 0 {
		return fmt.Errorf("report: no recorded levels")
	}

	page := components.NewPage()
	page.PageTitle = "DTM fit convergence"

	// Levels were recorded coarsest-first; present them in that order so
	// the report reads like the fit executed.
	levels := make([]terrain.LevelInfo, len(rec.Levels))
	copy(levels, rec.Levels)
	sort.SliceStable(levels, func(i, j int) bool { return levels[i].Level > levels[j].Level })

	for _, info := range levels {
		series := rec.MeanSeries[info.Level]
		line := charts.NewLine()
		line.SetGlobalOptions(
			charts.WithTitleOpts(opts.Title{
				Title: fmt.Sprintf("Level %d (%dx%d)", info.Level, info.Height, info.Width),
				Subtitle: fmt.Sprintf("step=%.4g iterations=%d deepest=%d",
					info.Step, info.Iterations, info.Deepest),
			}),
			charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
			charts.WithXAxisOpts(opts.XAxis{Name: "outer iteration"}),
			charts.WithYAxisOpts(opts.YAxis{Name: "mean elevation"}),
		)

		xs := make([]int, len(series))
		data := make([]opts.LineData, len(series))
		for i, v := range series {
			xs[i] = i + 1
			data[i] = opts.LineData{Value: v}
		}
		line.SetXAxis(xs).AddSeries("mean", data)
		page.AddCharts(line)
	}

	return page.Render(w)
}

// WriteFile renders the report to the named file.
func WriteFile(path string, rec *terrain.RecordingObserver) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report: %w", err)
	}
	defer f.Close()
	if err := Render(f, rec); err != nil {
		return err
	}
	return f.Close()
}
