// Package preview renders elevation rasters as heatmap PNGs so a fit's
// input and output can be eyeballed without GIS tooling.
package preview

import (
	"fmt"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/terrain.report/internal/raster"
)

// rasterGrid adapts a raster to plotter.GridXYZ. Raster row 0 is the top
// of the image, so Y is flipped to keep north up in the plot.
type rasterGrid struct {
	r *raster.Raster
}

func (g rasterGrid) Dims() (c, r int)   { return g.r.Width, g.r.Height }
func (g rasterGrid) Z(c, r int) float64 { return g.r.At(g.r.Height-1-r, c) }
func (g rasterGrid) X(c int) float64    { return float64(c) }
func (g rasterGrid) Y(r int) float64    { return float64(r) }

// SavePNG writes a heatmap of r to path with the given plot title.
func SavePNG(path, title string, r *raster.Raster) error {
	if r == nil || len(r.Data) == 0 {
		return fmt.Errorf("preview: empty raster")
	}

	hm := plotter.NewHeatMap(rasterGrid{r}, palette.Heat(16, 1))

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "column"
	p.Y.Label.Text = "row"
	p.Add(hm)

	// Keep pixels roughly square regardless of raster aspect ratio.
	const maxEdge = 8 * vg.Inch
	w, h := maxEdge, maxEdge
	if r.Width > r.Height {
		h = maxEdge * vg.Length(r.Height) / vg.Length(r.Width)
	} else if r.Height > r.Width {
		w = maxEdge * vg.Length(r.Width) / vg.Length(r.Height)
	}

	if err := p.Save(w, h, path); err != nil {
		return fmt.Errorf("save preview %s: %w", path, err)
	}
	return nil
}
