// dtm-compare prints difference statistics between two elevation rasters
// of identical shape, e.g. a fitted DTM against a reference DTM. Cells
// equal to either grid's no-data value are excluded.
package main

import (
	"flag"
	"fmt"
	"log"
	"math"
	"os"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/terrain.report/internal/rasterio"
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(),
			"Usage: %s raster_a raster_b\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 2 {
		flag.Usage()
		os.Exit(2)
	}

	a, err := rasterio.Read(flag.Arg(0))
	if err != nil {
		log.Fatalf("read %s: %v", flag.Arg(0), err)
	}
	b, err := rasterio.Read(flag.Arg(1))
	if err != nil {
		log.Fatalf("read %s: %v", flag.Arg(1), err)
	}

	diffs, err := diffValues(a, b)
	if err != nil {
		log.Fatalf("compare: %v", err)
	}
	if len(diffs) == 0 {
		log.Fatal("compare: no cells valid in both rasters")
	}

	mean, std := stat.MeanStdDev(diffs, nil)
	var sq float64
	minD, maxD := math.Inf(1), math.Inf(-1)
	for _, d := range diffs {
		sq += d * d
		if d < minD {
			minD = d
		}
		if d > maxD {
			maxD = d
		}
	}
	rmse := math.Sqrt(sq / float64(len(diffs)))

	sort.Float64s(diffs)
	q05 := stat.Quantile(0.05, stat.Empirical, diffs, nil)
	q50 := stat.Quantile(0.50, stat.Empirical, diffs, nil)
	q95 := stat.Quantile(0.95, stat.Empirical, diffs, nil)

	fmt.Printf("cells   %d\n", len(diffs))
	fmt.Printf("mean    %+.4f\n", mean)
	fmt.Printf("stddev  %.4f\n", std)
	fmt.Printf("rmse    %.4f\n", rmse)
	fmt.Printf("min     %+.4f\n", minD)
	fmt.Printf("max     %+.4f\n", maxD)
	fmt.Printf("q05     %+.4f\n", q05)
	fmt.Printf("median  %+.4f\n", q50)
	fmt.Printf("q95     %+.4f\n", q95)
}

// diffValues returns a-b for every cell valid in both grids.
func diffValues(a, b *rasterio.Grid) ([]float64, error) {
	if !a.Raster.SameShape(b.Raster) {
		return nil, fmt.Errorf("shape mismatch: %dx%d vs %dx%d",
			a.Raster.Height, a.Raster.Width, b.Raster.Height, b.Raster.Width)
	}
	diffs := make([]float64, 0, len(a.Raster.Data))
	for i, va := range a.Raster.Data {
		vb := b.Raster.Data[i]
		if (a.HasNoData && va == a.NoData) || (b.HasNoData && vb == b.NoData) {
			continue
		}
		diffs = append(diffs, va-vb)
	}
	return diffs, nil
}
