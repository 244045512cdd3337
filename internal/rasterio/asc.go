// Package rasterio reads and writes elevation rasters in the Esri ASCII
// grid format (.asc), optionally gzip-compressed (.asc.gz). The header
// carries the georeferencing metadata (origin, cell size, no-data
// sentinel) that must survive a fit run unchanged: the output DTM is
// written with the source DSM's header.
package rasterio

import (
	"bufio"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/banshee-data/terrain.report/internal/raster"
)

// DefaultNoData is used when a source grid carries no NODATA_value
// header entry.
const DefaultNoData = -9999.0

// Grid couples a raster with its Esri ASCII georeferencing header.
type Grid struct {
	Raster    *raster.Raster
	XLLCorner float64
	YLLCorner float64
	CellSize  float64
	NoData    float64
	HasNoData bool
}

// Read opens the file at path and parses it as an Esri ASCII grid.
// Files ending in .gz are transparently decompressed.
func Read(path string) (*Grid, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open raster: %w", err)
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("open gzip raster: %w", err)
		}
		defer gz.Close()
		r = gz
	}

	g, err := Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return g, nil
}

// Parse decodes an Esri ASCII grid from r. Header keys are matched
// case-insensitively; ncols and nrows are mandatory, the remaining
// header entries default to zero (or DefaultNoData for the sentinel).
func Parse(r io.Reader) (*Grid, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 1024*1024), 16*1024*1024)

	g := &Grid{CellSize: 1, NoData: DefaultNoData}
	ncols, nrows := -1, -1

	// Header: key/value lines until the first line starting with a number.
	var firstDataLine string
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		key := strings.ToLower(fields[0])
		if key[0] == '-' || (key[0] >= '0' && key[0] <= '9') {
			firstDataLine = line
			break
		}
		if len(fields) != 2 {
			return nil, fmt.Errorf("malformed header line %q", line)
		}
		v, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return nil, fmt.Errorf("header %s: %w", key, err)
		}
		switch key {
		case "ncols":
			ncols = int(v)
		case "nrows":
			nrows = int(v)
		case "xllcorner":
			g.XLLCorner = v
		case "yllcorner":
			g.YLLCorner = v
		case "cellsize":
			g.CellSize = v
		case "nodata_value":
			g.NoData = v
			g.HasNoData = true
		default:
			return nil, fmt.Errorf("unknown header key %q", key)
		}
	}
	if ncols <= 0 || nrows <= 0 {
		return nil, fmt.Errorf("missing or invalid ncols/nrows (%d/%d)", ncols, nrows)
	}

	g.Raster = raster.New(ncols, nrows)
	idx := 0
	total := ncols * nrows

	consume := func(line string) error {
		for _, tok := range strings.Fields(line) {
			if idx >= total {
				return fmt.Errorf("too many samples: expected %d", total)
			}
			v, err := strconv.ParseFloat(tok, 64)
			if err != nil {
				return fmt.Errorf("sample %d: %w", idx, err)
			}
			g.Raster.Data[idx] = v
			idx++
		}
		return nil
	}

	if firstDataLine != "" {
		if err := consume(firstDataLine); err != nil {
			return nil, err
		}
	}
	for sc.Scan() {
		if err := consume(sc.Text()); err != nil {
			return nil, err
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read raster body: %w", err)
	}
	if idx != total {
		return nil, fmt.Errorf("short raster body: got %d of %d samples", idx, total)
	}
	return g, nil
}

// Write stores g at path in Esri ASCII format, gzip-compressed when the
// path ends in .gz.
func Write(path string, g *Grid) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create raster: %w", err)
	}
	defer f.Close()

	var w io.Writer = f
	var gz *gzip.Writer
	if strings.HasSuffix(path, ".gz") {
		gz = gzip.NewWriter(f)
		w = gz
	}

	if err := Encode(w, g); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if gz != nil {
		if err := gz.Close(); err != nil {
			return fmt.Errorf("close gzip %s: %w", path, err)
		}
	}
	return f.Close()
}

// Encode writes g to w in Esri ASCII format, one raster row per line.
func Encode(w io.Writer, g *Grid) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "ncols %d\n", g.Raster.Width)
	fmt.Fprintf(bw, "nrows %d\n", g.Raster.Height)
	fmt.Fprintf(bw, "xllcorner %s\n", formatFloat(g.XLLCorner))
	fmt.Fprintf(bw, "yllcorner %s\n", formatFloat(g.YLLCorner))
	fmt.Fprintf(bw, "cellsize %s\n", formatFloat(g.CellSize))
	if g.HasNoData {
		fmt.Fprintf(bw, "NODATA_value %s\n", formatFloat(g.NoData))
	}
	for row := 0; row < g.Raster.Height; row++ {
		base := row * g.Raster.Width
		for col := 0; col < g.Raster.Width; col++ {
			if col > 0 {
				bw.WriteByte(' ')
			}
			bw.WriteString(formatFloat(g.Raster.Data[base+col]))
		}
		bw.WriteByte('\n')
	}
	return bw.Flush()
}

// formatFloat renders values compactly without losing precision.
func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
