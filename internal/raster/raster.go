// Package raster provides the 2D elevation grid type used by the terrain
// fitting pipeline, along with the elementwise and pyramid operations the
// relaxation algorithm is built from. Rasters are dense row-major float64
// grids; all operations validate shapes defensively and surface
// ErrShapeMismatch rather than panicking on caller error.
package raster

import (
	"errors"
	"fmt"
	"math"
)

// ErrShapeMismatch is returned when an operation receives two rasters of
// differing dimensions. Wrapped errors carry the concrete shapes.
var ErrShapeMismatch = errors.New("raster shape mismatch")

// Raster is a dense row-major grid of float64 elevation samples.
// Data has length Width*Height; cell (row, col) lives at Data[row*Width+col].
type Raster struct {
	Width  int
	Height int
	Data   []float64
}

// New allocates a zero-filled raster of the given shape.
func New(width, height int) *Raster {
	return &Raster{
		Width:  width,
		Height: height,
		Data:   make([]float64, width*height),
	}
}

// Full allocates a raster with every cell set to v.
func Full(width, height int, v float64) *Raster {
	r := New(width, height)
	for i := range r.Data {
		r.Data[i] = v
	}
	return r
}

// At returns the value at (row, col). Bounds are the caller's problem;
// this is a hot-path accessor.
func (r *Raster) At(row, col int) float64 {
	return r.Data[row*r.Width+col]
}

// Set writes the value at (row, col).
func (r *Raster) Set(row, col int, v float64) {
	r.Data[row*r.Width+col] = v
}

// Clone returns a deep copy sharing no storage with the receiver.
func (r *Raster) Clone() *Raster {
	out := &Raster{
		Width:  r.Width,
		Height: r.Height,
		Data:   make([]float64, len(r.Data)),
	}
	copy(out.Data, r.Data)
	return out
}

// SameShape reports whether two rasters have identical dimensions.
func (r *Raster) SameShape(other *Raster) bool {
	return r.Width == other.Width && r.Height == other.Height
}

// shapeError builds a wrapped ErrShapeMismatch naming both shapes.
func shapeError(a, b *Raster) error {
	return fmt.Errorf("%w: %dx%d vs %dx%d", ErrShapeMismatch,
		a.Height, a.Width, b.Height, b.Width)
}

// AddScalar adds v to every cell in place.
func (r *Raster) AddScalar(v float64) {
	for i := range r.Data {
		r.Data[i] += v
	}
}

// MinWith clamps each cell to the corresponding cell of ceiling,
// in place: r[i] = min(r[i], ceiling[i]).
func (r *Raster) MinWith(ceiling *Raster) error {
	if !r.SameShape(ceiling) {
		return shapeError(r, ceiling)
	}
	for i, v := range ceiling.Data {
		if r.Data[i] > v {
			r.Data[i] = v
		}
	}
	return nil
}

// Replace rewrites every cell equal to old with v. Comparison is exact,
// which is what a no-data sentinel requires.
func (r *Raster) Replace(old, v float64) {
	for i, c := range r.Data {
		if c == old {
			r.Data[i] = v
		}
	}
}

// MinMaxExcluding scans the raster for its minimum and maximum values,
// skipping cells exactly equal to exclude. ok is false when no cell
// survives the exclusion, in which case minv and maxv are undefined.
func (r *Raster) MinMaxExcluding(exclude float64) (minv, maxv float64, ok bool) {
	minv = math.Inf(1)
	maxv = math.Inf(-1)
	for _, v := range r.Data {
		if v == exclude {
			continue
		}
		ok = true
		if v < minv {
			minv = v
		}
		if v > maxv {
			maxv = v
		}
	}
	return minv, maxv, ok
}

// Mean returns the arithmetic mean of all cells, or 0 for an empty raster.
func (r *Raster) Mean() float64 {
	if len(r.Data) == 0 {
		return 0
	}
	var sum float64
	for _, v := range r.Data {
		sum += v
	}
	return sum / float64(len(r.Data))
}

// BoxBlur3 writes the 3x3 unweighted box average of src into dst. Edge
// cells average over their in-bounds neighbourhood only (no wraparound,
// no padding). src and dst must have identical shapes and must not alias.
func BoxBlur3(src, dst *Raster) error {
	if !src.SameShape(dst) {
		return shapeError(src, dst)
	}
	w, h := src.Width, src.Height
	for row := 0; row < h; row++ {
		r0 := row - 1
		if r0 < 0 {
			r0 = 0
		}
		r1 := row + 1
		if r1 >= h {
			r1 = h - 1
		}
		for col := 0; col < w; col++ {
			c0 := col - 1
			if c0 < 0 {
				c0 = 0
			}
			c1 := col + 1
			if c1 >= w {
				c1 = w - 1
			}
			var sum float64
			for rr := r0; rr <= r1; rr++ {
				base := rr * w
				for cc := c0; cc <= c1; cc++ {
					sum += src.Data[base+cc]
				}
			}
			n := (r1 - r0 + 1) * (c1 - c0 + 1)
			dst.Data[row*w+col] = sum / float64(n)
		}
	}
	return nil
}
