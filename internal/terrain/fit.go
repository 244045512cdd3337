// Package terrain estimates a Digital Terrain Model (bare ground) from a
// Digital Surface Model (ground plus buildings and vegetation) using a
// multiresolution inverted cloth simulation. A taut ground surface is
// pushed up from below the DSM ceiling; at coarse pyramid levels the
// cloth finds the gross ground shape cheaply, and each finer level only
// applies a small corrective pass on top of the upsampled coarse result,
// so the cloth never gets trapped on building roofs.
package terrain

import (
	"errors"
	"fmt"

	"github.com/banshee-data/terrain.report/internal/raster"
)

// ErrNoValidData is returned when every DSM cell equals the no-data
// sentinel, leaving the elevation range undefined.
var ErrNoValidData = errors.New("terrain: DSM contains no valid data")

const (
	// minCoarseDim is the base-case threshold: once the smaller raster
	// dimension is at or below this, the recursion stops descending.
	minCoarseDim = 100

	// baseIterations is the outer iteration budget at the coarsest
	// level; finer levels receive a geometrically decayed share.
	baseIterations = 100

	// stepDivisions sets the global step so that baseIterations lifts
	// cover the full valid elevation range.
	stepDivisions = 100
)

// Fitter runs DTM fits with an optional progress observer.
// The zero value is usable and reports nothing.
type Fitter struct {
	Observer Observer
}

// FitDTM estimates the bare-ground terrain under dsm. Cells equal to
// nodata are treated as gaps in the surface; they are rewritten to the
// maximum valid elevation before fitting so the ceiling is closed
// everywhere (an open ceiling would let the cloth rise unboundedly).
// The input raster is not mutated. The returned raster has the same
// shape as dsm and satisfies out[i] <= filled dsm[i] for every cell.
func (f *Fitter) FitDTM(dsm *raster.Raster, nodata float64) (*raster.Raster, error) {
	minv, maxv, ok := dsm.MinMaxExcluding(nodata)
	if !ok {
		return nil, ErrNoValidData
	}

	// Work on a copy: gap filling must not leak into the caller's DSM.
	ceiling := dsm.Clone()
	ceiling.Replace(nodata, maxv)

	step := (maxv - minv) / stepDivisions
	dtm := raster.Full(dsm.Width, dsm.Height, minv)

	fitted, _, err := f.fitLevel(dtm, ceiling, step, 0)
	if err != nil {
		return nil, fmt.Errorf("fit dtm: %w", err)
	}
	return fitted, nil
}

// FitDTM is the package-level convenience entry point with no observer.
func FitDTM(dsm *raster.Raster, nodata float64) (*raster.Raster, error) {
	return (&Fitter{}).FitDTM(dsm, nodata)
}

// fitLevel recursively fits one pyramid level. It returns the fitted
// raster for this level and the deepest level reached, which every
// frame propagates unchanged so the decay schedule is indexed by
// distance from the coarsest level.
func (f *Fitter) fitLevel(dtm, dsm *raster.Raster, step float64, level int) (*raster.Raster, int, error) {
	if !dtm.SameShape(dsm) {
		return nil, 0, fmt.Errorf("fit level %d: dtm %dx%d vs dsm %dx%d: %w",
			level, dtm.Height, dtm.Width, dsm.Height, dsm.Width, raster.ErrShapeMismatch)
	}

	minDim := dtm.Width
	if dtm.Height < minDim {
		minDim = dtm.Height
	}

	// Base case: coarsest level gets the full-strength schedule.
	if minDim <= minCoarseDim {
		if f.Observer != nil {
			f.Observer.LevelStarted(LevelInfo{
				Level: level, Deepest: level,
				Width: dtm.Width, Height: dtm.Height,
				Step: step, Iterations: baseIterations,
			})
		}
		if err := Drape(dtm, dsm, step, baseIterations, level, f.Observer); err != nil {
			return nil, 0, err
		}
		return dtm, level, nil
	}

	// Descend: fit the half-resolution pair, then use its result as
	// the seed at this resolution.
	coarseFit, deepest, err := f.fitLevel(raster.Downsample(dtm), raster.Downsample(dsm), step, level+1)
	if err != nil {
		return nil, 0, err
	}
	if err := raster.Upsample(coarseFit, dtm); err != nil {
		return nil, 0, err
	}

	// Both the step and the iteration budget decay geometrically with
	// distance from the coarsest level: the upsampled seed is already
	// close, so finer levels only need small corrective nudges. This
	// keeps total work to a small constant multiple of one
	// full-resolution pass.
	decay := 1 << (deepest - level)
	step = step / (2 * float64(decay))
	iterations := baseIterations / decay
	if iterations < 1 {
		iterations = 1
	}

	if f.Observer != nil {
		f.Observer.LevelStarted(LevelInfo{
			Level: level, Deepest: deepest,
			Width: dtm.Width, Height: dtm.Height,
			Step: step, Iterations: iterations,
		})
	}
	if err := Drape(dtm, dsm, step, iterations, level, f.Observer); err != nil {
		return nil, 0, err
	}
	return dtm, deepest, nil
}

// PyramidDepth returns the deepest pyramid level the driver will reach
// for a raster of the given shape: 0 when min(h, w) is already at or
// below the coarse threshold, otherwise the number of halvings needed
// to bring it there.
func PyramidDepth(width, height int) int {
	minDim := width
	if height < minDim {
		minDim = height
	}
	depth := 0
	for minDim > minCoarseDim {
		minDim = (minDim + 1) / 2
		depth++
	}
	return depth
}
