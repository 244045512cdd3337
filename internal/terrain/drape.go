package terrain

import (
	"fmt"

	"github.com/banshee-data/terrain.report/internal/raster"
)

// innerIterations is the number of clamp+blur passes per outer
// iteration. The inner loop lets low ground at a building's edge
// propagate inward under the footprint before the next lift.
const innerIterations = 10

// Drape runs the inverted cloth simulation on dtm under the fixed
// ceiling: each outer iteration lifts every cell by step (inverted
// gravity), then alternates clamp-to-ceiling (contact constraint) and
// 3x3 box blur (spring tension) innerIterations times. A final clamp
// guarantees dtm <= ceiling everywhere on return.
//
// dtm is mutated in place; the ceiling is never written. There is no
// convergence check: cost and fit quality are controlled entirely by
// the iteration count. obs may be nil.
func Drape(dtm, ceiling *raster.Raster, step float64, iterations int, level int, obs Observer) error {
	if !dtm.SameShape(ceiling) {
		return fmt.Errorf("drape: dtm %dx%d vs ceiling %dx%d: %w",
			dtm.Height, dtm.Width, ceiling.Height, ceiling.Width, raster.ErrShapeMismatch)
	}

	// Scratch buffer for the blur; the blurred result is swapped back
	// into dtm's storage so the caller's header stays valid.
	scratch := raster.New(dtm.Width, dtm.Height)

	for it := 0; it < iterations; it++ {
		dtm.AddScalar(step)
		for k := 0; k < innerIterations; k++ {
			if err := dtm.MinWith(ceiling); err != nil {
				return err
			}
			if err := raster.BoxBlur3(dtm, scratch); err != nil {
				return err
			}
			dtm.Data, scratch.Data = scratch.Data, dtm.Data
		}
		if obs != nil {
			obs.IterationDone(level, it+1, iterations, dtm.Mean())
		}
	}

	// Postcondition: the returned surface never rises above the ceiling.
	return dtm.MinWith(ceiling)
}
