package terrain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/terrain.report/internal/raster"
)

const sentinel = -9999.0

func TestFitDTM_EmptyValidData(t *testing.T) {
	dsm := raster.Full(32, 32, sentinel)
	_, err := FitDTM(dsm, sentinel)
	require.ErrorIs(t, err, ErrNoValidData)
}

func TestFitDTM_FlatInputFixedPoint(t *testing.T) {
	// A uniform DSM has zero elevation range, so the step is zero and
	// the flat initial guess already sits on the ceiling.
	dsm := raster.Full(150, 150, 250.0)
	dtm, err := FitDTM(dsm, sentinel)
	require.NoError(t, err)

	require.Equal(t, dsm.Width, dtm.Width)
	require.Equal(t, dsm.Height, dtm.Height)
	for i, v := range dtm.Data {
		assert.InDelta(t, 250.0, v, 1e-9, "cell %d", i)
	}
}

func TestFitDTM_ShapePreservation(t *testing.T) {
	for _, dims := range [][2]int{{1, 1}, {5, 3}, {3, 5}, {101, 7}, {128, 64}} {
		w, h := dims[0], dims[1]
		dsm := raster.Full(w, h, 10)
		dsm.Data[0] = 20 // non-zero range
		dtm, err := FitDTM(dsm, sentinel)
		require.NoError(t, err, "%dx%d", h, w)
		assert.Equal(t, w, dtm.Width, "%dx%d", h, w)
		assert.Equal(t, h, dtm.Height, "%dx%d", h, w)
	}
}

func TestFitDTM_InputNotMutated(t *testing.T) {
	dsm := raster.Full(40, 40, 75)
	dsm.Set(10, 10, sentinel)
	dsm.Set(20, 20, 80)
	orig := dsm.Clone()

	_, err := FitDTM(dsm, sentinel)
	require.NoError(t, err)
	assert.Equal(t, orig.Data, dsm.Data, "FitDTM must not mutate the caller's DSM")
}

// buildingScene is the flat-ground-plus-elevated-block scenario: ground
// at 100, a 40x40 interior block at 140, 256x256 overall.
func buildingScene(t *testing.T) (*raster.Raster, [4]int) {
	t.Helper()
	dsm := raster.Full(256, 256, 100.0)
	// block covers rows/cols [108, 148)
	const lo, hi = 108, 148
	for row := lo; row < hi; row++ {
		for col := lo; col < hi; col++ {
			dsm.Set(row, col, 140.0)
		}
	}
	return dsm, [4]int{lo, hi, lo, hi}
}

func TestFitDTM_BuildingSuppression(t *testing.T) {
	if testing.Short() {
		t.Skip("full-pyramid fit is slow")
	}
	dsm, block := buildingScene(t)
	dtm, err := FitDTM(dsm, sentinel)
	require.NoError(t, err)

	for row := 0; row < 256; row++ {
		for col := 0; col < 256; col++ {
			v := dtm.At(row, col)
			inBlock := row >= block[0] && row < block[1] && col >= block[2] && col < block[3]
			if inBlock {
				// The cloth must drape under the building, not sit on it.
				if math.Abs(v-100.0) > 2.0 {
					t.Fatalf("block cell (%d,%d): got %f, want 100 +/- 2", row, col, v)
				}
			} else {
				if math.Abs(v-100.0) > 0.5 {
					t.Fatalf("ground cell (%d,%d): got %f, want 100 +/- 0.5", row, col, v)
				}
			}
		}
	}
}

func TestFitDTM_Postcondition(t *testing.T) {
	if testing.Short() {
		t.Skip("full-pyramid fit is slow")
	}
	dsm, _ := buildingScene(t)
	dtm, err := FitDTM(dsm, sentinel)
	require.NoError(t, err)

	for i, v := range dtm.Data {
		assert.LessOrEqual(t, v, dsm.Data[i], "cell %d", i)
	}
}

func TestFitDTM_NoDataRegion(t *testing.T) {
	// Single-level scene (64x64) with ground at 50, one elevated cell at
	// 60 fixing maxv, and a 10x10 sentinel gap. The gap is filled to
	// maxv before fitting, so it drapes like a small building and must
	// come out near the surrounding ground.
	dsm := raster.Full(64, 64, 50.0)
	dsm.Set(5, 5, 60.0)
	for row := 20; row < 30; row++ {
		for col := 20; col < 30; col++ {
			dsm.Set(row, col, sentinel)
		}
	}

	dtm, err := FitDTM(dsm, sentinel)
	require.NoError(t, err)

	for row := 20; row < 30; row++ {
		for col := 20; col < 30; col++ {
			v := dtm.At(row, col)
			require.NotEqual(t, sentinel, v, "sentinel leaked to output at (%d,%d)", row, col)
			assert.GreaterOrEqual(t, v, 50.0, "(%d,%d)", row, col)
			assert.InDelta(t, 50.0, v, 1.0, "(%d,%d)", row, col)
		}
	}
}

func TestFitDTM_DecaySchedules(t *testing.T) {
	if testing.Short() {
		t.Skip("full-pyramid fit is slow")
	}
	dsm, _ := buildingScene(t)
	rec := NewRecordingObserver()
	fitter := &Fitter{Observer: rec}

	_, err := fitter.FitDTM(dsm, sentinel)
	require.NoError(t, err)

	// 256 -> 128 -> 64: deepest level is 2, recorded coarsest-first.
	require.Len(t, rec.Levels, 3)
	assert.Equal(t, 2, rec.Levels[0].Level)
	assert.Equal(t, 1, rec.Levels[1].Level)
	assert.Equal(t, 0, rec.Levels[2].Level)
	for _, info := range rec.Levels {
		assert.Equal(t, 2, info.Deepest)
	}

	// Base schedule at the coarsest level.
	step := (140.0 - 100.0) / 100
	assert.InDelta(t, step, rec.Levels[0].Step, 1e-12)
	assert.Equal(t, 100, rec.Levels[0].Iterations)

	// Geometric decay on the way back to full resolution.
	assert.InDelta(t, step/4, rec.Levels[1].Step, 1e-12)
	assert.Equal(t, 50, rec.Levels[1].Iterations)
	assert.InDelta(t, step/8, rec.Levels[2].Step, 1e-12)
	assert.Equal(t, 25, rec.Levels[2].Iterations)

	// Monotone non-increasing toward finer levels, floored at 1.
	for i := 1; i < len(rec.Levels); i++ {
		assert.LessOrEqual(t, rec.Levels[i].Step, rec.Levels[i-1].Step)
		assert.LessOrEqual(t, rec.Levels[i].Iterations, rec.Levels[i-1].Iterations)
		assert.GreaterOrEqual(t, rec.Levels[i].Iterations, 1)
	}
}

func TestPyramidDepth(t *testing.T) {
	cases := []struct {
		w, h, want int
	}{
		{1, 1, 0},
		{100, 100, 0},
		{100, 4000, 0}, // bounded by the smaller dimension
		{101, 101, 1},
		{256, 256, 2},
		{256, 512, 2},
		{1000, 1000, 4},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, PyramidDepth(tc.w, tc.h), "%dx%d", tc.h, tc.w)
	}
}

func TestFitLevel_ShapeMismatch(t *testing.T) {
	f := &Fitter{}
	_, _, err := f.fitLevel(raster.New(8, 8), raster.New(8, 9), 1, 0)
	require.ErrorIs(t, err, raster.ErrShapeMismatch)
}
