package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/terrain.report/internal/raster"
	"github.com/banshee-data/terrain.report/internal/rasterio"
	"github.com/banshee-data/terrain.report/internal/rundb"
)

func TestFitConfig_Validate(t *testing.T) {
	cases := []struct {
		name    string
		cfg     fitConfig
		wantErr bool
	}{
		{"ok", fitConfig{SourcePath: "a.asc", DestPath: "b.asc"}, false},
		{"missing source", fitConfig{DestPath: "b.asc"}, true},
		{"missing dest", fitConfig{SourcePath: "a.asc"}, true},
		{"same path", fitConfig{SourcePath: "a.asc", DestPath: "a.asc"}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.validate()
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

// writeScene writes a small DSM: flat ground at 10 with a 4x4 block at 30.
func writeScene(t *testing.T, path string) {
	t.Helper()
	r := raster.Full(24, 24, 10.0)
	for row := 10; row < 14; row++ {
		for col := 10; col < 14; col++ {
			r.Set(row, col, 30.0)
		}
	}
	g := &rasterio.Grid{Raster: r, CellSize: 1, NoData: -9999, HasNoData: true}
	require.NoError(t, rasterio.Write(path, g))
}

func TestRunFit_EndToEnd(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "dsm.asc")
	dst := filepath.Join(dir, "dtm.asc")
	writeScene(t, src)

	cfg := fitConfig{
		SourcePath: src,
		DestPath:   dst,
		Thresh:     1.0,
		RunsDB:     filepath.Join(dir, "runs.db"),
		ReportPath: filepath.Join(dir, "report.html"),
		PreviewDir: dir,
		Quiet:      true,
	}
	result, err := runFit(cfg)
	require.NoError(t, err)

	assert.Equal(t, 24, result.Width)
	assert.Equal(t, 24, result.Height)
	assert.Equal(t, 0, result.PyramidDepth)
	assert.InDelta(t, 0.2, result.Step, 1e-12)

	// Output raster: same header, clamped under the DSM everywhere.
	out, err := rasterio.Read(dst)
	require.NoError(t, err)
	assert.True(t, out.HasNoData)
	assert.Equal(t, -9999.0, out.NoData)
	in, err := rasterio.Read(src)
	require.NoError(t, err)
	for i, v := range out.Raster.Data {
		assert.LessOrEqual(t, v, in.Raster.Data[i], "cell %d", i)
	}

	// Side artifacts.
	for _, name := range []string{"report.html", "dsm.png", "dtm.png"} {
		_, err := os.Stat(filepath.Join(dir, name))
		assert.NoError(t, err, name)
	}

	db, err := rundb.Open(cfg.RunsDB)
	require.NoError(t, err)
	defer db.Close()
	runs, err := db.ListFitRuns(10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, src, runs[0].SourcePath)
	assert.Equal(t, 0, runs[0].PyramidDepth)
}

func TestRunFit_AllNoData(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "dsm.asc")
	g := &rasterio.Grid{
		Raster:    raster.Full(8, 8, -9999),
		CellSize:  1,
		NoData:    -9999,
		HasNoData: true,
	}
	require.NoError(t, rasterio.Write(src, g))

	cfg := fitConfig{SourcePath: src, DestPath: filepath.Join(dir, "dtm.asc"), Quiet: true}
	_, err := runFit(cfg)
	require.Error(t, err)

	// No partial output on failure.
	_, statErr := os.Stat(cfg.DestPath)
	assert.True(t, os.IsNotExist(statErr))
}
