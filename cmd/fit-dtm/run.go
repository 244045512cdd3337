package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/banshee-data/terrain.report/internal/monitoring"
	"github.com/banshee-data/terrain.report/internal/preview"
	"github.com/banshee-data/terrain.report/internal/rasterio"
	"github.com/banshee-data/terrain.report/internal/report"
	"github.com/banshee-data/terrain.report/internal/rundb"
	"github.com/banshee-data/terrain.report/internal/terrain"
)

// fitConfig carries the parsed CLI surface for one fit invocation.
type fitConfig struct {
	SourcePath string
	DestPath   string
	// Thresh is parsed for compatibility with the historical tool
	// surface but is not consumed by the fitting algorithm.
	Thresh     float64
	RunsDB     string
	ReportPath string
	PreviewDir string
	Quiet      bool
}

// fitResult summarises a completed run for logging and persistence.
type fitResult struct {
	Width        int
	Height       int
	MinElevation float64
	MaxElevation float64
	Step         float64
	PyramidDepth int
	DurationMs   int64
}

func (c fitConfig) validate() error {
	if c.SourcePath == "" {
		return fmt.Errorf("source DSM path is required")
	}
	if c.DestPath == "" {
		return fmt.Errorf("destination DTM path is required")
	}
	if c.SourcePath == c.DestPath {
		return fmt.Errorf("source and destination must differ")
	}
	return nil
}

// runFit executes one end-to-end fit: read, fit, write, plus the
// optional previews, report, and run-history insert.
func runFit(cfg fitConfig) (*fitResult, error) {
	if cfg.Quiet {
		monitoring.SetLogger(nil)
	}

	src, err := rasterio.Read(cfg.SourcePath)
	if err != nil {
		return nil, err
	}
	nodata := src.NoData

	minv, maxv, ok := src.Raster.MinMaxExcluding(nodata)
	if !ok {
		return nil, terrain.ErrNoValidData
	}

	var observers terrain.MultiObserver
	if !cfg.Quiet {
		observers = append(observers, terrain.LogObserver{})
	}
	var rec *terrain.RecordingObserver
	if cfg.ReportPath != "" {
		rec = terrain.NewRecordingObserver()
		observers = append(observers, rec)
	}
	fitter := &terrain.Fitter{}
	if len(observers) > 0 {
		fitter.Observer = observers
	}

	start := time.Now()
	dtm, err := fitter.FitDTM(src.Raster, nodata)
	if err != nil {
		return nil, err
	}
	duration := time.Since(start)

	out := &rasterio.Grid{
		Raster:    dtm,
		XLLCorner: src.XLLCorner,
		YLLCorner: src.YLLCorner,
		CellSize:  src.CellSize,
		NoData:    src.NoData,
		HasNoData: src.HasNoData,
	}
	if err := rasterio.Write(cfg.DestPath, out); err != nil {
		return nil, err
	}

	if cfg.PreviewDir != "" {
		if err := os.MkdirAll(cfg.PreviewDir, 0o755); err != nil {
			return nil, fmt.Errorf("create preview dir: %w", err)
		}
		if err := preview.SavePNG(filepath.Join(cfg.PreviewDir, "dsm.png"), "DSM", src.Raster); err != nil {
			return nil, err
		}
		if err := preview.SavePNG(filepath.Join(cfg.PreviewDir, "dtm.png"), "Fitted DTM", dtm); err != nil {
			return nil, err
		}
	}

	if cfg.ReportPath != "" {
		if err := report.WriteFile(cfg.ReportPath, rec); err != nil {
			return nil, err
		}
	}

	result := &fitResult{
		Width:        dtm.Width,
		Height:       dtm.Height,
		MinElevation: minv,
		MaxElevation: maxv,
		Step:         (maxv - minv) / 100,
		PyramidDepth: terrain.PyramidDepth(dtm.Width, dtm.Height),
		DurationMs:   duration.Milliseconds(),
	}

	if cfg.RunsDB != "" {
		db, err := rundb.Open(cfg.RunsDB)
		if err != nil {
			return nil, err
		}
		defer db.Close()
		run := &rundb.FitRun{
			SourcePath:   cfg.SourcePath,
			DestPath:     cfg.DestPath,
			Width:        result.Width,
			Height:       result.Height,
			NoData:       nodata,
			MinElevation: result.MinElevation,
			MaxElevation: result.MaxElevation,
			Step:         result.Step,
			PyramidDepth: result.PyramidDepth,
			DurationMs:   result.DurationMs,
		}
		if err := db.InsertFitRun(run); err != nil {
			return nil, err
		}
		monitoring.Logf("recorded fit run %s", run.RunID)
	}

	return result, nil
}
