// fit-dtm estimates a bare-ground Digital Terrain Model from a Digital
// Surface Model using a multiresolution inverted cloth simulation.
//
// Usage:
//
//	fit-dtm [flags] source_dsm.asc dest_dtm.asc
//
// Input and output are Esri ASCII grids (.asc, optionally .asc.gz); the
// output reuses the source grid's georeferencing header and no-data value.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/banshee-data/terrain.report/internal/version"
)

func main() {
	thresh := flag.Float64("t", 1.0, "threshold (accepted for interface compatibility; not applied to the fit)")
	showVersion := flag.Bool("version", false, "print version information and exit")
	runsDB := flag.String("runs-db", "", "optional sqlite file recording fit run history")
	reportPath := flag.String("report", "", "optional HTML convergence report output path")
	previewDir := flag.String("preview", "", "optional directory for DSM/DTM heatmap PNGs")
	quiet := flag.Bool("quiet", false, "suppress per-level progress output")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(),
			"Usage: %s [flags] source_dsm dest_dtm\n\nFlags:\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if *showVersion {
		fmt.Printf("fit-dtm %s (%s, built %s)\n", version.Version, version.GitSHA, version.BuildTime)
		return
	}

	if flag.NArg() != 2 {
		flag.Usage()
		os.Exit(2)
	}

	cfg := fitConfig{
		SourcePath: flag.Arg(0),
		DestPath:   flag.Arg(1),
		Thresh:     *thresh,
		RunsDB:     *runsDB,
		ReportPath: *reportPath,
		PreviewDir: *previewDir,
		Quiet:      *quiet,
	}
	if err := cfg.validate(); err != nil {
		log.Fatalf("invalid arguments: %v", err)
	}

	result, err := runFit(cfg)
	if err != nil {
		log.Fatalf("fit failed: %v", err)
	}
	log.Printf("done: %dx%d depth=%d step=%.4g duration=%dms",
		result.Height, result.Width, result.PyramidDepth, result.Step, result.DurationMs)
}
