package terrain

import (
	"github.com/banshee-data/terrain.report/internal/monitoring"
)

// LevelInfo describes one pyramid level's relaxation schedule as the
// driver enters it on the way back up from the coarsest level.
type LevelInfo struct {
	Level      int // 0 = full resolution
	Deepest    int // deepest level reached by the recursion
	Width      int
	Height     int
	Step       float64
	Iterations int
}

// Observer receives progress callbacks from the multiscale driver and
// the relaxation engine. Implementations must be cheap: IterationDone
// fires once per outer iteration. A nil Observer disables reporting.
type Observer interface {
	// LevelStarted fires when a level's relaxation pass begins.
	LevelStarted(info LevelInfo)
	// IterationDone fires after each outer iteration with the current
	// mean elevation of the working DTM, a cheap convergence proxy.
	IterationDone(level, iteration, total int, meanElevation float64)
}

// LogObserver reports progress through the monitoring package logger.
type LogObserver struct{}

// LevelStarted logs the schedule for the level about to be relaxed.
func (LogObserver) LevelStarted(info LevelInfo) {
	monitoring.Logf("level %d of %d: %dx%d step=%.4f iterations=%d",
		info.Level, info.Deepest, info.Height, info.Width, info.Step, info.Iterations)
}

// IterationDone logs every tenth iteration to keep output readable.
func (LogObserver) IterationDone(level, iteration, total int, meanElevation float64) {
	if iteration%10 == 0 || iteration == total {
		monitoring.Logf("level %d: iteration %d/%d mean=%.3f",
			level, iteration, total, meanElevation)
	}
}

// RecordingObserver accumulates all callbacks in memory. Used by tests
// and by the convergence report generator.
type RecordingObserver struct {
	Levels []LevelInfo
	// MeanSeries maps level -> mean elevation after each outer iteration.
	MeanSeries map[int][]float64
}

// NewRecordingObserver returns an empty recorder.
func NewRecordingObserver() *RecordingObserver {
	return &RecordingObserver{MeanSeries: make(map[int][]float64)}
}

func (r *RecordingObserver) LevelStarted(info LevelInfo) {
	r.Levels = append(r.Levels, info)
}

func (r *RecordingObserver) IterationDone(level, iteration, total int, meanElevation float64) {
	r.MeanSeries[level] = append(r.MeanSeries[level], meanElevation)
}

// MultiObserver fans callbacks out to several observers.
type MultiObserver []Observer

func (m MultiObserver) LevelStarted(info LevelInfo) {
	for _, o := range m {
		o.LevelStarted(info)
	}
}

func (m MultiObserver) IterationDone(level, iteration, total int, meanElevation float64) {
	for _, o := range m {
		o.IterationDone(level, iteration, total, meanElevation)
	}
}
