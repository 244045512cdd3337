package terrain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMultiObserver_FansOut(t *testing.T) {
	a := NewRecordingObserver()
	b := NewRecordingObserver()
	m := MultiObserver{a, b}

	info := LevelInfo{Level: 1, Deepest: 2, Width: 10, Height: 10, Step: 0.5, Iterations: 3}
	m.LevelStarted(info)
	m.IterationDone(1, 1, 3, 99.5)

	for _, rec := range []*RecordingObserver{a, b} {
		assert.Equal(t, []LevelInfo{info}, rec.Levels)
		assert.Equal(t, []float64{99.5}, rec.MeanSeries[1])
	}
}

func TestLogObserver_DoesNotPanic(t *testing.T) {
	var o LogObserver
	o.LevelStarted(LevelInfo{Level: 0, Deepest: 1, Width: 4, Height: 4, Step: 0.1, Iterations: 10})
	o.IterationDone(0, 10, 10, 1.5)
	o.IterationDone(0, 3, 10, 1.5) // non-multiple of 10 takes the quiet path
}
