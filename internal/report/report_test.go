package report

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/terrain.report/internal/terrain"
)

func recordedRun() *terrain.RecordingObserver {
	rec := terrain.NewRecordingObserver()
	rec.LevelStarted(terrain.LevelInfo{Level: 1, Deepest: 1, Width: 50, Height: 50, Step: 0.4, Iterations: 3})
	rec.IterationDone(1, 1, 3, 100.1)
	rec.IterationDone(1, 2, 3, 100.2)
	rec.IterationDone(1, 3, 3, 100.25)
	rec.LevelStarted(terrain.LevelInfo{Level: 0, Deepest: 1, Width: 100, Height: 100, Step: 0.1, Iterations: 2})
	rec.IterationDone(0, 1, 2, 100.26)
	rec.IterationDone(0, 2, 2, 100.27)
	return rec
}

func TestRender(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, recordedRun()))

	html := buf.String()
	assert.Contains(t, html, "Level 1 (50x50)")
	assert.Contains(t, html, "Level 0 (100x100)")
	assert.Contains(t, html, "iterations=3")
}

func TestRender_NoLevels(t *testing.T) {
	var buf bytes.Buffer
	assert.Error(t, Render(&buf, terrain.NewRecordingObserver()))
	assert.Error(t, Render(&buf, nil))
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.html")
	require.NoError(t, WriteFile(path, recordedRun()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), "echarts"), "report should embed echarts")
}
