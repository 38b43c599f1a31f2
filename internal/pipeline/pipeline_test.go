package pipeline_test

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/perihelab/exoclim/internal/grid"
	"github.com/perihelab/exoclim/internal/observability"
	"github.com/perihelab/exoclim/internal/pipeline"
)

// --- mocks ---

type mockLoader struct {
	mu    sync.Mutex
	err   error
	loads [][]string
}

func (m *mockLoader) Load(files ...string) (*grid.FieldCollection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loads = append(m.loads, files)
	if m.err != nil {
		return nil, m.err
	}
	return grid.NewFieldCollection(grid.Field{
		Name:  "t_sfc",
		Units: "K",
		Axes: []grid.Axis{
			{Name: grid.AxisLatitude, Points: []float64{-45, 45}},
			{Name: grid.AxisLongitude, Points: []float64{45, 135, 225, 315}},
		},
		Data: []float64{1, 2, 3, 4, 5, 6, 7, 8},
	}), nil
}

func (m *mockLoader) loadCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.loads)
}

type mockSink struct {
	mu        sync.Mutex
	err       error
	published []pipeline.RunSummary
	notify    chan pipeline.RunSummary
}

func (m *mockSink) Publish(_ context.Context, summary pipeline.RunSummary) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.published = append(m.published, summary)
	if m.notify != nil {
		m.notify <- summary
	}
	return nil
}

func (m *mockSink) summaries() []pipeline.RunSummary {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]pipeline.RunSummary(nil), m.published...)
}

func touch(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("stub"), 0o644))
	return path
}

// --- tests ---

func TestScanOnce(t *testing.T) {
	t.Run("processes existing matching files", func(t *testing.T) {
		dir := t.TempDir()
		touch(t, dir, "runA.nc")
		touch(t, dir, "runB.nc")
		touch(t, dir, "notes.txt")

		loader := &mockLoader{}
		sink := &mockSink{}
		metrics := observability.NewMetricsForTesting()
		p := pipeline.New(loader, sink, slog.Default(), metrics, pipeline.Options{
			DataDir:      dir,
			Planet:       "trap1e",
			TargetLonMin: -180,
		})

		require.NoError(t, p.ScanOnce(context.Background()))

		assert.Equal(t, 2, loader.loadCount())
		assert.Equal(t, 2.0, testutil.ToFloat64(metrics.FilesProcessed))

		summaries := sink.summaries()
		require.Len(t, summaries, 2)
		assert.Equal(t, "runA", summaries[0].Name)
		assert.Equal(t, "trap1e", summaries[0].Planet)
		assert.Equal(t, 5804071.0, summaries[0].RadiusM)
		require.Len(t, summaries[0].Fields, 1)
		assert.Equal(t, "t_sfc", summaries[0].Fields[0].Name)
		require.NotNil(t, summaries[0].Fields[0].LonMin)
		assert.Equal(t, -135.0, *summaries[0].Fields[0].LonMin)
	})

	t.Run("readiness flips after the scan", func(t *testing.T) {
		p := pipeline.New(&mockLoader{}, nil, slog.Default(), observability.NewMetricsForTesting(), pipeline.Options{
			DataDir: t.TempDir(),
		})

		require.Error(t, p.CheckReadiness(context.Background()))
		require.NoError(t, p.ScanOnce(context.Background()))
		assert.NoError(t, p.CheckReadiness(context.Background()))
	})

	t.Run("loader failure is counted and skipped", func(t *testing.T) {
		dir := t.TempDir()
		touch(t, dir, "bad.nc")

		metrics := observability.NewMetricsForTesting()
		p := pipeline.New(&mockLoader{err: errors.New("corrupt")}, nil, slog.Default(), metrics, pipeline.Options{
			DataDir: dir,
		})

		require.NoError(t, p.ScanOnce(context.Background()))
		assert.Equal(t, 1.0, testutil.ToFloat64(metrics.ProcessErrors))
		assert.Equal(t, 0.0, testutil.ToFloat64(metrics.FilesProcessed))
	})

	t.Run("sink failure is counted", func(t *testing.T) {
		dir := t.TempDir()
		touch(t, dir, "run.nc")

		metrics := observability.NewMetricsForTesting()
		sink := &mockSink{err: errors.New("broker down")}
		p := pipeline.New(&mockLoader{}, sink, slog.Default(), metrics, pipeline.Options{
			DataDir: dir,
		})

		require.NoError(t, p.ScanOnce(context.Background()))
		assert.Equal(t, 1.0, testutil.ToFloat64(metrics.ProcessErrors))
	})

	t.Run("nil sink disables publishing", func(t *testing.T) {
		dir := t.TempDir()
		touch(t, dir, "run.nc")

		metrics := observability.NewMetricsForTesting()
		p := pipeline.New(&mockLoader{}, nil, slog.Default(), metrics, pipeline.Options{DataDir: dir})

		require.NoError(t, p.ScanOnce(context.Background()))
		assert.Equal(t, 1.0, testutil.ToFloat64(metrics.FilesProcessed))
	})
}

func TestRun_WatchPicksUpNewFiles(t *testing.T) {
	dir := t.TempDir()
	loader := &mockLoader{}
	sink := &mockSink{notify: make(chan pipeline.RunSummary, 4)}
	p := pipeline.New(loader, sink, slog.Default(), observability.NewMetricsForTesting(), pipeline.Options{
		DataDir:        dir,
		Planet:         "earth",
		TargetLonMin:   -180,
		SettleInterval: 50 * time.Millisecond,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	// Give the watcher time to attach before dropping the file in.
	require.Eventually(t, func() bool {
		return p.CheckReadiness(ctx) == nil
	}, 2*time.Second, 10*time.Millisecond)
	time.Sleep(100 * time.Millisecond)

	touch(t, dir, "fresh.nc")

	select {
	case summary := <-sink.notify:
		assert.Equal(t, "fresh", summary.Name)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for the new file to be processed")
	}

	cancel()
	require.NoError(t, <-done)
}

func TestRun_StopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := pipeline.New(&mockLoader{}, nil, slog.Default(), observability.NewMetricsForTesting(), pipeline.Options{
		DataDir: t.TempDir(),
	})

	require.NoError(t, p.Run(ctx))
}
