// Package pipeline runs the normalization service loop: it scans a data
// directory for model output files, watches it for new arrivals, and turns
// each file into a normalized session whose summary is published to an
// optional sink.
package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/perihelab/exoclim/internal/observability"
	"github.com/perihelab/exoclim/internal/session"
)

// Sink receives the summary of each normalized file.
type Sink interface {
	Publish(ctx context.Context, summary RunSummary) error
}

// Options configures the pipeline loop.
type Options struct {
	// DataDir is the directory scanned and watched for model output.
	DataDir string
	// FilePattern is the glob (base-name) pattern files must match.
	FilePattern string
	// Planet names the constants set stamped into each run.
	Planet string
	// TargetLonMin is the longitude convention passed to normalization.
	TargetLonMin float64
	// SettleInterval is how long a file must stay quiet after its last
	// filesystem event before it is processed.
	SettleInterval time.Duration
}

// Pipeline orchestrates the scan-watch-normalize-publish loop.
type Pipeline struct {
	loader  session.Loader
	sink    Sink // nil disables publishing
	logger  *slog.Logger
	metrics *observability.Metrics
	opts    Options
	ready   atomic.Bool
}

// New creates a Pipeline with the given collaborators. Pass a nil sink to
// disable summary publishing.
func New(loader session.Loader, sink Sink, logger *slog.Logger, metrics *observability.Metrics, opts Options) *Pipeline {
	if opts.FilePattern == "" {
		opts.FilePattern = "*.nc"
	}
	if opts.SettleInterval <= 0 {
		opts.SettleInterval = 500 * time.Millisecond
	}
	return &Pipeline{
		loader:  loader,
		sink:    sink,
		logger:  logger,
		metrics: metrics,
		opts:    opts,
	}
}

// CheckReadiness returns nil once the initial directory scan has completed.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("initial scan has not completed yet")
	}
	return nil
}

// Run scans the data directory, then watches it until the context is
// cancelled. Per-file failures are logged and counted, never fatal; only a
// broken watcher stops the loop.
func (p *Pipeline) Run(ctx context.Context) error {
	p.logger.Info("pipeline started",
		"data_dir", p.opts.DataDir,
		"pattern", p.opts.FilePattern,
		"planet", p.opts.Planet,
		"target_lon_min", p.opts.TargetLonMin,
	)
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	if err := p.scanExisting(ctx); err != nil {
		return err
	}
	p.ready.Store(true)

	return p.watch(ctx)
}

// ScanOnce processes the files currently in the data directory and returns,
// without watching. Used by one-shot invocations and tests.
func (p *Pipeline) ScanOnce(ctx context.Context) error {
	if err := p.scanExisting(ctx); err != nil {
		return err
	}
	p.ready.Store(true)
	return nil
}

func (p *Pipeline) scanExisting(ctx context.Context) error {
	matches, err := filepath.Glob(filepath.Join(p.opts.DataDir, p.opts.FilePattern))
	if err != nil {
		return err
	}
	for _, path := range matches {
		if ctx.Err() != nil {
			return nil
		}
		p.processFile(ctx, path)
	}
	return nil
}

func (p *Pipeline) watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(p.opts.DataDir); err != nil {
		return err
	}

	// A file being copied in produces a burst of writes; the settle timer
	// resets on every event and only fires once the file has gone quiet.
	pending := make(map[string]*time.Timer)
	settled := make(chan string)
	defer func() {
		for _, t := range pending {
			t.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("pipeline stopping", "reason", ctx.Err())
			return nil

		case path := <-settled:
			delete(pending, path)
			p.processFile(ctx, path)

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Op.Has(fsnotify.Create) && !event.Op.Has(fsnotify.Write) {
				continue
			}
			path := event.Name
			if match, _ := filepath.Match(p.opts.FilePattern, filepath.Base(path)); !match {
				continue
			}
			if t, ok := pending[path]; ok {
				t.Reset(p.opts.SettleInterval)
				continue
			}
			pending[path] = time.AfterFunc(p.opts.SettleInterval, func() {
				select {
				case settled <- path:
				case <-ctx.Done():
				}
			})

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			p.logger.Error("watcher error", "error", err)
		}
	}
}

// processFile loads, normalizes, and summarizes a single model output file.
func (p *Pipeline) processFile(ctx context.Context, path string) {
	start := time.Now()
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	run, err := session.New(p.loader, []string{path}, session.Config{
		Name:   name,
		Planet: p.opts.Planet,
	})
	if err != nil {
		p.logger.Warn("load failed, skipping file", "file", path, "error", err)
		p.metrics.ProcessErrors.Inc()
		return
	}

	if err := run.Normalize(p.opts.TargetLonMin); err != nil {
		p.logger.Warn("normalization failed, skipping file", "file", path, "error", err)
		p.metrics.ProcessErrors.Inc()
		return
	}

	summary, err := Summarize(run, path)
	if err != nil {
		p.logger.Error("summarize failed", "file", path, "error", err)
		p.metrics.ProcessErrors.Inc()
		return
	}

	if p.sink != nil {
		if err := p.sink.Publish(ctx, summary); err != nil {
			p.logger.Error("publish summary failed", "file", path, "error", err)
			p.metrics.ProcessErrors.Inc()
			return
		}
	}

	p.metrics.FilesProcessed.Inc()
	p.metrics.FieldsNormalized.Add(float64(len(summary.Fields)))
	p.metrics.FieldsPerFile.Observe(float64(len(summary.Fields)))
	p.metrics.ProcessingDuration.Observe(time.Since(start).Seconds())

	p.logger.Info("file normalized",
		"file", path,
		"run", name,
		"fields", len(summary.Fields),
		"planet", summary.Planet,
	)
}
