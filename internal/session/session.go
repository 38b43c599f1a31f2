// Package session ties one model simulation together: the raw field
// collection produced by a loader, the processed collection produced by a
// transform, free-text metadata, and the physical constants of the planet
// the simulation was run for.
package session

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/perihelab/exoclim/internal/grid"
	"github.com/perihelab/exoclim/internal/planet"
)

// DefaultPlanet is used when a session is created without a planet name or
// explicit constants.
const DefaultPlanet = "earth"

// ErrNotProcessed is returned by Proc before any successful Process call.
var ErrNotProcessed = errors.New("no processed data: Process has not been called")

// LoadError wraps a loader failure. Loading is not retried: the inputs are
// fixed, so a retry would reproduce the same failure.
type LoadError struct {
	Files []string
	Err   error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s: %v", strings.Join(e.Files, ", "), e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// Loader produces a field collection from one or more model output files.
// Failure modes are opaque to the session and surface as a *LoadError.
type Loader interface {
	Load(files ...string) (*grid.FieldCollection, error)
}

// Transform maps a field collection to a new field collection. The session
// imposes no contract on its internals beyond the signature; implementations
// must not mutate their input.
type Transform interface {
	Apply(*grid.FieldCollection) (*grid.FieldCollection, error)
}

// TransformFunc adapts a plain function to the Transform interface.
type TransformFunc func(*grid.FieldCollection) (*grid.FieldCollection, error)

func (fn TransformFunc) Apply(c *grid.FieldCollection) (*grid.FieldCollection, error) {
	return fn(c)
}

// Config carries session metadata and planet selection.
type Config struct {
	// Name identifies the simulation.
	Name string
	// Description is free text for the user's information; the toolkit
	// does not interpret it.
	Description string
	// Planet selects a registered constants set. Empty means earth.
	Planet string
	// Constants, when non-nil, bypasses the registry: the mapping is
	// validated and used as-is. Planet is then only a label.
	Constants map[string]planet.Constant
}

// Run is a single model simulation session. Raw data is set once at
// construction and never modified; processed data is produced by Process,
// each call replacing the previous result as a whole.
//
// A Run is not safe for concurrent Process calls. Parallel pipelines should
// construct independent Runs.
type Run struct {
	name        string
	description string
	consts      planet.ConstantSet
	raw         *grid.FieldCollection
	proc        *grid.FieldCollection
	processedAt time.Time
}

// New creates a Run by loading the given files through the loader and
// resolving the planet constants from cfg.
func New(loader Loader, files []string, cfg Config) (*Run, error) {
	consts, err := resolveConstants(cfg)
	if err != nil {
		return nil, err
	}

	raw, err := loader.Load(files...)
	if err != nil {
		return nil, &LoadError{Files: files, Err: err}
	}

	return &Run{
		name:        cfg.Name,
		description: cfg.Description,
		consts:      consts,
		raw:         raw,
	}, nil
}

// NewFromCollection creates a Run directly from an in-memory collection,
// bypassing the loader. Useful for tests and for callers that assemble
// fields themselves.
func NewFromCollection(raw *grid.FieldCollection, cfg Config) (*Run, error) {
	consts, err := resolveConstants(cfg)
	if err != nil {
		return nil, err
	}
	return &Run{
		name:        cfg.Name,
		description: cfg.Description,
		consts:      consts,
		raw:         raw,
	}, nil
}

func resolveConstants(cfg Config) (planet.ConstantSet, error) {
	if cfg.Constants != nil {
		name := cfg.Planet
		if name == "" {
			name = "custom"
		}
		return planet.FromConstants(name, cfg.Constants)
	}
	name := cfg.Planet
	if name == "" {
		name = DefaultPlanet
	}
	return planet.Resolve(name)
}

// Name returns the simulation name.
func (r *Run) Name() string { return r.name }

// Description returns the free-text description.
func (r *Run) Description() string { return r.description }

// Constants returns the planet constants attached to the session.
func (r *Run) Constants() planet.ConstantSet { return r.consts }

// Raw returns the raw field collection as loaded. Callers and transforms
// must treat it as read-only.
func (r *Run) Raw() *grid.FieldCollection { return r.raw }

// Proc returns the processed field collection, or ErrNotProcessed if no
// Process call has succeeded yet.
func (r *Run) Proc() (*grid.FieldCollection, error) {
	if r.proc == nil {
		return nil, ErrNotProcessed
	}
	return r.proc, nil
}

// ProcessedAt returns the time of the last successful Process call, or the
// zero time if there has been none.
func (r *Run) ProcessedAt() time.Time { return r.processedAt }

// Process invokes the transform exactly once on the raw collection and
// stores its result as the processed collection, replacing any previous
// result as a whole. If the transform fails, the error propagates unchanged
// and the previous processed collection is kept.
func (r *Run) Process(t Transform) error {
	proc, err := t.Apply(r.raw)
	if err != nil {
		return fmt.Errorf("process %q: %w", r.name, err)
	}
	r.proc = proc
	r.processedAt = clock.Now()
	return nil
}

// Normalize runs the standard normalization pipeline: longitudes rolled into
// [targetLonMin, targetLonMin+360), bounds inferred on every axis, and the
// session's planet radius stamped into each field's coordinate reference.
func (r *Run) Normalize(targetLonMin float64) error {
	return r.Process(NormalizeTransform(targetLonMin, r.consts.Radius().Value))
}
