// Package netcdf implements the session loader on top of NetCDF classic
// files. One-dimensional variables dimensioned by themselves are treated as
// coordinate variables; every other numeric variable becomes a field whose
// axes are looked up by dimension name. Dimensions without a coordinate
// variable get a unitless index axis.
package netcdf

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/batchatco/go-native-netcdf/netcdf"
	"github.com/batchatco/go-native-netcdf/netcdf/api"

	"github.com/perihelab/exoclim/internal/grid"
)

// Loader reads model output files into field collections. It implements
// session.Loader.
type Loader struct {
	logger *slog.Logger
}

// NewLoader creates a Loader.
func NewLoader(logger *slog.Logger) *Loader {
	return &Loader{logger: logger}
}

// Load reads every file and merges the resulting fields into a single
// collection in file order. On a name collision the later file wins.
func (l *Loader) Load(files ...string) (*grid.FieldCollection, error) {
	if len(files) == 0 {
		return nil, errors.New("no input files")
	}

	out := grid.NewFieldCollection()
	for _, path := range files {
		fields, err := l.readFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		for _, f := range fields {
			if _, ok := out.Get(f.Name); ok {
				l.logger.Warn("duplicate field name, keeping later file's copy", "field", f.Name, "file", path)
			}
			out.Set(f)
		}
	}
	return out, nil
}

func (l *Loader) readFile(path string) ([]grid.Field, error) {
	nc, err := netcdf.Open(path)
	if err != nil {
		return nil, err
	}
	defer nc.Close()

	names := nc.ListVariables()
	vars := make(map[string]*api.Variable, len(names))
	for _, name := range names {
		v, err := nc.GetVariable(name)
		if err != nil {
			return nil, fmt.Errorf("variable %s: %w", name, err)
		}
		vars[name] = v
	}

	axes := make(map[string]grid.Axis)
	for _, name := range names {
		v := vars[name]
		if !isCoordinate(name, v) {
			continue
		}
		points, shape, err := flatten(v.Values)
		if err != nil {
			return nil, fmt.Errorf("coordinate %s: %w", name, err)
		}
		if len(shape) != 1 {
			return nil, fmt.Errorf("coordinate %s: expected 1 dimension, got %d", name, len(shape))
		}
		axes[name] = grid.Axis{
			Name:   name,
			Units:  attrString(v.Attributes, "units"),
			Points: points,
		}
	}

	var fields []grid.Field
	for _, name := range names {
		v := vars[name]
		if isCoordinate(name, v) {
			continue
		}
		data, shape, err := flatten(v.Values)
		if err != nil {
			l.logger.Warn("skipping non-numeric variable", "variable", name, "file", path, "error", err)
			continue
		}
		if len(shape) != len(v.Dimensions) {
			return nil, fmt.Errorf("variable %s: %d dimensions but values have rank %d", name, len(v.Dimensions), len(shape))
		}

		f := grid.Field{
			Name:  name,
			Units: attrString(v.Attributes, "units"),
			Axes:  make([]grid.Axis, len(v.Dimensions)),
			Data:  data,
		}
		for i, dim := range v.Dimensions {
			if ax, ok := axes[dim]; ok {
				f.Axes[i] = ax
				continue
			}
			f.Axes[i] = indexAxis(dim, shape[i])
		}
		if err := f.Validate(); err != nil {
			return nil, err
		}
		fields = append(fields, f)
	}
	return fields, nil
}

// isCoordinate reports whether the variable is a classic coordinate
// variable: one-dimensional and dimensioned by its own name.
func isCoordinate(name string, v *api.Variable) bool {
	return len(v.Dimensions) == 1 && v.Dimensions[0] == name
}

// indexAxis builds a 0..n-1 placeholder axis for a dimension that has no
// coordinate variable in the file.
func indexAxis(name string, n int) grid.Axis {
	points := make([]float64, n)
	for i := range points {
		points[i] = float64(i)
	}
	return grid.Axis{Name: name, Units: "1", Points: points}
}

// attrString fetches a string attribute, returning "" when absent or of a
// different type.
func attrString(attrs api.AttributeMap, key string) string {
	if attrs == nil {
		return ""
	}
	v, ok := attrs.Get(key)
	if !ok {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return s
}
