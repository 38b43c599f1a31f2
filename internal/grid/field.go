package grid

import (
	"fmt"
)

// Well-known axis names. Model output uses many extra axes (time, level,
// sigma, ...) but the normalization transforms only ever address these two.
const (
	AxisLatitude  = "latitude"
	AxisLongitude = "longitude"
)

// Bounds holds the lower and upper edge of a single grid cell along one axis.
type Bounds [2]float64

// CRS is the coordinate reference system of a field. The only parameter the
// toolkit cares about is the planetary radius used to convert angular
// coordinates into physical distances and areas.
type CRS struct {
	// Radius is the planetary radius in metres. Zero means "not set":
	// the session stamps the resolved planet radius during normalization.
	Radius float64
}

// Axis is a named, coordinate-bearing dimension of a Field. Points are
// strictly monotonic; Bounds, when present, has one entry per point and is
// contiguous and monotonic in the same direction as Points.
type Axis struct {
	Name   string
	Units  string
	Points []float64
	Bounds []Bounds
}

// Len returns the number of points along the axis.
func (a Axis) Len() int { return len(a.Points) }

// HasBounds reports whether cell edges have been set for the axis.
func (a Axis) HasBounds() bool { return len(a.Bounds) > 0 }

// IsMonotonic reports whether the axis points are strictly increasing or
// strictly decreasing. Single-point axes count as monotonic.
func (a Axis) IsMonotonic() bool {
	if len(a.Points) < 2 {
		return true
	}
	ascending := a.Points[1] > a.Points[0]
	for i := 1; i < len(a.Points); i++ {
		if ascending && a.Points[i] <= a.Points[i-1] {
			return false
		}
		if !ascending && a.Points[i] >= a.Points[i-1] {
			return false
		}
	}
	return true
}

// copyAxis returns a deep copy of the axis.
func copyAxis(a Axis) Axis {
	out := Axis{Name: a.Name, Units: a.Units}
	out.Points = append([]float64(nil), a.Points...)
	if a.HasBounds() {
		out.Bounds = append([]Bounds(nil), a.Bounds...)
	}
	return out
}

// Field is an n-dimensional labelled array: a flat row-major data slice plus
// one Axis per dimension, in dimension order.
type Field struct {
	Name  string
	Units string
	Axes  []Axis
	Data  []float64
	CRS   CRS
}

// Shape returns the per-dimension lengths of the field.
func (f Field) Shape() []int {
	shape := make([]int, len(f.Axes))
	for i, ax := range f.Axes {
		shape[i] = ax.Len()
	}
	return shape
}

// Size returns the number of data values the field's shape implies.
func (f Field) Size() int {
	n := 1
	for _, ax := range f.Axes {
		n *= ax.Len()
	}
	return n
}

// AxisIndex returns the dimension position of the named axis.
func (f Field) AxisIndex(name string) (int, bool) {
	for i, ax := range f.Axes {
		if ax.Name == name {
			return i, true
		}
	}
	return 0, false
}

// Axis returns the named axis.
func (f Field) Axis(name string) (Axis, bool) {
	i, ok := f.AxisIndex(name)
	if !ok {
		return Axis{}, false
	}
	return f.Axes[i], true
}

// Copy returns a deep copy of the field. Transforms operate on copies so the
// raw data a session holds stays untouched.
func (f Field) Copy() Field {
	out := Field{Name: f.Name, Units: f.Units, CRS: f.CRS}
	out.Axes = make([]Axis, len(f.Axes))
	for i, ax := range f.Axes {
		out.Axes[i] = copyAxis(ax)
	}
	out.Data = append([]float64(nil), f.Data...)
	return out
}

// Validate checks the structural invariants of the field: data length matches
// the axis shape, every axis is strictly monotonic, and bounds (where
// present) match their axis length.
func (f Field) Validate() error {
	if len(f.Data) != f.Size() {
		return fmt.Errorf("field %q: data length %d does not match shape %v", f.Name, len(f.Data), f.Shape())
	}
	for _, ax := range f.Axes {
		if !ax.IsMonotonic() {
			return fmt.Errorf("field %q: axis %q: %w", f.Name, ax.Name, ErrAxisNotMonotonic)
		}
		if ax.HasBounds() && len(ax.Bounds) != ax.Len() {
			return fmt.Errorf("field %q: axis %q: %d bounds for %d points", f.Name, ax.Name, len(ax.Bounds), ax.Len())
		}
	}
	return nil
}
