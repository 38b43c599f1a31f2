// Package grid models labelled multi-dimensional fields of gridded model
// output and provides the pure transforms that bring a grid into the
// toolkit's canonical form: a chosen longitude convention, cell bounds on
// every axis, and the correct planetary radius in the coordinate reference.
//
// All transforms are referentially transparent: they return new fields and
// never mutate their input, so callers are free to compose them in pipelines
// and keep the untransformed originals around.
package grid

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
)

// LongitudePeriod is the period of the longitude axis in degrees.
const LongitudePeriod = 360.0

var (
	// ErrAxisNotFound is returned when a transform addresses an axis the
	// field does not have.
	ErrAxisNotFound = errors.New("axis not found")

	// ErrAxisNotMonotonic is returned for axes whose points are not
	// strictly increasing or strictly decreasing.
	ErrAxisNotMonotonic = errors.New("axis points are not strictly monotonic")

	// ErrAxisNotPeriodic is returned when longitude points collide after
	// wrapping, meaning the axis does not have a period of 360 degrees.
	ErrAxisNotPeriodic = errors.New("longitude axis is not periodic with period 360")
)

// InsufficientPointsError reports an axis too short for bounds inference.
type InsufficientPointsError struct {
	Field  string
	Axis   string
	Points int
}

func (e *InsufficientPointsError) Error() string {
	return fmt.Sprintf("field %q: axis %q has %d points, need at least 2 to infer bounds", e.Field, e.Axis, e.Points)
}

// wrapLongitude maps v into [targetMin, targetMin+360). A value exactly on
// the upper boundary maps to targetMin.
func wrapLongitude(v, targetMin float64) float64 {
	m := math.Mod(v-targetMin, LongitudePeriod)
	if m < 0 {
		m += LongitudePeriod
	}
	return targetMin + m
}

// RollToRange shifts the longitude axis of the field so that every value
// lies in [targetMin, targetMin+360), physically permuting the data along
// the longitude dimension so each value keeps its coordinate. The resulting
// longitude points are ascending. Any bounds previously present on the
// longitude axis are discarded; run InferBounds afterwards to restore them.
func RollToRange(f Field, targetMin float64) (Field, error) {
	k, ok := f.AxisIndex(AxisLongitude)
	if !ok {
		return Field{}, fmt.Errorf("field %q: %q: %w", f.Name, AxisLongitude, ErrAxisNotFound)
	}
	ax := f.Axes[k]
	n := ax.Len()
	if n == 0 {
		return Field{}, fmt.Errorf("field %q: axis %q has no points", f.Name, ax.Name)
	}
	if !ax.IsMonotonic() {
		return Field{}, fmt.Errorf("field %q: axis %q: %w", f.Name, ax.Name, ErrAxisNotMonotonic)
	}

	wrapped := make([]float64, n)
	for i, v := range ax.Points {
		wrapped[i] = wrapLongitude(v, targetMin)
	}

	// perm[j] is the input index whose point lands at output position j.
	perm := make([]int, n)
	for i := range perm {
		perm[i] = i
	}
	sort.SliceStable(perm, func(a, b int) bool { return wrapped[perm[a]] < wrapped[perm[b]] })

	points := make([]float64, n)
	for j, src := range perm {
		points[j] = wrapped[src]
	}
	for j := 1; j < n; j++ {
		if points[j] <= points[j-1] {
			return Field{}, fmt.Errorf("field %q: axis %q: %w", f.Name, ax.Name, ErrAxisNotPeriodic)
		}
	}

	out := f.Copy()
	out.Axes[k].Points = points
	out.Axes[k].Bounds = nil
	permuteAlongAxis(out.Data, f.Data, f.Shape(), k, perm)
	return out, nil
}

// permuteAlongAxis fills dst with src reordered along dimension k of the
// given row-major shape: output slab j along k comes from input slab perm[j].
func permuteAlongAxis(dst, src []float64, shape []int, k int, perm []int) {
	inner := 1
	for _, s := range shape[k+1:] {
		inner *= s
	}
	n := shape[k]
	outer := 1
	for _, s := range shape[:k] {
		outer *= s
	}
	for o := 0; o < outer; o++ {
		base := o * n * inner
		for j, srcIdx := range perm {
			copy(dst[base+j*inner:base+(j+1)*inner], src[base+srcIdx*inner:base+(srcIdx+1)*inner])
		}
	}
}

// InferBounds synthesizes cell bounds for every axis of the field that lacks
// them: interior edges are midpoints between adjacent points, outer edges
// are extrapolated by half the adjacent cell width. Axes that already carry
// bounds are left untouched, so the operation is idempotent.
func InferBounds(f Field) (Field, error) {
	return InferBoundsAt(f, 0.5)
}

// InferBoundsAt is InferBounds with a configurable edge placement: position
// is the fraction of the way from a point to its successor at which the
// shared edge sits. 0.5 places edges at midpoints.
func InferBoundsAt(f Field, position float64) (Field, error) {
	out := f.Copy()
	for i := range out.Axes {
		ax := &out.Axes[i]
		if ax.HasBounds() {
			continue
		}
		if ax.Len() < 2 {
			return Field{}, &InsufficientPointsError{Field: f.Name, Axis: ax.Name, Points: ax.Len()}
		}
		if !ax.IsMonotonic() {
			return Field{}, fmt.Errorf("field %q: axis %q: %w", f.Name, ax.Name, ErrAxisNotMonotonic)
		}
		ax.Bounds = inferAxisBounds(ax.Points, position)
	}
	return out, nil
}

// inferAxisBounds computes n+1 edges for n points and pairs them into
// per-cell bounds.
func inferAxisBounds(points []float64, position float64) []Bounds {
	n := len(points)
	edges := make([]float64, n+1)
	for i := 1; i < n; i++ {
		edges[i] = points[i-1] + position*(points[i]-points[i-1])
	}
	edges[0] = points[0] - (1-position)*(points[1]-points[0])
	edges[n] = points[n-1] + position*(points[n-1]-points[n-2])

	bounds := make([]Bounds, n)
	for i := range bounds {
		bounds[i] = Bounds{edges[i], edges[i+1]}
	}
	return bounds
}

// EnsureBounds is the pipeline-friendly variant of InferBounds: axes with
// fewer than 2 points (scalar levels, single time steps) are skipped rather
// than treated as an error.
func EnsureBounds(f Field) (Field, error) {
	out := f.Copy()
	for i := range out.Axes {
		ax := &out.Axes[i]
		if ax.HasBounds() || ax.Len() < 2 {
			continue
		}
		if !ax.IsMonotonic() {
			return Field{}, fmt.Errorf("field %q: axis %q: %w", f.Name, ax.Name, ErrAxisNotMonotonic)
		}
		ax.Bounds = inferAxisBounds(ax.Points, 0.5)
	}
	return out, nil
}

// ApplyRadius returns a copy of the field whose coordinate reference radius
// is set to the given value. Coordinate points, bounds, and data are
// untouched: the radius only changes how later consumers convert angular
// coordinates into physical distances and areas.
func ApplyRadius(f Field, radius float64) Field {
	out := f.Copy()
	out.CRS.Radius = radius
	return out
}

// IsRegular reports whether the axis points are uniformly spaced within a
// small relative tolerance.
func IsRegular(ax Axis) bool {
	if ax.Len() < 3 {
		return true
	}
	diffs := make([]float64, ax.Len()-1)
	for i := range diffs {
		diffs[i] = ax.Points[i+1] - ax.Points[i]
	}
	uniform := make([]float64, len(diffs))
	for i := range uniform {
		uniform[i] = diffs[0]
	}
	return floats.EqualApprox(diffs, uniform, 1e-4*math.Abs(diffs[0]))
}

// AreaWeights builds a latitude-by-longitude field of spherical grid cell
// areas in square metres for the given planetary radius. Both horizontal
// axes must carry bounds; run InferBounds first when they do not.
func AreaWeights(f Field, radius float64) (Field, error) {
	lat, ok := f.Axis(AxisLatitude)
	if !ok {
		return Field{}, fmt.Errorf("field %q: %q: %w", f.Name, AxisLatitude, ErrAxisNotFound)
	}
	lon, ok := f.Axis(AxisLongitude)
	if !ok {
		return Field{}, fmt.Errorf("field %q: %q: %w", f.Name, AxisLongitude, ErrAxisNotFound)
	}
	for _, ax := range []Axis{lat, lon} {
		if !ax.HasBounds() {
			return Field{}, fmt.Errorf("field %q: axis %q has no bounds; infer bounds before computing areas", f.Name, ax.Name)
		}
	}

	data := make([]float64, lat.Len()*lon.Len())
	for i, lb := range lat.Bounds {
		band := math.Abs(math.Sin(lb[1]*math.Pi/180) - math.Sin(lb[0]*math.Pi/180))
		for j, xb := range lon.Bounds {
			dlon := math.Abs(xb[1]-xb[0]) * math.Pi / 180
			data[i*lon.Len()+j] = radius * radius * band * dlon
		}
	}

	return Field{
		Name:  "grid_cell_area",
		Units: "m**2",
		Axes:  []Axis{copyAxis(lat), copyAxis(lon)},
		Data:  data,
		CRS:   CRS{Radius: radius},
	}, nil
}
