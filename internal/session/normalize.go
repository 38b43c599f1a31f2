package session

import (
	"github.com/perihelab/exoclim/internal/grid"
)

// NormalizeTransform builds the standard normalization pipeline as a
// Transform: each field has its longitude axis rolled into
// [targetLonMin, targetLonMin+360), bounds inferred for every multi-point
// axis, and the given planetary radius applied to its coordinate reference.
// Fields without a longitude axis skip the roll but still get bounds and the
// radius.
func NormalizeTransform(targetLonMin, radius float64) Transform {
	return TransformFunc(func(c *grid.FieldCollection) (*grid.FieldCollection, error) {
		return c.Map(func(f grid.Field) (grid.Field, error) {
			out := f
			if _, ok := f.Axis(grid.AxisLongitude); ok {
				rolled, err := grid.RollToRange(out, targetLonMin)
				if err != nil {
					return grid.Field{}, err
				}
				out = rolled
			}
			bounded, err := grid.EnsureBounds(out)
			if err != nil {
				return grid.Field{}, err
			}
			return grid.ApplyRadius(bounded, radius), nil
		})
	})
}
