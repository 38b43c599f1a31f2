package grid_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/perihelab/exoclim/internal/grid"
)

func TestFieldValidate(t *testing.T) {
	t.Run("valid field", func(t *testing.T) {
		require.NoError(t, globalField().Validate())
	})

	t.Run("data length mismatch", func(t *testing.T) {
		f := globalField()
		f.Data = f.Data[:3]
		err := f.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "data length")
	})

	t.Run("non-monotonic axis", func(t *testing.T) {
		f := globalField()
		f.Axes[1].Points = []float64{45, 45, 225, 315}
		require.ErrorIs(t, f.Validate(), grid.ErrAxisNotMonotonic)
	})

	t.Run("bounds length mismatch", func(t *testing.T) {
		f := globalField()
		f.Axes[0].Bounds = []grid.Bounds{{-90, 0}}
		err := f.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "bounds")
	})
}

func TestFieldCopy(t *testing.T) {
	f := globalField()
	cp := f.Copy()

	cp.Data[0] = 1e9
	cp.Axes[1].Points[0] = 1e9

	assert.NotEqual(t, 1e9, f.Data[0])
	assert.NotEqual(t, 1e9, f.Axes[1].Points[0])
}

func TestFieldAxisLookup(t *testing.T) {
	f := globalField()

	i, ok := f.AxisIndex(grid.AxisLongitude)
	require.True(t, ok)
	assert.Equal(t, 1, i)

	_, ok = f.Axis("altitude")
	assert.False(t, ok)

	assert.Equal(t, []int{2, 4}, f.Shape())
	assert.Equal(t, 8, f.Size())
}
