package session_test

import (
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/perihelab/exoclim/internal/grid"
	"github.com/perihelab/exoclim/internal/planet"
	"github.com/perihelab/exoclim/internal/session"
)

// mockLoader returns a fixed collection or error.
type mockLoader struct {
	collection *grid.FieldCollection
	err        error
	gotFiles   []string
}

func (m *mockLoader) Load(files ...string) (*grid.FieldCollection, error) {
	m.gotFiles = files
	if m.err != nil {
		return nil, m.err
	}
	return m.collection, nil
}

func testCollection() *grid.FieldCollection {
	return grid.NewFieldCollection(grid.Field{
		Name:  "t_sfc",
		Units: "K",
		Axes: []grid.Axis{
			{Name: grid.AxisLatitude, Units: "degrees_north", Points: []float64{-45, 45}},
			{Name: grid.AxisLongitude, Units: "degrees_east", Points: []float64{45, 135, 225, 315}},
		},
		Data: []float64{1, 2, 3, 4, 5, 6, 7, 8},
	})
}

func scaleBy(factor float64) session.Transform {
	return session.TransformFunc(func(c *grid.FieldCollection) (*grid.FieldCollection, error) {
		return c.Map(func(f grid.Field) (grid.Field, error) {
			out := f.Copy()
			for i := range out.Data {
				out.Data[i] *= factor
			}
			return out, nil
		})
	})
}

func TestNew(t *testing.T) {
	t.Run("loads files and resolves planet", func(t *testing.T) {
		loader := &mockLoader{collection: testCollection()}
		run, err := session.New(loader, []string{"a.nc", "b.nc"}, session.Config{
			Name:        "hot_jupiter",
			Description: "control run",
			Planet:      "trap1e",
		})
		require.NoError(t, err)

		assert.Equal(t, []string{"a.nc", "b.nc"}, loader.gotFiles)
		assert.Equal(t, "hot_jupiter", run.Name())
		assert.Equal(t, "control run", run.Description())
		assert.Equal(t, "trap1e", run.Constants().Planet())
		assert.Equal(t, 1, run.Raw().Len())
	})

	t.Run("defaults to earth", func(t *testing.T) {
		run, err := session.New(&mockLoader{collection: testCollection()}, nil, session.Config{})
		require.NoError(t, err)
		assert.Equal(t, "earth", run.Constants().Planet())
	})

	t.Run("explicit constants bypass the registry", func(t *testing.T) {
		run, err := session.New(&mockLoader{collection: testCollection()}, nil, session.Config{
			Planet: "somewhere",
			Constants: map[string]planet.Constant{
				"radius":  {Value: 1.2e7, Units: "m"},
				"gravity": {Value: 25, Units: "m s-2"},
			},
		})
		require.NoError(t, err)
		assert.Equal(t, 1.2e7, run.Constants().Radius().Value)
	})

	t.Run("invalid explicit constants", func(t *testing.T) {
		_, err := session.New(&mockLoader{collection: testCollection()}, nil, session.Config{
			Constants: map[string]planet.Constant{"gravity": {Value: 9.8, Units: "m s-2"}},
		})
		var mce *planet.MissingConstantError
		require.ErrorAs(t, err, &mce)
	})

	t.Run("unknown planet", func(t *testing.T) {
		_, err := session.New(&mockLoader{collection: testCollection()}, nil, session.Config{Planet: "vulcan"})
		var upe *planet.UnknownPlanetError
		require.ErrorAs(t, err, &upe)
	})

	t.Run("loader failure surfaces as LoadError", func(t *testing.T) {
		cause := errors.New("corrupt header")
		_, err := session.New(&mockLoader{err: cause}, []string{"bad.nc"}, session.Config{})

		var le *session.LoadError
		require.ErrorAs(t, err, &le)
		assert.Equal(t, []string{"bad.nc"}, le.Files)
		assert.ErrorIs(t, err, cause)
	})
}

func TestProc(t *testing.T) {
	t.Run("before any process call", func(t *testing.T) {
		run, err := session.NewFromCollection(testCollection(), session.Config{})
		require.NoError(t, err)

		_, err = run.Proc()
		require.ErrorIs(t, err, session.ErrNotProcessed)
		assert.True(t, run.ProcessedAt().IsZero())
	})
}

func TestProcess(t *testing.T) {
	t.Run("second call fully replaces the first", func(t *testing.T) {
		run, err := session.NewFromCollection(testCollection(), session.Config{})
		require.NoError(t, err)

		require.NoError(t, run.Process(scaleBy(2)))
		require.NoError(t, run.Process(scaleBy(10)))

		raw, _ := run.Raw().Get("t_sfc")
		assert.Equal(t, 1.0, raw.Data[0], "raw stays untouched")

		proc, err := run.Proc()
		require.NoError(t, err)
		f, _ := proc.Get("t_sfc")
		assert.Equal(t, 10.0, f.Data[0], "proc holds only the second result")
	})

	t.Run("failing transform keeps previous proc", func(t *testing.T) {
		run, err := session.NewFromCollection(testCollection(), session.Config{})
		require.NoError(t, err)
		require.NoError(t, run.Process(scaleBy(2)))

		cause := errors.New("no such field")
		err = run.Process(session.TransformFunc(func(*grid.FieldCollection) (*grid.FieldCollection, error) {
			return nil, cause
		}))
		require.ErrorIs(t, err, cause)

		proc, err := run.Proc()
		require.NoError(t, err)
		f, _ := proc.Get("t_sfc")
		assert.Equal(t, 2.0, f.Data[0])
	})

	t.Run("records processed time", func(t *testing.T) {
		now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
		session.SetClock(clockwork.NewFakeClockAt(now))
		defer session.SetClock(nil)

		run, err := session.NewFromCollection(testCollection(), session.Config{})
		require.NoError(t, err)
		require.NoError(t, run.Process(scaleBy(1)))

		assert.Equal(t, now, run.ProcessedAt())
	})
}

func TestNormalize(t *testing.T) {
	run, err := session.NewFromCollection(testCollection(), session.Config{Planet: "trap1e"})
	require.NoError(t, err)

	require.NoError(t, run.Normalize(-180))

	proc, err := run.Proc()
	require.NoError(t, err)
	f, ok := proc.Get("t_sfc")
	require.True(t, ok)

	lon, _ := f.Axis(grid.AxisLongitude)
	assert.Equal(t, []float64{-135, -45, 45, 135}, lon.Points)
	assert.True(t, lon.HasBounds())
	lat, _ := f.Axis(grid.AxisLatitude)
	assert.True(t, lat.HasBounds())
	assert.Equal(t, 5804071.0, f.CRS.Radius, "planet radius stamped into the CRS")

	// Data moved with the coordinates: the first row is now the wrapped
	// eastern half.
	assert.Equal(t, []float64{3, 4, 1, 2}, f.Data[:4])

	raw, _ := run.Raw().Get("t_sfc")
	assert.Equal(t, []float64{1, 2, 3, 4}, raw.Data[:4], "raw keeps the original order")
}
