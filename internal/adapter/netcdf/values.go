package netcdf

import (
	"fmt"
	"reflect"
)

// flatten converts the (possibly nested) slice value a NetCDF variable
// yields into a flat row-major float64 slice plus its shape. Scalars come
// back as a single value with an empty shape.
func flatten(values any) ([]float64, []int, error) {
	rv := reflect.ValueOf(values)

	var shape []int
	probe := rv
	for probe.Kind() == reflect.Slice {
		shape = append(shape, probe.Len())
		if probe.Len() == 0 {
			break
		}
		probe = probe.Index(0)
	}

	size := 1
	for _, s := range shape {
		size *= s
	}
	data := make([]float64, 0, size)
	data, err := appendValues(data, rv, len(shape))
	if err != nil {
		return nil, nil, err
	}
	if len(data) != size {
		return nil, nil, fmt.Errorf("ragged array: %d values for shape %v", len(data), shape)
	}
	return data, shape, nil
}

func appendValues(dst []float64, rv reflect.Value, depth int) ([]float64, error) {
	if depth == 0 {
		v, err := toFloat(rv)
		if err != nil {
			return nil, err
		}
		return append(dst, v), nil
	}
	if rv.Kind() != reflect.Slice {
		return nil, fmt.Errorf("ragged array: expected slice at depth %d, got %s", depth, rv.Kind())
	}
	var err error
	for i := 0; i < rv.Len(); i++ {
		dst, err = appendValues(dst, rv.Index(i), depth-1)
		if err != nil {
			return nil, err
		}
	}
	return dst, nil
}

func toFloat(rv reflect.Value) (float64, error) {
	switch rv.Kind() {
	case reflect.Float32, reflect.Float64:
		return rv.Float(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), nil
	default:
		return 0, fmt.Errorf("unsupported value type %s", rv.Kind())
	}
}
