package pipeline

import (
	"time"

	"github.com/perihelab/exoclim/internal/grid"
	"github.com/perihelab/exoclim/internal/session"
)

// RunSummary is the serialized record of one normalized model output file,
// destined for the summary sink.
type RunSummary struct {
	Name        string         `json:"name"`
	File        string         `json:"file"`
	Planet      string         `json:"planet"`
	RadiusM     float64        `json:"radius_m"`
	Fields      []FieldSummary `json:"fields"`
	ProcessedAt time.Time      `json:"processed_at"`
}

// FieldSummary describes one normalized field.
type FieldSummary struct {
	Name   string   `json:"name"`
	Units  string   `json:"units,omitempty"`
	Axes   []string `json:"axes"`
	Shape  []int    `json:"shape"`
	LonMin *float64 `json:"lon_min,omitempty"`
	LonMax *float64 `json:"lon_max,omitempty"`
}

// Summarize builds a RunSummary from a processed session.
func Summarize(run *session.Run, file string) (RunSummary, error) {
	proc, err := run.Proc()
	if err != nil {
		return RunSummary{}, err
	}

	summary := RunSummary{
		Name:        run.Name(),
		File:        file,
		Planet:      run.Constants().Planet(),
		RadiusM:     run.Constants().Radius().Value,
		ProcessedAt: run.ProcessedAt(),
	}
	for _, f := range proc.Fields() {
		fs := FieldSummary{
			Name:  f.Name,
			Units: f.Units,
			Shape: f.Shape(),
		}
		for _, ax := range f.Axes {
			fs.Axes = append(fs.Axes, ax.Name)
		}
		if lon, ok := f.Axis(grid.AxisLongitude); ok && lon.Len() > 0 {
			lo, hi := lon.Points[0], lon.Points[lon.Len()-1]
			if lo > hi {
				lo, hi = hi, lo
			}
			fs.LonMin, fs.LonMax = &lo, &hi
		}
		summary.Fields = append(summary.Fields, fs)
	}
	return summary, nil
}
