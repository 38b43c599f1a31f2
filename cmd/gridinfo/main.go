// Command gridinfo loads one or more model output files, runs the standard
// normalization, and prints what it found: fields, axes, longitude ranges,
// and the constants of the selected planet.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/perihelab/exoclim/internal/adapter/netcdf"
	"github.com/perihelab/exoclim/internal/grid"
	"github.com/perihelab/exoclim/internal/session"
)

var (
	name       = flag.String("name", "", "name of the simulation run")
	planetName = flag.String("planet", "earth", "planet whose constants to attach")
	lonMin     = flag.String("lon", "-180", "lower edge of the target longitude range (-180 or 0)")
)

func main() {
	flag.Parse()
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	files := flag.Args()
	if len(files) == 0 {
		fmt.Fprintln(os.Stderr, "usage: gridinfo [flags] file.nc [file.nc ...]")
		os.Exit(2)
	}

	var targetLonMin float64
	if _, err := fmt.Sscanf(*lonMin, "%g", &targetLonMin); err != nil {
		logger.Error("invalid -lon value", "value", *lonMin, "err", err)
		os.Exit(2)
	}

	loader := netcdf.NewLoader(logger)
	run, err := session.New(loader, files, session.Config{
		Name:   *name,
		Planet: *planetName,
	})
	if err != nil {
		logger.Error("could not load files", "err", err)
		os.Exit(1)
	}

	if err := run.Normalize(targetLonMin); err != nil {
		logger.Error("normalization failed", "err", err)
		os.Exit(1)
	}

	proc, err := run.Proc()
	if err != nil {
		logger.Error("no processed data", "err", err)
		os.Exit(1)
	}

	consts := run.Constants()
	fmt.Printf("run: %s\nplanet: %s (radius %.0f m, gravity %.3f m s-2)\nfields: %d\n\n",
		run.Name(), consts.Planet(), consts.Radius().Value, consts.Gravity().Value, proc.Len())

	for _, f := range proc.Fields() {
		fmt.Printf("%s [%s] shape %v\n", f.Name, f.Units, f.Shape())
		for _, ax := range f.Axes {
			line := fmt.Sprintf("  %-12s %4d points", ax.Name, ax.Len())
			if ax.Len() > 0 {
				line += fmt.Sprintf("  [%g .. %g]", ax.Points[0], ax.Points[ax.Len()-1])
			}
			if ax.HasBounds() {
				line += "  (bounded)"
			}
			fmt.Println(line)
		}
		if lon, ok := f.Axis(grid.AxisLongitude); ok && !grid.IsRegular(lon) {
			fmt.Println("  note: longitude spacing is irregular")
		}
	}
}
