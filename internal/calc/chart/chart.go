// Package chart renders sweep and stress results as PNG line plots.
package chart

import (
	"errors"
	"fmt"
	"io"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"Layup/internal/calc/laminate"
	"Layup/internal/calc/sweep"
)

var ErrNoData = errors.New("chart: nothing to plot")

const (
	width  = 8 * vg.Inch
	height = 5 * vg.Inch
)

// entries of A drawn against the sweep value, in legend order.
var aEntries = []struct {
	name string
	i, j int
}{
	{"A11", 0, 0},
	{"A22", 1, 1},
	{"A12", 0, 1},
	{"A66", 2, 2},
	{"A16", 0, 2},
	{"A26", 1, 2},
}

// StiffnessPNG plots the A entries of every valid point against X.
func StiffnessPNG(w io.Writer, pts []sweep.Point, title, xLabel string) error {
	series := make([]plotter.XYs, len(aEntries))
	for _, p := range pts {
		if p.Err != "" {
			continue
		}
		for k, e := range aEntries {
			series[k] = append(series[k], plotter.XY{X: p.X, Y: p.A[e.i][e.j]})
		}
	}
	if len(series[0]) == 0 {
		return ErrNoData
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = xLabel
	p.Y.Label.Text = "Stiffness (N/mm)"
	p.Legend.Top = true
	p.Add(plotter.NewGrid())

	lines := make([]interface{}, 0, 2*len(aEntries))
	for k, e := range aEntries {
		lines = append(lines, e.name, series[k])
	}
	if err := plotutil.AddLines(p, lines...); err != nil {
		return fmt.Errorf("chart: %w", err)
	}
	return render(w, p)
}

// ProfilePNG plots one stress component through the thickness: z on the
// vertical axis, bottom to top surface of each ply. component is 0, 1 or 2
// for σx, σy, τxy (global) or, with local set, σ1, σ2, τ12.
func ProfilePNG(w io.Writer, prof []laminate.PlyStresses, component int, local bool) error {
	if component < 0 || component > 2 {
		return fmt.Errorf("chart: stress component %d not in [0,2]", component)
	}
	if len(prof) == 0 {
		return ErrNoData
	}
	names := [3]string{"σx", "σy", "τxy"}
	if local {
		names = [3]string{"σ1", "σ2", "τ12"}
	}
	pick := func(s laminate.SurfaceStress) float64 {
		if local {
			return s.Local[component]
		}
		return s.Global[component]
	}

	xy := make(plotter.XYs, 0, 2*len(prof))
	for _, ps := range prof {
		xy = append(xy,
			plotter.XY{X: pick(ps.Bottom), Y: ps.Bottom.Z},
			plotter.XY{X: pick(ps.Top), Y: ps.Top.Z},
		)
	}

	p := plot.New()
	p.Title.Text = "Through-thickness " + names[component]
	p.X.Label.Text = names[component]
	p.Y.Label.Text = "z (mm)"
	p.Add(plotter.NewGrid())
	if err := plotutil.AddLinePoints(p, names[component], xy); err != nil {
		return fmt.Errorf("chart: %w", err)
	}
	return render(w, p)
}

func render(w io.Writer, p *plot.Plot) error {
	wt, err := p.WriterTo(width, height, "png")
	if err != nil {
		return fmt.Errorf("chart: %w", err)
	}
	_, err = wt.WriteTo(w)
	return err
}
