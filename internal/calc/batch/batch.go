// Package batch runs many laminate scenarios in one request. A failing
// scenario is logged and reported in its own outcome; the rest still run.
package batch

import (
	"errors"
	"fmt"
	"log"
	"math"

	"Layup/internal/calc/lamina"
	"Layup/internal/calc/laminate"
	"Layup/internal/calc/loads"
	"Layup/internal/calc/matrix"
)

var ErrNoScenarios = errors.New("batch: no scenarios")

// Scenario is one laminate with optional loading. Cases, when present, are
// combined with loads.Combine and take precedence over Loads.
type Scenario struct {
	Name string `json:"name"`
	laminate.Input
	Loads map[string]float64 `json:"loads,omitempty"`
	Cases []loads.Case       `json:"cases,omitempty"`
}

type Outcome struct {
	Index      int              `json:"index"`
	Name       string           `json:"name"`
	Laminate   *laminate.Result `json:"laminate,omitempty"`
	Loads      *matrix.Vec6     `json:"loads,omitempty"`
	Combo      string           `json:"combo,omitempty"`
	Strains    *matrix.Vec3     `json:"strains,omitempty"`
	Curvatures *matrix.Vec3     `json:"curvatures,omitempty"`
	// MaxLocal is the largest |σ1|, |σ2|, |τ12| over all ply surfaces.
	MaxLocal *matrix.Vec3 `json:"max_local,omitempty"`
	Error    string       `json:"error,omitempty"`
}

type Input struct {
	Scenarios []Scenario `json:"scenarios"`
}

type Result struct {
	Outcomes  []Outcome `json:"outcomes"`
	Succeeded int       `json:"succeeded"`
	Failed    int       `json:"failed"`
}

func Run(in Input, p lamina.Presets) (Result, error) {
	if len(in.Scenarios) == 0 {
		return Result{}, ErrNoScenarios
	}
	out := Result{Outcomes: make([]Outcome, 0, len(in.Scenarios))}
	for i, sc := range in.Scenarios {
		o, err := runOne(sc, p)
		o.Index, o.Name = i, sc.Name
		if err != nil {
			log.Printf("batch: scenario %d (%s): %v", i, sc.Name, err)
			o = Outcome{Index: i, Name: sc.Name, Error: err.Error()}
			out.Failed++
		} else {
			out.Succeeded++
		}
		out.Outcomes = append(out.Outcomes, o)
	}
	return out, nil
}

func runOne(sc Scenario, p lamina.Presets) (Outcome, error) {
	l, err := sc.Build(p)
	if err != nil {
		return Outcome{}, err
	}
	sum := laminate.Summarize(l)
	o := Outcome{Laminate: &sum}

	var n matrix.Vec6
	switch {
	case len(sc.Cases) > 0:
		v, res, err := loads.Combine(loads.Input{Cases: sc.Cases})
		if err != nil {
			return Outcome{}, err
		}
		n, o.Combo = v, res.ComboName
	case len(sc.Loads) > 0:
		if n, err = loads.FromMap(sc.Loads); err != nil {
			return Outcome{}, err
		}
	default:
		return o, nil
	}

	eps, kappa := l.Solve(n)
	var peak matrix.Vec3
	for _, ps := range l.StressProfile(eps, kappa) {
		for _, s := range []laminate.SurfaceStress{ps.Bottom, ps.Mid, ps.Top} {
			for k := range peak {
				peak[k] = math.Max(peak[k], math.Abs(s.Local[k]))
			}
		}
	}
	o.Loads, o.Strains, o.Curvatures, o.MaxLocal = &n, &eps, &kappa, &peak
	return o, nil
}

// Summary renders counts for logs and CLI output.
func (r Result) Summary() string {
	return fmt.Sprintf("%d scenarios, %d ok, %d failed", len(r.Outcomes), r.Succeeded, r.Failed)
}
