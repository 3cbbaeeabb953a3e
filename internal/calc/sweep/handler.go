package sweep

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"Layup/internal/calc/lamina"
	"Layup/internal/calc/laminate"
)

// Range is either an explicit list of Values or From..To by Step.
type Range struct {
	From   float64   `json:"from"`
	To     float64   `json:"to"`
	Step   float64   `json:"step"`
	Values []float64 `json:"values,omitempty"`
}

func (rg Range) Expand(defFrom, defTo, defStep float64) ([]float64, error) {
	if len(rg.Values) > MaxPoints {
		return nil, fmt.Errorf("%w: %d values, at most %d", ErrNoPoints, len(rg.Values), MaxPoints)
	}
	if len(rg.Values) > 0 {
		return rg.Values, nil
	}
	if rg.Step == 0 && rg.From == 0 && rg.To == 0 {
		return Steps(defFrom, defTo, defStep)
	}
	return Steps(rg.From, rg.To, rg.Step)
}

type RotationInput struct {
	laminate.Input
	Range
}

type RotationResult struct {
	Base    []float64 `json:"base"`
	Points  []Point   `json:"points"`
	Summary Summary   `json:"summary"`
}

// RotationCalculate sweeps 0..360 in 5° steps unless a range is given.
func (r Runner) RotationCalculate(ctx context.Context, in RotationInput, p lamina.Presets) (RotationResult, error) {
	m, base, err := resolveBase(in.Input, p)
	if err != nil {
		return RotationResult{}, err
	}
	xs, err := in.Range.Expand(0, 360, 5)
	if err != nil {
		return RotationResult{}, err
	}
	pts, err := r.Rotation(ctx, m, base, in.Thickness(), xs)
	if err != nil {
		return RotationResult{}, err
	}
	return RotationResult{Base: base, Points: pts, Summary: QuasiIsotropy(pts)}, nil
}

type PlyInput struct {
	laminate.Input
	Range
	Ply      int    `json:"ply"`
	Property string `json:"property,omitempty"`
}

type PlyResult struct {
	Base     []float64 `json:"base"`
	Ply      int       `json:"ply,omitempty"`
	Property string    `json:"property,omitempty"`
	Points   []Point   `json:"points"`
}

// PlyCalculate sweeps one ply angle over -90..90, or a material constant
// when Property is set.
func (r Runner) PlyCalculate(ctx context.Context, in PlyInput, p lamina.Presets) (PlyResult, error) {
	m, base, err := resolveBase(in.Input, p)
	if err != nil {
		return PlyResult{}, err
	}
	if in.Property != "" {
		xs, err := in.Range.Expand(0, 0, 0)
		if err != nil {
			return PlyResult{}, err
		}
		pts, err := r.Property(ctx, m, base, in.Thickness(), in.Property, xs)
		if err != nil {
			return PlyResult{}, err
		}
		return PlyResult{Base: base, Property: in.Property, Points: pts}, nil
	}
	xs, err := in.Range.Expand(-90, 90, 5)
	if err != nil {
		return PlyResult{}, err
	}
	pts, err := r.PlyAngle(ctx, m, base, in.Thickness(), in.Ply, xs)
	if err != nil {
		return PlyResult{}, err
	}
	return PlyResult{Base: base, Ply: in.Ply, Points: pts}, nil
}

// resolveBase builds the unswept laminate once so input errors surface
// before any points run.
func resolveBase(in laminate.Input, p lamina.Presets) (lamina.Material, []float64, error) {
	l, err := in.Build(p)
	if err != nil {
		return lamina.Material{}, nil, err
	}
	return l.Material(), l.Angles(), nil
}

type Handler struct {
	Presets lamina.Presets
	Runner  Runner
}

func (h *Handler) Rotation(w http.ResponseWriter, r *http.Request) {
	var input RotationInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	res, err := h.Runner.RotationCalculate(r.Context(), input, h.Presets)
	if err != nil {
		http.Error(w, err.Error(), lamina.ErrorStatus(err))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(res)
}

func (h *Handler) Ply(w http.ResponseWriter, r *http.Request) {
	var input PlyInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	res, err := h.Runner.PlyCalculate(r.Context(), input, h.Presets)
	if err != nil {
		http.Error(w, err.Error(), lamina.ErrorStatus(err))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(res)
}
