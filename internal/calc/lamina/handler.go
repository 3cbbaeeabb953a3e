package lamina

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"Layup/internal/calc/matrix"
)

// ErrUnknownPreset is returned when a named material is not in the table.
var ErrUnknownPreset = errors.New("lamina: unknown material preset")

// Presets resolves named materials.
type Presets interface {
	Lookup(name string) (Material, error)
}

// MaterialInput lets a request name a preset or give constants inline.
// Inline constants win when both are present.
type MaterialInput struct {
	Preset   string    `json:"preset,omitempty"`
	Material *Material `json:"material,omitempty"`
}

// ErrorStatus maps a calculation error to an HTTP status: 404 for an
// unknown preset, 400 otherwise.
func ErrorStatus(err error) int {
	if errors.Is(err, ErrUnknownPreset) {
		return http.StatusNotFound
	}
	return http.StatusBadRequest
}

func (in MaterialInput) Resolve(p Presets) (Material, error) {
	if in.Material != nil {
		return *in.Material, nil
	}
	if in.Preset == "" {
		return Material{}, fmt.Errorf("%w: no material or preset given", ErrInvalidMaterial)
	}
	if p == nil {
		return Material{}, fmt.Errorf("%w: %q", ErrUnknownPreset, in.Preset)
	}
	return p.Lookup(in.Preset)
}

type Input struct {
	MaterialInput
	ThicknessMM float64 `json:"thickness_mm"`
	ThetaDeg    float64 `json:"theta_deg"`
}

type Result struct {
	Material   Material    `json:"material"`
	Nu21       float64     `json:"nu21"`
	Q          matrix.Mat3 `json:"q"`
	QBar       matrix.Mat3 `json:"qbar"`
	Compliance matrix.Mat3 `json:"compliance"`
}

func Calculate(in Input, p Presets) (Result, error) {
	m, err := in.Resolve(p)
	if err != nil {
		return Result{}, err
	}
	l, err := New(m, in.ThicknessMM, in.ThetaDeg)
	if err != nil {
		return Result{}, err
	}
	return Result{
		Material:   m,
		Nu21:       m.Nu21(),
		Q:          l.Q(),
		QBar:       l.QBar(),
		Compliance: l.Compliance(),
	}, nil
}

type Handler struct {
	Presets Presets
}

func (h *Handler) Calc(w http.ResponseWriter, r *http.Request) {
	var input Input
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	res, err := Calculate(input, h.Presets)
	if err != nil {
		http.Error(w, err.Error(), ErrorStatus(err))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(res)
}
