package chart

import (
	"bytes"
	"encoding/json"
	"net/http"

	"Layup/internal/calc/lamina"
	"Layup/internal/calc/laminate"
	"Layup/internal/calc/sweep"
)

type Handler struct {
	Presets lamina.Presets
	Runner  sweep.Runner
}

// Rotation runs a rotation sweep and answers with the PNG plot.
func (h *Handler) Rotation(w http.ResponseWriter, r *http.Request) {
	var input sweep.RotationInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	res, err := h.Runner.RotationCalculate(r.Context(), input, h.Presets)
	if err != nil {
		http.Error(w, err.Error(), lamina.ErrorStatus(err))
		return
	}
	var buf bytes.Buffer
	title := "[A] vs. global rotation"
	if res.Summary.QuasiIsotropic {
		title += " (quasi-isotropic)"
	}
	if err := StiffnessPNG(&buf, res.Points, title, "Rotation angle (°)"); err != nil {
		http.Error(w, "Chart error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Write(buf.Bytes())
}

// ProfileInput solves a loaded laminate and selects the stress component to
// plot: 0, 1 or 2, in global axes unless Local is set.
type ProfileInput struct {
	laminate.SolveInput
	Component int  `json:"component"`
	Local     bool `json:"local"`
}

// Profile answers with the through-thickness stress plot.
func (h *Handler) Profile(w http.ResponseWriter, r *http.Request) {
	var input ProfileInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	if input.Component < 0 || input.Component > 2 {
		http.Error(w, "component must be 0, 1 or 2", http.StatusBadRequest)
		return
	}
	res, err := laminate.SolveCalculate(input.SolveInput, h.Presets)
	if err != nil {
		http.Error(w, err.Error(), lamina.ErrorStatus(err))
		return
	}
	var buf bytes.Buffer
	if err := ProfilePNG(&buf, res.Profile, input.Component, input.Local); err != nil {
		http.Error(w, "Chart error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Write(buf.Bytes())
}
