package report

import (
	"bytes"
	"encoding/json"
	"net/http"
	"time"

	"Layup/internal/calc/lamina"
)

type Handler struct {
	Presets lamina.Presets
}

func (h *Handler) Generate(w http.ResponseWriter, r *http.Request) {
	var input Input
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}

	var buf bytes.Buffer
	if err := Write(r.Context(), &buf, input, h.Presets, time.Now()); err != nil {
		http.Error(w, err.Error(), lamina.ErrorStatus(err))
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", "attachment; filename=\"report.pdf\"")
	w.Write(buf.Bytes())
}
