package importer

import (
	"bytes"
	"encoding/json"
	"log"
	"net/http"

	"Layup/internal/calc/batch"
	"Layup/internal/calc/lamina"
)

const MaxUploadSize = 10 << 20

type Handler struct {
	Presets lamina.Presets
}

type ImportResult struct {
	Count   int          `json:"count"`
	Skipped []RowError   `json:"skipped,omitempty"`
	Results batch.Result `json:"results"`
}

// Import runs every scenario of an uploaded xlsx (form field "file").
func (h *Handler) Import(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadSize)
	file, _, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "File required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	scenarios, skipped, err := Parse(file)
	if err != nil {
		http.Error(w, "Invalid file", http.StatusBadRequest)
		return
	}
	res := ImportResult{Count: len(scenarios), Skipped: skipped}
	if len(scenarios) > 0 {
		res.Results, _ = batch.Run(batch.Input{Scenarios: scenarios}, h.Presets)
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(res)
}

// Export runs a JSON batch and answers with the results as xlsx.
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	var input batch.Input
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	res, err := batch.Run(input, h.Presets)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	var buf bytes.Buffer
	if err := Export(&buf, res); err != nil {
		log.Printf("xlsx export: %v", err)
		http.Error(w, "Export error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", "attachment; filename=\"layup-results.xlsx\"")
	w.Write(buf.Bytes())
}
