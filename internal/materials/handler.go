package materials

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/gorilla/mux"

	"Layup/internal/auth"
	"Layup/internal/calc/lamina"
)

type Handler struct {
	Table *Table
}

type CreateRequest struct {
	Name     string          `json:"name"`
	Material lamina.Material `json:"material"`
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(h.Table.List())
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	m, err := h.Table.Lookup(name)
	if err != nil {
		http.Error(w, "Material not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(Entry{Name: name, Material: m})
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	if err := h.Table.Put(r.Context(), req.Name, req.Material, userID); err != nil {
		if errors.Is(err, lamina.ErrInvalidMaterial) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		log.Printf("Put material %q: %v", req.Name, err)
		http.Error(w, "DB error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(Entry{Name: req.Name, Material: req.Material})
}
