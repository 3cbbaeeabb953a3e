package profile

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"Layup/internal/auth"
	"Layup/internal/repo"
)

type ProfileHandler struct {
	Repo      repo.Repository
	Materials repo.MaterialRepository
}

// Profile is the signed-in user and the materials they have saved.
type Profile struct {
	repo.User
	Materials []repo.Material `json:"materials"`
}

func (h *ProfileHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	u, err := h.Repo.GetUser(r.Context(), userID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			http.Error(w, "Profile not found", http.StatusNotFound)
			return
		}
		log.Printf("GetUser %d: %v", userID, err)
		http.Error(w, "DB error", http.StatusInternalServerError)
		return
	}

	prof := Profile{User: u, Materials: []repo.Material{}}
	if h.Materials != nil {
		all, err := h.Materials.ListMaterials(r.Context())
		if err != nil {
			log.Printf("ListMaterials: %v", err)
			http.Error(w, "DB error", http.StatusInternalServerError)
			return
		}
		for _, m := range all {
			if m.OwnerID == userID {
				prof.Materials = append(prof.Materials, m)
			}
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(prof)
}
