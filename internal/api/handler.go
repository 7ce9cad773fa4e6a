// Package api provides HTTP handlers for the MazeLab API.
package api

import (
	"net/http"

	json "github.com/goccy/go-json"
	"github.com/mazelab/mazelab/internal/recommend"
	"github.com/mazelab/mazelab/internal/store"
)

// Handler provides common handler utilities.
type Handler struct {
	store       store.Store
	recommender *recommend.Recommender
}

// NewHandler creates a new Handler with common dependencies.
func NewHandler(st store.Store, rec *recommend.Recommender) *Handler {
	return &Handler{
		store:       st,
		recommender: rec,
	}
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

func decode(r *http.Request, v interface{}) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}
