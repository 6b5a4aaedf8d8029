package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/fitcal/backend/internal/api/middleware"
	"github.com/fitcal/backend/internal/storage"
)

// GetSettings returns all stored settings.
func GetSettings(repo *storage.SettingsRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		settings, err := repo.All(r.Context())
		if err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to load settings")
			return
		}
		writeJSON(w, settings)
	}
}

// UpdateSettings stores the provided key/value pairs.
func UpdateSettings(repo *storage.SettingsRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var updates map[string]string
		if err := json.NewDecoder(r.Body).Decode(&updates); err != nil {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrBadRequest, "Invalid request body")
			return
		}

		for key, value := range updates {
			if err := repo.Set(r.Context(), key, value); err != nil {
				middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to store setting")
				return
			}
		}

		settings, err := repo.All(r.Context())
		if err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to load settings")
			return
		}
		writeJSON(w, settings)
	}
}
