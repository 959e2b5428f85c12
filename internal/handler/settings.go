package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/tableside-pos/api/internal/model"
)

// SettingsServicer defines the service methods needed by settings handlers.
type SettingsServicer interface {
	Config() model.SystemConfig
	UpdateConfig(ctx context.Context, cfg model.SystemConfig) (model.SystemConfig, error)
}

// SettingsHandler handles the restaurant configuration.
type SettingsHandler struct {
	svc SettingsServicer
}

// NewSettingsHandler creates a new SettingsHandler.
func NewSettingsHandler(svc SettingsServicer) *SettingsHandler {
	return &SettingsHandler{svc: svc}
}

// RegisterRoutes registers settings endpoints. Expected to be mounted at /settings.
func (h *SettingsHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.Get)
	r.Put("/", h.Update)
}

// Get handles GET /settings.
func (h *SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Config())
}

// Update handles PUT /settings. The body replaces the whole configuration.
func (h *SettingsHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req model.SystemConfig
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	cfg, err := h.svc.UpdateConfig(r.Context(), req)
	if err != nil {
		writeServiceError(w, "update settings", err)
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}
