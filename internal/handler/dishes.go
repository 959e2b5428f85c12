package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/tableside-pos/api/internal/model"
	"github.com/tableside-pos/api/internal/service"
)

// DishServicer defines the service methods needed by menu handlers.
// Satisfied by *service.POSService; narrow interface for testability.
type DishServicer interface {
	Menu() []service.MenuCategory
	Dishes() []model.Dish
	SaveDish(ctx context.Context, dish model.Dish) (model.Dish, error)
	DeleteDish(ctx context.Context, id string) error
}

// DishHandler handles the customer menu and staff dish editing.
type DishHandler struct {
	svc DishServicer
}

// NewDishHandler creates a new DishHandler.
func NewDishHandler(svc DishServicer) *DishHandler {
	return &DishHandler{svc: svc}
}

// RegisterRoutes registers dish endpoints. Expected to be mounted at /dishes.
func (h *DishHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Put("/{did}", h.Update)
	r.Delete("/{did}", h.Delete)
}

// --- Request / Response types ---

type dishRequest struct {
	Name             string   `json:"name"`
	Category         string   `json:"category"`
	Price            int64    `json:"price"`
	IsAvailable      bool     `json:"is_available"`
	ImageURL         string   `json:"image_url"`
	Options          []string `json:"options"`
	AllowCustomNotes bool     `json:"allow_custom_notes"`
}

type menuCategoryResponse struct {
	Category string       `json:"category"`
	Dishes   []model.Dish `json:"dishes"`
}

func (req dishRequest) toDish(id string) model.Dish {
	return model.Dish{
		ID:               id,
		Name:             req.Name,
		Category:         req.Category,
		Price:            req.Price,
		IsAvailable:      req.IsAvailable,
		ImageURL:         req.ImageURL,
		Options:          req.Options,
		AllowCustomNotes: req.AllowCustomNotes,
	}
}

// --- Handlers ---

// Menu handles GET /menu.
func (h *DishHandler) Menu(w http.ResponseWriter, r *http.Request) {
	menu := h.svc.Menu()
	resp := make([]menuCategoryResponse, len(menu))
	for i, c := range menu {
		resp[i] = menuCategoryResponse{Category: c.Name, Dishes: c.Dishes}
	}
	writeJSON(w, http.StatusOK, resp)
}

// List handles GET /dishes.
func (h *DishHandler) List(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Dishes())
}

// Create handles POST /dishes.
func (h *DishHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dishRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	d, err := h.svc.SaveDish(r.Context(), req.toDish(""))
	if err != nil {
		writeServiceError(w, "create dish", err)
		return
	}
	writeJSON(w, http.StatusCreated, d)
}

// Update handles PUT /dishes/{did}.
func (h *DishHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req dishRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	d, err := h.svc.SaveDish(r.Context(), req.toDish(chi.URLParam(r, "did")))
	if err != nil {
		writeServiceError(w, "update dish", err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// Delete handles DELETE /dishes/{did}.
func (h *DishHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteDish(r.Context(), chi.URLParam(r, "did")); err != nil {
		writeServiceError(w, "delete dish", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
