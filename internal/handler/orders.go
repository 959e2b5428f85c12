package handler

import (
	"context"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/tableside-pos/api/internal/enum"
	"github.com/tableside-pos/api/internal/geo"
	"github.com/tableside-pos/api/internal/model"
	"github.com/tableside-pos/api/internal/service"
)

// OrderServicer defines the service methods needed by order handlers.
// Satisfied by *service.POSService; narrow interface for testability.
type OrderServicer interface {
	Order(id string) (model.Order, error)
	Orders(status string) []model.Order
	JoinByCode(code string) (model.Order, error)
	ApplySelection(ctx context.Context, req service.SelectionRequest) (model.Order, error)
	Submit(ctx context.Context, orderID string, loc geo.Locator, expectedVersion int64) (model.Order, error)
	AcceptForPreparation(ctx context.Context, orderID string) (model.Order, error)
	CheckIn(ctx context.Context, orderID string) (model.Order, error)
	Settle(ctx context.Context, orderID string) (model.Order, error)
	Cancel(ctx context.Context, orderID string) (model.Order, error)
	ToggleServed(ctx context.Context, orderID string, key model.LineKey) (model.Order, error)
	CheckGeofence(ctx context.Context, loc geo.Locator) (float64, error)
}

// OrderHandler handles order endpoints for both diners and staff.
type OrderHandler struct {
	svc OrderServicer
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(svc OrderServicer) *OrderHandler {
	return &OrderHandler{svc: svc}
}

// RegisterRoutes registers order endpoints on the given Chi router.
// Expected to be mounted at /orders.
func (h *OrderHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/join", h.Join)
	r.Get("/{id}", h.Get)
	r.Post("/{id}/items", h.AddItem)
	r.Patch("/{id}/items/served", h.ToggleServed)
	r.Post("/{id}/submit", h.Submit)
	r.Post("/{id}/accept", h.Accept)
	r.Post("/{id}/check-in", h.CheckIn)
	r.Post("/{id}/settle", h.Settle)
	r.Post("/{id}/cancel", h.Cancel)
}

// RegisterGeofenceRoutes registers the location range check. Expected to be
// mounted at /geofence.
func (h *OrderHandler) RegisterGeofenceRoutes(r chi.Router) {
	r.Post("/check", h.CheckGeofence)
}

// --- Request / Response types ---

type joinRequest struct {
	Code string `json:"code"`
}

type addItemRequest struct {
	DishID          string `json:"dish_id"`
	Delta           int64  `json:"delta"`
	Option          string `json:"option"`
	Note            string `json:"note"`
	ExpectedVersion int64  `json:"expected_version"`
}

type submitRequest struct {
	positionRequest
	ExpectedVersion int64 `json:"expected_version"`
}

type lineRequest struct {
	DishID string `json:"dish_id"`
	Option string `json:"option"`
	Note   string `json:"note"`
}

type orderResponse struct {
	model.Order
	Subtotal int64 `json:"subtotal"`
}

type orderListResponse struct {
	Orders []orderResponse `json:"orders"`
}

type geofenceResponse struct {
	WithinRange    bool    `json:"within_range"`
	DistanceMeters float64 `json:"distance_meters"`
}

// toOrderResponse recomputes the subtotal from the order lines and logs when
// the stored total no longer matches it.
func toOrderResponse(o model.Order) orderResponse {
	var subtotal int64
	for _, item := range o.Items {
		subtotal += item.Price * item.Quantity
	}
	if subtotal+o.ServiceFee != o.TotalAmount {
		log.Printf("WARNING: order %s total %d does not match lines %d + fee %d", o.ID, o.TotalAmount, subtotal, o.ServiceFee)
	}
	return orderResponse{Order: o, Subtotal: subtotal}
}

// --- Handlers ---

// List handles GET /orders.
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	switch status {
	case "", enum.OrderStatusOrdering, enum.OrderStatusSubmitted, enum.OrderStatusCheckedIn,
		enum.OrderStatusPaid, enum.OrderStatusCancelled:
	default:
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid status filter"})
		return
	}

	orders := h.svc.Orders(status)
	resp := orderListResponse{Orders: make([]orderResponse, len(orders))}
	for i, o := range orders {
		resp.Orders[i] = toOrderResponse(o)
	}
	writeJSON(w, http.StatusOK, resp)
}

// Get handles GET /orders/{id}.
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	o, err := h.svc.Order(chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, "get order", err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(o))
}

// Join handles POST /orders/join.
func (h *OrderHandler) Join(w http.ResponseWriter, r *http.Request) {
	var req joinRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	o, err := h.svc.JoinByCode(req.Code)
	if err != nil {
		writeServiceError(w, "join order", err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(o))
}

// AddItem handles POST /orders/{id}/items.
func (h *OrderHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.DishID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "dish_id is required"})
		return
	}
	if req.Delta == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "delta must not be 0"})
		return
	}

	o, err := h.svc.ApplySelection(r.Context(), service.SelectionRequest{
		OrderID:         chi.URLParam(r, "id"),
		DishID:          req.DishID,
		Delta:           req.Delta,
		Option:          req.Option,
		Note:            req.Note,
		ExpectedVersion: req.ExpectedVersion,
	})
	if err != nil {
		writeServiceError(w, "apply selection", err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(o))
}

// Submit handles POST /orders/{id}/submit.
func (h *OrderHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	o, err := h.svc.Submit(r.Context(), chi.URLParam(r, "id"), req.locator(), req.ExpectedVersion)
	if err != nil {
		writeServiceError(w, "submit order", err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(o))
}

// Accept handles POST /orders/{id}/accept.
func (h *OrderHandler) Accept(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "accept order", h.svc.AcceptForPreparation)
}

// CheckIn handles POST /orders/{id}/check-in.
func (h *OrderHandler) CheckIn(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "check in order", h.svc.CheckIn)
}

// Settle handles POST /orders/{id}/settle.
func (h *OrderHandler) Settle(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "settle order", h.svc.Settle)
}

// Cancel handles POST /orders/{id}/cancel.
func (h *OrderHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "cancel order", h.svc.Cancel)
}

func (h *OrderHandler) transition(w http.ResponseWriter, r *http.Request, op string, fn func(context.Context, string) (model.Order, error)) {
	o, err := fn(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(o))
}

// ToggleServed handles PATCH /orders/{id}/items/served.
func (h *OrderHandler) ToggleServed(w http.ResponseWriter, r *http.Request) {
	var req lineRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.DishID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "dish_id is required"})
		return
	}

	key := model.LineKey{DishID: req.DishID, Option: req.Option, Note: req.Note}
	o, err := h.svc.ToggleServed(r.Context(), chi.URLParam(r, "id"), key)
	if err != nil {
		writeServiceError(w, "toggle served", err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(o))
}

// CheckGeofence handles POST /geofence/check.
func (h *OrderHandler) CheckGeofence(w http.ResponseWriter, r *http.Request) {
	var req positionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	dist, err := h.svc.CheckGeofence(r.Context(), req.locator())
	if err != nil {
		writeServiceError(w, "check geofence", err)
		return
	}
	writeJSON(w, http.StatusOK, geofenceResponse{WithinRange: true, DistanceMeters: dist})
}
