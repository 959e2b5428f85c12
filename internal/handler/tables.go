package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/tableside-pos/api/internal/model"
	"github.com/tableside-pos/api/internal/service"
)

// TableServicer defines the service methods needed by table handlers.
// Satisfied by *service.POSService; narrow interface for testability.
type TableServicer interface {
	Board() []service.TableView
	ResolveTableOrder(tableID string) (*model.Order, error)
	StartOrder(ctx context.Context, tableID string) (model.Order, bool, error)
	ResetTable(ctx context.Context, tableID string) (model.Table, error)
	SaveTable(ctx context.Context, table model.Table) (model.Table, error)
	DeleteTable(ctx context.Context, id string) error
}

// TableHandler handles table board and floor plan endpoints.
type TableHandler struct {
	svc TableServicer
}

// NewTableHandler creates a new TableHandler.
func NewTableHandler(svc TableServicer) *TableHandler {
	return &TableHandler{svc: svc}
}

// RegisterRoutes registers table endpoints on the given Chi router.
// Expected to be mounted at /tables.
func (h *TableHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.Board)
	r.Post("/", h.Create)
}

// RegisterTableRoutes registers per-table endpoints. Expected to be mounted
// inside a table-scoped subrouter: /tables/{tid}
func (h *TableHandler) RegisterTableRoutes(r chi.Router) {
	r.Put("/", h.Update)
	r.Delete("/", h.Delete)
	r.Get("/order", h.ActiveOrder)
	r.Post("/orders", h.StartOrder)
	r.Post("/reset", h.Reset)
}

// --- Request / Response types ---

type tableRequest struct {
	Name     string `json:"name"`
	Capacity int    `json:"capacity"`
	QRCode   string `json:"qr_code"`
	Status   string `json:"status"`
}

type boardTileResponse struct {
	Table         model.Table    `json:"table"`
	Order         *orderResponse `json:"order"`
	BoardStatus   string         `json:"board_status"`
	UnservedCount int            `json:"unserved_count"`
}

type activeOrderResponse struct {
	Order *orderResponse `json:"order"`
}

type startOrderResponse struct {
	orderResponse
	Created bool `json:"created"`
}

func (req tableRequest) toTable(id string) model.Table {
	return model.Table{
		ID:       id,
		Name:     req.Name,
		Capacity: req.Capacity,
		QRCode:   req.QRCode,
		Status:   req.Status,
	}
}

// --- Handlers ---

// Board handles GET /tables.
func (h *TableHandler) Board(w http.ResponseWriter, r *http.Request) {
	views := h.svc.Board()
	resp := make([]boardTileResponse, len(views))
	for i, v := range views {
		resp[i] = boardTileResponse{
			Table:         v.Table,
			BoardStatus:   v.BoardStatus,
			UnservedCount: v.UnservedCount,
		}
		if v.Order != nil {
			o := toOrderResponse(*v.Order)
			resp[i].Order = &o
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// ActiveOrder handles GET /tables/{tid}/order.
func (h *TableHandler) ActiveOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.svc.ResolveTableOrder(chi.URLParam(r, "tid"))
	if err != nil {
		writeServiceError(w, "resolve table order", err)
		return
	}

	var resp activeOrderResponse
	if order != nil {
		o := toOrderResponse(*order)
		resp.Order = &o
	}
	writeJSON(w, http.StatusOK, resp)
}

// StartOrder handles POST /tables/{tid}/orders.
func (h *TableHandler) StartOrder(w http.ResponseWriter, r *http.Request) {
	o, created, err := h.svc.StartOrder(r.Context(), chi.URLParam(r, "tid"))
	if err != nil {
		writeServiceError(w, "start order", err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, startOrderResponse{orderResponse: toOrderResponse(o), Created: created})
}

// Reset handles POST /tables/{tid}/reset.
func (h *TableHandler) Reset(w http.ResponseWriter, r *http.Request) {
	t, err := h.svc.ResetTable(r.Context(), chi.URLParam(r, "tid"))
	if err != nil {
		writeServiceError(w, "reset table", err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// Create handles POST /tables.
func (h *TableHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req tableRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	t, err := h.svc.SaveTable(r.Context(), req.toTable(""))
	if err != nil {
		writeServiceError(w, "create table", err)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

// Update handles PUT /tables/{tid}.
func (h *TableHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req tableRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	t, err := h.svc.SaveTable(r.Context(), req.toTable(chi.URLParam(r, "tid")))
	if err != nil {
		writeServiceError(w, "update table", err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// Delete handles DELETE /tables/{tid}.
func (h *TableHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteTable(r.Context(), chi.URLParam(r, "tid")); err != nil {
		writeServiceError(w, "delete table", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
