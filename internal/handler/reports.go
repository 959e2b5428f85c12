package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/tableside-pos/api/internal/service"
)

// ReportServicer defines the service methods needed by report handlers.
type ReportServicer interface {
	Report(year int) service.Report
	CurrentYear() int
}

// ReportsHandler handles report endpoints.
type ReportsHandler struct {
	svc ReportServicer
}

// NewReportsHandler creates a new ReportsHandler.
func NewReportsHandler(svc ReportServicer) *ReportsHandler {
	return &ReportsHandler{svc: svc}
}

// RegisterRoutes registers report endpoints. Expected to be mounted at /reports.
func (h *ReportsHandler) RegisterRoutes(r chi.Router) {
	r.Get("/revenue", h.Revenue)
}

// --- Response types ---

type monthRevenueResponse struct {
	Month  int   `json:"month"`
	Amount int64 `json:"amount"`
}

type dishPopularityResponse struct {
	DishID   string `json:"dish_id"`
	Name     string `json:"name"`
	Quantity int64  `json:"quantity"`
}

type revenueReportResponse struct {
	Year        int                      `json:"year"`
	YearlyTotal int64                    `json:"yearly_total"`
	Months      []monthRevenueResponse   `json:"months"`
	TopDishes   []dishPopularityResponse `json:"top_dishes"`
}

// --- Handlers ---

// Revenue handles GET /reports/revenue?year=YYYY. The year defaults to the
// current one in the restaurant's time zone.
func (h *ReportsHandler) Revenue(w http.ResponseWriter, r *http.Request) {
	year := h.svc.CurrentYear()
	if s := r.URL.Query().Get("year"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v < 1 || v > 9999 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid year, use YYYY"})
			return
		}
		year = v
	}

	report := h.svc.Report(year)
	resp := revenueReportResponse{
		Year:        report.Year,
		YearlyTotal: report.YearlyTotal,
		Months:      make([]monthRevenueResponse, len(report.Months)),
		TopDishes:   make([]dishPopularityResponse, len(report.TopDishes)),
	}
	for i, m := range report.Months {
		resp.Months[i] = monthRevenueResponse{Month: m.Month, Amount: m.Amount}
	}
	for i, d := range report.TopDishes {
		resp.TopDishes[i] = dishPopularityResponse{DishID: d.DishID, Name: d.Name, Quantity: d.Quantity}
	}
	writeJSON(w, http.StatusOK, resp)
}
