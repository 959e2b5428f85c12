package router

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/tableside-pos/api/internal/config"
	"github.com/tableside-pos/api/internal/handler"
	mw "github.com/tableside-pos/api/internal/middleware"
	"github.com/tableside-pos/api/internal/service"
)

// New creates a Chi router with the customer and staff routes wired to svc.
func New(cfg *config.Config, svc *service.POSService) chi.Router {
	r := chi.NewRouter()

	// Standard middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300, // 5 minutes
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	orderHandler := handler.NewOrderHandler(svc)
	tableHandler := handler.NewTableHandler(svc)
	dishHandler := handler.NewDishHandler(svc)

	// Diner surface
	r.Get("/menu", dishHandler.Menu)
	r.Route("/geofence", orderHandler.RegisterGeofenceRoutes)
	r.Route("/orders", orderHandler.RegisterRoutes)

	// Staff surface
	r.Route("/tables", func(r chi.Router) {
		tableHandler.RegisterRoutes(r)
		r.Route("/{tid}", func(r chi.Router) {
			r.Use(mw.RequireTable(svc))
			tableHandler.RegisterTableRoutes(r)
		})
	})
	r.Route("/dishes", dishHandler.RegisterRoutes)
	r.Route("/settings", handler.NewSettingsHandler(svc).RegisterRoutes)
	r.Route("/reports", handler.NewReportsHandler(svc).RegisterRoutes)

	log.Println("Router initialized with all handlers")
	return r
}
