package middleware

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/tableside-pos/api/internal/model"
	"github.com/tableside-pos/api/internal/service"
)

// TableLookup is satisfied by *service.POSService.
type TableLookup interface {
	Table(id string) (model.Table, error)
}

// RequireTable rejects requests whose {tid} path parameter does not name a
// known table. Expected inside a table-scoped subrouter: /tables/{tid}
func RequireTable(tables TableLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tid := chi.URLParam(r, "tid")
			if tid == "" {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing table ID"})
				return
			}

			if _, err := tables.Table(tid); err != nil {
				if errors.Is(err, service.ErrTableNotFound) {
					writeJSON(w, http.StatusNotFound, map[string]string{"error": "table not found"})
					return
				}
				log.Printf("ERROR: lookup table %s: %v", tid, err)
				writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
