package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/tableside-pos/api/internal/enum"
	"github.com/tableside-pos/api/internal/geo"
	"github.com/tableside-pos/api/internal/service"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("ERROR: failed to encode JSON response: %v", err)
	}
}

func decodeJSON(r *http.Request, v interface{}) error {
	return json.NewDecoder(r.Body).Decode(v)
}

type outOfRangeResponse struct {
	Error          string  `json:"error"`
	DistanceMeters float64 `json:"distance_meters"`
	RadiusMeters   float64 `json:"radius_meters"`
}

// writeServiceError maps service and geofence errors to HTTP responses.
// Anything unrecognized is logged under op and reported as a 500.
func writeServiceError(w http.ResponseWriter, op string, err error) {
	var oor *geo.OutOfRangeError
	switch {
	case errors.As(err, &oor):
		writeJSON(w, http.StatusForbidden, outOfRangeResponse{
			Error:          "out of range",
			DistanceMeters: oor.Distance,
			RadiusMeters:   oor.Radius,
		})
	case errors.Is(err, geo.ErrCannotVerify):
		writeJSON(w, http.StatusForbidden, map[string]string{
			"error":  geo.ErrCannotVerify.Error(),
			"reason": locationReason(err),
		})
	case isNotFoundError(err):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case isValidationError(err):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case isConflictError(err):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	default:
		log.Printf("ERROR: %s: %v", op, err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
	}
}

func isNotFoundError(err error) bool {
	return errors.Is(err, service.ErrOrderNotFound) ||
		errors.Is(err, service.ErrTableNotFound) ||
		errors.Is(err, service.ErrDishNotFound) ||
		errors.Is(err, service.ErrCodeNotFound) ||
		errors.Is(err, service.ErrLineNotFound)
}

func isValidationError(err error) bool {
	return errors.Is(err, service.ErrInvalidCode) ||
		errors.Is(err, service.ErrDishUnavailable) ||
		errors.Is(err, service.ErrOptionRequired) ||
		errors.Is(err, service.ErrUnknownOption) ||
		errors.Is(err, service.ErrNotesNotAllowed) ||
		errors.Is(err, service.ErrEmptyOrder) ||
		errors.Is(err, service.ErrInvalidDish) ||
		errors.Is(err, service.ErrInvalidTable) ||
		errors.Is(err, service.ErrInvalidStatus) ||
		errors.Is(err, service.ErrInvalidConfig)
}

func isConflictError(err error) bool {
	return errors.Is(err, service.ErrInvalidTransition) ||
		errors.Is(err, service.ErrVersionConflict) ||
		errors.Is(err, service.ErrOrderClosed) ||
		errors.Is(err, service.ErrNotEditable) ||
		errors.Is(err, service.ErrTableNotReset) ||
		errors.Is(err, service.ErrNotSubmitted)
}

func locationReason(err error) string {
	switch {
	case errors.Is(err, geo.ErrPermissionDenied):
		return enum.LocationPermissionDenied
	case errors.Is(err, geo.ErrLocationTimeout):
		return enum.LocationTimeout
	default:
		return enum.LocationUnavailable
	}
}

// positionRequest is the device's location report. Exactly one of Position
// or LocationError is normally set; neither means no position was obtained.
type positionRequest struct {
	Position      *geo.Point `json:"position"`
	LocationError string     `json:"location_error"`
}

func (p positionRequest) locator() geo.Locator {
	switch p.LocationError {
	case "":
	case enum.LocationPermissionDenied:
		return geo.Fixed{Err: geo.ErrPermissionDenied}
	case enum.LocationTimeout:
		return geo.Fixed{Err: geo.ErrLocationTimeout}
	default:
		return geo.Fixed{Err: geo.ErrPositionUnavailable}
	}
	return geo.Fixed{Position: p.Position}
}
