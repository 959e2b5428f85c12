// Package geo gates order submission on the diner being close to the
// restaurant.
package geo

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/tableside-pos/api/internal/model"
)

// EarthRadiusMeters is the mean radius used by the haversine formula.
const EarthRadiusMeters = 6371000.0

// Errors returned while acquiring or checking a position.
var (
	ErrPermissionDenied    = errors.New("location permission denied")
	ErrLocationTimeout     = errors.New("location request timed out")
	ErrPositionUnavailable = errors.New("position unavailable")
	ErrCannotVerify        = errors.New("cannot verify location")
)

// Point is a latitude/longitude pair in decimal degrees.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// OutOfRangeError is the soft block returned when the diner is too far away.
type OutOfRangeError struct {
	Distance float64
	Radius   float64
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("%.0fm from restaurant, ordering allowed within %.0fm", e.Distance, e.Radius)
}

// DistanceMeters returns the great-circle distance between two points.
func DistanceMeters(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := lat1 * math.Pi / 180
	phi2 := lat2 * math.Pi / 180
	dPhi := (lat2 - lat1) * math.Pi / 180
	dLambda := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	// Rounding can push a past 1 for near-antipodal points.
	a = math.Min(1, math.Max(0, a))
	return EarthRadiusMeters * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

// IsWithinRange reports whether point lies within radiusMeters of center.
func IsWithinRange(point, center Point, radiusMeters float64) bool {
	return DistanceMeters(point.Lat, point.Lng, center.Lat, center.Lng) <= radiusMeters
}

// Locator yields the caller's current position.
type Locator interface {
	Locate(ctx context.Context) (Point, error)
}

// LocatorFunc adapts a function to Locator.
type LocatorFunc func(ctx context.Context) (Point, error)

// Locate calls f.
func (f LocatorFunc) Locate(ctx context.Context) (Point, error) { return f(ctx) }

// Fixed is a Locator for a position (or failure) already reported by a client.
type Fixed struct {
	Position *Point
	Err      error
}

// Locate returns the reported position, or the reported failure.
// A Fixed with neither is treated as unavailable.
func (f Fixed) Locate(ctx context.Context) (Point, error) {
	if f.Err != nil {
		return Point{}, f.Err
	}
	if f.Position == nil {
		return Point{}, ErrPositionUnavailable
	}
	return *f.Position, nil
}

// Acquire asks loc for a position and waits at most timeout for it.
// A nil locator is a missing position, never a pass.
func Acquire(ctx context.Context, loc Locator, timeout time.Duration) (Point, error) {
	if loc == nil {
		return Point{}, ErrPositionUnavailable
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type result struct {
		p   Point
		err error
	}
	ch := make(chan result, 1)
	go func() {
		p, err := loc.Locate(ctx)
		ch <- result{p, err}
	}()

	select {
	case r := <-ch:
		if errors.Is(r.err, context.DeadlineExceeded) {
			return Point{}, ErrLocationTimeout
		}
		return r.p, r.err
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return Point{}, ErrLocationTimeout
		}
		// The caller gave up (prompt closed), same as a denial.
		return Point{}, ErrPermissionDenied
	}
}

// Check runs the submission geofence for cfg. It is a no-op when GPS
// verification is disabled.
func Check(ctx context.Context, cfg model.SystemConfig, loc Locator, timeout time.Duration) error {
	if !cfg.IsGPSEnabled {
		return nil
	}

	p, err := Acquire(ctx, loc, timeout)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrCannotVerify, err)
	}

	center := Point{Lat: cfg.CenterCoords.Lat, Lng: cfg.CenterCoords.Lng}
	dist := DistanceMeters(p.Lat, p.Lng, center.Lat, center.Lng)
	if math.IsNaN(dist) || dist > cfg.GPSRadius {
		return &OutOfRangeError{Distance: dist, Radius: cfg.GPSRadius}
	}
	return nil
}
