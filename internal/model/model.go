// Package model holds the persisted records shared by the service, store and
// handler layers. Every type here is JSON-serializable as stored.
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Dish is a menu entry. Only Price, Name and IsAvailable are read by the
// ordering flow; the rest is menu metadata.
type Dish struct {
	ID               string   `json:"id"`
	Name             string   `json:"name"`
	Category         string   `json:"category"`
	Price            int64    `json:"price"`
	IsAvailable      bool     `json:"is_available"`
	ImageURL         string   `json:"image_url,omitempty"`
	Options          []string `json:"options,omitempty"`
	AllowCustomNotes bool     `json:"allow_custom_notes"`
}

// HasOption reports whether opt is one of the dish's declared choices.
func (d Dish) HasOption(opt string) bool {
	for _, o := range d.Options {
		if o == opt {
			return true
		}
	}
	return false
}

// LineKey identifies an order line for merging.
type LineKey struct {
	DishID string
	Option string
	Note   string
}

// OrderItem is one aggregated order line. Name and Price are snapshots taken
// when the line was first added.
type OrderItem struct {
	DishID         string `json:"dish_id"`
	Name           string `json:"name"`
	Price          int64  `json:"price"`
	Quantity       int64  `json:"quantity"`
	SelectedOption string `json:"selected_option,omitempty"`
	CustomNote     string `json:"custom_note,omitempty"`
	IsServed       bool   `json:"is_served"`
}

// Key returns the merge identity of the line.
func (i OrderItem) Key() LineKey {
	return LineKey{DishID: i.DishID, Option: i.SelectedOption, Note: i.CustomNote}
}

// Order is a table tab. TotalAmount and ServiceFee are derived and kept as a
// cache for display; only the service package writes them.
type Order struct {
	ID          string      `json:"id"`
	TableID     string      `json:"table_id"`
	TableName   string      `json:"table_name"`
	RandomCode  string      `json:"random_code"`
	Items       []OrderItem `json:"items"`
	Status      string      `json:"status"`
	CreatedAt   time.Time   `json:"created_at"`
	SubmittedAt *time.Time  `json:"submitted_at,omitempty"`
	PaidAt      *time.Time  `json:"paid_at,omitempty"`
	TotalAmount int64       `json:"total_amount"`
	ServiceFee  int64       `json:"service_fee"`
	Version     int64       `json:"version"`
}

// Clone returns a deep copy so callers can mutate without touching shared state.
func (o Order) Clone() Order {
	c := o
	c.Items = append([]OrderItem(nil), o.Items...)
	if o.SubmittedAt != nil {
		t := *o.SubmittedAt
		c.SubmittedAt = &t
	}
	if o.PaidAt != nil {
		t := *o.PaidAt
		c.PaidAt = &t
	}
	return c
}

// Table is a physical table. Status is the manual staff flag.
type Table struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Capacity int    `json:"capacity"`
	QRCode   string `json:"qr_code"`
	Status   string `json:"status"`
}

// Coords is a WGS84 position in decimal degrees.
type Coords struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// SystemConfig is the global restaurant configuration.
type SystemConfig struct {
	RestaurantName      string          `json:"restaurant_name"`
	GPSRadius           float64         `json:"gps_radius"`
	CenterCoords        Coords          `json:"center_coords"`
	ServiceFeeRate      decimal.Decimal `json:"service_fee_rate"`
	IsServiceFeeEnabled bool            `json:"is_service_fee_enabled"`
	IsGPSEnabled        bool            `json:"is_gps_enabled"`
}
