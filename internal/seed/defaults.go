// Package seed provides the default data set used when no prior state exists.
package seed

import (
	"github.com/shopspring/decimal"
	"github.com/tableside-pos/api/internal/enum"
	"github.com/tableside-pos/api/internal/model"
)

var (
	optTemp   = []string{"Hot", "Iced"}
	optIce    = []string{"Regular Ice", "Less Ice", "No Ice"}
	optSugar  = []string{"Regular Sugar", "Half Sugar", "Light Sugar", "No Sugar"}
	optFlavor = []string{"Original", "Caramel", "Hazelnut", "Vanilla", "Rose"}
)

const (
	catEstate = "Estate Roasted Coffee"
	catLatte  = "Latte & Coffee"
	catTea    = "Tea & Juice"
)

func join(groups ...[]string) []string {
	var out []string
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}

func dish(id, name, category string, price int64, options []string) model.Dish {
	return model.Dish{
		ID:               id,
		Name:             name,
		Category:         category,
		Price:            price,
		IsAvailable:      true,
		Options:          options,
		AllowCustomNotes: true,
	}
}

// Dishes returns the default menu.
func Dishes() []model.Dish {
	return []model.Dish{
		dish("c1", "COE Competition Coffee", catEstate, 220, optTemp),
		dish("c2", "Cloud Coffee", catEstate, 190, optTemp),
		dish("c3", "Royal Hot Spring Coffee", catEstate, 160, optTemp),
		dish("c4", "Tiger Mountain Coffee", catEstate, 150, optTemp),
		dish("c5", "Antigua Volcano Coffee", catEstate, 140, optTemp),
		dish("c6", "Old Sam Coffee", catEstate, 140, optTemp),
		dish("c7", "Maya Classic Coffee", catEstate, 130, optTemp),
		dish("c8", "Estate Iced Coffee", catEstate, 130, optIce),

		dish("l1", "Cappuccino", catLatte, 160, optTemp),
		dish("l2", "Flavored Latte", catLatte, 160, join(optFlavor, optTemp)),
		dish("l3", "Mochaccino", catLatte, 160, optTemp),
		dish("l4", "Caramel Macchiato", catLatte, 160, optTemp),
		dish("l5", "Vienna Coffee", catLatte, 160, optTemp),
		dish("l6", "Cocoa Latte", catLatte, 160, optTemp),
		dish("l7", "Rose Romance Iced Coffee", catLatte, 160, optIce),
		dish("l8", "Vanilla Iced Coffee", catLatte, 160, optIce),
		dish("l9", "Matcha Coffee", catLatte, 160, optTemp),
		dish("l10", "House Iced Coffee", catLatte, 160, optIce),
		dish("l11", "Espresso", catLatte, 140, []string{"Hot"}),

		dish("t1", "House Milk Tea", catTea, 140, join([]string{"No Ice", "Less Ice", "Regular Ice", "Warm", "Hot"}, optSugar)),
		dish("t2", "Kumquat Tea", catTea, 140, join(optTemp, optSugar)),
		dish("t3", "Rose Tea", catTea, 140, join(optTemp, optSugar)),
		dish("t4", "Goji Chrysanthemum Tea", catTea, 140, join(optTemp, optSugar)),
		dish("t5", "Ginger Longan Tea (Hot)", catTea, 180, join([]string{"Hot"}, optSugar)),
		dish("t6", "Vegetable Juice (Iced)", catTea, 130, []string{"No Ice", "Less Ice", "Regular Ice"}),
		dish("t7", "Honey Lemon Juice (Iced)", catTea, 130, join([]string{"No Ice", "Less Ice", "Regular Ice"}, optSugar)),
		dish("t8", "Apple Juice (Iced)", catTea, 130, []string{"No Ice", "Less Ice", "Regular Ice"}),
		dish("t9", "Mango Juice (Iced)", catTea, 150, []string{"No Ice", "Less Ice", "Regular Ice"}),
		dish("t10", "Green Citrus Tea (Hot)", catTea, 150, []string{"Hot"}),
	}
}

// Tables returns the default floor plan, all idle.
func Tables() []model.Table {
	return []model.Table{
		{ID: "tab1", Name: "Table 1", Capacity: 2, QRCode: "DG-01", Status: enum.TableStatusIdle},
		{ID: "tab2", Name: "Table 2", Capacity: 2, QRCode: "DG-02", Status: enum.TableStatusIdle},
		{ID: "tab3", Name: "Table 3", Capacity: 4, QRCode: "DG-03", Status: enum.TableStatusIdle},
		{ID: "tab4", Name: "Table 4", Capacity: 4, QRCode: "DG-04", Status: enum.TableStatusIdle},
		{ID: "tab5", Name: "Sofa Area", Capacity: 6, QRCode: "DG-05", Status: enum.TableStatusIdle},
	}
}

// Config returns the default configuration. GPS and service fee start disabled.
func Config() model.SystemConfig {
	return model.SystemConfig{
		RestaurantName:      "Don Gus Coffee",
		GPSRadius:           100,
		CenterCoords:        model.Coords{Lat: 25.0330, Lng: 121.5654},
		ServiceFeeRate:      decimal.RequireFromString("0.1"),
		IsServiceFeeEnabled: false,
		IsGPSEnabled:        false,
	}
}
