package service

import (
	"errors"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/tableside-pos/api/internal/enum"
	"github.com/tableside-pos/api/internal/model"
)

// Errors returned when staff edit the menu, floor plan or settings.
var (
	ErrInvalidDish   = errors.New("dish name and category are required and price must be >= 0")
	ErrInvalidTable  = errors.New("table name is required and capacity must be > 0")
	ErrInvalidStatus = errors.New("invalid table status")
	ErrInvalidConfig = errors.New("gps radius must be >= 0 and service fee rate between 0 and 1")
)

// MenuCategory is one customer-facing menu section.
type MenuCategory struct {
	Name   string
	Dishes []model.Dish
}

// GroupMenu keeps available dishes only and groups them by category, with
// categories sorted by name and dishes in menu order.
func GroupMenu(dishes []model.Dish) []MenuCategory {
	byName := make(map[string]int)
	var menu []MenuCategory
	for _, d := range dishes {
		if !d.IsAvailable {
			continue
		}
		i, ok := byName[d.Category]
		if !ok {
			i = len(menu)
			byName[d.Category] = i
			menu = append(menu, MenuCategory{Name: d.Category})
		}
		menu[i].Dishes = append(menu[i].Dishes, d)
	}
	sort.SliceStable(menu, func(i, j int) bool { return menu[i].Name < menu[j].Name })
	return menu
}

// normalizeDish trims text fields and drops blank or duplicate options.
func normalizeDish(d model.Dish) (model.Dish, error) {
	d.Name = strings.TrimSpace(d.Name)
	d.Category = strings.TrimSpace(d.Category)
	if d.Name == "" || d.Category == "" || d.Price < 0 {
		return model.Dish{}, ErrInvalidDish
	}

	seen := make(map[string]bool, len(d.Options))
	var opts []string
	for _, o := range d.Options {
		o = strings.TrimSpace(o)
		if o == "" || seen[o] {
			continue
		}
		seen[o] = true
		opts = append(opts, o)
	}
	d.Options = opts
	return d, nil
}

func normalizeTable(t model.Table) (model.Table, error) {
	t.Name = strings.TrimSpace(t.Name)
	if t.Name == "" || t.Capacity <= 0 {
		return model.Table{}, ErrInvalidTable
	}
	switch t.Status {
	case "":
		t.Status = enum.TableStatusIdle
	case enum.TableStatusIdle, enum.TableStatusOrdering, enum.TableStatusCheckedIn, enum.TableStatusPaid:
	default:
		return model.Table{}, ErrInvalidStatus
	}
	return t, nil
}

func validateConfig(cfg model.SystemConfig) error {
	if cfg.GPSRadius < 0 || cfg.ServiceFeeRate.IsNegative() || cfg.ServiceFeeRate.GreaterThan(decimal.NewFromInt(1)) {
		return ErrInvalidConfig
	}
	return nil
}
