package service

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/tableside-pos/api/internal/model"
)

// Errors returned by the cart aggregator.
var (
	ErrDishUnavailable = errors.New("dish is not available")
	ErrOptionRequired  = errors.New("an option must be selected for this dish")
	ErrUnknownOption   = errors.New("option is not offered for this dish")
	ErrNotesNotAllowed = errors.New("custom notes are not allowed for this dish")
)

// Totals recomputes an order's money fields from its lines alone.
// serviceFee is round-half-up(subtotal * rate) when fees are enabled.
func Totals(items []model.OrderItem, cfg model.SystemConfig) (subtotal, serviceFee, total int64) {
	for _, item := range items {
		subtotal += item.Price * item.Quantity
	}
	if cfg.IsServiceFeeEnabled {
		// Subtotal is never negative, so Round's half-away-from-zero is half-up here.
		serviceFee = decimal.NewFromInt(subtotal).Mul(cfg.ServiceFeeRate).Round(0).IntPart()
	}
	return subtotal, serviceFee, subtotal + serviceFee
}

// Recompute refreshes the cached ServiceFee and TotalAmount on order.
func Recompute(order *model.Order, cfg model.SystemConfig) {
	_, fee, total := Totals(order.Items, cfg)
	order.ServiceFee = fee
	order.TotalAmount = total
}

// ApplySelection merges delta units of (dish, option, note) into order.
//
// A matching line has delta added and is dropped once its quantity reaches
// zero. An unmatched positive delta appends a new line with quantity 1 at the
// dish's current name and price; an unmatched non-positive delta is a no-op.
// Totals are recomputed afterwards. On error the order is left untouched.
func ApplySelection(order *model.Order, dish model.Dish, delta int64, option, note string, cfg model.SystemConfig) error {
	option = strings.TrimSpace(option)
	note = strings.TrimSpace(note)

	if delta > 0 {
		if err := validateAddition(dish, option, note); err != nil {
			return err
		}
	}

	key := model.LineKey{DishID: dish.ID, Option: option, Note: note}
	idx := -1
	for i, item := range order.Items {
		if item.Key() == key {
			idx = i
			break
		}
	}

	switch {
	case idx >= 0:
		qty := order.Items[idx].Quantity + delta
		if qty <= 0 {
			order.Items = append(order.Items[:idx:idx], order.Items[idx+1:]...)
		} else {
			order.Items[idx].Quantity = qty
		}
	case delta > 0:
		order.Items = append(order.Items, model.OrderItem{
			DishID:         dish.ID,
			Name:           dish.Name,
			Price:          dish.Price,
			Quantity:       1,
			SelectedOption: option,
			CustomNote:     note,
		})
	}

	Recompute(order, cfg)
	return nil
}

// validateAddition keeps every line for an option-bearing dish tied to one
// of its declared options.
func validateAddition(dish model.Dish, option, note string) error {
	if !dish.IsAvailable {
		return ErrDishUnavailable
	}
	if len(dish.Options) > 0 && option == "" {
		return ErrOptionRequired
	}
	if option != "" && !dish.HasOption(option) {
		return ErrUnknownOption
	}
	if note != "" && !dish.AllowCustomNotes {
		return ErrNotesNotAllowed
	}
	return nil
}
