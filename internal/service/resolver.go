package service

import (
	"github.com/tableside-pos/api/internal/enum"
	"github.com/tableside-pos/api/internal/model"
)

// TableView is one tile of the staff table board.
type TableView struct {
	Table         model.Table
	Order         *model.Order
	BoardStatus   string
	UnservedCount int
}

// latestOrderForTable returns the most recently created non-cancelled order
// for tableID. Equal timestamps are broken by the greater ID.
func latestOrderForTable(tableID string, orders []model.Order) *model.Order {
	var latest *model.Order
	for i := range orders {
		o := &orders[i]
		if o.TableID != tableID || o.Status == enum.OrderStatusCancelled {
			continue
		}
		if latest == nil ||
			o.CreatedAt.After(latest.CreatedAt) ||
			(o.CreatedAt.Equal(latest.CreatedAt) && o.ID > latest.ID) {
			latest = o
		}
	}
	return latest
}

// ResolveTableOrder returns the order a table should display, or nil.
//
// The latest non-cancelled order wins, except that a PAID order on a table
// staff have reset to IDLE is history from an earlier seating and is hidden.
// Open orders always surface, whatever the manual table status says.
func ResolveTableOrder(table model.Table, orders []model.Order) *model.Order {
	latest := latestOrderForTable(table.ID, orders)
	if latest == nil {
		return nil
	}
	if table.Status == enum.TableStatusIdle && latest.Status == enum.OrderStatusPaid {
		return nil
	}
	o := latest.Clone()
	return &o
}

// BoardView resolves a table and derives its board label.
func BoardView(table model.Table, orders []model.Order) TableView {
	view := TableView{Table: table, BoardStatus: enum.BoardStatusIdle}

	order := ResolveTableOrder(table, orders)
	if order == nil {
		return view
	}
	view.Order = order

	for _, item := range order.Items {
		if !item.IsServed {
			view.UnservedCount++
		}
	}

	switch order.Status {
	case enum.OrderStatusPaid:
		view.BoardStatus = enum.BoardStatusPaid
		if view.UnservedCount > 0 {
			view.BoardStatus = enum.BoardStatusPaidIncomplete
		}
	case enum.OrderStatusOrdering:
		view.BoardStatus = enum.BoardStatusOrdering
	default:
		view.BoardStatus = enum.BoardStatusServed
		if view.UnservedCount > 0 {
			view.BoardStatus = enum.BoardStatusPreparing
		}
	}
	return view
}
