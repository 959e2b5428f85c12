package service

import (
	"sort"
	"time"

	"github.com/tableside-pos/api/internal/enum"
	"github.com/tableside-pos/api/internal/model"
)

const topDishLimit = 5

// MonthRevenue is paid revenue for one calendar month.
type MonthRevenue struct {
	Month  int
	Amount int64
}

// DishPopularity is the total quantity sold of one dish.
type DishPopularity struct {
	DishID   string
	Name     string
	Quantity int64
}

// Report is the revenue and popularity summary for a year.
type Report struct {
	Year        int
	YearlyTotal int64
	Months      []MonthRevenue
	TopDishes   []DishPopularity
}

// ComputeReport aggregates PAID orders. Dates are bucketed in loc.
//
// Months holds every month of year with revenue plus the current calendar
// month (taken from now), newest first. TopDishes ranks dishes across all
// paid orders regardless of year; ties keep first-encountered order.
func ComputeReport(orders []model.Order, year int, now time.Time, loc *time.Location) Report {
	if loc == nil {
		loc = time.UTC
	}

	var byMonth [13]int64
	report := Report{Year: year}

	var ranking []DishPopularity
	index := make(map[string]int)

	for _, o := range orders {
		if o.Status != enum.OrderStatusPaid {
			continue
		}

		created := o.CreatedAt.In(loc)
		if created.Year() == year {
			report.YearlyTotal += o.TotalAmount
			byMonth[created.Month()] += o.TotalAmount
		}

		for _, item := range o.Items {
			i, ok := index[item.DishID]
			if !ok {
				i = len(ranking)
				index[item.DishID] = i
				ranking = append(ranking, DishPopularity{DishID: item.DishID, Name: item.Name})
			}
			ranking[i].Quantity += item.Quantity
		}
	}

	currentMonth := int(now.In(loc).Month())
	for m := 12; m >= 1; m-- {
		if byMonth[m] != 0 || m == currentMonth {
			report.Months = append(report.Months, MonthRevenue{Month: m, Amount: byMonth[m]})
		}
	}

	sort.SliceStable(ranking, func(i, j int) bool {
		return ranking[i].Quantity > ranking[j].Quantity
	})
	if len(ranking) > topDishLimit {
		ranking = ranking[:topDishLimit]
	}
	report.TopDishes = ranking

	return report
}
