package main

import (
	"time"

	"github.com/HelioWoi/liveplan3/pkg/csv"
	"github.com/HelioWoi/liveplan3/pkg/models"
)

type filters struct {
	startDate string
	endDate   string
	minAmount float64
	maxAmount float64
	category  string
}

func (f *filters) toFilterFunc() csv.FilterFunc {
	return func(t models.Transaction) bool {
		if f.startDate != "" {
			if start, err := time.Parse("2006-01-02", f.startDate); err == nil && t.Date.Before(start) {
				return false
			}
		}
		if f.endDate != "" {
			if end, err := time.Parse("2006-01-02", f.endDate); err == nil && t.Date.After(end) {
				return false
			}
		}
		if f.minAmount != 0 && t.Amount < f.minAmount {
			return false
		}
		if f.maxAmount != 0 && t.Amount > f.maxAmount {
			return false
		}
		if f.category != "" && string(t.Category) != f.category {
			return false
		}
		return true
	}
}
