package models

import (
	"fmt"
	"math"
	"strings"
)

// EstimateItem is one cost line of a repair estimate. Harga is the unit
// price in rupiah.
type EstimateItem struct {
	Item  string `json:"item"`
	Harga int64  `json:"harga"`
	Qty   int64  `json:"qty"`
	Total int64  `json:"total"`
}

// EstimateItems is an ordered estimate.
type EstimateItems []EstimateItem

// Normalized returns a copy with every Total recomputed as Harga*Qty.
func (items EstimateItems) Normalized() EstimateItems {
	out := make(EstimateItems, len(items))
	for i, it := range items {
		it.Item = strings.TrimSpace(it.Item)
		it.Total = it.Harga * it.Qty
		out[i] = it
	}
	return out
}

// Subtotal sums Harga*Qty over all rows, ignoring any stale Total.
func (items EstimateItems) Subtotal() int64 {
	var sum int64
	for _, it := range items {
		sum += it.Harga * it.Qty
	}
	return sum
}

// Validate reports every malformed row, including rows or totals that do
// not fit in an int64.
func (items EstimateItems) Validate() ValidationErrors {
	var errs ValidationErrors
	var sum int64
	sumOK := true
	for i, it := range items {
		row := i + 1
		if strings.TrimSpace(it.Item) == "" {
			errs = append(errs, fmt.Sprintf("Estimasi baris %d: nama item wajib diisi", row))
		}
		if it.Harga < 0 {
			errs = append(errs, fmt.Sprintf("Estimasi baris %d: harga tidak boleh negatif", row))
		}
		if it.Qty <= 0 {
			errs = append(errs, fmt.Sprintf("Estimasi baris %d: qty harus lebih dari 0", row))
		}
		if it.Harga < 0 || it.Qty <= 0 {
			continue
		}
		if it.Harga > math.MaxInt64/it.Qty {
			errs = append(errs, fmt.Sprintf("Estimasi baris %d: harga x qty terlalu besar", row))
			sumOK = false
			continue
		}
		total := it.Harga * it.Qty
		if sumOK && total > math.MaxInt64-sum {
			errs = append(errs, "Total estimasi terlalu besar")
			sumOK = false
		}
		if sumOK {
			sum += total
		}
	}
	return errs
}

// TotalBiaya is the amount still owed: subtotal minus the approved down payment.
func TotalBiaya(items []EstimateItem, dp int64) int64 {
	return EstimateItems(items).Subtotal() - dp
}
