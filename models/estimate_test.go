package models

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTotalBiaya(t *testing.T) {
	items := []EstimateItem{
		{Item: "LCD", Harga: 200000, Qty: 1},
		{Item: "Jasa", Harga: 25000, Qty: 2},
	}
	assert.Equal(t, int64(250000), EstimateItems(items).Subtotal())
	assert.Equal(t, int64(200000), TotalBiaya(items, 50000))
	assert.Equal(t, int64(0), TotalBiaya(nil, 0))
}

func TestSubtotalIgnoresStaleTotal(t *testing.T) {
	items := EstimateItems{{Item: "Baterai", Harga: 150000, Qty: 2, Total: 1}}
	assert.Equal(t, int64(300000), items.Subtotal())

	normalized := items.Normalized()
	assert.Equal(t, int64(300000), normalized[0].Total)
	assert.Equal(t, int64(1), items[0].Total, "Normalized must not modify the receiver")
}

func TestEstimateValidate(t *testing.T) {
	assert.Nil(t, EstimateItems{{Item: "Keyboard", Harga: 0, Qty: 1}}.Validate())

	errs := EstimateItems{
		{Item: " ", Harga: 1000, Qty: 1},
		{Item: "Kipas", Harga: -5, Qty: 0},
	}.Validate()
	assert.Len(t, errs, 3)
	assert.Contains(t, errs[0], "baris 1")
	assert.Contains(t, errs[1], "baris 2")
}

func TestEstimateValidateOverflow(t *testing.T) {
	tests := []struct {
		name  string
		items EstimateItems
		want  []string
	}{
		{"row product overflows", EstimateItems{{Item: "Mesin", Harga: 1 << 62, Qty: 4}}, []string{"Estimasi baris 1: harga x qty terlalu besar"}},
		{"largest row that fits", EstimateItems{{Item: "Mesin", Harga: math.MaxInt64 / 3, Qty: 3}}, nil},
		{"sum overflows", EstimateItems{
			{Item: "A", Harga: 1 << 62, Qty: 1},
			{Item: "B", Harga: 1 << 62, Qty: 1},
		}, []string{"Total estimasi terlalu besar"}},
		{"sum reported once", EstimateItems{
			{Item: "A", Harga: 1 << 62, Qty: 1},
			{Item: "B", Harga: 1 << 62, Qty: 1},
			{Item: "C", Harga: 1 << 62, Qty: 1},
		}, []string{"Total estimasi terlalu besar"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, ValidationErrors(tt.want), tt.items.Validate())
		})
	}
}

func TestApprovedDPTotal(t *testing.T) {
	payments := []DPPayment{
		{Amount: 50000, Status: DPApproved},
		{Amount: 50000, Status: DPApproved},
		{Amount: 70000, Status: DPPending},
		{Amount: 90000, Status: DPRejected},
	}
	assert.Equal(t, int64(100000), ApprovedDPTotal(payments))
	assert.Equal(t, int64(0), ApprovedDPTotal(nil))
}
