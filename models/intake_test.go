package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func validIntake() *IntakeForm {
	return &IntakeForm{
		CustomerName:    "Siti",
		CustomerAddress: "Jl. Asia Afrika 1",
		CustomerPhone:   "0812000111",
		CustomerEmail:   " Siti@Example.COM ",
		DeviceBrand:     "Lenovo",
		DeviceType:      "Laptop",
		Complaint:       "Layar berkedip",
		Conditions:      []string{"Normal", " Normal ", ""},
		Accessories:     []string{"Charger"},
	}
}

func TestIntakeValidateAcceptsCompleteForm(t *testing.T) {
	f := validIntake()
	assert.Nil(t, f.Validate())
	assert.Equal(t, "siti@example.com", f.CustomerEmail)
	assert.Equal(t, []string{"Normal"}, f.Conditions)
}

func TestIntakeValidateReportsEveryMissingField(t *testing.T) {
	f := &IntakeForm{CustomerName: "  "}
	errs := f.Validate()
	assert.Contains(t, errs, "Nama pelanggan wajib diisi")
	assert.Contains(t, errs, "Keluhan wajib diisi")
	assert.Contains(t, errs, "Kondisi perangkat wajib diisi")
	assert.Contains(t, errs, "Kelengkapan wajib diisi")
	assert.GreaterOrEqual(t, len(errs), 9)
}

func TestIntakeValidateBlankTags(t *testing.T) {
	f := validIntake()
	f.Accessories = []string{" ", ""}
	errs := f.Validate()
	assert.Equal(t, ValidationErrors{"Kelengkapan: pilih minimal satu"}, errs)
}

func TestIntakeValidateIncludesEstimateRows(t *testing.T) {
	f := validIntake()
	f.EstimasiItems = []EstimateItem{{Item: "", Harga: 1000, Qty: 1}}
	errs := f.Validate()
	assert.Len(t, errs, 1)
	assert.Contains(t, errs[0], "nama item wajib diisi")
}
