package models

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ValidationErrors is a list of human-readable messages shown next to a form.
type ValidationErrors []string

func (v ValidationErrors) Error() string {
	return strings.Join(v, "; ")
}

// IntakeForm is the payload of both the staff and the public intake form.
type IntakeForm struct {
	CustomerName    string         `json:"customer_name" validate:"required"`
	CustomerAddress string         `json:"customer_address" validate:"required"`
	CustomerPhone   string         `json:"customer_phone" validate:"required"`
	CustomerEmail   string         `json:"customer_email" validate:"required"`
	DeviceBrand     string         `json:"device_brand" validate:"required"`
	DeviceType      string         `json:"device_type" validate:"required"`
	SerialNumber    string         `json:"serial_number"`
	Complaint       string         `json:"complaint" validate:"required"`
	TechnicalSpec   string         `json:"technical_spec"`
	Conditions      []string       `json:"conditions" validate:"required,min=1,dive,required"`
	Accessories     []string       `json:"accessories" validate:"required,min=1,dive,required"`
	Warranty        bool           `json:"warranty"`
	BranchID        *string        `json:"branch_id,omitempty"`
	HandoverPhotos  []string       `json:"handover_photos,omitempty"`
	Signature       *string        `json:"customer_signature,omitempty"`
	EstimasiItems   []EstimateItem `json:"estimasi_items,omitempty"`
}

var intakeLabels = map[string]string{
	"customer_name":    "Nama pelanggan",
	"customer_address": "Alamat pelanggan",
	"customer_phone":   "Nomor telepon",
	"customer_email":   "Email",
	"device_brand":     "Merek perangkat",
	"device_type":      "Jenis perangkat",
	"complaint":        "Keluhan",
	"conditions":       "Kondisi perangkat",
	"accessories":      "Kelengkapan",
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Normalize trims text fields and drops blank tags.
func (f *IntakeForm) Normalize() {
	f.CustomerName = strings.TrimSpace(f.CustomerName)
	f.CustomerAddress = strings.TrimSpace(f.CustomerAddress)
	f.CustomerPhone = strings.TrimSpace(f.CustomerPhone)
	f.CustomerEmail = NormalizeEmail(f.CustomerEmail)
	f.DeviceBrand = strings.TrimSpace(f.DeviceBrand)
	f.DeviceType = strings.TrimSpace(f.DeviceType)
	f.SerialNumber = strings.TrimSpace(f.SerialNumber)
	f.Complaint = strings.TrimSpace(f.Complaint)
	f.TechnicalSpec = strings.TrimSpace(f.TechnicalSpec)
	f.Conditions = compactTags(f.Conditions)
	f.Accessories = compactTags(f.Accessories)
}

// Validate normalizes the form and returns every problem found, or nil.
func (f *IntakeForm) Validate() ValidationErrors {
	f.Normalize()
	var errs ValidationErrors
	if err := validate.Struct(f); err != nil {
		fieldErrs, ok := err.(validator.ValidationErrors)
		if !ok {
			return ValidationErrors{err.Error()}
		}
		for _, fe := range fieldErrs {
			errs = append(errs, intakeMessage(fe))
		}
	}
	errs = append(errs, EstimateItems(f.EstimasiItems).Validate()...)
	if len(errs) == 0 {
		return nil
	}
	return errs
}

func intakeMessage(fe validator.FieldError) string {
	label, ok := intakeLabels[fe.Field()]
	if !ok {
		label = fe.Field()
	}
	switch fe.Tag() {
	case "min":
		return fmt.Sprintf("%s: pilih minimal satu", label)
	default:
		return fmt.Sprintf("%s wajib diisi", label)
	}
}

// compactTags trims and de-duplicates a tag set, preserving order.
func compactTags(tags []string) []string {
	if tags == nil {
		return nil
	}
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}
