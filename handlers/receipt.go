package handlers

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"
	"strings"

	"github.com/andrensetiawan/form-service/models"
	"github.com/andrensetiawan/form-service/utils"
)

//go:embed templates/receipt.html
var templateFS embed.FS

var receiptTemplate = template.Must(template.New("receipt.html").Funcs(template.FuncMap{
	"rupiah": utils.FormatRupiah,
	"join":   func(items []string) string { return strings.Join(items, ", ") },
}).ParseFS(templateFS, "templates/receipt.html"))

type receiptData struct {
	TrackNumber     string
	CreatedAt       string
	Status          string
	CustomerName    string
	CustomerPhone   string
	CustomerAddress string
	DeviceBrand     string
	DeviceType      string
	SerialNumber    string
	Complaint       string
	Conditions      []string
	Accessories     []string
	Warranty        bool
	Items           models.EstimateItems
	Subtotal        int64
	DP              int64
	TotalBiaya      int64
	Signatures      []string
}

func newReceiptData(sr *models.ServiceRequest) receiptData {
	items := models.EstimateItems(sr.EstimasiItems).Normalized()
	return receiptData{
		TrackNumber:     sr.TrackNumber,
		CreatedAt:       sr.CreatedAt.Format("02-01-2006 15:04"),
		Status:          models.DescribeStatus(string(sr.Status)).Label,
		CustomerName:    sr.CustomerName,
		CustomerPhone:   sr.CustomerPhone,
		CustomerAddress: sr.CustomerAddress,
		DeviceBrand:     sr.DeviceBrand,
		DeviceType:      sr.DeviceType,
		SerialNumber:    sr.SerialNumber,
		Complaint:       sr.Complaint,
		Conditions:      sr.Conditions,
		Accessories:     sr.Accessories,
		Warranty:        sr.Warranty,
		Items:           items,
		Subtotal:        items.Subtotal(),
		DP:              sr.DP,
		TotalBiaya:      sr.TotalBiaya,
		Signatures:      sr.CustomerSignatures,
	}
}

// renderReceipt writes the printable intake receipt as HTML.
func renderReceipt(w http.ResponseWriter, sr *models.ServiceRequest) error {
	var buf bytes.Buffer
	if err := receiptTemplate.Execute(&buf, newReceiptData(sr)); err != nil {
		return err
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	buf.WriteTo(w)
	return nil
}
