package handlers

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/andrensetiawan/form-service/models"
)

const exportSheet = "Service Requests"

type exportColumn struct {
	Label string
	Width float64
	Value func(sr *models.ServiceRequest) any
}

var exportColumns = []exportColumn{
	{"No. Tiket", 18, func(sr *models.ServiceRequest) any { return sr.TrackNumber }},
	{"Tanggal Masuk", 20, func(sr *models.ServiceRequest) any { return sr.CreatedAt.Format("2006-01-02 15:04") }},
	{"Status", 20, func(sr *models.ServiceRequest) any { return models.DescribeStatus(string(sr.Status)).Label }},
	{"Pelanggan", 24, func(sr *models.ServiceRequest) any { return sr.CustomerName }},
	{"Telepon", 16, func(sr *models.ServiceRequest) any { return sr.CustomerPhone }},
	{"Merek", 14, func(sr *models.ServiceRequest) any { return sr.DeviceBrand }},
	{"Tipe", 18, func(sr *models.ServiceRequest) any { return sr.DeviceType }},
	{"Serial", 18, func(sr *models.ServiceRequest) any { return sr.SerialNumber }},
	{"Keluhan", 36, func(sr *models.ServiceRequest) any { return sr.Complaint }},
	{"Garansi", 10, func(sr *models.ServiceRequest) any { return yesNo(sr.Warranty) }},
	{"Teknisi", 28, func(sr *models.ServiceRequest) any { return strings.Join(sr.AssignedTechnicians, ", ") }},
	{"Subtotal", 14, func(sr *models.ServiceRequest) any { return models.EstimateItems(sr.EstimasiItems).Subtotal() }},
	{"DP", 14, func(sr *models.ServiceRequest) any { return sr.DP }},
	{"Total Biaya", 14, func(sr *models.ServiceRequest) any { return sr.TotalBiaya }},
}

func yesNo(b bool) string {
	if b {
		return "Ya"
	}
	return "Tidak"
}

// buildRequestsWorkbook lays out a title, the generation time, a header
// row on row 4, one row per ticket and a totals block underneath.
func buildRequestsWorkbook(items []models.ServiceRequest, now time.Time) (*excelize.File, error) {
	f := excelize.NewFile()
	index, err := f.NewSheet(exportSheet)
	if err != nil {
		return nil, err
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, err
	}

	titleStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 16},
		Alignment: &excelize.Alignment{Horizontal: "left", Vertical: "center"},
	})
	f.SetCellValue(exportSheet, "A1", "Laporan Service Request")
	f.SetCellStyle(exportSheet, "A1", "A1", titleStyle)
	f.SetRowHeight(exportSheet, 1, 30)
	f.SetCellValue(exportSheet, "A2", fmt.Sprintf("Dibuat: %s", now.Format("2006-01-02 15:04:05")))

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})
	for i, col := range exportColumns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 4)
		f.SetCellValue(exportSheet, cell, col.Label)
		f.SetCellStyle(exportSheet, cell, cell, headerStyle)
		name, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(exportSheet, name, name, col.Width)
	}

	dataStyle, _ := f.NewStyle(&excelize.Style{
		Border: []excelize.Border{
			{Type: "left", Color: "CCCCCC", Style: 1},
			{Type: "right", Color: "CCCCCC", Style: 1},
			{Type: "top", Color: "CCCCCC", Style: 1},
			{Type: "bottom", Color: "CCCCCC", Style: 1},
		},
	})
	var totalDP, totalBiaya int64
	for r := range items {
		sr := &items[r]
		for c, col := range exportColumns {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+5)
			f.SetCellValue(exportSheet, cell, col.Value(sr))
			f.SetCellStyle(exportSheet, cell, cell, dataStyle)
		}
		totalDP += sr.DP
		totalBiaya += sr.TotalBiaya
	}

	summaryStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E7E6E6"}, Pattern: 1},
	})
	row := len(items) + 7
	summary := [][2]any{
		{"Jumlah Tiket", len(items)},
		{"Total DP", totalDP},
		{"Total Biaya", totalBiaya},
	}
	for i, kv := range summary {
		label, _ := excelize.CoordinatesToCellName(1, row+i)
		value, _ := excelize.CoordinatesToCellName(2, row+i)
		f.SetCellValue(exportSheet, label, kv[0])
		f.SetCellValue(exportSheet, value, kv[1])
		f.SetCellStyle(exportSheet, label, value, summaryStyle)
	}
	return f, nil
}

func buildRequestsCSV(items []models.ServiceRequest) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := make([]string, len(exportColumns))
	for i, col := range exportColumns {
		headers[i] = col.Label
	}
	writer.Write(headers)

	for r := range items {
		record := make([]string, len(exportColumns))
		for i, col := range exportColumns {
			record[i] = fmt.Sprintf("%v", col.Value(&items[r]))
		}
		writer.Write(record)
	}
	writer.Flush()
	return buf.Bytes(), writer.Error()
}

func writeRequestsExcel(w http.ResponseWriter, items []models.ServiceRequest) error {
	now := time.Now()
	f, err := buildRequestsWorkbook(items, now)
	if err != nil {
		return err
	}
	defer f.Close()
	buf, err := f.WriteToBuffer()
	if err != nil {
		return err
	}
	writeAttachment(w, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		exportFilename(now, "xlsx"), buf.Bytes())
	return nil
}

func writeRequestsCSV(w http.ResponseWriter, items []models.ServiceRequest) error {
	data, err := buildRequestsCSV(items)
	if err != nil {
		return err
	}
	writeAttachment(w, "text/csv", exportFilename(time.Now(), "csv"), data)
	return nil
}

func writeAttachment(w http.ResponseWriter, contentType, filename string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", fmt.Sprintf("%d", len(data)))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func exportFilename(now time.Time, ext string) string {
	return sanitizeFilename(fmt.Sprintf("service-requests %s.%s", now.Format("2006-01-02 150405"), ext))
}

func sanitizeFilename(filename string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|', ' ':
			return '_'
		}
		return r
	}, filename)
}
