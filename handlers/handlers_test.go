package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"gorm.io/datatypes"

	"github.com/andrensetiawan/form-service/middleware"
	"github.com/andrensetiawan/form-service/models"
	"github.com/andrensetiawan/form-service/services"
)

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestWriteErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", models.ValidationErrors{"Nama pelanggan wajib diisi"}, http.StatusUnprocessableEntity},
		{"not found", services.ErrNotFound, http.StatusNotFound},
		{"forbidden", fmt.Errorf("wrap: %w", services.ErrForbidden), http.StatusForbidden},
		{"credentials", services.ErrInvalidCredential, http.StatusUnauthorized},
		{"stale version", services.ErrVersionMismatch, http.StatusConflict},
		{"conflict", services.ErrConflict, http.StatusConflict},
		{"transition", services.ErrInvalidTransition, http.StatusUnprocessableEntity},
		{"expired view", services.ErrPublicViewExpired, http.StatusGone},
		{"feature off", services.ErrFeatureDisabled, http.StatusForbidden},
		{"too large", services.ErrFileTooLarge, http.StatusRequestEntityTooLarge},
		{"unexpected", assert.AnError, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			writeError(rec, httptest.NewRequest(http.MethodGet, "/x", nil), tt.err)
			assert.Equal(t, tt.want, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
		})
	}
}

func TestWriteErrorValidationDetails(t *testing.T) {
	rec := httptest.NewRecorder()
	writeError(rec, httptest.NewRequest(http.MethodPost, "/x", nil), models.ValidationErrors{"a", "b"})
	body := decodeBody(t, rec)
	assert.Equal(t, "validation failed", body["error"])
	assert.Equal(t, []any{"a", "b"}, body["details"])
}

func TestWriteErrorHidesInternalDetails(t *testing.T) {
	rec := httptest.NewRecorder()
	writeError(rec, httptest.NewRequest(http.MethodGet, "/x", nil), fmt.Errorf("pq: password authentication failed"))
	assert.NotContains(t, rec.Body.String(), "password")
}

func TestHandlersRequireActor(t *testing.T) {
	h := NewServiceRequestHandler(nil, nil)
	rec := httptest.NewRecorder()
	h.List(rec, httptest.NewRequest(http.MethodGet, "/api/v1/service-requests", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func withActor(r *http.Request, role models.Role) *http.Request {
	actor := services.Actor{UserID: uuid.New(), Email: "staff@example.com", Role: role}
	return r.WithContext(middleware.WithActor(r.Context(), actor))
}

func TestHandlersRejectBadInputBeforeCallingServices(t *testing.T) {
	requests := NewServiceRequestHandler(nil, nil)
	payments := NewPaymentHandler(nil)

	t.Run("invalid id", func(t *testing.T) {
		req := withActor(httptest.NewRequest(http.MethodGet, "/api/v1/service-requests/abc", nil), models.RoleStaff)
		req = mux.SetURLVars(req, map[string]string{"id": "abc"})
		rec := httptest.NewRecorder()
		requests.Get(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("invalid json", func(t *testing.T) {
		req := withActor(httptest.NewRequest(http.MethodPost, "/api/v1/service-requests", strings.NewReader("{")), models.RoleStaff)
		rec := httptest.NewRecorder()
		requests.Create(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("update without version", func(t *testing.T) {
		id := uuid.NewString()
		req := withActor(httptest.NewRequest(http.MethodPut, "/api/v1/service-requests/"+id, strings.NewReader(`{"customer_name":"x"}`)), models.RoleStaff)
		req = mux.SetURLVars(req, map[string]string{"id": id})
		rec := httptest.NewRecorder()
		requests.Update(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unknown media kind", func(t *testing.T) {
		id := uuid.NewString()
		req := withActor(httptest.NewRequest(http.MethodPost, "/x", strings.NewReader(`{"urls":["u"]}`)), models.RoleStaff)
		req = mux.SetURLVars(req, map[string]string{"id": id, "kind": "selfie"})
		rec := httptest.NewRecorder()
		requests.AttachMedia(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("export format", func(t *testing.T) {
		req := withActor(httptest.NewRequest(http.MethodGet, "/api/v1/service-requests/export?format=pdf", nil), models.RoleAdmin)
		rec := httptest.NewRecorder()
		requests.Export(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("invalid payment id", func(t *testing.T) {
		req := withActor(httptest.NewRequest(http.MethodPost, "/x", nil), models.RoleStaff)
		req = mux.SetURLVars(req, map[string]string{"paymentId": "nope"})
		rec := httptest.NewRecorder()
		payments.Approve(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestStatuses(t *testing.T) {
	rec := httptest.NewRecorder()
	Statuses(rec, httptest.NewRequest(http.MethodGet, "/api/v1/statuses", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	data := decodeBody(t, rec)["data"].([]any)
	assert.Len(t, data, len(models.StatusCatalog()))
}

func sampleRequests() []models.ServiceRequest {
	created := time.Date(2025, 10, 15, 10, 0, 0, 0, time.UTC)
	return []models.ServiceRequest{
		{
			TrackNumber:         "SRV-251015-ABCDE",
			CustomerName:        "Budi",
			CustomerPhone:       "0812",
			CustomerAddress:     "Jl. Braga 5",
			DeviceBrand:         "Asus",
			DeviceType:          "Laptop",
			Complaint:           "Mati total",
			Status:              models.StatusProsesPengerjaan,
			Conditions:          datatypes.JSONSlice[string]{"Lecet"},
			Accessories:         datatypes.JSONSlice[string]{"Charger"},
			AssignedTechnicians: datatypes.JSONSlice[string]{"a@x.id", "b@x.id"},
			EstimasiItems:       datatypes.JSONSlice[models.EstimateItem]{
				{Item: "LCD", Harga: 200000, Qty: 1},
				{Item: "Jasa", Harga: 25000, Qty: 2},
			},
			DP:         50000,
			TotalBiaya: 200000,
			CreatedAt:  created,
		},
		{
			TrackNumber:  "SRV-251015-FGHJK",
			CustomerName: "Sari, \"Toko\"",
			Status:       "done",
			CreatedAt:    created,
		},
	}
}

func TestBuildRequestsCSV(t *testing.T) {
	data, err := buildRequestsCSV(sampleRequests())
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "No. Tiket,Tanggal Masuk,Status"))
	assert.Contains(t, lines[1], "Proses Pengerjaan")
	assert.Contains(t, lines[1], "\"a@x.id, b@x.id\"")
	assert.Contains(t, lines[1], ",250000,50000,200000")
	assert.Contains(t, lines[2], `"Sari, ""Toko"""`)
	assert.Contains(t, lines[2], "Selesai")
}

func TestBuildRequestsWorkbook(t *testing.T) {
	now := time.Date(2025, 10, 15, 12, 0, 0, 0, time.UTC)
	f, err := buildRequestsWorkbook(sampleRequests(), now)
	require.NoError(t, err)
	defer f.Close()

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	book, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	defer book.Close()

	assert.Equal(t, []string{exportSheet}, book.GetSheetList())
	title, _ := book.GetCellValue(exportSheet, "A1")
	assert.Equal(t, "Laporan Service Request", title)
	header, _ := book.GetCellValue(exportSheet, "A4")
	assert.Equal(t, "No. Tiket", header)
	first, _ := book.GetCellValue(exportSheet, "A5")
	assert.Equal(t, "SRV-251015-ABCDE", first)
	count, _ := book.GetCellValue(exportSheet, "B9")
	assert.Equal(t, "2", count)
	totalDP, _ := book.GetCellValue(exportSheet, "B10")
	assert.Equal(t, "50000", totalDP)
}

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "service-requests_2025-10-15_120000.csv", sanitizeFilename("service-requests 2025-10-15 120000.csv"))
	assert.Equal(t, "a_b_c_d", sanitizeFilename("a/b:c?d"))
}

func TestRenderReceipt(t *testing.T) {
	sr := sampleRequests()[0]
	sr.CustomerName = "<script>alert(1)</script>"
	rec := httptest.NewRecorder()
	require.NoError(t, renderReceipt(rec, &sr))

	body := rec.Body.String()
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, body, "SRV-251015-ABCDE")
	assert.Contains(t, body, "Rp 250.000")
	assert.Contains(t, body, "Rp 200.000")
	assert.Contains(t, body, "Lecet")
	assert.NotContains(t, body, "<script>alert(1)</script>")
}

func TestUploadPartsRejectsNonMultipart(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/media", strings.NewReader("x"))
	req.Header.Set("Content-Type", "application/json")
	_, _, err := uploadParts(req.WithContext(context.Background()), nil, services.Actor{}, "uploads")
	var verrs models.ValidationErrors
	assert.ErrorAs(t, err, &verrs)
}
