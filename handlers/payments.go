package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/andrensetiawan/form-service/middleware"
	"github.com/andrensetiawan/form-service/models"
	"github.com/andrensetiawan/form-service/services"
)

type PaymentHandler struct {
	payments *services.PaymentService
}

func NewPaymentHandler(payments *services.PaymentService) *PaymentHandler {
	return &PaymentHandler{payments: payments}
}

// paymentResult is returned by every write that can move dp or total_biaya.
type paymentResult struct {
	Payment        *models.DPPayment      `json:"payment,omitempty"`
	ServiceRequest *models.ServiceRequest `json:"service_request"`
}

func (h *PaymentHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOf(w, r)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	items, err := h.payments.List(r.Context(), actor, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, items)
}

func (h *PaymentHandler) Submit(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOf(w, r)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	var in services.DPClaimInput
	if !decodeJSON(w, r, &in) {
		return
	}
	in.IdempotencyKey = middleware.IdempotencyKey(r)
	p, err := h.payments.Submit(r.Context(), actor, id, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, p)
}

// RecordDirect books a payment taken at the counter as already approved.
func (h *PaymentHandler) RecordDirect(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOf(w, r)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	var in services.DPClaimInput
	if !decodeJSON(w, r, &in) {
		return
	}
	in.IdempotencyKey = middleware.IdempotencyKey(r)
	p, sr, err := h.payments.RecordDirect(r.Context(), actor, id, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, paymentResult{Payment: p, ServiceRequest: sr})
}

func (h *PaymentHandler) Approve(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, h.payments.Approve)
}

func (h *PaymentHandler) Reject(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, h.payments.Reject)
}

type decideFunc func(ctx context.Context, actor services.Actor, paymentID uuid.UUID) (*models.DPPayment, *models.ServiceRequest, error)

func (h *PaymentHandler) decide(w http.ResponseWriter, r *http.Request, fn decideFunc) {
	actor, ok := actorOf(w, r)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, "paymentId")
	if !ok {
		return
	}
	p, sr, err := fn(r.Context(), actor, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, paymentResult{Payment: p, ServiceRequest: sr})
}

func (h *PaymentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOf(w, r)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, "paymentId")
	if !ok {
		return
	}
	sr, err := h.payments.Delete(r.Context(), actor, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, paymentResult{ServiceRequest: sr})
}
