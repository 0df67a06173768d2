package handlers

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/andrensetiawan/form-service/middleware"
	"github.com/andrensetiawan/form-service/models"
	"github.com/andrensetiawan/form-service/services"
)

// PublicHandler serves the unauthenticated customer surface: self-service
// intake and everything reachable through a public view token.
type PublicHandler struct {
	requests *services.RequestService
	views    *services.PublicViewService
	media    *services.MediaService
}

func NewPublicHandler(requests *services.RequestService, views *services.PublicViewService, media *services.MediaService) *PublicHandler {
	return &PublicHandler{requests: requests, views: views, media: media}
}

type intakeResp struct {
	ServiceRequest models.PublicServiceRequest `json:"service_request"`
	Token          string                      `json:"token"`
	ExpiresAt      *time.Time                  `json:"expires_at,omitempty"`
}

func (h *PublicHandler) Intake(w http.ResponseWriter, r *http.Request) {
	var form models.IntakeForm
	if !decodeJSON(w, r, &form) {
		return
	}
	sr, view, err := h.requests.SubmitPublicIntake(r.Context(), &form)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, intakeResp{
		ServiceRequest: sr.Public(),
		Token:          view.Token,
		ExpiresAt:      view.ExpiresAt,
	})
}

func (h *PublicHandler) View(w http.ResponseWriter, r *http.Request) {
	sr, err := h.views.Resolve(r.Context(), mux.Vars(r)["token"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, sr.Public())
}

func (h *PublicHandler) Receipt(w http.ResponseWriter, r *http.Request) {
	sr, err := h.views.Resolve(r.Context(), mux.Vars(r)["token"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := renderReceipt(w, sr); err != nil {
		writeError(w, r, err)
	}
}

func (h *PublicHandler) SubmitDP(w http.ResponseWriter, r *http.Request) {
	var in services.DPClaimInput
	if !decodeJSON(w, r, &in) {
		return
	}
	in.IdempotencyKey = middleware.IdempotencyKey(r)
	p, err := h.views.SubmitDP(r.Context(), mux.Vars(r)["token"], in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, p)
}

func (h *PublicHandler) CustomerLogs(w http.ResponseWriter, r *http.Request) {
	entries, err := h.views.CustomerLogs(r.Context(), mux.Vars(r)["token"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, entries)
}

func (h *PublicHandler) AddCustomerLog(w http.ResponseWriter, r *http.Request) {
	var in services.CustomerLogInput
	if !decodeJSON(w, r, &in) {
		return
	}
	in.IdempotencyKey = middleware.IdempotencyKey(r)
	entry, err := h.views.AddCustomerLog(r.Context(), mux.Vars(r)["token"], in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, entry)
}

// UploadMedia lets the token holder upload transfer proofs or photos before
// referencing them in a DP claim or comment.
func (h *PublicHandler) UploadMedia(w http.ResponseWriter, r *http.Request) {
	sr, err := h.views.Resolve(r.Context(), mux.Vars(r)["token"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !isMultipart(r) {
		writeMessage(w, http.StatusBadRequest, "multipart/form-data required")
		return
	}
	assets, _, err := uploadParts(r, h.media, services.PublicActor, "public/"+sr.ID.String())
	if err == nil {
		err = requireFiles(assets)
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, mediaItems(assets))
}

type createViewReq struct {
	// TTLHours overrides the configured lifetime; 0 means no expiry.
	TTLHours *int `json:"ttl_hours"`
}

// CreateView issues a token for staff to share with the customer.
func (h *PublicHandler) CreateView(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOf(w, r)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	var req createViewReq
	if r.ContentLength != 0 && !decodeJSON(w, r, &req) {
		return
	}
	var ttl *time.Duration
	if req.TTLHours != nil {
		d := time.Duration(*req.TTLHours) * time.Hour
		ttl = &d
	}
	view, err := h.views.Create(r.Context(), actor, id, ttl)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, view)
}

func (h *PublicHandler) ListViews(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOf(w, r)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	views, err := h.views.List(r.Context(), actor, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, views)
}

func (h *PublicHandler) RevokeView(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOf(w, r)
	if !ok {
		return
	}
	if err := h.views.Revoke(r.Context(), actor, mux.Vars(r)["token"]); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
