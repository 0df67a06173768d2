package handlers

import (
	"net/http"
	"net/url"

	"github.com/gorilla/mux"

	"github.com/andrensetiawan/form-service/services"
)

type TechnicianHandler struct {
	technicians *services.TechnicianService
}

func NewTechnicianHandler(technicians *services.TechnicianService) *TechnicianHandler {
	return &TechnicianHandler{technicians: technicians}
}

type assignReq struct {
	Emails []string `json:"emails"`
}

type addTechnicianReq struct {
	Email string `json:"email"`
}

// Assign replaces the whole technician list.
func (h *TechnicianHandler) Assign(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOf(w, r)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	var req assignReq
	if !decodeJSON(w, r, &req) {
		return
	}
	sr, err := h.technicians.Assign(r.Context(), actor, id, req.Emails)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, sr)
}

func (h *TechnicianHandler) Add(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOf(w, r)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	var req addTechnicianReq
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Email == "" {
		writeMessage(w, http.StatusBadRequest, "email is required")
		return
	}
	sr, err := h.technicians.Add(r.Context(), actor, id, req.Email)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, sr)
}

func (h *TechnicianHandler) Remove(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOf(w, r)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	email, err := url.PathUnescape(mux.Vars(r)["email"])
	if err != nil || email == "" {
		writeMessage(w, http.StatusBadRequest, "invalid email")
		return
	}
	sr, err := h.technicians.Remove(r.Context(), actor, id, email)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, sr)
}

// History lists assignment changes from the activity log.
func (h *TechnicianHandler) History(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOf(w, r)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	entries, err := h.technicians.History(r.Context(), actor, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, entries)
}
