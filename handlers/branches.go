package handlers

import (
	"net/http"

	"github.com/andrensetiawan/form-service/services"
)

type BranchHandler struct {
	branches *services.BranchService
}

func NewBranchHandler(branches *services.BranchService) *BranchHandler {
	return &BranchHandler{branches: branches}
}

func (h *BranchHandler) List(w http.ResponseWriter, r *http.Request) {
	branches, err := h.branches.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, branches)
}

func (h *BranchHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOf(w, r)
	if !ok {
		return
	}
	var in services.BranchInput
	if !decodeJSON(w, r, &in) {
		return
	}
	b, err := h.branches.Create(r.Context(), actor, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, b)
}

func (h *BranchHandler) Update(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOf(w, r)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	var in services.BranchInput
	if !decodeJSON(w, r, &in) {
		return
	}
	b, err := h.branches.Update(r.Context(), actor, id, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, b)
}

// Delete removes a branch; its users and tickets become unassigned.
func (h *BranchHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOf(w, r)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	if err := h.branches.Delete(r.Context(), actor, id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
