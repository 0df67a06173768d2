package handlers

import (
	"net/http"
	"strconv"

	"github.com/andrensetiawan/form-service/services"
)

type UserHandler struct {
	users *services.UserService
}

func NewUserHandler(users *services.UserService) *UserHandler {
	return &UserHandler{users: users}
}

// List supports role, branch_id, active, page and limit query parameters.
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOf(w, r)
	if !ok {
		return
	}
	branchID, ok := queryUUID(r, "branch_id")
	if !ok {
		writeMessage(w, http.StatusBadRequest, "invalid branch_id")
		return
	}
	page, limit := pageParams(r)
	f := services.UserFilter{
		Role:     r.URL.Query().Get("role"),
		BranchID: branchID,
		Page:     page,
		Limit:    limit,
	}
	if raw := r.URL.Query().Get("active"); raw != "" {
		active, err := strconv.ParseBool(raw)
		if err != nil {
			writeMessage(w, http.StatusBadRequest, "invalid active")
			return
		}
		f.Active = &active
	}
	users, total, err := h.users.List(r.Context(), actor, f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writePage(w, users, total, page, limit)
}

func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOf(w, r)
	if !ok {
		return
	}
	var in services.RegisterInput
	if !decodeJSON(w, r, &in) {
		return
	}
	u, err := h.users.Register(r.Context(), actor, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, u)
}

// Update edits a user. Send "branch_id": "" to move them to Unassigned.
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOf(w, r)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	var patch services.UserPatch
	if !decodeJSON(w, r, &patch) {
		return
	}
	u, err := h.users.Update(r.Context(), actor, id, patch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, u)
}
