// handlers/auth.go
package handlers

import (
	"net/http"

	"github.com/andrensetiawan/form-service/middleware"
	"github.com/andrensetiawan/form-service/models"
	"github.com/andrensetiawan/form-service/services"
	"github.com/andrensetiawan/form-service/utils"
)

type AuthHandler struct {
	users  *services.UserService
	tokens *middleware.TokenIssuer
}

func NewAuthHandler(users *services.UserService, tokens *middleware.TokenIssuer) *AuthHandler {
	return &AuthHandler{users: users, tokens: tokens}
}

type loginReq struct {
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

type loginResp struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// Login accepts email or phone plus password and returns a bearer token.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginReq
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Password == "" {
		writeMessage(w, http.StatusBadRequest, "password is required")
		return
	}
	u, err := h.users.Login(r.Context(), req.Email, req.Phone, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}
	token, err := h.tokens.GenerateToken(u)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, loginResp{Token: token, User: u})
}

type profileResp struct {
	*models.User
	Capabilities []string `json:"capabilities"`
}

// Profile returns the caller with the grants of their current role.
func (h *AuthHandler) Profile(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOf(w, r)
	if !ok {
		return
	}
	u, err := h.users.Get(r.Context(), actor.UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, profileResp{User: u, Capabilities: utils.Grants(u.Role)})
}

type changePasswordReq struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOf(w, r)
	if !ok {
		return
	}
	var req changePasswordReq
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.users.ChangePassword(r.Context(), actor, req.CurrentPassword, req.NewPassword); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Statuses lists the status vocabulary with display metadata.
func Statuses(w http.ResponseWriter, r *http.Request) {
	writeData(w, http.StatusOK, models.StatusCatalog())
}
