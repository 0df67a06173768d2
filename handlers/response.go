package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/andrensetiawan/form-service/middleware"
	"github.com/andrensetiawan/form-service/models"
	"github.com/andrensetiawan/form-service/pkg/idempotency"
	"github.com/andrensetiawan/form-service/services"
)

const maxJSONBody = 1 << 20

type errorBody struct {
	Error   string   `json:"error"`
	Details []string `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeData wraps v in the {"data": ...} envelope.
func writeData(w http.ResponseWriter, status int, v any) {
	writeJSON(w, status, map[string]any{"data": v})
}

func writePage(w http.ResponseWriter, v any, total int64, page, limit int) {
	writeJSON(w, http.StatusOK, map[string]any{
		"data":  v,
		"total": total,
		"page":  page,
		"limit": limit,
	})
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}

// writeError maps domain errors onto HTTP status codes.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var verrs models.ValidationErrors
	switch {
	case errors.As(err, &verrs):
		writeJSON(w, http.StatusUnprocessableEntity, errorBody{Error: "validation failed", Details: verrs})
	case errors.Is(err, services.ErrNotFound):
		writeMessage(w, http.StatusNotFound, "not found")
	case errors.Is(err, services.ErrForbidden):
		writeMessage(w, http.StatusForbidden, err.Error())
	case errors.Is(err, services.ErrInvalidCredential):
		writeMessage(w, http.StatusUnauthorized, "invalid credentials")
	case errors.Is(err, services.ErrVersionMismatch):
		writeMessage(w, http.StatusConflict, err.Error())
	case errors.Is(err, services.ErrConflict), errors.Is(err, idempotency.ErrReplayed):
		writeMessage(w, http.StatusConflict, err.Error())
	case errors.Is(err, services.ErrInvalidTransition):
		writeMessage(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, services.ErrPublicViewExpired):
		writeMessage(w, http.StatusGone, err.Error())
	case errors.Is(err, services.ErrFeatureDisabled):
		writeMessage(w, http.StatusForbidden, err.Error())
	case errors.Is(err, services.ErrFileTooLarge):
		writeMessage(w, http.StatusRequestEntityTooLarge, err.Error())
	default:
		zap.L().Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("request_id", middleware.RequestIDFrom(r.Context())),
			zap.Error(err))
		writeMessage(w, http.StatusInternalServerError, "internal server error")
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody)).Decode(v); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid JSON")
		return false
	}
	return true
}

// actorOf returns the authenticated caller, or writes 401.
func actorOf(w http.ResponseWriter, r *http.Request) (services.Actor, bool) {
	actor, ok := middleware.ActorFrom(r.Context())
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "unauthorized")
	}
	return actor, ok
}

// pathUUID parses a mux variable, writing 400 when it is not a UUID.
func pathUUID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)[name])
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}

func queryInt(r *http.Request, key string) int {
	n, _ := strconv.Atoi(r.URL.Query().Get(key))
	return n
}

// queryUUID returns nil for a missing value and false for a malformed one.
func queryUUID(r *http.Request, key string) (*uuid.UUID, bool) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return nil, true
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, false
	}
	return &id, true
}

func pageParams(r *http.Request) (int, int) {
	page, limit := queryInt(r, "page"), queryInt(r, "limit")
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	if limit > 200 {
		limit = 200
	}
	return page, limit
}
