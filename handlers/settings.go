package handlers

import (
	"net/http"

	"github.com/andrensetiawan/form-service/models"
	"github.com/andrensetiawan/form-service/services"
)

// AdminHandler serves security settings and the activity log.
type AdminHandler struct {
	settings *services.SettingsService
	activity *services.ActivityService
}

func NewAdminHandler(settings *services.SettingsService, activity *services.ActivityService) *AdminHandler {
	return &AdminHandler{settings: settings, activity: activity}
}

func (h *AdminHandler) GetSecurity(w http.ResponseWriter, r *http.Request) {
	settings, err := h.settings.Security(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, settings)
}

func (h *AdminHandler) UpdateSecurity(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOf(w, r)
	if !ok {
		return
	}
	in := models.DefaultSecuritySettings()
	if !decodeJSON(w, r, &in) {
		return
	}
	settings, err := h.settings.UpdateSecurity(r.Context(), actor, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, settings)
}

// Activity lists the audit trail, filtered by target_id, actor and action.
func (h *AdminHandler) Activity(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOf(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	page, limit := pageParams(r)
	entries, total, err := h.activity.List(r.Context(), actor, services.ActivityFilter{
		TargetID: q.Get("target_id"),
		Actor:    q.Get("actor"),
		Action:   q.Get("action"),
		Page:     page,
		Limit:    limit,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writePage(w, entries, total, page, limit)
}
