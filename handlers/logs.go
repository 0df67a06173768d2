package handlers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/andrensetiawan/form-service/middleware"
	"github.com/andrensetiawan/form-service/models"
	"github.com/andrensetiawan/form-service/services"
)

// LogHandler serves the unit work log and the customer log of a ticket.
type LogHandler struct {
	workLogs     *services.WorkLogService
	customerLogs *services.CustomerLogService
	media        *services.MediaService
}

func NewLogHandler(workLogs *services.WorkLogService, customerLogs *services.CustomerLogService, media *services.MediaService) *LogHandler {
	return &LogHandler{workLogs: workLogs, customerLogs: customerLogs, media: media}
}

func (h *LogHandler) ListWorkLogs(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOf(w, r)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	entries, err := h.workLogs.List(r.Context(), actor, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, entries)
}

// AddWorkLog accepts JSON or a multipart form with description,
// detail_note, parent_id and file parts.
func (h *LogHandler) AddWorkLog(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOf(w, r)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	var in services.WorkLogInput
	var assets []*models.MediaAsset
	if isMultipart(r) {
		uploaded, fields, err := uploadParts(r, h.media, actor, "work-logs/"+id.String())
		if err != nil {
			writeError(w, r, err)
			return
		}
		assets = uploaded
		in.Description = fields["description"]
		in.DetailNote = fields["detail_note"]
		if raw := strings.TrimSpace(fields["parent_id"]); raw != "" {
			parentID, err := uuid.Parse(raw)
			if err != nil {
				h.media.Discard(r.Context(), assets)
				writeMessage(w, http.StatusBadRequest, "invalid parent_id")
				return
			}
			in.ParentID = &parentID
		}
		in.Media = mediaItems(assets)
	} else if !decodeJSON(w, r, &in) {
		return
	}
	in.IdempotencyKey = middleware.IdempotencyKey(r)

	entry, err := h.workLogs.Add(r.Context(), actor, id, in)
	if err != nil {
		h.media.Discard(r.Context(), assets)
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, entry)
}

func (h *LogHandler) DeleteWorkLog(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOf(w, r)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, "logId")
	if !ok {
		return
	}
	if err := h.workLogs.Delete(r.Context(), actor, id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *LogHandler) ListCustomerLogs(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOf(w, r)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	entries, err := h.customerLogs.List(r.Context(), actor, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, entries)
}

func (h *LogHandler) AddCustomerLog(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOf(w, r)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	var in services.CustomerLogInput
	if !decodeJSON(w, r, &in) {
		return
	}
	in.IdempotencyKey = middleware.IdempotencyKey(r)
	entry, err := h.customerLogs.Add(r.Context(), actor, id, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, entry)
}

func (h *LogHandler) DeleteCustomerLog(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOf(w, r)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, "logId")
	if !ok {
		return
	}
	if err := h.customerLogs.Delete(r.Context(), actor, id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
