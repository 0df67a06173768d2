package handlers

import (
	"mime"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/andrensetiawan/form-service/models"
	"github.com/andrensetiawan/form-service/services"
)

type ServiceRequestHandler struct {
	requests *services.RequestService
	media    *services.MediaService
}

func NewServiceRequestHandler(requests *services.RequestService, media *services.MediaService) *ServiceRequestHandler {
	return &ServiceRequestHandler{requests: requests, media: media}
}

func requestFilter(r *http.Request) (services.RequestFilter, bool) {
	q := r.URL.Query()
	branchID, ok := queryUUID(r, "branch_id")
	if !ok {
		return services.RequestFilter{}, false
	}
	page, limit := pageParams(r)
	return services.RequestFilter{
		Status:     q.Get("status"),
		BranchID:   branchID,
		Technician: q.Get("technician"),
		Query:      q.Get("q"),
		Page:       page,
		Limit:      limit,
	}, true
}

func (h *ServiceRequestHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOf(w, r)
	if !ok {
		return
	}
	f, ok := requestFilter(r)
	if !ok {
		writeMessage(w, http.StatusBadRequest, "invalid branch_id")
		return
	}
	items, total, err := h.requests.List(r.Context(), actor, f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writePage(w, items, total, f.Page, f.Limit)
}

func (h *ServiceRequestHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOf(w, r)
	if !ok {
		return
	}
	var form models.IntakeForm
	if !decodeJSON(w, r, &form) {
		return
	}
	sr, err := h.requests.Create(r.Context(), actor, &form)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, sr)
}

func (h *ServiceRequestHandler) Get(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOf(w, r)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	sr, err := h.requests.Get(r.Context(), actor, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, sr)
}

type updateRequestReq struct {
	services.RequestPatch
	Version int `json:"version"`
}

// Update edits customer and device fields. The body must carry the version
// the client last read.
func (h *ServiceRequestHandler) Update(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOf(w, r)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	var req updateRequestReq
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Version < 1 {
		writeMessage(w, http.StatusBadRequest, "version is required")
		return
	}
	sr, err := h.requests.Update(r.Context(), actor, id, req.RequestPatch, req.Version)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, sr)
}

func (h *ServiceRequestHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOf(w, r)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	if err := h.requests.Delete(r.Context(), actor, id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type statusReq struct {
	Status string `json:"status"`
	Note   string `json:"note"`
}

func (h *ServiceRequestHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOf(w, r)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	var req statusReq
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Status) == "" {
		writeMessage(w, http.StatusBadRequest, "status is required")
		return
	}
	sr, err := h.requests.UpdateStatus(r.Context(), actor, id, req.Status, req.Note)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, sr)
}

func (h *ServiceRequestHandler) StatusLog(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOf(w, r)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	history, err := h.requests.StatusHistory(r.Context(), actor, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, history)
}

type estimateReq struct {
	Items   []models.EstimateItem `json:"estimasi_items"`
	Version int                   `json:"version"`
}

func (h *ServiceRequestHandler) SaveEstimate(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOf(w, r)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	var req estimateReq
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Version < 1 {
		writeMessage(w, http.StatusBadRequest, "version is required")
		return
	}
	sr, err := h.requests.SaveEstimate(r.Context(), actor, id, req.Items, req.Version)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, sr)
}

type attachMediaReq struct {
	URLs []string `json:"urls"`
}

// AttachMedia adds files to a media array. A multipart body is uploaded
// first; a JSON body attaches already hosted URLs.
func (h *ServiceRequestHandler) AttachMedia(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOf(w, r)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	kind, ok := models.ParseMediaKind(mux.Vars(r)["kind"])
	if !ok {
		writeMessage(w, http.StatusBadRequest, "invalid media kind")
		return
	}

	if isMultipart(r) {
		assets, _, err := uploadParts(r, h.media, actor, "service-requests/"+id.String()+"/"+string(kind))
		if err == nil {
			err = requireFiles(assets)
		}
		if err != nil {
			writeError(w, r, err)
			return
		}
		urls := make([]string, len(assets))
		for i, a := range assets {
			urls[i] = a.URL
		}
		sr, err := h.requests.AttachMedia(r.Context(), actor, id, kind, urls)
		if err != nil {
			h.media.Discard(r.Context(), assets)
			writeError(w, r, err)
			return
		}
		writeData(w, http.StatusOK, sr)
		return
	}

	var req attachMediaReq
	if !decodeJSON(w, r, &req) {
		return
	}
	if len(req.URLs) == 0 {
		writeMessage(w, http.StatusBadRequest, "urls is required")
		return
	}
	sr, err := h.requests.AttachMedia(r.Context(), actor, id, kind, req.URLs)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, sr)
}

// DetachMedia removes the URL given in the url query parameter.
func (h *ServiceRequestHandler) DetachMedia(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOf(w, r)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	kind, ok := models.ParseMediaKind(mux.Vars(r)["kind"])
	if !ok {
		writeMessage(w, http.StatusBadRequest, "invalid media kind")
		return
	}
	url := r.URL.Query().Get("url")
	if url == "" {
		writeMessage(w, http.StatusBadRequest, "url is required")
		return
	}
	sr, err := h.requests.DetachMedia(r.Context(), actor, id, kind, url)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, sr)
}

func (h *ServiceRequestHandler) Receipt(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOf(w, r)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	sr, err := h.requests.Get(r.Context(), actor, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := renderReceipt(w, sr); err != nil {
		writeError(w, r, err)
	}
}

func (h *ServiceRequestHandler) Export(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOf(w, r)
	if !ok {
		return
	}
	f, ok := requestFilter(r)
	if !ok {
		writeMessage(w, http.StatusBadRequest, "invalid branch_id")
		return
	}
	format := strings.ToLower(r.URL.Query().Get("format"))
	if format == "" {
		format = "excel"
	}
	if format != "excel" && format != "csv" {
		writeMessage(w, http.StatusBadRequest, "format must be excel or csv")
		return
	}
	items, err := h.requests.Export(r.Context(), actor, f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if format == "csv" {
		err = writeRequestsCSV(w, items)
	} else {
		err = writeRequestsExcel(w, items)
	}
	if err != nil {
		writeError(w, r, err)
	}
}

func isMultipart(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mediaType == "multipart/form-data"
}
