package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/andrensetiawan/form-service/models"
	"github.com/andrensetiawan/form-service/services"
	"github.com/andrensetiawan/form-service/storage"
)

const (
	maxUploadParts = 10
	maxFieldBytes  = 64 << 10
)

var errTooManyParts = models.ValidationErrors{"Maksimal 10 file per unggahan"}

type MediaHandler struct {
	media *services.MediaService
}

func NewMediaHandler(media *services.MediaService) *MediaHandler {
	return &MediaHandler{media: media}
}

// Upload stores every file part of a multipart body under the folder form
// value (default "uploads").
func (h *MediaHandler) Upload(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOf(w, r)
	if !ok {
		return
	}
	if !isMultipart(r) {
		writeMessage(w, http.StatusBadRequest, "multipart/form-data required")
		return
	}
	folder := r.URL.Query().Get("folder")
	if folder == "" {
		folder = "uploads"
	}
	assets, _, err := uploadParts(r, h.media, actor, folder)
	if err == nil {
		err = requireFiles(assets)
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, assets)
}

func (h *MediaHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOf(w, r)
	if !ok {
		return
	}
	publicID := mux.Vars(r)["publicId"]
	if !storage.ValidPublicID(publicID) {
		writeMessage(w, http.StatusBadRequest, "invalid publicId")
		return
	}
	if err := h.media.Delete(r.Context(), actor, publicID); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// uploadParts streams the file parts of r into the media store and returns
// the plain form fields alongside. When any part fails the files already
// stored for this request are discarded.
func uploadParts(r *http.Request, media *services.MediaService, actor services.Actor, folder string) ([]*models.MediaAsset, map[string]string, error) {
	reader, err := r.MultipartReader()
	if err != nil {
		return nil, nil, models.ValidationErrors{"Body multipart tidak valid"}
	}
	var assets []*models.MediaAsset
	fields := map[string]string{}
	fail := func(err error) ([]*models.MediaAsset, map[string]string, error) {
		media.Discard(r.Context(), assets)
		return nil, nil, err
	}
	for {
		part, err := reader.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fail(models.ValidationErrors{"Body multipart tidak valid"})
		}
		if part.FileName() == "" {
			value, err := io.ReadAll(io.LimitReader(part, maxFieldBytes))
			part.Close()
			if err != nil {
				return fail(err)
			}
			fields[part.FormName()] = string(value)
			continue
		}
		if len(assets) == maxUploadParts {
			part.Close()
			return fail(errTooManyParts)
		}
		asset, err := media.Upload(r.Context(), actor, folder, part.FileName(), part)
		part.Close()
		if err != nil {
			return fail(err)
		}
		assets = append(assets, asset)
	}
	return assets, fields, nil
}

// requireFiles rejects an upload that carried no file parts.
func requireFiles(assets []*models.MediaAsset) error {
	if len(assets) == 0 {
		return models.ValidationErrors{"File wajib diunggah"}
	}
	return nil
}

func mediaItems(assets []*models.MediaAsset) []models.MediaItem {
	items := make([]models.MediaItem, len(assets))
	for i, a := range assets {
		items[i] = models.MediaItem{URL: a.URL, PublicID: a.PublicID, ContentType: a.ContentType}
	}
	return items
}
