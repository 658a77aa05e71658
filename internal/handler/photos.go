package handler

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dkravets/photoshare-service/internal/apperrors"
	"github.com/dkravets/photoshare-service/internal/middleware"
	"github.com/dkravets/photoshare-service/internal/repository"
	"github.com/dkravets/photoshare-service/internal/service"
)

const maxUploadBytes = 20 << 20 // 20 MiB

// UploadPhoto handles a multipart photo upload with optional description
// and comma-separated tags.
func (h *Handler) UploadPhoto(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		h.writeError(w, apperrors.Validation("invalid multipart form"))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		h.writeError(w, apperrors.Validation("file is required"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
	if err != nil {
		h.writeError(w, fmt.Errorf("failed to read upload: %w", err))
		return
	}

	var tags []string
	if raw := r.FormValue("tags"); raw != "" {
		tags = strings.Split(raw, ",")
	}

	actor := middleware.ActorFrom(r.Context())
	photo, err := h.svc.UploadPhoto(r.Context(), actor,
		header.Filename, header.Header.Get("Content-Type"), data,
		r.FormValue("description"), tags)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, photo)
}

// ListPhotos returns a page of all photos, newest first
func (h *Handler) ListPhotos(w http.ResponseWriter, r *http.Request) {
	page := queryInt(r, "page", 1)
	size := queryInt(r, "size", 20)

	photos, total, err := h.svc.ListPhotos(r.Context(), page, size)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, newPageBody(photos, total, page, size))
}

// GetPhoto returns a single photo with tags and rating aggregate
func (h *Handler) GetPhoto(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, err)
		return
	}
	photo, err := h.svc.GetPhoto(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, photo)
}

// UpdatePhoto updates a photo's description
func (h *Handler) UpdatePhoto(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, err)
		return
	}
	var req struct {
		Description string `json:"description"`
	}
	if !h.decode(w, r, &req) {
		return
	}

	actor := middleware.ActorFrom(r.Context())
	photo, err := h.svc.UpdatePhotoDescription(r.Context(), actor, id, req.Description)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, photo)
}

// DeletePhoto removes a photo
func (h *Handler) DeletePhoto(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, err)
		return
	}
	actor := middleware.ActorFrom(r.Context())
	if err := h.svc.DeletePhoto(r.Context(), actor, id); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusNoContent, nil)
}

// ReplaceTags replaces a photo's tag set
func (h *Handler) ReplaceTags(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, err)
		return
	}
	var req struct {
		Tags []string `json:"tags"`
	}
	if !h.decode(w, r, &req) {
		return
	}

	actor := middleware.ActorFrom(r.Context())
	photo, err := h.svc.ReplacePhotoTags(r.Context(), actor, id, req.Tags)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, photo)
}

// UserPhotos returns a page of one user's photos
func (h *Handler) UserPhotos(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, err)
		return
	}
	photos, err := h.svc.ListUserPhotos(r.Context(), userID, queryInt(r, "page", 1), queryInt(r, "size", 20))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, photos)
}

// SearchPhotos filters and sorts photos by the query parameters
func (h *Handler) SearchPhotos(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	params := repository.SearchParams{
		Keyword:   q.Get("keyword"),
		Tag:       q.Get("tag"),
		SortBy:    q.Get("sort_by"),
		SortOrder: q.Get("sort_order"),
	}
	if v := q.Get("uploader_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			h.writeError(w, apperrors.Validation("invalid uploader_id"))
			return
		}
		params.UploaderID = id
	}
	if v := q.Get("min_rating"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			h.writeError(w, apperrors.Validation("invalid min_rating"))
			return
		}
		params.MinRating = f
	}
	if v := q.Get("max_rating"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			h.writeError(w, apperrors.Validation("invalid max_rating"))
			return
		}
		params.MaxRating = f
	}
	if v := q.Get("date_from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			h.writeError(w, apperrors.Validation("date_from must be RFC3339"))
			return
		}
		params.DateFrom = t
	}
	if v := q.Get("date_to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			h.writeError(w, apperrors.Validation("date_to must be RFC3339"))
			return
		}
		params.DateTo = t
	}

	page := queryInt(r, "page", 1)
	size := queryInt(r, "size", 20)
	photos, total, err := h.svc.SearchPhotos(r.Context(), params, page, size)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, newPageBody(photos, total, page, size))
}

// TransformPhoto creates a derived image via the CDN URL contract
func (h *Handler) TransformPhoto(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, err)
		return
	}
	var req struct {
		Transformation string `json:"transformation"`
		service.TransformOptions
	}
	if !h.decode(w, r, &req) {
		return
	}

	transformation, err := h.svc.TransformPhoto(r.Context(), id, req.Transformation, req.TransformOptions)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, transformation)
}

// PhotoTransformations lists a photo's stored transformations
func (h *Handler) PhotoTransformations(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, err)
		return
	}
	transformations, err := h.svc.ListTransformations(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, transformations)
}

// PhotoQR streams a QR code PNG for the photo URL
func (h *Handler) PhotoQR(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, err)
		return
	}
	png, err := h.svc.PhotoQR(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=qr_photo_%d.png", id))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(png); err != nil {
		h.log.Errorf("Failed to write QR response: %v", err)
	}
}
