package handler

import (
	"net/http"

	"github.com/dkravets/photoshare-service/internal/middleware"
)

// CreateComment creates a comment under a photo
func (h *Handler) CreateComment(w http.ResponseWriter, r *http.Request) {
	photoID, err := pathID(r, "photo_id")
	if err != nil {
		h.writeError(w, err)
		return
	}
	var req struct {
		Body string `json:"body"`
	}
	if !h.decode(w, r, &req) {
		return
	}

	actor := middleware.ActorFrom(r.Context())
	comment, err := h.svc.AddComment(r.Context(), actor, photoID, req.Body)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, comment)
}

// UpdateComment edits a comment's body
func (h *Handler) UpdateComment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, err)
		return
	}
	var req struct {
		Body string `json:"body"`
	}
	if !h.decode(w, r, &req) {
		return
	}

	actor := middleware.ActorFrom(r.Context())
	comment, err := h.svc.EditComment(r.Context(), actor, id, req.Body)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, comment)
}

// DeleteComment removes a comment
func (h *Handler) DeleteComment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, err)
		return
	}
	actor := middleware.ActorFrom(r.Context())
	if err := h.svc.DeleteComment(r.Context(), actor, id); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusNoContent, nil)
}

// PhotoComments lists a photo's comments
func (h *Handler) PhotoComments(w http.ResponseWriter, r *http.Request) {
	photoID, err := pathID(r, "photo_id")
	if err != nil {
		h.writeError(w, err)
		return
	}
	comments, err := h.svc.ListComments(r.Context(), photoID, queryInt(r, "page", 1), queryInt(r, "size", 20))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, comments)
}
