package handler

import (
	"net/http"

	"github.com/dkravets/photoshare-service/internal/middleware"
)

// CreateRating submits a rating for a photo
func (h *Handler) CreateRating(w http.ResponseWriter, r *http.Request) {
	photoID, err := pathID(r, "photo_id")
	if err != nil {
		h.writeError(w, err)
		return
	}
	var req struct {
		Score int `json:"score"`
	}
	if !h.decode(w, r, &req) {
		return
	}

	actor := middleware.ActorFrom(r.Context())
	rating, err := h.svc.SubmitRating(r.Context(), actor, photoID, req.Score)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, rating)
}

// PhotoRating returns the read-time rating aggregate for a photo
func (h *Handler) PhotoRating(w http.ResponseWriter, r *http.Request) {
	photoID, err := pathID(r, "photo_id")
	if err != nil {
		h.writeError(w, err)
		return
	}
	stats, err := h.svc.RatingAverage(r.Context(), photoID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, stats)
}

// DeleteRating removes a rating (moderation)
func (h *Handler) DeleteRating(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, err)
		return
	}
	actor := middleware.ActorFrom(r.Context())
	if err := h.svc.DeleteRating(r.Context(), actor, id); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusNoContent, nil)
}
