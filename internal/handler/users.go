package handler

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/dkravets/photoshare-service/internal/middleware"
	"github.com/dkravets/photoshare-service/internal/models"
)

type profileResponse struct {
	ID          int64       `json:"id"`
	Username    string      `json:"username"`
	Email       string      `json:"email,omitempty"`
	Role        models.Role `json:"role,omitempty"`
	Banned      *bool       `json:"banned,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
	PhotosCount int         `json:"photos_count"`
}

// Me returns the authenticated user's full profile
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	actor := middleware.ActorFrom(r.Context())
	profile, err := h.svc.GetOwnProfile(r.Context(), actor)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, profileResponse{
		ID:          profile.User.ID,
		Username:    profile.User.Username,
		Email:       profile.User.Email,
		Role:        profile.User.Role,
		Banned:      &profile.User.Banned,
		CreatedAt:   profile.User.CreatedAt,
		PhotosCount: profile.PhotosCount,
	})
}

// UpdateMe updates the authenticated user's username and email
func (h *Handler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Email    string `json:"email"`
	}
	if !h.decode(w, r, &req) {
		return
	}

	actor := middleware.ActorFrom(r.Context())
	user, err := h.svc.UpdateProfile(r.Context(), actor, req.Username, req.Email)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, user)
}

// UserProfile returns a user's public profile. Email is never exposed.
func (h *Handler) UserProfile(w http.ResponseWriter, r *http.Request) {
	username := mux.Vars(r)["username"]
	profile, err := h.svc.GetProfileByUsername(r.Context(), username)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, profileResponse{
		ID:          profile.User.ID,
		Username:    profile.User.Username,
		CreatedAt:   profile.User.CreatedAt,
		PhotosCount: profile.PhotosCount,
	})
}

// BanUser disables a user account
func (h *Handler) BanUser(w http.ResponseWriter, r *http.Request) {
	h.setBanned(w, r, true)
}

// UnbanUser re-enables a user account
func (h *Handler) UnbanUser(w http.ResponseWriter, r *http.Request) {
	h.setBanned(w, r, false)
}

func (h *Handler) setBanned(w http.ResponseWriter, r *http.Request, banned bool) {
	targetID, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, err)
		return
	}

	actor := middleware.ActorFrom(r.Context())
	user, err := h.svc.SetUserBanned(r.Context(), actor, targetID, banned)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, user)
}
