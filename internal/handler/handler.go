package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/dkravets/photoshare-service/internal/apperrors"
	"github.com/dkravets/photoshare-service/internal/service"
)

// Handler serializes HTTP requests and responses for the service layer.
type Handler struct {
	svc *service.Service
	log *logrus.Logger
}

// NewHandler initializes a new handler
func NewHandler(svc *service.Service, log *logrus.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

// errorBody is the machine-readable error payload.
type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// pageBody is the envelope for paginated collections.
type pageBody struct {
	Items interface{} `json:"items"`
	Total int         `json:"total"`
	Page  int         `json:"page"`
	Size  int         `json:"size"`
	Pages int         `json:"pages"`
}

func newPageBody(items interface{}, total, page, size int) pageBody {
	pages := 0
	if total > 0 {
		pages = (total + size - 1) / size
	}
	return pageBody{Items: items, Total: total, Page: page, Size: size, Pages: pages}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Errorf("Failed to encode response: %v", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	status := apperrors.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		h.log.Errorf("Request failed: %v", err)
		h.writeJSON(w, status, errorBody{Code: string(apperrors.CodeInternal), Message: "internal error"})
		return
	}
	h.writeJSON(w, status, errorBody{Code: string(apperrors.CodeOf(err)), Message: err.Error()})
}

// decode parses a JSON request body, rejecting malformed input with 400.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		h.writeError(w, apperrors.Validation("invalid request body"))
		return false
	}
	return true
}

// pathID extracts a numeric path variable.
func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(mux.Vars(r)[name], 10, 64)
	if err != nil {
		return 0, apperrors.Validation("invalid %s", name)
	}
	return id, nil
}

// queryInt reads an integer query parameter with a default.
func queryInt(r *http.Request, name string, defaultVal int) int {
	if v, err := strconv.Atoi(r.URL.Query().Get(name)); err == nil {
		return v
	}
	return defaultVal
}
