package rest

import (
	"encoding/json"
	"errors"
	"mime"
	"net/http"

	"github.com/ewilliams-labs/moodtunes/internal/core/domain"
	"github.com/ewilliams-labs/moodtunes/internal/core/services"
)

// Machine-readable error codes returned in error bodies.
const (
	errCodeInvalidRequest   = "INVALID_REQUEST"
	errCodeNotAuthenticated = "NOT_AUTHENTICATED"
	errCodeNothingPending   = "NOTHING_PENDING"
	errCodeNotFound         = "NOT_FOUND"
	errCodeUpstreamModel    = "UPSTREAM_MODEL_ERROR"
	errCodeUpstreamCatalog  = "UPSTREAM_CATALOG_ERROR"
	errCodeInternal         = "INTERNAL_ERROR"
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeErrorWithCode(w http.ResponseWriter, status int, msg, code string) {
	writeJSON(w, status, errorResponse{Error: msg, Code: code})
}

// writeServiceError maps core errors onto status codes.
func writeServiceError(w http.ResponseWriter, err error) {
	status, code := classify(err)
	writeErrorWithCode(w, status, err.Error(), code)
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, services.ErrMissingSession), errors.Is(err, services.ErrEmptyMessage):
		return http.StatusBadRequest, errCodeInvalidRequest
	case errors.Is(err, domain.ErrNotAuthenticated), errors.Is(err, domain.ErrCredentialRevoked):
		return http.StatusUnauthorized, errCodeNotAuthenticated
	case errors.Is(err, domain.ErrNothingPending):
		return http.StatusConflict, errCodeNothingPending
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, errCodeNotFound
	case errors.Is(err, domain.ErrUpstreamModel):
		return http.StatusBadGateway, errCodeUpstreamModel
	case errors.Is(err, domain.ErrUpstreamCatalog):
		return http.StatusBadGateway, errCodeUpstreamCatalog
	default:
		return http.StatusInternalServerError, errCodeInternal
	}
}

func isJSONContentType(r *http.Request) bool {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mt == "application/json"
}

// decodeJSON reads a bounded JSON body into v, writing the error response
// itself when it fails.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if !isJSONContentType(r) {
		writeError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
		return false
	}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v); err != nil {
		writeErrorWithCode(w, http.StatusBadRequest, "Invalid request body", errCodeInvalidRequest)
		return false
	}
	return true
}
