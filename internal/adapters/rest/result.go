package rest

import (
	"net/http"

	"github.com/ewilliams-labs/moodtunes/internal/core/domain"
)

type moodHistoryResponse struct {
	Records []domain.PlaylistRecord `json:"records"`
}

// MoodResult handles GET /mood/result?sessionId=
func (h *Handler) MoodResult(w http.ResponseWriter, r *http.Request) {
	rec, err := h.results.Latest(r.Context(), r.URL.Query().Get("sessionId"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// MoodHistory handles GET /mood/history?sessionId=
func (h *Handler) MoodHistory(w http.ResponseWriter, r *http.Request) {
	recs, err := h.results.History(r.Context(), r.URL.Query().Get("sessionId"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, moodHistoryResponse{Records: recs})
}
