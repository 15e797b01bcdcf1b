package rest

import (
	"net/http"
)

type sendMessageRequest struct {
	SessionID string `json:"sessionId"`
	Message   string `json:"message"`
	Lang      string `json:"lang"`
}

type buildPlaylistRequest struct {
	SessionID string `json:"sessionId"`
}

// SendMessage handles POST /chat/send
func (h *Handler) SendMessage(w http.ResponseWriter, r *http.Request) {
	var req sendMessageRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	res, err := h.chat.SendMessage(r.Context(), req.SessionID, req.Message, req.Lang)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// BuildPlaylist handles POST /chat/playlist, building the songs held back
// while no catalog account was linked.
func (h *Handler) BuildPlaylist(w http.ResponseWriter, r *http.Request) {
	var req buildPlaylistRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	res, err := h.chat.BuildPendingPlaylist(r.Context(), req.SessionID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
