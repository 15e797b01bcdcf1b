package rest

import (
	"html"
	"net/http"

	"goa.design/clue/log"
)

type sessionResponse struct {
	SessionID string `json:"sessionId"`
}

type loginResponse struct {
	AuthURL string `json:"authUrl"`
}

// StartSession handles POST /session/start
func (h *Handler) StartSession(w http.ResponseWriter, r *http.Request) {
	id, err := h.chat.StartSession(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{SessionID: id})
}

// SessionStatus handles GET /session/status?sessionId=
func (h *Handler) SessionStatus(w http.ResponseWriter, r *http.Request) {
	st, err := h.chat.Status(r.Context(), r.URL.Query().Get("sessionId"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// Login handles GET /auth/login?sessionId=
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	authURL, err := h.accounts.LoginURL(r.Context(), r.URL.Query().Get("sessionId"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, loginResponse{AuthURL: authURL})
}

// Callback handles GET /callback?code=&state= from the catalog's OAuth flow.
// Failures render a small page since the user lands here in a browser.
func (h *Handler) Callback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	target, err := h.accounts.CompleteLogin(r.Context(), q.Get("code"), q.Get("state"))
	if err != nil {
		log.Printf(r.Context(), "rest: auth callback failed: %v", err)
		msg := err.Error()
		if reason := q.Get("error"); reason != "" {
			msg = "authorization was not granted (" + reason + ")"
		}
		writeHTML(w, http.StatusBadRequest, "Spotify login failed", msg)
		return
	}
	http.Redirect(w, r, target, http.StatusFound)
}

func writeHTML(w http.ResponseWriter, status int, title, msg string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte("<!DOCTYPE html><html><head><meta charset=\"utf-8\"><title>MoodTunes</title></head><body><h1>" +
		html.EscapeString(title) + "</h1><p>" + html.EscapeString(msg) + "</p></body></html>"))
}
