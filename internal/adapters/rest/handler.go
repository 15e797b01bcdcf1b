package rest

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/ewilliams-labs/moodtunes/internal/core/services"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 64 << 10

// Handler manages the HTTP interface for our application.
type Handler struct {
	chat     *services.Orchestrator
	accounts *services.Accounts
	results  *services.Results
	origin   string
	router   *http.ServeMux
}

// NewHandler initializes the HTTP adapter and sets up routes. Browser
// requests are allowed from the origin of frontendURL.
func NewHandler(chat *services.Orchestrator, accounts *services.Accounts, results *services.Results, frontendURL string) *Handler {
	h := &Handler{
		chat:     chat,
		accounts: accounts,
		results:  results,
		origin:   originOf(frontendURL),
		router:   http.NewServeMux(),
	}

	h.routes()

	return h
}

// ServeHTTP satisfies the http.Handler interface.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.origin != "" {
		w.Header().Set("Access-Control-Allow-Origin", h.origin)
		w.Header().Set("Vary", "Origin")
		if r.Method == http.MethodOptions {
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
			w.WriteHeader(http.StatusNoContent)
			return
		}
	}
	h.router.ServeHTTP(w, r)
}

// routes defines the mapping between URLs and methods.
func (h *Handler) routes() {
	h.router.HandleFunc("GET /health", h.HealthCheck)

	h.router.HandleFunc("POST /session/start", h.StartSession)
	h.router.HandleFunc("GET /session/status", h.SessionStatus)

	h.router.HandleFunc("GET /auth/login", h.Login)
	h.router.HandleFunc("GET /callback", h.Callback)

	h.router.HandleFunc("POST /chat/send", h.SendMessage)
	h.router.HandleFunc("POST /chat/playlist", h.BuildPlaylist)

	h.router.HandleFunc("GET /mood/result", h.MoodResult)
	h.router.HandleFunc("GET /mood/history", h.MoodHistory)
}

// HealthCheck is a simple endpoint to verify the API is running.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "message": "MoodTunes is live"})
}

func originOf(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ""
	}
	return u.Scheme + "://" + u.Host
}
