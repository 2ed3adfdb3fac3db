package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/aiframe/capture-server-go/internal/service"
)

type SessionHandler struct {
	sessions *service.SessionService
	dataDir  string
}

func NewSessionHandler(sessions *service.SessionService, dataDir string) *SessionHandler {
	return &SessionHandler{sessions: sessions, dataDir: dataDir}
}

// POST /api/sessions
func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var name *string
	if q := r.URL.Query().Get("name"); q != "" {
		name = &q
	} else if r.Body != nil {
		var body struct {
			Name *string `json:"name"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err == nil {
			name = body.Name
		}
	}

	session, err := h.sessions.Create(r.Context(), name)
	if err != nil {
		log.Error().Err(err).Msg("failed to create session")
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, session)
}

// GET /api/sessions
func (h *SessionHandler) List(w http.ResponseWriter, r *http.Request) {
	listings, err := h.sessions.List(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("failed to list sessions")
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, listings)
}

// GET /api/sessions/{sessionID}
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	session, err := h.sessions.Get(r.Context(), sessionID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, session)
}

// DELETE /api/sessions/{sessionID}
func (h *SessionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	if err := h.sessions.Delete(r.Context(), sessionID); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Session deleted successfully"})
}

// GET /api/health
func (h *SessionHandler) Health(w http.ResponseWriter, r *http.Request) {
	count, err := h.sessions.Count(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":         "healthy",
		"timestamp":      time.Now().Format(time.RFC3339),
		"data_dir":       h.dataDir,
		"sessions_count": count,
	})
}

// GET /
func (h *SessionHandler) Root(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":    "AR Frame Content API",
		"version": "1.0.0",
		"status":  "running",
		"endpoints": map[string]string{
			"sessions": "/api/sessions",
			"health":   "/api/health",
		},
	})
}
