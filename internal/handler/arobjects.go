package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	apperrors "github.com/aiframe/capture-server-go/internal/errors"
	"github.com/aiframe/capture-server-go/internal/model"
	"github.com/aiframe/capture-server-go/internal/service"
)

// ARObjectHandler serves the flat per-session objects.json surface used by
// AR clients to persist and restore placement state.
type ARObjectHandler struct {
	captures *service.CaptureService
}

func NewARObjectHandler(captures *service.CaptureService) *ARObjectHandler {
	return &ARObjectHandler{captures: captures}
}

// Register attaches the AR object routes to the server's root router.
func (h *ARObjectHandler) Register(r chi.Router) {
	r.Get("/ar/{sessionID}/objects", h.List)
	r.Post("/ar/{sessionID}/objects", h.Save)
	r.Delete("/ar/{sessionID}/objects", h.Clear)
	r.Get("/objects/{sessionID}", h.TextObjects)
	r.Post("/objects/save", h.SavePlacement)
	r.Get("/poll", h.Poll)
}

// GET /ar/{sessionID}/objects
func (h *ARObjectHandler) List(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	objects, err := h.captures.PlacedObjects(r.Context(), sessionID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"session_id": sessionID,
		"objects":    objects,
		"count":      len(objects),
	})
}

// POST /ar/{sessionID}/objects
func (h *ARObjectHandler) Save(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	var req struct {
		ID       string         `json:"id"`
		Type     string         `json:"type"`
		Position any            `json:"position"`
		Rotation any            `json:"rotation"`
		Metadata map[string]any `json:"metadata"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.ValidationError("Invalid request body"))
		return
	}

	saved, _, err := h.captures.SavePlaced(r.Context(), sessionID, model.PlacedObject{
		ID:       req.ID,
		Type:     req.Type,
		Position: req.Position,
		Rotation: req.Rotation,
		Metadata: req.Metadata,
	})
	if err != nil {
		log.Error().Err(err).Str("sessionId", sessionID).Msg("failed to save object")
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"object":  saved,
	})
}

// DELETE /ar/{sessionID}/objects
func (h *ARObjectHandler) Clear(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	if err := h.captures.ClearPlaced(r.Context(), sessionID); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "All objects cleared",
	})
}

// GET /objects/{sessionID}
//
// Legacy restore path: scans text captures for embedded placement JSON.
func (h *ARObjectHandler) TextObjects(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	objects, err := h.captures.TextObjects(r.Context(), sessionID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"session_id": sessionID,
		"objects":    objects,
		"count":      len(objects),
	})
}

// POST /objects/save (form-encoded placement)
func (h *ARObjectHandler) SavePlacement(w http.ResponseWriter, r *http.Request) {
	if err := parseForm(r); err != nil {
		writeError(w, apperrors.ValidationError("Invalid form payload"))
		return
	}

	sessionID := r.FormValue("session_id")
	objectType := r.FormValue("object_type")
	position := r.FormValue("position")
	if sessionID == "" || objectType == "" || position == "" {
		writeError(w, apperrors.MissingRequired("session_id, object_type and position"))
		return
	}

	saved, total, err := h.captures.SavePlacement(
		r.Context(), sessionID, objectType, position,
		r.FormValue("rotation"), r.FormValue("metadata"),
	)
	if err != nil {
		log.Error().Err(err).Str("sessionId", sessionID).Msg("failed to save placement")
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":       true,
		"object_id":     saved.ID,
		"total_objects": total,
	})
}

// GET /poll is a placeholder for processed results pushed back to clients.
func (h *ARObjectHandler) Poll(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"objects": []any{}})
}
