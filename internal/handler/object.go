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

type ObjectHandler struct {
	objects *service.ObjectService
}

func NewObjectHandler(objects *service.ObjectService) *ObjectHandler {
	return &ObjectHandler{objects: objects}
}

func (h *ObjectHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/", h.Add)
	r.Get("/", h.List)
	r.Get("/{objectID}", h.Get)
	r.Put("/{objectID}", h.Update)
	r.Delete("/{objectID}", h.Delete)

	return r
}

// POST /api/sessions/{sessionID}/objects
func (h *ObjectHandler) Add(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	obj, ok := decodeObject(w, r)
	if !ok {
		return
	}

	stored, err := h.objects.Add(r.Context(), sessionID, obj)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, stored)
}

// GET /api/sessions/{sessionID}/objects
//
// Reads the manifest-embedded list. The standalone objects/ files are only
// consulted by Get; the two sources are kept apart on purpose.
func (h *ObjectHandler) List(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	objects, err := h.objects.List(r.Context(), sessionID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, objects)
}

// GET /api/sessions/{sessionID}/objects/{objectID}
func (h *ObjectHandler) Get(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	objectID := chi.URLParam(r, "objectID")

	obj, err := h.objects.Get(r.Context(), sessionID, objectID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, obj)
}

// PUT /api/sessions/{sessionID}/objects/{objectID}
func (h *ObjectHandler) Update(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	objectID := chi.URLParam(r, "objectID")

	obj, ok := decodeObject(w, r)
	if !ok {
		return
	}

	updated, err := h.objects.Update(r.Context(), sessionID, objectID, obj)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, updated)
}

// DELETE /api/sessions/{sessionID}/objects/{objectID}
func (h *ObjectHandler) Delete(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	objectID := chi.URLParam(r, "objectID")

	if err := h.objects.Delete(r.Context(), sessionID, objectID); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Object deleted successfully"})
}

func decodeObject(w http.ResponseWriter, r *http.Request) (*model.ARObject, bool) {
	var obj model.ARObject
	if err := json.NewDecoder(r.Body).Decode(&obj); err != nil {
		log.Warn().Err(err).Msg("invalid object body")
		writeError(w, apperrors.ValidationError("Invalid object body"))
		return nil, false
	}
	if obj.Type == "" {
		writeError(w, apperrors.MissingRequired("type"))
		return nil, false
	}
	return &obj, true
}
