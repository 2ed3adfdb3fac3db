package handler

import (
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/aiframe/capture-server-go/internal/config"
	apperrors "github.com/aiframe/capture-server-go/internal/errors"
	"github.com/aiframe/capture-server-go/internal/registry"
	"github.com/aiframe/capture-server-go/internal/service"
)

type CaptureHandler struct {
	captures *service.CaptureService
}

func NewCaptureHandler(captures *service.CaptureService) *CaptureHandler {
	return &CaptureHandler{captures: captures}
}

// Register attaches the intake and session routes. The capture surface is a
// flat route table at the server root, so routes go on the parent router
// directly instead of a mounted subrouter.
func (h *CaptureHandler) Register(r chi.Router) {
	r.Post("/upload", h.Upload)
	r.Post("/session/create", h.CreateSession)
	r.Get("/sessions", h.ListSessions)
	r.Get("/sessions/{sessionID}", h.SessionDetails)
	r.Delete("/sessions/{sessionID}", h.DeleteSession)
	r.Get("/media/{sessionID}/{filename}", h.Media)
	r.Get("/captures", h.Captures)
	r.Get("/download/{captureID}/{mediaType}", h.Download)
}

// POST /upload
//
// Main intake endpoint for all capture devices: any combination of
// video/audio/image parts plus text and free-form metadata.
func (h *CaptureHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		writeError(w, apperrors.ValidationError("Invalid multipart payload"))
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			r.MultipartForm.RemoveAll()
		}
	}()

	input := service.IntakeInput{
		Source:      formValueOr(r, "source", "unknown"),
		Device:      formValueOr(r, "device", "unknown"),
		Timestamp:   r.FormValue("timestamp"),
		Text:        r.FormValue("text"),
		SessionID:   r.FormValue("session_id"),
		CaptureType: r.FormValue("capture_type"),
		Metadata:    r.FormValue("metadata"),
	}

	var closers []multipart.File
	defer func() {
		for _, f := range closers {
			f.Close()
		}
	}()
	for _, part := range []struct {
		field string
		dest  **service.MediaPart
	}{
		{"video", &input.Video},
		{"audio", &input.Audio},
		{"image", &input.Image},
	} {
		file, header, err := r.FormFile(part.field)
		if err != nil {
			continue
		}
		closers = append(closers, file)
		*part.dest = &service.MediaPart{
			Filename: filepath.Base(header.Filename),
			Data:     file,
		}
	}

	result, err := h.captures.Intake(r.Context(), input)
	if err != nil {
		log.Error().Err(err).Msg("upload failed")
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// POST /session/create
func (h *CaptureHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	if err := parseForm(r); err != nil {
		writeError(w, apperrors.ValidationError("Invalid form payload"))
		return
	}

	deviceID := r.FormValue("device_id")
	if deviceID == "" {
		writeError(w, apperrors.MissingRequired("device_id"))
		return
	}

	sessionID, err := h.captures.CreateSession(r.Context(), deviceID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"session_id": sessionID,
		"device_id":  deviceID,
		"created":    nowRFC3339(),
	})
}

// GET /sessions
func (h *CaptureHandler) ListSessions(w http.ResponseWriter, r *http.Request) {
	entries, err := h.captures.ListSessions(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	sessions := make([]map[string]any, 0, len(entries))
	for _, entry := range entries {
		sessions = append(sessions, formatRegistryEntry(entry))
	}

	writeJSON(w, http.StatusOK, map[string]any{"sessions": sessions})
}

// GET /sessions/{sessionID}
func (h *CaptureHandler) SessionDetails(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	details, err := h.captures.SessionDetails(r.Context(), sessionID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"session": details,
		"files":   details.MediaFiles,
	})
}

// DELETE /sessions/{sessionID}
func (h *CaptureHandler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	if err := h.captures.DeleteSession(r.Context(), sessionID); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status":     "deleted",
		"session_id": sessionID,
	})
}

// GET /media/{sessionID}/{filename}
func (h *CaptureHandler) Media(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	filename := chi.URLParam(r, "filename")

	if !safeFilename(filename) {
		writeError(w, apperrors.NotFound("File"))
		return
	}

	path, err := h.captures.MediaPath(r.Context(), sessionID, filename)
	if err != nil {
		writeError(w, err)
		return
	}

	http.ServeFile(w, r, path)
}

// GET /captures?session_id=&limit=
func (h *CaptureHandler) Captures(w http.ResponseWriter, r *http.Request) {
	limit := config.DefaultCaptureLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	captures, err := h.captures.RecentCaptures(r.Context(), r.URL.Query().Get("session_id"), limit)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"captures": captures,
		"total":    len(captures),
	})
}

// GET /download/{captureID}/{mediaType}
func (h *CaptureHandler) Download(w http.ResponseWriter, r *http.Request) {
	captureID := chi.URLParam(r, "captureID")
	mediaType := chi.URLParam(r, "mediaType")

	path, err := h.captures.FindCaptureFile(r.Context(), captureID, mediaType)
	if err != nil {
		writeError(w, err)
		return
	}

	http.ServeFile(w, r, path)
}

// GET /
func (h *CaptureHandler) Root(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":    "AR Frame Capture Server",
		"version": "1.0.0",
		"endpoints": map[string]string{
			"upload":   "/upload",
			"status":   "/status",
			"session":  "/session/create",
			"captures": "/captures",
			"download": "/download/{capture_id}",
		},
	})
}

func formValueOr(r *http.Request, field, fallback string) string {
	if v := r.FormValue(field); v != "" {
		return v
	}
	return fallback
}

func formatRegistryEntry(entry registry.Entry) map[string]any {
	return map[string]any{
		"session_id":     entry.SessionID,
		"device_id":      entry.DeviceID,
		"created_at":     entry.Created.Format(time.RFC3339),
		"captures_count": len(entry.Captures),
	}
}
