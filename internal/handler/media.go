package handler

import (
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	apperrors "github.com/aiframe/capture-server-go/internal/errors"
	"github.com/aiframe/capture-server-go/internal/model"
	"github.com/aiframe/capture-server-go/internal/service"
)

// multipart parse threshold; larger parts spill to temp files
const multipartMemory = 32 << 20

type MediaHandler struct {
	media *service.MediaService
}

func NewMediaHandler(media *service.MediaService) *MediaHandler {
	return &MediaHandler{media: media}
}

// Routes builds one media surface (images, videos or audio); the three are
// structurally identical.
func (h *MediaHandler) Routes(kind model.MediaKind) chi.Router {
	r := chi.NewRouter()

	r.Post("/", h.upload(kind))
	r.Get("/", h.list(kind))
	r.Get("/{filename}", h.get(kind))

	return r
}

// POST /api/sessions/{sessionID}/{images|videos|audio}
func (h *MediaHandler) upload(kind model.MediaKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := chi.URLParam(r, "sessionID")

		if err := parseForm(r); err != nil {
			writeError(w, apperrors.ValidationError("Invalid form payload"))
			return
		}

		upload := service.MediaUpload{
			Base64:   base64Field(r, kind),
			Metadata: r.FormValue("metadata"),
		}

		if file, header, err := r.FormFile("file"); err == nil {
			data, err := io.ReadAll(file)
			file.Close()
			if err != nil {
				writeError(w, apperrors.Storage(err))
				return
			}
			upload.Data = data
			upload.Filename = filepath.Base(header.Filename)
		}

		result, err := h.media.Upload(r.Context(), sessionID, kind, upload)
		if err != nil {
			log.Error().Err(err).Str("sessionId", sessionID).Str("kind", string(kind)).Msg("upload failed")
			writeError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, result)
	}
}

// GET /api/sessions/{sessionID}/{images|videos|audio}
func (h *MediaHandler) list(kind model.MediaKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := chi.URLParam(r, "sessionID")

		records, err := h.media.List(r.Context(), sessionID, kind)
		if err != nil {
			writeError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, records)
	}
}

// GET /api/sessions/{sessionID}/{images|videos|audio}/{filename}
func (h *MediaHandler) get(kind model.MediaKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := chi.URLParam(r, "sessionID")
		filename := chi.URLParam(r, "filename")

		if !safeFilename(filename) {
			writeError(w, apperrors.NotFound(string(kind)))
			return
		}

		path, err := h.media.Path(r.Context(), sessionID, kind, filename)
		if err != nil {
			writeError(w, err)
			return
		}

		http.ServeFile(w, r, path)
	}
}

func parseForm(r *http.Request) error {
	contentType := r.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "multipart/form-data") {
		return r.ParseMultipartForm(multipartMemory)
	}
	return r.ParseForm()
}

func base64Field(r *http.Request, kind model.MediaKind) string {
	switch kind {
	case model.MediaImage:
		return r.FormValue("image_data")
	case model.MediaAudio:
		return r.FormValue("audio_data")
	default:
		return ""
	}
}

// safeFilename rejects anything that is not a bare file name.
func safeFilename(name string) bool {
	return name != "" && name != "." && name != ".." &&
		name == filepath.Base(name) && !strings.ContainsAny(name, `/\`)
}
