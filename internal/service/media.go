package service

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	apperrors "github.com/aiframe/capture-server-go/internal/errors"
	"github.com/aiframe/capture-server-go/internal/model"
	"github.com/aiframe/capture-server-go/internal/repository"
)

const filenameTimestamp = "20060102_150405"

// MediaUpload carries one upload request: either a file part or a base64
// form field, plus the raw metadata form value.
type MediaUpload struct {
	Filename string
	Data     []byte
	Base64   string
	Metadata string
}

// MediaUploadResult echoes the stored filename and parsed metadata.
type MediaUploadResult struct {
	Filename string         `json:"filename"`
	Path     string         `json:"path"`
	Metadata map[string]any `json:"metadata"`
}

type MediaService struct {
	repo repository.MediaRepository
}

func NewMediaService(repo repository.MediaRepository) *MediaService {
	return &MediaService{repo: repo}
}

func (s *MediaService) Upload(ctx context.Context, sessionID string, kind model.MediaKind, upload MediaUpload) (*MediaUploadResult, error) {
	timestamp := time.Now().Format(filenameTimestamp)

	var filename string
	var data []byte

	switch {
	case upload.Data != nil:
		filename = timestamp + "_" + upload.Filename
		data = upload.Data
	case upload.Base64 != "" && kind.Base64Fallback() != "":
		decoded, err := decodeBase64Payload(upload.Base64)
		if err != nil {
			return nil, apperrors.Internal(err.Error())
		}
		filename = timestamp + "_" + kind.Base64Fallback()
		data = decoded
	default:
		return nil, apperrors.MissingRequired(payloadField(kind))
	}

	metadata := parseMetadata(upload.Metadata)

	sidecar, err := s.repo.Save(ctx, sessionID, kind, filename, data, metadata)
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("sessionId", sessionID).
		Str("kind", string(kind)).
		Str("filename", filename).
		Int("size", len(data)).
		Msg("media stored")

	return &MediaUploadResult{
		Filename: sidecar.Filename,
		Path:     sessionID + "/" + kind.Dir() + "/" + filename,
		Metadata: metadata,
	}, nil
}

func (s *MediaService) List(ctx context.Context, sessionID string, kind model.MediaKind) ([]map[string]any, error) {
	return s.repo.List(ctx, sessionID, kind)
}

func (s *MediaService) Path(ctx context.Context, sessionID string, kind model.MediaKind, filename string) (string, error) {
	return s.repo.Path(ctx, sessionID, kind, filename)
}

// decodeBase64Payload strips an optional data-URL header up to and including
// the first comma before decoding.
func decodeBase64Payload(payload string) ([]byte, error) {
	if idx := strings.Index(payload, ","); idx >= 0 {
		payload = payload[idx+1:]
	}
	return base64.StdEncoding.DecodeString(payload)
}

// parseMetadata tolerates malformed metadata form values, reading them as
// an empty mapping.
func parseMetadata(raw string) map[string]any {
	metadata := map[string]any{}
	if raw == "" {
		return metadata
	}
	if err := json.Unmarshal([]byte(raw), &metadata); err != nil {
		return map[string]any{}
	}
	return metadata
}

func payloadField(kind model.MediaKind) string {
	switch kind {
	case model.MediaImage:
		return "image data"
	case model.MediaVideo:
		return "video file"
	default:
		return "audio data"
	}
}
