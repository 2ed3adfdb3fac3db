package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/aiframe/capture-server-go/internal/model"
	"github.com/aiframe/capture-server-go/internal/registry"
	"github.com/aiframe/capture-server-go/internal/repository"
)

// MediaPart is one uploaded media stream from the intake request.
type MediaPart struct {
	Filename string
	Data     io.Reader
}

// IntakeInput bundles the multipart fields of one capture upload.
type IntakeInput struct {
	Source      string
	Device      string
	Timestamp   string
	Text        string
	SessionID   string
	CaptureType string
	Metadata    string

	Video *MediaPart
	Audio *MediaPart
	Image *MediaPart
}

// IntakeResult is the upload response body.
type IntakeResult struct {
	Success   bool                    `json:"success"`
	CaptureID string                  `json:"capture_id"`
	Results   map[string]any          `json:"results"`
	Objects   []model.ProcessedObject `json:"objects"`
	SessionID string                  `json:"session_id"`
}

type CaptureService struct {
	repo      repository.CaptureRepository
	sessions  registry.Registry
	forwarder *ForwardService
}

func NewCaptureService(repo repository.CaptureRepository, sessions registry.Registry, forwarder *ForwardService) *CaptureService {
	return &CaptureService{
		repo:      repo,
		sessions:  sessions,
		forwarder: forwarder,
	}
}

// Intake stores every present part of a capture, writes the capture's
// metadata summary, registers it, and kicks off forwarding. Prior writes are
// not rolled back when a later part fails.
func (s *CaptureService) Intake(ctx context.Context, input IntakeInput) (*IntakeResult, error) {
	captureID := uuid.NewString()

	sessionID := input.SessionID
	if sessionID == "" {
		sessionID = fmt.Sprintf("%s_%s_%s",
			input.Source, time.Now().Format("20060102_150405"), uuid.NewString()[:8])
		if err := s.sessions.Put(ctx, sessionID, input.Device); err != nil {
			log.Error().Err(err).Str("sessionId", sessionID).Msg("failed to register session")
		}
	}

	log.Info().
		Str("captureId", captureID).
		Str("source", input.Source).
		Str("captureType", orGeneric(input.CaptureType)).
		Str("sessionId", sessionID).
		Msg("new upload")

	results := map[string]any{}
	resultOrder := []string{}
	var savedFiles []string

	type part struct {
		name   string
		prefix string
		media  *MediaPart
	}
	for _, p := range []part{
		{"video", "video", input.Video},
		{"audio", "audio", input.Audio},
		{"image", "screenshot", input.Image},
	} {
		if p.media == nil {
			continue
		}
		path, size, err := s.repo.SaveMedia(ctx, sessionID, p.prefix, p.media.Filename, p.media.Data)
		if err != nil {
			return nil, err
		}
		savedFiles = append(savedFiles, path)
		results[p.name] = processLocal(path, size, p.name)
		resultOrder = append(resultOrder, p.name)
	}

	if input.Text != "" {
		if _, err := s.repo.SaveText(ctx, sessionID, input.Text); err != nil {
			return nil, err
		}
		results["text"] = model.TextResult{Content: input.Text, Length: len(input.Text)}
		resultOrder = append(resultOrder, "text")
	}

	metadata := map[string]any{
		"id":           captureID,
		"source":       input.Source,
		"device":       input.Device,
		"session_id":   sessionID,
		"timestamp":    time.Now().Format(time.RFC3339),
		"capture_type": input.CaptureType,
	}
	// free-form metadata merges in; malformed JSON is dropped silently
	if input.Metadata != "" {
		var extra map[string]any
		if err := json.Unmarshal([]byte(input.Metadata), &extra); err == nil {
			for k, v := range extra {
				metadata[k] = v
			}
		}
	}

	if err := s.repo.WriteCaptureMetadata(ctx, sessionID, captureID, metadata); err != nil {
		return nil, err
	}

	if err := s.sessions.AddCapture(ctx, sessionID, captureID); err != nil {
		log.Error().Err(err).Str("captureId", captureID).Msg("failed to record capture")
	}

	if s.forwarder.Enabled() {
		// detached from the request lifetime
		s.forwarder.Forward(context.WithoutCancel(ctx), captureID, metadata, savedFiles)
	}

	objects := []model.ProcessedObject{}
	if len(resultOrder) > 0 {
		objects = append(objects, model.ProcessedObject{
			ID:       "response_" + captureID,
			Type:     "text",
			Content:  fmt.Sprintf("Capture %s received: %s", captureID[:8], strings.Join(resultOrder, ", ")),
			Position: map[string]float64{"x": 0, "y": 1.5, "z": -2},
			Metadata: map[string]any{},
		})
	}

	return &IntakeResult{
		Success:   true,
		CaptureID: captureID,
		Results:   results,
		Objects:   objects,
		SessionID: sessionID,
	}, nil
}

// processLocal is the local processing stub; it reports what a real media
// pipeline would consume.
func processLocal(path string, size int64, mediaType string) model.ProcessedResult {
	return model.ProcessedResult{
		Analysis: "Processed " + mediaType,
		Filepath: path,
		Size:     size,
		Type:     mediaType,
	}
}

func orGeneric(captureType string) string {
	if captureType == "" {
		return "generic"
	}
	return captureType
}
