package service

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	apperrors "github.com/aiframe/capture-server-go/internal/errors"
	"github.com/aiframe/capture-server-go/internal/registry"
	"github.com/aiframe/capture-server-go/internal/repository"
)

// SessionDetails is the registry view of a session plus its on-disk files.
type SessionDetails struct {
	SessionID  string                   `json:"session_id"`
	DeviceID   string                   `json:"device_id"`
	CreatedAt  string                   `json:"created_at"`
	MediaFiles []repository.SessionFile `json:"media_files"`
}

func (s *CaptureService) CreateSession(ctx context.Context, deviceID string) (string, error) {
	sessionID, err := s.sessions.Create(ctx, deviceID)
	if err != nil {
		return "", err
	}

	log.Info().Str("sessionId", sessionID).Str("deviceId", deviceID).Msg("capture session created")
	return sessionID, nil
}

func (s *CaptureService) ListSessions(ctx context.Context) ([]registry.Entry, error) {
	return s.sessions.List(ctx)
}

func (s *CaptureService) SessionDetails(ctx context.Context, sessionID string) (*SessionDetails, error) {
	entry, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, apperrors.NotFound("Session")
	}

	files, err := s.repo.ListFiles(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	return &SessionDetails{
		SessionID:  entry.SessionID,
		DeviceID:   entry.DeviceID,
		CreatedAt:  entry.Created.Format(time.RFC3339),
		MediaFiles: files,
	}, nil
}

// DeleteSession drops the registry entry and the session directory. Unknown
// ids still report deleted; delete is idempotent on this surface.
func (s *CaptureService) DeleteSession(ctx context.Context, sessionID string) error {
	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		return err
	}
	if err := s.repo.DeleteSession(ctx, sessionID); err != nil {
		return err
	}

	log.Info().Str("sessionId", sessionID).Msg("capture session deleted")
	return nil
}

// RecentCaptures returns the tail of the global capture log, narrowed to the
// session's captures when the session is known.
func (s *CaptureService) RecentCaptures(ctx context.Context, sessionID string, limit int) ([]registry.Capture, error) {
	captures, err := s.sessions.RecentCaptures(ctx, limit)
	if err != nil {
		return nil, err
	}

	if sessionID == "" {
		return captures, nil
	}
	entry, err := s.sessions.Get(ctx, sessionID)
	if err != nil || entry == nil {
		return captures, err
	}

	owned := make(map[string]bool, len(entry.Captures))
	for _, id := range entry.Captures {
		owned[id] = true
	}
	filtered := make([]registry.Capture, 0, len(captures))
	for _, capture := range captures {
		if owned[capture.ID] {
			filtered = append(filtered, capture)
		}
	}
	return filtered, nil
}

func (s *CaptureService) MediaPath(ctx context.Context, sessionID, filename string) (string, error) {
	return s.repo.MediaPath(ctx, sessionID, filename)
}

func (s *CaptureService) FindCaptureFile(ctx context.Context, captureID, mediaType string) (string, error) {
	return s.repo.FindCaptureFile(ctx, captureID, mediaType)
}

func (s *CaptureService) SessionCount(ctx context.Context) (int, error) {
	return s.sessions.SessionCount(ctx)
}

func (s *CaptureService) CaptureCount(ctx context.Context) (int, error) {
	return s.sessions.CaptureCount(ctx)
}

func (s *CaptureService) StorageStats(ctx context.Context) (repository.StorageStats, error) {
	return s.repo.Stats(ctx)
}
