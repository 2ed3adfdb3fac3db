package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/aiframe/capture-server-go/internal/config"
)

// ForwardService pushes completed capture bundles to configured downstream
// endpoints. Each target is attempted independently; a failure is logged and
// never aborts the originating request or the remaining targets.
type ForwardService struct {
	targets []string
	client  *http.Client
}

func NewForwardService(targets []string) *ForwardService {
	return &ForwardService{
		targets: targets,
		client: &http.Client{
			Timeout: config.ForwardTimeout,
		},
	}
}

// Enabled reports whether any forward targets are configured.
func (s *ForwardService) Enabled() bool {
	return len(s.targets) > 0
}

// Forward posts the capture metadata plus stored files to every target.
// Callers run it in a goroutine; the request that produced the capture has
// already been answered.
func (s *ForwardService) Forward(ctx context.Context, captureID string, metadata map[string]any, files []string) {
	for _, target := range s.targets {
		go s.forwardOne(ctx, target, captureID, metadata, files)
	}
}

func (s *ForwardService) forwardOne(ctx context.Context, target, captureID string, metadata map[string]any, files []string) {
	start := time.Now()

	body, contentType, err := buildBundle(captureID, metadata, files)
	if err != nil {
		log.Error().Err(err).Str("target", target).Msg("failed to build forward bundle")
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, body)
	if err != nil {
		log.Error().Err(err).Str("target", target).Msg("failed to build forward request")
		return
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := s.client.Do(req)
	elapsed := time.Since(start)
	if err != nil {
		log.Error().
			Err(err).
			Str("target", target).
			Str("captureId", captureID).
			Dur("elapsed", elapsed).
			Msg("forward failed")
		return
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	log.Info().
		Str("target", target).
		Str("captureId", captureID).
		Int("status", resp.StatusCode).
		Dur("elapsed", elapsed).
		Msg("forwarded capture")
}

func buildBundle(captureID string, metadata map[string]any, files []string) (io.Reader, string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	if err := writer.WriteField("capture_id", captureID); err != nil {
		return nil, "", err
	}
	encoded, err := json.Marshal(metadata)
	if err != nil {
		return nil, "", fmt.Errorf("marshal metadata: %w", err)
	}
	if err := writer.WriteField("metadata", string(encoded)); err != nil {
		return nil, "", err
	}

	for _, path := range files {
		part, err := writer.CreateFormFile("files", filepath.Base(path))
		if err != nil {
			return nil, "", err
		}
		f, err := os.Open(path)
		if err != nil {
			return nil, "", fmt.Errorf("open %s: %w", path, err)
		}
		_, err = io.Copy(part, f)
		f.Close()
		if err != nil {
			return nil, "", err
		}
	}

	if err := writer.Close(); err != nil {
		return nil, "", err
	}
	return &buf, writer.FormDataContentType(), nil
}
