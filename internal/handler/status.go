package handler

import (
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/aiframe/capture-server-go/internal/config"
	"github.com/aiframe/capture-server-go/internal/service"
)

type StatusHandler struct {
	captures *service.CaptureService
	cfg      *config.Config
}

func NewStatusHandler(captures *service.CaptureService, cfg *config.Config) *StatusHandler {
	return &StatusHandler{captures: captures, cfg: cfg}
}

// GET /status
func (h *StatusHandler) Status(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	sessions, err := h.captures.SessionCount(ctx)
	if err != nil {
		writeError(w, err)
		return
	}
	captures, err := h.captures.CaptureCount(ctx)
	if err != nil {
		writeError(w, err)
		return
	}
	stats, err := h.captures.StorageStats(ctx)
	if err != nil {
		log.Error().Err(err).Msg("failed to collect storage stats")
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":          "operational",
		"sessions":        sessions,
		"captures":        captures,
		"files_stored":    stats.Files,
		"storage_used_mb": float64(stats.Bytes) / (1 << 20),
		"config": map[string]any{
			"forward_apis":  h.cfg.ForwardAPIs,
			"ai_processing": h.cfg.EnableAI,
			"storage_days":  h.cfg.StorageDays,
		},
	})
}
