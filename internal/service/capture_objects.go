package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	apperrors "github.com/aiframe/capture-server-go/internal/errors"
	"github.com/aiframe/capture-server-go/internal/model"
)

func (s *CaptureService) PlacedObjects(ctx context.Context, sessionID string) ([]model.PlacedObject, error) {
	return s.repo.LoadPlacedObjects(ctx, sessionID)
}

// SavePlaced appends one object to the session's flat objects.json array,
// filling defaults for any omitted fields.
func (s *CaptureService) SavePlaced(ctx context.Context, sessionID string, obj model.PlacedObject) (model.PlacedObject, int, error) {
	if obj.ID == "" {
		obj.ID = uuid.NewString()
	}
	if obj.Type == "" {
		obj.Type = "cube"
	}
	if obj.Position == nil {
		obj.Position = []float64{0, 0, 0}
	}
	if obj.Metadata == nil {
		obj.Metadata = map[string]any{}
	}
	obj.Timestamp = time.Now()
	obj.SessionID = sessionID

	total, err := s.repo.AppendPlacedObject(ctx, sessionID, obj)
	if err != nil {
		return obj, 0, err
	}

	log.Info().Str("sessionId", sessionID).Str("objectId", obj.ID).Msg("placed object saved")
	return obj, total, nil
}

// SavePlacement handles the form-encoded placement variant, where position,
// rotation and metadata arrive as JSON strings.
func (s *CaptureService) SavePlacement(ctx context.Context, sessionID, objectType, position, rotation, metadata string) (model.PlacedObject, int, error) {
	var pos any
	if err := json.Unmarshal([]byte(position), &pos); err != nil {
		return model.PlacedObject{}, 0, apperrors.Internal(err.Error())
	}

	var rot any
	if rotation != "" {
		if err := json.Unmarshal([]byte(rotation), &rot); err != nil {
			return model.PlacedObject{}, 0, apperrors.Internal(err.Error())
		}
	}

	meta := map[string]any{}
	if metadata != "" {
		if err := json.Unmarshal([]byte(metadata), &meta); err != nil {
			return model.PlacedObject{}, 0, apperrors.Internal(err.Error())
		}
	}

	return s.SavePlaced(ctx, sessionID, model.PlacedObject{
		Type:     objectType,
		Position: pos,
		Rotation: rot,
		Metadata: meta,
	})
}

func (s *CaptureService) ClearPlaced(ctx context.Context, sessionID string) error {
	if err := s.repo.ClearPlacedObjects(ctx, sessionID); err != nil {
		return err
	}

	log.Info().Str("sessionId", sessionID).Msg("placed objects cleared")
	return nil
}

// TextObjects recovers placements embedded in legacy text captures.
func (s *CaptureService) TextObjects(ctx context.Context, sessionID string) ([]map[string]any, error) {
	return s.repo.ScanTextObjects(ctx, sessionID)
}
