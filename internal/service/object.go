package service

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/aiframe/capture-server-go/internal/model"
	"github.com/aiframe/capture-server-go/internal/repository"
)

type ObjectService struct {
	repo repository.ObjectRepository
}

func NewObjectService(repo repository.ObjectRepository) *ObjectService {
	return &ObjectService{repo: repo}
}

func (s *ObjectService) Add(ctx context.Context, sessionID string, obj *model.ARObject) (*model.ARObject, error) {
	stored, err := s.repo.Add(ctx, sessionID, obj)
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("sessionId", sessionID).
		Str("objectId", stored.ID).
		Str("type", stored.Type).
		Msg("object added")
	return stored, nil
}

func (s *ObjectService) List(ctx context.Context, sessionID string) ([]model.ARObject, error) {
	return s.repo.ListBySession(ctx, sessionID)
}

func (s *ObjectService) Get(ctx context.Context, sessionID, objectID string) (*model.ARObject, error) {
	return s.repo.Get(ctx, sessionID, objectID)
}

func (s *ObjectService) Update(ctx context.Context, sessionID, objectID string, obj *model.ARObject) (*model.ARObject, error) {
	return s.repo.Update(ctx, sessionID, objectID, obj)
}

func (s *ObjectService) Delete(ctx context.Context, sessionID, objectID string) error {
	return s.repo.Delete(ctx, sessionID, objectID)
}
