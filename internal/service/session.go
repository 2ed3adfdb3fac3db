package service

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/aiframe/capture-server-go/internal/model"
	"github.com/aiframe/capture-server-go/internal/repository"
)

type SessionService struct {
	repo repository.SessionRepository
}

func NewSessionService(repo repository.SessionRepository) *SessionService {
	return &SessionService{repo: repo}
}

func (s *SessionService) Create(ctx context.Context, name *string) (*model.Session, error) {
	session, err := s.repo.Create(ctx, name)
	if err != nil {
		return nil, err
	}

	log.Info().Str("sessionId", session.ID).Msg("session created")
	return session, nil
}

func (s *SessionService) Get(ctx context.Context, id string) (*model.Session, error) {
	return s.repo.Load(ctx, id)
}

func (s *SessionService) List(ctx context.Context) ([]model.SessionListing, error) {
	return s.repo.List(ctx)
}

func (s *SessionService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	log.Info().Str("sessionId", id).Msg("session deleted")
	return nil
}

func (s *SessionService) Count(ctx context.Context) (int, error) {
	return s.repo.Count(ctx)
}
