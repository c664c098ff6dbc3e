package services

import (
	"context"
	"fmt"
	"time"

	"github.com/gaonpathshala/exam-portal/internal/events"
	"github.com/gaonpathshala/exam-portal/internal/models"
	"github.com/gaonpathshala/exam-portal/internal/repositories"
)

type sessionService struct {
	repo   repositories.Repository
	log    *ServiceLogger
	events emitter
	now    func() time.Time
}

func NewSessionService(deps Dependencies) SessionService {
	log := NewServiceLogger(deps.Logger, "session")
	return &sessionService{
		repo:   deps.Repo,
		log:    log,
		events: emitter{publisher: deps.Publisher, logger: log.Logger()},
		now:    time.Now,
	}
}

func (s *sessionService) Resolve(ctx context.Context, id string) (*models.Session, error) {
	session, err := s.repo.Session().GetByID(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	if session.IsExpired(s.now()) {
		if err := s.repo.Session().Delete(ctx, nil, id); err != nil && !repositories.IsNotFoundError(err) {
			s.log.Logger().WarnContext(ctx, "Failed to delete expired session", "session_id", id, "error", err)
		}
		return nil, nil
	}
	return session, nil
}

// List returns live sessions, newest first.
func (s *sessionService) List(ctx context.Context) ([]*models.Session, error) {
	if _, err := s.PurgeExpired(ctx); err != nil {
		s.log.Logger().WarnContext(ctx, "Failed to purge expired sessions", "error", err)
	}
	sessions, err := s.repo.Session().List(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	if sessions == nil {
		sessions = []*models.Session{}
	}
	return sessions, nil
}

func (s *sessionService) Terminate(ctx context.Context, id string) (err error) {
	defer func(start time.Time) { s.log.LogOperation(ctx, "terminate_session", id, start, err) }(time.Now())

	session, err := s.repo.Session().GetByID(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrSessionNotFound
		}
		return fmt.Errorf("failed to get session: %w", err)
	}
	if err = s.repo.Session().Delete(ctx, nil, id); err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrSessionNotFound
		}
		return fmt.Errorf("failed to delete session: %w", err)
	}
	s.events.emit(ctx, events.NewSessionTerminatedEvent(id, string(session.Role())))
	return nil
}

func (s *sessionService) PurgeExpired(ctx context.Context) (int64, error) {
	return s.repo.Session().DeleteExpired(ctx, nil, s.now())
}
