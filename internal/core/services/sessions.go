package services

import (
	"context"
	"log/slog"

	"courier/internal/core/contracts"
	"courier/internal/core/domain"
)

// SessionListService maintains the live conversation list for one identity,
// ordered by most recent message.
type SessionListService struct {
	log  *slog.Logger
	repo domain.SessionRepository
	feed contracts.ChangeFeed
}

func NewSessionListService(log *slog.Logger, repo domain.SessionRepository, feed contracts.ChangeFeed) *SessionListService {
	return &SessionListService{
		log:  log,
		repo: repo,
		feed: feed,
	}
}

func (s *SessionListService) Subscribe(
	ctx context.Context,
	participantID string,
	onUpdate func([]domain.Session),
	onError func(error),
) (func(), error) {
	return subscribeSnapshots(ctx, s.feed, contracts.TopicSessions, func(emitCtx context.Context) {
		sessions, err := s.repo.ListByParticipant(emitCtx, participantID)
		if err != nil {
			if emitCtx.Err() != nil {
				return
			}
			s.log.ErrorContext(emitCtx, "sessions - list by participant failed", "identity_id", participantID, "err", err)
			if onError != nil {
				onError(err)
			}
			return
		}
		onUpdate(sessions)
	})
}
