package services

import (
	"context"
	"log/slog"

	"courier/internal/core/contracts"
	"courier/internal/core/domain"
)

type DirectoryService struct {
	log  *slog.Logger
	repo domain.ProfileRepository
	feed contracts.ChangeFeed
}

func NewDirectoryService(log *slog.Logger, repo domain.ProfileRepository, feed contracts.ChangeFeed) *DirectoryService {
	return &DirectoryService{
		log:  log,
		repo: repo,
		feed: feed,
	}
}

// Subscribe streams full-replacement snapshots of every profile except the
// subscriber's own, until the returned cancel func runs. Query failures go
// to onError (when non-nil) and leave the subscription alive; the caller may
// cancel and resubscribe.
func (s *DirectoryService) Subscribe(
	ctx context.Context,
	currentID string,
	onUpdate func([]domain.Profile),
	onError func(error),
) (func(), error) {
	return subscribeSnapshots(ctx, s.feed, contracts.TopicProfiles, func(emitCtx context.Context) {
		all, err := s.repo.ListProfiles(emitCtx)
		if err != nil {
			if emitCtx.Err() != nil {
				return
			}
			s.log.ErrorContext(emitCtx, "directory - list profiles failed", "identity_id", currentID, "err", err)
			if onError != nil {
				onError(err)
			}
			return
		}
		out := make([]domain.Profile, 0, len(all))
		for _, p := range all {
			if p.ID != currentID {
				out = append(out, p)
			}
		}
		onUpdate(out)
	})
}
