package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"courier/internal/core/contracts"
	"courier/internal/core/domain"
)

type ProfileService struct {
	log  *slog.Logger
	repo domain.ProfileRepository
	feed contracts.ChangeFeed
}

func NewProfileService(log *slog.Logger, repo domain.ProfileRepository, feed contracts.ChangeFeed) *ProfileService {
	return &ProfileService{
		log:  log,
		repo: repo,
		feed: feed,
	}
}

// EnsureProfile returns the profile for the identity, creating it on first
// sign-in. The display name falls back to the email local-part when the
// identity carries none. Idempotent: a second call returns the stored record
// unchanged. Two concurrent first sign-ins may both create; the store upsert
// resolves that last-write-wins, there is no transactional guard.
func (s *ProfileService) EnsureProfile(ctx context.Context, identity *domain.Identity) (*domain.Profile, error) {
	if identity == nil || identity.ID == "" {
		return nil, domain.ErrIdentityNotFound
	}
	existing, err := s.repo.GetProfileByID(ctx, identity.ID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, domain.ErrProfileNotFound) {
		s.log.ErrorContext(ctx, "profile - ensure profile - read failed", "identity_id", identity.ID, "err", err)
		return nil, fmt.Errorf("read profile: %w", err)
	}
	name := identity.DisplayName
	if name == "" {
		name, _, _ = strings.Cut(identity.Email, "@")
	}
	created, err := s.repo.CreateProfile(ctx, &domain.Profile{
		ID:          identity.ID,
		DisplayName: name,
		Email:       identity.Email,
		AvatarRef:   identity.AvatarRef,
		Online:      true,
		LastSeen:    time.Now(),
	})
	if err != nil {
		s.log.ErrorContext(ctx, "profile - ensure profile - create failed", "identity_id", identity.ID, "err", err)
		return nil, fmt.Errorf("create profile: %w", err)
	}
	s.log.InfoContext(ctx, "profile - ensure profile - created", "identity_id", identity.ID, "display_name", name)
	s.publish(ctx)
	return created, nil
}

func (s *ProfileService) GetProfile(ctx context.Context, id string) (*domain.Profile, error) {
	return s.repo.GetProfileByID(ctx, id)
}

func (s *ProfileService) UpdateAvatar(ctx context.Context, id, avatarRef string) error {
	if err := s.repo.UpdateAvatar(ctx, id, avatarRef); err != nil {
		s.log.ErrorContext(ctx, "profile - update avatar failed", "identity_id", id, "err", err)
		return err
	}
	s.publish(ctx)
	return nil
}

func (s *ProfileService) SetPresence(ctx context.Context, id string, online bool) error {
	if err := s.repo.SetPresence(ctx, id, online); err != nil {
		s.log.ErrorContext(ctx, "profile - set presence failed", "identity_id", id, "online", online, "err", err)
		return err
	}
	s.publish(ctx)
	return nil
}

// publish failures only delay live snapshots; the durable write already
// succeeded, so they are logged rather than returned.
func (s *ProfileService) publish(ctx context.Context) {
	if err := s.feed.Publish(ctx, contracts.TopicProfiles); err != nil {
		s.log.ErrorContext(ctx, "profile - feed publish failed", "topic", contracts.TopicProfiles, "err", err)
	}
}
