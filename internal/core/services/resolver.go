package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"courier/internal/core/contracts"
	"courier/internal/core/domain"
	"courier/internal/platform/metrics"
)

var tracer = otel.Tracer("chat-core")

// SessionResolver finds or creates the canonical session for an unordered
// participant pair.
type SessionResolver struct {
	log      *slog.Logger
	sessions domain.SessionRepository
	feed     contracts.ChangeFeed
}

func NewSessionResolver(log *slog.Logger, sessions domain.SessionRepository, feed contracts.ChangeFeed) *SessionResolver {
	return &SessionResolver{
		log:      log,
		sessions: sessions,
		feed:     feed,
	}
}

// ResolveOrCreate returns the existing session for {current, other} or
// creates one. The store only indexes single-participant containment, so the
// lookup queries current's sessions and scans for other client-side. Two
// peers resolving the same pair concurrently can both reach the create step
// and leave a duplicate pair behind; that race is a known, documented gap of
// this design, not something the resolver guards against. On read the first
// match wins.
func (r *SessionResolver) ResolveOrCreate(ctx context.Context, current *domain.Identity, other *domain.Profile) (*domain.Session, error) {
	ctx, span := tracer.Start(ctx, "SessionResolver.ResolveOrCreate", trace.WithAttributes(
		attribute.String("identity_id", current.ID),
		attribute.String("other_id", other.ID),
	))
	defer span.End()

	if current.ID == "" || other.ID == "" || current.ID == other.ID {
		err := domain.ErrInvalidParticipant
		span.RecordError(err)
		return nil, err
	}

	existing, err := r.sessions.ListByParticipant(ctx, current.ID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "containment query failed")
		r.log.ErrorContext(ctx, "resolver - list by participant failed", "identity_id", current.ID, "err", err)
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	for i := range existing {
		if existing[i].HasParticipant(other.ID) {
			span.SetAttributes(attribute.String("session_id", existing[i].ID))
			metrics.SessionsResolved.WithLabelValues("existing").Inc()
			return &existing[i], nil
		}
	}

	currentName := current.DisplayName
	if currentName == "" {
		currentName = current.Email
	}
	created, err := r.sessions.CreateSession(ctx, &domain.Session{
		ID:           uuid.NewString(),
		Participants: [2]string{current.ID, other.ID},
		ParticipantDetails: [2]domain.ParticipantDetail{
			{ID: current.ID, DisplayName: currentName, AvatarRef: current.AvatarRef},
			{ID: other.ID, DisplayName: other.DisplayName, AvatarRef: other.AvatarRef},
		},
		LastMessage: "",
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "create session failed")
		r.log.ErrorContext(ctx, "resolver - create session failed", "identity_id", current.ID, "other_id", other.ID, "err", err)
		return nil, fmt.Errorf("create session: %w", err)
	}
	span.SetAttributes(attribute.String("session_id", created.ID))
	metrics.SessionsResolved.WithLabelValues("created").Inc()
	r.log.InfoContext(ctx, "resolver - session created", "session_id", created.ID, "identity_id", current.ID, "other_id", other.ID)
	if err := r.feed.Publish(ctx, contracts.TopicSessions); err != nil {
		r.log.ErrorContext(ctx, "resolver - feed publish failed", "session_id", created.ID, "err", err)
	}
	return created, nil
}
