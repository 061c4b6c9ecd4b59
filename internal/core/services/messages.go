package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"courier/internal/core/contracts"
	"courier/internal/core/domain"
	"courier/internal/platform/metrics"
)

// ImagePlaceholder is the session-summary label for image-only messages.
const ImagePlaceholder = "📷 Photo"

type MessageService struct {
	log      *slog.Logger
	messages domain.MessageRepository
	sessions domain.SessionRepository
	feed     contracts.ChangeFeed
}

func NewMessageService(
	log *slog.Logger,
	messages domain.MessageRepository,
	sessions domain.SessionRepository,
	feed contracts.ChangeFeed,
) *MessageService {
	return &MessageService{
		log:      log,
		messages: messages,
		sessions: sessions,
		feed:     feed,
	}
}

// SendMessage appends a message with a store-assigned ordering timestamp and
// then updates the owning session's summary to the same instant. A blank
// message (no text after trimming, no image) is a silent no-op. The two
// writes are deliberately sequential and non-atomic: a failure after the
// append leaves the summary behind the message list, and the message list
// stays the source of truth. The messages topic is published as soon as the
// append lands so live subscribers see every durable message even when the
// summary write fails; the sessions topic stays tied to the summary.
func (s *MessageService) SendMessage(ctx context.Context, sessionID, senderID, senderName, text, imageRef string) error {
	text = strings.TrimSpace(text)
	if text == "" && imageRef == "" {
		return nil
	}
	if sessionID == "" {
		return domain.ErrInvalidSessionID
	}
	ctx, span := tracer.Start(ctx, "MessageService.SendMessage", trace.WithAttributes(
		attribute.String("session_id", sessionID),
		attribute.String("sender_id", senderID),
	))
	defer span.End()

	session, err := s.sessions.GetSessionByID(ctx, sessionID)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("load session: %w", err)
	}
	if !session.HasParticipant(senderID) {
		return domain.ErrInvalidParticipant
	}

	msg := &domain.Message{
		ID:         uuid.NewString(),
		SessionID:  sessionID,
		SenderID:   senderID,
		SenderName: senderName,
		Text:       text,
		ImageRef:   imageRef,
	}
	sentAt, err := s.messages.AppendMessage(ctx, msg)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "append failed")
		s.log.ErrorContext(ctx, "messages - send - append failed", "session_id", sessionID, "sender_id", senderID, "err", err)
		return fmt.Errorf("append message: %w", err)
	}
	msg.SentAt = sentAt

	kind := "text"
	summary := text
	if imageRef != "" && text == "" {
		kind = "image"
		summary = ImagePlaceholder
	}
	// The message is durable from here on; invalidate subscribers before the
	// summary write so they converge even if it fails.
	metrics.MessagesSent.WithLabelValues(kind).Inc()
	s.publish(ctx, contracts.TopicMessages(sessionID))

	if err := s.sessions.UpdateSummary(ctx, sessionID, summary, sentAt); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "summary update failed")
		s.log.ErrorContext(ctx, "messages - send - summary update failed", "session_id", sessionID, "message_id", msg.ID, "err", err)
		return fmt.Errorf("update session summary: %w", err)
	}
	s.log.InfoContext(ctx, "messages - send - delivered", "session_id", sessionID, "message_id", msg.ID, "kind", kind)
	s.publish(ctx, contracts.TopicSessions)
	return nil
}

// SubscribeMessages streams full-replacement message lists for one session
// in ascending ordering-timestamp order, regardless of the order sends were
// issued, until the returned cancel func runs. Only the session's two
// participants may subscribe.
func (s *MessageService) SubscribeMessages(
	ctx context.Context,
	sessionID, subscriberID string,
	onUpdate func([]domain.Message),
	onError func(error),
) (func(), error) {
	if sessionID == "" {
		return nil, domain.ErrInvalidSessionID
	}
	session, err := s.sessions.GetSessionByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if !session.HasParticipant(subscriberID) {
		return nil, domain.ErrInvalidParticipant
	}
	return subscribeSnapshots(ctx, s.feed, contracts.TopicMessages(sessionID), func(emitCtx context.Context) {
		msgs, err := s.messages.ListBySession(emitCtx, sessionID)
		if err != nil {
			if emitCtx.Err() != nil {
				return
			}
			s.log.ErrorContext(emitCtx, "messages - list by session failed", "session_id", sessionID, "err", err)
			if onError != nil {
				onError(err)
			}
			return
		}
		onUpdate(msgs)
	})
}

func (s *MessageService) publish(ctx context.Context, topic string) {
	if err := s.feed.Publish(ctx, topic); err != nil {
		s.log.ErrorContext(ctx, "messages - feed publish failed", "topic", topic, "err", err)
	}
}
