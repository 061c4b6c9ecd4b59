package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"courier/internal/app/registry"
	"courier/internal/app/server/ws"
	"courier/internal/core/contracts"
	"courier/internal/core/domain"
	"courier/internal/core/services"
	"courier/internal/platform/logger"
	"courier/internal/platform/metrics"
	"courier/pkg/middleware"
	"courier/pkg/timeutil"
)

type WSHandler struct {
	hub       *registry.Registry
	auth      contracts.AuthProvider
	presence  contracts.PresenceStore
	profiles  *services.ProfileService
	directory *services.DirectoryService
	sessions  *services.SessionListService
	resolver  *services.SessionResolver
	messages  *services.MessageService
	heartbeat time.Duration
}

func NewWSHandler(
	hub *registry.Registry,
	auth contracts.AuthProvider,
	presence contracts.PresenceStore,
	profiles *services.ProfileService,
	directory *services.DirectoryService,
	sessions *services.SessionListService,
	resolver *services.SessionResolver,
	messages *services.MessageService,
	heartbeat time.Duration,
) *WSHandler {
	return &WSHandler{
		hub:       hub,
		auth:      auth,
		presence:  presence,
		profiles:  profiles,
		directory: directory,
		sessions:  sessions,
		resolver:  resolver,
		messages:  messages,
		heartbeat: heartbeat,
	}
}

func (s *WSHandler) Handler(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())
	span := trace.SpanFromContext(r.Context())
	ident, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		log.ErrorContext(r.Context(), "ws handler - unauthorised missing identity")
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	span.SetAttributes(attribute.String("identity.id", ident.ID))

	// The connection outlives the HTTP request that carried the upgrade.
	connCtx := context.WithoutCancel(r.Context())
	ctx, cancel := context.WithCancel(connCtx)
	defer cancel()

	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			// Native clients send no Origin header; browser clients must
			// come from the serving host.
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true
			}
			u, err := url.Parse(origin)
			return err == nil && u.Host == r.Host
		},
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.ErrorContext(r.Context(), "ws handler - upgrade failed", "err", err)
		return
	}
	conn.SetCloseHandler(func(code int, text string) error {
		cancel()
		return nil
	})
	socket := ws.NewWebSocket(ctx, log, conn)
	client := ws.NewClient(ctx, socket, ident.ID)
	defer client.Close()

	// The identity context follows the auth provider for the lifetime of
	// the connection: it resolves the profile on sign-in and clears it when
	// the account signs out elsewhere.
	idCtx := services.NewIdentityContext(log, s.auth, s.profiles)
	if err := idCtx.Start(ctx, ident.ID); err != nil {
		log.ErrorContext(r.Context(), "ws handler - identity context failed", "identity_id", ident.ID, "err", err)
		return
	}
	defer idCtx.Stop()

	s.hub.Register(client)
	defer s.hub.Unregister(client)

	metrics.LiveConnections.Inc()
	defer metrics.LiveConnections.Dec()

	if err := s.profiles.SetPresence(ctx, ident.ID, true); err != nil {
		log.ErrorContext(ctx, "ws handler - presence online failed", "identity_id", ident.ID, "err", err)
	}
	go s.heartbeatLoop(ctx, ident.ID)
	defer func() {
		// Use the parent so disconnect cleanup survives ctx cancellation.
		cleanupCtx, cleanupCancel := context.WithTimeout(connCtx, 5*time.Second)
		defer cleanupCancel()
		if err := s.presence.Drop(cleanupCtx, ident.ID); err != nil {
			log.Error("ws handler - presence drop failed", "identity_id", ident.ID, "err", err)
		}
		if err := s.profiles.SetPresence(cleanupCtx, ident.ID, false); err != nil {
			log.Error("ws handler - presence offline failed", "identity_id", ident.ID, "err", err)
		}
	}()

	log.InfoContext(r.Context(), "ws handler - connection established", "identity_id", ident.ID)

	socket.ReadLoop(func(data []byte) {
		var frame domain.ClientFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			s.sendError(ctx, client, "bad_frame", "malformed frame")
			return
		}
		s.handleFrame(ctx, client, idCtx, ident, frame)
	})
}

func (s *WSHandler) heartbeatLoop(ctx context.Context, identityID string) {
	ticker := time.NewTicker(s.heartbeat)
	defer ticker.Stop()
	_ = s.presence.Heartbeat(ctx, identityID)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = s.presence.Heartbeat(ctx, identityID)
		}
	}
}

func (s *WSHandler) handleFrame(
	ctx context.Context,
	client contracts.Client,
	idCtx *services.IdentityContext,
	ident *domain.Identity,
	frame domain.ClientFrame,
) {
	log := logger.FromContext(ctx)
	switch frame.Type {
	case domain.TypeSubscribe:
		s.subscribe(ctx, client, ident, frame)
	case domain.TypeUnsubscribe:
		s.hub.DropSubscription(client, streamKey(frame))
	case domain.TypeOpenChat:
		s.openChat(ctx, client, idCtx, ident, frame)
	case domain.TypeSend:
		s.send(ctx, client, idCtx, ident, frame)
	default:
		log.ErrorContext(ctx, "ws handler - unknown frame type", "type", frame.Type)
		s.sendError(ctx, client, "bad_frame", "unknown frame type")
	}
}

func streamKey(frame domain.ClientFrame) string {
	if frame.Stream == domain.StreamMessages {
		return domain.StreamMessages + ":" + frame.SessionID
	}
	return frame.Stream
}

func (s *WSHandler) subscribe(ctx context.Context, client contracts.Client, ident *domain.Identity, frame domain.ClientFrame) {
	onError := func(err error) {
		s.sendError(ctx, client, "stream_failed", "snapshot query failed")
	}
	var (
		cancel func()
		err    error
	)
	switch frame.Stream {
	case domain.StreamDirectory:
		cancel, err = s.directory.Subscribe(ctx, ident.ID, func(profiles []domain.Profile) {
			s.sendSnapshot(ctx, client, domain.Snapshot{
				Type:     domain.TypeSnapshot,
				Stream:   domain.StreamDirectory,
				Profiles: profiles,
			})
		}, onError)
	case domain.StreamSessions:
		cancel, err = s.sessions.Subscribe(ctx, ident.ID, func(sessions []domain.Session) {
			for i := range sessions {
				sessions[i].TimeLabel = timeutil.FormatTime(sessions[i].LastMessageTime)
			}
			s.sendSnapshot(ctx, client, domain.Snapshot{
				Type:     domain.TypeSnapshot,
				Stream:   domain.StreamSessions,
				Sessions: sessions,
			})
		}, onError)
	case domain.StreamMessages:
		sessionID := frame.SessionID
		cancel, err = s.messages.SubscribeMessages(ctx, sessionID, ident.ID, func(msgs []domain.Message) {
			for i := range msgs {
				msgs[i].TimeLabel = timeutil.FormatTime(msgs[i].SentAt)
			}
			s.sendSnapshot(ctx, client, domain.Snapshot{
				Type:      domain.TypeSnapshot,
				Stream:    domain.StreamMessages,
				SessionID: sessionID,
				Messages:  msgs,
			})
		}, onError)
	default:
		s.sendError(ctx, client, "bad_frame", "unknown stream")
		return
	}
	if err != nil {
		s.sendError(ctx, client, "subscribe_failed", err.Error())
		return
	}
	s.hub.AddSubscription(client, streamKey(frame), cancel)
}

func (s *WSHandler) openChat(ctx context.Context, client contracts.Client, idCtx *services.IdentityContext, ident *domain.Identity, frame domain.ClientFrame) {
	log := logger.FromContext(ctx)
	other, err := s.profiles.GetProfile(ctx, frame.OtherID)
	if err != nil {
		s.sendError(ctx, client, "open_chat_failed", "unknown participant")
		return
	}
	current := idCtx.Identity()
	if current == nil {
		current = ident
	}
	session, err := s.resolver.ResolveOrCreate(ctx, current, other)
	if err != nil {
		log.ErrorContext(ctx, "ws handler - open chat failed", "identity_id", ident.ID, "other_id", frame.OtherID, "err", err)
		s.sendError(ctx, client, "open_chat_failed", err.Error())
		return
	}
	data, _ := json.Marshal(domain.ChatReady{Type: domain.TypeChatReady, Session: *session})
	_ = client.Send(ctx, data)
}

func (s *WSHandler) send(ctx context.Context, client contracts.Client, idCtx *services.IdentityContext, ident *domain.Identity, frame domain.ClientFrame) {
	log := logger.FromContext(ctx)
	senderName := ident.DisplayName
	if profile := idCtx.Profile(); profile != nil {
		senderName = profile.DisplayName
	}
	if senderName == "" {
		senderName = ident.Email
	}
	if err := s.messages.SendMessage(ctx, frame.SessionID, ident.ID, senderName, frame.Text, frame.ImageRef); err != nil {
		log.ErrorContext(ctx, "ws handler - send failed", "identity_id", ident.ID, "session_id", frame.SessionID, "err", err)
		s.sendError(ctx, client, "send_failed", err.Error())
	}
}

func (s *WSHandler) sendSnapshot(ctx context.Context, client contracts.Client, snap domain.Snapshot) {
	data, err := json.Marshal(snap)
	if err != nil {
		return
	}
	_ = client.Send(ctx, data)
}

func (s *WSHandler) sendError(ctx context.Context, client contracts.Client, code, msg string) {
	data, _ := json.Marshal(domain.ErrorFrame{Type: domain.TypeError, Code: code, Message: msg})
	_ = client.Send(ctx, data)
}
