package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"courier/internal/app/registry"
	"courier/internal/app/server/handlers"
	"courier/internal/config"
	"courier/internal/core/contracts"
	"courier/internal/core/services"
	"courier/pkg/middleware"
)

type Server struct {
	log            *slog.Logger
	mux            *http.ServeMux
	cfg            *config.Config
	auth           contracts.AuthProvider
	authHandler    *handlers.AuthHandler
	profileHandler *handlers.ProfileHandler
	blobHandler    *handlers.BlobHandler
	wsHandler      *handlers.WSHandler
}

func NewServer(
	log *slog.Logger,
	cfg *config.Config,
	auth contracts.AuthProvider,
	presence contracts.PresenceStore,
	blobs contracts.BlobStore,
	profiles *services.ProfileService,
	directory *services.DirectoryService,
	sessions *services.SessionListService,
	resolver *services.SessionResolver,
	messages *services.MessageService,
	hub *registry.Registry,
) *Server {
	s := &Server{
		log:            log,
		mux:            http.NewServeMux(),
		cfg:            cfg,
		auth:           auth,
		authHandler:    handlers.NewAuthHandler(auth, profiles),
		profileHandler: handlers.NewProfileHandler(auth, profiles),
		blobHandler:    handlers.NewBlobHandler(blobs, cfg.Blob.MaxUploadBytes),
		wsHandler: handlers.NewWSHandler(
			hub, auth, presence, profiles, directory, sessions, resolver, messages,
			cfg.Presence.HeartbeatInterval,
		),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	authed := middleware.AuthMiddleware(s.auth)

	// Public
	s.mux.HandleFunc("POST /auth/signup", s.authHandler.SignUp)
	s.mux.HandleFunc("POST /auth/signin", s.authHandler.SignIn)
	s.mux.HandleFunc("GET /blobs/{key}", s.blobHandler.Download)
	s.mux.Handle("GET /metrics", promhttp.Handler())

	// Protected
	s.mux.Handle("POST /auth/signout", authed(http.HandlerFunc(s.authHandler.SignOut)))
	s.mux.Handle("PUT /profile/avatar", authed(http.HandlerFunc(s.profileHandler.UpdateAvatar)))
	s.mux.Handle("POST /blobs", authed(http.HandlerFunc(s.blobHandler.Upload)))
	s.mux.Handle("/ws", authed(http.HandlerFunc(s.wsHandler.Handler)))
}

func (s *Server) Start() error {
	chain := middleware.RequestLogger(s.log)(
		middleware.TracerMiddleware(s.cfg.Service.Name)(
			middleware.MetricsMiddleware()(s.mux),
		),
	)
	server := &http.Server{
		Addr:         s.cfg.Service.Addr,
		Handler:      chain,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}
	s.log.Info("server - starting", "addr", s.cfg.Service.Addr)
	return server.ListenAndServe()
}
