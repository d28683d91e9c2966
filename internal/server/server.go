package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/kinoroom/kinoroom/internal/room"
	"github.com/kinoroom/kinoroom/internal/ws"
	"github.com/kinoroom/kinoroom/pkg/logger"
)

type Server struct {
	registry *room.Registry
	manager  *ws.Manager
	baseURL  string

	log        *logger.Logger
	httpServer *http.Server
}

func New(addr, baseURL string, registry *room.Registry, manager *ws.Manager, log *logger.Logger) *Server {
	s := &Server{
		registry: registry,
		manager:  manager,
		baseURL:  baseURL,
		log:      log,
	}

	router := s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Start begins listening for HTTP requests
func (s *Server) Start() error {
	s.log.Info(
		"Starting HTTP server",
		"addr", s.httpServer.Addr,
	)

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info(
		"Server shutting down gracefully...",
		"addr", s.httpServer.Addr,
	)
	return s.httpServer.Shutdown(ctx)
}
