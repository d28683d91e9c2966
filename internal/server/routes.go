package server

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/kinoroom/kinoroom/pkg/httputil"
)

func (s *Server) setupRoutes() *chi.Mux {
	r := chi.NewRouter()

	// Middleware block
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.Compress(5))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
	}))

	r.Get("/healthz", httputil.Handler(s.handleHealth, s.log.Logger))

	// API routes
	r.Route("/api/rooms", func(r chi.Router) {
		r.Post("/", httputil.Handler(s.handleCreateRoom, s.log.Logger))
		r.Get("/{roomID}", httputil.Handler(s.handleGetRoom, s.log.Logger))
		r.Post("/{roomID}/control", httputil.Handler(s.handleControl, s.log.Logger))
	})

	// Watch page and the realtime viewer transport
	r.Get("/room/{roomID}", s.handleRoomPage)
	r.Get("/ws/{roomID}", httputil.Handler(s.handleWS, s.log.Logger))

	return r
}
