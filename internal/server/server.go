package server

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/snapdish/snapdish-backend/config"
	"github.com/snapdish/snapdish-backend/internal/api"
)

// Server represents the HTTP server
type Server struct {
	router *gin.Engine
	http   *http.Server
	cfg    *config.Config
	svcs   api.Services
}

// New creates a new server instance
func New(cfg *config.Config, svcs api.Services) *Server {
	router := gin.Default()

	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:5173", "capacitor://localhost"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Authorization", "Accept", "Origin"},
		AllowCredentials: true,
		MaxAge:           24 * time.Hour,
	}))

	api.RegisterRoutes(router, svcs)

	return &Server{
		router: router,
		cfg:    cfg,
		svcs:   svcs,
	}
}

// Router exposes the route table for tests
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Start runs the server until Shutdown is called
func (s *Server) Start() error {
	s.http = &http.Server{
		Addr:    s.cfg.ServerHost + ":" + s.cfg.ServerPort,
		Handler: s.router,
	}

	log.Printf("Listening on %s", s.http.Addr)
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown stops accepting requests, then disposes the suggestion
// pipeline so pending cache waiters fail fast instead of hanging
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	if s.http != nil {
		err = s.http.Shutdown(ctx)
	}
	if s.svcs.Suggestions != nil {
		s.svcs.Suggestions.Close()
	}
	return err
}
