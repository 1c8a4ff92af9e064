// Package server wraps the HTTP server lifecycle.
package server

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/multikonnect/cartwatch/internal/infrastructure/observability/logging"
	"github.com/multikonnect/cartwatch/pkg/config"
)

// Server wraps http.Server with configured timeouts.
type Server struct {
	httpServer *http.Server
	logger     *logging.ChanneledLogger
}

// New creates the HTTP server around the router.
func New(router *gin.Engine, logger *logging.ChanneledLogger) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:         ":" + config.Port,
			Handler:      router,
			ReadTimeout: config.ServerReadTimeout,
			// A write timeout would sever long-lived SSE and WebSocket
			// streams; per-request deadlines are handled in the handlers.
			WriteTimeout: 0,
			IdleTimeout:  config.ServerIdleTimeout,
		},
		logger: logger,
	}
}

// Start begins serving and blocks until the server stops.
func (s *Server) Start() error {
	s.logger.Startup().Info("HTTP server listening", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Stop gracefully shuts the server down.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Shutdown().Info("HTTP server shutting down")
	return s.httpServer.Shutdown(ctx)
}
