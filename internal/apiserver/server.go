// Package apiserver exposes the Skua REST API: resource CRUD, manifest
// apply, grounded document queries and server-side chat turns.
package apiserver

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/skua-dev/skua/internal/session"
	"github.com/skua-dev/skua/internal/store"
)

// Server is the Skua REST API server.
type Server struct {
	router *mux.Router
	store  store.Store
	engine *session.Engine
	logger *zap.Logger
	server *http.Server
}

// NewServer creates a fully-wired Server ready to Start().
func NewServer(addr string, s store.Store, engine *session.Engine, logger *zap.Logger) *Server {
	srv := &Server{
		router: mux.NewRouter(),
		store:  s,
		engine: engine,
		logger: logger,
	}
	srv.server = &http.Server{
		Addr:    addr,
		Handler: srv.router,
		// Chat turns can chain several model calls, so the write
		// timeout is generous.
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 5 * time.Minute,
	}
	srv.registerRoutes()
	return srv
}

// Start begins serving. It blocks until shutdown or a fatal error.
func (s *Server) Start() error {
	s.logger.Info("API server starting", zap.String("addr", s.server.Addr))
	return s.server.ListenAndServe()
}

// Shutdown drains in-flight requests and stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Handler exposes the router, used by tests.
func (s *Server) Handler() http.Handler {
	return s.router
}
