// Package server implements the JSON HTTP API of the multichatd daemon.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/aschepis/backscratcher/multichat/auth"
	"github.com/aschepis/backscratcher/multichat/conversations"
	"github.com/aschepis/backscratcher/multichat/llm"
	"github.com/aschepis/backscratcher/multichat/users"
)

const (
	sessionCookieName = "multichat_session"
	maxBodyBytes      = 1 << 20
	readHeaderTimeout = 10 * time.Second
)

// Server is the HTTP server for multichatd.
type Server struct {
	httpServer *http.Server
	router     chi.Router

	registry     *llm.Registry
	manager      *conversations.Manager
	accounts     *users.Accounts
	sessions     *auth.SessionStore
	historyTurns int
	debugReplies bool
	logger       zerolog.Logger

	startedAt time.Time
}

// Config holds server configuration options.
type Config struct {
	Logger   zerolog.Logger
	Registry *llm.Registry
	Manager  *conversations.Manager
	Accounts *users.Accounts
	Sessions *auth.SessionStore

	// HistoryTurns is how many earlier turns accompany each prompt.
	HistoryTurns int
	// DebugReplies answers chat requests locally without calling providers.
	DebugReplies bool
}

// New creates a new HTTP server.
func New(cfg Config) *Server {
	s := &Server{
		registry:     cfg.Registry,
		manager:      cfg.Manager,
		accounts:     cfg.Accounts,
		sessions:     cfg.Sessions,
		historyTurns: cfg.HistoryTurns,
		debugReplies: cfg.DebugReplies,
		logger:       cfg.Logger.With().Str("component", "http-server").Logger(),
		startedAt:    time.Now(),
	}
	s.router = s.routes()
	s.httpServer = &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: readHeaderTimeout,
	}
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(s.accessLog)
	r.Use(middleware.Recoverer)
	r.Use(middleware.StripSlashes)

	r.Route("/api", func(r chi.Router) {
		// Public routes
		r.Get("/health", s.handleHealth)
		r.Post("/register", s.handleRegister)
		r.Post("/login", s.handleLogin)

		// Session-authenticated routes
		r.Group(func(r chi.Router) {
			r.Use(s.requireSession)

			r.Post("/logout", s.handleLogout)
			r.Get("/account", s.handleAccount)
			r.Get("/home", s.handleHome)
			r.Get("/info", s.handleInfo)

			r.Post("/ensure_thread", s.handleEnsureThread)
			r.Post("/new_thread", s.handleNewThread)
			r.Get("/threads", s.handleListThreads)
			r.Get("/thread/{threadID}", s.handleGetThread)
			r.Delete("/thread/{threadID}", s.handleDeleteThread)

			r.Post("/{provider}", s.handleChat)
		})
	})

	return r
}

// Handler returns the root handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Serve starts the HTTP server on the given listener. It returns nil once
// the server has been shut down.
func (s *Server) Serve(listener net.Listener) error {
	s.logger.Info().Str("address", listener.Addr().String()).Msg("Starting HTTP server")
	if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// ServeTCP starts the server on a TCP address.
func (s *Server) ServeTCP(address string) error {
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return err
	}
	return s.Serve(listener)
}

// Shutdown gracefully stops the server, waiting for in-flight requests
// until ctx is done.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info().Msg("Gracefully stopping HTTP server")
	return s.httpServer.Shutdown(ctx)
}

// accessLog logs every request once it completes.
func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		var event *zerolog.Event
		switch {
		case status >= http.StatusInternalServerError:
			event = s.logger.Error()
		case status >= http.StatusBadRequest:
			event = s.logger.Warn()
		default:
			event = s.logger.Debug()
		}
		event.
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", status).
			Int("bytes", ww.BytesWritten()).
			Dur("duration", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}
