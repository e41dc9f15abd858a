package server

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/aschepis/backscratcher/multichat/auth"
	"github.com/aschepis/backscratcher/multichat/users"
)

type contextKey int

const sessionKey contextKey = iota

type registerRequest struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

type accountResponse struct {
	ID     int64  `json:"id"`
	Email  string `json:"email"`
	Status string `json:"status"`
}

func newAccountResponse(u *users.User) accountResponse {
	return accountResponse{ID: u.ID, Email: u.Email, Status: string(u.Status)}
}

// sessionFrom returns the session attached by requireSession.
func sessionFrom(ctx context.Context) *auth.Session {
	sess, _ := ctx.Value(sessionKey).(*auth.Session)
	return sess
}

// requireSession authenticates the request from the session cookie or a
// Bearer token and attaches the session to the request context.
func (s *Server) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := sessionToken(r)
		if token == "" {
			s.writeError(w, http.StatusUnauthorized, "Authentication required")
			return
		}

		sess, err := s.sessions.Authenticate(r.Context(), token)
		switch {
		case errors.Is(err, auth.ErrInvalidToken),
			errors.Is(err, auth.ErrSessionNotFound),
			errors.Is(err, auth.ErrSessionExpired):
			s.logger.Debug().Err(err).Msg("Rejected session")
			s.writeError(w, http.StatusUnauthorized, "Authentication required")
			return
		case err != nil:
			s.logger.Error().Err(err).Msg("Failed to load session")
			s.writeError(w, http.StatusInternalServerError, "Failed to load session")
			return
		}

		ctx := context.WithValue(r.Context(), sessionKey, sess)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func sessionToken(r *http.Request) string {
	if header := r.Header.Get("Authorization"); strings.HasPrefix(header, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	}
	if cookie, err := r.Cookie(sessionCookieName); err == nil {
		return cookie.Value
	}
	return ""
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, err := s.accounts.Register(r.Context(), req.Email, req.Password, req.ConfirmPassword)
	var verr *users.ValidationError
	switch {
	case errors.As(err, &verr):
		s.writeError(w, http.StatusBadRequest, verr.Error())
		return
	case errors.Is(err, users.ErrEmailTaken):
		s.writeError(w, http.StatusConflict, "There is already an account with that email address")
		return
	case err != nil:
		s.logger.Error().Err(err).Msg("Registration failed")
		s.writeError(w, http.StatusInternalServerError, "Failed to create account")
		return
	}

	s.writeJSON(w, http.StatusCreated, newAccountResponse(user))
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, err := s.accounts.Login(r.Context(), req.Email, req.Password)
	var verr *users.ValidationError
	switch {
	case errors.As(err, &verr):
		s.writeError(w, http.StatusBadRequest, verr.Error())
		return
	case errors.Is(err, users.ErrInvalidCredentials):
		s.writeError(w, http.StatusUnauthorized, "Invalid email address or password")
		return
	case err != nil:
		s.logger.Error().Err(err).Msg("Login failed")
		s.writeError(w, http.StatusInternalServerError, "Failed to log in")
		return
	}

	sess, token, err := s.sessions.Create(r.Context(), user.ID)
	if err != nil {
		s.logger.Error().Err(err).Int64("user_id", user.ID).Msg("Failed to create session")
		s.writeError(w, http.StatusInternalServerError, "Failed to log in")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
	s.logger.Info().Int64("user_id", user.ID).Msg("User logged in")
	s.writeJSON(w, http.StatusOK, loginResponse{Token: token, ExpiresAt: sess.ExpiresAt})
}

// handleLogout ends the session, which also drops its current thread.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	if err := s.sessions.Delete(r.Context(), sess.ID); err != nil {
		s.logger.Error().Err(err).Msg("Failed to delete session")
		s.writeError(w, http.StatusInternalServerError, "Failed to log out")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	s.writeJSON(w, http.StatusOK, statusResponse{Status: "logged out"})
}

func (s *Server) handleAccount(w http.ResponseWriter, r *http.Request) {
	s.writeAccount(w, r)
}

// handleHome is the home page refresh: the next message starts a new thread.
func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	if err := s.manager.Reset(r.Context(), sessionFrom(r.Context())); err != nil {
		s.logger.Error().Err(err).Msg("Failed to reset thread")
		s.writeError(w, http.StatusInternalServerError, "Failed to reset thread")
		return
	}
	s.writeAccount(w, r)
}

func (s *Server) writeAccount(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	user, err := s.accounts.Get(r.Context(), sess.UserID)
	if errors.Is(err, users.ErrUserNotFound) {
		s.writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to load account")
		s.writeError(w, http.StatusInternalServerError, "Failed to load account")
		return
	}
	s.writeJSON(w, http.StatusOK, newAccountResponse(user))
}
