package server

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/samber/lo"

	"github.com/aschepis/backscratcher/multichat/conversations"
)

const threadDateLayout = "Jan 2, 2006 3:04 PM"

type ensureThreadRequest struct {
	Prompt string   `json:"prompt"`
	Models []string `json:"models"`
}

type threadResponse struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Date    string `json:"date"`
	Models  string `json:"models"`
	Created *bool  `json:"created,omitempty"`
}

type threadListResponse struct {
	Threads []threadResponse `json:"threads"`
}

type historyEntry struct {
	UserInput     string    `json:"user_input"`
	ModelName     string    `json:"model_name"`
	ModelResponse string    `json:"model_response"`
	DateSaved     time.Time `json:"date_saved"`
}

type historyResponse struct {
	History []historyEntry `json:"history"`
}

func newThreadResponse(summary conversations.ThreadSummary) threadResponse {
	return threadResponse{
		ID:     summary.ID,
		Name:   summary.Name,
		Date:   summary.CreatedAt.Format(threadDateLayout),
		Models: strings.Join(summary.Models, ", "),
	}
}

// handleEnsureThread readies the session's thread for a set of models. The
// models may be given as provider routes, display names or model ids.
func (s *Server) handleEnsureThread(w http.ResponseWriter, r *http.Request) {
	var req ensureThreadRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		s.writeError(w, http.StatusBadRequest, "Empty prompt")
		return
	}

	models := s.registry.ModelsFor(lo.Compact(req.Models))
	if s.debugReplies {
		models = lo.Map(models, func(m string, _ int) string { return m + "-debug" })
	}

	sess := sessionFrom(r.Context())
	summary, created, err := s.manager.EnsureThread(r.Context(), sess, sess.UserID, prompt, models)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to ensure thread")
		s.writeError(w, http.StatusInternalServerError, "Failed to open thread")
		return
	}

	resp := newThreadResponse(*summary)
	resp.Created = &created
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleNewThread(w http.ResponseWriter, r *http.Request) {
	if err := s.manager.Reset(r.Context(), sessionFrom(r.Context())); err != nil {
		s.logger.Error().Err(err).Msg("Failed to reset thread")
		s.writeError(w, http.StatusInternalServerError, "Failed to reset thread")
		return
	}
	s.writeJSON(w, http.StatusOK, statusResponse{Status: "ok"})
}

func (s *Server) handleListThreads(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	summaries, err := s.manager.ListThreads(r.Context(), sess.UserID)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to list threads")
		s.writeError(w, http.StatusInternalServerError, "Failed to list threads")
		return
	}
	s.writeJSON(w, http.StatusOK, threadListResponse{
		Threads: lo.Map(summaries, func(t conversations.ThreadSummary, _ int) threadResponse {
			return newThreadResponse(t)
		}),
	})
}

func (s *Server) handleGetThread(w http.ResponseWriter, r *http.Request) {
	threadID, ok := s.threadID(w, r)
	if !ok {
		return
	}
	sess := sessionFrom(r.Context())

	if _, err := s.manager.Thread(r.Context(), sess.UserID, threadID); err != nil {
		s.writeThreadError(w, err, threadID)
		return
	}
	entries, err := s.manager.FullHistory(r.Context(), threadID)
	if err != nil {
		s.writeThreadError(w, err, threadID)
		return
	}

	s.writeJSON(w, http.StatusOK, historyResponse{
		History: lo.Map(entries, func(e conversations.Entry, _ int) historyEntry {
			return historyEntry{
				UserInput:     e.UserInput,
				ModelName:     e.ModelName,
				ModelResponse: e.ModelResponse,
				DateSaved:     e.SavedAt,
			}
		}),
	})
}

func (s *Server) handleDeleteThread(w http.ResponseWriter, r *http.Request) {
	threadID, ok := s.threadID(w, r)
	if !ok {
		return
	}
	sess := sessionFrom(r.Context())

	if err := s.manager.DeleteThread(r.Context(), sess, sess.UserID, threadID); err != nil {
		s.writeThreadError(w, err, threadID)
		return
	}
	s.writeJSON(w, http.StatusOK, statusResponse{Status: "deleted"})
}

func (s *Server) threadID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "threadID"), 10, 64)
	if err != nil || id <= 0 {
		s.writeError(w, http.StatusBadRequest, "Invalid thread id")
		return 0, false
	}
	return id, true
}

func (s *Server) writeThreadError(w http.ResponseWriter, err error, threadID int64) {
	switch {
	case errors.Is(err, conversations.ErrThreadNotFound):
		s.writeError(w, http.StatusNotFound, "Thread not found")
	case errors.Is(err, conversations.ErrThreadForbidden):
		s.writeError(w, http.StatusForbidden, "Thread belongs to another user")
	default:
		s.logger.Error().Err(err).Int64("threadID", threadID).Msg("Thread operation failed")
		s.writeError(w, http.StatusInternalServerError, "Thread operation failed")
	}
}
