package server

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/aschepis/backscratcher/multichat/llm"
)

type chatRequest struct {
	Prompt string `json:"prompt"`
}

type chatResponse struct {
	Reply string `json:"reply"`
}

// handleChat sends a prompt to one provider within the session's current
// thread and stores the exchange.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	client, ok := s.registry.Get(chi.URLParam(r, "provider"))
	if !ok {
		s.writeError(w, http.StatusBadRequest, "Unknown LLM")
		return
	}

	var req chatRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		s.writeError(w, http.StatusBadRequest, "Empty prompt")
		return
	}

	logger := s.logger.With().
		Str("provider", client.Provider).
		Str("model", client.Model).
		Logger()
	logger.Info().Int("prompt_len", len(prompt)).Msg("Chat request received")

	if !s.debugReplies && !client.Configured() {
		err := llm.NewNotConfiguredError(client.Name)
		logger.Warn().Err(err).Msg("Provider not configured")
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	sess := sessionFrom(ctx)
	thread, err := s.manager.ResolveOrCreate(ctx, sess, sess.UserID, prompt)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to resolve thread")
		s.writeError(w, http.StatusInternalServerError, "Failed to open thread")
		return
	}

	if s.debugReplies {
		reply := fmt.Sprintf("This is a %s response from debug mode.", client.Name)
		if _, err := s.manager.AppendTurn(ctx, thread.ID, prompt, client.Model+"-debug", reply); err != nil {
			logger.Error().Err(err).Int64("threadID", thread.ID).Msg("Failed to save history")
			s.writeError(w, http.StatusInternalServerError, "Failed to save reply")
			return
		}
		s.writeJSON(w, http.StatusOK, chatResponse{Reply: reply})
		return
	}

	history, err := s.manager.BoundedHistory(ctx, thread.ID, s.historyTurns)
	if err != nil {
		logger.Error().Err(err).Int64("threadID", thread.ID).Msg("Failed to load history")
		s.writeError(w, http.StatusInternalServerError, "Failed to load history")
		return
	}

	reply, err := client.GetReply(ctx, "", prompt, history)
	switch {
	case llm.IsNotConfiguredError(err):
		logger.Warn().Err(err).Msg("Provider not configured")
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	case llm.IsProviderError(err):
		logger.Error().Err(err).Msg(client.Name + " request failed")
		s.writeError(w, http.StatusBadGateway, err.Error())
		return
	case err != nil:
		logger.Error().Err(err).Msg(client.Name + " request failed")
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if _, err := s.manager.AppendTurn(ctx, thread.ID, prompt, client.Model, reply); err != nil {
		logger.Error().Err(err).Int64("threadID", thread.ID).Msg("Failed to save history")
		s.writeError(w, http.StatusInternalServerError, "Failed to save reply")
		return
	}

	s.writeJSON(w, http.StatusOK, chatResponse{Reply: reply})
}
