package server

import (
	"net/http"
	"time"
)

type providerInfo struct {
	Provider   string `json:"provider"`
	Name       string `json:"name"`
	Model      string `json:"model"`
	Configured bool   `json:"configured"`
}

type infoResponse struct {
	Status       string         `json:"status"`
	StartedAt    time.Time      `json:"started_at"`
	DebugReplies bool           `json:"debug_replies"`
	HistoryTurns int            `json:"history_turns"`
	Providers    []providerInfo `json:"providers"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, statusResponse{Status: "ok"})
}

// handleInfo returns daemon status and the registered providers.
func (s *Server) handleInfo(w http.ResponseWriter, _ *http.Request) {
	routes := s.registry.Providers()
	providers := make([]providerInfo, 0, len(routes))
	for _, route := range routes {
		client, _ := s.registry.Get(route)
		providers = append(providers, providerInfo{
			Provider:   route,
			Name:       client.Name,
			Model:      client.Model,
			Configured: client.Configured(),
		})
	}

	s.writeJSON(w, http.StatusOK, infoResponse{
		Status:       "running",
		StartedAt:    s.startedAt,
		DebugReplies: s.debugReplies,
		HistoryTurns: s.historyTurns,
		Providers:    providers,
	})
}
