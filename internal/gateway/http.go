package gateway

import (
	"encoding/json"
	"net/http"

	"german-bridge/internal/session"
)

type statsResponse struct {
	Connections session.Stats `json:"connections"`
	Games       gamesStats    `json:"games"`
}

type gamesStats struct {
	ActiveGames int `json:"active_games"`
}

// RegisterRoutes adds /health and /stats from spec.md §6.1 to mux.
func (g *Gateway) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/ws", g.HandleWebSocket)
	mux.HandleFunc("/health", g.handleHealth)
	mux.HandleFunc("/stats", g.handleStats)
}

func (g *Gateway) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func (g *Gateway) handleStats(w http.ResponseWriter, r *http.Request) {
	resp := statsResponse{
		Connections: g.sessions.Stats(),
		Games:       gamesStats{ActiveGames: g.games.ActiveCount()},
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}
