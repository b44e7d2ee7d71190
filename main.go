package main

import (
	"log"
	"net/http"

	"german-bridge/internal/auth"
	"german-bridge/internal/config"
	"german-bridge/internal/game"
	"german-bridge/internal/gateway"
	"german-bridge/internal/lobby"
	"german-bridge/internal/persistence"
	"german-bridge/internal/session"
)

func main() {
	cfg := config.Load()

	authService, authMode, err := auth.NewServiceFromEnv()
	if err != nil {
		log.Fatalf("[server] failed to init auth service: %v", err)
	}
	defer authService.Close()

	persistService, persistMode := persistence.NewServiceFromEnv()
	defer persistService.Close()

	lobbies := lobby.New()
	lobbies.SetDefaultTurnTimeout(cfg.TurnTimeoutSecs)
	defer lobbies.Stop()

	var gw *gateway.Gateway
	sessions := session.NewManager(func(sessionID, lobbyID, gameID string) {
		if gw != nil {
			gw.OnSessionExpired(sessionID, lobbyID, gameID)
		}
	})
	defer sessions.Stop()

	games := game.NewManager(sessions, persistService)
	defer games.Stop()

	gw = gateway.New(authService, sessions, lobbies, games, cfg)
	authHTTP := auth.NewHTTPHandler(authService)

	mux := http.NewServeMux()
	gw.RegisterRoutes(mux)
	authHTTP.RegisterRoutes(mux)

	log.Printf("[server] auth mode: %s (requested %q)", authMode, cfg.AuthMode)
	log.Printf("[server] persist mode: %s (requested %q)", persistMode, cfg.PersistMode)
	log.Printf("[server] max connections: %d, turn timeout: %ds, log level: %s, database configured: %v",
		cfg.MaxConnections, cfg.TurnTimeoutSecs, cfg.LogLevel, cfg.DatabaseURL != "")
	log.Printf("[server] listening on %s", cfg.Addr())
	if err := http.ListenAndServe(cfg.Addr(), withCORS(mux)); err != nil {
		log.Fatalf("[server] failed to start: %v", err)
	}
}

func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
