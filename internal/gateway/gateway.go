// Package gateway is the WebSocket front door: it authenticates the
// upgrade, binds the socket to a Session, and routes inbound envelopes to
// the lobby and game managers, translating their results back into wire
// envelopes. Grounded on the teacher's internal/gateway/gateway.go, with
// the protobuf envelope and table-centric handlers replaced by the JSON
// tagged-variant router spec.md §4.6 requires.
package gateway

import (
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"german-bridge/internal/auth"
	"german-bridge/internal/config"
	"german-bridge/internal/game"
	"german-bridge/internal/lobby"
	"german-bridge/internal/session"
	"german-bridge/internal/wire"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Gateway wires the auth, session, lobby, and game collaborators together.
// It holds no game state of its own (spec.md §9: no shared mutable
// singletons) — every mutation is delegated to the owning manager.
type Gateway struct {
	auth     auth.Service
	sessions *session.Manager
	lobbies  *lobby.Manager
	games    *game.Manager

	maxConnections int
	debug          bool
}

func New(authSvc auth.Service, sessions *session.Manager, lobbies *lobby.Manager, games *game.Manager, cfg config.Config) *Gateway {
	return &Gateway{
		auth:           authSvc,
		sessions:       sessions,
		lobbies:        lobbies,
		games:          games,
		maxConnections: cfg.MaxConnections,
		debug:          cfg.Debug(),
	}
}

// HandleWebSocket upgrades the connection after validating the bearer
// token carried in the query string (spec.md §6.2): invalid or missing
// token closes with a policy-violation code before any message is sent.
func (g *Gateway) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	userID, username, ok := g.auth.ResolveSession(token)
	if !ok {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		closeMsg := websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "invalid or missing token")
		_ = conn.WriteControl(websocket.CloseMessage, closeMsg, time.Now().Add(time.Second))
		_ = conn.Close()
		return
	}

	if g.maxConnections > 0 && g.sessions.Stats().Active >= g.maxConnections {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		closeMsg := websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "server at capacity")
		_ = conn.WriteControl(websocket.CloseMessage, closeMsg, time.Now().Add(time.Second))
		_ = conn.Close()
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[gateway] upgrade error: %v", err)
		return
	}

	sess, reconnected := g.sessions.Bind(userID, username, conn)
	g.sessions.Send(sess.ID, wire.Encode(wire.TypeConnected, wire.ConnectedPayload{PlayerID: sess.ID}))
	if reconnected {
		g.syncAfterReconnect(sess)
	}

	go g.readPump(sess, conn)
}

func (g *Gateway) readPump(sess *session.Session, conn *websocket.Conn) {
	defer func() {
		grace := g.graceFor(sess)
		g.sessions.MarkAbsent(sess.ID, grace)
	}()

	conn.SetReadLimit(65536)
	conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("[gateway] read error for session %s: %v", sess.ID, err)
			}
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}
		sess.Touch()
		conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		if g.debug {
			log.Printf("[gateway] %s <- %s", sess.ID, data)
		}
		g.dispatch(sess, data)
	}
}

// graceFor is the lobby's turn_timeout_secs * 4 while sess is seated in a
// live game, or the manager default otherwise (spec.md §4.5).
func (g *Gateway) graceFor(sess *session.Session) time.Duration {
	if gameID := sess.GameID(); gameID != "" {
		if actor, ok := g.games.Get(gameID); ok {
			return actor.ReconnectGrace()
		}
	}
	return 0
}

// syncAfterReconnect replays the current truth to a rebound session and
// tells the rest of its lobby/game it's back, per spec.md §4.5 and scenario 6:
// the server synthesizes a fresh snapshot rather than replaying missed events.
func (g *Gateway) syncAfterReconnect(sess *session.Session) {
	if lobbyID := sess.LobbyID(); lobbyID != "" {
		if l, ok := g.lobbies.Get(lobbyID); ok {
			summary := l.Summary()
			g.sessions.Send(sess.ID, wire.Encode(wire.TypeLobbyJoined, wire.LobbyJoinedPayload{Lobby: toLobbySummaryPayload(summary)}))
			g.sessions.Broadcast(summary.Players, wire.Encode(wire.TypePlayerReconnected, wire.PlayerReconnectedPayload{PlayerID: sess.ID}))
		}
	}
	if gameID := sess.GameID(); gameID != "" {
		if actor, ok := g.games.Get(gameID); ok {
			state := actor.RequestState(bridgePlayerID(sess.ID))
			g.sessions.Send(sess.ID, wire.Encode(wire.TypeGameState, wire.GameStatePayload{State: state}))
			g.broadcastToSeating(actor, wire.Encode(wire.TypePlayerReconnected, wire.PlayerReconnectedPayload{PlayerID: sess.ID}))
		}
	}
}

// OnSessionExpired is the session manager's ExpireHook: once a session's
// reconnect grace elapses, its lobby/game membership is unwound.
func (g *Gateway) OnSessionExpired(sessionID, lobbyID, gameID string) {
	if lobbyID != "" {
		l, stillExists, err := g.lobbies.Leave(sessionID)
		if err == nil {
			remaining := []string{}
			if stillExists && l != nil {
				remaining = l.Summary().Players
			}
			g.sessions.Broadcast(remaining, wire.Encode(wire.TypePlayerLeft, wire.PlayerLeftPayload{PlayerID: sessionID}))
			if stillExists && l != nil {
				g.sessions.Broadcast(remaining, wire.Encode(wire.TypeLobbyUpdated, wire.LobbyUpdatedPayload{Lobby: toLobbySummaryPayload(l.Summary())}))
			}
		}
	}
	if gameID != "" {
		if actor, ok := g.games.Get(gameID); ok {
			g.broadcastToSeating(actor, wire.Encode(wire.TypePlayerLeft, wire.PlayerLeftPayload{PlayerID: sessionID}))
		}
	}
}

func (g *Gateway) broadcastToSeating(actor *game.Actor, env wire.Envelope) {
	seating := actor.Seating()
	ids := make([]string, len(seating))
	for i, p := range seating {
		ids[i] = string(p)
	}
	g.sessions.Broadcast(ids, env)
}
