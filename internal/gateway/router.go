package gateway

import (
	"encoding/json"
	"log"

	"german-bridge/bridge"
	"german-bridge/internal/game"
	"german-bridge/internal/lobby"
	"german-bridge/internal/session"
	"german-bridge/internal/wire"
)

func bridgePlayerID(sessionID string) bridge.PlayerID { return bridge.PlayerID(sessionID) }

func toLobbySummaryPayload(s lobby.Summary) wire.LobbySummaryPayload {
	return wire.LobbySummaryPayload{
		ID:         s.ID,
		Host:       s.Host,
		Players:    s.Players,
		MaxPlayers: s.MaxPlayers,
		Settings:   s.Settings,
	}
}

// dispatch parses one inbound envelope and routes it by type and the
// sender's current context, per the three dispatch tables in spec.md §4.6.
func (g *Gateway) dispatch(sess *session.Session, data []byte) {
	var env wire.Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		g.sendError(sess, errBadMessage)
		return
	}

	switch env.Type {
	case wire.TypePing:
		g.sessions.Send(sess.ID, wire.Encode(wire.TypePong, nil))
	case wire.TypeListLobbies:
		g.handleListLobbies(sess)
	case wire.TypeCreateLobby:
		g.handleCreateLobby(sess, env.Payload)
	case wire.TypeJoinLobby:
		g.handleJoinLobby(sess, env.Payload)
	case wire.TypeLeaveLobby:
		g.handleLeaveLobby(sess)
	case wire.TypeStartGame:
		g.handleStartGame(sess)
	case wire.TypePlaceBid:
		g.handlePlaceBid(sess, env.Payload)
	case wire.TypePlayCard:
		g.handlePlayCard(sess, env.Payload)
	case wire.TypeRequestGameState:
		g.handleRequestGameState(sess)
	case wire.TypeStartNextRound:
		g.handleStartNextRound(sess)
	default:
		log.Printf("[gateway] unknown envelope type %q from %s", env.Type, sess.ID)
		g.sendError(sess, errBadMessage)
	}
}

func (g *Gateway) sendError(sess *session.Session, err error) {
	g.sessions.Send(sess.ID, wire.Encode(wire.TypeError, wire.ErrorPayload{Message: errorMessage(err)}))
}

func decodePayload(raw json.RawMessage, dst any) bool {
	if len(raw) == 0 {
		return false
	}
	return json.Unmarshal(raw, dst) == nil
}

// --- no-context handlers ---

func (g *Gateway) handleListLobbies(sess *session.Session) {
	summaries := g.lobbies.List()
	payload := wire.LobbyListPayload{Lobbies: make([]wire.LobbySummaryPayload, 0, len(summaries))}
	for _, s := range summaries {
		payload.Lobbies = append(payload.Lobbies, toLobbySummaryPayload(s))
	}
	g.sessions.Send(sess.ID, wire.Encode(wire.TypeLobbyList, payload))
}

func (g *Gateway) handleCreateLobby(sess *session.Session, raw json.RawMessage) {
	if sess.GameID() != "" {
		g.sendError(sess, lobby.ErrAlreadyInLobby)
		return
	}
	var payload wire.CreateLobbyPayload
	if !decodePayload(raw, &payload) {
		g.sendError(sess, errBadMessage)
		return
	}
	l, err := g.lobbies.Create(sess.ID, payload.Settings)
	if err != nil {
		g.sendError(sess, err)
		return
	}
	g.sessions.Send(sess.ID, wire.Encode(wire.TypeLobbyCreated, wire.LobbyCreatedPayload{LobbyID: l.ID}))
}

func (g *Gateway) handleJoinLobby(sess *session.Session, raw json.RawMessage) {
	if sess.GameID() != "" {
		g.sendError(sess, lobby.ErrAlreadyInLobby)
		return
	}
	var payload wire.JoinLobbyPayload
	if !decodePayload(raw, &payload) {
		g.sendError(sess, errBadMessage)
		return
	}
	l, err := g.lobbies.Join(sess.ID, payload.LobbyID)
	if err != nil {
		g.sendError(sess, err)
		return
	}
	sess.SetLobby(l.ID)
	summary := l.Summary()
	g.sessions.Send(sess.ID, wire.Encode(wire.TypeLobbyJoined, wire.LobbyJoinedPayload{Lobby: toLobbySummaryPayload(summary)}))
	others := removeFromList(summary.Players, sess.ID)
	g.sessions.Broadcast(others, wire.Encode(wire.TypePlayerJoined, wire.PlayerJoinedPayload{PlayerID: sess.ID}))
	g.sessions.Broadcast(others, wire.Encode(wire.TypeLobbyUpdated, wire.LobbyUpdatedPayload{Lobby: toLobbySummaryPayload(summary)}))
}

// --- lobby-context handlers ---

func (g *Gateway) handleLeaveLobby(sess *session.Session) {
	if sess.LobbyID() == "" {
		g.sendError(sess, errNotInLobby)
		return
	}
	l, stillExists, err := g.lobbies.Leave(sess.ID)
	if err != nil {
		g.sendError(sess, err)
		return
	}
	sess.ClearLobby()
	if stillExists && l != nil {
		summary := l.Summary()
		g.sessions.Broadcast(summary.Players, wire.Encode(wire.TypePlayerLeft, wire.PlayerLeftPayload{PlayerID: sess.ID}))
		g.sessions.Broadcast(summary.Players, wire.Encode(wire.TypeLobbyUpdated, wire.LobbyUpdatedPayload{Lobby: toLobbySummaryPayload(summary)}))
	}
}

func (g *Gateway) handleStartGame(sess *session.Session) {
	lobbyID := sess.LobbyID()
	if lobbyID == "" {
		g.sendError(sess, errNotInLobby)
		return
	}
	seating, settings, err := g.lobbies.Start(sess.ID, lobbyID)
	if err != nil {
		g.sendError(sess, err)
		return
	}

	actor, err := g.games.Start(seating, settings)
	if err != nil {
		g.sendError(sess, err)
		return
	}
	for _, p := range seating {
		if s, ok := g.sessions.Get(p); ok {
			s.ClearLobby()
			s.SetGame(actor.ID())
		}
	}
	g.lobbies.Drop(lobbyID)
}

// --- game-context handlers ---

func (g *Gateway) handlePlaceBid(sess *session.Session, raw json.RawMessage) {
	actor, ok := g.requireGame(sess)
	if !ok {
		return
	}
	var payload wire.PlaceBidPayload
	if !decodePayload(raw, &payload) {
		g.sendError(sess, errBadMessage)
		return
	}
	if err := actor.SubmitBid(bridgePlayerID(sess.ID), payload.Bid.Tricks); err != nil {
		g.sendError(sess, err)
	}
}

func (g *Gateway) handlePlayCard(sess *session.Session, raw json.RawMessage) {
	actor, ok := g.requireGame(sess)
	if !ok {
		return
	}
	var payload wire.PlayCardPayload
	if !decodePayload(raw, &payload) {
		g.sendError(sess, errBadMessage)
		return
	}
	if err := actor.PlayCard(bridgePlayerID(sess.ID), payload.Card); err != nil {
		g.sendError(sess, err)
	}
}

func (g *Gateway) handleRequestGameState(sess *session.Session) {
	actor, ok := g.requireGame(sess)
	if !ok {
		return
	}
	state := actor.RequestState(bridgePlayerID(sess.ID))
	g.sessions.Send(sess.ID, wire.Encode(wire.TypeGameState, wire.GameStatePayload{State: state}))
}

func (g *Gateway) handleStartNextRound(sess *session.Session) {
	actor, ok := g.requireGame(sess)
	if !ok {
		return
	}
	if err := actor.StartNextRound(bridgePlayerID(sess.ID)); err != nil {
		g.sendError(sess, err)
	}
}

func (g *Gateway) requireGame(sess *session.Session) (*game.Actor, bool) {
	gameID := sess.GameID()
	if gameID == "" {
		g.sendError(sess, errNotInGame)
		return nil, false
	}
	actor, ok := g.games.Get(gameID)
	if !ok {
		g.sendError(sess, errNotInGame)
		return nil, false
	}
	return actor, true
}

func removeFromList(players []string, session string) []string {
	out := make([]string, 0, len(players))
	for _, p := range players {
		if p != session {
			out = append(out, p)
		}
	}
	return out
}
