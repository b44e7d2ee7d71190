// Package session is the connection manager from spec.md §4.5: it owns
// session_id -> Session and user_id -> session_id, rebinds sockets across
// reconnects, tracks heartbeats, and fans outbound envelopes out through a
// bounded per-session queue that never blocks the caller.
package session

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"german-bridge/internal/wire"
)

// ConnState is whether a session currently has a live socket bound.
type ConnState int

const (
	Live ConnState = iota
	Absent
)

func (s ConnState) String() string {
	if s == Live {
		return "Live"
	}
	return "Absent"
}

const outboundQueueSize = 64

// Session is a player's identity, stable across reconnects. The socket is
// merely its current output channel, never its identity.
type Session struct {
	ID       string
	UserID   uint64
	Username string

	mu                sync.Mutex
	state             ConnState
	conn              *websocket.Conn
	send              chan []byte
	lobbyID           string
	gameID            string
	lastSeen          time.Time
	absentSince       time.Time
	reconnectDeadline time.Time
}

func newSession(id string, userID uint64, username string) *Session {
	return &Session{
		ID:       id,
		UserID:   userID,
		Username: username,
		state:    Absent,
		lastSeen: time.Now(),
	}
}

// State reports whether the session currently has a live socket.
func (s *Session) State() ConnState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// LobbyID and GameID report the session's current context, or "" if none.
// At most one of the two is non-empty at a time (spec.md §9: sessions hold ids,
// not entity pointers, so the manager maps are the only source of truth).
func (s *Session) LobbyID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lobbyID
}

func (s *Session) GameID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gameID
}

func (s *Session) SetLobby(lobbyID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lobbyID = lobbyID
}

func (s *Session) SetGame(gameID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gameID = gameID
}

func (s *Session) ClearLobby() { s.SetLobby("") }
func (s *Session) ClearGame()  { s.SetGame("") }

// Touch records that a message was just received on this session's socket.
func (s *Session) Touch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSeen = time.Now()
}

// bindSocket attaches a live socket and spins up its writer pump. Any
// previously bound socket is closed first (newer wins, per spec.md §4.5).
func (s *Session) bindSocket(conn *websocket.Conn) {
	s.mu.Lock()
	old := s.conn
	s.conn = conn
	s.state = Live
	s.send = make(chan []byte, outboundQueueSize)
	s.lastSeen = time.Now()
	s.absentSince = time.Time{}
	sendCh := s.send
	s.mu.Unlock()

	if old != nil {
		_ = old.Close()
	}
	go s.writePump(conn, sendCh)
}

// markAbsent closes the live socket (if any) and starts the reconnect
// grace window.
func (s *Session) markAbsent(grace time.Duration) {
	s.mu.Lock()
	if s.state == Absent {
		s.mu.Unlock()
		return
	}
	conn := s.conn
	s.conn = nil
	s.state = Absent
	s.absentSince = time.Now()
	s.reconnectDeadline = s.absentSince.Add(grace)
	if s.send != nil {
		close(s.send)
		s.send = nil
	}
	s.mu.Unlock()

	if conn != nil {
		_ = conn.Close()
	}
}

// expired reports whether an Absent session's reconnect grace has elapsed.
func (s *Session) expired(now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == Absent && !s.reconnectDeadline.IsZero() && now.After(s.reconnectDeadline)
}

// Enqueue writes an envelope to the session's outbound queue without
// blocking. If Absent, the event is dropped per spec.md §4.5. If Live but
// the queue is full, the socket is dropped and the session becomes Absent.
func (s *Session) Enqueue(env wire.Envelope, grace time.Duration) {
	data, err := json.Marshal(env)
	if err != nil {
		log.Printf("[session %s] failed to marshal %s: %v", s.ID, env.Type, err)
		return
	}

	s.mu.Lock()
	if s.state != Live {
		s.mu.Unlock()
		return
	}
	ch := s.send
	s.mu.Unlock()

	select {
	case ch <- data:
	default:
		log.Printf("[session %s] outbound queue full, dropping connection", s.ID)
		s.markAbsent(grace)
	}
}

func (s *Session) writePump(conn *websocket.Conn, send chan []byte) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case data, ok := <-send:
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
