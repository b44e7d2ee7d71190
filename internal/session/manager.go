package session

import (
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"german-bridge/internal/wire"
)

const (
	defaultReconnectGrace = 2 * time.Minute
	cleanupInterval       = 5 * time.Second
)

// ExpireHook is invoked when a session's reconnect grace elapses and it is
// torn down for good, so the lobby/game it belonged to can react.
type ExpireHook func(sessionID, lobbyID, gameID string)

// Manager is the connection manager: the sole owner of session_id ->
// Session and user_id -> session_id. Distinct sessions' state never
// interacts except through this map, matching spec.md §9's "no shared
// mutable singletons" rule.
type Manager struct {
	mu         sync.RWMutex
	byID       map[string]*Session
	byUser     map[uint64]string
	onExpire   ExpireHook
	defaultTTL time.Duration

	done     chan struct{}
	stopOnce sync.Once
}

func NewManager(onExpire ExpireHook) *Manager {
	m := &Manager{
		byID:       make(map[string]*Session),
		byUser:     make(map[uint64]string),
		onExpire:   onExpire,
		defaultTTL: defaultReconnectGrace,
		done:       make(chan struct{}),
	}
	go m.cleanupLoop()
	return m
}

// Bind attaches conn to userID's session, creating one if none exists.
// reconnected is true when an Absent session was rebound to a fresh socket.
func (m *Manager) Bind(userID uint64, username string, conn *websocket.Conn) (sess *Session, reconnected bool) {
	m.mu.Lock()
	sessionID, exists := m.byUser[userID]
	var s *Session
	if exists {
		s = m.byID[sessionID]
	}
	if s == nil {
		sessionID = uuid.NewString()
		s = newSession(sessionID, userID, username)
		m.byID[sessionID] = s
		m.byUser[userID] = sessionID
	}
	m.mu.Unlock()

	wasAbsent := s.State() == Absent
	s.bindSocket(conn)
	log.Printf("[session] bound user %d to session %s (reconnect=%v)", userID, sessionID, wasAbsent && exists)
	return s, exists && wasAbsent
}

// Get looks up a session by id.
func (m *Manager) Get(sessionID string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.byID[sessionID]
	return s, ok
}

// MarkAbsent transitions a session to Absent and starts its reconnect grace
// window, using graceOverride when positive or the manager default
// otherwise (spec.md §4.5: the lobby's turn_timeout_secs * 4 when in a
// game, else the global default).
func (m *Manager) MarkAbsent(sessionID string, graceOverride time.Duration) {
	m.mu.RLock()
	s, ok := m.byID[sessionID]
	m.mu.RUnlock()
	if !ok {
		return
	}
	grace := m.defaultTTL
	if graceOverride > 0 {
		grace = graceOverride
	}
	s.markAbsent(grace)
}

// Send enqueues env for delivery to sessionID, a no-op if the session is
// unknown or Absent.
func (m *Manager) Send(sessionID string, env wire.Envelope) {
	m.mu.RLock()
	s, ok := m.byID[sessionID]
	m.mu.RUnlock()
	if !ok {
		return
	}
	s.Enqueue(env, m.defaultTTL)
}

// Broadcast enqueues env for every session in sessionIDs.
func (m *Manager) Broadcast(sessionIDs []string, env wire.Envelope) {
	for _, id := range sessionIDs {
		m.Send(id, env)
	}
}

// ClearGame releases sessionID's game context once gameID is torn down, so
// the "not already in a lobby or game" invariant is recoverable after
// GameCompleted instead of permanently stuck. gameID is only used to guard
// against clearing a session that has since moved into a newer game.
func (m *Manager) ClearGame(sessionID, gameID string) {
	m.mu.RLock()
	s, ok := m.byID[sessionID]
	m.mu.RUnlock()
	if !ok {
		return
	}
	if s.GameID() == gameID {
		s.ClearGame()
	}
}

func (m *Manager) remove(sessionID string) {
	m.mu.Lock()
	s, ok := m.byID[sessionID]
	if ok {
		delete(m.byID, sessionID)
		if m.byUser[s.UserID] == sessionID {
			delete(m.byUser, s.UserID)
		}
	}
	m.mu.Unlock()
}

func (m *Manager) cleanupLoop() {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			m.sweepExpired()
		case <-m.done:
			return
		}
	}
}

func (m *Manager) sweepExpired() {
	now := time.Now()
	m.mu.RLock()
	var expired []*Session
	for _, s := range m.byID {
		if s.expired(now) {
			expired = append(expired, s)
		}
	}
	m.mu.RUnlock()

	for _, s := range expired {
		lobbyID, gameID := s.LobbyID(), s.GameID()
		m.remove(s.ID)
		log.Printf("[session] %s expired after reconnect grace", s.ID)
		if m.onExpire != nil {
			m.onExpire(s.ID, lobbyID, gameID)
		}
	}
}

// Stats is the connection half of the /stats endpoint from spec.md §6.1.
type Stats struct {
	Total    int `json:"total"`
	Active   int `json:"active"`
	Inactive int `json:"inactive"`
}

func (m *Manager) Stats() Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()
	st := Stats{Total: len(m.byID)}
	for _, s := range m.byID {
		if s.State() == Live {
			st.Active++
		} else {
			st.Inactive++
		}
	}
	return st
}

func (m *Manager) Stop() {
	m.stopOnce.Do(func() { close(m.done) })
}
