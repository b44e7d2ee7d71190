// Package lobby implements the lobby manager from spec.md §4.4: lobby
// creation, joining, leaving (with host reassignment), listing, and the
// handoff into a started game.
package lobby

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"german-bridge/bridge"
)

// Status is a lobby's lifecycle state.
type Status int

const (
	StatusOpen Status = iota
	StatusStarting
	StatusClosed
)

func (s Status) String() string {
	switch s {
	case StatusOpen:
		return "Open"
	case StatusStarting:
		return "Starting"
	case StatusClosed:
		return "Closed"
	default:
		return "?"
	}
}

var (
	ErrAlreadyInLobby  = errors.New("session is already in a lobby or game")
	ErrLobbyNotFound   = errors.New("lobby not found")
	ErrLobbyFull       = errors.New("lobby is full")
	ErrLobbyClosed     = errors.New("lobby is closed")
	ErrNotHost         = errors.New("only the host may do that")
	ErrNotEnoughPlayers = errors.New("lobby does not have max_players seated yet")
	ErrNotInLobby      = errors.New("session is not in a lobby")
)

// Lobby is one pending game, seated up to settings.player_count.
type Lobby struct {
	mu sync.Mutex

	ID       string
	Host     string // session id
	Players  []string
	Settings bridge.Settings
	Status   Status

	createdAt time.Time
}

// Summary is the read-only projection sent to clients (spec.md §4.4).
type Summary struct {
	ID         string
	Host       string
	Players    []string
	MaxPlayers int
	Settings   bridge.Settings
}

func (l *Lobby) summary() Summary {
	return Summary{
		ID:         l.ID,
		Host:       l.Host,
		Players:    append([]string(nil), l.Players...),
		MaxPlayers: l.Settings.MaxPlayers(),
		Settings:   l.Settings,
	}
}

// Summary returns a thread-safe snapshot of the lobby.
func (l *Lobby) Summary() Summary {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.summary()
}

// Manager owns every lobby and the single-lobby-membership invariant: a
// session may be in at most one lobby (or game) at a time.
type Manager struct {
	mu           sync.RWMutex
	lobbies      map[string]*Lobby
	sessionLobby map[string]string // session_id -> lobby_id

	idleTTL            time.Duration
	cleanupInterval    time.Duration
	defaultTurnTimeout int
	done               chan struct{}
	stopOnce           sync.Once
}

const (
	defaultIdleTTL              = 10 * time.Minute
	defaultCleanupInterval      = 30 * time.Second
	defaultTurnTimeoutSecsValue = 30
)

func New() *Manager {
	m := &Manager{
		lobbies:            make(map[string]*Lobby),
		sessionLobby:       make(map[string]string),
		idleTTL:            defaultIdleTTL,
		cleanupInterval:    defaultCleanupInterval,
		defaultTurnTimeout: defaultTurnTimeoutSecsValue,
		done:               make(chan struct{}),
	}
	go m.cleanupLoop()
	return m
}

// SetDefaultTurnTimeout overrides the turn_timeout_secs applied to a
// CreateLobby settings payload that omits it (TURN_TIMEOUT_SECS, spec.md
// §4.8).
func (m *Manager) SetDefaultTurnTimeout(secs int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.defaultTurnTimeout = secs
}

// Create reserves a new lobby with owner as host. The host is not seated
// automatically — it joins the same way any other player does, via Join —
// so CreateLobby and JoinLobby remain symmetric over the wire (spec.md §8
// scenario 1: CreateLobby replies LobbyCreated, and the host's own
// subsequent JoinLobby is what produces LobbyJoined with players:[A]).
func (m *Manager) Create(owner string, settings bridge.Settings) (*Lobby, error) {
	m.mu.Lock()
	if settings.TurnTimeoutSecs == 0 {
		settings.TurnTimeoutSecs = m.defaultTurnTimeout
	}
	m.mu.Unlock()

	if err := settings.Validate(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, busy := m.sessionLobby[owner]; busy {
		return nil, ErrAlreadyInLobby
	}

	l := &Lobby{
		ID:        uuid.NewString(),
		Host:      owner,
		Settings:  settings,
		Status:    StatusOpen,
		createdAt: time.Now(),
	}
	m.lobbies[l.ID] = l
	m.sessionLobby[owner] = l.ID
	return l, nil
}

// Join seats session in lobbyID, appending to the player list. A session
// already reserved against lobbyID (the host, just after Create) is allowed
// through; a session reserved against a different lobby is rejected.
func (m *Manager) Join(session, lobbyID string) (*Lobby, error) {
	m.mu.Lock()
	if existing, busy := m.sessionLobby[session]; busy && existing != lobbyID {
		m.mu.Unlock()
		return nil, ErrAlreadyInLobby
	}
	l, ok := m.lobbies[lobbyID]
	m.mu.Unlock()
	if !ok {
		return nil, ErrLobbyNotFound
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.Status != StatusOpen {
		return nil, ErrLobbyClosed
	}
	for _, p := range l.Players {
		if p == session {
			return nil, ErrAlreadyInLobby
		}
	}
	if len(l.Players) >= l.Settings.MaxPlayers() {
		return nil, ErrLobbyFull
	}
	l.Players = append(l.Players, session)

	m.mu.Lock()
	m.sessionLobby[session] = lobbyID
	m.mu.Unlock()
	return l, nil
}

// Leave removes session from whatever lobby it's in. It returns the lobby
// (nil if the lobby was dropped as a result) and whether it still exists.
func (m *Manager) Leave(session string) (lobby *Lobby, stillExists bool, err error) {
	m.mu.Lock()
	lobbyID, ok := m.sessionLobby[session]
	if !ok {
		m.mu.Unlock()
		return nil, false, ErrNotInLobby
	}
	delete(m.sessionLobby, session)
	l, ok := m.lobbies[lobbyID]
	m.mu.Unlock()
	if !ok {
		return nil, false, nil
	}

	l.mu.Lock()
	l.Players = removeSession(l.Players, session)
	drop := len(l.Players) == 0
	if !drop && l.Host == session {
		l.Host = l.Players[0]
	}
	l.mu.Unlock()

	if drop {
		m.mu.Lock()
		delete(m.lobbies, lobbyID)
		m.mu.Unlock()
		return nil, false, nil
	}
	return l, true, nil
}

// Start transitions lobbyID to Closed and returns the seating order for
// the caller to construct a Game with. Only the host may call it, and
// every seat must be filled.
func (m *Manager) Start(session, lobbyID string) (seating []string, settings bridge.Settings, err error) {
	m.mu.RLock()
	l, ok := m.lobbies[lobbyID]
	m.mu.RUnlock()
	if !ok {
		return nil, bridge.Settings{}, ErrLobbyNotFound
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.Status != StatusOpen {
		return nil, bridge.Settings{}, ErrLobbyClosed
	}
	if l.Host != session {
		return nil, bridge.Settings{}, ErrNotHost
	}
	if len(l.Players) != l.Settings.MaxPlayers() {
		return nil, bridge.Settings{}, ErrNotEnoughPlayers
	}

	l.Status = StatusClosed
	return append([]string(nil), l.Players...), l.Settings, nil
}

// List returns every Open lobby.
func (m *Manager) List() []Summary {
	m.mu.RLock()
	lobbies := make([]*Lobby, 0, len(m.lobbies))
	for _, l := range m.lobbies {
		lobbies = append(lobbies, l)
	}
	m.mu.RUnlock()

	out := make([]Summary, 0, len(lobbies))
	for _, l := range lobbies {
		l.mu.Lock()
		if l.Status == StatusOpen {
			out = append(out, l.summary())
		}
		l.mu.Unlock()
	}
	return out
}

// Get looks up a lobby by id.
func (m *Manager) Get(lobbyID string) (*Lobby, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	l, ok := m.lobbies[lobbyID]
	return l, ok
}

// LobbyOf reports which lobby a session currently belongs to, if any.
func (m *Manager) LobbyOf(session string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.sessionLobby[session]
	return id, ok
}

// Drop removes lobbyID outright, e.g. once its game has started and the
// lobby record is no longer needed.
func (m *Manager) Drop(lobbyID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.lobbies[lobbyID]
	if !ok {
		return
	}
	delete(m.lobbies, lobbyID)
	for _, p := range l.Players {
		if m.sessionLobby[p] == lobbyID {
			delete(m.sessionLobby, p)
		}
	}
}

func (m *Manager) cleanupLoop() {
	ticker := time.NewTicker(m.cleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			m.sweepIdle()
		case <-m.done:
			return
		}
	}
}

// sweepIdle drops lobbies that sat Open past idleTTL with nobody acting —
// an abandoned CreateLobby that nobody ever joined or started.
func (m *Manager) sweepIdle() {
	now := time.Now()
	m.mu.RLock()
	var stale []string
	for id, l := range m.lobbies {
		l.mu.Lock()
		if l.Status == StatusOpen && now.Sub(l.createdAt) > m.idleTTL {
			stale = append(stale, id)
		}
		l.mu.Unlock()
	}
	m.mu.RUnlock()

	for _, id := range stale {
		m.Drop(id)
	}
}

func (m *Manager) Stop() {
	m.stopOnce.Do(func() { close(m.done) })
}

func removeSession(players []string, session string) []string {
	out := make([]string, 0, len(players))
	for _, p := range players {
		if p != session {
			out = append(out, p)
		}
	}
	return out
}
