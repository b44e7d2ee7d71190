package game

import (
	"log"
	"sync"
	"time"

	"german-bridge/bridge"
	"german-bridge/internal/persistence"

	"github.com/google/uuid"
)

// Manager owns every in-flight game's Actor, keyed by game id. It is the
// analogue of lobby.Manager for the post-StartGame lifecycle: a session
// belongs to at most one lobby or game (spec.md §4.5), and Manager is where
// the gateway looks a session's game context up.
type Manager struct {
	mu            sync.RWMutex
	games         map[string]*Actor
	sessionGame   map[string]string // session_id -> game_id

	out     Broadcaster
	persist persistence.Service

	retentionGrace time.Duration
	done           chan struct{}
	stopOnce       sync.Once
}

const defaultRetentionGrace = 30 * time.Second

func NewManager(out Broadcaster, persist persistence.Service) *Manager {
	if persist == nil {
		persist = persistence.NewNoopService()
	}
	return &Manager{
		games:          make(map[string]*Actor),
		sessionGame:    make(map[string]string),
		out:            out,
		persist:        persist,
		retentionGrace: defaultRetentionGrace,
		done:           make(chan struct{}),
	}
}

// Start builds a Game from seating/settings and spins up its Actor. seating
// is a lobby's player (session id) list in turn order, becoming the game's
// seat order and PlayerID set one-for-one.
func (m *Manager) Start(seating []string, settings bridge.Settings) (*Actor, error) {
	id := uuid.NewString()
	players := make([]bridge.PlayerID, len(seating))
	for i, s := range seating {
		players[i] = bridge.PlayerID(s)
	}

	engine, err := bridge.NewGame(id, players, settings)
	if err != nil {
		return nil, err
	}

	timeout := time.Duration(settings.TurnTimeoutSecs) * time.Second
	actor := NewActor(id, engine, timeout, m.out, m.persist)
	actor.OnComplete(m.ScheduleDrop)

	m.mu.Lock()
	m.games[id] = actor
	for _, s := range seating {
		m.sessionGame[s] = id
	}
	m.mu.Unlock()

	log.Printf("[game] started %s with %d players", id, len(seating))
	return actor, nil
}

// Get looks an in-flight game's Actor up by id.
func (m *Manager) Get(gameID string) (*Actor, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.games[gameID]
	return a, ok
}

// GameOf reports which game a session currently belongs to, if any.
func (m *Manager) GameOf(session string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.sessionGame[session]
	return id, ok
}

// Drop tears an actor's goroutine down and forgets the game, releasing its
// seated sessions' game context. Called once a GameCompleted broadcast has
// gone out and the retention grace (time for clients to RequestGameState
// one last time) has elapsed.
func (m *Manager) Drop(gameID string) {
	m.mu.Lock()
	a, ok := m.games[gameID]
	if !ok {
		m.mu.Unlock()
		return
	}
	delete(m.games, gameID)
	var freed []string
	for s, g := range m.sessionGame {
		if g == gameID {
			delete(m.sessionGame, s)
			freed = append(freed, s)
		}
	}
	m.mu.Unlock()

	a.Close()
	for _, s := range freed {
		m.out.ClearGame(s, gameID)
	}
}

// ScheduleDrop drops gameID after the manager's retention grace, letting
// disconnected players reconnect and fetch final state before teardown.
func (m *Manager) ScheduleDrop(gameID string) {
	time.AfterFunc(m.retentionGrace, func() { m.Drop(gameID) })
}

// ActiveCount reports the number of in-flight games, for the /stats
// endpoint's games.active_games field (spec.md §6.1).
func (m *Manager) ActiveCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.games)
}

func (m *Manager) Stop() {
	m.stopOnce.Do(func() {
		close(m.done)
		m.mu.Lock()
		defer m.mu.Unlock()
		for _, a := range m.games {
			a.Close()
		}
	})
}
